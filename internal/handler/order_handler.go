package handler

import (
	"net/http"

	repo "marketplace/internal/repository"
	"marketplace/internal/usecase"

	"github.com/labstack/echo/v4"
)

type OrderHandler struct {
	usecase *usecase.OrderUsecase
}

func NewOrderHandler(u *usecase.OrderUsecase) *OrderHandler {
	return &OrderHandler{usecase: u}
}

type placeOrderRequest struct {
	ShippingAddress string `json:"shipping_address"`
	Notes           string `json:"notes"`
}

// POST /orders
func (h *OrderHandler) Place(c echo.Context) error {
	var req placeOrderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: usecase.CodeValidation})
	}
	out, err := h.usecase.PlaceOrder(c.Request().Context(), getUserIDFromContext(c), usecase.PlaceOrderInput{
		ShippingAddress: req.ShippingAddress,
		Notes:           req.Notes,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

type ordersResponse struct {
	Items []usecase.OrderOutput `json:"items"`
	Total int64                 `json:"total"`
	Page  int                   `json:"page"`
	Limit int                   `json:"limit"`
}

// GET /orders
func (h *OrderHandler) List(c echo.Context) error {
	page, err := parseIntQuery(c, "page", 1)
	if err != nil {
		return writeError(c, err)
	}
	limit, err := parseIntQuery(c, "limit", 20)
	if err != nil {
		return writeError(c, err)
	}
	f := repo.OrderListFilter{
		Page:   page,
		Limit:  limit,
		Q:      c.QueryParam("q"),
		Status: c.QueryParam("status"),
	}
	items, total, err := h.usecase.ListMyOrders(c.Request().Context(), getUserIDFromContext(c), f)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, ordersResponse{Items: items, Total: total, Page: page, Limit: limit})
}

// GET /orders/:id
func (h *OrderHandler) Detail(c echo.Context) error {
	id, err := parsePathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.usecase.GetMyOrderDetail(c.Request().Context(), getUserIDFromContext(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

type cancelOrderRequest struct {
	Reason string `json:"reason"`
}

// POST /orders/:id/cancel
func (h *OrderHandler) Cancel(c echo.Context) error {
	id, err := parsePathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var req cancelOrderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: usecase.CodeValidation})
	}
	out, err := h.usecase.CancelOrder(c.Request().Context(), getUserIDFromContext(c), id, req.Reason)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
