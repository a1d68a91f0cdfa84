package handler

import (
	"net/http"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"
	"marketplace/internal/usecase"

	"github.com/labstack/echo/v4"
)

type PaymentHandler struct {
	usecase *usecase.PaymentUsecase
}

func NewPaymentHandler(u *usecase.PaymentUsecase) *PaymentHandler {
	return &PaymentHandler{usecase: u}
}

type processPaymentRequest struct {
	OrderID int64  `json:"order_id"`
	Method  string `json:"payment_method"`
}

// POST /payments
func (h *PaymentHandler) Process(c echo.Context) error {
	var req processPaymentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: usecase.CodeValidation})
	}
	if req.OrderID <= 0 {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid order_id", Code: usecase.CodeValidation})
	}
	method, ok := model.ParsePaymentMethod(req.Method)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid payment_method", Code: usecase.CodeValidation})
	}
	out, err := h.usecase.ProcessPayment(c.Request().Context(), getUserIDFromContext(c), req.OrderID, method)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

type paymentsResponse struct {
	Items []usecase.PaymentOutput `json:"items"`
	Total int64                   `json:"total"`
	Page  int                     `json:"page"`
	Limit int                     `json:"limit"`
}

// GET /admin/payments
func (h *PaymentHandler) AdminList(c echo.Context) error {
	page, err := parseIntQuery(c, "page", 1)
	if err != nil {
		return writeError(c, err)
	}
	limit, err := parseIntQuery(c, "limit", 20)
	if err != nil {
		return writeError(c, err)
	}
	f := repo.PaymentListFilter{
		Page:  page,
		Limit: limit,
		Q:     c.QueryParam("q"),
	}
	items, total, err := h.usecase.ListPayments(c.Request().Context(), f)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, paymentsResponse{Items: items, Total: total, Page: page, Limit: limit})
}
