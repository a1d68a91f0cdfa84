package handler

import (
	"net/http"

	repo "marketplace/internal/repository"
	"marketplace/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AdminOrderHandler struct {
	usecase *usecase.AdminOrderUsecase
}

func NewAdminOrderHandler(u *usecase.AdminOrderUsecase) *AdminOrderHandler {
	return &AdminOrderHandler{usecase: u}
}

// GET /admin/orders
func (h *AdminOrderHandler) List(c echo.Context) error {
	page, err := parseIntQuery(c, "page", 1)
	if err != nil {
		return writeError(c, err)
	}
	limit, err := parseIntQuery(c, "limit", 20)
	if err != nil {
		return writeError(c, err)
	}
	userID, err := parseInt64Query(c, "user_id")
	if err != nil {
		return writeError(c, err)
	}
	f := repo.OrderListFilter{
		Page:   page,
		Limit:  limit,
		Q:      c.QueryParam("q"),
		Status: c.QueryParam("status"),
		UserID: userID,
	}
	items, total, err := h.usecase.List(c.Request().Context(), f)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, ordersResponse{Items: items, Total: total, Page: page, Limit: limit})
}

type updateOrderStatusRequest struct {
	Status string `json:"status"`
}

// PUT /admin/orders/:id/status
// 管理者による配送状態の更新。在庫や決済には触らない。
func (h *AdminOrderHandler) UpdateStatus(c echo.Context) error {
	id, err := parsePathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var req updateOrderStatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: usecase.CodeValidation})
	}
	out, err := h.usecase.UpdateStatus(c.Request().Context(), getUserIDFromContext(c), id, usecase.AdminUpdateOrderStatusInput{
		Status: req.Status,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
