package handler

import (
	"net/http"

	"marketplace/internal/usecase"

	"github.com/labstack/echo/v4"
)

type CartHandler struct {
	usecase *usecase.CartUsecase
}

func NewCartHandler(u *usecase.CartUsecase) *CartHandler {
	return &CartHandler{usecase: u}
}

// GET /cart
func (h *CartHandler) Get(c echo.Context) error {
	out, err := h.usecase.GetCart(c.Request().Context(), getUserIDFromContext(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

type addCartRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

// POST /cart/items
func (h *CartHandler) Add(c echo.Context) error {
	var req addCartRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: usecase.CodeValidation})
	}
	out, err := h.usecase.AddToCart(c.Request().Context(), getUserIDFromContext(c), usecase.AddCartInput{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

type updateCartItemRequest struct {
	Quantity int64 `json:"quantity"`
}

// PUT /cart/items/:id
func (h *CartHandler) Update(c echo.Context) error {
	id, err := parsePathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var req updateCartItemRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: usecase.CodeValidation})
	}
	out, err := h.usecase.UpdateCartItem(c.Request().Context(), getUserIDFromContext(c), id, usecase.UpdateCartItemInput{Quantity: req.Quantity})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// DELETE /cart/items/:id
func (h *CartHandler) Remove(c echo.Context) error {
	id, err := parsePathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.usecase.RemoveFromCart(c.Request().Context(), getUserIDFromContext(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// DELETE /cart
func (h *CartHandler) Clear(c echo.Context) error {
	if err := h.usecase.ClearCart(c.Request().Context(), getUserIDFromContext(c)); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
