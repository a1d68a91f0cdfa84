package handler

import (
	"net/http"
	"strconv"

	"marketplace/internal/middleware"
	"marketplace/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// usecaseのHTTPErrorをそのままレスポンスへ。
// 想定外のerrorは詳細を隠して500を返す。
func writeError(c echo.Context, err error) error {
	if he, ok := usecase.AsHTTPError(err); ok {
		return c.JSON(he.Status, ErrorResponse{Error: he.Message, Code: he.Code})
	}
	c.Logger().Error(err)
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error", Code: usecase.CodeInternal})
}

func getUserIDFromContext(c echo.Context) int64 {
	id, _ := c.Get(middleware.CtxUserIDKey).(int64)
	return id
}

// /:id 形式のパスパラメータを取り出す
func parsePathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, usecase.NewHTTPError(http.StatusBadRequest, usecase.CodeValidation, "invalid "+name)
	}
	return id, nil
}

func parseIntQuery(c echo.Context, name string, def int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, usecase.NewHTTPError(http.StatusBadRequest, usecase.CodeValidation, "invalid "+name)
	}
	return v, nil
}

func parseDecimalQuery(c echo.Context, name string) (*decimal.Decimal, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, usecase.NewHTTPError(http.StatusBadRequest, usecase.CodeValidation, "invalid "+name)
	}
	return &d, nil
}

func parseInt64Query(c echo.Context, name string) (*int64, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, usecase.NewHTTPError(http.StatusBadRequest, usecase.CodeValidation, "invalid "+name)
	}
	return &v, nil
}

type ProductHandler struct {
	usecase *usecase.ProductUsecase
}

func NewProductHandler(u *usecase.ProductUsecase) *ProductHandler {
	return &ProductHandler{usecase: u}
}

// GET /products
func (h *ProductHandler) List(c echo.Context) error {
	page, err := parseIntQuery(c, "page", 1)
	if err != nil {
		return writeError(c, err)
	}
	limit, err := parseIntQuery(c, "limit", 20)
	if err != nil {
		return writeError(c, err)
	}
	minPrice, err := parseDecimalQuery(c, "min_price")
	if err != nil {
		return writeError(c, err)
	}
	maxPrice, err := parseDecimalQuery(c, "max_price")
	if err != nil {
		return writeError(c, err)
	}
	minStock, err := parseInt64Query(c, "min_stock")
	if err != nil {
		return writeError(c, err)
	}
	maxStock, err := parseInt64Query(c, "max_stock")
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.usecase.ListProducts(c.Request().Context(), usecase.ListProductsInput{
		Page:     page,
		Limit:    limit,
		Q:        c.QueryParam("q"),
		Category: c.QueryParam("category"),
		MinPrice: minPrice,
		MaxPrice: maxPrice,
		MinStock: minStock,
		MaxStock: maxStock,
		Sort:     c.QueryParam("sort"),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// GET /products/:id
func (h *ProductHandler) Detail(c echo.Context) error {
	id, err := parsePathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	p, err := h.usecase.GetProductDetail(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

type createProductRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int64           `json:"stock"`
	Category    string          `json:"category"`
	ImageURL    string          `json:"image_url"`
}

// POST /admin/products
func (h *ProductHandler) AdminCreate(c echo.Context) error {
	var req createProductRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: usecase.CodeValidation})
	}
	p, err := h.usecase.AdminCreateProduct(c.Request().Context(), getUserIDFromContext(c), usecase.AdminCreateProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		Category:    req.Category,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

type updateProductRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int64           `json:"stock"`
	Category    *string          `json:"category"`
	ImageURL    *string          `json:"image_url"`
}

// PUT /admin/products/:id
func (h *ProductHandler) AdminUpdate(c echo.Context) error {
	id, err := parsePathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var req updateProductRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: usecase.CodeValidation})
	}
	p, err := h.usecase.AdminUpdateProduct(c.Request().Context(), getUserIDFromContext(c), id, usecase.AdminUpdateProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		Category:    req.Category,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

// DELETE /admin/products/:id
func (h *ProductHandler) AdminDelete(c echo.Context) error {
	id, err := parsePathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	if err := h.usecase.AdminDeleteProduct(c.Request().Context(), getUserIDFromContext(c), id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
