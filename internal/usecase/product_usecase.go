package usecase

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"

	"github.com/shopspring/decimal"
)

type ProductUsecase struct {
	tx          repo.TransactionManager
	productRepo repo.ProductRepository
}

// DI
func NewProductUsecase(tx repo.TransactionManager, productRepo repo.ProductRepository) *ProductUsecase {
	return &ProductUsecase{tx: tx, productRepo: productRepo}
}

// GET /productsの入力DTO
type ListProductsInput struct {
	Page     int
	Limit    int
	Q        string
	Category string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	MinStock *int64
	MaxStock *int64
	Sort     string
}

type ProductListOutput struct {
	Items []model.Product `json:"items"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

func (u *ProductUsecase) ListProducts(ctx context.Context, in ListProductsInput) (ProductListOutput, error) {
	if in.Page < 1 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid limit")
	}
	if len(in.Q) > 100 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "q too long")
	}
	if in.MinPrice != nil && in.MinPrice.IsNegative() {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "min_price must be >= 0")
	}
	if in.MaxPrice != nil && in.MaxPrice.IsNegative() {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "max_price must be >= 0")
	}
	if in.MinPrice != nil && in.MaxPrice != nil && in.MinPrice.GreaterThan(*in.MaxPrice) {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "min_price must be <= max_price")
	}
	switch in.Sort {
	case "", "new", "price_asc", "price_desc":
	default:
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid sort")
	}

	items, total, err := u.productRepo.List(ctx, repo.ProductListQuery{
		Page:     in.Page,
		Limit:    in.Limit,
		Q:        strings.TrimSpace(in.Q),
		Category: strings.TrimSpace(in.Category),
		MinPrice: in.MinPrice,
		MaxPrice: in.MaxPrice,
		MinStock: in.MinStock,
		MaxStock: in.MaxStock,
		Sort:     in.Sort,
	})
	if err != nil {
		return ProductListOutput{}, NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}

	return ProductListOutput{
		Items: items,
		Total: total,
		Page:  in.Page,
		Limit: in.Limit,
	}, nil
}

func (u *ProductUsecase) GetProductDetail(ctx context.Context, productID int64) (model.Product, error) {
	if productID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid product id")
	}

	p, err := u.productRepo.FindByID(ctx, productID)
	if err == repo.ErrNotFound {
		return model.Product{}, NewHTTPError(http.StatusNotFound, CodeNotFound, "product not found")
	}
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}
	return p, nil
}

type AdminCreateProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int64
	Category    string
	ImageURL    string
}

func (u *ProductUsecase) AdminCreateProduct(ctx context.Context, adminUserID int64, in AdminCreateProductInput) (model.Product, error) {
	if adminUserID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "name required")
	}
	if in.Price.IsNegative() {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "price must be >= 0")
	}
	if in.Stock < 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "stock must be >= 0")
	}

	//生きている同名商品は拒否
	exists, err := u.productRepo.ExistsByName(ctx, name)
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}
	if exists {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, CodeConflict, "product with this name already exists")
	}

	now := time.Now()
	p, err := u.productRepo.Create(ctx, model.Product{
		Name:        name,
		Description: in.Description,
		Price:       in.Price,
		Stock:       in.Stock,
		Category:    strings.TrimSpace(in.Category),
		ImageURL:    strings.TrimSpace(in.ImageURL),
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}
	return p, nil
}

// 部分更新の入力。nilのフィールドは変更しない。
type AdminUpdateProductInput struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Stock       *int64
	Category    *string
	ImageURL    *string
}

func (u *ProductUsecase) AdminUpdateProduct(ctx context.Context, adminUserID int64, productID int64, in AdminUpdateProductInput) (model.Product, error) {
	if adminUserID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid product id")
	}
	if in.Name == nil && in.Description == nil && in.Price == nil &&
		in.Stock == nil && in.Category == nil && in.ImageURL == nil {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "no update fields provided")
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "name required")
	}
	if in.Price != nil && in.Price.IsNegative() {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "price must be >= 0")
	}
	if in.Stock != nil && *in.Stock < 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "stock must be >= 0")
	}

	var p model.Product

	//読み→部分更新→監査ログまでを1txで
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		cur, err := r.Products().FindByID(ctx, productID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, CodeNotFound, "product not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}

		before := cur

		if in.Name != nil {
			cur.Name = strings.TrimSpace(*in.Name)
		}
		if in.Description != nil {
			cur.Description = *in.Description
		}
		if in.Price != nil {
			cur.Price = *in.Price
		}
		if in.Stock != nil {
			cur.Stock = *in.Stock
		}
		if in.Category != nil {
			cur.Category = strings.TrimSpace(*in.Category)
		}
		if in.ImageURL != nil {
			cur.ImageURL = strings.TrimSpace(*in.ImageURL)
		}

		if err := r.Products().Update(ctx, cur); err != nil {
			if err == repo.ErrNotFound {
				return NewHTTPError(http.StatusNotFound, CodeNotFound, "product not found")
			}
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}

		//監査ログ（在庫含む商品更新）
		beforeJSON := fmt.Sprintf(`{"price":"%s","stock":%d}`, before.Price.String(), before.Stock)
		afterJSON := fmt.Sprintf(`{"price":"%s","stock":%d}`, cur.Price.String(), cur.Stock)
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  adminUserID,
			Action:       model.AuditActionUpdateProduct,
			ResourceType: model.AuditResourceProduct,
			ResourceID:   productID,
			BeforeJSON:   beforeJSON,
			AfterJSON:    afterJSON,
			CreatedAt:    time.Now(),
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}

		p = cur
		return nil
	})
	if err != nil {
		return model.Product{}, err
	}

	return p, nil
}

func (u *ProductUsecase) AdminDeleteProduct(ctx context.Context, adminUserID int64, productID int64) error {
	if adminUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid product id")
	}

	err := u.productRepo.SoftDelete(ctx, productID)
	if err == repo.ErrNotFound {
		return NewHTTPError(http.StatusNotFound, CodeNotFound, "product not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}
	return nil
}
