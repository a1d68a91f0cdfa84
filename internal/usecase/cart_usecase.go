package usecase

import (
	"context"
	"fmt"
	"net/http"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"

	"github.com/shopspring/decimal"
)

// CartUsecase は /cart の業務ロジックです。
type CartUsecase struct {
	cartItems repo.CartItemRepository
	products  repo.ProductRepository
}

func NewCartUsecase(cartItems repo.CartItemRepository, products repo.ProductRepository) *CartUsecase {
	return &CartUsecase{cartItems: cartItems, products: products}
}

type CartItemResponse struct {
	ID        int64           `json:"id"`
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int64           `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type CartResponse struct {
	Items       []CartItemResponse `json:"items"`
	TotalAmount decimal.Decimal    `json:"total_amount"`
	TotalItems  int                `json:"total_items"`
}

type AddCartInput struct {
	ProductID int64
	Quantity  int64
}

type UpdateCartItemInput struct {
	Quantity int64
}

// GetCart はカート取得。削除済み商品の明細は表示しない。
func (u *CartUsecase) GetCart(ctx context.Context, userID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
	}
	return u.buildCartResponse(ctx, userID)
}

// AddToCart はカートに追加（同一商品は数量加算）。
// 加算後の数量が現在庫を超えるなら拒否する。
func (u *CartUsecase) AddToCart(ctx context.Context, userID int64, in AddCartInput) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
	}
	if in.ProductID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid product_id")
	}
	if in.Quantity < 1 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid quantity")
	}

	//商品チェック（削除済みはFindByIDの時点で404になる）
	p, err := u.products.FindByID(ctx, in.ProductID)
	if err == repo.ErrNotFound {
		return CartResponse{}, NewHTTPError(http.StatusNotFound, CodeNotFound, "product not found")
	}
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}

	//既存明細があれば加算
	existing, err := u.cartItems.FindByUserAndProduct(ctx, userID, in.ProductID)
	if err != nil && err != repo.ErrNotFound {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}

	newQty := in.Quantity
	if err == nil {
		newQty = existing.Quantity + in.Quantity
	}
	if newQty > p.Stock {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, CodeInsufficientStock,
			fmt.Sprintf("only %d items available in stock", p.Stock))
	}

	if err == repo.ErrNotFound {
		_, cerr := u.cartItems.Create(ctx, model.CartItem{
			UserID:    userID,
			ProductID: in.ProductID,
			Quantity:  in.Quantity,
		})
		if cerr != nil {
			return CartResponse{}, NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}
	} else {
		if uerr := u.cartItems.UpdateQuantity(ctx, existing.ID, newQty); uerr != nil {
			return CartResponse{}, NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}
	}

	return u.buildCartResponse(ctx, userID)
}

// 数量変更（所有チェック＋在庫チェック）。
func (u *CartUsecase) UpdateCartItem(ctx context.Context, userID int64, cartItemID int64, in UpdateCartItemInput) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
	}
	if cartItemID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid id")
	}
	if in.Quantity < 1 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid quantity")
	}

	item, err := u.cartItems.FindByID(ctx, cartItemID)
	if err == repo.ErrNotFound {
		return CartResponse{}, NewHTTPError(http.StatusNotFound, CodeNotFound, "cart item not found")
	}
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}
	if item.UserID != userID {
		return CartResponse{}, NewHTTPError(http.StatusForbidden, CodeForbidden, "you are not authorized to update this cart item")
	}

	//商品の在庫チェック
	p, err := u.products.FindByID(ctx, item.ProductID)
	if err == repo.ErrNotFound {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, CodeProductUnavailable, "product is no longer available")
	}
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}
	if in.Quantity > p.Stock {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, CodeInsufficientStock,
			fmt.Sprintf("only %d items available in stock", p.Stock))
	}

	if err := u.cartItems.UpdateQuantity(ctx, cartItemID, in.Quantity); err != nil {
		if err == repo.ErrNotFound {
			return CartResponse{}, NewHTTPError(http.StatusNotFound, CodeNotFound, "cart item not found")
		}
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}

	return u.buildCartResponse(ctx, userID)
}

// 明細削除
func (u *CartUsecase) RemoveFromCart(ctx context.Context, userID int64, cartItemID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
	}
	if cartItemID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid id")
	}

	item, err := u.cartItems.FindByID(ctx, cartItemID)
	if err == repo.ErrNotFound {
		return CartResponse{}, NewHTTPError(http.StatusNotFound, CodeNotFound, "cart item not found")
	}
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}
	if item.UserID != userID {
		return CartResponse{}, NewHTTPError(http.StatusForbidden, CodeForbidden, "you are not authorized to remove this cart item")
	}

	if err := u.cartItems.DeleteByID(ctx, cartItemID); err != nil {
		if err == repo.ErrNotFound {
			return CartResponse{}, NewHTTPError(http.StatusNotFound, CodeNotFound, "cart item not found")
		}
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}

	return u.buildCartResponse(ctx, userID)
}

// カートを空にする
func (u *CartUsecase) ClearCart(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
	}
	if err := u.cartItems.DeleteByUserID(ctx, userID); err != nil {
		return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}
	return nil
}

// ユーザーの明細をまとめてCartResponseを作る。
func (u *CartUsecase) buildCartResponse(ctx context.Context, userID int64) (CartResponse, error) {
	lines, err := u.cartItems.ListByUserID(ctx, userID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}

	respItems := make([]CartItemResponse, 0, len(lines))
	total := decimal.Zero

	for _, ln := range lines {
		if ln.Product.DeletedAt.Valid {
			continue
		}

		subtotal := ln.Product.Price.Mul(decimal.NewFromInt(ln.Item.Quantity))
		respItems = append(respItems, CartItemResponse{
			ID:        ln.Item.ID,
			ProductID: ln.Item.ProductID,
			Name:      ln.Product.Name,
			Price:     ln.Product.Price,
			Quantity:  ln.Item.Quantity,
			Subtotal:  subtotal,
		})
		total = total.Add(subtotal)
	}

	return CartResponse{
		Items:       respItems,
		TotalAmount: total,
		TotalItems:  len(respItems),
	}, nil
}
