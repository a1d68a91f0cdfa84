package repository

import (
	"context"

	"marketplace/internal/domain/model"
)

// カート明細とその商品のペア
type CartLine struct {
	Item    model.CartItem
	Product model.Product
}

type CartItemRepository interface {
	//ユーザーの明細一覧（商品付き。削除済み商品も拾う＝注文側で弾く）
	ListByUserID(ctx context.Context, userID int64) ([]CartLine, error)
	FindByID(ctx context.Context, cartItemID int64) (model.CartItem, error)
	FindByUserAndProduct(ctx context.Context, userID int64, productID int64) (model.CartItem, error)

	Create(ctx context.Context, item model.CartItem) (model.CartItem, error)
	UpdateQuantity(ctx context.Context, cartItemID int64, quantity int64) error
	DeleteByID(ctx context.Context, cartItemID int64) error
	//注文確定時のカートクリア
	DeleteByUserID(ctx context.Context, userID int64) error
}
