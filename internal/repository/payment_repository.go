package repository

import (
	"context"

	"marketplace/internal/domain/model"
)

type PaymentListFilter struct {
	Page  int
	Limit int
	Q     string //transaction_idの部分一致
}

type PaymentRepository interface {
	//注文に紐づく支払い（無ければ found=false）
	FindByOrderID(ctx context.Context, orderID int64) (model.Payment, bool, error)
	Create(ctx context.Context, p model.Payment) (int64, error)
	Update(ctx context.Context, p model.Payment) error
	ListAdmin(ctx context.Context, f PaymentListFilter) ([]model.Payment, int64, error)
}
