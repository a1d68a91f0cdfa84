package repository

import (
	"context"
	"time"

	"marketplace/internal/domain/model"
)

type OrderListFilter struct {
	Page   int
	Limit  int
	Q      string //注文番号の部分一致
	Status string
	UserID *int64
}

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	ListByUserID(ctx context.Context, userID int64, f OrderListFilter) ([]model.Order, int64, error)
	//管理者用の注文一覧
	ListAdmin(ctx context.Context, f OrderListFilter) ([]model.Order, int64, error)

	Create(ctx context.Context, order model.Order) (int64, error)
	UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error
	//キャンセル確定（status/canceled_at/cancel_reasonを同時に）
	MarkCanceled(ctx context.Context, orderID int64, reason string, at time.Time) error
	//支払い完了時のstatus/payment_status更新。キャンセル済みには当たらない
	UpdatePaymentResult(ctx context.Context, orderID int64, status model.OrderStatus, ps model.PaymentStatus) error
}
