package usecase

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"

	"github.com/shopspring/decimal"
)

// OrderUsecase は注文の作成（カート→注文の確定）とキャンセルを担当する。
// 在庫チェック・注文作成・明細作成・在庫減算・カートクリアは1トランザクション。
type OrderUsecase struct {
	tx        repo.TransactionManager
	users     repo.UserRepository
	cartItems repo.CartItemRepository

	//この回数以上キャンセルしたユーザーは注文させない
	fraudThreshold int64
}

func NewOrderUsecase(
	tx repo.TransactionManager,
	users repo.UserRepository,
	cartItems repo.CartItemRepository,
	fraudThreshold int64,
) *OrderUsecase {
	return &OrderUsecase{
		tx:             tx,
		users:          users,
		cartItems:      cartItems,
		fraudThreshold: fraudThreshold,
	}
}

type PlaceOrderInput struct {
	ShippingAddress string
	Notes           string
}

type OrderItemOutput struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int64           `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type OrderOutput struct {
	ID              int64             `json:"id"`
	UserID          int64             `json:"user_id"`
	OrderNumber     string            `json:"order_number"`
	TotalAmount     decimal.Decimal   `json:"total_amount"`
	ShippingAddress string            `json:"shipping_address"`
	Notes           string            `json:"notes"`
	Status          string            `json:"status"`
	PaymentStatus   string            `json:"payment_status"`
	CancelReason    *string           `json:"cancel_reason,omitempty"`
	CanceledAt      *time.Time        `json:"canceled_at,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	Items           []OrderItemOutput `json:"items"`
}

// 注文番号（ORD-<ミリ秒>-<乱数4桁>）。
// DBのユニーク制約もあるので、万一の衝突は作成エラーとして表に出る。
func generateOrderNumber(now time.Time) string {
	return fmt.Sprintf("ORD-%d-%04d", now.UnixMilli(), rand.Intn(10000))
}

// PlaceOrder はカートを注文に変換する。
// 失敗したら在庫もカートも注文も一切変化しない。
func (u *OrderUsecase) PlaceOrder(ctx context.Context, userID int64, in PlaceOrderInput) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
	}
	address := strings.TrimSpace(in.ShippingAddress)
	if address == "" {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "shipping address is required")
	}

	//不正チェック（キャンセル回数が閾値以上なら拒否）
	user, err := u.users.FindByID(ctx, userID)
	if err == repo.ErrNotFound {
		return OrderOutput{}, NewHTTPError(http.StatusNotFound, CodeNotFound, "user not found")
	}
	if err != nil {
		return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}
	if user.CanceledOrdersCount >= u.fraudThreshold {
		return OrderOutput{}, NewHTTPError(http.StatusForbidden, CodeAccessDenied,
			"your account has been flagged due to excessive order cancellations. please contact support")
	}

	//カート取得
	lines, err := u.cartItems.ListByUserID(ctx, userID)
	if err != nil {
		return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}
	if len(lines) == 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, CodeEmptyCart, "cart is empty")
	}

	//在庫と価格を事前チェックして合計を出す（ここはまだ読み取りだけ）
	orderItems := make([]model.OrderItem, 0, len(lines))
	outItems := make([]OrderItemOutput, 0, len(lines))
	total := decimal.Zero

	for _, ln := range lines {
		if ln.Product.DeletedAt.Valid {
			return OrderOutput{}, NewHTTPError(http.StatusBadRequest, CodeProductUnavailable,
				fmt.Sprintf("product %s is no longer available", ln.Product.Name))
		}
		if ln.Product.Stock < ln.Item.Quantity {
			return OrderOutput{}, NewHTTPError(http.StatusBadRequest, CodeInsufficientStock,
				fmt.Sprintf("insufficient stock for %s. only %d available", ln.Product.Name, ln.Product.Stock))
		}

		//価格スナップショット
		subtotal := ln.Product.Price.Mul(decimal.NewFromInt(ln.Item.Quantity))
		total = total.Add(subtotal)

		orderItems = append(orderItems, model.OrderItem{
			ProductID: ln.Item.ProductID,
			Quantity:  ln.Item.Quantity,
			Price:     ln.Product.Price,
			Subtotal:  subtotal,
		})
		outItems = append(outItems, OrderItemOutput{
			ProductID: ln.Item.ProductID,
			Name:      ln.Product.Name,
			Quantity:  ln.Item.Quantity,
			Price:     ln.Product.Price,
			Subtotal:  subtotal,
		})
	}

	now := time.Now()
	order := model.Order{
		UserID:          userID,
		OrderNumber:     generateOrderNumber(now),
		TotalAmount:     total,
		ShippingAddress: address,
		Notes:           strings.TrimSpace(in.Notes),
		Status:          model.OrderStatusPending,
		PaymentStatus:   model.PaymentStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	var out OrderOutput

	//注文作成・明細作成・在庫減算・カートクリアは全部まとめてcommit
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orderID, err := r.Orders().Create(ctx, order)
		if err == repo.ErrDuplicate {
			//注文番号が衝突した（ミリ秒+乱数4桁なのでほぼ起きない）
			return NewHTTPError(http.StatusConflict, CodeConflict, "failed to allocate order number. please retry")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}

		if err := r.OrderItems().CreateBulk(ctx, orderID, orderItems); err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}

		//在庫減算。チェックと減算は条件付きUPDATE1文なので
		//並行する注文と競合しても売り越さない。
		for i, it := range orderItems {
			ok, err := r.Stock().Reserve(ctx, it.ProductID, it.Quantity)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
			}
			if !ok {
				//残数をメッセージに載せるためtx内で読み直す
				p, perr := r.Products().FindByID(ctx, it.ProductID)
				if perr == repo.ErrNotFound {
					return NewHTTPError(http.StatusBadRequest, CodeProductUnavailable,
						fmt.Sprintf("product %s is no longer available", outItems[i].Name))
				}
				if perr != nil {
					return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
				}
				return NewHTTPError(http.StatusBadRequest, CodeInsufficientStock,
					fmt.Sprintf("insufficient stock for %s. only %d available", p.Name, p.Stock))
			}
		}

		//カートクリア（再注文防止）
		if err := r.CartItems().DeleteByUserID(ctx, userID); err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}

		order.ID = orderID
		out = toOrderOutput(order, nil)
		out.Items = outItems
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// CancelOrder は本人の注文をキャンセルする。
// 在庫戻し・ステータス変更・キャンセル回数＋１は1トランザクション。
func (u *OrderUsecase) CancelOrder(ctx context.Context, userID int64, orderID int64, cancelReason string) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid id")
	}
	reason := strings.TrimSpace(cancelReason)
	if reason == "" {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "cancel reason is required")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, CodeNotFound, "order not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}
		if o.UserID != userID {
			return NewHTTPError(http.StatusForbidden, CodeForbidden, "you are not authorized to cancel this order")
		}

		//遷移ガード。並行するステータス更新とはtxで直列化され、
		//負けた側はここで更新後のステータスを見る。
		switch {
		case o.Status == model.OrderStatusCanceled:
			return NewHTTPError(http.StatusBadRequest, CodeInvalidTransition, "order is already canceled")
		case o.Status == model.OrderStatusDelivered:
			return NewHTTPError(http.StatusBadRequest, CodeInvalidTransition, "cannot cancel delivered order")
		case o.Status == model.OrderStatusShipped:
			return NewHTTPError(http.StatusBadRequest, CodeInvalidTransition, "cannot cancel shipped order. please contact support")
		case !o.Status.CanCancel():
			return NewHTTPError(http.StatusBadRequest, CodeInvalidTransition, "order cannot be canceled")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}

		//在庫戻し
		for _, it := range items {
			if err := r.Stock().Restore(ctx, it.ProductID, it.Quantity); err != nil {
				return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
			}
		}

		now := time.Now()
		if err := r.Orders().MarkCanceled(ctx, orderID, reason, now); err != nil {
			if err == repo.ErrNotFound {
				return NewHTTPError(http.StatusNotFound, CodeNotFound, "order not found")
			}
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}

		//キャンセル回数＋１（次回以降の不正チェックに効く）
		if err := r.Users().IncrementCanceledOrders(ctx, userID); err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}

		o.Status = model.OrderStatusCanceled
		o.CancelReason = &reason
		o.CanceledAt = &now
		out = toOrderOutput(o, items)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// ListMyOrders は自分の注文一覧。
func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64, f repo.OrderListFilter) ([]OrderOutput, int64, error) {
	if userID <= 0 {
		return []OrderOutput{}, 0, NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
	}
	if f.Page < 1 {
		return []OrderOutput{}, 0, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid page")
	}
	if f.Limit < 1 || f.Limit > 100 {
		return []OrderOutput{}, 0, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid limit")
	}

	var outs []OrderOutput
	var total int64

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, n, err := r.Orders().ListByUserID(ctx, userID, f)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}
		total = n

		outs = make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
			}
			outs = append(outs, toOrderOutput(o, items))
		}
		return nil
	})

	if err != nil {
		return []OrderOutput{}, 0, err
	}
	return outs, total, nil
}

// GetMyOrderDetail は自分の注文1件。他人の注文は「存在しない扱い」にする。
func (u *OrderUsecase) GetMyOrderDetail(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, CodeNotFound, "order not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}
		if o.UserID != userID {
			return NewHTTPError(http.StatusNotFound, CodeNotFound, "order not found")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}

		out = toOrderOutput(o, items)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.Price,
			Subtotal:  it.Subtotal,
		})
	}

	return OrderOutput{
		ID:              o.ID,
		UserID:          o.UserID,
		OrderNumber:     o.OrderNumber,
		TotalAmount:     o.TotalAmount,
		ShippingAddress: o.ShippingAddress,
		Notes:           o.Notes,
		Status:          string(o.Status),
		PaymentStatus:   string(o.PaymentStatus),
		CancelReason:    o.CancelReason,
		CanceledAt:      o.CanceledAt,
		CreatedAt:       o.CreatedAt,
		Items:           outItems,
	}
}
