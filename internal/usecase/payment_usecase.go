package usecase

import (
	"context"
	"net/http"
	"time"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"

	"github.com/shopspring/decimal"
)

// 決済ゲートウェイの結果。成功/失敗と取引IDだけをもらい、
// 乱数や外部APIの事情はこちらに持ち込まない。
type ChargeResult struct {
	Success       bool
	TransactionID string
	Message       string
}

type PaymentGateway interface {
	Charge(ctx context.Context, method model.PaymentMethod, amount decimal.Decimal) (ChargeResult, error)
}

type PaymentUsecase struct {
	tx       repo.TransactionManager
	orders   repo.OrderRepository
	payments repo.PaymentRepository
	gateway  PaymentGateway
}

func NewPaymentUsecase(
	tx repo.TransactionManager,
	orders repo.OrderRepository,
	payments repo.PaymentRepository,
	gateway PaymentGateway,
) *PaymentUsecase {
	return &PaymentUsecase{
		tx:       tx,
		orders:   orders,
		payments: payments,
		gateway:  gateway,
	}
}

type PaymentOutput struct {
	ID            int64           `json:"id"`
	OrderID       int64           `json:"order_id"`
	Amount        decimal.Decimal `json:"amount"`
	Method        string          `json:"payment_method"`
	Status        string          `json:"status"`
	TransactionID *string         `json:"transaction_id"`
	PaidAt        *time.Time      `json:"paid_at"`
}

type ProcessPaymentOutput struct {
	Payment PaymentOutput `json:"payment"`
	Order   OrderOutput   `json:"order"`
	Message string        `json:"message"`
}

// ProcessPayment は注文の支払いを処理する。
// 成功したらpayment_status=COMPLETED。代引きなら注文はPENDINGのまま、
// それ以外はCONFIRMEDへ進める。完了は一方通行。
func (u *PaymentUsecase) ProcessPayment(ctx context.Context, userID int64, orderID int64, method model.PaymentMethod) (ProcessPaymentOutput, error) {
	if userID <= 0 {
		return ProcessPaymentOutput{}, NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return ProcessPaymentOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid id")
	}

	order, err := u.orders.FindByID(ctx, orderID)
	if err == repo.ErrNotFound {
		return ProcessPaymentOutput{}, NewHTTPError(http.StatusNotFound, CodeNotFound, "order not found")
	}
	if err != nil {
		return ProcessPaymentOutput{}, NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}
	if order.UserID != userID {
		return ProcessPaymentOutput{}, NewHTTPError(http.StatusForbidden, CodeForbidden, "you are not authorized to pay for this order")
	}
	if order.Status == model.OrderStatusCanceled {
		return ProcessPaymentOutput{}, NewHTTPError(http.StatusBadRequest, CodeInvalidTransition, "cannot process payment for canceled order")
	}

	//既存の支払いチェック（完了済みなら二重払い拒否）
	existing, found, err := u.payments.FindByOrderID(ctx, orderID)
	if err != nil {
		return ProcessPaymentOutput{}, NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}
	if found && existing.Status == model.PaymentStatusCompleted {
		return ProcessPaymentOutput{}, NewHTTPError(http.StatusBadRequest, CodeAlreadyPaid, "payment already completed for this order")
	}

	//ゲートウェイ呼び出しはtxの外（外部I/Oでロックを持たない）
	result, err := u.gateway.Charge(ctx, method, order.TotalAmount)
	if err != nil {
		return ProcessPaymentOutput{}, NewHTTPError(http.StatusInternalServerError, CodeInternal, "payment gateway error")
	}

	if !result.Success {
		//失敗の記録は残す
		if found {
			existing.Status = model.PaymentStatusFailed
			existing.Method = method
			if err := u.payments.Update(ctx, existing); err != nil {
				return ProcessPaymentOutput{}, NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
			}
		} else {
			_, err := u.payments.Create(ctx, model.Payment{
				OrderID: orderID,
				UserID:  userID,
				Amount:  order.TotalAmount,
				Method:  method,
				Status:  model.PaymentStatusFailed,
			})
			if err != nil {
				return ProcessPaymentOutput{}, NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
			}
		}
		return ProcessPaymentOutput{}, NewHTTPError(http.StatusPaymentRequired, CodePaymentFailed, result.Message)
	}

	//成功：支払いの確定と注文のステータス変更をまとめてcommit
	now := time.Now()
	txnID := result.TransactionID

	newStatus := model.OrderStatusConfirmed
	if method == model.PaymentMethodCashOnDelivery {
		//代引きは商品が届くまでPENDINGのまま
		newStatus = model.OrderStatusPending
	}

	var out ProcessPaymentOutput

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//ゲートウェイ呼び出し中にキャンセルが入ったかもしれないので、
		//ガードはtx内で読み直して判定する
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, CodeNotFound, "order not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}
		if o.Status == model.OrderStatusCanceled {
			return NewHTTPError(http.StatusBadRequest, CodeInvalidTransition, "cannot process payment for canceled order")
		}
		if o.PaymentStatus == model.PaymentStatusCompleted {
			return NewHTTPError(http.StatusBadRequest, CodeAlreadyPaid, "payment already completed for this order")
		}

		p, pFound, err := r.Payments().FindByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}

		if pFound {
			p.Status = model.PaymentStatusCompleted
			p.Method = method
			p.TransactionID = &txnID
			p.PaidAt = &now
			if err := r.Payments().Update(ctx, p); err != nil {
				return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
			}
		} else {
			p = model.Payment{
				OrderID:       orderID,
				UserID:        userID,
				Amount:        o.TotalAmount,
				Method:        method,
				Status:        model.PaymentStatusCompleted,
				TransactionID: &txnID,
				PaidAt:        &now,
			}
			id, err := r.Payments().Create(ctx, p)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
			}
			p.ID = id
		}

		if err := r.Orders().UpdatePaymentResult(ctx, orderID, newStatus, model.PaymentStatusCompleted); err != nil {
			if err == repo.ErrNotFound {
				//直前にtx内で読めているので、0行はキャンセル済みガードに当たったということ
				return NewHTTPError(http.StatusBadRequest, CodeInvalidTransition, "cannot process payment for canceled order")
			}
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}

		o.Status = newStatus
		o.PaymentStatus = model.PaymentStatusCompleted
		out = ProcessPaymentOutput{
			Payment: toPaymentOutput(p),
			Order:   toOrderOutput(o, items),
			Message: result.Message,
		}
		return nil
	})

	if err != nil {
		return ProcessPaymentOutput{}, err
	}
	return out, nil
}

// 支払い一覧（管理者）
func (u *PaymentUsecase) ListPayments(ctx context.Context, f repo.PaymentListFilter) ([]PaymentOutput, int64, error) {
	if f.Page < 1 {
		return []PaymentOutput{}, 0, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid page")
	}
	if f.Limit < 1 || f.Limit > 100 {
		return []PaymentOutput{}, 0, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid limit")
	}

	payments, total, err := u.payments.ListAdmin(ctx, f)
	if err != nil {
		return []PaymentOutput{}, 0, NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}

	outs := make([]PaymentOutput, 0, len(payments))
	for _, p := range payments {
		outs = append(outs, toPaymentOutput(p))
	}
	return outs, total, nil
}

func toPaymentOutput(p model.Payment) PaymentOutput {
	return PaymentOutput{
		ID:            p.ID,
		OrderID:       p.OrderID,
		Amount:        p.Amount,
		Method:        string(p.Method),
		Status:        string(p.Status),
		TransactionID: p.TransactionID,
		PaidAt:        p.PaidAt,
	}
}
