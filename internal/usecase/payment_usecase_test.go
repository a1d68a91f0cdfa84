package usecase_test

import (
	"context"
	"testing"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"
	"marketplace/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type GatewayMock struct{ mock.Mock }

func (m *GatewayMock) Charge(ctx context.Context, method model.PaymentMethod, amount decimal.Decimal) (usecase.ChargeResult, error) {
	args := m.Called(ctx, method, amount)
	res, _ := args.Get(0).(usecase.ChargeResult)
	return res, args.Error(1)
}

func paymentFixture() (*TxManagerMock, *OrderRepoMock, *OrderItemRepoMock, *PaymentRepoMock, *GatewayMock, *usecase.PaymentUsecase) {
	orderRepo := new(OrderRepoMock)
	orderItemRepo := new(OrderItemRepoMock)
	paymentRepo := new(PaymentRepoMock)
	gateway := new(GatewayMock)

	tx := &TxManagerMock{Repos: &TxReposMock{
		orders:     orderRepo,
		orderItems: orderItemRepo,
		payments:   paymentRepo,
	}}

	uc := usecase.NewPaymentUsecase(tx, orderRepo, paymentRepo, gateway)
	return tx, orderRepo, orderItemRepo, paymentRepo, gateway, uc
}

func TestPaymentUsecase_ProcessPayment_Card_Confirms(t *testing.T) {
	ctx := context.Background()
	tx, orderRepo, orderItemRepo, paymentRepo, gateway, uc := paymentFixture()

	order := model.Order{ID: 500, UserID: 1, Status: model.OrderStatusPending, TotalAmount: decimal.NewFromInt(25)}
	orderRepo.On("FindByID", mock.Anything, int64(500)).Return(order, nil)
	paymentRepo.On("FindByOrderID", mock.Anything, int64(500)).Return(model.Payment{}, false, nil)
	gateway.On("Charge", mock.Anything, model.PaymentMethodCard, decimal.NewFromInt(25)).
		Return(usecase.ChargeResult{Success: true, TransactionID: "TXN-1-ABCDEF123", Message: "payment successful"}, nil)

	tx.On("WithinTx", mock.Anything).Return(nil)
	paymentRepo.On("Create", mock.Anything, mock.MatchedBy(func(p model.Payment) bool {
		return p.OrderID == 500 &&
			p.Status == model.PaymentStatusCompleted &&
			p.TransactionID != nil && *p.TransactionID == "TXN-1-ABCDEF123" &&
			p.PaidAt != nil
	})).Return(int64(900), nil)
	//カード払いはCONFIRMEDへ進む
	orderRepo.On("UpdatePaymentResult", mock.Anything, int64(500), model.OrderStatusConfirmed, model.PaymentStatusCompleted).Return(nil)
	orderItemRepo.On("ListByOrderID", mock.Anything, int64(500)).Return([]model.OrderItem{}, nil)

	out, err := uc.ProcessPayment(ctx, 1, 500, model.PaymentMethodCard)
	assert.NoError(t, err)
	assert.Equal(t, string(model.PaymentStatusCompleted), out.Payment.Status)
	assert.Equal(t, string(model.OrderStatusConfirmed), out.Order.Status)

	paymentRepo.AssertExpectations(t)
	orderRepo.AssertExpectations(t)
}

func TestPaymentUsecase_ProcessPayment_COD_StaysPending(t *testing.T) {
	ctx := context.Background()
	tx, orderRepo, orderItemRepo, paymentRepo, gateway, uc := paymentFixture()

	order := model.Order{ID: 500, UserID: 1, Status: model.OrderStatusPending, TotalAmount: decimal.NewFromInt(25)}
	orderRepo.On("FindByID", mock.Anything, int64(500)).Return(order, nil)
	paymentRepo.On("FindByOrderID", mock.Anything, int64(500)).Return(model.Payment{}, false, nil)
	gateway.On("Charge", mock.Anything, model.PaymentMethodCashOnDelivery, decimal.NewFromInt(25)).
		Return(usecase.ChargeResult{Success: true, TransactionID: "TXN-2-XYZ123456", Message: "payment successful"}, nil)

	tx.On("WithinTx", mock.Anything).Return(nil)
	paymentRepo.On("Create", mock.Anything, mock.Anything).Return(int64(901), nil)
	//代引きは商品が届くまでPENDINGのまま
	orderRepo.On("UpdatePaymentResult", mock.Anything, int64(500), model.OrderStatusPending, model.PaymentStatusCompleted).Return(nil)
	orderItemRepo.On("ListByOrderID", mock.Anything, int64(500)).Return([]model.OrderItem{}, nil)

	out, err := uc.ProcessPayment(ctx, 1, 500, model.PaymentMethodCashOnDelivery)
	assert.NoError(t, err)
	assert.Equal(t, string(model.OrderStatusPending), out.Order.Status)
	assert.Equal(t, string(model.PaymentStatusCompleted), out.Order.PaymentStatus)

	orderRepo.AssertExpectations(t)
}

func TestPaymentUsecase_ProcessPayment_AlreadyPaid(t *testing.T) {
	_, orderRepo, _, paymentRepo, gateway, uc := paymentFixture()

	order := model.Order{ID: 500, UserID: 1, Status: model.OrderStatusConfirmed, TotalAmount: decimal.NewFromInt(25)}
	orderRepo.On("FindByID", mock.Anything, int64(500)).Return(order, nil)
	paymentRepo.On("FindByOrderID", mock.Anything, int64(500)).
		Return(model.Payment{ID: 900, OrderID: 500, Status: model.PaymentStatusCompleted}, true, nil)

	_, err := uc.ProcessPayment(context.Background(), 1, 500, model.PaymentMethodCard)
	assertErrContains(t, err, "payment already completed")

	gateway.AssertNotCalled(t, "Charge", mock.Anything, mock.Anything, mock.Anything)
}

func TestPaymentUsecase_ProcessPayment_CanceledOrder(t *testing.T) {
	_, orderRepo, _, _, gateway, uc := paymentFixture()

	order := model.Order{ID: 500, UserID: 1, Status: model.OrderStatusCanceled}
	orderRepo.On("FindByID", mock.Anything, int64(500)).Return(order, nil)

	_, err := uc.ProcessPayment(context.Background(), 1, 500, model.PaymentMethodCard)
	assertErrContains(t, err, "cannot process payment for canceled order")

	gateway.AssertNotCalled(t, "Charge", mock.Anything, mock.Anything, mock.Anything)
}

func TestPaymentUsecase_ProcessPayment_NotOwner(t *testing.T) {
	_, orderRepo, _, _, _, uc := paymentFixture()

	order := model.Order{ID: 500, UserID: 2, Status: model.OrderStatusPending}
	orderRepo.On("FindByID", mock.Anything, int64(500)).Return(order, nil)

	_, err := uc.ProcessPayment(context.Background(), 1, 500, model.PaymentMethodCard)
	assertErrContains(t, err, "not authorized to pay")
}

func TestPaymentUsecase_ProcessPayment_GatewayDeclines(t *testing.T) {
	tx, orderRepo, _, paymentRepo, gateway, uc := paymentFixture()

	order := model.Order{ID: 500, UserID: 1, Status: model.OrderStatusPending, TotalAmount: decimal.NewFromInt(25)}
	orderRepo.On("FindByID", mock.Anything, int64(500)).Return(order, nil)
	paymentRepo.On("FindByOrderID", mock.Anything, int64(500)).Return(model.Payment{}, false, nil)
	gateway.On("Charge", mock.Anything, model.PaymentMethodCard, decimal.NewFromInt(25)).
		Return(usecase.ChargeResult{Success: false, Message: "payment declined. please try again"}, nil)

	//失敗はFAILEDで記録される
	paymentRepo.On("Create", mock.Anything, mock.MatchedBy(func(p model.Payment) bool {
		return p.OrderID == 500 && p.Status == model.PaymentStatusFailed && p.TransactionID == nil
	})).Return(int64(902), nil)

	_, err := uc.ProcessPayment(context.Background(), 1, 500, model.PaymentMethodCard)
	assertErrContains(t, err, "payment declined")

	//失敗時は注文のステータスに触らない
	tx.AssertNotCalled(t, "WithinTx", mock.Anything)
	paymentRepo.AssertExpectations(t)
}

func TestPaymentUsecase_ProcessPayment_RetryAfterFailure_UpdatesExisting(t *testing.T) {
	tx, orderRepo, orderItemRepo, paymentRepo, gateway, uc := paymentFixture()

	order := model.Order{ID: 500, UserID: 1, Status: model.OrderStatusPending, TotalAmount: decimal.NewFromInt(25)}
	existing := model.Payment{ID: 902, OrderID: 500, UserID: 1, Amount: decimal.NewFromInt(25), Status: model.PaymentStatusFailed}

	orderRepo.On("FindByID", mock.Anything, int64(500)).Return(order, nil)
	paymentRepo.On("FindByOrderID", mock.Anything, int64(500)).Return(existing, true, nil)
	gateway.On("Charge", mock.Anything, model.PaymentMethodCard, decimal.NewFromInt(25)).
		Return(usecase.ChargeResult{Success: true, TransactionID: "TXN-3-RETRY0001", Message: "payment successful"}, nil)

	tx.On("WithinTx", mock.Anything).Return(nil)
	//同じレコードをCOMPLETEDに上書き（新規は作らない）
	paymentRepo.On("Update", mock.Anything, mock.MatchedBy(func(p model.Payment) bool {
		return p.ID == 902 && p.Status == model.PaymentStatusCompleted && p.TransactionID != nil
	})).Return(nil)
	orderRepo.On("UpdatePaymentResult", mock.Anything, int64(500), model.OrderStatusConfirmed, model.PaymentStatusCompleted).Return(nil)
	orderItemRepo.On("ListByOrderID", mock.Anything, int64(500)).Return([]model.OrderItem{}, nil)

	out, err := uc.ProcessPayment(context.Background(), 1, 500, model.PaymentMethodCard)
	assert.NoError(t, err)
	assert.Equal(t, int64(902), out.Payment.ID)

	paymentRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	paymentRepo.AssertExpectations(t)
}

func TestPaymentUsecase_ProcessPayment_CanceledDuringCharge_NotResurrected(t *testing.T) {
	tx, orderRepo, _, paymentRepo, gateway, uc := paymentFixture()

	pending := model.Order{ID: 500, UserID: 1, Status: model.OrderStatusPending, TotalAmount: decimal.NewFromInt(25)}
	canceled := pending
	canceled.Status = model.OrderStatusCanceled

	//ゲートウェイ呼び出し前の読みはPENDING、tx内の読み直しはCANCELED
	orderRepo.On("FindByID", mock.Anything, int64(500)).Return(pending, nil).Once()
	orderRepo.On("FindByID", mock.Anything, int64(500)).Return(canceled, nil).Once()
	paymentRepo.On("FindByOrderID", mock.Anything, int64(500)).Return(model.Payment{}, false, nil)
	gateway.On("Charge", mock.Anything, model.PaymentMethodCard, decimal.NewFromInt(25)).
		Return(usecase.ChargeResult{Success: true, TransactionID: "TXN-4-RACE00001", Message: "payment successful"}, nil)
	tx.On("WithinTx", mock.Anything).Return(nil)

	_, err := uc.ProcessPayment(context.Background(), 1, 500, model.PaymentMethodCard)
	assertErrContains(t, err, "cannot process payment for canceled order")

	//キャンセル済み注文を確定状態に書き戻さない
	orderRepo.AssertNotCalled(t, "UpdatePaymentResult", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	paymentRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	paymentRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	orderRepo.AssertExpectations(t)
}

func TestPaymentUsecase_ListPayments_InvalidLimit(t *testing.T) {
	_, _, _, _, _, uc := paymentFixture()

	_, _, err := uc.ListPayments(context.Background(), repo.PaymentListFilter{Page: 1, Limit: 101})
	assertErrContains(t, err, "invalid limit")
}

func TestPaymentUsecase_ListPayments_Success(t *testing.T) {
	_, _, _, paymentRepo, _, uc := paymentFixture()

	f := repo.PaymentListFilter{Page: 1, Limit: 20}
	paymentRepo.On("ListAdmin", mock.Anything, f).Return([]model.Payment{{ID: 900, OrderID: 500}}, int64(1), nil)

	outs, total, err := uc.ListPayments(context.Background(), f)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, 1, len(outs))

	paymentRepo.AssertExpectations(t)
}
