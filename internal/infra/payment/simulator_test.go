package payment

import (
	"context"
	"testing"
	"time"

	"marketplace/internal/domain/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSimulatedGateway_COD_AlwaysSucceeds(t *testing.T) {
	//成功率0に近くても代引きは必ず成功する
	g := NewSimulatedGateway(0.000001)

	for i := 0; i < 50; i++ {
		res, err := g.Charge(context.Background(), model.PaymentMethodCashOnDelivery, decimal.NewFromInt(100))
		assert.NoError(t, err)
		assert.True(t, res.Success)
		assert.NotEmpty(t, res.TransactionID)
	}
}

func TestSimulatedGateway_Card_FullSuccessRate(t *testing.T) {
	g := NewSimulatedGateway(1.0)

	res, err := g.Charge(context.Background(), model.PaymentMethodCard, decimal.NewFromInt(100))
	assert.NoError(t, err)
	assert.True(t, res.Success)
}

func TestSimulatedGateway_InvalidRate_DefaultsTo90(t *testing.T) {
	g := NewSimulatedGateway(0)
	assert.Equal(t, 0.9, g.successRate)

	g = NewSimulatedGateway(1.5)
	assert.Equal(t, 0.9, g.successRate)
}

func TestNewTransactionID_Format(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	id := newTransactionID(now)

	assert.Regexp(t, `^TXN-1700000000000-[0-9A-F]{9}$`, id)
}

func TestSimulatedGateway_CanceledContext(t *testing.T) {
	g := NewSimulatedGateway(1.0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Charge(ctx, model.PaymentMethodCard, decimal.NewFromInt(100))
	assert.Error(t, err)
}
