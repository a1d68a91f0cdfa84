package payment

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"marketplace/internal/domain/model"
	"marketplace/internal/usecase"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SimulatedGateway は決済ゲートウェイのシミュレータ。
// 代引きは常に成功、カード等は9割成功。乱数と取引ID生成はここに閉じ込めて、
// usecase側は結果（成功/失敗＋取引ID）だけを受け取る。
type SimulatedGateway struct {
	//カード等の成功率（0.0〜1.0）
	successRate float64
}

func NewSimulatedGateway(successRate float64) *SimulatedGateway {
	if successRate <= 0 || successRate > 1 {
		successRate = 0.9
	}
	return &SimulatedGateway{successRate: successRate}
}

// 取引ID（TXN-<ミリ秒>-<英数9桁>）
func newTransactionID(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:9]
	return fmt.Sprintf("TXN-%d-%s", now.UnixMilli(), suffix)
}

func (g *SimulatedGateway) Charge(ctx context.Context, method model.PaymentMethod, amount decimal.Decimal) (usecase.ChargeResult, error) {
	if err := ctx.Err(); err != nil {
		return usecase.ChargeResult{}, err
	}

	if method == model.PaymentMethodCashOnDelivery {
		return usecase.ChargeResult{
			Success:       true,
			TransactionID: newTransactionID(time.Now()),
			Message:       "cash on delivery order confirmed",
		}, nil
	}

	if rand.Float64() < g.successRate {
		return usecase.ChargeResult{
			Success:       true,
			TransactionID: newTransactionID(time.Now()),
			Message:       "payment processed successfully",
		}, nil
	}

	return usecase.ChargeResult{
		Success: false,
		Message: "payment failed. please try again or use a different payment method",
	}, nil
}
