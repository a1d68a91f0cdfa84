package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

type PaymentMethod string

const (
	PaymentMethodCashOnDelivery PaymentMethod = "CASH_ON_DELIVERY"
	PaymentMethodCard           PaymentMethod = "CARD"
	PaymentMethodMobileBanking  PaymentMethod = "MOBILE_BANKING"
)

func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	switch PaymentMethod(s) {
	case PaymentMethodCashOnDelivery, PaymentMethodCard, PaymentMethodMobileBanking:
		return PaymentMethod(s), true
	}
	return "", false
}

// 支払いは注文と1:1。作成・更新のみで削除しない。
type Payment struct {
	ID      int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID int64 `gorm:"not null;uniqueIndex" json:"order_id"`
	UserID  int64 `gorm:"not null;index" json:"user_id"`

	Amount decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	Method PaymentMethod   `gorm:"type:varchar(30);not null" json:"payment_method"`
	Status PaymentStatus   `gorm:"type:varchar(20);not null" json:"status"`

	//成功するまでnull
	TransactionID *string    `gorm:"type:varchar(64)" json:"transaction_id"`
	PaidAt        *time.Time `json:"paid_at"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
