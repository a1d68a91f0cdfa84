package usecase

import (
	"errors"
	"fmt"
)

// 業務エラーの種類。境界層はこのコードをそのままシリアライズする。
const (
	CodeNotFound           = "NOT_FOUND"
	CodeForbidden          = "FORBIDDEN"
	CodeAccessDenied       = "ACCESS_DENIED"
	CodeEmptyCart          = "EMPTY_CART"
	CodeProductUnavailable = "PRODUCT_UNAVAILABLE"
	CodeInsufficientStock  = "INSUFFICIENT_STOCK"
	CodeInvalidTransition  = "INVALID_TRANSITION"
	CodeAlreadyPaid        = "ALREADY_PAID"
	CodePaymentFailed      = "PAYMENT_FAILED"
	CodeValidation         = "VALIDATION"
	CodeConflict           = "CONFLICT"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeInternal           = "INTERNAL"
)

type HTTPError struct {
	Status  int
	Code    string
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}

func NewHTTPError(status int, code string, message string) error {
	return &HTTPError{
		Status:  status,
		Code:    code,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}
