// Package domain holds the payment gateway vocabulary shared by the gateway adapters
// and the orders context.
package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount           = errors.New("invalid payment amount")
	ErrInvalidPaymentReference = errors.New("invalid payment id")
	ErrPaymentProcessingFailed = errors.New("payment processing failed")
	ErrRefundProcessingFailed  = errors.New("refund processing failed")
)

// Status is the processor-side state of a payment.
type Status string

const (
	StatusSucceeded      Status = "succeeded"
	StatusProcessing     Status = "processing"
	StatusRequiresAction Status = "requires_action"
	StatusCanceled       Status = "canceled"
	StatusFailed         Status = "failed"
)

// ChargeRequest describes a single charge against the gateway.
type ChargeRequest struct {
	OrderID       int64
	Amount        decimal.Decimal
	Currency      string
	Method        string
	Token         string
	CustomerEmail string
}

// Validate enforces the gateway preconditions.
func (r ChargeRequest) Validate() error {
	if !r.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

// GatewayError wraps a processor failure with its kind so callers can match either.
type GatewayError struct {
	Kind  error
	Cause error
}

// NewPaymentError wraps cause as a failed charge.
func NewPaymentError(cause error) *GatewayError {
	return &GatewayError{Kind: ErrPaymentProcessingFailed, Cause: cause}
}

// NewRefundError wraps cause as a failed refund.
func NewRefundError(cause error) *GatewayError {
	return &GatewayError{Kind: ErrRefundProcessingFailed, Cause: cause}
}

func (e *GatewayError) Error() string {
	if e.Cause == nil {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Cause)
}

func (e *GatewayError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

// NotificationKind classifies asynchronous processor callbacks.
type NotificationKind string

const (
	NotificationSucceeded NotificationKind = "payment.succeeded"
	NotificationFailed    NotificationKind = "payment.failed"
	NotificationIgnored   NotificationKind = "ignored"
)

// Notification is a verified processor callback about one payment.
type Notification struct {
	EventID   string
	Kind      NotificationKind
	PaymentID string
}
