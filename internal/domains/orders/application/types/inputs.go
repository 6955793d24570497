package types

import "github.com/shopspring/decimal"

// CreateOrderItemInput is one requested line of a new order.
type CreateOrderItemInput struct {
	ProductID          int64
	ProductName        string
	ProductCategory    string
	ProductSKU         string
	ProductColor       string
	ProductSize        string
	ProductDescription string
	UnitPrice          decimal.Decimal
	Quantity           int
}

// CreateOrderInput carries a cart checkout request.
type CreateOrderInput struct {
	UserID          int64
	UserEmail       string
	UserName        string
	Items           []CreateOrderItemInput
	ShippingAddress string
	BillingAddress  string
	// IdempotencyKey is optional; retries with the same key replay the first result.
	IdempotencyKey string
}

// ProcessPaymentInput requests a gateway charge for an order.
type ProcessPaymentInput struct {
	OrderID       int64
	PaymentMethod string
	PaymentToken  string
}

// PaymentNotificationInput is an asynchronous processor callback already authenticated
// by the transport.
type PaymentNotificationInput struct {
	PaymentReference string
	PaymentStatus    string
}
