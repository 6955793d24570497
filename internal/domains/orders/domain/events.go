package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event is implemented by every fact the order aggregate records.
type Event interface {
	EventName() string
	OccurredAt() time.Time
	AggregateID() int64
}

// BaseEvent provides common event metadata.
type BaseEvent struct {
	OrderID   int64     `json:"orderId"`
	Timestamp time.Time `json:"occurredAt"`
}

func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }
func (e BaseEvent) AggregateID() int64    { return e.OrderID }

func (e *BaseEvent) bindOrder(id int64) {
	if e.OrderID == 0 {
		e.OrderID = id
	}
}

type orderBinder interface {
	bindOrder(id int64)
}

// OrderCreated is raised once the order has been persisted for the first time.
type OrderCreated struct {
	BaseEvent
	UserID      int64           `json:"userId"`
	UserEmail   string          `json:"userEmail"`
	ItemCount   int             `json:"itemCount"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

func (OrderCreated) EventName() string { return "order.created" }

// OrderStatusChanged is raised on every fulfilment status transition.
type OrderStatusChanged struct {
	BaseEvent
	From OrderStatus `json:"from"`
	To   OrderStatus `json:"to"`
}

func (OrderStatusChanged) EventName() string { return "order.status_changed" }

// PaymentStatusChanged is raised on every payment status transition.
type PaymentStatusChanged struct {
	BaseEvent
	From PaymentStatus `json:"from"`
	To   PaymentStatus `json:"to"`
}

func (PaymentStatusChanged) EventName() string { return "order.payment_status_changed" }

// OrderPaid is raised when a gateway charge settled the order.
type OrderPaid struct {
	BaseEvent
	PaymentMethod    string          `json:"paymentMethod"`
	PaymentReference string          `json:"paymentReference"`
	Amount           decimal.Decimal `json:"amount"`
}

func (OrderPaid) EventName() string { return "order.paid" }

// OrderCancelled is raised when the order leaves the active lifecycle.
type OrderCancelled struct {
	BaseEvent
	PreviousStatus OrderStatus `json:"previousStatus"`
}

func (OrderCancelled) EventName() string { return "order.cancelled" }

// PaymentRefunded is raised when a cancellation refunded a settled payment.
type PaymentRefunded struct {
	BaseEvent
	PaymentReference string          `json:"paymentReference"`
	RefundReference  string          `json:"refundReference"`
	Amount           decimal.Decimal `json:"amount"`
}

func (PaymentRefunded) EventName() string { return "payment.refunded" }
