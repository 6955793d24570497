package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrUserIDRequired          = errors.New("user id is required")
	ErrUserEmailRequired       = errors.New("user email is required")
	ErrItemsRequired           = errors.New("order must contain at least one item")
	ErrShippingAddressRequired = errors.New("shipping address is required")
	ErrProductIDRequired       = errors.New("product id is required")
	ErrProductNameRequired     = errors.New("product name is required")
	ErrNegativeUnitPrice       = errors.New("unit price must not be negative")
	ErrUnitPriceScale          = errors.New("unit price must have at most 2 decimal places")
	ErrAmountTooLarge          = errors.New("amount must not exceed 99999999.99")
	ErrInvalidQuantity         = errors.New("quantity must be at least 1")
	ErrPaymentMethodRequired   = errors.New("payment method is required")

	ErrInvalidOrderStatus   = errors.New("order status is invalid")
	ErrInvalidPaymentStatus = errors.New("payment status is invalid")

	ErrAlreadyPaid      = errors.New("order is already paid")
	ErrDeliveredOrder   = errors.New("cannot cancel a delivered order")
	ErrAlreadyCancelled = errors.New("order is already cancelled")
)

// Customer identifies who placed the order.
type Customer struct {
	UserID int64
	Email  string
	Name   string
}

// Order is the purchase aggregate. It owns its items, the derived total and both status
// machines.
type Order struct {
	ID               int64
	Customer         Customer
	Items            []OrderItem
	TotalAmount      decimal.Decimal
	Status           OrderStatus
	PaymentStatus    PaymentStatus
	PaymentMethod    string
	PaymentReference string
	RefundReference  string
	ShippingAddress  string
	BillingAddress   string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	CompletedAt      *time.Time

	events []Event
}

// NewOrder validates the request data and builds a PENDING/PENDING order whose total
// reflects the supplied items.
func NewOrder(customer Customer, shippingAddress, billingAddress string, items []OrderItem) (*Order, error) {
	customer.Email = strings.TrimSpace(customer.Email)
	order := &Order{
		Customer:        customer,
		Status:          OrderStatusPending,
		PaymentStatus:   PaymentStatusPending,
		ShippingAddress: strings.TrimSpace(shippingAddress),
		BillingAddress:  strings.TrimSpace(billingAddress),
		TotalAmount:     decimal.Zero,
	}
	if customer.UserID <= 0 {
		return nil, ErrUserIDRequired
	}
	if customer.Email == "" {
		return nil, ErrUserEmailRequired
	}
	if len(items) == 0 {
		return nil, ErrItemsRequired
	}
	if order.ShippingAddress == "" {
		return nil, ErrShippingAddressRequired
	}
	for _, item := range items {
		order.AddItem(item)
	}
	if order.TotalAmount.GreaterThan(MaxAmount) {
		return nil, ErrAmountTooLarge
	}
	return order, nil
}

// AddItem appends a line at the end of the order and refreshes the total.
func (o *Order) AddItem(item OrderItem) {
	item.Position = len(o.Items)
	item.recalculate()
	o.Items = append(o.Items, item)
	o.RecomputeTotal()
}

// RecomputeTotal sums the item subtotals; an order without items totals zero.
func (o *Order) RecomputeTotal() {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Subtotal)
	}
	o.TotalAmount = total
}

// TransitionStatus moves the order to status. Entering DELIVERED stamps CompletedAt
// the first time only.
func (o *Order) TransitionStatus(status OrderStatus, at time.Time) error {
	if !status.Valid() {
		return ErrInvalidOrderStatus
	}
	previous := o.Status
	o.Status = status
	if status == OrderStatusDelivered && o.CompletedAt == nil {
		completed := at
		o.CompletedAt = &completed
	}
	if previous != status {
		o.record(&OrderStatusChanged{BaseEvent: o.base(at), From: previous, To: status})
	}
	return nil
}

// TransitionPaymentStatus moves the payment to status. PAID always drags the order
// into PROCESSING.
func (o *Order) TransitionPaymentStatus(status PaymentStatus, at time.Time) error {
	if !status.Valid() {
		return ErrInvalidPaymentStatus
	}
	previous := o.PaymentStatus
	o.PaymentStatus = status
	if previous != status {
		o.record(&PaymentStatusChanged{BaseEvent: o.base(at), From: previous, To: status})
	}
	if status == PaymentStatusPaid {
		return o.TransitionStatus(OrderStatusProcessing, at)
	}
	return nil
}

// EnsurePayable rejects a charge for an order that is already settled.
func (o *Order) EnsurePayable() error {
	if o.PaymentStatus == PaymentStatusPaid {
		return ErrAlreadyPaid
	}
	return nil
}

// ApplyPayment records a successful gateway charge.
func (o *Order) ApplyPayment(method, reference string, at time.Time) error {
	if err := o.EnsurePayable(); err != nil {
		return err
	}
	o.PaymentMethod = method
	o.PaymentReference = reference
	if err := o.TransitionPaymentStatus(PaymentStatusPaid, at); err != nil {
		return err
	}
	o.record(&OrderPaid{BaseEvent: o.base(at), PaymentMethod: method, PaymentReference: reference, Amount: o.TotalAmount})
	return nil
}

// EnsureCancellable rejects cancellation of delivered or already cancelled orders.
func (o *Order) EnsureCancellable() error {
	switch o.Status {
	case OrderStatusDelivered:
		return ErrDeliveredOrder
	case OrderStatusCancelled:
		return ErrAlreadyCancelled
	default:
		return nil
	}
}

// RequiresRefund reports whether cancelling must give money back.
func (o *Order) RequiresRefund() bool {
	return o.PaymentStatus == PaymentStatusPaid
}

// Cancel moves the order to CANCELLED. A settled payment needs the refund reference
// issued by the gateway and flips to REFUNDED.
func (o *Order) Cancel(refundReference string, at time.Time) error {
	if err := o.EnsureCancellable(); err != nil {
		return err
	}
	previous := o.Status
	if err := o.TransitionStatus(OrderStatusCancelled, at); err != nil {
		return err
	}
	o.record(&OrderCancelled{BaseEvent: o.base(at), PreviousStatus: previous})
	if o.RequiresRefund() {
		o.RefundReference = refundReference
		if err := o.TransitionPaymentStatus(PaymentStatusRefunded, at); err != nil {
			return err
		}
		o.record(&PaymentRefunded{
			BaseEvent:        o.base(at),
			PaymentReference: o.PaymentReference,
			RefundReference:  refundReference,
			Amount:           o.TotalAmount,
		})
	}
	return nil
}

// MarkCreated stamps the creation time. It is called once, before the first save.
func (o *Order) MarkCreated(at time.Time) {
	if o.CreatedAt.IsZero() {
		o.CreatedAt = at
	}
	o.UpdatedAt = at
	o.record(o.CreatedEvent())
}

// CreatedEvent describes the order as first placed. It can be rebuilt from a stored
// order to re-announce it.
func (o *Order) CreatedEvent() *OrderCreated {
	return &OrderCreated{
		BaseEvent:   o.base(o.CreatedAt),
		UserID:      o.Customer.UserID,
		UserEmail:   o.Customer.Email,
		ItemCount:   len(o.Items),
		TotalAmount: o.TotalAmount,
	}
}

// MarkUpdated stamps the modification time before every subsequent save.
func (o *Order) MarkUpdated(at time.Time) {
	o.UpdatedAt = at
}

// PullEvents hands over the recorded events, binding them to the order id, and clears
// the buffer.
func (o *Order) PullEvents() []Event {
	events := o.events
	o.events = nil
	for _, event := range events {
		if binder, ok := event.(orderBinder); ok {
			binder.bindOrder(o.ID)
		}
	}
	return events
}

// Clone returns a deep copy without pending events.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	clone.events = nil
	clone.Items = append([]OrderItem(nil), o.Items...)
	if o.CompletedAt != nil {
		completed := *o.CompletedAt
		clone.CompletedAt = &completed
	}
	return &clone
}

func (o *Order) record(event Event) {
	o.events = append(o.events, event)
}

func (o *Order) base(at time.Time) BaseEvent {
	return BaseEvent{OrderID: o.ID, Timestamp: at}
}
