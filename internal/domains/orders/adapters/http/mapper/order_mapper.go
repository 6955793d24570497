package mapper

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	ordertypes "github.com/Apurer/go-gin-order-service/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-order-service/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-order-service/internal/domains/orders/ports"
)

var (
	ErrUnitPriceRequired = errors.New("unit price is required")
	ErrInvalidEmail      = errors.New("user email must be a valid email address")
	ErrInvalidTimeBound  = errors.New("from/to must be RFC 3339 timestamps")
)

// Amount renders money as a JSON number with exactly two decimals.
type Amount decimal.Decimal

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(decimal.Decimal(a).StringFixed(2)), nil
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	*a = Amount(d)
	return nil
}

// OrderItemRequest is one requested line of a new order.
type OrderItemRequest struct {
	ProductID          int64   `json:"productId"`
	ProductName        string  `json:"productName"`
	ProductCategory    string  `json:"productCategory,omitempty"`
	ProductSKU         string  `json:"productSku,omitempty"`
	ProductColor       string  `json:"productColor,omitempty"`
	ProductSize        string  `json:"productSize,omitempty"`
	ProductDescription string  `json:"productDescription,omitempty"`
	UnitPrice          *Amount `json:"unitPrice"`
	Quantity           int     `json:"quantity"`
}

// CreateOrderRequest is the checkout payload.
type CreateOrderRequest struct {
	UserID          int64              `json:"userId"`
	UserEmail       string             `json:"userEmail"`
	UserName        string             `json:"userName,omitempty"`
	Items           []OrderItemRequest `json:"items"`
	ShippingAddress string             `json:"shippingAddress"`
	BillingAddress  string             `json:"billingAddress,omitempty"`
}

// StatusRequest carries a textual status token.
type StatusRequest struct {
	Status string `json:"status"`
}

// PaymentRequest asks for the order total to be charged.
type PaymentRequest struct {
	PaymentMethod string `json:"paymentMethod"`
	PaymentToken  string `json:"paymentToken,omitempty"`
}

// OrderItem is the HTTP representation of an order line.
type OrderItem struct {
	ID                 int64  `json:"id"`
	ProductID          int64  `json:"productId"`
	ProductName        string `json:"productName"`
	ProductCategory    string `json:"productCategory,omitempty"`
	ProductSKU         string `json:"productSku,omitempty"`
	ProductColor       string `json:"productColor,omitempty"`
	ProductSize        string `json:"productSize,omitempty"`
	ProductDescription string `json:"productDescription,omitempty"`
	UnitPrice          Amount `json:"unitPrice"`
	Quantity           int    `json:"quantity"`
	Subtotal           Amount `json:"subtotal"`
}

// Order is the HTTP representation of the order aggregate.
type Order struct {
	ID               int64       `json:"id"`
	UserID           int64       `json:"userId"`
	UserEmail        string      `json:"userEmail"`
	UserName         string      `json:"userName,omitempty"`
	Items            []OrderItem `json:"items"`
	TotalAmount      Amount      `json:"totalAmount"`
	OrderStatus      string      `json:"orderStatus"`
	PaymentStatus    string      `json:"paymentStatus"`
	PaymentMethod    string      `json:"paymentMethod,omitempty"`
	PaymentReference string      `json:"paymentReference,omitempty"`
	RefundReference  string      `json:"refundReference,omitempty"`
	ShippingAddress  string      `json:"shippingAddress"`
	BillingAddress   string      `json:"billingAddress,omitempty"`
	CreatedAt        time.Time   `json:"createdAt"`
	UpdatedAt        time.Time   `json:"updatedAt"`
	CompletedAt      *time.Time  `json:"completedAt,omitempty"`
}

// Statistics is the HTTP representation of a user's order summary.
type Statistics struct {
	UserID           int64  `json:"userId"`
	TotalOrders      int64  `json:"totalOrders"`
	TotalSpent       Amount `json:"totalSpent"`
	RecentOrderCount int    `json:"recentOrderCount"`
}

// ToCreateOrderInput maps the checkout payload into the application input. Field presence
// rules the domain cannot see (a missing price, a malformed email) are checked here.
func ToCreateOrderInput(req CreateOrderRequest, idempotencyKey string) (ordertypes.CreateOrderInput, error) {
	email := strings.TrimSpace(req.UserEmail)
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return ordertypes.CreateOrderInput{}, ErrInvalidEmail
		}
	}
	input := ordertypes.CreateOrderInput{
		UserID:          req.UserID,
		UserEmail:       email,
		UserName:        req.UserName,
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
		IdempotencyKey:  strings.TrimSpace(idempotencyKey),
		Items:           make([]ordertypes.CreateOrderItemInput, 0, len(req.Items)),
	}
	for i, item := range req.Items {
		if item.UnitPrice == nil {
			return ordertypes.CreateOrderInput{}, fmt.Errorf("items[%d]: %w", i, ErrUnitPriceRequired)
		}
		input.Items = append(input.Items, ordertypes.CreateOrderItemInput{
			ProductID:          item.ProductID,
			ProductName:        item.ProductName,
			ProductCategory:    item.ProductCategory,
			ProductSKU:         item.ProductSKU,
			ProductColor:       item.ProductColor,
			ProductSize:        item.ProductSize,
			ProductDescription: item.ProductDescription,
			UnitPrice:          decimal.Decimal(*item.UnitPrice),
			Quantity:           item.Quantity,
		})
	}
	return input, nil
}

// ToProcessPaymentInput maps the payment payload.
func ToProcessPaymentInput(orderID int64, req PaymentRequest) ordertypes.ProcessPaymentInput {
	return ordertypes.ProcessPaymentInput{
		OrderID:       orderID,
		PaymentMethod: req.PaymentMethod,
		PaymentToken:  req.PaymentToken,
	}
}

// ToFilter parses listing query parameters. Empty values are ignored.
func ToFilter(status, paymentStatus, email, from, to string) (ports.Filter, error) {
	var filter ports.Filter
	if strings.TrimSpace(status) != "" {
		parsed, err := domain.ParseOrderStatus(status)
		if err != nil {
			return ports.Filter{}, err
		}
		filter.Status = parsed
	}
	if strings.TrimSpace(paymentStatus) != "" {
		parsed, err := domain.ParsePaymentStatus(paymentStatus)
		if err != nil {
			return ports.Filter{}, err
		}
		filter.PaymentStatus = parsed
	}
	filter.UserEmail = strings.TrimSpace(email)
	var err error
	if filter.CreatedFrom, err = parseBound(from); err != nil {
		return ports.Filter{}, err
	}
	if filter.CreatedTo, err = parseBound(to); err != nil {
		return ports.Filter{}, err
	}
	return filter, nil
}

func parseBound(raw string) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, ErrInvalidTimeBound
	}
	return t, nil
}

// FromDomain maps the aggregate into its HTTP representation.
func FromDomain(order *domain.Order) Order {
	if order == nil {
		return Order{}
	}
	resp := Order{
		ID:               order.ID,
		UserID:           order.Customer.UserID,
		UserEmail:        order.Customer.Email,
		UserName:         order.Customer.Name,
		TotalAmount:      Amount(order.TotalAmount),
		OrderStatus:      string(order.Status),
		PaymentStatus:    string(order.PaymentStatus),
		PaymentMethod:    order.PaymentMethod,
		PaymentReference: order.PaymentReference,
		RefundReference:  order.RefundReference,
		ShippingAddress:  order.ShippingAddress,
		BillingAddress:   order.BillingAddress,
		CreatedAt:        order.CreatedAt,
		UpdatedAt:        order.UpdatedAt,
		CompletedAt:      order.CompletedAt,
		Items:            make([]OrderItem, 0, len(order.Items)),
	}
	for _, item := range order.Items {
		resp.Items = append(resp.Items, OrderItem{
			ID:                 item.ID,
			ProductID:          item.ProductID,
			ProductName:        item.ProductName,
			ProductCategory:    item.Details.Category,
			ProductSKU:         item.Details.SKU,
			ProductColor:       item.Details.Color,
			ProductSize:        item.Details.Size,
			ProductDescription: item.Details.Description,
			UnitPrice:          Amount(item.UnitPrice),
			Quantity:           item.Quantity,
			Subtotal:           Amount(item.Subtotal),
		})
	}
	return resp
}

// FromDomainList maps a slice of aggregates; never returns nil so lists encode as [].
func FromDomainList(orders []*domain.Order) []Order {
	out := make([]Order, 0, len(orders))
	for _, order := range orders {
		out = append(out, FromDomain(order))
	}
	return out
}

// FromStatistics maps the user summary.
func FromStatistics(stats domain.UserStatistics) Statistics {
	return Statistics{
		UserID:           stats.UserID,
		TotalOrders:      stats.TotalOrders,
		TotalSpent:       Amount(stats.TotalSpent),
		RecentOrderCount: stats.RecentOrderCount,
	}
}
