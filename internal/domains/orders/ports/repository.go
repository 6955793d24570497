package ports

import (
	"context"
	"errors"
	"time"

	"github.com/Apurer/go-gin-order-service/internal/domains/orders/domain"
)

var ErrNotFound = errors.New("order not found")

// Filter narrows order listings. Zero values mean "any".
type Filter struct {
	Status        domain.OrderStatus
	PaymentStatus domain.PaymentStatus
	UserEmail     string
	CreatedFrom   time.Time
	CreatedTo     time.Time
}

// Matches applies the filter in memory.
func (f Filter) Matches(order *domain.Order) bool {
	if order == nil {
		return false
	}
	if f.Status != "" && order.Status != f.Status {
		return false
	}
	if f.PaymentStatus != "" && order.PaymentStatus != f.PaymentStatus {
		return false
	}
	if f.UserEmail != "" && order.Customer.Email != f.UserEmail {
		return false
	}
	if !f.CreatedFrom.IsZero() && order.CreatedAt.Before(f.CreatedFrom) {
		return false
	}
	if !f.CreatedTo.IsZero() && order.CreatedAt.After(f.CreatedTo) {
		return false
	}
	return true
}

// Repository persists order aggregates together with their items.
type Repository interface {
	// Save inserts orders without an id and updates the rest, returning the stored state.
	Save(ctx context.Context, order *domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	// ListByUser returns the user's orders, newest first.
	ListByUser(ctx context.Context, userID int64) ([]*domain.Order, error)
	// List returns every order matching filter in ascending id order.
	List(ctx context.Context, filter Filter) ([]*domain.Order, error)
	// ListPending returns PENDING and PROCESSING orders, oldest first.
	ListPending(ctx context.Context) ([]*domain.Order, error)
	FindByPaymentReference(ctx context.Context, reference string) (*domain.Order, error)
}
