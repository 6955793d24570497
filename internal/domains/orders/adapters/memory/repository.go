package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/Apurer/go-gin-order-service/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-order-service/internal/domains/orders/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository is an in-memory implementation used for demos/tests.
type Repository struct {
	mu         sync.RWMutex
	orders     map[int64]*domain.Order
	nextID     int64
	nextItemID int64
}

// NewRepository constructs an empty in-memory store.
func NewRepository() *Repository {
	return &Repository{orders: map[int64]*domain.Order{}}
}

// Save assigns ids to new orders and items, then stores a private copy.
func (r *Repository) Save(_ context.Context, order *domain.Order) (*domain.Order, error) {
	if order == nil {
		return nil, errors.New("cannot save nil order")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := order.Clone()
	if stored.ID == 0 {
		r.nextID++
		stored.ID = r.nextID
	} else if _, ok := r.orders[stored.ID]; !ok {
		return nil, ports.ErrNotFound
	}
	for i := range stored.Items {
		if stored.Items[i].ID == 0 {
			r.nextItemID++
			stored.Items[i].ID = r.nextItemID
		}
	}
	r.orders[stored.ID] = stored
	return stored.Clone(), nil
}

// GetByID fetches an order if present.
func (r *Repository) GetByID(_ context.Context, id int64) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return order.Clone(), nil
}

// ListByUser returns the user's orders, newest first.
func (r *Repository) ListByUser(_ context.Context, userID int64) ([]*domain.Order, error) {
	list := r.collect(func(o *domain.Order) bool { return o.Customer.UserID == userID })
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID > list[j].ID
	})
	return list, nil
}

// List returns every order matching filter by ascending id.
func (r *Repository) List(_ context.Context, filter ports.Filter) ([]*domain.Order, error) {
	list := r.collect(filter.Matches)
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

// ListPending returns PENDING and PROCESSING orders, oldest first.
func (r *Repository) ListPending(_ context.Context) ([]*domain.Order, error) {
	list := r.collect(func(o *domain.Order) bool {
		return o.Status == domain.OrderStatusPending || o.Status == domain.OrderStatusProcessing
	})
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.Before(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})
	return list, nil
}

// FindByPaymentReference looks up the order charged under reference.
func (r *Repository) FindByPaymentReference(_ context.Context, reference string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, order := range r.orders {
		if reference != "" && order.PaymentReference == reference {
			return order.Clone(), nil
		}
	}
	return nil, ports.ErrNotFound
}

func (r *Repository) collect(keep func(*domain.Order) bool) []*domain.Order {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]*domain.Order, 0, len(r.orders))
	for _, order := range r.orders {
		if keep(order) {
			list = append(list, order.Clone())
		}
	}
	return list
}
