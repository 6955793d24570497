package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	ordertypes "github.com/Apurer/go-gin-order-service/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-order-service/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-order-service/internal/domains/orders/ports"
	paymentdomain "github.com/Apurer/go-gin-order-service/internal/domains/payments/domain"
	paymentports "github.com/Apurer/go-gin-order-service/internal/domains/payments/ports"
)

var errGatewayNotConfigured = errors.New("payment gateway not configured")

// Service orchestrates the orders bounded context use cases.
type Service struct {
	repo        ports.Repository
	gateway     paymentports.Gateway
	idempotency ports.IdempotencyStore
	publisher   ports.EventPublisher
	logger      *slog.Logger
	now         func() time.Time
}

// Option customises the service.
type Option func(*Service)

// WithIdempotencyStore enables Idempotency-Key handling on order creation.
func WithIdempotencyStore(store ports.IdempotencyStore) Option {
	return func(s *Service) {
		s.idempotency = store
	}
}

// WithEventPublisher ships domain events after every successful save.
func WithEventPublisher(publisher ports.EventPublisher) Option {
	return func(s *Service) {
		s.publisher = publisher
	}
}

// WithLogger sets the logger used for best-effort side effects.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService wires the orders service with its dependencies.
func NewService(repo ports.Repository, gateway paymentports.Gateway, opts ...Option) *Service {
	s := &Service{
		repo:    repo,
		gateway: gateway,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// CreateOrder validates the checkout request, prices it and persists a PENDING order.
// With an idempotency key the key is claimed before the order is saved, so only one of
// several concurrent requests sharing it creates an order.
func (s *Service) CreateOrder(ctx context.Context, input ordertypes.CreateOrderInput) (*domain.Order, error) {
	key := strings.TrimSpace(input.IdempotencyKey)
	var fingerprint string
	if key != "" && s.idempotency != nil {
		hash, err := FingerprintCreateOrder(input)
		if err != nil {
			return nil, err
		}
		fingerprint = hash
		replayed, err := s.replay(ctx, key, fingerprint)
		if err != nil || replayed != nil {
			return replayed, err
		}
	}

	order, err := buildOrder(input)
	if err != nil {
		return nil, mapError(err)
	}
	if fingerprint != "" {
		replayed, err := s.claim(ctx, key, fingerprint)
		if err != nil || replayed != nil {
			return replayed, err
		}
	}
	order.MarkCreated(s.now())
	saved, err := s.repo.Save(ctx, order)
	if err != nil {
		if fingerprint != "" {
			s.release(ctx, key)
		}
		return nil, mapError(err)
	}
	order.ID = saved.ID
	if fingerprint != "" {
		s.complete(ctx, key, saved.ID)
	}
	s.publish(ctx, order)
	return saved, nil
}

// GetOrder loads a single order.
func (s *Service) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	return s.load(ctx, id)
}

// ListUserOrders returns the user's orders, newest first.
func (s *Service) ListUserOrders(ctx context.Context, userID int64) ([]*domain.Order, error) {
	orders, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, mapError(err)
	}
	return orders, nil
}

// ListOrders returns every order matching filter.
func (s *Service) ListOrders(ctx context.Context, filter ports.Filter) ([]*domain.Order, error) {
	orders, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, mapError(err)
	}
	return orders, nil
}

// ListPendingOrders returns the orders still awaiting fulfilment, oldest first.
func (s *Service) ListPendingOrders(ctx context.Context) ([]*domain.Order, error) {
	orders, err := s.repo.ListPending(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	return orders, nil
}

// UpdateOrderStatus sets the order status from a textual token. Unknown tokens are
// rejected before the order is touched.
func (s *Service) UpdateOrderStatus(ctx context.Context, id int64, status string) (*domain.Order, error) {
	target, err := domain.ParseOrderStatus(status)
	if err != nil {
		return nil, mapError(err)
	}
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := order.TransitionStatus(target, now); err != nil {
		return nil, mapError(err)
	}
	return s.store(ctx, order, now)
}

// UpdatePaymentStatus sets the payment status from a textual token.
func (s *Service) UpdatePaymentStatus(ctx context.Context, id int64, status string) (*domain.Order, error) {
	target, err := domain.ParsePaymentStatus(status)
	if err != nil {
		return nil, mapError(err)
	}
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := order.TransitionPaymentStatus(target, now); err != nil {
		return nil, mapError(err)
	}
	return s.store(ctx, order, now)
}

// ProcessPayment charges the order total through the gateway and marks the order PAID.
// A failed charge leaves the order untouched.
func (s *Service) ProcessPayment(ctx context.Context, input ordertypes.ProcessPaymentInput) (*domain.Order, error) {
	method := strings.TrimSpace(input.PaymentMethod)
	if method == "" {
		return nil, mapError(domain.ErrPaymentMethodRequired)
	}
	order, err := s.load(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	if err := order.EnsurePayable(); err != nil {
		return nil, mapError(err)
	}
	if s.gateway == nil {
		return nil, errGatewayNotConfigured
	}
	paymentID, err := s.gateway.Charge(ctx, paymentdomain.ChargeRequest{
		OrderID:       order.ID,
		Amount:        order.TotalAmount,
		Method:        method,
		Token:         input.PaymentToken,
		CustomerEmail: order.Customer.Email,
	})
	if err != nil {
		return nil, mapError(err)
	}
	now := s.now()
	if err := order.ApplyPayment(method, paymentID, now); err != nil {
		return nil, mapError(err)
	}
	return s.store(ctx, order, now)
}

// CancelOrder cancels the order, refunding a settled payment first. When the refund
// fails nothing is saved.
func (s *Service) CancelOrder(ctx context.Context, id int64) (*domain.Order, error) {
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := order.EnsureCancellable(); err != nil {
		return nil, mapError(err)
	}
	var refundID string
	if order.RequiresRefund() {
		if s.gateway == nil {
			return nil, errGatewayNotConfigured
		}
		refundID, err = s.gateway.Refund(ctx, order.PaymentReference)
		if err != nil {
			return nil, mapError(err)
		}
	}
	now := s.now()
	if err := order.Cancel(refundID, now); err != nil {
		return nil, mapError(err)
	}
	return s.store(ctx, order, now)
}

// UserStatistics aggregates the user's order history.
func (s *Service) UserStatistics(ctx context.Context, userID int64) (domain.UserStatistics, error) {
	orders, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return domain.UserStatistics{}, mapError(err)
	}
	return domain.ComputeUserStatistics(userID, orders), nil
}

// ApplyPaymentNotification reconciles an asynchronous processor callback with the order
// holding the payment reference. Repeated notifications for a settled state are no-ops.
// Only an open PENDING or FAILED payment moves; anything else is reported with
// ErrNotificationIgnored and the order is left untouched.
func (s *Service) ApplyPaymentNotification(ctx context.Context, input ordertypes.PaymentNotificationInput) (*domain.Order, error) {
	target, err := domain.ParsePaymentStatus(input.PaymentStatus)
	if err != nil {
		return nil, mapError(err)
	}
	reference := strings.TrimSpace(input.PaymentReference)
	if reference == "" {
		return nil, mapError(paymentdomain.ErrInvalidPaymentReference)
	}
	order, err := s.repo.FindByPaymentReference(ctx, reference)
	if err != nil {
		return nil, mapError(err)
	}
	if order.Status == domain.OrderStatusCancelled || order.PaymentStatus == domain.PaymentStatusRefunded {
		return nil, fmt.Errorf("%w: order %d is %s", ErrNotificationIgnored, order.ID, order.Status)
	}
	if order.PaymentStatus == target {
		return order, nil
	}
	if order.PaymentStatus != domain.PaymentStatusPending && order.PaymentStatus != domain.PaymentStatusFailed {
		return nil, fmt.Errorf("%w: payment of order %d is already %s", ErrNotificationIgnored, order.ID, order.PaymentStatus)
	}
	if target != domain.PaymentStatusPaid && target != domain.PaymentStatusFailed {
		return nil, fmt.Errorf("%w: processor cannot report %s", ErrNotificationIgnored, target)
	}
	now := s.now()
	if err := order.TransitionPaymentStatus(target, now); err != nil {
		return nil, mapError(err)
	}
	return s.store(ctx, order, now)
}

func (s *Service) load(ctx context.Context, id int64) (*domain.Order, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, fmt.Errorf("%w: id %d", ports.ErrNotFound, id)
		}
		return nil, mapError(err)
	}
	return order, nil
}

func (s *Service) store(ctx context.Context, order *domain.Order, at time.Time) (*domain.Order, error) {
	order.MarkUpdated(at)
	saved, err := s.repo.Save(ctx, order)
	if err != nil {
		return nil, mapError(err)
	}
	s.publish(ctx, order)
	return saved, nil
}

func (s *Service) publish(ctx context.Context, order *domain.Order) {
	events := order.PullEvents()
	if s.publisher == nil || len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "publish order events failed",
			slog.Int64("order.id", order.ID),
			slog.Int("events", len(events)),
			slog.String("error", err.Error()),
		)
	}
}

func (s *Service) replay(ctx context.Context, key, fingerprint string) (*domain.Order, error) {
	record, err := s.idempotency.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, nil
	}
	return s.resolve(ctx, record, fingerprint)
}

// claim reserves key for this request. A nil order and nil error mean the caller owns
// the key and must complete or release it.
func (s *Service) claim(ctx context.Context, key, fingerprint string) (*domain.Order, error) {
	now := s.now()
	stored, err := s.idempotency.Save(ctx, ports.IdempotencyRecord{
		Key:         key,
		RequestHash: fingerprint,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	switch {
	case err == nil:
		return nil, nil
	case errors.Is(err, ports.ErrIdempotencyConflict) && stored != nil:
		// a concurrent request with the same key got there first
		return s.resolve(ctx, stored, fingerprint)
	default:
		return nil, err
	}
}

func (s *Service) resolve(ctx context.Context, record *ports.IdempotencyRecord, fingerprint string) (*domain.Order, error) {
	if record.RequestHash != fingerprint {
		return nil, ports.ErrIdempotencyConflict
	}
	if record.Pending() {
		return nil, ports.ErrIdempotencyInProgress
	}
	return s.load(ctx, record.OrderID)
}

func (s *Service) complete(ctx context.Context, key string, orderID int64) {
	if err := s.idempotency.Complete(ctx, key, orderID); err != nil {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "complete idempotency key failed",
			slog.String("idempotency.key", key),
			slog.Int64("order.id", orderID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *Service) release(ctx context.Context, key string) {
	if err := s.idempotency.Release(ctx, key); err != nil {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "release idempotency key failed",
			slog.String("idempotency.key", key),
			slog.String("error", err.Error()),
		)
	}
}

func buildOrder(input ordertypes.CreateOrderInput) (*domain.Order, error) {
	items := make([]domain.OrderItem, 0, len(input.Items))
	for _, in := range input.Items {
		item, err := domain.NewOrderItem(in.ProductID, in.ProductName, in.UnitPrice, in.Quantity, domain.ProductDetails{
			Category:    in.ProductCategory,
			SKU:         in.ProductSKU,
			Color:       in.ProductColor,
			Size:        in.ProductSize,
			Description: in.ProductDescription,
		})
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	customer := domain.Customer{UserID: input.UserID, Email: input.UserEmail, Name: strings.TrimSpace(input.UserName)}
	return domain.NewOrder(customer, input.ShippingAddress, input.BillingAddress, items)
}

var _ ports.Service = (*Service)(nil)
