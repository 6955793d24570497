package orders

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/Apurer/go-gin-order-service/internal/domains/orders/application"
	ordertypes "github.com/Apurer/go-gin-order-service/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-order-service/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-order-service/internal/domains/orders/ports"
)

const (
	// CreateOrderActivityName persists a new order.
	CreateOrderActivityName = "orders.activities.CreateOrder"
	// PublishOrderEventsActivityName announces a stored order to event consumers.
	PublishOrderEventsActivityName = "orders.activities.PublishOrderEvents"
)

// Application error types that survive the Temporal boundary.
const (
	ErrTypeValidation          = "OrderValidationError"
	ErrTypeIdempotencyConflict = "OrderIdempotencyConflict"
)

// Activities groups activities that operate on the orders bounded context.
type Activities struct {
	service   ports.Service
	publisher ports.EventPublisher
}

// NewActivities wires the orders collaborators into the Temporal activities bundle.
// service should be constructed without an event publisher so events leave through
// PublishOrderEvents only.
func NewActivities(service ports.Service, publisher ports.EventPublisher) *Activities {
	return &Activities{service: service, publisher: publisher}
}

// CreateOrder stores a new order. The idempotency key travels with the input so a retried
// attempt replays the order created by an earlier one.
func (a *Activities) CreateOrder(ctx context.Context, input ordertypes.CreateOrderInput) (*domain.Order, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.service == nil {
		logger.Error("create order activity not initialized", "userId", input.UserID)
		return nil, errors.New("create order activity not initialized")
	}
	logger.Info("CreateOrder activity started", "userId", input.UserID, "items", len(input.Items))
	order, err := a.service.CreateOrder(ctx, input)
	if err != nil {
		logger.Error("CreateOrder activity failed", "userId", input.UserID, "error", err)
		return nil, classify(err)
	}
	logger.Info("CreateOrder activity completed", "orderId", order.ID)
	return order, nil
}

// PublishOrderEvents loads the order and publishes its created event.
func (a *Activities) PublishOrderEvents(ctx context.Context, orderID int64) error {
	logger := activity.GetLogger(ctx)
	if a == nil || a.service == nil {
		logger.Error("publish order events activity not initialized", "orderId", orderID)
		return errors.New("publish order events activity not initialized")
	}
	if a.publisher == nil {
		logger.Info("event publisher not configured; skipping", "orderId", orderID)
		return nil
	}
	order, err := a.service.GetOrder(ctx, orderID)
	if err != nil {
		logger.Error("PublishOrderEvents failed to load order", "orderId", orderID, "error", err)
		return err
	}
	if err := a.publisher.Publish(ctx, order.CreatedEvent()); err != nil {
		logger.Error("PublishOrderEvents failed", "orderId", orderID, "error", err)
		return err
	}
	logger.Info("PublishOrderEvents activity completed", "orderId", orderID)
	return nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, application.ErrValidation):
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeValidation, err)
	case errors.Is(err, ports.ErrIdempotencyConflict):
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeIdempotencyConflict, err)
	default:
		return err
	}
}
