package ports

import (
	"context"

	"github.com/Apurer/go-gin-order-service/internal/domains/orders/domain"
)

// EventPublisher ships domain events to interested consumers.
type EventPublisher interface {
	Publish(ctx context.Context, events ...domain.Event) error
}
