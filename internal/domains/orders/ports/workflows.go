package ports

import (
	"context"

	ordertypes "github.com/Apurer/go-gin-order-service/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-order-service/internal/domains/orders/domain"
)

// WorkflowOrchestrator exposes durable workflow operations required by the orders context.
type WorkflowOrchestrator interface {
	PlaceOrder(ctx context.Context, input ordertypes.CreateOrderInput) (*domain.Order, error)
}
