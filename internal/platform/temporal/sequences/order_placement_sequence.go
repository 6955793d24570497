package sequences

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	ordertypes "github.com/Apurer/go-gin-order-service/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-order-service/internal/domains/orders/domain"
	orderactivities "github.com/Apurer/go-gin-order-service/internal/platform/temporal/activities/orders"
)

// RunOrderPlacementSequence persists the order and then announces it. A failed announcement
// is logged and does not fail the placement.
func RunOrderPlacementSequence(ctx workflow.Context, input ordertypes.CreateOrderInput) (*domain.Order, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("order placement sequence started", "userId", input.UserID)
	persistOptions := workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    10 * time.Second,
			MaximumAttempts:    5,
		},
	}
	publishOptions := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    5 * time.Second,
			MaximumAttempts:    3,
		},
	}

	var order domain.Order
	err := workflow.ExecuteActivity(workflow.WithActivityOptions(ctx, persistOptions), orderactivities.CreateOrderActivityName, input).Get(ctx, &order)
	if err != nil {
		logger.Error("order placement sequence failed", "userId", input.UserID, "error", err)
		return nil, err
	}
	logger.Info("order placement sequence persisted", "orderId", order.ID)

	if err := workflow.ExecuteActivity(workflow.WithActivityOptions(ctx, publishOptions), orderactivities.PublishOrderEventsActivityName, order.ID).Get(ctx, nil); err != nil {
		logger.Warn("order placement sequence publish failed", "orderId", order.ID, "error", err)
	}
	return &order, nil
}
