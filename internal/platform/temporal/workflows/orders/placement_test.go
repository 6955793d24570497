package orders

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"

	ordermemory "github.com/Apurer/go-gin-order-service/internal/domains/orders/adapters/memory"
	"github.com/Apurer/go-gin-order-service/internal/domains/orders/application"
	ordertypes "github.com/Apurer/go-gin-order-service/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-order-service/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-order-service/internal/domains/payments/adapters/stub"
	orderactivities "github.com/Apurer/go-gin-order-service/internal/platform/temporal/activities/orders"
)

type capturePublisher struct {
	names []string
	err   error
}

func (c *capturePublisher) Publish(_ context.Context, events ...domain.Event) error {
	if c.err != nil {
		return c.err
	}
	for _, e := range events {
		c.names = append(c.names, e.EventName())
	}
	return nil
}

func newPlacementEnv(t *testing.T, publisher *capturePublisher) *testsuite.TestWorkflowEnvironment {
	t.Helper()
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()

	service := application.NewService(ordermemory.NewRepository(), stub.NewGateway("sk_test"))
	acts := orderactivities.NewActivities(service, publisher)
	env.RegisterActivityWithOptions(acts.CreateOrder, activity.RegisterOptions{Name: orderactivities.CreateOrderActivityName})
	env.RegisterActivityWithOptions(acts.PublishOrderEvents, activity.RegisterOptions{Name: orderactivities.PublishOrderEventsActivityName})
	return env
}

func placementInput() PlacementWorkflowInput {
	return PlacementWorkflowInput{
		Command: ordertypes.CreateOrderInput{
			UserID:          1,
			UserEmail:       "a@b.c",
			ShippingAddress: "1 Main St",
			Items: []ordertypes.CreateOrderItemInput{
				{ProductID: 1, ProductName: "Tee", UnitPrice: decimal.RequireFromString("10.00"), Quantity: 4},
			},
		},
		TraceID: "trace-1",
	}
}

func TestPlacementWorkflow_PersistsAndPublishes(t *testing.T) {
	publisher := &capturePublisher{}
	env := newPlacementEnv(t, publisher)

	env.ExecuteWorkflow(PlacementWorkflow, placementInput())

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())
	var order domain.Order
	require.NoError(t, env.GetWorkflowResult(&order))
	require.NotZero(t, order.ID)
	require.True(t, decimal.RequireFromString("40.00").Equal(order.TotalAmount))
	require.Equal(t, []string{"order.created"}, publisher.names)
}

func TestPlacementWorkflow_PublishFailureStillCompletes(t *testing.T) {
	env := newPlacementEnv(t, &capturePublisher{err: errors.New("broker down")})

	env.ExecuteWorkflow(PlacementWorkflow, placementInput())

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())
}

func TestPlacementWorkflow_ValidationIsNotRetried(t *testing.T) {
	env := newPlacementEnv(t, &capturePublisher{})
	input := placementInput()
	input.Command.Items = nil

	env.ExecuteWorkflow(PlacementWorkflow, input)

	require.True(t, env.IsWorkflowCompleted())
	err := env.GetWorkflowError()
	require.Error(t, err)
	var appErr *temporal.ApplicationError
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, orderactivities.ErrTypeValidation, appErr.Type())
	require.True(t, appErr.NonRetryable())
}
