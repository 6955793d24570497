package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/go-gin-order-service/internal/app/api"
	orderobs "github.com/Apurer/go-gin-order-service/internal/domains/orders/adapters/observability"
	ordersapp "github.com/Apurer/go-gin-order-service/internal/domains/orders/application"
	platformobservability "github.com/Apurer/go-gin-order-service/internal/platform/observability"
	orderactivities "github.com/Apurer/go-gin-order-service/internal/platform/temporal/activities/orders"
	orderworkflows "github.com/Apurer/go-gin-order-service/internal/platform/temporal/workflows/orders"
)

func main() {
	ctx := context.Background()
	const serviceName = "order-worker"
	cfg, err := api.LoadConfig()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	instruments, shutdown, err := platformobservability.Init(ctx, api.ObservabilitySettings(cfg, serviceName))
	if err != nil {
		log.Fatalf("failed to initialize observability: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	infra, err := api.BuildInfrastructure(ctx, cfg, instruments)
	if err != nil {
		logger.Error("failed to build worker infrastructure", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer infra.Close()

	// events leave through the PublishOrderEvents activity, so the service itself does not publish
	orderService := orderobs.New(
		ordersapp.NewService(
			infra.Repository,
			infra.Gateway,
			ordersapp.WithIdempotencyStore(infra.Idempotency),
			ordersapp.WithLogger(logger),
		),
		orderobs.WithLogger(logger),
		orderobs.WithTracer(instruments.Tracer("internal.orders.application")),
		orderobs.WithMeter(instruments.Meter("internal.orders.application")),
	)
	activities := orderactivities.NewActivities(orderService, infra.Publisher)

	temporalClient, err := api.ConnectTemporalClient(cfg, instruments, "temporal-worker")
	if err != nil {
		logger.Error("failed to create Temporal client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer temporalClient.Close()

	w := worker.New(temporalClient, orderworkflows.PlacementTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(orderworkflows.PlacementWorkflow, workflow.RegisterOptions{Name: orderworkflows.PlacementWorkflowName})
	w.RegisterActivityWithOptions(activities.CreateOrder, activity.RegisterOptions{Name: orderactivities.CreateOrderActivityName})
	w.RegisterActivityWithOptions(activities.PublishOrderEvents, activity.RegisterOptions{Name: orderactivities.PublishOrderEventsActivityName})

	logger.Info("worker listening", slog.String("taskQueue", orderworkflows.PlacementTaskQueue), slog.String("namespace", cfg.Temporal.Namespace))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Error("Temporal worker exited with error", slog.String("error", err.Error()))
		return
	}
	logger.Info("Temporal worker stopped")
}
