package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	orderserver "github.com/Apurer/go-gin-order-service/go"
	orderobs "github.com/Apurer/go-gin-order-service/internal/domains/orders/adapters/observability"
	orderworkflows "github.com/Apurer/go-gin-order-service/internal/domains/orders/adapters/workflows"
	ordersapp "github.com/Apurer/go-gin-order-service/internal/domains/orders/application"
	orderports "github.com/Apurer/go-gin-order-service/internal/domains/orders/ports"
	"github.com/Apurer/go-gin-order-service/internal/domains/payments/adapters/stripe"
	platformobservability "github.com/Apurer/go-gin-order-service/internal/platform/observability"
)

// ServiceName identifies the HTTP process in traces and logs.
const ServiceName = "order-api"

// Run boots the orders HTTP API with observability, storage, payments and workflows wired.
// It returns when ctx is cancelled and the server has drained.
func Run(ctx context.Context, cfg Config) error {
	instruments, shutdown, err := platformobservability.Init(ctx, ObservabilitySettings(cfg, ServiceName))
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	infra, err := BuildInfrastructure(ctx, cfg, instruments)
	if err != nil {
		return err
	}
	defer infra.Close()

	coreOrderService := ordersapp.NewService(
		infra.Repository,
		infra.Gateway,
		ordersapp.WithIdempotencyStore(infra.Idempotency),
		ordersapp.WithEventPublisher(infra.Publisher),
		ordersapp.WithLogger(logger),
	)
	orderService := orderobs.New(
		coreOrderService,
		orderobs.WithLogger(logger),
		orderobs.WithTracer(instruments.Tracer("internal.orders.application")),
		orderobs.WithMeter(instruments.Meter("internal.orders.application")),
	)
	var orderWorkflows orderports.WorkflowOrchestrator = orderworkflows.NewInlineOrderWorkflows(orderService)
	if temporalClient, err := ConnectTemporalClient(cfg, instruments, "temporal-client"); err != nil {
		logger.Warn("Temporal workflows unavailable, placing orders inline", slog.String("error", err.Error()))
	} else {
		defer temporalClient.Close()
		orderWorkflows = orderworkflows.NewTemporalOrderWorkflows(temporalClient)
		logger.Info("Temporal workflows enabled", slog.String("namespace", cfg.Temporal.Namespace))
	}

	handler, err := NewHandler(cfg, logger, orderService, orderWorkflows, prometheus.NewRegistry())
	if err != nil {
		return err
	}
	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("order API listening", slog.String("addr", server.Addr))
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		logger.Error("order API server exited", slog.String("addr", server.Addr), slog.String("error", err.Error()))
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down order API")
	drainCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(drainCtx); err != nil {
		return fmt.Errorf("drain http server: %w", err)
	}
	return nil
}

// NewHandler assembles the gin engine with tracing, metrics and the order routes.
func NewHandler(cfg Config, logger *slog.Logger, service orderports.Service, workflows orderports.WorkflowOrchestrator, registry *prometheus.Registry) (*gin.Engine, error) {
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	handlers := orderserver.ApiHandleFunctions{
		OrderAPI: orderserver.NewOrderAPI(service, workflows),
		Metrics:  orderserver.NewHTTPMetrics(registry),
		Logger:   logger,
	}
	if cfg.Payments.StripeWebhookSecret != "" {
		verifier, err := stripe.NewWebhookVerifier(cfg.Payments.StripeWebhookSecret)
		if err != nil {
			return nil, err
		}
		handlers.WebhookAPI = orderserver.NewWebhookAPI(service, verifier)
	}
	engine := gin.New()
	engine.Use(otelgin.Middleware(ServiceName))
	return orderserver.NewRouterWithGinEngine(engine, handlers), nil
}
