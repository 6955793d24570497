package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"
	"gorm.io/gorm"

	ordercache "github.com/Apurer/go-gin-order-service/internal/domains/orders/adapters/cache"
	orderevents "github.com/Apurer/go-gin-order-service/internal/domains/orders/adapters/events"
	ordermemory "github.com/Apurer/go-gin-order-service/internal/domains/orders/adapters/memory"
	orderpostgres "github.com/Apurer/go-gin-order-service/internal/domains/orders/adapters/persistence/postgres"
	orderports "github.com/Apurer/go-gin-order-service/internal/domains/orders/ports"
	paymentobs "github.com/Apurer/go-gin-order-service/internal/domains/payments/adapters/observability"
	"github.com/Apurer/go-gin-order-service/internal/domains/payments/adapters/stripe"
	"github.com/Apurer/go-gin-order-service/internal/domains/payments/adapters/stub"
	paymentports "github.com/Apurer/go-gin-order-service/internal/domains/payments/ports"
	platformobservability "github.com/Apurer/go-gin-order-service/internal/platform/observability"
	platformpostgres "github.com/Apurer/go-gin-order-service/internal/platform/postgres"
)

// Infrastructure holds the adapters shared by the api and worker processes.
type Infrastructure struct {
	DB          *gorm.DB
	Repository  orderports.Repository
	Idempotency orderports.IdempotencyStore
	Publisher   orderports.EventPublisher
	Gateway     paymentports.Gateway

	closers []func()
}

// Close releases connections in reverse acquisition order.
func (i *Infrastructure) Close() {
	for idx := len(i.closers) - 1; idx >= 0; idx-- {
		i.closers[idx]()
	}
}

// BuildInfrastructure connects every configured backend. Optional backends that are missing
// or unreachable degrade to their in-process counterparts with a warning. A misconfigured
// payment provider is fatal.
func BuildInfrastructure(ctx context.Context, cfg Config, instruments *platformobservability.Instruments) (*Infrastructure, error) {
	logger := effectiveLogger(instruments)
	infra := &Infrastructure{}

	db, cleanupDB := platformpostgres.Open(ctx, cfg.Postgres.DSN, logger)
	infra.closers = append(infra.closers, cleanupDB)
	infra.DB = db
	if db != nil {
		infra.Repository = orderpostgres.NewRepository(db)
		logger.Info("order repository configured with postgres")
	} else {
		infra.Repository = ordermemory.NewRepository()
	}

	infra.Idempotency = infra.buildIdempotencyStore(ctx, cfg, logger)
	infra.Publisher = infra.buildPublisher(cfg, logger)

	gateway, err := buildGateway(cfg, instruments)
	if err != nil {
		infra.Close()
		return nil, err
	}
	infra.Gateway = gateway
	return infra, nil
}

func (i *Infrastructure) buildIdempotencyStore(ctx context.Context, cfg Config, logger *slog.Logger) orderports.IdempotencyStore {
	if addr := strings.TrimSpace(cfg.Redis.Addr); addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err == nil {
			i.closers = append(i.closers, func() { _ = rdb.Close() })
			logger.Info("idempotency keys stored in redis", slog.String("addr", addr))
			return ordercache.NewIdempotencyStore(rdb, cfg.Idempotency.TTL)
		}
		_ = rdb.Close()
		logger.Warn("redis unavailable, trying next idempotency store", slog.String("addr", addr), slog.String("error", err.Error()))
	}
	if i.DB != nil {
		logger.Info("idempotency keys stored in postgres")
		return orderpostgres.NewIdempotencyStore(i.DB)
	}
	logger.Warn("idempotency keys kept in memory")
	return ordermemory.NewIdempotencyStore()
}

func (i *Infrastructure) buildPublisher(cfg Config, logger *slog.Logger) orderports.EventPublisher {
	brokers := orderevents.ParseBrokers(cfg.Kafka.Brokers)
	if len(brokers) == 0 {
		logger.Warn("KAFKA_BROKERS not set, order events are dropped")
		return orderevents.NopPublisher{}
	}
	publisher, err := orderevents.NewKafkaPublisher(brokers, cfg.Kafka.Topic)
	if err != nil {
		logger.Warn("failed to configure kafka publisher, order events are dropped", slog.String("error", err.Error()))
		return orderevents.NopPublisher{}
	}
	i.closers = append(i.closers, func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("failed to flush kafka publisher", slog.String("error", err.Error()))
		}
	})
	logger.Info("order events published to kafka", slog.String("topic", cfg.Kafka.Topic), slog.Int("brokers", len(brokers)))
	return publisher
}

func buildGateway(cfg Config, instruments *platformobservability.Instruments) (paymentports.Gateway, error) {
	logger := effectiveLogger(instruments)
	var inner paymentports.Gateway
	switch cfg.Payments.Provider {
	case PaymentProviderStripe:
		gateway, err := stripe.NewGateway(cfg.Payments.StripeSecretKey)
		if err != nil {
			return nil, fmt.Errorf("configure stripe gateway: %w", err)
		}
		inner = gateway
	case PaymentProviderStub, "":
		inner = stub.NewGateway(cfg.Payments.StripeSecretKey, stub.WithLogger(logger))
	default:
		return nil, fmt.Errorf("unknown payment provider %q", cfg.Payments.Provider)
	}
	return paymentobs.New(
		inner,
		cfg.Payments.Provider,
		paymentobs.WithLogger(logger),
		paymentobs.WithTracer(instruments.Tracer("internal.payments.gateway")),
		paymentobs.WithMeter(instruments.Meter("internal.payments.gateway")),
	), nil
}

// ConnectTemporalClient dials Temporal with tracing and structured logging.
func ConnectTemporalClient(cfg Config, instruments *platformobservability.Instruments, tracerName string) (client.Client, error) {
	if cfg.Temporal.Disabled {
		return nil, errors.New("temporal disabled via TEMPORAL_DISABLED")
	}
	tracerOptions := temporalotel.TracerOptions{}
	if instruments != nil {
		tracerOptions.Tracer = instruments.Tracer(tracerName)
	}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(tracerOptions)
	if err != nil {
		return nil, err
	}
	options := client.Options{
		HostPort:  cfg.Temporal.Address,
		Namespace: cfg.Temporal.Namespace,
		Logger:    workerlog.NewStructuredLogger(effectiveLogger(instruments)),
	}
	options.Interceptors = append(options.Interceptors, tracingInterceptor)
	return client.Dial(options)
}

// ObservabilitySettings maps the config onto platform observability settings.
func ObservabilitySettings(cfg Config, serviceName string) platformobservability.Settings {
	return platformobservability.Settings{
		ServiceName:   serviceName,
		Environment:   cfg.Environment,
		OTLPEndpoint:  cfg.Telemetry.OTLPEndpoint,
		OTLPInsecure:  cfg.Telemetry.Insecure,
		TraceExporter: cfg.Telemetry.Exporter,
		SampleRatio:   cfg.Telemetry.SampleRatio,
		Log: platformobservability.LogSettings{
			Level: cfg.Log.Level,
			File:  cfg.Log.File,
		},
	}
}

func effectiveLogger(instruments *platformobservability.Instruments) *slog.Logger {
	if instruments != nil && instruments.Logger != nil {
		return instruments.Logger
	}
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
