package observability

import (
	"context"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	ordertypes "github.com/Apurer/go-gin-order-service/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-order-service/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-order-service/internal/domains/orders/ports"
)

const tracerName = "github.com/Apurer/go-gin-order-service/internal/domains/orders/adapters/observability/service"

// Service decorates the orders application port with tracing, logging, and metrics.
type Service struct {
	inner   ports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

// WithLogger injects a slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithTracer injects a tracer implementation.
func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

// WithMeter injects the meter used to create service metrics instruments.
func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wires a decorator around the core service.
func New(inner ports.Service, opts ...Option) ports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  defaultLogger(),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	if s.logger == nil {
		s.logger = defaultLogger()
	}
	return s
}

// CreateOrder places a new order with instrumentation.
func (s *Service) CreateOrder(ctx context.Context, input ordertypes.CreateOrderInput) (*domain.Order, error) {
	ctx, span := s.startSpan(ctx, "Service.CreateOrder",
		attribute.Int64("user.id", input.UserID),
		attribute.Int("order.items.requested", len(input.Items)),
		attribute.Bool("order.idempotent", input.IdempotencyKey != ""))
	defer span.End()

	s.logInfo(ctx, "creating order", slog.Int64("user.id", input.UserID), slog.Int("items", len(input.Items)))
	order, err := s.inner.CreateOrder(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to create order", slog.Int64("user.id", input.UserID))
	}
	span.SetAttributes(attribute.Int64("order.id", order.ID))
	s.metrics.recordCreated(ctx, order)
	s.logInfo(ctx, "order created",
		slog.Int64("order.id", order.ID),
		slog.String("total", order.TotalAmount.StringFixed(2)))
	return order, nil
}

// GetOrder loads an order with instrumentation.
func (s *Service) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	ctx, span := s.startSpan(ctx, "Service.GetOrder", attribute.Int64("order.id", id))
	defer span.End()

	order, err := s.inner.GetOrder(ctx, id)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to get order", slog.Int64("order.id", id))
	}
	return order, nil
}

// ListUserOrders lists a user's orders with instrumentation.
func (s *Service) ListUserOrders(ctx context.Context, userID int64) ([]*domain.Order, error) {
	ctx, span := s.startSpan(ctx, "Service.ListUserOrders", attribute.Int64("user.id", userID))
	defer span.End()

	orders, err := s.inner.ListUserOrders(ctx, userID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list user orders", slog.Int64("user.id", userID))
	}
	span.SetAttributes(attribute.Int("order.result.count", len(orders)))
	return orders, nil
}

// ListOrders searches orders with instrumentation.
func (s *Service) ListOrders(ctx context.Context, filter ports.Filter) ([]*domain.Order, error) {
	ctx, span := s.startSpan(ctx, "Service.ListOrders",
		attribute.String("order.filter.status", string(filter.Status)),
		attribute.String("order.filter.payment_status", string(filter.PaymentStatus)))
	defer span.End()

	orders, err := s.inner.ListOrders(ctx, filter)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list orders")
	}
	span.SetAttributes(attribute.Int("order.result.count", len(orders)))
	s.logInfo(ctx, "listed orders", slog.Int("count", len(orders)))
	return orders, nil
}

// ListPendingOrders lists unfulfilled orders with instrumentation.
func (s *Service) ListPendingOrders(ctx context.Context) ([]*domain.Order, error) {
	ctx, span := s.startSpan(ctx, "Service.ListPendingOrders")
	defer span.End()

	orders, err := s.inner.ListPendingOrders(ctx)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list pending orders")
	}
	span.SetAttributes(attribute.Int("order.result.count", len(orders)))
	return orders, nil
}

// UpdateOrderStatus changes the order status with instrumentation.
func (s *Service) UpdateOrderStatus(ctx context.Context, id int64, status string) (*domain.Order, error) {
	ctx, span := s.startSpan(ctx, "Service.UpdateOrderStatus",
		attribute.Int64("order.id", id),
		attribute.String("order.status.requested", status))
	defer span.End()

	s.logInfo(ctx, "updating order status", slog.Int64("order.id", id), slog.String("status", status))
	order, err := s.inner.UpdateOrderStatus(ctx, id, status)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to update order status", slog.Int64("order.id", id))
	}
	s.metrics.recordStatusChange(ctx, "order", string(order.Status))
	return order, nil
}

// UpdatePaymentStatus changes the payment status with instrumentation.
func (s *Service) UpdatePaymentStatus(ctx context.Context, id int64, status string) (*domain.Order, error) {
	ctx, span := s.startSpan(ctx, "Service.UpdatePaymentStatus",
		attribute.Int64("order.id", id),
		attribute.String("payment.status.requested", status))
	defer span.End()

	s.logInfo(ctx, "updating payment status", slog.Int64("order.id", id), slog.String("status", status))
	order, err := s.inner.UpdatePaymentStatus(ctx, id, status)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to update payment status", slog.Int64("order.id", id))
	}
	s.metrics.recordStatusChange(ctx, "payment", string(order.PaymentStatus))
	return order, nil
}

// ProcessPayment charges the order with instrumentation.
func (s *Service) ProcessPayment(ctx context.Context, input ordertypes.ProcessPaymentInput) (*domain.Order, error) {
	ctx, span := s.startSpan(ctx, "Service.ProcessPayment",
		attribute.Int64("order.id", input.OrderID),
		attribute.String("payment.method", input.PaymentMethod))
	defer span.End()

	s.logInfo(ctx, "processing payment", slog.Int64("order.id", input.OrderID), slog.String("method", input.PaymentMethod))
	order, err := s.inner.ProcessPayment(ctx, input)
	if err != nil {
		s.metrics.recordPayment(ctx, "failure")
		return nil, s.handleError(ctx, span, err, "failed to process payment", slog.Int64("order.id", input.OrderID))
	}
	s.metrics.recordPayment(ctx, "success")
	s.logInfo(ctx, "payment processed",
		slog.Int64("order.id", order.ID),
		slog.String("payment.id", order.PaymentReference),
		slog.String("amount", order.TotalAmount.StringFixed(2)))
	return order, nil
}

// CancelOrder cancels the order with instrumentation.
func (s *Service) CancelOrder(ctx context.Context, id int64) (*domain.Order, error) {
	ctx, span := s.startSpan(ctx, "Service.CancelOrder", attribute.Int64("order.id", id))
	defer span.End()

	s.logInfo(ctx, "cancelling order", slog.Int64("order.id", id))
	order, err := s.inner.CancelOrder(ctx, id)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to cancel order", slog.Int64("order.id", id))
	}
	refunded := order.PaymentStatus == domain.PaymentStatusRefunded
	span.SetAttributes(attribute.Bool("order.refunded", refunded))
	s.metrics.recordCancelled(ctx, refunded)
	s.logInfo(ctx, "order cancelled", slog.Int64("order.id", order.ID), slog.Bool("refunded", refunded))
	return order, nil
}

// UserStatistics aggregates a user's history with instrumentation.
func (s *Service) UserStatistics(ctx context.Context, userID int64) (domain.UserStatistics, error) {
	ctx, span := s.startSpan(ctx, "Service.UserStatistics", attribute.Int64("user.id", userID))
	defer span.End()

	stats, err := s.inner.UserStatistics(ctx, userID)
	if err != nil {
		return domain.UserStatistics{}, s.handleError(ctx, span, err, "failed to compute user statistics", slog.Int64("user.id", userID))
	}
	span.SetAttributes(attribute.Int64("user.orders.total", stats.TotalOrders))
	return stats, nil
}

// ApplyPaymentNotification reconciles a processor callback with instrumentation.
func (s *Service) ApplyPaymentNotification(ctx context.Context, input ordertypes.PaymentNotificationInput) (*domain.Order, error) {
	ctx, span := s.startSpan(ctx, "Service.ApplyPaymentNotification",
		attribute.String("payment.id", input.PaymentReference),
		attribute.String("payment.status.requested", input.PaymentStatus))
	defer span.End()

	s.logInfo(ctx, "applying payment notification", slog.String("payment.id", input.PaymentReference), slog.String("status", input.PaymentStatus))
	order, err := s.inner.ApplyPaymentNotification(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to apply payment notification", slog.String("payment.id", input.PaymentReference))
	}
	s.metrics.recordStatusChange(ctx, "payment", string(order.PaymentStatus))
	return order, nil
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := s.tracer
	if tracer == nil {
		tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) logError(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if err == nil {
		return nil
	}
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.logError(ctx, msg, err, attrs...)
	return err
}

func defaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type serviceMetrics struct {
	ordersCreated   metric.Int64Counter
	orderValue      metric.Float64Histogram
	statusChanges   metric.Int64Counter
	payments        metric.Int64Counter
	ordersCancelled metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	ordersCreated, _ := m.Int64Counter("orders.service.created", metric.WithDescription("Number of orders created"))
	orderValue, _ := m.Float64Histogram("orders.service.order_value", metric.WithDescription("Total amount of created orders"))
	statusChanges, _ := m.Int64Counter("orders.service.status_changes", metric.WithDescription("Number of order and payment status changes"))
	payments, _ := m.Int64Counter("orders.service.payments", metric.WithDescription("Number of payment attempts"))
	ordersCancelled, _ := m.Int64Counter("orders.service.cancelled", metric.WithDescription("Number of orders cancelled"))
	return serviceMetrics{
		ordersCreated:   ordersCreated,
		orderValue:      orderValue,
		statusChanges:   statusChanges,
		payments:        payments,
		ordersCancelled: ordersCancelled,
	}
}

func (m serviceMetrics) recordCreated(ctx context.Context, order *domain.Order) {
	addCounter(ctx, m.ordersCreated, 1)
	if m.orderValue != nil && order != nil {
		m.orderValue.Record(ctx, order.TotalAmount.InexactFloat64())
	}
}

func (m serviceMetrics) recordStatusChange(ctx context.Context, kind, status string) {
	addCounter(ctx, m.statusChanges, 1, attribute.String("kind", kind), attribute.String("status", status))
}

func (m serviceMetrics) recordPayment(ctx context.Context, outcome string) {
	addCounter(ctx, m.payments, 1, attribute.String("outcome", outcome))
}

func (m serviceMetrics) recordCancelled(ctx context.Context, refunded bool) {
	addCounter(ctx, m.ordersCancelled, 1, attribute.Bool("refunded", refunded))
}

func addCounter(ctx context.Context, counter metric.Int64Counter, value int64, attrs ...attribute.KeyValue) {
	if counter == nil {
		return
	}
	counter.Add(ctx, value, metric.WithAttributes(attrs...))
}

var _ ports.Service = (*Service)(nil)
