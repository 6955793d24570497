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

	"github.com/Apurer/go-gin-order-service/internal/domains/payments/domain"
	"github.com/Apurer/go-gin-order-service/internal/domains/payments/ports"
)

const tracerName = "github.com/Apurer/go-gin-order-service/internal/domains/payments/adapters/observability"

// Gateway decorates a payment gateway with tracing, logging, and metrics.
type Gateway struct {
	inner   ports.Gateway
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics gatewayMetrics
}

type Option func(*Gateway)

func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) {
		g.logger = logger
	}
}

func WithTracer(tr trace.Tracer) Option {
	return func(g *Gateway) {
		g.tracer = tr
	}
}

func WithMeter(m metric.Meter) Option {
	return func(g *Gateway) {
		g.metrics = newGatewayMetrics(m)
	}
}

// New wraps inner. The provider label ends up on spans and counters.
func New(inner ports.Gateway, provider string, opts ...Option) ports.Gateway {
	g := &Gateway{
		inner:  inner,
		tracer: nooptrace.NewTracerProvider().Tracer(tracerName),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	if g.tracer == nil {
		g.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	g.metrics.provider = provider
	return g
}

func (g *Gateway) Charge(ctx context.Context, req domain.ChargeRequest) (string, error) {
	ctx, span := g.tracer.Start(ctx, "PaymentGateway.Charge", trace.WithAttributes(
		attribute.String("payment.provider", g.metrics.provider),
		attribute.Int64("order.id", req.OrderID),
		attribute.String("payment.method", req.Method),
	))
	defer span.End()

	paymentID, err := g.inner.Charge(ctx, req)
	if err != nil {
		g.metrics.record(ctx, "charge", false)
		return "", g.handleError(ctx, span, err, "payment charge failed", slog.Int64("order.id", req.OrderID))
	}
	g.metrics.record(ctx, "charge", true)
	span.SetAttributes(attribute.String("payment.id", paymentID))
	g.logger.LogAttrs(ctx, slog.LevelInfo, "payment charged",
		slog.Int64("order.id", req.OrderID), slog.String("payment.id", paymentID), slog.String("amount", req.Amount.StringFixed(2)))
	return paymentID, nil
}

func (g *Gateway) Refund(ctx context.Context, paymentID string) (string, error) {
	ctx, span := g.tracer.Start(ctx, "PaymentGateway.Refund", trace.WithAttributes(
		attribute.String("payment.provider", g.metrics.provider),
		attribute.String("payment.id", paymentID),
	))
	defer span.End()

	refundID, err := g.inner.Refund(ctx, paymentID)
	if err != nil {
		g.metrics.record(ctx, "refund", false)
		return "", g.handleError(ctx, span, err, "payment refund failed", slog.String("payment.id", paymentID))
	}
	g.metrics.record(ctx, "refund", true)
	g.logger.LogAttrs(ctx, slog.LevelInfo, "payment refunded", slog.String("payment.id", paymentID), slog.String("refund.id", refundID))
	return refundID, nil
}

func (g *Gateway) VerifyStatus(ctx context.Context, paymentID string) (domain.Status, error) {
	ctx, span := g.tracer.Start(ctx, "PaymentGateway.VerifyStatus", trace.WithAttributes(attribute.String("payment.id", paymentID)))
	defer span.End()

	status, err := g.inner.VerifyStatus(ctx, paymentID)
	if err != nil {
		return "", g.handleError(ctx, span, err, "payment status lookup failed", slog.String("payment.id", paymentID))
	}
	span.SetAttributes(attribute.String("payment.status", string(status)))
	return status, nil
}

func (g *Gateway) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if g.logger != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		g.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
	}
	return err
}

type gatewayMetrics struct {
	provider   string
	operations metric.Int64Counter
}

func newGatewayMetrics(m metric.Meter) gatewayMetrics {
	if m == nil {
		return gatewayMetrics{}
	}
	operations, _ := m.Int64Counter("payments.gateway.operations", metric.WithDescription("Payment gateway calls by operation and outcome"))
	return gatewayMetrics{operations: operations}
}

func (m gatewayMetrics) record(ctx context.Context, operation string, ok bool) {
	if m.operations == nil {
		return
	}
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	m.operations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("payment.provider", m.provider),
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	))
}

var _ ports.Gateway = (*Gateway)(nil)
