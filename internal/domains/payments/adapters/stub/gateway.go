// Package stub provides an offline payment gateway that never talks to a processor.
package stub

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/Apurer/go-gin-order-service/internal/domains/payments/domain"
	"github.com/Apurer/go-gin-order-service/internal/domains/payments/ports"
)

var _ ports.Gateway = (*Gateway)(nil)

// Gateway validates requests and synthesises processor-like identifiers.
type Gateway struct {
	apiKey string
	logger *slog.Logger
	newID  func() (uuid.UUID, error)
}

type Option func(*Gateway)

// WithLogger routes charge and refund traces to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithIDSource overrides the identifier generator.
func WithIDSource(source func() (uuid.UUID, error)) Option {
	return func(g *Gateway) {
		if source != nil {
			g.newID = source
		}
	}
}

// NewGateway builds a stub gateway. The key is only kept for parity with the real adapter.
func NewGateway(apiKey string, opts ...Option) *Gateway {
	g := &Gateway{
		apiKey: apiKey,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		newID:  uuid.NewRandom,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

// Charge returns a fresh pi_ identifier for any positive amount.
func (g *Gateway) Charge(ctx context.Context, req domain.ChargeRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	id, err := g.newID()
	if err != nil {
		return "", domain.NewPaymentError(err)
	}
	paymentID := "pi_" + compact(id)
	g.logger.LogAttrs(ctx, slog.LevelInfo, "stub payment processed",
		slog.String("amount", req.Amount.StringFixed(2)),
		slog.String("method", req.Method),
		slog.String("customer", req.CustomerEmail),
		slog.String("payment.id", paymentID))
	return paymentID, nil
}

// Refund returns a fresh re_ identifier for any non-empty payment id.
func (g *Gateway) Refund(ctx context.Context, paymentID string) (string, error) {
	if strings.TrimSpace(paymentID) == "" {
		return "", domain.ErrInvalidPaymentReference
	}
	id, err := g.newID()
	if err != nil {
		return "", domain.NewRefundError(err)
	}
	refundID := "re_" + compact(id)
	g.logger.LogAttrs(ctx, slog.LevelInfo, "stub refund processed",
		slog.String("payment.id", paymentID),
		slog.String("refund.id", refundID))
	return refundID, nil
}

// VerifyStatus always reports success.
func (g *Gateway) VerifyStatus(_ context.Context, _ string) (domain.Status, error) {
	return domain.StatusSucceeded, nil
}

func compact(id uuid.UUID) string {
	return strings.ReplaceAll(id.String(), "-", "")
}
