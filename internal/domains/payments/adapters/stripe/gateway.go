// Package stripe implements the payment gateway on top of Stripe PaymentIntents.
package stripe

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	stripego "github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"

	"github.com/Apurer/go-gin-order-service/internal/domains/payments/domain"
	"github.com/Apurer/go-gin-order-service/internal/domains/payments/ports"
)

var _ ports.Gateway = (*Gateway)(nil)

const defaultCurrency = "usd"

// Gateway charges and refunds through the Stripe API. Each instance owns its client so
// credentials never leak into package state.
type Gateway struct {
	api      *client.API
	currency string
}

type Option func(*gatewayConfig)

type gatewayConfig struct {
	backends *stripego.Backends
	currency string
}

// WithBackends points the client at custom backends (tests, proxies).
func WithBackends(backends *stripego.Backends) Option {
	return func(c *gatewayConfig) {
		c.backends = backends
	}
}

// WithCurrency sets the ISO currency used for charges.
func WithCurrency(currency string) Option {
	return func(c *gatewayConfig) {
		if currency = strings.TrimSpace(currency); currency != "" {
			c.currency = strings.ToLower(currency)
		}
	}
}

// NewGateway wires a Stripe client for the given secret key.
func NewGateway(secretKey string, opts ...Option) (*Gateway, error) {
	if strings.TrimSpace(secretKey) == "" {
		return nil, errors.New("stripe secret key is empty")
	}
	cfg := gatewayConfig{currency: defaultCurrency}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	api := &client.API{}
	api.Init(secretKey, cfg.backends)
	return &Gateway{api: api, currency: cfg.currency}, nil
}

// Charge creates and confirms a PaymentIntent for the request.
func (g *Gateway) Charge(ctx context.Context, req domain.ChargeRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	currency := g.currency
	if req.Currency != "" {
		currency = strings.ToLower(req.Currency)
	}
	params := &stripego.PaymentIntentParams{
		Amount:   stripego.Int64(req.Amount.Shift(2).Round(0).IntPart()),
		Currency: stripego.String(currency),
		Confirm:  stripego.Bool(true),
		AutomaticPaymentMethods: &stripego.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripego.Bool(true),
			AllowRedirects: stripego.String("never"),
		},
	}
	if req.CustomerEmail != "" {
		params.ReceiptEmail = stripego.String(req.CustomerEmail)
	}
	if req.Token != "" {
		params.PaymentMethod = stripego.String(req.Token)
	}
	if req.OrderID != 0 {
		params.AddMetadata("order_id", strconv.FormatInt(req.OrderID, 10))
	}
	if req.Method != "" {
		params.AddMetadata("payment_method", req.Method)
	}
	params.Context = ctx

	intent, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return "", domain.NewPaymentError(err)
	}
	switch intent.Status {
	case stripego.PaymentIntentStatusSucceeded, stripego.PaymentIntentStatusProcessing:
		return intent.ID, nil
	default:
		return "", domain.NewPaymentError(fmt.Errorf("payment intent %s ended in status %s", intent.ID, intent.Status))
	}
}

// Refund refunds the full amount of a PaymentIntent.
func (g *Gateway) Refund(ctx context.Context, paymentID string) (string, error) {
	if strings.TrimSpace(paymentID) == "" {
		return "", domain.ErrInvalidPaymentReference
	}
	params := &stripego.RefundParams{PaymentIntent: stripego.String(paymentID)}
	params.Context = ctx
	refund, err := g.api.Refunds.New(params)
	if err != nil {
		return "", domain.NewRefundError(err)
	}
	return refund.ID, nil
}

// VerifyStatus reads the PaymentIntent back from Stripe.
func (g *Gateway) VerifyStatus(ctx context.Context, paymentID string) (domain.Status, error) {
	if strings.TrimSpace(paymentID) == "" {
		return "", domain.ErrInvalidPaymentReference
	}
	params := &stripego.PaymentIntentParams{}
	params.Context = ctx
	intent, err := g.api.PaymentIntents.Get(paymentID, params)
	if err != nil {
		return "", domain.NewPaymentError(err)
	}
	return mapIntentStatus(intent.Status), nil
}

func mapIntentStatus(status stripego.PaymentIntentStatus) domain.Status {
	switch status {
	case stripego.PaymentIntentStatusSucceeded:
		return domain.StatusSucceeded
	case stripego.PaymentIntentStatusProcessing:
		return domain.StatusProcessing
	case stripego.PaymentIntentStatusCanceled:
		return domain.StatusCanceled
	case stripego.PaymentIntentStatusRequiresAction,
		stripego.PaymentIntentStatusRequiresCapture,
		stripego.PaymentIntentStatusRequiresConfirmation:
		return domain.StatusRequiresAction
	default:
		return domain.StatusFailed
	}
}
