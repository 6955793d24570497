package stripe

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	stripego "github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/webhook"

	"github.com/Apurer/go-gin-order-service/internal/domains/payments/domain"
)

// ErrInvalidSignature is returned when the webhook payload cannot be authenticated.
var ErrInvalidSignature = errors.New("stripe webhook signature is invalid")

// WebhookVerifier authenticates Stripe webhook deliveries.
type WebhookVerifier struct {
	secret string
}

// NewWebhookVerifier returns a verifier for the endpoint signing secret.
func NewWebhookVerifier(secret string) (*WebhookVerifier, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("stripe webhook secret is empty")
	}
	return &WebhookVerifier{secret: secret}, nil
}

// Parse verifies the Stripe-Signature header and translates PaymentIntent events.
func (v *WebhookVerifier) Parse(payload []byte, signatureHeader string) (domain.Notification, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, v.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return domain.Notification{}, fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}
	notification := domain.Notification{EventID: event.ID, Kind: domain.NotificationIgnored}
	switch event.Type {
	case stripego.EventTypePaymentIntentSucceeded:
		notification.Kind = domain.NotificationSucceeded
	case stripego.EventTypePaymentIntentPaymentFailed:
		notification.Kind = domain.NotificationFailed
	default:
		return notification, nil
	}
	var intent stripego.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return domain.Notification{}, fmt.Errorf("decode payment intent: %w", err)
	}
	notification.PaymentID = intent.ID
	return notification, nil
}
