package orderserver

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	ordersapp "github.com/Apurer/go-gin-order-service/internal/domains/orders/application"
	ordertypes "github.com/Apurer/go-gin-order-service/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-order-service/internal/domains/orders/domain"
	orderports "github.com/Apurer/go-gin-order-service/internal/domains/orders/ports"
	paymentdomain "github.com/Apurer/go-gin-order-service/internal/domains/payments/domain"
	apierrors "github.com/Apurer/go-gin-order-service/internal/shared/errors"
)

const (
	stripeSignatureHeader = "Stripe-Signature"
	maxWebhookBodyBytes   = 64 << 10
)

// NotificationParser authenticates and decodes a processor callback.
type NotificationParser interface {
	Parse(payload []byte, signatureHeader string) (paymentdomain.Notification, error)
}

// WebhookAPI receives asynchronous payment notifications.
type WebhookAPI struct {
	service orderports.Service
	parser  NotificationParser
}

// NewWebhookAPI creates a WebhookAPI.
func NewWebhookAPI(service orderports.Service, parser NotificationParser) *WebhookAPI {
	return &WebhookAPI{service: service, parser: parser}
}

// Post /webhooks/stripe
// Reconcile a PaymentIntent outcome with the order holding its reference
func (api *WebhookAPI) HandleStripe(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		respondProblem(c, apierrors.ErrBadRequest.WithDetail(err.Error()))
		return
	}
	notification, err := api.parser.Parse(payload, c.GetHeader(stripeSignatureHeader))
	if err != nil {
		respondProblem(c, apierrors.ErrBadRequest.WithDetail(err.Error()))
		return
	}
	var status domain.PaymentStatus
	switch notification.Kind {
	case paymentdomain.NotificationSucceeded:
		status = domain.PaymentStatusPaid
	case paymentdomain.NotificationFailed:
		status = domain.PaymentStatusFailed
	default:
		c.JSON(http.StatusOK, gin.H{"received": true, "ignored": true})
		return
	}
	_, err = api.service.ApplyPaymentNotification(c.Request.Context(), ordertypes.PaymentNotificationInput{
		PaymentReference: notification.PaymentID,
		PaymentStatus:    string(status),
	})
	// intents created outside this service have no order, and late callbacks must not
	// reopen a closed one; acknowledge both so they are not redelivered
	ignored := errors.Is(err, orderports.ErrNotFound) || errors.Is(err, ordersapp.ErrNotificationIgnored)
	if err != nil && !ignored {
		respondOrderServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true, "ignored": ignored})
}
