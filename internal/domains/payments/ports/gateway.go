package ports

import (
	"context"

	"github.com/Apurer/go-gin-order-service/internal/domains/payments/domain"
)

// Gateway is the boundary to the external payment processor.
type Gateway interface {
	// Charge settles the request and returns the processor payment id.
	Charge(ctx context.Context, req domain.ChargeRequest) (string, error)
	// Refund reverses a settled payment and returns the processor refund id.
	Refund(ctx context.Context, paymentID string) (string, error)
	// VerifyStatus reports the processor-side state of a payment.
	VerifyStatus(ctx context.Context, paymentID string) (domain.Status, error)
}
