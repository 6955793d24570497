package stub

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-gin-order-service/internal/domains/payments/domain"
)

func TestCharge_GeneratesUniqueIdentifiers(t *testing.T) {
	gw := NewGateway("sk_test")
	req := domain.ChargeRequest{Amount: decimal.RequireFromString("40.00"), Method: "card", CustomerEmail: "a@b.com"}

	first, err := gw.Charge(context.Background(), req)
	require.NoError(t, err)
	second, err := gw.Charge(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(first, "pi_"))
	assert.NotContains(t, first, "-")
	assert.NotEqual(t, first, second)
}

func TestCharge_RejectsNonPositiveAmount(t *testing.T) {
	gw := NewGateway("")
	for _, amount := range []string{"0", "-1.00"} {
		_, err := gw.Charge(context.Background(), domain.ChargeRequest{Amount: decimal.RequireFromString(amount)})
		require.ErrorIs(t, err, domain.ErrInvalidAmount)
	}
}

func TestCharge_WrapsInternalFailure(t *testing.T) {
	boom := errors.New("entropy exhausted")
	gw := NewGateway("", WithIDSource(func() (uuid.UUID, error) { return uuid.Nil, boom }))

	_, err := gw.Charge(context.Background(), domain.ChargeRequest{Amount: decimal.NewFromInt(1)})
	require.ErrorIs(t, err, domain.ErrPaymentProcessingFailed)
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "entropy exhausted")
}

func TestRefund(t *testing.T) {
	gw := NewGateway("")

	_, err := gw.Refund(context.Background(), "")
	require.ErrorIs(t, err, domain.ErrInvalidPaymentReference)

	refundID, err := gw.Refund(context.Background(), "pi_123")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(refundID, "re_"))

	failing := NewGateway("", WithIDSource(func() (uuid.UUID, error) { return uuid.Nil, errors.New("nope") }))
	_, err = failing.Refund(context.Background(), "pi_123")
	require.ErrorIs(t, err, domain.ErrRefundProcessingFailed)
}

func TestVerifyStatus(t *testing.T) {
	status, err := NewGateway("").VerifyStatus(context.Background(), "pi_123")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSucceeded, status)
}
