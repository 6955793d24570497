package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/go-gin-order-service/internal/domains/orders/domain"
	paymentdomain "github.com/Apurer/go-gin-order-service/internal/domains/payments/domain"
)

var (
	// ErrValidation signals missing or malformed input.
	ErrValidation = errors.New("invalid order input")
	// ErrInvalidStatus signals an unrecognised order or payment status token.
	ErrInvalidStatus = errors.New("invalid status")
	// ErrInvalidTransition signals a lifecycle move the current state forbids.
	ErrInvalidTransition = errors.New("invalid order transition")
	// ErrAlreadyPaid signals a second charge against a settled order.
	ErrAlreadyPaid = errors.New("order already paid")
	// ErrNotificationIgnored signals a processor callback that no longer applies to the order.
	ErrNotificationIgnored = errors.New("payment notification ignored")
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, domain.ErrUserIDRequired),
		errors.Is(err, domain.ErrUserEmailRequired),
		errors.Is(err, domain.ErrItemsRequired),
		errors.Is(err, domain.ErrShippingAddressRequired),
		errors.Is(err, domain.ErrProductIDRequired),
		errors.Is(err, domain.ErrProductNameRequired),
		errors.Is(err, domain.ErrNegativeUnitPrice),
		errors.Is(err, domain.ErrUnitPriceScale),
		errors.Is(err, domain.ErrAmountTooLarge),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrPaymentMethodRequired),
		errors.Is(err, paymentdomain.ErrInvalidAmount),
		errors.Is(err, paymentdomain.ErrInvalidPaymentReference):
		return fmt.Errorf("%w: %w", ErrValidation, err)
	case errors.Is(err, domain.ErrInvalidOrderStatus),
		errors.Is(err, domain.ErrInvalidPaymentStatus):
		return fmt.Errorf("%w: %w", ErrInvalidStatus, err)
	case errors.Is(err, domain.ErrDeliveredOrder),
		errors.Is(err, domain.ErrAlreadyCancelled):
		return fmt.Errorf("%w: %w", ErrInvalidTransition, err)
	case errors.Is(err, domain.ErrAlreadyPaid):
		return fmt.Errorf("%w: %w", ErrAlreadyPaid, err)
	}
	return err
}
