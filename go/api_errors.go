package orderserver

import (
	"errors"

	"github.com/gin-gonic/gin"

	orderhttpmapper "github.com/Apurer/go-gin-order-service/internal/domains/orders/adapters/http/mapper"
	ordersapp "github.com/Apurer/go-gin-order-service/internal/domains/orders/application"
	"github.com/Apurer/go-gin-order-service/internal/domains/orders/domain"
	orderports "github.com/Apurer/go-gin-order-service/internal/domains/orders/ports"
	paymentdomain "github.com/Apurer/go-gin-order-service/internal/domains/payments/domain"
	apierrors "github.com/Apurer/go-gin-order-service/internal/shared/errors"
)

var orderResponder = apierrors.NewChainedResponder("", mapOrderError)

// respondProblem maps a ProblemDetail through the shared responder.
func respondProblem(c *gin.Context, problem apierrors.ProblemDetail) {
	orderResponder.Respond(c, problem)
}

func respondOrderServiceError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	orderResponder.RespondError(c, err)
}

func mapOrderError(err error) (apierrors.ProblemDetail, bool) {
	switch {
	case errors.Is(err, orderports.ErrNotFound):
		return apierrors.ErrNotFound.WithDetail(err.Error()), true
	case errors.Is(err, orderports.ErrIdempotencyInProgress):
		return apierrors.ErrConflict.WithDetail("a request with this Idempotency-Key is still being processed"), true
	case errors.Is(err, orderports.ErrIdempotencyConflict):
		return apierrors.ErrConflict.WithDetail("Idempotency-Key was already used with a different request"), true
	case errors.Is(err, ordersapp.ErrValidation),
		errors.Is(err, orderhttpmapper.ErrUnitPriceRequired),
		errors.Is(err, orderhttpmapper.ErrInvalidEmail),
		errors.Is(err, orderhttpmapper.ErrInvalidTimeBound):
		return apierrors.ErrValidation.WithDetail(err.Error()), true
	case errors.Is(err, ordersapp.ErrInvalidStatus),
		errors.Is(err, domain.ErrInvalidOrderStatus),
		errors.Is(err, domain.ErrInvalidPaymentStatus):
		return apierrors.ErrBadRequest.WithDetail(err.Error()), true
	case errors.Is(err, ordersapp.ErrInvalidTransition),
		errors.Is(err, ordersapp.ErrAlreadyPaid):
		return apierrors.ErrInvalidState.WithDetail(err.Error()), true
	case errors.Is(err, paymentdomain.ErrPaymentProcessingFailed),
		errors.Is(err, paymentdomain.ErrRefundProcessingFailed):
		return apierrors.ErrPaymentGateway.WithDetail(err.Error()), true
	}
	return apierrors.ProblemDetail{}, false
}
