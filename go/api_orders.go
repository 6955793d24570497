package orderserver

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/oapi-codegen/runtime"

	orderhttpmapper "github.com/Apurer/go-gin-order-service/internal/domains/orders/adapters/http/mapper"
	ordertypes "github.com/Apurer/go-gin-order-service/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-order-service/internal/domains/orders/domain"
	orderports "github.com/Apurer/go-gin-order-service/internal/domains/orders/ports"
	apierrors "github.com/Apurer/go-gin-order-service/internal/shared/errors"
)

// IdempotencyKeyHeader lets clients retry order creation safely.
const IdempotencyKeyHeader = "Idempotency-Key"

// OrderAPI wires HTTP transport with the orders bounded context service and workflows.
type OrderAPI struct {
	service   orderports.Service
	workflows orderports.WorkflowOrchestrator
}

// NewOrderAPI creates an OrderAPI backed by the provided service. workflows may be nil,
// in which case orders are placed through the service directly.
func NewOrderAPI(service orderports.Service, workflows orderports.WorkflowOrchestrator) OrderAPI {
	return OrderAPI{service: service, workflows: workflows}
}

// Post /orders
// Place an order for a cart
func (api *OrderAPI) CreateOrder(c *gin.Context) {
	var payload orderhttpmapper.CreateOrderRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondProblem(c, apierrors.ErrBadRequest.WithDetail(err.Error()))
		return
	}
	input, err := orderhttpmapper.ToCreateOrderInput(payload, c.GetHeader(IdempotencyKeyHeader))
	if err != nil {
		respondOrderServiceError(c, err)
		return
	}
	order, err := api.placeOrder(c.Request.Context(), input)
	if err != nil {
		respondOrderServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, orderhttpmapper.FromDomain(order))
}

func (api *OrderAPI) placeOrder(ctx context.Context, input ordertypes.CreateOrderInput) (*domain.Order, error) {
	if api.workflows != nil {
		return api.workflows.PlaceOrder(ctx, input)
	}
	return api.service.CreateOrder(ctx, input)
}

// Get /orders/:id
// Find an order by id
func (api *OrderAPI) GetOrder(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	order, err := api.service.GetOrder(c.Request.Context(), id)
	if err != nil {
		respondOrderServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromDomain(order))
}

// Get /orders/user/:userId
// List a user's orders, newest first
func (api *OrderAPI) ListUserOrders(c *gin.Context) {
	userID, ok := parseIDParam(c, "userId")
	if !ok {
		return
	}
	orders, err := api.service.ListUserOrders(c.Request.Context(), userID)
	if err != nil {
		respondOrderServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromDomainList(orders))
}

// Get /orders
// List orders, optionally narrowed by status, payment status, email and creation window
func (api *OrderAPI) ListOrders(c *gin.Context) {
	filter, err := orderhttpmapper.ToFilter(
		c.Query("status"),
		c.Query("paymentStatus"),
		c.Query("email"),
		c.Query("from"),
		c.Query("to"),
	)
	if err != nil {
		respondOrderServiceError(c, err)
		return
	}
	orders, err := api.service.ListOrders(c.Request.Context(), filter)
	if err != nil {
		respondOrderServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromDomainList(orders))
}

// Get /orders/pending
// List orders awaiting fulfilment, oldest first
func (api *OrderAPI) ListPendingOrders(c *gin.Context) {
	orders, err := api.service.ListPendingOrders(c.Request.Context())
	if err != nil {
		respondOrderServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromDomainList(orders))
}

// Put /orders/:id/status
// Set the order status
func (api *OrderAPI) UpdateOrderStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var payload orderhttpmapper.StatusRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondProblem(c, apierrors.ErrBadRequest.WithDetail(err.Error()))
		return
	}
	order, err := api.service.UpdateOrderStatus(c.Request.Context(), id, payload.Status)
	if err != nil {
		respondOrderServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromDomain(order))
}

// Put /orders/:id/payment-status
// Set the payment status
func (api *OrderAPI) UpdatePaymentStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var payload orderhttpmapper.StatusRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondProblem(c, apierrors.ErrBadRequest.WithDetail(err.Error()))
		return
	}
	order, err := api.service.UpdatePaymentStatus(c.Request.Context(), id, payload.Status)
	if err != nil {
		respondOrderServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromDomain(order))
}

// Post /orders/:id/payment
// Charge the order total
func (api *OrderAPI) ProcessPayment(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var payload orderhttpmapper.PaymentRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondProblem(c, apierrors.ErrBadRequest.WithDetail(err.Error()))
		return
	}
	order, err := api.service.ProcessPayment(c.Request.Context(), orderhttpmapper.ToProcessPaymentInput(id, payload))
	if err != nil {
		respondOrderServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromDomain(order))
}

// Post /orders/:id/cancel
// Cancel an order, refunding a settled payment
func (api *OrderAPI) CancelOrder(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	order, err := api.service.CancelOrder(c.Request.Context(), id)
	if err != nil {
		respondOrderServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromDomain(order))
}

// Get /orders/user/:userId/statistics
// Summarise a user's order history
func (api *OrderAPI) GetUserStatistics(c *gin.Context) {
	userID, ok := parseIDParam(c, "userId")
	if !ok {
		return
	}
	stats, err := api.service.UserStatistics(c.Request.Context(), userID)
	if err != nil {
		respondOrderServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromStatistics(stats))
}

func parseIDParam(c *gin.Context, name string) (int64, bool) {
	var id int64
	err := runtime.BindStyledParameterWithOptions("simple", name, c.Param(name), &id, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	})
	if err != nil {
		respondProblem(c, apierrors.ErrBadRequest.WithDetail(err.Error()))
		return 0, false
	}
	return id, true
}
