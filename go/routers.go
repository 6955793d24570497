package orderserver

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Route is the information for every URI.
type Route struct {
	// Name is the name of this Route.
	Name string
	// Method is the string for the HTTP method. ex) GET, POST etc..
	Method string
	// Pattern is the pattern of the URI.
	Pattern string
	// HandlerFunc is the handler function of this route.
	HandlerFunc gin.HandlerFunc
}

// ApiHandleFunctions groups the API handlers served by the router.
type ApiHandleFunctions struct {
	// Routes for the OrderAPI part of the API
	OrderAPI OrderAPI
	// WebhookAPI is optional; its routes are registered only when set.
	WebhookAPI *WebhookAPI
	// Metrics adds request instrumentation and the /metrics scrape endpoint when set.
	Metrics *HTTPMetrics
	// Logger enables per-request access logging when set.
	Logger *slog.Logger
}

// NewRouter returns a new router.
func NewRouter(handleFunctions ApiHandleFunctions) *gin.Engine {
	return NewRouterWithGinEngine(gin.New(), handleFunctions)
}

// NewRouterWithGinEngine adds the routes to an existing gin engine.
func NewRouterWithGinEngine(router *gin.Engine, handleFunctions ApiHandleFunctions) *gin.Engine {
	router.Use(gin.Recovery(), RequestID())
	if handleFunctions.Logger != nil {
		router.Use(RequestLogger(handleFunctions.Logger))
	}
	if handleFunctions.Metrics != nil {
		router.Use(handleFunctions.Metrics.Middleware())
		router.GET("/metrics", gin.WrapH(handleFunctions.Metrics.Handler()))
	}
	for _, route := range getRoutes(handleFunctions) {
		if route.HandlerFunc == nil {
			route.HandlerFunc = DefaultHandleFunc
		}
		switch route.Method {
		case http.MethodGet:
			router.GET(route.Pattern, route.HandlerFunc)
		case http.MethodPost:
			router.POST(route.Pattern, route.HandlerFunc)
		case http.MethodPut:
			router.PUT(route.Pattern, route.HandlerFunc)
		case http.MethodPatch:
			router.PATCH(route.Pattern, route.HandlerFunc)
		case http.MethodDelete:
			router.DELETE(route.Pattern, route.HandlerFunc)
		}
	}
	return router
}

// DefaultHandleFunc is the default handler for routes that are not implemented.
func DefaultHandleFunc(c *gin.Context) {
	c.String(http.StatusNotImplemented, "501 not implemented")
}

// Health reports liveness.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func getRoutes(handleFunctions ApiHandleFunctions) []Route {
	routes := []Route{
		{"Health", http.MethodGet, "/healthz", Health},
		{"CreateOrder", http.MethodPost, "/orders", handleFunctions.OrderAPI.CreateOrder},
		{"ListOrders", http.MethodGet, "/orders", handleFunctions.OrderAPI.ListOrders},
		{"ListPendingOrders", http.MethodGet, "/orders/pending", handleFunctions.OrderAPI.ListPendingOrders},
		{"GetOrder", http.MethodGet, "/orders/:id", handleFunctions.OrderAPI.GetOrder},
		{"ListUserOrders", http.MethodGet, "/orders/user/:userId", handleFunctions.OrderAPI.ListUserOrders},
		{"GetUserStatistics", http.MethodGet, "/orders/user/:userId/statistics", handleFunctions.OrderAPI.GetUserStatistics},
		{"UpdateOrderStatus", http.MethodPut, "/orders/:id/status", handleFunctions.OrderAPI.UpdateOrderStatus},
		{"UpdatePaymentStatus", http.MethodPut, "/orders/:id/payment-status", handleFunctions.OrderAPI.UpdatePaymentStatus},
		{"ProcessPayment", http.MethodPost, "/orders/:id/payment", handleFunctions.OrderAPI.ProcessPayment},
		{"CancelOrder", http.MethodPost, "/orders/:id/cancel", handleFunctions.OrderAPI.CancelOrder},
	}
	if handleFunctions.WebhookAPI != nil {
		routes = append(routes, Route{"StripeWebhook", http.MethodPost, "/webhooks/stripe", handleFunctions.WebhookAPI.HandleStripe})
	}
	return routes
}
