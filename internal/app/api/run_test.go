package api

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ordermemory "github.com/Apurer/go-gin-order-service/internal/domains/orders/adapters/memory"
	orderworkflows "github.com/Apurer/go-gin-order-service/internal/domains/orders/adapters/workflows"
	ordersapp "github.com/Apurer/go-gin-order-service/internal/domains/orders/application"
	"github.com/Apurer/go-gin-order-service/internal/domains/payments/adapters/stub"
)

func newTestHandler(t *testing.T, cfg Config) *gin.Engine {
	t.Helper()
	return newTestHandlerWithLog(t, cfg, &bytes.Buffer{})
}

func newTestHandlerWithLog(t *testing.T, cfg Config, logs *bytes.Buffer) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewJSONHandler(logs, nil))
	service := ordersapp.NewService(ordermemory.NewRepository(), stub.NewGateway("sk_test"))
	handler, err := NewHandler(cfg, logger, service, orderworkflows.NewInlineOrderWorkflows(service), prometheus.NewRegistry())
	require.NoError(t, err)
	return handler
}

func TestNewHandler_ServesOrdersAndMetrics(t *testing.T) {
	handler := newTestHandler(t, Config{})

	body := `{"userId":3,"userEmail":"c@d.e","shippingAddress":"x","items":[{"productId":1,"productName":"a","unitPrice":5,"quantity":2}]}`
	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `orders_http_requests_total{method="POST",route="/orders",status="201"} 1`)
	assert.Contains(t, rec.Body.String(), "go_goroutines")

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhooks/stripe", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNewHandler_RegistersStripeWebhookWhenSecretSet(t *testing.T) {
	var cfg Config
	cfg.Payments.StripeWebhookSecret = "whsec_test"
	handler := newTestHandler(t, cfg)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader(`{}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=bogus")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNewHandler_LogsRequests(t *testing.T) {
	var logs bytes.Buffer
	handler := newTestHandlerWithLog(t, Config{}, &logs)

	req := httptest.NewRequest(http.MethodGet, "/orders/404", nil)
	req.Header.Set("X-Request-Id", "req-log-1")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	line := logs.String()
	assert.Contains(t, line, `"msg":"http_request"`)
	assert.Contains(t, line, `"level":"WARN"`)
	assert.Contains(t, line, `"req_id":"req-log-1"`)
	assert.Contains(t, line, `"route":"/orders/:id"`)
	assert.Contains(t, line, `"status":404`)
}
