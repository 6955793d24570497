package orderserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ordermemory "github.com/Apurer/go-gin-order-service/internal/domains/orders/adapters/memory"
	ordersapp "github.com/Apurer/go-gin-order-service/internal/domains/orders/application"
	"github.com/Apurer/go-gin-order-service/internal/domains/payments/adapters/stub"
	paymentdomain "github.com/Apurer/go-gin-order-service/internal/domains/payments/domain"
	paymentports "github.com/Apurer/go-gin-order-service/internal/domains/payments/ports"
)

const cartJSON = `{
	"userId": 1,
	"userEmail": "a@b.c",
	"userName": "Ada",
	"shippingAddress": "1 Main St",
	"items": [
		{"productId": 10, "productName": "Tee", "unitPrice": 10.00, "quantity": 2},
		{"productId": 11, "productName": "Cap", "unitPrice": 20, "quantity": 1}
	]
}`

type brokenGateway struct{}

func (brokenGateway) Charge(context.Context, paymentdomain.ChargeRequest) (string, error) {
	return "", paymentdomain.NewPaymentError(errors.New("card declined"))
}

func (brokenGateway) Refund(context.Context, string) (string, error) {
	return "", paymentdomain.NewRefundError(errors.New("processor offline"))
}

func (brokenGateway) VerifyStatus(context.Context, string) (paymentdomain.Status, error) {
	return paymentdomain.StatusFailed, nil
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T, gateway paymentports.Gateway) *gin.Engine {
	t.Helper()
	if gateway == nil {
		gateway = stub.NewGateway("sk_test")
	}
	service := ordersapp.NewService(
		ordermemory.NewRepository(),
		gateway,
		ordersapp.WithIdempotencyStore(ordermemory.NewIdempotencyStore()),
	)
	return NewRouter(ApiHandleFunctions{OrderAPI: NewOrderAPI(service, nil)})
}

func doJSON(t *testing.T, router http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeObject(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func createOrder(t *testing.T, router http.Handler) map[string]any {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/orders", cartJSON)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeObject(t, rec)
}

func requireProblem(t *testing.T, rec *httptest.ResponseRecorder, status int, problemType string) map[string]any {
	t.Helper()
	require.Equal(t, status, rec.Code, rec.Body.String())
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	body := decodeObject(t, rec)
	assert.Equal(t, problemType, body["type"])
	assert.NotEmpty(t, body["error"])
	assert.NotZero(t, body["timestamp"])
	return body
}

func TestCreateOrder_ReturnsPricedPendingOrder(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := doJSON(t, router, http.MethodPost, "/orders", cartJSON)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"totalAmount":40.00`)
	body := decodeObject(t, rec)
	assert.Equal(t, float64(1), body["id"])
	assert.Equal(t, "PENDING", body["orderStatus"])
	assert.Equal(t, "PENDING", body["paymentStatus"])
	items := body["items"].([]any)
	require.Len(t, items, 2)
	assert.Equal(t, 20.0, items[0].(map[string]any)["subtotal"])
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestCreateOrder_Validation(t *testing.T) {
	router := newTestRouter(t, nil)

	cases := map[string]string{
		"malformed json":  `{"userId":`,
		"no items":        `{"userId":1,"userEmail":"a@b.c","shippingAddress":"x","items":[]}`,
		"missing email":   `{"userId":1,"shippingAddress":"x","items":[{"productId":1,"productName":"a","unitPrice":1,"quantity":1}]}`,
		"bad email":       `{"userId":1,"userEmail":"nope","shippingAddress":"x","items":[{"productId":1,"productName":"a","unitPrice":1,"quantity":1}]}`,
		"missing price":   `{"userId":1,"userEmail":"a@b.c","shippingAddress":"x","items":[{"productId":1,"productName":"a","quantity":1}]}`,
		"zero quantity":   `{"userId":1,"userEmail":"a@b.c","shippingAddress":"x","items":[{"productId":1,"productName":"a","unitPrice":1,"quantity":0}]}`,
		"missing address": `{"userId":1,"userEmail":"a@b.c","items":[{"productId":1,"productName":"a","unitPrice":1,"quantity":1}]}`,
		"sub-cent price":  `{"userId":1,"userEmail":"a@b.c","shippingAddress":"x","items":[{"productId":1,"productName":"a","unitPrice":0.005,"quantity":1}]}`,
		"price too large": `{"userId":1,"userEmail":"a@b.c","shippingAddress":"x","items":[{"productId":1,"productName":"a","unitPrice":100000000,"quantity":1}]}`,
		"total too large": `{"userId":1,"userEmail":"a@b.c","shippingAddress":"x","items":[{"productId":1,"productName":"a","unitPrice":99999999.99,"quantity":2}]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := doJSON(t, router, http.MethodPost, "/orders", body)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestCreateOrder_IdempotencyKey(t *testing.T) {
	router := newTestRouter(t, nil)

	first := doJSON(t, router, http.MethodPost, "/orders", cartJSON, IdempotencyKeyHeader, "checkout-1")
	require.Equal(t, http.StatusCreated, first.Code)
	replay := doJSON(t, router, http.MethodPost, "/orders", cartJSON, IdempotencyKeyHeader, "checkout-1")
	require.Equal(t, http.StatusCreated, replay.Code)
	assert.Equal(t, decodeObject(t, first)["id"], decodeObject(t, replay)["id"])

	other := `{"userId":2,"userEmail":"z@b.c","shippingAddress":"x","items":[{"productId":1,"productName":"a","unitPrice":1,"quantity":1}]}`
	conflict := doJSON(t, router, http.MethodPost, "/orders", other, IdempotencyKeyHeader, "checkout-1")
	requireProblem(t, conflict, http.StatusConflict, "/problems/conflict")
}

func TestGetOrder(t *testing.T) {
	router := newTestRouter(t, nil)
	createOrder(t, router)

	rec := doJSON(t, router, http.MethodGet, "/orders/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a@b.c", decodeObject(t, rec)["userEmail"])

	missing := doJSON(t, router, http.MethodGet, "/orders/99", "")
	requireProblem(t, missing, http.StatusNotFound, "/problems/not-found")

	bad := doJSON(t, router, http.MethodGet, "/orders/abc", "")
	requireProblem(t, bad, http.StatusBadRequest, "/problems/bad-request")
}

func TestListings(t *testing.T) {
	router := newTestRouter(t, nil)
	createOrder(t, router)
	createOrder(t, router)

	all := doJSON(t, router, http.MethodGet, "/orders", "")
	require.Equal(t, http.StatusOK, all.Code)
	var orders []map[string]any
	require.NoError(t, json.Unmarshal(all.Body.Bytes(), &orders))
	require.Len(t, orders, 2)
	assert.Equal(t, float64(1), orders[0]["id"])

	byUser := doJSON(t, router, http.MethodGet, "/orders/user/1", "")
	require.NoError(t, json.Unmarshal(byUser.Body.Bytes(), &orders))
	require.Len(t, orders, 2)

	empty := doJSON(t, router, http.MethodGet, "/orders/user/42", "")
	require.Equal(t, http.StatusOK, empty.Code)
	assert.JSONEq(t, `[]`, empty.Body.String())

	pending := doJSON(t, router, http.MethodGet, "/orders/pending", "")
	require.NoError(t, json.Unmarshal(pending.Body.Bytes(), &orders))
	require.Len(t, orders, 2)

	filtered := doJSON(t, router, http.MethodGet, "/orders?status=shipped", "")
	require.Equal(t, http.StatusOK, filtered.Code)
	assert.JSONEq(t, `[]`, filtered.Body.String())

	badFilter := doJSON(t, router, http.MethodGet, "/orders?status=FOO", "")
	requireProblem(t, badFilter, http.StatusBadRequest, "/problems/bad-request")

	badWindow := doJSON(t, router, http.MethodGet, "/orders?from=yesterday", "")
	requireProblem(t, badWindow, http.StatusBadRequest, "/problems/validation-error")
}

func TestUpdateStatuses(t *testing.T) {
	router := newTestRouter(t, nil)
	createOrder(t, router)

	rec := doJSON(t, router, http.MethodPut, "/orders/1/status", `{"status":"shipped"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "SHIPPED", decodeObject(t, rec)["orderStatus"])

	unknown := doJSON(t, router, http.MethodPut, "/orders/1/status", `{"status":"FOO"}`)
	requireProblem(t, unknown, http.StatusBadRequest, "/problems/bad-request")

	missing := doJSON(t, router, http.MethodPut, "/orders/7/status", `{"status":"SHIPPED"}`)
	requireProblem(t, missing, http.StatusNotFound, "/problems/not-found")

	paid := doJSON(t, router, http.MethodPut, "/orders/1/payment-status", `{"status":"PAID"}`)
	require.Equal(t, http.StatusOK, paid.Code)
	body := decodeObject(t, paid)
	assert.Equal(t, "PAID", body["paymentStatus"])
	assert.Equal(t, "PROCESSING", body["orderStatus"])
}

func TestProcessPayment(t *testing.T) {
	router := newTestRouter(t, nil)
	createOrder(t, router)

	noMethod := doJSON(t, router, http.MethodPost, "/orders/1/payment", `{}`)
	requireProblem(t, noMethod, http.StatusBadRequest, "/problems/validation-error")

	rec := doJSON(t, router, http.MethodPost, "/orders/1/payment", `{"paymentMethod":"CREDIT_CARD","paymentToken":"tok_visa"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeObject(t, rec)
	assert.Equal(t, "PAID", body["paymentStatus"])
	assert.Equal(t, "PROCESSING", body["orderStatus"])
	assert.Regexp(t, `^pi_[0-9a-f]{32}$`, body["paymentReference"])

	again := doJSON(t, router, http.MethodPost, "/orders/1/payment", `{"paymentMethod":"CREDIT_CARD"}`)
	requireProblem(t, again, http.StatusBadRequest, "/problems/invalid-state")
}

func TestOrderActions_UnknownIDIsNotFound(t *testing.T) {
	router := newTestRouter(t, nil)

	pay := doJSON(t, router, http.MethodPost, "/orders/42/payment", `{"paymentMethod":"CREDIT_CARD"}`)
	requireProblem(t, pay, http.StatusNotFound, "/problems/not-found")

	cancel := doJSON(t, router, http.MethodPost, "/orders/42/cancel", "")
	requireProblem(t, cancel, http.StatusNotFound, "/problems/not-found")
}

func TestProcessPayment_GatewayFailure(t *testing.T) {
	router := newTestRouter(t, brokenGateway{})
	createOrder(t, router)

	rec := doJSON(t, router, http.MethodPost, "/orders/1/payment", `{"paymentMethod":"CREDIT_CARD"}`)
	requireProblem(t, rec, http.StatusInternalServerError, "/problems/payment-gateway-error")

	order := decodeObject(t, doJSON(t, router, http.MethodGet, "/orders/1", ""))
	assert.Equal(t, "PENDING", order["paymentStatus"])
}

func TestCancelOrder(t *testing.T) {
	t.Run("refunds a paid order", func(t *testing.T) {
		router := newTestRouter(t, nil)
		createOrder(t, router)
		require.Equal(t, http.StatusOK, doJSON(t, router, http.MethodPost, "/orders/1/payment", `{"paymentMethod":"CREDIT_CARD"}`).Code)

		rec := doJSON(t, router, http.MethodPost, "/orders/1/cancel", "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		body := decodeObject(t, rec)
		assert.Equal(t, "CANCELLED", body["orderStatus"])
		assert.Equal(t, "REFUNDED", body["paymentStatus"])
		assert.Regexp(t, `^re_[0-9a-f]{32}$`, body["refundReference"])

		twice := doJSON(t, router, http.MethodPost, "/orders/1/cancel", "")
		requireProblem(t, twice, http.StatusBadRequest, "/problems/invalid-state")
	})

	t.Run("delivered orders stay delivered", func(t *testing.T) {
		router := newTestRouter(t, nil)
		createOrder(t, router)
		require.Equal(t, http.StatusOK, doJSON(t, router, http.MethodPut, "/orders/1/status", `{"status":"DELIVERED"}`).Code)

		rec := doJSON(t, router, http.MethodPost, "/orders/1/cancel", "")
		requireProblem(t, rec, http.StatusBadRequest, "/problems/invalid-state")
	})

	t.Run("refund failure leaves order untouched", func(t *testing.T) {
		router := newTestRouter(t, brokenGateway{})
		createOrder(t, router)
		require.Equal(t, http.StatusOK, doJSON(t, router, http.MethodPut, "/orders/1/payment-status", `{"status":"PAID"}`).Code)

		rec := doJSON(t, router, http.MethodPost, "/orders/1/cancel", "")
		requireProblem(t, rec, http.StatusInternalServerError, "/problems/payment-gateway-error")

		order := decodeObject(t, doJSON(t, router, http.MethodGet, "/orders/1", ""))
		assert.Equal(t, "PROCESSING", order["orderStatus"])
		assert.Equal(t, "PAID", order["paymentStatus"])
	})
}

func TestGetUserStatistics(t *testing.T) {
	router := newTestRouter(t, nil)
	createOrder(t, router)
	createOrder(t, router)
	require.Equal(t, http.StatusOK, doJSON(t, router, http.MethodPost, "/orders/1/payment", `{"paymentMethod":"CREDIT_CARD"}`).Code)

	rec := doJSON(t, router, http.MethodGet, "/orders/user/1/statistics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"userId":1,"totalOrders":2,"totalSpent":40.00,"recentOrderCount":2}`, rec.Body.String())

	none := doJSON(t, router, http.MethodGet, "/orders/user/5/statistics", "")
	assert.JSONEq(t, `{"userId":5,"totalOrders":0,"totalSpent":0.00,"recentOrderCount":0}`, none.Body.String())
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := doJSON(t, router, http.MethodGet, "/healthz", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
