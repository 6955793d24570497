//go:build pact
// +build pact

package pacttest

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

const (
	ProviderName = "order-api"
	ConsumerName = "checkout-web"

	StateOrdersBaseline = "orders baseline"
	StateOrderExists    = "order with id 1 exists"
	StateOrderMissing   = "no order with id 999"
)

const (
	ExistingOrderID int64 = 1
	MissingOrderID  int64 = 999
	ExampleUserID   int64 = 42
)

// PactDir returns the workspace-level directory for generated pact files.
func PactDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "pacts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact dir: %v", err)
	}
	return dir
}

// PactFile returns the canonical pact file path for the checkout consumer.
func PactFile(t testing.TB) string {
	t.Helper()
	return filepath.Join(PactDir(t), ConsumerName+"-"+ProviderName+".json")
}

// LogDir returns the log output directory for pact-go.
func LogDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "bin", "pact-logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact log dir: %v", err)
	}
	return dir
}

// ExampleCreateOrderPayload is the two-line cart both sides of the contract use. Its total is 40.00.
func ExampleCreateOrderPayload() map[string]any {
	return map[string]any{
		"userId":          ExampleUserID,
		"userEmail":       "pact.buyer@example.com",
		"userName":        "Pact Buyer",
		"shippingAddress": "1 Contract Way",
		"items": []map[string]any{
			{"productId": 10, "productName": "Pact Tee", "unitPrice": 10.00, "quantity": 2},
			{"productId": 11, "productName": "Pact Cap", "unitPrice": 20.00, "quantity": 1},
		},
	}
}

// projectRoot walks up from this file to the workspace root.
func projectRoot(t testing.TB) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine caller for pact paths")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}
