package ports

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrIdempotencyConflict indicates the same key was used with a different payload or target.
	ErrIdempotencyConflict = errors.New("idempotency conflict")
	// ErrIdempotencyInProgress indicates the request that claimed the key has not stored its order yet.
	ErrIdempotencyInProgress = fmt.Errorf("%w: request still in progress", ErrIdempotencyConflict)
	// ErrIdempotencyNotClaimed indicates Complete or Release found no pending claim for the key.
	ErrIdempotencyNotClaimed = errors.New("idempotency key not claimed")
)

// IdempotencyRecord ties a client-supplied key to the order it created. A zero OrderID
// marks a pending claim whose order is still being saved.
type IdempotencyRecord struct {
	Key         string
	RequestHash string
	OrderID     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Pending reports whether the claim has no order attached yet.
func (r IdempotencyRecord) Pending() bool {
	return r.OrderID == 0
}

// IdempotencyStore persists idempotency keys so order creation can be retried safely.
// A key is claimed before the order is saved and completed afterwards, so concurrent
// requests sharing a key never both create an order.
type IdempotencyStore interface {
	// Get returns the stored record for the key, or nil when unknown.
	Get(ctx context.Context, key string) (*IdempotencyRecord, error)
	// Save claims the key. When the key is already taken the stored record is returned
	// together with ErrIdempotencyConflict.
	Save(ctx context.Context, record IdempotencyRecord) (*IdempotencyRecord, error)
	// Complete attaches the created order to a pending claim.
	Complete(ctx context.Context, key string, orderID int64) error
	// Release drops a pending claim whose order could not be saved.
	Release(ctx context.Context, key string) error
}
