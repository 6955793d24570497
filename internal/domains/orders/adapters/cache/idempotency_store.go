// Package cache keeps short-lived order state in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Apurer/go-gin-order-service/internal/domains/orders/ports"
)

// DefaultIdempotencyTTL bounds how long a key can be replayed.
const DefaultIdempotencyTTL = 24 * time.Hour

const keyPrefix = "orders:idemp:"

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

// IdempotencyStore keeps idempotency keys in Redis with a TTL, so no purge job is needed.
type IdempotencyStore struct {
	rdb redis.Cmdable
	ttl time.Duration
	now func() time.Time
}

// NewIdempotencyStore wires a Redis-backed store. A non-positive ttl falls back to
// DefaultIdempotencyTTL.
func NewIdempotencyStore(rdb redis.Cmdable, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	return &IdempotencyStore{rdb: rdb, ttl: ttl, now: time.Now}
}

type storedRecord struct {
	RequestHash string    `json:"requestHash"`
	OrderID     int64     `json:"orderId"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (s *IdempotencyStore) Get(ctx context.Context, key string) (*ports.IdempotencyRecord, error) {
	if s == nil || s.rdb == nil {
		return nil, errors.New("redis idempotency store not configured")
	}
	raw, err := s.rdb.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var stored storedRecord
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, err
	}
	return &ports.IdempotencyRecord{
		Key:         key,
		RequestHash: stored.RequestHash,
		OrderID:     stored.OrderID,
		CreatedAt:   stored.CreatedAt,
		UpdatedAt:   stored.CreatedAt,
	}, nil
}

// Save claims the key with SETNX. A lost claim returns the stored value with
// ErrIdempotencyConflict.
func (s *IdempotencyStore) Save(ctx context.Context, record ports.IdempotencyRecord) (*ports.IdempotencyRecord, error) {
	if s == nil || s.rdb == nil {
		return nil, errors.New("redis idempotency store not configured")
	}
	created := record.CreatedAt
	if created.IsZero() {
		created = s.now().UTC()
	}
	payload, err := json.Marshal(storedRecord{RequestHash: record.RequestHash, OrderID: record.OrderID, CreatedAt: created})
	if err != nil {
		return nil, err
	}
	ok, err := s.rdb.SetNX(ctx, keyPrefix+record.Key, payload, s.ttl).Result()
	if err != nil {
		return nil, err
	}
	if ok {
		record.CreatedAt = created
		record.UpdatedAt = created
		return &record, nil
	}
	existing, err := s.Get(ctx, record.Key)
	if err != nil {
		return nil, err
	}
	// existing is nil when the key expired between SETNX and GET
	return existing, ports.ErrIdempotencyConflict
}

// Complete rewrites the pending claim with orderID, keeping the remaining TTL.
func (s *IdempotencyStore) Complete(ctx context.Context, key string, orderID int64) error {
	existing, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if existing == nil || !existing.Pending() {
		return ports.ErrIdempotencyNotClaimed
	}
	payload, err := json.Marshal(storedRecord{RequestHash: existing.RequestHash, OrderID: orderID, CreatedAt: existing.CreatedAt})
	if err != nil {
		return err
	}
	err = s.rdb.SetArgs(ctx, keyPrefix+key, payload, redis.SetArgs{Mode: "XX", KeepTTL: true}).Err()
	if errors.Is(err, redis.Nil) {
		return ports.ErrIdempotencyNotClaimed
	}
	return err
}

// Release deletes a pending claim so the client can retry with the same key.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	existing, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if existing == nil || !existing.Pending() {
		return ports.ErrIdempotencyNotClaimed
	}
	return s.rdb.Del(ctx, keyPrefix+key).Err()
}
