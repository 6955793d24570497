package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-gin-order-service/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-order-service/internal/domains/orders/ports"
)

func sampleOrder(t *testing.T) *domain.Order {
	t.Helper()
	item, err := domain.NewOrderItem(1, "Tee", decimal.RequireFromString("5.50"), 2, domain.ProductDetails{})
	require.NoError(t, err)
	order, err := domain.NewOrder(domain.Customer{UserID: 1, Email: "a@b.c"}, "1 Main St", "", []domain.OrderItem{item})
	require.NoError(t, err)
	order.MarkCreated(time.Now())
	return order
}

func TestRepository_SaveAssignsIDsAndIsolatesCopies(t *testing.T) {
	repo := NewRepository()
	ctx := context.Background()

	saved, err := repo.Save(ctx, sampleOrder(t))
	require.NoError(t, err)
	require.Equal(t, int64(1), saved.ID)
	require.Equal(t, int64(1), saved.Items[0].ID)

	saved.Items[0].ProductName = "mutated"
	fetched, err := repo.GetByID(ctx, saved.ID)
	require.NoError(t, err)
	require.Equal(t, "Tee", fetched.Items[0].ProductName)

	second, err := repo.Save(ctx, sampleOrder(t))
	require.NoError(t, err)
	require.Equal(t, int64(2), second.ID)
}

func TestRepository_SaveUnknownIDFails(t *testing.T) {
	repo := NewRepository()
	order := sampleOrder(t)
	order.ID = 99
	_, err := repo.Save(context.Background(), order)
	require.ErrorIs(t, err, ports.ErrNotFound)
}

func TestIdempotencyStore_ClaimCompleteRelease(t *testing.T) {
	store := NewIdempotencyStore()
	ctx := context.Background()

	claimed, err := store.Save(ctx, ports.IdempotencyRecord{Key: "k", RequestHash: "h"})
	require.NoError(t, err)
	require.True(t, claimed.Pending())
	require.False(t, claimed.CreatedAt.IsZero())

	existing, err := store.Save(ctx, ports.IdempotencyRecord{Key: "k", RequestHash: "h"})
	require.ErrorIs(t, err, ports.ErrIdempotencyConflict)
	require.Equal(t, "h", existing.RequestHash)

	require.NoError(t, store.Complete(ctx, "k", 7))
	require.ErrorIs(t, store.Complete(ctx, "k", 8), ports.ErrIdempotencyNotClaimed)
	require.ErrorIs(t, store.Release(ctx, "k"), ports.ErrIdempotencyNotClaimed)

	record, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, int64(7), record.OrderID)

	_, err = store.Save(ctx, ports.IdempotencyRecord{Key: "other", RequestHash: "h"})
	require.NoError(t, err)
	require.NoError(t, store.Release(ctx, "other"))
	record, err = store.Get(ctx, "other")
	require.NoError(t, err)
	require.Nil(t, record)
}
