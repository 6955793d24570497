//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Apurer/go-gin-order-service/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-order-service/internal/domains/orders/ports"
	"github.com/Apurer/go-gin-order-service/internal/platform/migrations"
)

func setupOrdersPostgresContainer(t *testing.T) (*gorm.DB, func()) {
	ctx := context.Background()

	pgContainer, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcpostgres.WithDatabase("orders_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	err = migrations.Run(db)
	require.NoError(t, err)

	cleanup := func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		pgContainer.Terminate(ctx)
	}

	return db, cleanup
}

func newTestOrder(t *testing.T, userID int64, createdAt time.Time) *domain.Order {
	t.Helper()
	tee, err := domain.NewOrderItem(10, "Tee", decimal.RequireFromString("10.00"), 2, domain.ProductDetails{SKU: "TEE-1", Color: "red"})
	require.NoError(t, err)
	hat, err := domain.NewOrderItem(11, "Cap", decimal.RequireFromString("20.00"), 1, domain.ProductDetails{})
	require.NoError(t, err)
	order, err := domain.NewOrder(domain.Customer{UserID: userID, Email: "a@b.c", Name: "Ada"}, "1 Main St", "", []domain.OrderItem{tee, hat})
	require.NoError(t, err)
	order.MarkCreated(createdAt)
	order.PullEvents()
	return order
}

func TestRepository_SaveAndGetByID(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupOrdersPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	saved, err := repo.Save(ctx, newTestOrder(t, 1, time.Now().UTC()))
	require.NoError(t, err)
	require.NotZero(t, saved.ID)
	require.Len(t, saved.Items, 2)
	assert.NotZero(t, saved.Items[0].ID)
	assert.Equal(t, "Tee", saved.Items[0].ProductName)
	assert.Equal(t, "TEE-1", saved.Items[0].Details.SKU)
	assert.True(t, decimal.RequireFromString("20.00").Equal(saved.Items[0].Subtotal))
	assert.True(t, decimal.RequireFromString("40.00").Equal(saved.TotalAmount))

	fetched, err := repo.GetByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, fetched.ID)
	assert.Equal(t, domain.OrderStatusPending, fetched.Status)

	_, err = repo.GetByID(ctx, saved.ID+100)
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestRepository_UpdateKeepsItems(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupOrdersPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	saved, err := repo.Save(ctx, newTestOrder(t, 1, time.Now().UTC()))
	require.NoError(t, err)

	now := time.Now().UTC()
	require.NoError(t, saved.ApplyPayment("card", "pi_abc", now))
	saved.MarkUpdated(now)
	updated, err := repo.Save(ctx, saved)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPaid, updated.PaymentStatus)
	assert.Equal(t, domain.OrderStatusProcessing, updated.Status)
	assert.Len(t, updated.Items, 2)

	byRef, err := repo.FindByPaymentReference(ctx, "pi_abc")
	require.NoError(t, err)
	assert.Equal(t, saved.ID, byRef.ID)

	missing := saved.Clone()
	missing.ID = saved.ID + 100
	_, err = repo.Save(ctx, missing)
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestRepository_Listings(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupOrdersPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	first, err := repo.Save(ctx, newTestOrder(t, 1, base))
	require.NoError(t, err)
	second, err := repo.Save(ctx, newTestOrder(t, 1, base.Add(time.Hour)))
	require.NoError(t, err)
	third, err := repo.Save(ctx, newTestOrder(t, 2, base.Add(2*time.Hour)))
	require.NoError(t, err)

	require.NoError(t, second.TransitionStatus(domain.OrderStatusShipped, base.Add(3*time.Hour)))
	_, err = repo.Save(ctx, second)
	require.NoError(t, err)

	mine, err := repo.ListByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, second.ID, mine[0].ID)

	pending, err := repo.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, first.ID, pending[0].ID)
	assert.Equal(t, third.ID, pending[1].ID)

	shipped, err := repo.List(ctx, ports.Filter{Status: domain.OrderStatusShipped})
	require.NoError(t, err)
	require.Len(t, shipped, 1)

	window, err := repo.List(ctx, ports.Filter{CreatedFrom: base.Add(30 * time.Minute), CreatedTo: base.Add(90 * time.Minute)})
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.Equal(t, second.ID, window[0].ID)
}

func TestIdempotencyStore_SaveAndConflict(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupOrdersPostgresContainer(t)
	defer cleanup()

	store := NewIdempotencyStore(db)
	ctx := context.Background()
	now := time.Now().UTC()

	record := ports.IdempotencyRecord{Key: "k1", RequestHash: "h1", CreatedAt: now, UpdatedAt: now}
	saved, err := store.Save(ctx, record)
	require.NoError(t, err)
	assert.True(t, saved.Pending())

	again, err := store.Save(ctx, record)
	assert.ErrorIs(t, err, ports.ErrIdempotencyConflict)
	require.NotNil(t, again)
	assert.Equal(t, "h1", again.RequestHash)

	require.NoError(t, store.Complete(ctx, "k1", 7))
	assert.ErrorIs(t, store.Complete(ctx, "k1", 8), ports.ErrIdempotencyNotClaimed)
	assert.ErrorIs(t, store.Release(ctx, "k1"), ports.ErrIdempotencyNotClaimed)

	completed, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, int64(7), completed.OrderID)

	_, err = store.Save(ctx, ports.IdempotencyRecord{Key: "k2", RequestHash: "h2", CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)
	require.NoError(t, store.Release(ctx, "k2"))
	released, err := store.Get(ctx, "k2")
	require.NoError(t, err)
	assert.Nil(t, released)

	purged, err := store.PurgeOlderThan(ctx, now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	missing, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
