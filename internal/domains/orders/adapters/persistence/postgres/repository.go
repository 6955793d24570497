package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/go-gin-order-service/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-order-service/internal/domains/orders/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists orders and their items in PostgreSQL using GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. The caller owns the DB lifecycle
// and runs migrations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Save inserts new orders with their items, or updates the order row and reconciles its
// items inside one transaction.
func (r *Repository) Save(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if order == nil {
		return nil, errors.New("order is nil")
	}
	record := toRecord(order)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if record.ID == 0 {
			return tx.Create(&record).Error
		}
		return updateOrder(tx, &record)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return r.GetByID(ctx, record.ID)
}

func updateOrder(tx *gorm.DB, record *orderRecord) error {
	var existing orderRecord
	if err := tx.Select("id").First(&existing, "id = ?", record.ID).Error; err != nil {
		return err
	}
	items := record.Items
	if err := tx.Model(&orderRecord{}).Where("id = ?", record.ID).Updates(map[string]any{
		"user_id":           record.UserID,
		"user_email":        record.UserEmail,
		"user_name":         record.UserName,
		"total_amount":      record.TotalAmount,
		"status":            record.Status,
		"payment_status":    record.PaymentStatus,
		"payment_method":    record.PaymentMethod,
		"payment_reference": record.PaymentReference,
		"refund_reference":  record.RefundReference,
		"shipping_address":  record.ShippingAddress,
		"billing_address":   record.BillingAddress,
		"updated_at":        record.UpdatedAt,
		"completed_at":      record.CompletedAt,
	}).Error; err != nil {
		return err
	}

	keep := make(pq.Int64Array, 0, len(items))
	for _, item := range items {
		if item.ID != 0 {
			keep = append(keep, item.ID)
		}
	}
	prune := tx.Where("order_id = ?", record.ID)
	if len(keep) > 0 {
		prune = prune.Where("NOT (id = ANY(?))", keep)
	}
	if err := prune.Delete(&orderItemRecord{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&items).Error
}

// GetByID fetches an order with its items.
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record orderRecord
	if err := r.withItems(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

// ListByUser returns the user's orders, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID int64) ([]*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	return r.find(r.withItems(ctx).Where("user_id = ?", userID).Order("created_at DESC").Order("id DESC"))
}

// List returns orders matching filter by ascending id.
func (r *Repository) List(ctx context.Context, filter ports.Filter) ([]*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	query := r.withItems(ctx)
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	if filter.PaymentStatus != "" {
		query = query.Where("payment_status = ?", string(filter.PaymentStatus))
	}
	if email := strings.TrimSpace(filter.UserEmail); email != "" {
		query = query.Where("user_email = ?", email)
	}
	if !filter.CreatedFrom.IsZero() {
		query = query.Where("created_at >= ?", filter.CreatedFrom)
	}
	if !filter.CreatedTo.IsZero() {
		query = query.Where("created_at <= ?", filter.CreatedTo)
	}
	return r.find(query.Order("id ASC"))
}

// ListPending returns PENDING and PROCESSING orders, oldest first.
func (r *Repository) ListPending(ctx context.Context) ([]*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	statuses := pq.StringArray{string(domain.OrderStatusPending), string(domain.OrderStatusProcessing)}
	return r.find(r.withItems(ctx).Where("status = ANY(?)", statuses).Order("created_at ASC").Order("id ASC"))
}

// FindByPaymentReference loads the order charged under the processor payment id.
func (r *Repository) FindByPaymentReference(ctx context.Context, reference string) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(reference) == "" {
		return nil, ports.ErrNotFound
	}
	var record orderRecord
	if err := r.withItems(ctx).First(&record, "payment_reference = ?", reference).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

func (r *Repository) withItems(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	})
}

func (r *Repository) find(query *gorm.DB) ([]*domain.Order, error) {
	var records []orderRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	orders := make([]*domain.Order, 0, len(records))
	for i := range records {
		orders = append(orders, records[i].toDomain())
	}
	return orders, nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres order repository not configured")
	}
	return nil
}
