package migrations

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Run applies the orders schema. Adapters never auto-migrate on their own.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	return db.AutoMigrate(
		&orderRecord{},
		&orderItemRecord{},
		&idempotencyRecord{},
	)
}

// Order schema mirrors the orders Postgres adapter.
type orderRecord struct {
	ID               int64             `gorm:"primaryKey;column:id"`
	UserID           int64             `gorm:"column:user_id;not null;index:idx_orders_user_created"`
	UserEmail        string            `gorm:"column:user_email;not null;index"`
	UserName         string            `gorm:"column:user_name"`
	TotalAmount      decimal.Decimal   `gorm:"column:total_amount;type:numeric(10,2);not null"`
	Status           string            `gorm:"column:status;type:varchar(32);not null;index"`
	PaymentStatus    string            `gorm:"column:payment_status;type:varchar(32);not null;index"`
	PaymentMethod    string            `gorm:"column:payment_method"`
	PaymentReference string            `gorm:"column:payment_reference;index"`
	RefundReference  string            `gorm:"column:refund_reference"`
	ShippingAddress  string            `gorm:"column:shipping_address;type:text;not null"`
	BillingAddress   string            `gorm:"column:billing_address;type:text"`
	CreatedAt        time.Time         `gorm:"column:created_at;not null;autoCreateTime:false;index:idx_orders_user_created"`
	UpdatedAt        time.Time         `gorm:"column:updated_at;not null;autoUpdateTime:false"`
	CompletedAt      *time.Time        `gorm:"column:completed_at"`
	Items            []orderItemRecord `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

func (orderRecord) TableName() string { return "orders" }

type orderItemRecord struct {
	ID                 int64           `gorm:"primaryKey;column:id"`
	OrderID            int64           `gorm:"column:order_id;not null;index"`
	Position           int             `gorm:"column:position;not null"`
	ProductID          int64           `gorm:"column:product_id;not null"`
	ProductName        string          `gorm:"column:product_name;not null"`
	ProductCategory    string          `gorm:"column:product_category"`
	ProductSKU         string          `gorm:"column:product_sku"`
	ProductColor       string          `gorm:"column:product_color"`
	ProductSize        string          `gorm:"column:product_size"`
	ProductDescription string          `gorm:"column:product_description;type:text"`
	UnitPrice          decimal.Decimal `gorm:"column:unit_price;type:numeric(10,2);not null"`
	Quantity           int             `gorm:"column:quantity;not null"`
	Subtotal           decimal.Decimal `gorm:"column:subtotal;type:numeric(10,2);not null"`
}

func (orderItemRecord) TableName() string { return "order_items" }

// Idempotency schema mirrors the orders idempotency store.
type idempotencyRecord struct {
	Key         string    `gorm:"primaryKey;column:key;size:255"`
	RequestHash string    `gorm:"column:request_hash;size:128"`
	OrderID     int64     `gorm:"column:order_id"`
	CreatedAt   time.Time `gorm:"column:created_at;index"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (idempotencyRecord) TableName() string { return "order_idempotency_keys" }
