package postgres

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Apurer/go-gin-order-service/internal/domains/orders/domain"
)

// orderRecord maps the order aggregate root to the orders table.
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

// orderItemRecord maps one order line to the order_items table.
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

func toRecord(order *domain.Order) orderRecord {
	rec := orderRecord{
		ID:               order.ID,
		UserID:           order.Customer.UserID,
		UserEmail:        order.Customer.Email,
		UserName:         order.Customer.Name,
		TotalAmount:      order.TotalAmount,
		Status:           string(order.Status),
		PaymentStatus:    string(order.PaymentStatus),
		PaymentMethod:    order.PaymentMethod,
		PaymentReference: order.PaymentReference,
		RefundReference:  order.RefundReference,
		ShippingAddress:  order.ShippingAddress,
		BillingAddress:   order.BillingAddress,
		CreatedAt:        order.CreatedAt,
		UpdatedAt:        order.UpdatedAt,
		CompletedAt:      order.CompletedAt,
		Items:            make([]orderItemRecord, 0, len(order.Items)),
	}
	for _, item := range order.Items {
		rec.Items = append(rec.Items, orderItemRecord{
			ID:                 item.ID,
			OrderID:            order.ID,
			Position:           item.Position,
			ProductID:          item.ProductID,
			ProductName:        item.ProductName,
			ProductCategory:    item.Details.Category,
			ProductSKU:         item.Details.SKU,
			ProductColor:       item.Details.Color,
			ProductSize:        item.Details.Size,
			ProductDescription: item.Details.Description,
			UnitPrice:          item.UnitPrice,
			Quantity:           item.Quantity,
			Subtotal:           item.Subtotal,
		})
	}
	return rec
}

func (r orderRecord) toDomain() *domain.Order {
	order := &domain.Order{
		ID: r.ID,
		Customer: domain.Customer{
			UserID: r.UserID,
			Email:  r.UserEmail,
			Name:   r.UserName,
		},
		TotalAmount:      r.TotalAmount,
		Status:           domain.OrderStatus(r.Status),
		PaymentStatus:    domain.PaymentStatus(r.PaymentStatus),
		PaymentMethod:    r.PaymentMethod,
		PaymentReference: r.PaymentReference,
		RefundReference:  r.RefundReference,
		ShippingAddress:  r.ShippingAddress,
		BillingAddress:   r.BillingAddress,
		CreatedAt:        r.CreatedAt.UTC(),
		UpdatedAt:        r.UpdatedAt.UTC(),
		Items:            make([]domain.OrderItem, 0, len(r.Items)),
	}
	if r.CompletedAt != nil {
		completed := r.CompletedAt.UTC()
		order.CompletedAt = &completed
	}
	for _, item := range r.Items {
		order.Items = append(order.Items, domain.OrderItem{
			ID:          item.ID,
			Position:    item.Position,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Details: domain.ProductDetails{
				Category:    item.ProductCategory,
				SKU:         item.ProductSKU,
				Color:       item.ProductColor,
				Size:        item.ProductSize,
				Description: item.ProductDescription,
			},
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			Subtotal:  item.Subtotal,
		})
	}
	return order
}
