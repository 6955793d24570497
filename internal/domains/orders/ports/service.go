package ports

import (
	"context"

	ordertypes "github.com/Apurer/go-gin-order-service/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-order-service/internal/domains/orders/domain"
)

// Service exposes the order use cases to transports and workflows.
type Service interface {
	CreateOrder(ctx context.Context, input ordertypes.CreateOrderInput) (*domain.Order, error)
	GetOrder(ctx context.Context, id int64) (*domain.Order, error)
	ListUserOrders(ctx context.Context, userID int64) ([]*domain.Order, error)
	ListOrders(ctx context.Context, filter Filter) ([]*domain.Order, error)
	ListPendingOrders(ctx context.Context) ([]*domain.Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, status string) (*domain.Order, error)
	UpdatePaymentStatus(ctx context.Context, id int64, status string) (*domain.Order, error)
	ProcessPayment(ctx context.Context, input ordertypes.ProcessPaymentInput) (*domain.Order, error)
	CancelOrder(ctx context.Context, id int64) (*domain.Order, error)
	UserStatistics(ctx context.Context, userID int64) (domain.UserStatistics, error)
	ApplyPaymentNotification(ctx context.Context, input ordertypes.PaymentNotificationInput) (*domain.Order, error)
}
