package domain

import "github.com/shopspring/decimal"

// UserStatistics summarises the purchase history of one user.
type UserStatistics struct {
	UserID           int64
	TotalOrders      int64
	TotalSpent       decimal.Decimal
	RecentOrderCount int
}

// ComputeUserStatistics aggregates the user's orders. Only PAID orders count towards
// the amount spent.
func ComputeUserStatistics(userID int64, orders []*Order) UserStatistics {
	stats := UserStatistics{UserID: userID, TotalSpent: decimal.Zero}
	for _, order := range orders {
		if order == nil {
			continue
		}
		stats.TotalOrders++
		stats.RecentOrderCount++
		if order.PaymentStatus == PaymentStatusPaid {
			stats.TotalSpent = stats.TotalSpent.Add(order.TotalAmount)
		}
	}
	return stats
}
