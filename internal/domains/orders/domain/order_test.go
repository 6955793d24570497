package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 6, 12, 10, 0, 0, 0, time.UTC)

func mustItem(t *testing.T, productID int64, name, price string, qty int) OrderItem {
	t.Helper()
	item, err := NewOrderItem(productID, name, decimal.RequireFromString(price), qty, ProductDetails{})
	require.NoError(t, err)
	return item
}

func mustOrder(t *testing.T, items ...OrderItem) *Order {
	t.Helper()
	order, err := NewOrder(Customer{UserID: 42, Email: "a@b.com"}, "Street 1", "", items)
	require.NoError(t, err)
	return order
}

func TestNewOrder_ComputesTotalAndDefaults(t *testing.T) {
	order := mustOrder(t, mustItem(t, 1, "Shirt", "20.00", 2))

	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("40.00")))
	assert.Equal(t, OrderStatusPending, order.Status)
	assert.Equal(t, PaymentStatusPending, order.PaymentStatus)
	assert.Nil(t, order.CompletedAt)
}

func TestNewOrder_RejectsMissingFields(t *testing.T) {
	item := mustItem(t, 1, "Shirt", "20.00", 1)
	cases := []struct {
		name     string
		customer Customer
		shipping string
		items    []OrderItem
		want     error
	}{
		{"missing user", Customer{Email: "a@b.com"}, "Street 1", []OrderItem{item}, ErrUserIDRequired},
		{"missing email", Customer{UserID: 1, Email: "  "}, "Street 1", []OrderItem{item}, ErrUserEmailRequired},
		{"no items", Customer{UserID: 1, Email: "a@b.com"}, "Street 1", nil, ErrItemsRequired},
		{"missing shipping", Customer{UserID: 1, Email: "a@b.com"}, "", []OrderItem{item}, ErrShippingAddressRequired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewOrder(tc.customer, tc.shipping, "", tc.items)
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestNewOrderItem_Validation(t *testing.T) {
	_, err := NewOrderItem(0, "Shirt", decimal.NewFromInt(1), 1, ProductDetails{})
	require.ErrorIs(t, err, ErrProductIDRequired)
	_, err = NewOrderItem(1, " ", decimal.NewFromInt(1), 1, ProductDetails{})
	require.ErrorIs(t, err, ErrProductNameRequired)
	_, err = NewOrderItem(1, "Shirt", decimal.NewFromInt(-1), 1, ProductDetails{})
	require.ErrorIs(t, err, ErrNegativeUnitPrice)
	_, err = NewOrderItem(1, "Shirt", decimal.NewFromInt(1), 0, ProductDetails{})
	require.ErrorIs(t, err, ErrInvalidQuantity)

	free, err := NewOrderItem(1, "Sticker", decimal.Zero, 3, ProductDetails{})
	require.NoError(t, err)
	assert.True(t, free.Subtotal.IsZero())
}

func TestNewOrderItem_RejectsUnstorablePrices(t *testing.T) {
	_, err := NewOrderItem(1, "Shirt", decimal.RequireFromString("10.005"), 1, ProductDetails{})
	require.ErrorIs(t, err, ErrUnitPriceScale)

	padded, err := NewOrderItem(1, "Shirt", decimal.RequireFromString("10.500"), 2, ProductDetails{})
	require.NoError(t, err)
	assert.Equal(t, "21.00", padded.Subtotal.StringFixed(2))

	_, err = NewOrderItem(1, "Yacht", decimal.RequireFromString("100000000.00"), 1, ProductDetails{})
	require.ErrorIs(t, err, ErrAmountTooLarge)

	_, err = NewOrderItem(1, "Car", decimal.RequireFromString("60000000.00"), 2, ProductDetails{})
	require.ErrorIs(t, err, ErrAmountTooLarge)

	item := mustItem(t, 1, "Car", "60000000.00", 1)
	require.ErrorIs(t, item.SetQuantity(2), ErrAmountTooLarge)
	assert.Equal(t, 1, item.Quantity)
	assert.Equal(t, "60000000.00", item.Subtotal.StringFixed(2))

	_, err = NewOrderItem(1, "Top", MaxAmount, 1, ProductDetails{})
	require.NoError(t, err)
}

func TestNewOrder_RejectsTotalBeyondMaxAmount(t *testing.T) {
	items := []OrderItem{
		mustItem(t, 1, "Car", "60000000.00", 1),
		mustItem(t, 2, "Boat", "40000000.00", 1),
	}
	_, err := NewOrder(Customer{UserID: 42, Email: "a@b.com"}, "Street 1", "", items)
	require.ErrorIs(t, err, ErrAmountTooLarge)

	items[1] = mustItem(t, 2, "Boat", "39999999.99", 1)
	order, err := NewOrder(Customer{UserID: 42, Email: "a@b.com"}, "Street 1", "", items)
	require.NoError(t, err)
	assert.True(t, order.TotalAmount.Equal(MaxAmount))
}

func TestOrderItem_SubtotalFollowsPriceAndQuantity(t *testing.T) {
	item := mustItem(t, 1, "Shirt", "19.99", 3)
	assert.Equal(t, "59.97", item.Subtotal.StringFixed(2))

	require.NoError(t, item.SetQuantity(5))
	assert.Equal(t, "99.95", item.Subtotal.StringFixed(2))

	require.NoError(t, item.SetUnitPrice(decimal.RequireFromString("2.50")))
	assert.Equal(t, "12.50", item.Subtotal.StringFixed(2))

	require.ErrorIs(t, item.SetQuantity(0), ErrInvalidQuantity)
	assert.Equal(t, 5, item.Quantity)
}

func TestAddItem_KeepsPositionsAndTotal(t *testing.T) {
	order := mustOrder(t, mustItem(t, 1, "Shirt", "10.00", 1))
	order.AddItem(mustItem(t, 2, "Hat", "5.25", 2))
	order.AddItem(mustItem(t, 3, "Socks", "1.10", 10))

	require.Len(t, order.Items, 3)
	for i, item := range order.Items {
		assert.Equal(t, i, item.Position)
	}
	sum := decimal.Zero
	for _, item := range order.Items {
		sum = sum.Add(item.Subtotal)
	}
	assert.True(t, order.TotalAmount.Equal(sum))
	assert.Equal(t, "31.50", order.TotalAmount.StringFixed(2))
}

func TestRecomputeTotal_EmptyIsZero(t *testing.T) {
	order := &Order{TotalAmount: decimal.NewFromInt(9)}
	order.RecomputeTotal()
	assert.True(t, order.TotalAmount.IsZero())
}

func TestTransitionStatus_CompletedAtSetOnce(t *testing.T) {
	order := mustOrder(t, mustItem(t, 1, "Shirt", "10.00", 1))

	require.NoError(t, order.TransitionStatus(OrderStatusShipped, testNow))
	assert.Nil(t, order.CompletedAt)

	require.NoError(t, order.TransitionStatus(OrderStatusDelivered, testNow))
	require.NotNil(t, order.CompletedAt)
	assert.Equal(t, testNow, *order.CompletedAt)

	later := testNow.Add(time.Hour)
	require.NoError(t, order.TransitionStatus(OrderStatusDelivered, later))
	assert.Equal(t, testNow, *order.CompletedAt)
}

func TestTransitionStatus_RejectsUnknown(t *testing.T) {
	order := mustOrder(t, mustItem(t, 1, "Shirt", "10.00", 1))
	require.ErrorIs(t, order.TransitionStatus(OrderStatus("FOO"), testNow), ErrInvalidOrderStatus)
	assert.Equal(t, OrderStatusPending, order.Status)
}

func TestTransitionPaymentStatus_PaidForcesProcessing(t *testing.T) {
	order := mustOrder(t, mustItem(t, 1, "Shirt", "10.00", 1))
	require.NoError(t, order.TransitionStatus(OrderStatusShipped, testNow))

	require.NoError(t, order.TransitionPaymentStatus(PaymentStatusPaid, testNow))
	assert.Equal(t, PaymentStatusPaid, order.PaymentStatus)
	assert.Equal(t, OrderStatusProcessing, order.Status)

	require.NoError(t, order.TransitionPaymentStatus(PaymentStatusFailed, testNow))
	assert.Equal(t, OrderStatusProcessing, order.Status)
}

func TestApplyPayment_RejectsSecondCharge(t *testing.T) {
	order := mustOrder(t, mustItem(t, 1, "Shirt", "10.00", 1))
	require.NoError(t, order.ApplyPayment("card", "pi_1", testNow))
	assert.Equal(t, "pi_1", order.PaymentReference)
	assert.Equal(t, OrderStatusProcessing, order.Status)

	require.ErrorIs(t, order.ApplyPayment("card", "pi_2", testNow), ErrAlreadyPaid)
	assert.Equal(t, "pi_1", order.PaymentReference)
}

func TestCancel(t *testing.T) {
	t.Run("delivered", func(t *testing.T) {
		order := mustOrder(t, mustItem(t, 1, "Shirt", "10.00", 1))
		require.NoError(t, order.TransitionStatus(OrderStatusDelivered, testNow))
		require.ErrorIs(t, order.Cancel("", testNow), ErrDeliveredOrder)
	})
	t.Run("already cancelled", func(t *testing.T) {
		order := mustOrder(t, mustItem(t, 1, "Shirt", "10.00", 1))
		require.NoError(t, order.Cancel("", testNow))
		require.ErrorIs(t, order.Cancel("", testNow), ErrAlreadyCancelled)
	})
	t.Run("paid order is refunded", func(t *testing.T) {
		order := mustOrder(t, mustItem(t, 1, "Shirt", "10.00", 1))
		require.NoError(t, order.ApplyPayment("card", "pi_1", testNow))
		require.True(t, order.RequiresRefund())
		require.NoError(t, order.Cancel("re_1", testNow))
		assert.Equal(t, OrderStatusCancelled, order.Status)
		assert.Equal(t, PaymentStatusRefunded, order.PaymentStatus)
		assert.Equal(t, "re_1", order.RefundReference)
	})
	t.Run("unpaid order keeps payment status", func(t *testing.T) {
		order := mustOrder(t, mustItem(t, 1, "Shirt", "10.00", 1))
		require.NoError(t, order.Cancel("", testNow))
		assert.Equal(t, PaymentStatusPending, order.PaymentStatus)
		assert.Empty(t, order.RefundReference)
	})
}

func TestPullEvents_BindsOrderID(t *testing.T) {
	order := mustOrder(t, mustItem(t, 1, "Shirt", "10.00", 1))
	order.MarkCreated(testNow)
	order.ID = 7

	events := order.PullEvents()
	require.Len(t, events, 1)
	assert.Equal(t, "order.created", events[0].EventName())
	assert.Equal(t, int64(7), events[0].AggregateID())
	assert.Empty(t, order.PullEvents())
}

func TestParseStatusTokens(t *testing.T) {
	status, err := ParseOrderStatus(" shipped ")
	require.NoError(t, err)
	assert.Equal(t, OrderStatusShipped, status)

	payment, err := ParsePaymentStatus("paid")
	require.NoError(t, err)
	assert.Equal(t, PaymentStatusPaid, payment)

	_, err = ParseOrderStatus("FOO")
	require.ErrorIs(t, err, ErrInvalidOrderStatus)
	_, err = ParsePaymentStatus("")
	require.ErrorIs(t, err, ErrInvalidPaymentStatus)
}

func TestComputeUserStatistics(t *testing.T) {
	paid := func(amount string) *Order {
		order := mustOrder(t, mustItem(t, 1, "Thing", amount, 1))
		require.NoError(t, order.ApplyPayment("card", "pi", testNow))
		return order
	}
	orders := []*Order{paid("10.00"), paid("15.00"), mustOrder(t, mustItem(t, 1, "Thing", "5.00", 1))}

	stats := ComputeUserStatistics(42, orders)
	assert.Equal(t, int64(42), stats.UserID)
	assert.Equal(t, int64(3), stats.TotalOrders)
	assert.Equal(t, 3, stats.RecentOrderCount)
	assert.Equal(t, "25.00", stats.TotalSpent.StringFixed(2))
}
