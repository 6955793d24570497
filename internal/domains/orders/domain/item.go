package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// MaxAmount is the largest unit price, subtotal or order total that can be stored.
var MaxAmount = decimal.RequireFromString("99999999.99")

// ProductDetails carries the optional descriptive fields of a line item.
type ProductDetails struct {
	Category    string
	SKU         string
	Color       string
	Size        string
	Description string
}

// OrderItem is one product line inside an order. Items are owned by their order and
// only know their position within it.
type OrderItem struct {
	ID          int64
	Position    int
	ProductID   int64
	ProductName string
	Details     ProductDetails
	UnitPrice   decimal.Decimal
	Quantity    int
	Subtotal    decimal.Decimal
}

// NewOrderItem validates the line and computes its subtotal.
func NewOrderItem(productID int64, productName string, unitPrice decimal.Decimal, quantity int, details ProductDetails) (OrderItem, error) {
	item := OrderItem{
		ProductID:   productID,
		ProductName: strings.TrimSpace(productName),
		Details:     details,
	}
	if item.ProductID <= 0 {
		return OrderItem{}, ErrProductIDRequired
	}
	if item.ProductName == "" {
		return OrderItem{}, ErrProductNameRequired
	}
	if err := item.SetUnitPrice(unitPrice); err != nil {
		return OrderItem{}, err
	}
	if err := item.SetQuantity(quantity); err != nil {
		return OrderItem{}, err
	}
	return item, nil
}

// SetUnitPrice replaces the unit price and refreshes the subtotal. Prices carry at most
// two decimal places; trailing zeros beyond that are accepted.
func (i *OrderItem) SetUnitPrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return ErrNegativeUnitPrice
	}
	if !price.Round(2).Equal(price) {
		return ErrUnitPriceScale
	}
	if price.GreaterThan(MaxAmount) || subtotal(price, i.Quantity).GreaterThan(MaxAmount) {
		return ErrAmountTooLarge
	}
	i.UnitPrice = price
	i.recalculate()
	return nil
}

// SetQuantity replaces the quantity and refreshes the subtotal.
func (i *OrderItem) SetQuantity(quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	if subtotal(i.UnitPrice, quantity).GreaterThan(MaxAmount) {
		return ErrAmountTooLarge
	}
	i.Quantity = quantity
	i.recalculate()
	return nil
}

func (i *OrderItem) recalculate() {
	i.Subtotal = subtotal(i.UnitPrice, i.Quantity)
}

func subtotal(price decimal.Decimal, quantity int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(quantity)))
}
