package application

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	ordertypes "github.com/Apurer/go-gin-order-service/internal/domains/orders/application/types"
)

type normalizedCreateOrder struct {
	UserID          int64                 `json:"userId"`
	UserEmail       string                `json:"userEmail"`
	UserName        string                `json:"userName"`
	Items           []normalizedOrderItem `json:"items"`
	ShippingAddress string                `json:"shippingAddress"`
	BillingAddress  string                `json:"billingAddress"`
}

type normalizedOrderItem struct {
	ProductID   int64  `json:"productId"`
	ProductName string `json:"productName"`
	Category    string `json:"category"`
	SKU         string `json:"sku"`
	Color       string `json:"color"`
	Size        string `json:"size"`
	Description string `json:"description"`
	UnitPrice   string `json:"unitPrice"`
	Quantity    int    `json:"quantity"`
}

// FingerprintCreateOrder builds a deterministic hash of the create-order payload, excluding the
// idempotency key. Prices are normalised so 20 and 20.00 hash alike.
func FingerprintCreateOrder(input ordertypes.CreateOrderInput) (string, error) {
	normalized := normalizedCreateOrder{
		UserID:          input.UserID,
		UserEmail:       strings.ToLower(strings.TrimSpace(input.UserEmail)),
		UserName:        strings.TrimSpace(input.UserName),
		ShippingAddress: strings.TrimSpace(input.ShippingAddress),
		BillingAddress:  strings.TrimSpace(input.BillingAddress),
		Items:           make([]normalizedOrderItem, 0, len(input.Items)),
	}
	for _, item := range input.Items {
		normalized.Items = append(normalized.Items, normalizedOrderItem{
			ProductID:   item.ProductID,
			ProductName: strings.TrimSpace(item.ProductName),
			Category:    item.ProductCategory,
			SKU:         item.ProductSKU,
			Color:       item.ProductColor,
			Size:        item.ProductSize,
			Description: item.ProductDescription,
			UnitPrice:   item.UnitPrice.StringFixed(2),
			Quantity:    item.Quantity,
		})
	}
	payload, err := json.Marshal(normalized)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}
