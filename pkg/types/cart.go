package types

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Variant is a specific color/size/sku combination of a product. When present,
// price and line uniqueness key on the variant rather than the product alone.
type Variant struct {
	VariantID string          `json:"variantId"`
	Color     string          `json:"color,omitempty"`
	Size      string          `json:"size,omitempty"`
	Price     decimal.Decimal `json:"price"`
	SKU       string          `json:"sku,omitempty"`
}

// Equal compares variants field by field, independent of serialization order.
func (v *Variant) Equal(other *Variant) bool {
	if v == nil || other == nil {
		return v == other
	}
	return v.VariantID == other.VariantID &&
		v.Color == other.Color &&
		v.Size == other.Size &&
		v.SKU == other.SKU &&
		v.Price.Equal(other.Price)
}

// Key returns a canonical identity string for matching lines.
func (v *Variant) Key() string {
	if v == nil {
		return ""
	}
	return strings.Join([]string{v.VariantID, v.Color, v.Size, v.SKU}, "|")
}

// CartLine represents one product (optionally one variant) in a cart.
// RemoteItemID is set only when the line is known to the commerce backend;
// its absence means the line exists only in the local fallback store.
type CartLine struct {
	ProductID    string          `json:"productId"`
	ProductName  string          `json:"productName,omitempty"`
	Variant      *Variant        `json:"variant,omitempty"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	ThumbnailURL string          `json:"thumbnailUrl,omitempty"`
	RemoteItemID string          `json:"remoteItemId,omitempty"`
}

// Matches reports whether the line refers to the same product/variant pair.
func (l CartLine) Matches(productID string, variant *Variant) bool {
	return l.ProductID == productID && l.Variant.Equal(variant)
}

// LineTotal is quantity times unit price.
func (l CartLine) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// ResolveUnitPrice applies the add-time price resolution order:
// variant price, then discounted price, then base price.
func ResolveUnitPrice(variant *Variant, discountedPrice, price *decimal.Decimal) decimal.Decimal {
	if variant != nil && variant.Price.IsPositive() {
		return variant.Price
	}
	if discountedPrice != nil && discountedPrice.IsPositive() {
		return *discountedPrice
	}
	if price != nil {
		return *price
	}
	return decimal.Zero
}
