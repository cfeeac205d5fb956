package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// WishlistEntry is one liked product. Membership has set semantics keyed on
// the product id.
type WishlistEntry struct {
	ProductID       string           `json:"productId"`
	ProductName     string           `json:"productName"`
	Price           decimal.Decimal  `json:"price"`
	DiscountedPrice *decimal.Decimal `json:"discountedPrice,omitempty"`
	ThumbnailURL    string           `json:"thumbnailUrl,omitempty"`
	Category        string           `json:"category,omitempty"`
	AddedAt         time.Time        `json:"addedAt"`
}
