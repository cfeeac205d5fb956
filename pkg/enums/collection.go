package enums

// Collection names the two browser-persisted blobs mirrored by the gateway.
type Collection string

const (
	CollectionCart     Collection = "cart"
	CollectionWishlist Collection = "wishlist"
)

// IsValid reports whether the collection is one the gateway mirrors.
func (c Collection) IsValid() bool {
	switch c {
	case CollectionCart, CollectionWishlist:
		return true
	}
	return false
}
