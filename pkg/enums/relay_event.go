package enums

// RelayEventType identifies the cross-surface resynchronization events.
// The names are wire-compatible with the storefront's browser events.
type RelayEventType string

const (
	EventCartUpdated     RelayEventType = "cartUpdated"
	EventCartCleared     RelayEventType = "cartCleared"
	EventWishlistUpdated RelayEventType = "wishlistUpdated"
	EventWishlistCleared RelayEventType = "wishlistCleared"
)

// IsValid reports whether the event type is one of the canonical four.
func (t RelayEventType) IsValid() bool {
	switch t {
	case EventCartUpdated, EventCartCleared, EventWishlistUpdated, EventWishlistCleared:
		return true
	}
	return false
}
