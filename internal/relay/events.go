package relay

import (
	"time"

	"github.com/google/uuid"

	"github.com/threadline/storefront-gateway/pkg/enums"
)

// Event is one cross-surface resynchronization signal. Owner scopes delivery:
// only subscribers for the same owner key receive it.
type Event struct {
	ID     string               `json:"id"`
	Type   enums.RelayEventType `json:"type"`
	Owner  string               `json:"-"`
	Detail any                  `json:"detail,omitempty"`
	At     time.Time            `json:"at"`
}

// NewEvent stamps an event with an id and timestamp.
func NewEvent(eventType enums.RelayEventType, owner string, detail any) Event {
	return Event{
		ID:     uuid.NewString(),
		Type:   eventType,
		Owner:  owner,
		Detail: detail,
		At:     time.Now().UTC(),
	}
}

// CartUpdatedDetail accompanies cartUpdated events.
type CartUpdatedDetail struct {
	Lines  int    `json:"lines"`
	Source string `json:"source"`
}

// CartClearedDetail accompanies cartCleared events.
type CartClearedDetail struct{}

// WishlistUpdatedDetail accompanies wishlistUpdated events.
type WishlistUpdatedDetail struct {
	ProductID string `json:"productId"`
	Present   bool   `json:"present"`
}

// WishlistClearedDetail accompanies wishlistCleared events.
type WishlistClearedDetail struct{}

// Detail sources.
const (
	SourceRemote = "remote"
	SourceLocal  = "local"
)
