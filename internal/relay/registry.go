package relay

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/threadline/storefront-gateway/pkg/enums"
)

// PayloadFactory returns a fresh detail value for decoding.
type PayloadFactory func() any

// Registry maps each relay event type to its detail schema so that event
// names and payloads are checked instead of being stringly-typed.
type Registry struct {
	mtx     sync.RWMutex
	entries map[enums.RelayEventType]PayloadFactory
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[enums.RelayEventType]PayloadFactory)}
}

// DefaultRegistry registers the four canonical storefront events.
func DefaultRegistry() *Registry {
	reg := NewRegistry()
	reg.Register(enums.EventCartUpdated, func() any { return &CartUpdatedDetail{} })
	reg.Register(enums.EventCartCleared, func() any { return &CartClearedDetail{} })
	reg.Register(enums.EventWishlistUpdated, func() any { return &WishlistUpdatedDetail{} })
	reg.Register(enums.EventWishlistCleared, func() any { return &WishlistClearedDetail{} })
	return reg
}

// Register stores a factory for the given event type.
func (r *Registry) Register(eventType enums.RelayEventType, factory PayloadFactory) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.entries[eventType] = factory
}

// Known reports whether the event type has a registered schema.
func (r *Registry) Known(eventType enums.RelayEventType) bool {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	_, ok := r.entries[eventType]
	return ok
}

// Decode unmarshals a raw detail payload into its registered type.
func (r *Registry) Decode(eventType enums.RelayEventType, payload json.RawMessage) (any, error) {
	r.mtx.RLock()
	factory, ok := r.entries[eventType]
	r.mtx.RUnlock()
	if !ok {
		return nil, fmt.Errorf("detail schema not registered for %s", eventType)
	}
	detail := factory()
	if len(payload) == 0 {
		return detail, nil
	}
	if err := json.Unmarshal(payload, detail); err != nil {
		return nil, fmt.Errorf("decoding %s detail: %w", eventType, err)
	}
	return detail, nil
}
