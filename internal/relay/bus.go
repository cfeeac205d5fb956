package relay

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/threadline/storefront-gateway/pkg/logger"
	"github.com/threadline/storefront-gateway/pkg/metrics"
)

const defaultSubscriberBuffer = 16

// Bus is the in-process replacement for the storefront's browser event bus.
// Publishing never blocks: a subscriber whose channel is full misses the
// event and is expected to converge on the next refresh cycle.
type Bus struct {
	mtx      sync.RWMutex
	subs     map[string]map[string]chan Event
	registry *Registry
	buffer   int
	logg     *logger.Logger
	metrics  *metrics.SyncMetrics
	closed   bool
}

// BusParams groups bus dependencies.
type BusParams struct {
	Registry *Registry
	Buffer   int
	Logger   *logger.Logger
	Metrics  *metrics.SyncMetrics
}

// NewBus builds an event bus with the provided registry.
func NewBus(params BusParams) *Bus {
	registry := params.Registry
	if registry == nil {
		registry = DefaultRegistry()
	}
	buffer := params.Buffer
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}
	return &Bus{
		subs:     make(map[string]map[string]chan Event),
		registry: registry,
		buffer:   buffer,
		logg:     params.Logger,
		metrics:  params.Metrics,
	}
}

// Dispatch publishes the event to every subscriber of its owner.
func (b *Bus) Dispatch(ctx context.Context, event Event) error {
	if !b.registry.Known(event.Type) {
		return fmt.Errorf("unknown relay event type %q", event.Type)
	}

	b.mtx.RLock()
	defer b.mtx.RUnlock()
	if b.closed {
		return fmt.Errorf("relay bus closed")
	}

	b.metrics.IncRelayEvent(string(event.Type))
	for _, ch := range b.subs[event.Owner] {
		select {
		case ch <- event:
		default:
			if b.logg != nil {
				b.logg.Warn(ctx, "relay subscriber buffer full, dropping event")
			}
		}
	}
	return nil
}

// Subscribe registers a consumer for the owner's events. The returned cancel
// function must be called when the consumer goes away.
func (b *Bus) Subscribe(owner string) (<-chan Event, func()) {
	ch := make(chan Event, b.buffer)
	id := uuid.NewString()

	b.mtx.Lock()
	if b.closed {
		b.mtx.Unlock()
		close(ch)
		return ch, func() {}
	}
	if b.subs[owner] == nil {
		b.subs[owner] = make(map[string]chan Event)
	}
	b.subs[owner][id] = ch
	b.mtx.Unlock()

	cancel := func() {
		b.mtx.Lock()
		defer b.mtx.Unlock()
		if channels, ok := b.subs[owner]; ok {
			if sub, ok := channels[id]; ok {
				delete(channels, id)
				close(sub)
			}
			if len(channels) == 0 {
				delete(b.subs, owner)
			}
		}
	}
	return ch, cancel
}

// Owners lists owner keys with at least one active subscriber.
func (b *Bus) Owners() []string {
	b.mtx.RLock()
	defer b.mtx.RUnlock()
	owners := make([]string, 0, len(b.subs))
	for owner := range b.subs {
		owners = append(owners, owner)
	}
	return owners
}

// SubscriberCount reports the number of active subscribers for an owner.
func (b *Bus) SubscriberCount(owner string) int {
	b.mtx.RLock()
	defer b.mtx.RUnlock()
	return len(b.subs[owner])
}

// Close tears down every subscriber channel.
func (b *Bus) Close() {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for owner, channels := range b.subs {
		for id, ch := range channels {
			close(ch)
			delete(channels, id)
		}
		delete(b.subs, owner)
	}
}
