package relay

import (
	"context"
	"testing"

	"github.com/threadline/storefront-gateway/pkg/enums"
	"github.com/threadline/storefront-gateway/pkg/logger"
)

func newTestBus() *Bus {
	return NewBus(BusParams{Logger: logger.New(logger.Options{ServiceName: "test"})})
}

func TestDispatchReachesOwnerSubscribers(t *testing.T) {
	bus := newTestBus()
	events, cancel := bus.Subscribe("alice")
	defer cancel()

	err := bus.Dispatch(context.Background(), NewEvent(enums.EventCartUpdated, "alice", CartUpdatedDetail{Lines: 2, Source: SourceRemote}))
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}

	select {
	case event := <-events:
		if event.Type != enums.EventCartUpdated || event.Owner != "alice" {
			t.Fatalf("unexpected event %+v", event)
		}
	default:
		t.Fatalf("expected a delivered event")
	}
}

func TestDispatchDoesNotCrossOwners(t *testing.T) {
	bus := newTestBus()
	aliceEvents, cancelAlice := bus.Subscribe("alice")
	defer cancelAlice()
	bobEvents, cancelBob := bus.Subscribe("bob")
	defer cancelBob()

	if err := bus.Dispatch(context.Background(), NewEvent(enums.EventCartCleared, "alice", CartClearedDetail{})); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}

	select {
	case <-aliceEvents:
	default:
		t.Fatalf("alice should have received the event")
	}
	select {
	case event := <-bobEvents:
		t.Fatalf("bob must not receive alice's event, got %+v", event)
	default:
	}
}

func TestDispatchRejectsUnknownEventType(t *testing.T) {
	bus := newTestBus()
	if err := bus.Dispatch(context.Background(), Event{Type: "somethingElse", Owner: "alice"}); err == nil {
		t.Fatalf("expected unknown event type to be rejected")
	}
}

func TestDispatchDropsWhenSubscriberBufferFull(t *testing.T) {
	bus := NewBus(BusParams{Buffer: 1, Logger: logger.New(logger.Options{ServiceName: "test"})})
	events, cancel := bus.Subscribe("alice")
	defer cancel()

	for i := 0; i < 3; i++ {
		if err := bus.Dispatch(context.Background(), NewEvent(enums.EventCartUpdated, "alice", CartUpdatedDetail{})); err != nil {
			t.Fatalf("dispatch failed: %v", err)
		}
	}

	delivered := 0
	for {
		select {
		case <-events:
			delivered++
			continue
		default:
		}
		break
	}
	if delivered != 1 {
		t.Fatalf("expected overflow events dropped, delivered %d", delivered)
	}
}

func TestCancelUnsubscribes(t *testing.T) {
	bus := newTestBus()
	_, cancel := bus.Subscribe("alice")
	if got := bus.SubscriberCount("alice"); got != 1 {
		t.Fatalf("expected 1 subscriber, got %d", got)
	}
	cancel()
	if got := bus.SubscriberCount("alice"); got != 0 {
		t.Fatalf("expected 0 subscribers after cancel, got %d", got)
	}
}

func TestDefaultRegistryKnowsCanonicalEvents(t *testing.T) {
	registry := DefaultRegistry()
	for _, eventType := range []enums.RelayEventType{
		enums.EventCartUpdated,
		enums.EventCartCleared,
		enums.EventWishlistUpdated,
		enums.EventWishlistCleared,
	} {
		if !registry.Known(eventType) {
			t.Fatalf("expected %s to be registered", eventType)
		}
	}
}
