package relay

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/threadline/storefront-gateway/pkg/enums"
)

const defaultToastTTL = 3 * time.Second

// Toast is one transient user-facing notification. Success and error toasts
// auto-expire; loading toasts stay until dismissed.
type Toast struct {
	ID        string           `json:"id"`
	Level     enums.ToastLevel `json:"level"`
	Message   string           `json:"message"`
	CreatedAt time.Time        `json:"createdAt"`
	ExpiresAt *time.Time       `json:"expiresAt,omitempty"`
}

// Notifier is the toast surface of the relay. Toasts are buffered per owner
// and drained by the SSE stream (or polled via the toast endpoint).
type Notifier struct {
	mtx    sync.Mutex
	active map[string][]Toast
	subs   map[string]map[string]chan Toast
	ttl    time.Duration
	now    func() time.Time
}

// NewNotifier builds a notifier with the given auto-dismiss TTL.
func NewNotifier(ttl time.Duration) *Notifier {
	if ttl <= 0 {
		ttl = defaultToastTTL
	}
	return &Notifier{
		active: make(map[string][]Toast),
		subs:   make(map[string]map[string]chan Toast),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Success shows an auto-dismissing success toast.
func (n *Notifier) Success(owner, msg string) Toast {
	return n.push(owner, enums.ToastSuccess, msg, true)
}

// Error shows an auto-dismissing error toast.
func (n *Notifier) Error(owner, msg string) Toast {
	return n.push(owner, enums.ToastError, msg, true)
}

// Loading shows a toast that stays up until the returned dismiss func runs.
func (n *Notifier) Loading(owner, msg string) (Toast, func()) {
	toast := n.push(owner, enums.ToastLoading, msg, false)
	dismiss := func() {
		n.Dismiss(owner, toast.ID)
	}
	return toast, dismiss
}

// Dismiss drops the toast with the given id.
func (n *Notifier) Dismiss(owner, id string) {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	toasts := n.active[owner]
	kept := toasts[:0]
	for _, toast := range toasts {
		if toast.ID != id {
			kept = append(kept, toast)
		}
	}
	if len(kept) == 0 {
		delete(n.active, owner)
		return
	}
	n.active[owner] = kept
}

// Active returns the owner's live toasts, pruning expired ones first.
func (n *Notifier) Active(owner string) []Toast {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	n.pruneOwnerLocked(owner)
	out := make([]Toast, len(n.active[owner]))
	copy(out, n.active[owner])
	return out
}

// PruneExpired drops expired toasts across all owners and reports how many.
func (n *Notifier) PruneExpired() int {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	pruned := 0
	for owner := range n.active {
		before := len(n.active[owner])
		n.pruneOwnerLocked(owner)
		pruned += before - len(n.active[owner])
	}
	return pruned
}

// Subscribe delivers new toasts for the owner until cancel is called.
func (n *Notifier) Subscribe(owner string) (<-chan Toast, func()) {
	ch := make(chan Toast, defaultSubscriberBuffer)
	id := uuid.NewString()

	n.mtx.Lock()
	if n.subs[owner] == nil {
		n.subs[owner] = make(map[string]chan Toast)
	}
	n.subs[owner][id] = ch
	n.mtx.Unlock()

	cancel := func() {
		n.mtx.Lock()
		defer n.mtx.Unlock()
		if channels, ok := n.subs[owner]; ok {
			if sub, ok := channels[id]; ok {
				delete(channels, id)
				close(sub)
			}
			if len(channels) == 0 {
				delete(n.subs, owner)
			}
		}
	}
	return ch, cancel
}

func (n *Notifier) push(owner string, level enums.ToastLevel, msg string, expiring bool) Toast {
	now := n.now().UTC()
	toast := Toast{
		ID:        uuid.NewString(),
		Level:     level,
		Message:   msg,
		CreatedAt: now,
	}
	if expiring {
		expires := now.Add(n.ttl)
		toast.ExpiresAt = &expires
	}

	n.mtx.Lock()
	n.active[owner] = append(n.active[owner], toast)
	for _, ch := range n.subs[owner] {
		select {
		case ch <- toast:
		default:
		}
	}
	n.mtx.Unlock()
	return toast
}

func (n *Notifier) pruneOwnerLocked(owner string) {
	now := n.now()
	toasts := n.active[owner]
	kept := toasts[:0]
	for _, toast := range toasts {
		if toast.ExpiresAt == nil || now.Before(*toast.ExpiresAt) {
			kept = append(kept, toast)
		}
	}
	if len(kept) == 0 {
		delete(n.active, owner)
		return
	}
	n.active[owner] = kept
}
