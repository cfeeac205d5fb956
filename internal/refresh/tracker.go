package refresh

import (
	"sync"
	"time"

	"github.com/threadline/storefront-gateway/internal/session"
)

const defaultSessionTTL = 5 * time.Minute

// Tracker remembers which sessions have active UI surfaces so the refresh
// loop only converges carts someone is actually looking at. Entries expire
// unless re-touched, which happens on every authenticated request.
type Tracker struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]trackedSession
	now      func() time.Time
}

type trackedSession struct {
	sess     session.Session
	lastSeen time.Time
}

// NewTracker builds a tracker with the given entry TTL.
func NewTracker(ttl time.Duration) *Tracker {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &Tracker{
		ttl:      ttl,
		sessions: make(map[string]trackedSession),
		now:      time.Now,
	}
}

// Touch records session activity. Only authenticated sessions are tracked;
// guest state is local-authoritative and needs no convergence.
func (t *Tracker) Touch(sess session.Session) {
	if !sess.Authenticated() || sess.Owner == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessions[sess.Owner] = trackedSession{sess: sess, lastSeen: t.now()}
}

// Forget drops a session, e.g. on logout.
func (t *Tracker) Forget(owner string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.sessions, owner)
}

// Active returns the live sessions and prunes expired ones.
func (t *Tracker) Active() []session.Session {
	t.mu.Lock()
	defer t.mu.Unlock()
	cutoff := t.now().Add(-t.ttl)
	out := make([]session.Session, 0, len(t.sessions))
	for owner, tracked := range t.sessions {
		if tracked.lastSeen.Before(cutoff) {
			delete(t.sessions, owner)
			continue
		}
		out = append(out, tracked.sess)
	}
	return out
}
