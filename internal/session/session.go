package session

import "github.com/threadline/storefront-gateway/internal/identity"

// Session is the per-request sync context: who owns the collections being
// mutated and which bearer token (if any) backs remote calls.
//
// Guests get a minted session id as their owner key; authenticated users use
// their user id, so a login carries the same remote cart across devices while
// the guest mirror stays keyed to the browser session.
type Session struct {
	Owner    string
	Token    string
	Identity *identity.Identity
}

// Authenticated reports whether the session resolved to a user identity.
func (s Session) Authenticated() bool {
	return s.Identity != nil
}
