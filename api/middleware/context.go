package middleware

import (
	"context"

	"github.com/threadline/storefront-gateway/internal/session"
)

type contextKey string

const ctxSession contextKey = "sync_session"

// SessionFromContext returns the resolved session for the request. The zero
// Session is returned when the middleware did not run.
func SessionFromContext(ctx context.Context) session.Session {
	if ctx == nil {
		return session.Session{}
	}
	if v, ok := ctx.Value(ctxSession).(session.Session); ok {
		return v
	}
	return session.Session{}
}

// WithSession injects the resolved session into the context.
func WithSession(ctx context.Context, sess session.Session) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxSession, sess)
}
