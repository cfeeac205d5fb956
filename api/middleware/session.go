package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/threadline/storefront-gateway/api/responses"
	"github.com/threadline/storefront-gateway/internal/identity"
	"github.com/threadline/storefront-gateway/internal/session"
	pkgerrors "github.com/threadline/storefront-gateway/pkg/errors"
	"github.com/threadline/storefront-gateway/pkg/logger"
)

const (
	sessionIDHeader = "X-Session-Id"
	sessionIDCookie = "session_id"
	authTokenCookie = "auth_token"
)

type sessionToucher interface {
	Touch(sess session.Session)
}

// Session resolves the request's sync session. The bearer token (header or
// cookie) is read for identity claims; absent or invalid tokens degrade to a
// guest session keyed by a per-browser session id, minted here when missing.
// Resolution never rejects the request: auth enforcement is a route concern.
func Session(resolver *identity.Resolver, logg *logger.Logger, tracker sessionToucher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			ident := resolver.Resolve(token)

			sess := session.Session{Token: token, Identity: ident}
			if ident != nil {
				sess.Owner = ident.UserID
			} else {
				sess.Owner = sessionID(w, r)
				sess.Token = ""
			}

			ctx := r.Context()
			if logg != nil {
				if ident != nil {
					ctx = logg.WithUserID(ctx, ident.UserID)
				} else {
					ctx = logg.WithSessionID(ctx, sess.Owner)
				}
			}

			if tracker != nil {
				tracker.Touch(sess)
			}

			next.ServeHTTP(w, r.WithContext(WithSession(ctx, sess)))
		})
	}
}

// RequireAuth rejects guest sessions with the login prompt the storefront
// surfaces as a toast.
func RequireAuth(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := SessionFromContext(r.Context())
			if !sess.Authenticated() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeLoginRequired, "please login to continue"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	if cookie, err := r.Cookie(authTokenCookie); err == nil {
		return strings.TrimSpace(cookie.Value)
	}
	return ""
}

func sessionID(w http.ResponseWriter, r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(sessionIDHeader)); id != "" {
		return id
	}
	if cookie, err := r.Cookie(sessionIDCookie); err == nil && strings.TrimSpace(cookie.Value) != "" {
		return strings.TrimSpace(cookie.Value)
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionIDCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	w.Header().Set(sessionIDHeader, id)
	return id
}
