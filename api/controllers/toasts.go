package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/threadline/storefront-gateway/api/middleware"
	"github.com/threadline/storefront-gateway/api/responses"
	"github.com/threadline/storefront-gateway/api/validators"
	"github.com/threadline/storefront-gateway/internal/relay"
	pkgerrors "github.com/threadline/storefront-gateway/pkg/errors"
	"github.com/threadline/storefront-gateway/pkg/logger"
)

// ToastsActive lists the session's undelivered toast notifications, newest
// last, capped by the optional limit parameter.
func ToastsActive(notifier *relay.Notifier, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 200)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sess := middleware.SessionFromContext(r.Context())
		toasts := notifier.Active(sess.Owner)
		if len(toasts) > limit {
			toasts = toasts[len(toasts)-limit:]
		}
		responses.WriteSuccess(w, toasts)
	}
}

// ToastDismiss removes one toast, e.g. when the user closes it.
func ToastDismiss(notifier *relay.Notifier, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := middleware.SessionFromContext(r.Context())
		notifier.Dismiss(sess.Owner, chi.URLParam(r, "id"))
		responses.WriteSuccess(w, map[string]string{"status": "dismissed"})
	}
}

// ToastsStream delivers toasts over SSE as they are raised.
func ToastsStream(notifier *relay.Notifier, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "streaming unsupported"))
			return
		}

		sess := middleware.SessionFromContext(r.Context())
		toasts, cancel := notifier.Subscribe(sess.Owner)
		defer cancel()

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		heartbeat := time.NewTicker(sseHeartbeatInterval)
		defer heartbeat.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case <-heartbeat.C:
				fmt.Fprint(w, ": keep-alive\n\n")
				flusher.Flush()
			case toast, open := <-toasts:
				if !open {
					return
				}
				payload, err := json.Marshal(toast)
				if err != nil {
					if logg != nil {
						logg.Error(r.Context(), "encode toast", err)
					}
					continue
				}
				fmt.Fprintf(w, "event: toast\ndata: %s\n\n", payload)
				flusher.Flush()
			}
		}
	}
}
