package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/threadline/storefront-gateway/api/middleware"
	"github.com/threadline/storefront-gateway/api/responses"
	"github.com/threadline/storefront-gateway/internal/relay"
	pkgerrors "github.com/threadline/storefront-gateway/pkg/errors"
	"github.com/threadline/storefront-gateway/pkg/logger"
)

const sseHeartbeatInterval = 25 * time.Second

// EventsStream delivers the session's relay events over SSE. This is how the
// storefront's open surfaces learn that another tab (or the refresh loop)
// changed the cart or wishlist.
func EventsStream(bus *relay.Bus, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "streaming unsupported"))
			return
		}

		sess := middleware.SessionFromContext(r.Context())
		events, cancel := bus.Subscribe(sess.Owner)
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
			case event, open := <-events:
				if !open {
					return
				}
				payload, err := json.Marshal(event)
				if err != nil {
					if logg != nil {
						logg.Error(r.Context(), "encode relay event", err)
					}
					continue
				}
				fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, payload)
				flusher.Flush()
			}
		}
	}
}
