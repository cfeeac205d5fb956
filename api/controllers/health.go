package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/threadline/storefront-gateway/api/responses"
	"github.com/threadline/storefront-gateway/pkg/config"
	pkgerrors "github.com/threadline/storefront-gateway/pkg/errors"
	"github.com/threadline/storefront-gateway/pkg/logger"
)

// Pinger is implemented by the gateway's backing stores.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Threadline-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady verifies the gateway's backing stores. The commerce backend is
// deliberately excluded: the gateway stays ready while degraded to the local
// fallback store.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Threadline-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		checks := map[string]string{}
		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				checks[name] = "down"
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" unavailable").WithDetails(checks))
				return
			}
			checks[name] = "ok"
		}
		checks["status"] = "ready"
		responses.WriteSuccess(w, checks)
	}
}
