package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/nearbuy-backend/api/responses"
	"github.com/angelmondragon/nearbuy-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/nearbuy-backend/pkg/errors"
	"github.com/angelmondragon/nearbuy-backend/pkg/logger"
)

const readyTimeout = 2 * time.Second

// Pinger is a dependency probed by the readiness check.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-NearBuy-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every named dependency. Nil entries are skipped so a
// deployment without Redis or a direct database still reports ready.
func HealthReady(cfg *config.Config, deps map[string]Pinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-NearBuy-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		failed := []string{}
		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				if logg != nil {
					logg.Warn(logg.WithFields(ctx, map[string]any{"dependency": name, "error": err.Error()}), "health.ready.failed")
				}
				failed = append(failed, name)
			}
		}
		if len(failed) > 0 {
			responses.WriteError(r.Context(), nil, w, pkgerrors.New(pkgerrors.CodeRemoteUnavailable, "dependency unavailable").WithDetails(map[string]any{"failed": failed}))
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
