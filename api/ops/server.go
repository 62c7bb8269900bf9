package ops

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/roomradar/roomradar-backend/pkg/config"
	"github.com/roomradar/roomradar-backend/pkg/logger"
)

const readyProbeTimeout = 2 * time.Second

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HandlerParams configure the operational HTTP surface exposed by the
// workers: liveness, readiness and Prometheus metrics.
type HandlerParams struct {
	Config *config.Config
	Logger *logger.Logger
	DB     Pinger
	Redis  Pinger
}

// NewHandler builds the ops router.
func NewHandler(params HandlerParams) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)

	router.Get("/healthz", healthz(params.Config))
	router.Get("/readyz", readyz(params))
	router.Handle("/metrics", promhttp.Handler())

	return router
}

func healthz(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "live",
			"env":    cfg.App.Env,
		})
	}
}

func readyz(params HandlerParams) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyProbeTimeout)
		defer cancel()

		probes := map[string]Pinger{
			"database": params.DB,
			"redis":    params.Redis,
		}
		for name, probe := range probes {
			if probe == nil {
				continue
			}
			if err := probe.Ping(ctx); err != nil {
				if params.Logger != nil {
					logCtx := params.Logger.WithField(ctx, "dependency", name)
					params.Logger.Warn(logCtx, "readiness probe failed")
				}
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{
					"status":     "not ready",
					"dependency": name,
				})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
