package api

import (
	"context"
	"net/http"
	"time"

	"github.com/platewise/platewise/internal/log"
)

// Pinger reports whether the backing database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// healthHandler reports process liveness. It always succeeds while the
// process is able to serve requests.
func healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// readyHandler reports readiness to serve traffic. It fails when the
// database is unreachable so load balancers stop routing here.
func readyHandler(db Pinger, logger log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db == nil {
			writeError(w, http.StatusServiceUnavailable, "not_ready", "database not configured")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			logger.Warn("readiness probe failed", "error", err)
			writeError(w, http.StatusServiceUnavailable, "not_ready", "database unreachable")
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
