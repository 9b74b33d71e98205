package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/nearbuy-backend/api/responses"
	"github.com/angelmondragon/nearbuy-backend/pkg/enums"
	"github.com/angelmondragon/nearbuy-backend/pkg/logger"
)

// Logging writes one line per request. Probe endpoints log only on failure,
// and responses served from the local cache are logged as degraded.
func Logging(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if logg == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := logg.WithFields(r.Context(), map[string]any{
				"method": r.Method,
				"path":   r.URL.Path,
			})

			rec := &statusRecorder{ResponseWriter: w}
			start := time.Now()
			next.ServeHTTP(rec, r.WithContext(ctx))
			if rec.status == 0 {
				rec.status = http.StatusOK
			}

			probe := strings.HasPrefix(r.URL.Path, "/health/") || r.URL.Path == "/metrics"
			if probe && rec.status < http.StatusInternalServerError {
				return
			}

			fields := map[string]any{
				"status":      rec.status,
				"duration_ms": time.Since(start).Milliseconds(),
			}
			source := rec.Header().Get(responses.DataSourceHeader)
			if source != "" {
				fields["source"] = source
			}
			ctx = logg.WithFields(ctx, fields)

			if source == enums.DataSourceCache.String() {
				logg.Warn(ctx, "request.degraded")
				return
			}
			logg.Info(ctx, "request.complete")
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	return s.ResponseWriter.Write(b)
}
