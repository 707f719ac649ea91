package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/ukydev/fueltrack/internal/metrics"
)

// statusRecorder captures the status code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Router reports the pattern a request is routed to. *http.ServeMux
// implements it.
type Router interface {
	Handler(r *http.Request) (h http.Handler, pattern string)
}

// RequestLogger assigns every request an id, echoes it in X-Request-ID and
// logs the outcome. Completed requests are also recorded in m, labelled by
// the pattern routes matched. A nil routes labels everything as unmatched.
func RequestLogger(logger logrus.FieldLogger, m *metrics.Metrics, routes Router) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			var pattern string
			if routes != nil {
				_, pattern = routes.Handler(r)
			}

			reqID := r.Header.Get("X-Request-ID")
			if reqID == "" {
				reqID = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", reqID)

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			ctx := context.WithValue(r.Context(), RequestIDContextKey, reqID)
			next.ServeHTTP(rec, r.WithContext(ctx))

			elapsed := time.Since(start)
			m.ObserveRequest(r.Method, pattern, rec.status, elapsed)

			entry := logger.WithFields(logrus.Fields{
				"request_id":  reqID,
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      rec.status,
				"duration_ms": elapsed.Milliseconds(),
			})
			switch {
			case rec.status >= http.StatusInternalServerError:
				entry.Error("request failed")
			case rec.status >= http.StatusBadRequest:
				entry.Warn("request rejected")
			default:
				entry.Info("request completed")
			}
		})
	}
}

// RequestID returns the id assigned by RequestLogger, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDContextKey).(string)
	return id
}
