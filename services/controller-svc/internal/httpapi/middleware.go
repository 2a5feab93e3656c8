package httpapi

import (
	"net/http"
	"time"

	"sagsin/pkg/logger"
	"sagsin/pkg/metrics"
)

// statusRecorder captures the status code a handler wrote, since
// net/http gives no way to read it back afterward.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Recover turns a panic anywhere downstream into a 500 response
// instead of killing the connection (and, for a bug reachable from
// every request, the process). The panic value is logged; the
// response body intentionally omits it.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("panic recovered", "path", r.URL.Path, "method", r.Method, "panic", rec)
				writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error", Kind: "internal"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// Logging records one HTTPRequestsTotal/HTTPRequestDuration sample and
// an access-log line per request.
func Logging(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			duration := time.Since(start)
			status := statusLabel(rec.status)
			m.RecordHTTPRequest(r.Method, r.URL.Path, status, duration)
			logger.Info("request completed",
				"method", r.Method, "path", r.URL.Path,
				"status", rec.status, "duration_ms", duration.Milliseconds())
		})
	}
}

func statusLabel(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

// Chain applies middleware in the order given, so Chain(h, A, B)
// serves a request as A(B(h)).
func Chain(h http.Handler, mw ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	return h
}
