package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/pfrederiksen/concert-server/internal/logger"
	"github.com/pfrederiksen/concert-server/internal/metrics"
)

const requestIDHeader = "X-Request-ID"

// statusRecorder captures the status code written by a handler and whether
// the response has been started.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(p []byte) (int, error) {
	r.wroteHeader = true
	return r.ResponseWriter.Write(p)
}

// RequestID propagates an incoming X-Request-ID or assigns a new one.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
			r.Header.Set(requestIDHeader, id)
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

// Logging writes one access log line per request and records HTTP metrics.
func Logging(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			dur := time.Since(start)
			route := r.Pattern
			if route == "" {
				route = "unmatched"
			}
			m.ObserveHTTP(r.Method, route, rec.status, dur)

			reqLog := logger.Default().With(logger.Fields{"request_id": r.Header.Get(requestIDHeader)})
			reqLog.Info("Request served", logger.Fields{
				"method":      r.Method,
				"path":        r.URL.Path,
				"route":       route,
				"status":      rec.status,
				"duration_ms": float64(dur.Microseconds()) / 1000,
			})
		})
	}
}

// Recover turns handler panics into a JSON 500. A response that was already
// started is left as is.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		defer func() {
			if p := recover(); p != nil {
				logger.Error("Handler panic", logger.Fields{
					"request_id":   r.Header.Get(requestIDHeader),
					"path":         r.URL.Path,
					"wrote_header": rec.wroteHeader,
				}, fmt.Errorf("%v", p))
				if !rec.wroteHeader {
					writeError(w, http.StatusInternalServerError, "Internal Server Error", "internal error", "")
				}
			}
		}()
		next.ServeHTTP(rec, r)
	})
}
