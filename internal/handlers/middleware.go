package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/jonboulle/clockwork"

	"climate-api/pkg/logging"
	"climate-api/pkg/metrics"
)

// RequestIDHeader carries the request id in both directions
const RequestIDHeader = "X-Request-ID"

// Middleware holds the cross-cutting HTTP concerns
type Middleware struct {
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
	clock   clockwork.Clock
}

// NewMiddleware creates the request middleware chain
func NewMiddleware(logger *logging.StructuredLogger, metricsCollector *metrics.Collector, clock clockwork.Clock) *Middleware {
	return &Middleware{
		logger:  logger,
		metrics: metricsCollector,
		clock:   clock,
	}
}

// Register installs the middleware on router in execution order
func (m *Middleware) Register(router *mux.Router) {
	router.Use(m.RequestID, m.Instrument, m.Recover)
}

// RequestID propagates an incoming X-Request-ID or assigns a new one
func (m *Middleware) RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logging.WithRequestID(r.Context(), id)))
	})
}

// Recover turns a handler panic into a 500 response
func (m *Middleware) Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				endpoint := routeTemplate(r)
				m.logger.Error(r.Context(), "[API_PANIC] Handler panicked", logging.Fields{
					"endpoint": endpoint,
				}, fmt.Errorf("panic: %v", rec))
				m.metrics.RecordAPIError("panic", endpoint)
				writeError(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// Instrument records request count, duration and an access log line. Routes
// are labelled by their template so /api/v1.0/{start} is one series.
func (m *Middleware) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		endpoint := routeTemplate(r)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		timer := metrics.NewTimer(m.metrics.APIRequestDuration.WithLabelValues(endpoint), m.clock.Now)

		next.ServeHTTP(rec, r)

		duration := timer.ObserveDuration()
		m.metrics.RecordAPIRequest(endpoint, r.Method, strconv.Itoa(rec.status))

		m.logger.Info(r.Context(), "[API_REQUEST] Request served", logging.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"endpoint":    endpoint,
			"status":      rec.status,
			"bytes":       rec.bytes,
			"duration_ms": duration.Milliseconds(),
		})
	})
}

// routeTemplate returns the matched route template, or the raw path when
// no route matched
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return r.URL.Path
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	bytes       int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}
