package handler

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/angeloszaimis/multidomain/internal/dispatcher"
	"github.com/angeloszaimis/multidomain/internal/metrics"
)

// RouteHandler logs and measures requests dispatched to one route. The zero
// route name marks the not-found fallback.
type RouteHandler struct {
	logger           *slog.Logger
	route            string
	next             http.Handler
	metricsCollector *metrics.Collector
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

// NewRouteHandler wraps next, the handler registered for route. collector may
// be nil.
func NewRouteHandler(logger *slog.Logger, route string, next http.Handler, collector *metrics.Collector) *RouteHandler {
	return &RouteHandler{
		logger:           logger,
		route:            route,
		next:             next,
		metricsCollector: collector,
	}
}

// NewNotFoundHandler wraps the dispatcher's not-found responder.
func NewNotFoundHandler(logger *slog.Logger, collector *metrics.Collector) *RouteHandler {
	return NewRouteHandler(logger, "", http.HandlerFunc(dispatcher.NotFound), collector)
}

func (h *RouteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	clientIP := extractClientIP(r)
	host, _ := dispatcher.Hostname(r)

	if h.route == "" {
		h.logger.Info("No route for host",
			slog.String("from", clientIP),
			slog.String("host", r.Host),
			slog.String("path", r.URL.Path))

		h.emitEvent(metrics.MetricEvent{
			Type: metrics.EventRouteNotFound,
			Host: host,
		})

		h.next.ServeHTTP(w, r)
		return
	}

	h.logger.Info("Received request",
		slog.String("from", clientIP),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("proto", r.Proto),
		slog.String("host", r.Host),
		slog.String("route", h.route),
		slog.String("user_agent", r.UserAgent()))

	h.emitEvent(metrics.MetricEvent{
		Type:  metrics.EventRouteMatched,
		Route: h.route,
		Host:  host,
	})

	start := time.Now()
	wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
	h.next.ServeHTTP(wrapped, r)
	duration := time.Since(start)

	h.logger.Debug("Request completed",
		slog.String("route", h.route),
		slog.Int("status", wrapped.statusCode),
		slog.Duration("duration", duration))

	h.emitEvent(metrics.MetricEvent{
		Type:       metrics.EventResponseCompleted,
		Route:      h.route,
		Host:       host,
		Duration:   duration,
		StatusCode: wrapped.statusCode,
	})
}

func extractClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (h *RouteHandler) emitEvent(event metrics.MetricEvent) {
	if h.metricsCollector == nil {
		return
	}
	event.Timestamp = time.Now()
	h.metricsCollector.Emit(event)
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.statusCode = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if !r.wroteHeader {
		r.wroteHeader = true
	}
	return r.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Flush forwards to the underlying writer so streamed upstream responses are
// not buffered.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
