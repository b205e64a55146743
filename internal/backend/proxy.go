package backend

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"sync"

	"github.com/angeloszaimis/multidomain/internal/circuitbreaker"
)

// Backend is an upstream application reachable over HTTP.
type Backend struct {
	url       *url.URL
	proxy     *httputil.ReverseProxy
	breaker   *circuitbreaker.CircuitBreaker
	logger    *slog.Logger
	mutex     sync.Mutex
	isHealthy bool
}

// New creates a Backend proxying to u. The backend starts healthy. breaker
// may be nil to disable circuit breaking.
func New(u *url.URL, breaker *circuitbreaker.CircuitBreaker, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	b := &Backend{
		url:       u,
		breaker:   breaker,
		logger:    logger,
		isHealthy: true,
	}

	proxy := httputil.NewSingleHostReverseProxy(u)
	proxy.ModifyResponse = b.recordUpstream
	proxy.ErrorHandler = b.handleProxyError
	b.proxy = proxy

	return b
}

// URL returns the upstream URL.
func (b *Backend) URL() *url.URL {
	return b.url
}

// IsHealthy returns true if the backend is currently healthy.
func (b *Backend) IsHealthy() bool {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.isHealthy
}

// SetHealthy updates the backend's health status.
// Returns true if the status changed, false if it was already in that state.
func (b *Backend) SetHealthy(healthy bool) (changed bool) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if b.isHealthy == healthy {
		return false
	}

	b.isHealthy = healthy
	return true
}

func (b *Backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !b.IsHealthy() {
		http.Error(w, "Backend unavailable", http.StatusServiceUnavailable)
		return
	}

	if b.breaker != nil && !b.breaker.Allow() {
		b.logger.Warn("Circuit open, rejecting request",
			slog.String("backend", b.url.String()),
			slog.String("host", r.Host))
		http.Error(w, "Backend unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("X-Backend-Server", b.url.String())
	b.proxy.ServeHTTP(w, r)
}

func (b *Backend) recordUpstream(res *http.Response) error {
	if b.breaker == nil {
		return nil
	}

	if res.StatusCode >= http.StatusInternalServerError {
		b.breaker.RecordFailure()
	} else {
		b.breaker.RecordSuccess()
	}
	return nil
}

func (b *Backend) handleProxyError(w http.ResponseWriter, r *http.Request, err error) {
	// A client hanging up says nothing about the upstream.
	if errors.Is(err, context.Canceled) {
		if b.breaker != nil {
			b.breaker.Release()
		}
		w.WriteHeader(http.StatusBadGateway)
		return
	}

	if b.breaker != nil {
		b.breaker.RecordFailure()
	}

	b.logger.Error("Upstream request failed",
		slog.String("backend", b.url.String()),
		slog.String("host", r.Host),
		slog.Any("err", err))

	w.WriteHeader(http.StatusBadGateway)
}
