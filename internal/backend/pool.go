package backend

import (
	"fmt"
	"log/slog"
	"net/url"
	"sync"

	"github.com/angeloszaimis/multidomain/internal/circuitbreaker"
)

// Pool shares one Backend between every route pointing at the same upstream
// URL.
type Pool struct {
	mutex    sync.Mutex
	backends map[string]*Backend
	order    []string
	breakers *circuitbreaker.Registry
	logger   *slog.Logger
}

// NewPool creates an empty pool. breakers may be nil.
func NewPool(breakers *circuitbreaker.Registry, logger *slog.Logger) *Pool {
	return &Pool{
		backends: make(map[string]*Backend),
		breakers: breakers,
		logger:   logger,
	}
}

// Get returns the backend for rawURL, creating it on first use.
func (p *Pool) Get(rawURL string) (*Backend, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse backend url %q: %w", rawURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("backend url %q must be absolute", rawURL)
	}

	key := u.String()

	p.mutex.Lock()
	defer p.mutex.Unlock()

	if b, ok := p.backends[key]; ok {
		return b, nil
	}

	var cb *circuitbreaker.CircuitBreaker
	if p.breakers != nil {
		cb = p.breakers.GetBreaker(key)
	}

	b := New(u, cb, p.logger)
	p.backends[key] = b
	p.order = append(p.order, key)
	return b, nil
}

// Backends returns every backend in the order they were first requested.
func (p *Pool) Backends() []*Backend {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	out := make([]*Backend, 0, len(p.order))
	for _, key := range p.order {
		out = append(out, p.backends[key])
	}
	return out
}

// InheritHealth copies the health of every backend prev also holds, so a
// backend known to be down stays down in the new pool.
func (p *Pool) InheritHealth(prev *Pool) {
	if prev == nil || prev == p {
		return
	}

	prev.mutex.Lock()
	health := make(map[string]bool, len(prev.backends))
	for key, b := range prev.backends {
		health[key] = b.IsHealthy()
	}
	prev.mutex.Unlock()

	p.mutex.Lock()
	defer p.mutex.Unlock()

	for key, b := range p.backends {
		if healthy, ok := health[key]; ok {
			b.SetHealthy(healthy)
		}
	}
}

// URLs returns the keys of every backend in the pool.
func (p *Pool) URLs() []string {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	out := make([]string, len(p.order))
	copy(out, p.order)
	return out
}
