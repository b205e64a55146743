package dispatcher

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/angeloszaimis/multidomain/internal/domain"
)

// Route pairs a registered domain pattern with the handler serving it.
type Route struct {
	Pattern domain.Pattern
	Handler http.Handler
}

// RouteConfig is a domain pattern string and its handler, as supplied by the
// embedding application.
type RouteConfig struct {
	Domain  string
	Handler http.Handler
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithNotFound replaces the handler used when no route matches.
func WithNotFound(h http.Handler) Option {
	return func(d *Dispatcher) {
		if h != nil {
			d.notFound = h
		}
	}
}

// WithLogger sets the logger used for debug output about routing decisions.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// Dispatcher selects a handler by the request hostname.
type Dispatcher struct {
	routes   []Route
	byLen    map[int][]int // label count -> indices into routes, in order
	notFound http.Handler
	logger   *slog.Logger
}

// New creates a Dispatcher with the given routes registered in order.
func New(routes []RouteConfig, opts ...Option) (*Dispatcher, error) {
	d := &Dispatcher{
		byLen:    make(map[int][]int),
		notFound: http.HandlerFunc(NotFound),
		logger:   slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(d)
	}

	for i, rc := range routes {
		if err := d.AddRoute(rc.Domain, rc.Handler); err != nil {
			return nil, fmt.Errorf("route %d: %w", i, err)
		}
	}

	return d, nil
}

// AddRoute parses pattern and appends it with h to the routing table.
// On error the table is left unchanged. AddRoute must not be called while the
// dispatcher is serving requests.
func (d *Dispatcher) AddRoute(pattern string, h http.Handler) error {
	p, err := domain.NewPattern(pattern)
	if err != nil {
		return err
	}
	if h == nil {
		return &domain.ConfigurationError{Value: pattern, Reason: ErrNilHandler}
	}

	d.byLen[p.Len()] = append(d.byLen[p.Len()], len(d.routes))
	d.routes = append(d.routes, Route{Pattern: p, Handler: h})

	return nil
}

// Resolve returns the first registered route whose pattern matches host.
func (d *Dispatcher) Resolve(host string) (Route, bool) {
	key, err := domain.NewHostKey(host)
	if err != nil {
		return Route{}, false
	}

	for _, i := range d.byLen[key.Len()] {
		if d.routes[i].Pattern.Match(key) {
			return d.routes[i], true
		}
	}

	return Route{}, false
}

// Routes returns the routing table in priority order.
func (d *Dispatcher) Routes() []Route {
	out := make([]Route, len(d.routes))
	copy(out, d.routes)
	return out
}

// ServeHTTP hands the request to the first matching route's handler, or to
// the not-found handler.
func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	host, ok := Hostname(r)
	if !ok {
		d.logger.Debug("Request without hostname")
		d.notFound.ServeHTTP(w, r)
		return
	}

	route, ok := d.Resolve(host)
	if !ok {
		d.logger.Debug("No route for hostname", slog.String("host", host))
		d.notFound.ServeHTTP(w, r)
		return
	}

	d.logger.Debug("Dispatching request",
		slog.String("host", host),
		slog.String("route", route.Pattern.String()))

	route.Handler.ServeHTTP(w, r)
}
