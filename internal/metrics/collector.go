package metrics

import (
	"context"
	"log/slog"
	"time"
)

type EventType string

const (
	EventRouteMatched      EventType = "route_matched"
	EventRouteNotFound     EventType = "route_not_found"
	EventResponseCompleted EventType = "response_completed"
	EventHealthChanged     EventType = "health_changed"
	EventConfigReloaded    EventType = "config_reloaded"
)

// MetricEvent describes something that happened while serving. Only the
// fields relevant to Type are set.
type MetricEvent struct {
	Type       EventType
	Timestamp  time.Time
	Route      string
	Host       string
	Backend    string
	Duration   time.Duration
	StatusCode int
	Healthy    bool
	Success    bool
}

// Collector aggregates events off the request path in its own goroutine.
type Collector struct {
	eventCh    chan MetricEvent
	metrics    *Metrics
	prometheus *Prometheus
	logger     *slog.Logger
}

// NewCollector creates a collector buffering up to bufferSize events. exporter
// may be nil.
func NewCollector(bufferSize int, logger *slog.Logger, exporter *Prometheus) *Collector {
	return &Collector{
		eventCh:    make(chan MetricEvent, bufferSize),
		metrics:    NewMetrics(),
		prometheus: exporter,
		logger:     logger,
	}
}

func (c *Collector) EventChannel() chan<- MetricEvent {
	return c.eventCh
}

// Emit queues event without blocking. Events are dropped when the buffer is
// full.
func (c *Collector) Emit(event MetricEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case c.eventCh <- event:
	default:
	}
}

func (c *Collector) Start(ctx context.Context) {
	go c.run(ctx)
}

func (c *Collector) run(ctx context.Context) {
	c.logger.Info("Metrics collector started")
	defer c.logger.Info("Metrics collector stopped")

	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		case <-ctx.Done():
			// Drain remaining events before shutdown
			c.drain()
			return
		}
	}
}

func (c *Collector) processEvent(event MetricEvent) {
	switch event.Type {
	case EventRouteMatched:
		c.metrics.IncrementRequests(event.Route)

	case EventRouteNotFound:
		c.metrics.RecordNotFound(event.Host)

	case EventResponseCompleted:
		c.metrics.RecordResponse(event.Route, event.Duration, event.StatusCode)

	case EventHealthChanged:
		c.metrics.UpdateHealthStatus(event.Backend, event.Healthy)

	case EventConfigReloaded:
		c.metrics.RecordReload(event.Success, event.Timestamp)
	}

	if c.prometheus != nil {
		c.prometheus.Observe(event)
	}
}

func (c *Collector) drain() {
	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		default:
			return
		}
	}
}

func (c *Collector) Snapshot() Snapshot {
	return c.metrics.Snapshot()
}
