package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	metricNamespace   = "multidomain"
	dispatchSubsystem = "dispatch"
	backendSubsystem  = "backend"
	configSubsystem   = "config"
)

// Outcomes recorded on the dispatch request counter.
const (
	OutcomeRouted   = "routed"
	OutcomeNotFound = "not_found"
)

var defaultBuckets = []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10}

// Prometheus exports dispatcher events as prometheus metrics on its own
// registry.
type Prometheus struct {
	registry             *prometheus.Registry
	dispatchRequests     *prometheus.CounterVec
	dispatchDuration     *prometheus.HistogramVec
	dispatchStatus       *prometheus.CounterVec
	backendUp            *prometheus.GaugeVec
	lastReloadSuccessful prometheus.Gauge
}

func NewPrometheus() *Prometheus {
	p := &Prometheus{
		registry: prometheus.NewRegistry(),

		dispatchRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricNamespace,
				Subsystem: dispatchSubsystem,
				Name:      "requests_total",
				Help:      "Count of dispatched requests by matched route and outcome.",
			},
			[]string{"route", "outcome"},
		),

		dispatchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricNamespace,
				Subsystem: dispatchSubsystem,
				Name:      "request_duration_seconds",
				Help:      "Time taken by the route's handler to serve a request.",
				Buckets:   defaultBuckets,
			},
			[]string{"route"},
		),

		dispatchStatus: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricNamespace,
				Subsystem: dispatchSubsystem,
				Name:      "responses_total",
				Help:      "Count of responses by route and HTTP status code.",
			},
			[]string{"route", "code"},
		),

		backendUp: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: metricNamespace,
				Subsystem: backendSubsystem,
				Name:      "up",
				Help:      "1 if the backend passed its last health check, else 0.",
			},
			[]string{"backend"},
		),

		lastReloadSuccessful: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricNamespace,
				Subsystem: configSubsystem,
				Name:      "last_reload_successful",
				Help:      "Whether the last configuration reload attempt was successful.",
			},
		),
	}

	p.registry.MustRegister(
		p.dispatchRequests,
		p.dispatchDuration,
		p.dispatchStatus,
		p.backendUp,
		p.lastReloadSuccessful,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return p
}

// Registry returns the registry holding the exported metrics.
func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}

// Observe records event.
func (p *Prometheus) Observe(event MetricEvent) {
	switch event.Type {
	case EventRouteMatched:
		p.dispatchRequests.WithLabelValues(event.Route, OutcomeRouted).Inc()

	case EventRouteNotFound:
		p.dispatchRequests.WithLabelValues("", OutcomeNotFound).Inc()

	case EventResponseCompleted:
		p.dispatchDuration.WithLabelValues(event.Route).Observe(event.Duration.Seconds())
		p.dispatchStatus.WithLabelValues(event.Route, strconv.Itoa(event.StatusCode)).Inc()

	case EventHealthChanged:
		p.backendUp.WithLabelValues(event.Backend).Set(boolToFloat(event.Healthy))

	case EventConfigReloaded:
		p.lastReloadSuccessful.Set(boolToFloat(event.Success))
	}
}

// Handler serves the registry in the prometheus exposition format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
