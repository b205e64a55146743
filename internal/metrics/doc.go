// Package metrics collects per-route dispatch statistics.
//
// Route handlers emit events into a buffered channel without blocking; a
// collector goroutine aggregates them:
//   - Requests per matched route pattern
//   - Response times with percentile calculations (P50, P95, P99)
//   - HTTP status code distribution per route
//   - Unmatched hosts that got the not-found response
//   - Backend health transitions and configuration reloads
//
// Example usage:
//
//	collector := metrics.NewCollector(1000, logger, metrics.NewPrometheus())
//	collector.Start(ctx)
//
//	collector.Emit(metrics.MetricEvent{
//		Type:       metrics.EventResponseCompleted,
//		Route:      "*.example.com",
//		Duration:   150 * time.Millisecond,
//		StatusCode: 200,
//	})
//
//	snapshot := collector.Snapshot()
//
// The same events feed the optional Prometheus exporter, served on its own
// registry. On shutdown the collector drains queued events before exiting.
package metrics
