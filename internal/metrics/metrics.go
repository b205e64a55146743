package metrics

import (
	"sort"
	"sync"
	"time"
)

const (
	maxSamples = 1000
	// Distinct unmatched hosts kept before the rest are folded into otherHosts.
	maxNotFoundHosts = 1000

	noHost     = "<none>"
	otherHosts = "<other>"
)

type Metrics struct {
	mutex         sync.RWMutex
	requests      map[string]int64
	responseTimes map[string][]time.Duration
	statusCodes   map[string]map[int]int64
	notFound      map[string]int64
	healthStatus  map[string]bool
	reloads       int64
	failedReloads int64
	lastReload    time.Time
	lastReloadOK  bool
	startTime     time.Time
}

type Snapshot struct {
	TotalRequests int64                   `json:"total_requests"`
	NotFound      int64                   `json:"not_found"`
	Uptime        time.Duration           `json:"uptime"`
	Routes        map[string]RouteMetrics `json:"routes"`
	NotFoundHosts map[string]int64        `json:"not_found_hosts"`
	Backends      map[string]bool         `json:"backends"`
	Reloads       ReloadMetrics           `json:"reloads"`
}

type RouteMetrics struct {
	Requests    int64         `json:"requests"`
	AvgResponse time.Duration `json:"avg_response"`
	P50Response time.Duration `json:"p50_response"`
	P95Response time.Duration `json:"p95_response"`
	P99Response time.Duration `json:"p99_response"`
	StatusCodes map[int]int64 `json:"status_codes"`
}

type ReloadMetrics struct {
	Total      int64     `json:"total"`
	Failed     int64     `json:"failed"`
	Last       time.Time `json:"last,omitempty"`
	LastFailed bool      `json:"last_failed"`
}

func NewMetrics() *Metrics {
	return &Metrics{
		requests:      make(map[string]int64),
		responseTimes: make(map[string][]time.Duration),
		statusCodes:   make(map[string]map[int]int64),
		notFound:      make(map[string]int64),
		healthStatus:  make(map[string]bool),
		startTime:     time.Now(),
	}
}

func (m *Metrics) IncrementRequests(route string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.requests[route]++
}

func (m *Metrics) RecordNotFound(host string) {
	if host == "" {
		host = noHost
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, ok := m.notFound[host]; !ok && len(m.notFound) >= maxNotFoundHosts {
		host = otherHosts
	}
	m.notFound[host]++
}

func (m *Metrics) RecordResponse(route string, duration time.Duration, statusCode int) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.responseTimes[route] = append(m.responseTimes[route], duration)

	if len(m.responseTimes[route]) > maxSamples {
		m.responseTimes[route] = m.responseTimes[route][1:]
	}

	if m.statusCodes[route] == nil {
		m.statusCodes[route] = make(map[int]int64)
	}
	m.statusCodes[route][statusCode]++
}

func (m *Metrics) UpdateHealthStatus(backend string, healthy bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.healthStatus[backend] = healthy
}

func (m *Metrics) RecordReload(success bool, at time.Time) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.reloads++
	if !success {
		m.failedReloads++
	}
	m.lastReload = at
	m.lastReloadOK = success
}

func (m *Metrics) Snapshot() Snapshot {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	snap := Snapshot{
		Uptime:        time.Since(m.startTime),
		Routes:        make(map[string]RouteMetrics),
		NotFoundHosts: make(map[string]int64, len(m.notFound)),
		Backends:      make(map[string]bool, len(m.healthStatus)),
		Reloads: ReloadMetrics{
			Total:      m.reloads,
			Failed:     m.failedReloads,
			Last:       m.lastReload,
			LastFailed: m.reloads > 0 && !m.lastReloadOK,
		},
	}

	allRoutes := make(map[string]bool)
	for route := range m.requests {
		allRoutes[route] = true
	}
	for route := range m.responseTimes {
		allRoutes[route] = true
	}

	for route := range allRoutes {
		snap.TotalRequests += m.requests[route]

		rm := RouteMetrics{
			Requests:    m.requests[route],
			StatusCodes: make(map[int]int64, len(m.statusCodes[route])),
		}
		for code, n := range m.statusCodes[route] {
			rm.StatusCodes[code] = n
		}

		durations := m.responseTimes[route]
		if len(durations) > 0 {
			sorted := make([]time.Duration, len(durations))
			copy(sorted, durations)
			sort.Slice(sorted, func(i, j int) bool {
				return sorted[i] < sorted[j]
			})

			rm.AvgResponse = average(sorted)
			rm.P50Response = percentile(sorted, 0.50)
			rm.P95Response = percentile(sorted, 0.95)
			rm.P99Response = percentile(sorted, 0.99)
		}

		snap.Routes[route] = rm
	}

	for host, n := range m.notFound {
		snap.NotFound += n
		snap.NotFoundHosts[host] = n
	}
	snap.TotalRequests += snap.NotFound

	for backend, healthy := range m.healthStatus {
		snap.Backends[backend] = healthy
	}

	return snap
}

func average(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}

	var sum time.Duration
	for _, d := range durations {
		sum += d
	}

	return sum / time.Duration(len(durations))
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}

	index := int(float64(len(sorted)) * p)
	if index >= len(sorted) {
		index = len(sorted) - 1
	}

	return sorted[index]
}
