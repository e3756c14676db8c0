package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	Registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Aggregator metrics
	RecomputesTotal   *prometheus.CounterVec
	RecomputeDuration *prometheus.HistogramVec
	ModelsActive      prometheus.Gauge

	// Screen metrics
	ScreenViews  *prometheus.CounterVec
	GrantChanges *prometheus.CounterVec

	// Device operation metrics
	DeviceCalls    *prometheus.CounterVec
	DeviceDuration *prometheus.HistogramVec

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	startTime time.Time

	// Snapshot for JSON API - track current values
	snapshot Snapshot

	mu sync.RWMutex
}

// Snapshot holds current metric values for the JSON stats endpoint
type Snapshot struct {
	TotalRequests     int64   `json:"total_requests"`
	TotalErrors       int64   `json:"total_errors"`
	TotalRecomputes   int64   `json:"total_recomputes"`
	TotalScreenViews  int64   `json:"total_screen_views"`
	ActiveModels      int64   `json:"active_models"`
	ActiveConnections int64   `json:"active_connections"`
	AvgRequestSeconds float64 `json:"avg_request_seconds"`
	UptimeSeconds     float64 `json:"uptime_seconds"`

	totalDuration float64
}

// NewMetrics creates a metrics collector on its own registry
func NewMetrics() *Metrics {
	return NewMetricsWithRegistry(prometheus.NewRegistry())
}

// NewMetricsWithRegistry creates a metrics collector registered on reg
func NewMetricsWithRegistry(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{
		Registry:  reg,
		startTime: time.Now(),

		// HTTP metrics
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "permcontroller_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "permcontroller_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "permcontroller_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),

		// Aggregator metrics
		RecomputesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "permcontroller_recomputes_total",
				Help: "Total number of categorized view recomputes",
			},
			[]string{"group"},
		),
		RecomputeDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "permcontroller_recompute_duration_seconds",
				Help:    "Categorized view recompute duration in seconds",
				Buckets: []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05},
			},
			[]string{"group"},
		),
		ModelsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "permcontroller_models_active",
				Help: "Number of permission group models",
			},
		),

		// Screen metrics
		ScreenViews: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "permcontroller_screen_views_total",
				Help: "Total number of logged app rows on permission group screens",
			},
			[]string{"group", "category"},
		),
		GrantChanges: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "permcontroller_grant_changes_total",
				Help: "Total number of grant state changes",
			},
			[]string{"group", "state"},
		),

		// Device operation metrics
		DeviceCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "permcontroller_device_calls_total",
				Help: "Total number of device operations",
			},
			[]string{"operation", "status"},
		),
		DeviceDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "permcontroller_device_duration_seconds",
				Help:    "Device operation duration in seconds",
				Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1},
			},
			[]string{"operation"},
		),

		// WebSocket metrics
		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "permcontroller_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "permcontroller_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),
	}

	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "permcontroller_uptime_seconds",
			Help: "Controller uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.totalDuration += duration.Seconds()
	if status != "" && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordRecompute implements permapps.Recorder
func (m *Metrics) RecordRecompute(group string, duration time.Duration) {
	m.RecomputesTotal.WithLabelValues(group).Inc()
	m.RecomputeDuration.WithLabelValues(group).Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.TotalRecomputes++
	m.mu.Unlock()
}

// RecordScreenView implements telemetry.Recorder
func (m *Metrics) RecordScreenView(group, category string) {
	m.ScreenViews.WithLabelValues(group, category).Inc()

	m.mu.Lock()
	m.snapshot.TotalScreenViews++
	m.mu.Unlock()
}

// RecordGrantChange records a grant state change made through the API
func (m *Metrics) RecordGrantChange(group, state string) {
	m.GrantChanges.WithLabelValues(group, state).Inc()
}

// RecordDeviceCall records a device operation
func (m *Metrics) RecordDeviceCall(operation, status string, duration time.Duration) {
	m.DeviceCalls.WithLabelValues(operation, status).Inc()
	m.DeviceDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// SetModelsActive sets the number of permission group models
func (m *Metrics) SetModelsActive(count int) {
	m.ModelsActive.Set(float64(count))
	m.mu.Lock()
	m.snapshot.ActiveModels = int64(count)
	m.mu.Unlock()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
	m.mu.Lock()
	m.snapshot.ActiveConnections++
	m.mu.Unlock()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
	m.mu.Lock()
	m.snapshot.ActiveConnections--
	m.mu.Unlock()
}

// Snapshot returns the current values for the JSON stats endpoint
func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	s := m.snapshot
	m.mu.RUnlock()

	if s.TotalRequests > 0 {
		s.AvgRequestSeconds = s.totalDuration / float64(s.TotalRequests)
	}
	s.UptimeSeconds = time.Since(m.startTime).Seconds()
	return s
}
