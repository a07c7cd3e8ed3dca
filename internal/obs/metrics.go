package obs

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns its registry so tests and commands never collide on the
// default one.
type Metrics struct {
	registry *prometheus.Registry
	started  time.Time

	httpInFlight     prometheus.Gauge
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	callsTotal       *prometheus.CounterVec
	callDuration     *prometheus.HistogramVec
	govSyncTotal     *prometheus.CounterVec
	govSyncDuration  *prometheus.HistogramVec
	tenantResolution *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		started:  time.Now(),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_in_flight_requests",
			Help: "In-flight HTTP requests.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "route_class", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route_class"}),
		callsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "unifiedapi_requests_total",
			Help: "Unified API calls by domain, role and outcome.",
		}, []string{"domain", "role", "success"}),
		callDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "unifiedapi_request_duration_seconds",
			Help:    "Unified API call latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"domain"}),
		govSyncTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "government_sync_total",
			Help: "Government adapter sync runs by adapter and outcome.",
		}, []string{"adapter", "success"}),
		govSyncDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "government_sync_duration_seconds",
			Help:    "Government adapter sync latencies in seconds.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"adapter"}),
		tenantResolution: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tenant_resolutions_total",
			Help: "Tenant resolutions by mode.",
		}, []string{"mode"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpInFlight, m.httpRequests, m.httpDuration,
		m.callsTotal, m.callDuration,
		m.govSyncTotal, m.govSyncDuration,
		m.tenantResolution,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveCall(domain string, role string, success bool, d time.Duration) {
	m.callsTotal.WithLabelValues(domain, role, strconv.FormatBool(success)).Inc()
	m.callDuration.WithLabelValues(domain).Observe(d.Seconds())
}

func (m *Metrics) ObserveSync(adapter string, success bool, d time.Duration) {
	m.govSyncTotal.WithLabelValues(adapter, strconv.FormatBool(success)).Inc()
	m.govSyncDuration.WithLabelValues(adapter).Observe(d.Seconds())
}

func (m *Metrics) ObserveTenantResolution(mode string) {
	m.tenantResolution.WithLabelValues(mode).Inc()
}

// Instrument records HTTP traffic. classify maps a request to a bounded
// label (route class) so raw paths never become label values.
func (m *Metrics) Instrument(classify func(*http.Request) string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		class := "unknown"
		if classify != nil {
			class = classify(r)
		}
		m.httpInFlight.Inc()
		defer m.httpInFlight.Dec()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)

		m.httpDuration.WithLabelValues(r.Method, class).Observe(time.Since(start).Seconds())
		m.httpRequests.WithLabelValues(r.Method, class, strconv.Itoa(sw.code)).Inc()
	})
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
