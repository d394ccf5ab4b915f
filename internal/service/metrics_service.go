package service

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService owns the Prometheus registry for HTTP traffic, collection
// saves and report exports.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	persistDuration *prometheus.HistogramVec
	persistFailures *prometheus.CounterVec
	exportsTotal    *prometheus.CounterVec
}

// NewMetricsService registers the collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	persistDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gradebook_persist_duration_seconds",
		Help:    "Time spent writing one collection document to the storage sink",
		Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"collection"})

	persistFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gradebook_persist_failures_total",
		Help: "Collection saves rejected by the storage sink",
	}, []string{"collection"})

	exportsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gradebook_exports_total",
		Help: "Rendered report files by kind and format",
	}, []string{"kind", "format"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, persistDuration, persistFailures, exportsTotal, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		persistDuration: persistDuration,
		persistFailures: persistFailures,
		exportsTotal:    exportsTotal,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records one served request.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObservePersist records one collection save; it satisfies repository.PersistObserver.
func (m *MetricsService) ObservePersist(collection string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.persistDuration.WithLabelValues(collection).Observe(duration.Seconds())
	if err != nil {
		m.persistFailures.WithLabelValues(collection).Inc()
	}
}

// ObserveExport counts a stored report file.
func (m *MetricsService) ObserveExport(kind, format string) {
	if m == nil {
		return
	}
	m.exportsTotal.WithLabelValues(kind, format).Inc()
}
