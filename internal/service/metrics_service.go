package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the API and the
// topology resolver.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	resolveDuration *prometheus.HistogramVec
	resolveTotal    *prometheus.CounterVec
	overrideTotal   prometheus.Counter
	forecastErrors  prometheus.Counter
}

// NewMetricsService registers the collectors on a fresh registry.
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

	resolveDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "topology_resolve_duration_seconds",
		Help:    "Duration of topology resolution passes",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})

	resolveTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "topology_resolve_total",
		Help: "Total topology resolution requests by outcome",
	}, []string{"outcome"})

	overrideTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mapping_overrides_total",
		Help: "Total manual candidate overrides applied",
	})

	forecastErrors := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "forecast_collaborator_errors_total",
		Help: "Total failed calls to the forecast collaborator",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, resolveDuration, resolveTotal, overrideTotal, forecastErrors, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		resolveDuration: resolveDuration,
		resolveTotal:    resolveTotal,
		overrideTotal:   overrideTotal,
		forecastErrors:  forecastErrors,
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

// ObserveHTTPRequest records one request.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveResolve records one resolution pass; outcome is "ok", "infeasible"
// or "error".
func (m *MetricsService) ObserveResolve(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.resolveDuration.WithLabelValues(outcome).Observe(duration.Seconds())
	m.resolveTotal.WithLabelValues(outcome).Inc()
}

// RecordOverride counts one applied override.
func (m *MetricsService) RecordOverride() {
	if m == nil {
		return
	}
	m.overrideTotal.Inc()
}

// RecordForecastError counts one failed collaborator call.
func (m *MetricsService) RecordForecastError() {
	if m == nil {
		return
	}
	m.forecastErrors.Inc()
}
