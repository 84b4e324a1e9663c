package obs

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bookingrule/internal/app/bookingwindow"
	"bookingrule/internal/app/policies"
)

// Metrics owns a private registry with the validator and HTTP collectors.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	outcomes        *prometheus.CounterVec
	warnings        *prometheus.CounterVec
	blockedSetSize  prometheus.Histogram
	requestDuration *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bookingrule_outcomes_total",
		Help: "Validation outcomes by kind",
	}, []string{"kind"})
	warnings := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bookingrule_warnings_total",
		Help: "Warnings shown to customers by kind",
	}, []string{"kind"})
	blocked := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "bookingrule_blocked_dates",
		Help:    "Size of the blocked date set per availability check",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	})
	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bookingrule_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
	registry.MustRegister(outcomes, warnings, blocked, requestDuration, prometheus.NewGoCollector())

	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		outcomes:        outcomes,
		warnings:        warnings,
		blockedSetSize:  blocked,
		requestDuration: requestDuration,
	}
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

func (m *Metrics) OutcomeRecorded(kind bookingwindow.OutcomeKind) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) WarningShown(kind policies.WarningKind) {
	if m == nil {
		return
	}
	m.warnings.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) BlockedSetSize(n int) {
	if m == nil {
		return
	}
	m.blockedSetSize.Observe(float64(n))
}

func (m *Metrics) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(method, path, strconv.Itoa(status)).Observe(duration.Seconds())
}

var _ bookingwindow.Metrics = (*Metrics)(nil)
