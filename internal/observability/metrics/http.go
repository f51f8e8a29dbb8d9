package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	conflictsOpenedTotal   *prometheus.CounterVec
	conflictsResolvedTotal *prometheus.CounterVec
	leaseConfidence        *prometheus.HistogramVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "leaselens",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "leaselens",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "leaselens",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	conflictsOpenedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "leaselens",
			Subsystem: "reconcile",
			Name:      "conflicts_opened_total",
			Help:      "Total conflicts opened by rescans, by category and severity.",
		},
		[]string{"service", "category", "severity"},
	)
	conflictsResolvedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "leaselens",
			Subsystem: "reconcile",
			Name:      "conflicts_resolved_total",
			Help:      "Total conflict lifecycle decisions, by terminal status.",
		},
		[]string{"service", "status"},
	)
	leaseConfidence := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "leaselens",
			Subsystem: "reconcile",
			Name:      "lease_confidence",
			Help:      "Distribution of lease confidence scores at reconciliation.",
			Buckets:   []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
		},
		[]string{"service"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		conflictsOpenedTotal,
		conflictsResolvedTotal,
		leaseConfidence,
	)

	return &HTTPServerMetrics{
		registry:               registry,
		requestTotal:           requestTotal,
		requestDuration:        requestDuration,
		requestInFlight:        requestInFlight,
		conflictsOpenedTotal:   conflictsOpenedTotal,
		conflictsResolvedTotal: conflictsResolvedTotal,
		leaseConfidence:        leaseConfidence,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/leases/"):
		return "/v1/leases/{lease_id}"
	case strings.HasPrefix(path, "/v1/conflicts/"):
		return "/v1/conflicts/{conflict_id}"
	case strings.HasPrefix(path, "/v1/documents/"):
		return "/v1/documents/{document_id}"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) RecordConflictOpened(service, category, severity string) {
	m.conflictsOpenedTotal.WithLabelValues(service, category, severity).Inc()
}

func (m *HTTPServerMetrics) RecordConflictDecision(service, status string) {
	m.conflictsResolvedTotal.WithLabelValues(service, status).Inc()
}

func (m *HTTPServerMetrics) ObserveLeaseConfidence(service string, confidence float64) {
	m.leaseConfidence.WithLabelValues(service).Observe(confidence)
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}
