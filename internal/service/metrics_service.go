package service

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	dbQueryDuration *prometheus.HistogramVec
	verifications   *prometheus.CounterVec
	issuance        *prometheus.CounterVec
}

// NewMetricsService registers the service collectors.
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

	dbQueryDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of database operations in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	verifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pass_verifications_total",
		Help: "Pass verification attempts by outcome",
	}, []string{"result"})

	issuance := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pass_issuance_total",
		Help: "Pass issuance batch items by status",
	}, []string{"status"})

	registry.MustRegister(requestDuration, requestTotal, dbQueryDuration, verifications, issuance)
	registry.MustRegister(prometheus.NewGoCollector())

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		dbQueryDuration: dbQueryDuration,
		verifications:   verifications,
		issuance:        issuance,
	}
}

// Handler exposes the scrape endpoint.
func (m *MetricsService) Handler() http.Handler {
	return m.handler
}

// ObserveHTTPRequest records a completed HTTP request.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	labels := []string{method, path, fmt.Sprintf("%d", status)}
	m.requestDuration.WithLabelValues(labels...).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(labels...).Inc()
}

// ObserveDBQuery records a database operation timing.
func (m *MetricsService) ObserveDBQuery(operation string, duration time.Duration) {
	m.dbQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// CountVerification records a scan outcome: accepted, already_used,
// invalid or error.
func (m *MetricsService) CountVerification(result string) {
	m.verifications.WithLabelValues(result).Inc()
}

// CountIssuance records a batch item outcome: success, skipped or failed.
func (m *MetricsService) CountIssuance(status string) {
	m.issuance.WithLabelValues(status).Inc()
}
