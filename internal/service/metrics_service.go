package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/terra-erp-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation for the API.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	decisionTotal   *prometheus.CounterVec
	submitTotal     prometheus.Counter
	applyFailures   prometheus.Counter
	unbalancedTotal prometheus.Counter
	balanceChecks   prometheus.Counter
	pendingGauge    prometheus.Gauge
}

// NewMetricsService registers the collectors on a private registry.
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

	decisionTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "approval_decisions_total",
		Help: "Approval review outcomes by resulting status",
	}, []string{"status"})

	submitTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "approval_submissions_total",
		Help: "Approval requests submitted",
	})

	applyFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "approval_apply_failures_total",
		Help: "Approved changes whose application failed and was reverted",
	})

	unbalancedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "journal_unbalanced_entries_total",
		Help: "Journal submissions rejected for debit/credit imbalance",
	})

	balanceChecks := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "journal_balance_checks_total",
		Help: "Balance checks performed",
	})

	pendingGauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "approval_pending_requests",
		Help: "Approval requests currently pending review",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, decisionTotal, submitTotal, applyFailures, unbalancedTotal, balanceChecks, pendingGauge, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		decisionTotal:   decisionTotal,
		submitTotal:     submitTotal,
		applyFailures:   applyFailures,
		unbalancedTotal: unbalancedTotal,
		balanceChecks:   balanceChecks,
		pendingGauge:    pendingGauge,
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

// ObserveHTTPRequest records per-route request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordApprovalSubmission counts a newly queued request.
func (m *MetricsService) RecordApprovalSubmission() {
	if m == nil {
		return
	}
	m.submitTotal.Inc()
}

// RecordApprovalDecision counts a review outcome.
func (m *MetricsService) RecordApprovalDecision(status models.ApprovalStatus) {
	if m == nil {
		return
	}
	m.decisionTotal.WithLabelValues(string(status)).Inc()
}

// RecordApplyFailure counts a reverted approval.
func (m *MetricsService) RecordApplyFailure() {
	if m == nil {
		return
	}
	m.applyFailures.Inc()
}

// RecordBalanceCheck counts a balance evaluation and its outcome.
func (m *MetricsService) RecordBalanceCheck(balanced bool) {
	if m == nil {
		return
	}
	m.balanceChecks.Inc()
	if !balanced {
		m.unbalancedTotal.Inc()
	}
}

// SetPendingRequests updates the pending-queue depth gauge.
func (m *MetricsService) SetPendingRequests(count int) {
	if m == nil {
		return
	}
	m.pendingGauge.Set(float64(count))
}
