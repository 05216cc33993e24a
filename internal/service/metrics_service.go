package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the portal.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	mailQueued      *prometheus.CounterVec
	remindersSent   prometheus.Counter
	statusUpdates   *prometheus.CounterVec
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
}

// NewMetricsService registers core Prometheus collectors.
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

	mailQueued := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mail_jobs_queued_total",
		Help: "Total notification emails placed on the delivery queue",
	}, []string{"type"})

	remindersSent := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "event_reminders_sent_total",
		Help: "Total event reminder emails dispatched",
	})

	statusUpdates := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "event_status_transitions_total",
		Help: "Automatic event status transitions applied",
	}, []string{"to"})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, mailQueued, remindersSent, statusUpdates, cacheHits, cacheMisses, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		mailQueued:      mailQueued,
		remindersSent:   remindersSent,
		statusUpdates:   statusUpdates,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
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

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordMailQueued counts a notification placed on the delivery queue.
func (m *MetricsService) RecordMailQueued(jobType string) {
	if m == nil {
		return
	}
	m.mailQueued.WithLabelValues(jobType).Inc()
}

// RecordReminderSent counts a dispatched event reminder.
func (m *MetricsService) RecordReminderSent() {
	if m == nil {
		return
	}
	m.remindersSent.Inc()
}

// RecordStatusTransition counts an automatic event status change.
func (m *MetricsService) RecordStatusTransition(to string, count int64) {
	if m == nil || count <= 0 {
		return
	}
	m.statusUpdates.WithLabelValues(to).Add(float64(count))
}

// RecordCacheOperation records cache hit or miss.
func (m *MetricsService) RecordCacheOperation(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}
