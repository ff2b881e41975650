package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the HTTP
// surface and the conversation engine. It satisfies the bot's Metrics
// interface.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	messagesReceived prometheus.Counter
	messagesSent     prometheus.Counter
	authAttempts     *prometheus.CounterVec
	jobSearches      prometheus.Counter
	jobResults       prometheus.Histogram
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

	messagesReceived := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bot_messages_received_total",
		Help: "Inbound WhatsApp messages processed",
	})

	messagesSent := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bot_messages_sent_total",
		Help: "Outbound WhatsApp messages delivered",
	})

	authAttempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_auth_attempts_total",
		Help: "Portal authentication attempts by outcome",
	}, []string{"outcome"})

	jobSearches := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bot_job_searches_total",
		Help: "Job searches performed",
	})

	jobResults := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "bot_job_search_results",
		Help:    "Result counts per job search",
		Buckets: []float64{0, 1, 2, 3, 5, 10},
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, messagesReceived, messagesSent, authAttempts, jobSearches, jobResults, goroutines)

	return &MetricsService{
		registry:         registry,
		handler:          promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:  requestDuration,
		requestTotal:     requestTotal,
		messagesReceived: messagesReceived,
		messagesSent:     messagesSent,
		authAttempts:     authAttempts,
		jobSearches:      jobSearches,
		jobResults:       jobResults,
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
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// MessageReceived counts one processed inbound message.
func (m *MetricsService) MessageReceived() {
	if m == nil {
		return
	}
	m.messagesReceived.Inc()
}

// MessageSent counts one delivered outbound message.
func (m *MetricsService) MessageSent() {
	if m == nil {
		return
	}
	m.messagesSent.Inc()
}

// AuthAttempt counts one portal credential check by outcome.
func (m *MetricsService) AuthAttempt(success bool) {
	if m == nil {
		return
	}
	outcome := "failure"
	if success {
		outcome = "success"
	}
	m.authAttempts.WithLabelValues(outcome).Inc()
}

// JobSearch counts one search and observes its result size.
func (m *MetricsService) JobSearch(resultCount int) {
	if m == nil {
		return
	}
	m.jobSearches.Inc()
	m.jobResults.Observe(float64(resultCount))
}
