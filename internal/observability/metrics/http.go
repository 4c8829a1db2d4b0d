package metrics

import (
	"bufio"
	"fmt"
	"net"
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

	trackerActive     prometheus.Gauge
	trackerPollsTotal *prometheus.CounterVec
	trackerDoneTotal  *prometheus.CounterVec

	submitTotal     *prometheus.CounterVec
	submitJoinTotal *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "o1pa",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "o1pa",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "o1pa",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	trackerActive := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "o1pa",
			Subsystem: "tracker",
			Name:      "active_subscriptions",
			Help:      "Number of live status tracking subscriptions.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	trackerPollsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "o1pa",
			Subsystem: "tracker",
			Name:      "polls_total",
			Help:      "Total status poll cycles by outcome.",
		},
		[]string{"service", "outcome"},
	)
	trackerDoneTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "o1pa",
			Subsystem: "tracker",
			Name:      "subscriptions_done_total",
			Help:      "Total finished tracking subscriptions by terminal reason.",
		},
		[]string{"service", "reason"},
	)
	submitTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "o1pa",
			Subsystem: "submit",
			Name:      "requests_total",
			Help:      "Total petition submissions by outcome.",
		},
		[]string{"service", "outcome"},
	)
	submitJoinTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "o1pa",
			Subsystem: "submit",
			Name:      "joined_total",
			Help:      "Total submissions that joined an already pending call.",
		},
		[]string{"service"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		trackerActive,
		trackerPollsTotal,
		trackerDoneTotal,
		submitTotal,
		submitJoinTotal,
	)

	return &HTTPServerMetrics{
		registry:          registry,
		requestTotal:      requestTotal,
		requestDuration:   requestDuration,
		requestInFlight:   requestInFlight,
		trackerActive:     trackerActive,
		trackerPollsTotal: trackerPollsTotal,
		trackerDoneTotal:  trackerDoneTotal,
		submitTotal:       submitTotal,
		submitJoinTotal:   submitJoinTotal,
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

// normalizePath keeps metric cardinality bounded by collapsing the id
// segments of the case and document routes.
func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/cases/"):
		rest := strings.TrimPrefix(path, "/v1/cases/")
		if idx := strings.IndexByte(rest, '/'); idx >= 0 {
			return "/v1/cases/{case_id}/" + rest[idx+1:]
		}
		return "/v1/cases/{case_id}"
	case strings.HasPrefix(path, "/v1/documents/"):
		return "/v1/documents/{document_id}"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) SubscriptionStarted() {
	m.trackerActive.Inc()
}

func (m *HTTPServerMetrics) SubscriptionFinished(service, reason string) {
	m.trackerActive.Dec()
	if reason == "" {
		reason = "stopped"
	}
	m.trackerDoneTotal.WithLabelValues(service, reason).Inc()
}

func (m *HTTPServerMetrics) RecordPoll(service string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.trackerPollsTotal.WithLabelValues(service, outcome).Inc()
}

func (m *HTTPServerMetrics) RecordSubmission(service, outcome string) {
	if outcome == "" {
		outcome = "unknown"
	}
	m.submitTotal.WithLabelValues(service, outcome).Inc()
}

func (m *HTTPServerMetrics) RecordSubmissionJoin(service string) {
	m.submitJoinTotal.WithLabelValues(service).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
