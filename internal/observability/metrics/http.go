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

	uploadsTotal       *prometheus.CounterVec
	uploadedChunks     *prometheus.HistogramVec
	queriesTotal       *prometheus.CounterVec
	retrievalHitTotal  *prometheus.CounterVec
	retrievalMissTotal *prometheus.CounterVec
	retrievedChunks    *prometheus.HistogramVec
	queryDuration      *prometheus.HistogramVec
	authAttemptsTotal  *prometheus.CounterVec
	rateLimitedTotal   *prometheus.CounterVec
	shedRequestsTotal  *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mrc",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mrc",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "mrc",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	uploadsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mrc",
			Subsystem: "ingest",
			Name:      "uploads_total",
			Help:      "Total report uploads by outcome.",
		},
		[]string{"service", "status"},
	)
	uploadedChunks := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mrc",
			Subsystem: "ingest",
			Name:      "uploaded_chunks",
			Help:      "Distribution of indexed chunks per accepted upload.",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21, 34, 55},
		},
		[]string{"service"},
	)
	queriesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mrc",
			Subsystem: "query",
			Name:      "requests_total",
			Help:      "Total answered document queries.",
		},
		[]string{"service"},
	)
	retrievalHitTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mrc",
			Subsystem: "query",
			Name:      "retrieval_hit_total",
			Help:      "Total queries with at least one retrieved chunk.",
		},
		[]string{"service"},
	)
	retrievalMissTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mrc",
			Subsystem: "query",
			Name:      "retrieval_miss_total",
			Help:      "Total queries without retrieved chunks.",
		},
		[]string{"service"},
	)
	retrievedChunks := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mrc",
			Subsystem: "query",
			Name:      "retrieved_chunks",
			Help:      "Distribution of retrieved chunks per answered query.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8},
		},
		[]string{"service"},
	)
	queryDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mrc",
			Subsystem: "query",
			Name:      "duration_seconds",
			Help:      "End to end query duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service"},
	)
	authAttemptsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mrc",
			Subsystem: "auth",
			Name:      "attempts_total",
			Help:      "Total sign-in and sign-up attempts by outcome.",
		},
		[]string{"service", "operation", "status"},
	)
	rateLimitedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mrc",
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Total requests rejected by the rate limiter.",
		},
		[]string{"service"},
	)
	shedRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mrc",
			Subsystem: "http",
			Name:      "shed_requests_total",
			Help:      "Total requests shed by the backpressure guard.",
		},
		[]string{"service"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		uploadsTotal,
		uploadedChunks,
		queriesTotal,
		retrievalHitTotal,
		retrievalMissTotal,
		retrievedChunks,
		queryDuration,
		authAttemptsTotal,
		rateLimitedTotal,
		shedRequestsTotal,
	)

	return &HTTPServerMetrics{
		registry:           registry,
		requestTotal:       requestTotal,
		requestDuration:    requestDuration,
		requestInFlight:    requestInFlight,
		uploadsTotal:       uploadsTotal,
		uploadedChunks:     uploadedChunks,
		queriesTotal:       queriesTotal,
		retrievalHitTotal:  retrievalHitTotal,
		retrievalMissTotal: retrievalMissTotal,
		retrievedChunks:    retrievedChunks,
		queryDuration:      queryDuration,
		authAttemptsTotal:  authAttemptsTotal,
		rateLimitedTotal:   rateLimitedTotal,
		shedRequestsTotal:  shedRequestsTotal,
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
	case strings.HasPrefix(path, "/v1/documents/"):
		return "/v1/documents/{document_id}"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) RecordUpload(service string, chunks int, err error) {
	status := "accepted"
	if err != nil {
		status = "rejected"
	}
	m.uploadsTotal.WithLabelValues(service, status).Inc()
	if err == nil && chunks > 0 {
		m.uploadedChunks.WithLabelValues(service).Observe(float64(chunks))
	}
}

func (m *HTTPServerMetrics) RecordQuery(service string, retrieved int, duration time.Duration) {
	m.queriesTotal.WithLabelValues(service).Inc()
	m.retrievedChunks.WithLabelValues(service).Observe(float64(retrieved))
	m.queryDuration.WithLabelValues(service).Observe(duration.Seconds())

	if retrieved > 0 {
		m.retrievalHitTotal.WithLabelValues(service).Inc()
		return
	}
	m.retrievalMissTotal.WithLabelValues(service).Inc()
}

func (m *HTTPServerMetrics) RecordAuthAttempt(service, operation string, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.authAttemptsTotal.WithLabelValues(service, operation, status).Inc()
}

func (m *HTTPServerMetrics) RecordRateLimited(service string) {
	m.rateLimitedTotal.WithLabelValues(service).Inc()
}

func (m *HTTPServerMetrics) RecordShedRequest(service string) {
	m.shedRequestsTotal.WithLabelValues(service).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
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
