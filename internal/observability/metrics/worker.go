package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	analyzeTotal    *prometheus.CounterVec
	analyzeDuration *prometheus.HistogramVec
	analyzeInFlight prometheus.Gauge
	findingsPerDoc  *prometheus.HistogramVec
	queueLag        *prometheus.HistogramVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	analyzeTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mrc",
			Subsystem: "worker",
			Name:      "report_analyze_total",
			Help:      "Total analyzed reports by status.",
		},
		[]string{"service", "status"},
	)
	analyzeDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mrc",
			Subsystem: "worker",
			Name:      "report_analyze_duration_seconds",
			Help:      "Report analysis duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	analyzeInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "mrc",
			Subsystem: "worker",
			Name:      "report_analyze_in_flight",
			Help:      "Number of in-flight report analysis tasks.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	findingsPerDoc := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mrc",
			Subsystem: "worker",
			Name:      "findings_per_report",
			Help:      "Distribution of extracted findings per analyzed report.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"service"},
	)
	queueLag := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mrc",
			Subsystem: "worker",
			Name:      "queue_lag_seconds",
			Help:      "Delay between document indexing and analysis start.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"service"},
	)

	registry.MustRegister(analyzeTotal, analyzeDuration, analyzeInFlight, findingsPerDoc, queueLag)

	return &WorkerMetrics{
		registry:        registry,
		analyzeTotal:    analyzeTotal,
		analyzeDuration: analyzeDuration,
		analyzeInFlight: analyzeInFlight,
		findingsPerDoc:  findingsPerDoc,
		queueLag:        queueLag,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartReport() {
	m.analyzeInFlight.Inc()
}

func (m *WorkerMetrics) FinishReport(service string, duration time.Duration, findings int, err error) {
	m.analyzeInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.analyzeTotal.WithLabelValues(service, status).Inc()
	m.analyzeDuration.WithLabelValues(service, status).Observe(duration.Seconds())
	if err == nil {
		m.findingsPerDoc.WithLabelValues(service).Observe(float64(findings))
	}
}

func (m *WorkerMetrics) ObserveQueueLag(service string, lag time.Duration) {
	if lag < 0 {
		return
	}
	m.queueLag.WithLabelValues(service).Observe(lag.Seconds())
}
