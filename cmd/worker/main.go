package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/medreport/companion/internal/bootstrap"
	"github.com/medreport/companion/internal/config"
	"github.com/medreport/companion/internal/observability/logging"
	"github.com/medreport/companion/internal/observability/metrics"
)

const analysisTimeout = 5 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger := logging.NewJSONLogger("worker", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics("worker")
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: metricsHandler(workerMetrics),
	}
	go func() {
		logger.Info("worker metrics listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logger.Info("worker subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeDocumentIndexed(ctx, func(handlerCtx context.Context, documentID string) error {
		analyzeCtx, cancel := context.WithTimeout(handlerCtx, analysisTimeout)
		defer cancel()

		if doc, err := app.Docs.GetByID(analyzeCtx, documentID); err == nil {
			workerMetrics.ObserveQueueLag("worker", time.Since(doc.UpdatedAt))
		}

		workerMetrics.StartReport()
		start := time.Now()
		analyzeErr := app.AnalyzeUC.AnalyzeByID(analyzeCtx, documentID)

		findingsCount := 0
		if analyzeErr == nil {
			if findings, err := app.Findings.ListByDocument(analyzeCtx, documentID); err == nil {
				findingsCount = len(findings)
			}
		}
		workerMetrics.FinishReport("worker", time.Since(start), findingsCount, analyzeErr)
		return analyzeErr
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}

func metricsHandler(m *metrics.WorkerMetrics) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return mux
}
