package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vmoroz/petition-assistant/internal/bootstrap"
	"github.com/vmoroz/petition-assistant/internal/config"
	"github.com/vmoroz/petition-assistant/internal/observability/logging"
	"github.com/vmoroz/petition-assistant/internal/observability/metrics"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("worker error: %v", err)
	}
}

// run owns the worker lifecycle so deferred cleanup (queue drain, DB
// close, metrics server shutdown) still happens on a subscribe error.
func run() error {
	cfg := config.Load()
	logger := logging.NewJSONLogger("worker", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	defer app.Close()

	m := metrics.NewWorkerMetrics("worker")
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: m.Handler(),
	}
	go func() {
		logger.Info("worker_metrics_listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("worker_metrics_server_error", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logger.Info("worker_subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeCaseSubmitted(ctx, func(handlerCtx context.Context, caseID string) error {
		processCtx, cancel := context.WithTimeout(handlerCtx, 15*time.Minute)
		defer cancel()

		m.StartCase()
		start := time.Now()
		processErr := app.ProcessUC.ProcessByID(processCtx, caseID)
		m.FinishCase("worker", time.Since(start), processErr)
		if processErr != nil {
			logger.Error("case_processing_failed", "case_id", caseID, "error", processErr)
		} else {
			logger.Info("case_processing_done", "case_id", caseID, "duration_ms", time.Since(start).Milliseconds())
		}
		return processErr
	})
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	return nil
}
