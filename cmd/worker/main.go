package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kirillkom/medintake/internal/bootstrap"
	"github.com/kirillkom/medintake/internal/config"
	"github.com/kirillkom/medintake/internal/observability/logging"
	"github.com/kirillkom/medintake/internal/observability/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_error", "error", err)
		os.Exit(1)
	}
	logger := logging.NewJSONLogger("medintake-worker", cfg.LogLevel)
	slog.SetDefault(logger)

	if cfg.TaskRunner != "nats" {
		logger.Error("worker_requires_nats", "task_runner", cfg.TaskRunner)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, "worker", logger)
	if err != nil {
		logger.Error("bootstrap_error", "error", err)
		os.Exit(1)
	}
	defer app.Close(context.Background())

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(app.WorkerMetrics.Gatherer(), app.LLMMetrics.Gatherer()))
	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("worker_metrics_error", "error", err)
		}
	}()

	logger.Info("worker_subscribed", "subject", cfg.NATSSubject)
	if err := app.Queue.Consume(ctx, app.Dispatcher); err != nil {
		logger.Error("worker_consume_error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = metricsServer.Shutdown(shutdownCtx)
}
