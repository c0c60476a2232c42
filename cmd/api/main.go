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

	httpadapter "github.com/kirillkom/medintake/internal/adapters/http"
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
	logger := logging.NewJSONLogger("medintake-api", cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, "api", logger)
	if err != nil {
		logger.Error("bootstrap_error", "error", err)
		os.Exit(1)
	}

	router := httpadapter.NewRouter(cfg, httpadapter.Services{
		Intake:    app.Intake,
		Documents: app.Documents,
		Reports:   app.Reports,
		Chat:      app.Chat,
		Speech:    app.Chat,
		Exporter:  app.Exporter,
	}).
		WithLogger(logger).
		WithMetrics(app.HTTPMetrics, metrics.Handler(
			app.HTTPMetrics.Gatherer(),
			app.WorkerMetrics.Gatherer(),
			app.LLMMetrics.Gatherer(),
		))
	if app.LocalFiles != nil {
		router = router.WithFiles(app.LocalFiles)
	}
	if cfg.OpenAPIValidation {
		router, err = router.WithRequestValidation()
		if err != nil {
			logger.Error("openapi_error", "error", err)
			os.Exit(1)
		}
	}

	server := &http.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      180 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("api_listening", "addr", server.Addr, "task_runner", cfg.TaskRunner)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api_server_error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api_shutdown_error", "error", err)
	}
	app.Close(shutdownCtx)
}
