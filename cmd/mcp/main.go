package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpadapter "github.com/kirillkom/medintake/internal/adapters/mcp"
	"github.com/kirillkom/medintake/internal/bootstrap"
	"github.com/kirillkom/medintake/internal/config"
	"github.com/kirillkom/medintake/internal/observability/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_error", "error", err)
		os.Exit(1)
	}
	// stdout carries the protocol.
	logger := logging.NewJSONLoggerTo(os.Stderr, "medintake-mcp", cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, "mcp", logger)
	if err != nil {
		logger.Error("bootstrap_error", "error", err)
		os.Exit(1)
	}

	server := mcpadapter.NewServer(app.Reports, app.Chat, logger)
	if err := server.ServeStdio(ctx); err != nil && ctx.Err() == nil {
		logger.Error("mcp_server_error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	app.Close(shutdownCtx)
}
