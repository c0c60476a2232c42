package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/kirillkom/medintake/internal/config"
	"github.com/kirillkom/medintake/internal/core/ports"
	"github.com/kirillkom/medintake/internal/core/usecase"
	"github.com/kirillkom/medintake/internal/infrastructure/export"
	"github.com/kirillkom/medintake/internal/infrastructure/extractor"
	"github.com/kirillkom/medintake/internal/infrastructure/extractor/pdftext"
	"github.com/kirillkom/medintake/internal/infrastructure/extractor/plaintext"
	"github.com/kirillkom/medintake/internal/infrastructure/llm"
	"github.com/kirillkom/medintake/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/medintake/internal/infrastructure/llm/openai"
	"github.com/kirillkom/medintake/internal/infrastructure/queue/inprocess"
	"github.com/kirillkom/medintake/internal/infrastructure/queue/nats"
	"github.com/kirillkom/medintake/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/medintake/internal/infrastructure/resilience"
	"github.com/kirillkom/medintake/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/medintake/internal/infrastructure/storage/supabase"
	"github.com/kirillkom/medintake/internal/observability/metrics"
)

type App struct {
	Config config.Config
	Logger *slog.Logger

	Intake     *usecase.IntakeUseCase
	Enricher   *usecase.EnrichUseCase
	Reports    *usecase.ReportUseCase
	Chat       *usecase.ChatUseCase
	Documents  *usecase.DocumentQueryUseCase
	Exporter   *export.XLSXExporter
	Dispatcher *usecase.Dispatcher

	// LocalFiles serves stored blobs when the localfs backend is active.
	LocalFiles http.Handler

	HTTPMetrics   *metrics.HTTPServerMetrics
	WorkerMetrics *metrics.WorkerMetrics
	LLMMetrics    *metrics.LLMMetrics

	// Exactly one of Runner and Queue is set, per TASK_RUNNER.
	Runner *inprocess.Runner
	Queue  *nats.Queue

	closeFn func(ctx context.Context)
}

// New wires the application for service. With the in-process task runner the
// workers are started before New returns.
func New(ctx context.Context, cfg config.Config, service string, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	documents := postgres.NewDocumentRepository(db)
	reports := postgres.NewReportRepository(db)

	executor := resilience.NewExecutor(resilienceConfig(cfg), logger)

	app := &App{
		Config:        cfg,
		Logger:        logger,
		HTTPMetrics:   metrics.NewHTTPServerMetrics(service),
		WorkerMetrics: metrics.NewWorkerMetrics(service),
		LLMMetrics:    metrics.NewLLMMetrics(service),
	}

	storage, err := app.newStorage(cfg, executor)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	completer, vision, speech := app.newProviders(cfg, executor)
	ocr := extractor.NewRouter(vision, pdftext.NewExtractor(), plaintext.NewExtractor())
	classifier := llm.NewClassifier(completer, cfg.RecencyWindowMonths)
	writer := llm.NewWriter(completer)
	fields := llm.NewFieldExtractor(completer)

	runner, err := app.newTaskRunner(cfg, executor)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	screener := usecase.NewScreener(completer, classifier, writer, logger)
	app.Intake = usecase.NewIntakeUseCase(documents, storage, ocr, screener, runner, logger)
	app.Enricher = usecase.NewEnrichUseCase(documents, storage, ocr, screener, fields, logger)
	app.Reports = usecase.NewReportUseCase(documents, reports, writer, runner, logger)
	app.Chat = usecase.NewChatUseCase(reports, writer, speech)
	app.Documents = usecase.NewDocumentQueryUseCase(documents)
	app.Exporter = export.NewXLSXExporter(documents, logger)
	app.Dispatcher = usecase.NewDispatcher(app.Enricher, app.Reports, app.WorkerMetrics)

	if app.Runner != nil {
		app.Runner.Start(app.Dispatcher)
	}

	app.closeFn = func(ctx context.Context) {
		if app.Runner != nil {
			app.Runner.Shutdown(ctx)
		}
		if app.Queue != nil {
			app.Queue.Close()
		}
		_ = db.Close()
	}

	logger.Info("bootstrap.ready",
		"llm_provider", cfg.LLMProvider,
		"storage_backend", cfg.StorageBackend,
		"task_runner", cfg.TaskRunner,
	)
	return app, nil
}

func (a *App) newStorage(cfg config.Config, executor *resilience.Executor) (ports.ObjectStorage, error) {
	switch cfg.StorageBackend {
	case "supabase":
		return supabase.New(supabase.Options{
			ProjectURL:      cfg.SupabaseURL,
			Bucket:          cfg.SupabaseBucket,
			Region:          cfg.SupabaseRegion,
			AccessKeyID:     cfg.SupabaseAccessKeyID,
			SecretAccessKey: cfg.SupabaseSecretAccessKey,
			Executor:        executor,
		}), nil
	default:
		storage, err := localfs.New(cfg.StoragePath, cfg.PublicBaseURL)
		if err != nil {
			return nil, fmt.Errorf("init object storage: %w", err)
		}
		a.LocalFiles = http.FileServer(http.Dir(storage.BasePath()))
		return storage, nil
	}
}

func (a *App) newProviders(cfg config.Config, executor *resilience.Executor) (ports.Completer, ports.TextRecognizer, ports.SpeechSynthesizer) {
	if cfg.LLMProvider == "ollama" {
		client := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaVisionModel, executor)
		return client, client, nil
	}
	client := openai.New(openai.Options{
		BaseURL:       cfg.OpenAIBaseURL,
		APIKey:        cfg.OpenAIAPIKey,
		Model:         cfg.OpenAIModel,
		OCRModel:      cfg.OpenAIOCRModel,
		TTSModel:      cfg.OpenAITTSModel,
		TTSVoice:      cfg.OpenAITTSVoice,
		RealtimeModel: cfg.OpenAIRealtimeModel,
		RealtimeVoice: cfg.OpenAIRealtimeVoice,
		Timeout:       time.Duration(cfg.OpenAITimeoutSeconds) * time.Second,
		RPS:           cfg.OpenAIRPS,
		Executor:      executor,
		OnUsage:       a.LLMMetrics.RecordTokenUsage,
	})
	if err := client.Ready(); err != nil {
		a.Logger.Warn("bootstrap.llm_not_ready", "error", err)
	}
	return client, client, client
}

func (a *App) newTaskRunner(cfg config.Config, executor *resilience.Executor) (ports.TaskRunner, error) {
	if cfg.TaskRunner == "nats" {
		queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
			ResilienceExecutor: executor,
			Logger:             a.Logger,
		})
		if err != nil {
			return nil, fmt.Errorf("init message queue: %w", err)
		}
		a.Queue = queue
		return queue, nil
	}
	a.Runner = inprocess.New(a.Logger,
		inprocess.WithWorkers(cfg.WorkerCount),
		inprocess.WithQueueSize(cfg.WorkerQueueSize),
		inprocess.WithJobTimeout(time.Duration(cfg.JobTimeoutSeconds)*time.Second),
	)
	return a.Runner, nil
}

// resilienceConfig overrides the provider policy and breaker from the
// environment; storage and queue keep their defaults.
func resilienceConfig(cfg config.Config) resilience.Config {
	out := resilience.DefaultConfig()
	backoff := time.Duration(cfg.LLMRetryBackoffMS) * time.Millisecond
	out.Provider = resilience.RetryPolicy{
		MaxAttempts:    cfg.LLMRetryMaxAttempts,
		InitialBackoff: backoff,
		MaxBackoff:     4 * backoff,
		Multiplier:     2.0,
	}
	out.Breaker.Enabled = cfg.BreakerEnabled
	out.Breaker.MinRequests = uint32(max(cfg.BreakerMinRequests, 0))
	out.Breaker.FailureRatio = cfg.BreakerFailureRatio
	out.Breaker.OpenTimeout = time.Duration(cfg.BreakerOpenTimeoutSecs) * time.Second
	return out
}

// Close drains in-process jobs until ctx expires, then releases connections.
func (a *App) Close(ctx context.Context) {
	if a.closeFn != nil {
		a.closeFn(ctx)
	}
}
