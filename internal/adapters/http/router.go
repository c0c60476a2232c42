package httpadapter

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/kirillkom/medintake/internal/config"
	"github.com/kirillkom/medintake/internal/core/ports"
	"github.com/kirillkom/medintake/internal/observability/metrics"
)

// Services are the inbound ports served over HTTP. Nil services leave their
// routes unregistered.
type Services struct {
	Intake    ports.DocumentIntake
	Documents ports.DocumentReader
	Reports   ports.ReportService
	Chat      ports.ChatService
	Speech    ports.SpeechService
	Exporter  ports.DocumentExporter
}

type Router struct {
	cfg      config.Config
	svc      Services
	logger   *slog.Logger
	metrics  *metrics.HTTPServerMetrics
	scrape   http.Handler
	files    http.Handler
	validate func(http.Handler) http.Handler
}

func NewRouter(cfg config.Config, svc Services) *Router {
	return &Router{
		cfg:    cfg,
		svc:    svc,
		logger: slog.Default(),
	}
}

func (rt *Router) WithLogger(logger *slog.Logger) *Router {
	if logger != nil {
		rt.logger = logger
	}
	return rt
}

// WithMetrics instruments requests and exposes scrape on /metrics.
func (rt *Router) WithMetrics(m *metrics.HTTPServerMetrics, scrape http.Handler) *Router {
	rt.metrics = m
	rt.scrape = scrape
	return rt
}

// WithFiles serves stored blobs under /files/ for local previews.
func (rt *Router) WithFiles(files http.Handler) *Router {
	rt.files = files
	return rt
}

// WithRequestValidation checks requests against the embedded OpenAPI document.
func (rt *Router) WithRequestValidation() (*Router, error) {
	validate, err := newRequestValidator(openAPISpec)
	if err != nil {
		return nil, fmt.Errorf("init request validation: %w", err)
	}
	rt.validate = validate
	return rt, nil
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	if rt.scrape != nil {
		mux.Handle("GET /metrics", rt.scrape)
	}
	if rt.files != nil {
		mux.Handle("GET /files/", http.StripPrefix("/files/", rt.files))
	}

	if rt.svc.Intake != nil {
		mux.HandleFunc("POST /v1/documents", rt.uploadDocument)
	}
	if rt.svc.Documents != nil {
		mux.HandleFunc("GET /v1/documents", rt.listDocuments)
		mux.HandleFunc("GET /v1/documents/{id}", rt.getDocumentByID)
	}
	if rt.svc.Exporter != nil {
		mux.HandleFunc("GET /v1/exports/documents.xlsx", rt.exportDocuments)
	}
	if rt.svc.Reports != nil {
		mux.HandleFunc("POST /v1/reports", rt.triggerReport)
		mux.HandleFunc("GET /v1/reports/latest", rt.latestReport)
	}
	if rt.svc.Chat != nil {
		mux.HandleFunc("POST /v1/chat", rt.chat)
	}
	if rt.svc.Speech != nil {
		mux.HandleFunc("POST /v1/speak", rt.speak)
		mux.HandleFunc("GET /v1/session", rt.realtimeSession)
	}

	var handler http.Handler = mux
	if rt.validate != nil {
		handler = rt.validate(handler)
	}
	handler = apiOnly(backpressureMiddleware(
		handler,
		rt.cfg.APIBackpressureMaxInFlight,
		time.Duration(rt.cfg.APIBackpressureWaitMS)*time.Millisecond,
	), handler)
	handler = apiOnly(rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst), handler)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(handler)
	}
	handler = accessLogMiddleware(rt.logger, handler)
	handler = recoverMiddleware(rt.logger, handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Success: false, Error: message})
}

func (rt *Router) writeDomainError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		rt.logger.Error(op+".failed", "request_id", requestIDFromContext(r.Context()), "error", err)
	}
	writeError(w, status, err.Error())
}
