package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/medintake/internal/core/domain"
)

func (rt *Router) triggerReport(w http.ResponseWriter, r *http.Request) {
	err := rt.svc.Reports.Trigger(r.Context())
	if rt.metrics != nil {
		rt.metrics.RecordReportTrigger(err)
	}
	if err != nil {
		rt.writeDomainError(w, r, "trigger_report", err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"success": true,
		"result":  "Report generation started.",
	})
}

type reportResponse struct {
	Success   bool    `json:"success"`
	Report    *string `json:"report"`
	CreatedAt string  `json:"created_at,omitempty"`
	Error     string  `json:"error,omitempty"`
}

func (rt *Router) latestReport(w http.ResponseWriter, r *http.Request) {
	report, err := rt.svc.Reports.Latest(r.Context())
	if err != nil {
		status := mapErrorToHTTPStatus(err)
		msg := err.Error()
		if domain.IsKind(err, domain.ErrReportNotFound) {
			msg = "no report has been generated yet"
		}
		writeJSON(w, status, reportResponse{Success: false, Error: msg})
		return
	}
	writeJSON(w, http.StatusOK, reportResponse{
		Success:   true,
		Report:    &report.Text,
		CreatedAt: report.CreatedAt.UTC().Format(time.RFC3339),
	})
}

func (rt *Router) chat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserText string `json:"userText"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.UserText) == "" {
		writeError(w, http.StatusBadRequest, "userText is required")
		return
	}

	reply, err := rt.svc.Chat.Ask(r.Context(), req.UserText)
	if rt.metrics != nil {
		rt.metrics.RecordChat(err)
	}
	if err != nil {
		rt.writeDomainError(w, r, "chat", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"reply": reply})
}

func (rt *Router) speak(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	audio, contentType, err := rt.svc.Speech.Speak(r.Context(), req.Text)
	if err != nil {
		rt.writeDomainError(w, r, "speak", err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(audio)
}

func (rt *Router) realtimeSession(w http.ResponseWriter, r *http.Request) {
	session, err := rt.svc.Speech.Session(r.Context())
	if err != nil {
		rt.writeDomainError(w, r, "realtime_session", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(session)
}
