package httpadapter

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/kirillkom/medintake/internal/core/domain"
)

const multipartMemory = 8 << 20

type uploadResponse struct {
	Success    bool    `json:"success"`
	Error      *string `json:"error"`
	Message    string  `json:"message"`
	DocumentID string  `json:"document_id,omitempty"`
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	if rt.cfg.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, rt.cfg.MaxUploadBytes)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d bytes", rt.cfg.MaxUploadBytes))
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	req, err := parseUploadRequest(r)
	if err != nil {
		rt.recordUpload(r.FormValue("doc_type"), "invalid")
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, documentID, err := rt.svc.Intake.Upload(r.Context(), req)
	if err != nil {
		rt.recordUpload(req.DocType, "error")
		rt.writeDomainError(w, r, "upload", err)
		return
	}

	resp := uploadResponse{
		Success:    result.Accepted,
		Message:    result.Message,
		DocumentID: documentID,
	}
	outcome := "accepted"
	if !result.Accepted {
		outcome = "rejected"
		msg := result.Message
		resp.Error = &msg
	}
	rt.recordUpload(req.DocType, outcome)
	writeJSON(w, http.StatusOK, resp)
}

func parseUploadRequest(r *http.Request) (domain.UploadRequest, error) {
	req := domain.UploadRequest{
		DocType: strings.TrimSpace(r.FormValue("doc_type")),
		HasFile: true,
	}
	if raw := strings.TrimSpace(r.FormValue("has_file")); raw != "" {
		hasFile, err := strconv.ParseBool(raw)
		if err != nil {
			return req, fmt.Errorf("has_file must be a boolean, got %q", raw)
		}
		req.HasFile = hasFile
	}
	if !req.HasFile {
		return req, nil
	}

	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return req, nil
	}
	if err != nil {
		return req, fmt.Errorf("read multipart field 'file': %w", err)
	}
	defer file.Close()

	body, err := io.ReadAll(file)
	if err != nil {
		return req, fmt.Errorf("read multipart field 'file': %w", err)
	}
	req.Body = body
	req.FileName = header.Filename
	req.ContentType = header.Header.Get("Content-Type")
	if req.ContentType == "" || req.ContentType == "application/octet-stream" {
		req.ContentType = http.DetectContentType(body)
	}
	return req, nil
}

func (rt *Router) recordUpload(rawDocType, outcome string) {
	if rt.metrics == nil {
		return
	}
	label := "invalid"
	if docType, err := domain.ParseDocType(rawDocType); err == nil {
		label = string(docType)
	}
	rt.metrics.RecordUpload(label, outcome)
}

func (rt *Router) listDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := rt.svc.Documents.List(r.Context())
	if err != nil {
		rt.writeDomainError(w, r, "list_documents", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (rt *Router) getDocumentByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "document id is required")
		return
	}

	doc, err := rt.svc.Documents.GetByID(r.Context(), id)
	if err != nil {
		rt.writeDomainError(w, r, "get_document", err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) exportDocuments(w http.ResponseWriter, r *http.Request) {
	raw, err := rt.svc.Exporter.ExportXLSX(r.Context())
	if err != nil {
		rt.writeDomainError(w, r, "export_documents", err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="documents.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}
