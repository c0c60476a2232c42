package httpadapter

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kirillkom/medintake/internal/core/domain"
)

func TestUploadMapsInvalidDocTypeTo400(t *testing.T) {
	deps := newTestDeps()
	deps.intake.err = domain.WrapError(domain.ErrInvalidInput, "parse doc type", errors.New("unknown doc_type \"Passport\""))
	handler := NewRouter(testConfig(), deps.services()).Handler()

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, multipartUpload(t, map[string]string{"doc_type": "Passport"}, "p.jpg", []byte("x")))

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
	body := decodeBody(t, res)
	if body["success"] != false || !strings.Contains(body["error"].(string), "Passport") {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestUploadPersistenceFailureIs500(t *testing.T) {
	deps := newTestDeps()
	deps.intake.err = errors.New("save document metadata: connection refused")
	handler := NewRouter(testConfig(), deps.services()).Handler()

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, multipartUpload(t, map[string]string{"doc_type": "Lab Report"}, "a.jpg", []byte("x")))

	if res.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", res.Code)
	}
}

func TestGetDocumentByIDReturns404ForNotFound(t *testing.T) {
	deps := newTestDeps()
	deps.docs = docsFake{err: domain.WrapError(domain.ErrDocumentNotFound, "get", errors.New("id=missing"))}
	handler := NewRouter(testConfig(), deps.services()).Handler()

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/v1/documents/missing", nil))

	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}

func TestLatestReportNotFound(t *testing.T) {
	deps := newTestDeps()
	deps.reports.latestErr = domain.WrapError(domain.ErrReportNotFound, "latest", errors.New("no rows"))
	handler := NewRouter(testConfig(), deps.services()).Handler()

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/v1/reports/latest", nil))

	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
	body := decodeBody(t, res)
	if _, present := body["report"]; !present || body["report"] != nil || body["success"] != false {
		t.Fatalf("expected explicit null report, got %+v", body)
	}
}

func TestSpeakWithoutProviderIs503(t *testing.T) {
	deps := newTestDeps()
	svc := deps.services()
	svc.Speech = speechFake{err: domain.WrapError(domain.ErrProviderUnavailable, "speak", errors.New("not configured"))}
	handler := NewRouter(testConfig(), svc).Handler()

	req := httptest.NewRequest(http.MethodPost, "/v1/speak", strings.NewReader(`{"text":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", res.Code)
	}
}

func TestRealtimeSessionWithoutProviderIs503(t *testing.T) {
	deps := newTestDeps()
	svc := deps.services()
	svc.Speech = speechFake{err: domain.WrapError(domain.ErrProviderUnavailable, "session", errors.New("not configured"))}
	handler := NewRouter(testConfig(), svc).Handler()

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/v1/session", nil))

	if res.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", res.Code)
	}
}

func TestMapErrorToHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{domain.WrapError(domain.ErrEmptyCorpus, "generate", errors.New("0")), http.StatusConflict},
		{domain.WrapError(domain.ErrOCR, "recognize", errors.New("blank")), http.StatusUnprocessableEntity},
		{domain.WrapError(domain.ErrTemporary, "complete", errors.New("502")), http.StatusServiceUnavailable},
		{domain.WrapError(domain.ErrInvalidInput, "upload", errors.New("doc_type")), http.StatusBadRequest},
		{domain.WrapError(domain.ErrReportNotFound, "latest", errors.New("none")), http.StatusNotFound},
		{domain.WrapError(domain.ErrProviderUnavailable, "complete", errors.New("401 from provider")), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := mapErrorToHTTPStatus(tc.err); got != tc.want {
			t.Fatalf("mapErrorToHTTPStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
