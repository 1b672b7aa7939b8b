package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ElSrJuez/notare/internal/connectors"
	"github.com/ElSrJuez/notare/internal/domain"
)

type stubConnector struct {
	name        string
	importDoc   domain.Document
	importErr   error
	lastRequest connectors.ImportRequest
}

func (s *stubConnector) Name() string {
	if s.name == "" {
		return "none"
	}
	return s.name
}

func (s *stubConnector) ImportDocument(_ context.Context, req connectors.ImportRequest) (domain.Document, error) {
	s.lastRequest = req
	if s.importErr != nil {
		return domain.Document{}, s.importErr
	}
	if s.importDoc.ID == "" {
		return domain.Document{
			ID:      req.DocumentID,
			Title:   "Doc 1",
			Content: "<p>Some <mark>content</mark></p>",
			Format:  "html",
		}, nil
	}
	return s.importDoc, nil
}

type stubNormalizer struct {
	page domain.Page
	err  error
}

func (s *stubNormalizer) Normalize(_ context.Context, rawURL string) (domain.Page, error) {
	if s.err != nil {
		return domain.Page{}, s.err
	}
	page := s.page
	page.URL = rawURL
	return page, nil
}

func TestConnectorImportErrorStatusMappingsIntegration(t *testing.T) {
	testCases := []struct {
		name       string
		importErr  error
		wantStatus int
		wantCode   string
	}{
		{"forbidden", connectors.ErrForbidden, http.StatusForbidden, "connector_forbidden"},
		{"not_found", connectors.ErrDocumentNotFound, http.StatusNotFound, "connector_document_not_found"},
		{"upstream_unauthorized", connectors.ErrUnauthorized, http.StatusBadGateway, "connector_upstream_unauthorized"},
		{"unavailable", fmt.Errorf("%w: quota", connectors.ErrUnavailable), http.StatusServiceUnavailable, "connector_service_unavailable"},
		{"not_implemented", connectors.ErrNotImplemented, http.StatusNotImplemented, "connector_not_implemented"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			router := testRouter(Dependencies{
				Config:    testConfig(),
				Connector: &stubConnector{name: "google_docs", importErr: tc.importErr},
			})

			req := httptest.NewRequest(http.MethodPost, "/api/connectors/import", strings.NewReader(`{"documentId":"doc-1"}`))
			req.Header.Set("Content-Type", "application/json")
			res := httptest.NewRecorder()
			router.ServeHTTP(res, req)

			if res.Code != tc.wantStatus {
				t.Fatalf("expected status %d, got %d", tc.wantStatus, res.Code)
			}
			if code := decodeError(t, res).Error.Code; code != tc.wantCode {
				t.Fatalf("expected %s, got %q", tc.wantCode, code)
			}
		})
	}
}

func TestConnectorAuthAndRateLimitInteractionIntegration(t *testing.T) {
	cfg := testConfig()
	cfg.Connectors.APIKey = "secret"
	cfg.Connectors.RateLimitPerMinute = 1
	cfg.Connectors.RateLimitBurst = 1
	router := testRouter(Dependencies{Config: cfg, Connector: &stubConnector{name: "google_docs"}})

	send := func(key string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/connectors/import", strings.NewReader(`{"documentId":"doc-1"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Connector-Key", key)
		res := httptest.NewRecorder()
		router.ServeHTTP(res, req)
		return res.Code
	}

	// Rejected keys do not consume the budget.
	if status := send("wrong"); status != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong key, got %d", status)
	}
	if status := send("secret"); status != http.StatusOK {
		t.Fatalf("expected 200 for first authorized request, got %d", status)
	}
	if status := send("secret"); status != http.StatusTooManyRequests {
		t.Fatalf("expected 429 once the budget is spent, got %d", status)
	}
	if status := send("wrong"); status != http.StatusUnauthorized {
		t.Fatalf("expected auth to be checked before the rate limit, got %d", status)
	}
}

func TestNormalizeIntegration(t *testing.T) {
	testCases := []struct {
		name       string
		body       string
		normalizer PageNormalizer
		wantStatus int
		wantCode   string
	}{
		{"success", `{"url":"https://example.com/a"}`, &stubNormalizer{page: domain.Page{Title: "A", CleanHTML: "<p><mark>x</mark></p>"}}, http.StatusOK, ""},
		{"missing url", `{}`, &stubNormalizer{}, http.StatusBadRequest, "invalid_payload"},
		{"invalid url", `{"url":"ftp://x"}`, &stubNormalizer{err: connectors.ErrInvalidURL}, http.StatusBadRequest, "invalid_url"},
		{"not found", `{"url":"https://example.com/missing"}`, &stubNormalizer{err: connectors.ErrDocumentNotFound}, http.StatusNotFound, "connector_document_not_found"},
		{"too large", `{"url":"https://example.com/big"}`, &stubNormalizer{err: connectors.ErrPageTooLarge}, http.StatusBadGateway, "page_too_large"},
		{"not configured", `{"url":"https://example.com/a"}`, nil, http.StatusServiceUnavailable, "connector_service_unavailable"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			router := testRouter(Dependencies{Config: testConfig(), Normalizer: tc.normalizer})

			req := httptest.NewRequest(http.MethodPost, "/api/normalize", strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/json")
			res := httptest.NewRecorder()
			router.ServeHTTP(res, req)

			if res.Code != tc.wantStatus {
				t.Fatalf("expected status %d, got %d body=%s", tc.wantStatus, res.Code, res.Body.String())
			}
			if tc.wantCode == "" {
				if !strings.Contains(res.Body.String(), `"clean_html":"<p><mark>x</mark></p>"`) {
					t.Fatalf("unexpected body: %s", res.Body.String())
				}
				return
			}
			if code := decodeError(t, res).Error.Code; code != tc.wantCode {
				t.Fatalf("expected %s, got %q", tc.wantCode, code)
			}
		})
	}
}
