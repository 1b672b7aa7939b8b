package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/ElSrJuez/notare/internal/config"
	"github.com/ElSrJuez/notare/internal/connectors"
	"github.com/ElSrJuez/notare/internal/middleware"
	"github.com/gin-gonic/gin"
)

type errorEnvelope struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"requestId"`
	} `json:"error"`
}

type capabilitiesEnvelope struct {
	Providers []struct {
		Name             string `json:"name"`
		RequiresAPIKey   bool   `json:"requiresApiKey"`
		RequiresEndpoint bool   `json:"requiresEndpoint"`
		DefaultModel     string `json:"defaultModel"`
		DefaultEndpoint  string `json:"defaultEndpoint"`
	} `json:"providers"`
	Formats   []string `json:"formats"`
	Templates struct {
		MaxBytes      int64    `json:"maxBytes"`
		DefaultSource string   `json:"defaultSource"`
		RequiredRoles []string `json:"requiredRoles"`
	} `json:"templates"`
	Connector struct {
		Active string `json:"active"`
		Import bool   `json:"import"`
		OAuth  bool   `json:"oauth"`
	} `json:"connector"`
}

type connectorAuthStartEnvelope struct {
	Connector      string `json:"connector"`
	SessionKey     string `json:"sessionKey"`
	AuthURL        string `json:"authUrl"`
	StateExpiresAt string `json:"stateExpiresAt"`
}

type connectorAuthCallbackEnvelope struct {
	Connector     string `json:"connector"`
	SessionKey    string `json:"sessionKey"`
	Authenticated bool   `json:"authenticated"`
	ExpiresAt     string `json:"expiresAt"`
}

func testConfig() config.Config {
	return config.Config{
		LLM: config.LLMConfig{
			LlamaEndpoint: "http://localhost:8080/completions",
			OpenAIModel:   "gpt-4o-mini",
			GeminiModel:   "gemini-2.5-flash",
		},
		Connectors: config.ConnectorsConfig{
			Provider:           "none",
			RateLimitPerMinute: 60,
			RateLimitBurst:     10,
		},
	}
}

func testRouter(deps Dependencies) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.RequestID())
	RegisterRoutes(router, deps)
	return router
}

func testOAuthManager(t *testing.T, baseURL string) (*connectors.GoogleDocsOAuthManager, *connectors.InMemoryOAuthTokenStore) {
	t.Helper()
	store := connectors.NewInMemoryOAuthTokenStore()
	manager, err := connectors.NewGoogleDocsOAuthManager(config.OAuthConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "http://localhost:8080/api/connectors/google_docs/auth/callback",
		AuthURL:      baseURL + "/auth",
		TokenURL:     baseURL + "/token",
	}, store)
	if err != nil {
		t.Fatalf("failed to build oauth manager: %v", err)
	}
	return manager, store
}

func decodeError(t *testing.T, res *httptest.ResponseRecorder) errorEnvelope {
	t.Helper()
	var payload errorEnvelope
	if err := json.Unmarshal(res.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v body=%s", err, res.Body.String())
	}
	return payload
}

func TestHealth(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	res := httptest.NewRecorder()

	testRouter(Dependencies{Config: testConfig()}).ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", res.Code)
	}
	if strings.TrimSpace(res.Body.String()) != "{\"ok\":true}" {
		t.Fatalf("unexpected body: %s", res.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	res := httptest.NewRecorder()

	testRouter(Dependencies{Config: testConfig()}).ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), "go_goroutines") {
		t.Fatalf("expected prometheus exposition, got %s", res.Body.String())
	}
}

func TestCapabilitiesDefault(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/capabilities", nil)
	res := httptest.NewRecorder()

	testRouter(Dependencies{Config: testConfig()}).ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", res.Code)
	}

	var payload capabilitiesEnvelope
	if err := json.Unmarshal(res.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if len(payload.Providers) != 4 {
		t.Fatalf("expected 4 providers, got %+v", payload.Providers)
	}
	byName := map[string]int{}
	for i, p := range payload.Providers {
		byName[p.Name] = i
	}
	llama := payload.Providers[byName["llama"]]
	if llama.RequiresAPIKey || llama.DefaultEndpoint != "http://localhost:8080/completions" {
		t.Fatalf("unexpected llama capability: %+v", llama)
	}
	azure := payload.Providers[byName["azure"]]
	if !azure.RequiresAPIKey || !azure.RequiresEndpoint {
		t.Fatalf("unexpected azure capability: %+v", azure)
	}
	if payload.Providers[byName["openai"]].DefaultModel != "gpt-4o-mini" {
		t.Fatalf("expected openai default model")
	}

	if payload.Templates.MaxBytes != 5<<20 || payload.Templates.DefaultSource != "builtin" {
		t.Fatalf("unexpected template capabilities: %+v", payload.Templates)
	}
	if strings.Join(payload.Templates.RequiredRoles, "|") != "Title Slide|Title and Content" {
		t.Fatalf("unexpected required roles: %v", payload.Templates.RequiredRoles)
	}
	if strings.Join(payload.Formats, ",") != "html,markdown" {
		t.Fatalf("unexpected formats: %v", payload.Formats)
	}
	if payload.Connector.Active != "none" || payload.Connector.Import || payload.Connector.OAuth {
		t.Fatalf("unexpected connector capability: %+v", payload.Connector)
	}
}

func TestCapabilitiesConnectorEnabled(t *testing.T) {
	manager, _ := testOAuthManager(t, "https://accounts.example.com")
	cfg := testConfig()
	cfg.Templates.Dir = "/srv/templates"

	req := httptest.NewRequest(http.MethodGet, "/api/capabilities", nil)
	res := httptest.NewRecorder()

	testRouter(Dependencies{
		Config:    cfg,
		Connector: &stubConnector{name: "google_docs"},
		OAuth:     manager,
	}).ServeHTTP(res, req)

	var payload capabilitiesEnvelope
	if err := json.Unmarshal(res.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload.Connector.Active != "google_docs" || !payload.Connector.Import || !payload.Connector.OAuth {
		t.Fatalf("unexpected connector capability: %+v", payload.Connector)
	}
	if payload.Templates.DefaultSource != "directory" {
		t.Fatalf("expected directory default source, got %q", payload.Templates.DefaultSource)
	}
}

func TestGoogleDocsAuthStartOAuthNotConfigured(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/connectors/google_docs/auth/start", nil)
	res := httptest.NewRecorder()

	testRouter(Dependencies{Config: testConfig()}).ServeHTTP(res, req)

	if res.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", res.Code)
	}
	if code := decodeError(t, res).Error.Code; code != "connector_service_unavailable" {
		t.Fatalf("expected connector_service_unavailable, got %q", code)
	}
}

func authState(t *testing.T, router *gin.Engine) connectorAuthStartEnvelope {
	t.Helper()

	res := httptest.NewRecorder()
	router.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/api/connectors/google_docs/auth/start", nil))
	if res.Code != http.StatusOK {
		t.Fatalf("expected start status 200, got %d body=%s", res.Code, res.Body.String())
	}

	var payload connectorAuthStartEnvelope
	if err := json.Unmarshal(res.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode start response: %v", err)
	}
	return payload
}

func stateFrom(t *testing.T, authURL string) string {
	t.Helper()
	parsed, err := url.Parse(authURL)
	if err != nil {
		t.Fatalf("expected valid auth url, got %v", err)
	}
	state := strings.TrimSpace(parsed.Query().Get("state"))
	if state == "" {
		t.Fatalf("expected state query param in auth url")
	}
	return state
}

func TestGoogleDocsAuthStartAndCallbackSuccess(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "oauth-access",
			"refresh_token": "oauth-refresh",
			"token_type":    "Bearer",
			"expires_in":    3600,
		})
	}))
	defer tokenServer.Close()

	manager, store := testOAuthManager(t, tokenServer.URL)
	router := testRouter(Dependencies{Config: testConfig(), OAuth: manager})

	start := authState(t, router)
	if start.Connector != "google_docs" {
		t.Fatalf("expected google_docs connector, got %q", start.Connector)
	}
	if start.SessionKey == "" || start.AuthURL == "" || start.StateExpiresAt == "" {
		t.Fatalf("expected sessionKey/authUrl/stateExpiresAt in start response: %+v", start)
	}
	state := stateFrom(t, start.AuthURL)

	callbackReq := httptest.NewRequest(http.MethodGet, "/api/connectors/google_docs/auth/callback?state="+url.QueryEscape(state)+"&code=good-code", nil)
	callbackRes := httptest.NewRecorder()
	router.ServeHTTP(callbackRes, callbackReq)

	if callbackRes.Code != http.StatusOK {
		t.Fatalf("expected callback status 200, got %d body=%s", callbackRes.Code, callbackRes.Body.String())
	}

	var callback connectorAuthCallbackEnvelope
	if err := json.Unmarshal(callbackRes.Body.Bytes(), &callback); err != nil {
		t.Fatalf("failed to decode callback response: %v", err)
	}
	if callback.SessionKey != start.SessionKey {
		t.Fatalf("expected session key %q, got %q", start.SessionKey, callback.SessionKey)
	}
	if !callback.Authenticated || callback.ExpiresAt == "" {
		t.Fatalf("expected authenticated callback with expiry: %+v", callback)
	}

	token, ok, err := store.Token(callbackReq.Context(), start.SessionKey)
	if err != nil || !ok {
		t.Fatalf("expected oauth token to be stored, ok=%v err=%v", ok, err)
	}
	if token.AccessToken != "oauth-access" || token.RefreshToken != "oauth-refresh" {
		t.Fatalf("unexpected stored token: %+v", token)
	}
}

func TestGoogleDocsAuthCallbackErrors(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "exchange failed", http.StatusBadGateway)
	}))
	defer tokenServer.Close()

	manager, _ := testOAuthManager(t, tokenServer.URL)
	router := testRouter(Dependencies{Config: testConfig(), OAuth: manager})
	validState := stateFrom(t, authState(t, router).AuthURL)

	testCases := []struct {
		name       string
		query      string
		wantStatus int
		wantCode   string
	}{
		{"access denied", "error=access_denied&error_description=user%20denied", http.StatusBadRequest, "oauth_access_denied"},
		{"missing state", "code=abc", http.StatusBadRequest, "missing_oauth_state"},
		{"missing code", "state=abc", http.StatusBadRequest, "missing_oauth_code"},
		{"unknown state", "state=missing&code=abc", http.StatusBadRequest, "invalid_oauth_state"},
		{"exchange failure", "state=" + url.QueryEscape(validState) + "&code=bad-code", http.StatusBadGateway, "oauth_exchange_failed"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res := httptest.NewRecorder()
			router.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/api/connectors/google_docs/auth/callback?"+tc.query, nil))

			if res.Code != tc.wantStatus {
				t.Fatalf("expected status %d, got %d body=%s", tc.wantStatus, res.Code, res.Body.String())
			}
			if code := decodeError(t, res).Error.Code; code != tc.wantCode {
				t.Fatalf("expected %s, got %q", tc.wantCode, code)
			}
		})
	}
}

func TestConnectorImportConnectorUnavailable(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/connectors/import", strings.NewReader(`{"documentId":"doc-1"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", "req-1")
	res := httptest.NewRecorder()

	testRouter(Dependencies{Config: testConfig()}).ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", res.Code)
	}
	payload := decodeError(t, res)
	if payload.Error.Code != "connector_unavailable" {
		t.Fatalf("expected connector_unavailable, got %q", payload.Error.Code)
	}
	if payload.Error.RequestID != "req-1" {
		t.Fatalf("expected request id in envelope, got %q", payload.Error.RequestID)
	}
}

func TestConnectorImportValidation(t *testing.T) {
	router := testRouter(Dependencies{Config: testConfig(), Connector: &stubConnector{name: "google_docs"}})

	testCases := []struct {
		body     string
		wantCode string
	}{
		{`not json`, "invalid_payload"},
		{`{"documentId":"  "}`, "missing_document_id"},
	}
	for _, tc := range testCases {
		req := httptest.NewRequest(http.MethodPost, "/api/connectors/import", strings.NewReader(tc.body))
		req.Header.Set("Content-Type", "application/json")
		res := httptest.NewRecorder()
		router.ServeHTTP(res, req)

		if res.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400 for %q, got %d", tc.body, res.Code)
		}
		if code := decodeError(t, res).Error.Code; code != tc.wantCode {
			t.Fatalf("expected %s for %q, got %q", tc.wantCode, tc.body, code)
		}
	}
}

func TestConnectorImportUnauthorizedWhenAPIKeyConfigured(t *testing.T) {
	cfg := testConfig()
	cfg.Connectors.APIKey = "secret"

	req := httptest.NewRequest(http.MethodPost, "/api/connectors/import", strings.NewReader(`{"documentId":"doc-1"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Connector-Key", "wrong")
	res := httptest.NewRecorder()

	testRouter(Dependencies{Config: cfg, Connector: &stubConnector{name: "google_docs"}}).ServeHTTP(res, req)

	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", res.Code)
	}
	if code := decodeError(t, res).Error.Code; code != "connector_unauthorized" {
		t.Fatalf("expected connector_unauthorized, got %q", code)
	}
}

func TestConnectorImportAuthorizedWithBearerKey(t *testing.T) {
	cfg := testConfig()
	cfg.Connectors.APIKey = "secret"
	connector := &stubConnector{name: "google_docs"}

	req := httptest.NewRequest(http.MethodPost, "/api/connectors/import", strings.NewReader(`{"documentId":"doc-1"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer secret")
	req.Header.Set("X-Connector-Session", "session-9")
	res := httptest.NewRecorder()

	testRouter(Dependencies{Config: cfg, Connector: connector}).ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%s", res.Code, res.Body.String())
	}
	if connector.lastRequest.SessionKey != "session-9" || connector.lastRequest.DocumentID != "doc-1" {
		t.Fatalf("unexpected import request: %+v", connector.lastRequest)
	}
	if !strings.Contains(res.Body.String(), `"format":"html"`) {
		t.Fatalf("expected html document, got %s", res.Body.String())
	}
}

func TestConnectorImportRateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.Connectors.RateLimitPerMinute = 1
	cfg.Connectors.RateLimitBurst = 1
	router := testRouter(Dependencies{Config: cfg, Connector: &stubConnector{name: "google_docs"}})

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/connectors/import", strings.NewReader(`{"documentId":"doc-1"}`))
		req.Header.Set("Content-Type", "application/json")
		res := httptest.NewRecorder()
		router.ServeHTTP(res, req)
		return res
	}

	if first := send(); first.Code != http.StatusOK {
		t.Fatalf("expected first request to pass, got %d", first.Code)
	}
	second := send()
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d", second.Code)
	}
	if code := decodeError(t, second).Error.Code; code != "connector_rate_limited" {
		t.Fatalf("expected connector_rate_limited, got %q", code)
	}
}
