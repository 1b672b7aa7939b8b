package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ElSrJuez/notare/internal/config"
	"github.com/ElSrJuez/notare/internal/connectors"
	"github.com/ElSrJuez/notare/internal/domain"
	"github.com/ElSrJuez/notare/internal/logger"
	"github.com/ElSrJuez/notare/internal/markup"
	"github.com/ElSrJuez/notare/internal/metrics"
	"github.com/ElSrJuez/notare/internal/middleware"
	"github.com/ElSrJuez/notare/internal/outline"
	"github.com/ElSrJuez/notare/internal/pipeline"
	"github.com/ElSrJuez/notare/internal/template"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PageNormalizer fetches a web page and returns its cleaned main content.
type PageNormalizer interface {
	Normalize(ctx context.Context, rawURL string) (domain.Page, error)
}

// Dependencies are built once at startup and shared read-only by handlers.
type Dependencies struct {
	Pipeline   *pipeline.Pipeline
	Config     config.Config
	Connector  connectors.Connector
	OAuth      *connectors.GoogleDocsOAuthManager
	Normalizer PageNormalizer
}

type handlers struct {
	Dependencies
	limiter connectorRequestLimiter
}

func RegisterRoutes(router *gin.Engine, deps Dependencies) {
	if deps.Connector == nil {
		deps.Connector = connectors.NewNoopConnector()
	}
	h := &handlers{
		Dependencies: deps,
		limiter:      newConnectorRateLimiter(deps.Config.Connectors.RateLimitPerMinute, deps.Config.Connectors.RateLimitBurst),
	}

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, domain.HealthResponse{OK: true})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	router.GET("/api/capabilities", h.capabilities)

	router.POST("/api/pptx", h.generateDeck)
	router.POST("/api/outline", h.generateOutline)
	router.POST("/api/template/validate", h.validateTemplate)
	router.POST("/api/normalize", h.normalize)

	router.GET("/api/connectors/google_docs/auth/start", h.authStart)
	router.GET("/api/connectors/google_docs/auth/callback", h.authCallback)
	router.POST("/api/connectors/import", h.importDocument)
}

func (h *handlers) capabilities(c *gin.Context) {
	llm := h.Config.LLM
	providers := make([]domain.ProviderCapability, 0, len(outline.Kinds()))
	for _, kind := range outline.Kinds() {
		capability := domain.ProviderCapability{Name: kind.String(), RequiresAPIKey: kind != outline.KindLlama}
		switch kind {
		case outline.KindOpenAI:
			capability.DefaultModel = llm.OpenAIModel
		case outline.KindAzure:
			capability.RequiresEndpoint = true
		case outline.KindGemini:
			capability.DefaultModel = llm.GeminiModel
		case outline.KindLlama:
			capability.DefaultEndpoint = llm.LlamaEndpoint
		}
		providers = append(providers, capability)
	}

	defaultSource := template.SourceBuiltin
	if strings.TrimSpace(h.Config.Templates.Dir) != "" {
		defaultSource = template.SourceDirectory
	}
	roles := make([]string, len(template.Roles))
	for i, role := range template.Roles {
		roles[i] = role.CanonicalName()
	}

	connectorName := h.Connector.Name()
	c.JSON(http.StatusOK, domain.CapabilitiesResponse{
		Providers: providers,
		Formats:   []string{string(markup.FormatHTML), string(markup.FormatMarkdown)},
		Templates: domain.TemplateCapabilities{
			MaxBytes:      template.MaxTemplateBytes,
			DefaultSource: defaultSource,
			RequiredRoles: roles,
		},
		Connector: domain.ConnectorCapability{
			Active: connectorName,
			Import: connectorName != "none",
			OAuth:  h.OAuth != nil,
		},
	})
}

func (h *handlers) authStart(c *gin.Context) {
	if h.OAuth == nil {
		writeError(c, http.StatusServiceUnavailable, "connector_service_unavailable", "google docs oauth is not configured")
		return
	}

	result, err := h.OAuth.StartAuth(c.Request.Context())
	if err != nil {
		logger.FromContext(c.Request.Context()).Warn("oauth start failed", zap.Error(err))
		writeError(c, http.StatusServiceUnavailable, "connector_service_unavailable", "failed to initialize google docs oauth")
		return
	}

	c.JSON(http.StatusOK, domain.ConnectorAuthStartResponse{
		Connector:      "google_docs",
		SessionKey:     result.SessionKey,
		AuthURL:        result.AuthURL,
		StateExpiresAt: result.StateExpiresAt.UTC().Format(time.RFC3339),
	})
}

func (h *handlers) authCallback(c *gin.Context) {
	if h.OAuth == nil {
		writeError(c, http.StatusServiceUnavailable, "connector_service_unavailable", "google docs oauth is not configured")
		return
	}

	if oauthErr := strings.TrimSpace(c.Query("error")); oauthErr != "" {
		message := strings.TrimSpace(c.Query("error_description"))
		if message == "" {
			message = oauthErr
		}
		writeError(c, http.StatusBadRequest, "oauth_access_denied", message)
		return
	}

	state := strings.TrimSpace(c.Query("state"))
	if state == "" {
		writeError(c, http.StatusBadRequest, "missing_oauth_state", "state is required")
		return
	}
	code := strings.TrimSpace(c.Query("code"))
	if code == "" {
		writeError(c, http.StatusBadRequest, "missing_oauth_code", "code is required")
		return
	}

	result, err := h.OAuth.CompleteAuth(c.Request.Context(), state, code)
	if err != nil {
		switch {
		case errors.Is(err, connectors.ErrOAuthStateInvalid):
			writeError(c, http.StatusBadRequest, "invalid_oauth_state", "oauth state is invalid or expired")
		case errors.Is(err, connectors.ErrOAuthExchangeFailed):
			writeError(c, http.StatusBadGateway, "oauth_exchange_failed", "oauth code exchange failed")
		case errors.Is(err, connectors.ErrOAuthUnavailable):
			writeError(c, http.StatusServiceUnavailable, "connector_service_unavailable", "google docs oauth is not configured")
		default:
			writeError(c, http.StatusInternalServerError, "internal_error", err.Error())
		}
		return
	}

	response := domain.ConnectorAuthCallbackResponse{
		Connector:     "google_docs",
		SessionKey:    result.SessionKey,
		Authenticated: true,
	}
	if result.ExpiresAt != nil {
		response.ExpiresAt = result.ExpiresAt.UTC().Format(time.RFC3339)
	}

	c.JSON(http.StatusOK, response)
}

func (h *handlers) importDocument(c *gin.Context) {
	if !h.authorizeConnectorRequest(c) {
		return
	}
	if !enforceConnectorRateLimit(c, h.limiter) {
		return
	}

	var req domain.ConnectorImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_payload", "invalid connector import payload")
		return
	}
	documentID := strings.TrimSpace(req.DocumentID)
	if documentID == "" {
		writeError(c, http.StatusBadRequest, "missing_document_id", "documentId is required")
		return
	}

	started := time.Now()
	connector := h.Connector
	log := logger.FromContext(c.Request.Context()).With(
		zap.String("component", "connector"),
		zap.String("connector", connector.Name()),
		zap.String("operation", "import"),
	)
	if connector.Name() == "none" {
		metrics.RecordConnectorCall("none", "import", "error", "connector_unavailable", time.Since(started))
		log.Warn("connector call", zap.String("status", "error"), zap.String("error_code", "connector_unavailable"))
		writeError(c, http.StatusBadRequest, "connector_unavailable", "no connector is configured")
		return
	}

	log.Info("connector call", zap.String("event", "start"), zap.String("document_id", documentID))

	document, err := connector.ImportDocument(c.Request.Context(), connectors.ImportRequest{
		DocumentID: documentID,
		SessionKey: connectorSessionKeyFromRequest(c),
	})
	if err != nil {
		status, code, message := connectorOperationError(err, "import")
		metrics.RecordConnectorCall(connector.Name(), "import", "error", code, time.Since(started))
		log.Warn("connector call",
			zap.String("status", "error"),
			zap.String("error_code", code),
			zap.Int64("duration_ms", time.Since(started).Milliseconds()),
			zap.Error(err),
		)
		writeError(c, status, code, message)
		return
	}

	metrics.RecordConnectorCall(connector.Name(), "import", "success", "none", time.Since(started))
	log.Info("connector call",
		zap.String("status", "success"),
		zap.Int64("duration_ms", time.Since(started).Milliseconds()),
	)

	c.JSON(http.StatusOK, domain.ConnectorImportResponse{
		Connector: connector.Name(),
		Document:  document,
	})
}

func connectorSessionKeyFromRequest(c *gin.Context) string {
	return strings.TrimSpace(c.GetHeader("X-Connector-Session"))
}

func connectorOperationError(err error, operation string) (status int, code string, message string) {
	switch {
	case errors.Is(err, connectors.ErrInvalidURL):
		return http.StatusBadRequest, "invalid_url", "url must be an absolute http or https address"
	case errors.Is(err, connectors.ErrPageTooLarge):
		return http.StatusBadGateway, "page_too_large", "the page exceeds the size limit"
	case errors.Is(err, connectors.ErrUnauthorized):
		return http.StatusBadGateway, "connector_upstream_unauthorized", "connector upstream credentials are invalid"
	case errors.Is(err, connectors.ErrForbidden):
		return http.StatusForbidden, "connector_forbidden", "connector access is forbidden for this document"
	case errors.Is(err, connectors.ErrDocumentNotFound):
		return http.StatusNotFound, "connector_document_not_found", "connector document was not found"
	case errors.Is(err, connectors.ErrUnavailable):
		return http.StatusServiceUnavailable, "connector_service_unavailable", "connector service is unavailable"
	case errors.Is(err, connectors.ErrNotImplemented):
		return http.StatusNotImplemented, "connector_not_implemented", "connector " + operation + " is not implemented yet"
	default:
		return http.StatusInternalServerError, "internal_error", err.Error()
	}
}

func writeError(c *gin.Context, status int, code string, message string) {
	c.AbortWithStatusJSON(status, domain.APIErrorResponse{
		Error: domain.APIError{
			Code:      code,
			Message:   message,
			RequestID: middleware.GetRequestID(c),
		},
	})
}

func (h *handlers) authorizeConnectorRequest(c *gin.Context) bool {
	requiredKey := strings.TrimSpace(h.Config.Connectors.APIKey)
	if requiredKey == "" {
		return true
	}

	providedKey := strings.TrimSpace(c.GetHeader("X-Connector-Key"))
	if providedKey == "" {
		authorization := strings.TrimSpace(c.GetHeader("Authorization"))
		if strings.HasPrefix(strings.ToLower(authorization), "bearer ") {
			providedKey = strings.TrimSpace(authorization[7:])
		}
	}

	if subtle.ConstantTimeCompare([]byte(requiredKey), []byte(providedKey)) == 1 {
		return true
	}

	writeError(c, http.StatusUnauthorized, "connector_unauthorized", "connector API key is invalid")
	return false
}
