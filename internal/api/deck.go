package api

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ElSrJuez/notare/internal/domain"
	"github.com/ElSrJuez/notare/internal/logger"
	"github.com/ElSrJuez/notare/internal/markup"
	"github.com/ElSrJuez/notare/internal/metrics"
	"github.com/ElSrJuez/notare/internal/outline"
	"github.com/ElSrJuez/notare/internal/pipeline"
	"github.com/ElSrJuez/notare/internal/slides"
	"github.com/ElSrJuez/notare/internal/template"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	pptxContentType = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	deckFilename    = "notare.pptx"

	// maxDocumentBytes bounds the non-template part of a request body.
	maxDocumentBytes       = 16 << 20
	defaultMultipartMemory = 8 << 20

	headerDiagnostics = "X-Template-Diagnostics"
	headerSummary     = "X-Template-Summary"
)

var errMissingDocument = errors.New("html is required")

func (h *handlers) generateDeck(c *gin.Context) {
	if !h.parseMultipart(c) {
		return
	}

	data, err := readTemplate(c)
	if err != nil {
		writePipelineError(c, err)
		return
	}
	req, ok := h.documentRequest(c)
	if !ok {
		return
	}
	req.Template = data

	result, err := h.Pipeline.Generate(c.Request.Context(), req)
	if err != nil {
		writePipelineError(c, err)
		return
	}

	c.Header(headerDiagnostics, result.Report.Header())
	c.Header(headerSummary, string(result.Report.Summary))
	c.Header("Content-Disposition", `attachment; filename="`+deckFilename+`"`)
	c.Data(http.StatusOK, pptxContentType, result.Deck)
}

func (h *handlers) generateOutline(c *gin.Context) {
	if !h.parseMultipart(c) {
		return
	}

	req, ok := h.documentRequest(c)
	if !ok {
		return
	}

	o, err := h.Pipeline.Outline(c.Request.Context(), req.Settings, req.Document, req.Format)
	if err != nil {
		writePipelineError(c, err)
		return
	}

	specs := make([]domain.SlideSpec, len(o.Slides))
	for i, slide := range o.Slides {
		bullets := slide.Bullets
		if bullets == nil {
			bullets = []string{}
		}
		specs[i] = domain.SlideSpec{Title: slide.Title, Bullets: bullets}
	}
	kind, _ := outline.ParseKind(req.Settings.Provider)
	c.JSON(http.StatusOK, domain.OutlineResponse{Provider: kind.String(), Slides: specs})
}

func (h *handlers) validateTemplate(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, template.MaxTemplateBytes+maxDocumentBytes)

	data, err := readTemplate(c)
	if err != nil {
		writePipelineError(c, err)
		return
	}

	report, err := h.Pipeline.ValidateTemplate(c.Request.Context(), data)
	if err != nil {
		writePipelineError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *handlers) normalize(c *gin.Context) {
	if h.Normalizer == nil {
		writeError(c, http.StatusServiceUnavailable, "connector_service_unavailable", "page normalizer is not configured")
		return
	}

	var req domain.NormalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.URL) == "" {
		writeError(c, http.StatusBadRequest, "invalid_payload", "url is required")
		return
	}

	started := time.Now()
	page, err := h.Normalizer.Normalize(c.Request.Context(), req.URL)
	if err != nil {
		status, code, message := connectorOperationError(err, "normalize")
		metrics.RecordConnectorCall("web", "normalize", "error", code, time.Since(started))
		logger.FromContext(c.Request.Context()).Warn("connector call",
			zap.String("connector", "web"),
			zap.String("operation", "normalize"),
			zap.String("error_code", code),
			zap.Error(err),
		)
		writeError(c, status, code, message)
		return
	}

	metrics.RecordConnectorCall("web", "normalize", "success", "none", time.Since(started))
	c.JSON(http.StatusOK, page)
}

// parseMultipart bounds the body and parses the form so oversized uploads
// fail before any field is read.
func (h *handlers) parseMultipart(c *gin.Context) bool {
	memory := h.Config.Server.MaxMultipartMemory
	if memory <= 0 {
		memory = defaultMultipartMemory
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, template.MaxTemplateBytes+maxDocumentBytes)
	if err := c.Request.ParseMultipartForm(memory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(c, http.StatusRequestEntityTooLarge, "payload_too_large", "request body is too large")
			return false
		}
		writeError(c, http.StatusBadRequest, "invalid_payload", "expected a multipart form: "+err.Error())
		return false
	}
	return true
}

func (h *handlers) documentRequest(c *gin.Context) (pipeline.Request, bool) {
	settings, err := outline.ParseSettings(c.PostForm("settings"))
	if err != nil {
		writePipelineError(c, err)
		return pipeline.Request{}, false
	}

	document, ok := c.GetPostForm("html")
	if !ok {
		writeError(c, http.StatusBadRequest, "invalid_payload", errMissingDocument.Error())
		return pipeline.Request{}, false
	}

	format, err := markup.ParseFormat(c.PostForm("format"))
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid_payload", err.Error())
		return pipeline.Request{}, false
	}

	return pipeline.Request{Settings: settings, Document: document, Format: format}, true
}

// readTemplate returns nil when no template was uploaded.
func readTemplate(c *gin.Context) ([]byte, error) {
	header, err := c.FormFile("template")
	switch {
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return nil, nil
	case err != nil:
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, &template.PayloadTooLargeError{Size: -1, Limit: template.MaxTemplateBytes}
		}
		return nil, err
	}

	if err := template.CheckSize(header.Size); err != nil {
		return nil, err
	}

	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, template.MaxTemplateBytes+1))
	if err != nil {
		return nil, err
	}
	if err := template.CheckSize(int64(len(data))); err != nil {
		return nil, err
	}
	return data, nil
}

func writePipelineError(c *gin.Context, err error) {
	var (
		cfgErr      *outline.ConfigError
		sizeErr     *template.PayloadTooLargeError
		loadErr     *template.LoadError
		genErr      *outline.GenerationError
		assemblyErr *slides.AssemblyError
	)

	log := logger.FromContext(c.Request.Context())
	switch {
	case errors.As(err, &cfgErr):
		writeError(c, http.StatusBadRequest, "invalid_provider_settings", cfgErr.Error())
	case errors.As(err, &sizeErr):
		writeError(c, http.StatusRequestEntityTooLarge, "template_too_large", sizeErr.Error())
	case errors.As(err, &loadErr):
		writeError(c, http.StatusBadRequest, "invalid_template", loadErr.Error())
	case errors.As(err, &genErr):
		log.Warn("outline generation failed", zap.Error(err))
		writeError(c, http.StatusBadGateway, "outline_generation_failed", genErr.Error())
	case errors.As(err, &assemblyErr):
		log.Error("assembly failed", zap.Error(err))
		writeError(c, http.StatusInternalServerError, "assembly_failed", assemblyErr.Error())
	default:
		log.Error("request failed", zap.Error(err))
		writeError(c, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
