package outline

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/openai/openai-go"
	"google.golang.org/genai"
)

// ConfigError reports provider settings that cannot be used. It is raised
// before any network call.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// GenerationError reports a provider that returned no usable outline.
type GenerationError struct {
	Provider string
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s outline generation failed: %v", e.Provider, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

func generationError(provider string, err error) error {
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return err
	}
	return &GenerationError{Provider: provider, Err: err}
}

// upstreamStatusError is a non-2xx answer from a raw HTTP backend.
type upstreamStatusError struct {
	statusCode int
	message    string
}

func (e *upstreamStatusError) Error() string {
	if strings.TrimSpace(e.message) == "" {
		return fmt.Sprintf("upstream returned status %d", e.statusCode)
	}
	return fmt.Sprintf("upstream returned status %d: %s", e.statusCode, e.message)
}

// ErrorCategory buckets provider failures for logs and metrics.
func ErrorCategory(err error) string {
	if err == nil {
		return "none"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}
	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) {
		return "config"
	}

	status := 0
	var statusErr *upstreamStatusError
	var openaiErr *openai.Error
	var geminiErr genai.APIError
	switch {
	case errors.As(err, &statusErr):
		status = statusErr.statusCode
	case errors.As(err, &openaiErr):
		status = openaiErr.StatusCode
	case errors.As(err, &geminiErr):
		status = geminiErr.Code
	}
	switch {
	case status == 401 || status == 403:
		return "auth"
	case status == 429:
		return "rate_limited"
	case status >= 500:
		return "upstream"
	case status >= 400:
		return "bad_request"
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return "timeout"
		}
		return "network"
	}
	if errors.Is(err, errNoSlides) || errors.Is(err, errInvalidResponse) {
		return "invalid_response"
	}
	return "unknown"
}
