package outline

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Kind selects an outline backend.
type Kind int

const (
	KindOpenAI Kind = iota + 1
	KindAzure
	KindGemini
	KindLlama
)

var kindNames = map[Kind]string{
	KindOpenAI: "openai",
	KindAzure:  "azure",
	KindGemini: "gemini",
	KindLlama:  "llama",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Kinds lists the supported backends in a stable order.
func Kinds() []Kind {
	return []Kind{KindOpenAI, KindAzure, KindGemini, KindLlama}
}

// ParseKind maps a provider name from request settings to a Kind.
func ParseKind(name string) (Kind, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	for k, n := range kindNames {
		if n == normalized {
			return k, nil
		}
	}
	return 0, &ConfigError{Field: "provider", Message: "unknown provider " + `"` + name + `"`}
}

// Settings is the per-request provider selection. It is never stored.
type Settings struct {
	Provider   string `json:"provider"`
	APIKey     string `json:"api_key,omitempty"`
	Model      string `json:"model,omitempty"`
	Endpoint   string `json:"endpoint,omitempty"`
	APIVersion string `json:"api_version,omitempty"`
}

// ParseSettings decodes the settings JSON sent with a request.
func ParseSettings(raw string) (Settings, error) {
	var s Settings
	if strings.TrimSpace(raw) == "" {
		return s, &ConfigError{Field: "settings", Message: "settings are required"}
	}
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return s, &ConfigError{Field: "settings", Message: "settings must be a JSON object: " + err.Error()}
	}
	return s, nil
}

// Defaults are the process-wide values used when settings leave a field empty.
type Defaults struct {
	Timeout         time.Duration
	LlamaEndpoint   string
	MaxTokens       int
	Temperature     float64
	OpenAIModel     string
	GeminiModel     string
	AzureAPIVersion string
	// HTTPClient is used for outbound calls; nil means a fresh client.
	HTTPClient *http.Client
}

const (
	minTimeout = time.Second
	maxTimeout = 90 * time.Second
)

// DefaultDefaults mirrors the configuration defaults.
func DefaultDefaults() Defaults {
	return Defaults{
		Timeout:         60 * time.Second,
		LlamaEndpoint:   "http://localhost:8080/completions",
		MaxTokens:       800,
		Temperature:     0.4,
		OpenAIModel:     "gpt-4o-mini",
		GeminiModel:     "gemini-2.5-flash",
		AzureAPIVersion: "2024-05-01-preview",
	}
}

func (d Defaults) timeout() time.Duration {
	switch {
	case d.Timeout <= 0:
		return DefaultDefaults().Timeout
	case d.Timeout < minTimeout:
		return minTimeout
	case d.Timeout > maxTimeout:
		return maxTimeout
	}
	return d.Timeout
}

// withFallbacks fills zero fields from DefaultDefaults and clamps the timeout.
func (d Defaults) withFallbacks() Defaults {
	def := DefaultDefaults()
	d.Timeout = d.timeout()
	if d.LlamaEndpoint == "" {
		d.LlamaEndpoint = def.LlamaEndpoint
	}
	if d.MaxTokens <= 0 {
		d.MaxTokens = def.MaxTokens
	}
	if d.Temperature <= 0 {
		d.Temperature = def.Temperature
	}
	if d.OpenAIModel == "" {
		d.OpenAIModel = def.OpenAIModel
	}
	if d.GeminiModel == "" {
		d.GeminiModel = def.GeminiModel
	}
	if d.AzureAPIVersion == "" {
		d.AzureAPIVersion = def.AzureAPIVersion
	}
	return d
}

func (d Defaults) httpClient() *http.Client {
	if d.HTTPClient != nil {
		return d.HTTPClient
	}
	return &http.Client{}
}

// New validates settings and builds the matching provider. No network call
// is made; every configuration problem is a *ConfigError.
func New(ctx context.Context, settings Settings, defaults Defaults, logger *zap.Logger) (Provider, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	kind, err := ParseKind(settings.Provider)
	if err != nil {
		return nil, err
	}
	defaults = defaults.withFallbacks()

	settings.APIKey = strings.TrimSpace(settings.APIKey)
	settings.Endpoint = strings.TrimSpace(settings.Endpoint)
	settings.Model = strings.TrimSpace(settings.Model)
	settings.APIVersion = strings.TrimSpace(settings.APIVersion)

	if kind != KindLlama && settings.APIKey == "" {
		return nil, &ConfigError{Field: "api_key", Message: "api_key is required for provider " + kind.String()}
	}

	var provider Provider
	switch kind {
	case KindOpenAI:
		provider = newOpenAIProvider(settings, defaults)
	case KindAzure:
		if settings.Endpoint == "" {
			return nil, &ConfigError{Field: "endpoint", Message: "endpoint is required for provider azure"}
		}
		provider = newAzureProvider(settings, defaults)
	case KindGemini:
		provider, err = newGeminiProvider(ctx, settings, defaults)
		if err != nil {
			return nil, &ConfigError{Field: "provider", Message: err.Error()}
		}
	case KindLlama:
		provider, err = newLlamaProvider(settings, defaults)
		if err != nil {
			return nil, err
		}
	}
	return observe(provider, logger), nil
}
