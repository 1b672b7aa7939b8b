// Package config loads the server configuration once at startup.
package config

import (
	"time"
)

// Config is the root configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Templates  TemplatesConfig  `mapstructure:"templates"`
	Connectors ConnectorsConfig `mapstructure:"connectors"`
	Tracing    TracingConfig    `mapstructure:"tracing"`
}

type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	// MaxMultipartMemory bounds the in-memory part of multipart parsing.
	MaxMultipartMemory int64 `mapstructure:"max_multipart_memory"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LLMConfig holds the server-side defaults applied to per-request provider
// settings. Credentials never live here.
type LLMConfig struct {
	Timeout         time.Duration `mapstructure:"timeout"`
	LlamaEndpoint   string        `mapstructure:"llama_endpoint"`
	MaxTokens       int           `mapstructure:"max_tokens"`
	Temperature     float64       `mapstructure:"temperature"`
	OpenAIModel     string        `mapstructure:"openai_model"`
	GeminiModel     string        `mapstructure:"gemini_model"`
	AzureAPIVersion string        `mapstructure:"azure_api_version"`
}

type TemplatesConfig struct {
	// Dir is searched for a default template; empty uses the built-in deck.
	Dir string `mapstructure:"dir"`
	// TempDir stages uploads; empty means os.TempDir.
	TempDir string `mapstructure:"temp_dir"`
}

type ConnectorsConfig struct {
	// Provider is "none" or "google_docs".
	Provider           string           `mapstructure:"provider"`
	APIKey             string           `mapstructure:"api_key"`
	RateLimitPerMinute int              `mapstructure:"rate_limit_per_minute"`
	RateLimitBurst     int              `mapstructure:"rate_limit_burst"`
	GoogleDocs         GoogleDocsConfig `mapstructure:"google_docs"`
	TokenStore         TokenStoreConfig `mapstructure:"token_store"`
	Web                WebConfig        `mapstructure:"web"`
}

type GoogleDocsConfig struct {
	AccessToken     string      `mapstructure:"access_token"`
	CredentialsFile string      `mapstructure:"credentials_file"`
	OAuth           OAuthConfig `mapstructure:"oauth"`
}

type OAuthConfig struct {
	ClientID     string        `mapstructure:"client_id"`
	ClientSecret string        `mapstructure:"client_secret"`
	RedirectURL  string        `mapstructure:"redirect_url"`
	AuthURL      string        `mapstructure:"auth_url"`
	TokenURL     string        `mapstructure:"token_url"`
	Scopes       []string      `mapstructure:"scopes"`
	StateTTL     time.Duration `mapstructure:"state_ttl"`
}

// Enabled reports whether the OAuth flow has what it needs.
func (c OAuthConfig) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.RedirectURL != ""
}

type TokenStoreConfig struct {
	// Backend is "memory" or "redis".
	Backend string      `mapstructure:"backend"`
	Redis   RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr      string        `mapstructure:"addr"`
	Password  string        `mapstructure:"password"`
	DB        int           `mapstructure:"db"`
	KeyPrefix string        `mapstructure:"key_prefix"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

type WebConfig struct {
	Timeout   time.Duration `mapstructure:"timeout"`
	MaxBytes  int64         `mapstructure:"max_bytes"`
	UserAgent string        `mapstructure:"user_agent"`
}

type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	ServiceName string  `mapstructure:"service_name"`
	Endpoint    string  `mapstructure:"endpoint"`
	Insecure    bool    `mapstructure:"insecure"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}
