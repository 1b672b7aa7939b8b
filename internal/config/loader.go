package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "NOTARE"

// Load reads path, or config.toml from the working directory or ./configs
// when path is empty. A missing default file is not an error. Environment
// variables NOTARE_<SECTION>_<KEY> override file values.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults registers every key so environment overrides reach Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000", "http://localhost:5173", "http://localhost"})
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 120*time.Second)
	v.SetDefault("server.max_multipart_memory", 8<<20)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("llm.timeout", 60*time.Second)
	v.SetDefault("llm.llama_endpoint", "http://localhost:8080/completions")
	v.SetDefault("llm.max_tokens", 800)
	v.SetDefault("llm.temperature", 0.4)
	v.SetDefault("llm.openai_model", "gpt-4o-mini")
	v.SetDefault("llm.gemini_model", "gemini-2.5-flash")
	v.SetDefault("llm.azure_api_version", "2024-05-01-preview")

	v.SetDefault("templates.dir", "")
	v.SetDefault("templates.temp_dir", "")

	v.SetDefault("connectors.provider", "none")
	v.SetDefault("connectors.api_key", "")
	v.SetDefault("connectors.rate_limit_per_minute", 60)
	v.SetDefault("connectors.rate_limit_burst", 10)
	v.SetDefault("connectors.google_docs.access_token", "")
	v.SetDefault("connectors.google_docs.credentials_file", "")
	v.SetDefault("connectors.google_docs.oauth.client_id", "")
	v.SetDefault("connectors.google_docs.oauth.client_secret", "")
	v.SetDefault("connectors.google_docs.oauth.redirect_url", "")
	v.SetDefault("connectors.google_docs.oauth.auth_url", "")
	v.SetDefault("connectors.google_docs.oauth.token_url", "")
	v.SetDefault("connectors.google_docs.oauth.scopes", []string{})
	v.SetDefault("connectors.google_docs.oauth.state_ttl", 10*time.Minute)
	v.SetDefault("connectors.token_store.backend", "memory")
	v.SetDefault("connectors.token_store.redis.addr", "localhost:6379")
	v.SetDefault("connectors.token_store.redis.password", "")
	v.SetDefault("connectors.token_store.redis.db", 0)
	v.SetDefault("connectors.token_store.redis.key_prefix", "notare:oauth:")
	v.SetDefault("connectors.token_store.redis.token_ttl", 30*24*time.Hour)
	v.SetDefault("connectors.web.timeout", 15*time.Second)
	v.SetDefault("connectors.web.max_bytes", 5<<20)
	v.SetDefault("connectors.web.user_agent", "notare/1.0 (+https://github.com/ElSrJuez/notare)")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "notare")
	v.SetDefault("tracing.endpoint", "localhost:4317")
	v.SetDefault("tracing.insecure", true)
	v.SetDefault("tracing.sample_rate", 1.0)
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d out of range", c.Server.Port)
	}
	switch c.Connectors.Provider {
	case "none", "google_docs":
	default:
		return fmt.Errorf("config: unknown connectors.provider %q", c.Connectors.Provider)
	}
	switch c.Connectors.TokenStore.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("config: unknown connectors.token_store.backend %q", c.Connectors.TokenStore.Backend)
	}
	if c.Connectors.RateLimitPerMinute < 0 {
		c.Connectors.RateLimitPerMinute = 0
	}
	return nil
}
