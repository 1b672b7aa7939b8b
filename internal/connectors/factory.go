package connectors

import (
	"github.com/ElSrJuez/notare/internal/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// New returns the configured connector, falling back to the noop connector
// when Google Docs is requested without usable credentials.
func New(cfg config.ConnectorsConfig, oauth *GoogleDocsOAuthManager, log *zap.Logger) Connector {
	if log == nil {
		log = zap.NewNop()
	}

	if cfg.Provider == "google_docs" {
		connector, err := NewGoogleDocsConnector(cfg.GoogleDocs, oauth)
		if err == nil {
			return connector
		}
		log.Warn("google docs connector unavailable, using none", zap.Error(err))
	}

	return NewNoopConnector()
}

// NewOAuthManager returns nil when OAuth is not configured.
func NewOAuthManager(cfg config.ConnectorsConfig, store OAuthTokenStore, log *zap.Logger) *GoogleDocsOAuthManager {
	if cfg.Provider != "google_docs" || !cfg.GoogleDocs.OAuth.Enabled() {
		return nil
	}
	manager, err := NewGoogleDocsOAuthManager(cfg.GoogleDocs.OAuth, store)
	if err != nil {
		if log != nil {
			log.Warn("google docs oauth disabled", zap.Error(err))
		}
		return nil
	}
	return manager
}

// NewTokenStore builds the backend named by cfg.Backend. The returned close
// function releases the backend's connections.
func NewTokenStore(cfg config.TokenStoreConfig) (OAuthTokenStore, func() error) {
	if cfg.Backend != "redis" {
		return NewInMemoryOAuthTokenStore(), func() error { return nil }
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	return NewRedisOAuthTokenStore(client, cfg.Redis.KeyPrefix, cfg.Redis.TokenTTL), client.Close
}
