package connectors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2"
)

// RedisOAuthTokenStore shares OAuth sessions between server replicas.
type RedisOAuthTokenStore struct {
	client   redis.UniversalClient
	prefix   string
	tokenTTL time.Duration
}

func NewRedisOAuthTokenStore(client redis.UniversalClient, prefix string, tokenTTL time.Duration) *RedisOAuthTokenStore {
	if prefix == "" {
		prefix = "notare:oauth:"
	}
	return &RedisOAuthTokenStore{client: client, prefix: prefix, tokenTTL: tokenTTL}
}

func (s *RedisOAuthTokenStore) stateKey(state string) string {
	return s.prefix + "state:" + state
}

func (s *RedisOAuthTokenStore) tokenKey(sessionKey string) string {
	return s.prefix + "token:" + sessionKey
}

func (s *RedisOAuthTokenStore) SaveState(ctx context.Context, state string, sessionKey string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if expiresAt.IsZero() {
		ttl = 0
	} else if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, s.stateKey(state), sessionKey, ttl).Err(); err != nil {
		return fmt.Errorf("save oauth state: %w", err)
	}
	return nil
}

// ConsumeState relies on the key TTL for expiry, so now is unused.
func (s *RedisOAuthTokenStore) ConsumeState(ctx context.Context, state string, _ time.Time) (string, bool, error) {
	sessionKey, err := s.client.GetDel(ctx, s.stateKey(state)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("consume oauth state: %w", err)
	}
	return sessionKey, true, nil
}

func (s *RedisOAuthTokenStore) SaveToken(ctx context.Context, sessionKey string, token *oauth2.Token) error {
	if token == nil {
		return nil
	}
	existing, _, err := s.Token(ctx, sessionKey)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(mergeToken(existing, token))
	if err != nil {
		return fmt.Errorf("encode oauth token: %w", err)
	}
	if err := s.client.Set(ctx, s.tokenKey(sessionKey), payload, s.tokenTTL).Err(); err != nil {
		return fmt.Errorf("save oauth token: %w", err)
	}
	return nil
}

func (s *RedisOAuthTokenStore) Token(ctx context.Context, sessionKey string) (*oauth2.Token, bool, error) {
	raw, err := s.client.Get(ctx, s.tokenKey(sessionKey)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load oauth token: %w", err)
	}
	var token oauth2.Token
	if err := json.Unmarshal(raw, &token); err != nil {
		return nil, false, fmt.Errorf("decode oauth token: %w", err)
	}
	return &token, true, nil
}
