package connectors

import (
	"context"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// OAuthTokenStore keeps pending OAuth states and the tokens of completed
// sessions.
type OAuthTokenStore interface {
	SaveState(ctx context.Context, state string, sessionKey string, expiresAt time.Time) error
	// ConsumeState returns the session of state and deletes it. Expired or
	// unknown states report ok=false.
	ConsumeState(ctx context.Context, state string, now time.Time) (sessionKey string, ok bool, err error)
	SaveToken(ctx context.Context, sessionKey string, token *oauth2.Token) error
	Token(ctx context.Context, sessionKey string) (*oauth2.Token, bool, error)
}

type InMemoryOAuthTokenStore struct {
	mu     sync.RWMutex
	tokens map[string]*oauth2.Token
	states map[string]oauthState
}

type oauthState struct {
	sessionKey string
	expiresAt  time.Time
}

func NewInMemoryOAuthTokenStore() *InMemoryOAuthTokenStore {
	return &InMemoryOAuthTokenStore{
		tokens: make(map[string]*oauth2.Token),
		states: make(map[string]oauthState),
	}
}

func (s *InMemoryOAuthTokenStore) SaveState(_ context.Context, state string, sessionKey string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.states[state] = oauthState{
		sessionKey: sessionKey,
		expiresAt:  expiresAt,
	}
	return nil
}

func (s *InMemoryOAuthTokenStore) ConsumeState(_ context.Context, state string, now time.Time) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.states[state]
	if !ok {
		return "", false, nil
	}
	delete(s.states, state)

	if !entry.expiresAt.IsZero() && now.After(entry.expiresAt) {
		return "", false, nil
	}
	return entry.sessionKey, true, nil
}

func (s *InMemoryOAuthTokenStore) SaveToken(_ context.Context, sessionKey string, token *oauth2.Token) error {
	if token == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.tokens[sessionKey]
	s.tokens[sessionKey] = mergeToken(existing, token)
	return nil
}

func (s *InMemoryOAuthTokenStore) Token(_ context.Context, sessionKey string) (*oauth2.Token, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	token, ok := s.tokens[sessionKey]
	if !ok {
		return nil, false, nil
	}
	return copyToken(token), true, nil
}

// mergeToken keeps the previous refresh token when Google omits it from a
// later exchange or refresh response.
func mergeToken(existing, token *oauth2.Token) *oauth2.Token {
	copied := copyToken(token)
	if existing != nil && copied.RefreshToken == "" {
		copied.RefreshToken = existing.RefreshToken
	}
	return copied
}

func copyToken(token *oauth2.Token) *oauth2.Token {
	if token == nil {
		return nil
	}
	copied := *token
	return &copied
}
