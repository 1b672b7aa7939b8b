package connectors

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ElSrJuez/notare/internal/config"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/docs/v1"
)

var ErrOAuthUnavailable = errors.New("google docs oauth unavailable")
var ErrOAuthStateInvalid = errors.New("google docs oauth state is invalid")
var ErrOAuthExchangeFailed = errors.New("google docs oauth code exchange failed")

const defaultGoogleOAuthStateTTL = 10 * time.Minute

type GoogleDocsAuthStart struct {
	SessionKey     string
	AuthURL        string
	StateExpiresAt time.Time
}

type GoogleDocsAuthCallback struct {
	SessionKey string
	ExpiresAt  *time.Time
}

// GoogleDocsOAuthManager runs the authorization code flow and keeps one
// token per browser session.
type GoogleDocsOAuthManager struct {
	config       *oauth2.Config
	store        OAuthTokenStore
	now          func() time.Time
	stateTTL     time.Duration
	randomString func(int) (string, error)
}

func NewGoogleDocsOAuthManager(cfg config.OAuthConfig, store OAuthTokenStore) (*GoogleDocsOAuthManager, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: token store is not configured", ErrOAuthUnavailable)
	}

	oauthConfig, err := newGoogleDocsOAuthConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOAuthUnavailable, err)
	}

	stateTTL := cfg.StateTTL
	if stateTTL <= 0 {
		stateTTL = defaultGoogleOAuthStateTTL
	}

	return &GoogleDocsOAuthManager{
		config:       oauthConfig,
		store:        store,
		now:          time.Now,
		stateTTL:     stateTTL,
		randomString: secureRandomString,
	}, nil
}

func (m *GoogleDocsOAuthManager) StartAuth(ctx context.Context) (GoogleDocsAuthStart, error) {
	if m == nil || m.config == nil || m.store == nil {
		return GoogleDocsAuthStart{}, fmt.Errorf("%w: manager is not initialized", ErrOAuthUnavailable)
	}

	sessionKey, err := m.randomString(32)
	if err != nil {
		return GoogleDocsAuthStart{}, fmt.Errorf("%w: %v", ErrOAuthUnavailable, err)
	}

	state, err := m.randomString(32)
	if err != nil {
		return GoogleDocsAuthStart{}, fmt.Errorf("%w: %v", ErrOAuthUnavailable, err)
	}

	stateExpiresAt := m.now().Add(m.stateTTL)
	if err := m.store.SaveState(ctx, state, sessionKey, stateExpiresAt); err != nil {
		return GoogleDocsAuthStart{}, fmt.Errorf("%w: %v", ErrOAuthUnavailable, err)
	}

	authURL := m.config.AuthCodeURL(
		state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)

	return GoogleDocsAuthStart{
		SessionKey:     sessionKey,
		AuthURL:        authURL,
		StateExpiresAt: stateExpiresAt,
	}, nil
}

func (m *GoogleDocsOAuthManager) CompleteAuth(ctx context.Context, state string, code string) (GoogleDocsAuthCallback, error) {
	if m == nil || m.config == nil || m.store == nil {
		return GoogleDocsAuthCallback{}, fmt.Errorf("%w: manager is not initialized", ErrOAuthUnavailable)
	}

	state = strings.TrimSpace(state)
	code = strings.TrimSpace(code)
	if state == "" {
		return GoogleDocsAuthCallback{}, ErrOAuthStateInvalid
	}
	if code == "" {
		return GoogleDocsAuthCallback{}, fmt.Errorf("%w: missing code", ErrOAuthExchangeFailed)
	}

	sessionKey, ok, err := m.store.ConsumeState(ctx, state, m.now())
	if err != nil {
		return GoogleDocsAuthCallback{}, fmt.Errorf("%w: %v", ErrOAuthUnavailable, err)
	}
	if !ok {
		return GoogleDocsAuthCallback{}, ErrOAuthStateInvalid
	}

	token, err := m.config.Exchange(ctx, code)
	if err != nil {
		return GoogleDocsAuthCallback{}, fmt.Errorf("%w: %v", ErrOAuthExchangeFailed, err)
	}
	if err := m.store.SaveToken(ctx, sessionKey, token); err != nil {
		return GoogleDocsAuthCallback{}, fmt.Errorf("%w: %v", ErrOAuthUnavailable, err)
	}

	result := GoogleDocsAuthCallback{
		SessionKey: sessionKey,
	}
	if !token.Expiry.IsZero() {
		expiresAt := token.Expiry.UTC()
		result.ExpiresAt = &expiresAt
	}

	return result, nil
}

// TokenSource returns a refreshing source for sessionKey. Refreshed tokens
// are written back to the store.
func (m *GoogleDocsOAuthManager) TokenSource(ctx context.Context, sessionKey string) (oauth2.TokenSource, bool, error) {
	if m == nil || m.config == nil || m.store == nil {
		return nil, false, nil
	}

	token, ok, err := m.store.Token(ctx, sessionKey)
	if err != nil || !ok {
		return nil, ok, err
	}

	return &sessionTokenSource{
		ctx:        ctx,
		sessionKey: sessionKey,
		store:      m.store,
		last:       token,
		base:       m.config.TokenSource(ctx, token),
	}, true, nil
}

type sessionTokenSource struct {
	ctx        context.Context
	sessionKey string
	store      OAuthTokenStore

	mu   sync.Mutex
	last *oauth2.Token
	base oauth2.TokenSource
}

func (s *sessionTokenSource) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, err := s.base.Token()
	if err != nil {
		return nil, err
	}
	if s.last == nil || token.AccessToken != s.last.AccessToken {
		if err := s.store.SaveToken(s.ctx, s.sessionKey, token); err != nil {
			return nil, err
		}
		s.last = token
	}
	return token, nil
}

func newGoogleDocsOAuthConfig(cfg config.OAuthConfig) (*oauth2.Config, error) {
	clientID := strings.TrimSpace(cfg.ClientID)
	clientSecret := strings.TrimSpace(cfg.ClientSecret)
	redirectURL := strings.TrimSpace(cfg.RedirectURL)

	if clientID == "" || clientSecret == "" || redirectURL == "" {
		return nil, errors.New("client_id, client_secret and redirect_url are required")
	}

	endpoint := google.Endpoint
	if authURL := strings.TrimSpace(cfg.AuthURL); authURL != "" {
		endpoint.AuthURL = authURL
	}
	if tokenURL := strings.TrimSpace(cfg.TokenURL); tokenURL != "" {
		endpoint.TokenURL = tokenURL
	}

	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       normalizeScopes(cfg.Scopes),
		Endpoint:     endpoint,
	}, nil
}

// normalizeScopes accepts entries that are themselves comma or space
// separated, as env overrides produce a single string.
func normalizeScopes(raw []string) []string {
	unique := make(map[string]struct{}, len(raw))
	scopes := make([]string, 0, len(raw))

	for _, entry := range raw {
		parts := strings.FieldsFunc(entry, func(r rune) bool {
			return r == ',' || r == ' '
		})
		for _, part := range parts {
			scope := strings.TrimSpace(part)
			if scope == "" {
				continue
			}
			if _, exists := unique[scope]; exists {
				continue
			}
			unique[scope] = struct{}{}
			scopes = append(scopes, scope)
		}
	}

	if len(scopes) == 0 {
		return []string{docs.DocumentsReadonlyScope}
	}
	return scopes
}

func secureRandomString(length int) (string, error) {
	if length <= 0 {
		return "", errors.New("length must be positive")
	}

	data := make([]byte, length)
	if _, err := rand.Read(data); err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(data), nil
}
