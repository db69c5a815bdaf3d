package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/aj98-official/Nova/internal/config"
)

// ErrRefreshDenied means the refresh token was rejected by the provider
// (invalid or revoked). The current cycle must be skipped; a new refresh
// token has to be configured before calendar access can resume.
var ErrRefreshDenied = errors.New("token refresh denied")

// expiryMargin is the safety margin before token expiry. A cached access
// token is never handed out closer to its expiry than this.
const expiryMargin = 2 * time.Minute

// CredentialStore produces short-lived access tokens from a long-lived
// refresh token, refreshing transparently on expiry. It is safe for
// concurrent use, though in practice only the scheduler's single-flight
// firing path calls it.
type CredentialStore struct {
	oauthConfig  *oauth2.Config
	refreshToken string
	tokenStore   TokenStore // optional on-disk cache of refreshed tokens

	mu    sync.Mutex
	token *oauth2.Token // cached access token, nil until first refresh
	now   func() time.Time
}

// NewCredentialStore builds a CredentialStore from the configured Google
// OAuth client. If tokenStore is non-nil, a previously cached access token
// is loaded and reused while still valid, and refreshed tokens are saved
// back to it.
func NewCredentialStore(cfg config.GoogleConfig, tokenStore TokenStore) (*CredentialStore, error) {
	if cfg.RefreshToken == "" {
		return nil, fmt.Errorf("refresh token is required")
	}

	s := &CredentialStore{
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint: oauth2.Endpoint{
				TokenURL: cfg.TokenURI,
			},
		},
		refreshToken: cfg.RefreshToken,
		tokenStore:   tokenStore,
		now:          time.Now,
	}

	if tokenStore != nil {
		// The cache is advisory: a load failure or stale token just means
		// the first cycle performs a refresh.
		if token, err := tokenStore.LoadToken(); err == nil && token != nil {
			s.token = token
		}
	}

	return s, nil
}

// AccessToken returns a valid access token, refreshing if the cached one is
// missing or within the safety margin of expiry. A rejected refresh returns
// ErrRefreshDenied; transport failures return a wrapped transient error.
func (s *CredentialStore) AccessToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != nil && s.token.AccessToken != "" &&
		s.token.Expiry.After(s.now().Add(expiryMargin)) {
		return s.token.AccessToken, nil
	}

	token, err := s.refresh(ctx)
	if err != nil {
		return "", err
	}

	s.token = token
	if s.tokenStore != nil {
		if err := s.tokenStore.SaveToken(token); err != nil {
			// Cache write failures are not fatal; the token is still usable.
			return token.AccessToken, nil
		}
	}
	return token.AccessToken, nil
}

// Invalidate drops the cached access token so the next AccessToken call
// performs a refresh. Used when the calendar API rejects a token that has
// not yet reached its recorded expiry.
func (s *CredentialStore) Invalidate() {
	s.mu.Lock()
	s.token = nil
	s.mu.Unlock()
}

// refresh performs the refresh grant exchange. Callers hold s.mu.
func (s *CredentialStore) refresh(ctx context.Context) (*oauth2.Token, error) {
	seed := &oauth2.Token{RefreshToken: s.refreshToken}
	token, err := s.oauthConfig.TokenSource(ctx, seed).Token()
	if err != nil {
		if isRefreshDenied(err) {
			return nil, fmt.Errorf("%w: %v", ErrRefreshDenied, err)
		}
		return nil, fmt.Errorf("token refresh failed: %w", err)
	}
	// Google keeps the refresh token out of the response on refresh grants;
	// carry the configured one forward so the token round-trips the cache.
	if token.RefreshToken == "" {
		token.RefreshToken = s.refreshToken
	}
	return token, nil
}

// isRefreshDenied reports whether the token endpoint rejected the refresh
// token itself, as opposed to failing transiently. The provider signals a
// revoked or invalid token with invalid_grant on a 4xx response.
func isRefreshDenied(err error) bool {
	var retrieveErr *oauth2.RetrieveError
	if !errors.As(err, &retrieveErr) {
		return false
	}
	if retrieveErr.ErrorCode == "invalid_grant" {
		return true
	}
	if retrieveErr.Response != nil {
		code := retrieveErr.Response.StatusCode
		return code == http.StatusBadRequest || code == http.StatusUnauthorized
	}
	return false
}
