package oauth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/sync/singleflight"
)

// FetchFunc obtains a brand-new token from the authorization server.
type FetchFunc func(ctx context.Context) (*oauth2.Token, error)

// CachingTokenSource is an oauth2.TokenSource that serves tokens from a
// TokenStore and fetches a new one only on a cache miss.
// Concurrent misses share a single fetch.
type CachingTokenSource struct {
	ctx    context.Context
	fetch  FetchFunc
	store  *TokenStore
	cred   Credential
	logger *slog.Logger

	group singleflight.Group
}

// NewCachingTokenSource creates a token source for the credentials
// identified by cred. ctx is passed to every fetch.
func NewCachingTokenSource(ctx context.Context, fetch FetchFunc, store *TokenStore, cred Credential, logger *slog.Logger) *CachingTokenSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachingTokenSource{
		ctx:    ctx,
		fetch:  fetch,
		store:  store,
		cred:   cred,
		logger: logger,
	}
}

// ClientCredentials holds the OAuth client-credentials grant parameters.
type ClientCredentials struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	Scopes       []string
}

// NewClientCredentialsSource returns a CachingTokenSource that fetches tokens
// with the client-credentials grant. httpClient, when non-nil, is used for
// token requests and bounds their duration through its Timeout.
func NewClientCredentialsSource(ctx context.Context, creds ClientCredentials, store *TokenStore, httpClient *http.Client, logger *slog.Logger) *CachingTokenSource {
	cfg := &clientcredentials.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		TokenURL:     creds.TokenURL,
		Scopes:       creds.Scopes,
	}

	if httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
	}

	// cfg.Token always performs a fresh exchange, unlike cfg.TokenSource,
	// which would hide Invalidate behind its own reuse cache.
	cred := NewCredential(creds.TokenURL, creds.ClientID, creds.ClientSecret)
	return NewCachingTokenSource(ctx, cfg.Token, store, cred, logger)
}

// Token returns a valid token, fetching one when the cache has none.
func (s *CachingTokenSource) Token() (*oauth2.Token, error) {
	if cached := s.store.GetToken(s.cred); cached != nil {
		return cached.ToOAuth2Token(), nil
	}

	result, err, _ := s.group.Do(TokenKey(s.cred), func() (interface{}, error) {
		if cached := s.store.GetToken(s.cred); cached != nil {
			return cached.ToOAuth2Token(), nil
		}

		s.logger.Debug("Fetching OAuth token", "token_url", s.cred.TokenURL)
		token, err := s.fetch(s.ctx)
		if err != nil {
			return nil, err
		}
		if token == nil || token.AccessToken == "" {
			return nil, fmt.Errorf("token endpoint %s returned an empty access token", s.cred.TokenURL)
		}

		if err := s.store.StoreToken(s.cred, token); err != nil {
			// The run can still proceed with the in-memory token.
			s.logger.Warn("Failed to cache OAuth token", "error", err)
		}
		return token, nil
	})
	if err != nil {
		return nil, err
	}

	return result.(*oauth2.Token), nil
}

// Invalidate drops the cached token so the next Token call fetches a new one.
// It is called when the API rejects a token with 401.
func (s *CachingTokenSource) Invalidate() error {
	s.logger.Debug("Invalidating cached OAuth token", "token_url", s.cred.TokenURL)
	return s.store.DeleteToken(s.cred)
}
