// Package auth provides Spotify app authentication with token caching.
package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// EarlyExpiry is how long before its real expiry a cached token is refreshed.
const EarlyExpiry = 60 * time.Second

// ErrMissingCredentials is returned when the client ID or secret is empty.
var ErrMissingCredentials = errors.New("missing SPOTIFY_CLIENT_ID or SPOTIFY_CLIENT_SECRET")

// Credentials identify the Spotify app.
type Credentials struct {
	ClientID     string
	ClientSecret string
	// TokenURL overrides the Spotify accounts endpoint (tests).
	TokenURL string
}

// TokenCache hands out a client-credentials access token. The first call to
// Token fetches one; later calls reuse it until EarlyExpiry before it
// expires. A TokenCache is safe for concurrent use.
type TokenCache struct {
	src oauth2.TokenSource
}

// NewTokenCache creates a cache for the given app credentials. No request is
// made until the first Token call. ctx only carries an optional
// oauth2.HTTPClient for the token requests.
func NewTokenCache(ctx context.Context, creds Credentials) (*TokenCache, error) {
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return nil, ErrMissingCredentials
	}

	tokenURL := creds.TokenURL
	if tokenURL == "" {
		tokenURL = spotifyauth.TokenURL
	}

	cfg := &clientcredentials.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		TokenURL:     tokenURL,
	}

	return &TokenCache{
		src: oauth2.ReuseTokenSourceWithExpiry(nil, fetcher{ctx: ctx, cfg: cfg}, EarlyExpiry),
	}, nil
}

// Token returns the cached token, fetching a new one if needed.
func (c *TokenCache) Token() (*oauth2.Token, error) {
	return c.src.Token()
}

// Client returns an HTTP client that authenticates every request with the
// cached token.
func (c *TokenCache) Client(ctx context.Context) *http.Client {
	return oauth2.NewClient(ctx, c)
}

// fetcher requests a fresh token on every call; caching is left to the
// ReuseTokenSource wrapping it.
type fetcher struct {
	ctx context.Context
	cfg *clientcredentials.Config
}

func (f fetcher) Token() (*oauth2.Token, error) {
	return f.cfg.Token(f.ctx)
}
