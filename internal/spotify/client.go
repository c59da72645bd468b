// Package spotify resolves public Spotify playlists into importable tracks.
package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/charmbracelet/log"
	"github.com/zmb3/spotify/v2"
	"golang.org/x/oauth2"

	"github.com/justestif/jammy/internal/auth"
	"github.com/justestif/jammy/internal/jam"
)

const serviceName = "Spotify"

// Config holds the app credentials and optional endpoint overrides.
type Config struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	BaseURL      string
}

// Configured reports whether both credentials are present.
func (c Config) Configured() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// Client wraps the Spotify API client with playlist helpers.
type Client struct {
	api    *spotify.Client
	logger *log.Logger
}

// New creates a new Spotify client wrapper.
// The underlying client should already be authenticated.
func New(api *spotify.Client, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.Default()
	}
	return &Client{api: api, logger: logger.With("component", "spotify")}
}

// NewFromConfig builds a client authenticated with the app's client
// credentials. Each client owns its own token cache. ctx must outlive the
// client since token refreshes run under it. Missing credentials yield
// jam.ErrNotConfigured.
func NewFromConfig(ctx context.Context, cfg Config, logger *log.Logger) (*Client, error) {
	cache, err := auth.NewTokenCache(ctx, auth.Credentials{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
	})
	if errors.Is(err, auth.ErrMissingCredentials) {
		return nil, fmt.Errorf("spotify: %w", jam.ErrNotConfigured)
	}
	if err != nil {
		return nil, err
	}

	var opts []spotify.ClientOption
	if cfg.BaseURL != "" {
		opts = append(opts, spotify.WithBaseURL(cfg.BaseURL))
	}

	return New(spotify.New(cache.Client(ctx), opts...), logger), nil
}

var errPlaylistNotFound = jam.WithMessage(jam.ErrNotFound, "playlist not found or not public")

// classify maps a Spotify call failure onto the jam error kinds.
func classify(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		status := http.StatusBadGateway
		if retrieveErr.Response != nil {
			status = retrieveErr.Response.StatusCode
		}
		return &jam.UpstreamError{Service: serviceName, StatusCode: status, Message: "token request failed"}
	}

	var apiErr spotify.Error
	if errors.As(err, &apiErr) {
		if apiErr.Status == http.StatusNotFound {
			return errPlaylistNotFound
		}
		return &jam.UpstreamError{Service: serviceName, StatusCode: apiErr.Status, Message: apiErr.Message}
	}

	// Transport failures mean the catalog could not be reached at all.
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return errPlaylistNotFound
	}

	return &jam.UpstreamError{Service: serviceName, StatusCode: http.StatusBadGateway, Message: err.Error()}
}
