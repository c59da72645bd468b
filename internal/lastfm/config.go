// Package lastfm provides Last.fm API integration for finding similar
// tracks and artists.
package lastfm

import (
	"time"

	"github.com/justestif/jammy/internal/jam"
)

// ErrMissingAPIKey is returned when no API key is configured.
var ErrMissingAPIKey = jam.WithMessage(jam.ErrNotConfigured, "missing LASTFM_API_KEY")

// Defaults applied by NewClient to zero Config fields.
const (
	DefaultBaseURL           = "https://ws.audioscrobbler.com/2.0/"
	DefaultRequestsPerSecond = 5
	DefaultCacheTTL          = time.Hour
	DefaultTimeout           = 10 * time.Second
)

// Config holds Last.fm API configuration.
type Config struct {
	APIKey  string
	BaseURL string
	// RequestsPerSecond paces outbound calls. Negative disables pacing.
	RequestsPerSecond float64
	CacheTTL          time.Duration
	Timeout           time.Duration
}

// withDefaults returns a copy with zero fields filled in.
func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.RequestsPerSecond == 0 {
		c.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = DefaultCacheTTL
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}
