package lastfm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/justestif/jammy/internal/jam"
)

const (
	serviceName = "Last.fm"
	userAgent   = "jammy/1.0"
)

// Last.fm API error codes.
const (
	errCodeInvalidParams = 6
	errCodeInvalidAPIKey = 10
	errCodeRateLimited   = 29
)

// Sentinel errors. Both are UpstreamErrors.
var (
	// ErrRateLimited is returned when the API rate limit is exceeded.
	ErrRateLimited error = &jam.UpstreamError{Service: serviceName, StatusCode: http.StatusTooManyRequests, Message: "rate limit exceeded"}

	// ErrInvalidAPIKey is returned when the API key is invalid.
	ErrInvalidAPIKey error = &jam.UpstreamError{Service: serviceName, StatusCode: http.StatusForbidden, Message: "invalid API key"}
)

// errNoMatch marks an unknown artist or track; callers turn it into an
// empty result.
var errNoMatch = errors.New("no match")

// Client is a Last.fm API client with caching and rate limiting.
// It does not retry failed requests.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	cache      Cache
	cacheTTL   time.Duration
	logger     *log.Logger
}

// NewClient creates a new Last.fm API client. A nil cache selects an
// in-memory one.
func NewClient(cfg Config, cache Cache, logger *log.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	cfg = cfg.withDefaults()

	if cache == nil {
		cache = NewMemoryCache()
	}
	if logger == nil {
		logger = log.Default()
	}

	limit := rate.Limit(cfg.RequestsPerSecond)
	if cfg.RequestsPerSecond < 0 {
		limit = rate.Inf
	}

	return &Client{
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		limiter:    rate.NewLimiter(limit, 1),
		cache:      cache,
		cacheTTL:   cfg.CacheTTL,
		logger:     logger.With("component", "lastfm"),
	}, nil
}

// TopTracks returns an artist's most popular tracks. Match is zero.
func (c *Client) TopTracks(ctx context.Context, artist string, limit int) ([]Track, error) {
	params := url.Values{
		"method": {"artist.getTopTracks"},
		"artist": {artist},
		"limit":  {fmt.Sprint(limit)},
	}

	var resp topTracksResponse
	if err := c.get(ctx, params, &resp); err != nil {
		if errors.Is(err, errNoMatch) {
			return []Track{}, nil
		}
		return nil, fmt.Errorf("fetching top tracks: %w", err)
	}

	tracks := make([]Track, 0, len(resp.TopTracks.Track))
	for _, t := range resp.TopTracks.Track {
		track := t.toTrack()
		track.Match = 0
		tracks = append(tracks, track)
	}
	return tracks, nil
}

// SimilarTracks returns tracks similar to the given one, scored by match.
func (c *Client) SimilarTracks(ctx context.Context, title, artist string, limit int) ([]Track, error) {
	params := url.Values{
		"method": {"track.getSimilar"},
		"track":  {title},
		"artist": {artist},
		"limit":  {fmt.Sprint(limit)},
	}

	var resp similarTracksResponse
	if err := c.get(ctx, params, &resp); err != nil {
		if errors.Is(err, errNoMatch) {
			return []Track{}, nil
		}
		return nil, fmt.Errorf("fetching similar tracks: %w", err)
	}

	tracks := make([]Track, 0, len(resp.SimilarTracks.Track))
	for _, t := range resp.SimilarTracks.Track {
		tracks = append(tracks, t.toTrack())
	}
	return tracks, nil
}

// SimilarArtists returns artists similar to the given one.
func (c *Client) SimilarArtists(ctx context.Context, artist string, limit int) ([]Artist, error) {
	params := url.Values{
		"method": {"artist.getSimilar"},
		"artist": {artist},
		"limit":  {fmt.Sprint(limit)},
	}

	var resp similarArtistsResponse
	if err := c.get(ctx, params, &resp); err != nil {
		if errors.Is(err, errNoMatch) {
			return []Artist{}, nil
		}
		return nil, fmt.Errorf("fetching similar artists: %w", err)
	}

	artists := make([]Artist, 0, len(resp.SimilarArtists.Artist))
	for _, a := range resp.SimilarArtists.Artist {
		artists = append(artists, Artist{Name: a.Name, URL: a.URL, Match: float64(a.Match)})
	}
	return artists, nil
}

// get performs a cached API call and decodes the body into v.
func (c *Client) get(ctx context.Context, params url.Values, v any) error {
	params.Set("autocorrect", "1")
	params.Set("format", "json")
	cacheKey := params.Encode()

	body, ok := c.cache.Get(ctx, cacheKey)
	if !ok {
		var err error
		body, err = c.doRequest(ctx, params)
		if err != nil {
			return err
		}
		c.cache.Set(ctx, cacheKey, body, c.cacheTTL)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("parsing %s response: %w", params.Get("method"), err)
	}
	return nil
}

// doRequest performs a single rate-limited HTTP request.
func (c *Client) doRequest(ctx context.Context, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	query := url.Values{"api_key": {c.apiKey}}
	for k, v := range params {
		query[k] = v
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	// Check for API error in response
	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error != 0 {
		switch apiErr.Error {
		case errCodeInvalidParams:
			c.logger.Debug("no match", "method", params.Get("method"), "message", apiErr.Message)
			return nil, errNoMatch
		case errCodeRateLimited:
			return nil, ErrRateLimited
		case errCodeInvalidAPIKey:
			return nil, ErrInvalidAPIKey
		default:
			return nil, &jam.UpstreamError{Service: serviceName, StatusCode: resp.StatusCode, Message: apiErr.Message}
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &jam.UpstreamError{Service: serviceName, StatusCode: resp.StatusCode}
	}

	return body, nil
}
