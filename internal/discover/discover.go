// Package discover recommends new songs from Last.fm based on the artists
// already in the collection.
package discover

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/justestif/jammy/internal/jam"
	"github.com/justestif/jammy/internal/lastfm"
	"github.com/justestif/jammy/internal/metrics"
)

// EmptyCollectionMessage is returned instead of recommendations when the
// collection has no songs.
const EmptyCollectionMessage = "Add some songs to your jam list first to get recommendations!"

// ErrNotConfigured is returned when no recommendation source is available.
var ErrNotConfigured = jam.WithMessage(jam.ErrNotConfigured,
	"Last.fm API key is not configured. Set LASTFM_API_KEY to enable recommendations.")

const (
	// DefaultMaxSeeds is the number of collection artists queried per call.
	DefaultMaxSeeds = 5
	// DefaultPerArtist caps the recommendations kept for each seed artist.
	DefaultPerArtist = 6

	topTracksPerSeed          = 2
	similarArtistsPerSeed     = 3
	topTracksPerSimilarArtist = 2
)

// Source abstracts the Last.fm client for testing.
type Source interface {
	TopTracks(ctx context.Context, artist string, limit int) ([]lastfm.Track, error)
	SimilarTracks(ctx context.Context, title, artist string, limit int) ([]lastfm.Track, error)
	SimilarArtists(ctx context.Context, artist string, limit int) ([]lastfm.Artist, error)
}

// Recommendation is a candidate song for a seed artist.
type Recommendation struct {
	Title      string  `json:"title"`
	Artist     string  `json:"artist"`
	ImageURL   *string `json:"imageUrl"`
	LastfmURL  *string `json:"lastfmUrl"`
	SeedArtist string  `json:"seedArtist"`
	Match      float64 `json:"match"`
}

// Result maps each seed artist to its ranked recommendations. Artists with
// no recommendations are absent.
type Result struct {
	Recommendations map[string][]Recommendation `json:"recommendations"`
	Message         string                      `json:"message,omitempty"`
}

// Engine produces recommendations.
type Engine struct {
	store     jam.Store
	source    Source
	maxSeeds  int
	perArtist int
	logger    *log.Logger
	metrics   *metrics.Metrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithMetrics records recommendation outcomes on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithPerArtist sets how many recommendations are kept per seed artist.
func WithPerArtist(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.perArtist = n
		}
	}
}

// WithMaxSeeds sets how many collection artists are queried.
func WithMaxSeeds(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxSeeds = n
		}
	}
}

// New creates a recommendation engine. A nil source makes every call fail
// with jam.ErrNotConfigured.
func New(store jam.Store, source Source, opts ...Option) *Engine {
	e := &Engine{
		store:     store,
		source:    source,
		maxSeeds:  DefaultMaxSeeds,
		perArtist: DefaultPerArtist,
		logger:    log.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("component", "discover")
	return e
}

type seedResult struct {
	recs []Recommendation
	err  error
}

// Recommend queries Last.fm for the first artists of the collection, in
// the order they were first added, and returns ranked recommendations for
// each. Songs already in the collection are never recommended. A failure
// for one artist is logged and that artist is left out.
func (e *Engine) Recommend(ctx context.Context) (*Result, error) {
	if e.source == nil {
		e.metrics.ObserveRecommend(ErrNotConfigured, 0, 0, 0)
		return nil, ErrNotConfigured
	}

	songs, err := e.store.All(ctx)
	if err != nil {
		err = fmt.Errorf("loading songs: %w", err)
		e.metrics.ObserveRecommend(err, 0, 0, 0)
		return nil, err
	}

	if len(songs) == 0 {
		e.metrics.ObserveRecommend(nil, 0, 0, 0)
		return &Result{
			Recommendations: map[string][]Recommendation{},
			Message:         EmptyCollectionMessage,
		}, nil
	}

	existing := jam.KeySet(songs)
	seeds := distinctArtists(songs)
	if len(seeds) > e.maxSeeds {
		seeds = seeds[:e.maxSeeds]
	}

	results := make([]seedResult, len(seeds))

	var wg sync.WaitGroup
	for i, artist := range seeds {
		wg.Add(1)
		go func() {
			defer wg.Done()
			recs, err := e.forArtist(ctx, artist, existing)
			results[i] = seedResult{recs: recs, err: err}
		}()
	}
	wg.Wait()

	out := make(map[string][]Recommendation, len(seeds))
	var failed int
	for i, r := range results {
		if r.err != nil {
			failed++
			e.logger.Warn("recommendations failed", "artist", seeds[i], "err", r.err)
			continue
		}
		if len(r.recs) > 0 {
			out[seeds[i]] = r.recs
		}
	}

	e.metrics.ObserveRecommend(nil, len(seeds), len(out), failed)
	e.logger.Debug("recommendations ready", "seeds", len(seeds), "artists", len(out), "failed", failed)

	return &Result{Recommendations: out}, nil
}

// forArtist runs the lookup chain for one seed artist: its top tracks, the
// tracks similar to those alongside its similar artists, then the top
// tracks of each similar artist.
func (e *Engine) forArtist(ctx context.Context, artist string, existing map[jam.Key]struct{}) ([]Recommendation, error) {
	top, err := e.source.TopTracks(ctx, artist, topTracksPerSeed)
	if err != nil {
		return nil, err
	}

	similarTracks := make([][]lastfm.Track, len(top))
	var similarArtists []lastfm.Artist

	g, gctx := errgroup.WithContext(ctx)
	for i, t := range top {
		g.Go(func() error {
			tracks, err := e.source.SimilarTracks(gctx, t.Name, trackArtist(t, artist), e.perArtist)
			similarTracks[i] = tracks
			return err
		})
	}
	g.Go(func() error {
		artists, err := e.source.SimilarArtists(gctx, artist, similarArtistsPerSeed)
		similarArtists = artists
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	artistTracks := make([][]lastfm.Track, len(similarArtists))

	g, gctx = errgroup.WithContext(ctx)
	for i, a := range similarArtists {
		g.Go(func() error {
			tracks, err := e.source.TopTracks(gctx, a.Name, topTracksPerSimilarArtist)
			artistTracks[i] = tracks
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[jam.Key]struct{})
	var recs []Recommendation

	add := func(t lastfm.Track, withLinks bool) {
		key := jam.KeyOf(t.Name, t.Artist)
		if _, ok := seen[key]; ok {
			return
		}
		if _, ok := existing[key]; ok {
			return
		}
		seen[key] = struct{}{}

		rec := Recommendation{
			Title:      t.Name,
			Artist:     t.Artist,
			SeedArtist: artist,
		}
		if withLinks {
			rec.ImageURL = jam.StringPtr(t.ImageURL)
			rec.LastfmURL = jam.StringPtr(t.URL)
			rec.Match = t.Match
		}
		recs = append(recs, rec)
	}

	for _, tracks := range similarTracks {
		for _, t := range tracks {
			add(t, true)
		}
	}
	for _, tracks := range artistTracks {
		for _, t := range tracks {
			add(t, false)
		}
	}

	return rank(recs, e.perArtist), nil
}

// rank orders recommendations by match, keeping discovery order for ties,
// and truncates to n.
func rank(recs []Recommendation, n int) []Recommendation {
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Match > recs[j].Match
	})
	if len(recs) > n {
		recs = recs[:n]
	}
	return recs
}

// distinctArtists returns each artist once, compared case-insensitively,
// in collection order with the first-seen spelling.
func distinctArtists(songs []jam.Song) []string {
	seen := make(map[string]struct{})
	var artists []string
	for _, s := range songs {
		key := strings.ToLower(strings.TrimSpace(s.Artist))
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		artists = append(artists, s.Artist)
	}
	return artists
}

// trackArtist prefers the artist name Last.fm returned for t.
func trackArtist(t lastfm.Track, fallback string) string {
	if t.Artist != "" {
		return t.Artist
	}
	return fallback
}
