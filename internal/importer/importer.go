// Package importer adds the tracks of a public Spotify playlist to the song
// collection, skipping songs that are already there.
package importer

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/justestif/jammy/internal/jam"
	"github.com/justestif/jammy/internal/metrics"
	"github.com/justestif/jammy/internal/spotify"
)

// ErrNotConfigured is returned when no catalog is available.
var ErrNotConfigured = jam.WithMessage(jam.ErrNotConfigured,
	"Spotify integration is not configured. Set SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET.")

// Catalog resolves a playlist ID into its tracks.
type Catalog interface {
	FetchPlaylist(ctx context.Context, id string) (*spotify.Playlist, error)
}

// Service handles importing playlists into the store.
type Service struct {
	store   jam.Store
	catalog Catalog
	logger  *log.Logger
	metrics *metrics.Metrics
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// WithMetrics records import outcomes on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New creates a new import service. A nil catalog makes every import
// fail with jam.ErrNotConfigured.
func New(store jam.Store, catalog Catalog, opts ...Option) *Service {
	s := &Service{
		store:   store,
		catalog: catalog,
		logger:  log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "importer")
	return s
}

// Request identifies the playlist to import.
type Request struct {
	PlaylistRef string
	AddedBy     string
}

// Result contains the outcome of an import.
type Result struct {
	PlaylistName string     `json:"playlistName"`
	Added        int        `json:"added"`
	Skipped      int        `json:"skipped"`
	Total        int        `json:"total"`
	Songs        []jam.Song `json:"songs"`
	// Truncated is set when the playlist could only be partly fetched.
	Truncated bool `json:"truncated"`
}

// Import fetches the playlist and inserts every track whose title and
// artist are not yet in the collection. Tracks repeated within the
// playlist are inserted once.
//
// Inserts are not transactional: if one fails, the call returns the error
// and songs inserted before it remain.
func (s *Service) Import(ctx context.Context, req Request) (*Result, error) {
	result, err := s.run(ctx, req)

	var added, skipped int
	if result != nil {
		added, skipped = result.Added, result.Skipped
	}
	s.metrics.ObserveImport(err, added, skipped)

	return result, err
}

func (s *Service) run(ctx context.Context, req Request) (*Result, error) {
	id, err := spotify.ParsePlaylistID(req.PlaylistRef)
	if err != nil {
		return nil, err
	}

	if s.catalog == nil {
		return nil, ErrNotConfigured
	}

	playlist, err := s.catalog.FetchPlaylist(ctx, id)
	if err != nil {
		return nil, err
	}

	existing, err := s.store.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading songs: %w", err)
	}
	seen := jam.KeySet(existing)

	result := &Result{
		PlaylistName: playlist.Name,
		Total:        len(playlist.Tracks),
		Songs:        []jam.Song{},
		Truncated:    playlist.Truncated,
	}

	for _, track := range playlist.Tracks {
		key := jam.KeyOf(track.Title, track.Artist)
		if _, ok := seen[key]; ok {
			result.Skipped++
			continue
		}
		seen[key] = struct{}{}

		newSong := songFromTrack(track, req.AddedBy)
		if err := newSong.Validate(); err != nil {
			return nil, fmt.Errorf("track %q: %w", track.Title, err)
		}

		song, err := s.store.Insert(ctx, newSong)
		if err != nil {
			return nil, fmt.Errorf("inserting %q by %s: %w", track.Title, track.Artist, err)
		}
		result.Added++
		result.Songs = append(result.Songs, *song)
	}

	s.logger.Info("imported playlist",
		"playlist", playlist.Name,
		"added", result.Added,
		"skipped", result.Skipped,
		"truncated", result.Truncated)

	return result, nil
}

// songFromTrack builds the insert payload for a playlist track.
func songFromTrack(track spotify.Track, addedBy string) jam.NewSong {
	chordChart := track.ChordChartURL
	if chordChart == "" {
		chordChart = jam.ChordChartURL(track.Title, track.Artist)
	}

	return jam.NewSong{
		Title:         track.Title,
		Artist:        track.Artist,
		Album:         jam.StringPtr(track.Album),
		Status:        jam.StatusWantToJam,
		SpotifyID:     jam.StringPtr(track.ID),
		SpotifyURL:    jam.StringPtr(track.SpotifyURL),
		CoverArtURL:   jam.StringPtr(track.CoverArtURL),
		ChordChartURL: jam.StringPtr(chordChart),
		AddedBy:       jam.StringPtr(addedBy),
	}
}
