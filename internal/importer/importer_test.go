package importer

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justestif/jammy/internal/jam"
	"github.com/justestif/jammy/internal/metrics"
	"github.com/justestif/jammy/internal/spotify"
	"github.com/justestif/jammy/internal/sqlite"
)

const playlistURL = "https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M"

// fakeCatalog returns a fixed playlist and counts calls.
type fakeCatalog struct {
	playlist *spotify.Playlist
	err      error
	calls    atomic.Int32
	gotID    string
}

func (f *fakeCatalog) FetchPlaylist(_ context.Context, id string) (*spotify.Playlist, error) {
	f.calls.Add(1)
	f.gotID = id
	if f.err != nil {
		return nil, f.err
	}
	return f.playlist, nil
}

// failingStore fails inserts after the first n succeed.
type failingStore struct {
	jam.Store
	n       int
	inserts int
}

func (s *failingStore) Insert(ctx context.Context, song jam.NewSong) (*jam.Song, error) {
	if s.inserts >= s.n {
		return nil, errors.New("disk full")
	}
	s.inserts++
	return s.Store.Insert(ctx, song)
}

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func newService(store jam.Store, catalog Catalog, opts ...Option) *Service {
	opts = append([]Option{WithLogger(log.New(io.Discard))}, opts...)
	return New(store, catalog, opts...)
}

func track(title, artist string) spotify.Track {
	return spotify.Track{
		ID:          "id-" + title,
		Title:       title,
		Artist:      artist,
		Album:       "Album of " + title,
		SpotifyURL:  "https://open.spotify.com/track/" + title,
		CoverArtURL: "https://i.scdn.co/" + title,
	}
}

func TestImport_DeduplicatesWithinPlaylist(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	catalog := &fakeCatalog{playlist: &spotify.Playlist{
		Name:   "Band Practice",
		Tracks: []spotify.Track{track("Creep", "Radiohead"), track("creep ", " RADIOHEAD")},
	}}

	result, err := newService(store, catalog).Import(ctx, Request{PlaylistRef: playlistURL, AddedBy: "sam"})
	require.NoError(t, err)

	assert.Equal(t, "Band Practice", result.PlaylistName)
	assert.Equal(t, 1, result.Added)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 2, result.Total)
	assert.False(t, result.Truncated)
	assert.Equal(t, "37i9dQZF1DXcBWIGoYBM5M", catalog.gotID)

	require.Len(t, result.Songs, 1)
	song := result.Songs[0]
	assert.Equal(t, "Creep", song.Title)
	assert.Equal(t, jam.StatusWantToJam, song.Status)
	assert.Equal(t, "Album of Creep", *song.Album)
	assert.Equal(t, "id-Creep", *song.SpotifyID)
	assert.Equal(t, "https://open.spotify.com/track/Creep", *song.SpotifyURL)
	assert.Equal(t, "https://i.scdn.co/Creep", *song.CoverArtURL)
	assert.Equal(t, "https://chordify.net/search/Radiohead%20Creep", *song.ChordChartURL)
	assert.Equal(t, "sam", *song.AddedBy)

	all, err := store.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestImport_SkipsExistingSongs(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	for _, s := range []jam.NewSong{
		{Title: "Creep", Artist: "Radiohead"},
		{Title: "Come Together", Artist: "The Beatles"},
	} {
		_, err := store.Insert(ctx, s)
		require.NoError(t, err)
	}

	catalog := &fakeCatalog{playlist: &spotify.Playlist{
		Name:   "Oldies",
		Tracks: []spotify.Track{track("CREEP", "radiohead"), track("Come Together", "The Beatles")},
	}}

	result, err := newService(store, catalog).Import(ctx, Request{PlaylistRef: playlistURL})
	require.NoError(t, err)

	assert.Equal(t, 0, result.Added)
	assert.Equal(t, 2, result.Skipped)
	assert.Equal(t, 2, result.Total)
	assert.NotNil(t, result.Songs)
	assert.Empty(t, result.Songs)

	all, err := store.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestImport_PreservesOrderAndSourceChordChart(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	withChart := track("Schism", "Tool")
	withChart.ChordChartURL = "https://example.com/schism"

	catalog := &fakeCatalog{playlist: &spotify.Playlist{
		Name:   "Mixed",
		Tracks: []spotify.Track{withChart, track("Teardrop", "Massive Attack")},
	}}

	result, err := newService(store, catalog).Import(ctx, Request{PlaylistRef: "spotify:playlist:abc123"})
	require.NoError(t, err)

	require.Len(t, result.Songs, 2)
	assert.Equal(t, "Schism", result.Songs[0].Title)
	assert.Equal(t, "https://example.com/schism", *result.Songs[0].ChordChartURL)
	assert.Equal(t, "Teardrop", result.Songs[1].Title)
	assert.Equal(t, "https://chordify.net/search/Massive%20Attack%20Teardrop", *result.Songs[1].ChordChartURL)
	assert.Nil(t, result.Songs[0].AddedBy)
}

func TestImport_InvalidReferenceMakesNoCalls(t *testing.T) {
	catalog := &fakeCatalog{}

	_, err := newService(newStore(t), catalog).Import(context.Background(), Request{PlaylistRef: "https://example.com/nope"})

	assert.ErrorIs(t, err, jam.ErrInvalidReference)
	assert.Equal(t, int32(0), catalog.calls.Load())
}

func TestImport_NotConfigured(t *testing.T) {
	_, err := newService(newStore(t), nil).Import(context.Background(), Request{PlaylistRef: playlistURL})
	assert.ErrorIs(t, err, jam.ErrNotConfigured)
}

func TestImport_InvalidReferenceBeforeNotConfigured(t *testing.T) {
	_, err := newService(newStore(t), nil).Import(context.Background(), Request{PlaylistRef: "nope"})
	assert.ErrorIs(t, err, jam.ErrInvalidReference)
}

func TestImport_CatalogErrorsPassThrough(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind error
	}{
		{name: "not found", err: jam.WithMessage(jam.ErrNotFound, "playlist not found or not public"), kind: jam.ErrNotFound},
		{name: "upstream", err: &jam.UpstreamError{Service: "Spotify", StatusCode: 500}, kind: jam.ErrUpstream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := newStore(t)

			_, err := newService(store, &fakeCatalog{err: tt.err}).Import(ctx, Request{PlaylistRef: playlistURL})
			assert.ErrorIs(t, err, tt.kind)

			all, err := store.All(ctx)
			require.NoError(t, err)
			assert.Empty(t, all)
		})
	}
}

func TestImport_TruncatedPlaylist(t *testing.T) {
	catalog := &fakeCatalog{playlist: &spotify.Playlist{
		Name:      "Huge",
		Total:     250,
		Tracks:    []spotify.Track{track("Creep", "Radiohead")},
		Truncated: true,
	}}

	result, err := newService(newStore(t), catalog).Import(context.Background(), Request{PlaylistRef: playlistURL})
	require.NoError(t, err)

	assert.True(t, result.Truncated)
	assert.Equal(t, 1, result.Added)
	assert.Equal(t, 1, result.Total)
}

func TestImport_InsertFailureKeepsEarlierSongs(t *testing.T) {
	ctx := context.Background()
	base := newStore(t)
	store := &failingStore{Store: base, n: 1}

	catalog := &fakeCatalog{playlist: &spotify.Playlist{
		Name:   "Partial",
		Tracks: []spotify.Track{track("One", "A"), track("Two", "B"), track("Three", "C")},
	}}

	result, err := newService(store, catalog).Import(ctx, Request{PlaylistRef: playlistURL})
	require.Error(t, err)
	assert.Nil(t, result)

	all, err := base.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "One", all[0].Title)
}

func TestImport_RecordsMetrics(t *testing.T) {
	m := metrics.New()
	catalog := &fakeCatalog{playlist: &spotify.Playlist{
		Tracks: []spotify.Track{track("Creep", "Radiohead"), track("Creep", "Radiohead")},
	}}

	_, err := newService(newStore(t), catalog, WithMetrics(m)).Import(context.Background(), Request{PlaylistRef: playlistURL})
	require.NoError(t, err)

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	var found bool
	for _, f := range families {
		if f.GetName() == "jammy_imports_total" {
			found = true
		}
	}
	assert.True(t, found, "jammy_imports_total not exported")
}
