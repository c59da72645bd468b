package discover

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justestif/jammy/internal/jam"
	"github.com/justestif/jammy/internal/lastfm"
	"github.com/justestif/jammy/internal/sqlite"
)

// fakeSource implements Source from in-memory tables keyed by artist, or
// by "artist|title" for similar tracks.
type fakeSource struct {
	topTracks      map[string][]lastfm.Track
	similarTracks  map[string][]lastfm.Track
	similarArtists map[string][]lastfm.Artist
	failArtists    map[string]error

	calls atomic.Int32

	mu             sync.Mutex
	topTrackSeeds  []string
	similarQueries []string
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		topTracks:      map[string][]lastfm.Track{},
		similarTracks:  map[string][]lastfm.Track{},
		similarArtists: map[string][]lastfm.Artist{},
		failArtists:    map[string]error{},
	}
}

func (f *fakeSource) TopTracks(_ context.Context, artist string, limit int) ([]lastfm.Track, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.topTrackSeeds = append(f.topTrackSeeds, artist)
	f.mu.Unlock()

	if err, ok := f.failArtists[artist]; ok {
		return nil, err
	}
	tracks := f.topTracks[artist]
	if len(tracks) > limit {
		tracks = tracks[:limit]
	}
	return tracks, nil
}

func (f *fakeSource) SimilarTracks(_ context.Context, title, artist string, _ int) ([]lastfm.Track, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.similarQueries = append(f.similarQueries, artist+"|"+title)
	f.mu.Unlock()

	return f.similarTracks[artist+"|"+title], nil
}

func (f *fakeSource) SimilarArtists(_ context.Context, artist string, limit int) ([]lastfm.Artist, error) {
	f.calls.Add(1)
	artists := f.similarArtists[artist]
	if len(artists) > limit {
		artists = artists[:limit]
	}
	return artists, nil
}

func newStore(t *testing.T, songs ...jam.NewSong) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	for _, s := range songs {
		_, err := store.Insert(context.Background(), s)
		require.NoError(t, err)
	}
	return store
}

func newEngine(store jam.Store, source Source, opts ...Option) *Engine {
	opts = append([]Option{WithLogger(log.New(io.Discard))}, opts...)
	return New(store, source, opts...)
}

func song(title, artist string) jam.NewSong {
	return jam.NewSong{Title: title, Artist: artist}
}

func lfTrack(name, artist string, match float64) lastfm.Track {
	return lastfm.Track{
		Name:     name,
		Artist:   artist,
		URL:      "https://www.last.fm/music/" + artist + "/_/" + name,
		ImageURL: "https://lastfm.freetls.fastly.net/" + name + ".png",
		Match:    match,
	}
}

func titles(recs []Recommendation) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Title
	}
	return out
}

func TestRecommend_RanksByMatch(t *testing.T) {
	store := newStore(t, song("Creep", "Radiohead"))
	src := newFakeSource()
	src.topTracks["Radiohead"] = []lastfm.Track{lfTrack("Creep", "Radiohead", 0)}
	src.similarTracks["Radiohead|Creep"] = []lastfm.Track{
		lfTrack("High", "Band A", 0.9),
		lfTrack("Zero", "Band B", 0.0),
		lfTrack("Mid", "Band C", 0.5),
	}

	result, err := newEngine(store, src).Recommend(context.Background())
	require.NoError(t, err)

	recs := result.Recommendations["Radiohead"]
	require.Len(t, recs, 3)
	assert.Equal(t, []string{"High", "Mid", "Zero"}, titles(recs))
	assert.Equal(t, []float64{0.9, 0.5, 0.0}, []float64{recs[0].Match, recs[1].Match, recs[2].Match})
	assert.Equal(t, "Radiohead", recs[0].SeedArtist)
	require.NotNil(t, recs[0].ImageURL)
	assert.Equal(t, "https://lastfm.freetls.fastly.net/High.png", *recs[0].ImageURL)
	assert.Empty(t, result.Message)
}

func TestRecommend_StableForTies(t *testing.T) {
	store := newStore(t, song("Creep", "Radiohead"))
	src := newFakeSource()
	src.topTracks["Radiohead"] = []lastfm.Track{lfTrack("Creep", "Radiohead", 0)}
	src.similarTracks["Radiohead|Creep"] = []lastfm.Track{
		lfTrack("First", "A", 0.5),
		lfTrack("Second", "B", 0.5),
		lfTrack("Best", "C", 0.7),
		lfTrack("Third", "D", 0.5),
	}

	result, err := newEngine(store, src).Recommend(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Best", "First", "Second", "Third"}, titles(result.Recommendations["Radiohead"]))
}

func TestRecommend_ExcludesExistingAndDuplicates(t *testing.T) {
	store := newStore(t,
		song("Creep", "Radiohead"),
		song("Black", "Pearl Jam"),
	)
	src := newFakeSource()
	src.topTracks["Radiohead"] = []lastfm.Track{
		lfTrack("Creep", "Radiohead", 0),
		lfTrack("Karma Police", "Radiohead", 0),
	}
	src.similarTracks["Radiohead|Creep"] = []lastfm.Track{
		lfTrack("BLACK", "pearl jam", 0.9),
		lfTrack("Nude", "Radiohead", 0.8),
	}
	src.similarTracks["Radiohead|Karma Police"] = []lastfm.Track{
		lfTrack("Nude", "Radiohead", 0.7),
		lfTrack("Lucky", "Radiohead", 0.6),
	}
	src.similarArtists["Radiohead"] = []lastfm.Artist{{Name: "Muse"}}
	src.topTracks["Muse"] = []lastfm.Track{
		lfTrack("Hysteria", "Muse", 0),
		lfTrack("Lucky", "Radiohead", 0),
	}

	result, err := newEngine(store, src).Recommend(context.Background())
	require.NoError(t, err)

	recs := result.Recommendations["Radiohead"]
	assert.Equal(t, []string{"Nude", "Lucky", "Hysteria"}, titles(recs))
	assert.Equal(t, 0.8, recs[0].Match)

	// Similar-artist tracks carry no score or links.
	assert.Equal(t, 0.0, recs[2].Match)
	assert.Nil(t, recs[2].ImageURL)
	assert.Nil(t, recs[2].LastfmURL)

	// Pearl Jam is a seed too; with nothing found it is omitted.
	_, ok := result.Recommendations["Pearl Jam"]
	assert.False(t, ok)
}

func TestRecommend_TruncatesPerArtist(t *testing.T) {
	store := newStore(t, song("Creep", "Radiohead"))
	src := newFakeSource()
	src.topTracks["Radiohead"] = []lastfm.Track{lfTrack("Creep", "Radiohead", 0)}
	for i, name := range []string{"a", "b", "c", "d", "e"} {
		src.similarTracks["Radiohead|Creep"] = append(src.similarTracks["Radiohead|Creep"],
			lfTrack(name, "X", float64(i)/10))
	}

	result, err := newEngine(store, src, WithPerArtist(2)).Recommend(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"e", "d"}, titles(result.Recommendations["Radiohead"]))
}

func TestRecommend_EmptyCollection(t *testing.T) {
	src := newFakeSource()

	result, err := newEngine(newStore(t), src).Recommend(context.Background())
	require.NoError(t, err)

	assert.Equal(t, EmptyCollectionMessage, result.Message)
	assert.NotNil(t, result.Recommendations)
	assert.Empty(t, result.Recommendations)
	assert.Equal(t, int32(0), src.calls.Load())
}

func TestRecommend_NotConfigured(t *testing.T) {
	_, err := newEngine(newStore(t), nil).Recommend(context.Background())
	assert.ErrorIs(t, err, jam.ErrNotConfigured)
}

func TestRecommend_LimitsSeedsToFirstFive(t *testing.T) {
	var songs []jam.NewSong
	artists := []string{"A1", "A2", "a1", "A3", "A4", "A5", "A6", "A7", "A8"}
	for i, a := range artists {
		songs = append(songs, song("Song "+string(rune('a'+i)), a))
	}
	store := newStore(t, songs...)
	src := newFakeSource()

	_, err := newEngine(store, src).Recommend(context.Background())
	require.NoError(t, err)

	queried := append([]string(nil), src.topTrackSeeds...)
	sort.Strings(queried)
	assert.Equal(t, []string{"A1", "A2", "A3", "A4", "A5"}, queried)
}

func TestRecommend_PerArtistFailureIsOmitted(t *testing.T) {
	store := newStore(t,
		song("Creep", "Radiohead"),
		song("Yellow", "Coldplay"),
	)
	src := newFakeSource()
	src.failArtists["Coldplay"] = &jam.UpstreamError{Service: "Last.fm", StatusCode: 500}
	src.topTracks["Radiohead"] = []lastfm.Track{lfTrack("Creep", "Radiohead", 0)}
	src.similarTracks["Radiohead|Creep"] = []lastfm.Track{lfTrack("Nude", "Radiohead", 0.8)}

	result, err := newEngine(store, src).Recommend(context.Background())
	require.NoError(t, err)

	assert.Len(t, result.Recommendations, 1)
	assert.Contains(t, result.Recommendations, "Radiohead")
	assert.NotContains(t, result.Recommendations, "Coldplay")
}

func TestRecommend_SimilarArtistFailureOmitsSeed(t *testing.T) {
	store := newStore(t, song("Creep", "Radiohead"))
	src := newFakeSource()
	src.topTracks["Radiohead"] = []lastfm.Track{lfTrack("Creep", "Radiohead", 0)}
	src.similarTracks["Radiohead|Creep"] = []lastfm.Track{lfTrack("Nude", "Radiohead", 0.8)}
	src.similarArtists["Radiohead"] = []lastfm.Artist{{Name: "Broken"}}
	src.failArtists["Broken"] = errors.New("boom")

	result, err := newEngine(store, src).Recommend(context.Background())
	require.NoError(t, err)
	assert.Empty(t, result.Recommendations)
}

func TestRecommend_UsesTopTrackArtistForSimilarLookup(t *testing.T) {
	store := newStore(t, song("Creep", "radiohead"))
	src := newFakeSource()
	src.topTracks["radiohead"] = []lastfm.Track{lfTrack("Creep", "Radiohead", 0)}

	_, err := newEngine(store, src).Recommend(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Radiohead|Creep"}, src.similarQueries)
}

func TestDistinctArtists(t *testing.T) {
	songs := []jam.Song{
		{Artist: "Radiohead"},
		{Artist: "RADIOHEAD"},
		{Artist: "Tool"},
		{Artist: " radiohead "},
		{Artist: "Björk"},
	}
	assert.Equal(t, []string{"Radiohead", "Tool", "Björk"}, distinctArtists(songs))
}
