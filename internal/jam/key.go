package jam

import (
	"net/url"
	"strings"
)

const chordifySearchURL = "https://chordify.net/search/"

// Key identifies a song for deduplication. Two songs with equal keys are
// treated as the same song by the importer and the recommender.
type Key struct {
	Title  string
	Artist string
}

// KeyOf returns the dedup key for a title and artist: both trimmed and
// lowercased. Internal whitespace is left as is.
func KeyOf(title, artist string) Key {
	return Key{
		Title:  strings.ToLower(strings.TrimSpace(title)),
		Artist: strings.ToLower(strings.TrimSpace(artist)),
	}
}

// Key returns the dedup key of the song.
func (s *Song) Key() Key {
	return KeyOf(s.Title, s.Artist)
}

// KeySet builds the set of dedup keys for the given songs.
func KeySet(songs []Song) map[Key]struct{} {
	set := make(map[Key]struct{}, len(songs))
	for i := range songs {
		set[songs[i].Key()] = struct{}{}
	}
	return set
}

// ChordChartURL builds a Chordify search URL for "<artist> <title>".
//
//	ChordChartURL("Come Together", "The Beatles")
//	// https://chordify.net/search/The%20Beatles%20Come%20Together
func ChordChartURL(title, artist string) string {
	query := strings.Join(strings.Fields(artist+" "+title), " ")
	return chordifySearchURL + escapeComponent(query)
}

// componentUnescaper restores the characters a URI component leaves as is
// but query escaping encodes.
var componentUnescaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// escapeComponent escapes s like a URI component: spaces become %20, not +,
// and !'()* stay literal.
func escapeComponent(s string) string {
	return componentUnescaper.Replace(url.QueryEscape(s))
}
