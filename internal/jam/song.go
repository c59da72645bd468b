// Package jam defines the song collection: the Song entity, its validation
// rules, the dedup key shared by the import and recommendation pipelines,
// and the Store contract implemented by the database packages.
package jam

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status tracks how far along a song is. Any transition is allowed.
type Status string

const (
	StatusWantToJam Status = "want_to_jam"
	StatusLearning  Status = "learning"
	StatusCanPlay   Status = "can_play"
	StatusNailedIt  Status = "nailed_it"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{StatusWantToJam, StatusLearning, StatusCanPlay, StatusNailedIt}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusWantToJam, StatusLearning, StatusCanPlay, StatusNailedIt:
		return true
	}
	return false
}

// Difficulty rates a song for one instrument.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Valid reports whether d is a known difficulty.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Song is a song in the jam list.
type Song struct {
	ID     uuid.UUID `json:"id"`
	Title  string    `json:"title"`
	Artist string    `json:"artist"`
	Album  *string   `json:"album"`

	Status          Status      `json:"status"`
	BassDifficulty  *Difficulty `json:"bassDifficulty"`
	DrumsDifficulty *Difficulty `json:"drumsDifficulty"`

	SpotifyID   *string `json:"spotifyId"`
	SpotifyURL  *string `json:"spotifyUrl"`
	YouTubeURL  *string `json:"youtubeUrl"`
	CoverArtURL *string `json:"coverArtUrl"`

	SongsterrURL    *string `json:"songsterrUrl"`
	SongsterrBassID *int    `json:"songsterrBassId"`
	SongsterrDrumID *int    `json:"songsterrDrumId"`
	GeniusURL       *string `json:"geniusUrl"`
	ChordChartURL   *string `json:"chordChartUrl"`

	Notes   *string `json:"notes"`
	AddedBy *string `json:"addedBy"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewSong is the payload for adding a song.
type NewSong struct {
	Title  string  `json:"title"`
	Artist string  `json:"artist"`
	Album  *string `json:"album"`

	Status          Status      `json:"status"`
	BassDifficulty  *Difficulty `json:"bassDifficulty"`
	DrumsDifficulty *Difficulty `json:"drumsDifficulty"`

	SpotifyID   *string `json:"spotifyId"`
	SpotifyURL  *string `json:"spotifyUrl"`
	YouTubeURL  *string `json:"youtubeUrl"`
	CoverArtURL *string `json:"coverArtUrl"`

	SongsterrURL    *string `json:"songsterrUrl"`
	SongsterrBassID *int    `json:"songsterrBassId"`
	SongsterrDrumID *int    `json:"songsterrDrumId"`
	GeniusURL       *string `json:"geniusUrl"`
	ChordChartURL   *string `json:"chordChartUrl"`

	Notes   *string `json:"notes"`
	AddedBy *string `json:"addedBy"`
}

// Validate checks required fields and enum values, and normalizes the
// payload: empty optional strings become nil and the status defaults to
// want_to_jam.
func (n *NewSong) Validate() error {
	if strings.TrimSpace(n.Title) == "" || strings.TrimSpace(n.Artist) == "" {
		return BadInputf("missing required fields: title and artist are required")
	}
	if n.Status == "" {
		n.Status = StatusWantToJam
	}
	if !n.Status.Valid() {
		return BadInputf("invalid status value %q: must be one of want_to_jam, learning, can_play, nailed_it", n.Status)
	}
	if err := validateDifficulty("bassDifficulty", &n.BassDifficulty); err != nil {
		return err
	}
	if err := validateDifficulty("drumsDifficulty", &n.DrumsDifficulty); err != nil {
		return err
	}
	for _, p := range []**string{
		&n.Album, &n.SpotifyID, &n.SpotifyURL, &n.YouTubeURL, &n.CoverArtURL,
		&n.SongsterrURL, &n.GeniusURL, &n.ChordChartURL, &n.Notes, &n.AddedBy,
	} {
		*p = nonEmpty(*p)
	}
	return nil
}

// validateDifficulty rejects unknown difficulties and clears empty ones.
func validateDifficulty(field string, d **Difficulty) error {
	if *d == nil {
		return nil
	}
	if **d == "" {
		*d = nil
		return nil
	}
	if !(*d).Valid() {
		return BadInputf("invalid %s value %q: must be one of easy, medium, hard", field, **d)
	}
	return nil
}

// nonEmpty returns nil for nil or blank strings.
func nonEmpty(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}

// StringPtr returns nil for an empty string, otherwise a pointer to s.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
