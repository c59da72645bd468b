package jam

import (
	"encoding/json"
)

// Field is one field of a partial update. Set reports whether the field was
// present in the payload; a present JSON null leaves Value nil and clears
// the column.
type Field[T any] struct {
	Set   bool
	Value *T
}

// UnmarshalJSON marks the field as present.
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Set = true
	if string(data) == "null" {
		f.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	f.Value = &v
	return nil
}

// Set returns a present field holding v.
func Set[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: &v}
}

// Clear returns a present field holding null.
func Clear[T any]() Field[T] {
	return Field[T]{Set: true}
}

// SongUpdate is a partial update. Title and artist cannot be changed.
type SongUpdate struct {
	Status          Field[Status]     `json:"status"`
	Notes           Field[string]     `json:"notes"`
	BassDifficulty  Field[Difficulty] `json:"bassDifficulty"`
	DrumsDifficulty Field[Difficulty] `json:"drumsDifficulty"`

	SpotifyID       Field[string] `json:"spotifyId"`
	SpotifyURL      Field[string] `json:"spotifyUrl"`
	YouTubeURL      Field[string] `json:"youtubeUrl"`
	CoverArtURL     Field[string] `json:"coverArtUrl"`
	SongsterrURL    Field[string] `json:"songsterrUrl"`
	SongsterrBassID Field[int]    `json:"songsterrBassId"`
	SongsterrDrumID Field[int]    `json:"songsterrDrumId"`
	GeniusURL       Field[string] `json:"geniusUrl"`
	ChordChartURL   Field[string] `json:"chordChartUrl"`
}

// Validate rejects unknown enum values and a null status.
func (u *SongUpdate) Validate() error {
	if u.Status.Set {
		if u.Status.Value == nil || !u.Status.Value.Valid() {
			return BadInputf("invalid status value: must be one of want_to_jam, learning, can_play, nailed_it")
		}
	}
	for _, f := range []struct {
		name string
		d    *Field[Difficulty]
	}{
		{"bassDifficulty", &u.BassDifficulty},
		{"drumsDifficulty", &u.DrumsDifficulty},
	} {
		if !f.d.Set {
			continue
		}
		if err := validateDifficulty(f.name, &f.d.Value); err != nil {
			return err
		}
	}
	return nil
}

// Assignment is one column change produced by a SongUpdate.
type Assignment struct {
	Column string
	Value  any
}

// Assignments lists the column changes of the update in a fixed order.
// Values are plain Go types (string, int, *string, *int) so that any SQL
// driver can bind them; a nil pointer binds as NULL.
func (u *SongUpdate) Assignments() []Assignment {
	var out []Assignment
	if u.Status.Set && u.Status.Value != nil {
		out = append(out, Assignment{"status", string(*u.Status.Value)})
	}
	addString := func(col string, f Field[string]) {
		if f.Set {
			out = append(out, Assignment{col, nonEmpty(f.Value)})
		}
	}
	addDifficulty := func(col string, f Field[Difficulty]) {
		if !f.Set {
			return
		}
		var v *string
		if f.Value != nil && *f.Value != "" {
			s := string(*f.Value)
			v = &s
		}
		out = append(out, Assignment{col, v})
	}
	addInt := func(col string, f Field[int]) {
		if f.Set {
			out = append(out, Assignment{col, f.Value})
		}
	}

	addString("notes", u.Notes)
	addDifficulty("bass_difficulty", u.BassDifficulty)
	addDifficulty("drums_difficulty", u.DrumsDifficulty)
	addString("spotify_id", u.SpotifyID)
	addString("spotify_url", u.SpotifyURL)
	addString("youtube_url", u.YouTubeURL)
	addString("cover_art_url", u.CoverArtURL)
	addString("songsterr_url", u.SongsterrURL)
	addInt("songsterr_bass_id", u.SongsterrBassID)
	addInt("songsterr_drum_id", u.SongsterrDrumID)
	addString("genius_url", u.GeniusURL)
	addString("chord_chart_url", u.ChordChartURL)
	return out
}
