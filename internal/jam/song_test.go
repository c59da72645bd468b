package jam

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestNewSongValidate(t *testing.T) {
	hard := DifficultyHard
	bogus := Difficulty("impossible")
	empty := Difficulty("")
	blank := "  "

	tests := []struct {
		name       string
		song       NewSong
		wantErr    error
		wantStatus Status
	}{
		{
			name:       "defaults status",
			song:       NewSong{Title: "Creep", Artist: "Radiohead"},
			wantStatus: StatusWantToJam,
		},
		{
			name:       "keeps explicit status",
			song:       NewSong{Title: "Creep", Artist: "Radiohead", Status: StatusLearning, BassDifficulty: &hard},
			wantStatus: StatusLearning,
		},
		{
			name:    "missing title",
			song:    NewSong{Artist: "Radiohead"},
			wantErr: ErrBadInput,
		},
		{
			name:    "blank artist",
			song:    NewSong{Title: "Creep", Artist: "   "},
			wantErr: ErrBadInput,
		},
		{
			name:    "unknown status",
			song:    NewSong{Title: "Creep", Artist: "Radiohead", Status: "mastered"},
			wantErr: ErrBadInput,
		},
		{
			name:    "unknown difficulty",
			song:    NewSong{Title: "Creep", Artist: "Radiohead", DrumsDifficulty: &bogus},
			wantErr: ErrBadInput,
		},
		{
			name:       "empty difficulty and blank notes are cleared",
			song:       NewSong{Title: "Creep", Artist: "Radiohead", BassDifficulty: &empty, Notes: &blank},
			wantStatus: StatusWantToJam,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			song := tt.song
			err := song.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			if song.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q", song.Status, tt.wantStatus)
			}
			if song.BassDifficulty != nil && *song.BassDifficulty == "" {
				t.Error("empty BassDifficulty should be nil")
			}
			if song.Notes != nil {
				t.Errorf("blank Notes should be nil, got %q", *song.Notes)
			}
		})
	}
}

func TestSongUpdateUnmarshal(t *testing.T) {
	var u SongUpdate
	body := `{"status":"learning","notes":null,"songsterrBassId":42,"title":"ignored"}`
	if err := json.Unmarshal([]byte(body), &u); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if !u.Status.Set || u.Status.Value == nil || *u.Status.Value != StatusLearning {
		t.Errorf("Status = %+v, want set to learning", u.Status)
	}
	if !u.Notes.Set || u.Notes.Value != nil {
		t.Errorf("Notes = %+v, want set to null", u.Notes)
	}
	if u.GeniusURL.Set {
		t.Error("GeniusURL should not be set")
	}
	if !u.SongsterrBassID.Set || *u.SongsterrBassID.Value != 42 {
		t.Errorf("SongsterrBassID = %+v, want 42", u.SongsterrBassID)
	}
}

func TestSongUpdateValidate(t *testing.T) {
	tests := []struct {
		name    string
		update  SongUpdate
		wantErr error
	}{
		{name: "empty update", update: SongUpdate{}},
		{name: "valid status", update: SongUpdate{Status: Set(StatusNailedIt)}},
		{name: "null status", update: SongUpdate{Status: Clear[Status]()}, wantErr: ErrBadInput},
		{name: "unknown status", update: SongUpdate{Status: Set(Status("done"))}, wantErr: ErrBadInput},
		{name: "cleared difficulty", update: SongUpdate{BassDifficulty: Clear[Difficulty]()}},
		{name: "unknown difficulty", update: SongUpdate{DrumsDifficulty: Set(Difficulty("brutal"))}, wantErr: ErrBadInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.update.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSongUpdateAssignments(t *testing.T) {
	u := SongUpdate{
		Status:         Set(StatusCanPlay),
		Notes:          Clear[string](),
		BassDifficulty: Set(DifficultyMedium),
		GeniusURL:      Set("https://genius.com/x"),
	}

	got := u.Assignments()
	wantCols := []string{"status", "notes", "bass_difficulty", "genius_url"}
	if len(got) != len(wantCols) {
		t.Fatalf("Assignments() = %d entries, want %d", len(got), len(wantCols))
	}
	for i, col := range wantCols {
		if got[i].Column != col {
			t.Errorf("Assignments()[%d].Column = %q, want %q", i, got[i].Column, col)
		}
	}

	if got[0].Value != "can_play" {
		t.Errorf("status value = %v, want can_play", got[0].Value)
	}
	if v, ok := got[1].Value.(*string); !ok || v != nil {
		t.Errorf("notes value = %#v, want nil *string", got[1].Value)
	}
	if v, ok := got[2].Value.(*string); !ok || v == nil || *v != "medium" {
		t.Errorf("bass_difficulty value = %#v, want medium", got[2].Value)
	}
}
