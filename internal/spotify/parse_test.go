package spotify

import (
	"errors"
	"testing"

	"github.com/justestif/jammy/internal/jam"
)

func TestParsePlaylistID(t *testing.T) {
	tests := []struct {
		name    string
		ref     string
		want    string
		wantErr bool
	}{
		{name: "uri", ref: "spotify:playlist:37i9dQZF1DXcBWIGoYBM5M", want: "37i9dQZF1DXcBWIGoYBM5M"},
		{name: "url", ref: "https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M", want: "37i9dQZF1DXcBWIGoYBM5M"},
		{name: "url with query", ref: "https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M?si=abc123", want: "37i9dQZF1DXcBWIGoYBM5M"},
		{name: "url with locale", ref: "https://open.spotify.com/intl-de/playlist/37i9dQZF1DXcBWIGoYBM5M", want: "37i9dQZF1DXcBWIGoYBM5M"},
		{name: "http url", ref: "http://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M", want: "37i9dQZF1DXcBWIGoYBM5M"},
		{name: "surrounding whitespace", ref: "  spotify:playlist:abc123  ", want: "abc123"},
		{name: "raw id", ref: "37i9dQZF1DXcBWIGoYBM5M", want: "37i9dQZF1DXcBWIGoYBM5M"},
		{name: "raw id too short", ref: "abc123", wantErr: true},
		{name: "empty", ref: "", wantErr: true},
		{name: "other host", ref: "https://example.com/playlist/37i9dQZF1DXcBWIGoYBM5M", wantErr: true},
		{name: "album url", ref: "https://open.spotify.com/album/37i9dQZF1DXcBWIGoYBM5M", wantErr: true},
		{name: "non alphanumeric id", ref: "https://open.spotify.com/playlist/abc-123", wantErr: true},
		{name: "uri with bad id", ref: "spotify:playlist:abc_123", wantErr: true},
		{name: "track uri", ref: "spotify:track:37i9dQZF1DXcBWIGoYBM5M", wantErr: true},
		{name: "garbage", ref: "not a playlist", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePlaylistID(tt.ref)
			if tt.wantErr {
				if !errors.Is(err, jam.ErrInvalidReference) {
					t.Errorf("ParsePlaylistID(%q) error = %v, want ErrInvalidReference", tt.ref, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePlaylistID(%q) unexpected error: %v", tt.ref, err)
			}
			if got != tt.want {
				t.Errorf("ParsePlaylistID(%q) = %q, want %q", tt.ref, got, tt.want)
			}
		})
	}
}
