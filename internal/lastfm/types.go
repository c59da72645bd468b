package lastfm

import (
	"fmt"
	"strconv"
	"strings"
)

// Track is a track returned by artist.getTopTracks or track.getSimilar.
type Track struct {
	Name     string
	Artist   string
	URL      string
	ImageURL string
	// Match is the similarity score in [0, 1]; zero for top tracks.
	Match float64
}

// Artist is an artist returned by artist.getSimilar.
type Artist struct {
	Name  string
	URL   string
	Match float64
}

// Score is a similarity value that Last.fm sends either as a JSON number
// or as a numeric string.
type Score float64

func (s *Score) UnmarshalJSON(b []byte) error {
	raw := strings.Trim(string(b), `"`)
	if raw == "" || raw == "null" {
		*s = 0
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("parsing match %q: %w", raw, err)
	}
	*s = Score(f)
	return nil
}

type image struct {
	URL  string `json:"#text"`
	Size string `json:"size"`
}

// preferredImageSizes lists image sizes from most to least wanted.
var preferredImageSizes = []string{"extralarge", "large", "medium"}

// pickImage returns the preferred image URL, else the last non-empty one.
func pickImage(images []image) string {
	for _, size := range preferredImageSizes {
		for _, img := range images {
			if img.Size == size && img.URL != "" {
				return img.URL
			}
		}
	}
	for i := len(images) - 1; i >= 0; i-- {
		if images[i].URL != "" {
			return images[i].URL
		}
	}
	return ""
}

type trackJSON struct {
	Name   string `json:"name"`
	URL    string `json:"url"`
	Match  Score  `json:"match"`
	Artist struct {
		Name string `json:"name"`
	} `json:"artist"`
	Image []image `json:"image"`
}

func (t trackJSON) toTrack() Track {
	return Track{
		Name:     t.Name,
		Artist:   t.Artist.Name,
		URL:      t.URL,
		ImageURL: pickImage(t.Image),
		Match:    float64(t.Match),
	}
}

// topTracksResponse is the JSON response for artist.getTopTracks.
type topTracksResponse struct {
	TopTracks struct {
		Track []trackJSON `json:"track"`
	} `json:"toptracks"`
}

// similarTracksResponse is the JSON response for track.getSimilar.
type similarTracksResponse struct {
	SimilarTracks struct {
		Track []trackJSON `json:"track"`
	} `json:"similartracks"`
}

// similarArtistsResponse is the JSON response for artist.getSimilar.
type similarArtistsResponse struct {
	SimilarArtists struct {
		Artist []struct {
			Name  string `json:"name"`
			URL   string `json:"url"`
			Match Score  `json:"match"`
		} `json:"artist"`
	} `json:"similarartists"`
}

// apiError represents a Last.fm API error response.
type apiError struct {
	Error   int    `json:"error"`
	Message string `json:"message"`
}
