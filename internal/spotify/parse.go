package spotify

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/justestif/jammy/internal/jam"
)

var (
	uriPattern   = regexp.MustCompile(`^spotify:playlist:([a-zA-Z0-9]+)$`)
	rawIDPattern = regexp.MustCompile(`^[a-zA-Z0-9]{15,}$`)
	idPattern    = regexp.MustCompile(`^[a-zA-Z0-9]+$`)
)

// ParsePlaylistID extracts a playlist ID from a Spotify URI
// (spotify:playlist:<id>), an open.spotify.com URL (optionally with a locale
// segment or query string) or a bare ID. Anything else is
// jam.ErrInvalidReference.
func ParsePlaylistID(ref string) (string, error) {
	ref = strings.TrimSpace(ref)

	if m := uriPattern.FindStringSubmatch(ref); m != nil {
		return m[1], nil
	}

	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return parsePlaylistURL(ref)
	}

	if rawIDPattern.MatchString(ref) {
		return ref, nil
	}

	return "", invalidReference(ref)
}

func parsePlaylistURL(ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil || u.Host != "open.spotify.com" {
		return "", invalidReference(ref)
	}

	// Paths look like /playlist/<id> or /intl-de/playlist/<id>.
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i < len(segments)-1; i++ {
		if segments[i] == "playlist" {
			id := segments[i+1]
			if !idPattern.MatchString(id) {
				return "", invalidReference(ref)
			}
			return id, nil
		}
	}

	return "", invalidReference(ref)
}

func invalidReference(ref string) error {
	return jam.WithMessage(jam.ErrInvalidReference, "invalid Spotify playlist URL or ID: "+ref)
}
