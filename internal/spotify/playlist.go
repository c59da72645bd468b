package spotify

import (
	"context"
	"errors"
	"strings"

	"github.com/zmb3/spotify/v2"

	"github.com/justestif/jammy/internal/jam"
)

const (
	maxItemsPerPage = 100
	coverArtWidth   = 300
)

// FetchPlaylist retrieves a public playlist and all of its tracks in
// playlist order. Local files and non-track items are skipped.
//
// A failure on the metadata or first item page fails the call. A failure on
// a later page returns the tracks fetched so far with Truncated set.
func (c *Client) FetchPlaylist(ctx context.Context, id string) (*Playlist, error) {
	if c == nil || c.api == nil {
		return nil, jam.ErrNotConfigured
	}
	if !idPattern.MatchString(id) {
		return nil, invalidReference(id)
	}

	pid := spotify.ID(id)

	meta, err := c.api.GetPlaylist(ctx, pid, spotify.Fields("id,name,description,images"))
	if err != nil {
		return nil, classify(err)
	}

	playlist := &Playlist{
		ID:          id,
		Name:        meta.Name,
		Description: meta.Description,
	}
	if len(meta.Images) > 0 {
		playlist.ImageURL = meta.Images[0].URL
	}

	page, err := c.api.GetPlaylistItems(ctx, pid, spotify.Limit(maxItemsPerPage))
	if err != nil {
		return nil, classify(err)
	}
	playlist.Total = int(page.Total)

	for {
		for _, item := range page.Items {
			if track, ok := convertItem(item); ok {
				playlist.Tracks = append(playlist.Tracks, track)
			}
		}

		err = c.api.NextPage(ctx, page)
		if errors.Is(err, spotify.ErrNoMorePages) {
			break
		}
		if err != nil {
			c.logger.Warn("playlist fetch truncated",
				"playlist", id,
				"fetched", len(playlist.Tracks),
				"total", playlist.Total,
				"err", err)
			playlist.Truncated = true
			break
		}
	}

	c.logger.Debug("fetched playlist", "playlist", id, "name", playlist.Name, "tracks", len(playlist.Tracks))
	return playlist, nil
}

// convertItem converts a playlist item to a Track. It reports false for
// items that cannot become songs.
func convertItem(item spotify.PlaylistItem) (Track, bool) {
	full := item.Track.Track
	if item.IsLocal || full == nil || full.Name == "" || len(full.Artists) == 0 {
		return Track{}, false
	}

	artists := make([]string, len(full.Artists))
	for i, a := range full.Artists {
		artists[i] = a.Name
	}

	return Track{
		ID:          full.ID.String(),
		Title:       full.Name,
		Artist:      strings.Join(artists, ", "),
		Album:       full.Album.Name,
		SpotifyURL:  full.ExternalURLs["spotify"],
		CoverArtURL: coverArt(full.Album.Images),
	}, true
}

// coverArt prefers the 300px rendition, else the first image.
func coverArt(images []spotify.Image) string {
	for _, img := range images {
		if int(img.Width) == coverArtWidth {
			return img.URL
		}
	}
	if len(images) > 0 {
		return images[0].URL
	}
	return ""
}
