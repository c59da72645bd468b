package spotify

// Playlist is a public playlist resolved from the catalog.
type Playlist struct {
	ID          string
	Name        string
	Description string
	ImageURL    string
	// Total is the item count reported by Spotify, including skipped items.
	Total  int
	Tracks []Track
	// Truncated is set when a later page failed and Tracks holds only the
	// items fetched before the failure.
	Truncated bool
}

// Track contains the metadata needed to create a song from a playlist item.
type Track struct {
	ID          string
	Title       string
	Artist      string // Comma-separated artist names
	Album       string
	SpotifyURL  string
	CoverArtURL string
	// ChordChartURL is empty for Spotify tracks; the importer synthesizes one.
	ChordChartURL string
}
