package jam

import (
	"context"

	"github.com/google/uuid"
)

// SortField selects the ordering of List.
type SortField string

const (
	SortCreatedAt SortField = "createdAt"
	SortArtist    SortField = "artist"
	SortTitle     SortField = "title"
)

// ListOptions filters and orders List. The zero value lists every song,
// newest first.
type ListOptions struct {
	Status *Status
	SortBy SortField
}

// Column returns the database column for the sort field.
func (f SortField) Column() string {
	switch f {
	case SortArtist:
		return "artist"
	case SortTitle:
		return "title"
	default:
		return "created_at"
	}
}

// Store is the system of record for songs.
type Store interface {
	// All returns every song in creation order, oldest first.
	All(ctx context.Context) ([]Song, error)
	// List returns songs filtered and sorted descending by opts.SortBy.
	List(ctx context.Context, opts ListOptions) ([]Song, error)
	// Get returns ErrNotFound if no song has the id.
	Get(ctx context.Context, id uuid.UUID) (*Song, error)
	Insert(ctx context.Context, song NewSong) (*Song, error)
	// Update applies a validated partial update and refreshes UpdatedAt.
	Update(ctx context.Context, id uuid.UUID, update SongUpdate) (*Song, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Ping(ctx context.Context) error
}
