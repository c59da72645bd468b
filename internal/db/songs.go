package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/justestif/jammy/internal/jam"
)

const songColumns = `id, title, artist, album, status, bass_difficulty, drums_difficulty,
	spotify_id, spotify_url, youtube_url, cover_art_url,
	songsterr_url, songsterr_bass_id, songsterr_drum_id, genius_url, chord_chart_url,
	notes, added_by, created_at, updated_at`

// SongRepository handles song database operations.
type SongRepository struct {
	pool *pgxpool.Pool
}

// Ping verifies the database is reachable.
func (r *SongRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Insert creates a song with a fresh ID.
func (r *SongRepository) Insert(ctx context.Context, s jam.NewSong) (*jam.Song, error) {
	query := `
		INSERT INTO songs (id, title, artist, album, status, bass_difficulty, drums_difficulty,
			spotify_id, spotify_url, youtube_url, cover_art_url,
			songsterr_url, songsterr_bass_id, songsterr_drum_id, genius_url, chord_chart_url,
			notes, added_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $19)
		RETURNING ` + songColumns

	status := s.Status
	if status == "" {
		status = jam.StatusWantToJam
	}

	row := r.pool.QueryRow(ctx, query,
		uuid.New(),
		s.Title,
		s.Artist,
		s.Album,
		string(status),
		difficultyArg(s.BassDifficulty),
		difficultyArg(s.DrumsDifficulty),
		s.SpotifyID,
		s.SpotifyURL,
		s.YouTubeURL,
		s.CoverArtURL,
		s.SongsterrURL,
		s.SongsterrBassID,
		s.SongsterrDrumID,
		s.GeniusURL,
		s.ChordChartURL,
		s.Notes,
		s.AddedBy,
		time.Now().UTC(),
	)
	song, err := scanSong(row)
	if err != nil {
		return nil, fmt.Errorf("inserting song: %w", err)
	}
	return song, nil
}

// Get retrieves a song by ID.
func (r *SongRepository) Get(ctx context.Context, id uuid.UUID) (*jam.Song, error) {
	query := `SELECT ` + songColumns + ` FROM songs WHERE id = $1`

	song, err := scanSong(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, jam.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying song: %w", err)
	}
	return song, nil
}

// All retrieves every song, oldest first.
func (r *SongRepository) All(ctx context.Context) ([]jam.Song, error) {
	query := `SELECT ` + songColumns + ` FROM songs ORDER BY created_at ASC, id ASC`
	return r.query(ctx, query)
}

// List retrieves songs matching opts, sorted descending.
func (r *SongRepository) List(ctx context.Context, opts jam.ListOptions) ([]jam.Song, error) {
	var args []any
	query := `SELECT ` + songColumns + ` FROM songs`
	if opts.Status != nil {
		args = append(args, string(*opts.Status))
		query += ` WHERE status = $1`
	}
	query += ` ORDER BY ` + opts.SortBy.Column() + ` DESC`
	return r.query(ctx, query, args...)
}

// Update applies a partial update and bumps updated_at.
func (r *SongRepository) Update(ctx context.Context, id uuid.UUID, u jam.SongUpdate) (*jam.Song, error) {
	query, args := updateQuery(id, u, time.Now().UTC())

	song, err := scanSong(r.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, jam.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("updating song: %w", err)
	}
	return song, nil
}

// updateQuery builds the UPDATE statement for u. Placeholders are numbered
// in argument order: updated_at first, then each assignment, then id.
func updateQuery(id uuid.UUID, u jam.SongUpdate, now time.Time) (string, []any) {
	args := []any{now}
	sets := []string{"updated_at = $1"}
	for _, a := range u.Assignments() {
		args = append(args, a.Value)
		sets = append(sets, fmt.Sprintf("%s = $%d", a.Column, len(args)))
	}
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE songs SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), songColumns)
	return query, args
}

// Delete removes a song by ID.
func (r *SongRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM songs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting song: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return jam.ErrNotFound
	}
	return nil
}

func (r *SongRepository) query(ctx context.Context, query string, args ...any) ([]jam.Song, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying songs: %w", err)
	}
	defer rows.Close()

	songs := []jam.Song{}
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning song: %w", err)
		}
		songs = append(songs, *song)
	}
	return songs, rows.Err()
}

// scanSong scans one row selected with songColumns.
func scanSong(row pgx.Row) (*jam.Song, error) {
	var (
		song        jam.Song
		status      string
		bass, drums *string
	)
	err := row.Scan(
		&song.ID,
		&song.Title,
		&song.Artist,
		&song.Album,
		&status,
		&bass,
		&drums,
		&song.SpotifyID,
		&song.SpotifyURL,
		&song.YouTubeURL,
		&song.CoverArtURL,
		&song.SongsterrURL,
		&song.SongsterrBassID,
		&song.SongsterrDrumID,
		&song.GeniusURL,
		&song.ChordChartURL,
		&song.Notes,
		&song.AddedBy,
		&song.CreatedAt,
		&song.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	song.Status = jam.Status(status)
	song.BassDifficulty = difficultyFrom(bass)
	song.DrumsDifficulty = difficultyFrom(drums)
	return &song, nil
}

func difficultyArg(d *jam.Difficulty) *string {
	if d == nil {
		return nil
	}
	s := string(*d)
	return &s
}

func difficultyFrom(s *string) *jam.Difficulty {
	if s == nil {
		return nil
	}
	d := jam.Difficulty(*s)
	return &d
}
