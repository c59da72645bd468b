// Package sqlite provides a SQLite-backed song store for local development.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver

	"github.com/justestif/jammy/internal/jam"
)

const schema = `
CREATE TABLE IF NOT EXISTS songs (
	id                TEXT PRIMARY KEY,
	title             TEXT NOT NULL,
	artist            TEXT NOT NULL,
	album             TEXT,
	status            TEXT NOT NULL DEFAULT 'want_to_jam',
	bass_difficulty   TEXT,
	drums_difficulty  TEXT,
	spotify_id        TEXT,
	spotify_url       TEXT,
	youtube_url       TEXT,
	cover_art_url     TEXT,
	songsterr_url     TEXT,
	songsterr_bass_id INTEGER,
	songsterr_drum_id INTEGER,
	genius_url        TEXT,
	chord_chart_url   TEXT,
	notes             TEXT,
	added_by          TEXT,
	created_at        TIMESTAMP NOT NULL,
	updated_at        TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS artist_idx ON songs (artist);
CREATE INDEX IF NOT EXISTS status_idx ON songs (status);
CREATE INDEX IF NOT EXISTS created_at_idx ON songs (created_at);
`

const songColumns = `id, title, artist, album, status, bass_difficulty, drums_difficulty,
	spotify_id, spotify_url, youtube_url, cover_art_url,
	songsterr_url, songsterr_bass_id, songsterr_drum_id, genius_url, chord_chart_url,
	notes, added_by, created_at, updated_at`

// Store implements jam.Store on SQLite.
type Store struct {
	db *sql.DB
}

var _ jam.Store = (*Store)(nil)

// Open opens the database at path, enables WAL and applies the schema.
// Use ":memory:" for a throwaway database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// An in-memory database lives per connection.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	if path != ":memory:" {
		if _, err := db.Exec(`PRAGMA journal_mode = WAL`); err != nil {
			db.Close()
			return nil, fmt.Errorf("enabling WAL: %w", err)
		}
	}

	s := &Store{db: db}
	if err := s.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Migrate creates the songs table and its indexes if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Insert creates a song with a fresh ID.
func (s *Store) Insert(ctx context.Context, n jam.NewSong) (*jam.Song, error) {
	status := n.Status
	if status == "" {
		status = jam.StatusWantToJam
	}
	id := uuid.New()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO songs (id, title, artist, album, status, bass_difficulty, drums_difficulty,
			spotify_id, spotify_url, youtube_url, cover_art_url,
			songsterr_url, songsterr_bass_id, songsterr_drum_id, genius_url, chord_chart_url,
			notes, added_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id.String(),
		n.Title,
		n.Artist,
		n.Album,
		string(status),
		difficultyArg(n.BassDifficulty),
		difficultyArg(n.DrumsDifficulty),
		n.SpotifyID,
		n.SpotifyURL,
		n.YouTubeURL,
		n.CoverArtURL,
		n.SongsterrURL,
		n.SongsterrBassID,
		n.SongsterrDrumID,
		n.GeniusURL,
		n.ChordChartURL,
		n.Notes,
		n.AddedBy,
		now,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting song: %w", err)
	}
	return s.Get(ctx, id)
}

// Get retrieves a song by ID.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*jam.Song, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+songColumns+` FROM songs WHERE id = ?`, id.String())
	song, err := scanSong(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, jam.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading song: %w", err)
	}
	return song, nil
}

// All retrieves every song, oldest first.
func (s *Store) All(ctx context.Context) ([]jam.Song, error) {
	return s.query(ctx, `SELECT `+songColumns+` FROM songs ORDER BY created_at ASC, rowid ASC`)
}

// List retrieves songs matching opts, sorted descending.
func (s *Store) List(ctx context.Context, opts jam.ListOptions) ([]jam.Song, error) {
	var args []any
	query := `SELECT ` + songColumns + ` FROM songs`
	if opts.Status != nil {
		query += ` WHERE status = ?`
		args = append(args, string(*opts.Status))
	}
	query += ` ORDER BY ` + opts.SortBy.Column() + ` DESC, rowid DESC`
	return s.query(ctx, query, args...)
}

// Update applies a partial update and bumps updated_at.
func (s *Store) Update(ctx context.Context, id uuid.UUID, u jam.SongUpdate) (*jam.Song, error) {
	sets := []string{"updated_at = ?"}
	args := []any{time.Now().UTC()}
	for _, a := range u.Assignments() {
		sets = append(sets, a.Column+" = ?")
		args = append(args, a.Value)
	}
	args = append(args, id.String())

	res, err := s.db.ExecContext(ctx, `UPDATE songs SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("updating song: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, jam.ErrNotFound
	}
	return s.Get(ctx, id)
}

// Delete removes a song by ID.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM songs WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("deleting song: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return jam.ErrNotFound
	}
	return nil
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]jam.Song, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
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
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating songs: %w", err)
	}
	return songs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSong(row scanner) (*jam.Song, error) {
	var (
		song                                 jam.Song
		id, status                           string
		album, bass, drums                   sql.NullString
		spotifyID, spotifyURL, youtubeURL    sql.NullString
		coverArtURL, songsterrURL, geniusURL sql.NullString
		chordChartURL, notes, addedBy        sql.NullString
		songsterrBassID, songsterrDrumID     sql.NullInt64
	)
	if err := row.Scan(
		&id,
		&song.Title,
		&song.Artist,
		&album,
		&status,
		&bass,
		&drums,
		&spotifyID,
		&spotifyURL,
		&youtubeURL,
		&coverArtURL,
		&songsterrURL,
		&songsterrBassID,
		&songsterrDrumID,
		&geniusURL,
		&chordChartURL,
		&notes,
		&addedBy,
		&song.CreatedAt,
		&song.UpdatedAt,
	); err != nil {
		return nil, err
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parsing song id %q: %w", id, err)
	}
	song.ID = parsed
	song.Status = jam.Status(status)
	song.Album = nullString(album)
	song.BassDifficulty = nullDifficulty(bass)
	song.DrumsDifficulty = nullDifficulty(drums)
	song.SpotifyID = nullString(spotifyID)
	song.SpotifyURL = nullString(spotifyURL)
	song.YouTubeURL = nullString(youtubeURL)
	song.CoverArtURL = nullString(coverArtURL)
	song.SongsterrURL = nullString(songsterrURL)
	song.SongsterrBassID = nullInt(songsterrBassID)
	song.SongsterrDrumID = nullInt(songsterrDrumID)
	song.GeniusURL = nullString(geniusURL)
	song.ChordChartURL = nullString(chordChartURL)
	song.Notes = nullString(notes)
	song.AddedBy = nullString(addedBy)
	return &song, nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

func nullInt(ni sql.NullInt64) *int {
	if !ni.Valid {
		return nil
	}
	v := int(ni.Int64)
	return &v
}

func nullDifficulty(ns sql.NullString) *jam.Difficulty {
	if !ns.Valid {
		return nil
	}
	d := jam.Difficulty(ns.String)
	return &d
}

func difficultyArg(d *jam.Difficulty) *string {
	if d == nil {
		return nil
	}
	s := string(*d)
	return &s
}
