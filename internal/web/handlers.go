package web

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/justestif/jammy/internal/discover"
	"github.com/justestif/jammy/internal/importer"
	"github.com/justestif/jammy/internal/jam"
)

// Importer imports playlists into the collection.
type Importer interface {
	Import(ctx context.Context, req importer.Request) (*importer.Result, error)
}

// Recommender produces recommendations for the collection.
type Recommender interface {
	Recommend(ctx context.Context) (*discover.Result, error)
}

var errSongNotFound = jam.WithMessage(jam.ErrNotFound, "Song not found")

// Handlers contains HTTP handlers for the API.
type Handlers struct {
	store       jam.Store
	importer    Importer
	recommender Recommender
	logger      *log.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(store jam.Store, imp Importer, rec Recommender, logger *log.Logger) *Handlers {
	return &Handlers{
		store:       store,
		importer:    imp,
		recommender: rec,
		logger:      logger,
	}
}

// Health reports whether the store is reachable.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		h.logger.Error("health check failed", "err", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListSongs handles GET /api/songs?status=&sortBy=.
func (h *Handlers) ListSongs(w http.ResponseWriter, r *http.Request) {
	var opts jam.ListOptions

	if raw := r.URL.Query().Get("status"); raw != "" {
		status := jam.Status(raw)
		if !status.Valid() {
			h.writeError(w, r, jam.BadInputf("Invalid status value"), "")
			return
		}
		opts.Status = &status
	}
	opts.SortBy = jam.SortField(r.URL.Query().Get("sortBy"))

	songs, err := h.store.List(r.Context(), opts)
	if err != nil {
		h.writeError(w, r, err, "Failed to fetch songs")
		return
	}
	if songs == nil {
		songs = []jam.Song{}
	}
	writeJSON(w, http.StatusOK, songs)
}

// CreateSong handles POST /api/songs.
func (h *Handlers) CreateSong(w http.ResponseWriter, r *http.Request) {
	var n jam.NewSong
	if err := decodeJSON(w, r, &n); err != nil {
		h.writeError(w, r, err, "")
		return
	}
	if err := n.Validate(); err != nil {
		h.writeError(w, r, err, "")
		return
	}

	song, err := h.store.Insert(r.Context(), n)
	if err != nil {
		h.writeError(w, r, err, "Failed to create song")
		return
	}
	writeJSON(w, http.StatusCreated, song)
}

// GetSong handles GET /api/songs/{id}.
func (h *Handlers) GetSong(w http.ResponseWriter, r *http.Request) {
	id, err := songID(r)
	if err != nil {
		h.writeError(w, r, err, "")
		return
	}

	song, err := h.store.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, songErr(err), "Failed to fetch song")
		return
	}
	writeJSON(w, http.StatusOK, song)
}

// UpdateSong handles PATCH /api/songs/{id}. Fields absent from the body are
// unchanged; fields set to null are cleared.
func (h *Handlers) UpdateSong(w http.ResponseWriter, r *http.Request) {
	id, err := songID(r)
	if err != nil {
		h.writeError(w, r, err, "")
		return
	}

	var u jam.SongUpdate
	if err := decodeJSON(w, r, &u); err != nil {
		h.writeError(w, r, err, "")
		return
	}
	if err := u.Validate(); err != nil {
		h.writeError(w, r, err, "")
		return
	}

	song, err := h.store.Update(r.Context(), id, u)
	if err != nil {
		h.writeError(w, r, songErr(err), "Failed to update song")
		return
	}
	writeJSON(w, http.StatusOK, song)
}

// DeleteSong handles DELETE /api/songs/{id}.
func (h *Handlers) DeleteSong(w http.ResponseWriter, r *http.Request) {
	id, err := songID(r)
	if err != nil {
		h.writeError(w, r, err, "")
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, songErr(err), "Failed to delete song")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type syncRequest struct {
	PlaylistURL string `json:"playlistUrl"`
	AddedBy     string `json:"addedBy"`
}

// SyncPlaylist handles POST /api/spotify/sync.
func (h *Handlers) SyncPlaylist(w http.ResponseWriter, r *http.Request) {
	var req syncRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err, "")
		return
	}
	if strings.TrimSpace(req.PlaylistURL) == "" {
		h.writeError(w, r, jam.BadInputf("playlistUrl is required"), "")
		return
	}

	result, err := h.importer.Import(r.Context(), importer.Request{
		PlaylistRef: req.PlaylistURL,
		AddedBy:     req.AddedBy,
	})
	if err != nil {
		if errors.Is(err, jam.ErrInvalidReference) {
			err = jam.WithMessage(jam.ErrInvalidReference,
				"Invalid Spotify playlist URL. Provide a link like https://open.spotify.com/playlist/...")
		}
		h.writeError(w, r, err, "Failed to sync playlist")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Discover handles GET /api/discover.
func (h *Handlers) Discover(w http.ResponseWriter, r *http.Request) {
	result, err := h.recommender.Recommend(r.Context())
	if err != nil {
		h.writeError(w, r, err, "Failed to fetch recommendations")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// songID parses the {id} URL parameter. Malformed IDs cannot name a song,
// so they are reported as not found.
func songID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, errSongNotFound
	}
	return id, nil
}

func songErr(err error) error {
	if errors.Is(err, jam.ErrNotFound) {
		return errSongNotFound
	}
	return err
}
