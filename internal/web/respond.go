package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/justestif/jammy/internal/jam"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// statusFor maps an error kind to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, jam.ErrBadInput), errors.Is(err, jam.ErrInvalidReference):
		return http.StatusBadRequest
	case errors.Is(err, jam.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, jam.ErrNotConfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, jam.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError responds with {"error": msg}. Internal errors are logged and
// replaced by fallback so their details stay server-side.
func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := statusFor(err)
	msg := err.Error()

	switch {
	case status == http.StatusInternalServerError:
		h.logger.Error(fallback, "err", err, "request_id", middleware.GetReqID(r.Context()))
		msg = fallback
	case status == http.StatusBadGateway:
		h.logger.Warn(fallback, "err", err, "request_id", middleware.GetReqID(r.Context()))
	}

	writeJSON(w, status, errorResponse{Error: msg})
}

// decodeJSON reads a JSON request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		return jam.BadInputf("invalid JSON body")
	}
	return nil
}

// requestLogger logs one line per request through logger.
func requestLogger(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()))
		})
	}
}
