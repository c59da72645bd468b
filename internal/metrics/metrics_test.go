package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/justestif/jammy/internal/jam"
)

func TestOutcome(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{err: nil, want: "ok"},
		{err: jam.BadInputf("title is required"), want: "bad_input"},
		{err: fmt.Errorf("parse: %w", jam.ErrInvalidReference), want: "bad_input"},
		{err: jam.ErrNotFound, want: "not_found"},
		{err: jam.ErrNotConfigured, want: "not_configured"},
		{err: &jam.UpstreamError{Service: "Spotify", StatusCode: 500}, want: "upstream"},
		{err: errors.New("disk full"), want: "error"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := Outcome(tt.err); got != tt.want {
				t.Errorf("Outcome(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}

func TestObserveImport(t *testing.T) {
	m := New()
	m.ObserveImport(nil, 3, 2)
	m.ObserveImport(jam.ErrNotFound, 0, 0)

	if got := testutil.ToFloat64(m.ImportsTotal.WithLabelValues("ok")); got != 1 {
		t.Errorf("ok imports = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ImportsTotal.WithLabelValues("not_found")); got != 1 {
		t.Errorf("not_found imports = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ImportSongsTotal.WithLabelValues("added")); got != 3 {
		t.Errorf("added = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.ImportSongsTotal.WithLabelValues("skipped")); got != 2 {
		t.Errorf("skipped = %v, want 2", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveImport(nil, 1, 1)
	m.ObserveRecommend(nil, 1, 1, 0)
}

func TestMiddleware(t *testing.T) {
	m := New()

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/songs/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/songs/"+id, nil))
	}

	got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/api/songs/{id}", "404"))
	if got != 2 {
		t.Errorf("requests = %v, want 2", got)
	}
}
