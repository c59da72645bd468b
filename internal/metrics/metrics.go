// Package metrics defines the Prometheus metrics exported by jammy.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/justestif/jammy/internal/jam"
)

// Metrics holds all application metrics. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Import metrics
	ImportsTotal     *prometheus.CounterVec
	ImportSongsTotal *prometheus.CounterVec

	// Recommendation metrics
	RecommendationsTotal *prometheus.CounterVec
	SeedArtistsTotal     *prometheus.CounterVec
}

// New creates a Metrics instance registered on its own registry, together
// with the Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jammy_http_requests_total",
				Help: "Total number of HTTP requests by method, route, and status",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "jammy_http_request_duration_seconds",
				Help:    "Histogram of HTTP request durations by method and route",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"method", "route"},
		),

		ImportsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jammy_imports_total",
				Help: "Total number of playlist imports by outcome",
			},
			[]string{"outcome"},
		),
		ImportSongsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jammy_import_songs_total",
				Help: "Total number of playlist tracks processed by result",
			},
			[]string{"result"},
		),

		RecommendationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jammy_recommendations_total",
				Help: "Total number of recommendation requests by outcome",
			},
			[]string{"outcome"},
		),
		SeedArtistsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jammy_seed_artists_total",
				Help: "Total number of seed artists queried by result",
			},
			[]string{"result"},
		),
	}
}

// Registry returns the registry backing these metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveImport records one import call.
func (m *Metrics) ObserveImport(err error, added, skipped int) {
	if m == nil {
		return
	}
	m.ImportsTotal.WithLabelValues(Outcome(err)).Inc()
	m.ImportSongsTotal.WithLabelValues("added").Add(float64(added))
	m.ImportSongsTotal.WithLabelValues("skipped").Add(float64(skipped))
}

// ObserveRecommend records one recommendation call. returned is the number
// of seed artists with at least one recommendation; failed is the number
// whose lookups errored.
func (m *Metrics) ObserveRecommend(err error, queried, returned, failed int) {
	if m == nil {
		return
	}
	m.RecommendationsTotal.WithLabelValues(Outcome(err)).Inc()
	m.SeedArtistsTotal.WithLabelValues("queried").Add(float64(queried))
	m.SeedArtistsTotal.WithLabelValues("returned").Add(float64(returned))
	m.SeedArtistsTotal.WithLabelValues("failed").Add(float64(failed))
}

// Middleware records request counts and durations keyed by chi route
// pattern, so path parameters do not explode label cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.RequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// Outcome maps an error to a low-cardinality label value.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, jam.ErrBadInput), errors.Is(err, jam.ErrInvalidReference):
		return "bad_input"
	case errors.Is(err, jam.ErrNotFound):
		return "not_found"
	case errors.Is(err, jam.ErrNotConfigured):
		return "not_configured"
	case errors.Is(err, jam.ErrUpstream):
		return "upstream"
	default:
		return "error"
	}
}
