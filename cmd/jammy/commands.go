package main

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/justestif/jammy/internal/discover"
	"github.com/justestif/jammy/internal/importer"
	"github.com/justestif/jammy/internal/jam"
	"github.com/justestif/jammy/internal/metrics"
	"github.com/justestif/jammy/internal/web"
)

func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Run the HTTP API",
		Action: r.Serve,
	}
}

func migrateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "migrate",
		Usage:  "Create or update the database schema",
		Action: r.Migrate,
	}
}

func importCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Import a public Spotify playlist into the jam list",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name:      "playlist",
				UsageText: "playlist URL, spotify:playlist URI or ID",
			},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "added-by",
				Usage: "Name recorded as the person who added the songs",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Import,
	}
}

func discoverCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "discover",
		Usage: "Recommend songs based on the artists in the jam list",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum recommendations per artist",
				Value: discover.DefaultPerArtist,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Discover,
	}
}

func initCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "init",
		Usage:  "Write an example config file to --config (default jammy.toml)",
		Action: r.Init,
	}
}

func (r *Runner) newServer(st jam.Store, cat importer.Catalog, src discover.Source, m *metrics.Metrics, shutdown time.Duration) *web.Server {
	return web.NewServer(web.ServerConfig{
		Addr:            r.config.Server.Addr,
		ShutdownTimeout: shutdown,
		Store:           st,
		Importer:        importer.New(st, cat, importer.WithLogger(r.logger), importer.WithMetrics(m)),
		Recommender:     discover.New(st, src, discover.WithLogger(r.logger), discover.WithMetrics(m)),
		Metrics:         m,
		Logger:          r.logger,
	})
}

// printRecommendations writes one block per seed artist, sorted by name.
func printRecommendations(w io.Writer, result *discover.Result) error {
	if result.Message != "" {
		_, err := fmt.Fprintln(w, result.Message)
		return err
	}
	if len(result.Recommendations) == 0 {
		_, err := fmt.Fprintln(w, "No recommendations found.")
		return err
	}

	artists := make([]string, 0, len(result.Recommendations))
	for a := range result.Recommendations {
		artists = append(artists, a)
	}
	sort.Strings(artists)

	for _, a := range artists {
		fmt.Fprintf(w, "Because you play %s:\n", a)
		for _, rec := range result.Recommendations[a] {
			fmt.Fprintf(w, "  %s - %s (%.2f)\n", rec.Artist, rec.Title, rec.Match)
		}
	}
	return nil
}
