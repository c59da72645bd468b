package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/justestif/jammy/internal/config"
	"github.com/justestif/jammy/internal/db"
	"github.com/justestif/jammy/internal/discover"
	"github.com/justestif/jammy/internal/importer"
	"github.com/justestif/jammy/internal/jam"
	"github.com/justestif/jammy/internal/lastfm"
	"github.com/justestif/jammy/internal/logging"
	"github.com/justestif/jammy/internal/metrics"
	"github.com/justestif/jammy/internal/spotify"
	"github.com/justestif/jammy/internal/sqlite"
)

// Runner holds the dependencies shared by CLI commands and provides a
// method for each command action.
type Runner struct {
	config *config.Config
	logger *log.Logger
	output io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config *config.Config
	Logger *log.Logger
	Output io.Writer
}

// NewRunner creates a Runner. Config and Logger may be left nil and are
// then filled in by Setup.
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	return &Runner{
		config: opts.Config,
		logger: opts.Logger,
		output: opts.Output,
	}
}

// Setup loads configuration and builds the logger before any command runs.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if r.config == nil {
		// init writes the file named by --config, so it must not read it.
		if cmd.Args().First() == "init" {
			r.config = config.DefaultConfig()
		} else {
			cfg, err := config.Load(cmd.String("config"))
			if err != nil {
				return ctx, err
			}
			r.config = cfg
		}
	}

	if r.logger == nil {
		logger, err := logging.New(os.Stderr, r.config.Log.Level)
		if err != nil {
			return ctx, fmt.Errorf("invalid log level: %w", err)
		}
		r.logger = logger
	}

	return ctx, nil
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		serveCommand, migrateCommand, importCommand, discoverCommand, initCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// store is a song store that can be migrated and closed.
type store struct {
	jam.Store
	migrate func(context.Context) error
	close   func()
}

// openStore connects to PostgreSQL when a database URL is configured and
// to the SQLite file otherwise.
func (r *Runner) openStore(ctx context.Context) (*store, error) {
	if url := r.config.Database.URL; url != "" {
		pg, err := db.New(ctx, url)
		if err != nil {
			return nil, err
		}
		r.logger.Debug("using postgres store")
		return &store{Store: pg.Songs(), migrate: pg.Migrate, close: pg.Close}, nil
	}

	lite, err := sqlite.Open(r.config.Database.SQLitePath)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("using sqlite store", "path", r.config.Database.SQLitePath)
	return &store{Store: lite, migrate: lite.Migrate, close: func() { lite.Close() }}, nil
}

// catalog returns the Spotify client, or nil when credentials are missing.
func (r *Runner) catalog(ctx context.Context) (importer.Catalog, error) {
	client, err := spotify.NewFromConfig(ctx, spotify.Config{
		ClientID:     r.config.Spotify.ClientID,
		ClientSecret: r.config.Spotify.ClientSecret,
	}, r.logger)
	if errors.Is(err, jam.ErrNotConfigured) {
		r.logger.Warn("spotify credentials missing, playlist import disabled")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return client, nil
}

// recommendationSource returns the Last.fm client, or nil when no API key
// is configured. The returned func releases the cache.
func (r *Runner) recommendationSource(ctx context.Context) (discover.Source, func(), error) {
	noop := func() {}

	if r.config.LastFM.APIKey == "" {
		r.logger.Warn("last.fm api key missing, recommendations disabled")
		return nil, noop, nil
	}

	ttl, err := r.config.CacheTTL()
	if err != nil {
		return nil, noop, err
	}

	var cache lastfm.Cache
	release := noop
	if addr := r.config.Redis.Addr; addr != "" {
		rc, err := lastfm.NewRedisCache(ctx, addr, r.logger)
		if err != nil {
			return nil, noop, fmt.Errorf("connecting to redis: %w", err)
		}
		cache = rc
		release = func() { rc.Close() }
	}

	client, err := lastfm.NewClient(lastfm.Config{
		APIKey:            r.config.LastFM.APIKey,
		RequestsPerSecond: r.config.LastFM.RequestsPerSecond,
		CacheTTL:          ttl,
	}, cache, r.logger)
	if err != nil {
		release()
		return nil, noop, err
	}
	return client, release, nil
}

// Serve runs the HTTP API until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	st, err := r.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.close()

	if err := st.migrate(ctx); err != nil {
		return err
	}

	cat, err := r.catalog(ctx)
	if err != nil {
		return err
	}
	src, release, err := r.recommendationSource(ctx)
	if err != nil {
		return err
	}
	defer release()

	shutdown, err := r.config.ShutdownTimeout()
	if err != nil {
		return err
	}

	m := metrics.New()

	server := r.newServer(st, cat, src, m, shutdown)
	return server.Run(ctx)
}

// Migrate applies the schema.
func (r *Runner) Migrate(ctx context.Context, cmd *cli.Command) error {
	st, err := r.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.close()

	if err := st.migrate(ctx); err != nil {
		return err
	}
	r.logger.Info("migrations applied")
	return nil
}

// Import imports one playlist from the command line.
func (r *Runner) Import(ctx context.Context, cmd *cli.Command) error {
	ref := cmd.StringArg("playlist")
	if ref == "" {
		return errors.New("playlist URL, URI or ID is required")
	}

	st, err := r.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.close()

	cat, err := r.catalog(ctx)
	if err != nil {
		return err
	}

	svc := importer.New(st, cat, importer.WithLogger(r.logger))
	result, err := svc.Import(ctx, importer.Request{
		PlaylistRef: ref,
		AddedBy:     cmd.String("added-by"),
	})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(result)
	}

	fmt.Fprintf(r.output, "%s: added %d, skipped %d of %d tracks\n",
		result.PlaylistName, result.Added, result.Skipped, result.Total)
	for _, s := range result.Songs {
		fmt.Fprintf(r.output, "  + %s - %s\n", s.Artist, s.Title)
	}
	if result.Truncated {
		fmt.Fprintln(r.output, "warning: playlist was only partly fetched")
	}
	return nil
}

// Discover prints recommendations for the current collection.
func (r *Runner) Discover(ctx context.Context, cmd *cli.Command) error {
	st, err := r.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.close()

	src, release, err := r.recommendationSource(ctx)
	if err != nil {
		return err
	}
	defer release()

	engine := discover.New(st, src,
		discover.WithLogger(r.logger),
		discover.WithPerArtist(int(cmd.Int("limit"))))
	result, err := engine.Recommend(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(result)
	}
	return printRecommendations(r.output, result)
}

// Init writes an example config file.
func (r *Runner) Init(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")
	if path == "" {
		path = "jammy.toml"
	}
	if err := config.CreateConfigFile(path); err != nil {
		return err
	}
	r.logger.Info("config file created", "path", path)
	return nil
}

func (r *Runner) writeJSON(data any) error {
	enc := json.NewEncoder(r.output)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
