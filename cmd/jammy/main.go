// Command jammy runs the jam list API and its maintenance commands.
package main

import (
	"context"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
)

func main() {
	runner := NewRunner(RunnerOpts{})

	app := &cli.Command{
		Name:    "jammy",
		Usage:   "Track songs to learn, import Spotify playlists, discover new music",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Sources: cli.EnvVars("JAMMY_CONFIG"),
			},
		},
		Before:   runner.Setup,
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatal("application error", "err", err)
	}
}
