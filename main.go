package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"

	"github.com/urfave/cli"

	"github.com/chaos-io/bgclear/batch"
	"github.com/chaos-io/bgclear/config"
)

func main() {
	var verbose bool

	app := cli.NewApp()
	app.Name = "bgclear"
	app.Usage = "make the background of the site images transparent"

	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:        "verbose",
			Usage:       "log debug details",
			Destination: &verbose,
		},
	}

	app.Before = func(_ *cli.Context) error {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		return nil
	}

	app.Commands = []cli.Command{
		newCommand("butterflies", "turn near-white pixels transparent in the butterfly images", config.Butterflies),
		newCommand("plants", "turn the sampled backdrop transparent in the pixel plant images", config.Plants),
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newCommand(name, usage string, preset func() config.Config) cli.Command {
	var (
		dir        string
		configPath string
		dryRun     bool
		previewDir string
	)

	return cli.Command{
		Name:  name,
		Usage: usage,
		Flags: []cli.Flag{
			cli.StringFlag{
				Name:        "dir",
				Usage:       "directory holding the images",
				Value:       config.DefaultDir,
				Destination: &dir,
			},
			cli.StringFlag{
				Name:        "config",
				Usage:       "JSON file overriding the built-in file list and rule",
				Destination: &configPath,
			},
			cli.BoolFlag{
				Name:        "dry-run",
				Usage:       "process the images without writing them back",
				Destination: &dryRun,
			},
			cli.StringFlag{
				Name:        "preview-dir",
				Usage:       "also write downscaled previews into this directory",
				Destination: &previewDir,
			},
		},
		Action: func(c *cli.Context) error {
			cfg := preset()
			if configPath != "" {
				loaded, err := config.Load(configPath, cfg)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			if c.IsSet("dir") {
				cfg.Dir = dir
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid %s config: %w", name, err)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			p := batch.NewProcessor(cfg.BuildRule())
			p.DryRun = dryRun
			p.PreviewDir = previewDir

			slog.Debug("starting run", "command", name, "dir", cfg.Dir, "files", len(cfg.Files), "rule", cfg.Rule)
			report, err := p.Run(ctx, cfg)
			if err != nil {
				return err
			}
			slog.Debug("run finished", "updated", len(report.Updated), "skipped", len(report.Skipped))
			return nil
		},
	}
}
