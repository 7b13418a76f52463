package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/devflow/internal"
	pkgconfig "github.com/starford/devflow/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadWithDefaults(cmd.String("config"), "", cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func mcp(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunMCP(ctx, internal.WithConfig(cfg))
}

func stats(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunStats(ctx, int(cmd.Int("days")), internal.WithConfig(cfg))
}

func digest(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunDigest(ctx, cmd.Bool("copy"), internal.WithConfig(cfg))
}

func export(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunExport(ctx, cmd.String("out"), internal.WithConfig(cfg))
}

func main() {
	cmd := &cli.Command{
		Name:   "devflow",
		Usage:  "Personal activity analytics for projects, notes and code snippets",
		Action: serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API, event stream and bundle watcher",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve analytics tools over MCP stdio",
				Action: mcp,
			},
			{
				Name:   "stats",
				Usage:  "Print streaks, the activity timeline and the tech ranking",
				Action: stats,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "days",
						Usage: "Timeline length in days (0 uses analytics.timeline_days)",
					},
				},
			},
			{
				Name:   "digest",
				Usage:  "Generate and print this week's digest",
				Action: digest,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "copy",
						Usage: "Copy the summary to the clipboard",
					},
				},
			},
			{
				Name:   "export",
				Usage:  "Write every record into a bundle file under the import directory",
				Action: export,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "out",
						Usage: "Bundle path relative to import.path",
						Value: "export.yaml",
					},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
