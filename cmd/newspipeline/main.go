package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	// a missing .env is normal outside development
	_ = godotenv.Load()

	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(exitCode(err))
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "newspipeline",
		Usage: "Ingest documents from configured sources into the article store",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML config file (overrides NEWSPIPELINE_CONFIG)",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "Log output format (text, json)",
			},
		},
		Before: setup,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Run one ingestion of a source and print its summary",
				ArgsUsage: "<source-id>",
				Action:    ingestCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Ingest every active source instead of a single one",
					},
				},
			},
			{
				Name:   "schedule",
				Usage:  "Ingest active sources on the configured cron schedule until interrupted",
				Action: scheduleCommand,
			},
			{
				Name:   "migrate",
				Usage:  "Apply pending database migrations",
				Action: migrateCommand,
			},
			{
				Name:  "sources",
				Usage: "Manage ingestion sources",
				Subcommands: []*cli.Command{
					{
						Name:   "add",
						Usage:  "Register a new source",
						Action: sourcesAddCommand,
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:     "name",
								Aliases:  []string{"n"},
								Usage:    "Human readable source name",
								Required: true,
							},
							&cli.StringFlag{
								Name:  "kind",
								Usage: "Source kind (website, rss, local, cloud-storage)",
								Value: "local",
							},
							&cli.StringFlag{
								Name:     "location",
								Usage:    "File, directory, URL or bucket the source points at",
								Required: true,
							},
							&cli.StringFlag{
								Name:  "settings",
								Usage: "Free-form JSON object stored with the source",
							},
							&cli.BoolFlag{
								Name:  "inactive",
								Usage: "Exclude the source from scheduled runs",
							},
						},
					},
					{
						Name:   "list",
						Usage:  "List registered sources",
						Action: sourcesListCommand,
						Flags: []cli.Flag{
							&cli.BoolFlag{
								Name:  "active",
								Usage: "Only show active sources",
							},
						},
					},
				},
			},
		},
	}
}
