package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v2"

	"NewsPipeline/internal/app"
	"NewsPipeline/internal/config"
	"NewsPipeline/internal/domain"
	"NewsPipeline/internal/logging"
)

const (
	configKey = "config"
	loggerKey = "logger"
)

func setup(c *cli.Context) error {
	if path := c.String("config"); path != "" {
		if err := os.Setenv("NEWSPIPELINE_CONFIG", path); err != nil {
			return fmt.Errorf("set config path: %w", err)
		}
	}

	cfg := config.Load()
	if c.IsSet("log-level") {
		cfg.Logging.Level = c.String("log-level")
	}
	if c.IsSet("log-format") {
		cfg.Logging.Format = c.String("log-format")
	}

	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(logger)

	if c.App.Metadata == nil {
		c.App.Metadata = map[string]interface{}{}
	}
	c.App.Metadata[configKey] = cfg
	c.App.Metadata[loggerKey] = logger
	return nil
}

func settings(c *cli.Context) (config.Config, *slog.Logger) {
	cfg, _ := c.App.Metadata[configKey].(config.Config)
	logger, ok := c.App.Metadata[loggerKey].(*slog.Logger)
	if !ok {
		logger = slog.Default()
	}
	return cfg, logger
}

func openApp(c *cli.Context) (*app.Application, error) {
	cfg, logger := settings(c)
	application, err := app.New(c.Context, cfg, logger)
	if err != nil {
		return nil, cli.Exit(err.Error(), 1)
	}
	return application, nil
}

func ingestCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var sourceID int64
	if !c.Bool("all") {
		if c.NArg() != 1 {
			return cli.Exit("usage: newspipeline ingest <source-id> | --all", 2)
		}
		id, err := strconv.ParseInt(c.Args().First(), 10, 64)
		if err != nil || id <= 0 {
			return cli.Exit(fmt.Sprintf("invalid source id %q", c.Args().First()), 2)
		}
		sourceID = id
	}

	application, err := openApp(c)
	if err != nil {
		return err
	}
	defer application.Close()

	if c.Bool("all") {
		summaries, err := application.IngestActive(ctx)
		printSummaries(c, summaries...)
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}
		return nil
	}

	summary, err := application.Ingest(ctx, sourceID)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	printSummaries(c, summary)
	return nil
}

func printSummaries(c *cli.Context, summaries ...domain.RunSummary) {
	t := table.NewWriter()
	t.SetOutputMirror(c.App.Writer)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Source", "Job run", "Status", "Created", "Skipped", "Failed"})
	for _, s := range summaries {
		t.AppendRow(table.Row{s.SourceID, s.JobRunID, s.Status(), s.Created, s.Skipped, s.Failed})
	}
	t.Render()

	for _, s := range summaries {
		for _, failure := range s.Failures {
			fmt.Fprintf(c.App.Writer, "  failed: %s: %s\n", failure.File, failure.Error)
		}
	}
}

func scheduleCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := openApp(c)
	if err != nil {
		return err
	}
	defer application.Close()

	return application.Schedule(ctx)
}

func migrateCommand(c *cli.Context) error {
	cfg, logger := settings(c)

	ctx, cancel := context.WithTimeout(c.Context, 5*time.Minute)
	defer cancel()

	if err := app.Migrate(ctx, cfg.Database, logger); err != nil {
		return cli.Exit(err.Error(), 1)
	}
	return nil
}

func sourcesAddCommand(c *cli.Context) error {
	kind, err := domain.ParseSourceKind(c.String("kind"))
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	source := domain.Source{
		Name:     c.String("name"),
		Kind:     kind,
		Location: c.String("location"),
		IsActive: !c.Bool("inactive"),
	}
	if raw := c.String("settings"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &source.Config); err != nil {
			return cli.Exit(fmt.Sprintf("settings must be a JSON object: %v", err), 2)
		}
	}
	if err := source.Validate(); err != nil {
		return cli.Exit(err.Error(), 2)
	}

	application, err := openApp(c)
	if err != nil {
		return err
	}
	defer application.Close()

	created, err := application.AddSource(c.Context, source)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	fmt.Fprintf(c.App.Writer, "source %d created\n", created.ID)
	return nil
}

func sourcesListCommand(c *cli.Context) error {
	application, err := openApp(c)
	if err != nil {
		return err
	}
	defer application.Close()

	sources, err := application.ListSources(c.Context, c.Bool("active"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	if len(sources) == 0 {
		fmt.Fprintln(c.App.Writer, "No sources registered")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(c.App.Writer)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Name", "Kind", "Location", "Active", "Last run"})
	for _, s := range sources {
		lastRun := "never"
		if s.LastRunAt != nil {
			lastRun = s.LastRunAt.Local().Format(time.DateTime)
		}
		t.AppendRow(table.Row{s.ID, s.Name, s.Kind, s.Location, s.IsActive, lastRun})
	}
	t.Render()
	return nil
}

// exitCode maps an error returned from Run to a process status.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var coder cli.ExitCoder
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	return 1
}
