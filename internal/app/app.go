package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"NewsPipeline/internal/config"
	"NewsPipeline/internal/domain"
	"NewsPipeline/internal/infrastructure/filesource"
	"NewsPipeline/internal/infrastructure/metrics"
	"NewsPipeline/internal/infrastructure/opsserver"
	"NewsPipeline/internal/infrastructure/parser"
	"NewsPipeline/internal/infrastructure/scheduler"
	"NewsPipeline/internal/infrastructure/storage"
	"NewsPipeline/internal/infrastructure/telegram"
	"NewsPipeline/internal/logging"
	"NewsPipeline/internal/parsing"
	"NewsPipeline/internal/ports"
	"NewsPipeline/internal/usecase"
)

const shutdownTimeout = 30 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	store    ports.Store
	registry *parsing.Registry
	metrics  *metrics.Prometheus
	ingestor *usecase.Ingestor
}

// New opens the store and builds the ingestion graph. Close releases it.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	parsers, err := parser.Select(cfg.Ingestion.Parsers)
	if err != nil {
		return nil, fmt.Errorf("configure parsers: %w", err)
	}
	registry := parsing.NewRegistry(baseLogger.With("component", "registry"), parsers...)

	store, err := storage.Open(ctx, cfg.Database, baseLogger.With("component", "storage"))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	var notifier ports.Notifier
	if cfg.Notifications.Telegram.Enabled() {
		notifier = telegram.NewNotifier(cfg.Notifications.Telegram.BotToken, cfg.Notifications.Telegram.ChatID)
	}

	prom := metrics.NewPrometheus()
	ingestor := usecase.NewIngestor(usecase.IngestorDeps{
		Store:             store,
		Registry:          registry,
		Resolver:          filesource.NewDefaultResolver(baseLogger.With("component", "resolver")),
		Notifier:          notifier,
		Metrics:           prom,
		Logger:            baseLogger.With("component", "ingestor"),
		Workers:           cfg.Ingestion.Workers,
		MaxReportedErrors: cfg.Ingestion.MaxReportedErrors,
	})

	return &Application{
		cfg:      cfg,
		logger:   baseLogger,
		store:    store,
		registry: registry,
		metrics:  prom,
		ingestor: ingestor,
	}, nil
}

// Close releases the store.
func (a *Application) Close() error {
	return a.store.Close()
}

// Ingest performs a single ingestion of one source.
func (a *Application) Ingest(ctx context.Context, sourceID int64) (domain.RunSummary, error) {
	return a.ingestor.Ingest(ctx, sourceID)
}

// IngestActive performs a single ingestion of every active source.
func (a *Application) IngestActive(ctx context.Context) ([]domain.RunSummary, error) {
	return a.ingestor.IngestActive(ctx)
}

// Schedule runs the cron-driven ingestion until ctx is cancelled.
func (a *Application) Schedule(ctx context.Context) error {
	if err := scheduler.ValidateSpec(a.cfg.Scheduler.CronExpression); err != nil {
		return err
	}

	driver := scheduler.NewCronScheduler(a.cfg.Scheduler.CronExpression, a.cfg.Scheduler.Location(),
		a.logger.With("component", "scheduler"))
	sched := usecase.NewScheduler(driver, a.ingestor, a.logger.With("component", "scheduler"))

	var ops *opsserver.Server
	if a.cfg.Metrics.Addr != "" {
		ops = opsserver.New(a.cfg.Metrics.Addr, a.metrics.Handler(), a.logger.With("component", "ops"))
		ops.Start()
	}

	if err := sched.Start(ctx); err != nil {
		return err
	}
	if next, err := driver.Next(time.Now()); err == nil {
		a.logger.Info("next scheduled ingestion", "at", next)
	}

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := sched.Stop(shutdownCtx); err != nil {
		a.logger.Warn("scheduler did not stop cleanly", "error", err)
	}
	if ops != nil {
		if err := ops.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn("ops server did not stop cleanly", "error", err)
		}
	}
	return nil
}

// AddSource registers a new source.
func (a *Application) AddSource(ctx context.Context, source domain.Source) (domain.Source, error) {
	return a.store.CreateSource(ctx, source)
}

// ListSources returns the configured sources.
func (a *Application) ListSources(ctx context.Context, activeOnly bool) ([]domain.Source, error) {
	return a.store.ListSources(ctx, activeOnly)
}

// Extensions lists the file extensions the configured parsers accept.
func (a *Application) Extensions() []string {
	return a.registry.Extensions()
}

// Migrate applies schema migrations for the configured SQL database.
func Migrate(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) error {
	if cfg.Driver == config.DriverMemory {
		return fmt.Errorf("driver %q has no schema to migrate", cfg.Driver)
	}
	dialect, err := storage.ParseDialect(cfg.Driver)
	if err != nil {
		return err
	}
	return storage.Migrate(ctx, dialect, cfg.DSN, logger)
}
