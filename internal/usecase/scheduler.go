package usecase

import (
	"context"
	"log/slog"
	"time"

	"NewsPipeline/internal/ports"
)

// Scheduler wires the cron driver with the ingestion use case.
type Scheduler struct {
	driver   ports.Scheduler
	ingestor *Ingestor
	logger   *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring ingestion of active sources.
func NewScheduler(driver ports.Scheduler, ingestor *Ingestor, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{driver: driver, ingestor: ingestor, logger: logger}
}

// Start registers the ingestion of every active source with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.ingestor == nil {
		return nil
	}

	job := func(trigger time.Time) {
		s.logger.Info("scheduled ingestion triggered", "at", trigger)
		summaries, err := s.ingestor.IngestActive(ctx)
		if err != nil {
			s.logger.Error("scheduled ingestion finished with errors", "error", err)
		}
		s.logger.Info("scheduled ingestion done", "sources", len(summaries))
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
