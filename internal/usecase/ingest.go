package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"NewsPipeline/internal/domain"
	"NewsPipeline/internal/parsing"
	"NewsPipeline/internal/ports"
)

// File outcomes reported to metrics.
const (
	OutcomeCreated = "created"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"

	// outcomeInterrupted marks a file abandoned because the run was cancelled. It is not counted.
	outcomeInterrupted = "interrupted"
)

const defaultMaxReportedErrors = 50

// IngestorDeps wires all driven adapters into the ingestion orchestrator.
type IngestorDeps struct {
	Store    ports.Store
	Registry *parsing.Registry
	Resolver ports.FileResolver
	Notifier ports.Notifier
	Metrics  ports.Metrics
	Logger   *slog.Logger
	// Workers above 1 parse files concurrently through a goroutine pool.
	Workers int
	// MaxReportedErrors caps the per-file errors kept in job run details.
	MaxReportedErrors int
	Now               func() time.Time
}

// Ingestor implements the source-ingestion workflow.
type Ingestor struct {
	store             ports.Store
	registry          *parsing.Registry
	resolver          ports.FileResolver
	notifier          ports.Notifier
	metrics           ports.Metrics
	logger            *slog.Logger
	workers           int
	maxReportedErrors int
	now               func() time.Time
}

// NewIngestor constructs the orchestration component.
func NewIngestor(deps IngestorDeps) *Ingestor {
	i := &Ingestor{
		store:             deps.Store,
		registry:          deps.Registry,
		resolver:          deps.Resolver,
		notifier:          deps.Notifier,
		metrics:           deps.Metrics,
		logger:            deps.Logger,
		workers:           deps.Workers,
		maxReportedErrors: deps.MaxReportedErrors,
		now:               deps.Now,
	}
	if i.logger == nil {
		i.logger = slog.Default()
	}
	if i.workers < 1 {
		i.workers = 1
	}
	if i.maxReportedErrors <= 0 {
		i.maxReportedErrors = defaultMaxReportedErrors
	}
	if i.now == nil {
		i.now = func() time.Time { return time.Now().UTC() }
	}
	return i
}

// JobName is the job run name recorded for a source.
func JobName(sourceID int64) string {
	return fmt.Sprintf("ingest_source_%d", sourceID)
}

// Ingest runs one pass over the source: resolve files, skip known ones, parse and persist the rest.
// A returned error means the run was aborted before any file was processed; per-file problems
// only show up in the summary.
func (i *Ingestor) Ingest(ctx context.Context, sourceID int64) (domain.RunSummary, error) {
	summary := domain.RunSummary{SourceID: sourceID}

	source, err := i.store.GetSource(ctx, sourceID)
	if errors.Is(err, ports.ErrNotFound) {
		return summary, fmt.Errorf("%w: id %d", ErrSourceNotFound, sourceID)
	}
	if err != nil {
		return summary, fmt.Errorf("load source %d: %w", sourceID, err)
	}

	if i.registry == nil || i.registry.Len() == 0 {
		return summary, ErrEmptyRegistry
	}

	if !source.IsActive {
		i.logger.Warn("ingesting inactive source", "source_id", source.ID, "name", source.Name)
	}

	files, err := i.resolver.Resolve(ctx, source)
	if err != nil {
		return summary, err
	}
	candidates := i.supported(files)

	started := i.now()
	run, err := i.store.CreateJobRun(ctx, domain.JobRun{
		JobName:   JobName(source.ID),
		Status:    domain.JobStatusRunning,
		StartedAt: started,
		Details:   map[string]any{"source_id": source.ID},
	})
	if err != nil {
		return summary, fmt.Errorf("create job run for source %d: %w", source.ID, err)
	}
	summary.JobRunID = run.ID

	i.logger.Info("ingestion started",
		"source_id", source.ID, "job_run_id", run.ID,
		"candidates", len(candidates), "ignored", len(files)-len(candidates), "workers", i.workers)

	i.processAll(ctx, source, candidates, &summary)
	sort.Slice(summary.Failures, func(a, b int) bool {
		return summary.Failures[a].File < summary.Failures[b].File
	})

	// the run is closed out even when the caller's context was cancelled mid-way
	finishCtx := context.WithoutCancel(ctx)
	interrupted := ctx.Err()
	i.finish(finishCtx, run, source, summary, started, interrupted)

	if interrupted != nil {
		return summary, fmt.Errorf("ingest source %d interrupted: %w", source.ID, interrupted)
	}
	return summary, nil
}

// IngestActive ingests every active source in id order. Failures of one source do not stop the others.
func (i *Ingestor) IngestActive(ctx context.Context) ([]domain.RunSummary, error) {
	sources, err := i.store.ListSources(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("list active sources: %w", err)
	}

	var (
		summaries []domain.RunSummary
		errs      []error
	)
	for _, source := range sources {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		summary, err := i.Ingest(ctx, source.ID)
		if err != nil {
			i.logger.Error("source ingestion aborted", "source_id", source.ID, "error", err)
			errs = append(errs, fmt.Errorf("source %d: %w", source.ID, err))
			continue
		}
		summaries = append(summaries, summary)
	}
	return summaries, errors.Join(errs...)
}

func (i *Ingestor) supported(files []domain.CandidateFile) []domain.CandidateFile {
	candidates := make([]domain.CandidateFile, 0, len(files))
	for _, file := range files {
		if _, ok := i.registry.Lookup(file.Extension); ok {
			candidates = append(candidates, file)
		}
	}
	return candidates
}

func (i *Ingestor) processAll(ctx context.Context, source domain.Source, files []domain.CandidateFile, summary *domain.RunSummary) {
	var mu sync.Mutex
	record := func(file domain.CandidateFile, outcome string, err error) {
		if outcome == outcomeInterrupted {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		switch outcome {
		case OutcomeCreated:
			summary.Created++
		case OutcomeSkipped:
			summary.Skipped++
		default:
			summary.Failed++
			summary.Failures = append(summary.Failures, domain.FileFailure{File: file.Path, Error: err.Error()})
		}
		if i.metrics != nil {
			i.metrics.ObserveFile(outcome)
		}
	}

	sequential := func() {
		for _, file := range files {
			if ctx.Err() != nil {
				break
			}
			outcome, err := i.processFile(ctx, source, file)
			record(file, outcome, err)
		}
	}

	if i.workers == 1 || len(files) < 2 {
		sequential()
		return
	}

	pool, err := ants.NewPool(i.workers)
	if err != nil {
		i.logger.Warn("worker pool unavailable, processing sequentially", "error", err)
		sequential()
		return
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for _, file := range files {
		if ctx.Err() != nil {
			break
		}
		file := file
		wg.Add(1)
		task := func() {
			defer wg.Done()
			outcome, err := i.processFile(ctx, source, file)
			record(file, outcome, err)
		}
		if err := pool.Submit(task); err != nil {
			task()
		}
	}
	wg.Wait()
}

// processFile handles one candidate. Any error, including a parser panic, is confined to this file.
// Files cut short by cancellation of ctx are reported as interrupted, not failed.
func (i *Ingestor) processFile(ctx context.Context, source domain.Source, file domain.CandidateFile) (outcome string, err error) {
	defer func() {
		if r := recover(); r != nil {
			outcome, err = OutcomeFailed, fmt.Errorf("parser panic: %v", r)
		}
		if outcome == OutcomeFailed && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			outcome = outcomeInterrupted
		}
		switch outcome {
		case OutcomeFailed:
			i.logger.Error("file ingestion failed", "source_id", source.ID, "file", file.Path, "error", err)
		case outcomeInterrupted:
			i.logger.Debug("file not processed, run cancelled", "source_id", source.ID, "file", file.Path)
		}
	}()

	// queued pool tasks may start after cancellation
	if err := ctx.Err(); err != nil {
		return OutcomeFailed, err
	}

	key := uniquenessKey(file.Path)

	if _, found, err := i.store.FindArticleByOriginalURL(ctx, key); err != nil {
		return OutcomeFailed, fmt.Errorf("check existing article: %w", err)
	} else if found {
		i.logger.Debug("file already ingested", "file", key)
		return OutcomeSkipped, nil
	}

	parser, ok := i.registry.Lookup(file.Extension)
	if !ok {
		return OutcomeFailed, fmt.Errorf("no parser for extension %q", file.Extension)
	}

	record, err := parser.Parse(ctx, file.Path)
	if err != nil {
		return OutcomeFailed, err
	}

	article := domain.Article{
		SourceID:     &source.ID,
		Title:        record.Title,
		ContentText:  record.ContentText,
		OriginalURL:  key,
		SourceFormat: sourceFormat(record, file.Extension),
		Attributes:   record.Attributes,
		ExtractedAt:  i.now(),
	}
	if article.Attributes == nil {
		article.Attributes = map[string]any{}
	}

	if _, err := i.store.CreateArticle(ctx, article); err != nil {
		if errors.Is(err, ports.ErrDuplicateKey) {
			// a concurrent run stored the same file first
			i.logger.Debug("file ingested concurrently", "file", key)
			return OutcomeSkipped, nil
		}
		return OutcomeFailed, fmt.Errorf("store article: %w", err)
	}

	i.logger.Debug("article created", "file", key, "parser", parser.Name())
	return OutcomeCreated, nil
}

func (i *Ingestor) finish(ctx context.Context, run domain.JobRun, source domain.Source, summary domain.RunSummary, started time.Time, interrupted error) {
	finished := i.now()
	status := summary.Status()
	if interrupted != nil {
		status = domain.JobStatusFailed
	}

	run.Status = status
	run.FinishedAt = &finished
	run.ProcessedCount = summary.Processed()
	run.ErrorCount = summary.Failed
	run.Details = i.runDetails(summary, interrupted)

	if err := i.store.FinishJobRun(ctx, run); err != nil {
		i.logger.Error("failed to finish job run", "job_run_id", run.ID, "error", err)
	}
	if err := i.store.MarkSourceRun(ctx, source.ID, finished); err != nil {
		i.logger.Error("failed to stamp source run", "source_id", source.ID, "error", err)
	}

	elapsed := finished.Sub(started)
	if i.metrics != nil {
		i.metrics.ObserveRun(status, elapsed)
	}

	i.logger.Info("ingestion finished",
		"source_id", source.ID, "job_run_id", run.ID, "status", status,
		"created", summary.Created, "skipped", summary.Skipped, "failed", summary.Failed,
		"elapsed", elapsed)

	if i.notifier == nil {
		return
	}
	if err := i.notifier.PublishReport(ctx, buildRunReport(source, summary, status)); err != nil {
		i.logger.Warn("failed to publish run report", "source_id", source.ID, "error", err)
	}
}

func (i *Ingestor) runDetails(summary domain.RunSummary, interrupted error) map[string]any {
	failures := summary.Failures
	if len(failures) > i.maxReportedErrors {
		failures = failures[:i.maxReportedErrors]
	}
	errs := make([]map[string]any, 0, len(failures))
	for _, f := range failures {
		errs = append(errs, map[string]any{"file": f.File, "error": f.Error})
	}

	details := map[string]any{
		"source_id": summary.SourceID,
		"created":   summary.Created,
		"skipped":   summary.Skipped,
		"failed":    summary.Failed,
		"errors":    errs,
	}
	if interrupted != nil {
		details["interrupted"] = interrupted.Error()
	}
	return details
}

// uniquenessKey is the canonical absolute path with symlinks resolved when possible.
func uniquenessKey(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = filepath.Clean(path)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}

func sourceFormat(record parsing.Record, ext string) string {
	if record.Format != "" {
		return record.Format
	}
	return strings.TrimPrefix(parsing.NormalizeExtension(ext), ".")
}

func buildRunReport(source domain.Source, summary domain.RunSummary, status domain.JobStatus) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Ingestion of %q (#%d): %s\n", source.Name, source.ID, status)
	fmt.Fprintf(&b, "Created: %d, skipped: %d, failed: %d\n", summary.Created, summary.Skipped, summary.Failed)

	const shown = 5
	for idx, failure := range summary.Failures {
		if idx == shown {
			fmt.Fprintf(&b, "... and %d more\n", len(summary.Failures)-shown)
			break
		}
		fmt.Fprintf(&b, "- %s: %s\n", filepath.Base(failure.File), failure.Error)
	}
	return b.String()
}
