package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"NewsPipeline/internal/domain"
	"NewsPipeline/internal/ports"
)

// MemoryRepository is a process-local Store. The uniqueness check and insert
// happen under one lock, so concurrent ingestions of the same file cannot both insert.
type MemoryRepository struct {
	mu       sync.RWMutex
	sources  map[int64]domain.Source
	articles map[int64]domain.Article
	byURL    map[string]int64
	jobRuns  map[int64]domain.JobRun
	nextID   map[string]int64
	closed   bool
}

var _ ports.Store = (*MemoryRepository)(nil)

// NewMemoryRepository creates an empty store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		sources:  map[int64]domain.Source{},
		articles: map[int64]domain.Article{},
		byURL:    map[string]int64{},
		jobRuns:  map[int64]domain.JobRun{},
		nextID:   map[string]int64{},
	}
}

// Close marks the store closed; later calls fail.
func (m *MemoryRepository) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *MemoryRepository) next(table string) int64 {
	m.nextID[table]++
	return m.nextID[table]
}

func (m *MemoryRepository) checkOpen() error {
	if m.closed {
		return fmt.Errorf("memory store is closed")
	}
	return nil
}

// GetSource loads one source by id.
func (m *MemoryRepository) GetSource(_ context.Context, id int64) (domain.Source, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.checkOpen(); err != nil {
		return domain.Source{}, err
	}

	source, ok := m.sources[id]
	if !ok {
		return domain.Source{}, fmt.Errorf("source %d: %w", id, ports.ErrNotFound)
	}
	return source, nil
}

// ListSources returns sources ordered by id.
func (m *MemoryRepository) ListSources(_ context.Context, activeOnly bool) ([]domain.Source, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.checkOpen(); err != nil {
		return nil, err
	}

	sources := make([]domain.Source, 0, len(m.sources))
	for _, source := range m.sources {
		if activeOnly && !source.IsActive {
			continue
		}
		sources = append(sources, source)
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i].ID < sources[j].ID })
	return sources, nil
}

// CreateSource stores a source and assigns its id.
func (m *MemoryRepository) CreateSource(_ context.Context, source domain.Source) (domain.Source, error) {
	if err := source.Validate(); err != nil {
		return domain.Source{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkOpen(); err != nil {
		return domain.Source{}, err
	}

	source.ID = m.next("sources")
	if source.CreatedAt.IsZero() {
		source.CreatedAt = time.Now().UTC()
	}
	m.sources[source.ID] = source
	return source, nil
}

// MarkSourceRun stamps last_run_at on the source.
func (m *MemoryRepository) MarkSourceRun(_ context.Context, id int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkOpen(); err != nil {
		return err
	}

	source, ok := m.sources[id]
	if !ok {
		return fmt.Errorf("source %d: %w", id, ports.ErrNotFound)
	}
	source.LastRunAt = &at
	m.sources[id] = source
	return nil
}

// FindArticleByOriginalURL looks up the article owning the uniqueness key.
func (m *MemoryRepository) FindArticleByOriginalURL(_ context.Context, originalURL string) (domain.Article, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.checkOpen(); err != nil {
		return domain.Article{}, false, err
	}

	id, ok := m.byURL[originalURL]
	if !ok {
		return domain.Article{}, false, nil
	}
	return m.articles[id], true, nil
}

// CreateArticle inserts an article; a taken original_url yields ErrDuplicateKey.
func (m *MemoryRepository) CreateArticle(_ context.Context, article domain.Article) (domain.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkOpen(); err != nil {
		return domain.Article{}, err
	}

	if _, taken := m.byURL[article.OriginalURL]; taken {
		return domain.Article{}, fmt.Errorf("article %s: %w", article.OriginalURL, ports.ErrDuplicateKey)
	}

	article.ID = m.next("articles")
	if article.ExtractedAt.IsZero() {
		article.ExtractedAt = time.Now().UTC()
	}
	m.articles[article.ID] = article
	m.byURL[article.OriginalURL] = article.ID
	return article, nil
}

// Articles returns every stored article ordered by id.
func (m *MemoryRepository) Articles() []domain.Article {
	m.mu.RLock()
	defer m.mu.RUnlock()

	articles := make([]domain.Article, 0, len(m.articles))
	for _, article := range m.articles {
		articles = append(articles, article)
	}
	sort.Slice(articles, func(i, j int) bool { return articles[i].ID < articles[j].ID })
	return articles
}

// CreateJobRun stores a job run and assigns its id.
func (m *MemoryRepository) CreateJobRun(_ context.Context, run domain.JobRun) (domain.JobRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkOpen(); err != nil {
		return domain.JobRun{}, err
	}

	run.ID = m.next("job_runs")
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	m.jobRuns[run.ID] = run
	return run, nil
}

// FinishJobRun moves a running job to its terminal state. It succeeds only once per run.
func (m *MemoryRepository) FinishJobRun(_ context.Context, run domain.JobRun) error {
	if !run.Status.Terminal() {
		return fmt.Errorf("job run %d: status %q is not terminal", run.ID, run.Status)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkOpen(); err != nil {
		return err
	}

	stored, ok := m.jobRuns[run.ID]
	if !ok || stored.Status != domain.JobStatusRunning {
		return fmt.Errorf("running job run %d: %w", run.ID, ports.ErrNotFound)
	}

	finishedAt := time.Now().UTC()
	if run.FinishedAt != nil {
		finishedAt = *run.FinishedAt
	}
	stored.Status = run.Status
	stored.FinishedAt = &finishedAt
	stored.ProcessedCount = run.ProcessedCount
	stored.ErrorCount = run.ErrorCount
	stored.Details = run.Details
	m.jobRuns[run.ID] = stored
	return nil
}

// GetJobRun loads one job run by id.
func (m *MemoryRepository) GetJobRun(_ context.Context, id int64) (domain.JobRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.checkOpen(); err != nil {
		return domain.JobRun{}, err
	}

	run, ok := m.jobRuns[id]
	if !ok {
		return domain.JobRun{}, fmt.Errorf("job run %d: %w", id, ports.ErrNotFound)
	}
	return run, nil
}

// JobRuns returns every stored job run ordered by id.
func (m *MemoryRepository) JobRuns() []domain.JobRun {
	m.mu.RLock()
	defer m.mu.RUnlock()

	runs := make([]domain.JobRun, 0, len(m.jobRuns))
	for _, run := range m.jobRuns {
		runs = append(runs, run)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].ID < runs[j].ID })
	return runs
}
