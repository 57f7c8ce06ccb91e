package ports

import (
	"context"
	"time"

	"NewsPipeline/internal/domain"
)

// SourceRepository reads and administers configured sources.
type SourceRepository interface {
	// GetSource returns ErrNotFound when no source has the id.
	GetSource(ctx context.Context, id int64) (domain.Source, error)
	ListSources(ctx context.Context, activeOnly bool) ([]domain.Source, error)
	CreateSource(ctx context.Context, source domain.Source) (domain.Source, error)
	// MarkSourceRun stamps the last-run timestamp; it is the only source mutation the pipeline makes.
	MarkSourceRun(ctx context.Context, id int64, at time.Time) error
}

// ArticleRepository persists articles; ingestion is insert-only.
type ArticleRepository interface {
	// FindArticleByOriginalURL reports whether an article already owns the uniqueness key.
	FindArticleByOriginalURL(ctx context.Context, originalURL string) (domain.Article, bool, error)
	// CreateArticle returns ErrDuplicateKey when the uniqueness key is taken.
	CreateArticle(ctx context.Context, article domain.Article) (domain.Article, error)
}

// JobRunRepository records orchestrator invocations.
type JobRunRepository interface {
	CreateJobRun(ctx context.Context, run domain.JobRun) (domain.JobRun, error)
	FinishJobRun(ctx context.Context, run domain.JobRun) error
}

// Store is the persistence collaborator consumed by the ingestion core.
// Each call owns its transaction boundary.
type Store interface {
	SourceRepository
	ArticleRepository
	JobRunRepository
	Close() error
}

// FileResolver turns a source location into an ordered list of candidate files.
type FileResolver interface {
	Resolve(ctx context.Context, source domain.Source) ([]domain.CandidateFile, error)
}

// Notifier streams run reports to Telegram or other channels.
type Notifier interface {
	PublishReport(ctx context.Context, report string) error
}

// Metrics observes ingestion outcomes.
type Metrics interface {
	ObserveFile(outcome string)
	ObserveRun(status domain.JobStatus, elapsed time.Duration)
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
