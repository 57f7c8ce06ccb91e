package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"NewsPipeline/internal/domain"
	"NewsPipeline/internal/ports"
)

var (
	sourceColumns  = []string{"id", "name", "kind", "location", "config", "is_active", "last_run_at", "created_at"}
	articleColumns = []string{"id", "source_id", "title", "content_text", "original_url", "source_format", "attributes", "extracted_at"}
	jobRunColumns  = []string{"id", "job_name", "status", "started_at", "finished_at", "processed_count", "error_count", "details"}
)

// SQLRepository persists sources, articles and job runs in Postgres or SQLite.
// Every method runs as a single statement, so each write commits on its own.
type SQLRepository struct {
	db      *sql.DB
	dialect Dialect
	builder sq.StatementBuilderType
}

var _ ports.Store = (*SQLRepository)(nil)

// NewSQLRepository wires a sql.DB implementation.
func NewSQLRepository(db *sql.DB, dialect Dialect) *SQLRepository {
	return &SQLRepository{
		db:      db,
		dialect: dialect,
		builder: sq.StatementBuilder.PlaceholderFormat(dialect.placeholder()),
	}
}

// Close releases the connection pool.
func (r *SQLRepository) Close() error {
	return r.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

// GetSource loads one source by id.
func (r *SQLRepository) GetSource(ctx context.Context, id int64) (domain.Source, error) {
	query, args, err := r.builder.Select(sourceColumns...).From("sources").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return domain.Source{}, fmt.Errorf("build source query: %w", err)
	}

	source, err := scanSource(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Source{}, fmt.Errorf("source %d: %w", id, ports.ErrNotFound)
	}
	if err != nil {
		return domain.Source{}, fmt.Errorf("query source %d: %w", id, err)
	}
	return source, nil
}

// ListSources returns sources ordered by id.
func (r *SQLRepository) ListSources(ctx context.Context, activeOnly bool) ([]domain.Source, error) {
	builder := r.builder.Select(sourceColumns...).From("sources").OrderBy("id")
	if activeOnly {
		builder = builder.Where(sq.Eq{"is_active": true})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sources query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sources: %w", err)
	}
	defer rows.Close()

	var sources []domain.Source
	for rows.Next() {
		source, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		sources = append(sources, source)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return sources, nil
}

// CreateSource inserts a source and returns it with its generated id.
func (r *SQLRepository) CreateSource(ctx context.Context, source domain.Source) (domain.Source, error) {
	if err := source.Validate(); err != nil {
		return domain.Source{}, err
	}

	config, err := encodeJSON(source.Config)
	if err != nil {
		return domain.Source{}, fmt.Errorf("encode source config: %w", err)
	}
	if source.CreatedAt.IsZero() {
		source.CreatedAt = time.Now().UTC()
	}

	query, args, err := r.builder.Insert("sources").
		Columns("name", "kind", "location", "config", "is_active", "created_at", "updated_at").
		Values(source.Name, string(source.Kind), source.Location, config, source.IsActive, source.CreatedAt, source.CreatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return domain.Source{}, fmt.Errorf("build source insert: %w", err)
	}

	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&source.ID); err != nil {
		return domain.Source{}, fmt.Errorf("insert source: %w", err)
	}
	return source, nil
}

// MarkSourceRun stamps last_run_at on the source.
func (r *SQLRepository) MarkSourceRun(ctx context.Context, id int64, at time.Time) error {
	query, args, err := r.builder.Update("sources").
		Set("last_run_at", at).
		Set("updated_at", at).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build source update: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update source %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("source %d: %w", id, ports.ErrNotFound)
	}
	return nil
}

// FindArticleByOriginalURL looks up the article owning the uniqueness key.
func (r *SQLRepository) FindArticleByOriginalURL(ctx context.Context, originalURL string) (domain.Article, bool, error) {
	query, args, err := r.builder.Select(articleColumns...).From("articles").Where(sq.Eq{"original_url": originalURL}).ToSql()
	if err != nil {
		return domain.Article{}, false, fmt.Errorf("build article query: %w", err)
	}

	article, err := scanArticle(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Article{}, false, nil
	}
	if err != nil {
		return domain.Article{}, false, fmt.Errorf("query article: %w", err)
	}
	return article, true, nil
}

// CreateArticle inserts an article; a taken original_url yields ErrDuplicateKey.
func (r *SQLRepository) CreateArticle(ctx context.Context, article domain.Article) (domain.Article, error) {
	attributes, err := encodeJSON(article.Attributes)
	if err != nil {
		return domain.Article{}, fmt.Errorf("encode attributes: %w", err)
	}
	if article.ExtractedAt.IsZero() {
		article.ExtractedAt = time.Now().UTC()
	}

	query, args, err := r.builder.Insert("articles").
		Columns("source_id", "title", "content_text", "original_url", "source_format", "attributes", "extracted_at").
		Values(article.SourceID, article.Title, article.ContentText, article.OriginalURL, article.SourceFormat, attributes, article.ExtractedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return domain.Article{}, fmt.Errorf("build article insert: %w", err)
	}

	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&article.ID); err != nil {
		if isDuplicate(err) {
			return domain.Article{}, fmt.Errorf("article %s: %w", article.OriginalURL, ports.ErrDuplicateKey)
		}
		return domain.Article{}, fmt.Errorf("insert article: %w", err)
	}
	return article, nil
}

// CreateJobRun inserts a job run and returns it with its generated id.
func (r *SQLRepository) CreateJobRun(ctx context.Context, run domain.JobRun) (domain.JobRun, error) {
	details, err := encodeJSON(run.Details)
	if err != nil {
		return domain.JobRun{}, fmt.Errorf("encode job details: %w", err)
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}

	query, args, err := r.builder.Insert("job_runs").
		Columns("job_name", "status", "started_at", "processed_count", "error_count", "details").
		Values(run.JobName, string(run.Status), run.StartedAt, run.ProcessedCount, run.ErrorCount, details).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return domain.JobRun{}, fmt.Errorf("build job run insert: %w", err)
	}

	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&run.ID); err != nil {
		return domain.JobRun{}, fmt.Errorf("insert job run: %w", err)
	}
	return run, nil
}

// FinishJobRun moves a running job to its terminal state. It succeeds only once per run.
func (r *SQLRepository) FinishJobRun(ctx context.Context, run domain.JobRun) error {
	if !run.Status.Terminal() {
		return fmt.Errorf("job run %d: status %q is not terminal", run.ID, run.Status)
	}

	details, err := encodeJSON(run.Details)
	if err != nil {
		return fmt.Errorf("encode job details: %w", err)
	}
	finishedAt := time.Now().UTC()
	if run.FinishedAt != nil {
		finishedAt = *run.FinishedAt
	}

	query, args, err := r.builder.Update("job_runs").
		Set("status", string(run.Status)).
		Set("finished_at", finishedAt).
		Set("processed_count", run.ProcessedCount).
		Set("error_count", run.ErrorCount).
		Set("details", details).
		Where(sq.Eq{"id": run.ID, "status": string(domain.JobStatusRunning)}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build job run update: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update job run %d: %w", run.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("running job run %d: %w", run.ID, ports.ErrNotFound)
	}
	return nil
}

// GetJobRun loads one job run by id.
func (r *SQLRepository) GetJobRun(ctx context.Context, id int64) (domain.JobRun, error) {
	query, args, err := r.builder.Select(jobRunColumns...).From("job_runs").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return domain.JobRun{}, fmt.Errorf("build job run query: %w", err)
	}

	run, err := scanJobRun(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.JobRun{}, fmt.Errorf("job run %d: %w", id, ports.ErrNotFound)
	}
	if err != nil {
		return domain.JobRun{}, fmt.Errorf("query job run %d: %w", id, err)
	}
	return run, nil
}

func scanSource(row rowScanner) (domain.Source, error) {
	var (
		source  domain.Source
		kind    string
		config  []byte
		lastRun sql.NullTime
	)
	if err := row.Scan(&source.ID, &source.Name, &kind, &source.Location, &config, &source.IsActive, &lastRun, &source.CreatedAt); err != nil {
		return domain.Source{}, err
	}

	source.Kind = domain.SourceKind(kind)
	if lastRun.Valid {
		at := lastRun.Time
		source.LastRunAt = &at
	}
	if err := decodeJSON(config, &source.Config); err != nil {
		return domain.Source{}, fmt.Errorf("decode source config: %w", err)
	}
	return source, nil
}

func scanArticle(row rowScanner) (domain.Article, error) {
	var (
		article    domain.Article
		sourceID   sql.NullInt64
		attributes []byte
	)
	if err := row.Scan(&article.ID, &sourceID, &article.Title, &article.ContentText, &article.OriginalURL,
		&article.SourceFormat, &attributes, &article.ExtractedAt); err != nil {
		return domain.Article{}, err
	}

	if sourceID.Valid {
		id := sourceID.Int64
		article.SourceID = &id
	}
	if err := decodeJSON(attributes, &article.Attributes); err != nil {
		return domain.Article{}, fmt.Errorf("decode attributes: %w", err)
	}
	return article, nil
}

func scanJobRun(row rowScanner) (domain.JobRun, error) {
	var (
		run        domain.JobRun
		status     string
		finishedAt sql.NullTime
		details    []byte
	)
	if err := row.Scan(&run.ID, &run.JobName, &status, &run.StartedAt, &finishedAt,
		&run.ProcessedCount, &run.ErrorCount, &details); err != nil {
		return domain.JobRun{}, err
	}

	run.Status = domain.JobStatus(status)
	if finishedAt.Valid {
		at := finishedAt.Time
		run.FinishedAt = &at
	}
	if err := decodeJSON(details, &run.Details); err != nil {
		return domain.JobRun{}, fmt.Errorf("decode job details: %w", err)
	}
	return run, nil
}

// encodeJSON returns a string so lib/pq sends it as text rather than bytea.
func encodeJSON(value map[string]any) (string, error) {
	if value == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func decodeJSON(raw []byte, dest *map[string]any) error {
	*dest = map[string]any{}
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dest)
}
