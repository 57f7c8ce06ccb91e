package storage

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsPipeline/internal/domain"
	"NewsPipeline/internal/ports"
)

func newMockRepository(t *testing.T) (*SQLRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewSQLRepository(db, DialectPostgres), mock
}

func TestSQLRepositoryGetSource(t *testing.T) {
	repo, mock := newMockRepository(t)
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	rows := sqlmock.NewRows(sourceColumns).
		AddRow(int64(3), "Docs", "local", "/data/docs", []byte(`{"depth":2}`), true, nil, created)
	mock.ExpectQuery(`SELECT (.+) FROM sources WHERE id = \$1`).
		WithArgs(int64(3)).
		WillReturnRows(rows)

	source, err := repo.GetSource(context.Background(), 3)
	require.NoError(t, err)

	assert.Equal(t, int64(3), source.ID)
	assert.Equal(t, domain.SourceKindLocal, source.Kind)
	assert.Equal(t, "/data/docs", source.Location)
	assert.Equal(t, float64(2), source.Config["depth"])
	assert.Nil(t, source.LastRunAt)
	assert.Equal(t, created, source.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLRepositoryGetSourceNotFound(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`SELECT (.+) FROM sources WHERE id = \$1`).
		WithArgs(int64(9999)).
		WillReturnRows(sqlmock.NewRows(sourceColumns))

	_, err := repo.GetSource(context.Background(), 9999)
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLRepositoryListActiveSources(t *testing.T) {
	repo, mock := newMockRepository(t)
	created := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	lastRun := created.Add(time.Hour)

	rows := sqlmock.NewRows(sourceColumns).
		AddRow(int64(1), "A", "local", "/a", []byte(`{}`), true, lastRun, created).
		AddRow(int64(2), "B", "local", "/b", nil, true, nil, created)
	mock.ExpectQuery(`SELECT (.+) FROM sources WHERE is_active = \$1 ORDER BY id`).
		WithArgs(true).
		WillReturnRows(rows)

	sources, err := repo.ListSources(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, sources, 2)
	require.NotNil(t, sources[0].LastRunAt)
	assert.Equal(t, lastRun, *sources[0].LastRunAt)
	assert.Empty(t, sources[1].Config)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLRepositoryCreateSourceRejectsInvalid(t *testing.T) {
	repo, mock := newMockRepository(t)

	_, err := repo.CreateSource(context.Background(), domain.Source{Name: "", Kind: domain.SourceKindLocal, Location: "/x"})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLRepositoryCreateArticle(t *testing.T) {
	repo, mock := newMockRepository(t)
	sourceID := int64(3)

	mock.ExpectQuery(`INSERT INTO articles \(source_id,title,content_text,original_url,source_format,attributes,extracted_at\) VALUES \(\$1,\$2,\$3,\$4,\$5,\$6,\$7\) RETURNING id`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))

	article, err := repo.CreateArticle(context.Background(), domain.Article{
		SourceID:     &sourceID,
		Title:        "Report",
		ContentText:  "body",
		OriginalURL:  "/data/report.txt",
		SourceFormat: "txt",
		Attributes:   map[string]any{"detected_encoding": "utf-8"},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(11), article.ID)
	assert.False(t, article.ExtractedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLRepositoryCreateArticleDuplicate(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`INSERT INTO articles`).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})

	_, err := repo.CreateArticle(context.Background(), domain.Article{OriginalURL: "/data/a.txt"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrDuplicateKey)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLRepositoryCreateArticleOtherError(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`INSERT INTO articles`).WillReturnError(errors.New("connection reset"))

	_, err := repo.CreateArticle(context.Background(), domain.Article{OriginalURL: "/data/a.txt"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ports.ErrDuplicateKey)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestSQLRepositoryFindArticleMissing(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`SELECT (.+) FROM articles WHERE original_url = \$1`).
		WithArgs("/data/a.txt").
		WillReturnRows(sqlmock.NewRows(articleColumns))

	_, found, err := repo.FindArticleByOriginalURL(context.Background(), "/data/a.txt")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSQLRepositoryFinishJobRun(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec(`UPDATE job_runs SET status = \$1, finished_at = \$2, processed_count = \$3, error_count = \$4, details = \$5 WHERE id = \$6 AND status = \$7`).
		WithArgs("partial", sqlmock.AnyArg(), 3, 1, sqlmock.AnyArg(), int64(5), "running").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.FinishJobRun(context.Background(), domain.JobRun{
		ID:             5,
		Status:         domain.JobStatusPartial,
		ProcessedCount: 3,
		ErrorCount:     1,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLRepositoryFinishJobRunTwice(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec(`UPDATE job_runs`).WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.FinishJobRun(context.Background(), domain.JobRun{ID: 5, Status: domain.JobStatusSuccess})
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestSQLRepositoryFinishJobRunRequiresTerminalStatus(t *testing.T) {
	repo, mock := newMockRepository(t)

	err := repo.FinishJobRun(context.Background(), domain.JobRun{ID: 5, Status: domain.JobStatusRunning})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not terminal")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLRepositoryMarkSourceRunMissing(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec(`UPDATE sources SET last_run_at = \$1, updated_at = \$2 WHERE id = \$3`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkSourceRun(context.Background(), 42, time.Now())
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestDecodeJSONEmpty(t *testing.T) {
	var dest map[string]any
	require.NoError(t, decodeJSON(nil, &dest))
	assert.NotNil(t, dest)

	err := decodeJSON([]byte("{broken"), &dest)
	require.Error(t, err)
	assert.False(t, errors.Is(err, sql.ErrNoRows))
}
