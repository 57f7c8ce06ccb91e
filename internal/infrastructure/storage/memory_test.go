package storage

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsPipeline/internal/domain"
	"NewsPipeline/internal/ports"
)

func TestMemoryRepositorySources(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	_, err := repo.GetSource(ctx, 9999)
	assert.ErrorIs(t, err, ports.ErrNotFound)

	a, err := repo.CreateSource(ctx, domain.Source{Name: "a", Kind: domain.SourceKindLocal, Location: "/a", IsActive: true})
	require.NoError(t, err)
	_, err = repo.CreateSource(ctx, domain.Source{Name: "b", Kind: domain.SourceKindRSS, Location: "https://x/feed"})
	require.NoError(t, err)

	active, err := repo.ListSources(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, a.ID, active[0].ID)

	assert.ErrorIs(t, repo.MarkSourceRun(ctx, 77, a.CreatedAt), ports.ErrNotFound)
}

func TestMemoryRepositoryConcurrentInsertSameKey(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	var (
		wg         sync.WaitGroup
		created    atomic.Int32
		duplicates atomic.Int32
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.CreateArticle(ctx, domain.Article{OriginalURL: "/same", Title: fmt.Sprint(i)})
			switch {
			case err == nil:
				created.Add(1)
			case assert.ErrorIs(t, err, ports.ErrDuplicateKey):
				duplicates.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), created.Load())
	assert.Equal(t, int32(15), duplicates.Load())
	assert.Len(t, repo.Articles(), 1)
}

func TestMemoryRepositoryJobRunLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	run, err := repo.CreateJobRun(ctx, domain.JobRun{JobName: "ingest_source_1", Status: domain.JobStatusRunning})
	require.NoError(t, err)

	run.Status = domain.JobStatusRunning
	assert.Error(t, repo.FinishJobRun(ctx, run))

	run.Status = domain.JobStatusFailed
	run.ErrorCount = 1
	require.NoError(t, repo.FinishJobRun(ctx, run))
	assert.ErrorIs(t, repo.FinishJobRun(ctx, run), ports.ErrNotFound)

	stored, err := repo.GetJobRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusFailed, stored.Status)
	assert.NotNil(t, stored.FinishedAt)
	assert.Len(t, repo.JobRuns(), 1)
}

func TestMemoryRepositoryClosed(t *testing.T) {
	repo := NewMemoryRepository()
	require.NoError(t, repo.Close())

	_, err := repo.CreateArticle(context.Background(), domain.Article{OriginalURL: "/x"})
	assert.Error(t, err)

	_, err = repo.GetJobRun(context.Background(), 1)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ports.ErrNotFound)
}
