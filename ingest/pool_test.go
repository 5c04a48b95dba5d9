package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klipworks/kliping/config"
	"github.com/klipworks/kliping/fetcher"
	"github.com/klipworks/kliping/models"
)

// blockingFetcher holds every Fetch until released, so tests can pin a
// worker mid-run.
type blockingFetcher struct {
	started chan struct{}
	release chan struct{}
}

func (f *blockingFetcher) Fetch(_ context.Context, targetURL, _ string) (*fetcher.RenderedPage, error) {
	f.started <- struct{}{}
	<-f.release
	return &fetcher.RenderedPage{HTML: "<html></html>", FinalURL: targetURL}, nil
}

func newTestOrchestrator() *Orchestrator {
	return NewOrchestrator(
		&fakeFetcher{},
		&fakeResolver{ex: &fakeExtractor{site: "detik", records: []models.RawRecord{
			{Title: "First", URL: "https://news.test/1"},
		}}},
		newFakeStore(),
	)
}

func TestPool_SyncAwait(t *testing.T) {
	pool := NewPool(newTestOrchestrator(), config.WorkerConfig{PoolSize: 2, QueueSize: 4})
	defer pool.Close()

	job, err := pool.Submit(models.ScrapeRequest{Query: "x", Site: "detik"})
	require.NoError(t, err)

	select {
	case <-job.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("job did not complete")
	}

	require.NoError(t, job.Err)
	require.NotNil(t, job.Outcome)
	assert.Equal(t, job.ID, job.Outcome.RunID)
	assert.Equal(t, 1, job.Outcome.Stored)
}

func TestPool_DetachedRunCarriesError(t *testing.T) {
	orch := NewOrchestrator(
		&fakeFetcher{err: models.NewScrapeError(models.ErrCodeNavigation, "boom", nil)},
		&fakeResolver{ex: &fakeExtractor{site: "detik"}},
		newFakeStore(),
	)
	pool := NewPool(orch, config.WorkerConfig{PoolSize: 1, QueueSize: 1})
	defer pool.Close()

	// Submit fire-and-forget, then come back for the job state: the
	// error must be recorded on the job even though nobody awaited it.
	job, err := pool.Submit(models.ScrapeRequest{Query: "x", Site: "detik", Mode: models.ModeAsync})
	require.NoError(t, err)

	select {
	case <-job.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("job did not complete")
	}

	require.Error(t, job.Err)
	var serr *models.ScrapeError
	require.ErrorAs(t, job.Err, &serr)
	assert.Equal(t, models.ErrCodeNavigation, serr.Code)
}

func TestPool_QueueFullFailsFast(t *testing.T) {
	bf := &blockingFetcher{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	orch := NewOrchestrator(
		bf,
		&fakeResolver{ex: &fakeExtractor{site: "detik"}},
		newFakeStore(),
	)
	pool := NewPool(orch, config.WorkerConfig{PoolSize: 1, QueueSize: 0})

	first, err := pool.Submit(models.ScrapeRequest{Query: "x", Site: "detik"})
	require.NoError(t, err)

	// Wait until the single worker is pinned inside the first run.
	select {
	case <-bf.started:
	case <-time.After(5 * time.Second):
		t.Fatal("first job never started")
	}

	_, err = pool.Submit(models.ScrapeRequest{Query: "y", Site: "detik"})
	require.Error(t, err)
	var serr *models.ScrapeError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, models.ErrCodeQueueFull, serr.Code)

	close(bf.release)
	<-first.Done()
	pool.Close()
}

func TestPool_CloseDrainsInFlight(t *testing.T) {
	pool := NewPool(newTestOrchestrator(), config.WorkerConfig{PoolSize: 2, QueueSize: 8})

	jobs := make([]*Job, 0, 5)
	for i := 0; i < 5; i++ {
		job, err := pool.Submit(models.ScrapeRequest{Query: "x", Site: "detik"})
		require.NoError(t, err)
		jobs = append(jobs, job)
	}

	pool.Close()

	for _, job := range jobs {
		select {
		case <-job.Done():
			assert.NoError(t, job.Err)
		default:
			t.Fatal("Close returned with an unfinished job")
		}
	}
}
