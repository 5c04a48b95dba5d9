package ingest

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klipworks/kliping/extractor"
	"github.com/klipworks/kliping/fetcher"
	"github.com/klipworks/kliping/models"
)

// fakeExtractor yields a canned record list for one site id.
type fakeExtractor struct {
	site    string
	records []models.RawRecord
}

func (f *fakeExtractor) Site() string { return f.site }

func (f *fakeExtractor) SearchURL(query string) string {
	return "https://search.test/q?query=" + url.QueryEscape(query)
}

func (f *fakeExtractor) WaitSelector() string { return "div.result" }

func (f *fakeExtractor) MaxRecords() int { return 0 }

func (f *fakeExtractor) Extract(_ *fetcher.RenderedPage) []models.RawRecord {
	return f.records
}

type fakeResolver struct {
	ex extractor.SiteExtractor
}

func (r *fakeResolver) Get(site string) (extractor.SiteExtractor, error) {
	if r.ex != nil && r.ex.Site() == site {
		return r.ex, nil
	}
	return nil, models.NewScrapeError(models.ErrCodeUnknownSite, "no extractor for "+site, nil)
}

type fakeFetcher struct {
	page *fetcher.RenderedPage
	err  error

	mu           sync.Mutex
	calls        int
	lastURL      string
	lastSelector string
}

func (f *fakeFetcher) Fetch(_ context.Context, targetURL, waitSelector string) (*fetcher.RenderedPage, error) {
	f.mu.Lock()
	f.calls++
	f.lastURL = targetURL
	f.lastSelector = waitSelector
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if f.page != nil {
		return f.page, nil
	}
	return &fetcher.RenderedPage{HTML: "<html></html>", FinalURL: targetURL}, nil
}

// fakeStore is an in-memory dedup-by-URL store.
type fakeStore struct {
	mu       sync.Mutex
	byURL    map[string]*models.Article
	failURLs map[string]bool
	failAll  bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		byURL:    make(map[string]*models.Article),
		failURLs: make(map[string]bool),
	}
}

func (s *fakeStore) Insert(_ context.Context, a *models.Article) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll || s.failURLs[a.URL] {
		return false, models.NewScrapeError(models.ErrCodeStorage, "insert article", errors.New("connection refused"))
	}
	if _, exists := s.byURL[a.URL]; exists {
		return false, nil
	}
	copied := *a
	copied.ID = int64(len(s.byURL) + 1)
	s.byURL[a.URL] = &copied
	return true, nil
}

func (s *fakeStore) ListByCandidate(_ context.Context, candidateID int64) ([]models.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Article{}
	for _, a := range s.byURL {
		if a.CandidateID != nil && *a.CandidateID == candidateID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func threeRecordsOneMalformed() []models.RawRecord {
	return []models.RawRecord{
		{Title: "First", URL: "https://news.test/1", Description: "one"},
		{Title: "   ", URL: "https://news.test/2"}, // malformed: blank title
		{Title: "Third", URL: "https://news.test/3"},
	}
}

func TestRun_PartialBatchResilience(t *testing.T) {
	st := newFakeStore()
	orch := NewOrchestrator(
		&fakeFetcher{},
		&fakeResolver{ex: &fakeExtractor{site: "detik", records: threeRecordsOneMalformed()}},
		st,
	)

	outcome, err := orch.Run(context.Background(), "run-1", models.ScrapeRequest{
		Query: "election", Site: "detik", Mode: models.ModeSync,
	})
	require.NoError(t, err)

	assert.Equal(t, 3, outcome.Seen)
	assert.Equal(t, 2, outcome.Stored)
	assert.Equal(t, 1, outcome.Skipped)
	assert.Equal(t, 0, outcome.Duplicate)
	assert.Len(t, st.byURL, 2)
}

func TestRun_FetchFailureAbortsRun(t *testing.T) {
	st := newFakeStore()
	orch := NewOrchestrator(
		&fakeFetcher{err: models.NewScrapeError(models.ErrCodeNavigation, "navigation to target URL failed", nil)},
		&fakeResolver{ex: &fakeExtractor{site: "detik", records: threeRecordsOneMalformed()}},
		st,
	)

	_, err := orch.Run(context.Background(), "run-1", models.ScrapeRequest{Query: "x", Site: "detik"})
	require.Error(t, err)

	var serr *models.ScrapeError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, models.ErrCodeNavigation, serr.Code)
	assert.Empty(t, st.byURL, "no records may be stored after a failed fetch")
}

func TestRun_UnknownSiteNeverFetches(t *testing.T) {
	ff := &fakeFetcher{}
	orch := NewOrchestrator(ff, &fakeResolver{}, newFakeStore())

	_, err := orch.Run(context.Background(), "run-1", models.ScrapeRequest{Query: "x", Site: "nope"})
	require.Error(t, err)

	var serr *models.ScrapeError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, models.ErrCodeUnknownSite, serr.Code)
	assert.Equal(t, 0, ff.calls)
}

func TestRun_StorageFailureContainedPerRecord(t *testing.T) {
	st := newFakeStore()
	st.failURLs["https://news.test/1"] = true
	orch := NewOrchestrator(
		&fakeFetcher{},
		&fakeResolver{ex: &fakeExtractor{site: "detik", records: []models.RawRecord{
			{Title: "First", URL: "https://news.test/1"},
			{Title: "Second", URL: "https://news.test/2"},
		}}},
		st,
	)

	outcome, err := orch.Run(context.Background(), "run-1", models.ScrapeRequest{Query: "x", Site: "detik"})
	require.NoError(t, err, "a per-record storage failure must not fail the run")

	assert.Equal(t, 1, outcome.Stored)
	assert.Equal(t, 1, outcome.Skipped)
}

func TestRun_DuplicateIsNoOpNotError(t *testing.T) {
	st := newFakeStore()
	records := []models.RawRecord{
		{Title: "First", URL: "https://news.test/1"},
		{Title: "Second", URL: "https://news.test/2"},
	}
	orch := NewOrchestrator(
		&fakeFetcher{},
		&fakeResolver{ex: &fakeExtractor{site: "detik", records: records}},
		st,
	)

	first, err := orch.Run(context.Background(), "run-1", models.ScrapeRequest{Query: "x", Site: "detik"})
	require.NoError(t, err)
	assert.Equal(t, 2, first.Stored)

	second, err := orch.Run(context.Background(), "run-2", models.ScrapeRequest{Query: "x", Site: "detik"})
	require.NoError(t, err)
	assert.Equal(t, 0, second.Stored)
	assert.Equal(t, 2, second.Duplicate)
	assert.Len(t, st.byURL, 2, "re-scraping must not accumulate duplicates")
}

func TestRun_StampsCandidateAssociation(t *testing.T) {
	st := newFakeStore()
	cid := int64(7)
	orch := NewOrchestrator(
		&fakeFetcher{},
		&fakeResolver{ex: &fakeExtractor{site: "detik", records: []models.RawRecord{
			{Title: "First", URL: "https://news.test/1"},
		}}},
		st,
	)

	_, err := orch.Run(context.Background(), "run-1", models.ScrapeRequest{
		Query: "election", CandidateID: &cid, Site: "detik",
	})
	require.NoError(t, err)

	stored := st.byURL["https://news.test/1"]
	require.NotNil(t, stored)
	require.NotNil(t, stored.CandidateID)
	assert.Equal(t, int64(7), *stored.CandidateID)
	assert.Equal(t, "election", stored.CandidateName)
	assert.False(t, stored.ScrapedAt.IsZero())
}

func TestRun_EncodesQueryIntoTargetURL(t *testing.T) {
	ff := &fakeFetcher{}
	orch := NewOrchestrator(
		ff,
		&fakeResolver{ex: &fakeExtractor{site: "detik"}},
		newFakeStore(),
	)

	_, err := orch.Run(context.Background(), "run-1", models.ScrapeRequest{
		Query: "pemilu 2029 & dpr", Site: "detik",
	})
	require.NoError(t, err)

	assert.Equal(t, "https://search.test/q?query=pemilu+2029+%26+dpr", ff.lastURL)
	assert.Equal(t, "div.result", ff.lastSelector)
}
