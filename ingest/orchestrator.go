package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/klipworks/kliping/extractor"
	"github.com/klipworks/kliping/fetcher"
	"github.com/klipworks/kliping/models"
)

// PageFetcher acquires a rendered DOM for a target URL.
type PageFetcher interface {
	Fetch(ctx context.Context, targetURL, waitSelector string) (*fetcher.RenderedPage, error)
}

// ArticleStore persists normalized articles with dedup-by-URL semantics.
type ArticleStore interface {
	Insert(ctx context.Context, a *models.Article) (bool, error)
}

// ExtractorResolver maps a site identifier to its extractor.
// *extractor.Registry is the production implementation.
type ExtractorResolver interface {
	Get(site string) (extractor.SiteExtractor, error)
}

// Outcome summarizes one completed scrape run.
type Outcome struct {
	RunID string `json:"run_id"`
	Site  string `json:"site"`
	Query string `json:"query"`

	// Seen is the number of raw records the extractor yielded.
	Seen int `json:"seen"`
	// Stored is the number of new articles committed.
	Stored int `json:"stored"`
	// Duplicate is the number of URL-conflict no-ops.
	Duplicate int `json:"duplicate"`
	// Skipped counts records dropped by normalization or lost to a
	// storage failure.
	Skipped int `json:"skipped"`
}

// Orchestrator composes fetch, extract, normalize, and store into one
// scrape run per request.
type Orchestrator struct {
	fetcher  PageFetcher
	registry ExtractorResolver
	store    ArticleStore
}

// NewOrchestrator wires the pipeline. All collaborators are passed in
// explicitly; the orchestrator holds no ambient state.
func NewOrchestrator(pf PageFetcher, reg ExtractorResolver, st ArticleStore) *Orchestrator {
	return &Orchestrator{
		fetcher:  pf,
		registry: reg,
		store:    st,
	}
}

// Run executes one scrape run: fetch the search page, extract raw
// records, then normalize and store each record independently.
//
// A fetch or unknown-site failure ends the run with an error and no
// records stored; there are no retries. Inside the per-record loop a
// failure only ever costs that record: a normalization reject or a
// storage error is counted as skipped and siblings proceed.
func (o *Orchestrator) Run(ctx context.Context, runID string, req models.ScrapeRequest) (*Outcome, error) {
	log := slog.With("run_id", runID, "site", req.Site, "query", req.Query)
	log.Info("scrape run starting")

	ex, err := o.registry.Get(req.Site)
	if err != nil {
		log.Error("scrape run failed: unknown site", "error", err)
		return nil, err
	}

	page, err := o.fetcher.Fetch(ctx, ex.SearchURL(req.Query), ex.WaitSelector())
	if err != nil {
		log.Error("scrape run failed: fetch", "error", err)
		return nil, err
	}

	raw := ex.Extract(page)

	outcome := &Outcome{
		RunID: runID,
		Site:  req.Site,
		Query: req.Query,
		Seen:  len(raw),
	}

	rctx := RunContext{
		CandidateID:   req.CandidateID,
		CandidateName: req.Query,
		Now:           time.Now().UTC(),
	}

	for _, record := range raw {
		article, err := Normalize(record, rctx)
		if err != nil {
			log.Warn("record rejected by normalization",
				"url", record.URL, "error", err)
			outcome.Skipped++
			continue
		}

		inserted, err := o.store.Insert(ctx, article)
		if err != nil {
			log.Error("record lost to storage failure",
				"url", article.URL, "error", err)
			outcome.Skipped++
			continue
		}
		if inserted {
			outcome.Stored++
		} else {
			outcome.Duplicate++
		}
	}

	log.Info("scrape run done",
		"seen", outcome.Seen,
		"stored", outcome.Stored,
		"duplicate", outcome.Duplicate,
		"skipped", outcome.Skipped,
	)

	return outcome, nil
}
