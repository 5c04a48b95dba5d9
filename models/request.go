package models

// Scrape run modes.
const (
	ModeSync  = "sync"
	ModeAsync = "async"
)

// ScrapeRequest is the payload for POST /api/v1/scrape. It lives only
// for the duration of one orchestration run; nothing here is persisted.
type ScrapeRequest struct {
	// Query is the search term scraped against the target site. Required.
	Query string `json:"query" binding:"required"`

	// CandidateID associates stored articles with a candidate. Optional.
	CandidateID *int64 `json:"candidate_id,omitempty"`

	// Site selects the target site extractor.
	// Allowed: "detik" (default), "kompas", "tribunnews".
	Site string `json:"site,omitempty" binding:"omitempty,oneof=detik kompas tribunnews"`

	// Mode selects the execution mode.
	// "sync" (default): the response carries the run outcome.
	// "async": the run is acknowledged with 202 and detaches; the
	// outcome is observable only via logs and storage.
	Mode string `json:"mode,omitempty" binding:"omitempty,oneof=sync async"`
}

// Defaults applies default values to unset fields.
func (r *ScrapeRequest) Defaults() {
	if r.Site == "" {
		r.Site = "detik"
	}
	if r.Mode == "" {
		r.Mode = ModeSync
	}
}
