package models

import "time"

// Article is the sole persisted entity: one search result committed to
// storage. URL is the natural key; a second insert with the same URL is
// a silent no-op. Articles are immutable once stored.
type Article struct {
	// ID is assigned by storage on insert.
	ID int64 `json:"id"`

	// Title is the article headline. Required.
	Title string `json:"title"`

	// URL is the article link. Required and globally unique.
	URL string `json:"url"`

	// Description is the result snippet, when the page had one.
	Description string `json:"description,omitempty"`

	// CandidateID associates the article with the requesting candidate.
	CandidateID *int64 `json:"candidate_id,omitempty"`

	// CandidateName is a denormalized copy of the query that produced
	// the article.
	CandidateName string `json:"candidate_name,omitempty"`

	// ScrapedAt is the capture timestamp.
	ScrapedAt time.Time `json:"scraped_at"`
}

// RawRecord is one untrimmed, unvalidated result element as the
// extractor found it. Description may be empty when the result had no
// snippet.
type RawRecord struct {
	Title       string
	URL         string
	Description string
}
