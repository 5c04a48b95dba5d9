package ingest

import (
	"errors"
	"strings"
	"time"

	"github.com/klipworks/kliping/models"
)

// ErrIncompleteRecord marks a raw record missing a title or URL after
// trimming. Such records are dropped with a warning, never stored
// partially.
var ErrIncompleteRecord = errors.New("record missing title or url")

// RunContext carries the per-run association metadata stamped onto
// every normalized article.
type RunContext struct {
	CandidateID   *int64
	CandidateName string

	// Now is the capture timestamp. Zero means time.Now at the call.
	Now time.Time
}

// Normalize trims and validates a raw record and attaches candidate
// association plus the capture timestamp. It is a pure function: no
// I/O, deterministic given its inputs.
func Normalize(raw models.RawRecord, rctx RunContext) (*models.Article, error) {
	title := strings.TrimSpace(raw.Title)
	link := strings.TrimSpace(raw.URL)
	if title == "" || link == "" {
		return nil, ErrIncompleteRecord
	}

	capturedAt := rctx.Now
	if capturedAt.IsZero() {
		capturedAt = time.Now().UTC()
	}

	return &models.Article{
		Title:         title,
		URL:           link,
		Description:   strings.TrimSpace(raw.Description),
		CandidateID:   rctx.CandidateID,
		CandidateName: rctx.CandidateName,
		ScrapedAt:     capturedAt,
	}, nil
}
