package store

import (
	"context"

	"github.com/klipworks/kliping/models"
)

const createArticlesSQL = `
CREATE TABLE IF NOT EXISTS articles (
	id             BIGSERIAL PRIMARY KEY,
	title          TEXT NOT NULL,
	url            TEXT UNIQUE NOT NULL,
	description    TEXT,
	candidate_id   BIGINT,
	candidate_name TEXT,
	scraped_at     TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Migrate provisions the articles relation and its URL uniqueness
// constraint. It must run once before the first Insert; re-running is
// harmless.
func (s *ArticleStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, createArticlesSQL); err != nil {
		return models.NewScrapeError(
			models.ErrCodeStorage,
			"create articles table",
			err,
		)
	}
	return nil
}
