// Package store persists articles in Postgres with dedup-by-URL
// semantics: the unique constraint on url makes re-scraping idempotent,
// and conflicts are absorbed at the constraint level so concurrent
// inserts of the same URL stay race-free.
package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/klipworks/kliping/models"
)

// Querier is the slice of pgxpool.Pool the store needs. Narrowing it to
// an interface lets pgxmock stand in under test.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ArticleStore reads and writes the articles relation. Articles are
// insert-only: no update or delete path exists.
type ArticleStore struct {
	db Querier
}

// New creates an ArticleStore on top of an existing connection pool.
func New(db Querier) *ArticleStore {
	return &ArticleStore{db: db}
}

const insertSQL = `
INSERT INTO articles (title, url, description, candidate_id, candidate_name, scraped_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (url) DO NOTHING`

// Insert stores one article. It reports false without error when the
// URL already exists: a duplicate is a successful no-op, not a
// conflict. Only connection/transport failures return an error.
func (s *ArticleStore) Insert(ctx context.Context, a *models.Article) (bool, error) {
	scrapedAt := a.ScrapedAt
	if scrapedAt.IsZero() {
		scrapedAt = time.Now().UTC()
	}

	tag, err := s.db.Exec(ctx, insertSQL,
		a.Title,
		a.URL,
		nullIfEmpty(a.Description),
		a.CandidateID,
		nullIfEmpty(a.CandidateName),
		scrapedAt,
	)
	if err != nil {
		return false, models.NewScrapeError(
			models.ErrCodeStorage,
			"insert article",
			err,
		)
	}

	return tag.RowsAffected() == 1, nil
}

const listByCandidateSQL = `
SELECT id, title, url, description, candidate_id, candidate_name, scraped_at
FROM articles
WHERE candidate_id = $1
ORDER BY id`

// ListByCandidate returns every article associated with a candidate, in
// insertion order. No matching rows is an empty slice, not an error.
func (s *ArticleStore) ListByCandidate(ctx context.Context, candidateID int64) ([]models.Article, error) {
	rows, err := s.db.Query(ctx, listByCandidateSQL, candidateID)
	if err != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeStorage,
			"list articles by candidate",
			err,
		)
	}
	defer rows.Close()

	articles := []models.Article{}
	for rows.Next() {
		var (
			a             models.Article
			description   *string
			candidateName *string
		)
		if err := rows.Scan(&a.ID, &a.Title, &a.URL, &description,
			&a.CandidateID, &candidateName, &a.ScrapedAt); err != nil {
			return nil, models.NewScrapeError(
				models.ErrCodeStorage,
				"scan article row",
				err,
			)
		}
		if description != nil {
			a.Description = *description
		}
		if candidateName != nil {
			a.CandidateName = *candidateName
		}
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeStorage,
			"iterate article rows",
			err,
		)
	}

	return articles, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
