package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/klipworks/kliping/models"
)

// ArticleLister is the read side of the article store.
type ArticleLister interface {
	ListByCandidate(ctx context.Context, candidateID int64) ([]models.Article, error)
}

// Articles returns a handler for GET /api/v1/articles?candidate_id=<id>.
func Articles(st ArticleLister) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.Query("candidate_id")
		if raw == "" {
			c.JSON(http.StatusBadRequest, models.ScrapeResponse{
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: "candidate_id query parameter is required",
				},
			})
			return
		}

		candidateID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ScrapeResponse{
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: "candidate_id must be an integer",
				},
			})
			return
		}

		articles, err := st.ListByCandidate(c.Request.Context(), candidateID)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, articles)
	}
}
