package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/klipworks/kliping/ingest"
	"github.com/klipworks/kliping/models"
)

// Scrape returns a handler for POST /api/v1/scrape.
//
// Both execution modes go through the worker pool, so the concurrency
// cap applies uniformly:
//
//	sync  — submit, await the job, report the run outcome in the body.
//	async — submit, acknowledge with 202 and the run id; the outcome is
//	        observable only via logs and storage, never via this
//	        response. That loss of per-run reporting is the contract of
//	        the detached mode, not an accident.
func Scrape(pool *ingest.Pool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ScrapeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ScrapeResponse{
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}
		req.Defaults()

		job, err := pool.Submit(req)
		if err != nil {
			respondError(c, err)
			return
		}

		if req.Mode == models.ModeAsync {
			c.JSON(http.StatusAccepted, models.ScrapeResponse{
				Message: "scrape accepted",
				RunID:   job.ID,
			})
			return
		}

		<-job.Done()

		if job.Err != nil {
			respondError(c, job.Err)
			return
		}

		c.JSON(http.StatusOK, models.ScrapeResponse{
			Message:   "scrape completed",
			RunID:     job.ID,
			Seen:      job.Outcome.Seen,
			Stored:    job.Outcome.Stored,
			Duplicate: job.Outcome.Duplicate,
			Skipped:   job.Outcome.Skipped,
		})
	}
}

// respondError maps a ScrapeError to the correct HTTP status code and writes
// a structured JSON error response.
func respondError(c *gin.Context, err error) {
	scrapeErr, ok := err.(*models.ScrapeError)
	if !ok {
		scrapeErr = models.NewScrapeError(models.ErrCodeInternal, err.Error(), err)
	}

	c.JSON(mapErrorToStatus(scrapeErr), models.ScrapeResponse{
		Error: scrapeErr.ToDetail(),
	})
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.ScrapeError) int {
	switch e.Code {
	case models.ErrCodeInvalidInput, models.ErrCodeUnknownSite:
		return http.StatusBadRequest // 400
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	case models.ErrCodeForbidden:
		return http.StatusForbidden // 403
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeNavigation, models.ErrCodeBrowserCrash:
		return http.StatusBadGateway // 502
	case models.ErrCodeQueueFull:
		return http.StatusServiceUnavailable // 503
	case models.ErrCodeTimeout:
		return http.StatusGatewayTimeout // 504
	default:
		return http.StatusInternalServerError // 500
	}
}
