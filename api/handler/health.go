package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/klipworks/kliping/ingest"
	"github.com/klipworks/kliping/models"
)

// Health returns a handler for GET /api/v1/health.
func Health(pool *ingest.Pool, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.HealthResponse{
			Status:        "ok",
			UptimeSeconds: int64(time.Since(startTime).Seconds()),
			QueueDepth:    pool.QueueDepth(),
			Workers:       pool.Workers(),
		})
	}
}
