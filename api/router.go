package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/klipworks/kliping/api/handler"
	"github.com/klipworks/kliping/api/middleware"
	"github.com/klipworks/kliping/config"
	"github.com/klipworks/kliping/ingest"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth → RateLimit
//
// Health endpoint is intentionally outside auth so monitoring probes always work.
func NewRouter(pool *ingest.Pool, st handler.ArticleLister, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")

	// Health — no auth required.
	v1.GET("/health", handler.Health(pool, startTime))

	// Protected group — auth + rate limit.
	protected := v1.Group("")
	protected.Use(middleware.Auth(cfg.Auth.Token))
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	protected.POST("/scrape", handler.Scrape(pool))
	protected.GET("/articles", handler.Articles(st))

	return r
}
