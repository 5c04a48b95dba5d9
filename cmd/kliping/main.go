package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/klipworks/kliping/api"
	"github.com/klipworks/kliping/config"
	"github.com/klipworks/kliping/extractor"
	"github.com/klipworks/kliping/fetcher"
	"github.com/klipworks/kliping/ingest"
	"github.com/klipworks/kliping/store"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("kliping starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"workers", cfg.Worker.PoolSize,
	)

	// ── 3. Connect storage and provision schema ─────────────────────
	if cfg.Store.DatabaseURL == "" {
		slog.Error("KLIPING_DATABASE_URL is required")
		os.Exit(1)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.Store.DatabaseURL)
	if err != nil {
		slog.Error("invalid database URL", "error", err)
		os.Exit(1)
	}
	poolCfg.MaxConns = int32(cfg.Store.MaxConns)

	dbCtx, dbCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer dbCancel()

	db, err := pgxpool.NewWithConfig(dbCtx, poolCfg)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	st := store.New(db)
	if err := st.Migrate(dbCtx); err != nil {
		slog.Error("failed to provision schema", "error", err)
		os.Exit(1)
	}
	slog.Info("storage ready")

	// ── 4. Initialise fetcher (launches browser) ────────────────────
	pf, err := fetcher.New(cfg.Browser, cfg.Fetcher)
	if err != nil {
		slog.Error("failed to initialise fetcher", "error", err)
		os.Exit(1)
	}
	defer pf.Close()

	// ── 5. Build extractor registry and orchestrator ────────────────
	reg, err := extractor.NewRegistry()
	if err != nil {
		slog.Error("failed to build extractor registry", "error", err)
		os.Exit(1)
	}
	slog.Info("extractors registered", "sites", reg.Sites())

	orch := ingest.NewOrchestrator(pf, reg, st)

	// ── 6. Start worker pool ────────────────────────────────────────
	workers := ingest.NewPool(orch, cfg.Worker)
	defer workers.Close()

	// ── 7. Setup router and HTTP server ─────────────────────────────
	startTime := time.Now()
	router := api.NewRouter(workers, st, cfg, startTime)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 8. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	// Give in-flight requests 5 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	// Deferred teardown runs in reverse order: drain the worker pool,
	// kill the browser, close the database pool.
	slog.Info("kliping stopped")
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
