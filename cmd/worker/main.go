package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sportsdata/ingestion/internal/app"
	"sportsdata/ingestion/internal/config"
	"sportsdata/ingestion/internal/ingest"
	"sportsdata/ingestion/internal/metrics"
	"sportsdata/ingestion/internal/scheduler"
	"sportsdata/ingestion/internal/server"

	"github.com/rs/zerolog/log"
)

func main() {
	// Load configuration
	cfg := config.MustLoad()
	app.SetupLogger(cfg.AppEnv, cfg.LogLevel)

	log.Info().Msg("Starting SportMonks ingestion worker")
	log.Info().
		Str("env", cfg.AppEnv).
		Str("log_level", cfg.LogLevel).
		Str("rate_limiter", cfg.RateLimiterBackend).
		Msg("Configuration loaded")

	// Create context that listens for cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info().Msg("Received shutdown signal, gracefully shutting down...")
		cancel()
	}()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize worker")
	}
	defer a.Close()

	// Health and metrics HTTP server
	var srv *server.Server
	if cfg.EnableMetrics {
		checkers := map[string]server.HealthChecker{"database": a.DB}
		if a.Redis != nil {
			checkers["redis"] = app.RedisHealth{Client: a.Redis}
		}
		srv = server.New(cfg.MetricsPort, checkers)
		go func() {
			if err := srv.Start(); err != nil {
				log.Error().Err(err).Msg("Metrics server failed")
			}
		}()
	}

	// Uptime and pool gauges
	startTime := time.Now()
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				metrics.SystemUptime.Set(time.Since(startTime).Seconds())
				stat := a.DB.Pool.Stat()
				metrics.UpdateDBConnectionStats(stat.AcquiredConns(), stat.IdleConns())
			case <-ctx.Done():
				return
			}
		}
	}()

	sched := scheduler.NewScheduler(a.Syncer, scheduler.EntriesFromConfig(cfg))

	if cfg.EnableScheduler {
		if err := sched.Start(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to start scheduler")
		}
	}

	// Run initial sync if enabled
	if cfg.InitialSyncEnabled {
		log.Info().Msg("Running initial data sync...")
		for _, job := range []string{ingest.JobReferenceData, ingest.JobTeams, ingest.JobFixtures} {
			if ctx.Err() != nil {
				break
			}
			if _, err := sched.RunNow(ctx, job); err != nil {
				log.Error().Err(err).Str("job", job).Msg("Initial sync step failed, continuing anyway...")
			}
		}
		log.Info().Msg("Initial sync finished")
	}

	// Keep running until context is cancelled
	<-ctx.Done()

	// Graceful shutdown
	sched.Stop()

	if srv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Metrics server shutdown failed")
		}
	}

	log.Info().Msg("Worker shutdown complete")
}
