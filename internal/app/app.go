// Package app wires configuration into the running components shared by
// the worker and the manual fetch command.
package app

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"sportsdata/ingestion/internal/client"
	"sportsdata/ingestion/internal/collector"
	"sportsdata/ingestion/internal/config"
	"sportsdata/ingestion/internal/ingest"
	"sportsdata/ingestion/internal/priority"
	"sportsdata/ingestion/internal/ratelimit"
	"sportsdata/ingestion/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// App holds the long-lived components built from a Config.
type App struct {
	Config     *config.Config
	Client     *client.Client
	DB         *repository.Database
	Redis      *redis.Client
	Limiter    ratelimit.Limiter
	Priorities *priority.Manager
	Syncer     *ingest.Syncer
}

// SetupLogger configures the zerolog global logger
func SetupLogger(appEnv, logLevel string) {
	// Pretty console logging in development
	if appEnv == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	}

	level := zerolog.InfoLevel
	if logLevel != "" {
		if parsed, err := zerolog.ParseLevel(logLevel); err == nil {
			level = parsed
		}
	}
	zerolog.SetGlobalLevel(level)

	log.Info().
		Str("level", level.String()).
		Msg("Logger initialized")
}

// New connects to the database (and Redis when configured), applies the
// schema and builds the syncer.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}

	a.Client = client.NewClient(client.Config{
		BaseURL:   cfg.SportMonksBaseURL,
		Token:     cfg.SportMonksAPIToken,
		Timeout:   cfg.SportMonksTimeout,
		RateLimit: cfg.APIRateLimit,
		Burst:     cfg.APIBurstLimit,
	})
	log.Info().Msg("SportMonks client initialized")

	db, err := repository.NewDatabase(ctx, repository.Config{
		Host:     cfg.DatabaseHost,
		Port:     strconv.Itoa(cfg.DatabasePort),
		User:     cfg.DatabaseUser,
		Password: cfg.DatabasePassword,
		Database: cfg.DatabaseName,
		SSLMode:  cfg.DatabaseSSLMode,
	})
	if err != nil {
		return nil, err
	}
	a.DB = db

	if err := db.Migrate(ctx); err != nil {
		a.Close()
		return nil, err
	}

	limiter, err := a.buildLimiter(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Limiter = limiter

	a.Priorities = priority.NewManager(cfg.PriorityOverrides())

	syncer, err := ingest.NewSyncer(
		ingest.Config{
			PageSize:               cfg.PageSize,
			FixturesCollectionType: cfg.CollectionType,
			FixturesInclude:        cfg.FixturesInclude,
			LookaheadDays:          cfg.FixturesLookaheadDays,
		},
		a.Client,
		a.Limiter,
		a.Priorities,
		ingest.StoresFrom(db),
		collector.WithRetry(cfg.RetryPolicy()),
		collector.WithAdmissionPolicy(cfg.AdmissionPolicy()),
	)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Syncer = syncer

	return a, nil
}

// buildLimiter returns the shared request budget. The redis backend lets
// several worker processes draw from one quota.
func (a *App) buildLimiter(ctx context.Context) (ratelimit.Limiter, error) {
	cfg := a.Config

	switch cfg.RateLimiterBackend {
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr(),
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.Redis = rdb

		limiter, err := ratelimit.NewRedisWindow(rdb, cfg.RateLimiterKey, cfg.CollectorMaxRequest, cfg.CollectorWindow())
		if err != nil {
			return nil, err
		}
		log.Info().
			Str("backend", "redis").
			Str("key", cfg.RateLimiterKey).
			Int("max_requests", cfg.CollectorMaxRequest).
			Dur("window", cfg.CollectorWindow()).
			Msg("Rate limiter initialized")
		return limiter, nil
	default:
		limiter, err := ratelimit.NewSlidingWindow(cfg.CollectorMaxRequest, cfg.CollectorWindow())
		if err != nil {
			return nil, err
		}
		log.Info().
			Str("backend", "memory").
			Int("max_requests", cfg.CollectorMaxRequest).
			Dur("window", cfg.CollectorWindow()).
			Msg("Rate limiter initialized")
		return limiter, nil
	}
}

// RedisHealth adapts a Redis client to server.HealthChecker.
type RedisHealth struct {
	Client *redis.Client
}

// Health pings Redis.
func (h RedisHealth) Health(ctx context.Context) error {
	if err := h.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}
	return nil
}

// Close releases the database pool and the Redis client.
func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close redis client")
		}
	}
	if a.DB != nil {
		a.DB.Close()
	}
}
