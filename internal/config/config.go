package config

import (
	"fmt"
	"os"
	"time"

	"sportsdata/ingestion/internal/priority"
	"sportsdata/ingestion/internal/retry"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration
type Config struct {
	// SportMonks API
	SportMonksAPIToken string        `envconfig:"SPORTMONKS_API_TOKEN" required:"true"`
	SportMonksBaseURL  string        `envconfig:"SPORTMONKS_BASE_URL" default:"https://api.sportmonks.com/v3/football"`
	SportMonksTimeout  time.Duration `envconfig:"SPORTMONKS_TIMEOUT" default:"30s"`

	// Database
	DatabaseHost     string `envconfig:"DATABASE_HOST" default:"localhost"`
	DatabasePort     int    `envconfig:"DATABASE_PORT" default:"5432"`
	DatabaseName     string `envconfig:"DATABASE_NAME" default:"sportsdata"`
	DatabaseUser     string `envconfig:"DATABASE_USER" default:"sportsdata"`
	DatabasePassword string `envconfig:"DATABASE_PASSWORD" required:"true"`
	DatabaseSSLMode  string `envconfig:"DATABASE_SSL_MODE" default:"disable"`

	// Redis
	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// Application
	AppEnv   string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Collection budget shared by every job
	RateLimiterBackend  string `envconfig:"RATE_LIMITER_BACKEND" default:"memory"`
	RateLimiterKey      string `envconfig:"RATE_LIMITER_KEY" default:"sportsdata:ratelimit:sportmonks"`
	CollectorMaxRequest int    `envconfig:"FIXTURES_COLLECTOR_MAX_REQUESTS" default:"30"`
	CollectorWindowSecs int    `envconfig:"FIXTURES_COLLECTOR_TIME_WINDOW_SECONDS" default:"60"`

	// Priorities
	CollectionType        string `envconfig:"COLLECTION_TYPE" default:"dynamic_fixtures"`
	CollectionPriorities  string `envconfig:"COLLECTION_PRIORITIES" default:""`
	LowPriorityReserve    int    `envconfig:"LOW_PRIORITY_RESERVE" default:"0"`
	MediumPriorityReserve int    `envconfig:"MEDIUM_PRIORITY_RESERVE" default:"0"`

	// Retry
	RetryMaxRetries     int           `envconfig:"RETRY_MAX_RETRIES" default:"3"`
	RetryInitialDelay   time.Duration `envconfig:"RETRY_INITIAL_DELAY" default:"1s"`
	RetryBackoffFactor  float64       `envconfig:"RETRY_BACKOFF_FACTOR" default:"2"`
	RetryJitterFraction float64       `envconfig:"RETRY_JITTER_FRACTION" default:"0.1"`

	// Pagination
	PageSize              int    `envconfig:"PAGE_SIZE" default:"50"`
	FixturesInclude       string `envconfig:"FIXTURES_INCLUDE" default:"participants;scores;referees;odds;events;translations"`
	FixturesLookaheadDays int    `envconfig:"FIXTURES_LOOKAHEAD_DAYS" default:"2"`

	// Scheduler
	EnableScheduler    bool   `envconfig:"ENABLE_SCHEDULER" default:"true"`
	InitialSyncEnabled bool   `envconfig:"INITIAL_SYNC_ENABLED" default:"true"`
	FixturesCron       string `envconfig:"FIXTURES_CRON" default:"*/5 * * * *"`
	ReferenceDataCron  string `envconfig:"REFERENCE_DATA_CRON" default:"0 3 * * *"`
	TeamsCron          string `envconfig:"TEAMS_CRON" default:"30 3 * * *"`

	// Outbound pacing in front of the HTTP client
	APIRateLimit  float64 `envconfig:"API_RATE_LIMIT" default:"5"`
	APIBurstLimit int     `envconfig:"API_BURST_LIMIT" default:"5"`

	// Monitoring
	EnableMetrics bool `envconfig:"ENABLE_METRICS" default:"true"`
	MetricsPort   int  `envconfig:"METRICS_PORT" default:"9090"`
}

// Load loads configuration from environment variables
// It first attempts to load from .env file if in development mode
func Load() (*Config, error) {
	// Try to load .env file (ignore error if doesn't exist)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.SportMonksAPIToken == "" {
		return fmt.Errorf("SPORTMONKS_API_TOKEN is required")
	}

	if c.DatabasePassword == "" {
		return fmt.Errorf("DATABASE_PASSWORD is required")
	}

	if c.CollectorMaxRequest <= 0 || c.CollectorWindowSecs <= 0 {
		return fmt.Errorf("FIXTURES_COLLECTOR_MAX_REQUESTS and FIXTURES_COLLECTOR_TIME_WINDOW_SECONDS must be positive")
	}

	switch c.RateLimiterBackend {
	case "memory", "redis":
	default:
		return fmt.Errorf("RATE_LIMITER_BACKEND must be memory or redis, got %q", c.RateLimiterBackend)
	}

	if _, err := priority.ParseOverrides(c.CollectionPriorities); err != nil {
		return fmt.Errorf("COLLECTION_PRIORITIES: %w", err)
	}

	if c.RetryMaxRetries < 0 {
		return fmt.Errorf("RETRY_MAX_RETRIES must not be negative")
	}

	if c.RetryJitterFraction < 0 || c.RetryJitterFraction > 1 {
		return fmt.Errorf("RETRY_JITTER_FRACTION must be within [0, 1]")
	}

	if c.FixturesLookaheadDays < 0 {
		return fmt.Errorf("FIXTURES_LOOKAHEAD_DAYS must not be negative")
	}

	return nil
}

// CollectorWindow returns the rate limiter window as a duration.
func (c *Config) CollectorWindow() time.Duration {
	return time.Duration(c.CollectorWindowSecs) * time.Second
}

// PriorityOverrides returns the parsed COLLECTION_PRIORITIES value.
// Validate has already rejected malformed input.
func (c *Config) PriorityOverrides() map[string]priority.Tier {
	overrides, _ := priority.ParseOverrides(c.CollectionPriorities)
	return overrides
}

// AdmissionPolicy returns the budget reserves configured per tier.
func (c *Config) AdmissionPolicy() priority.AdmissionPolicy {
	reserve := make(map[priority.Tier]int)
	if c.LowPriorityReserve > 0 {
		reserve[priority.TierLow] = c.LowPriorityReserve
	}
	if c.MediumPriorityReserve > 0 {
		reserve[priority.TierMedium] = c.MediumPriorityReserve
	}
	return priority.AdmissionPolicy{Reserve: reserve}
}

// RetryPolicy returns the retry policy for upstream calls.
func (c *Config) RetryPolicy() retry.Policy {
	return retry.Policy{
		MaxRetries:       c.RetryMaxRetries,
		InitialDelay:     c.RetryInitialDelay,
		BackoffFactor:    c.RetryBackoffFactor,
		JitterFraction:   c.RetryJitterFraction,
		RecoverableKinds: []retry.Kind{retry.KindRecoverable},
	}
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DatabaseHost,
		c.DatabasePort,
		c.DatabaseUser,
		c.DatabasePassword,
		c.DatabaseName,
		c.DatabaseSSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// MustLoad loads configuration or panics on error
// Use this in main() where we want to fail fast
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	return cfg
}
