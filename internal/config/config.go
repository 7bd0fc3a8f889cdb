// Package config provides application configuration loading and validation.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the complete application configuration.
type Config struct {
	Server           ServerConfig
	Database         DatabaseConfig
	Redis            RedisConfig
	ExchangeRateHost ExchangeRateHostConfig `mapstructure:"exchangerate_host"`
	Frankfurter      FrankfurterConfig      `mapstructure:"frankfurter"`
	Ingest           IngestConfig
	Worker           WorkerConfig
	Cache            CacheConfig
}

// ServerConfig holds settings for the operational HTTP server.
type ServerConfig struct {
	Port          int  `mapstructure:"port"`
	ServeAsynqmon bool `mapstructure:"serve_asynqmon"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host               string `mapstructure:"host"`
	Port               int    `mapstructure:"port"`
	User               string `mapstructure:"user"`
	Password           string `mapstructure:"password"`
	Name               string `mapstructure:"name"`
	SSLMode            string `mapstructure:"sslmode"`
	MaxOpenConns       int    `mapstructure:"max_open_conns"`
	MaxIdleConns       int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSec int    `mapstructure:"conn_max_lifetime_sec"`
	DSN                string
}

// RedisConfig holds connection settings for both Redis instances.
type RedisConfig struct {
	AsynqAddr string `mapstructure:"asynq_addr"` // Redis instance for the Asynq task queue (required).
	CacheAddr string `mapstructure:"cache_addr"` // Redis instance for the provider response cache (required).
}

// ExchangeRateHostConfig holds settings for the exchangerate.host provider.
type ExchangeRateHostConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Timeout int    `mapstructure:"timeout_sec"`
}

// FrankfurterConfig holds settings for the frankfurter provider.
type FrankfurterConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout_sec"`
}

// IngestConfig holds backfill and daily refresh settings.
type IngestConfig struct {
	BaseCurrency        string `mapstructure:"base_currency"`
	Symbols             string `mapstructure:"symbols"` // Comma-separated codes, or "ALL".
	BatchDays           int    `mapstructure:"batch_days"`
	UpsertBatchSize     int    `mapstructure:"upsert_batch_size"`
	DryRun              bool   `mapstructure:"dry_run"`
	BackfillEnabled     bool   `mapstructure:"backfill_enabled"`
	BackfillStart       string `mapstructure:"backfill_start"` // ISO date.
	BackfillEnd         string `mapstructure:"backfill_end"`   // ISO date or "today".
	RefreshCron         string `mapstructure:"refresh_cron"`
	RefreshLookbackDays int    `mapstructure:"refresh_lookback_days"`
}

// WorkerConfig holds background worker and task queue settings.
type WorkerConfig struct {
	Concurrency      int `mapstructure:"concurrency"`
	MaxRetry         int `mapstructure:"max_retry"`
	TimeoutSec       int `mapstructure:"timeout_sec"`
	CheckIntervalSec int `mapstructure:"check_interval_sec"`
}

// CacheConfig holds provider response caching settings.
type CacheConfig struct {
	ProviderTimeframeTTLSec int `mapstructure:"provider_timeframe_ttl_sec"`
}

// LoadConfig reads configuration from config files, environment variables, and defaults.
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		fmt.Printf("No .env file found or error loading it: %v\n", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// Config search paths
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("./internal/config")

	viper.SetEnvPrefix("RATEFEED")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// default values
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.serve_asynqmon", true)
	viper.SetDefault("database.host", "db")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.name", "ratesdb")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.max_open_conns", 10)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime_sec", 300)
	viper.SetDefault("redis.asynq_addr", "redis_asynq:6380")
	viper.SetDefault("redis.cache_addr", "redis_cache:6381")
	viper.SetDefault("exchangerate_host.base_url", "https://api.exchangerate.host")
	viper.SetDefault("exchangerate_host.api_key", "")
	viper.SetDefault("exchangerate_host.timeout_sec", 60)
	viper.SetDefault("frankfurter.base_url", "https://api.frankfurter.dev/v1")
	viper.SetDefault("frankfurter.timeout_sec", 30)
	viper.SetDefault("ingest.base_currency", "USD")
	viper.SetDefault("ingest.symbols", "CAD,EUR,GBP,TRY,AED")
	viper.SetDefault("ingest.batch_days", 365)
	viper.SetDefault("ingest.upsert_batch_size", 1000)
	viper.SetDefault("ingest.dry_run", false)
	viper.SetDefault("ingest.backfill_enabled", false)
	viper.SetDefault("ingest.backfill_start", "2020-01-01")
	viper.SetDefault("ingest.backfill_end", "today")
	viper.SetDefault("ingest.refresh_cron", "0 6 * * *")
	viper.SetDefault("ingest.refresh_lookback_days", 2)
	viper.SetDefault("worker.concurrency", 1)
	viper.SetDefault("worker.max_retry", 3)
	viper.SetDefault("worker.timeout_sec", 300)
	viper.SetDefault("worker.check_interval_sec", 5)
	viper.SetDefault("cache.provider_timeframe_ttl_sec", 3600)

	if err := viper.ReadInConfig(); err != nil {
		// It's okay if no config file, we have defaults and env
		fmt.Printf("Config file not found: %v\n", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if cfg.Database.MaxOpenConns <= 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns <= 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetimeSec <= 0 {
		cfg.Database.ConnMaxLifetimeSec = 300
	}

	cfg.Database.DSN = fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.Database.User, cfg.Database.Password,
		cfg.Database.Host, cfg.Database.Port,
		cfg.Database.Name, cfg.Database.SSLMode)

	return &cfg, nil
}

// Validate checks that all required configuration fields are set and valid.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 {
		errs = append(errs, fmt.Errorf("server.port must be positive, got %d", c.Server.Port))
	}

	if c.Database.Host == "" {
		errs = append(errs, fmt.Errorf("database.host is required"))
	}
	if c.Database.Port <= 0 {
		errs = append(errs, fmt.Errorf("database.port must be positive, got %d", c.Database.Port))
	}
	if c.Database.User == "" {
		errs = append(errs, fmt.Errorf("database.user is required"))
	}
	if c.Database.Name == "" {
		errs = append(errs, fmt.Errorf("database.name is required"))
	}

	if c.Redis.AsynqAddr == "" {
		errs = append(errs, fmt.Errorf("redis.asynq_addr is required (set RATEFEED_REDIS_ASYNQ_ADDR)"))
	}
	if c.Redis.CacheAddr == "" {
		errs = append(errs, fmt.Errorf("redis.cache_addr is required (set RATEFEED_REDIS_CACHE_ADDR)"))
	}

	if c.Ingest.BaseCurrency == "" {
		errs = append(errs, fmt.Errorf("ingest.base_currency is required"))
	}
	if c.Ingest.Symbols == "" {
		errs = append(errs, fmt.Errorf("ingest.symbols is required (comma-separated codes or ALL)"))
	}
	// The exchangerate.host timeframe endpoint rejects windows over 365 days.
	if c.Ingest.BatchDays <= 0 || c.Ingest.BatchDays > 365 {
		errs = append(errs, fmt.Errorf("ingest.batch_days must be in 1..365, got %d", c.Ingest.BatchDays))
	}
	if c.Ingest.UpsertBatchSize <= 0 {
		errs = append(errs, fmt.Errorf("ingest.upsert_batch_size must be positive, got %d", c.Ingest.UpsertBatchSize))
	}
	if c.Ingest.RefreshCron == "" {
		errs = append(errs, fmt.Errorf("ingest.refresh_cron is required"))
	}
	if c.Ingest.RefreshLookbackDays <= 0 {
		errs = append(errs, fmt.Errorf("ingest.refresh_lookback_days must be positive, got %d", c.Ingest.RefreshLookbackDays))
	}

	if c.Worker.Concurrency <= 0 {
		errs = append(errs, fmt.Errorf("worker.concurrency must be positive, got %d", c.Worker.Concurrency))
	}
	if c.Worker.MaxRetry < 0 {
		errs = append(errs, fmt.Errorf("worker.max_retry must be non-negative, got %d", c.Worker.MaxRetry))
	}
	if c.Worker.TimeoutSec <= 0 {
		errs = append(errs, fmt.Errorf("worker.timeout_sec must be positive, got %d", c.Worker.TimeoutSec))
	}
	if c.Worker.CheckIntervalSec <= 0 {
		errs = append(errs, fmt.Errorf("worker.check_interval_sec must be positive, got %d", c.Worker.CheckIntervalSec))
	}

	if c.Cache.ProviderTimeframeTTLSec <= 0 {
		errs = append(errs, fmt.Errorf("cache.provider_timeframe_ttl_sec must be positive, got %d", c.Cache.ProviderTimeframeTTLSec))
	}

	return errors.Join(errs...)
}
