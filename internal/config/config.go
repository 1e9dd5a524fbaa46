// Package config provides configuration management for the Equine Oracle application.
package config

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	App           AppConfig           `mapstructure:"app" validate:"required"`
	Database      DatabaseConfig      `mapstructure:"database" validate:"required"`
	Scoring       ScoringConfig       `mapstructure:"scoring" validate:"required"`
	ResultsSource ResultsSourceConfig `mapstructure:"results_source" validate:"required"`
	Ensemble      EnsembleConfig      `mapstructure:"ensemble" validate:"required"`
	Signals       SignalsConfig       `mapstructure:"signals" validate:"required"`
	Retraining    RetrainingConfig    `mapstructure:"retraining" validate:"required"`
	Scheduler     SchedulerConfig     `mapstructure:"scheduler" validate:"required"`
	Metrics       MetricsConfig       `mapstructure:"metrics" validate:"required"`
	Features      FeaturesConfig      `mapstructure:"features" validate:"required"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Host               string `mapstructure:"host" validate:"required"`
	Port               int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Name               string `mapstructure:"name" validate:"required"`
	User               string `mapstructure:"user" validate:"required"`
	Password           string `mapstructure:"password" validate:"required"`
	SSLMode            string `mapstructure:"ssl_mode" validate:"required,oneof=disable require verify-full"`
	MaxConnections     int    `mapstructure:"max_connections" validate:"required,gt=0"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections" validate:"required,gt=0"`
}

// ScoringConfig represents the model scoring service configuration
type ScoringConfig struct {
	URL                   string  `mapstructure:"url" validate:"required,url"`
	APIKey                string  `mapstructure:"api_key"`
	RequestTimeoutSeconds int     `mapstructure:"request_timeout_seconds" validate:"required,gt=0"`
	RetryAttempts         int     `mapstructure:"retry_attempts" validate:"required,gte=0"`
	RateLimitPerSecond    float64 `mapstructure:"rate_limit_per_second" validate:"required,gt=0"`
	CacheTTLSeconds       int     `mapstructure:"cache_ttl_seconds" validate:"required,gt=0"`
	CacheMaxSize          int     `mapstructure:"cache_max_size" validate:"required,gt=0"`
}

// ResultsSourceConfig represents the race results feed configuration
type ResultsSourceConfig struct {
	URL                   string  `mapstructure:"url" validate:"required,url"`
	APIKey                string  `mapstructure:"api_key"`
	RequestTimeoutSeconds int     `mapstructure:"request_timeout_seconds" validate:"required,gt=0"`
	RetryAttempts         int     `mapstructure:"retry_attempts" validate:"required,gte=0"`
	RateLimitPerSecond    float64 `mapstructure:"rate_limit_per_second" validate:"required,gt=0"`
	LookbackHours         int     `mapstructure:"lookback_hours" validate:"required,gt=0"`
}

// EnsembleConfig represents ensemble combination configuration
type EnsembleConfig struct {
	Weights        map[string]float64 `mapstructure:"weights" validate:"required,min=1,modelweights"`
	AgreementFloor float64            `mapstructure:"agreement_floor" validate:"gte=0,lte=1"`
}

// SignalsConfig represents betting signal configuration
type SignalsConfig struct {
	StrongBuyThreshold float64 `mapstructure:"strong_buy_threshold" validate:"required,gt=0,lte=1"`
	BuyThreshold       float64 `mapstructure:"buy_threshold" validate:"required,gt=0,lte=1"`
	HoldThreshold      float64 `mapstructure:"hold_threshold" validate:"required,gt=0,lte=1"`
	Stake              float64 `mapstructure:"stake" validate:"required,gt=0"`
}

// RetrainingConfig represents the auto-retraining controller configuration
type RetrainingConfig struct {
	IntervalHours       int     `mapstructure:"interval_hours" validate:"required,gt=0"`
	MaxFrequency        int     `mapstructure:"max_frequency" validate:"required,gt=0"`
	MinSampleSize       int     `mapstructure:"min_sample_size" validate:"required,gt=0"`
	AccuracyThreshold   float64 `mapstructure:"accuracy_threshold" validate:"required,gt=0,lt=1"`
	DispatchTimeoutMins int     `mapstructure:"dispatch_timeout_minutes" validate:"required,gt=0"`
}

// SchedulerConfig represents cron scheduling configuration
type SchedulerConfig struct {
	PredictionCron    string `mapstructure:"prediction_cron" validate:"required"`
	ResultsCron       string `mapstructure:"results_cron" validate:"required"`
	RetrainCheckCron  string `mapstructure:"retrain_check_cron" validate:"required"`
	WeightRefreshCron string `mapstructure:"weight_refresh_cron" validate:"required"`
	JobTimeoutSeconds int    `mapstructure:"job_timeout_seconds" validate:"required,gt=0"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Path    string `mapstructure:"path" validate:"required"`
}

// FeaturesConfig represents feature flags
type FeaturesConfig struct {
	AutoRetrainingEnabled  bool `mapstructure:"auto_retraining_enabled"`
	WeightRotationEnabled  bool `mapstructure:"weight_rotation_enabled"`
	ResultsPollingEnabled  bool `mapstructure:"results_polling_enabled"`
	ScoringCachingEnabled  bool `mapstructure:"scoring_caching_enabled"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsStaging checks if the application is running in staging mode
func (c *Config) IsStaging() bool {
	return c.App.Environment == "staging"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// RetrainInterval returns the retraining interval as a duration
func (c *Config) RetrainInterval() time.Duration {
	return time.Duration(c.Retraining.IntervalHours) * time.Hour
}

// ScoringCacheTTL returns the scoring cache TTL as a duration
func (c *Config) ScoringCacheTTL() time.Duration {
	return time.Duration(c.Scoring.CacheTTLSeconds) * time.Second
}
