// Package config provides configuration management for the quant-stock service.
package config

import (
	"fmt"
)

// Config represents the complete application configuration
type Config struct {
	App          AppConfig          `mapstructure:"app" validate:"required"`
	Database     DatabaseConfig     `mapstructure:"database" validate:"required"`
	DataProvider DataProviderConfig `mapstructure:"data_provider" validate:"required"`
	Cache        CacheConfig        `mapstructure:"cache" validate:"required"`
	Backtest     BacktestConfig     `mapstructure:"backtest" validate:"required"`
	API          APIConfig          `mapstructure:"api" validate:"required"`
	Metrics      MetricsConfig      `mapstructure:"metrics" validate:"required"`
	Scheduler    SchedulerConfig    `mapstructure:"scheduler" validate:"required"`
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

// DataProviderConfig represents the upstream market data API configuration
type DataProviderConfig struct {
	BaseURL               string  `mapstructure:"base_url" validate:"required,url"`
	APIKey                string  `mapstructure:"api_key"`
	TimeoutSeconds        int     `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	RetryAttempts         int     `mapstructure:"retry_attempts" validate:"gte=0"`
	RequestsPerSecond     float64 `mapstructure:"requests_per_second" validate:"required,gt=0"`
	Burst                 int     `mapstructure:"burst" validate:"required,gt=0"`
	CircuitBreakerEnabled bool    `mapstructure:"circuit_breaker_enabled"`
	FailureThreshold      int     `mapstructure:"failure_threshold" validate:"omitempty,gt=0"`
	CooldownSeconds       int     `mapstructure:"cooldown_seconds" validate:"omitempty,gt=0"`
}

// CacheConfig represents in-memory cache configuration
type CacheConfig struct {
	Enabled               bool `mapstructure:"enabled"`
	BarTTLSeconds         int  `mapstructure:"bar_ttl_seconds" validate:"required,gt=0"`
	StockListTTLSeconds   int  `mapstructure:"stock_list_ttl_seconds" validate:"required,gt=0"`
	IndicatorTTLSeconds   int  `mapstructure:"indicator_ttl_seconds" validate:"required,gt=0"`
	CleanupIntervalSeconds int `mapstructure:"cleanup_interval_seconds" validate:"required,gt=0"`
}

// BacktestConfig represents simulation defaults
type BacktestConfig struct {
	InitialCapital float64 `mapstructure:"initial_capital" validate:"required,gt=0"`
	CommissionRate float64 `mapstructure:"commission_rate" validate:"gte=0,lte=0.1"`
	SlippageRate   float64 `mapstructure:"slippage_rate" validate:"gte=0,lt=0.1"`
	RiskFreeRate   float64 `mapstructure:"risk_free_rate" validate:"gte=0,lte=1"`
}

// APIConfig represents the HTTP API server configuration
type APIConfig struct {
	Host                  string  `mapstructure:"host" validate:"required"`
	Port                  int     `mapstructure:"port" validate:"required,min=1,max=65535"`
	ReadTimeoutSeconds    int     `mapstructure:"read_timeout_seconds" validate:"required,gt=0"`
	WriteTimeoutSeconds   int     `mapstructure:"write_timeout_seconds" validate:"required,gt=0"`
	ShutdownTimeoutSeconds int    `mapstructure:"shutdown_timeout_seconds" validate:"required,gt=0"`
	RequestsPerSecond     float64 `mapstructure:"requests_per_second" validate:"required,gt=0"`
	Burst                 int     `mapstructure:"burst" validate:"required,gt=0"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Path    string `mapstructure:"path" validate:"required"`
}

// SchedulerConfig represents scheduled ingestion configuration
type SchedulerConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	DailySyncCron  string `mapstructure:"daily_sync_cron" validate:"required"`
	StockListCron  string `mapstructure:"stock_list_cron" validate:"required"`
	SyncPeriod     string `mapstructure:"sync_period" validate:"required,period"`
	SyncBatchSize  int    `mapstructure:"sync_batch_size" validate:"required,gt=0"`
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

// GetAPIAddress returns the listen address for the HTTP API server
func (c *Config) GetAPIAddress() string {
	return c.API.GetAPIAddress()
}

// GetAPIAddress returns the listen address for the HTTP API server
func (a *APIConfig) GetAPIAddress() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}
