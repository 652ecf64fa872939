// Package config loads the service configuration from a YAML file with
// environment variable expansion.
package config

import (
	"time"

	"github.com/ozonms/fbosync/internal/infra/httpx"
	"github.com/ozonms/fbosync/internal/infra/state"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	PollInterval time.Duration  `yaml:"poll_interval"`
	Server       ServerConfig   `yaml:"server"`
	Logging      LoggingConfig  `yaml:"logging"`
	Ozon         OzonConfig     `yaml:"ozon"`
	MoySklad     MoySkladConfig `yaml:"moysklad"`
	Sync         SyncConfig     `yaml:"sync"`
	State        StateConfig    `yaml:"state"`
}

// ServerConfig holds health/metrics HTTP server settings. A negative port
// disables the server.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// OzonConfig holds Ozon Seller API credentials and transport limits.
type OzonConfig struct {
	BaseURL  string            `yaml:"base_url"`
	ClientID string            `yaml:"client_id"`
	APIKey   string            `yaml:"api_key"`
	RPS      float64           `yaml:"rps"`
	Retry    httpx.RetryConfig `yaml:"retry"`
}

// MoySkladConfig holds MoySklad API credentials and transport limits.
type MoySkladConfig struct {
	BaseURL string            `yaml:"base_url"`
	Token   string            `yaml:"token"`
	RPS     float64           `yaml:"rps"`
	Retry   httpx.RetryConfig `yaml:"retry"`
	// SalePriceType is the exact price list label carrying the unit price.
	SalePriceType string `yaml:"sale_price_type"`
}

// SyncConfig holds the reconciliation window, the run mode, and the fixed
// MoySklad entity ids attached to every created document.
type SyncConfig struct {
	DryRun       bool   `yaml:"dry_run"`
	MinDate      string `yaml:"min_date"` // inclusive, e.g. 2026-02-02
	LookbackDays int    `yaml:"lookback_days"`

	Organization string `yaml:"organization"`
	Agent        string `yaml:"agent"`
	Store        string `yaml:"store"`
	SourceStore  string `yaml:"source_store"`
	SalesChannel string `yaml:"sales_channel"`
	OrderState   string `yaml:"order_state"`
}

// MinDateTime parses MinDate as a UTC calendar date.
func (c SyncConfig) MinDateTime() (time.Time, error) {
	return time.Parse("2006-01-02", c.MinDate)
}

// StateConfig selects and configures the durable state backend.
type StateConfig struct {
	Backend  string               `yaml:"backend"` // file, postgres, redis
	File     FileStateConfig      `yaml:"file"`
	Postgres state.PostgresConfig `yaml:"postgres"`
	Redis    state.RedisConfig    `yaml:"redis"`
}

// FileStateConfig configures the file backend.
type FileStateConfig struct {
	Path string `yaml:"path"`
}
