package config

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v2"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *AppConfig) applyDefaults() {
	if c.PollInterval == 0 {
		c.PollInterval = 80 * time.Second
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}

	if c.Ozon.BaseURL == "" {
		c.Ozon.BaseURL = "https://api-seller.ozon.ru"
	}
	if c.Ozon.RPS == 0 {
		c.Ozon.RPS = 2
	}
	if c.Ozon.Retry.MaxAttempts == 0 {
		c.Ozon.Retry.MaxAttempts = 6
	}
	if c.Ozon.Retry.InitialDelay == 0 {
		c.Ozon.Retry.InitialDelay = 700 * time.Millisecond
	}
	if c.Ozon.Retry.MaxDelay == 0 {
		c.Ozon.Retry.MaxDelay = 20 * time.Second
	}

	if c.MoySklad.BaseURL == "" {
		c.MoySklad.BaseURL = "https://api.moysklad.ru/api/remap/1.2"
	}
	if c.MoySklad.RPS == 0 {
		c.MoySklad.RPS = 4
	}
	if c.MoySklad.Retry.MaxAttempts == 0 {
		c.MoySklad.Retry.MaxAttempts = 6
	}
	if c.MoySklad.Retry.InitialDelay == 0 {
		c.MoySklad.Retry.InitialDelay = 600 * time.Millisecond
	}
	if c.MoySklad.Retry.MaxDelay == 0 {
		c.MoySklad.Retry.MaxDelay = 20 * time.Second
	}
	if c.MoySklad.SalePriceType == "" {
		c.MoySklad.SalePriceType = "Цена продажи"
	}

	if c.Sync.MinDate == "" {
		c.Sync.MinDate = "2026-02-02"
	}
	if c.Sync.LookbackDays == 0 {
		c.Sync.LookbackDays = 20
	}

	if c.State.Backend == "" {
		c.State.Backend = "file"
	}
	if c.State.File.Path == "" {
		c.State.File.Path = "data/supplies.json"
	}
}

func (c *AppConfig) validate() error {
	if c.Ozon.ClientID == "" {
		return fmt.Errorf("ozon.client_id is required")
	}
	if c.Ozon.APIKey == "" {
		return fmt.Errorf("ozon.api_key is required")
	}
	if c.MoySklad.Token == "" {
		return fmt.Errorf("moysklad.token is required")
	}
	if _, err := c.Sync.MinDateTime(); err != nil {
		return fmt.Errorf("sync.min_date: %w", err)
	}
	if c.Sync.LookbackDays < 0 {
		return fmt.Errorf("sync.lookback_days must not be negative")
	}

	entities := []struct {
		name string
		id   string
	}{
		{"sync.organization", c.Sync.Organization},
		{"sync.agent", c.Sync.Agent},
		{"sync.store", c.Sync.Store},
		{"sync.source_store", c.Sync.SourceStore},
		{"sync.sales_channel", c.Sync.SalesChannel},
		{"sync.order_state", c.Sync.OrderState},
	}
	for _, e := range entities {
		if _, err := uuid.Parse(e.id); err != nil {
			return fmt.Errorf("%s: not a valid uuid: %q", e.name, e.id)
		}
	}

	switch c.State.Backend {
	case "file":
	case "postgres":
		if c.State.Postgres.URL == "" {
			return fmt.Errorf("state.postgres.url is required")
		}
	case "redis":
		if c.State.Redis.URL == "" {
			return fmt.Errorf("state.redis.url is required")
		}
	default:
		return fmt.Errorf("state.backend must be file, postgres or redis, got %q", c.State.Backend)
	}

	return nil
}
