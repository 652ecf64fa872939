package e2e

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ozonms/fbosync/internal/control"
	"github.com/ozonms/fbosync/internal/core/config"
)

func requireEnv(t *testing.T, name string) string {
	t.Helper()
	v := os.Getenv(name)
	if v == "" {
		t.Skipf("Skipping: %s is not set", name)
	}
	return v
}

func envDefault(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}

// TestLiveSync_DryRun runs one pass against the real marketplace and ERP
// APIs without creating any documents. It verifies credentials, entity
// references and the full list/resolve path.
func TestLiveSync_DryRun(t *testing.T) {
	if os.Getenv("E2E_LIVE") == "" {
		t.Skip("Skipping live E2E test. Set E2E_LIVE=true to run.")
	}

	cfg := &config.AppConfig{
		PollInterval: 80 * time.Second,
		Server:       config.ServerConfig{Port: -1},
		Ozon: config.OzonConfig{
			BaseURL:  "https://api-seller.ozon.ru",
			ClientID: requireEnv(t, "OZON_CLIENT_ID"),
			APIKey:   requireEnv(t, "OZON_API_KEY"),
			RPS:      2,
		},
		MoySklad: config.MoySkladConfig{
			BaseURL:       "https://api.moysklad.ru/api/remap/1.2",
			Token:         requireEnv(t, "MS_TOKEN"),
			RPS:           4,
			SalePriceType: "Цена продажи",
		},
		Sync: config.SyncConfig{
			DryRun:       true,
			MinDate:      "2026-02-02",
			LookbackDays: 20,
			Organization: envDefault("MS_ORGANIZATION_ID", "12d36dcd-8b6c-11e9-9109-f8fc00176e21"),
			Agent:        envDefault("MS_AGENT_ID", "f61bfcf9-2d74-11ec-0a80-04c700041e03"),
			Store:        requireEnv(t, "MS_FBO_STORE_ID"),
			SourceStore:  requireEnv(t, "MS_SOURCE_STORE_ID"),
			SalesChannel: requireEnv(t, "MS_SALES_CHANNEL_FBO_ID"),
			OrderState:   requireEnv(t, "MS_FBO_STATE_ID"),
		},
		State: config.StateConfig{
			Backend: "file",
			File:    config.FileStateConfig{Path: filepath.Join(t.TempDir(), "supplies.json")},
		},
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	runner, err := control.NewRunner(cfg, logger)
	if err != nil {
		t.Fatalf("Failed to create runner: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := runner.RunOnce(ctx); err != nil {
		t.Fatalf("Live dry-run pass failed: %v", err)
	}
	t.Log("SUCCESS: live dry-run pass completed")

	if err := runner.Stop(context.Background()); err != nil {
		t.Errorf("Stop failed: %v", err)
	}
}
