package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_DefaultsApplied(t *testing.T) {
	path := writeConfig(t, "app:\n  environment: test\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Market.VIXSymbol != "^VIX" {
		t.Errorf("vix_symbol = %q, want ^VIX", cfg.Market.VIXSymbol)
	}
	if cfg.Market.LookbackDays != 365 {
		t.Errorf("lookback_days = %d, want 365", cfg.Market.LookbackDays)
	}
	if cfg.Market.Retry.MaxAttempts != 3 {
		t.Errorf("retry.max_attempts = %d, want 3", cfg.Market.Retry.MaxAttempts)
	}
	if cfg.Market.Retry.MinDelay != 500*time.Millisecond {
		t.Errorf("retry.min_delay = %v, want 500ms", cfg.Market.Retry.MinDelay)
	}
	if cfg.Portfolio.InitialCash != 10000 {
		t.Errorf("initial_cash = %v, want 10000", cfg.Portfolio.InitialCash)
	}
	if cfg.Database.Path != "data/portfolio.db" {
		t.Errorf("database.path = %q", cfg.Database.Path)
	}
	if cfg.Scheduler.RefreshInterval != 5*time.Minute {
		t.Errorf("refresh_interval = %v, want 5m", cfg.Scheduler.RefreshInterval)
	}
}

func TestLoad_OverridesFromFile(t *testing.T) {
	path := writeConfig(t, `
app:
  environment: production
market:
  vix_symbol: "^VIX"
  lookback_days: 180
  retry:
    max_attempts: 5
    min_delay: 100ms
    max_delay: 2s
portfolio:
  initial_cash: 50000
scheduler:
  refresh_interval: 1m
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.App.Environment != "production" {
		t.Errorf("environment = %q", cfg.App.Environment)
	}
	if cfg.Market.LookbackDays != 180 {
		t.Errorf("lookback_days = %d, want 180", cfg.Market.LookbackDays)
	}
	if cfg.Market.Retry.MaxAttempts != 5 {
		t.Errorf("retry.max_attempts = %d, want 5", cfg.Market.Retry.MaxAttempts)
	}
	if cfg.Market.Retry.MaxDelay != 2*time.Second {
		t.Errorf("retry.max_delay = %v, want 2s", cfg.Market.Retry.MaxDelay)
	}
	if cfg.Portfolio.InitialCash != 50000 {
		t.Errorf("initial_cash = %v, want 50000", cfg.Portfolio.InitialCash)
	}
	if cfg.Scheduler.RefreshInterval != time.Minute {
		t.Errorf("refresh_interval = %v, want 1m", cfg.Scheduler.RefreshInterval)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	path := writeConfig(t, `
market:
  lookback_days: 10
scheduler:
  refresh_interval: 0s
`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "lookback_days") {
		t.Errorf("error should mention lookback_days: %v", err)
	}
	if !strings.Contains(msg, "refresh_interval") {
		t.Errorf("error should mention refresh_interval: %v", err)
	}
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	cfg := &Config{}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("empty config must fail validation")
	}

	for _, key := range []string{"app.environment", "market.vix_symbol", "database.path", "logging.level"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("validation error should mention %s: %v", key, err)
		}
	}
}
