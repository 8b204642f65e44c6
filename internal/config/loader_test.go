package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoadDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Address() != "127.0.0.1:8097" {
		t.Errorf("address = %q", cfg.Server.Address())
	}
	if cfg.Retry.MaxAttempts != 4 || cfg.Retry.BaseDelay != time.Second || cfg.Retry.Multiplier != 2 {
		t.Errorf("retry = %+v", cfg.Retry)
	}
	if got := cfg.Dispenser.ProductGroups; len(got) != 3 || got[0] != 12 || got[1] != 16 || got[2] != 20 {
		t.Errorf("product groups = %v", got)
	}
	if cfg.Dispenser.PollInterval != 30*time.Second || cfg.Dispenser.PollInitialDelay != 2*time.Second {
		t.Errorf("poll timings = %v / %v", cfg.Dispenser.PollInterval, cfg.Dispenser.PollInitialDelay)
	}
	if cfg.Dispenser.RetentionDays != 7 {
		t.Errorf("retention = %d", cfg.Dispenser.RetentionDays)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
server:
  port: 9000
platform:
  base_url: http://localhost:8080
retry:
  max_attempts: 2
dispenser:
  product_groups: [12]
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.Platform.BaseURL != "http://localhost:8080" {
		t.Errorf("base url = %q", cfg.Platform.BaseURL)
	}
	if cfg.Retry.MaxAttempts != 2 {
		t.Errorf("max attempts = %d", cfg.Retry.MaxAttempts)
	}
	if len(cfg.Dispenser.ProductGroups) != 1 {
		t.Errorf("product groups = %v", cfg.Dispenser.ProductGroups)
	}
	// untouched keys keep their defaults
	if cfg.Logger.Level != "info" {
		t.Errorf("log level = %q", cfg.Logger.Level)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("retry:\n  max_attempts: 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error")
	}
}
