package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/adrg/xdg"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DATABASE_URL", "LISTEN_ADDR", "LOG_LEVEL", "OPENAI_API_KEY", "OPENAI_BASE_URL",
		"OPENAI_MODEL", "REQUEST_TIMEOUT", "HISTORY_LIMIT", "DELIVERY_DELAY",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	t.Setenv(configFileEnv, "")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	xdg.Reload()
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.ListenAddr != ":8080" || cfg.LogLevel != "info" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.RequestTimeout != 90*time.Second || cfg.HistoryLimit != 20 || cfg.DeliveryDelay != 100*time.Millisecond {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected missing DATABASE_URL to fail validation")
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	content := "database_url = \"postgres://file\"\nopenai_model = \"file-model\"\nhistory_limit = 30\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	t.Setenv(configFileEnv, path)
	t.Setenv("OPENAI_MODEL", "env-model")
	t.Setenv("REQUEST_TIMEOUT", "5s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.DatabaseURL != "postgres://file" || cfg.HistoryLimit != 30 {
		t.Fatalf("expected file values, got %+v", cfg)
	}
	if cfg.OpenAIModel != "env-model" || cfg.RequestTimeout != 5*time.Second {
		t.Fatalf("expected env overrides, got %+v", cfg)
	}
	if cfg.ConfigFile != path {
		t.Fatalf("expected config file %s, got %s", path, cfg.ConfigFile)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	clearEnv(t)
	t.Setenv(configFileEnv, filepath.Join(t.TempDir(), "missing.toml"))
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}
