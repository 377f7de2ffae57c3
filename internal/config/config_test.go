package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

var configEnvKeys = []string{
	"APP_ENV",
	"HTTP_ADDR", "HTTP_READ_TIMEOUT", "HTTP_WRITE_TIMEOUT", "HTTP_IDLE_TIMEOUT",
	"LOG_LEVEL",
	"POSTGRES_DSN",
	"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
	"TELEGRAM_API_BASE", "TELEGRAM_REQUEST_TIMEOUT", "PUBLIC_BASE_URL",
	"FLAGS_THRESHOLD", "FLAGS_MUTE_FOR",
	"POLL_INTERVAL", "POLL_LIMIT",
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range configEnvKeys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadUsesDefaultsAndYAMLOverrides(t *testing.T) {
	clearConfigEnv(t)

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")
	yaml := `
http:
  addr: ":9090"
telegram:
  api_base: http://localhost:8081
  request_timeout: 7s
flags:
  threshold: 5
poll:
  interval: 2s
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.HTTP.Addr != ":9090" {
		t.Fatalf("unexpected http addr: %s", cfg.HTTP.Addr)
	}
	if cfg.Telegram.APIBase != "http://localhost:8081" {
		t.Fatalf("unexpected api base: %s", cfg.Telegram.APIBase)
	}
	if cfg.Telegram.RequestTimeout != 7*time.Second {
		t.Fatalf("unexpected request timeout: %s", cfg.Telegram.RequestTimeout)
	}
	if cfg.Flags.Threshold != 5 {
		t.Fatalf("unexpected flags threshold: %d", cfg.Flags.Threshold)
	}
	if cfg.Poll.Interval != 2*time.Second {
		t.Fatalf("unexpected poll interval: %s", cfg.Poll.Interval)
	}

	// Untouched sections keep their defaults.
	if cfg.Log.Level != "debug" {
		t.Fatalf("log level default should stay debug, got %s", cfg.Log.Level)
	}
	if cfg.Flags.MuteFor != time.Hour {
		t.Fatalf("mute window default should stay 1h, got %s", cfg.Flags.MuteFor)
	}
	if cfg.Poll.Limit != 100 {
		t.Fatalf("poll limit default should stay 100, got %d", cfg.Poll.Limit)
	}
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.HTTP.Addr != ":8080" {
		t.Fatalf("unexpected default addr: %s", cfg.HTTP.Addr)
	}
	if cfg.Telegram.APIBase != "https://api.telegram.org" {
		t.Fatalf("unexpected default api base: %s", cfg.Telegram.APIBase)
	}
}

func TestLoadEnvOverridesWinOverYAML(t *testing.T) {
	clearConfigEnv(t)

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(path, []byte("http:\n  addr: \":9090\"\n"), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	t.Setenv("HTTP_ADDR", ":7070")
	t.Setenv("POSTGRES_DSN", "postgres://env:env@db:5432/relay")
	t.Setenv("FLAGS_THRESHOLD", "7")
	t.Setenv("TELEGRAM_REQUEST_TIMEOUT", "3s")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.HTTP.Addr != ":7070" {
		t.Fatalf("env must win over yaml, got %s", cfg.HTTP.Addr)
	}
	if cfg.Postgres.DSN != "postgres://env:env@db:5432/relay" {
		t.Fatalf("unexpected dsn: %s", cfg.Postgres.DSN)
	}
	if cfg.Flags.Threshold != 7 {
		t.Fatalf("unexpected threshold: %d", cfg.Flags.Threshold)
	}
	if cfg.Telegram.RequestTimeout != 3*time.Second {
		t.Fatalf("unexpected timeout: %s", cfg.Telegram.RequestTimeout)
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("POLL_INTERVAL", "not-a-duration")

	if _, err := Load(""); err == nil {
		t.Fatal("expected error for malformed duration")
	}
}
