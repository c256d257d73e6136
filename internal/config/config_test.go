package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/julianstephens/habitual/internal/constants"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "server.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
listen: ":9090"
jwt_secret: "file-secret"
cron_secret: "cron"
push:
  endpoint: "https://push.example.com/send"
redis:
  addr: "localhost:6379"
  db: 2
reminder:
  dedupe_ttl: 12h
`)

	cfg, err := Load(path, true)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Listen != ":9090" || cfg.JWTSecret != "file-secret" || cfg.CronSecret != "cron" {
		t.Errorf("unexpected top-level values: %+v", cfg)
	}
	if cfg.Push.Endpoint != "https://push.example.com/send" {
		t.Errorf("Push.Endpoint = %q", cfg.Push.Endpoint)
	}
	if cfg.Redis.Addr != "localhost:6379" || cfg.Redis.DB != 2 {
		t.Errorf("unexpected redis config: %+v", cfg.Redis)
	}
	if cfg.Reminder.DedupeTTL != 12*time.Hour {
		t.Errorf("DedupeTTL = %v, want 12h", cfg.Reminder.DedupeTTL)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), false)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Listen != constants.DefaultListenAddr {
		t.Errorf("Listen = %q, want %q", cfg.Listen, constants.DefaultListenAddr)
	}
	if cfg.Reminder.DedupeTTL != constants.DefaultDedupeTTL {
		t.Errorf("DedupeTTL = %v, want %v", cfg.Reminder.DedupeTTL, constants.DefaultDedupeTTL)
	}
	if err := cfg.ValidateForServe(); !errors.Is(err, ErrMissingJWTSecret) {
		t.Errorf("ValidateForServe() error = %v, want ErrMissingJWTSecret", err)
	}
}

func TestLoad_RequiredMissing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), true); err == nil {
		t.Error("Load() should fail when a required file is missing")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "listen: [unterminated")
	if _, err := Load(path, true); err == nil {
		t.Error("Load() should fail on invalid YAML")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
jwt_secret: "file-secret"
redis:
  addr: "file:6379"
`)
	t.Setenv("HABITUAL_JWT_SECRET", "env-secret")
	t.Setenv("HABITUAL_REDIS_ADDR", "env:6379")
	t.Setenv("HABITUAL_REDIS_DB", "3")
	t.Setenv("HABITUAL_PUSH_API_KEY", "key")
	t.Setenv("HABITUAL_DEDUPE_TTL", "90m")
	t.Setenv("HABITUAL_DB_CONNECTION", "postgres://habitual@localhost/db")

	cfg, err := Load(path, true)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.JWTSecret != "env-secret" {
		t.Errorf("JWTSecret = %q, want env value", cfg.JWTSecret)
	}
	if cfg.Redis.Addr != "env:6379" || cfg.Redis.DB != 3 {
		t.Errorf("redis = %+v, want env values", cfg.Redis)
	}
	if cfg.Push.APIKey != "key" {
		t.Errorf("Push.APIKey = %q", cfg.Push.APIKey)
	}
	if cfg.Reminder.DedupeTTL != 90*time.Minute {
		t.Errorf("DedupeTTL = %v", cfg.Reminder.DedupeTTL)
	}
	if cfg.DBConnection != "postgres://habitual@localhost/db" {
		t.Errorf("DBConnection = %q", cfg.DBConnection)
	}
	if err := cfg.ValidateForServe(); err != nil {
		t.Errorf("ValidateForServe() unexpected error = %v", err)
	}
}

func TestLoad_BadEnv(t *testing.T) {
	t.Setenv("HABITUAL_REDIS_DB", "two")
	if _, err := Load("", false); err == nil {
		t.Error("Load() should fail on a non-numeric HABITUAL_REDIS_DB")
	}
}
