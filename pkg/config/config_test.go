package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigSuccess(t *testing.T) {
	original := AppConfig
	t.Cleanup(func() {
		AppConfig = original
	})

	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.json")
	content := `{
		"database": {
			"driver": "postgres",
			"host": "localhost",
			"user": "test-user",
			"password": "test-pass",
			"dbname": "testdb",
			"port": 5433,
			"sslmode": "disable"
		},
		"telegram": {
			"token": "test-token",
			"chat_id": 42
		},
		"health": {
			"sync_interval": "15m"
		},
		"logging": {
			"format": "json"
		}
	}`

	if err := os.WriteFile(configPath, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config fixture: %v", err)
	}

	if err := LoadConfig(configPath); err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	if AppConfig.Database.Host != "localhost" {
		t.Errorf("expected host to be localhost, got %q", AppConfig.Database.Host)
	}
	if AppConfig.Database.Port != 5433 {
		t.Errorf("expected port to be 5433, got %d", AppConfig.Database.Port)
	}
	if AppConfig.Telegram.Token != "test-token" {
		t.Errorf("expected token to be test-token, got %q", AppConfig.Telegram.Token)
	}
	if AppConfig.Telegram.ChatID != 42 {
		t.Errorf("expected chat id 42, got %d", AppConfig.Telegram.ChatID)
	}
	if AppConfig.Health.SyncInterval.Std() != 15*time.Minute {
		t.Errorf("expected sync interval 15m, got %v", AppConfig.Health.SyncInterval.Std())
	}
	if AppConfig.Logging.Format != "json" || AppConfig.Logging.GormLevel != "warn" {
		t.Errorf("expected json logs with default gorm level, got %+v", AppConfig.Logging)
	}
	if AppConfig.Database.SlowQuery.Std() != 200*time.Millisecond {
		t.Errorf("expected default slow query threshold, got %v", AppConfig.Database.SlowQuery.Std())
	}
	if AppConfig.Widget.RefreshInterval.Std() != 30*time.Minute {
		t.Errorf("expected default widget refresh of 30m, got %v", AppConfig.Widget.RefreshInterval.Std())
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	original := AppConfig
	t.Cleanup(func() {
		AppConfig = original
	})

	err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	if err == nil {
		t.Fatal("expected an error when loading a missing config file")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
	if AppConfig.Database.Driver != "sqlite" {
		t.Fatalf("expected defaults to remain in place, got driver %q", AppConfig.Database.Driver)
	}
}

func TestApplyEnvironmentOverrides(t *testing.T) {
	original := AppConfig
	t.Cleanup(func() {
		AppConfig = original
	})
	AppConfig = Defaults()

	t.Setenv("MOODTRACK_DATABASE_PATH", "/tmp/override.db")
	t.Setenv("MOODTRACK_TELEGRAM_CHAT_ID", "99")
	t.Setenv("MOODTRACK_WIDGET_REFRESH_INTERVAL", "5m")

	if err := ApplyEnvironment(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("ApplyEnvironment returned error: %v", err)
	}

	if AppConfig.Database.Path != "/tmp/override.db" {
		t.Errorf("expected database path override, got %q", AppConfig.Database.Path)
	}
	if AppConfig.Telegram.ChatID != 99 {
		t.Errorf("expected chat id 99, got %d", AppConfig.Telegram.ChatID)
	}
	if AppConfig.Widget.RefreshInterval.Std() != 5*time.Minute {
		t.Errorf("expected refresh interval 5m, got %v", AppConfig.Widget.RefreshInterval.Std())
	}
	if AppConfig.Database.Driver != "sqlite" {
		t.Errorf("expected driver to keep default, got %q", AppConfig.Database.Driver)
	}
}

func TestApplyEnvironmentReadsDotEnv(t *testing.T) {
	original := AppConfig
	t.Cleanup(func() {
		AppConfig = original
		os.Unsetenv("MOODTRACK_SERVER_ADDR")
	})
	AppConfig = Defaults()

	envPath := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(envPath, []byte("MOODTRACK_SERVER_ADDR=0.0.0.0:9000\n"), 0o600); err != nil {
		t.Fatalf("failed to write env fixture: %v", err)
	}

	if err := ApplyEnvironment(envPath); err != nil {
		t.Fatalf("ApplyEnvironment returned error: %v", err)
	}
	if AppConfig.Server.Addr != "0.0.0.0:9000" {
		t.Fatalf("expected server addr from .env, got %q", AppConfig.Server.Addr)
	}
}
