package config

import (
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("BOARD_TEAM_ID", "team1")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Cooldown.Window != 5*time.Minute {
		t.Errorf("Cooldown.Window = %v, want 5m", cfg.Cooldown.Window)
	}
	if cfg.Cooldown.Backend != "memory" {
		t.Errorf("Cooldown.Backend = %q", cfg.Cooldown.Backend)
	}
	if cfg.Watch.BatchDelay != 100*time.Millisecond {
		t.Errorf("Watch.BatchDelay = %v", cfg.Watch.BatchDelay)
	}
	if cfg.Board.WSURL != "ws://localhost:8000/ws" {
		t.Errorf("Board.WSURL = %q", cfg.Board.WSURL)
	}
	if cfg.Store.ListLimit != 50 {
		t.Errorf("Store.ListLimit = %d", cfg.Store.ListLimit)
	}
	if cfg.Watch.RemoteStore != RemoteStoreBoard {
		t.Errorf("Watch.RemoteStore = %q", cfg.Watch.RemoteStore)
	}
	if cfg.Server.Addr() != "0.0.0.0:9090" {
		t.Errorf("Addr() = %q", cfg.Server.Addr())
	}
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("BOARD_API_URL", "https://boards.example.com/focalboard/")
	t.Setenv("COOLDOWN_WINDOW", "90s")
	t.Setenv("COOLDOWN_BACKEND", "Redis")
	t.Setenv("CORS_ORIGINS", "http://a.test, ,http://b.test")
	t.Setenv("SERVER_PORT", "8081")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Board.APIURL != "https://boards.example.com/focalboard" {
		t.Errorf("Board.APIURL = %q", cfg.Board.APIURL)
	}
	if cfg.Board.WSURL != "wss://boards.example.com/focalboard/ws" {
		t.Errorf("Board.WSURL = %q", cfg.Board.WSURL)
	}
	if cfg.Cooldown.Window != 90*time.Second {
		t.Errorf("Cooldown.Window = %v", cfg.Cooldown.Window)
	}
	if cfg.Cooldown.Backend != "redis" {
		t.Errorf("Cooldown.Backend = %q", cfg.Cooldown.Backend)
	}
	if len(cfg.Server.CORSOrigins) != 2 {
		t.Errorf("CORSOrigins = %v", cfg.Server.CORSOrigins)
	}
	if cfg.Server.Port != 8081 {
		t.Errorf("Server.Port = %d", cfg.Server.Port)
	}
	if cfg.Email.LinkBaseURL != "https://boards.example.com/focalboard" {
		t.Errorf("Email.LinkBaseURL = %q", cfg.Email.LinkBaseURL)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing secret", map[string]string{"JWT_SECRET": "", "BOARD_TEAM_ID": "t"}},
		{"missing team", map[string]string{"JWT_SECRET": "s", "BOARD_TEAM_ID": ""}},
		{"bad backend", map[string]string{"JWT_SECRET": "s", "BOARD_TEAM_ID": "t", "COOLDOWN_BACKEND": "disk"}},
		{"nothing enabled", map[string]string{"JWT_SECRET": "s", "WATCH_ENABLED": "false", "STORE_ENABLED": "false"}},
		{"bad api scheme", map[string]string{"JWT_SECRET": "s", "BOARD_TEAM_ID": "t", "BOARD_API_URL": "ftp://x"}},
		{"bad remote store", map[string]string{"JWT_SECRET": "s", "BOARD_TEAM_ID": "t", "WATCH_REMOTE_STORE": "s3"}},
		{"local store disabled", map[string]string{"JWT_SECRET": "s", "BOARD_TEAM_ID": "t", "WATCH_REMOTE_STORE": "local"}},
		{"email without key", map[string]string{"JWT_SECRET": "s", "BOARD_TEAM_ID": "t", "EMAIL_ENABLED": "true", "EMAIL_FROM": "bw@example.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatal("Load() succeeded, want error")
			}
		})
	}
}

func TestStoreOnlyNeedsNoTeam(t *testing.T) {
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("BOARD_TEAM_ID", "")
	t.Setenv("WATCH_ENABLED", "false")
	t.Setenv("STORE_ENABLED", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !cfg.Store.Enabled || cfg.Watch.Enabled {
		t.Errorf("unexpected flags: store=%v watch=%v", cfg.Store.Enabled, cfg.Watch.Enabled)
	}
}
