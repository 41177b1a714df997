package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "FORUM_API_URL", "FORUM_WS_URL", "FORUM_API_TIMEOUT", "FORUM_WS_MAX_RETRIES", "FORUM_WS_BACKOFF_MS", "FORUM_DATA_DIR"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.Server.Addr != ":3000" {
		t.Fatalf("unexpected addr %s", cfg.Server.Addr)
	}
	if cfg.API.BaseURL != "http://localhost:8000" {
		t.Fatalf("unexpected api url %s", cfg.API.BaseURL)
	}
	if cfg.Push.URL != "ws://localhost:8000/ws/questions" {
		t.Fatalf("unexpected ws url %s", cfg.Push.URL)
	}
	if cfg.Push.MaxRetries != 3 || cfg.Push.BaseDelay != time.Second {
		t.Fatalf("unexpected push policy %+v", cfg.Push)
	}
	if cfg.Storage.DataDir != ".forum" {
		t.Fatalf("unexpected data dir %s", cfg.Storage.DataDir)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "127.0.0.1:4000")
	t.Setenv("FORUM_API_URL", "https://forum.example.com/")
	t.Setenv("FORUM_WS_URL", "wss://forum.example.com/ws/questions")
	t.Setenv("FORUM_WS_MAX_RETRIES", "5")
	t.Setenv("FORUM_WS_BACKOFF_MS", "250")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.Server.Addr != "127.0.0.1:4000" {
		t.Fatalf("unexpected addr %s", cfg.Server.Addr)
	}
	if cfg.API.BaseURL != "https://forum.example.com" {
		t.Fatalf("trailing slash should be trimmed, got %s", cfg.API.BaseURL)
	}
	if cfg.Push.MaxRetries != 5 || cfg.Push.BaseDelay != 250*time.Millisecond {
		t.Fatalf("unexpected push policy %+v", cfg.Push)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"PORT":                 "80 80",
		"FORUM_API_URL":        "ftp://example.com",
		"FORUM_WS_URL":         "http://example.com/ws",
		"FORUM_WS_MAX_RETRIES": "three",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%q", key, value)
			}
		})
	}
}
