package config

import (
	"testing"
	"time"
)

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("EDUHERE_BASE_URL", "https://school.example.org/")
	t.Setenv("EDUHERE_REFRESH_PATH", "/auth/token/refresh/")
	t.Setenv("TOKEN_STORE", "redis")
	t.Setenv("REDIS_ADDR", "127.0.0.1:6379")
	t.Setenv("REQUEST_TIMEOUT", "5s")
	t.Setenv("POLL_INTERVAL_SECONDS", "30")
	t.Setenv("MAX_RETRIES", "5")
	t.Setenv("TELEGRAM_CHAT_ID", "-100123")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.BaseURL != "https://school.example.org" {
		t.Fatalf("expected trimmed base url, got %s", cfg.BaseURL)
	}
	if cfg.WSURL != "wss://school.example.org/ws/attendance/" {
		t.Fatalf("expected derived ws url, got %s", cfg.WSURL)
	}
	if cfg.RefreshPath != "/auth/token/refresh/" {
		t.Fatalf("expected refresh path override, got %s", cfg.RefreshPath)
	}
	if cfg.TokenStore != "redis" || cfg.RedisAddr != "127.0.0.1:6379" {
		t.Fatalf("expected redis store, got %s %s", cfg.TokenStore, cfg.RedisAddr)
	}
	if cfg.RequestTimeout != 5*time.Second {
		t.Fatalf("expected REQUEST_TIMEOUT 5s, got %s", cfg.RequestTimeout)
	}
	if cfg.PollInterval != 30*time.Second {
		t.Fatalf("expected POLL_INTERVAL 30s, got %s", cfg.PollInterval)
	}
	if cfg.MaxRetries != 5 {
		t.Fatalf("expected MAX_RETRIES 5, got %d", cfg.MaxRetries)
	}
	if cfg.TelegramChatID != -100123 {
		t.Fatalf("expected chat id override, got %d", cfg.TelegramChatID)
	}
}

func TestLoadRejectsIncompleteStore(t *testing.T) {
	t.Setenv("TOKEN_STORE", "postgres")
	t.Setenv("DATABASE_URL", "")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for postgres store without DATABASE_URL")
	}

	t.Setenv("TOKEN_STORE", "floppy")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for unknown store")
	}
}

func TestDeriveWSURL(t *testing.T) {
	got, err := DeriveWSURL("http://10.0.2.2:8000")
	if err != nil {
		t.Fatal(err)
	}
	if got != "ws://10.0.2.2:8000/ws/attendance/" {
		t.Fatalf("unexpected ws url %s", got)
	}
	if _, err := DeriveWSURL("ftp://host"); err == nil {
		t.Fatalf("expected unsupported scheme error")
	}
}

func TestDigestAt(t *testing.T) {
	t.Setenv("TOKEN_STORE", "memory")
	t.Setenv("DIGEST_AT", "18:30")
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.DigestOn || cfg.DigestAt != 18*time.Hour+30*time.Minute {
		t.Fatalf("expected digest at 18:30, got %v %v", cfg.DigestOn, cfg.DigestAt)
	}

	t.Setenv("DIGEST_AT", "6pm")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for malformed DIGEST_AT")
	}
}
