package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	BaseURL     string
	WSURL       string
	RefreshPath string

	TokenStore     string // memory|file|redis|postgres
	TokenFile      string
	RedisAddr      string
	RedisPassword  string
	RedisNamespace string
	DatabaseURL    string

	RequestTimeout time.Duration
	PollInterval   time.Duration
	MaxRetries     int

	TelegramToken  string
	TelegramChatID int64

	// DigestAt is the local time of the daily attendance summary; zero disables it.
	DigestAt time.Duration
	DigestOn bool

	Location  *time.Location
	HTTPAddr  string
	LogLevel  string
	Env       string // dev|prod
	SentryDSN string
	Release   string
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	tz := getenv("TZ", "Africa/Casablanca")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.Local
	}

	chatID, err := parseChatID(os.Getenv("TELEGRAM_CHAT_ID"))
	if err != nil {
		return nil, fmt.Errorf("TELEGRAM_CHAT_ID: %w", err)
	}

	cfg := &Config{
		BaseURL:        strings.TrimRight(getenv("EDUHERE_BASE_URL", "http://localhost:8000"), "/"),
		RefreshPath:    getenv("EDUHERE_REFRESH_PATH", "/auth/refresh/"),
		TokenStore:     strings.ToLower(getenv("TOKEN_STORE", "file")),
		TokenFile:      getenv("TOKEN_FILE", defaultTokenFile()),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RedisNamespace: getenv("REDIS_NAMESPACE", "default"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RequestTimeout: getenvDuration("REQUEST_TIMEOUT", 15*time.Second),
		PollInterval:   getenvDuration("POLL_INTERVAL", time.Minute),
		MaxRetries:     getenvInt("MAX_RETRIES", 3),
		TelegramToken:  os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID: chatID,
		Location:       loc,
		HTTPAddr:       getenv("HTTP_ADDR", ":8090"),
		LogLevel:       getenv("LOG_LEVEL", "info"),
		Env:            getenv("ENV", "dev"),
		SentryDSN:      os.Getenv("SENTRY_DSN"),
		Release:        getenv("RELEASE", "dev"),
	}

	if v := strings.TrimSpace(os.Getenv("DIGEST_AT")); v != "" {
		t, err := time.Parse("15:04", v)
		if err != nil {
			return nil, fmt.Errorf("DIGEST_AT: want HH:MM, got %q", v)
		}
		cfg.DigestAt = time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute
		cfg.DigestOn = true
	}

	cfg.WSURL = os.Getenv("EDUHERE_WS_URL")
	if cfg.WSURL == "" {
		cfg.WSURL, err = DeriveWSURL(cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("EDUHERE_BASE_URL: %w", err)
		}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.TokenStore {
	case "memory", "file":
	case "redis":
		if c.RedisAddr == "" {
			return fmt.Errorf("TOKEN_STORE=redis requires REDIS_ADDR")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("TOKEN_STORE=postgres requires DATABASE_URL")
		}
	default:
		return fmt.Errorf("TOKEN_STORE: unknown store %q", c.TokenStore)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("MAX_RETRIES must not be negative")
	}
	return nil
}

// DeriveWSURL maps http(s)://host to ws(s)://host/ws/attendance/.
func DeriveWSURL(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http", "":
		u.Scheme = "ws"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = "/ws/attendance/"
	u.RawQuery = ""
	return u.String(), nil
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "eduhere", "session.json")
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	if val := os.Getenv(key + "_SECONDS"); val != "" {
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}

func parseChatID(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad id %q: %w", s, err)
	}
	return n, nil
}
