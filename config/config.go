// Package config loads the service configuration.
//
// Values come from the environment (a .env file is loaded first when
// present) with defaults for everything but the secrets. Durations use Go
// syntax ("5m", "150ms").
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config carries every setting, grouped by concern.
type Config struct {
	App      AppConfig
	Server   ServerConfig
	JWT      JWTConfig
	Board    BoardConfig
	Watch    WatchConfig
	Cooldown CooldownConfig
	Redis    RedisConfig
	Store    StoreConfig
	Email    EmailConfig
}

// AppConfig holds process-wide settings.
type AppConfig struct {
	Env      string // "development" or "production"
	LogLevel string
}

// ServerConfig is the HTTP listener.
type ServerConfig struct {
	Host        string
	Port        int
	CORSOrigins []string
}

// JWTConfig signs and verifies the bearer tokens of the served APIs.
type JWTConfig struct {
	Secret      string
	TokenExpiry time.Duration
}

// BoardConfig points at the board server the watcher follows.
type BoardConfig struct {
	APIURL         string // e.g. http://localhost:8000
	WSURL          string // derived from APIURL when empty
	Token          string
	TeamID         string
	RequestTimeout time.Duration
}

// WatchConfig tunes the notification watcher.
type WatchConfig struct {
	Enabled          bool
	Language         string
	BatchDelay       time.Duration
	TrackerCapacity  int
	TrackerMaxAge    time.Duration // 0 keeps entries until evicted by capacity
	ReloadLimit      int
	InboxCapacity    int
	RemoteWriteLimit time.Duration
	RemoteStore      string // "board", "local" or "none"
}

// Remote store choices of the watcher.
const (
	RemoteStoreBoard = "board"
	RemoteStoreLocal = "local"
	RemoteStoreNone  = "none"
)

// CooldownConfig selects the duplicate-suppression gate.
type CooldownConfig struct {
	Window   time.Duration
	Backend  string // "memory" or "redis"
	Capacity int    // memory backend; must exceed the keys that can fire within one Window
}

// RedisConfig is used when Cooldown.Backend is "redis".
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// StoreConfig enables the self-hosted notification store.
type StoreConfig struct {
	Enabled         bool
	DatabasePath    string
	WritesPerMinute int
	ListLimit       int
}

// EmailConfig forwards emitted notifications by email through Resend.
// To falls back to the viewer's account email when empty.
type EmailConfig struct {
	Enabled      bool
	ResendAPIKey string
	From         string
	To           string
	LinkBaseURL  string // prefixed to notification links; defaults to BOARD_API_URL
}

// Load reads the configuration. A missing .env file is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		App: AppConfig{
			Env:      v.GetString("APP_ENV"),
			LogLevel: v.GetString("LOG_LEVEL"),
		},
		Server: ServerConfig{
			Host:        v.GetString("SERVER_HOST"),
			Port:        v.GetInt("SERVER_PORT"),
			CORSOrigins: splitList(v.GetString("CORS_ORIGINS")),
		},
		JWT: JWTConfig{
			Secret:      v.GetString("JWT_SECRET"),
			TokenExpiry: v.GetDuration("JWT_TOKEN_EXPIRY"),
		},
		Board: BoardConfig{
			APIURL:         strings.TrimRight(v.GetString("BOARD_API_URL"), "/"),
			WSURL:          v.GetString("BOARD_WS_URL"),
			Token:          v.GetString("BOARD_API_TOKEN"),
			TeamID:         v.GetString("BOARD_TEAM_ID"),
			RequestTimeout: v.GetDuration("BOARD_REQUEST_TIMEOUT"),
		},
		Watch: WatchConfig{
			Enabled:          v.GetBool("WATCH_ENABLED"),
			Language:         v.GetString("WATCH_LANGUAGE"),
			BatchDelay:       v.GetDuration("WATCH_BATCH_DELAY"),
			TrackerCapacity:  v.GetInt("WATCH_TRACKER_CAPACITY"),
			TrackerMaxAge:    v.GetDuration("WATCH_TRACKER_MAX_AGE"),
			ReloadLimit:      v.GetInt("WATCH_RELOAD_LIMIT"),
			InboxCapacity:    v.GetInt("WATCH_INBOX_CAPACITY"),
			RemoteWriteLimit: v.GetDuration("WATCH_REMOTE_WRITE_TIMEOUT"),
			RemoteStore:      strings.ToLower(v.GetString("WATCH_REMOTE_STORE")),
		},
		Cooldown: CooldownConfig{
			Window:   v.GetDuration("COOLDOWN_WINDOW"),
			Backend:  strings.ToLower(v.GetString("COOLDOWN_BACKEND")),
			Capacity: v.GetInt("COOLDOWN_CAPACITY"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			Prefix:   v.GetString("REDIS_PREFIX"),
		},
		Store: StoreConfig{
			Enabled:         v.GetBool("STORE_ENABLED"),
			DatabasePath:    v.GetString("DATABASE_PATH"),
			WritesPerMinute: v.GetInt("STORE_WRITES_PER_MINUTE"),
			ListLimit:       v.GetInt("STORE_LIST_LIMIT"),
		},
		Email: EmailConfig{
			Enabled:      v.GetBool("EMAIL_ENABLED"),
			ResendAPIKey: v.GetString("RESEND_API_KEY"),
			From:         v.GetString("EMAIL_FROM"),
			To:           v.GetString("EMAIL_TO"),
			LinkBaseURL:  strings.TrimRight(v.GetString("EMAIL_LINK_BASE_URL"), "/"),
		},
	}

	if cfg.Email.LinkBaseURL == "" {
		cfg.Email.LinkBaseURL = cfg.Board.APIURL
	}

	if cfg.Board.WSURL == "" && cfg.Board.APIURL != "" {
		wsURL, err := deriveWSURL(cfg.Board.APIURL)
		if err != nil {
			return nil, fmt.Errorf("invalid BOARD_API_URL: %w", err)
		}
		cfg.Board.WSURL = wsURL
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 9090)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")

	v.SetDefault("JWT_TOKEN_EXPIRY", "24h")

	v.SetDefault("BOARD_API_URL", "http://localhost:8000")
	v.SetDefault("BOARD_REQUEST_TIMEOUT", "10s")

	v.SetDefault("WATCH_ENABLED", true)
	v.SetDefault("WATCH_LANGUAGE", "en")
	v.SetDefault("WATCH_BATCH_DELAY", "100ms")
	v.SetDefault("WATCH_TRACKER_CAPACITY", 10000)
	v.SetDefault("WATCH_TRACKER_MAX_AGE", "0s")
	v.SetDefault("WATCH_RELOAD_LIMIT", 100)
	v.SetDefault("WATCH_INBOX_CAPACITY", 500)
	v.SetDefault("WATCH_REMOTE_WRITE_TIMEOUT", "10s")
	v.SetDefault("WATCH_REMOTE_STORE", RemoteStoreBoard)

	v.SetDefault("COOLDOWN_WINDOW", "5m")
	v.SetDefault("COOLDOWN_BACKEND", "memory")
	v.SetDefault("COOLDOWN_CAPACITY", 10000)

	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_PREFIX", "boardwatch:cooldown:")

	v.SetDefault("STORE_ENABLED", false)
	v.SetDefault("DATABASE_PATH", "./data/boardwatch.db")
	v.SetDefault("STORE_WRITES_PER_MINUTE", 120)
	v.SetDefault("STORE_LIST_LIMIT", 50)

	v.SetDefault("EMAIL_ENABLED", false)
}

func (c *Config) validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET environment variable is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid SERVER_PORT: %d", c.Server.Port)
	}
	if c.Watch.Enabled {
		if c.Board.APIURL == "" {
			return fmt.Errorf("BOARD_API_URL is required when the watcher is enabled")
		}
		if c.Board.TeamID == "" {
			return fmt.Errorf("BOARD_TEAM_ID is required when the watcher is enabled")
		}
		switch c.Watch.RemoteStore {
		case RemoteStoreBoard, RemoteStoreNone:
		case RemoteStoreLocal:
			if !c.Store.Enabled {
				return fmt.Errorf("WATCH_REMOTE_STORE=local requires STORE_ENABLED=true")
			}
		default:
			return fmt.Errorf("invalid WATCH_REMOTE_STORE %q (want board, local or none)", c.Watch.RemoteStore)
		}
	}
	if c.Email.Enabled {
		if !c.Watch.Enabled {
			return fmt.Errorf("EMAIL_ENABLED requires WATCH_ENABLED=true")
		}
		if c.Email.ResendAPIKey == "" || c.Email.From == "" {
			return fmt.Errorf("RESEND_API_KEY and EMAIL_FROM are required when EMAIL_ENABLED is true")
		}
	}
	if c.Cooldown.Window <= 0 {
		return fmt.Errorf("COOLDOWN_WINDOW must be positive")
	}
	switch c.Cooldown.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("invalid COOLDOWN_BACKEND %q (want memory or redis)", c.Cooldown.Backend)
	}
	if !c.Watch.Enabled && !c.Store.Enabled {
		return fmt.Errorf("nothing to run: both WATCH_ENABLED and STORE_ENABLED are false")
	}
	return nil
}

// Addr returns the listen address, e.g. "0.0.0.0:9090".
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// deriveWSURL turns http(s)://host/base into ws(s)://host/base/ws.
func deriveWSURL(apiURL string) (string, error) {
	u, err := url.Parse(apiURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	return u.String(), nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
