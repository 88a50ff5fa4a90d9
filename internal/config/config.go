package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/Netflix/go-env"
	"github.com/christmas-fire/courier/internal/middleware"
	"github.com/samber/lo"
)

const (
	defaultChatPathPrefixes    = "/api/messages,/api/notifications,/ws"
	defaultMessageSendPrefixes = "/api/messages"
	defaultAllowedOrigins      = "http://localhost:3000,http://127.0.0.1:3000"
)

// Config holds application configuration
type Config struct {
	Host     string `env:"HOST,default=0.0.0.0"`
	Port     int    `env:"PORT,default=8080"`
	LogLevel string `env:"LOG_LEVEL,default=info"`

	Storage     string `env:"STORAGE,default=memory"`
	PostgresDSN string `env:"POSTGRES_DSN"`
	AutoSchema  bool   `env:"AUTO_SCHEMA,default=false"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB,default=0"`

	JWTSecret string `env:"JWT_SECRET,required=true"`

	RequestLogPath string `env:"REQUEST_LOG_PATH,default=requests.log"`

	RestrictedStartRaw     string `env:"RESTRICTED_START,default=21:00"`
	RestrictedEndRaw       string `env:"RESTRICTED_END,default=06:00"`
	ChatPathPrefixesRaw    string `env:"CHAT_PATH_PREFIXES"`
	MessageSendPrefixesRaw string `env:"MESSAGE_SEND_PREFIXES"`
	AllowedOriginsRaw      string `env:"ALLOWED_ORIGINS"`

	RateLimitThreshold int           `env:"RATE_LIMIT_THRESHOLD,default=5"`
	RateLimitWindow    time.Duration `env:"RATE_LIMIT_WINDOW,default=60s"`
	CleanupInterval    time.Duration `env:"RATE_LIMIT_CLEANUP_INTERVAL,default=1m"`
	ShutdownTimeout    time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`

	RestrictedStart     middleware.TimeOfDay
	RestrictedEnd       middleware.TimeOfDay
	ChatPathPrefixes    []string
	MessageSendPrefixes []string
	AllowedOrigins      []string
}

// Load reads configuration from the environment. Variables from a .env file must be
// loaded by the caller beforehand.
func Load() (Config, error) {
	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}

	var err error
	if cfg.RestrictedStart, err = middleware.ParseTimeOfDay(cfg.RestrictedStartRaw); err != nil {
		return Config{}, fmt.Errorf("RESTRICTED_START: %w", err)
	}
	if cfg.RestrictedEnd, err = middleware.ParseTimeOfDay(cfg.RestrictedEndRaw); err != nil {
		return Config{}, fmt.Errorf("RESTRICTED_END: %w", err)
	}

	cfg.ChatPathPrefixes = splitList(cfg.ChatPathPrefixesRaw, defaultChatPathPrefixes)
	cfg.MessageSendPrefixes = splitList(cfg.MessageSendPrefixesRaw, defaultMessageSendPrefixes)
	cfg.AllowedOrigins = splitList(cfg.AllowedOriginsRaw, defaultAllowedOrigins)

	switch cfg.Storage {
	case "memory":
	case "postgres":
		if cfg.PostgresDSN == "" {
			return Config{}, fmt.Errorf("config error: POSTGRES_DSN is required when STORAGE=postgres")
		}
	default:
		return Config{}, fmt.Errorf("config error: unknown STORAGE %q", cfg.Storage)
	}

	if cfg.RateLimitThreshold <= 0 {
		return Config{}, fmt.Errorf("config error: RATE_LIMIT_THRESHOLD must be positive")
	}
	if cfg.RateLimitWindow <= 0 {
		return Config{}, fmt.Errorf("config error: RATE_LIMIT_WINDOW must be positive")
	}
	if cfg.CleanupInterval <= 0 {
		return Config{}, fmt.Errorf("config error: RATE_LIMIT_CLEANUP_INTERVAL must be positive")
	}

	return cfg, nil
}

func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func splitList(raw, fallback string) []string {
	if strings.TrimSpace(raw) == "" {
		raw = fallback
	}
	items := lo.Map(strings.Split(raw, ","), func(s string, _ int) string {
		return strings.TrimSpace(s)
	})
	return lo.Compact(items)
}
