package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates all runtime settings required by the client and the stub backend.
type Config struct {
	AppName     string
	Environment string
	API         APIConfig
	Auth        AuthConfig
	Storage     StorageConfig
	Redis       RedisConfig
	Poller      PollerConfig
	Context     ContextConfig
	Logger      LoggerConfig
	MockAPI     MockAPIConfig
}

type APIConfig struct {
	URL      string
	Prefix   string
	Timeout  time.Duration
	MaxConns int
}

type AuthConfig struct {
	PublicPaths []string
	DefaultRole string
}

// StorageConfig selects where the session record lives: bolt, redis or memory.
type StorageConfig struct {
	Driver string
	Record string
	Path   string
	Bucket string
}

type RedisConfig struct {
	URL        string
	Password   string
	DB         int
	SessionTTL time.Duration
}

type PollerConfig struct {
	Interval        time.Duration
	MonitorInterval time.Duration
}

type ContextConfig struct {
	ShutdownTimeout time.Duration
}

type LoggerConfig struct {
	Level    string
	Encoding string
}

type MockAPIConfig struct {
	Host      string
	Port      string
	JWTSecret string
	TokenTTL  time.Duration
}

// Load reads configuration from environment variables (optionally .env)
// and applies defaults suitable for a local backend.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		AppName:     getString("APP_NAME", "rozklad"),
		Environment: getString("APP_ENV", "development"),
		API: APIConfig{
			URL:      getString("API_URL", "http://localhost:8000"),
			Prefix:   getString("API_PREFIX", "/api/v1"),
			Timeout:  getDuration("HTTP_TIMEOUT", 10*time.Second),
			MaxConns: getInt("HTTP_MAX_CONNS", 16),
		},
		Auth: AuthConfig{
			PublicPaths: getList("AUTH_PUBLIC_PATHS", []string{
				"/auth/login",
				"/auth/register",
				"/auth/verify-email",
				"/auth/resend-verification",
			}),
			DefaultRole: getString("AUTH_DEFAULT_ROLE", "student"),
		},
		Storage: StorageConfig{
			Driver: strings.ToLower(getString("SESSION_STORAGE", "bolt")),
			Record: getString("SESSION_RECORD", "auth-storage"),
			Path:   getString("BOLTDB_PATH", defaultBoltPath()),
			Bucket: getString("BOLTDB_BUCKET", "rozklad"),
		},
		Redis: RedisConfig{
			URL:        getString("REDIS_URL", "redis://localhost:6379"),
			Password:   os.Getenv("REDIS_PASSWORD"),
			DB:         getInt("REDIS_DB", 0),
			SessionTTL: getDuration("REDIS_SESSION_TTL", 7*24*time.Hour),
		},
		Poller: PollerConfig{
			Interval:        getDuration("POLL_INTERVAL", 30*time.Second),
			MonitorInterval: getDuration("MONITOR_INTERVAL", 10*time.Second),
		},
		Context: ContextConfig{
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
		},
		Logger: LoggerConfig{
			Level:    getString("LOG_LEVEL", "warn"),
			Encoding: getString("LOG_ENCODING", "console"),
		},
		MockAPI: MockAPIConfig{
			Host:      getString("MOCKAPI_HOST", "127.0.0.1"),
			Port:      getString("MOCKAPI_PORT", "8000"),
			JWTSecret: getString("MOCKAPI_JWT_SECRET", "dev-secret"),
			TokenTTL:  getDuration("MOCKAPI_TOKEN_TTL", 30*time.Minute),
		},
	}

	switch cfg.Storage.Driver {
	case "bolt", "redis", "memory":
	default:
		return nil, fmt.Errorf("unsupported SESSION_STORAGE %q", cfg.Storage.Driver)
	}

	return cfg, nil
}

// MustLoad panics if configuration cannot be loaded.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// MockAPIAddress returns the listen address of the stub backend.
func (c *Config) MockAPIAddress() string {
	return fmt.Sprintf("%s:%s", c.MockAPI.Host, c.MockAPI.Port)
}

func defaultBoltPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "./data/session.db"
	}
	return filepath.Join(dir, "rozklad", "session.db")
}

func getString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if strings.TrimSpace(val) == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}
