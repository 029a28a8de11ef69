package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"sizechart-backend/internal/infrastructure/ratelimit"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

// Config is populated from environment variables.
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Cache     CacheConfig
	Widget    WidgetConfig
	Queue     QueueConfig
}

type AppConfig struct {
	Name        string
	Environment string // development, staging, production
	Port        string
	Version     string
	LogLevel    string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MinConns int
}

type RedisConfig struct {
	Host     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	AccessTokenExpiry int // minutes
}

// =====================================================
// API KEYS, RATE LIMITS, CORS
// =====================================================

type AuthConfig struct {
	// Required refuses anonymous calls to the public read API.
	Required bool
	// UsageQueue records last-used timestamps through asynq instead of a
	// goroutine.
	UsageQueue   bool
	UsageTimeout time.Duration
}

type RateLimitConfig struct {
	Disabled bool
	Store    string // memory, redis
	Prefix   string
	Read     ratelimit.Policy
	Write    ratelimit.Policy
	Auth     ratelimit.Policy
}

type CORSConfig struct {
	AllowedOrigins []string
}

type CacheConfig struct {
	Enabled bool
	Prefix  string
	TTL     time.Duration
}

type WidgetConfig struct {
	FetchTimeout time.Duration
	// APIBaseURL makes the server-side runtime call the read API over HTTP.
	// Empty resolves charts in process.
	APIBaseURL string
}

type QueueConfig struct {
	Concurrency     int
	ExpirySweepCron string
}

// Load reads config from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Size Chart API"),
			Environment: getEnv("APP_ENV", "development"),
			Port:        getEnv("APP_PORT", "8080"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "sizecharts"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvInt("DB_MAX_CONNS", 25),
			MinConns: getEnvInt("DB_MIN_CONNS", 5),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:            getEnv("JWT_SECRET", defaultJWTSecret),
			AccessTokenExpiry: getEnvInt("JWT_ACCESS_EXPIRY", 60),
		},
		Auth: AuthConfig{
			Required:     getEnvBool("API_AUTH_REQUIRED", false),
			UsageQueue:   getEnvBool("APIKEY_USAGE_QUEUE", false),
			UsageTimeout: getEnvDuration("APIKEY_USAGE_TIMEOUT", 5*time.Second),
		},
		RateLimit: RateLimitConfig{
			Disabled: getEnvBool("RATE_LIMIT_DISABLED", false),
			Store:    strings.ToLower(getEnv("RATE_LIMIT_STORE", "memory")),
			Prefix:   getEnv("RATE_LIMIT_PREFIX", "ratelimit:"),
			Read:     loadPolicy("READ", ratelimit.ReadPolicy),
			Write:    loadPolicy("WRITE", ratelimit.WritePolicy),
			Auth:     loadPolicy("AUTH", ratelimit.AuthPolicy),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseOrigins(os.Getenv("CORS_ALLOWED_ORIGINS")),
		},
		Cache: CacheConfig{
			Enabled: getEnvBool("CATALOG_CACHE_ENABLED", true),
			Prefix:  getEnv("CACHE_PREFIX", "sizechart:"),
			TTL:     getEnvDuration("CATALOG_CACHE_TTL", 60*time.Second),
		},
		Widget: WidgetConfig{
			FetchTimeout: getEnvDuration("WIDGET_FETCH_TIMEOUT", 10*time.Second),
			APIBaseURL:   getEnv("WIDGET_API_BASE_URL", ""),
		},
		Queue: QueueConfig{
			Concurrency:     getEnvInt("WORKER_CONCURRENCY", 5),
			ExpirySweepCron: getEnv("APIKEY_EXPIRY_SWEEP_CRON", "*/15 * * * *"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail at first use.
func (c *Config) Validate() error {
	if c.App.Environment == "production" {
		if c.JWT.Secret == defaultJWTSecret {
			return fmt.Errorf("JWT_SECRET must be set in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD must be set in production")
		}
	}

	switch c.RateLimit.Store {
	case "memory", "redis":
	default:
		return fmt.Errorf("RATE_LIMIT_STORE must be memory or redis, got %q", c.RateLimit.Store)
	}
	for _, p := range []ratelimit.Policy{c.RateLimit.Read, c.RateLimit.Write, c.RateLimit.Auth} {
		if p.Limit <= 0 || p.Window <= 0 {
			return fmt.Errorf("rate limit policy %s needs a positive limit and window", p.Name)
		}
	}
	if c.Widget.FetchTimeout <= 0 {
		return fmt.Errorf("WIDGET_FETCH_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// loadPolicy reads RATE_LIMIT_<NAME>_MAX and RATE_LIMIT_<NAME>_WINDOW.
func loadPolicy(name string, def ratelimit.Policy) ratelimit.Policy {
	return ratelimit.Policy{
		Name:   def.Name,
		Limit:  int64(getEnvInt("RATE_LIMIT_"+name+"_MAX", int(def.Limit))),
		Window: getEnvDuration("RATE_LIMIT_"+name+"_WINDOW", def.Window),
	}
}

// Helper functions
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvDuration accepts Go durations ("90s") or plain seconds ("90").
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	if secs, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(secs) * time.Second
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// parseOrigins splits a comma separated allow-list, trimming blanks and
// trailing slashes.
func parseOrigins(raw string) []string {
	var out []string
	for _, o := range strings.Split(raw, ",") {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o != "" {
			out = append(out, o)
		}
	}
	return out
}
