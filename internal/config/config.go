package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Preference storage backends
const (
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	OAuth     OAuthConfig
	TMDB      TMDBConfig
	Session   SessionConfig
	Recommend RecommendConfig
	Log       LogConfig
	Storage   StorageConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Env  string
	Port string
	Host string
}

type DatabaseConfig struct {
	URL string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	TLS      bool
}

type OAuthConfig struct {
	GoogleClientID     string
	GoogleClientSecret string
	GitHubClientID     string
	GitHubClientSecret string
	CallbackHost       string
}

type TMDBConfig struct {
	APIKey            string
	BaseURL           string
	ImageBaseURL      string
	RequestsPerSecond float64
	Burst             int
	CacheTTL          time.Duration
}

type SessionConfig struct {
	SecretKey string
}

// RecommendConfig tunes the recommendation engine
type RecommendConfig struct {
	// WatchRegion selects the country whose streaming providers are shown
	WatchRegion string
	// UserLanguage is the fallback for the "my language" option
	UserLanguage   string
	RequestTimeout time.Duration
	// Seed fixes the random source; 0 seeds from the clock
	Seed int64
}

type LogConfig struct {
	Level  string
	Format string
	Caller bool
}

// StorageConfig selects where user preferences are persisted
type StorageConfig struct {
	Backend string
}

type RateLimitConfig struct {
	MaxRequests int
	Window      time.Duration
}

// Load reads environment variables and returns a Config struct
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Env:  getEnv("APP_ENV", "local"),
			Port: getEnv("PORT", "4000"),
			Host: getEnv("HOST", "http://localhost:4000"),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			TLS:      getBool("REDIS_TLS", false),
		},
		OAuth: OAuthConfig{
			GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
			GitHubClientID:     getEnv("GITHUB_CLIENT_ID", ""),
			GitHubClientSecret: getEnv("GITHUB_CLIENT_SECRET", ""),
			CallbackHost:       getEnv("HOST", "http://localhost:4000"),
		},
		TMDB: TMDBConfig{
			APIKey:            getEnv("TMDB_KEY", ""),
			BaseURL:           getEnv("TMDB_URL", "https://api.themoviedb.org/3"),
			ImageBaseURL:      getEnv("TMDB_IMAGE_URL", "https://image.tmdb.org/t/p/w500"),
			RequestsPerSecond: getFloat("TMDB_RPS", 40),
			Burst:             getInt("TMDB_BURST", 20),
			CacheTTL:          getDuration("TMDB_CACHE_TTL", 6*time.Hour),
		},
		Session: SessionConfig{
			SecretKey: getEnv("SECRET_KEY", ""),
		},
		Recommend: RecommendConfig{
			WatchRegion:    strings.ToUpper(getEnv("WATCH_REGION", "PT")),
			UserLanguage:   strings.ToLower(getEnv("USER_LANGUAGE", "en")),
			RequestTimeout: getDuration("RECOMMEND_TIMEOUT", 10*time.Second),
			Seed:           int64(getInt("RECOMMEND_SEED", 0)),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
			Caller: getBool("LOG_CALLER", false),
		},
		Storage: StorageConfig{
			Backend: strings.ToLower(getEnv("PREFERENCE_BACKEND", BackendPostgres)),
		},
		RateLimit: RateLimitConfig{
			MaxRequests: getInt("RATE_LIMIT_MAX", 120),
			Window:      getDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required fields and value ranges
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Session.SecretKey == "" {
		return fmt.Errorf("SECRET_KEY is required")
	}
	if len(c.Session.SecretKey) < 32 {
		return fmt.Errorf("SECRET_KEY must be at least 32 characters")
	}
	if c.TMDB.APIKey == "" {
		return fmt.Errorf("TMDB_KEY is required")
	}
	if c.Storage.Backend != BackendPostgres && c.Storage.Backend != BackendRedis {
		return fmt.Errorf("PREFERENCE_BACKEND must be %q or %q, got %q", BackendPostgres, BackendRedis, c.Storage.Backend)
	}
	if c.Recommend.RequestTimeout <= 0 {
		return fmt.Errorf("RECOMMEND_TIMEOUT must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getBool(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

func getInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

func getFloat(key string, defaultValue float64) float64 {
	v, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return defaultValue
	}
	return v
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	v, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// IsDevelopment returns true if running in development/local mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "local" || c.Server.Env == "development"
}

// RedisAddr returns the Redis address in host:port format
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}
