package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends for persisted device state
const (
	StorageFile   = "file"
	StorageRedis  = "redis"
	StorageMemory = "memory"
)

// Config holds application configuration
type Config struct {
	Port           string
	APIBaseURL     string
	UploadProxyURL string
	CDNStorageURL  string
	CDNPublicURL   string
	CDNAccessKey   string
	JWTSecret      string
	StorageBackend string
	StatePath      string
	RedisURL       string
	RabbitMQURL    string
	AllowedOrigins string
	Environment    string // development, staging, production

	CacheStaleTime  time.Duration
	CacheGCTime     time.Duration
	CacheMaxRetries int
}

// Load loads configuration from environment variables and validates for production
func Load() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Port:            getEnv("PORT", "3001"),
		APIBaseURL:      strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:3000/api"), "/"),
		UploadProxyURL:  strings.TrimRight(getEnv("UPLOAD_PROXY_URL", "http://localhost:3001"), "/"),
		CDNStorageURL:   strings.TrimRight(getEnv("CDN_STORAGE_URL", "https://storage.bunnycdn.com/aula"), "/"),
		CDNPublicURL:    strings.TrimRight(getEnv("CDN_PUBLIC_URL", "https://aula.b-cdn.net"), "/"),
		CDNAccessKey:    getEnv("CDN_ACCESS_KEY", ""),
		JWTSecret:       getEnv("JWT_SECRET", ""),
		StorageBackend:  getEnv("STORAGE_BACKEND", StorageFile),
		StatePath:       getEnv("STATE_PATH", defaultStatePath()),
		RedisURL:        getEnv("REDIS_URL", ""),
		RabbitMQURL:     getEnv("RABBITMQ_URL", ""),
		AllowedOrigins:  getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:3001"),
		Environment:     getEnv("ENVIRONMENT", "development"),
		CacheStaleTime:  getEnvDuration("CACHE_STALE_TIME", 5*time.Minute),
		CacheGCTime:     getEnvDuration("CACHE_GC_TIME", 10*time.Minute),
		CacheMaxRetries: getEnvInt("CACHE_MAX_RETRIES", 3),
	}

	// Validate production configuration
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	return cfg
}

// Validate checks configuration for security and correctness
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case StorageFile, StorageMemory:
	case StorageRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL must be set when STORAGE_BACKEND=redis")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q (want file, redis or memory)", c.StorageBackend)
	}

	if c.CacheStaleTime <= 0 || c.CacheGCTime <= 0 {
		return fmt.Errorf("CACHE_STALE_TIME and CACHE_GC_TIME must be positive")
	}
	if c.CacheGCTime < c.CacheStaleTime {
		return fmt.Errorf("CACHE_GC_TIME (%s) must not be shorter than CACHE_STALE_TIME (%s)", c.CacheGCTime, c.CacheStaleTime)
	}
	if c.CacheMaxRetries < 0 {
		return fmt.Errorf("CACHE_MAX_RETRIES must not be negative (got %d)", c.CacheMaxRetries)
	}

	if c.IsProduction() && !strings.HasPrefix(c.APIBaseURL, "https://") {
		return fmt.Errorf("API_BASE_URL must use https in production")
	}

	return nil
}

// ValidateUploadProxy adds the checks only the upload proxy needs
func (c *Config) ValidateUploadProxy() error {
	if c.IsProduction() {
		if c.CDNAccessKey == "" {
			return fmt.Errorf("CDN_ACCESS_KEY must be set in production")
		}
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET must be set in production so uploads are authenticated")
		}

		// Warn about non-HTTPS origins in production
		if c.AllowedOrigins != "" {
			log.Println("WARNING: Ensure ALLOWED_ORIGINS uses HTTPS in production")
		}
	} else {
		if c.CDNAccessKey == "" {
			log.Println("CDN_ACCESS_KEY not set; uploads will be rejected by the CDN")
		}
		if c.JWTSecret == "" {
			log.Println("JWT_SECRET not set; token signatures are not verified")
		}
	}
	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev" || c.Environment == ""
}

func defaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".aula/state.json"
	}
	return dir + "/aula/state.json"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Invalid duration for %s (%q), using %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Invalid integer for %s (%q), using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}
