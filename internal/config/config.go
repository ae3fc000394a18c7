package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// Content pipeline configuration
	Content ContentConfig

	// Mention notification configuration
	Notify NotifyConfig

	// Feed and hub ping configuration
	Feed FeedConfig

	// Logging configuration
	Log LogConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host           string
	Port           string
	User           string
	Password       string
	Name           string
	SSLMode        string
	MaxOpenConns   int
	MaxIdleConns   int
	MaxLifetime    time.Duration
	MigrationsPath string
}

// ContentConfig holds sanitizer and preview settings
type ContentConfig struct {
	AllowedTags   []string
	AllowedAttrs  []string
	PreviewLength int // in visible runes
	DefaultFormat string
	MaxTags       int
}

// NotifyConfig selects where mention notifications go
type NotifyConfig struct {
	Backend  string // "database" or "redis"
	RedisURL string
	QueueKey string
}

// FeedConfig holds feed export and hub ping settings
type FeedConfig struct {
	PingEnabled  bool
	FeedURL      string
	HubURL       string
	PingAttempts uint
	PingTimeout  time.Duration
	ExportLimit  int
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string
	Format string // "json" or "pretty"
}

const (
	NotifyBackendDatabase = "database"
	NotifyBackendRedis    = "redis"
)

// DefaultAllowedTags is the sanitizer allow-list used when none is configured
var DefaultAllowedTags = []string{
	"p", "br", "b", "i", "u", "s", "strong", "em", "strike", "sup", "sub",
	"a", "img", "blockquote", "code", "pre", "ul", "ol", "li",
	"h1", "h2", "h3", "h4", "h5", "h6", "hr",
}

// DefaultAllowedAttrs is the attribute allow-list used when none is configured
var DefaultAllowedAttrs = []string{"href", "src", "alt", "title"}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Host:           getEnv("DB_HOST", "localhost"),
			Port:           getEnv("DB_PORT", "5432"),
			User:           getEnv("DB_USER", "postgres"),
			Password:       getEnv("DB_PASSWORD", "postgres"),
			Name:           getEnv("DB_NAME", "community_blog"),
			SSLMode:        getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:   getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:   getIntEnv("DB_MAX_IDLE_CONNS", 5),
			MaxLifetime:    getDurationEnv("DB_MAX_LIFETIME", 5*time.Minute),
			MigrationsPath: getEnv("MIGRATIONS_PATH", "./migrations"),
		},
		Content: ContentConfig{
			AllowedTags:   getListEnv("CONTENT_ALLOWED_TAGS", DefaultAllowedTags),
			AllowedAttrs:  getListEnv("CONTENT_ALLOWED_ATTRS", DefaultAllowedAttrs),
			PreviewLength: getIntEnv("CONTENT_PREVIEW_LENGTH", 1000),
			DefaultFormat: getEnv("CONTENT_DEFAULT_FORMAT", "html"),
			MaxTags:       getIntEnv("CONTENT_MAX_TAGS", 20),
		},
		Notify: NotifyConfig{
			Backend:  getEnv("NOTIFY_BACKEND", NotifyBackendDatabase),
			RedisURL: getEnv("REDIS_URL", ""),
			QueueKey: getEnv("NOTIFY_QUEUE_KEY", "notifications:mention"),
		},
		Feed: FeedConfig{
			PingEnabled:  getBoolEnv("FEED_PING_ENABLED", false),
			FeedURL:      getEnv("FEED_URL", ""),
			HubURL:       getEnv("FEED_HUB_URL", ""),
			PingAttempts: uint(getIntEnv("FEED_PING_ATTEMPTS", 3)),
			PingTimeout:  getDurationEnv("FEED_PING_TIMEOUT", 5*time.Second),
			ExportLimit:  getIntEnv("FEED_EXPORT_LIMIT", 50),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.Content.PreviewLength <= 0 {
		return fmt.Errorf("CONTENT_PREVIEW_LENGTH must be positive")
	}
	if c.Content.DefaultFormat != "html" && c.Content.DefaultFormat != "markdown" {
		return fmt.Errorf("CONTENT_DEFAULT_FORMAT must be html or markdown")
	}
	switch c.Notify.Backend {
	case NotifyBackendDatabase:
	case NotifyBackendRedis:
		if c.Notify.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required for the redis notify backend")
		}
	default:
		return fmt.Errorf("unknown NOTIFY_BACKEND: %s", c.Notify.Backend)
	}
	if c.Feed.PingEnabled && (c.Feed.FeedURL == "" || c.Feed.HubURL == "") {
		return fmt.Errorf("FEED_URL and FEED_HUB_URL are required when FEED_PING_ENABLED is set")
	}
	return nil
}

// GetDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}
