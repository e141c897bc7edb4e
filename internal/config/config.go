package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage drivers
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Receipt  ReceiptConfig
	LogLevel string
}

type ServerConfig struct {
	Port    string
	AppName string
}

// DatabaseConfig holds the database configuration
type DatabaseConfig struct {
	Driver   string
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	TimeZone string
	LogLevel string
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

type ReceiptConfig struct {
	DefaultLineLength int
}

// DSN returns DATABASE_URL when set, otherwise a key/value DSN built from the parts.
func (c *DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode, c.TimeZone,
	)
}

// Load reads the configuration from environment variables.
// Call godotenv.Load before this if a .env file should be honoured.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:    getEnv("PORT", "3000"),
			AppName: getEnv("APP_NAME", "Receipts API v1.0"),
		},
		Database: DatabaseConfig{
			Driver:   strings.ToLower(getEnv("STORAGE_DRIVER", StoragePostgres)),
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			Name:     getEnv("DB_NAME", "receipts"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			TimeZone: getEnv("DB_TIMEZONE", "UTC"),
			LogLevel: strings.ToLower(getEnv("DB_LOG_LEVEL", "warn")),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", "your-super-secret-key-change-in-production"),
			TokenTTL:  time.Duration(getEnvAsInt("JWT_TTL_MINUTES", 30)) * time.Minute,
		},
		Receipt: ReceiptConfig{
			DefaultLineLength: getEnvAsInt("RECEIPT_DEFAULT_LINE_LENGTH", 40),
		},
		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "info")),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}
