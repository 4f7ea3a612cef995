package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/franciscosanchezn/gin-recipe-api/internal/database"
	"github.com/sirupsen/logrus"
)

// Create a new instance of the logger
// Configure it to log at the desired level
// and format it as JSON for structured logging
var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
	environment := os.Getenv("APP_ENV")
	switch environment {
	case "", "development":
		log.SetLevel(logrus.DebugLevel)
	case "production":
		log.SetLevel(logrus.ErrorLevel)
	default:
		// Default to info level for other environments
		log.SetLevel(logrus.InfoLevel)
	}
}

// Config used for the application configuration, loading the input from environment variables
type Config struct {
	// Server Configuration
	Environment string `json:"environment"`
	Port        int    `json:"port"`
	Host        string `json:"host"`

	// Database configuration
	DBDriver   string `json:"db_driver"`
	DBHost     string `json:"db_host"`
	DBPort     string `json:"db_port"`
	DBUser     string `json:"db_user"`
	DBPassword string `json:"db_password"`
	DBName     string `json:"db_name"`
	DBSSLMode  string `json:"db_sslmode"`
	DBPath     string `json:"db_path"`

	// Logging configuration
	LogLevel string `json:"log_level"`

	// Security Configuration
	JWTSecret         string        `json:"jwt_secret"`
	TokenTTL          time.Duration `json:"token_ttl"`
	OAuthClientID     string        `json:"oauth_client_id"`
	OAuthClientSecret string        `json:"oauth_client_secret"`

	// Public surface
	PublicBaseURL      string   `json:"public_base_url"`
	MediaRoot          string   `json:"media_root"`
	MediaURL           string   `json:"media_url"`
	PageSize           int      `json:"page_size"`
	SubscriptionsSize  int      `json:"subscriptions_page_size"`
	CORSAllowedOrigins []string `json:"cors_allowed_origins"`
}

// String returns a string representation of Config with sensitive data masked
func (c *Config) String() string {
	return fmt.Sprintf("Config{Environment: %s, Port: %d, Host: %s, DBDriver: %s, DBHost: %s, DBPort: %s, DBUser: %s, DBPassword: [REDACTED], DBName: %s, DBPath: %s, LogLevel: %s, JWTSecret: [REDACTED], TokenTTL: %s, OAuthClientID: %s, OAuthClientSecret: %s, PublicBaseURL: %s, MediaRoot: %s, MediaURL: %s, PageSize: %d, SubscriptionsPageSize: %d, CORSAllowedOrigins: %v}",
		c.Environment, c.Port, c.Host, c.DBDriver, c.DBHost, c.DBPort, c.DBUser, c.DBName, c.DBPath, c.LogLevel,
		c.TokenTTL, c.OAuthClientID, maskSecret(c.OAuthClientSecret), c.PublicBaseURL, c.MediaRoot, c.MediaURL,
		c.PageSize, c.SubscriptionsSize, c.CORSAllowedOrigins)
}

func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	return "[REDACTED]"
}

// Database returns the connection settings for the database package.
func (c *Config) Database() database.DatabaseConfig {
	return database.DatabaseConfig{
		Driver:   c.DBDriver,
		Host:     c.DBHost,
		Port:     c.DBPort,
		User:     c.DBUser,
		Password: c.DBPassword,
		Name:     c.DBName,
		SSLMode:  c.DBSSLMode,
		Path:     c.DBPath,
	}
}

// LoadConfig read the proper configuration from environment variables and returns a Config struct
// It also validates formats like PUBLIC_BASE_URL and the numeric settings
// Returns an error if any environment variable is invalid
func LoadConfig() (*Config, error) {
	log.Info("Loading configuration from environment variables")
	port, err := strconv.Atoi(GetEnvWithDefault("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	ttlHours, err := strconv.Atoi(GetEnvWithDefault("TOKEN_TTL_HOURS", "24"))
	if err != nil || ttlHours <= 0 {
		return nil, errors.New("TOKEN_TTL_HOURS must be a positive integer")
	}

	pageSize := GetEnvAsType("PAGE_SIZE", 6)
	subscriptionsSize := GetEnvAsType("SUBSCRIPTIONS_PAGE_SIZE", 6)
	if pageSize <= 0 || subscriptionsSize <= 0 {
		return nil, errors.New("PAGE_SIZE and SUBSCRIPTIONS_PAGE_SIZE must be positive")
	}

	driver := strings.ToLower(GetEnvWithDefault("DB_DRIVER", "sqlite"))
	if driver != "sqlite" && driver != "postgres" {
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}

	publicURL := strings.TrimRight(GetEnvWithDefault("PUBLIC_BASE_URL", fmt.Sprintf("http://localhost:%d", port)), "/")
	// validate URL with net/url
	if _, err := url.ParseRequestURI(publicURL); err != nil {
		return nil, fmt.Errorf("invalid PUBLIC_BASE_URL format: %s", publicURL)
	}

	environment := GetEnvWithDefault("APP_ENV", "development")
	config := &Config{
		Environment:        environment,
		Port:               port,
		Host:               GetEnvWithDefault("APP_HOST", "localhost"),
		DBDriver:           driver,
		DBHost:             GetEnvWithDefault("DB_HOST", "localhost"),
		DBPort:             GetEnvWithDefault("DB_PORT", "5432"),
		DBUser:             GetEnvWithDefault("DB_USER", "postgres"),
		DBPassword:         os.Getenv("DB_PASSWORD"),
		DBName:             GetEnvWithDefault("DB_NAME", "recipes"),
		DBSSLMode:          GetEnvWithDefault("DB_SSLMODE", "disable"),
		DBPath:             GetEnvWithDefault("DB_PATH", "recipes.sqlite"),
		LogLevel:           GetEnvWithDefault("LOG_LEVEL", defaultLogLevel(environment)),
		JWTSecret:          GetEnvWithDefault("JWT_SECRET", "secret"),
		TokenTTL:           time.Duration(ttlHours) * time.Hour,
		OAuthClientID:      GetEnvWithDefault("OAUTH_CLIENT_ID", "web"),
		OAuthClientSecret:  os.Getenv("OAUTH_CLIENT_SECRET"),
		PublicBaseURL:      publicURL,
		MediaRoot:          GetEnvWithDefault("MEDIA_ROOT", "media"),
		MediaURL:           strings.TrimRight(GetEnvWithDefault("MEDIA_URL", publicURL+"/media"), "/"),
		PageSize:           pageSize,
		SubscriptionsSize:  subscriptionsSize,
		CORSAllowedOrigins: splitList(GetEnvWithDefault("CORS_ALLOWED_ORIGINS", "*")),
	}
	log.Infof("Configuration loaded: %s", config.String())
	return config, nil
}

// defaultLogLevel maps APP_ENV to the level used when LOG_LEVEL is unset.
func defaultLogLevel(environment string) string {
	switch environment {
	case "development":
		return "debug"
	case "production":
		return "error"
	default:
		return "info"
	}
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

// Helper to get environment with default values
func GetEnvWithDefault(key, defaultValue string) string {
	log.Tracef("Getting environment variable: %s", key)
	value := os.Getenv(key)
	if value == "" {
		log.Debugf("Environment variable %s not set, using default value: %s", key, defaultValue)
		return defaultValue
	}
	return value
}

// GetEnvAsType retrieves an environment variable and converts it to the specified type
// using generic type handling.
func GetEnvAsType[T any](key string, defaultValue T) T {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var result T
	switch any(result).(type) {
	case int:
		intValue, err := strconv.Atoi(value)
		if err != nil {
			return defaultValue
		}
		return any(intValue).(T)
	case string:
		return any(value).(T)
	case bool:
		boolValue, err := strconv.ParseBool(value)
		if err != nil {
			return defaultValue
		}
		return any(boolValue).(T)
	default:
		return defaultValue // Fallback for unsupported types
	}
}
