package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Logger    LoggerConfig
	Database  DatabaseConfig
	Provider  ProviderConfig
	Messaging MessagingConfig
	App       AppConfig
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	ConnMaxLifetime time.Duration
	MaxOpenConns    int
	MaxIdleConns    int
}

// ProviderConfig holds accounting provider API configuration
type ProviderConfig struct {
	APIBaseURL      string
	IdentityBaseURL string
	ClientID        string
	ClientSecret    string
	HTTPTimeout     time.Duration
	PageSize        int
	PageCeiling     int
	PageDelay       time.Duration
	RefreshRetries  int
	RefreshDelay    time.Duration
	TokenBuffer     time.Duration
}

// MessagingConfig holds the SMS and email gateway configuration
type MessagingConfig struct {
	SMSAPIURL   string
	SMSAPIKey   string
	SMSFrom     string
	EmailAPIURL string
	EmailAPIKey string
	EmailFrom   string
	HTTPTimeout time.Duration
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	UploadBaseURL    string
	EncryptionKeyHex string
	RiskThreshold    float64
	PenaltyRate      float64
	LinkTTL          time.Duration
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level string // debug, info, warn, error
}

// Load loads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	linkTTLDays := getEnvAsInt("LINK_TTL_DAYS", 7)

	cfg := &Config{
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			DBName:          getEnv("DB_NAME", "receiptsync"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", "5m"),
		},
		Provider: ProviderConfig{
			APIBaseURL:      getEnv("PROVIDER_API_URL", "https://api.accounting.example.com/api.xro/2.0"),
			IdentityBaseURL: getEnv("PROVIDER_IDENTITY_URL", "https://identity.accounting.example.com"),
			ClientID:        getEnv("PROVIDER_CLIENT_ID", ""),
			ClientSecret:    getEnv("PROVIDER_CLIENT_SECRET", ""),
			HTTPTimeout:     getEnvAsDuration("PROVIDER_HTTP_TIMEOUT", "30s"),
			PageSize:        getEnvAsInt("PROVIDER_PAGE_SIZE", 100),
			PageCeiling:     getEnvAsInt("PROVIDER_PAGE_CEILING", 500),
			PageDelay:       getEnvAsDuration("PROVIDER_PAGE_DELAY", "200ms"),
			RefreshRetries:  getEnvAsInt("PROVIDER_REFRESH_RETRIES", 2),
			RefreshDelay:    getEnvAsDuration("PROVIDER_REFRESH_DELAY", "1s"),
			TokenBuffer:     getEnvAsDuration("PROVIDER_TOKEN_BUFFER", "60s"),
		},
		Messaging: MessagingConfig{
			SMSAPIURL:   getEnv("SMS_API_URL", ""),
			SMSAPIKey:   getEnv("SMS_API_KEY", ""),
			SMSFrom:     getEnv("SMS_FROM", "ReceiptSync"),
			EmailAPIURL: getEnv("EMAIL_API_URL", ""),
			EmailAPIKey: getEnv("EMAIL_API_KEY", ""),
			EmailFrom:   getEnv("EMAIL_FROM", "no-reply@receiptsync.example.com"),
			HTTPTimeout: getEnvAsDuration("MESSAGING_HTTP_TIMEOUT", "15s"),
		},
		App: AppConfig{
			UploadBaseURL:    getEnv("UPLOAD_BASE_URL", "https://upload.receiptsync.example.com"),
			EncryptionKeyHex: getEnv("TOKEN_ENCRYPTION_KEY", ""),
			RiskThreshold:    getEnvAsFloat("RISK_THRESHOLD", 82.50),
			PenaltyRate:      getEnvAsFloat("PENALTY_RATE", 0.25),
			LinkTTL:          time.Duration(linkTTLDays) * 24 * time.Hour,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("database host cannot be empty")
	}
	if c.Database.DBName == "" {
		return fmt.Errorf("database name cannot be empty")
	}

	if c.Provider.PageSize <= 0 {
		return fmt.Errorf("page size must be positive, got %d", c.Provider.PageSize)
	}
	if c.Provider.PageCeiling <= 0 {
		return fmt.Errorf("page ceiling must be positive, got %d", c.Provider.PageCeiling)
	}
	if c.Provider.RefreshRetries < 0 {
		return fmt.Errorf("refresh retries cannot be negative")
	}

	if c.App.PenaltyRate < 0 || c.App.PenaltyRate > 1 {
		return fmt.Errorf("penalty rate must be between 0 and 1, got %f", c.App.PenaltyRate)
	}
	if c.App.RiskThreshold < 0 {
		return fmt.Errorf("risk threshold cannot be negative")
	}
	if c.App.LinkTTL <= 0 {
		return fmt.Errorf("link TTL must be positive")
	}

	if c.App.EncryptionKeyHex != "" {
		key, err := hex.DecodeString(c.App.EncryptionKeyHex)
		if err != nil {
			return fmt.Errorf("token encryption key must be hex-encoded: %w", err)
		}
		if len(key) != 32 {
			return fmt.Errorf("token encryption key must be 32 bytes, got %d", len(key))
		}
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	return nil
}

// EncryptionKey returns the decoded token encryption key, or nil when
// encryption is not configured.
func (c *AppConfig) EncryptionKey() []byte {
	if c.EncryptionKeyHex == "" {
		return nil
	}
	key, err := hex.DecodeString(c.EncryptionKeyHex)
	if err != nil {
		return nil
	}
	return key
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to parsing the default if provided value is invalid
		duration, err = time.ParseDuration(defaultValue)
		if err != nil {
			return 0
		}
	}
	return duration
}
