package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/SiteBossInc/owl-sync/internal/domain"
)

type Config struct {
	Port                  string
	Environment           string
	Database              DatabaseConfig
	Shopify               ShopifyConfig
	SiteBoss              SiteBossConfig
	Sync                  SyncConfig
	API                   APIConfig
	LogLevel              string
	TrackingWebhookSecret string // TRACKING_WEBHOOK_SECRET: auth for carrier/3PL tracking webhooks
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type ShopifyConfig struct {
	ShopDomain  string
	AccessToken string
	APIVersion  string
}

// SiteBossConfig is used to call the SiteBoss OWL warehouse API for inventory
// levels, order submission, and credential validation.
type SiteBossConfig struct {
	BaseURL  string // e.g. https://api.siteboss.net; empty disables warehouse sync
	APIKey   string
	TenantID string // default tenant when running single-tenant
}

type SyncConfig struct {
	Frequency         domain.SyncFrequency
	LowStockThreshold int
	PassDeadline      time.Duration
	MaxAttempts       int
	BackoffBase       time.Duration
}

type APIConfig struct {
	KeyHashSalt string
}

func Load() (*Config, error) {
	viper.SetConfigType("env")
	viper.SetConfigName(".env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("LOG_LEVEL", "info")

	// Read from environment variables
	viper.AutomaticEnv()

	// Try to read .env file (optional)
	if err := viper.ReadInConfig(); err != nil {
		// It's okay if .env doesn't exist, we'll use env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{
		Port:        getEnvOrViper("PORT", "8080"),
		Environment: getEnvOrViper("ENVIRONMENT", "development"),
		Database: DatabaseConfig{
			Host:     getEnvOrViper("DB_HOST", "localhost"),
			Port:     getEnvOrViper("DB_PORT", "5432"),
			User:     getEnvOrViper("DB_USER", "postgres"),
			Password: getEnvOrViper("DB_PASSWORD", "postgres"),
			DBName:   getEnvOrViper("DB_NAME", "owlsync"),
			SSLMode:  getEnvOrViper("DB_SSLMODE", "disable"),
		},
		Shopify: ShopifyConfig{
			ShopDomain:  strings.TrimSpace(getEnvOrViper("SHOPIFY_SHOP_DOMAIN", "")),
			AccessToken: strings.TrimSpace(getEnvOrViper("SHOPIFY_ACCESS_TOKEN", "")),
			APIVersion:  getEnvOrViper("SHOPIFY_API_VERSION", "2024-10"),
		},
		SiteBoss: SiteBossConfig{
			BaseURL:  strings.TrimSpace(getEnvOrViper("SITEBOSS_API_URL", "")),
			APIKey:   strings.TrimSpace(getEnvOrViper("SITEBOSS_API_KEY", "")),
			TenantID: strings.TrimSpace(getEnvOrViper("SITEBOSS_TENANT_ID", "")),
		},
		Sync: SyncConfig{
			Frequency:         domain.SyncFrequency(getEnvOrViper("SYNC_FREQUENCY", string(domain.SyncHourly))),
			LowStockThreshold: getEnvOrViperInt("LOW_STOCK_THRESHOLD", 10),
			PassDeadline:      time.Duration(getEnvOrViperInt("SYNC_DEADLINE_SECONDS", 120)) * time.Second,
			MaxAttempts:       getEnvOrViperInt("SYNC_MAX_ATTEMPTS", 5),
			BackoffBase:       time.Duration(getEnvOrViperInt("SYNC_BACKOFF_BASE_MS", 500)) * time.Millisecond,
		},
		API: APIConfig{
			KeyHashSalt: getEnvOrViper("API_KEY_HASH_SALT", "default-salt-change-in-production"),
		},
		LogLevel:              getEnvOrViper("LOG_LEVEL", "info"),
		TrackingWebhookSecret: strings.TrimSpace(getEnvOrViper("TRACKING_WEBHOOK_SECRET", "")),
	}

	// Validate required fields
	if !cfg.Sync.Frequency.IsValid() {
		return nil, fmt.Errorf("SYNC_FREQUENCY must be one of real-time, 15min, hourly, 6hour, daily (got %q)", cfg.Sync.Frequency)
	}
	if cfg.Sync.LowStockThreshold < 0 {
		return nil, fmt.Errorf("LOW_STOCK_THRESHOLD must be >= 0")
	}
	if cfg.Sync.MaxAttempts < 1 {
		return nil, fmt.Errorf("SYNC_MAX_ATTEMPTS must be >= 1")
	}

	return cfg, nil
}

func getEnvOrViper(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	return defaultValue
}

func getEnvOrViperInt(key string, defaultValue int) int {
	raw := getEnvOrViper(key, "")
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return defaultValue
	}
	return n
}
