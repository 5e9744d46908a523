package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server  ServerConfig
	Oracle  OracleConfig
	Pricing PricingConfig
	Image   ImageConfig
	Cache   CacheConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// OracleConfig holds recognition service configuration. The API key is
// intentionally optional: without it the service runs degraded and every scan
// returns a zero price with a "no-credentials" source tag.
type OracleConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// PricingConfig holds the business rules applied to estimated prices
type PricingConfig struct {
	DiscountFactor float64 `mapstructure:"discount_factor"`
	MaxPrice       float64 `mapstructure:"max_price"`
}

// ImageConfig holds image normalization constraints
type ImageConfig struct {
	MaxSide    int `mapstructure:"max_side"`
	Quality    int `mapstructure:"quality"`
	MaxPerScan int `mapstructure:"max_per_scan"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	RefineTTL time.Duration `mapstructure:"refine_ttl"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/pricelens/")

	// Environment variable settings
	v.SetEnvPrefix("PRICELENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"*"})

	// Oracle defaults. The empty api_key default keeps the env binding alive
	// for Unmarshal; an empty key means degraded mode, not a startup failure.
	v.SetDefault("oracle.api_key", "")
	v.SetDefault("oracle.model", "gpt-4o-mini")
	v.SetDefault("oracle.base_url", "https://api.openai.com/v1")
	v.SetDefault("oracle.timeout", "60s")

	// Pricing defaults: 20% off the estimated list price
	v.SetDefault("pricing.discount_factor", 0.80)
	v.SetDefault("pricing.max_price", 5000.0)

	// Image defaults
	v.SetDefault("image.max_side", 1500)
	v.SetDefault("image.quality", 86)
	v.SetDefault("image.max_per_scan", 6)

	// Cache defaults
	v.SetDefault("cache.refine_ttl", "12h")
}

// validate validates the configuration. A missing oracle API key is allowed:
// scans degrade to zero-price responses instead of refusing to start.
func validate(config *Config) error {
	if config.Pricing.DiscountFactor <= 0 || config.Pricing.DiscountFactor > 1 {
		return fmt.Errorf("pricing discount_factor must be in (0,1], got: %v", config.Pricing.DiscountFactor)
	}

	if config.Pricing.MaxPrice <= 0 {
		return fmt.Errorf("pricing max_price must be positive, got: %v", config.Pricing.MaxPrice)
	}

	if config.Image.MaxSide < 256 {
		return fmt.Errorf("image max_side must be at least 256, got: %d", config.Image.MaxSide)
	}

	if config.Image.Quality < 1 || config.Image.Quality > 100 {
		return fmt.Errorf("image quality must be in [1,100], got: %d", config.Image.Quality)
	}

	if config.Image.MaxPerScan < 1 {
		return fmt.Errorf("image max_per_scan must be at least 1, got: %d", config.Image.MaxPerScan)
	}

	return nil
}
