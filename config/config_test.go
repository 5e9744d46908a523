package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	// Clean up environment before tests
	cleanupEnv := func() {
		os.Unsetenv("PRICELENS_SERVER_PORT")
		os.Unsetenv("PRICELENS_SERVER_ENVIRONMENT")
		os.Unsetenv("PRICELENS_ORACLE_API_KEY")
		os.Unsetenv("PRICELENS_ORACLE_MODEL")
		os.Unsetenv("PRICELENS_ORACLE_BASE_URL")
		os.Unsetenv("PRICELENS_ORACLE_TIMEOUT")
		os.Unsetenv("PRICELENS_PRICING_DISCOUNT_FACTOR")
		os.Unsetenv("PRICELENS_PRICING_MAX_PRICE")
		os.Unsetenv("PRICELENS_IMAGE_MAX_SIDE")
		os.Unsetenv("PRICELENS_IMAGE_QUALITY")
		os.Unsetenv("PRICELENS_IMAGE_MAX_PER_SCAN")
		os.Unsetenv("PRICELENS_CACHE_REFINE_TTL")
	}

	t.Run("loads with defaults when no env vars set", func(t *testing.T) {
		cleanupEnv()
		defer cleanupEnv()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		// Check defaults
		if cfg.Server.Port != "8080" {
			t.Errorf("Server.Port = %s, want 8080", cfg.Server.Port)
		}
		if cfg.Server.Environment != "development" {
			t.Errorf("Server.Environment = %s, want development", cfg.Server.Environment)
		}
		if cfg.Oracle.Model != "gpt-4o-mini" {
			t.Errorf("Oracle.Model = %s, want gpt-4o-mini", cfg.Oracle.Model)
		}
		if cfg.Oracle.BaseURL != "https://api.openai.com/v1" {
			t.Errorf("Oracle.BaseURL = %s, want https://api.openai.com/v1", cfg.Oracle.BaseURL)
		}
		if cfg.Oracle.Timeout != 60*time.Second {
			t.Errorf("Oracle.Timeout = %v, want 60s", cfg.Oracle.Timeout)
		}
		if cfg.Pricing.DiscountFactor != 0.80 {
			t.Errorf("Pricing.DiscountFactor = %v, want 0.80", cfg.Pricing.DiscountFactor)
		}
		if cfg.Pricing.MaxPrice != 5000.0 {
			t.Errorf("Pricing.MaxPrice = %v, want 5000", cfg.Pricing.MaxPrice)
		}
		if cfg.Image.MaxSide != 1500 {
			t.Errorf("Image.MaxSide = %d, want 1500", cfg.Image.MaxSide)
		}
		if cfg.Image.Quality != 86 {
			t.Errorf("Image.Quality = %d, want 86", cfg.Image.Quality)
		}
		if cfg.Image.MaxPerScan != 6 {
			t.Errorf("Image.MaxPerScan = %d, want 6", cfg.Image.MaxPerScan)
		}
		if cfg.Cache.RefineTTL != 12*time.Hour {
			t.Errorf("Cache.RefineTTL = %v, want 12h", cfg.Cache.RefineTTL)
		}
	})

	t.Run("missing API key is allowed", func(t *testing.T) {
		cleanupEnv()
		defer cleanupEnv()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}
		if cfg.Oracle.APIKey != "" {
			t.Errorf("Oracle.APIKey = %s, want empty", cfg.Oracle.APIKey)
		}
	})

	t.Run("loads custom values from environment variables", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("PRICELENS_SERVER_PORT", "9090")
		os.Setenv("PRICELENS_SERVER_ENVIRONMENT", "production")
		os.Setenv("PRICELENS_ORACLE_API_KEY", "sk-test-key")
		os.Setenv("PRICELENS_ORACLE_MODEL", "gpt-4o")
		os.Setenv("PRICELENS_ORACLE_BASE_URL", "https://proxy.internal/v1")
		os.Setenv("PRICELENS_ORACLE_TIMEOUT", "25s")
		os.Setenv("PRICELENS_PRICING_DISCOUNT_FACTOR", "0.60")
		os.Setenv("PRICELENS_IMAGE_MAX_SIDE", "1280")
		defer cleanupEnv()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "9090" {
			t.Errorf("Server.Port = %s, want 9090", cfg.Server.Port)
		}
		if cfg.Server.Environment != "production" {
			t.Errorf("Server.Environment = %s, want production", cfg.Server.Environment)
		}
		if cfg.Oracle.APIKey != "sk-test-key" {
			t.Errorf("Oracle.APIKey = %s, want sk-test-key", cfg.Oracle.APIKey)
		}
		if cfg.Oracle.Model != "gpt-4o" {
			t.Errorf("Oracle.Model = %s, want gpt-4o", cfg.Oracle.Model)
		}
		if cfg.Oracle.BaseURL != "https://proxy.internal/v1" {
			t.Errorf("Oracle.BaseURL = %s, want https://proxy.internal/v1", cfg.Oracle.BaseURL)
		}
		if cfg.Oracle.Timeout != 25*time.Second {
			t.Errorf("Oracle.Timeout = %v, want 25s", cfg.Oracle.Timeout)
		}
		if cfg.Pricing.DiscountFactor != 0.60 {
			t.Errorf("Pricing.DiscountFactor = %v, want 0.60", cfg.Pricing.DiscountFactor)
		}
		if cfg.Image.MaxSide != 1280 {
			t.Errorf("Image.MaxSide = %d, want 1280", cfg.Image.MaxSide)
		}
	})

	t.Run("fails validation for out-of-range discount factor", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("PRICELENS_PRICING_DISCOUNT_FACTOR", "1.5")
		defer cleanupEnv()

		_, err := Load()
		if err == nil {
			t.Error("Load() error = nil, want error for discount_factor > 1")
		}
	})

	t.Run("fails validation for zero discount factor", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("PRICELENS_PRICING_DISCOUNT_FACTOR", "0")
		defer cleanupEnv()

		_, err := Load()
		if err == nil {
			t.Error("Load() error = nil, want error for discount_factor = 0")
		}
	})

	t.Run("fails validation for tiny max side", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("PRICELENS_IMAGE_MAX_SIDE", "100")
		defer cleanupEnv()

		_, err := Load()
		if err == nil {
			t.Error("Load() error = nil, want error for max_side < 256")
		}
	})

	t.Run("fails validation for invalid quality", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("PRICELENS_IMAGE_QUALITY", "150")
		defer cleanupEnv()

		_, err := Load()
		if err == nil {
			t.Error("Load() error = nil, want error for quality > 100")
		}
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Pricing: PricingConfig{DiscountFactor: 0.80, MaxPrice: 5000},
			Image:   ImageConfig{MaxSide: 1500, Quality: 86, MaxPerScan: 6},
		}
	}

	t.Run("accepts valid config", func(t *testing.T) {
		if err := validate(valid()); err != nil {
			t.Errorf("validate() error = %v, want nil", err)
		}
	})

	t.Run("rejects negative max price", func(t *testing.T) {
		cfg := valid()
		cfg.Pricing.MaxPrice = -1
		if err := validate(cfg); err == nil {
			t.Error("validate() error = nil, want error for negative max_price")
		}
	})

	t.Run("rejects zero max per scan", func(t *testing.T) {
		cfg := valid()
		cfg.Image.MaxPerScan = 0
		if err := validate(cfg); err == nil {
			t.Error("validate() error = nil, want error for max_per_scan = 0")
		}
	})
}
