package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/pricelens/backend/config"
	httpDelivery "github.com/pricelens/backend/internal/delivery/http"
	"github.com/pricelens/backend/internal/domain"
	"github.com/pricelens/backend/internal/infrastructure/cache"
	"github.com/pricelens/backend/internal/infrastructure/images"
	"github.com/pricelens/backend/internal/infrastructure/openai"
	"github.com/pricelens/backend/internal/usecase"
)

func main() {
	// A .env file is a local development convenience; absence is fine
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debug := cfg.Server.Environment == "development"

	log.Printf("Starting PriceLens Backend v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)

	// Initialize infrastructure dependencies
	normalizer := images.NewNormalizer(cfg.Image.MaxSide, cfg.Image.Quality)
	normalizer.SetDebug(debug)

	memoryCache := cache.NewMemoryCache()
	log.Printf("Refine cache TTL: %s", cfg.Cache.RefineTTL)

	// A missing API key is a supported mode: every scan degrades to a
	// zero-price result instead of the server refusing to start.
	var oracle domain.RecognitionOracle
	if cfg.Oracle.APIKey != "" {
		client := openai.NewClient(cfg.Oracle.APIKey, cfg.Oracle.BaseURL, cfg.Oracle.Model, cfg.Oracle.Timeout)
		client.SetDebug(debug)
		oracle = client
		log.Printf("Recognition service configured: %s (model: %s)", cfg.Oracle.BaseURL, cfg.Oracle.Model)
	} else {
		log.Printf("WARNING: no recognition API key configured - scans will return zero prices")
	}

	// Initialize usecase layer
	scanService := usecase.NewScanService(
		oracle,
		memoryCache,
		normalizer,
		usecase.ScanServiceConfig{
			DiscountFactor:     cfg.Pricing.DiscountFactor,
			MaxPrice:           cfg.Pricing.MaxPrice,
			MaxImagesPerScan:   cfg.Image.MaxPerScan,
			RefineTTL:          cfg.Cache.RefineTTL,
			EnableDebugLogging: debug,
		},
	)

	log.Printf("Pricing: discount=%.2f, ceiling=%.0f EUR", cfg.Pricing.DiscountFactor, cfg.Pricing.MaxPrice)
	log.Printf("Images: max side=%dpx, quality=%d, max per scan=%d",
		cfg.Image.MaxSide, cfg.Image.Quality, cfg.Image.MaxPerScan)

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(scanService)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
