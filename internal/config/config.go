// Package config loads pipeline settings from environment variables.
// The struct is built once at process start and passed into component
// constructors; nothing reads the environment after Load returns.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Database
	DatabaseURL string

	// Gemini settings
	GeminiAPIKey    string
	ClassifierModel string
	ProcessorModel  string
	MaxLLMRequests  int // per-run request budget (0 = unlimited)
	LLMTimeout      time.Duration

	// YouTube settings
	YouTubeAPIKey     string
	YouTubeMaxResults int
	YouTubeMinViews   int64

	// Hacker News settings
	HNMinPoints int
	HNLimit     int
	HNTimeout   time.Duration

	// RSS settings
	SourcesConfigPath string
	RSSTimeout        time.Duration
	LookbackDays      int

	// Output counts per section
	TechOutputCount       int
	TipsOutputCount       int
	InvestmentOutputCount int
	VideoOutputCount      int

	// Worker pool sizes
	RSSMaxWorkers     int
	HNMaxWorkers      int
	EnhanceMaxWorkers int
	LLMMaxWorkers     int

	// App settings
	Timezone      string
	Debug         bool
	RetryAttempts int
	RetryDelay    time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		// Default values
		ClassifierModel:       "gemini-1.5-flash",
		ProcessorModel:        "gemini-1.5-pro",
		MaxLLMRequests:        0,
		LLMTimeout:            120 * time.Second,
		YouTubeMaxResults:     10,
		YouTubeMinViews:       10000,
		HNMinPoints:           100,
		HNLimit:               50,
		HNTimeout:             30 * time.Second,
		SourcesConfigPath:     "configs/sources.yaml",
		RSSTimeout:            20 * time.Second,
		LookbackDays:          7,
		TechOutputCount:       10,
		TipsOutputCount:       5,
		InvestmentOutputCount: 5,
		VideoOutputCount:      2,
		RSSMaxWorkers:         8,
		HNMaxWorkers:          8,
		EnhanceMaxWorkers:     6,
		LLMMaxWorkers:         4,
		Timezone:              "Europe/Berlin",
		RetryAttempts:         3,
		RetryDelay:            5 * time.Second,
	}

	// Load from environment
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	cfg.YouTubeAPIKey = os.Getenv("YOUTUBE_API_KEY")

	cfg.ClassifierModel = getEnvOrDefault("CLASSIFIER_MODEL", cfg.ClassifierModel)
	cfg.ProcessorModel = getEnvOrDefault("PROCESSOR_MODEL", cfg.ProcessorModel)
	cfg.SourcesConfigPath = getEnvOrDefault("SOURCES_CONFIG_PATH", cfg.SourcesConfigPath)
	cfg.Timezone = getEnvOrDefault("APP_TIMEZONE", cfg.Timezone)

	cfg.MaxLLMRequests = getEnvIntOrDefault("MAX_LLM_REQUESTS", cfg.MaxLLMRequests)
	cfg.YouTubeMaxResults = getEnvIntOrDefault("YOUTUBE_MAX_RESULTS", cfg.YouTubeMaxResults)
	cfg.HNMinPoints = getEnvIntOrDefault("HN_MIN_POINTS", cfg.HNMinPoints)
	cfg.HNLimit = getEnvIntOrDefault("HN_LIMIT", cfg.HNLimit)
	cfg.LookbackDays = getEnvIntOrDefault("LOOKBACK_DAYS", cfg.LookbackDays)

	cfg.TechOutputCount = getEnvIntOrDefault("TECH_OUTPUT_COUNT", cfg.TechOutputCount)
	cfg.TipsOutputCount = getEnvIntOrDefault("TIPS_OUTPUT_COUNT", cfg.TipsOutputCount)
	cfg.InvestmentOutputCount = getEnvIntOrDefault("INVESTMENT_OUTPUT_COUNT", cfg.InvestmentOutputCount)
	cfg.VideoOutputCount = getEnvIntOrDefault("VIDEO_OUTPUT_COUNT", cfg.VideoOutputCount)

	cfg.RSSMaxWorkers = getEnvIntOrDefault("RSS_MAX_WORKERS", cfg.RSSMaxWorkers)
	cfg.HNMaxWorkers = getEnvIntOrDefault("HN_MAX_WORKERS", cfg.HNMaxWorkers)
	cfg.EnhanceMaxWorkers = getEnvIntOrDefault("HN_ENHANCE_MAX_WORKERS", cfg.EnhanceMaxWorkers)
	cfg.LLMMaxWorkers = getEnvIntOrDefault("LLM_MAX_WORKERS", cfg.LLMMaxWorkers)

	if v := os.Getenv("YOUTUBE_MIN_VIEWS"); v != "" {
		if val, err := strconv.ParseInt(v, 10, 64); err == nil && val >= 0 {
			cfg.YouTubeMinViews = val
		}
	}
	if v := os.Getenv("RSS_TIMEOUT_SECONDS"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 {
			cfg.RSSTimeout = time.Duration(val) * time.Second
		}
	}
	if v := os.Getenv("HN_TIMEOUT_SECONDS"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 {
			cfg.HNTimeout = time.Duration(val) * time.Second
		}
	}
	if v := os.Getenv("LLM_TIMEOUT_SECONDS"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 {
			cfg.LLMTimeout = time.Duration(val) * time.Second
		}
	}

	if debug := os.Getenv("DEBUG"); debug == "true" {
		cfg.Debug = true
	}

	return cfg, cfg.Validate()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}
	if c.LLMMaxWorkers < 1 {
		return fmt.Errorf("LLM_MAX_WORKERS must be at least 1")
	}
	if c.LookbackDays < 1 {
		return fmt.Errorf("LOOKBACK_DAYS must be at least 1")
	}
	return nil
}

// Location resolves the configured timezone, falling back to UTC on a
// bad name so period resolution keeps working.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
