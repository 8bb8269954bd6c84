package config

import (
	"os"
	"strconv"
	"time"

	"bedesign/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database   DatabaseConfig
	Literature LiteratureConfig
	Extraction ExtractionConfig
	Server     ServerConfig
	Reports    ReportConfig
	Pipeline   PipelineConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL string
}

// LiteratureConfig holds PubMed E-utilities settings
type LiteratureConfig struct {
	BaseURL     string
	Email       string // required by NCBI usage policy
	APIKey      string
	MaxArticles int
	Timeout     time.Duration
}

// ExtractionConfig holds LLM extraction settings
type ExtractionConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// ReportConfig holds report rendering settings
type ReportConfig struct {
	OutputDir string
}

// PipelineConfig holds background pipeline settings
type PipelineConfig struct {
	ExtractionConcurrency int
	StageTimeout          time.Duration
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	cfg := &Config{
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Literature: LiteratureConfig{
			BaseURL:     getEnvOrDefault("PUBMED_BASE_URL", "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"),
			Email:       getEnvOrDefault("PUBMED_EMAIL", ""),
			APIKey:      getEnvOrDefault("PUBMED_API_KEY", ""),
			MaxArticles: getEnvIntOrDefault("PUBMED_MAX_ARTICLES", 10),
			Timeout:     getEnvDurationOrDefault("PUBMED_TIMEOUT", 30*time.Second),
		},
		Extraction: ExtractionConfig{
			APIKey:      os.Getenv("OPENAI_API_KEY"),
			BaseURL:     getEnvOrDefault("LLM_BASE_URL", "https://api.openai.com/v1"),
			Model:       getEnvOrDefault("LLM_MODEL", "gpt-4o-mini"),
			MaxTokens:   getEnvIntOrDefault("LLM_MAX_TOKENS", 1000),
			Temperature: getEnvFloatOrDefault("LLM_TEMPERATURE", 0.1),
			Timeout:     getEnvDurationOrDefault("LLM_TIMEOUT", 60*time.Second),
		},
		Server: ServerConfig{
			Port:    getEnvOrDefault("PORT", "8080"),
			GinMode: getEnvOrDefault("GIN_MODE", "debug"),
		},
		Reports: ReportConfig{
			OutputDir: getEnvOrDefault("REPORTS_DIR", "./reports"),
		},
		Pipeline: PipelineConfig{
			ExtractionConcurrency: getEnvIntOrDefault("EXTRACTION_CONCURRENCY", 4),
			StageTimeout:          getEnvDurationOrDefault("STAGE_TIMEOUT", 5*time.Minute),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Database.URL == "" {
		return errors.ConfigInvalid("DATABASE_URL is required")
	}
	if cfg.Extraction.APIKey == "" {
		return errors.ConfigInvalid("OPENAI_API_KEY is required")
	}
	if cfg.Pipeline.ExtractionConcurrency < 1 {
		return errors.ConfigInvalid("EXTRACTION_CONCURRENCY must be at least 1")
	}
	return nil
}

// Helper functions for environment variable parsing
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

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
