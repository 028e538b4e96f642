package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Storage StorageConfig
	Engine  EngineConfig
	Jobs    JobsConfig
}

// StorageConfig holds object-storage configuration
type StorageConfig struct {
	Root string // directory backing the local object store
}

// EngineConfig holds parsing-engine configuration
type EngineConfig struct {
	Tesseract string // binary name or absolute path; if empty -> "tesseract"
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Magick    string // ImageMagick binary for image preprocessing; if empty -> "magick"

	OCRLanguage string // default OCR language, "eng" when unset
	DPI         int    // rasterization DPI for scanned PDFs, default 300
	MaxPages    int    // 0 = no limit

	ExecTimeout time.Duration
}

// JobsConfig holds job-ledger configuration
type JobsConfig struct {
	DBPath string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Root: getEnv("STORAGE_ROOT", "./storage"),
		},
		Engine: EngineConfig{
			Tesseract:   getEnv("TESSERACT_BIN", "tesseract"),
			Pdftoppm:    getEnv("PDFTOPPM_BIN", "pdftoppm"),
			Magick:      getEnv("MAGICK_BIN", "magick"),
			OCRLanguage: getEnv("OCR_LANGUAGE", "eng"),
			DPI:         getEnvAsInt("OCR_DPI", 300),
			MaxPages:    getEnvAsInt("OCR_MAX_PAGES", 0),
			ExecTimeout: getEnvAsDuration("OCR_EXEC_TIMEOUT", 2*time.Minute),
		},
		Jobs: JobsConfig{
			DBPath: getEnv("JOBS_DB_PATH", "./parse_jobs.db"),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// ValidateConfig validates the loaded configuration
func (c *Config) Validate() error {
	if c.Storage.Root == "" {
		return NewAppError("CONFIG_ERROR", "STORAGE_ROOT is required", nil)
	}
	if c.Engine.DPI <= 0 {
		return NewAppError("CONFIG_ERROR", "OCR_DPI must be positive", nil)
	}
	return nil
}
