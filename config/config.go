package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// ErrMissingDatabaseURL is returned when a scan needs the database and
// DATABASE_URL is not set.
var ErrMissingDatabaseURL = errors.New("config: DATABASE_URL is not set")

// Config holds all application configuration loaded from environment variables.
type Config struct {
	DatabaseURL string
	Port        string

	LogLevel  string
	LogFormat string

	MaxConcurrency int
	RateLimitMs    int
	MaxRetries     int
	RetryBaseDelay time.Duration
	NavTimeout     time.Duration
	WaitTimeout    time.Duration

	ChromeBin string
	Headless  bool

	RawCSVPath   string
	SourcesFile  string
	ScanSchedule string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment only.
func FromEnv() *Config {
	return &Config{
		DatabaseURL: getEnv("DATABASE_URL", ""),
		Port:        getEnv("PORT", "8080"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),

		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 1),
		RateLimitMs:    getEnvInt("RATE_LIMIT_MS", 500),
		MaxRetries:     getEnvInt("MAX_RETRIES", 1),
		RetryBaseDelay: getEnvDuration("RETRY_BASE_DELAY", 2*time.Second),
		NavTimeout:     getEnvDuration("NAV_TIMEOUT", 30*time.Second),
		WaitTimeout:    getEnvDuration("WAIT_TIMEOUT", 10*time.Second),

		ChromeBin: getEnv("CHROME_BIN", ""),
		Headless:  getEnvBool("HEADLESS", true),

		RawCSVPath:   getEnv("RAW_CSV_PATH", ""),
		SourcesFile:  getEnv("SOURCES_FILE", ""),
		ScanSchedule: getEnv("SCAN_SCHEDULE", ""),
	}
}

// RequireDatabase returns ErrMissingDatabaseURL when no connection string is configured.
func (c *Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return ErrMissingDatabaseURL
	}
	return nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return ":" + c.Port
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}

// getEnvDuration accepts Go durations ("45s") or a bare number of seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	if n, err := strconv.Atoi(val); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}
