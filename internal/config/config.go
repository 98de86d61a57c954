package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/matchminer/internal/database"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds all application configuration
type Config struct {
	DataFile    string `env:"DATA_FILE" envDefault:"Matches.csv"`
	SheetName   string `env:"SHEET_NAME"`
	CatalogFile string `env:"CATALOG_FILE"`
	OutputFile  string `env:"OUTPUT_FILE"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	Workers     int    `env:"WORKERS" envDefault:"0"` // 0 uses GOMAXPROCS
	TopN        int    `env:"TOP_N" envDefault:"50"`

	// Policy overrides; nil keeps each analysis' own minimums.
	MinSample    *int     `env:"MIN_SAMPLE"`
	MinPrecision *float64 `env:"MIN_PRECISION"`

	Persist  bool `env:"PERSIST" envDefault:"false"`
	Database database.ConnectionParams

	TelegramToken     string  `env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatIDs   []int64 `env:"TELEGRAM_CHAT_IDS"`
	MessagesPerSecond int     `env:"TELEGRAM_MESSAGES_PER_SEC" envDefault:"20"`
}

// Load initializes configuration from environment variables
func Load() (*Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg(".env file not found, relying on actual environment variables")
	}
	return FromEnv()
}

// FromEnv reads the configuration from the process environment only.
func FromEnv() (*Config, error) {
	var cfg Config

	cfg.DataFile = getEnvWithDefault("DATA_FILE", "Matches.csv")
	cfg.SheetName = os.Getenv("SHEET_NAME")
	cfg.CatalogFile = os.Getenv("CATALOG_FILE")
	cfg.OutputFile = os.Getenv("OUTPUT_FILE")
	cfg.LogLevel = getEnvWithDefault("LOG_LEVEL", "info")
	cfg.Workers = getEnvIntWithDefault("WORKERS", 0)
	cfg.TopN = getEnvIntWithDefault("TOP_N", 50)

	if v := os.Getenv("MIN_SAMPLE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("%w: MIN_SAMPLE=%q", ErrInvalidConfig, v)
		}
		cfg.MinSample = &n
	}
	if v := os.Getenv("MIN_PRECISION"); v != "" {
		p, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: MIN_PRECISION=%q", ErrInvalidConfig, v)
		}
		cfg.MinPrecision = &p
	}

	cfg.Persist = getEnvBoolWithDefault("PERSIST", false)
	cfg.Database = database.ConnectionParams{
		Host:     getEnvWithDefault("DB_HOST", "localhost"),
		Port:     getEnvWithDefault("DB_PORT", "5432"),
		User:     getEnvWithDefault("DB_USER", "postgres"),
		Password: os.Getenv("DB_PASSWORD"),
		DBName:   getEnvWithDefault("DB_NAME", "matchminer"),
		SSLMode:  getEnvWithDefault("DB_SSLMODE", "disable"),
	}

	cfg.TelegramToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	ids, err := parseChatIDs(os.Getenv("TELEGRAM_CHAT_IDS"))
	if err != nil {
		return nil, err
	}
	cfg.TelegramChatIDs = ids
	cfg.MessagesPerSecond = getEnvIntWithDefault("TELEGRAM_MESSAGES_PER_SEC", 20)

	return &cfg, nil
}

// Validate fails fast on values the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.DataFile == "" {
		return fmt.Errorf("%w: DATA_FILE is empty", ErrInvalidConfig)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: LOG_LEVEL=%q", ErrInvalidConfig, c.LogLevel)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: WORKERS must not be negative", ErrInvalidConfig)
	}
	if c.TopN < 0 {
		return fmt.Errorf("%w: TOP_N must not be negative", ErrInvalidConfig)
	}
	if c.MinSample != nil && *c.MinSample < 0 {
		return fmt.Errorf("%w: MIN_SAMPLE must not be negative", ErrInvalidConfig)
	}
	if c.MinPrecision != nil && (*c.MinPrecision < 0 || *c.MinPrecision > 100) {
		return fmt.Errorf("%w: MIN_PRECISION must be within [0, 100]", ErrInvalidConfig)
	}
	if c.MessagesPerSecond <= 0 {
		return fmt.Errorf("%w: TELEGRAM_MESSAGES_PER_SEC must be positive", ErrInvalidConfig)
	}
	return nil
}

func parseChatIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: TELEGRAM_CHAT_IDS entry %q", ErrInvalidConfig, part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Helper functions for environment variable handling
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolWithDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}
