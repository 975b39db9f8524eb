package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Rate storage backends.
const (
	RateStorageFile   = "file"
	RateStorageSQLite = "sqlite"
)

// Config holds the application configuration parameters.
// Each field corresponds to an expected environment variable.
type Config struct {
	EnvLogsLevel    string `env:"LOG_LEVEL" envDefault:"info"`            // Log level for the application (e.g., debug, info)
	EnvLogFileName  string `env:"LOG_FILE_NAME" envDefault:"descBot.log"` // File's name for log
	EnvChatsLogFile string `env:"CHATS_LOG_FILE" envDefault:"logs/chats.log"`
	EnvBotToken     string `env:"TOKEN_BOT"` // Telegram Bot Token for authentication with the Telegram API
	EnvBotDebug     bool   `env:"BOT_DEBUG" envDefault:"false"`
	EnvOwnerID      int64  `env:"OWNER_ID" envDefault:"0"` // TG owner's ID for /model and /chats

	EnvTwoGisApiKey          string `env:"TWOGIS_API_KEY"`
	EnvTwoGisCatalogEndpoint string `env:"TWOGIS_CATALOG_ENDPOINT" envDefault:"https://catalog.api.2gis.com/3.0/items"`
	EnvTwoGisRoutingEndpoint string `env:"TWOGIS_ROUTING_ENDPOINT" envDefault:"https://routing.api.2gis.com/get_dist_matrix"`
	EnvTwoGisTimeoutSec      int    `env:"TWOGIS_TIMEOUT_SEC" envDefault:"15"`
	EnvSearchRadius          int    `env:"SEARCH_RADIUS" envDefault:"1000"` // Nominal radius in meters

	EnvGenerativeName        string  `env:"GENERATIVE_NAME" envDefault:"openai"` // Name of the generative AI provider (openai, openrouter, gemini, deepseek)
	EnvGenerativeApiKey      string  `env:"GENERATIVE_API_KEY"`
	EnvGenerativeModel       string  `env:"GENERATIVE_MODEL"`    // Empty means the backend default
	EnvGenerativeEndpoint    string  `env:"GENERATIVE_ENDPOINT"` // API base URL, openai and openrouter only
	EnvGenerativeMaxTokens   int     `env:"GENERATIVE_MAX_TOKENS" envDefault:"15000"`
	EnvGenerativeTemperature float64 `env:"GENERATIVE_TEMPERATURE" envDefault:"-1"` // Negative means provider default
	EnvGenerativeTimeoutSec  int     `env:"GENERATIVE_TIMEOUT_SEC" envDefault:"180"`
	EnvPromptFile            string  `env:"PROMPT_FILE" envDefault:"prompt.txt"`

	EnvRateLimitPerDay   int    `env:"RATE_LIMIT_PER_DAY" envDefault:"10"`
	EnvRateStorage       string `env:"RATE_STORAGE" envDefault:"file"`
	EnvRateLimitsPath    string `env:"RATE_LIMITS_PATH" envDefault:"rate_limits"`
	EnvRateDBPath        string `env:"RATE_DB_PATH" envDefault:"data/rate_limits.db"`
	EnvKeepDataOnFailure bool   `env:"KEEP_DATA_ON_FAILURE" envDefault:"false"`

	EnvPostsLogFile string `env:"POSTS_LOG_FILE" envDefault:"user_posts/data.txt"` // Journal of /analyze texts
	EnvUserDataPath string `env:"USER_DATA_PATH" envDefault:"user_data"`         // Per-user context files for /analyze and /generate

	EnvStatusServerAddr string `env:"STATUS_SERVER_ADDR"` // Empty disables the status server
}

// NewConfig loads bot.env if it exists and parses the environment into a Config.
func NewConfig() (*Config, error) {
	if err := godotenv.Load("bot.env"); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load bot.env: %w", err)
		}
		logrus.Info("bot.env not found, using process environment")
	}

	config := &Config{}
	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks required values and ranges.
func (c *Config) Validate() error {
	var errs []error
	if c.EnvBotToken == "" {
		errs = append(errs, errors.New("TOKEN_BOT is required"))
	}
	if c.EnvTwoGisApiKey == "" {
		errs = append(errs, errors.New("TWOGIS_API_KEY is required"))
	}
	if c.EnvGenerativeApiKey == "" {
		errs = append(errs, errors.New("GENERATIVE_API_KEY is required"))
	}
	if c.EnvSearchRadius <= 0 {
		errs = append(errs, fmt.Errorf("SEARCH_RADIUS must be positive, got %d", c.EnvSearchRadius))
	}
	if c.EnvRateLimitPerDay <= 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_PER_DAY must be positive, got %d", c.EnvRateLimitPerDay))
	}
	if c.EnvRateStorage != RateStorageFile && c.EnvRateStorage != RateStorageSQLite {
		errs = append(errs, fmt.Errorf("RATE_STORAGE must be %q or %q, got %q", RateStorageFile, RateStorageSQLite, c.EnvRateStorage))
	}
	if c.EnvGenerativeTemperature > 2 {
		errs = append(errs, fmt.Errorf("GENERATIVE_TEMPERATURE must not exceed 2, got %v", c.EnvGenerativeTemperature))
	}
	return errors.Join(errs...)
}

// TwoGisTimeout returns the 2GIS request timeout.
func (c *Config) TwoGisTimeout() time.Duration {
	return time.Duration(c.EnvTwoGisTimeoutSec) * time.Second
}

// GenerativeTimeout returns the upper bound of one generation job.
func (c *Config) GenerativeTimeout() time.Duration {
	return time.Duration(c.EnvGenerativeTimeoutSec) * time.Second
}
