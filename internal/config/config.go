package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	// Server configuration
	Host string `validate:"required"`
	Port int    `validate:"min=1,max=65535"`

	// Logging configuration
	LogLevel  string `validate:"oneof=debug info warn warning error"`
	LogFormat string `validate:"oneof=text json"`

	// Application configuration
	Environment string `validate:"required"`

	// Ledger configuration
	LedgerDriver string `validate:"oneof=memory sqlite"`
	LedgerDSN    string `validate:"required_if=LedgerDriver sqlite"`

	// Contracts deployed at startup, optional
	ContractsFile string

	// Oracle configuration: a websocket trade stream, or a fixed price when no stream is set
	OracleURL         string `validate:"omitempty,url"`
	OracleSymbol      string
	OracleStaticPrice string `validate:"omitempty,numeric"`

	// Keeper configuration
	KeeperIntervalSeconds int `validate:"min=1"`

	// PriceScale is the fixed-point precision of prices
	PriceScale int `validate:"min=0,max=18"`
}

// Load loads the configuration from environment variables.
func Load() *Config {
	config := &Config{
		Host:                  getEnv("HOST", "localhost"),
		Port:                  getEnvAsInt("PORT", 8080),
		LogLevel:              strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:             strings.ToLower(getEnv("LOG_FORMAT", "text")),
		Environment:           getEnv("ENVIRONMENT", "development"),
		LedgerDriver:          strings.ToLower(getEnv("LEDGER_DRIVER", "memory")),
		LedgerDSN:             getEnv("LEDGER_DSN", ""),
		ContractsFile:         getEnv("CONTRACTS_FILE", ""),
		OracleURL:             getEnv("ORACLE_URL", ""),
		OracleSymbol:          getEnv("ORACLE_SYMBOL", ""),
		OracleStaticPrice:     getEnv("ORACLE_STATIC_PRICE", ""),
		KeeperIntervalSeconds: getEnvAsInt("KEEPER_INTERVAL_SECONDS", 5),
		PriceScale:            getEnvAsInt("PRICE_SCALE", 8),
	}

	return config
}

// LoadEnvFile reads KEY=VALUE pairs from path into the process environment.
// Variables already set in the environment win over the file.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// Validate checks every field against its constraints.
func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s fails %q (got %v)", fe.Field(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

// Address is the listen address of the HTTP server.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// getEnv gets an environment variable with a default value.
func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

// getEnvAsInt gets an environment variable as integer with a default value.
func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}
