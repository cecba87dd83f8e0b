package config

import (
	"fmt"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"

	"ledgerbot/internal/locale"
	applog "ledgerbot/internal/log"
)

const (
	BackendSheets = "sheets"
	BackendMemory = "memory"
)

type Config struct {
	// Telegram
	TelegramToken string
	// Concurrent updates handled at once
	MaxConcurrentUpdates int

	// Gemini
	GeminiAPIKey string
	GeminiModel  string
	HistoryLimit int

	// Google Sheets
	GoogleSheetID       string
	GoogleWorksheetName string
	ServiceAccountJSON  string

	// Backend selection
	DataBackend      string
	MemoryLedgerFile string

	// AMQP report events (optional)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Presentation
	Language  string
	LogLevel  string
	LogFormat string
}

func Load() *Config {
	return &Config{
		TelegramToken:        getEnv("TELEGRAM_BOT_API_KEY", ""),
		MaxConcurrentUpdates: getEnvInt("MAX_CONCURRENT_UPDATES", 16),

		GeminiAPIKey: getEnv("GOOGLE_GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.0-flash-exp"),
		HistoryLimit: getEnvInt("HISTORY_LIMIT", 30),

		GoogleSheetID:       getEnv("GOOGLE_SHEET_ID", ""),
		GoogleWorksheetName: getEnv("GOOGLE_WORKSHEET_NAME", ""),
		ServiceAccountJSON:  getEnv("SERVICE_ACCOUNT_JSON", ""),

		DataBackend:      getEnv("DATA_BACKEND", BackendSheets),
		MemoryLedgerFile: getEnv("MEMORY_LEDGER_FILE", "./data/ledger.csv"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "ledgerbot"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "ledger_reports"),

		Language:  getEnv("BOT_LANGUAGE", "vi"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", applog.FormatText),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	return c.validate(true)
}

// ValidateReporting checks only what a one-off report from the terminal
// needs; the Telegram token may be absent.
func (c *Config) ValidateReporting() error {
	return c.validate(false)
}

func (c *Config) validate(telegram bool) error {
	var errors []string

	if telegram && c.TelegramToken == "" {
		errors = append(errors, "TELEGRAM_BOT_API_KEY is required")
	}
	if c.GeminiAPIKey == "" {
		errors = append(errors, "GOOGLE_GEMINI_API_KEY is required")
	}
	if strings.TrimSpace(c.GeminiModel) == "" {
		errors = append(errors, "GEMINI_MODEL cannot be empty")
	}

	validBackends := []string{BackendSheets, BackendMemory}
	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	// Spreadsheet credentials are only needed when reading the real ledger.
	if c.DataBackend == BackendSheets {
		if c.GoogleSheetID == "" {
			errors = append(errors, "GOOGLE_SHEET_ID is required when using sheets backend")
		}
		if c.ServiceAccountJSON == "" {
			errors = append(errors, "SERVICE_ACCOUNT_JSON is required when using sheets backend")
		} else if !strings.HasPrefix(strings.TrimSpace(c.ServiceAccountJSON), "{") {
			if _, err := os.Stat(c.ServiceAccountJSON); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("service account file does not exist: %s", c.ServiceAccountJSON))
			}
		}
	}
	if c.DataBackend == BackendMemory && c.MemoryLedgerFile == "" {
		errors = append(errors, "MEMORY_LEDGER_FILE cannot be empty when using memory backend")
	}

	if c.HistoryLimit < 2 {
		errors = append(errors, fmt.Sprintf("invalid history limit %d: must be at least 2", c.HistoryLimit))
	}
	if c.MaxConcurrentUpdates < 1 {
		errors = append(errors, fmt.Sprintf("invalid max concurrent updates %d: must be at least 1", c.MaxConcurrentUpdates))
	}

	if _, ok := locale.Lookup(c.Language); !ok {
		errors = append(errors, fmt.Sprintf("invalid language '%s': must be one of %v", c.Language, locale.Codes()))
	}
	if _, err := applog.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}
	validFormats := []string{applog.FormatText, applog.FormatJSON, applog.FormatPretty}
	if !slices.Contains(validFormats, c.LogFormat) {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be one of %v", c.LogFormat, validFormats))
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// Locale returns the configured locale, defaulting to Vietnamese.
func (c *Config) Locale() *locale.Locale {
	if l, ok := locale.Lookup(c.Language); ok {
		return l
	}
	return locale.Vietnamese
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}
