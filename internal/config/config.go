package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"lixi-studio/internal/envelope"
)

type Config struct {
	TelegramToken string
	GeminiAPIKey  string

	LogLevel string
	Debug    bool

	PreferIPv4 bool
	WebAddr    string

	MediaGroupDebounce time.Duration
	MaxConcurrent      int
	GenerateInterval   time.Duration
	RequestTimeout     time.Duration
	HTTPTimeout        time.Duration
	SessionIdle        time.Duration

	GeminiBaseURL    string
	GeminiAPIVersion string
	GeminiModel      string

	Brand envelope.Brand
}

type LoadOptions struct {
	// RequireTelegram makes TELEGRAM_BOT_TOKEN mandatory.
	RequireTelegram bool
}

func Load(opts LoadOptions) (Config, error) {
	defaults := envelope.DefaultBrand()

	cfg := Config{
		LogLevel:           strings.ToLower(strings.TrimSpace(getEnv("LOG_LEVEL", "info"))),
		Debug:              getEnvBool("DEBUG", false),
		PreferIPv4:         getEnvBool("PREFER_IPV4", true),
		WebAddr:            getEnv("WEB_ADDR", ":8080"),
		MediaGroupDebounce: time.Duration(getEnvInt("MEDIA_GROUP_DEBOUNCE_MS", 1200)) * time.Millisecond,
		MaxConcurrent:      getEnvInt("MAX_CONCURRENT", 4),
		GenerateInterval:   time.Duration(getEnvInt("GENERATE_INTERVAL_MS", 0)) * time.Millisecond,
		RequestTimeout:     time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 180)) * time.Second,
		HTTPTimeout:        time.Duration(getEnvInt("HTTP_TIMEOUT_SECONDS", 180)) * time.Second,
		SessionIdle:        time.Duration(getEnvInt("SESSION_IDLE_MINUTES", 120)) * time.Minute,
		GeminiBaseURL:      strings.TrimSpace(getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com")),
		GeminiAPIVersion:   strings.TrimSpace(getEnv("GEMINI_API_VERSION", "v1beta")),
		GeminiModel:        strings.TrimSpace(getEnv("GEMINI_IMAGE_MODEL", "gemini-2.5-flash-image")),
		Brand: envelope.Brand{
			Name:       getEnv("BRAND_NAME", defaults.Name),
			Address:    getEnv("BRAND_ADDRESS", defaults.Address),
			Showroom:   getEnv("BRAND_SHOWROOM", defaults.Showroom),
			Phone:      getEnv("BRAND_PHONE", defaults.Phone),
			Email:      getEnv("BRAND_EMAIL", defaults.Email),
			FileTag:    getEnv("BRAND_FILE_TAG", defaults.FileTag),
			EditionTag: getEnv("BRAND_EDITION_TAG", defaults.EditionTag),
		},
	}

	cfg.TelegramToken = strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN"))
	cfg.GeminiAPIKey = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))

	switch {
	case opts.RequireTelegram && cfg.TelegramToken == "":
		return Config{}, errors.New("TELEGRAM_BOT_TOKEN is required")
	case cfg.GeminiAPIKey == "":
		return Config{}, errors.New("GEMINI_API_KEY is required")
	}

	if cfg.MaxConcurrent < 1 {
		cfg.MaxConcurrent = 1
	}
	if cfg.GenerateInterval < 0 {
		cfg.GenerateInterval = 0
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 180 * time.Second
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 180 * time.Second
	}
	if cfg.SessionIdle <= 0 {
		cfg.SessionIdle = 2 * time.Hour
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
