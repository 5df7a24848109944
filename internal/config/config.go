package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	infisical "github.com/infisical/go-sdk"
	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	FrontendOrigin string
	LogLevel       string
	APIToken       string

	StoreDriver string
	SQLitePath  string
	DatabaseURL string

	PriceSource   string
	BitbankURL    string
	BinanceURL    string
	PriceTimeout  time.Duration
	EvalInterval  time.Duration
	NotifyTimeout time.Duration
	Locale        string

	Notifier          string
	LineChannelSecret string
	LineChannelToken  string
	LineAPIURL        string
	TelegramToken     string
	TelegramAPIURL    string

	RedisURL      string
	RedisPassword string
	DedupTTL      time.Duration
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first without overriding variables already set.
func Load() Config {
	if err := godotenv.Load(); err == nil {
		slog.Info("loaded .env file")
	}

	cfg := Config{
		Port:           envOr("PORT", "8080"),
		FrontendOrigin: envOr("FRONTEND_ORIGIN", "*"),
		LogLevel:       envOr("LOG_LEVEL", "info"),
		APIToken:       os.Getenv("API_TOKEN"),

		StoreDriver: envOr("STORE_DRIVER", "sqlite"),
		SQLitePath:  envOr("SQLITE_PATH", "alerts.db"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		PriceSource:   envOr("PRICE_SOURCE", "bitbank"),
		BitbankURL:    envOr("BITBANK_API_URL", "https://public.bitbank.cc"),
		BinanceURL:    envOr("BINANCE_API_URL", "https://api.binance.com"),
		PriceTimeout:  durationOr("PRICE_TIMEOUT", 5*time.Second),
		EvalInterval:  durationOr("EVAL_INTERVAL", 60*time.Second),
		NotifyTimeout: durationOr("NOTIFY_TIMEOUT", 10*time.Second),
		Locale:        envOr("LOCALE", "ja"),

		Notifier:          envOr("NOTIFIER", "line"),
		LineChannelSecret: os.Getenv("LINE_CHANNEL_SECRET"),
		LineChannelToken:  os.Getenv("LINE_CHANNEL_TOKEN"),
		LineAPIURL:        envOr("LINE_API_URL", "https://api.line.me"),
		TelegramToken:     os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramAPIURL:    envOr("TELEGRAM_API_URL", "https://api.telegram.org"),

		RedisURL:      os.Getenv("REDIS_URL"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		DedupTTL:      durationOr("DEDUP_TTL", 24*time.Hour),
	}

	// If Infisical credentials are available, fetch secrets from Infisical
	clientID := os.Getenv("INFISICAL_CLIENT_ID")
	clientSecret := os.Getenv("INFISICAL_CLIENT_SECRET")
	if clientID != "" && clientSecret != "" {
		loadFromInfisical(&cfg, clientID, clientSecret)
	}

	return cfg
}

// Validate reports every missing or unknown setting at once.
func (c Config) Validate() error {
	var errs []error

	switch c.StoreDriver {
	case "sqlite":
		if c.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH is required for the sqlite store"))
		}
	case "postgres":
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}

	switch c.Notifier {
	case "line":
		if c.LineChannelSecret == "" || c.LineChannelToken == "" {
			errs = append(errs, errors.New("LINE_CHANNEL_SECRET and LINE_CHANNEL_TOKEN are required for the line notifier"))
		}
	case "telegram":
		if c.TelegramToken == "" {
			errs = append(errs, errors.New("TELEGRAM_BOT_TOKEN is required for the telegram notifier"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown NOTIFIER %q", c.Notifier))
	}

	if c.PriceSource != "bitbank" && c.PriceSource != "binance" {
		errs = append(errs, fmt.Errorf("unknown PRICE_SOURCE %q", c.PriceSource))
	}
	if c.EvalInterval <= 0 || c.PriceTimeout <= 0 || c.NotifyTimeout <= 0 {
		errs = append(errs, errors.New("EVAL_INTERVAL, PRICE_TIMEOUT and NOTIFY_TIMEOUT must be positive"))
	}

	return errors.Join(errs...)
}

// StoreDSN returns the connection string for the configured store driver.
func (c Config) StoreDSN() string {
	if c.StoreDriver == "postgres" {
		return c.DatabaseURL
	}
	return c.SQLitePath
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func loadFromInfisical(cfg *Config, clientID, clientSecret string) {
	siteURL := envOr("INFISICAL_SITE_URL", "https://app.infisical.com")
	projectID := os.Getenv("INFISICAL_PROJECT_ID")
	envSlug := envOr("INFISICAL_ENV", "prod")

	if projectID == "" {
		slog.Warn("INFISICAL_PROJECT_ID not set, skipping Infisical")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := infisical.NewInfisicalClient(ctx, infisical.Config{
		SiteUrl:          siteURL,
		AutoTokenRefresh: false,
	})

	_, err := client.Auth().UniversalAuthLogin(clientID, clientSecret)
	if err != nil {
		slog.Error("infisical auth failed", "error", err)
		return
	}

	secrets := map[string]*string{
		"DATABASE_URL":        &cfg.DatabaseURL,
		"LINE_CHANNEL_SECRET": &cfg.LineChannelSecret,
		"LINE_CHANNEL_TOKEN":  &cfg.LineChannelToken,
		"TELEGRAM_BOT_TOKEN":  &cfg.TelegramToken,
		"REDIS_PASSWORD":      &cfg.RedisPassword,
		"API_TOKEN":           &cfg.APIToken,
	}

	for key, target := range secrets {
		if *target != "" {
			continue // env var already set, skip
		}
		secret, err := client.Secrets().Retrieve(infisical.RetrieveSecretOptions{
			SecretKey:   key,
			Environment: envSlug,
			ProjectID:   projectID,
			SecretPath:  "/",
		})
		if err != nil {
			slog.Warn("failed to retrieve secret from infisical", "key", key, "error", err)
			continue
		}
		*target = secret.SecretValue
		slog.Info("loaded secret from infisical", "key", key)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOr(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("invalid duration, using default", "key", key, "value", v, "default", fallback.String())
		return fallback
	}
	return d
}
