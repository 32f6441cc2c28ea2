package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ManuelReschke/FilmPass/internal/pkg/env"
)

const (
	EnvProduction = "production"
	EnvStaging    = "staging"
	EnvDev        = "dev"
	EnvTest       = "test"
)

// Config is the complete runtime configuration. It is loaded once in main and
// handed to constructors; nothing below cmd/ reads the environment.
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Auth     AuthConfig
	Square   SquareConfig
	Checkout CheckoutConfig
	Webhook  WebhookConfig
	Playback PlaybackConfig
	S3       S3Config
	Download DownloadConfig
	Ops      OpsConfig
}

type AppConfig struct {
	Env     string `validate:"required,oneof=production staging dev test"`
	Host    string `validate:"required"`
	Port    string `validate:"required,numeric"`
	URL     string `validate:"required,url"`
	Release string
}

type DatabaseConfig struct {
	User     string
	Password string
	Host     string `validate:"required"`
	Port     string `validate:"required,numeric"`
	Name     string
}

type CacheConfig struct {
	Host     string
	Port     string
	Password string
	FilmTTL  time.Duration
}

// Addr returns host:port or an empty string when no cache is configured.
func (c CacheConfig) Addr() string {
	if c.Host == "" {
		return ""
	}
	return c.Host + ":" + c.Port
}

type AuthConfig struct {
	JWTSecret string `validate:"required"`
	Audience  string
}

// SquareConfig leaves BaseURL empty unless SQUARE_BASE_URL overrides it; the
// client picks the host for Environment.
type SquareConfig struct {
	Environment string `validate:"oneof=production sandbox"`
	AccessToken string
	LocationID  string
	APIVersion  string
	BaseURL     string
}

type CheckoutConfig struct {
	AppURL     string
	LocationID string
	Currency   string `validate:"required,len=3"`
	NamePrefix string
}

// WebhookConfig is passed to the reconciler at construction time.
// VerifySignature is forced on in production regardless of SQUARE_SKIP_SIGNATURE.
type WebhookConfig struct {
	SignatureKey    string
	NotificationURL string `validate:"required,url"`
	VerifySignature bool
}

type PlaybackConfig struct {
	SigningKeyID  string
	PrivateKeyPEM []byte
	TokenTTL      time.Duration `validate:"gt=0"`
}

type S3Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string `validate:"required"`
	BucketName      string
	EndpointURL     string // Optional for S3-compatible services
}

type DownloadConfig struct {
	URLTTL        time.Duration `validate:"gt=0"`
	StrictQuality bool
}

type OpsConfig struct {
	MetricsUser         string
	MetricsPasswordHash string
	SentryDSN           string
	RateLimitMax        int `validate:"gte=0"`
	RateLimitWindow     time.Duration
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return c.App.Env == EnvProduction
}

// Load reads the configuration from the loaded .env map and the process
// environment and validates it.
func Load() (*Config, error) {
	appEnv := strings.ToLower(env.GetEnv("APP_ENV", EnvProduction))
	appURL := strings.TrimRight(env.GetEnv("APP_URL", "http://localhost:4000"), "/")

	squareEnv := strings.ToLower(env.GetEnv("SQUARE_ENVIRONMENT", "sandbox"))

	privateKey, err := decodeBase64Env("MUX_SIGNING_PRIVATE_KEY")
	if err != nil {
		return nil, err
	}

	playbackTTL, err := durationEnv("PLAYBACK_TOKEN_TTL", time.Hour)
	if err != nil {
		return nil, err
	}
	downloadTTL, err := durationEnv("DOWNLOAD_URL_TTL", time.Hour)
	if err != nil {
		return nil, err
	}
	filmTTL, err := durationEnv("CACHE_FILM_TTL", 5*time.Minute)
	if err != nil {
		return nil, err
	}
	rateWindow, err := durationEnv("RATE_LIMIT_WINDOW", time.Minute)
	if err != nil {
		return nil, err
	}
	rateMax, err := strconv.Atoi(env.GetEnv("RATE_LIMIT_MAX", "60"))
	if err != nil {
		return nil, fmt.Errorf("RATE_LIMIT_MAX: %w", err)
	}

	notificationURL := env.GetEnv("SQUARE_WEBHOOK_URL", appURL+"/api/square-webhook")
	skipSignature := env.GetEnv("SQUARE_SKIP_SIGNATURE", "false") == "true"
	locationID := env.GetEnv("SQUARE_LOCATION_ID", "")

	cfg := &Config{
		App: AppConfig{
			Env:     appEnv,
			Host:    env.GetEnv("APP_HOST", "localhost"),
			Port:    env.GetEnv("APP_PORT", "4000"),
			URL:     appURL,
			Release: env.GetEnv("APP_RELEASE", "dev"),
		},
		Database: DatabaseConfig{
			User:     env.GetEnv("DB_USER", ""),
			Password: env.GetEnv("DB_PASSWORD", ""),
			Host:     env.GetEnv("DB_HOST", "127.0.0.1"),
			Port:     env.GetEnv("DB_PORT", "3306"),
			Name:     env.GetEnv("DB_NAME", ""),
		},
		Cache: CacheConfig{
			Host:     env.GetEnv("CACHE_HOST", ""),
			Port:     env.GetEnv("CACHE_PORT", "6379"),
			Password: env.GetEnv("CACHE_PASSWORD", ""),
			FilmTTL:  filmTTL,
		},
		Auth: AuthConfig{
			JWTSecret: env.GetEnv("AUTH_JWT_SECRET", ""),
			Audience:  env.GetEnv("AUTH_JWT_AUDIENCE", "authenticated"),
		},
		Square: SquareConfig{
			Environment: squareEnv,
			AccessToken: env.GetEnv("SQUARE_ACCESS_TOKEN", ""),
			LocationID:  locationID,
			APIVersion:  env.GetEnv("SQUARE_API_VERSION", "2024-01-18"),
			BaseURL:     env.GetEnv("SQUARE_BASE_URL", ""),
		},
		Checkout: CheckoutConfig{
			AppURL:     appURL,
			LocationID: locationID,
			Currency:   strings.ToUpper(env.GetEnv("CHECKOUT_CURRENCY", "USD")),
			NamePrefix: env.GetEnv("CHECKOUT_NAME_PREFIX", "T.O.N.Y."),
		},
		Webhook: WebhookConfig{
			SignatureKey:    env.GetEnv("SQUARE_WEBHOOK_SIGNATURE_KEY", ""),
			NotificationURL: notificationURL,
			VerifySignature: appEnv == EnvProduction || !skipSignature,
		},
		Playback: PlaybackConfig{
			SigningKeyID:  env.GetEnv("MUX_SIGNING_KEY_ID", ""),
			PrivateKeyPEM: privateKey,
			TokenTTL:      playbackTTL,
		},
		S3: S3Config{
			AccessKeyID:     env.GetEnv("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: env.GetEnv("S3_SECRET_ACCESS_KEY", ""),
			Region:          env.GetEnv("S3_REGION", "us-east-1"),
			BucketName:      env.GetEnv("S3_BUCKET_NAME", ""),
			EndpointURL:     env.GetEnv("S3_ENDPOINT_URL", ""),
		},
		Download: DownloadConfig{
			URLTTL:        downloadTTL,
			StrictQuality: env.GetEnv("DOWNLOAD_STRICT_QUALITY", "false") == "true",
		},
		Ops: OpsConfig{
			MetricsUser:         env.GetEnv("METRICS_USER", ""),
			MetricsPasswordHash: env.GetEnv("METRICS_PASSWORD_HASH", ""),
			SentryDSN:           env.GetEnv("SENTRY_DSN", ""),
			RateLimitMax:        rateMax,
			RateLimitWindow:     rateWindow,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks struct tags plus the cross-field rules tags cannot express.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.IsProduction() {
		if c.Webhook.SignatureKey == "" {
			return errors.New("SQUARE_WEBHOOK_SIGNATURE_KEY is required in production")
		}
		if c.Square.AccessToken == "" || c.Square.LocationID == "" {
			return errors.New("SQUARE_ACCESS_TOKEN and SQUARE_LOCATION_ID are required in production")
		}
		if c.Playback.SigningKeyID == "" || len(c.Playback.PrivateKeyPEM) == 0 {
			return errors.New("MUX_SIGNING_KEY_ID and MUX_SIGNING_PRIVATE_KEY are required in production")
		}
		if c.S3.BucketName == "" {
			return errors.New("S3_BUCKET_NAME is required in production")
		}
	}
	if c.Webhook.VerifySignature && c.Webhook.SignatureKey == "" {
		return errors.New("SQUARE_WEBHOOK_SIGNATURE_KEY is required unless SQUARE_SKIP_SIGNATURE=true outside production")
	}
	return nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(env.GetEnv(key, ""))
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func decodeBase64Env(key string) ([]byte, error) {
	raw := strings.TrimSpace(env.GetEnv(key, ""))
	if raw == "" {
		return nil, nil
	}
	decoded, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be base64 encoded: %w", key, err)
	}
	return decoded, nil
}
