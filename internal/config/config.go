package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port     string `mapstructure:"PORT"`
	Env      string `mapstructure:"ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	StorageDriver string `mapstructure:"STORAGE_DRIVER"`
	DatabaseURL   string `mapstructure:"DATABASE_URL"`

	RedisEnabled  bool   `mapstructure:"REDIS_ENABLED"`
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB  int    `mapstructure:"REDIS_CACHE_DB"`
	RedisQueueDB  int    `mapstructure:"REDIS_QUEUE_DB"`

	JWTSecret string `mapstructure:"JWT_SECRET"`

	SendGridAPIKey    string `mapstructure:"SENDGRID_API_KEY"`
	SendGridFromEmail string `mapstructure:"SENDGRID_FROM_EMAIL"`
	SendGridFromName  string `mapstructure:"SENDGRID_FROM_NAME"`

	TwilioAccountSID string `mapstructure:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken  string `mapstructure:"TWILIO_AUTH_TOKEN"`
	TwilioFromNumber string `mapstructure:"TWILIO_FROM_NUMBER"`

	PlatformTimezone      string        `mapstructure:"PLATFORM_TIMEZONE"`
	CompletionSweepSpec   string        `mapstructure:"COMPLETION_SWEEP_SPEC"`
	AvailabilityCacheTTL  time.Duration `mapstructure:"AVAILABILITY_CACHE_TTL"`
	NotifyMode            string        `mapstructure:"NOTIFY_MODE"`
	BookingRequestsPerMin int           `mapstructure:"BOOKING_REQUESTS_PER_MIN"`
	CORSAllowedOrigins    []string      `mapstructure:"CORS_ALLOWED_ORIGINS"`
	ReadRetryBackoff      time.Duration `mapstructure:"READ_RETRY_BACKOFF"`
}

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"

	NotifyModeInline = "inline"
	NotifyModeQueue  = "queue"
)

var keys = []string{
	"PORT", "ENV", "LOG_LEVEL",
	"STORAGE_DRIVER", "DATABASE_URL",
	"REDIS_ENABLED", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_CACHE_DB", "REDIS_QUEUE_DB",
	"JWT_SECRET",
	"SENDGRID_API_KEY", "SENDGRID_FROM_EMAIL", "SENDGRID_FROM_NAME",
	"TWILIO_ACCOUNT_SID", "TWILIO_AUTH_TOKEN", "TWILIO_FROM_NUMBER",
	"PLATFORM_TIMEZONE", "COMPLETION_SWEEP_SPEC", "AVAILABILITY_CACHE_TTL", "NOTIFY_MODE",
	"BOOKING_REQUESTS_PER_MIN", "CORS_ALLOWED_ORIGINS", "READ_RETRY_BACKOFF",
}

// Load reads .env, an optional config.yaml and the environment, in increasing priority.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables only")
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()
	// AutomaticEnv only covers keys viper already knows about when unmarshalling.
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STORAGE_DRIVER", StorageDriverPostgres)
	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_CACHE_DB", 0)
	v.SetDefault("REDIS_QUEUE_DB", 1)
	v.SetDefault("SENDGRID_FROM_NAME", "Streambook")
	v.SetDefault("PLATFORM_TIMEZONE", "America/Sao_Paulo")
	v.SetDefault("COMPLETION_SWEEP_SPEC", "@every 1m")
	v.SetDefault("AVAILABILITY_CACHE_TTL", 5*time.Minute)
	v.SetDefault("NOTIFY_MODE", NotifyModeInline)
	v.SetDefault("BOOKING_REQUESTS_PER_MIN", 30)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("READ_RETRY_BACKOFF", 100*time.Millisecond)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}
	cfg.CORSAllowedOrigins = splitList(strings.Join(cfg.CORSAllowedOrigins, ","))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.StorageDriver {
	case StorageDriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL not set")
		}
	case StorageDriverMemory:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	switch c.NotifyMode {
	case NotifyModeInline:
	case NotifyModeQueue:
		if !c.RedisEnabled {
			return fmt.Errorf("NOTIFY_MODE=queue requires REDIS_ENABLED")
		}
	default:
		return fmt.Errorf("unknown NOTIFY_MODE %q", c.NotifyMode)
	}
	if c.JWTSecret == "" && c.IsProduction() {
		return fmt.Errorf("JWT_SECRET not set")
	}
	if c.BookingRequestsPerMin <= 0 {
		return fmt.Errorf("BOOKING_REQUESTS_PER_MIN must be positive")
	}
	if _, err := time.LoadLocation(c.PlatformTimezone); err != nil {
		return fmt.Errorf("invalid PLATFORM_TIMEZONE %q: %w", c.PlatformTimezone, err)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Location returns the timezone bookings are scheduled in. Validate has already checked it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.PlatformTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
