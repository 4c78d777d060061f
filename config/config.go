package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"

	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// Config holds all configuration values.
type Config struct {
	AppPort  string `mapstructure:"APP_PORT" validate:"required"`
	Env      string `mapstructure:"ENV" validate:"oneof=development production test"`
	LogLevel string `mapstructure:"LOG_LEVEL" validate:"oneof=debug info warn error"`

	// Database
	DBDriver      string `mapstructure:"DB_DRIVER" validate:"oneof=postgres mongo memory"`
	DatabaseURL   string `mapstructure:"DATABASE_URL" validate:"required_unless=DBDriver memory"`
	DatabaseKey   string `mapstructure:"DATABASE_KEY"`
	MongoDatabase string `mapstructure:"MONGO_DATABASE"`

	// Optional session registry. Sessions are stateless when empty.
	RedisURL string `mapstructure:"REDIS_URL"`

	// Admin console
	AdminUsername  string `mapstructure:"ADMIN_USERNAME"`
	AdminPassword  string `mapstructure:"ADMIN_PASSWORD"`
	SessionSecret  string `mapstructure:"SESSION_SECRET" validate:"required,min=16"`
	AdminStaticDir string `mapstructure:"ADMIN_STATIC_DIR"`

	// Outbound e-mail
	ResendAPIKey  string        `mapstructure:"RESEND_API_KEY"`
	EmailAPIURL   string        `mapstructure:"EMAIL_API_URL" validate:"required,url"`
	NotifyFrom    string        `mapstructure:"NOTIFY_FROM"`
	NotifyTo      string        `mapstructure:"NOTIFY_TO" validate:"omitempty,email"`
	NotifyTimeout time.Duration `mapstructure:"NOTIFY_TIMEOUT" validate:"gt=0"`

	// Booking
	DefaultPricePerPerson string `mapstructure:"DEFAULT_PRICE_PER_PERSON" validate:"numeric"`
	MercadoPagoLink       string `mapstructure:"MERCADOPAGO_LINK"`
	RateLimitPerMin       int    `mapstructure:"RATE_LIMIT_PER_MIN" validate:"gte=1"`
}

// Load reads an optional .env file, an optional config.yaml and the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()

	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_DRIVER", DriverPostgres)
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DATABASE_KEY", "")
	v.SetDefault("MONGO_DATABASE", "ceramics")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("ADMIN_USERNAME", "")
	v.SetDefault("ADMIN_PASSWORD", "")
	v.SetDefault("SESSION_SECRET", "")
	v.SetDefault("ADMIN_STATIC_DIR", "./public/admin")
	v.SetDefault("RESEND_API_KEY", "")
	v.SetDefault("EMAIL_API_URL", "https://api.resend.com/emails")
	v.SetDefault("NOTIFY_FROM", "Reservas <reservas@example.com>")
	v.SetDefault("NOTIFY_TO", "")
	v.SetDefault("NOTIFY_TIMEOUT", "5s")
	v.SetDefault("DEFAULT_PRICE_PER_PERSON", "120")
	v.SetDefault("MERCADOPAGO_LINK", "")
	v.SetDefault("RATE_LIMIT_PER_MIN", 30)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.SessionSecret == "" && cfg.Env != EnvProduction {
		secret, err := randomSecret()
		if err != nil {
			return Config{}, err
		}
		cfg.SessionSecret = secret
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// AdminConfigured reports whether a login credential pair is set.
func (c Config) AdminConfigured() bool {
	return c.AdminUsername != "" && c.AdminPassword != ""
}

// DefaultPrice is the per-person fallback price. Zero disables the fallback.
func (c Config) DefaultPrice() decimal.Decimal {
	price, err := decimal.NewFromString(c.DefaultPricePerPerson)
	if err != nil {
		return decimal.Zero
	}
	return price
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
