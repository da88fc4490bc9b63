package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	AppEnv string `env:"APP_ENV" envDefault:"development" validate:"oneof=development staging production"`
	Port   string `env:"PORT" envDefault:"8080" validate:"required,numeric"`

	MongoURI string `env:"MONGO_URI,required" validate:"required"`
	DBName   string `env:"DB_NAME" envDefault:"shop" validate:"required"`

	JWTSecret string `env:"JWT_SECRET,required" validate:"required,min=16"`

	LogLevel  slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	LogFormat string     `env:"LOG_FORMAT" envDefault:"tint" validate:"oneof=tint text json"`

	HTTPTimeout time.Duration `env:"HTTP_TIMEOUT" envDefault:"20s" validate:"gt=0"`

	GatewayBaseURL   string `env:"GATEWAY_BASE_URL" envDefault:"https://api.razorpay.com" validate:"required,url"`
	GatewayKeyID     string `env:"GATEWAY_KEY_ID"`
	GatewayKeySecret string `env:"GATEWAY_KEY_SECRET"`
	GatewayCurrency  string `env:"GATEWAY_CURRENCY" envDefault:"INR" validate:"len=3"`
	PaymentDevMode   bool   `env:"PAYMENT_DEV_MODE" envDefault:"false"`

	PendingPaymentRetention time.Duration `env:"PENDING_PAYMENT_RETENTION" envDefault:"24h" validate:"gt=0"`

	CarrierBaseURL        string        `env:"CARRIER_BASE_URL" envDefault:"https://apiv2.shiprocket.in" validate:"required,url"`
	CarrierEmail          string        `env:"CARRIER_EMAIL"`
	CarrierPassword       string        `env:"CARRIER_PASSWORD"`
	CarrierPickupPostcode string        `env:"CARRIER_PICKUP_POSTCODE" envDefault:"110001" validate:"len=6,numeric"`
	CarrierPickupLocation string        `env:"CARRIER_PICKUP_LOCATION" envDefault:"Primary"`
	CarrierTokenTTL       time.Duration `env:"CARRIER_TOKEN_TTL" envDefault:"23h" validate:"gt=0"`
	CarrierTrackingURL    string        `env:"CARRIER_TRACKING_URL" envDefault:"https://shiprocket.co/tracking/" validate:"required,url"`

	ShippingFlatRate          float64 `env:"SHIPPING_FLAT_RATE" envDefault:"99" validate:"gte=0"`
	ShippingDefaultUnitWeight float64 `env:"SHIPPING_DEFAULT_UNIT_WEIGHT" envDefault:"0.5" validate:"gt=0"`
	ShippingFallbackETA       string  `env:"SHIPPING_FALLBACK_ETA" envDefault:"5-7 business days"`

	CacheProvider         string `env:"CACHE_PROVIDER" envDefault:"memory" validate:"oneof=memory redis"`
	RedisConnectionString string `env:"REDIS_CONNECTION_STRING" validate:"required_if=CacheProvider redis"`
}

var configValidator = validator.New()

// Load reads .env (when present) and the process environment into a validated Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if err := configValidator.Struct(c); err != nil {
		return err
	}

	if c.PaymentDevMode && c.IsProduction() {
		return fmt.Errorf("PAYMENT_DEV_MODE cannot be enabled when APP_ENV=production")
	}

	hasKeyID := strings.TrimSpace(c.GatewayKeyID) != ""
	hasKeySecret := strings.TrimSpace(c.GatewayKeySecret) != ""
	if hasKeyID != hasKeySecret {
		return fmt.Errorf("GATEWAY_KEY_ID and GATEWAY_KEY_SECRET must be set together")
	}
	if !hasKeyID && !c.PaymentDevMode {
		return fmt.Errorf("GATEWAY_KEY_ID and GATEWAY_KEY_SECRET are required unless PAYMENT_DEV_MODE is enabled")
	}

	hasCarrierEmail := strings.TrimSpace(c.CarrierEmail) != ""
	hasCarrierPassword := strings.TrimSpace(c.CarrierPassword) != ""
	if hasCarrierEmail != hasCarrierPassword {
		return fmt.Errorf("CARRIER_EMAIL and CARRIER_PASSWORD must be set together")
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == EnvProduction
}

// GatewayConfigured reports whether real gateway credentials are present.
func (c *Config) GatewayConfigured() bool {
	return strings.TrimSpace(c.GatewayKeyID) != "" && strings.TrimSpace(c.GatewayKeySecret) != ""
}
