// Package config loads service settings from the environment.
package config

import (
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/Cheertaboi/storefront/internal/loyalty"
	"github.com/Cheertaboi/storefront/internal/notify"
	"github.com/Cheertaboi/storefront/internal/pricing"
	"github.com/Cheertaboi/storefront/pkg/db"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type PricingConfig struct {
	TaxRate               string `envconfig:"TAX_RATE" default:"0.10"`
	FreeShippingThreshold int64  `envconfig:"FREE_SHIPPING_THRESHOLD" default:"2000000"`
	ShippingFee           int64  `envconfig:"SHIPPING_FEE" default:"50000"`
	PointValue            int64  `envconfig:"POINT_VALUE" default:"1000"`
	EarnRate              string `envconfig:"EARN_RATE" default:"0.10"`
}

// Policy converts the raw settings into a pricing policy.
func (c PricingConfig) Policy() (pricing.Policy, error) {
	tax, err := decimal.NewFromString(c.TaxRate)
	if err != nil {
		return pricing.Policy{}, errors.Wrap(err, "PRICING_TAX_RATE")
	}
	earn, err := decimal.NewFromString(c.EarnRate)
	if err != nil {
		return pricing.Policy{}, errors.Wrap(err, "PRICING_EARN_RATE")
	}
	if c.PointValue <= 0 {
		return pricing.Policy{}, errors.New("PRICING_POINT_VALUE must be positive")
	}
	return pricing.Policy{
		TaxRate:               tax,
		FreeShippingThreshold: c.FreeShippingThreshold,
		ShippingFee:           c.ShippingFee,
		Loyalty:               loyalty.Policy{PointValue: c.PointValue, EarnRate: earn},
	}, nil
}

type Config struct {
	Addr            string        `envconfig:"ADDR" default:":8080"`
	Storage         string        `envconfig:"STORAGE" default:"postgres"`
	AutoMigrate     bool          `envconfig:"AUTO_MIGRATE" default:"true"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat       string        `envconfig:"LOG_FORMAT" default:"json"`
	SessionTTL      time.Duration `envconfig:"SESSION_TTL" default:"24h"`
	SecureCookie    bool          `envconfig:"SECURE_COOKIE" default:"false"`
	MaxAddresses    int           `envconfig:"MAX_ADDRESSES" default:"3"`
	MailWorkers     int           `envconfig:"MAIL_WORKERS" default:"2"`
	MailQueue       int           `envconfig:"MAIL_QUEUE" default:"64"`
	MailTimeout     time.Duration `envconfig:"MAIL_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"15s"`
	Timezone        string        `envconfig:"TIMEZONE" default:"Asia/Ho_Chi_Minh"`
	BcryptCost      int           `envconfig:"BCRYPT_COST" default:"10"`

	// AdminEmail and AdminPassword are used by the seed command.
	AdminEmail    string `envconfig:"ADMIN_EMAIL" default:"admin@example.com"`
	AdminPassword string `envconfig:"ADMIN_PASSWORD" default:"admin123"`

	DB      db.PostgresConfig `envconfig:"DB"`
	SMTP    notify.SMTPConfig `envconfig:"SMTP"`
	Pricing PricingConfig     `envconfig:"PRICING"`
}

// Load reads the environment. Nested sections use their prefix, e.g. DB_HOST.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.Storage = strings.ToLower(cfg.Storage)
	if cfg.Storage != StoragePostgres && cfg.Storage != StorageMemory {
		return nil, errors.Errorf("unknown STORAGE %q", cfg.Storage)
	}
	if cfg.MaxAddresses < 1 {
		return nil, errors.New("MAX_ADDRESSES must be at least 1")
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return nil, errors.Wrapf(err, "TIMEZONE %q", cfg.Timezone)
	}
	return &cfg, nil
}

// Location is the zone used for the dashboard's day and week boundaries.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func (c *Config) NewLogger() *log.Logger {
	logger := log.New()
	logger.SetOutput(os.Stdout)
	if c.LogFormat == "json" {
		logger.SetFormatter(&log.JSONFormatter{})
	} else {
		logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		logger.WithField("level", c.LogLevel).Warn("unknown log level, using info")
		level = log.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}
