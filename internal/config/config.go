// Package config loads server configuration from defaults, an optional YAML
// file and POS_ environment variables, in that order of precedence.
package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // checkout.timezone must resolve on hosts without zoneinfo

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/shopspring/decimal"

	"github.com/mmynk/tiendapos/internal/calculator"
)

// EnvPrefix prefixes every environment override. Nested keys use "__",
// e.g. POS_STORAGE__DRIVER or POS_AUTH__JWT_SECRET.
const EnvPrefix = "POS_"

type Config struct {
	Server struct {
		Addr         string        `koanf:"addr"`
		ReadTimeout  time.Duration `koanf:"read_timeout"`
		WriteTimeout time.Duration `koanf:"write_timeout"`
		IdleTimeout  time.Duration `koanf:"idle_timeout"`
		StaticDir    string        `koanf:"static_dir"`
	} `koanf:"server"`

	Log struct {
		Level string `koanf:"level"`
		File  string `koanf:"file"`
	} `koanf:"log"`

	Storage struct {
		Driver      string `koanf:"driver"`
		SQLitePath  string `koanf:"sqlite_path"`
		PostgresDSN string `koanf:"postgres_dsn"`
		Migrate     bool   `koanf:"migrate"`
	} `koanf:"storage"`

	Auth struct {
		JWTSecret string        `koanf:"jwt_secret"`
		TokenTTL  time.Duration `koanf:"token_ttl"`
	} `koanf:"auth"`

	Tax struct {
		Rate string `koanf:"rate"`
		Mode string `koanf:"mode"`
	} `koanf:"tax"`

	Checkout struct {
		MaxAttempts    int    `koanf:"max_attempts"`
		StrictCash     bool   `koanf:"strict_cash"`
		Currency       string `koanf:"currency"`
		CurrencySymbol string `koanf:"currency_symbol"`
		Locale         string `koanf:"locale"`
		Timezone       string `koanf:"timezone"`
	} `koanf:"checkout"`

	Redis struct {
		Addr           string        `koanf:"addr"`
		Password       string        `koanf:"password"`
		DB             int           `koanf:"db"`
		IdempotencyTTL time.Duration `koanf:"idempotency_ttl"`
	} `koanf:"redis"`

	RabbitMQ struct {
		URL      string `koanf:"url"`
		Exchange string `koanf:"exchange"`
	} `koanf:"rabbitmq"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	var c Config
	c.Server.Addr = ":8080"
	c.Server.ReadTimeout = 15 * time.Second
	c.Server.WriteTimeout = 30 * time.Second
	c.Server.IdleTimeout = 60 * time.Second
	c.Log.Level = "info"
	c.Storage.Driver = "sqlite"
	c.Storage.SQLitePath = "./data/pos.db"
	c.Storage.Migrate = true
	c.Auth.TokenTTL = 12 * time.Hour
	c.Tax.Rate = "0.18"
	c.Tax.Mode = string(calculator.TaxAddedOnDiscounted)
	c.Checkout.MaxAttempts = 10
	c.Checkout.StrictCash = true
	c.Checkout.Currency = "PEN"
	c.Checkout.CurrencySymbol = "S/"
	c.Checkout.Locale = "es-PE"
	c.Checkout.Timezone = "America/Lima"
	c.Redis.IdempotencyTTL = 24 * time.Hour
	c.RabbitMQ.Exchange = "pos.events"
	return c
}

// Load builds the configuration. path may be empty to skip the YAML file.
func Load(path string) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, EnvPrefix)
		s = strings.ReplaceAll(s, "__", ".")
		return strings.ToLower(s)
	}), nil); err != nil {
		return Config{}, fmt.Errorf("failed to load environment overrides: %w", err)
	}

	// Unmarshal only overwrites keys that were loaded, so defaults survive.
	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot start with.
func (c Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr required")
	}
	switch c.Storage.Driver {
	case "sqlite":
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("storage.sqlite_path required for sqlite driver")
		}
	case "postgres":
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("storage.postgres_dsn required for postgres driver")
		}
	default:
		return fmt.Errorf("storage.driver must be sqlite or postgres, got %q", c.Storage.Driver)
	}
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be positive")
	}
	if _, err := c.TaxPolicy(); err != nil {
		return err
	}
	if c.Checkout.MaxAttempts <= 0 {
		return fmt.Errorf("checkout.max_attempts must be positive")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// TaxPolicy parses the tax section.
func (c Config) TaxPolicy() (calculator.TaxPolicy, error) {
	rate, err := decimal.NewFromString(c.Tax.Rate)
	if err != nil {
		return calculator.TaxPolicy{}, fmt.Errorf("tax.rate %q is not a decimal: %w", c.Tax.Rate, err)
	}
	if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return calculator.TaxPolicy{}, fmt.Errorf("tax.rate must be in [0, 1), got %s", rate)
	}
	mode := calculator.TaxMode(c.Tax.Mode)
	if !mode.Valid() {
		return calculator.TaxPolicy{}, fmt.Errorf("tax.mode %q is not one of added, gross, embedded", c.Tax.Mode)
	}
	return calculator.TaxPolicy{Rate: rate, Mode: mode}, nil
}

// Location resolves checkout.timezone, which decides the business day of a sale.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Checkout.Timezone)
	if err != nil {
		return nil, fmt.Errorf("checkout.timezone %q: %w", c.Checkout.Timezone, err)
	}
	return loc, nil
}
