package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type ServerConfig struct {
	Port          int           `yaml:"port"`
	APIKey        string        `yaml:"api_key"`        // bearer key guarding the checkout API
	SessionSecret string        `yaml:"session_secret"` // HMAC secret for checkout session tokens
	SessionTTL    time.Duration `yaml:"session_ttl"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
	Prefix   string        `yaml:"prefix"` // key namespace for the account state slot
}

type BackendConfig struct {
	BaseURL string        `yaml:"base_url"`
	Token   string        `yaml:"token"` // bearer token attached to every call
	Timeout time.Duration `yaml:"timeout"`
}

type GatewayConfig struct {
	Paystack struct {
		PublicKey   string   `yaml:"public_key"`
		SecretKey   string   `yaml:"secret_key"`
		CallbackURL string   `yaml:"callback_url"`
		Channels    []string `yaml:"channels"`
		Label       string   `yaml:"label"`
	} `yaml:"paystack"`
}

type CheckoutConfig struct {
	Currency       string        `yaml:"currency"`
	ConfirmTimeout time.Duration `yaml:"confirm_timeout"` // client-enforced deadline on plan confirmation
	SettleDelay    time.Duration `yaml:"settle_delay"`    // pause after activation before redirect
	RedirectURL    string        `yaml:"redirect_url"`    // dashboard destination after success
	PackagePickURL string        `yaml:"package_pick_url"`
}

type Config struct {
	Log      LogConfig      `yaml:"log"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Backend  BackendConfig  `yaml:"backend"`
	Gateway  GatewayConfig  `yaml:"gateway"`
	Checkout CheckoutConfig `yaml:"checkout"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.SessionTTL <= 0 {
		cfg.Server.SessionTTL = 30 * time.Minute
	}
	if cfg.Redis.TTL <= 0 {
		cfg.Redis.TTL = 24 * time.Hour
	}
	if cfg.Redis.Prefix == "" {
		cfg.Redis.Prefix = "acct"
	}
	if cfg.Backend.Timeout <= 0 {
		cfg.Backend.Timeout = 15 * time.Second
	}
	if cfg.Checkout.Currency == "" {
		cfg.Checkout.Currency = "ZAR"
	}
	if cfg.Checkout.ConfirmTimeout <= 0 {
		cfg.Checkout.ConfirmTimeout = 10 * time.Second
	}
	if cfg.Checkout.SettleDelay <= 0 {
		cfg.Checkout.SettleDelay = 1500 * time.Millisecond
	}
	if len(cfg.Gateway.Paystack.Channels) == 0 {
		cfg.Gateway.Paystack.Channels = []string{"card", "bank", "eft"}
	}

	// Minimal validation
	if cfg.Backend.BaseURL == "" {
		return nil, errors.New("backend.base_url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if !dev && cfg.Gateway.Paystack.SecretKey == "" {
		return nil, errors.New("gateway.paystack.secret_key is required outside dev mode")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
