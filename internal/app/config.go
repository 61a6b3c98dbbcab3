package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (PIZZA_ prefix), flags, or YAML config files.
type Config struct {
	Addr         string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL  string `usage:"PostgreSQL connection URL (PIZZA_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	RedisURL     string `usage:"Redis URL for order event pub/sub; empty disables notifications" flag:"redis-url"`
	APIKeyPepper string `usage:"HMAC pepper for API key hashing (PIZZA_API_KEY_PEPPER)" flag:"api-key-pepper"`
	Payments     PaymentsConfig
	SMTP         SMTPConfig
	Stock        StockConfig
	RateLimit    RateLimitConfig
	CORS         CORSConfig
	Graceful     GracefulConfig
}

// PaymentsConfig selects the payment operating mode.
type PaymentsConfig struct {
	Enabled bool `default:"false" usage:"Require payment before order confirmation"`
	// TestMode skips callback signature verification. Never enable in
	// production with Enabled=true.
	TestMode bool   `default:"true" usage:"Accept unverified payment callbacks"`
	Secret   string `usage:"Payment gateway webhook signing secret"`
	Currency string `default:"INR" usage:"ISO 4217 currency for payment intents"`
}

// SMTPConfig configures outbound mail for stock alerts.
type SMTPConfig struct {
	Host       string `usage:"SMTP server host"`
	Port       int    `default:"587" usage:"SMTP server port"`
	Username   string `usage:"SMTP username"`
	Password   string `usage:"SMTP password"`
	From       string `usage:"Alert sender address"`
	AdminEmail string `usage:"Alert recipient address" flag:"admin-email"`
}

// StockConfig controls the low-stock monitor.
type StockConfig struct {
	CheckInterval time.Duration `default:"1h" usage:"Low stock check interval" flag:"check-interval"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "PIZZA",
		Files:     []string{"config.yaml", "/etc/pizzeria/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set PIZZA_DATABASE_URL or DATABASE_URL")
	}
	if cfg.Payments.Enabled && !cfg.Payments.TestMode && cfg.Payments.Secret == "" {
		return nil, errors.New("payments secret is required outside test mode")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables
// (Railway, Render, etc.) that use standard names like DATABASE_URL and
// PORT to the application's PIZZA_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if c.RedisURL == "" {
		if v := os.Getenv("REDIS_URL"); v != "" {
			c.RedisURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
