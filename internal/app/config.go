package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/dukkan-pos/dukkan/internal/checkout"
	"github.com/dukkan-pos/dukkan/internal/store"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"60s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"45s"`
	RateLimit         int           `envconfig:"APP_RATE_LIMIT" default:"120"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFile   string `envconfig:"LOG_FILE"`

	StoreDriver string `envconfig:"STORE_DRIVER" default:"bolt"`
	BoltPath    string `envconfig:"BOLT_PATH" default:"data/dukkan.db"`
	PGDSN       string `envconfig:"PG_DSN"`
	RedisAddr   string `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`

	GeminiAPIKey  string        `envconfig:"GEMINI_API_KEY"`
	GeminiBaseURL string        `envconfig:"GEMINI_BASE_URL"`
	AssistTimeout time.Duration `envconfig:"ASSIST_TIMEOUT" default:"20s"`

	GotenbergURL string `envconfig:"GOTENBERG_URL"`

	Locale            string `envconfig:"LOCALE" default:"ar"`
	CurrencyLabel     string `envconfig:"CURRENCY_LABEL" default:"ل.س"`
	ExchangeRateLabel string `envconfig:"EXCHANGE_RATE_LABEL" default:"50,000"`

	OverpaymentPolicy string `envconfig:"CHECKOUT_OVERPAYMENT_POLICY" default:"clamp"`
	SnowflakeNode     int64  `envconfig:"SNOWFLAKE_NODE" default:"1"`
	ImageJobsEnabled  bool   `envconfig:"IMAGE_JOBS_ENABLED" default:"false"`
	WorkerConcurrency int    `envconfig:"WORKER_CONCURRENCY" default:"2"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks combinations envconfig cannot express.
func (c *Config) Validate() error {
	switch store.Driver(strings.ToLower(c.StoreDriver)) {
	case store.DriverBolt, store.DriverMemory, store.DriverRedis:
	case store.DriverPostgres:
		if c.PGDSN == "" {
			return errors.New("PG_DSN must be provided for the postgres store driver")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if _, err := checkout.ParseOverpaymentPolicy(c.OverpaymentPolicy); err != nil {
		return err
	}
	if c.SnowflakeNode < 0 || c.SnowflakeNode > 1023 {
		return fmt.Errorf("SNOWFLAKE_NODE must be between 0 and 1023, got %d", c.SnowflakeNode)
	}
	if c.ImageJobsEnabled && c.RedisAddr == "" {
		return errors.New("REDIS_ADDR must be provided when IMAGE_JOBS_ENABLED is set")
	}
	return nil
}

// StoreOptions maps the config onto store.Open options.
func (c *Config) StoreOptions() store.Options {
	return store.Options{Driver: store.Driver(strings.ToLower(c.StoreDriver)), BoltPath: c.BoltPath, PGDSN: c.PGDSN, RedisAddr: c.RedisAddr}
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
