package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"salesdash/internal/analytics"
)

// Config holds all configuration for the dashboard client.
type Config struct {
	// Backend location and HTTP behaviour
	BaseURL        string        `mapstructure:"base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	RetryCount     int           `mapstructure:"retry_count"`

	// Client-side rate limit per feed, 0 disables it
	RateLimitPerMinute int `mapstructure:"rate_limit_per_minute"`
	RateLimitBurst     int `mapstructure:"rate_limit_burst"`

	// Feed settings
	RefreshInterval  time.Duration `mapstructure:"refresh_interval"`
	SalesPeriod      string        `mapstructure:"sales_period"`
	TopProductsLimit int           `mapstructure:"top_products_limit"`

	// Output format of the CLI: text, json or yaml
	Format string `mapstructure:"format"`
}

// Period returns SalesPeriod as a validated analytics.Period
func (c *Config) Period() analytics.Period {
	p, err := analytics.ParsePeriod(c.SalesPeriod)
	if err != nil {
		return analytics.DefaultPeriod
	}
	return p
}

// Load reads configuration from environment variables and an optional config file.
// Environment variables take precedence over config file values. An empty
// configFile searches for config.yaml in . and $HOME/.salesdash.
//
// Environment variables:
//   - API_BASE_URL (defaults to http://localhost:8000)
//   - REQUEST_TIMEOUT
//   - RETRY_COUNT
//   - RATE_LIMIT_PER_MINUTE
//   - RATE_LIMIT_BURST
//   - REFRESH_INTERVAL
//   - SALES_PERIOD
//   - TOP_PRODUCTS_LIMIT
//   - OUTPUT_FORMAT
func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("base_url", "http://localhost:8000")
	v.SetDefault("request_timeout", 10*time.Second)
	v.SetDefault("retry_count", 0)
	v.SetDefault("rate_limit_per_minute", 0)
	v.SetDefault("rate_limit_burst", 1)
	v.SetDefault("refresh_interval", 60*time.Second)
	v.SetDefault("sales_period", string(analytics.DefaultPeriod))
	v.SetDefault("top_products_limit", analytics.DefaultTopProductsLimit)
	v.SetDefault("format", "text")

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.salesdash")

		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	_ = v.BindEnv("base_url", "API_BASE_URL")
	_ = v.BindEnv("request_timeout", "REQUEST_TIMEOUT")
	_ = v.BindEnv("retry_count", "RETRY_COUNT")
	_ = v.BindEnv("rate_limit_per_minute", "RATE_LIMIT_PER_MINUTE")
	_ = v.BindEnv("rate_limit_burst", "RATE_LIMIT_BURST")
	_ = v.BindEnv("refresh_interval", "REFRESH_INTERVAL")
	_ = v.BindEnv("sales_period", "SALES_PERIOD")
	_ = v.BindEnv("top_products_limit", "TOP_PRODUCTS_LIMIT")
	_ = v.BindEnv("format", "OUTPUT_FORMAT")

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate reports every invalid field at once
func (c *Config) Validate() error {
	var problems []string

	if c.BaseURL == "" {
		problems = append(problems, "API_BASE_URL is required")
	} else if u, err := url.Parse(c.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		problems = append(problems, fmt.Sprintf("API_BASE_URL %q is not an absolute URL", c.BaseURL))
	}

	if c.RefreshInterval <= 0 {
		problems = append(problems, "REFRESH_INTERVAL must be positive")
	}
	if c.RequestTimeout <= 0 {
		problems = append(problems, "REQUEST_TIMEOUT must be positive")
	}
	if c.RetryCount < 0 {
		problems = append(problems, "RETRY_COUNT must not be negative")
	}
	if c.RateLimitPerMinute < 0 {
		problems = append(problems, "RATE_LIMIT_PER_MINUTE must not be negative")
	}
	if _, err := analytics.ParsePeriod(c.SalesPeriod); err != nil {
		problems = append(problems, fmt.Sprintf("SALES_PERIOD: %v", err))
	}
	if c.TopProductsLimit < 1 || c.TopProductsLimit > analytics.MaxTopProductsLimit {
		problems = append(problems, fmt.Sprintf("TOP_PRODUCTS_LIMIT must be between 1 and %d", analytics.MaxTopProductsLimit))
	}
	switch strings.ToLower(c.Format) {
	case "text", "json", "yaml":
	default:
		problems = append(problems, fmt.Sprintf("OUTPUT_FORMAT %q must be text, json or yaml", c.Format))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}
