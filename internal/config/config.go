package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server struct {
		Host            string        `yaml:"host" envconfig:"HOST"`
		Port            int           `yaml:"port" envconfig:"PORT"`
		CORSOrigins     []string      `yaml:"cors_origins" envconfig:"CORS_ORIGINS"`
		RateLimit       int           `yaml:"rate_limit_per_minute" envconfig:"RATE_LIMIT"` // 0 disables
		ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
		WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	} `yaml:"server" envconfig:"SERVER"`
	DataSource struct {
		Symbol           string        `yaml:"symbol" envconfig:"SYMBOL"`
		MarketTimezone   string        `yaml:"market_timezone" envconfig:"MARKET_TIMEZONE"`
		BaseURL          string        `yaml:"base_url" envconfig:"BASE_URL"`
		APIKey           string        `yaml:"api_key" envconfig:"API_KEY"`
		Timeout          time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
		RSIPeriod        int           `yaml:"rsi_period" envconfig:"RSI_PERIOD"`
		BasePrice        float64       `yaml:"synthetic_base_price" envconfig:"SYNTHETIC_BASE_PRICE"`
		MaxSyntheticBars int           `yaml:"max_synthetic_bars" envconfig:"MAX_SYNTHETIC_BARS"`
	} `yaml:"data_source" envconfig:"DATA_SOURCE"`
	Webhook struct {
		URL            string        `yaml:"url" envconfig:"URL"`
		Timeout        time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
		RetryAttempts  int           `yaml:"retry_attempts" envconfig:"RETRY_ATTEMPTS"`
		RetryDelay     time.Duration `yaml:"retry_delay" envconfig:"RETRY_DELAY"`
		ForwardTimeout time.Duration `yaml:"forward_timeout" envconfig:"FORWARD_TIMEOUT"` // whole forward, retries included
	} `yaml:"webhook" envconfig:"WEBHOOK"`
	Kafka struct {
		Brokers []string `yaml:"brokers" envconfig:"BROKERS"`
		Topic   string   `yaml:"topic" envconfig:"TOPIC"`
	} `yaml:"kafka" envconfig:"KAFKA"`
	Redis struct {
		Addr      string `yaml:"addr" envconfig:"ADDR"`
		Password  string `yaml:"password" envconfig:"PASSWORD"`
		DB        int    `yaml:"db" envconfig:"DB"`
		KeyPrefix string `yaml:"key_prefix" envconfig:"KEY_PREFIX"`
	} `yaml:"redis" envconfig:"REDIS"`
	Schedule struct {
		DailyResetCron  string `yaml:"daily_reset_cron" envconfig:"DAILY_RESET_CRON"`
		ReportCron      string `yaml:"report_cron" envconfig:"REPORT_CRON"` // empty disables
		ReportRecipient string `yaml:"report_recipient" envconfig:"REPORT_RECIPIENT"`
		ReportSubject   string `yaml:"report_subject" envconfig:"REPORT_SUBJECT"`
	} `yaml:"schedule" envconfig:"SCHEDULE"`
	Display struct {
		Timezone string `yaml:"timezone" envconfig:"TIMEZONE"`
	} `yaml:"display" envconfig:"DISPLAY"`
	Log struct {
		Level string `yaml:"level" envconfig:"LEVEL"`
		Env   string `yaml:"env" envconfig:"ENV"`
	} `yaml:"log" envconfig:"LOG"`
	System struct {
		Name    string `yaml:"name" envconfig:"NAME"`
		Version string `yaml:"version" envconfig:"VERSION"`
	} `yaml:"system" envconfig:"SYSTEM"`
	Proxy string `yaml:"proxy" envconfig:"HTTPS_PROXY"`
}

// CronParser accepts the six-field (with seconds) specs used by the scheduler.
var CronParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. A missing file is fine.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load reads config from a YAML file, then applies environment variable overrides.
// Environment keys are SECTION_FIELD, e.g. SERVER_PORT or WEBHOOK_URL.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("environment overrides: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8089
	}
	if len(c.Server.CORSOrigins) == 0 {
		c.Server.CORSOrigins = []string{"*"}
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 60 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.DataSource.Symbol == "" {
		c.DataSource.Symbol = "GC=F"
	}
	if c.DataSource.MarketTimezone == "" {
		c.DataSource.MarketTimezone = "America/New_York"
	}
	if c.DataSource.Timeout == 0 {
		c.DataSource.Timeout = 30 * time.Second
	}
	if c.DataSource.RSIPeriod == 0 {
		c.DataSource.RSIPeriod = 14
	}
	if c.DataSource.BasePrice == 0 {
		c.DataSource.BasePrice = 2000
	}
	if c.DataSource.MaxSyntheticBars == 0 {
		c.DataSource.MaxSyntheticBars = 100
	}
	if c.Webhook.Timeout == 0 {
		c.Webhook.Timeout = 30 * time.Second
	}
	if c.Webhook.RetryAttempts == 0 {
		c.Webhook.RetryAttempts = 3
	}
	if c.Webhook.RetryDelay == 0 {
		c.Webhook.RetryDelay = 2 * time.Second
	}
	if c.Webhook.ForwardTimeout == 0 {
		c.Webhook.ForwardTimeout = c.Server.WriteTimeout * 3 / 4
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "gold.reports"
	}
	if c.Redis.KeyPrefix == "" {
		c.Redis.KeyPrefix = "goldsentinel"
	}
	if c.Schedule.DailyResetCron == "" {
		c.Schedule.DailyResetCron = "0 0 0 * * *"
	}
	if c.Schedule.ReportSubject == "" {
		c.Schedule.ReportSubject = "每日市場分析報告"
	}
	if c.Display.Timezone == "" {
		c.Display.Timezone = "Asia/Taipei"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Env == "" {
		c.Log.Env = "development"
	}
	if c.System.Name == "" {
		c.System.Name = "GoldSentinel"
	}
	if c.System.Version == "" {
		c.System.Version = "2.0.0"
	}
}

// Validate checks that all fields hold usable values.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("server.rate_limit_per_minute must not be negative")
	}
	if c.DataSource.Symbol == "" {
		return fmt.Errorf("data_source.symbol is required")
	}
	if c.DataSource.RSIPeriod <= 0 {
		return fmt.Errorf("data_source.rsi_period must be positive")
	}
	if c.DataSource.BasePrice <= 0 {
		return fmt.Errorf("data_source.synthetic_base_price must be positive")
	}
	if c.DataSource.MaxSyntheticBars <= 0 {
		return fmt.Errorf("data_source.max_synthetic_bars must be positive")
	}
	if c.Webhook.RetryAttempts < 0 {
		return fmt.Errorf("webhook.retry_attempts must not be negative")
	}
	if c.Webhook.ForwardTimeout <= 0 {
		return fmt.Errorf("webhook.forward_timeout must be positive")
	}
	if c.Server.WriteTimeout > 0 && c.Webhook.ForwardTimeout >= c.Server.WriteTimeout {
		return fmt.Errorf("webhook.forward_timeout (%s) must be shorter than server.write_timeout (%s)",
			c.Webhook.ForwardTimeout, c.Server.WriteTimeout)
	}
	if _, err := time.LoadLocation(c.Display.Timezone); err != nil {
		return fmt.Errorf("display.timezone: %w", err)
	}
	if _, err := time.LoadLocation(c.DataSource.MarketTimezone); err != nil {
		return fmt.Errorf("data_source.market_timezone: %w", err)
	}
	if _, err := CronParser.Parse(c.Schedule.DailyResetCron); err != nil {
		return fmt.Errorf("schedule.daily_reset_cron: %w", err)
	}
	if c.Schedule.ReportCron != "" {
		if _, err := CronParser.Parse(c.Schedule.ReportCron); err != nil {
			return fmt.Errorf("schedule.report_cron: %w", err)
		}
		if c.Schedule.ReportRecipient == "" {
			return fmt.Errorf("schedule.report_recipient is required when report_cron is set")
		}
	}
	return nil
}

// Location returns the display timezone. Call after Validate.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Display.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// MarketLocation returns the exchange timezone that daily bars are stamped in.
// Call after Validate.
func (c *Config) MarketLocation() *time.Location {
	loc, err := time.LoadLocation(c.DataSource.MarketTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
