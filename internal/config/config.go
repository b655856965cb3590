package config

import (
	"errors"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const DefaultPath = "config.json"

type Config struct {
	ChecksPerDay         int    `mapstructure:"checks_per_day"`
	SMTPHost             string `mapstructure:"smtp_host"`
	SMTPPort             int    `mapstructure:"smtp_port"`
	SMTPUser             string `mapstructure:"smtp_user"`
	SMTPPass             string `mapstructure:"smtp_pass"`
	EmailTo              string `mapstructure:"email_to"`
	CacheDurationMinutes int    `mapstructure:"cache_duration_minutes"`
	MaxRetries           int    `mapstructure:"max_retries"`
	NotificationCooldown int    `mapstructure:"notification_cooldown"`

	CachePath          string `mapstructure:"cache_path"`
	WatchlistPath      string `mapstructure:"watchlist_path"`
	RequestTimeoutSecs int    `mapstructure:"request_timeout_secs"`
	CoinGeckoBaseURL   string `mapstructure:"coingecko_base_url"`
	YahooBaseURL       string `mapstructure:"yahoo_base_url"`
	HTTPAddr           string `mapstructure:"http_addr"`
	TelegramBotToken   string `mapstructure:"telegram_bot_token"`
	APIKey             string `mapstructure:"api_key"`

	Log LogConfig `mapstructure:"log"`
}

// LogConfig defines the logger configuration options.
type LogConfig struct {
	Level       string `mapstructure:"level"`       // "debug", "info", "warn", "error"
	Format      string `mapstructure:"format"`      // "json" or "console"
	OutputFile  string `mapstructure:"output_file"` // rotated log file, empty disables
	Environment string `mapstructure:"environment"` // "dev" or "prod"
}

var defaults = map[string]any{
	"checks_per_day":         1440,
	"smtp_host":              "smtp.gmail.com",
	"smtp_port":              465,
	"smtp_user":              "",
	"smtp_pass":              "",
	"email_to":               "",
	"cache_duration_minutes": 2,
	"max_retries":            3,
	"notification_cooldown":  300,
	"cache_path":             "price_cache.json",
	"watchlist_path":         "watchlist.json",
	"request_timeout_secs":   10,
	"coingecko_base_url":     "https://api.coingecko.com/api/v3",
	"yahoo_base_url":         "https://query2.finance.yahoo.com",
	"http_addr":              ":8080",
	"telegram_bot_token":     "",
	"api_key":                "",
	"log.level":              "info",
	"log.format":             "json",
	"log.output_file":        "price_alerts.log",
	"log.environment":        "prod",
}

// Environment variables that win over the config file. Empty values are ignored.
var envOverrides = map[string]string{
	"smtp_user":          "SMTP_USER",
	"smtp_pass":          "SMTP_PASS",
	"email_to":           "EMAIL_TO",
	"telegram_bot_token": "TELEGRAM_BOT_TOKEN",
	"http_addr":          "HTTP_ADDR",
	"api_key":            "API_KEY",
}

// Load merges defaults, the JSON config file at path and environment
// overrides. A missing or malformed file leaves the defaults in place.
func Load(path string) *Config {
	if path == "" {
		path = DefaultPath
	}

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Printf("Config file %s not found, using defaults", path)
		} else {
			log.Printf("Warning: failed to read config %s, using defaults: %v", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		log.Printf("Warning: failed to decode config %s, using defaults: %v", path, err)
		cfg = fromDefaults()
	}
	cfg.normalize()

	if cfg.SMTPUser == "" || cfg.SMTPPass == "" || cfg.EmailTo == "" {
		log.Println("Warning: SMTP_USER, SMTP_PASS or EMAIL_TO not set, email notifications disabled")
	}
	return &cfg
}

func newViper() *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	for key, env := range envOverrides {
		if err := v.BindEnv(key, env); err != nil {
			log.Printf("Warning: cannot bind %s to %s: %v", key, env, err)
		}
	}
	return v
}

// fromDefaults decodes the defaults and environment overrides without a
// config file.
func fromDefaults() Config {
	var cfg Config
	if err := newViper().Unmarshal(&cfg); err != nil {
		log.Printf("Warning: failed to decode default config: %v", err)
	}
	return cfg
}

// normalize replaces nonsensical values with defaults.
func (c *Config) normalize() {
	if c.ChecksPerDay <= 0 {
		c.ChecksPerDay = defaults["checks_per_day"].(int)
	}
	if c.MaxRetries < 1 {
		c.MaxRetries = 1
	}
	if c.CacheDurationMinutes < 0 {
		c.CacheDurationMinutes = 0
	}
	if c.NotificationCooldown < 0 {
		c.NotificationCooldown = 0
	}
	if c.RequestTimeoutSecs <= 0 {
		c.RequestTimeoutSecs = defaults["request_timeout_secs"].(int)
	}
	if c.SMTPPort <= 0 {
		c.SMTPPort = defaults["smtp_port"].(int)
	}
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheDurationMinutes) * time.Minute
}

func (c *Config) Cooldown() time.Duration {
	return time.Duration(c.NotificationCooldown) * time.Second
}

func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSecs) * time.Second
}
