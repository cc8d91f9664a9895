package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Placeholder values the deployment pipeline substitutes at build time. A
// webhook URL still holding one of these is treated as unconfigured.
var placeholders = map[string]bool{
	"__WEBHOOK_URL__":       true,
	"YOUR_WEBHOOK_URL_HERE": true,
}

type Config struct {
	Env        string `mapstructure:"ENV"`
	Port       string `mapstructure:"PORT"`
	WebhookURL string `mapstructure:"WEBHOOK_URL"`
	AdminKey   string `mapstructure:"ADMIN_KEY"`
	StaticDir  string `mapstructure:"STATIC_DIR"`

	// Secrets in the bulk config sections of the notification are sent in
	// full unless this is set.
	RedactBulkConfig bool `mapstructure:"REDACT_BULK_CONFIG"`

	// When set, submitted bot tokens are verified live against the Discord
	// API after local validation passes.
	ProbeDiscordToken bool `mapstructure:"PROBE_DISCORD_TOKEN"`

	RateLimitEnabled  bool    `mapstructure:"RATE_LIMIT_ENABLED"`
	GlobalRatePerSec  float64 `mapstructure:"GLOBAL_RATE_PER_SEC"`
	WebhookRate       float64 `mapstructure:"WEBHOOK_RATE"`
	WebhookRateWindow int     `mapstructure:"WEBHOOK_RATE_WINDOW_SEC"`
	MaxDeliveryQueue  int     `mapstructure:"MAX_DELIVERY_QUEUE"`
}

func Load() (*Config, error) {
	viper.AddConfigPath(".")
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	viper.SetDefault("ENV", "development")
	viper.SetDefault("PORT", "3000")
	viper.SetDefault("WEBHOOK_URL", "")
	viper.SetDefault("ADMIN_KEY", "dev-admin-key")
	viper.SetDefault("STATIC_DIR", "")
	viper.SetDefault("REDACT_BULK_CONFIG", false)
	viper.SetDefault("PROBE_DISCORD_TOKEN", false)
	viper.SetDefault("RATE_LIMIT_ENABLED", true)
	viper.SetDefault("GLOBAL_RATE_PER_SEC", 50.0)
	viper.SetDefault("WEBHOOK_RATE", 5.0)
	viper.SetDefault("WEBHOOK_RATE_WINDOW_SEC", 5)
	viper.SetDefault("MAX_DELIVERY_QUEUE", 100)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.WebhookURL = NormalizeWebhookURL(cfg.WebhookURL)
	return &cfg, nil
}

// NormalizeWebhookURL maps placeholder or blank endpoint values to the empty
// string so callers only need an emptiness check.
func NormalizeWebhookURL(u string) string {
	u = strings.TrimSpace(u)
	if placeholders[u] {
		return ""
	}
	return u
}

func (c *Config) WebhookConfigured() bool {
	return c.WebhookURL != ""
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) WebhookWindow() time.Duration {
	return time.Duration(c.WebhookRateWindow) * time.Second
}
