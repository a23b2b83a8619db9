// Package config provides configuration management for the application.
package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/viper"
)

// Telegram update delivery modes.
const (
	TelegramModePolling = "polling"
	TelegramModeWebhook = "webhook"
)

// Storage drivers.
const (
	StorageDriverFile   = "file"
	StorageDriverSQLite = "sqlite"
)

// Telegram refuses messages above 4096 characters.
const telegramMessageLimit = 4096

// Config represents the application configuration.
type Config struct {
	Telegram TelegramConfig `mapstructure:"telegram"`
	GitHub   GitHubConfig   `mapstructure:"github"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Server   ServerConfig   `mapstructure:"server"`
	Delivery DeliveryConfig `mapstructure:"delivery"`
	Log      LogConfig      `mapstructure:"log"`
}

// TelegramConfig holds Telegram bot configuration.
type TelegramConfig struct {
	Token            string `mapstructure:"token"`
	Debug            bool   `mapstructure:"debug"`
	Mode             string `mapstructure:"mode"` // polling or webhook
	MaxMessageLength int    `mapstructure:"max_message_length"`
}

// GitHubConfig holds GitHub webhook and API configuration.
type GitHubConfig struct {
	Token         string `mapstructure:"token"`
	WebhookSecret string `mapstructure:"webhook_secret"`
	ValidateRepos bool   `mapstructure:"validate_repos"`
}

// StorageConfig selects where subscribers and pending dialogs are kept.
type StorageConfig struct {
	Driver string `mapstructure:"driver"` // file or sqlite
	Dir    string `mapstructure:"dir"`    // file driver
	Path   string `mapstructure:"path"`   // sqlite driver
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	PublicURL string `mapstructure:"public_url"`
}

// DeliveryConfig controls notification fan-out.
type DeliveryConfig struct {
	Workers int `mapstructure:"workers"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// Load reads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("GHBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.debug", false)
	v.SetDefault("telegram.mode", TelegramModePolling)
	v.SetDefault("telegram.max_message_length", 4000)
	v.SetDefault("github.token", "")
	v.SetDefault("github.webhook_secret", "")
	v.SetDefault("github.validate_repos", false)
	v.SetDefault("storage.driver", StorageDriverFile)
	v.SetDefault("storage.dir", "./data")
	v.SetDefault("storage.path", "./data/bot.db")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.public_url", "http://localhost:8080")
	v.SetDefault("delivery.workers", 8)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
}

// Validate checks if all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required")
	}

	switch c.Telegram.Mode {
	case TelegramModePolling, TelegramModeWebhook:
	default:
		return fmt.Errorf("unknown telegram mode %q", c.Telegram.Mode)
	}

	if c.Telegram.MaxMessageLength < 100 || c.Telegram.MaxMessageLength > telegramMessageLimit {
		return fmt.Errorf("telegram max_message_length must be between 100 and %d", telegramMessageLimit)
	}

	switch c.Storage.Driver {
	case StorageDriverFile:
		if c.Storage.Dir == "" {
			return fmt.Errorf("storage dir is required for the file driver")
		}
	case StorageDriverSQLite:
		if c.Storage.Path == "" {
			return fmt.Errorf("storage path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	u, err := url.Parse(c.Server.PublicURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("server public_url must be an absolute URL")
	}

	if c.Delivery.Workers < 1 {
		return fmt.Errorf("delivery workers must be positive")
	}

	return nil
}

// ServerAddress returns the full server address.
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GitHubWebhookURL is the payload URL users paste into their repository settings.
func (c *Config) GitHubWebhookURL() string {
	return strings.TrimRight(c.Server.PublicURL, "/") + "/github"
}

// TelegramWebhookPath is the route Telegram posts updates to in webhook mode.
func (c *Config) TelegramWebhookPath() string {
	return "/telegram/" + c.Telegram.Token
}

// TelegramWebhookURL is the absolute form of TelegramWebhookPath.
func (c *Config) TelegramWebhookURL() string {
	return strings.TrimRight(c.Server.PublicURL, "/") + c.TelegramWebhookPath()
}
