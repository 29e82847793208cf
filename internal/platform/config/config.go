package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Rachio  RachioConfig  `mapstructure:"rachio"`
	Discord DiscordConfig `mapstructure:"discord"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port" validate:"min=1,max=65535"`
	PublicURL    string        `mapstructure:"public_url" validate:"required,url"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`

	// RateLimit is authenticated webhook deliveries allowed per minute per
	// client address; 0 disables it. The address is the TCP peer, so behind a
	// reverse proxy every sender shares one bucket.
	RateLimit int `mapstructure:"rate_limit" validate:"min=0"`
}

type RachioConfig struct {
	BaseURL       string        `mapstructure:"base_url" validate:"required,url"`
	APIKey        string        `mapstructure:"api_key" validate:"required"`
	WebhookSecret string        `mapstructure:"webhook_secret" validate:"required"`
	DeviceID      string        `mapstructure:"device_id"`
	Timeout       time.Duration `mapstructure:"timeout"`

	// DeviceCacheTTL bounds how long device names are reused; 0 disables caching.
	DeviceCacheTTL time.Duration `mapstructure:"device_cache_ttl"`
}

type DiscordConfig struct {
	WebhookURL string        `mapstructure:"webhook_url" validate:"required,url"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type LoggingConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	FilePath string `mapstructure:"file_path"`
}

// Environment names the service has always been deployed with.
var envBindings = map[string]string{
	"rachio.api_key":        "RACHIO_API_KEY",
	"rachio.webhook_secret": "RACHIO_WEBHOOK_SECRET_KEY",
	"rachio.device_id":      "RACHIO_DEVICE_ID",
	"server.public_url":     "PUBLIC_URL",
	"discord.webhook_url":   "DISCORD_WEBHOOK_URL",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.rate_limit", 120)

	v.SetDefault("rachio.base_url", "https://api.rach.io/1/public")
	v.SetDefault("rachio.timeout", 5*time.Second)
	v.SetDefault("rachio.device_cache_ttl", 5*time.Minute)

	v.SetDefault("discord.timeout", 5*time.Second)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.file_path", "")
}

// Load reads configuration from the optional file at path and the
// environment. With an empty path, config.yaml is looked up in the working
// directory and ./configs; a missing file there is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, err
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("configs")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, err
			}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

var validate = validator.New()

// ValidateServer checks everything the webhook receiver needs.
func (c *Config) ValidateServer() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// ValidateAdmin checks only what the management commands need to talk to
// the Rachio API and compute the public callback URL.
func (c *Config) ValidateAdmin() error {
	err := validate.StructPartial(c,
		"Rachio.BaseURL",
		"Rachio.APIKey",
		"Rachio.WebhookSecret",
		"Server.PublicURL",
	)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
