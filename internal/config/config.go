// Package config loads AlphaBot settings from the environment and an optional
// .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces every setting except the two Slack credentials, which
// keep their historical unprefixed names.
const EnvPrefix = "ALPHABOT"

// Config holds all application configuration
type Config struct {
	// HTTP Server Configuration
	Port         string        `mapstructure:"port"`
	TLS          bool          `mapstructure:"tls"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`

	// Slack Configuration
	SlackToken    string        `mapstructure:"slack_token"`
	SigningSecret string        `mapstructure:"signing_secret"`
	BotUserID     string        `mapstructure:"bot_user_id"`
	SlackAPIURL   string        `mapstructure:"slack_api_url"`
	SlackTimeout  time.Duration `mapstructure:"slack_timeout"`
	// Per-method pacing in requests per second; 0 disables it
	SlackPostRatePerSec   float64 `mapstructure:"slack_post_rate_per_sec"`
	SlackLookupRatePerSec float64 `mapstructure:"slack_lookup_rate_per_sec"`

	// Bot Configuration
	WakeWord      string        `mapstructure:"wake_word"`
	ResourceName  string        `mapstructure:"resource_name"`
	QueueSize     int           `mapstructure:"queue_size"`
	HandleTimeout time.Duration `mapstructure:"handle_timeout"`

	// Storage Configuration
	StateFile string `mapstructure:"state_file"`
	UsageLog  string `mapstructure:"usage_log"`

	// Logging Configuration
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Port:                "8000",
		ReadTimeout:         30 * time.Second,
		WriteTimeout:        30 * time.Second,
		SlackAPIURL:         "https://slack.com/api/",
		SlackTimeout:        10 * time.Second,
		SlackPostRatePerSec: 1,
		WakeWord:            "alphabot",
		ResourceName:        "FlatSat Workstation",
		QueueSize:           100,
		HandleTimeout:       30 * time.Second,
		StateFile:           "checkout.log",
		UsageLog:            "usage.log",
		LogLevel:            "info",
		LogFormat:           "json",
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("port", d.Port)
	v.SetDefault("tls", d.TLS)
	v.SetDefault("read_timeout", d.ReadTimeout)
	v.SetDefault("write_timeout", d.WriteTimeout)
	v.SetDefault("slack_token", d.SlackToken)
	v.SetDefault("signing_secret", d.SigningSecret)
	v.SetDefault("bot_user_id", d.BotUserID)
	v.SetDefault("slack_api_url", d.SlackAPIURL)
	v.SetDefault("slack_timeout", d.SlackTimeout)
	v.SetDefault("slack_post_rate_per_sec", d.SlackPostRatePerSec)
	v.SetDefault("slack_lookup_rate_per_sec", d.SlackLookupRatePerSec)
	v.SetDefault("wake_word", d.WakeWord)
	v.SetDefault("resource_name", d.ResourceName)
	v.SetDefault("queue_size", d.QueueSize)
	v.SetDefault("handle_timeout", d.HandleTimeout)
	v.SetDefault("state_file", d.StateFile)
	v.SetDefault("usage_log", d.UsageLog)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
}

// Load reads ALPHABOT_* environment variables, SLACK_TOKEN and SIGNING_SECRET,
// layered over envFile when it exists. An empty envFile skips the file.
func Load(envFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("slack_token", EnvPrefix+"_SLACK_TOKEN", "SLACK_TOKEN"); err != nil {
		return nil, err
	}
	if err := v.BindEnv("signing_secret", EnvPrefix+"_SIGNING_SECRET", "SIGNING_SECRET"); err != nil {
		return nil, err
	}

	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			v.SetConfigFile(envFile)
			v.SetConfigType("env")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", envFile, err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// Validate checks the settings the daemon cannot run without.
func (c *Config) Validate() error {
	if c.SlackToken == "" {
		return errors.New("SLACK_TOKEN is required")
	}
	if c.WakeWord == "" {
		return errors.New("wake word must not be empty")
	}
	if c.QueueSize <= 0 {
		return errors.New("queue_size must be positive")
	}
	if c.StateFile == "" || c.UsageLog == "" {
		return errors.New("state_file and usage_log must be set")
	}
	return nil
}
