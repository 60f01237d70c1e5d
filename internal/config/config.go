// Package config loads application configuration from a yaml file and the
// environment, and initializes the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig               `yaml:"store" mapstructure:"store"`
	Matching  MatchingConfig            `yaml:"matching" mapstructure:"matching"`
	Recovery  RecoveryConfig            `yaml:"recovery" mapstructure:"recovery"`
	Platforms map[string]PlatformConfig `yaml:"platforms" mapstructure:"platforms"`
	Server    ServerConfig              `yaml:"server" mapstructure:"server"`
	Log       LogConfig                 `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the Postgres backend.
type StoreConfig struct {
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int    `yaml:"max_conns" mapstructure:"max_conns"`
}

// MatchingConfig configures the campaign name matcher.
type MatchingConfig struct {
	// AliasFile optionally seeds workspace aliases from a yaml file in
	// addition to the aliases table.
	AliasFile string `yaml:"alias_file" mapstructure:"alias_file"`
}

// RecoveryConfig configures stuck-job recovery.
type RecoveryConfig struct {
	// WebhookURL receives a notification after each scan that found stuck
	// jobs. Empty disables notifications.
	WebhookURL string `yaml:"webhook_url" mapstructure:"webhook_url"`
}

// PlatformConfig holds one outbound platform's internal API settings.
type PlatformConfig struct {
	BaseURL      string `yaml:"base_url" mapstructure:"base_url"`
	ServiceToken string `yaml:"service_token" mapstructure:"service_token"`
}

// ServerConfig configures the webhook server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("OUTREACH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.max_conns", 8)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
