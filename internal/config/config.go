// Package config provides configuration management for the stock dashboard.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	apperrors "stock-dashboard/internal/errors"
	"stock-dashboard/internal/models"
)

// Config holds all application configuration.
type Config struct {
	Market      MarketConfig   `mapstructure:"market"`
	Analysis    AnalysisConfig `mapstructure:"analysis"`
	Server      ServerConfig   `mapstructure:"server"`
	Log         LogConfig      `mapstructure:"log"`
	UI          UIConfig       `mapstructure:"ui"`
	Credentials Credentials    `mapstructure:"-" json:"-"` // Loaded separately
}

// MarketConfig holds market selection defaults.
type MarketConfig struct {
	Default         string `mapstructure:"default"` // foreign, domestic
	DefaultLookback int    `mapstructure:"default_lookback"`
}

// AnalysisConfig holds the completion API settings.
type AnalysisConfig struct {
	Provider string        `mapstructure:"provider"` // perplexity, openai
	Model    string        `mapstructure:"model"`
	Endpoint string        `mapstructure:"endpoint"`
	Language string        `mapstructure:"language"` // zh, en
	Timeout  time.Duration `mapstructure:"timeout"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       bool   `mapstructure:"file"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
}

// UIConfig holds UI-related configuration.
type UIConfig struct {
	ColorEnabled bool `mapstructure:"color_enabled"`
}

// Credentials holds API credentials.
type Credentials struct {
	Perplexity APIKeyCredentials `mapstructure:"perplexity"`
	OpenAI     APIKeyCredentials `mapstructure:"openai"`
}

// APIKeyCredentials holds a single API key.
type APIKeyCredentials struct {
	APIKey string `mapstructure:"api_key"`
}

// Defaults.
const (
	DefaultProvider = "perplexity"
	DefaultModel    = "sonar-pro"
	DefaultEndpoint = "https://api.perplexity.ai/chat/completions"
	DefaultLanguage = "zh"
	DefaultAddr     = "127.0.0.1:8080"
	DefaultTimeout  = 120 * time.Second
)

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/stock-dashboard"
	}
	return filepath.Join(home, ".config", "stock-dashboard")
}

// ConfigPath returns the path of config.toml inside configDir.
func ConfigPath(configDir string) string {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}
	return filepath.Join(configDir, "config.toml")
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	v := viper.New()
	setDefaults(v)
	_ = v.Unmarshal(cfg)
	return cfg
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory. A .env file in
// the working directory is read first; missing config files are created
// from templates.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	_ = godotenv.Load()

	cfg := &Config{}

	if err := loadConfigFile(configDir, cfg); err != nil {
		return nil, apperrors.NewConfigError("config.toml", "cannot load configuration", err)
	}

	if err := loadCredentials(configDir, &cfg.Credentials); err != nil {
		return nil, apperrors.NewConfigError("credentials.toml", "cannot load credentials", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("market.default", string(models.MarketForeign))
	v.SetDefault("market.default_lookback", models.DefaultLookback)
	v.SetDefault("analysis.provider", DefaultProvider)
	v.SetDefault("analysis.model", DefaultModel)
	v.SetDefault("analysis.endpoint", DefaultEndpoint)
	v.SetDefault("analysis.language", DefaultLanguage)
	v.SetDefault("analysis.timeout", DefaultTimeout)
	v.SetDefault("server.addr", DefaultAddr)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", true)
	v.SetDefault("log.max_size", 50)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age", 30)
	v.SetDefault("ui.color_enabled", true)
}

func loadConfigFile(configDir string, cfg *Config) error {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
		// Config file not found, create template and continue with defaults
		if err := createTemplateConfig(configDir); err != nil {
			return err
		}
	}

	return v.Unmarshal(cfg)
}

func loadCredentials(configDir string, creds *Credentials) error {
	v := viper.New()
	v.SetConfigName("credentials")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return createTemplateCredentials(configDir)
		}
		return err
	}

	return v.Unmarshal(creds)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PERPLEXITY_API_KEY"); v != "" {
		cfg.Credentials.Perplexity.APIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Credentials.OpenAI.APIKey = v
	}
	if v := os.Getenv("STOCK_DASHBOARD_MARKET"); v != "" {
		cfg.Market.Default = v
	}
	if v := os.Getenv("STOCK_DASHBOARD_LANGUAGE"); v != "" {
		cfg.Analysis.Language = v
	}
	if v := os.Getenv("STOCK_DASHBOARD_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if _, err := models.ParseMarket(c.Market.Default); err != nil {
		return apperrors.NewConfigError("market.default", "must be 'foreign' or 'domestic'", nil)
	}
	if !models.ValidLookback(c.Market.DefaultLookback) {
		return apperrors.NewConfigError("market.default_lookback", "must be one of 7, 14, 30, 60, 90, 180, 365", nil)
	}

	switch c.Analysis.Provider {
	case "perplexity", "openai":
	default:
		return apperrors.NewConfigError("analysis.provider", "must be 'perplexity' or 'openai'", nil)
	}
	switch c.Analysis.Language {
	case "zh", "en":
	default:
		return apperrors.NewConfigError("analysis.language", "must be 'zh' or 'en'", nil)
	}
	if c.Analysis.Timeout < 0 {
		return apperrors.NewConfigError("analysis.timeout", "must be non-negative", nil)
	}

	return nil
}

// APIKey returns the credential for the configured provider.
func (c *Config) APIKey() string {
	if c.Analysis.Provider == "openai" {
		return c.Credentials.OpenAI.APIKey
	}
	return c.Credentials.Perplexity.APIKey
}

// RequireCredential reports a ConfigError when the active provider has no API key.
func (c *Config) RequireCredential() error {
	if c.APIKey() != "" {
		return nil
	}
	key := "PERPLEXITY_API_KEY"
	if c.Analysis.Provider == "openai" {
		key = "OPENAI_API_KEY"
	}
	return apperrors.NewConfigError(key, "API key is not set; export it or add it to credentials.toml", apperrors.ErrMissingCredential)
}

// DefaultMarket returns the parsed default market.
func (c *Config) DefaultMarket() models.Market {
	m, err := models.ParseMarket(c.Market.Default)
	if err != nil {
		return models.MarketForeign
	}
	return m
}
