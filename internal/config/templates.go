package config

import (
	"os"
	"path/filepath"

	apperrors "stock-dashboard/internal/errors"
)

const configTemplate = `# Stock Dashboard Configuration

[market]
# Market used to resolve bare symbols: "foreign" (as-is) or "domestic" (.SS/.SZ suffix)
default = "foreign"
# Default lookback window in days: 7, 14, 30, 60, 90, 180, 365
default_lookback = 30

[analysis]
# Completion provider: "perplexity" or "openai"
provider = "perplexity"
# Model identifier sent with every request
model = "sonar-pro"
# Chat-completions endpoint (base URL for the openai provider)
endpoint = "https://api.perplexity.ai/chat/completions"
# Prompt language: "zh" or "en"
language = "zh"
# Request timeout (e.g., "120s", "2m")
timeout = "120s"

[server]
# Listen address for "stock-dashboard serve"
addr = "127.0.0.1:8080"

[log]
# Log level: debug, info, warn, error
level = "info"
# Write a rotated log file next to this config
file = true
max_size = 50
max_backups = 5
max_age = 30

[ui]
# Enable colored output
color_enabled = true
`

const credentialsTemplate = `# Stock Dashboard Credentials
# WARNING: Keep this file secure! Do not commit to version control.
# PERPLEXITY_API_KEY and OPENAI_API_KEY in the environment or a .env file take precedence.

[perplexity]
api_key = ""

[openai]
api_key = ""
`

func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return apperrors.Wrap(err, "creating config directory")
	}

	path := filepath.Join(configDir, "config.toml")
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return apperrors.Wrapf(err, "writing config template %s", path)
	}

	return nil
}

func createTemplateCredentials(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return apperrors.Wrap(err, "creating config directory")
	}

	path := filepath.Join(configDir, "credentials.toml")
	// Use restricted permissions for credentials file
	if err := os.WriteFile(path, []byte(credentialsTemplate), 0600); err != nil {
		return apperrors.Wrapf(err, "writing credentials template %s", path)
	}

	return nil
}
