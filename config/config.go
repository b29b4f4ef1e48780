package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// TomlSource represents one source definition from TOML. Method fields may
// be omitted and default to the only supported methods.
type TomlSource struct {
	FetchMethod   string `toml:"fetch_method,omitempty"`
	FetchURL      string `toml:"fetch_url"`
	WebhookMethod string `toml:"webhook_method,omitempty"`
	WebhookURL    string `toml:"webhook_url"`
	Allow         string `toml:"allow,omitempty"`
	Deny          string `toml:"deny,omitempty"`
	Label         string `toml:"label,omitempty"`
}

// TomlConfig represents the top-level configuration
type TomlConfig struct {
	Sources []TomlSource `toml:"sources"`
}

func LoadConfig(path string) (*TomlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config TomlConfig
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return &config, nil
}
