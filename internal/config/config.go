// Package config provides YAML-based configuration loading for the RunCoach client.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// fallbackBaseURL is used when no base URL is configured, matching the
// deployed coaching backend.
const fallbackBaseURL = "https://i-os-coach-ajohnson23.replit.app"

// Config is the top-level client configuration, loaded from config.yaml.
type Config struct {
	API       APIConfig     `yaml:"api"`
	Push      PushConfig    `yaml:"push"`
	Storage   StorageConfig `yaml:"storage"`
	Reminders string        `yaml:"reminders"` // 5-field cron expression, optional
}

// APIConfig holds connection settings for the coaching backend.
type APIConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"` // 0 means no timeout
}

// PushConfig holds settings for the push-notification gateway.
type PushConfig struct {
	GatewayURL    string `yaml:"gateway_url"`
	ProjectID     string `yaml:"project_id"`
	Simulator     bool   `yaml:"simulator"` // true disables push entirely
	NotifyCommand string `yaml:"notify_command"`
}

// StorageConfig holds settings for the local sqlite database.
type StorageConfig struct {
	Path string `yaml:"path"`
}

// DefaultPath returns the default config file location (~/.runcoach/config.yaml).
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".runcoach", "config.yaml")
}

// Load reads a YAML config file from path and returns a validated Config.
// A missing file is initialized with defaults so first runs work out of the box.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := writeDefault(path); err != nil {
			return nil, err
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.API.BaseURL == "" {
		c.API.BaseURL = fallbackBaseURL
	}
	c.API.BaseURL = strings.TrimRight(c.API.BaseURL, "/")
	if c.Storage.Path == "" {
		if home, err := os.UserHomeDir(); err == nil {
			c.Storage.Path = filepath.Join(home, ".runcoach", "runcoach.db")
		} else {
			c.Storage.Path = "runcoach.db"
		}
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if c.API.TimeoutSeconds < 0 {
		errs = append(errs, "api.timeout_seconds must not be negative")
	}
	if !strings.HasPrefix(c.API.BaseURL, "http://") && !strings.HasPrefix(c.API.BaseURL, "https://") {
		errs = append(errs, "api.base_url must be an http(s) URL")
	}
	if c.Push.GatewayURL != "" && c.Push.ProjectID == "" {
		errs = append(errs, "push.project_id is required when push.gateway_url is set")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// writeDefault creates path with a default configuration.
func writeDefault(path string) error {
	cfg := &Config{}
	cfg.applyDefaults()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshal defaults: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("config: create %s: %w", dir, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
