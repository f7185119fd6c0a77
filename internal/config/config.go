package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AppName is the application name used for keyring and config
const AppName = "csvprep"

// Config holds CLI configuration
type Config struct {
	OutputFormat    string `yaml:"output_format,omitempty"`   // text, json, ndjson, yaml, table
	KeyringBackend  string `yaml:"keyring_backend,omitempty"` // auto, keychain, file
	LogLevel        string `yaml:"log_level,omitempty"`       // debug, info, warn, error
	LogFormat       string `yaml:"log_format,omitempty"`      // text, json
	SeqURL          string `yaml:"seq_url,omitempty"`
	StorageEndpoint string `yaml:"storage_endpoint,omitempty"`
	StorageRegion   string `yaml:"storage_region,omitempty"`
	StorageInsecure bool   `yaml:"storage_insecure,omitempty"`
	HTTPTimeout     string `yaml:"http_timeout,omitempty"` // Go duration, e.g. 30s
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".config", AppName), nil
}

// DefaultConfigPath returns the default config file path
func DefaultConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// EnsureKeyringDir ensures the keyring directory exists and returns its path
func EnsureKeyringDir() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	keyringDir := filepath.Join(dir, "keyring")
	if err := os.MkdirAll(keyringDir, 0o700); err != nil {
		return "", fmt.Errorf("creating keyring directory: %w", err)
	}
	return keyringDir, nil
}

// ReadConfig reads the config file from the default location
func ReadConfig() (*Config, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return Load(path)
}

// Load loads config from the given path. A missing file yields an empty
// config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks values that would otherwise fail later at use.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.HTTPTimeout) != "" {
		if _, err := time.ParseDuration(strings.TrimSpace(c.HTTPTimeout)); err != nil {
			return fmt.Errorf("http_timeout: %w", err)
		}
	}
	switch strings.ToLower(strings.TrimSpace(c.LogFormat)) {
	case "", "text", "json":
	default:
		return fmt.Errorf("log_format must be text or json, got %q", c.LogFormat)
	}
	switch strings.ToLower(strings.TrimSpace(c.KeyringBackend)) {
	case "", "auto", "keychain", "file":
	default:
		return fmt.Errorf("keyring_backend must be auto, keychain, or file, got %q", c.KeyringBackend)
	}
	return nil
}

// Timeout returns the configured HTTP timeout, or zero when unset.
func (c *Config) Timeout() time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(c.HTTPTimeout))
	if err != nil {
		return 0
	}
	return d
}

// Save saves config to the given path
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}
