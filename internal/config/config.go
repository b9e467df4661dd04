// Package config holds client configuration for blockopt.
//
// Configuration comes from ~/.blockopt/config.yaml with BLOCKOPT_* env
// overrides on top; a missing file just means defaults. Credentials are
// never part of configuration — they live in the session store.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults.
const (
	DefaultBaseURL = "http://localhost:8000"
	DefaultTimeout = 30 * time.Second
	DefaultTopN    = 3
)

// DefaultStockPresets are the parent block dimensions offered when the
// operator has not configured their own.
var DefaultStockPresets = []string{"500×500×2000", "800×400×2000"}

// Config is the full client configuration.
type Config struct {
	// BaseURL is the optimization service root, without a trailing slash.
	BaseURL string `yaml:"base_url"`

	// Timeout bounds each HTTP call, as a Go duration string ("30s").
	Timeout string `yaml:"timeout"`

	// TopN is the requested result count for optimization runs.
	TopN int `yaml:"top_n"`

	// StockPresets are offered as stock descriptor choices.
	StockPresets []string `yaml:"stock_presets"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		BaseURL:      DefaultBaseURL,
		Timeout:      DefaultTimeout.String(),
		TopN:         DefaultTopN,
		StockPresets: append([]string(nil), DefaultStockPresets...),
	}
}

// Dir returns the blockopt state directory (~/.blockopt).
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".blockopt"), nil
}

// Load reads the config file at path, layering it over defaults and applying
// environment overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Defaults only.
	case err != nil:
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if _, err := time.ParseDuration(cfg.Timeout); err != nil {
		return cfg, fmt.Errorf("config: invalid timeout %q: %w", cfg.Timeout, err)
	}
	if cfg.TopN <= 0 {
		cfg.TopN = DefaultTopN
	}
	return cfg, nil
}

// RequestTimeout returns the parsed per-call timeout.
func (c Config) RequestTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return DefaultTimeout
	}
	return d
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("BLOCKOPT_API_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("BLOCKOPT_TIMEOUT"); v != "" {
		cfg.Timeout = v
	}
	if v := os.Getenv("BLOCKOPT_TOP_N"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.TopN = n
		}
	}
}
