// Package config loads warp defaults from a YAML file and WARP_* environment
// variables. Command-line flags take precedence over both; see cmd/warp.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/samcharles93/warp/internal/logger"
	"github.com/samcharles93/warp/pkg/warp"
)

// EnvPrefix prefixes every environment override, e.g. WARP_TOP_K.
const EnvPrefix = "WARP"

// Config represents the warp configuration file (~/.config/warp/config.yaml).
// Numeric fields are pointers so "not set" is distinct from zero.
type Config struct {
	// Selection
	TopK    *int   `yaml:"top_k" envconfig:"TOP_K"`
	Backend string `yaml:"backend" envconfig:"BACKEND"`

	// Sampling defaults
	Temperature   *float64 `yaml:"temperature" envconfig:"TEMPERATURE"`
	TopP          *float64 `yaml:"top_p" envconfig:"TOP_P"`
	MinP          *float64 `yaml:"min_p" envconfig:"MIN_P"`
	RepeatPenalty *float64 `yaml:"repeat_penalty" envconfig:"REPEAT_PENALTY"`
	RepeatLastN   *int     `yaml:"repeat_last_n" envconfig:"REPEAT_LAST_N"`
	Seed          *int64   `yaml:"seed" envconfig:"SEED"`

	// Output
	LogLevel  string `yaml:"log_level" envconfig:"LOG_LEVEL"`
	LogFormat string `yaml:"log_format" envconfig:"LOG_FORMAT"`

	// Server
	ServerAddress string `yaml:"server_address" envconfig:"SERVER_ADDRESS"`
}

// DefaultPath returns the per-user config file location, or "" when the
// user config directory cannot be determined.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "warp", "config.yaml")
}

// Load reads the YAML file at path (DefaultPath when empty) and applies
// environment overrides on top. A missing file is not an error.
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		path = DefaultPath()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("environment overrides: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks the enumerated and ranged fields.
func (c Config) Validate() error {
	var errs []error
	if _, err := warp.ParseBackend(c.Backend); err != nil {
		errs = append(errs, err)
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if _, err := logger.ParseFormat(c.LogFormat); err != nil {
		errs = append(errs, err)
	}
	if c.TopK != nil && *c.TopK < 0 {
		errs = append(errs, fmt.Errorf("top_k must be >= 0, got %d", *c.TopK))
	}
	if c.TopP != nil && (*c.TopP < 0 || *c.TopP > 1) {
		errs = append(errs, fmt.Errorf("top_p must be within [0, 1], got %g", *c.TopP))
	}
	return errors.Join(errs...)
}
