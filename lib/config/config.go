// Copyright 2026 The Corkboard Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings like
// "10s" or "500ms".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the duration as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the client configuration for Corkboard.
type Config struct {
	// ServerURL is the base URL of the dashboard server.
	ServerURL string `yaml:"server_url"`

	// SessionFile is where the authenticated session is persisted
	// across runs. Defaults to an XDG config path.
	SessionFile string `yaml:"session_file"`

	// RequestTimeout bounds every gateway call. A timeout is treated
	// the same as a network failure: the mutation's rollback path runs.
	RequestTimeout Duration `yaml:"request_timeout"`

	// ActivityLimit is how many activity feed entries to request.
	ActivityLimit int `yaml:"activity_limit"`
}

// Default returns the built-in configuration: a local development
// server and the standard session file location.
func Default() *Config {
	return &Config{
		ServerURL:      "http://localhost:8000",
		SessionFile:    defaultSessionFile(),
		RequestTimeout: Duration(10 * time.Second),
		ActivityLimit:  50,
	}
}

// defaultSessionFile returns the XDG config path for the persisted
// session, honoring CORKBOARD_SESSION_FILE for tests and overrides.
func defaultSessionFile() string {
	if envPath := os.Getenv("CORKBOARD_SESSION_FILE"); envPath != "" {
		return envPath
	}
	configDirectory := os.Getenv("XDG_CONFIG_HOME")
	if configDirectory == "" {
		homeDirectory, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), "corkboard-session.json")
		}
		configDirectory = filepath.Join(homeDirectory, ".config")
	}
	return filepath.Join(configDirectory, "corkboard", "session.json")
}

// Load loads configuration from the CORKBOARD_CONFIG environment
// variable, falling back to defaults when it is unset.
func Load() (*Config, error) {
	configPath := os.Getenv("CORKBOARD_CONFIG")
	if configPath == "" {
		return Default(), nil
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path, merged over
// the defaults. Environment variables do not override file values; the
// only expansion performed is ${HOME}-style path variables.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.SessionFile = os.Expand(cfg.SessionFile, func(name string) string {
		return os.Getenv(name)
	})

	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	parsed, err := url.Parse(c.ServerURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		errs = append(errs, fmt.Errorf("server_url %q is not a valid URL", c.ServerURL))
	} else if parsed.Scheme != "http" && parsed.Scheme != "https" {
		errs = append(errs, fmt.Errorf("server_url scheme must be http or https, got %q", parsed.Scheme))
	}

	if c.SessionFile == "" {
		errs = append(errs, errors.New("session_file is required"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request_timeout must be positive"))
	}
	if c.ActivityLimit <= 0 {
		errs = append(errs, errors.New("activity_limit must be positive"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
