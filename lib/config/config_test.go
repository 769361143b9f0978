// Copyright 2026 The Corkboard Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestLoadFileMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corkboard.yaml")
	content := "server_url: https://board.example.com\nrequest_timeout: 3s\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.ServerURL != "https://board.example.com" {
		t.Errorf("ServerURL = %q", cfg.ServerURL)
	}
	if cfg.RequestTimeout.Std() != 3*time.Second {
		t.Errorf("RequestTimeout = %v", cfg.RequestTimeout)
	}
	// Unset fields keep defaults.
	if cfg.ActivityLimit != 50 {
		t.Errorf("ActivityLimit = %d, want default 50", cfg.ActivityLimit)
	}
	if cfg.SessionFile == "" {
		t.Error("SessionFile should default to a non-empty path")
	}
}

func TestLoadFileExpandsSessionFileVariables(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	path := filepath.Join(t.TempDir(), "corkboard.yaml")
	content := "session_file: ${HOME}/.corkboard/session.json\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.SessionFile != "/home/tester/.corkboard/session.json" {
		t.Errorf("SessionFile = %q", cfg.SessionFile)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty server url", func(c *Config) { c.ServerURL = "" }},
		{"non-http scheme", func(c *Config) { c.ServerURL = "ftp://example.com" }},
		{"missing session file", func(c *Config) { c.SessionFile = "" }},
		{"zero timeout", func(c *Config) { c.RequestTimeout = 0 }},
		{"zero activity limit", func(c *Config) { c.ActivityLimit = 0 }},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := Default()
			test.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate should have failed")
			}
		})
	}
}
