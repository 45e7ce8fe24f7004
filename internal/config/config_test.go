package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Version != ConfigVersion {
		t.Errorf("Version = %d, want %d", cfg.Version, ConfigVersion)
	}
	if cfg.DocsRoot != "docs/phases" {
		t.Errorf("DocsRoot = %q, want docs/phases", cfg.DocsRoot)
	}
	if !cfg.Lint.LegacyWindow {
		t.Error("LegacyWindow should default to true")
	}
	if cfg.Lint.Strict {
		t.Error("Strict should default to false")
	}
	if !cfg.Archive.Snapshots {
		t.Error("Snapshots should default to true")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadConfigMissing(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Version != ConfigVersion {
		t.Errorf("missing config should yield defaults, got version %d", cfg.Version)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	root := t.TempDir()
	stateDir := filepath.Join(root, StateDir)
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		t.Fatal(err)
	}

	content := map[string]interface{}{
		"version":  ConfigVersion,
		"docsRoot": "roadmap/phases",
		"lint": map[string]interface{}{
			"strict":       true,
			"legacyWindow": false,
		},
	}
	data, _ := json.Marshal(content)
	if err := os.WriteFile(filepath.Join(stateDir, "config.json"), data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(root)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.DocsRoot != "roadmap/phases" {
		t.Errorf("DocsRoot = %q, want roadmap/phases", cfg.DocsRoot)
	}
	if !cfg.Lint.Strict {
		t.Error("Strict not loaded")
	}
	if cfg.Lint.LegacyWindow {
		t.Error("LegacyWindow not loaded")
	}
}

func TestSaveThenLoad(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, StateDir), 0755); err != nil {
		t.Fatal(err)
	}

	cfg := DefaultConfig()
	cfg.DocsRoot = "planning/phases"
	cfg.Lint.Strict = true
	if err := cfg.Save(root); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := LoadConfig(root)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if loaded.DocsRoot != "planning/phases" {
		t.Errorf("DocsRoot = %q, want planning/phases", loaded.DocsRoot)
	}
	if !loaded.Lint.Strict {
		t.Error("Strict lost in round trip")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid default", func(c *Config) {}, false},
		{"bad version", func(c *Config) { c.Version = 99 }, true},
		{"empty docs root", func(c *Config) { c.DocsRoot = "" }, true},
		{"bad compression level", func(c *Config) { c.Archive.CompressionLevel = "turbo" }, true},
		{"best compression", func(c *Config) { c.Archive.CompressionLevel = "best" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
