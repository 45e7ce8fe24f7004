// Package config loads and persists the PHX configuration stored in
// .phx/config.json at the docs-repo root.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// ConfigVersion is the supported configuration schema version.
const ConfigVersion = 1

// StateDir is the local state directory at the docs-repo root.
const StateDir = ".phx"

// Config represents the complete PHX configuration
type Config struct {
	Version  int    `json:"version" mapstructure:"version"`
	DocsRoot string `json:"docsRoot" mapstructure:"docsRoot"`

	Lint    LintConfig    `json:"lint" mapstructure:"lint"`
	Archive ArchiveConfig `json:"archive" mapstructure:"archive"`
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
}

// LintConfig contains validation behavior
type LintConfig struct {
	// Strict escalates orphan/unindexed findings from warning to error
	Strict bool `json:"strict" mapstructure:"strict"`

	// LegacyWindow tolerates legacy identifiers as informational
	// findings. When false they are reported as warnings.
	LegacyWindow bool `json:"legacyWindow" mapstructure:"legacyWindow"`

	// ExcludeGlobs are path globs skipped during scanning
	ExcludeGlobs []string `json:"excludeGlobs" mapstructure:"excludeGlobs"`

	// MaxIndexSizeBytes caps how large an index file may be before it
	// is skipped
	MaxIndexSizeBytes int `json:"maxIndexSizeBytes" mapstructure:"maxIndexSizeBytes"`
}

// ArchiveConfig contains archival behavior
type ArchiveConfig struct {
	// Dir is the archive directory name under the phases root
	Dir string `json:"dir" mapstructure:"dir"`

	// Snapshots enables compressed snapshots of archived trees
	Snapshots bool `json:"snapshots" mapstructure:"snapshots"`

	// CompressionLevel selects the zstd level: fastest, default, better, best
	CompressionLevel string `json:"compressionLevel" mapstructure:"compressionLevel"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version:  ConfigVersion,
		DocsRoot: "docs/phases",
		Lint: LintConfig{
			Strict:            false,
			LegacyWindow:      true,
			ExcludeGlobs:      []string{"node_modules", ".git", "_site"},
			MaxIndexSizeBytes: 1000000,
		},
		Archive: ArchiveConfig{
			Dir:              "archive",
			Snapshots:        true,
			CompressionLevel: "default",
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

// LoadConfig loads configuration from .phx/config.json
func LoadConfig(repoRoot string) (*Config, error) {
	v := viper.New()

	// Set defaults
	def := DefaultConfig()
	v.SetDefault("version", def.Version)
	v.SetDefault("docsRoot", def.DocsRoot)
	v.SetDefault("lint.strict", def.Lint.Strict)
	v.SetDefault("lint.legacyWindow", def.Lint.LegacyWindow)
	v.SetDefault("lint.excludeGlobs", def.Lint.ExcludeGlobs)
	v.SetDefault("lint.maxIndexSizeBytes", def.Lint.MaxIndexSizeBytes)
	v.SetDefault("archive.dir", def.Archive.Dir)
	v.SetDefault("archive.snapshots", def.Archive.Snapshots)
	v.SetDefault("archive.compressionLevel", def.Archive.CompressionLevel)
	v.SetDefault("logging.format", def.Logging.Format)
	v.SetDefault("logging.level", def.Logging.Level)

	// Configure viper
	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(repoRoot, StateDir))

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		// If config doesn't exist, return default config
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	// Unmarshal into config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to .phx/config.json
func (c *Config) Save(repoRoot string) error {
	configPath := filepath.Join(repoRoot, StateDir, "config.json")

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != ConfigVersion {
		return &ConfigError{Field: "version", Message: "unsupported config version"}
	}
	if c.DocsRoot == "" {
		return &ConfigError{Field: "docsRoot", Message: "must not be empty"}
	}
	switch c.Archive.CompressionLevel {
	case "", "fastest", "default", "better", "best":
	default:
		return &ConfigError{Field: "archive.compressionLevel", Message: "must be one of: fastest, default, better, best"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
