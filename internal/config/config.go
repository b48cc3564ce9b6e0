// Package config holds the per-project configuration document.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/codeatlas/codeatlas/internal/lang"
)

// CurrentVersion is the config schema version this build writes.
const CurrentVersion = 1

// FileName is the config document's name inside the project directory.
const FileName = "config.yaml"

// Config enumerates the project options.
type Config struct {
	Version     int             `yaml:"version"`
	ProjectName string          `yaml:"project_name,omitempty"`
	Languages   []lang.Language `yaml:"languages,omitempty"`
	Include     []string        `yaml:"include,omitempty"`
	Exclude     []string        `yaml:"exclude,omitempty"`
	Frameworks  []string        `yaml:"frameworks,omitempty"`
	MaxFileSize int64           `yaml:"max_file_size,omitempty"`

	EnableEmbeddings bool `yaml:"enable_embeddings"`
}

// Default returns the config written on first init.
func Default(projectName string) *Config {
	return &Config{
		Version:     CurrentVersion,
		ProjectName: projectName,
		MaxFileSize: 1 << 20, // 1 MiB
	}
}

// Load reads the config document from dir.
func Load(dir string) (*Config, error) {
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Version > CurrentVersion {
		return nil, fmt.Errorf("config version %d is newer than supported %d", cfg.Version, CurrentVersion)
	}
	if cfg.MaxFileSize < 0 {
		return nil, fmt.Errorf("max_file_size must be non-negative")
	}
	return &cfg, nil
}

// Save writes the config atomically: serialize to a temp file in the
// same directory, then rename over the target. No .tmp remnants on
// success.
func Save(dir string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	tmp, err := os.CreateTemp(dir, FileName+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("sync temp config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, filepath.Join(dir, FileName)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}
