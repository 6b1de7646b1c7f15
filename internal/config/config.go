// Package config provides configuration loading and structs for the motifscan server and CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug   bool          `yaml:"debug"`
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Model   ModelConfig   `yaml:"model"`
	Scan    ScanConfig    `yaml:"scan"`
	Curated CuratedConfig `yaml:"curated"`
	Watch   WatchConfig   `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds the scan history database location.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// ModelConfig describes the ONNX classifier and how its outputs are named.
type ModelConfig struct {
	Path        string `yaml:"path"`
	LibraryPath string `yaml:"library_path"`
	InputName   string `yaml:"input_name"`
	OutputName  string `yaml:"output_name"`
	// Labels name the output columns in order.
	Labels       []string `yaml:"labels"`
	Background   string   `yaml:"background"`
	ApplySoftmax bool     `yaml:"apply_softmax"`
	BatchSize    int      `yaml:"batch_size"`
	// CacheSize is the prediction cache capacity; an explicit 0 disables the cache.
	CacheSize *int `yaml:"cache_size"`
}

// ScanConfig holds windowing settings and input limits.
type ScanConfig struct {
	Alphabet          string `yaml:"alphabet"`
	K                 int    `yaml:"k"`
	// Limits are nil when unset; an explicit 0 means unlimited.
	MaxSequenceLength *int `yaml:"max_sequence_length"`
	MaxSequences      *int `yaml:"max_sequences"`
	AccessionOnly     bool `yaml:"accession_only"`
}

// CuratedConfig locates the curated motif table and its search index.
// An empty IndexPath keeps the index in memory.
type CuratedConfig struct {
	Path      string `yaml:"path"`
	IndexPath string `yaml:"index_path"`
}

// WatchConfig holds drop-folder watch settings.
type WatchConfig struct {
	Directories []string `yaml:"directories"`
	Extensions  []string `yaml:"extensions"`
	Recursive   *bool    `yaml:"recursive"`
}

// CacheSizeOrDefault returns the prediction cache capacity.
func (m *ModelConfig) CacheSizeOrDefault() int {
	return intOrDefault(m.CacheSize, defaultCacheSize)
}

// MaxSequenceLengthOrDefault returns the per-sequence residue limit (0 = unlimited).
func (s *ScanConfig) MaxSequenceLengthOrDefault() int {
	return intOrDefault(s.MaxSequenceLength, defaultMaxSequenceLength)
}

// MaxSequencesOrDefault returns the per-submission sequence limit (0 = unlimited).
func (s *ScanConfig) MaxSequencesOrDefault() int {
	return intOrDefault(s.MaxSequences, defaultMaxSequences)
}

func intOrDefault(v *int, def int) int {
	if v != nil {
		return *v
	}
	return def
}

// RecursiveOrDefault returns whether to watch recursively; defaults to true when unset.
func (w *WatchConfig) RecursiveOrDefault() bool {
	if w.Recursive != nil {
		return *w.Recursive
	}
	return true
}

// Load reads and parses the config file at path, applies defaults and MOTIFSCAN_*
// environment overrides, and expands paths.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	if err := ApplyEnv(&cfg); err != nil {
		return nil, err
	}
	cfg.expandPaths(filepath.Dir(path))
	return &cfg, nil
}

func (c *Config) expandPaths(configDir string) {
	c.Storage.DatabasePath = expandPath(c.Storage.DatabasePath, configDir)
	c.Model.Path = expandPath(c.Model.Path, configDir)
	if c.Model.LibraryPath != "" {
		c.Model.LibraryPath = expandPath(c.Model.LibraryPath, configDir)
	}
	if c.Curated.Path != "" {
		c.Curated.Path = expandPath(c.Curated.Path, configDir)
	}
	if c.Curated.IndexPath != "" {
		c.Curated.IndexPath = expandPath(c.Curated.IndexPath, configDir)
	}
	for i := range c.Watch.Directories {
		c.Watch.Directories[i] = expandPath(c.Watch.Directories[i], configDir)
	}
}

// Save writes the config to path. Used for persisting watch directory add/remove.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate checks settings that would otherwise fail at scan time.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	if c.Scan.K <= 0 {
		errs = append(errs, fmt.Errorf("scan.k must be positive, got %d", c.Scan.K))
	}
	if c.Scan.Alphabet == "" {
		errs = append(errs, errors.New("scan.alphabet is empty"))
	}
	if len(c.Model.Labels) == 0 {
		errs = append(errs, errors.New("model.labels is empty"))
	} else if !slices.Contains(c.Model.Labels, c.Model.Background) {
		errs = append(errs, fmt.Errorf("model.background %q not in model.labels", c.Model.Background))
	}
	if c.Scan.MaxSequenceLengthOrDefault() < 0 || c.Scan.MaxSequencesOrDefault() < 0 {
		errs = append(errs, errors.New("scan limits must not be negative"))
	}
	if c.Model.CacheSizeOrDefault() < 0 {
		errs = append(errs, errors.New("model.cache_size must not be negative"))
	}
	return errors.Join(errs...)
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
