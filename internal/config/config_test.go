package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  host: "127.0.0.1"
  port: 9000
storage:
  database_path: "test.db"
model:
  labels: ["N", "M1", "M2"]
  background: "N"
scan:
  k: 5
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Storage.DatabasePath == "" {
		t.Error("database_path should be set")
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
	if cfg.Scan.K != 5 || cfg.Scan.Alphabet != "ACDEFGHIKLMNPQRSTVWY" {
		t.Errorf("scan config: %+v", cfg.Scan)
	}
	if strings.Join(cfg.Model.Labels, ",") != "N,M1,M2" || cfg.Model.Background != "N" {
		t.Errorf("model config: %+v", cfg.Model)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoad_ExplicitZeroLimits(t *testing.T) {
	path := writeConfig(t, `
model:
  cache_size: 0
scan:
  max_sequences: 0
  max_sequence_length: 0
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := cfg.Model.CacheSizeOrDefault(); got != 0 {
		t.Errorf("cache_size = %d, want 0", got)
	}
	if got := cfg.Scan.MaxSequencesOrDefault(); got != 0 {
		t.Errorf("max_sequences = %d, want 0", got)
	}
	if got := cfg.Scan.MaxSequenceLengthOrDefault(); got != 0 {
		t.Errorf("max_sequence_length = %d, want 0", got)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoad_UnsetLimitsUseDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "debug: false\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Model.CacheSizeOrDefault() != defaultCacheSize ||
		cfg.Scan.MaxSequencesOrDefault() != defaultMaxSequences ||
		cfg.Scan.MaxSequenceLengthOrDefault() != defaultMaxSequenceLength {
		t.Errorf("defaults not applied: model=%+v scan=%+v", cfg.Model, cfg.Scan)
	}
}

func TestLoad_debugTrue(t *testing.T) {
	path := writeConfig(t, "debug: true\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug should be true when set in config")
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	path := writeConfig(t, `
storage:
  database_path: "./data/db/scans.db"
model:
  path: "./models/ppr.onnx"
curated:
  path: "./curated/motifs.tsv"
  index_path: "./indices/curated.bleve"
watch:
  directories: ["./inbox"]
`)
	dir := filepath.Dir(path)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	checks := map[string][2]string{
		"database_path":      {cfg.Storage.DatabasePath, filepath.Join(dir, "data", "db", "scans.db")},
		"model.path":         {cfg.Model.Path, filepath.Join(dir, "models", "ppr.onnx")},
		"curated.path":       {cfg.Curated.Path, filepath.Join(dir, "curated", "motifs.tsv")},
		"curated.index_path": {cfg.Curated.IndexPath, filepath.Join(dir, "indices", "curated.bleve")},
	}
	for name, c := range checks {
		if c[0] != c[1] {
			t.Errorf("%s = %s, want %s", name, c[0], c[1])
		}
	}
	if len(cfg.Watch.Directories) != 1 || cfg.Watch.Directories[0] != filepath.Join(dir, "inbox") {
		t.Errorf("watch directories = %v", cfg.Watch.Directories)
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_invalidYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "server: [unclosed\n")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" || cfg.Server.Port != 8080 {
		t.Errorf("server defaults: %+v", cfg.Server)
	}
	if cfg.Scan.K != 35 || cfg.Scan.Alphabet != "ACDEFGHIKLMNPQRSTVWY" {
		t.Errorf("scan defaults: %+v", cfg.Scan)
	}
	if len(cfg.Model.Labels) != 11 || cfg.Model.Labels[0] != "B" || cfg.Model.Background != "B" {
		t.Errorf("model defaults: %+v", cfg.Model)
	}
	if cfg.Model.InputName != "input" || cfg.Model.OutputName != "output" || cfg.Model.BatchSize != 256 {
		t.Errorf("model io defaults: %+v", cfg.Model)
	}
	if strings.Join(cfg.Watch.Extensions, ",") != ".fa,.fasta,.faa" {
		t.Errorf("watch extensions: got %v", cfg.Watch.Extensions)
	}
	if cfg.Watch.Recursive != nil {
		t.Error("recursive should stay unset without directories")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestApplyDefaults_doesNotAliasLabels(t *testing.T) {
	cfg := Default()
	cfg.Model.Labels[0] = "changed"
	if DefaultLabels[0] != "B" {
		t.Error("DefaultLabels mutated through config")
	}
}

func TestApplyDefaults_WatchRecursiveWhenDirectoriesSet(t *testing.T) {
	cfg := &Config{Watch: WatchConfig{Directories: []string{"/tmp/inbox"}}}
	ApplyDefaults(cfg)
	if cfg.Watch.Recursive == nil || !*cfg.Watch.Recursive {
		t.Error("recursive should default to true when directories are set")
	}
}

func TestWatchConfig_RecursiveOrDefault(t *testing.T) {
	yes, no := true, false
	cases := []struct {
		name string
		v    *bool
		want bool
	}{
		{"nil", nil, true},
		{"true", &yes, true},
		{"false", &no, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := &WatchConfig{Recursive: tc.v}
			if got := w.RecursiveOrDefault(); got != tc.want {
				t.Errorf("RecursiveOrDefault() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"zero k", func(c *Config) { c.Scan.K = 0 }, "scan.k"},
		{"empty alphabet", func(c *Config) { c.Scan.Alphabet = "" }, "scan.alphabet"},
		{"background missing", func(c *Config) { c.Model.Background = "Z" }, "model.background"},
		{"no labels", func(c *Config) { c.Model.Labels = nil }, "model.labels"},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"negative limit", func(c *Config) { c.Scan.MaxSequences = intPtr(-1) }, "limits"},
		{"negative cache", func(c *Config) { c.Model.CacheSize = intPtr(-1) }, "cache_size"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("Validate() = %v, want error mentioning %q", err, tc.want)
			}
		})
	}
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved.yaml")
	cfg := &Config{
		Server:  ServerConfig{Host: "localhost", Port: 9090},
		Storage: StorageConfig{DatabasePath: "/tmp/db"},
		Scan:    ScanConfig{K: 7},
	}
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Port != 9090 || loaded.Scan.K != 7 {
		t.Errorf("loaded: port %d k %d", loaded.Server.Port, loaded.Scan.K)
	}
}
