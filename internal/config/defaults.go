package config

const dataDir = "/usr/local/var/motifscan/data"

const (
	defaultCacheSize         = 10000
	defaultMaxSequenceLength = 100000
	defaultMaxSequences      = 10000
)

// DefaultLabels are the PPR motif classes, background first.
var DefaultLabels = []string{"B", "E1", "E2", "L1", "L2", "P", "P1", "P2", "S1", "S2", "SS"}

// Default returns a config with every default applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = dataDir + "/db/scans.db"
	}
	if cfg.Model.Path == "" {
		cfg.Model.Path = dataDir + "/models/ppr.onnx"
	}
	if cfg.Model.InputName == "" {
		cfg.Model.InputName = "input"
	}
	if cfg.Model.OutputName == "" {
		cfg.Model.OutputName = "output"
	}
	if len(cfg.Model.Labels) == 0 {
		cfg.Model.Labels = append([]string(nil), DefaultLabels...)
	}
	if cfg.Model.Background == "" {
		cfg.Model.Background = "B"
	}
	if cfg.Model.BatchSize == 0 {
		cfg.Model.BatchSize = 256
	}
	if cfg.Model.CacheSize == nil {
		cfg.Model.CacheSize = intPtr(defaultCacheSize)
	}
	if cfg.Scan.Alphabet == "" {
		cfg.Scan.Alphabet = "ACDEFGHIKLMNPQRSTVWY"
	}
	if cfg.Scan.K == 0 {
		cfg.Scan.K = 35
	}
	// Explicit zeros survive; they disable the limit.
	if cfg.Scan.MaxSequenceLength == nil {
		cfg.Scan.MaxSequenceLength = intPtr(defaultMaxSequenceLength)
	}
	if cfg.Scan.MaxSequences == nil {
		cfg.Scan.MaxSequences = intPtr(defaultMaxSequences)
	}
	if cfg.Curated.Path == "" {
		cfg.Curated.Path = dataDir + "/curated/ppr_motifs.tsv"
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".fa", ".fasta", ".faa"}
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Watch.Directories) > 0 && cfg.Watch.Recursive == nil {
		t := true
		cfg.Watch.Recursive = &t
	}
}

func intPtr(v int) *int {
	return &v
}
