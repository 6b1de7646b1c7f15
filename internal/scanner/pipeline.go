// Package scanner runs the window/encode/classify/decode pipeline over FASTA input.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/hyperjump/motifscan/internal/alphabet"
	"github.com/hyperjump/motifscan/internal/classifier"
	"github.com/hyperjump/motifscan/internal/fasta"
	"github.com/hyperjump/motifscan/internal/models"
	"github.com/hyperjump/motifscan/internal/motif"
	"github.com/hyperjump/motifscan/internal/window"
	"go.uber.org/zap"
)

var (
	// ErrSequenceTooLong is returned when a sequence exceeds Config.MaxSequenceLength.
	ErrSequenceTooLong = errors.New("sequence too long")
	// ErrTooManySequences is returned when a submission exceeds Config.MaxSequences.
	ErrTooManySequences = errors.New("too many sequences")
)

// Config is the immutable pipeline configuration. It is safe to share one Pipeline
// between goroutines as long as the Classifier is safe for concurrent use.
type Config struct {
	Classifier classifier.Classifier
	Alphabet   *alphabet.Alphabet
	// Labels defaults to Classifier.Labels().
	Labels     classifier.Labels
	K          int
	Background string
	// Zero means unlimited.
	MaxSequenceLength int
	MaxSequences      int
	// AccessionOnly trims FASTA headers to their first token.
	AccessionOnly bool
}

// Pipeline scans sequences for motifs.
type Pipeline struct {
	cfg    Config
	logger *zap.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a logger for per-sequence and per-window debug output.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// NewPipeline validates cfg and returns a Pipeline.
func NewPipeline(cfg Config, opts ...Option) (*Pipeline, error) {
	if cfg.Classifier == nil {
		return nil, errors.New("classifier is required")
	}
	if cfg.Alphabet == nil {
		return nil, errors.New("alphabet is required")
	}
	if cfg.K <= 0 {
		return nil, fmt.Errorf("window size must be positive, got %d", cfg.K)
	}
	if cfg.Background == "" {
		cfg.Background = motif.DefaultBackground
	}
	if len(cfg.Labels) == 0 {
		cfg.Labels = cfg.Classifier.Labels()
	}
	if _, err := classifier.NewLabels(cfg.Labels...); err != nil {
		return nil, err
	}
	if !cfg.Labels.Contains(cfg.Background) {
		return nil, fmt.Errorf("background label %q not in labels %v", cfg.Background, cfg.Labels)
	}
	if n := len(cfg.Classifier.Labels()); n > 0 && n != len(cfg.Labels) {
		return nil, fmt.Errorf("%w: %d labels configured, classifier has %d outputs", classifier.ErrShapeMismatch, len(cfg.Labels), n)
	}
	if in := cfg.Classifier.InputSize(); in > 0 && in != cfg.Alphabet.VectorSize(cfg.K) {
		return nil, fmt.Errorf("%w: classifier expects %d inputs, k=%d over %d symbols gives %d",
			classifier.ErrShapeMismatch, in, cfg.K, cfg.Alphabet.Size(), cfg.Alphabet.VectorSize(cfg.K))
	}
	cfg.Labels = append(classifier.Labels(nil), cfg.Labels...)
	p := &Pipeline{cfg: cfg, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Config returns a copy of the pipeline configuration.
func (p *Pipeline) Config() Config {
	return p.cfg
}

// ScanSequence classifies every window of seq in a single batch and returns its motif
// records in ascending start order. Windows with symbols outside the alphabet are skipped;
// classifier failures are returned.
func (p *Pipeline) ScanSequence(ctx context.Context, seq models.Sequence) ([]models.MotifRecord, models.ScanStats, error) {
	stats := models.ScanStats{Sequences: 1}
	if p.cfg.MaxSequenceLength > 0 && seq.Len() > p.cfg.MaxSequenceLength {
		return nil, stats, fmt.Errorf("%w: %s has %d residues, limit %d", ErrSequenceTooLong, seq.Accession, seq.Len(), p.cfg.MaxSequenceLength)
	}
	stats.Windows = window.Count(seq.Len(), p.cfg.K)
	encoded, skipped := motif.EncodeWindows(seq.Residues, p.cfg.Alphabet, p.cfg.K)
	stats.EncodedWindows = len(encoded)
	stats.SkippedWindows = len(skipped)
	if len(skipped) > 0 {
		p.logger.Debug("windows skipped",
			zap.String("accession", seq.Accession),
			zap.Int("skipped", len(skipped)),
			zap.Int("first_start", skipped[0].Start),
			zap.String("reason", skipped[0].Reason.String()),
			zap.String("symbol", string(skipped[0].Symbol)),
		)
	}
	if len(encoded) == 0 {
		return nil, stats, nil
	}

	probs, err := p.cfg.Classifier.Predict(ctx, motif.Vectors(encoded))
	if err != nil {
		return nil, stats, fmt.Errorf("classify %s: %w", seq.Accession, err)
	}
	records, err := motif.Decode(seq.Accession, seq.Residues, encoded, probs, p.cfg.Labels, p.cfg.Background, p.cfg.K)
	if err != nil {
		return nil, stats, fmt.Errorf("decode %s: %w", seq.Accession, err)
	}
	stats.Motifs = len(records)
	p.logger.Debug("sequence scanned",
		zap.String("accession", seq.Accession),
		zap.Int("length", seq.Len()),
		zap.Int("windows", stats.Windows),
		zap.Int("motifs", stats.Motifs),
	)
	return records, stats, nil
}

// ScanSequences scans each sequence in order and concatenates the records.
func (p *Pipeline) ScanSequences(ctx context.Context, seqs iter.Seq2[models.Sequence, error]) (*models.ScanResult, error) {
	result := &models.ScanResult{Accessions: []string{}, Records: []models.MotifRecord{}}
	for seq, err := range seqs {
		if err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if p.cfg.MaxSequences > 0 && len(result.Accessions) >= p.cfg.MaxSequences {
			return nil, fmt.Errorf("%w: limit %d", ErrTooManySequences, p.cfg.MaxSequences)
		}
		records, stats, err := p.ScanSequence(ctx, seq)
		if err != nil {
			return nil, err
		}
		result.Accessions = append(result.Accessions, seq.Accession)
		result.Records = append(result.Records, records...)
		result.Stats.Add(stats)
	}
	return result, nil
}

// ScanFASTA reads FASTA records from r and scans them in submission order.
func (p *Pipeline) ScanFASTA(ctx context.Context, r io.Reader) (*models.ScanResult, error) {
	var opts []fasta.ReaderOption
	if p.cfg.AccessionOnly {
		opts = append(opts, fasta.WithAccessionOnly())
	}
	return p.ScanSequences(ctx, fasta.Records(r, opts...))
}
