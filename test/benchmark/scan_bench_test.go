package benchmark

import (
	"context"
	"strings"
	"testing"

	"github.com/hyperjump/motifscan/internal/alphabet"
	"github.com/hyperjump/motifscan/internal/classifier"
	"github.com/hyperjump/motifscan/internal/models"
	"github.com/hyperjump/motifscan/internal/motif"
	"github.com/hyperjump/motifscan/internal/scanner"
)

func protein(n int) string {
	const residues = "ACDEFGHIKLMNPQRSTVWY"
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		b.WriteByte(residues[(i*7+i/3)%len(residues)])
	}
	return b.String()
}

func BenchmarkEncodeWindows(b *testing.B) {
	seq := protein(2000)
	alpha := alphabet.Default()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = motif.EncodeWindows(seq, alpha, 35)
	}
}

func benchmarkScan(b *testing.B, cacheSize int) {
	alpha := alphabet.Default()
	mock := classifier.NewMockClassifier(classifier.PPRLabels, alpha, 35)
	clf := classifier.NewCachedClassifier(mock, cacheSize)
	p, err := scanner.NewPipeline(scanner.Config{Classifier: clf, Alphabet: alpha, K: 35})
	if err != nil {
		b.Fatal(err)
	}
	seq := models.Sequence{Accession: "bench", Residues: protein(1000)}
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := p.ScanSequence(ctx, seq); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkScanSequence(b *testing.B)       { benchmarkScan(b, 0) }
func BenchmarkScanSequenceCached(b *testing.B) { benchmarkScan(b, 10000) }
