// Package e2e provides end-to-end tests; this file builds a protein corpus with planted motifs.
package e2e

import (
	"sort"
	"strings"

	"github.com/hyperjump/motifscan/internal/classifier"
	"github.com/hyperjump/motifscan/internal/models"
)

// CorpusK is the window width used by the corpus.
const CorpusK = 5

// Planted is a motif window placed at Start in a protein, with the score the mock assigns it.
type Planted struct {
	Start int
	Label string
	Score float32
}

// Protein is one corpus record.
type Protein struct {
	Header   string
	Residues string
	Motifs   []Planted
}

// Accession returns the first token of the header.
func (p Protein) Accession() string {
	if i := strings.IndexAny(p.Header, " \t"); i >= 0 {
		return p.Header[:i]
	}
	return p.Header
}

// Corpus is a fixed set of proteins in submission order.
type Corpus []Protein

// DefaultCorpus returns proteins covering planted motifs, overlapping motifs,
// invalid residues inside and outside windows, and sequences shorter than k.
// Planted windows are unique across the corpus so one mock registration serves all proteins.
func DefaultCorpus() Corpus {
	return Corpus{
		{
			Header:   "AT1G01970 pentatricopeptide repeat protein",
			Residues: "MSTNAVTYNTLIDGLCKAGRLEEA",
			Motifs: []Planted{
				{Start: 4, Label: "P", Score: 0.91},
				{Start: 14, Label: "L2", Score: 0.72},
			},
		},
		{
			Header:   "AT2G02980 ambiguous residues",
			Residues: "MKXXQWERTYHHPLIXFFGM",
			Motifs: []Planted{
				{Start: 4, Label: "S1", Score: 0.64},
				{Start: 5, Label: "S2", Score: 0.58},
			},
		},
		{
			Header:   "short",
			Residues: "MKV",
		},
		{
			Header:   "AT3G04760 background only",
			Residues: "MDDDDDDDDDDDDDDDDDDDDDDDDDDDDD",
		},
	}
}

// FASTA renders the corpus with sequences wrapped at width residues per line.
func (c Corpus) FASTA(width int) string {
	var b strings.Builder
	for _, p := range c {
		b.WriteString(">")
		b.WriteString(p.Header)
		b.WriteString("\n")
		for i := 0; i < len(p.Residues); i += width {
			end := min(i+width, len(p.Residues))
			b.WriteString(p.Residues[i:end])
			b.WriteString("\n")
		}
	}
	return b.String()
}

// Register teaches mock every planted window.
func (c Corpus) Register(mock *classifier.MockClassifier) {
	for _, p := range c {
		for _, m := range p.Motifs {
			mock.SetLabel(p.Residues[m.Start:m.Start+CorpusK], m.Label, m.Score)
		}
	}
}

// Expected returns the motif records a scan of the corpus must produce, in output order.
// Headers are reported in full unless accessionOnly is set.
func (c Corpus) Expected(accessionOnly bool) []models.MotifRecord {
	var out []models.MotifRecord
	for _, p := range c {
		name := p.Header
		if accessionOnly {
			name = p.Accession()
		}
		var recs []models.MotifRecord
		for _, m := range p.Motifs {
			recs = append(recs, models.MotifRecord{
				Accession: name,
				Start:     m.Start,
				End:       m.Start + CorpusK,
				Name:      m.Label,
				Score:     float64(m.Score),
				Strand:    models.StrandForward,
				Motif:     p.Residues[m.Start : m.Start+CorpusK],
			})
		}
		sort.SliceStable(recs, func(a, b int) bool { return recs[a].Start < recs[b].Start })
		out = append(out, recs...)
	}
	return out
}

// WindowCounts returns the total, encoded and skipped window counts for the corpus.
func (c Corpus) WindowCounts(valid func(string) bool) (total, encoded, skipped int) {
	for _, p := range c {
		for i := 0; i+CorpusK <= len(p.Residues); i++ {
			total++
			if valid(p.Residues[i : i+CorpusK]) {
				encoded++
			} else {
				skipped++
			}
		}
	}
	return total, encoded, skipped
}
