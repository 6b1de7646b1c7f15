// Package motif turns per-window class probabilities into motif records.
package motif

import (
	"errors"
	"fmt"
	"sort"

	"github.com/hyperjump/motifscan/internal/alphabet"
	"github.com/hyperjump/motifscan/internal/classifier"
	"github.com/hyperjump/motifscan/internal/models"
	"github.com/hyperjump/motifscan/internal/window"
	"github.com/hyperjump/motifscan/pkg/utils"
)

// DefaultBackground is the label of windows that carry no motif.
const DefaultBackground = "B"

// ErrMisaligned is returned when probability rows do not line up with encoded windows.
var ErrMisaligned = errors.New("probability rows misaligned with windows")

// EncodedWindow is a window that survived encoding, with the offset it came from.
type EncodedWindow struct {
	Start  int
	Vector []float32
}

// Skipped records a window dropped during encoding.
type Skipped struct {
	Start  int
	Reason alphabet.SkipReason
	Symbol byte
}

// EncodeWindows enumerates and encodes every window of sequence. Windows that fail
// encoding are returned in skipped and never appear in encoded; offsets travel with
// the surviving vectors so no positional realignment is needed later.
func EncodeWindows(sequence string, alpha *alphabet.Alphabet, k int) (encoded []EncodedWindow, skipped []Skipped) {
	encoded = make([]EncodedWindow, 0, window.Count(len(sequence), k))
	for w := range window.Enumerate(sequence, k) {
		enc := alpha.Encode(w.Residues, k)
		if !enc.OK() {
			skipped = append(skipped, Skipped{Start: w.Start, Reason: enc.Skip, Symbol: enc.Symbol})
			continue
		}
		encoded = append(encoded, EncodedWindow{Start: w.Start, Vector: enc.Vector})
	}
	return encoded, skipped
}

// Vectors returns the feature vectors of windows in order.
func Vectors(windows []EncodedWindow) [][]float32 {
	out := make([][]float32, len(windows))
	for i, w := range windows {
		out[i] = w.Vector
	}
	return out
}

// Decode emits a record for every window whose argmax label is not background.
// probs[i] must be the prediction for windows[i]. Records are returned in ascending start order.
func Decode(
	accession, sequence string,
	windows []EncodedWindow,
	probs [][]float32,
	labels classifier.Labels,
	background string,
	k int,
) ([]models.MotifRecord, error) {
	if len(probs) != len(windows) {
		return nil, fmt.Errorf("%w: %d rows for %d windows", ErrMisaligned, len(probs), len(windows))
	}
	var records []models.MotifRecord
	for i, row := range probs {
		if len(row) != len(labels) {
			return nil, fmt.Errorf("%w: row %d has %d columns for %d labels", classifier.ErrShapeMismatch, i, len(row), len(labels))
		}
		best := utils.Argmax(row)
		if best < 0 || labels[best] == background {
			continue
		}
		start := windows[i].Start
		end := start + k
		if start < 0 || end > len(sequence) {
			return nil, fmt.Errorf("%w: window at %d exceeds sequence length %d", ErrMisaligned, start, len(sequence))
		}
		records = append(records, models.MotifRecord{
			Accession: accession,
			Start:     start,
			End:       end,
			Name:      labels[best],
			Score:     float64(row[best]),
			Strand:    models.StrandForward,
			Motif:     sequence[start:end],
		})
	}
	sort.SliceStable(records, func(a, b int) bool { return records[a].Start < records[b].Start })
	return records, nil
}
