// Package classifier provides batch window classification via ONNX and caching.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrShapeMismatch is returned when a batch or model output has the wrong dimensions.
	ErrShapeMismatch = errors.New("classifier shape mismatch")
	// ErrUnavailable is returned when the model cannot be loaded or has been closed.
	ErrUnavailable = errors.New("classifier unavailable")
)

// Classifier maps a batch of feature vectors to per-class probability rows.
// Row i of the output corresponds to batch[i]; column j corresponds to Labels()[j].
type Classifier interface {
	Predict(ctx context.Context, batch [][]float32) ([][]float32, error)
	InputSize() int
	Labels() Labels
	Close() error
}

// Labels is the ordered class-name set matching the model's output columns.
type Labels []string

// PPRLabels is the label order of the bundled PPR motif model.
var PPRLabels = Labels{"B", "E1", "E2", "L1", "L2", "P", "P1", "P2", "S1", "S2", "SS"}

// NewLabels validates names and returns them as Labels.
func NewLabels(names ...string) (Labels, error) {
	if len(names) == 0 {
		return nil, errors.New("labels cannot be empty")
	}
	seen := make(map[string]bool, len(names))
	for i, n := range names {
		if strings.TrimSpace(n) == "" {
			return nil, fmt.Errorf("label %d is blank", i)
		}
		if seen[n] {
			return nil, fmt.Errorf("duplicate label %q", n)
		}
		seen[n] = true
	}
	return Labels(append([]string(nil), names...)), nil
}

// Index returns the column of name, or -1.
func (l Labels) Index(name string) int {
	for i, n := range l {
		if n == name {
			return i
		}
	}
	return -1
}

// Contains reports whether name is a label.
func (l Labels) Contains(name string) bool {
	return l.Index(name) >= 0
}

// CheckBatch verifies every vector has width inputSize.
func CheckBatch(batch [][]float32, inputSize int) error {
	for i, v := range batch {
		if len(v) != inputSize {
			return fmt.Errorf("%w: vector %d has width %d, want %d", ErrShapeMismatch, i, len(v), inputSize)
		}
	}
	return nil
}

// CheckOutput verifies out has n rows of width classes.
func CheckOutput(out [][]float32, n, classes int) error {
	if len(out) != n {
		return fmt.Errorf("%w: got %d rows for %d vectors", ErrShapeMismatch, len(out), n)
	}
	for i, row := range out {
		if len(row) != classes {
			return fmt.Errorf("%w: row %d has %d columns, want %d", ErrShapeMismatch, i, len(row), classes)
		}
	}
	return nil
}
