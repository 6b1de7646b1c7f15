package classifier

import (
	"context"
	"sync"

	"github.com/hyperjump/motifscan/internal/alphabet"
)

// MockClassifier is a deterministic classifier for tests. It decodes each one-hot vector
// back to its window string and returns the probabilities registered for that window,
// or the default row (all mass on the first label) otherwise.
type MockClassifier struct {
	labels   Labels
	alpha    *alphabet.Alphabet
	k        int
	mu       sync.Mutex
	byWindow map[string][]float32
	fallback []float32
	err      error
	calls    []int
}

// NewMockClassifier returns a mock for windows of width k over alpha.
func NewMockClassifier(labels Labels, alpha *alphabet.Alphabet, k int) *MockClassifier {
	fallback := make([]float32, len(labels))
	if len(fallback) > 0 {
		fallback[0] = 1
	}
	return &MockClassifier{
		labels:   labels,
		alpha:    alpha,
		k:        k,
		byWindow: make(map[string][]float32),
		fallback: fallback,
	}
}

// Set registers the probability row returned for window.
func (m *MockClassifier) Set(window string, probs ...float32) *MockClassifier {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byWindow[window] = probs
	return m
}

// SetLabel registers window as label with the given score; remaining mass goes to the first label.
func (m *MockClassifier) SetLabel(window, label string, score float32) *MockClassifier {
	row := make([]float32, len(m.labels))
	if idx := m.labels.Index(label); idx >= 0 {
		row[idx] = score
		if idx != 0 {
			row[0] = 1 - score
		}
	}
	return m.Set(window, row...)
}

// FailWith makes every subsequent Predict return err.
func (m *MockClassifier) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns the batch size of each Predict call so far.
func (m *MockClassifier) Calls() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.calls...)
}

// Predict returns one row per vector.
func (m *MockClassifier) Predict(ctx context.Context, batch [][]float32) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := CheckBatch(batch, m.InputSize()); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, len(batch))
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float32, len(batch))
	for i, vec := range batch {
		row, ok := m.byWindow[m.decode(vec)]
		if !ok {
			row = m.fallback
		}
		out[i] = append([]float32(nil), row...)
	}
	return out, nil
}

func (m *MockClassifier) decode(vec []float32) string {
	n := m.alpha.Size()
	symbols := m.alpha.String()
	buf := make([]byte, m.k)
	for i := 0; i < m.k; i++ {
		buf[i] = '?'
		for j := 0; j < n; j++ {
			if vec[i*n+j] != 0 {
				buf[i] = symbols[j]
				break
			}
		}
	}
	return string(buf)
}

// InputSize returns k times the alphabet size.
func (m *MockClassifier) InputSize() int {
	return m.alpha.VectorSize(m.k)
}

// Labels returns the configured labels.
func (m *MockClassifier) Labels() Labels {
	return m.labels
}

// Close is a no-op for MockClassifier.
func (m *MockClassifier) Close() error {
	return nil
}
