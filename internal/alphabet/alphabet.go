// Package alphabet provides one-hot encoding of fixed-width residue windows.
package alphabet

import (
	"errors"
	"fmt"
)

// AminoAcids is the 20 canonical amino acids in one-hot basis order.
const AminoAcids = "ACDEFGHIKLMNPQRSTVWY"

// ErrEmpty is returned when an alphabet has no symbols.
var ErrEmpty = errors.New("alphabet is empty")

// SkipReason explains why a window has no feature vector.
type SkipReason int

const (
	// SkipNone means the window was encoded.
	SkipNone SkipReason = iota
	// SkipInvalidSymbol means the window holds a symbol outside the alphabet.
	SkipInvalidSymbol
	// SkipShortWindow means the window is shorter than k.
	SkipShortWindow
)

func (r SkipReason) String() string {
	switch r {
	case SkipNone:
		return "none"
	case SkipInvalidSymbol:
		return "invalid_symbol"
	case SkipShortWindow:
		return "short_window"
	default:
		return fmt.Sprintf("SkipReason(%d)", int(r))
	}
}

// Encoding is the result of encoding one window. Vector is nil unless Skip is SkipNone.
// For SkipInvalidSymbol, Position and Symbol identify the first offending residue.
type Encoding struct {
	Vector   []float32
	Skip     SkipReason
	Position int
	Symbol   byte
}

// OK reports whether the window produced a feature vector.
func (e Encoding) OK() bool {
	return e.Skip == SkipNone
}

// Alphabet is an immutable ordered symbol set defining the one-hot basis.
type Alphabet struct {
	symbols string
	index   [256]int16
}

// New builds an alphabet from symbols. Symbols must be unique single bytes.
func New(symbols string) (*Alphabet, error) {
	if symbols == "" {
		return nil, ErrEmpty
	}
	a := &Alphabet{symbols: symbols}
	for i := range a.index {
		a.index[i] = -1
	}
	for i := 0; i < len(symbols); i++ {
		c := symbols[i]
		if a.index[c] >= 0 {
			return nil, fmt.Errorf("duplicate symbol %q in alphabet", c)
		}
		a.index[c] = int16(i)
	}
	return a, nil
}

// MustNew is like New but panics on error. Intended for package-level defaults.
func MustNew(symbols string) *Alphabet {
	a, err := New(symbols)
	if err != nil {
		panic(err)
	}
	return a
}

// Default returns the canonical amino-acid alphabet.
func Default() *Alphabet {
	return MustNew(AminoAcids)
}

// Size returns the number of symbols.
func (a *Alphabet) Size() int {
	return len(a.symbols)
}

// String returns the symbols in basis order.
func (a *Alphabet) String() string {
	return a.symbols
}

// Index returns the basis position of c.
func (a *Alphabet) Index(c byte) (int, bool) {
	i := a.index[c]
	return int(i), i >= 0
}

// Valid reports whether every symbol of s is in the alphabet.
func (a *Alphabet) Valid(s string) bool {
	for i := 0; i < len(s); i++ {
		if a.index[s[i]] < 0 {
			return false
		}
	}
	return true
}

// VectorSize returns the feature vector length for windows of width k.
func (a *Alphabet) VectorSize(k int) int {
	return k * len(a.symbols)
}

// Encode one-hot encodes the first k symbols of window. Windows with a symbol
// outside the alphabet, or shorter than k, yield a skip result instead of a vector.
func (a *Alphabet) Encode(window string, k int) Encoding {
	if len(window) > k {
		window = window[:k]
	}
	if k <= 0 || len(window) < k {
		return Encoding{Skip: SkipShortWindow, Position: len(window)}
	}
	n := len(a.symbols)
	vec := make([]float32, k*n)
	for i := 0; i < k; i++ {
		c := window[i]
		idx := a.index[c]
		if idx < 0 {
			return Encoding{Skip: SkipInvalidSymbol, Position: i, Symbol: c}
		}
		vec[i*n+int(idx)] = 1
	}
	return Encoding{Vector: vec}
}
