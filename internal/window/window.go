// Package window enumerates overlapping fixed-width windows over a sequence.
package window

import "iter"

// Window is a k-wide slice of a sequence starting at Start (0-based).
type Window struct {
	Start    int
	Residues string
}

// End returns the exclusive end offset.
func (w Window) End() int {
	return w.Start + len(w.Residues)
}

// Enumerate yields every window of width k with step 1, in ascending start order.
// Consecutive windows share k-1 residues. Sequences shorter than k, or k <= 0,
// yield nothing. The returned sequence has no state and can be ranged repeatedly.
func Enumerate(sequence string, k int) iter.Seq[Window] {
	return func(yield func(Window) bool) {
		if k <= 0 {
			return
		}
		for start := 0; start+k <= len(sequence); start++ {
			if !yield(Window{Start: start, Residues: sequence[start : start+k]}) {
				return
			}
		}
	}
}

// Count returns how many windows Enumerate yields for a sequence of length n.
func Count(n, k int) int {
	if k <= 0 || n < k {
		return 0
	}
	return n - k + 1
}
