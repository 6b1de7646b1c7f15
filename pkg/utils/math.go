package utils

import "math"

// Argmax returns the index of the largest value in x, or -1 if x is empty.
// Ties resolve to the lowest index.
func Argmax(x []float32) int {
	if len(x) == 0 {
		return -1
	}
	best := 0
	for i := 1; i < len(x); i++ {
		if x[i] > x[best] {
			best = i
		}
	}
	return best
}

// Softmax converts logits to probabilities in place. Empty slices are unchanged.
func Softmax(x []float32) {
	if len(x) == 0 {
		return
	}
	maxV := x[Argmax(x)]
	var sum float64
	for i, v := range x {
		e := math.Exp(float64(v - maxV))
		x[i] = float32(e)
		sum += e
	}
	for i := range x {
		x[i] = float32(float64(x[i]) / sum)
	}
}
