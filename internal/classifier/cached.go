package classifier

import (
	"context"
	"encoding/binary"
	"math"
)

// CachedClassifier serves repeated vectors from a PredictionCache and forwards
// only the misses to the wrapped classifier, in one batch.
type CachedClassifier struct {
	Classifier
	cache *PredictionCache
}

// NewCachedClassifier wraps inner with an LRU of the given capacity.
// A capacity <= 0 returns inner unchanged.
func NewCachedClassifier(inner Classifier, capacity int) Classifier {
	if capacity <= 0 {
		return inner
	}
	return &CachedClassifier{Classifier: inner, cache: NewPredictionCache(capacity)}
}

// Cache returns the underlying cache.
func (c *CachedClassifier) Cache() *PredictionCache {
	return c.cache
}

// Predict returns cached rows where available and classifies the rest.
func (c *CachedClassifier) Predict(ctx context.Context, batch [][]float32) ([][]float32, error) {
	out := make([][]float32, len(batch))
	keys := make([]string, len(batch))
	var missIdx []int
	var missVecs [][]float32
	for i, vec := range batch {
		keys[i] = vectorKey(vec)
		if row, ok := c.cache.Get(keys[i]); ok {
			out[i] = append([]float32(nil), row...)
			continue
		}
		missIdx = append(missIdx, i)
		missVecs = append(missVecs, vec)
	}
	if len(missVecs) == 0 {
		return out, nil
	}
	rows, err := c.Classifier.Predict(ctx, missVecs)
	if err != nil {
		return nil, err
	}
	if err := CheckOutput(rows, len(missVecs), len(c.Labels())); err != nil {
		return nil, err
	}
	for j, i := range missIdx {
		out[i] = rows[j]
		c.cache.Set(keys[i], append([]float32(nil), rows[j]...))
	}
	return out, nil
}

// vectorKey encodes the non-zero entries of v exactly. One-hot windows produce short keys.
func vectorKey(v []float32) string {
	buf := make([]byte, 0, 64)
	buf = binary.AppendUvarint(buf, uint64(len(v)))
	for i, x := range v {
		if x == 0 {
			continue
		}
		buf = binary.AppendUvarint(buf, uint64(i))
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(x))
	}
	return string(buf)
}
