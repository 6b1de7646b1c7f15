package classifier

import (
	"context"
	"testing"

	"github.com/hyperjump/motifscan/internal/alphabet"
)

func TestPredictionCache_GetSet(t *testing.T) {
	c := NewPredictionCache(2)
	if v, ok := c.Get("a"); ok || v != nil {
		t.Fatal("expected miss")
	}
	c.Set("a", []float32{0.1, 0.9})
	v, ok := c.Get("a")
	if !ok || len(v) != 2 || v[1] != 0.9 {
		t.Errorf("Get: got %v, %v", v, ok)
	}
	c.Set("b", []float32{1, 0})
	c.Set("c", []float32{0, 1}) // evicts a
	if _, ok := c.Get("a"); ok {
		t.Error("expected a to be evicted")
	}
	if _, ok := c.Get("b"); !ok {
		t.Error("expected b to remain")
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d", c.Len())
	}
	hits, misses := c.Stats()
	if hits != 2 || misses != 2 {
		t.Errorf("stats: hits=%d misses=%d", hits, misses)
	}
}

func TestCachedClassifier_ForwardsOnlyMisses(t *testing.T) {
	alpha := alphabet.Default()
	mock := NewMockClassifier(Labels{"B", "X"}, alpha, 3).SetLabel("AAC", "X", 0.9)
	clf := NewCachedClassifier(mock, 16)

	aac := alpha.Encode("AAC", 3).Vector
	acd := alpha.Encode("ACD", 3).Vector
	ctx := context.Background()
	if _, err := clf.Predict(ctx, [][]float32{aac, acd}); err != nil {
		t.Fatal(err)
	}
	out, err := clf.Predict(ctx, [][]float32{acd, aac, alpha.Encode("CDE", 3).Vector})
	if err != nil {
		t.Fatal(err)
	}
	if out[1][1] != 0.9 {
		t.Errorf("cached AAC row = %v", out[1])
	}
	calls := mock.Calls()
	if len(calls) != 2 || calls[0] != 2 || calls[1] != 1 {
		t.Errorf("expected inner batches [2 1], got %v", calls)
	}
}

func TestCachedClassifier_AllHitsSkipsInner(t *testing.T) {
	alpha := alphabet.Default()
	mock := NewMockClassifier(Labels{"B", "X"}, alpha, 3)
	clf := NewCachedClassifier(mock, 4)
	batch := [][]float32{alpha.Encode("MKV", 3).Vector}
	for i := 0; i < 3; i++ {
		if _, err := clf.Predict(context.Background(), batch); err != nil {
			t.Fatal(err)
		}
	}
	if calls := mock.Calls(); len(calls) != 1 {
		t.Errorf("expected one inner call, got %v", calls)
	}
}

func TestNewCachedClassifier_ZeroCapacity(t *testing.T) {
	mock := NewMockClassifier(Labels{"B"}, alphabet.Default(), 1)
	if NewCachedClassifier(mock, 0) != Classifier(mock) {
		t.Error("capacity 0 should return the inner classifier")
	}
}

func TestVectorKey(t *testing.T) {
	a := vectorKey([]float32{0, 1, 0, 0})
	b := vectorKey([]float32{0, 0, 1, 0})
	c := vectorKey([]float32{0, 1, 0})
	if a == b || a == c {
		t.Error("distinct vectors must have distinct keys")
	}
	if a != vectorKey([]float32{0, 1, 0, 0}) {
		t.Error("key must be deterministic")
	}
}
