package motif

import (
	"errors"
	"testing"

	"github.com/hyperjump/motifscan/internal/alphabet"
	"github.com/hyperjump/motifscan/internal/classifier"
)

func TestEncodeWindows_SkipsInvalidAndKeepsOffsets(t *testing.T) {
	alpha := alphabet.Default()
	encoded, skipped := EncodeWindows("AACXXXAA", alpha, 3)
	if len(encoded)+len(skipped) != 6 {
		t.Fatalf("expected 6 windows total, got %d+%d", len(encoded), len(skipped))
	}
	if len(encoded) != 1 || encoded[0].Start != 0 {
		t.Fatalf("expected only AAC at 0 to survive, got %+v", encoded)
	}
	for _, s := range skipped {
		if s.Reason != alphabet.SkipInvalidSymbol || s.Symbol != 'X' {
			t.Errorf("skip %+v", s)
		}
	}
}

func TestEncodeWindows_GapInMiddle(t *testing.T) {
	alpha := alphabet.Default()
	encoded, _ := EncodeWindows("MKVXLAAG", alpha, 2)
	var starts []int
	for _, w := range encoded {
		starts = append(starts, w.Start)
	}
	want := []int{0, 1, 4, 5, 6}
	if len(starts) != len(want) {
		t.Fatalf("starts = %v, want %v", starts, want)
	}
	for i := range want {
		if starts[i] != want[i] {
			t.Errorf("starts = %v, want %v", starts, want)
			break
		}
	}
}

func TestDecode_SingleMotif(t *testing.T) {
	seq := "AACXXXAA"
	windows := []EncodedWindow{{Start: 0}}
	probs := [][]float32{{0.1, 0.9}}
	records, err := Decode("p1", seq, windows, probs, classifier.Labels{"B", "X"}, "B", 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	r := records[0]
	if r.Accession != "p1" || r.Start != 0 || r.End != 3 || r.Name != "X" || r.Strand != "+" || r.Motif != "AAC" {
		t.Errorf("record = %+v", r)
	}
	if r.Score < 0.899 || r.Score > 0.901 {
		t.Errorf("score = %f, want 0.9", r.Score)
	}
}

func TestDecode_UsesCarriedOffsets(t *testing.T) {
	seq := "MKVXLAAG"
	windows := []EncodedWindow{{Start: 0}, {Start: 1}, {Start: 4}}
	probs := [][]float32{{1, 0}, {1, 0}, {0.2, 0.8}}
	records, err := Decode("p", seq, windows, probs, classifier.Labels{"B", "P"}, "B", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].Start != 4 || records[0].Motif != "LA" {
		t.Errorf("expected LA at 4, got %+v", records)
	}
}

func TestDecode_NeverEmitsBackground(t *testing.T) {
	seq := "ACDEFGHIK"
	alpha := alphabet.Default()
	windows, _ := EncodeWindows(seq, alpha, 3)
	labels := classifier.Labels{"P", "B", "S"}
	probs := make([][]float32, len(windows))
	for i := range probs {
		probs[i] = []float32{0.2, 0.5, 0.3}
	}
	probs[2] = []float32{0.6, 0.3, 0.1}
	probs[5] = []float32{0.1, 0.1, 0.8}
	records, err := Decode("p", seq, windows, probs, labels, "B", 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %+v", records)
	}
	for _, r := range records {
		if r.Name == "B" {
			t.Errorf("background record emitted: %+v", r)
		}
		if r.Motif != seq[r.Start:r.End] || r.End-r.Start != 3 {
			t.Errorf("record span mismatch: %+v", r)
		}
	}
	if records[0].Name != "P" || records[1].Name != "S" {
		t.Errorf("names = %s, %s", records[0].Name, records[1].Name)
	}
}

func TestDecode_SortsByStart(t *testing.T) {
	seq := "ACDEFG"
	windows := []EncodedWindow{{Start: 3}, {Start: 0}, {Start: 2}}
	probs := [][]float32{{0, 1}, {0, 1}, {0, 1}}
	records, err := Decode("p", seq, windows, probs, classifier.Labels{"B", "P"}, "B", 2)
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < len(records); i++ {
		if records[i-1].Start > records[i].Start {
			t.Fatalf("records out of order: %+v", records)
		}
	}
}

func TestDecode_Empty(t *testing.T) {
	records, err := Decode("p", "AC", nil, nil, classifier.Labels{"B", "P"}, "B", 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 0 {
		t.Errorf("expected no records, got %+v", records)
	}
}

func TestDecode_Errors(t *testing.T) {
	labels := classifier.Labels{"B", "P"}
	_, err := Decode("p", "ACDE", []EncodedWindow{{Start: 0}}, nil, labels, "B", 2)
	if !errors.Is(err, ErrMisaligned) {
		t.Errorf("row count: expected ErrMisaligned, got %v", err)
	}
	_, err = Decode("p", "ACDE", []EncodedWindow{{Start: 0}}, [][]float32{{1, 0, 0}}, labels, "B", 2)
	if !errors.Is(err, classifier.ErrShapeMismatch) {
		t.Errorf("row width: expected ErrShapeMismatch, got %v", err)
	}
	_, err = Decode("p", "ACDE", []EncodedWindow{{Start: 3}}, [][]float32{{0, 1}}, labels, "B", 2)
	if !errors.Is(err, ErrMisaligned) {
		t.Errorf("out of range: expected ErrMisaligned, got %v", err)
	}
}

func TestVectors(t *testing.T) {
	w := []EncodedWindow{{Start: 0, Vector: []float32{1}}, {Start: 5, Vector: []float32{0}}}
	v := Vectors(w)
	if len(v) != 2 || v[0][0] != 1 || v[1][0] != 0 {
		t.Errorf("Vectors = %v", v)
	}
}
