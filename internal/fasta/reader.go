// Package fasta reads multi-record FASTA text lazily.
package fasta

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/hyperjump/motifscan/internal/models"
	"github.com/hyperjump/motifscan/pkg/utils"
)

const (
	// Marker starts a record header line.
	Marker = '>'
	// maxLine allows very long single-line sequences (64 MiB).
	maxLine = 64 * 1024 * 1024
)

// Reader yields one record per call to Next. Lines before the first header are ignored.
type Reader struct {
	sc          *bufio.Scanner
	id          string
	seq         strings.Builder
	seen        bool
	done        bool
	accessionID bool
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithAccessionOnly keeps only the first whitespace-delimited token of each header.
func WithAccessionOnly() ReaderOption {
	return func(r *Reader) { r.accessionID = true }
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader, opts ...ReaderOption) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLine)
	rd := &Reader{sc: sc}
	for _, opt := range opts {
		opt(rd)
	}
	return rd
}

// Next returns the next record, or io.EOF after the last one.
func (r *Reader) Next() (models.Sequence, error) {
	if r.done {
		return models.Sequence{}, io.EOF
	}
	for r.sc.Scan() {
		line := strings.TrimRight(r.sc.Text(), " \t\r\n")
		if len(line) > 0 && line[0] == Marker {
			prev, had := r.flush()
			r.id = r.header(line[1:])
			r.seen = true
			if had {
				return prev, nil
			}
			continue
		}
		if r.seen {
			r.seq.WriteString(line)
		}
	}
	r.done = true
	if err := r.sc.Err(); err != nil {
		return models.Sequence{}, fmt.Errorf("fasta scan: %w", err)
	}
	if rec, had := r.flush(); had {
		return rec, nil
	}
	return models.Sequence{}, io.EOF
}

func (r *Reader) header(h string) string {
	if r.accessionID {
		return utils.Accession(strings.TrimSpace(h))
	}
	return h
}

// flush returns the pending record and resets state. Records with a blank
// identifier are dropped.
func (r *Reader) flush() (models.Sequence, bool) {
	if !r.seen {
		return models.Sequence{}, false
	}
	rec := models.Sequence{Accession: r.id, Residues: r.seq.String()}
	ok := r.id != ""
	r.seen = false
	r.id = ""
	r.seq.Reset()
	return rec, ok
}

// Records returns a lazy sequence over the records of r. A read error is yielded once, last.
func Records(r io.Reader, opts ...ReaderOption) iter.Seq2[models.Sequence, error] {
	return func(yield func(models.Sequence, error) bool) {
		rd := NewReader(r, opts...)
		for {
			rec, err := rd.Next()
			if err == io.EOF {
				return
			}
			if !yield(rec, err) || err != nil {
				return
			}
		}
	}
}

// ParseString reads every record from text.
func ParseString(text string, opts ...ReaderOption) ([]models.Sequence, error) {
	var out []models.Sequence
	for rec, err := range Records(strings.NewReader(text), opts...) {
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
	return out, nil
}
