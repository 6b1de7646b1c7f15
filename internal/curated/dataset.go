// Package curated serves a static table of curated motif annotations and a
// full-text index over its rows.
package curated

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Dataset is a tab-separated table with a header row.
type Dataset struct {
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// Load reads a dataset from a TSV file.
func Load(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open curated dataset: %w", err)
	}
	defer f.Close()
	ds, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}

// Parse reads TSV from r. The first record is the header; every row must have
// as many fields as the header.
func Parse(r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("curated dataset is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	ds := &Dataset{Header: header, Rows: [][]string{}}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		ds.Rows = append(ds.Rows, rec)
	}
	return ds, nil
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	return len(d.Rows)
}

// Column returns the index of the named header column, or -1.
func (d *Dataset) Column(name string) int {
	for i, h := range d.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// Record returns row i keyed by header name.
func (d *Dataset) Record(i int) map[string]string {
	if i < 0 || i >= len(d.Rows) {
		return nil
	}
	out := make(map[string]string, len(d.Header))
	for j, h := range d.Header {
		out[h] = d.Rows[i][j]
	}
	return out
}
