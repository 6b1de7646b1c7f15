// Package models defines core data structures for sequences, motif hits, and scans.
package models

// Sequence is a named residue string read from FASTA input.
type Sequence struct {
	Accession string `json:"accession"`
	Residues  string `json:"residues"`
}

// Len returns the number of residues.
func (s Sequence) Len() int {
	return len(s.Residues)
}
