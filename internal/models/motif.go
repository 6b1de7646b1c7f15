package models

// StrandForward is the only strand reported for protein motifs.
const StrandForward = "+"

// MotifRecord is a single non-background window hit. End is exclusive.
type MotifRecord struct {
	Accession string  `json:"accession" db:"accession"`
	Start     int     `json:"start" db:"start"`
	End       int     `json:"end" db:"end"`
	Name      string  `json:"name" db:"name"`
	Score     float64 `json:"score" db:"score"`
	Strand    string  `json:"strand" db:"strand"`
	Motif     string  `json:"motif" db:"motif"`
}

// Len returns the span of the record.
func (r MotifRecord) Len() int {
	return r.End - r.Start
}
