package models

import "time"

// ScanRequest is the input for a motif scan. Input without any FASTA record
// yields an empty result.
type ScanRequest struct {
	// ID is assigned by the service, never decoded from a client body.
	ID    string `json:"-"`
	Name  string `json:"name,omitempty"`
	FASTA string `json:"fasta"`
}

// ScanStats counts what happened to the windows of a scan.
type ScanStats struct {
	Sequences      int `json:"sequences"`
	Windows        int `json:"windows"`
	EncodedWindows int `json:"encoded_windows"`
	SkippedWindows int `json:"skipped_windows"`
	Motifs         int `json:"motifs"`
}

// Add accumulates other into s.
func (s *ScanStats) Add(other ScanStats) {
	s.Sequences += other.Sequences
	s.Windows += other.Windows
	s.EncodedWindows += other.EncodedWindows
	s.SkippedWindows += other.SkippedWindows
	s.Motifs += other.Motifs
}

// ScanResult is a completed scan with its motif records in output order
// (submission order of accessions, then ascending start).
type ScanResult struct {
	ID         string        `json:"id"`
	Name       string        `json:"name,omitempty"`
	Accessions []string      `json:"accessions"`
	Records    []MotifRecord `json:"records"`
	Stats      ScanStats     `json:"stats"`
	CreatedAt  time.Time     `json:"created_at"`
	DurationMs int64         `json:"duration_ms"`
}

// ScanSummary is a scan without its records, used for listings.
type ScanSummary struct {
	ID         string    `json:"id"`
	Name       string    `json:"name,omitempty"`
	Sequences  int       `json:"sequences"`
	Motifs     int       `json:"motifs"`
	CreatedAt  time.Time `json:"created_at"`
	DurationMs int64     `json:"duration_ms"`
}
