package cli

import (
	"io"

	"github.com/hyperjump/motifscan/internal/models"
	"github.com/xuri/excelize/v2"
)

const (
	motifsSheet  = "motifs"
	summarySheet = "summary"
)

// writeMotifsXLSX writes a workbook with a motifs sheet (one row per record) and a summary sheet.
func writeMotifsXLSX(w io.Writer, result *models.ScanResult) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", motifsSheet); err != nil {
		return err
	}
	header := make([]interface{}, len(MotifColumns))
	for i, c := range MotifColumns {
		header[i] = c
	}
	if err := f.SetSheetRow(motifsSheet, "A1", &header); err != nil {
		return err
	}
	for i, r := range result.Records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{r.Accession, r.Start, r.End, r.Name, r.Score, r.Strand, r.Motif}
		if err := f.SetSheetRow(motifsSheet, cell, &row); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}
	s := result.Stats
	summary := [][]interface{}{
		{"scan_id", result.ID},
		{"name", result.Name},
		{"sequences", s.Sequences},
		{"windows", s.Windows},
		{"encoded_windows", s.EncodedWindows},
		{"skipped_windows", s.SkippedWindows},
		{"motifs", s.Motifs},
		{"duration_ms", result.DurationMs},
	}
	for i, row := range summary {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return err
		}
	}
	return f.Write(w)
}
