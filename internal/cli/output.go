// Package cli renders scans, scan listings and curated rows for the motifscan CLI and API.
package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/hyperjump/motifscan/internal/curated"
	"github.com/hyperjump/motifscan/internal/fileid"
	"github.com/hyperjump/motifscan/internal/models"
	"github.com/hyperjump/motifscan/pkg/utils"
)

// OutputFormat selects how results are rendered.
type OutputFormat string

const (
	// OutputText is an aligned human-readable table (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
	// OutputTSV is BED-like tab-separated columns with a header row.
	OutputTSV OutputFormat = "tsv"
	// OutputXLSX is an Excel workbook.
	OutputXLSX OutputFormat = "xlsx"
)

// MotifColumns is the column order of TSV and XLSX motif output.
var MotifColumns = []string{"accession", "start", "end", "name", "score", "strand", "motif"}

// ParseFormat validates a user-supplied format name. Empty means text.
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return OutputText, nil
	case OutputText, OutputJSON, OutputTSV, OutputXLSX:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, json, tsv or xlsx)", s)
	}
}

// ContentType returns the MIME type for format.
func ContentType(format OutputFormat) string {
	switch format {
	case OutputJSON:
		return "application/json"
	case OutputTSV:
		return "text/tab-separated-values; charset=utf-8"
	case OutputXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/plain; charset=utf-8"
	}
}

// FormatScore renders a score at the precision the classifier produced it.
func FormatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 32)
}

func motifRow(r models.MotifRecord) []string {
	return []string{r.Accession, strconv.Itoa(r.Start), strconv.Itoa(r.End), r.Name, FormatScore(r.Score), r.Strand, r.Motif}
}

// WriteMotifs writes a scan's motif records to w in the given format.
func WriteMotifs(w io.Writer, result *models.ScanResult, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, result)
	case OutputTSV:
		return writeMotifsTSV(w, result.Records)
	case OutputXLSX:
		return writeMotifsXLSX(w, result)
	default:
		return writeMotifsText(w, result)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeMotifsTSV(w io.Writer, records []models.MotifRecord) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	if err := cw.Write(MotifColumns); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write(motifRow(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeMotifsText(w io.Writer, result *models.ScanResult) error {
	s := result.Stats
	fmt.Fprintf(w, "\nFound %d motifs in %d sequences (%d windows, %d skipped) in %dms\n\n",
		s.Motifs, s.Sequences, s.Windows, s.SkippedWindows, result.DurationMs)
	if len(result.Records) == 0 {
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.ToUpper(strings.Join(MotifColumns, "\t")))
	for _, r := range result.Records {
		fmt.Fprintln(tw, strings.Join(motifRow(r), "\t"))
	}
	return tw.Flush()
}

// WriteScanSummaries writes a scan listing in text or JSON.
func WriteScanSummaries(w io.Writer, scans []*models.ScanSummary, format OutputFormat) error {
	if format == OutputJSON {
		if scans == nil {
			scans = []*models.ScanSummary{}
		}
		return writeJSON(w, scans)
	}
	if len(scans) == 0 {
		fmt.Fprintln(w, "No scans.")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSOURCE\tSEQUENCES\tMOTIFS\tCREATED")
	for _, s := range scans {
		source := "upload"
		if fileid.IsFileID(s.ID) {
			source = "watch"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n",
			utils.Truncate(s.ID, 20), s.Name, source, s.Sequences, s.Motifs, s.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return tw.Flush()
}

// WriteCurated writes curated dataset rows in text, JSON or TSV.
func WriteCurated(w io.Writer, ds *curated.Dataset, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, ds)
	case OutputTSV:
		cw := csv.NewWriter(w)
		cw.Comma = '\t'
		if err := cw.Write(ds.Header); err != nil {
			return err
		}
		if err := cw.WriteAll(ds.Rows); err != nil {
			return err
		}
		return cw.Error()
	default:
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, strings.Join(ds.Header, "\t"))
		for _, row := range ds.Rows {
			fmt.Fprintln(tw, strings.Join(row, "\t"))
		}
		return tw.Flush()
	}
}

// WriteCuratedHits writes curated search hits in text or JSON.
func WriteCuratedHits(w io.Writer, header []string, hits []curated.Hit, format OutputFormat) error {
	if format == OutputJSON {
		if hits == nil {
			hits = []curated.Hit{}
		}
		return writeJSON(w, hits)
	}
	fmt.Fprintf(w, "\nFound %d curated rows\n\n", len(hits))
	if len(hits) == 0 {
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SCORE\t"+strings.Join(header, "\t"))
	for _, h := range hits {
		cells := make([]string, len(header))
		for i, col := range header {
			cells[i] = h.Fields[col]
		}
		fmt.Fprintf(tw, "%.3f\t%s\n", h.Score, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}
