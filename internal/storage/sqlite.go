package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/motifscan/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS scans (
		id TEXT PRIMARY KEY,
		name TEXT,
		accessions TEXT NOT NULL,
		sequences INTEGER NOT NULL,
		windows INTEGER NOT NULL,
		encoded_windows INTEGER NOT NULL,
		skipped_windows INTEGER NOT NULL,
		motifs INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_scans_created_at ON scans(created_at);

	CREATE TABLE IF NOT EXISTS motif_records (
		scan_id TEXT NOT NULL,
		ordinal INTEGER NOT NULL,
		accession TEXT NOT NULL,
		start_pos INTEGER NOT NULL,
		end_pos INTEGER NOT NULL,
		name TEXT NOT NULL,
		score REAL NOT NULL,
		strand TEXT NOT NULL,
		motif TEXT NOT NULL,
		PRIMARY KEY (scan_id, ordinal),
		FOREIGN KEY (scan_id) REFERENCES scans(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_records_name ON motif_records(name);
	`
	_, err := db.Exec(schema)
	return err
}

// SaveScan writes scan and its records in one transaction. CreatedAt is set when zero.
func (s *SQLiteStorage) SaveScan(ctx context.Context, scan *models.ScanResult) error {
	if scan.ID == "" {
		return errors.New("scan id is required")
	}
	accessionsJSON, err := json.Marshal(scan.Accessions)
	if err != nil {
		return fmt.Errorf("failed to marshal accessions: %w", err)
	}
	if scan.CreatedAt.IsZero() {
		scan.CreatedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := deleteScanTx(ctx, tx, scan.ID); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO scans (id, name, accessions, sequences, windows, encoded_windows, skipped_windows, motifs, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		scan.ID, scan.Name, string(accessionsJSON),
		scan.Stats.Sequences, scan.Stats.Windows, scan.Stats.EncodedWindows, scan.Stats.SkippedWindows, scan.Stats.Motifs,
		scan.DurationMs, scan.CreatedAt,
	)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO motif_records (scan_id, ordinal, accession, start_pos, end_pos, name, score, strand, motif)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, r := range scan.Records {
		if _, err := stmt.ExecContext(ctx, scan.ID, i, r.Accession, r.Start, r.End, r.Name, r.Score, r.Strand, r.Motif); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetScan returns a scan with its records in their original order.
func (s *SQLiteStorage) GetScan(ctx context.Context, id string) (*models.ScanResult, error) {
	var scan models.ScanResult
	var name sql.NullString
	var accessionsJSON string

	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, accessions, sequences, windows, encoded_windows, skipped_windows, motifs, duration_ms, created_at
		 FROM scans WHERE id = ?`, id,
	).Scan(&scan.ID, &name, &accessionsJSON,
		&scan.Stats.Sequences, &scan.Stats.Windows, &scan.Stats.EncodedWindows, &scan.Stats.SkippedWindows, &scan.Stats.Motifs,
		&scan.DurationMs, &scan.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("scan %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	scan.Name = name.String
	if err := json.Unmarshal([]byte(accessionsJSON), &scan.Accessions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal accessions: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT accession, start_pos, end_pos, name, score, strand, motif
		 FROM motif_records WHERE scan_id = ? ORDER BY ordinal`, id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	scan.Records = []models.MotifRecord{}
	for rows.Next() {
		var r models.MotifRecord
		if err := rows.Scan(&r.Accession, &r.Start, &r.End, &r.Name, &r.Score, &r.Strand, &r.Motif); err != nil {
			return nil, err
		}
		scan.Records = append(scan.Records, r)
	}
	return &scan, rows.Err()
}

// ListScans returns scan summaries, newest first.
func (s *SQLiteStorage) ListScans(ctx context.Context, offset, limit int) ([]*models.ScanSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, sequences, motifs, duration_ms, created_at
		 FROM scans ORDER BY created_at DESC, id LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scans []*models.ScanSummary
	for rows.Next() {
		var sum models.ScanSummary
		var name sql.NullString
		if err := rows.Scan(&sum.ID, &name, &sum.Sequences, &sum.Motifs, &sum.DurationMs, &sum.CreatedAt); err != nil {
			return nil, err
		}
		sum.Name = name.String
		scans = append(scans, &sum)
	}
	return scans, rows.Err()
}

// DeleteScan removes a scan and its records.
func (s *SQLiteStorage) DeleteScan(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM scans WHERE id = ?`, id).Scan(&exists)
	if err == sql.ErrNoRows {
		return fmt.Errorf("scan %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return err
	}
	if err := deleteScanTx(ctx, tx, id); err != nil {
		return err
	}
	return tx.Commit()
}

// foreign_keys is off by default in SQLite, so records are removed explicitly.
func deleteScanTx(ctx context.Context, tx *sql.Tx, id string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM motif_records WHERE scan_id = ?`, id); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `DELETE FROM scans WHERE id = ?`, id)
	return err
}

// CountScans returns the total number of scans.
func (s *SQLiteStorage) CountScans(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM scans`).Scan(&count)
	return count, err
}

// CountMotifs returns the total number of stored motif records.
func (s *SQLiteStorage) CountMotifs(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM motif_records`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
