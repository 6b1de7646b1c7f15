// Package storage persists completed scans and their motif records.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/motifscan/internal/models"
)

// ErrNotFound is returned when a scan ID does not exist.
var ErrNotFound = errors.New("not found")

// Storage defines scan persistence operations.
type Storage interface {
	// SaveScan inserts scan and its records, replacing any scan with the same ID.
	SaveScan(ctx context.Context, scan *models.ScanResult) error
	GetScan(ctx context.Context, id string) (*models.ScanResult, error)
	ListScans(ctx context.Context, offset, limit int) ([]*models.ScanSummary, error)
	DeleteScan(ctx context.Context, id string) error

	// Stats
	CountScans(ctx context.Context) (int64, error)
	CountMotifs(ctx context.Context) (int64, error)

	Close() error
}
