package scanner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hyperjump/motifscan/internal/fileid"
	"github.com/hyperjump/motifscan/internal/models"
	"github.com/hyperjump/motifscan/internal/storage"
	"go.uber.org/zap"
)

// Service runs scans and keeps their results in storage.
type Service struct {
	pipeline *Pipeline
	storage  storage.Storage
	logger   *zap.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithServiceLogger sets a logger for scan lifecycle events.
func WithServiceLogger(l *zap.Logger) ServiceOption {
	return func(s *Service) { s.logger = l }
}

// NewService creates a service. store may be nil, in which case results are not persisted.
func NewService(p *Pipeline, store storage.Storage, opts ...ServiceOption) *Service {
	s := &Service{pipeline: p, storage: store, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Pipeline returns the underlying pipeline.
func (s *Service) Pipeline() *Pipeline {
	return s.pipeline
}

// Submit scans req.FASTA and stores the result. A missing ID is replaced by a new UUID.
// Input with no FASTA records is stored as an empty scan.
func (s *Service) Submit(ctx context.Context, req *models.ScanRequest) (*models.ScanResult, error) {
	id := req.ID
	if id == "" {
		id = uuid.New().String()
	}
	start := time.Now()
	result, err := s.pipeline.ScanFASTA(ctx, strings.NewReader(req.FASTA))
	if err != nil {
		s.logger.Debug("scan failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	result.ID = id
	result.Name = req.Name
	result.CreatedAt = start
	result.DurationMs = time.Since(start).Milliseconds()

	if s.storage != nil {
		if err := s.storage.SaveScan(ctx, result); err != nil {
			return nil, fmt.Errorf("failed to store scan: %w", err)
		}
	}
	s.logger.Info("scan completed",
		zap.String("id", id),
		zap.Int("sequences", result.Stats.Sequences),
		zap.Int("motifs", result.Stats.Motifs),
		zap.Int("skipped_windows", result.Stats.SkippedWindows),
		zap.Int64("duration_ms", result.DurationMs),
	)
	return result, nil
}

// ScanFile scans a FASTA file under an ID derived from its absolute path,
// so rescanning a changed file replaces the previous result.
func (s *Service) ScanFile(ctx context.Context, path string) (*models.ScanResult, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("not a regular file: %s", absPath)
	}
	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, err
	}
	return s.Submit(ctx, &models.ScanRequest{
		ID:    fileid.ScanID(absPath),
		Name:  filepath.Base(absPath),
		FASTA: string(data),
	})
}

// ForgetFile removes the stored scan of a file, if any.
func (s *Service) ForgetFile(ctx context.Context, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("absolute path: %w", err)
	}
	err = s.Delete(ctx, fileid.ScanID(absPath))
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	return err
}

// Get returns a stored scan.
func (s *Service) Get(ctx context.Context, id string) (*models.ScanResult, error) {
	if s.storage == nil {
		return nil, fmt.Errorf("scan %s: %w", id, storage.ErrNotFound)
	}
	return s.storage.GetScan(ctx, id)
}

// List returns stored scan summaries, newest first.
func (s *Service) List(ctx context.Context, offset, limit int) ([]*models.ScanSummary, error) {
	if s.storage == nil {
		return nil, nil
	}
	return s.storage.ListScans(ctx, offset, limit)
}

// Delete removes a stored scan.
func (s *Service) Delete(ctx context.Context, id string) error {
	if s.storage == nil {
		return fmt.Errorf("scan %s: %w", id, storage.ErrNotFound)
	}
	if err := s.storage.DeleteScan(ctx, id); err != nil {
		return err
	}
	s.logger.Debug("scan deleted", zap.String("id", id))
	return nil
}
