package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/hyperjump/motifscan/internal/cli"
	"github.com/hyperjump/motifscan/internal/config"
	"github.com/hyperjump/motifscan/internal/curated"
	"github.com/hyperjump/motifscan/internal/models"
	"github.com/hyperjump/motifscan/internal/scanner"
	"github.com/hyperjump/motifscan/internal/storage"
	"go.uber.org/zap"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	scanCount, err := s.storage.CountScans(ctx)
	if err != nil {
		s.logger.Error("status: count scans failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	motifCount, err := s.storage.CountMotifs(ctx)
	if err != nil {
		s.logger.Error("status: count motifs failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	pcfg := s.service.Pipeline().Config()
	resp := map[string]interface{}{
		"scans":  scanCount,
		"motifs": motifCount,
		"config": map[string]interface{}{
			"alphabet":            pcfg.Alphabet.String(),
			"k":                   pcfg.K,
			"labels":              pcfg.Labels,
			"background":          pcfg.Background,
			"input_size":          pcfg.Classifier.InputSize(),
			"model_path":          s.cfg.Model.Path,
			"database_path":       s.cfg.Storage.DatabasePath,
			"max_sequence_length": pcfg.MaxSequenceLength,
			"max_sequences":       pcfg.MaxSequences,
		},
	}
	paths := storage.DatabaseFiles(s.cfg.Storage.DatabasePath)
	paths = append(paths, s.cfg.Curated.IndexPath)
	if diskBytes, err := storage.DiskUsageBytes(paths...); err == nil {
		resp["disk_usage_bytes"] = diskBytes
	}
	if s.curated != nil {
		resp["curated_rows"] = s.curated.Dataset().Len()
	}
	if s.watch != nil {
		resp["watch_directories"] = s.watch.Directories()
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// readScanRequest accepts JSON {"fasta": ...}, a form field "fasta" (or uploaded file "file"),
// or the raw FASTA text as the body.
func readScanRequest(r *http.Request) (*models.ScanRequest, error) {
	req := &models.ScanRequest{Name: r.URL.Query().Get("name")}
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
		if err := json.NewDecoder(r.Body).Decode(req); err != nil {
			return nil, err
		}
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxBodyBytes); err != nil {
			return nil, err
		}
		req.FASTA = r.FormValue("fasta")
		if req.FASTA == "" {
			file, header, err := r.FormFile("file")
			if err == nil {
				defer file.Close()
				data, err := io.ReadAll(file)
				if err != nil {
					return nil, err
				}
				req.FASTA = string(data)
				if req.Name == "" {
					req.Name = header.Filename
				}
			}
		}
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return nil, err
		}
		req.FASTA = r.PostFormValue("fasta")
	default:
		data, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, err
		}
		req.FASTA = string(data)
	}
	return req, nil
}

func (s *Server) handleCreateScan(w http.ResponseWriter, r *http.Request) {
	format, err := cli.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	req, err := readScanRequest(r)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.respondError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("scan request", zap.String("name", req.Name), zap.Int("bytes", len(req.FASTA)))
	result, err := s.service.Submit(r.Context(), req)
	if err != nil {
		status := scanErrorStatus(err)
		if status == http.StatusInternalServerError {
			s.logger.Error("scan failed", zap.Error(err))
		}
		s.respondError(w, status, err.Error())
		return
	}
	if format == cli.OutputJSON || format == cli.OutputText {
		s.respondJSON(w, http.StatusCreated, result)
		return
	}
	s.respondRendered(w, http.StatusCreated, result, format)
}

func scanErrorStatus(err error) int {
	switch {
	case errors.Is(err, scanner.ErrSequenceTooLong), errors.Is(err, scanner.ErrTooManySequences):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleListScans(w http.ResponseWriter, r *http.Request) {
	offset, limit, err := pagination(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	scans, err := s.service.List(r.Context(), offset, limit)
	if err != nil {
		s.logger.Error("list scans failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	total, err := s.storage.CountScans(r.Context())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if scans == nil {
		scans = []*models.ScanSummary{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"scans":  scans,
		"total":  total,
		"offset": offset,
		"limit":  limit,
	})
}

func pagination(r *http.Request) (offset, limit int, err error) {
	q := r.URL.Query()
	limit = defaultListLimit
	if v := q.Get("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil || limit <= 0 {
			return 0, 0, errors.New("limit must be a positive integer")
		}
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if v := q.Get("offset"); v != "" {
		if offset, err = strconv.Atoi(v); err != nil || offset < 0 {
			return 0, 0, errors.New("offset must be a non-negative integer")
		}
	}
	return offset, limit, nil
}

func (s *Server) handleGetScan(w http.ResponseWriter, r *http.Request) {
	format, err := cli.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	id := chi.URLParam(r, "id")
	result, err := s.service.Get(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "scan not found")
		return
	}
	if err != nil {
		s.logger.Error("get scan failed", zap.String("id", id), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if format == cli.OutputJSON || format == cli.OutputText {
		s.respondJSON(w, http.StatusOK, result)
		return
	}
	s.respondRendered(w, http.StatusOK, result, format)
}

func (s *Server) handleDeleteScan(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.logger.Debug("delete scan request", zap.String("id", id))
	err := s.service.Delete(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "scan not found")
		return
	}
	if err != nil {
		s.logger.Error("deletion failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}

func (s *Server) handleCurated(w http.ResponseWriter, r *http.Request) {
	if s.curated == nil {
		s.respondError(w, http.StatusNotImplemented, "curated dataset not loaded")
		return
	}
	if r.URL.Query().Get("format") == string(cli.OutputTSV) {
		w.Header().Set("Content-Type", cli.ContentType(cli.OutputTSV))
		w.WriteHeader(http.StatusOK)
		if err := cli.WriteCurated(w, s.curated.Dataset(), cli.OutputTSV); err != nil {
			s.logger.Warn("write curated tsv failed", zap.Error(err))
		}
		return
	}
	s.respondJSON(w, http.StatusOK, s.curated.Dataset())
}

func (s *Server) handleCuratedSearch(w http.ResponseWriter, r *http.Request) {
	if s.curated == nil {
		s.respondError(w, http.StatusNotImplemented, "curated dataset not loaded")
		return
	}
	q := r.URL.Query()
	query := strings.TrimSpace(q.Get("q"))
	if query == "" {
		s.respondError(w, http.StatusBadRequest, "q is required")
		return
	}
	opts := &curated.SearchOptions{}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		opts.Limit = min(n, maxListLimit)
	}
	opts.Fuzzy, _ = strconv.ParseBool(q.Get("fuzzy"))
	hits, err := s.curated.Search(r.Context(), query, opts)
	if err != nil {
		s.logger.Error("curated search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	// Retry with typo tolerance when an exact search finds nothing.
	autoFuzzy := false
	if len(hits) == 0 && !opts.Fuzzy {
		opts.Fuzzy = true
		if fuzzyHits, fuzzyErr := s.curated.Search(r.Context(), query, opts); fuzzyErr == nil && len(fuzzyHits) > 0 {
			hits, autoFuzzy = fuzzyHits, true
		}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"query":      query,
		"header":     s.curated.Dataset().Header,
		"hits":       hits,
		"auto_fuzzy": autoFuzzy,
	})
}

func (s *Server) handleWatchDirectoriesList(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"directories": s.watch.Directories()})
}

type watchAddRequest struct {
	Path string `json:"path"`
	Sync *bool  `json:"sync,omitempty"`
}

func (s *Server) handleWatchDirectoriesAdd(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	var req watchAddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Path == "" {
		s.respondError(w, http.StatusBadRequest, "path is required")
		return
	}
	abs, err := filepath.Abs(req.Path)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid path")
		return
	}
	info, err := os.Stat(abs)
	if os.IsNotExist(err) {
		s.respondError(w, http.StatusNotFound, "directory not found")
		return
	}
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !info.IsDir() {
		s.respondError(w, http.StatusBadRequest, "path is not a directory")
		return
	}
	syncExisting := req.Sync == nil || *req.Sync
	s.logger.Debug("watch add directory request", zap.String("path", abs), zap.Bool("sync_existing", syncExisting))
	if err := s.watch.AddDirectory(abs, syncExisting); err != nil {
		s.logger.Error("watch add directory failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.persistWatchDirectories()
	s.respondJSON(w, http.StatusCreated, map[string]string{"path": abs, "status": "added"})
}

func (s *Server) handleWatchDirectoriesRemove(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	path := r.URL.Query().Get("path")
	if path == "" {
		var body struct {
			Path string `json:"path"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
			path = body.Path
		}
	}
	if path == "" {
		s.respondError(w, http.StatusBadRequest, "path is required (query or body)")
		return
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid path")
		return
	}
	s.logger.Debug("watch remove directory request", zap.String("path", abs))
	if err := s.watch.RemoveDirectory(abs); err != nil {
		s.logger.Error("watch remove directory failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.persistWatchDirectories()
	s.respondJSON(w, http.StatusOK, map[string]string{"path": abs, "status": "removed"})
}

// persistWatchDirectories writes the current watch roots back to the config file.
func (s *Server) persistWatchDirectories() {
	if s.configPath == "" {
		return
	}
	s.cfgMu.Lock()
	defer s.cfgMu.Unlock()
	s.cfg.Watch.Directories = s.watch.Directories()
	if err := config.Save(s.configPath, s.cfg); err != nil {
		s.logger.Warn("failed to persist watch config", zap.Error(err))
	}
}

func (s *Server) respondRendered(w http.ResponseWriter, status int, result *models.ScanResult, format cli.OutputFormat) {
	w.Header().Set("Content-Type", cli.ContentType(format))
	if format == cli.OutputXLSX {
		w.Header().Set("Content-Disposition", `attachment; filename="`+result.ID+`.xlsx"`)
	}
	w.WriteHeader(status)
	if err := cli.WriteMotifs(w, result, format); err != nil {
		s.logger.Warn("render scan failed", zap.String("format", string(format)), zap.Error(err))
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
