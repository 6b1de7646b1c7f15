// Package main is the motifscan CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/hyperjump/motifscan/internal/alphabet"
	"github.com/hyperjump/motifscan/internal/classifier"
	"github.com/hyperjump/motifscan/internal/cli"
	"github.com/hyperjump/motifscan/internal/config"
	"github.com/hyperjump/motifscan/internal/curated"
	"github.com/hyperjump/motifscan/internal/models"
	"github.com/hyperjump/motifscan/internal/scanner"
	"github.com/hyperjump/motifscan/internal/server"
	"github.com/hyperjump/motifscan/internal/storage"
	"github.com/hyperjump/motifscan/internal/watcher"
	"github.com/hyperjump/motifscan/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const (
	defaultConfigPath = "/usr/local/etc/motifscan/config.yaml"
	defaultServerURL  = "http://localhost:8080"
)

// loadConfig loads config from path. When path is the default, config.yaml in the current
// directory takes precedence; when neither exists, built-in defaults are used.
// A .env file in the current directory is loaded first so MOTIFSCAN_* overrides apply.
// Returns the config and the path that was actually loaded ("" for defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, "", err
	}
	resolved := path
	if path == defaultConfigPath {
		if cwd, err := os.Getwd(); err == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, err := os.Stat(fallback); err == nil {
				resolved = fallback
			}
		}
		if _, err := os.Stat(resolved); errors.Is(err, os.ErrNotExist) {
			cfg := config.Default()
			if err := config.ApplyEnv(cfg); err != nil {
				return nil, "", err
			}
			return cfg, "", cfg.Validate()
		}
	}
	cfg, err := config.Load(resolved)
	if err != nil {
		return nil, "", err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("invalid config %s: %w", resolved, err)
	}
	return cfg, resolved, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "scan":
		runScan()
	case "scans":
		runScans()
	case "curated":
		runCurated()
	case "watch":
		runWatch()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("motifscan version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func mustLogger(debug bool) *zap.Logger {
	logger, err := utils.NewLogger(debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	return logger
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (skipped windows, watched files, etc.)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger := mustLogger(debugMode)
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger, true)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	svc := components.Service
	watchOpts := []watcher.Option{}
	if debugMode {
		watchOpts = append(watchOpts, watcher.WithLogger(logger))
	}
	watchSvc := watcher.New(
		watcher.Config{
			Roots:      cfg.Watch.Directories,
			Extensions: cfg.Watch.Extensions,
			Recursive:  cfg.Watch.RecursiveOrDefault(),
		},
		watcher.Handlers{
			Changed: func(path string) {
				result, err := svc.ScanFile(context.Background(), path)
				if err != nil {
					logger.Warn("watch scan file failed", zap.String("path", path), zap.Error(err))
					return
				}
				logger.Info("watched file scanned",
					zap.String("path", path),
					zap.String("id", result.ID),
					zap.Int("motifs", result.Stats.Motifs))
			},
			Removed: func(path string) {
				if err := svc.ForgetFile(context.Background(), path); err != nil {
					logger.Warn("watch forget file failed", zap.String("path", path), zap.Error(err))
				}
			},
		},
		watchOpts...,
	)
	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if err := watchSvc.Start(watchCtx); err != nil {
		logger.Fatal("Failed to start watcher", zap.Error(err))
	}
	watchSvc.SyncExistingFiles()

	srv := server.NewServer(server.Deps{
		Service:    svc,
		Storage:    components.Storage,
		Curated:    components.Curated,
		Watch:      watchSvc,
		Config:     cfg,
		ConfigPath: resolvedConfigPath,
		Logger:     logger,
	})
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	watchSvc.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// reorderArgs moves any flags (and their values) that appear after the positional
// arguments to the front so that flag.Parse() sees them.
func reorderArgs(args []string) []string {
	for i, a := range args {
		if len(a) > 1 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

// openInput opens path for reading; "-" is stdin.
func openInput(path string, stdin io.Reader) (io.ReadCloser, string, error) {
	if path == "-" {
		return io.NopCloser(stdin), "stdin", nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	return f, filepath.Base(path), nil
}

// createOutput opens path for writing; "" or "-" is stdout.
func createOutput(path string, stdout io.Writer) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopWriteCloser{stdout}, nil
	}
	return os.Create(path)
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func runScan() {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "server URL (empty = scan locally with the configured model)")
	format := fs.String("format", "text", "output format: text, json, tsv or xlsx")
	out := fs.String("out", "", "output file (default stdout)")
	save := fs.Bool("save", false, "record the scan in the local history database")
	name := fs.String("name", "", "scan name (default: input file name)")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: motifscan scan [flags] <fasta-file|->\n\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(reorderArgs(os.Args[2:]))
	if fs.NArg() < 1 {
		fs.Usage()
		os.Exit(1)
	}
	outputFormat, err := cli.ParseFormat(*format)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if outputFormat == cli.OutputXLSX && *out == "" {
		fmt.Fprintln(os.Stderr, "xlsx output requires --out")
		os.Exit(1)
	}

	in, inputName, err := openInput(fs.Arg(0), os.Stdin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open input: %v\n", err)
		os.Exit(1)
	}
	defer in.Close()
	data, err := io.ReadAll(in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read input: %v\n", err)
		os.Exit(1)
	}
	req := &models.ScanRequest{Name: *name, FASTA: string(data)}
	if req.Name == "" {
		req.Name = inputName
	}

	var result *models.ScanResult
	if *serverURL != "" {
		result, err = scanViaHTTP(*serverURL, req)
	} else {
		result, err = scanLocally(*configPath, req, *save)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Scan failed: %v\n", err)
		os.Exit(1)
	}

	w, err := createOutput(*out, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteMotifs(w, result, outputFormat); err != nil {
		_ = w.Close()
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
	if err := w.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func scanLocally(configPath string, req *models.ScanRequest, save bool) (*models.ScanResult, error) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger := mustLogger(cfg.Debug)
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, save)
	if err != nil {
		return nil, err
	}
	defer components.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return components.Service.Submit(ctx, req)
}

func scanViaHTTP(serverURL string, req *models.ScanRequest) (*models.ScanResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/scans?format=json", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return nil, serverError(resp)
	}
	var result models.ScanResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &result, nil
}

func serverError(resp *http.Response) error {
	b, _ := io.ReadAll(resp.Body)
	return fmt.Errorf("server returned %d: %s", resp.StatusCode, bytes.TrimSpace(b))
}

func runScans() {
	sub := "list"
	args := os.Args[2:]
	if len(args) > 0 && (args[0] == "list" || args[0] == "get" || args[0] == "delete") {
		sub, args = args[0], args[1:]
	}
	fs := flag.NewFlagSet("scans", flag.ExitOnError)
	serverURL := fs.String("server", defaultServerURL, "server URL")
	format := fs.String("format", "text", "output format: text, json, tsv or xlsx")
	out := fs.String("out", "", "output file for get (default stdout)")
	limit := fs.Int("limit", 20, "number of scans to list")
	offset := fs.Int("offset", 0, "number of scans to skip")
	_ = fs.Parse(reorderArgs(args))

	outputFormat, err := cli.ParseFormat(*format)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	switch sub {
	case "list":
		scans, err := listScansViaHTTP(*serverURL, *offset, *limit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "List failed: %v\n", err)
			os.Exit(1)
		}
		if err := cli.WriteScanSummaries(os.Stdout, scans, outputFormat); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "get":
		if fs.NArg() < 1 {
			fmt.Println("Usage: motifscan scans get [flags] <scan-id>")
			os.Exit(1)
		}
		if outputFormat == cli.OutputXLSX && *out == "" {
			fmt.Fprintln(os.Stderr, "xlsx output requires --out")
			os.Exit(1)
		}
		result, err := getScanViaHTTP(*serverURL, fs.Arg(0))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Get failed: %v\n", err)
			os.Exit(1)
		}
		w, err := createOutput(*out, os.Stdout)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create output: %v\n", err)
			os.Exit(1)
		}
		err = cli.WriteMotifs(w, result, outputFormat)
		if closeErr := w.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "delete":
		if fs.NArg() < 1 {
			fmt.Println("Usage: motifscan scans delete [flags] <scan-id>")
			os.Exit(1)
		}
		id := fs.Arg(0)
		req, _ := http.NewRequest(http.MethodDelete, *serverURL+"/api/v1/scans/"+url.PathEscape(id), nil)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Request failed: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			fmt.Fprintf(os.Stderr, "Delete failed: %v\n", serverError(resp))
			os.Exit(1)
		}
		fmt.Printf("Scan deleted: %s\n", id)
	}
}

func listScansViaHTTP(serverURL string, offset, limit int) ([]*models.ScanSummary, error) {
	q := url.Values{}
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(limit))
	resp, err := http.Get(serverURL + "/api/v1/scans?" + q.Encode())
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, serverError(resp)
	}
	var out struct {
		Scans []*models.ScanSummary `json:"scans"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return out.Scans, nil
}

func getScanViaHTTP(serverURL, id string) (*models.ScanResult, error) {
	resp, err := http.Get(serverURL + "/api/v1/scans/" + url.PathEscape(id))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, serverError(resp)
	}
	var result models.ScanResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &result, nil
}

func runCurated() {
	fs := flag.NewFlagSet("curated", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	query := fs.String("query", "", "search the curated rows (empty lists every row)")
	fuzzy := fs.Bool("fuzzy", false, "enable fuzzy matching for typo tolerance")
	limit := fs.Int("limit", 20, "number of search hits")
	format := fs.String("format", "text", "output format: text, json or tsv")
	_ = fs.Parse(os.Args[2:])

	outputFormat, err := cli.ParseFormat(*format)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	ds, err := curated.Load(cfg.Curated.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load curated dataset: %v\n", err)
		os.Exit(1)
	}
	if *query == "" {
		if err := cli.WriteCurated(os.Stdout, ds, outputFormat); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	ctx := context.Background()
	// The server may hold the on-disk index open, so the CLI always searches in memory.
	idx, err := curated.NewIndex(ctx, "", ds)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to index curated dataset: %v\n", err)
		os.Exit(1)
	}
	defer idx.Close()
	opts := &curated.SearchOptions{Limit: *limit, Fuzzy: *fuzzy}
	hits, err := idx.Search(ctx, *query, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	// Auto-retry with fuzzy if no results and fuzzy not already enabled
	if len(hits) == 0 && !opts.Fuzzy {
		opts.Fuzzy = true
		if fuzzyHits, fuzzyErr := idx.Search(ctx, *query, opts); fuzzyErr == nil && len(fuzzyHits) > 0 {
			hits = fuzzyHits
			fmt.Fprintln(os.Stderr, "No exact matches; showing fuzzy matches.")
		}
	}
	if err := cli.WriteCuratedHits(os.Stdout, ds.Header, hits, outputFormat); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

// statusConfigResponse holds the pipeline settings reported by the server.
type statusConfigResponse struct {
	Alphabet          string   `json:"alphabet"`
	K                 int      `json:"k"`
	Labels            []string `json:"labels"`
	Background        string   `json:"background"`
	InputSize         int      `json:"input_size"`
	ModelPath         string   `json:"model_path,omitempty"`
	DatabasePath      string   `json:"database_path,omitempty"`
	MaxSequenceLength int      `json:"max_sequence_length"`
	MaxSequences      int      `json:"max_sequences"`
}

// statusResponse is the shape of GET /api/v1/status response.
type statusResponse struct {
	Scans            int64                 `json:"scans"`
	Motifs           int64                 `json:"motifs"`
	DiskUsageBytes   *int64                `json:"disk_usage_bytes,omitempty"`
	CuratedRows      *int                  `json:"curated_rows,omitempty"`
	WatchDirectories []string              `json:"watch_directories,omitempty"`
	Config           *statusConfigResponse `json:"config,omitempty"`
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	serverURL := fs.String("server", defaultServerURL, "server URL")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	status, err := statusViaHTTP(*serverURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
		os.Exit(1)
	}
	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		writeStatusText(os.Stdout, status)
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

func writeStatusText(w io.Writer, status *statusResponse) {
	fmt.Fprintf(w, "scans:              %d   # stored scans\n", status.Scans)
	fmt.Fprintf(w, "motifs:             %d   # stored motif records\n", status.Motifs)
	if status.DiskUsageBytes != nil {
		fmt.Fprintf(w, "disk_usage_bytes:   %d   # database + curated index on disk\n", *status.DiskUsageBytes)
	}
	if status.CuratedRows != nil {
		fmt.Fprintf(w, "curated_rows:       %d\n", *status.CuratedRows)
	}
	for _, d := range status.WatchDirectories {
		fmt.Fprintf(w, "watching:           %s\n", d)
	}
	if c := status.Config; c != nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "# configuration")
		fmt.Fprintf(w, "alphabet:           %s\n", c.Alphabet)
		fmt.Fprintf(w, "k:                  %d\n", c.K)
		fmt.Fprintf(w, "labels:             %v (background %s)\n", c.Labels, c.Background)
		fmt.Fprintf(w, "input_size:         %d\n", c.InputSize)
		if c.ModelPath != "" {
			fmt.Fprintf(w, "model_path:         %s\n", c.ModelPath)
		}
		if c.DatabasePath != "" {
			fmt.Fprintf(w, "database_path:      %s\n", c.DatabasePath)
		}
	}
}

func statusViaHTTP(serverURL string) (*statusResponse, error) {
	resp, err := http.Get(serverURL + "/api/v1/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, serverError(resp)
	}
	var s statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &s, nil
}

func runWatch() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: motifscan watch <add|remove|list> [path]")
		fmt.Println("  motifscan watch add <path>     Scan FASTA files dropped into a directory")
		fmt.Println("  motifscan watch remove <path>  Stop watching a directory")
		fmt.Println("  motifscan watch list           List watched directories")
		os.Exit(1)
	}
	sub := os.Args[2]
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	serverURL := fs.String("server", defaultServerURL, "server URL")
	_ = fs.Parse(reorderArgs(os.Args[3:]))
	switch sub {
	case "add":
		if fs.NArg() < 1 {
			fmt.Println("Usage: motifscan watch add <path>")
			os.Exit(1)
		}
		path, _ := filepath.Abs(fs.Arg(0))
		body, _ := json.Marshal(map[string]interface{}{"path": path, "sync": true})
		resp, err := http.Post(*serverURL+"/api/v1/watch/directories", "application/json", bytes.NewReader(body))
		if err != nil {
			fmt.Printf("Request failed: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			fmt.Printf("Add failed: %v\n", serverError(resp))
			os.Exit(1)
		}
		fmt.Printf("Added: %s\n", path)
	case "remove":
		if fs.NArg() < 1 {
			fmt.Println("Usage: motifscan watch remove <path>")
			os.Exit(1)
		}
		path, _ := filepath.Abs(fs.Arg(0))
		req, _ := http.NewRequest(http.MethodDelete, *serverURL+"/api/v1/watch/directories?path="+url.QueryEscape(path), nil)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			fmt.Printf("Request failed: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			fmt.Printf("Remove failed: %v\n", serverError(resp))
			os.Exit(1)
		}
		fmt.Printf("Removed: %s\n", path)
	case "list":
		resp, err := http.Get(*serverURL + "/api/v1/watch/directories")
		if err != nil {
			fmt.Printf("Request failed: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			fmt.Printf("List failed: %v\n", serverError(resp))
			os.Exit(1)
		}
		var out struct {
			Directories []string `json:"directories"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			fmt.Printf("Parse failed: %v\n", err)
			os.Exit(1)
		}
		for _, d := range out.Directories {
			fmt.Println(d)
		}
	default:
		fmt.Printf("Unknown watch subcommand: %s\n", sub)
		os.Exit(1)
	}
}

// Components holds initialized services.
type Components struct {
	Classifier classifier.Classifier
	Pipeline   *scanner.Pipeline
	Storage    storage.Storage
	Curated    *curated.Index
	Service    *scanner.Service
}

func (c *Components) Close() {
	if c.Curated != nil {
		_ = c.Curated.Close()
	}
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
	if c.Classifier != nil {
		_ = c.Classifier.Close()
	}
}

func classifierOptions(cfg *config.Config, alpha *alphabet.Alphabet) (classifier.ONNXOptions, error) {
	labels, err := classifier.NewLabels(cfg.Model.Labels...)
	if err != nil {
		return classifier.ONNXOptions{}, err
	}
	return classifier.ONNXOptions{
		ModelPath:    cfg.Model.Path,
		LibraryPath:  cfg.Model.LibraryPath,
		InputName:    cfg.Model.InputName,
		OutputName:   cfg.Model.OutputName,
		InputSize:    alpha.VectorSize(cfg.Scan.K),
		BatchSize:    cfg.Model.BatchSize,
		Labels:       labels,
		ApplySoftmax: cfg.Model.ApplySoftmax,
	}, nil
}

// newPipeline builds the scan pipeline around clf using the scan settings in cfg.
func newPipeline(cfg *config.Config, clf classifier.Classifier, alpha *alphabet.Alphabet, logger *zap.Logger) (*scanner.Pipeline, error) {
	return scanner.NewPipeline(scanner.Config{
		Classifier:        clf,
		Alphabet:          alpha,
		K:                 cfg.Scan.K,
		Background:        cfg.Model.Background,
		MaxSequenceLength: cfg.Scan.MaxSequenceLengthOrDefault(),
		MaxSequences:      cfg.Scan.MaxSequencesOrDefault(),
		AccessionOnly:     cfg.Scan.AccessionOnly,
	}, scanner.WithLogger(logger))
}

// openCurated loads and indexes the curated table. A missing table is not an error.
func openCurated(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*curated.Index, error) {
	if cfg.Curated.Path == "" {
		return nil, nil
	}
	ds, err := curated.Load(cfg.Curated.Path)
	if errors.Is(err, os.ErrNotExist) {
		logger.Warn("curated dataset not found, curated endpoints disabled", zap.String("path", cfg.Curated.Path))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if cfg.Curated.IndexPath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Curated.IndexPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create curated index directory: %w", err)
		}
	}
	return curated.NewIndex(ctx, cfg.Curated.IndexPath, ds)
}

// initializeComponents loads the model and builds the pipeline. Storage and the curated
// index are opened only when withStorage is set.
func initializeComponents(cfg *config.Config, logger *zap.Logger, withStorage bool) (*Components, error) {
	alpha, err := alphabet.New(cfg.Scan.Alphabet)
	if err != nil {
		return nil, fmt.Errorf("invalid alphabet: %w", err)
	}
	opts, err := classifierOptions(cfg, alpha)
	if err != nil {
		return nil, fmt.Errorf("invalid model labels: %w", err)
	}
	onnx, err := classifier.NewONNXClassifier(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to load model %s: %w", cfg.Model.Path, err)
	}
	clf := classifier.NewCachedClassifier(onnx, cfg.Model.CacheSizeOrDefault())
	logger.Info("model loaded",
		zap.String("path", cfg.Model.Path),
		zap.Int("input_size", opts.InputSize),
		zap.Strings("labels", opts.Labels))

	c := &Components{Classifier: clf}
	c.Pipeline, err = newPipeline(cfg, clf, alpha, logger)
	if err != nil {
		c.Close()
		return nil, err
	}
	if withStorage {
		store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		c.Storage = store
		c.Curated, err = openCurated(context.Background(), cfg, logger)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to initialize curated index: %w", err)
		}
	}
	c.Service = scanner.NewService(c.Pipeline, c.Storage, scanner.WithServiceLogger(logger))
	return c, nil
}

func printUsage() {
	fmt.Println(`motifscan - Protein motif scanner

Usage:
  motifscan server [flags]                  Start the HTTP server
  motifscan scan [flags] <fasta-file|->     Scan a FASTA file for motifs
  motifscan scans [list|get|delete] [flags] Manage stored scans (via server)
  motifscan curated [flags]                 List or search curated motifs
  motifscan status [flags]                  Show storage and model status (via server)
  motifscan watch <add|remove|list>         Manage watched drop-folders
  motifscan version                         Show version
  motifscan help                            Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/motifscan/config.yaml)
  --debug            Enable debug logging

Scan Flags:
  --config string    Config file path (for local scans)
  --server string    Server URL; empty scans locally with the configured model
  --format string    Output format: text, json, tsv or xlsx (default: text)
  --out string       Output file (required for xlsx)
  --save             Record a local scan in the history database
  --name string      Scan name (default: input file name)

Scans Flags:
  --server string    Server URL (default: http://localhost:8080)
  --format string    Output format (default: text)
  --limit, --offset  Paging for list
  --out string       Output file for get

Curated Flags:
  --config string    Config file path
  --query string     Search terms (empty lists all rows)
  --fuzzy            Typo-tolerant search
  --limit int        Number of hits (default: 20)
  --format string    Output format: text, json or tsv

Environment:
  MOTIFSCAN_MODEL_PATH, MOTIFSCAN_DATABASE_PATH, MOTIFSCAN_PORT, MOTIFSCAN_DEBUG
  override the config file; a .env file in the working directory is loaded first.

Examples:
  motifscan server
  motifscan scan proteins.fa
  motifscan scan --format tsv --out motifs.tsv proteins.fa
  cat proteins.fa | motifscan scan --server http://localhost:8080 -
  motifscan scans get --format xlsx --out scan.xlsx <scan-id>
  motifscan curated --query "PPR L2"
  motifscan watch add /path/to/fasta`)
}
