package e2e

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/hyperjump/motifscan/internal/alphabet"
	"github.com/hyperjump/motifscan/internal/classifier"
	"github.com/hyperjump/motifscan/internal/config"
	"github.com/hyperjump/motifscan/internal/fileid"
	"github.com/hyperjump/motifscan/internal/models"
	"github.com/hyperjump/motifscan/internal/scanner"
	"github.com/hyperjump/motifscan/internal/server"
	"github.com/hyperjump/motifscan/internal/storage"
	"github.com/hyperjump/motifscan/internal/watcher"
)

type env struct {
	corpus  Corpus
	mock    *classifier.MockClassifier
	store   *storage.SQLiteStorage
	service *scanner.Service
}

func newEnv(t *testing.T, accessionOnly bool) *env {
	t.Helper()
	alpha := alphabet.Default()
	mock := classifier.NewMockClassifier(classifier.PPRLabels, alpha, CorpusK)
	corpus := DefaultCorpus()
	corpus.Register(mock)

	pipeline, err := scanner.NewPipeline(scanner.Config{
		Classifier:    mock,
		Alphabet:      alpha,
		K:             CorpusK,
		AccessionOnly: accessionOnly,
	})
	if err != nil {
		t.Fatal(err)
	}
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "db", "scans.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return &env{corpus: corpus, mock: mock, store: store, service: scanner.NewService(pipeline, store)}
}

func TestE2E_ScanOverHTTP(t *testing.T) {
	e := newEnv(t, false)
	cfg := config.Default()
	srv := server.NewServer(server.Deps{Service: e.service, Storage: e.store, Config: cfg})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/v1/scans?name=corpus", "text/plain", strings.NewReader(e.corpus.FASTA(7)))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var result models.ScanResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}

	if want := e.corpus.Expected(false); !reflect.DeepEqual(result.Records, want) {
		t.Errorf("records:\n got %+v\nwant %+v", result.Records, want)
	}
	wantAcc := make([]string, len(e.corpus))
	for i, p := range e.corpus {
		wantAcc[i] = p.Header
	}
	if !reflect.DeepEqual(result.Accessions, wantAcc) {
		t.Errorf("accessions = %v, want %v", result.Accessions, wantAcc)
	}
	total, encoded, skipped := e.corpus.WindowCounts(alphabet.Default().Valid)
	s := result.Stats
	if s.Sequences != len(e.corpus) || s.Windows != total || s.EncodedWindows != encoded || s.SkippedWindows != skipped {
		t.Errorf("stats = %+v, want %d/%d/%d windows", s, total, encoded, skipped)
	}
	if s.Motifs != len(result.Records) {
		t.Errorf("stats.Motifs = %d, records = %d", s.Motifs, len(result.Records))
	}
	// One classifier batch per sequence that has at least one encodable window.
	if calls := len(e.mock.Calls()); calls != 3 {
		t.Errorf("classifier calls = %d, want 3", calls)
	}

	tsv, err := http.Get(ts.URL + "/api/v1/scans/" + result.ID + "?format=tsv")
	if err != nil {
		t.Fatal(err)
	}
	defer tsv.Body.Close()
	sc := bufio.NewScanner(tsv.Body)
	var lines []string
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if len(lines) != len(result.Records)+1 {
		t.Fatalf("tsv lines = %d, want %d", len(lines), len(result.Records)+1)
	}
	if lines[0] != "accession\tstart\tend\tname\tscore\tstrand\tmotif" {
		t.Errorf("tsv header = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "AT1G01970 pentatricopeptide repeat protein\t4\t9\tP\t0.91\t+\tAVTYN") {
		t.Errorf("tsv first row = %q", lines[1])
	}
}

func TestE2E_AccessionOnlyAndPersistence(t *testing.T) {
	e := newEnv(t, true)
	ctx := context.Background()

	result, err := e.service.Submit(ctx, &models.ScanRequest{Name: "corpus", FASTA: e.corpus.FASTA(60)})
	if err != nil {
		t.Fatal(err)
	}
	want := e.corpus.Expected(true)
	if !reflect.DeepEqual(result.Records, want) {
		t.Errorf("records:\n got %+v\nwant %+v", result.Records, want)
	}

	stored, err := e.store.GetScan(ctx, result.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(stored.Records, want) {
		t.Errorf("stored records differ:\n got %+v\nwant %+v", stored.Records, want)
	}
	if stored.Stats != result.Stats || stored.Name != "corpus" {
		t.Errorf("stored scan = %+v", stored)
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestE2E_WatchFolder(t *testing.T) {
	e := newEnv(t, true)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	dir := t.TempDir()

	w := watcher.New(
		watcher.Config{Roots: []string{dir}, Extensions: []string{".fa"}, Recursive: true, Debounce: 50 * time.Millisecond},
		watcher.Handlers{
			Changed: func(path string) { _, _ = e.service.ScanFile(ctx, path) },
			Removed: func(path string) { _ = e.service.ForgetFile(ctx, path) },
		},
	)
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	path := filepath.Join(dir, "inbox.fa")
	if err := os.WriteFile(path, []byte(e.corpus.FASTA(10)), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte(">x\nAVTYN\n"), 0644); err != nil {
		t.Fatal(err)
	}
	id := fileid.ScanID(path)
	waitFor(t, "watched file scan", func() bool {
		_, err := e.store.GetScan(ctx, id)
		return err == nil
	})
	scan, err := e.store.GetScan(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if scan.Name != "inbox.fa" || len(scan.Records) != len(e.corpus.Expected(true)) {
		t.Errorf("watched scan = %+v", scan)
	}
	if n, _ := e.store.CountScans(ctx); n != 1 {
		t.Errorf("scans = %d, want 1 (non-FASTA files ignored)", n)
	}

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "scan removal", func() bool {
		_, err := e.store.GetScan(ctx, id)
		return errors.Is(err, storage.ErrNotFound)
	})
}
