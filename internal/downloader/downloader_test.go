package downloader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"iarchive/internal/config"
	"iarchive/internal/logger"
	"iarchive/internal/models"
)

func testTrack(name string) models.Track {
	return models.Track{
		URI:  "internetarchive:gd1977#" + name,
		Name: name,
		Album: &models.Album{
			Name:    "Barton Hall",
			Artists: []models.Artist{{Name: "Grateful Dead"}},
		},
	}
}

func TestFiles(t *testing.T) {
	urlFunc := func(id, name string) string { return "https://archive.org/download/" + id + "/" + name }

	files, err := Files([]models.Track{testTrack("d1/t01.txt")}, urlFunc)
	if err != nil {
		t.Fatalf("Files() error: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("got %d files, want 1", len(files))
	}
	if files[0].URL != "https://archive.org/download/gd1977/d1/t01.txt" {
		t.Errorf("URL = %q", files[0].URL)
	}
	if files[0].Name != "t01.txt" {
		t.Errorf("Name = %q, want %q", files[0].Name, "t01.txt")
	}

	if _, err := Files([]models.Track{{URI: "internetarchive:gd1977"}}, urlFunc); err == nil {
		t.Error("expected error for item uri")
	}
}

func TestDownloadAll(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.txt" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("payload"))
	}))
	defer srv.Close()

	cfg := config.DefaultConfig()
	cfg.DownloadDir = t.TempDir()
	cfg.ParallelJobs = 2

	d := New(cfg, logger.Nop(), t.TempDir())
	var progress atomic.Int32
	d.OnProgress = func(int64) { progress.Add(1) }

	files := []File{
		{URL: srv.URL + "/a.txt", Name: "a.txt", Track: testTrack("a.txt")},
		{URL: srv.URL + "/b.txt", Name: "b.txt", Track: testTrack("b.txt")},
		{URL: srv.URL + "/missing.txt", Name: "missing.txt", Track: testTrack("missing.txt")},
	}

	stats, err := d.DownloadAll(context.Background(), files)
	if err != nil {
		t.Fatalf("DownloadAll() error: %v", err)
	}
	if stats.Successful != 2 || stats.Failed != 1 {
		t.Errorf("stats = %+v, want 2 successful, 1 failed", stats)
	}
	if stats.Bytes != int64(2*len("payload")) {
		t.Errorf("Bytes = %d, want %d", stats.Bytes, 2*len("payload"))
	}
	if progress.Load() != 3 {
		t.Errorf("progress called %d times, want 3", progress.Load())
	}

	b, err := os.ReadFile(filepath.Join(cfg.DownloadDir, "Grateful Dead", "Barton Hall", "a.txt"))
	if err != nil {
		t.Fatalf("downloaded file missing: %v", err)
	}
	if string(b) != "payload" {
		t.Errorf("content = %q, want %q", b, "payload")
	}
}

func TestDownloadAllFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	cfg := config.DefaultConfig()
	cfg.DownloadDir = t.TempDir()
	d := New(cfg, logger.Nop(), t.TempDir())

	if _, err := d.DownloadAll(context.Background(), nil); err == nil {
		t.Error("expected error for empty file list")
	}

	stats, err := d.DownloadAll(context.Background(), []File{{URL: srv.URL + "/a.txt", Name: "a.txt", Track: testTrack("a.txt")}})
	if err == nil {
		t.Error("expected error when every download fails")
	}
	if stats.Failed != 1 {
		t.Errorf("Failed = %d, want 1", stats.Failed)
	}
}

func TestDownloadAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := config.DefaultConfig()
	cfg.DownloadDir = t.TempDir()
	d := New(cfg, logger.Nop(), t.TempDir())

	_, err := d.DownloadAll(ctx, []File{{URL: "http://127.0.0.1:0/a.txt", Name: "a.txt"}})
	if err == nil {
		t.Error("expected cancellation error")
	}
}
