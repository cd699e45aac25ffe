package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"iarchive/internal/config"
	"iarchive/internal/logger"
	"iarchive/internal/models"
	"iarchive/internal/tagger"
	"iarchive/internal/uri"
	"iarchive/pkg/utils"
)

// File is one archive file to fetch.
type File struct {
	URL   string
	Name  string
	Track models.Track
}

// Files resolves the download location of each track. urlFunc maps an
// identifier and filename to a URL.
func Files(tracks []models.Track, urlFunc func(identifier, filename string) string) ([]File, error) {
	files := make([]File, 0, len(tracks))
	for _, t := range tracks {
		u, err := uri.Split(t.URI)
		if err != nil {
			return nil, err
		}
		if u.Path == "" || u.Fragment == "" {
			return nil, fmt.Errorf("%w: %s is not a file", uri.ErrInvalid, t.URI)
		}
		files = append(files, File{
			URL:   urlFunc(u.Path, u.Fragment),
			Name:  filepath.Base(u.Fragment),
			Track: t,
		})
	}
	return files, nil
}

// Downloader fetches archive files, tags them and files them below
// OutputDir as Artist/Album/name.
type Downloader struct {
	Config     config.Config
	Logger     *logger.Logger
	TmpDir     string
	OnProgress func(bytes int64) // Called after each file, successful or not

	httpClient *http.Client
}

// New creates a new Downloader instance
func New(cfg config.Config, log *logger.Logger, tmpDir string) *Downloader {
	return &Downloader{
		Config:     cfg,
		Logger:     log,
		TmpDir:     tmpDir,
		httpClient: &http.Client{},
	}
}

// DownloadSingle fetches one file into the output directory and returns
// its size.
func (d *Downloader) DownloadSingle(ctx context.Context, f File) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create download request: %w", err)
	}
	req.Header.Set("User-Agent", "iarchive/1.0")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return 0, fmt.Errorf("download cancelled")
		}
		return 0, fmt.Errorf("download request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("download of %s returned %d", f.URL, resp.StatusCode)
	}

	out, err := os.CreateTemp(d.TmpDir, "*-"+f.Name)
	if err != nil {
		return 0, fmt.Errorf("failed to create temp file for %s: %w", f.Name, err)
	}
	tmpPath := out.Name()
	n, err := io.Copy(out, resp.Body)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("failed to save %s: %w", f.Name, err)
	}

	if utils.IsAudioFile(tmpPath) {
		if err := tagger.WriteTags(tmpPath, f.Track); err != nil {
			d.Logger.Warn("Could not tag %s: %v", f.Name, err)
		}
	}

	dst := filepath.Join(d.Config.DownloadDir, tagger.SubDir(f.Track), f.Name)
	if err := utils.MoveFile(tmpPath, dst); err != nil {
		return 0, err
	}
	d.Logger.Debug("Saved %s", dst)
	return n, nil
}

// DownloadStats contains statistics about the download operation
type DownloadStats struct {
	Total      int
	Successful int
	Failed     int
	Bytes      int64
}

// DownloadAll downloads all files in parallel using a worker pool
func (d *Downloader) DownloadAll(ctx context.Context, files []File) (DownloadStats, error) {
	stats := DownloadStats{Total: len(files)}

	if len(files) == 0 {
		return stats, fmt.Errorf("no files to download")
	}

	parallel := d.Config.ParallelJobs
	if parallel < 1 {
		parallel = 1
	}
	d.Logger.Info("=== Starting download (%d files, %d parallel) ===", len(files), parallel)

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, parallel)
	var mu sync.Mutex
	var failed []string

	for i, f := range files {
		if ctx.Err() != nil {
			d.Logger.Warn("Downloads cancelled, waiting for active downloads to finish...")
			wg.Wait()
			stats.Failed = stats.Total - stats.Successful
			return stats, fmt.Errorf("downloads cancelled")
		}

		wg.Add(1)
		go func(idx int, f File) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			d.Logger.Debug("Downloading [%d/%d]: %s", idx+1, len(files), f.URL)

			n, err := d.DownloadSingle(ctx, f)
			mu.Lock()
			if err != nil {
				if ctx.Err() == nil {
					d.Logger.Debug("Download error %s: %v", f.URL, err)
				}
				failed = append(failed, f.Name)
			} else {
				stats.Successful++
				stats.Bytes += n
			}
			mu.Unlock()

			if d.OnProgress != nil {
				d.OnProgress(n)
			}
		}(i, f)
	}

	wg.Wait()
	stats.Failed = len(failed)

	if ctx.Err() != nil {
		return stats, fmt.Errorf("downloads cancelled")
	}
	if len(failed) > 0 {
		d.Logger.Warn("%d files not downloaded", len(failed))
		d.Logger.Debug("Failed files: %v", failed)

		if len(failed) == len(files) {
			return stats, fmt.Errorf("all %d files failed to download", len(files))
		}
	}

	d.Logger.Info("Download completed: %d successful, %d failed", stats.Successful, stats.Failed)
	return stats, nil
}
