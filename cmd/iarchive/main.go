package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"iarchive/internal/archive"
	"iarchive/internal/cache"
	"iarchive/internal/config"
	"iarchive/internal/downloader"
	"iarchive/internal/library"
	"iarchive/internal/logger"
	"iarchive/internal/models"
	"iarchive/internal/progress"
	"iarchive/internal/shutdown"
	"iarchive/internal/tagger"
	"iarchive/internal/uri"
	"iarchive/pkg/utils"
)

func main() {
	opts, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] %v\n", err)
		os.Exit(1)
	}
	if opts.help {
		printUsage()
		return
	}
	if opts.initConfig {
		if err := initConfigFile(); err != nil {
			fmt.Fprintf(os.Stderr, "[ERROR] %v\n", err)
			os.Exit(1)
		}
		return
	}

	cfg := opts.cfg
	log := logger.New(cfg.Verbose)
	logger.SetDefault(log)
	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0755); err != nil {
			fmt.Fprintf(os.Stderr, "[WARN] Failed to create log directory: %v\n", err)
		} else if err := log.SetFileLog(cfg.LogFile); err != nil {
			fmt.Fprintf(os.Stderr, "[WARN] Failed to setup file logging: %v\n", err)
		}
	}

	if opts.configPath != "" {
		log.Debug("Loaded configuration from: %s", opts.configPath)
	}

	if err := cfg.Validate(); err != nil {
		log.Error("Configuration error: %v", err)
		log.Close()
		os.Exit(1)
	}

	sh := shutdown.New()
	sh.Listen()

	err = run(sh, opts, log)
	sh.Shutdown()
	log.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] %v\n", err)
		os.Exit(1)
	}
}

// app bundles what the commands share.
type app struct {
	cfg    config.Config
	log    *logger.Logger
	client *archive.Client
	lib    *library.Provider
	out    io.Writer
}

func run(sh *shutdown.Handler, opts options, log *logger.Logger) error {
	cfg := opts.cfg

	store, err := openCache(cfg, log)
	if err != nil {
		return err
	}
	sh.AddCleanup(func() {
		if err := store.Close(); err != nil {
			log.Warn("Error closing cache: %v", err)
		}
	})

	client := archive.New(cfg.BaseURL, cfg.Timeout, archive.WithCache(store))
	a := &app{
		cfg:    cfg,
		log:    log,
		client: client,
		lib:    library.New(client, cfg, log),
		out:    os.Stdout,
	}

	ctx := sh.Context()
	switch opts.command {
	case "search":
		return a.search(ctx, opts.args, opts.uris, opts.exact)
	case "browse":
		return a.browse(ctx, firstArg(opts.args))
	case "lookup":
		if len(opts.args) != 1 {
			return fmt.Errorf("lookup requires exactly one uri")
		}
		return a.lookup(ctx, opts.args[0])
	case "images":
		if len(opts.args) == 0 {
			return fmt.Errorf("images requires at least one uri")
		}
		return a.images(ctx, opts.args)
	case "bookmarks":
		if len(opts.args) != 1 {
			return fmt.Errorf("bookmarks requires a user name")
		}
		return a.bookmarks(ctx, opts.args[0])
	case "download":
		if len(opts.args) != 1 {
			return fmt.Errorf("download requires exactly one uri")
		}
		return a.download(ctx, sh, opts.args[0])
	case "tag":
		if len(opts.args) != 2 {
			return fmt.Errorf("tag requires a uri and a directory")
		}
		return a.tag(ctx, opts.args[0], opts.args[1])
	case "tags":
		if len(opts.args) != 1 {
			return fmt.Errorf("tags requires a file")
		}
		return a.showTags(opts.args[0])
	case "refresh":
		if err := a.lib.Refresh(); err != nil {
			return err
		}
		log.Info("Cache cleared")
		return nil
	}
	return fmt.Errorf("unknown command: %s", opts.command)
}

func openCache(cfg config.Config, log *logger.Logger) (cache.Store, error) {
	if cfg.CachePath == "" {
		log.Debug("Using in-memory item cache")
		return cache.NewMemory(cfg.CacheTTL), nil
	}
	store, err := cache.OpenSQLite(cfg.CachePath, cfg.CacheTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	log.Debug("Item cache: %s", cfg.CachePath)
	return store, nil
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func (a *app) search(ctx context.Context, args, uris []string, exact bool) error {
	if len(args) == 0 {
		return fmt.Errorf("search requires at least one term")
	}
	result, err := a.lib.Search(ctx, parseTerms(args), uris, exact)
	if err != nil {
		return err
	}
	if result == nil {
		fmt.Fprintln(a.out, "No results")
		return nil
	}

	fmt.Fprintf(a.out, "%s albums (%s)\n", humanize.Comma(int64(len(result.Albums))), result.URI)
	for _, album := range result.Albums {
		line := album.URI + "  " + album.Name
		if names := models.ArtistNames(album.Artists); len(names) > 0 {
			line += " - " + strings.Join(names, ", ")
		}
		if album.Date != "" {
			line += " (" + album.Date + ")"
		}
		fmt.Fprintln(a.out, line)
	}
	return nil
}

func (a *app) browse(ctx context.Context, s string) error {
	if s == "" {
		s = a.lib.Root().URI
	}
	refs, err := a.lib.Browse(ctx, s)
	if err != nil {
		return err
	}
	printRefs(a.out, refs)
	return nil
}

func (a *app) lookup(ctx context.Context, s string) error {
	tracks, err := a.lib.Lookup(ctx, s)
	if err != nil {
		return err
	}
	printTracks(a.out, tracks)
	return nil
}

func (a *app) images(ctx context.Context, uris []string) error {
	images, err := a.lib.Images(ctx, uris)
	if err != nil {
		return err
	}
	for _, s := range uris {
		for _, img := range images[s] {
			fmt.Fprintf(a.out, "%s  %s\n", s, img.URI)
		}
	}
	return nil
}

func (a *app) bookmarks(ctx context.Context, user string) error {
	refs, err := a.lib.Bookmarks(ctx, user)
	if err != nil {
		return err
	}
	printRefs(a.out, refs)
	return nil
}

func (a *app) download(ctx context.Context, sh *shutdown.Handler, s string) error {
	tracks, err := a.lib.Lookup(ctx, s)
	if err != nil {
		return err
	}
	files, err := downloader.Files(tracks, a.client.URL)
	if err != nil {
		return err
	}

	tmpDir, err := utils.CreateTempDir()
	if err != nil {
		return fmt.Errorf("error creating temporary folder: %w", err)
	}
	a.log.Debug("Temporary folder: %s", tmpDir)
	sh.AddCleanup(func() {
		a.log.Debug("Cleaning up...")
		if err := utils.Cleanup(tmpDir); err != nil {
			a.log.Warn("Error during cleanup: %v", err)
		}
	})

	d := downloader.New(a.cfg, a.log, tmpDir)
	var bar *progress.Bar
	if !a.cfg.Verbose {
		bar = progress.New(len(files))
		d.OnProgress = bar.Increment
	}

	start := time.Now()
	stats, err := d.DownloadAll(ctx, files)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Saved %d of %d files (%s) to %s in %s\n",
		stats.Successful, stats.Total, humanize.IBytes(uint64(stats.Bytes)),
		a.cfg.DownloadDir, time.Since(start).Round(time.Second))
	return nil
}

// tag writes the metadata of the item's tracks to matching local files,
// matched by file name.
func (a *app) tag(ctx context.Context, s, dir string) error {
	tracks, err := a.lib.Lookup(ctx, s)
	if err != nil {
		return err
	}
	byName := make(map[string]models.Track, len(tracks))
	for _, t := range tracks {
		u, err := uri.Split(t.URI)
		if err != nil || u.Fragment == "" {
			continue
		}
		byName[filepath.Base(u.Fragment)] = t
	}

	paths, err := utils.FindAudioFiles(dir)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no audio files found in %s", dir)
	}

	var bar *progress.Bar
	if !a.cfg.Verbose {
		bar = progress.New(len(paths))
	}

	var tagged int
	for _, path := range paths {
		if ctx.Err() != nil {
			break
		}
		var size int64
		if t, ok := byName[filepath.Base(path)]; !ok {
			a.log.Debug("No track for %s", path)
		} else if err := tagger.WriteTags(path, t); err != nil {
			a.log.Warn("Could not tag %s: %v", path, err)
		} else {
			tagged++
			if info, err := os.Stat(path); err == nil {
				size = info.Size()
			}
		}
		if bar != nil {
			bar.Increment(size)
		}
	}
	if bar != nil {
		bar.Finish()
	}
	if ctx.Err() != nil {
		return fmt.Errorf("tagging cancelled")
	}

	fmt.Fprintf(a.out, "Tagged %d of %d files\n", tagged, len(paths))
	return nil
}

func (a *app) showTags(path string) error {
	tags, err := tagger.ReadTags(path)
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(a.out, "%s: %s\n", k, strings.Join(tags[k], "; "))
	}
	return nil
}

func printRefs(w io.Writer, refs []models.Ref) {
	for _, r := range refs {
		fmt.Fprintf(w, "%-9s %s  %s\n", r.Type, r.URI, r.Name)
	}
}

func printTracks(w io.Writer, tracks []models.Track) {
	for _, t := range tracks {
		line := fmt.Sprintf("%3d. %s", t.TrackNo, t.Name)
		if names := models.ArtistNames(t.Artists); len(names) > 0 {
			line += " - " + strings.Join(names, ", ")
		}
		if t.Length > 0 {
			line += " [" + formatLength(t.Length) + "]"
		}
		if t.Bitrate > 0 {
			line += fmt.Sprintf(" %d kbit/s", t.Bitrate)
		}
		fmt.Fprintln(w, line)
		fmt.Fprintf(w, "     %s\n", t.URI)
	}
}

// formatLength renders milliseconds as m:ss or h:mm:ss.
func formatLength(ms int) string {
	d := time.Duration(ms) * time.Millisecond
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
