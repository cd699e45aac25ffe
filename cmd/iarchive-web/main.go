package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"iarchive/internal/archive"
	"iarchive/internal/cache"
	"iarchive/internal/config"
	"iarchive/internal/library"
	"iarchive/internal/logger"
	"iarchive/internal/shutdown"
	"iarchive/internal/web"
)

func main() {
	var (
		listen     string
		configPath string
		verbose    bool
	)

	flag.StringVar(&listen, "listen", "", "HTTP listen address (default from config)")
	flag.StringVar(&configPath, "config", "", "Config file path")
	flag.BoolVar(&verbose, "v", false, "Verbose logging")
	flag.Parse()

	cfg, err := config.LoadConfigFile(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	if listen != "" {
		cfg.Listen = listen
	}
	if verbose {
		cfg.Verbose = true
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	l := logger.New(cfg.Verbose)
	logger.SetDefault(l)
	if cfg.LogFile != "" {
		if err := l.SetFileLog(cfg.LogFile); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Failed to setup file logging: %v\n", err)
		}
	}
	defer l.Close()

	var store cache.Store = cache.NewMemory(cfg.CacheTTL)
	if cfg.CachePath != "" {
		s, err := cache.OpenSQLite(cfg.CachePath, cfg.CacheTTL)
		if err != nil {
			l.Error("Cache error: %v", err)
			os.Exit(1)
		}
		store = s
	}
	defer store.Close()

	client := archive.New(cfg.BaseURL, cfg.Timeout, archive.WithCache(store))
	server := web.NewServer(library.New(client, cfg, l), l)

	httpServer := &http.Server{
		Addr:         cfg.Listen,
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2*cfg.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	sh := shutdown.New()
	sh.AddCleanup(func() {
		l.Info("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			l.Error("Server shutdown error: %v", err)
		}
	})
	sh.Listen()

	l.Info("Starting web server on %s", cfg.Listen)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		l.Error("Server error: %v", err)
		sh.Shutdown()
		os.Exit(1)
	}

	// Waits for a signal-triggered shutdown to finish its cleanups.
	sh.Shutdown()
	l.Info("Server stopped")
}
