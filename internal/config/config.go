package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// BrowseView is a sort order offered when browsing a collection.
type BrowseView struct {
	Order string `yaml:"order"`
	Name  string `yaml:"name"`
}

// Config contains the program configuration
type Config struct {
	BaseURL      string        `yaml:"base_url"`
	Timeout      time.Duration `yaml:"timeout"`
	Collections  []string      `yaml:"collections"`
	AudioFormats []string      `yaml:"audio_formats"`
	ImageFormats []string      `yaml:"image_formats"`
	BrowseLimit  int           `yaml:"browse_limit"`
	BrowseViews  []BrowseView  `yaml:"browse_views"`
	SearchLimit  int           `yaml:"search_limit"`
	SearchOrder  []string      `yaml:"search_order,omitempty"`
	CachePath    string        `yaml:"cache_path"`
	CacheTTL     time.Duration `yaml:"cache_ttl"`
	Verbose      bool          `yaml:"verbose"`
	LogFile      string        `yaml:"log_file,omitempty"`
	Listen       string        `yaml:"listen"`
	DownloadDir  string        `yaml:"download_dir"`
	ParallelJobs int           `yaml:"parallel_jobs"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		BaseURL: "https://archive.org",
		Timeout: 10 * time.Second,
		Collections: []string{
			"audio",
			"etree",
			"librivoxaudio",
			"audio_bookspoetry",
			"audio_music",
			"audio_foreign",
			"radioprograms",
		},
		AudioFormats: []string{"VBR MP3", "64Kbps MP3"},
		ImageFormats: []string{"JPEG", "PNG"},
		BrowseLimit:  100,
		BrowseViews: []BrowseView{
			{Order: "downloads desc", Name: "Most Viewed"},
			{Order: "titleSorter asc", Name: "Title"},
			{Order: "publicdate desc", Name: "Date Archived"},
			{Order: "date desc", Name: "Date Published"},
			{Order: "creatorSorter asc", Name: "Creator"},
		},
		SearchLimit: 20,
		CachePath:   filepath.Join(homeDir(), ".cache", "iarchive", "items.db"),
		CacheTTL:    24 * time.Hour,
		Listen:      "127.0.0.1:6680",

		DownloadDir:  filepath.Join(homeDir(), "Music", "iarchive"),
		ParallelJobs: 4,
	}
}

// LoadConfigFile loads configuration from a YAML file.
// If path is empty, searches standard locations. Returns defaults if no file found.
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = FindConfigFile()
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	cfg.CachePath = ExpandHome(cfg.CachePath)
	cfg.LogFile = ExpandHome(cfg.LogFile)
	cfg.DownloadDir = ExpandHome(cfg.DownloadDir)

	return cfg, nil
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir(), path[2:])
	}
	return path
}

// FindConfigFile searches for a config file in standard locations
func FindConfigFile() string {
	home := homeDir()
	locations := []string{
		"./iarchive.yaml",
		"./iarchive.yml",
		filepath.Join(home, ".config", "iarchive", "config.yaml"),
		filepath.Join(home, ".config", "iarchive", "config.yml"),
		filepath.Join(home, ".iarchive.yaml"),
	}

	for _, path := range locations {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// SaveConfigFile saves the current configuration to a YAML file
func SaveConfigFile(cfg Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetDefaultConfigPath returns the default config file path
func GetDefaultConfigPath() string {
	return filepath.Join(homeDir(), ".config", "iarchive", "config.yaml")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return os.Getenv("HOME")
	}
	return home
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return fmt.Errorf("base_url must start with http:// or https://, got %q", c.BaseURL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}

	if len(c.AudioFormats) == 0 {
		return fmt.Errorf("audio_formats cannot be empty")
	}
	for _, f := range c.AudioFormats {
		if strings.TrimSpace(f) == "" {
			return fmt.Errorf("audio_formats cannot contain empty entries")
		}
	}
	for _, id := range c.Collections {
		if strings.TrimSpace(id) == "" || strings.ContainsAny(id, " /?#") {
			return fmt.Errorf("invalid collection identifier %q", id)
		}
	}

	if c.BrowseLimit < 1 {
		return fmt.Errorf("browse_limit must be at least 1, got %d", c.BrowseLimit)
	}
	if c.SearchLimit < 1 {
		return fmt.Errorf("search_limit must be at least 1, got %d", c.SearchLimit)
	}
	for _, v := range c.BrowseViews {
		if v.Order == "" || v.Name == "" {
			return fmt.Errorf("browse_views entries need both order and name, got %+v", v)
		}
	}

	if c.ParallelJobs < 1 || c.ParallelJobs > 10 {
		return fmt.Errorf("parallel_jobs must be between 1 and 10, got %d", c.ParallelJobs)
	}

	if c.CacheTTL < 0 {
		return fmt.Errorf("cache_ttl cannot be negative, got %s", c.CacheTTL)
	}

	return nil
}
