package main

import (
	"fmt"
	"os"
	"strings"

	"iarchive/internal/config"
	"iarchive/internal/query"
)

var commands = map[string]bool{
	"search":    true,
	"browse":    true,
	"lookup":    true,
	"images":    true,
	"bookmarks": true,
	"download":  true,
	"tag":       true,
	"tags":      true,
	"refresh":   true,
}

// options holds the parsed command line.
type options struct {
	cfg        config.Config
	configPath string
	command    string
	args       []string
	uris       []string // search scope
	exact      bool
	help       bool
	initConfig bool
}

// parseArgs parses command-line arguments and loads configuration.
// Priority: CLI flags > config file > defaults
func parseArgs(args []string) (options, error) {
	var opts options

	if len(args) == 0 {
		opts.help = true
		return opts, nil
	}

	for _, arg := range args {
		if arg == "--help" || arg == "-h" {
			opts.help = true
			return opts, nil
		}
		if arg == "--init-config" {
			opts.initConfig = true
			return opts, nil
		}
	}

	for i := 0; i < len(args); i++ {
		if args[i] == "--config" || args[i] == "-c" {
			if i+1 >= len(args) {
				return options{}, fmt.Errorf("--config requires a path argument")
			}
			opts.configPath = args[i+1]
			break
		}
	}

	cfg, err := config.LoadConfigFile(opts.configPath)
	if err != nil {
		return options{}, fmt.Errorf("failed to load config: %w", err)
	}
	if opts.configPath == "" {
		opts.configPath = config.FindConfigFile()
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "--verbose", "-v":
			cfg.Verbose = true

		case "--exact", "-e":
			opts.exact = true

		case "--parallel", "-p":
			if i+1 >= len(args) {
				return options{}, fmt.Errorf("--parallel requires a number argument")
			}
			i++
			var jobs int
			if _, err := fmt.Sscanf(args[i], "%d", &jobs); err != nil {
				return options{}, fmt.Errorf("invalid parallel jobs value: %s", args[i])
			}
			cfg.ParallelJobs = jobs

		case "--output", "-o":
			if i+1 >= len(args) {
				return options{}, fmt.Errorf("--output requires a directory")
			}
			i++
			cfg.DownloadDir = config.ExpandHome(args[i])

		case "--uri", "-u":
			if i+1 >= len(args) {
				return options{}, fmt.Errorf("--uri requires a uri argument")
			}
			i++
			opts.uris = append(opts.uris, args[i])

		case "--config", "-c":
			i++

		default:
			if len(arg) > 0 && arg[0] == '-' {
				return options{}, fmt.Errorf("unknown flag: %s", arg)
			}
			if opts.command == "" {
				if !commands[arg] {
					return options{}, fmt.Errorf("unknown command: %s", arg)
				}
				opts.command = arg
				continue
			}
			opts.args = append(opts.args, arg)
		}
	}

	if opts.command == "" {
		return options{}, fmt.Errorf("no command given")
	}

	opts.cfg = cfg
	return opts, nil
}

// parseTerms turns field=value arguments into search criteria. Arguments
// without a known field prefix are matched against any field.
func parseTerms(args []string) map[string][]string {
	criteria := make(map[string][]string)
	for _, arg := range args {
		field, value, ok := strings.Cut(arg, "=")
		if !ok || !query.ValidField(field) {
			field, value = string(query.FieldAny), arg
		}
		criteria[field] = append(criteria[field], value)
	}
	return criteria
}

// initConfigFile creates a new config file with default values
func initConfigFile() error {
	path := config.GetDefaultConfigPath()

	if _, err := os.Stat(path); err == nil {
		fmt.Printf("Config file already exists at: %s\n", path)
		fmt.Println("Delete it first if you want to recreate it.")
		return nil
	}

	cfg := config.DefaultConfig()

	if err := config.SaveConfigFile(cfg, path); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	fmt.Printf("Created default config file at: %s\n", path)
	fmt.Println("\nYou can now edit this file to customize your settings.")
	fmt.Println("Available options:")
	fmt.Println("  collections: collection identifiers shown at the root")
	fmt.Println("  audio_formats: preferred file formats, best first")
	fmt.Println("  cache_ttl: how long fetched items are kept (e.g. 24h, 0 = forever)")
	fmt.Println("  parallel_jobs: 1-10 (number of parallel downloads)")
	fmt.Println("  verbose: true/false (enable detailed logging)")
	return nil
}

// printUsage displays the help message
func printUsage() {
	fmt.Println("iarchive - Browse, search and download Internet Archive audio")
	fmt.Println()
	fmt.Println("Usage: iarchive [options] <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  search <terms>...          Search albums; terms are field=value or free text")
	fmt.Println("  browse [uri]               List the entries below uri (default: root)")
	fmt.Println("  lookup <uri>               Show the tracks of an item or a single track")
	fmt.Println("  images <uri>...            Show cover image URLs")
	fmt.Println("  bookmarks <user>           List a user's bookmarked items")
	fmt.Println("  download <uri>             Download and tag the tracks of an item")
	fmt.Println("  tag <uri> <dir>            Tag local copies of an item's files in dir")
	fmt.Println("  tags <file>                Show the tags of a local file")
	fmt.Println("  refresh                    Clear the item cache")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -v, --verbose              Show detailed output")
	fmt.Println("  -e, --exact                Match search terms exactly")
	fmt.Println("  -u, --uri <uri>            Limit search to a collection (repeatable)")
	fmt.Println("  -o, --output <dir>         Download directory (default: ~/Music/iarchive)")
	fmt.Println("  -p, --parallel <n>         Number of parallel downloads (1-10, default: 4)")
	fmt.Println("  -c, --config <path>        Path to config file")
	fmt.Println("  -h, --help                 Show this help message")
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println("  --init-config              Create a default config file")
	fmt.Println()
	fmt.Println("Config file locations (checked in order):")
	fmt.Println("  ./iarchive.yaml")
	fmt.Println("  ~/.config/iarchive/config.yaml")
	fmt.Println("  ~/.iarchive.yaml")
	fmt.Println()
	fmt.Println("Search fields:")
	fmt.Println("  any, album, track_name, artist, albumartist, composer, performer, genre, comment, date, uri\n  (track_no is not supported by the archive search)")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  # Search the default collections")
	fmt.Println("  iarchive search artist=\"Grateful Dead\" date=1977-05-08")
	fmt.Println()
	fmt.Println("  # Search a single collection")
	fmt.Println("  iarchive search -u internetarchive:etree album=\"Barton Hall\"")
	fmt.Println()
	fmt.Println("  # Browse a collection")
	fmt.Println("  iarchive browse internetarchive:etree")
	fmt.Println()
	fmt.Println("  # Download an item with 8 parallel jobs")
	fmt.Println("  iarchive -p 8 download internetarchive:gd1977-05-08.sbd.miller.89174.flac16")
}
