// Package config loads scan profiles from TOML files and turns them into
// traversal options.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/luricodes/samuraizer/internal/logging"
	"github.com/luricodes/samuraizer/internal/traversal"
)

// DefaultConfigName is used when no config flag is given: it is looked up in
// the --root directory when that flag is set, otherwise in the working
// directory.
const DefaultConfigName = ".samuraizer.toml"

// Config is a full scan profile
type Config struct {
	Scan  ScanConfig  `toml:"scan"`
	Cache CacheConfig `toml:"cache"`
	Log   LogConfig   `toml:"log"`
}

// ScanConfig mirrors the traversal options in file form
type ScanConfig struct {
	Root            string   `toml:"root"`
	MaxFileSize     uint64   `toml:"max_file_size"`
	IncludeBinary   bool     `toml:"include_binary"`
	ImageExtensions []string `toml:"image_extensions"`
	ExcludedFolders []string `toml:"excluded_folders"`
	ExcludedFiles   []string `toml:"excluded_files"`
	ExcludePatterns []string `toml:"exclude_patterns"`
	FollowSymlinks  bool     `toml:"follow_symlinks"`
	Threads         int      `toml:"threads"`
	Encoding        string   `toml:"encoding"`
	Hashing         bool     `toml:"hashing"`
	ChunkSize       int      `toml:"chunk_size"`
	UseUTC          bool     `toml:"use_utc"`
	Timezone        string   `toml:"timezone"`
}

// CacheConfig controls the persistent fingerprint store
type CacheConfig struct {
	Path        string `toml:"path"`
	Synchronous bool   `toml:"synchronous"`
}

// LogConfig controls diagnostic output
type LogConfig struct {
	Level string `toml:"level"`
}

// Default returns the profile used when no config file exists
func Default() *Config {
	return &Config{
		Scan: ScanConfig{
			IncludeBinary: true,
			Hashing:       true,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads a profile from path. A missing file yields the defaults; a
// present but unparseable file is an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects profiles the engine cannot honor
func (c *Config) Validate() error {
	if c.Scan.Threads < 0 {
		return fmt.Errorf("scan.threads must not be negative, got %d", c.Scan.Threads)
	}
	if c.Scan.ChunkSize < 0 {
		return fmt.Errorf("scan.chunk_size must not be negative, got %d", c.Scan.ChunkSize)
	}
	if c.Scan.UseUTC && c.Scan.Timezone != "" {
		return fmt.Errorf("scan.use_utc and scan.timezone are mutually exclusive")
	}
	return nil
}

// TraversalOptions converts the profile into engine options rooted at root
// (the profile's own root when empty).
func (c *Config) TraversalOptions(root string, logger *logging.Logger) (traversal.Options, error) {
	if root == "" {
		root = c.Scan.Root
	}
	if root == "" {
		return traversal.Options{}, fmt.Errorf("no scan root configured")
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return traversal.Options{}, fmt.Errorf("resolving scan root %q: %w", root, err)
	}

	opts := traversal.NewOptions(absRoot)
	if c.Scan.MaxFileSize > 0 {
		opts.MaxFileSize = c.Scan.MaxFileSize
	}
	opts.IncludeBinary = c.Scan.IncludeBinary
	opts.ImageExtensions = c.Scan.ImageExtensions
	opts.ExcludedFolders = c.Scan.ExcludedFolders
	opts.ExcludedFiles = c.Scan.ExcludedFiles
	opts.ExcludePatterns = traversal.CompilePatterns(c.Scan.ExcludePatterns)
	opts.FollowSymlinks = c.Scan.FollowSymlinks
	if c.Scan.Threads > 0 {
		opts.Threads = c.Scan.Threads
	}
	opts.Encoding = c.Scan.Encoding
	opts.HashingEnabled = c.Scan.Hashing
	if c.Scan.ChunkSize > 0 {
		opts.ChunkSize = c.Scan.ChunkSize
	}
	opts.Logger = logger

	switch {
	case c.Scan.UseUTC:
		opts.Timezone = traversal.UTCTimezone()
	case c.Scan.Timezone != "":
		tz, err := traversal.NamedTimezone(c.Scan.Timezone)
		if err != nil {
			return traversal.Options{}, fmt.Errorf("unknown timezone %q: %w", c.Scan.Timezone, err)
		}
		opts.Timezone = tz
	default:
		opts.Timezone = traversal.LocalTimezone()
	}

	return opts, nil
}
