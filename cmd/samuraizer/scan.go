package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	"github.com/luricodes/samuraizer/internal/cache"
	"github.com/luricodes/samuraizer/internal/config"
	"github.com/luricodes/samuraizer/internal/logging"
	"github.com/luricodes/samuraizer/internal/traversal"
)

func scanCommand() *cli.Command {
	return &cli.Command{
		Name:  "scan",
		Usage: "Walk a directory tree and stream file records as NDJSON",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "max-file-size",
				Usage: "Byte ceiling per file, accepts units (e.g. 10MB)",
			},
			&cli.BoolFlag{
				Name:  "no-binary",
				Usage: "Exclude binary and image files from the output",
			},
			&cli.StringSliceFlag{
				Name:  "exclude-folder",
				Usage: "Skip directories with this basename",
			},
			&cli.StringSliceFlag{
				Name:  "exclude-file",
				Usage: "Skip files with this basename",
			},
			&cli.StringSliceFlag{
				Name:    "exclude",
				Aliases: []string{"e"},
				Usage:   "Skip basenames matching a glob, or a regex with the 'regex:' prefix",
			},
			&cli.BoolFlag{
				Name:  "follow-symlinks",
				Usage: "Follow symbolic links while walking",
			},
			&cli.IntFlag{
				Name:    "threads",
				Aliases: []string{"t"},
				Usage:   "Worker count (default: CPU count)",
			},
			&cli.StringFlag{
				Name:  "encoding",
				Usage: "Force a character encoding for text previews",
			},
			&cli.BoolFlag{
				Name:  "no-hash",
				Usage: "Disable content hashing",
			},
			&cli.IntFlag{
				Name:  "chunk-size",
				Usage: "Records per emitted batch",
			},
			&cli.BoolFlag{
				Name:  "utc",
				Usage: "Render timestamps in UTC",
			},
			&cli.StringFlag{
				Name:  "timezone",
				Usage: "Render timestamps in a named IANA zone",
			},
			&cli.StringFlag{
				Name:  "cache",
				Usage: "Fingerprint cache database path",
			},
			&cli.BoolFlag{
				Name:  "sync-cache",
				Usage: "Fsync every cache write",
			},
		},
		Action: runScan,
	}
}

func runScan(c *cli.Context) error {
	cfg, logger, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}
	defer logger.Sync()

	applyScanFlags(c, cfg)

	root := c.String("root")
	if root == "" && c.Args().Len() > 0 {
		root = c.Args().First()
	}
	opts, err := cfg.TraversalOptions(root, logger.Named("traversal"))
	if err != nil {
		return err
	}

	// Ctrl-C flips the cancellation token; the pipeline drains cleanly
	// and still emits its summary.
	var interrupted atomic.Bool
	opts.Cancellation = traversal.TokenFunc(interrupted.Load)

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signalCh)
	go func() {
		if _, ok := <-signalCh; ok {
			logger.Warn("interrupt received, stopping scan")
			interrupted.Store(true)
		}
	}()

	stream, err := traversal.Traverse(context.Background(), opts)
	if err != nil {
		return err
	}
	defer stream.Close()

	cachePath := c.String("cache")
	if cachePath == "" {
		cachePath = cfg.Cache.Path
	}
	var store *cache.Store
	if cachePath != "" {
		store, err = cache.Open(cachePath)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	syncWrites := c.Bool("sync-cache") || cfg.Cache.Synchronous
	return consumeStream(stream, opts.Root, store, syncWrites, logger)
}

func applyScanFlags(c *cli.Context, cfg *config.Config) {
	if sizeFlag := c.String("max-file-size"); sizeFlag != "" {
		if size, err := humanize.ParseBytes(sizeFlag); err == nil {
			cfg.Scan.MaxFileSize = size
		}
	}
	if c.Bool("no-binary") {
		cfg.Scan.IncludeBinary = false
	}
	if folders := c.StringSlice("exclude-folder"); len(folders) > 0 {
		cfg.Scan.ExcludedFolders = append(cfg.Scan.ExcludedFolders, folders...)
	}
	if files := c.StringSlice("exclude-file"); len(files) > 0 {
		cfg.Scan.ExcludedFiles = append(cfg.Scan.ExcludedFiles, files...)
	}
	if patterns := c.StringSlice("exclude"); len(patterns) > 0 {
		cfg.Scan.ExcludePatterns = append(cfg.Scan.ExcludePatterns, patterns...)
	}
	if c.Bool("follow-symlinks") {
		cfg.Scan.FollowSymlinks = true
	}
	if threads := c.Int("threads"); threads > 0 {
		cfg.Scan.Threads = threads
	}
	if encoding := c.String("encoding"); encoding != "" {
		cfg.Scan.Encoding = encoding
	}
	if c.Bool("no-hash") {
		cfg.Scan.Hashing = false
	}
	if chunk := c.Int("chunk-size"); chunk > 0 {
		cfg.Scan.ChunkSize = chunk
	}
	if c.Bool("utc") {
		cfg.Scan.UseUTC = true
		cfg.Scan.Timezone = ""
	}
	if tz := c.String("timezone"); tz != "" {
		cfg.Scan.Timezone = tz
		cfg.Scan.UseUTC = false
	}
}

// consumeStream renders each record as one NDJSON line on stdout and the
// summary last. With a cache store attached, files whose (size, mtime)
// still match the stored entry are counted and left as stored, and the
// others are upserted. Every file is inspected either way; the cache is
// not consulted to skip inspection.
func consumeStream(stream *traversal.Stream, root string, store *cache.Store, syncWrites bool, logger *logging.Logger) error {
	encoder := json.NewEncoder(os.Stdout)
	cacheHits, cacheWrites := 0, 0

	for {
		msg, err := stream.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		if msg.Summary != nil {
			if store != nil {
				logger.Info("cache updated",
					logging.Int("unchanged", cacheHits),
					logging.Int("written", cacheWrites))
			}
			logger.Info("scan complete",
				logging.Int("total", msg.Summary.TotalFiles),
				logging.Int("processed", msg.Summary.ProcessedFiles),
				logging.Int("failed", len(msg.Summary.FailedFiles)),
				logging.Float64("excluded_pct", msg.Summary.ExcludedPercentage),
				logging.Bool("stopped_early", msg.Summary.StoppedEarly))
			if err := encoder.Encode(map[string]any{"summary": msg.Summary}); err != nil {
				return err
			}
			continue
		}

		for _, entry := range msg.Entries {
			if err := encoder.Encode(entry); err != nil {
				return err
			}
			if store != nil && entry.Stat != nil {
				hit, err := updateCache(store, root, entry, syncWrites)
				if err != nil {
					logger.Warn("cache write failed", logging.Error(err))
					continue
				}
				if hit {
					cacheHits++
				} else {
					cacheWrites++
				}
			}
		}
	}
	return nil
}

// updateCache upserts the entry's fingerprint unless the stored one still
// matches the file's (size, mtime).
func updateCache(store *cache.Store, root string, entry *traversal.Entry, syncWrites bool) (unchanged bool, err error) {
	absPath := filepath.Join(root, entry.Parent, entry.Filename)

	cached, err := store.Get(absPath)
	if err != nil {
		return false, err
	}
	if cached.Matches(int64(entry.Stat.Size), entry.Stat.Mtime) {
		return true, nil
	}

	var hash *string
	if digest, ok := entry.Hash.(string); ok {
		hash = &digest
	}
	err = store.Set(absPath, hash, entry.Info, int64(entry.Stat.Size), entry.Stat.Mtime, syncWrites)
	return false, err
}
