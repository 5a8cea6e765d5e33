package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/luricodes/samuraizer/internal/cache"
	"github.com/luricodes/samuraizer/internal/hashing"
)

func cacheCommand() *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect and update the fingerprint cache",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "db",
				Usage:    "Cache database path",
				Required: true,
			},
		},
		Subcommands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "Print the cached entry for a file path",
				ArgsUsage: "PATH",
				Action: func(c *cli.Context) error {
					if c.Args().Len() != 1 {
						return fmt.Errorf("expected exactly one path")
					}
					entry, err := cache.GetEntry(c.String("db"), c.Args().First())
					if err != nil {
						return err
					}
					if entry == nil {
						return fmt.Errorf("no cache entry for %s", c.Args().First())
					}
					encoder := json.NewEncoder(os.Stdout)
					encoder.SetIndent("", "  ")
					return encoder.Encode(entry)
				},
			},
			{
				Name:      "set",
				Usage:     "Fingerprint a file and store it in the cache",
				ArgsUsage: "PATH",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "sync",
						Usage: "Fsync the write before returning",
					},
				},
				Action: func(c *cli.Context) error {
					if c.Args().Len() != 1 {
						return fmt.Errorf("expected exactly one path")
					}
					path := c.Args().First()

					info, err := os.Stat(path)
					if err != nil {
						return err
					}
					digest, err := hashing.ComputeFileHash(path)
					if err != nil {
						return err
					}

					mtime := float64(info.ModTime().UnixNano()) / 1e9
					fileInfo := map[string]any{"type": "fingerprint"}
					return cache.SetEntry(c.String("db"), path, digest, fileInfo,
						info.Size(), mtime, c.Bool("sync"))
				},
			},
		},
	}
}
