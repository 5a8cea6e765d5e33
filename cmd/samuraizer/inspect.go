package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	"github.com/luricodes/samuraizer/internal/content"
	"github.com/luricodes/samuraizer/internal/hashing"
	"github.com/luricodes/samuraizer/internal/mimeclass"
)

func hashCommand() *cli.Command {
	return &cli.Command{
		Name:      "hash",
		Usage:     "Print the content hash of each file",
		ArgsUsage: "PATH...",
		Action: func(c *cli.Context) error {
			if c.Args().Len() == 0 {
				return fmt.Errorf("no paths given")
			}
			for _, path := range c.Args().Slice() {
				digest, err := hashing.ComputeFileHash(path)
				if err != nil {
					return err
				}
				if digest == nil {
					fmt.Printf("%-16s  %s\n", "-", path)
					continue
				}
				fmt.Printf("%s  %s\n", *digest, path)
			}
			return nil
		},
	}
}

func classifyCommand() *cli.Command {
	return &cli.Command{
		Name:      "classify",
		Usage:     "Report whether each file is text or binary",
		ArgsUsage: "PATH...",
		Action: func(c *cli.Context) error {
			if c.Args().Len() == 0 {
				return fmt.Errorf("no paths given")
			}
			for _, path := range c.Args().Slice() {
				binary, err := mimeclass.IsBinary(path)
				if err != nil {
					return err
				}
				kind := "text"
				if binary {
					kind = "binary"
				}
				fmt.Printf("%-6s  %s\n", kind, path)
			}
			return nil
		},
	}
}

func previewCommand() *cli.Command {
	return &cli.Command{
		Name:      "preview",
		Usage:     "Print a bounded preview record for a file",
		ArgsUsage: "PATH",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "binary",
				Usage: "Force a base64 binary preview",
			},
			&cli.StringFlag{
				Name:  "max-bytes",
				Usage: "Preview byte cap, accepts units (e.g. 1MB)",
				Value: "5MB",
			},
			&cli.StringFlag{
				Name:  "encoding",
				Usage: "Force a character encoding for text previews",
			},
		},
		Action: func(c *cli.Context) error {
			if c.Args().Len() != 1 {
				return fmt.Errorf("expected exactly one path")
			}
			path := c.Args().First()

			maxBytes, err := humanize.ParseBytes(c.String("max-bytes"))
			if err != nil {
				return fmt.Errorf("invalid max-bytes: %w", err)
			}

			var info content.Info
			if c.Bool("binary") {
				info, err = content.ReadBinaryPreview(path, int(maxBytes))
			} else {
				info, err = content.ReadTextPreview(path, int(maxBytes), c.String("encoding"))
			}
			if err != nil {
				return err
			}

			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(info)
		},
	}
}
