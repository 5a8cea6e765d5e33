package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/luricodes/samuraizer/internal/config"
	"github.com/luricodes/samuraizer/internal/logging"
	"github.com/luricodes/samuraizer/internal/version"
)

func main() {
	app := &cli.App{
		Name:                   "samuraizer",
		Usage:                  "High-throughput filesystem traversal and content inspection",
		Version:                version.Info(),
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Config file path",
				Value:   config.DefaultConfigName,
			},
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Base directory to scan (overrides config)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Diagnostic log level (debug, info, warn, error)",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Load environment variables from file before reading config",
			},
		},
		Commands: []*cli.Command{
			scanCommand(),
			hashCommand(),
			classifyCommand(),
			previewCommand(),
			cacheCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfigWithOverrides loads the scan profile and applies CLI flag
// overrides shared by all commands.
func loadConfigWithOverrides(c *cli.Context) (*config.Config, *logging.Logger, error) {
	if envFile := c.String("env-file"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, nil, fmt.Errorf("loading env file %s: %w", envFile, err)
		}
	}

	configPath := c.String("config")
	if rootFlag := c.String("root"); rootFlag != "" && configPath == config.DefaultConfigName {
		configPath = filepath.Join(rootFlag, config.DefaultConfigName)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	level := cfg.Log.Level
	if flagLevel := c.String("log-level"); flagLevel != "" {
		level = flagLevel
	}
	logger := logging.New(logging.LevelFromString(level))

	return cfg, logger, nil
}
