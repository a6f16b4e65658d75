// Package main is the meetkant CLI entry point.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/hyperjump/meetkant/internal/config"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/meetkant/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used.
// Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "meetkant: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	outputFlag := &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "output format: text, compact, or json",
		Value:   "text",
	}
	return &cli.App{
		Name:    "meetkant",
		Usage:   "Semantic passage retrieval over the Kant corpus",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "config file path",
				Value:   defaultConfigPath,
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug logging",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "dotenv file loaded before the config (missing file is ignored)",
				Value: ".env",
			},
		},
		Before: func(c *cli.Context) error {
			return config.LoadDotEnv(c.String("env-file"))
		},
		Commands: []*cli.Command{
			{
				Name:   "build",
				Usage:  "Embed the corpus and write the index snapshot",
				Action: buildCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "rebuild even when the snapshot matches the corpus",
					},
					outputFlag,
				},
			},
			{
				Name:      "query",
				Usage:     "Retrieve the passages most similar to a question",
				ArgsUsage: "<question...>",
				Action:    queryCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "top-k",
						Aliases: []string{"k"},
						Usage:   "number of passages (default from config)",
					},
					&cli.StringFlag{
						Name:  "lang",
						Usage: "only return passages in this language (e.g. en, de, zh)",
					},
					outputFlag,
				},
			},
			{
				Name:   "status",
				Usage:  "Show configuration, snapshot header and disk usage",
				Action: statusCommand,
				Flags:  []cli.Flag{outputFlag},
			},
			{
				Name:   "shell",
				Usage:  "Answer questions read from stdin, one per line",
				Action: shellCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "watch",
						Usage: "reload the index when corpus files change",
					},
					&cli.IntFlag{
						Name:    "top-k",
						Aliases: []string{"k"},
						Usage:   "number of passages (default from config)",
					},
					&cli.StringFlag{
						Name:  "lang",
						Usage: "initial language filter",
					},
				},
			},
			{
				Name:   "init",
				Usage:  "Write a config file with default values",
				Action: initCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "overwrite an existing config file",
					},
				},
			},
		},
	}
}
