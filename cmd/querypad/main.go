// Package main provides the querypad CLI tool.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/querypad-io/querypad"
	"github.com/querypad-io/querypad/metadata"
	"github.com/querypad-io/querypad/suggest"
)

var version = "dev"

func main() {
	app := &cli.Command{
		Name:    "querypad",
		Version: version,
		Usage:   "SQL query analysis and completion for marketing data extensions",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "endpoint",
				Usage:   "metadata service base URL (overrides config)",
				Sources: cli.EnvVars("QUERYPAD_ENDPOINT"),
			},
		},
		Commands: []*cli.Command{
			analyzeCommand(),
			completeCommand(),
			editCommand(),
		},
	}

	err := app.Run(context.Background(), os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the nearest config file; a missing file yields
// defaults.
func loadConfig() *querypad.Config {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}

	cfg, err := querypad.LoadConfig(cwd)
	if err != nil {
		return &querypad.Config{}
	}

	return cfg
}

// buildEngine wires the metadata service behind the suggestion engine.
// Without an endpoint only keyword suggestions work.
func buildEngine(ctx context.Context, cmd *cli.Command) *suggest.Engine {
	cfg := loadConfig()

	endpoint := cmd.String("endpoint")
	if endpoint == "" {
		endpoint = cfg.Metadata.Endpoint
	}

	var (
		registry = metadata.NewRegistry(nil, nil)
		fetcher  metadata.FieldFetcher
	)

	if endpoint != "" {
		client := metadata.NewClient(endpoint, cfg.MetadataTimeout(), zap.NewNop())

		extensions, shared, err := client.FetchCatalog(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not load catalog: %v\n", err)
		}

		registry = metadata.NewRegistry(extensions, shared)
		fetcher = metadata.NewCachingFetcher(client)
	}

	engine := suggest.NewEngine(zap.NewNop(), registry, fetcher)
	engine.MaxSuggestions = cfg.MaxSuggestions()

	return engine
}

func readQuery(path string) (string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: file path from user input is expected
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}

	return string(data), nil
}
