// Command querypad-lsp is a Language Server Protocol server for the
// querypad SQL editor.
package main

import (
	"context"
	"io"
	"os"

	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/querypad-io/querypad"
	"github.com/querypad-io/querypad/lsp"
	"github.com/querypad-io/querypad/metadata"
	"github.com/querypad-io/querypad/suggest"
)

func main() {
	// Set up logging to stderr (stdout is for LSP communication)
	config := zap.NewDevelopmentConfig()
	config.OutputPaths = []string{"stderr"}
	config.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)

	// For debugging, you can lower the level:
	// config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)

	logger, err := config.Build()
	if err != nil {
		panic(err)
	}

	defer func() {
		_ = logger.Sync()
	}()

	logger.Info("Starting querypad-lsp server")

	ctx := context.Background()

	err = run(ctx, logger, os.Stdin, os.Stdout)
	if err != nil {
		logger.Fatal("Server error", zap.Error(err))
	}
}

func run(ctx context.Context, logger *zap.Logger, in io.Reader, out io.Writer) error {
	cfg := loadConfig(logger)

	engine := buildEngine(ctx, cfg, logger)

	// Create a JSON-RPC stream connection over stdio
	stream := jsonrpc2.NewStream(&readWriteCloser{in, out})
	conn := jsonrpc2.NewConn(stream)

	// Create a client to send notifications to the editor
	client := protocol.ClientDispatcher(conn, logger)

	server := lsp.NewServer(client, logger, engine, cfg.Debounce())

	// Register the server handler with the connection
	conn.Go(ctx, protocol.ServerHandler(server, nil))

	// Wait for the connection to close
	<-conn.Done()

	return conn.Err()
}

// loadConfig finds the nearest config file; missing config is fine and
// falls back to defaults.
func loadConfig(logger *zap.Logger) *querypad.Config {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}

	cfg, err := querypad.LoadConfig(cwd)
	if err != nil {
		logger.Info("No config file found, using defaults")

		return &querypad.Config{}
	}

	return cfg
}

// buildEngine wires the metadata service into a suggestion engine. A
// missing or unreachable service degrades to keyword-only suggestions.
func buildEngine(ctx context.Context, cfg *querypad.Config, logger *zap.Logger) *suggest.Engine {
	var (
		registry *metadata.Registry
		fetcher  metadata.FieldFetcher
	)

	if cfg.Metadata.Endpoint != "" {
		client := metadata.NewClient(cfg.Metadata.Endpoint, cfg.MetadataTimeout(), logger)

		extensions, shared, err := client.FetchCatalog(ctx)
		if err != nil {
			logger.Warn("Could not load data extension catalog", zap.Error(err))
		}

		registry = metadata.NewRegistry(extensions, shared)
		fetcher = metadata.NewCachingFetcher(client)
	} else {
		logger.Info("No metadata endpoint configured, table and field suggestions disabled")

		registry = metadata.NewRegistry(nil, nil)
	}

	engine := suggest.NewEngine(logger, registry, fetcher)
	engine.MaxSuggestions = cfg.MaxSuggestions()

	return engine
}

// readWriteCloser wraps separate reader/writer into io.ReadWriteCloser.
type readWriteCloser struct {
	io.Reader
	io.Writer
}

func (rwc *readWriteCloser) Close() error {
	// Close writer if it's closeable
	if c, ok := rwc.Writer.(io.Closer); ok {
		return c.Close()
	}

	return nil
}
