// Package lsp implements a Language Server Protocol server for the
// querypad SQL editor: completion, publish diagnostics, and debounced
// table and field decorations over plain SQL documents.
package lsp

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/querypad-io/querypad"
	"github.com/querypad-io/querypad/analysis"
	"github.com/querypad-io/querypad/suggest"
)

// Server implements the LSP server for SQL query documents.
type Server struct {
	client protocol.Client
	logger *zap.Logger

	// Document state
	mu        sync.RWMutex
	documents map[protocol.DocumentURI]*Document

	analyzer *analysis.Analyzer
	engine   *suggest.Engine

	// debounce is the settle period before decorations recompute.
	debounce time.Duration

	// Server state
	initialized bool
	shutdown    bool
}

// Document represents an open document in the server.
type Document struct {
	URI     protocol.DocumentURI
	Version int32
	Content string

	// Analysis is the structural view, recomputed on every change.
	Analysis *analysis.AnalyzedQuery

	// generation orders completion requests. A request whose
	// generation is no longer current when its results arrive has
	// been superseded and returns nothing.
	generation atomic.Int64

	// Decoration snapshot, recomputed when the debounce timer fires.
	decorations []protocol.DocumentHighlight
	decoVersion int
	decoTimer   *time.Timer
}

// NewServer creates a new LSP server. The engine carries the metadata
// registry and field fetcher. debounce <= 0 uses the default settle
// period.
func NewServer(client protocol.Client, logger *zap.Logger, engine *suggest.Engine, debounce time.Duration) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	if debounce <= 0 {
		debounce = querypad.DefaultDebounce
	}

	return &Server{
		client:    client,
		logger:    logger,
		documents: make(map[protocol.DocumentURI]*Document),
		analyzer:  analysis.NewAnalyzer(),
		engine:    engine,
		debounce:  debounce,
	}
}

// Initialize handles the initialize request.
func (s *Server) Initialize(_ context.Context, _ *protocol.InitializeParams) (*protocol.InitializeResult, error) {
	s.logger.Info("Initialize")

	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			// Full document sync - the client sends the entire
			// content on every change.
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: true,
				Change:    protocol.TextDocumentSyncKindFull,
			},
			CompletionProvider: &protocol.CompletionOptions{
				TriggerCharacters: []string{".", "["},
				ResolveProvider:   false,
			},
			DocumentHighlightProvider: true,
		},
		ServerInfo: &protocol.ServerInfo{
			Name:    "querypad-lsp",
			Version: "0.1.0",
		},
	}, nil
}

// Initialized handles the initialized notification.
func (s *Server) Initialized(_ context.Context, _ *protocol.InitializedParams) error {
	s.logger.Info("Initialized")
	s.initialized = true

	return nil
}

// Shutdown handles the shutdown request.
func (s *Server) Shutdown(_ context.Context) error {
	s.logger.Info("Shutdown")
	s.shutdown = true

	return nil
}

// Exit handles the exit notification.
func (s *Server) Exit(_ context.Context) error {
	s.logger.Info("Exit")

	return nil
}

// DidOpen handles textDocument/didOpen notifications.
func (s *Server) DidOpen(ctx context.Context, params *protocol.DidOpenTextDocumentParams) error {
	s.logger.Info("DidOpen", zap.String("uri", string(params.TextDocument.URI)))

	doc := &Document{
		URI:      params.TextDocument.URI,
		Version:  params.TextDocument.Version,
		Content:  params.TextDocument.Text,
		Analysis: s.analyzer.Analyze(params.TextDocument.Text),
	}

	s.mu.Lock()
	s.documents[params.TextDocument.URI] = doc
	s.mu.Unlock()

	s.publishDiagnostics(ctx, doc.URI, doc.Content, doc.Analysis)
	s.scheduleDecorations(doc.URI)

	return nil
}

// DidChange handles textDocument/didChange notifications.
func (s *Server) DidChange(ctx context.Context, params *protocol.DidChangeTextDocumentParams) error {
	s.logger.Debug("DidChange",
		zap.String("uri", string(params.TextDocument.URI)),
		zap.Int32("version", params.TextDocument.Version))

	if len(params.ContentChanges) == 0 {
		return nil
	}

	// Full sync - the last change carries the whole document.
	content := params.ContentChanges[len(params.ContentChanges)-1].Text
	analyzed := s.analyzer.Analyze(content)

	s.mu.Lock()

	doc, ok := s.documents[params.TextDocument.URI]
	if !ok {
		s.mu.Unlock()
		s.logger.Warn("DidChange for unknown document",
			zap.String("uri", string(params.TextDocument.URI)))

		return nil
	}

	doc.Content = content
	doc.Version = params.TextDocument.Version
	doc.Analysis = analyzed
	s.mu.Unlock()

	s.publishDiagnostics(ctx, doc.URI, content, analyzed)
	s.scheduleDecorations(doc.URI)

	return nil
}

// DidClose handles textDocument/didClose notifications.
func (s *Server) DidClose(ctx context.Context, params *protocol.DidCloseTextDocumentParams) error {
	s.logger.Info("DidClose", zap.String("uri", string(params.TextDocument.URI)))

	s.mu.Lock()

	if doc, ok := s.documents[params.TextDocument.URI]; ok && doc.decoTimer != nil {
		doc.decoTimer.Stop()
	}

	delete(s.documents, params.TextDocument.URI)
	s.mu.Unlock()

	err := s.client.PublishDiagnostics(ctx, &protocol.PublishDiagnosticsParams{
		URI:         params.TextDocument.URI,
		Diagnostics: []protocol.Diagnostic{},
	})
	if err != nil {
		s.logger.Error("Failed to clear diagnostics", zap.Error(err))
	}

	return nil
}

// DidSave handles textDocument/didSave notifications.
func (s *Server) DidSave(_ context.Context, params *protocol.DidSaveTextDocumentParams) error {
	s.logger.Debug("DidSave", zap.String("uri", string(params.TextDocument.URI)))

	return nil
}

// getDocument returns the open document for uri.
func (s *Server) getDocument(uri protocol.DocumentURI) (*Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.documents[uri]

	return doc, ok
}
