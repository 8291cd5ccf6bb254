package lsp_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/querypad-io/querypad/lsp"
	"github.com/querypad-io/querypad/metadata"
	"github.com/querypad-io/querypad/suggest"
)

// mockClient implements protocol.Client for testing.
type mockClient struct {
	diagnostics []protocol.PublishDiagnosticsParams
}

func (m *mockClient) PublishDiagnostics(_ context.Context, params *protocol.PublishDiagnosticsParams) error {
	m.diagnostics = append(m.diagnostics, *params)

	return nil
}

// Stub out remaining Client interface methods.
func (m *mockClient) Progress(context.Context, *protocol.ProgressParams) error { return nil }
func (m *mockClient) WorkDoneProgressCreate(context.Context, *protocol.WorkDoneProgressCreateParams) error {
	return nil
}
func (m *mockClient) ShowMessage(context.Context, *protocol.ShowMessageParams) error { return nil }
func (m *mockClient) ShowMessageRequest(
	context.Context, *protocol.ShowMessageRequestParams,
) (*protocol.MessageActionItem, error) {
	return nil, nil //nolint:nilnil // Mock stub returns nil for tests
}
func (m *mockClient) LogMessage(context.Context, *protocol.LogMessageParams) error { return nil }
func (m *mockClient) Telemetry(context.Context, any) error                         { return nil }
func (m *mockClient) RegisterCapability(context.Context, *protocol.RegistrationParams) error {
	return nil
}
func (m *mockClient) UnregisterCapability(context.Context, *protocol.UnregistrationParams) error {
	return nil
}
func (m *mockClient) ApplyEdit(context.Context, *protocol.ApplyWorkspaceEditParams) (bool, error) {
	return false, nil
}
func (m *mockClient) Configuration(context.Context, *protocol.ConfigurationParams) ([]any, error) {
	return nil, nil
}
func (m *mockClient) WorkspaceFolders(context.Context) ([]protocol.WorkspaceFolder, error) {
	return nil, nil
}

func testEngine() *suggest.Engine {
	registry := metadata.NewRegistry([]metadata.DataExtension{
		{Name: "Customers", CustomerKey: "cust-key"},
		{Name: "Orders", CustomerKey: "orders-key"},
	}, nil)

	fetcher := metadata.FetcherFunc(func(_ context.Context, key string) ([]metadata.Field, error) {
		switch key {
		case "cust-key":
			return []metadata.Field{
				{Name: "Id", IsPrimaryKey: true},
				{Name: "Email Address"},
			}, nil
		case "orders-key":
			return []metadata.Field{{Name: "OrderId", IsPrimaryKey: true}}, nil
		default:
			return nil, nil
		}
	})

	return suggest.NewEngine(zap.NewNop(), registry, fetcher)
}

func newTestServer(t *testing.T) (*lsp.Server, *mockClient) {
	t.Helper()

	client := &mockClient{}
	server := lsp.NewServer(client, zap.NewNop(), testEngine(), 5*time.Millisecond)

	return server, client
}

func openDocument(t *testing.T, server *lsp.Server, uri protocol.DocumentURI, text string) {
	t.Helper()

	ctx := context.Background()

	_, _ = server.Initialize(ctx, &protocol.InitializeParams{})
	_ = server.Initialized(ctx, &protocol.InitializedParams{})

	err := server.DidOpen(ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:     uri,
			Version: 1,
			Text:    text,
		},
	})
	if err != nil {
		t.Fatalf("DidOpen() error: %v", err)
	}
}

func TestServer_Initialize(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)

	result, err := server.Initialize(context.Background(), &protocol.InitializeParams{})
	if err != nil {
		t.Fatalf("Initialize() error: %v", err)
	}

	if result.Capabilities.TextDocumentSync == nil {
		t.Error("TextDocumentSync capability not set")
	}

	if result.Capabilities.CompletionProvider == nil {
		t.Fatal("CompletionProvider capability not set")
	}

	found := false

	for _, trigger := range result.Capabilities.CompletionProvider.TriggerCharacters {
		if trigger == "." {
			found = true
		}
	}

	if !found {
		t.Error("dot should be a completion trigger character")
	}

	highlight, ok := result.Capabilities.DocumentHighlightProvider.(bool)
	if !ok || !highlight {
		t.Error("DocumentHighlightProvider not enabled")
	}

	if result.ServerInfo == nil || result.ServerInfo.Name != "querypad-lsp" {
		t.Error("ServerInfo not set correctly")
	}
}

func TestServer_DidOpen_CleanQuery(t *testing.T) {
	t.Parallel()

	server, client := newTestServer(t)

	openDocument(t, server, "file:///query.sql", "SELECT Id FROM Customers")

	if len(client.diagnostics) == 0 {
		t.Fatal("Expected diagnostics to be published")
	}

	diag := client.diagnostics[0]
	if len(diag.Diagnostics) != 0 {
		t.Errorf("Expected 0 diagnostics for clean query, got %d: %v",
			len(diag.Diagnostics), diag.Diagnostics)
	}
}

func TestServer_DidOpen_MissingFrom(t *testing.T) {
	t.Parallel()

	server, client := newTestServer(t)

	openDocument(t, server, "file:///query.sql", "SELECT Id")

	if len(client.diagnostics) == 0 {
		t.Fatal("Expected diagnostics to be published")
	}

	diag := client.diagnostics[0]

	found := false

	for _, d := range diag.Diagnostics {
		if d.Code == "missing-from" {
			found = true

			if d.Severity != protocol.DiagnosticSeverityWarning {
				t.Errorf("missing-from severity = %v, want warning", d.Severity)
			}

			if d.Source != "querypad" {
				t.Errorf("Source = %q, want querypad", d.Source)
			}
		}
	}

	if !found {
		t.Errorf("Expected missing-from diagnostic, got: %v", diag.Diagnostics)
	}
}

func TestServer_DidOpen_UnbalancedParens(t *testing.T) {
	t.Parallel()

	server, client := newTestServer(t)

	openDocument(t, server, "file:///query.sql", "SELECT * FROM (SELECT Id FROM T")

	diag := client.diagnostics[len(client.diagnostics)-1]

	found := false

	for _, d := range diag.Diagnostics {
		if d.Code == "unbalanced-parens" {
			found = true

			if d.Severity != protocol.DiagnosticSeverityError {
				t.Errorf("unbalanced-parens severity = %v, want error", d.Severity)
			}
		}
	}

	if !found {
		t.Errorf("Expected unbalanced-parens diagnostic, got: %v", diag.Diagnostics)
	}
}

func TestServer_DidChange(t *testing.T) {
	t.Parallel()

	server, client := newTestServer(t)
	ctx := context.Background()

	openDocument(t, server, "file:///query.sql", "SELECT Id FROM Customers")

	initialDiagCount := len(client.diagnostics)

	err := server.DidChange(ctx, &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{
				URI: "file:///query.sql",
			},
			Version: 2,
		},
		ContentChanges: []protocol.TextDocumentContentChangeEvent{
			{Text: "SELECT Id"},
		},
	})
	if err != nil {
		t.Fatalf("DidChange() error: %v", err)
	}

	if len(client.diagnostics) <= initialDiagCount {
		t.Fatal("Expected new diagnostics after change")
	}

	latestDiag := client.diagnostics[len(client.diagnostics)-1]
	if len(latestDiag.Diagnostics) == 0 {
		t.Error("Expected missing-from finding after change")
	}
}

func TestServer_DidClose(t *testing.T) {
	t.Parallel()

	server, client := newTestServer(t)
	ctx := context.Background()

	openDocument(t, server, "file:///query.sql", "SELECT Id")

	diagCountAfterOpen := len(client.diagnostics)

	err := server.DidClose(ctx, &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{
			URI: "file:///query.sql",
		},
	})
	if err != nil {
		t.Fatalf("DidClose() error: %v", err)
	}

	if len(client.diagnostics) <= diagCountAfterOpen {
		t.Fatal("Expected diagnostics to be cleared on close")
	}

	latestDiag := client.diagnostics[len(client.diagnostics)-1]
	if len(latestDiag.Diagnostics) != 0 {
		t.Error("Expected empty diagnostics after close")
	}
}

func TestServer_Completion_AliasDot(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)
	ctx := context.Background()

	text := "SELECT c. FROM Customers c"

	openDocument(t, server, "file:///query.sql", text)

	result, err := server.Completion(ctx, &protocol.CompletionParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: "file:///query.sql"},
			Position:     protocol.Position{Line: 0, Character: 9},
		},
	})
	if err != nil {
		t.Fatalf("Completion() error: %v", err)
	}

	if result == nil || len(result.Items) == 0 {
		t.Fatal("Expected completion items after alias dot")
	}

	for _, item := range result.Items {
		if item.Kind != protocol.CompletionItemKindField {
			t.Errorf("item %q kind = %v, want field", item.Label, item.Kind)
		}

		if item.TextEdit == nil {
			t.Errorf("item %q has no text edit", item.Label)

			continue
		}

		// The edit replaces the alias-dot chain starting at "c".
		if item.TextEdit.Range.Start.Character != 7 {
			t.Errorf("edit start = %d, want 7", item.TextEdit.Range.Start.Character)
		}
	}
}

func TestServer_Completion_SupersededRequestDropped(t *testing.T) {
	t.Parallel()

	registry := metadata.NewRegistry([]metadata.DataExtension{
		{Name: "Customers", CustomerKey: "cust-key"},
	}, nil)

	// The first fetch blocks until released; later fetches return
	// immediately, so the second completion finishes first.
	var calls atomic.Int32

	started := make(chan struct{})
	release := make(chan struct{})

	fetcher := metadata.FetcherFunc(func(_ context.Context, _ string) ([]metadata.Field, error) {
		if calls.Add(1) == 1 {
			close(started)
			<-release
		}

		return []metadata.Field{{Name: "Id"}}, nil
	})

	client := &mockClient{}
	server := lsp.NewServer(client, zap.NewNop(),
		suggest.NewEngine(zap.NewNop(), registry, fetcher), 5*time.Millisecond)

	text := "SELECT c. FROM Customers c"

	openDocument(t, server, "file:///query.sql", text)

	params := &protocol.CompletionParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: "file:///query.sql"},
			Position:     protocol.Position{Line: 0, Character: 9},
		},
	}

	stale := make(chan *protocol.CompletionList, 1)

	go func() {
		result, _ := server.Completion(context.Background(), params)
		stale <- result
	}()

	<-started

	// A newer request arrives while the first is still fetching.
	fresh, err := server.Completion(context.Background(), params)
	if err != nil {
		t.Fatalf("Completion() error: %v", err)
	}

	if fresh == nil || len(fresh.Items) == 0 {
		t.Fatal("Expected items from the current-generation request")
	}

	close(release)

	if result := <-stale; result != nil {
		t.Errorf("Superseded completion returned %d items, want none", len(result.Items))
	}
}

func TestServer_Completion_UnknownDocument(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)

	result, err := server.Completion(context.Background(), &protocol.CompletionParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: "file:///nope.sql"},
		},
	})
	if err != nil {
		t.Fatalf("Completion() error: %v", err)
	}

	if result != nil {
		t.Error("Expected nil result for unknown document")
	}
}

func TestServer_DocumentHighlight_AfterDebounce(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)
	ctx := context.Background()

	openDocument(t, server, "file:///query.sql", "SELECT Id, Name FROM Customers")

	// Decorations appear only after the settle period.
	time.Sleep(50 * time.Millisecond)

	highlights, err := server.DocumentHighlight(ctx, &protocol.DocumentHighlightParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: "file:///query.sql"},
		},
	})
	if err != nil {
		t.Fatalf("DocumentHighlight() error: %v", err)
	}

	// One table reference plus two select-list fields.
	if len(highlights) != 3 {
		t.Fatalf("got %d highlights, want 3: %v", len(highlights), highlights)
	}

	var reads, writes int

	for _, h := range highlights {
		switch h.Kind {
		case protocol.DocumentHighlightKindRead:
			reads++
		case protocol.DocumentHighlightKindWrite:
			writes++
		}
	}

	if writes != 1 || reads != 2 {
		t.Errorf("got %d writes and %d reads, want 1 and 2", writes, reads)
	}
}

func TestServer_Request_InlineSuggestion(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)

	openDocument(t, server, "file:///query.sql", "SELECT * FROM Customers ")

	result, err := server.Request(context.Background(), lsp.MethodInlineSuggestion, map[string]any{
		"textDocument": map[string]any{"uri": "file:///query.sql"},
		"position":     map[string]any{"line": 0, "character": 24},
	})
	if err != nil {
		t.Fatalf("Request() error: %v", err)
	}

	if result == nil {
		t.Fatal("Expected an alias proposal ghost")
	}
}

func TestServer_Request_ExpandAsterisk(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)

	openDocument(t, server, "file:///query.sql", "SELECT * FROM Customers")

	result, err := server.Request(context.Background(), lsp.MethodExpandAsterisk, map[string]any{
		"textDocument": map[string]any{"uri": "file:///query.sql"},
		"position":     map[string]any{"line": 0, "character": 8},
	})
	if err != nil {
		t.Fatalf("Request() error: %v", err)
	}

	if result == nil {
		t.Fatal("Expected an expansion result")
	}
}

func TestServer_Request_UnknownMethod(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)

	result, err := server.Request(context.Background(), "querypad/unknown", nil)
	if err != nil {
		t.Fatalf("Request() error: %v", err)
	}

	if result != nil {
		t.Error("Unknown methods should return nothing")
	}
}
