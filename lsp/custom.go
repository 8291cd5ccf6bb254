package lsp

import (
	"context"
	"encoding/json"
	"fmt"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"
)

// Custom request methods outside the standard LSP surface. The editor
// frontend uses these for ghost text and asterisk expansion.
const (
	MethodInlineSuggestion = "querypad/inlineSuggestion"
	MethodExpandAsterisk   = "querypad/expandAsterisk"
)

// inlineParams is the payload for querypad/inlineSuggestion.
type inlineParams struct {
	TextDocument protocol.TextDocumentIdentifier `json:"textDocument"`
	Position     protocol.Position               `json:"position"`
}

// inlineResult is the ghost text proposed at the cursor.
type inlineResult struct {
	Text         string   `json:"text"`
	Priority     int      `json:"priority"`
	Alternatives []string `json:"alternatives,omitempty"`
}

// expandParams is the payload for querypad/expandAsterisk.
type expandParams struct {
	TextDocument protocol.TextDocumentIdentifier `json:"textDocument"`
	Position     protocol.Position               `json:"position"`
}

// expandResult carries either the replacement edit or the reason the
// asterisk cannot be expanded.
type expandResult struct {
	Columns []string        `json:"columns,omitempty"`
	Range   *protocol.Range `json:"range,omitempty"`
	Issue   string          `json:"issue,omitempty"`
}

// Request handles custom requests.
func (s *Server) Request(ctx context.Context, method string, params any) (any, error) {
	switch method {
	case MethodInlineSuggestion:
		var p inlineParams
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}

		return s.inlineSuggestion(ctx, p)
	case MethodExpandAsterisk:
		var p expandParams
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}

		return s.expandAsterisk(ctx, p)
	default:
		s.logger.Debug("Unhandled custom request", zap.String("method", method))

		return nil, nil //nolint:nilnil // unknown methods are ignored
	}
}

func (s *Server) inlineSuggestion(ctx context.Context, p inlineParams) (*inlineResult, error) {
	doc, ok := s.getDocument(p.TextDocument.URI)
	if !ok {
		return nil, nil //nolint:nilnil // unknown document has no suggestion
	}

	s.mu.RLock()
	text := doc.Content
	s.mu.RUnlock()

	got := s.engine.Inline(ctx, text, PositionToOffset(text, p.Position))
	if got == nil {
		return nil, nil //nolint:nilnil // nothing to propose here
	}

	return &inlineResult{
		Text:         got.Text,
		Priority:     got.Priority,
		Alternatives: got.Alternatives,
	}, nil
}

func (s *Server) expandAsterisk(ctx context.Context, p expandParams) (*expandResult, error) {
	doc, ok := s.getDocument(p.TextDocument.URI)
	if !ok {
		return nil, nil //nolint:nilnil // unknown document has no asterisk
	}

	s.mu.RLock()
	text := doc.Content
	s.mu.RUnlock()

	exp, star, ok := s.engine.ExpandStar(ctx, text, PositionToOffset(text, p.Position))
	if !ok {
		return nil, nil //nolint:nilnil // no asterisk near the cursor
	}

	if exp.Issue != nil {
		return &expandResult{Issue: exp.Issue.Message}, nil
	}

	r := offsetRange(text, star.Start, star.End)

	return &expandResult{Columns: exp.Columns, Range: &r}, nil
}

// decodeParams re-marshals the loosely typed request payload into the
// expected parameter struct.
func decodeParams(params, out any) error {
	raw, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("encoding request params: %w", err)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding request params: %w", err)
	}

	return nil
}
