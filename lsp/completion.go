package lsp

import (
	"context"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/querypad-io/querypad/suggest"
)

// Completion handles textDocument/completion requests. Each request
// bumps the document generation; if another request arrives while
// this one is still computing (typically waiting on a field fetch),
// the stale result is dropped rather than shown.
func (s *Server) Completion(ctx context.Context, params *protocol.CompletionParams) (*protocol.CompletionList, error) {
	doc, ok := s.getDocument(params.TextDocument.URI)
	if !ok {
		s.logger.Warn("Completion for unknown document",
			zap.String("uri", string(params.TextDocument.URI)))

		return nil, nil
	}

	gen := doc.generation.Add(1)

	s.mu.RLock()
	text := doc.Content
	s.mu.RUnlock()

	offset := PositionToOffset(text, params.Position)

	items := s.engine.Complete(ctx, text, offset)

	if doc.generation.Load() != gen {
		s.logger.Debug("Completion superseded",
			zap.String("uri", string(params.TextDocument.URI)))

		return nil, nil
	}

	result := make([]protocol.CompletionItem, 0, len(items))
	for _, item := range items {
		result = append(result, convertCompletionItem(text, item))
	}

	s.logger.Debug("Completion",
		zap.String("uri", string(params.TextDocument.URI)),
		zap.Int("offset", offset),
		zap.Int("items", len(result)))

	return &protocol.CompletionList{
		IsIncomplete: false,
		Items:        result,
	}, nil
}

func convertCompletionItem(text string, item suggest.CompletionItem) protocol.CompletionItem {
	out := protocol.CompletionItem{
		Label:    item.Label,
		Kind:     convertCompletionKind(item.Kind),
		SortText: item.SortText,
		Detail:   item.Detail,
	}

	if item.Kind == suggest.KindIssue {
		// Issues are informational; never insert their label.
		out.Detail = item.Message
		out.InsertText = ""

		return out
	}

	if item.IsSnippet {
		out.InsertTextFormat = protocol.InsertTextFormatSnippet
	}

	if item.ReplaceEnd > item.ReplaceStart {
		out.TextEdit = &protocol.TextEdit{
			Range:   offsetRange(text, item.ReplaceStart, item.ReplaceEnd),
			NewText: item.Insert(),
		}
	} else {
		out.InsertText = item.Insert()
	}

	return out
}

func convertCompletionKind(kind suggest.CompletionKind) protocol.CompletionItemKind {
	switch kind {
	case suggest.KindKeyword:
		return protocol.CompletionItemKindKeyword
	case suggest.KindTable:
		return protocol.CompletionItemKindClass
	case suggest.KindField:
		return protocol.CompletionItemKindField
	case suggest.KindSnippet:
		return protocol.CompletionItemKindSnippet
	case suggest.KindIssue:
		return protocol.CompletionItemKindText
	default:
		return protocol.CompletionItemKindText
	}
}
