package lsp

import (
	"context"
	"time"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"
)

// scheduleDecorations arms (or re-arms) the debounce timer for a
// document. Decorations only recompute after edits stop for the
// settle period, so rapid typing does one pass instead of many.
func (s *Server) scheduleDecorations(uri protocol.DocumentURI) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.documents[uri]
	if !ok {
		return
	}

	if doc.decoTimer != nil {
		doc.decoTimer.Stop()
	}

	doc.decoTimer = time.AfterFunc(s.debounce, func() {
		s.recomputeDecorations(uri)
	})
}

// recomputeDecorations rebuilds the decoration snapshot for a
// document from its latest analysis: table references highlight as
// writes, select-list fields as reads.
func (s *Server) recomputeDecorations(uri protocol.DocumentURI) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.documents[uri]
	if !ok {
		return
	}

	analyzed := doc.Analysis
	text := doc.Content

	highlights := make([]protocol.DocumentHighlight, 0,
		len(analyzed.Tables)+len(analyzed.FieldRanges))

	for _, ref := range analyzed.Tables {
		highlights = append(highlights, protocol.DocumentHighlight{
			Range: offsetRange(text, ref.StartIndex, ref.EndIndex),
			Kind:  protocol.DocumentHighlightKindWrite,
		})
	}

	for _, r := range analyzed.FieldRanges {
		highlights = append(highlights, protocol.DocumentHighlight{
			Range: offsetRange(text, r.Start, r.End),
			Kind:  protocol.DocumentHighlightKindRead,
		})
	}

	doc.decorations = highlights
	doc.decoVersion++

	s.logger.Debug("Recomputed decorations",
		zap.String("uri", string(uri)),
		zap.Int("count", len(highlights)),
		zap.Int("version", doc.decoVersion))
}

// DocumentHighlight serves the cached decoration snapshot. It never
// computes on demand; the debounce pass keeps the snapshot fresh.
func (s *Server) DocumentHighlight(_ context.Context, params *protocol.DocumentHighlightParams) ([]protocol.DocumentHighlight, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.documents[params.TextDocument.URI]
	if !ok {
		return nil, nil
	}

	return doc.decorations, nil
}
