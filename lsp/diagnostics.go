package lsp

import (
	"context"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/querypad-io/querypad/analysis"
)

// publishDiagnostics converts the analysis findings for one document
// into LSP diagnostics and pushes them to the client.
func (s *Server) publishDiagnostics(ctx context.Context, uri protocol.DocumentURI, text string, analyzed *analysis.AnalyzedQuery) {
	diagnostics := make([]protocol.Diagnostic, 0, len(analyzed.Diagnostics))

	for _, d := range analyzed.Diagnostics {
		diagnostics = append(diagnostics, protocol.Diagnostic{
			Range:    offsetRange(text, d.StartIndex, d.EndIndex),
			Severity: convertSeverity(d.Severity),
			Code:     d.Code,
			Source:   "querypad",
			Message:  d.Message,
		})
	}

	err := s.client.PublishDiagnostics(ctx, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
	if err != nil {
		s.logger.Error("Failed to publish diagnostics",
			zap.String("uri", string(uri)),
			zap.Error(err))

		return
	}

	s.logger.Debug("Published diagnostics",
		zap.String("uri", string(uri)),
		zap.Int("count", len(diagnostics)))
}

// convertSeverity maps analysis severities to LSP severities.
// Prerequisite findings surface as warnings so the editor keeps the
// query runnable-looking while metadata is still being typed in.
func convertSeverity(severity analysis.DiagnosticSeverity) protocol.DiagnosticSeverity {
	switch severity {
	case analysis.SeverityError:
		return protocol.DiagnosticSeverityError
	case analysis.SeverityPrereq:
		return protocol.DiagnosticSeverityWarning
	case analysis.SeverityWarning:
		return protocol.DiagnosticSeverityInformation
	default:
		return protocol.DiagnosticSeverityHint
	}
}
