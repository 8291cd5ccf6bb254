package lsp

import (
	"strings"
	"unicode/utf16"

	"go.lsp.dev/protocol"
)

// OffsetToPosition converts a byte offset into an LSP position.
// Characters count UTF-16 code units, per the protocol default.
func OffsetToPosition(text string, offset int) protocol.Position {
	if offset < 0 {
		offset = 0
	}

	if offset > len(text) {
		offset = len(text)
	}

	var line, character uint32

	for _, r := range text[:offset] {
		if r == '\n' {
			line++
			character = 0

			continue
		}

		character += uint32(utf16.RuneLen(r)) //nolint:gosec // RuneLen is 1 or 2
	}

	return protocol.Position{Line: line, Character: character}
}

// PositionToOffset converts an LSP position into a byte offset,
// clamping past-end lines and characters to the nearest valid offset.
func PositionToOffset(text string, pos protocol.Position) int {
	offset := 0

	for line := uint32(0); line < pos.Line; line++ {
		nl := strings.IndexByte(text[offset:], '\n')
		if nl < 0 {
			return len(text)
		}

		offset += nl + 1
	}

	var units uint32

	for i, r := range text[offset:] {
		if units >= pos.Character || r == '\n' {
			return offset + i
		}

		units += uint32(utf16.RuneLen(r)) //nolint:gosec // RuneLen is 1 or 2
	}

	return len(text)
}

// offsetRange converts a byte-offset span into an LSP range.
func offsetRange(text string, start, end int) protocol.Range {
	return protocol.Range{
		Start: OffsetToPosition(text, start),
		End:   OffsetToPosition(text, end),
	}
}
