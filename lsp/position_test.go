package lsp_test

import (
	"testing"

	"go.lsp.dev/protocol"

	"github.com/querypad-io/querypad/lsp"
)

func TestOffsetToPosition(t *testing.T) {
	t.Parallel()

	text := "SELECT Id\nFROM Customers\n"

	tests := []struct {
		name      string
		offset    int
		line      uint32
		character uint32
	}{
		{"start", 0, 0, 0},
		{"mid first line", 7, 0, 7},
		{"at newline", 9, 0, 9},
		{"start of second line", 10, 1, 0},
		{"mid second line", 15, 1, 5},
		{"end of text", len(text), 2, 0},
		{"negative clamps", -5, 0, 0},
		{"oversized clamps", len(text) + 100, 2, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := lsp.OffsetToPosition(text, tt.offset)
			if got.Line != tt.line || got.Character != tt.character {
				t.Errorf("OffsetToPosition(%d) = %d:%d, want %d:%d",
					tt.offset, got.Line, got.Character, tt.line, tt.character)
			}
		})
	}
}

func TestPositionToOffset(t *testing.T) {
	t.Parallel()

	text := "SELECT Id\nFROM Customers"

	tests := []struct {
		name   string
		pos    protocol.Position
		offset int
	}{
		{"start", protocol.Position{Line: 0, Character: 0}, 0},
		{"mid first line", protocol.Position{Line: 0, Character: 7}, 7},
		{"second line", protocol.Position{Line: 1, Character: 5}, 15},
		{"character past newline clamps", protocol.Position{Line: 0, Character: 99}, 9},
		{"line past end clamps", protocol.Position{Line: 10, Character: 0}, len(text)},
		{"character past end clamps", protocol.Position{Line: 1, Character: 99}, len(text)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := lsp.PositionToOffset(text, tt.pos); got != tt.offset {
				t.Errorf("PositionToOffset(%d:%d) = %d, want %d",
					tt.pos.Line, tt.pos.Character, got, tt.offset)
			}
		})
	}
}

func TestPositionRoundTrip_MultiByte(t *testing.T) {
	t.Parallel()

	// Café is 5 bytes but 4 UTF-16 code units; the emoji is 4 bytes
	// and 2 code units.
	text := "SELECT 'Café' FROM T -- 😀\nWHERE 1=1"

	for offset := 0; offset <= len(text); offset++ {
		// Only test offsets on rune boundaries.
		if offset < len(text) && text[offset]&0xC0 == 0x80 {
			continue
		}

		pos := lsp.OffsetToPosition(text, offset)

		if got := lsp.PositionToOffset(text, pos); got != offset {
			t.Errorf("round trip at %d: got %d (position %d:%d)",
				offset, got, pos.Line, pos.Character)
		}
	}
}

func TestOffsetToPosition_UTF16Units(t *testing.T) {
	t.Parallel()

	// The emoji occupies two UTF-16 code units.
	text := "😀x"

	got := lsp.OffsetToPosition(text, 4)
	if got.Character != 2 {
		t.Errorf("character after emoji = %d, want 2", got.Character)
	}
}
