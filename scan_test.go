package querypad_test

import (
	"strings"
	"testing"

	"github.com/querypad-io/querypad"
)

func TestScanRegions_Classification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want []querypad.Region
	}{
		{
			name: "plain code",
			text: "SELECT Id FROM Customers",
			want: nil,
		},
		{
			name: "string literal",
			text: "WHERE Name = 'Bob'",
			want: []querypad.Region{
				{Kind: querypad.RegionString, Start: 13, End: 18, Terminated: true},
			},
		},
		{
			name: "doubled quote escape stays in string",
			text: "WHERE Name = 'O''Brien'",
			want: []querypad.Region{
				{Kind: querypad.RegionString, Start: 13, End: 23, Terminated: true},
			},
		},
		{
			name: "unterminated string runs to end",
			text: "WHERE Name = 'Bo",
			want: []querypad.Region{
				{Kind: querypad.RegionString, Start: 13, End: 16, Terminated: false},
			},
		},
		{
			name: "line comment",
			text: "SELECT 1 -- trailing\nFROM A",
			want: []querypad.Region{
				{Kind: querypad.RegionLineComment, Start: 9, End: 20, Terminated: false},
			},
		},
		{
			name: "block comment",
			text: "SELECT /* hint */ Id",
			want: []querypad.Region{
				{Kind: querypad.RegionBlockComment, Start: 7, End: 17, Terminated: true},
			},
		},
		{
			name: "unterminated block comment",
			text: "SELECT /* hint",
			want: []querypad.Region{
				{Kind: querypad.RegionBlockComment, Start: 7, End: 14, Terminated: false},
			},
		},
		{
			name: "comment markers inside string are literal",
			text: "SELECT '--not a comment /*also not*/'",
			want: []querypad.Region{
				{Kind: querypad.RegionString, Start: 7, End: 37, Terminated: true},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := querypad.ScanRegions(tt.text)
			if len(got) != len(tt.want) {
				t.Fatalf("ScanRegions() = %+v, want %+v", got, tt.want)
			}

			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("region %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestIsInsideString(t *testing.T) {
	t.Parallel()

	text := "WHERE Name = 'Bob' AND 1=1"
	// Offsets around 'Bob': quote at 13, closing quote at 17.
	cases := map[int]bool{
		0:  false,
		13: false, // before the opening quote
		14: true,  // right after the opening quote
		17: true,  // before the closing quote
		18: false, // right after the closing quote
		25: false,
	}

	for offset, want := range cases {
		if got := querypad.IsInsideString(text, offset); got != want {
			t.Errorf("IsInsideString(%d) = %v, want %v", offset, got, want)
		}
	}

	// Unterminated string: cursor at end of text is still inside.
	open := "WHERE Name = 'Bo"
	if !querypad.IsInsideString(open, len(open)) {
		t.Error("cursor at end of unterminated string should be inside")
	}

	// Out-of-range offsets are clamped, never panic.
	if querypad.IsInsideString(text, -5) {
		t.Error("negative offset should clamp to start")
	}

	if querypad.IsInsideString(text, len(text)+100) {
		t.Error("oversized offset should clamp to end")
	}
}

func TestIsInsideComment(t *testing.T) {
	t.Parallel()

	text := "SELECT 1 -- FROM X\nFROM A /* b */ JOIN C"

	cases := map[int]bool{
		0:  false,
		9:  false, // on the first dash
		11: true,  // inside the line comment
		18: true,  // at end of the comment line
		19: false, // after the newline
		28: true,  // inside the block comment
		33: false, // after the block comment
	}

	for offset, want := range cases {
		if got := querypad.IsInsideComment(text, offset); got != want {
			t.Errorf("IsInsideComment(%d) = %v, want %v", offset, got, want)
		}
	}
}

func TestQuoteIdentifier(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"EmailAddress", "EmailAddress"},
		{"Email Address", "[Email Address]"},
		{"Order-Total", "[Order-Total]"},
		{"_internal", "_internal"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := querypad.QuoteIdentifier(tt.in); got != tt.want {
			t.Errorf("QuoteIdentifier(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestUnbracket(t *testing.T) {
	t.Parallel()

	if got := querypad.Unbracket("[Email Address]"); got != "Email Address" {
		t.Errorf("Unbracket() = %q", got)
	}

	if got := querypad.Unbracket("Plain"); got != "Plain" {
		t.Errorf("Unbracket() = %q", got)
	}
}

func TestKeywordSets(t *testing.T) {
	t.Parallel()

	if !querypad.IsReservedWord("where") || !querypad.IsReservedWord("WHERE") {
		t.Error("reserved word check should be case-insensitive")
	}

	if querypad.IsReservedWord("Customers") {
		t.Error("Customers is not a reserved word")
	}

	if !querypad.IsSelectKeyword("select") || !querypad.IsSelectKeyword("DISTINCT") {
		t.Error("SELECT/DISTINCT should be field-list keywords")
	}

	if !querypad.IsFromJoinKeyword("from") || !querypad.IsFromJoinKeyword("JOIN") {
		t.Error("FROM/JOIN should be table-position keywords")
	}

	if querypad.IsFromJoinKeyword("WHERE") {
		t.Error("WHERE is not a table-position keyword")
	}

	followers := querypad.KeywordFollowers("select")
	if len(followers) == 0 || !contains(followers, "DISTINCT") {
		t.Errorf("KeywordFollowers(SELECT) = %v, want DISTINCT boosted", followers)
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}

	return false
}
