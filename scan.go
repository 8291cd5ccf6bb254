// Package querypad provides lexical analysis primitives for the SQL
// query-editor completion engine: region classification (strings and
// comments), identifier handling, and keyword tables shared by the
// analysis and suggest packages.
package querypad

import (
	"strings"
	"unicode"
)

// RegionKind classifies a span of query text.
type RegionKind int

const (
	// RegionCode is plain SQL text.
	RegionCode RegionKind = iota
	// RegionString is a single-quoted string literal.
	RegionString
	// RegionLineComment is a -- comment running to end of line.
	RegionLineComment
	// RegionBlockComment is a /* */ comment (non-nesting).
	RegionBlockComment
)

// Region is a non-code span of text. Start and End are byte offsets;
// End is exclusive. Terminated reports whether the closing delimiter
// was present in the source (line comments are never "terminated":
// the newline belongs to the surrounding code).
type Region struct {
	Kind       RegionKind
	Start      int
	End        int
	Terminated bool
}

// Contains reports whether a cursor at offset sits inside the region.
// A cursor immediately after the closing delimiter of a terminated
// region is outside it; a cursor at the end of an unterminated region
// (or at the end of a line comment's line) is inside.
func (r Region) Contains(offset int) bool {
	if offset <= r.Start {
		return false
	}

	if offset < r.End {
		return true
	}

	return offset == r.End && !r.Terminated
}

// ScanRegions performs a single forward scan of text and returns every
// string-literal and comment span, in order. Unterminated strings and
// block comments extend to the end of the text rather than failing:
// extraction and suggestion gating always receive a consistent view.
func ScanRegions(text string) []Region {
	var regions []Region

	i := 0
	for i < len(text) {
		switch {
		case text[i] == '\'':
			start := i
			i++

			terminated := false
			for i < len(text) {
				if text[i] == '\'' {
					// Doubled single quote is SQL's escape for a literal quote.
					if i+1 < len(text) && text[i+1] == '\'' {
						i += 2
						continue
					}

					i++
					terminated = true

					break
				}

				i++
			}

			regions = append(regions, Region{
				Kind:       RegionString,
				Start:      start,
				End:        i,
				Terminated: terminated,
			})

		case text[i] == '-' && i+1 < len(text) && text[i+1] == '-':
			start := i
			for i < len(text) && text[i] != '\n' {
				i++
			}

			regions = append(regions, Region{
				Kind:  RegionLineComment,
				Start: start,
				End:   i,
			})

		case text[i] == '/' && i+1 < len(text) && text[i+1] == '*':
			start := i
			i += 2

			terminated := false
			for i < len(text) {
				if text[i] == '*' && i+1 < len(text) && text[i+1] == '/' {
					i += 2
					terminated = true

					break
				}

				i++
			}

			regions = append(regions, Region{
				Kind:       RegionBlockComment,
				Start:      start,
				End:        i,
				Terminated: terminated,
			})

		default:
			i++
		}
	}

	return regions
}

// regionAt returns the non-code region containing the cursor offset,
// if any.
func regionAt(regions []Region, offset int) (Region, bool) {
	for _, r := range regions {
		if r.Contains(offset) {
			return r, true
		}

		if r.Start >= offset {
			break
		}
	}

	return Region{}, false
}

// IsInsideString reports whether a cursor at offset sits inside a
// single-quoted string literal. Out-of-range offsets are clamped.
func IsInsideString(text string, offset int) bool {
	offset = ClampOffset(text, offset)

	r, ok := regionAt(ScanRegions(text), offset)

	return ok && r.Kind == RegionString
}

// IsInsideComment reports whether a cursor at offset sits inside a
// line or block comment. Out-of-range offsets are clamped.
func IsInsideComment(text string, offset int) bool {
	offset = ClampOffset(text, offset)

	r, ok := regionAt(ScanRegions(text), offset)

	return ok && (r.Kind == RegionLineComment || r.Kind == RegionBlockComment)
}

// ClampOffset clamps a cursor offset into [0, len(text)]. The resolver
// and suggestion gates never reject an out-of-bounds offset; they
// operate on the nearest valid position instead.
func ClampOffset(text string, offset int) int {
	if offset < 0 {
		return 0
	}

	if offset > len(text) {
		return len(text)
	}

	return offset
}

// IsIdentRune reports whether r can appear in an unbracketed SQL
// identifier.
func IsIdentRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// isIdentByte is the ASCII fast path used by the offset scanners.
func isIdentByte(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}

// NeedsQuoting reports whether an identifier must be bracket-quoted to
// be valid in generated SQL (spaces or any non-identifier character).
func NeedsQuoting(name string) bool {
	if name == "" {
		return false
	}

	for _, r := range name {
		if !IsIdentRune(r) {
			return true
		}
	}

	return false
}

// QuoteIdentifier bracket-quotes name when it needs quoting and
// returns it unchanged otherwise.
func QuoteIdentifier(name string) string {
	if NeedsQuoting(name) {
		return "[" + name + "]"
	}

	return name
}

// Unbracket strips one layer of [ ] quoting if present.
func Unbracket(name string) string {
	if len(name) >= 2 && strings.HasPrefix(name, "[") && strings.HasSuffix(name, "]") {
		return name[1 : len(name)-1]
	}

	return name
}
