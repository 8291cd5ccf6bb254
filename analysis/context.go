package analysis

import (
	"strings"

	"github.com/querypad-io/querypad"
)

// ResolveCursorContext derives the editing context at a byte offset.
// Everything is recomputed from the full text on each call, so the
// result depends only on (text, offset); calling it twice with the
// same inputs yields the same context. Out-of-range offsets are
// clamped.
func ResolveCursorContext(text string, offset int) *CursorContext {
	offset = querypad.ClampOffset(text, offset)
	s := newSourceScanner(text)

	ctx := &CursorContext{WordStart: offset}

	for _, r := range s.regions {
		if !r.Contains(offset) {
			continue
		}

		switch r.Kind {
		case querypad.RegionString:
			ctx.InString = true
		case querypad.RegionLineComment, querypad.RegionBlockComment:
			ctx.InComment = true
		}
	}

	if ctx.Gated() {
		return ctx
	}

	// Partial word ending at the cursor.
	ws := offset
	for ws > 0 && isIdentByte(text[ws-1]) {
		ws--
	}

	ctx.CurrentWord = text[ws:offset]
	ctx.WordStart = ws

	ctx.AliasBeforeDot = s.aliasBeforeDot(ws)

	kw, kwEnd := s.lastClauseKeyword(ws)
	ctx.LastKeyword = kw
	ctx.IsAfterSelect = querypad.IsSelectKeyword(firstWord(kw))
	ctx.IsAfterFromJoin = querypad.IsFromJoinKeyword(firstWord(kw)) && ctx.AliasBeforeDot == ""

	spans := s.enclosingSubquerySpans(offset)
	ctx.ScopeDepth = len(spans)

	refs := ExtractTableReferences(text)
	ctx.TablesInScope = visibleTables(refs, spans, offset)

	if ctx.IsAfterFromJoin {
		for _, r := range ctx.TablesInScope {
			if r.ScopeDepth != ctx.ScopeDepth || r.StartIndex < kwEnd || r.StartIndex > offset {
				continue
			}

			ctx.HasFromJoinTable = true

			if (Range{Start: r.StartIndex, End: r.EndIndex}).Contains(offset) {
				ctx.CursorInFromJoinTable = true
			}
		}

		// A comma or fresh paren reopens the table position even when
		// the clause already has references.
		switch s.prevSignificantByte(ws) {
		case ',', '(':
			ctx.HasFromJoinTable = false
			ctx.CursorInFromJoinTable = false
		}
	}

	return ctx
}

// visibleTables filters refs down to those in scope at the cursor:
// the cursor's own FROM list and every enclosing scope's, but never a
// sibling subquery's internals or a subquery's own alias from inside
// itself.
func visibleTables(refs []TableReference, spans []Range, offset int) []TableReference {
	var visible []TableReference

	for _, r := range refs {
		if r.ScopeDepth > len(spans) {
			continue
		}

		if r.ScopeDepth > 0 {
			span := spans[r.ScopeDepth-1]
			if r.StartIndex < span.Start || r.StartIndex > span.End {
				continue
			}
		}

		// Inside a subquery its own alias is not referable.
		if r.IsSubquery && r.StartIndex < offset && offset <= r.EndIndex {
			continue
		}

		visible = append(visible, r)
	}

	return visible
}

// aliasBeforeDot returns the identifier directly before a "." that
// immediately precedes wordStart, or "".
func (s *sourceScanner) aliasBeforeDot(wordStart int) string {
	if wordStart == 0 || s.text[wordStart-1] != '.' {
		return ""
	}

	i := wordStart - 1

	if i > 0 && s.text[i-1] == ']' {
		open := strings.LastIndexByte(s.text[:i-1], '[')
		if open < 0 {
			return ""
		}

		return s.text[open+1 : i-1]
	}

	start := i
	for start > 0 && isIdentByte(s.text[start-1]) {
		start--
	}

	if start == i {
		return ""
	}

	return s.text[start:i]
}

// lastClauseKeyword scans backwards from i for the nearest clause
// keyword, skipping complete paren groups so a subquery between the
// keyword and the cursor does not shadow it. It returns the uppercased
// keyword ("GROUP BY" and "ORDER BY" as two words) and the byte offset
// just past the keyword, or ("", 0) when nothing precedes the cursor.
func (s *sourceScanner) lastClauseKeyword(i int) (string, int) {
	for {
		tok, start := s.prevToken(i)
		if start < 0 {
			return "", 0
		}

		switch {
		case tok == ")":
			open := s.matchParenBack(start)
			if open < 0 {
				i = start

				continue
			}

			i = open

		case isIdentByte(tok[0]) && querypad.IsClauseKeyword(tok):
			upper := strings.ToUpper(tok)
			end := start + len(tok)

			if upper == "BY" {
				prev, pstart := s.prevToken(start)
				if pstart >= 0 {
					switch strings.ToUpper(prev) {
					case "GROUP":
						return "GROUP BY", end
					case "ORDER":
						return "ORDER BY", end
					}
				}
			}

			return upper, end

		default:
			i = start
		}
	}
}

// prevToken returns the code token ending before i (an identifier or a
// single punctuation byte) and its start offset, skipping whitespace,
// strings and comments. start is -1 at the beginning of the text.
func (s *sourceScanner) prevToken(i int) (string, int) {
	j := i - 1

	for j >= 0 {
		if r, ok := s.regionCovering(j); ok {
			j = r.Start - 1

			continue
		}

		if isSpaceByte(s.text[j]) {
			j--

			continue
		}

		break
	}

	if j < 0 {
		return "", -1
	}

	if isIdentByte(s.text[j]) {
		start := j
		for start > 0 && isIdentByte(s.text[start-1]) {
			start--
		}

		return s.text[start : j+1], start
	}

	return s.text[j : j+1], j
}

// prevSignificantByte returns the last code byte before i that is not
// whitespace or a comment, or 0 at the start of text.
func (s *sourceScanner) prevSignificantByte(i int) byte {
	tok, start := s.prevToken(i)
	if start < 0 || tok == "" {
		return 0
	}

	return tok[len(tok)-1]
}

// matchParenBack returns the offset of the '(' matching the ')' at
// close, or -1 when unbalanced.
func (s *sourceScanner) matchParenBack(close int) int {
	depth := 1

	j := close - 1
	for j >= 0 {
		if r, ok := s.regionCovering(j); ok {
			j = r.Start - 1

			continue
		}

		switch s.text[j] {
		case ')':
			depth++
		case '(':
			depth--
			if depth == 0 {
				return j
			}
		}

		j--
	}

	return -1
}

// regionCovering returns the string/comment region whose span covers
// byte position j.
func (s *sourceScanner) regionCovering(j int) (querypad.Region, bool) {
	for _, r := range s.regions {
		if r.Start <= j && j < r.End {
			return r, true
		}

		if r.Start > j {
			break
		}
	}

	return querypad.Region{}, false
}

// enclosingSubquerySpans returns the interiors of the subquery paren
// groups containing the cursor, outermost first. Its length is the
// cursor's scope depth.
func (s *sourceScanner) enclosingSubquerySpans(offset int) []Range {
	var spans []Range

	start, end := 0, len(s.text)

	for {
		found := false

		i := start
		for i < end {
			i = s.skipNonCode(i)
			if i >= end {
				break
			}

			if s.text[i] == '(' {
				j := s.matchParen(i, end)
				if i < offset && offset <= j && s.isSubqueryGroup(i+1, j) {
					spans = append(spans, Range{Start: i + 1, End: j})
					start, end = i+1, j
					found = true

					break
				}

				i = j + 1

				continue
			}

			i++
		}

		if !found {
			return spans
		}
	}
}

func firstWord(s string) string {
	if i := strings.IndexByte(s, ' '); i >= 0 {
		return s[:i]
	}

	return s
}
