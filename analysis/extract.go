package analysis

import (
	"strings"

	"github.com/querypad-io/querypad"
)

// ExtractTableReferences scans text for FROM/JOIN table expressions
// and returns every reference found, in declaration order, including
// those inside subqueries (at increasing scope depths). The scan is a
// pure function of the text: malformed input yields a partial but
// consistent list, never an error.
func ExtractTableReferences(text string) []TableReference {
	s := newSourceScanner(text)

	var refs []TableReference

	s.walk(0, len(text), 0, &refs)

	return refs
}

// ExtractSelectFieldRanges locates each top-level field expression
// span within every SELECT list in the text, independent of whether
// it resolves to a known field. Used for non-blocking decoration.
func ExtractSelectFieldRanges(text string) []Range {
	s := newSourceScanner(text)

	var ranges []Range

	i := 0
	for i < len(text) {
		i = s.skipNonCode(i)
		if i >= len(text) {
			break
		}

		if isIdentByte(text[i]) {
			word, next := s.word(i)
			if strings.EqualFold(word, "SELECT") {
				items, _ := s.selectItems(next, len(text))
				ranges = append(ranges, items...)
			}

			i = next

			continue
		}

		i++
	}

	return ranges
}

// sourceScanner walks query text with string/comment spans masked out.
type sourceScanner struct {
	text    string
	regions []querypad.Region
}

func newSourceScanner(text string) *sourceScanner {
	return &sourceScanner{
		text:    text,
		regions: querypad.ScanRegions(text),
	}
}

// skipNonCode jumps past any string or comment span covering i.
func (s *sourceScanner) skipNonCode(i int) int {
	for _, r := range s.regions {
		if r.Start <= i && i < r.End {
			i = r.End
		}

		if r.Start > i {
			break
		}
	}

	return i
}

// skipSpace advances past whitespace and comments (but not strings: a
// string literal is a value, not filler).
func (s *sourceScanner) skipSpace(i, end int) int {
	for i < end {
		c := s.text[i]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			i++

			continue
		}

		j := s.skipComment(i)
		if j != i {
			i = j

			continue
		}

		break
	}

	return i
}

func (s *sourceScanner) skipComment(i int) int {
	for _, r := range s.regions {
		if r.Start == i && (r.Kind == querypad.RegionLineComment || r.Kind == querypad.RegionBlockComment) {
			return r.End
		}

		if r.Start > i {
			break
		}
	}

	return i
}

// word reads the identifier starting at i.
func (s *sourceScanner) word(i int) (string, int) {
	start := i
	for i < len(s.text) && isIdentByte(s.text[i]) {
		i++
	}

	return s.text[start:i], i
}

// matchParen returns the index of the ')' matching the '(' at i, or
// end when unbalanced (the remainder is then treated as the group's
// body, keeping extraction total over malformed input).
func (s *sourceScanner) matchParen(i, end int) int {
	depth := 1

	j := i + 1
	for j < end {
		j = s.skipNonCode(j)
		if j >= end {
			break
		}

		switch s.text[j] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return j
			}
		}

		j++
	}

	return end
}

// isSubqueryGroup reports whether the paren group body beginning at
// start opens with a SELECT.
func (s *sourceScanner) isSubqueryGroup(start, end int) bool {
	i := s.skipSpace(start, end)
	if i >= end || !isIdentByte(s.text[i]) {
		return false
	}

	word, _ := s.word(i)

	return strings.EqualFold(word, "SELECT")
}

// walk scans [start,end) for FROM/JOIN clauses at the given scope
// depth, recursing into subquery groups at depth+1 and skipping
// non-subquery paren groups entirely.
func (s *sourceScanner) walk(start, end, depth int, out *[]TableReference) {
	i := start
	for i < end {
		i = s.skipNonCode(i)
		if i >= end {
			break
		}

		c := s.text[i]

		if c == '(' {
			j := s.matchParen(i, end)
			if s.isSubqueryGroup(i+1, j) {
				s.walk(i+1, j, depth+1, out)
			}

			i = j + 1

			continue
		}

		if isIdentByte(c) {
			word, next := s.word(i)
			if querypad.IsFromJoinKeyword(word) {
				i = s.parseTableList(next, end, depth, out)

				continue
			}

			i = next

			continue
		}

		i++
	}
}

// parseTableList consumes one or more comma-separated table
// expressions following a FROM/JOIN keyword.
func (s *sourceScanner) parseTableList(i, end, depth int, out *[]TableReference) int {
	for {
		next, ok := s.parseTableExpr(i, end, depth, out)
		i = next

		if !ok {
			return i
		}

		j := s.skipSpace(i, end)
		if j < end && s.text[j] == ',' {
			i = j + 1

			continue
		}

		return i
	}
}

// parseTableExpr consumes a single table expression (named object or
// parenthesized subquery) plus its optional alias. It reports whether
// a reference was produced.
func (s *sourceScanner) parseTableExpr(i, end, depth int, out *[]TableReference) (int, bool) {
	i = s.skipSpace(i, end)
	if i >= end {
		return i, false
	}

	if s.text[i] == '(' {
		return s.parseSubqueryRef(i, end, depth, out)
	}

	if s.text[i] != '[' && !isIdentByte(s.text[i]) {
		return i, false
	}

	start := i

	var (
		parts     []string
		bracketed bool
	)

	for {
		if i < end && s.text[i] == '[' {
			close := strings.IndexByte(s.text[i:min(end, len(s.text))], ']')
			if close < 0 {
				// Unterminated bracket: take the remainder as the name.
				parts = append(parts, s.text[i+1:end])
				bracketed = true
				i = end

				break
			}

			parts = append(parts, s.text[i+1:i+close])
			bracketed = true
			i += close + 1
		} else if i < end && isIdentByte(s.text[i]) {
			word, next := s.word(i)
			parts = append(parts, word)
			i = next
		} else {
			break
		}

		if i < end && s.text[i] == '.' {
			i++

			continue
		}

		break
	}

	if len(parts) == 0 {
		return i, false
	}

	name := strings.Join(parts, ".")
	if querypad.IsReservedWord(name) {
		// "FROM WHERE ..." — the keyword terminates the clause, there
		// is no table here.
		return start, false
	}

	ref := TableReference{
		Name:          name,
		QualifiedName: qualifyParts(parts),
		IsBracketed:   bracketed,
		ScopeDepth:    depth,
		StartIndex:    start,
		EndIndex:      i,
	}

	i = s.parseAlias(i, end, &ref)

	*out = append(*out, ref)

	return i, true
}

// parseSubqueryRef consumes "(SELECT ...) alias". Non-subquery paren
// groups after FROM are skipped without producing a reference.
func (s *sourceScanner) parseSubqueryRef(i, end, depth int, out *[]TableReference) (int, bool) {
	j := s.matchParen(i, end)
	if !s.isSubqueryGroup(i+1, j) {
		return j + 1, false
	}

	ref := TableReference{
		IsSubquery:   true,
		ScopeDepth:   depth,
		StartIndex:   i,
		OutputFields: s.subqueryOutputFields(i+1, j),
	}

	// The subquery's own FROM list lives one scope deeper. The outer
	// reference is appended first so declaration order holds.
	pos := len(*out)
	*out = append(*out, ref)
	s.walk(i+1, j, depth+1, out)

	next := j
	if next < end {
		next++ // consume ')'
	}

	(*out)[pos].EndIndex = next
	next = s.parseAlias(next, end, &(*out)[pos])

	// A subquery has no object name of its own; the alias is the only
	// handle consumers can use.
	(*out)[pos].Name = (*out)[pos].Alias
	(*out)[pos].QualifiedName = (*out)[pos].Alias

	return next, true
}

// parseAlias consumes an optional alias ("AS ident", bare identifier,
// or a bracketed identifier). Reserved words terminate the lookahead
// and are never taken as aliases, bracketed or not.
func (s *sourceScanner) parseAlias(i, end int, ref *TableReference) int {
	j := s.skipSpace(i, end)
	if j >= end {
		return i
	}

	explicit := false

	if isIdentByte(s.text[j]) {
		word, next := s.word(j)
		if strings.EqualFold(word, "AS") {
			explicit = true
			j = s.skipSpace(next, end)
		}
	}

	if j >= end {
		return i
	}

	var (
		alias    string
		aliasEnd int
	)

	switch {
	case s.text[j] == '[':
		close := strings.IndexByte(s.text[j:min(end, len(s.text))], ']')
		if close < 0 {
			return i
		}

		alias = s.text[j+1 : j+close]
		aliasEnd = j + close + 1

	case isIdentByte(s.text[j]):
		alias, aliasEnd = s.word(j)

	default:
		return i
	}

	if alias == "" || querypad.IsReservedWord(alias) {
		if explicit {
			// "AS" with nothing usable after it: keep the reference
			// without an alias rather than mis-binding a keyword.
			return i
		}

		return i
	}

	ref.Alias = alias
	ref.EndIndex = aliasEnd

	return aliasEnd
}

// subqueryOutputFields shallowly parses the subquery's top-level
// SELECT list and returns the projected column names it can resolve.
// Expressions without a usable name are silently skipped.
func (s *sourceScanner) subqueryOutputFields(start, end int) []string {
	i := s.skipSpace(start, end)
	if i >= end || !isIdentByte(s.text[i]) {
		return nil
	}

	word, next := s.word(i)
	if !strings.EqualFold(word, "SELECT") {
		return nil
	}

	items, _ := s.selectItems(next, end)

	var fields []string

	for _, item := range items {
		if name := s.outputFieldName(item); name != "" {
			fields = append(fields, name)
		}
	}

	return fields
}

// selectItems splits the SELECT list beginning at i into top-level
// field expression ranges (commas inside paren groups don't split).
// It stops at a top-level FROM, a closing paren that would leave the
// list, or end. The second return is the index after the list.
func (s *sourceScanner) selectItems(i, end int) ([]Range, int) {
	i = s.skipSpace(i, end)

	// DISTINCT / TOP n prefixes are part of the clause, not the list.
	for {
		if i >= end || !isIdentByte(s.text[i]) {
			break
		}

		word, next := s.word(i)
		switch strings.ToUpper(word) {
		case "DISTINCT":
			i = s.skipSpace(next, end)
		case "TOP":
			j := s.skipSpace(next, end)
			for j < end && s.text[j] >= '0' && s.text[j] <= '9' {
				j++
			}

			i = s.skipSpace(j, end)
		default:
			goto list
		}
	}

list:
	var (
		items     []Range
		itemStart = i
	)

	flush := func(to int) {
		from, until := s.trimRange(itemStart, to)
		if from < until {
			items = append(items, Range{Start: from, End: until})
		}
	}

	for i < end {
		i = s.skipNonCode(i)
		if i >= end {
			break
		}

		switch c := s.text[i]; {
		case c == '(':
			i = s.matchParen(i, end) + 1

		case c == ')':
			flush(i)

			return items, i

		case c == ',':
			flush(i)
			i++
			itemStart = i

		case isIdentByte(c):
			word, next := s.word(i)
			if strings.EqualFold(word, "FROM") {
				flush(i)

				return items, i
			}

			i = next

		default:
			i++
		}
	}

	flush(min(i, end))

	return items, i
}

// trimRange shrinks [start,end) to exclude surrounding whitespace.
func (s *sourceScanner) trimRange(start, end int) (int, int) {
	if end > len(s.text) {
		end = len(s.text)
	}

	for start < end && isSpaceByte(s.text[start]) {
		start++
	}

	for end > start && isSpaceByte(s.text[end-1]) {
		end--
	}

	return start, end
}

// outputFieldName resolves the projected name of one SELECT-list
// expression: trailing alias if present, else the bare column name of
// a simple reference, else "".
func (s *sourceScanner) outputFieldName(item Range) string {
	type token struct {
		kind byte // 'i' ident, 'b' bracketed, '.', ')', '*', 'o' other
		text string
	}

	var tokens []token

	i := item.Start
	for i < item.End {
		i = s.skipNonCode(i)
		if i >= item.End {
			break
		}

		switch c := s.text[i]; {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++

		case c == '(':
			i = s.matchParen(i, item.End) + 1
			tokens = append(tokens, token{kind: ')'})

		case c == '[':
			close := strings.IndexByte(s.text[i:item.End], ']')
			if close < 0 {
				return ""
			}

			tokens = append(tokens, token{kind: 'b', text: s.text[i+1 : i+close]})
			i += close + 1

		case c == '.':
			tokens = append(tokens, token{kind: '.'})
			i++

		case c == '*':
			tokens = append(tokens, token{kind: '*'})
			i++

		case isIdentByte(c):
			word, next := s.word(i)
			tokens = append(tokens, token{kind: 'i', text: word})
			i = next

		default:
			tokens = append(tokens, token{kind: 'o'})
			i++
		}
	}

	if len(tokens) == 0 {
		return ""
	}

	// Explicit alias: the name after the last top-level AS wins.
	for i := len(tokens) - 1; i >= 0; i-- {
		if tokens[i].kind == 'i' && strings.EqualFold(tokens[i].text, "AS") && i+1 < len(tokens) {
			next := tokens[i+1]
			if (next.kind == 'i' || next.kind == 'b') && !querypad.IsReservedWord(next.text) {
				return next.text
			}

			return ""
		}
	}

	// Simple column reference: ident/bracket chain joined by dots.
	simple := true

	for i, tok := range tokens {
		if i%2 == 0 {
			if tok.kind != 'i' && tok.kind != 'b' {
				simple = false

				break
			}
		} else if tok.kind != '.' {
			simple = false

			break
		}
	}

	if simple && len(tokens)%2 == 1 {
		last := tokens[len(tokens)-1]
		if !querypad.IsReservedWord(last.text) {
			return last.text
		}

		return ""
	}

	// Implicit trailing alias: "expr alias" where alias follows a
	// value-producing token.
	last := tokens[len(tokens)-1]
	if (last.kind == 'i' || last.kind == 'b') && !querypad.IsReservedWord(last.text) && len(tokens) >= 2 {
		prev := tokens[len(tokens)-2]
		if prev.kind == 'i' || prev.kind == 'b' || prev.kind == ')' {
			return last.text
		}
	}

	return ""
}

// qualifyParts renders a dotted name with bracket quoting applied to
// the parts that need it.
func qualifyParts(parts []string) string {
	quoted := make([]string, len(parts))
	for i, p := range parts {
		quoted[i] = querypad.QuoteIdentifier(p)
	}

	return strings.Join(quoted, ".")
}

func isIdentByte(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}

func isSpaceByte(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
