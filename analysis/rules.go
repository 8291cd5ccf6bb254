package analysis

import (
	"strings"

	"github.com/querypad-io/querypad"
)

// Rule represents one lint check over a query.
// Inspired by go/analysis.Analyzer pattern.
type Rule struct {
	// Name is a short identifier for the rule (used in diagnostic codes).
	Name string

	// Doc is a brief description of what the rule checks.
	Doc string

	// Severity is the default severity for diagnostics from this rule.
	Severity DiagnosticSeverity

	// Run executes the rule and appends any diagnostics to the query.
	Run func(q *AnalyzedQuery)
}

// DefaultRules returns all built-in lint rules.
func DefaultRules() []*Rule {
	return []*Rule{
		// Error-level checks.
		unbalancedParensRule,
		unbalancedBracketsRule,
		unterminatedLiteralRule,

		// Prerequisite checks.
		missingFromRule,
		emptySelectRule,

		// Warning-level checks.
		reservedAliasRule,
		duplicateAliasRule,
	}
}

// ----------------------------------------------------------------------------
// Rule: unbalanced-parens
// ----------------------------------------------------------------------------

var unbalancedParensRule = &Rule{
	Name:     "unbalanced-parens",
	Doc:      "Reports parentheses without a matching open or close.",
	Severity: SeverityError,
	Run:      checkUnbalancedParens,
}

func checkUnbalancedParens(q *AnalyzedQuery) {
	s := newSourceScanner(q.Text)

	var open []int

	i := 0
	for i < len(q.Text) {
		i = s.skipNonCode(i)
		if i >= len(q.Text) {
			break
		}

		switch q.Text[i] {
		case '(':
			open = append(open, i)
		case ')':
			if len(open) == 0 {
				q.Diagnostics = append(q.Diagnostics, Diagnostic{
					Severity:   SeverityError,
					StartIndex: i,
					EndIndex:   i + 1,
					Message:    "unmatched closing parenthesis",
					Code:       "unbalanced-parens",
				})
			} else {
				open = open[:len(open)-1]
			}
		}

		i++
	}

	for _, at := range open {
		q.Diagnostics = append(q.Diagnostics, Diagnostic{
			Severity:   SeverityError,
			StartIndex: at,
			EndIndex:   at + 1,
			Message:    "unmatched opening parenthesis",
			Code:       "unbalanced-parens",
		})
	}
}

// ----------------------------------------------------------------------------
// Rule: unbalanced-brackets
// ----------------------------------------------------------------------------

var unbalancedBracketsRule = &Rule{
	Name:     "unbalanced-brackets",
	Doc:      "Reports bracket-quoted identifiers that are never closed.",
	Severity: SeverityError,
	Run:      checkUnbalancedBrackets,
}

func checkUnbalancedBrackets(q *AnalyzedQuery) {
	s := newSourceScanner(q.Text)

	// Brackets don't nest; an unclosed '[' swallows the rest of the text.
	i := 0
	for i < len(q.Text) {
		i = s.skipNonCode(i)
		if i >= len(q.Text) {
			break
		}

		switch q.Text[i] {
		case '[':
			close := strings.IndexByte(q.Text[i:], ']')
			if close < 0 {
				q.Diagnostics = append(q.Diagnostics, Diagnostic{
					Severity:   SeverityError,
					StartIndex: i,
					EndIndex:   len(q.Text),
					Message:    "unclosed bracket-quoted identifier",
					Code:       "unbalanced-brackets",
				})

				return
			}

			i += close + 1

		case ']':
			q.Diagnostics = append(q.Diagnostics, Diagnostic{
				Severity:   SeverityError,
				StartIndex: i,
				EndIndex:   i + 1,
				Message:    "unmatched closing bracket",
				Code:       "unbalanced-brackets",
			})

			i++

		default:
			i++
		}
	}
}

// ----------------------------------------------------------------------------
// Rule: unterminated-literal
// ----------------------------------------------------------------------------

var unterminatedLiteralRule = &Rule{
	Name:     "unterminated-literal",
	Doc:      "Reports string literals and block comments that never close.",
	Severity: SeverityError,
	Run:      checkUnterminatedLiterals,
}

func checkUnterminatedLiterals(q *AnalyzedQuery) {
	for _, r := range querypad.ScanRegions(q.Text) {
		if r.Terminated || r.Kind == querypad.RegionLineComment {
			continue
		}

		msg := "unterminated string literal"
		if r.Kind == querypad.RegionBlockComment {
			msg = "unterminated block comment"
		}

		q.Diagnostics = append(q.Diagnostics, Diagnostic{
			Severity:   SeverityError,
			StartIndex: r.Start,
			EndIndex:   r.End,
			Message:    msg,
			Code:       "unterminated-literal",
		})
	}
}

// ----------------------------------------------------------------------------
// Rule: missing-from
// ----------------------------------------------------------------------------

var missingFromRule = &Rule{
	Name:     "missing-from",
	Doc:      "Reports SELECT statements without a FROM clause table.",
	Severity: SeverityPrereq,
	Run:      checkMissingFrom,
}

func checkMissingFrom(q *AnalyzedQuery) {
	s := newSourceScanner(q.Text)

	selectAt := -1

	i := 0
	for i < len(q.Text) {
		i = s.skipNonCode(i)
		if i >= len(q.Text) {
			break
		}

		if isIdentByte(q.Text[i]) {
			word, next := s.word(i)
			if selectAt < 0 && strings.EqualFold(word, "SELECT") {
				selectAt = i
			}

			i = next

			continue
		}

		i++
	}

	if selectAt < 0 {
		return
	}

	for _, ref := range q.Tables {
		if ref.ScopeDepth == 0 {
			return
		}
	}

	q.Diagnostics = append(q.Diagnostics, Diagnostic{
		Severity:   SeverityPrereq,
		StartIndex: selectAt,
		EndIndex:   selectAt + len("SELECT"),
		Message:    "query has no FROM clause table",
		Code:       "missing-from",
	})
}

// ----------------------------------------------------------------------------
// Rule: empty-select
// ----------------------------------------------------------------------------

var emptySelectRule = &Rule{
	Name:     "empty-select",
	Doc:      "Reports SELECT statements with an empty field list.",
	Severity: SeverityPrereq,
	Run:      checkEmptySelect,
}

func checkEmptySelect(q *AnalyzedQuery) {
	s := newSourceScanner(q.Text)

	i := 0
	for i < len(q.Text) {
		i = s.skipNonCode(i)
		if i >= len(q.Text) {
			break
		}

		if isIdentByte(q.Text[i]) {
			word, next := s.word(i)
			if strings.EqualFold(word, "SELECT") {
				items, _ := s.selectItems(next, len(q.Text))
				if len(items) == 0 {
					q.Diagnostics = append(q.Diagnostics, Diagnostic{
						Severity:   SeverityPrereq,
						StartIndex: i,
						EndIndex:   i + len(word),
						Message:    "SELECT list is empty",
						Code:       "empty-select",
					})
				}
			}

			i = next

			continue
		}

		i++
	}
}

// ----------------------------------------------------------------------------
// Rule: reserved-alias
// ----------------------------------------------------------------------------

var reservedAliasRule = &Rule{
	Name:     "reserved-alias",
	Doc:      "Reports table names that collide with reserved keywords.",
	Severity: SeverityWarning,
	Run:      checkReservedAliases,
}

func checkReservedAliases(q *AnalyzedQuery) {
	// The extractor never binds a reserved word as an alias, so the
	// only collision left is a bracketed table name spelling a keyword.
	for _, ref := range q.Tables {
		if !ref.IsBracketed || !querypad.IsReservedWord(ref.Name) {
			continue
		}

		q.Diagnostics = append(q.Diagnostics, Diagnostic{
			Severity:   SeverityWarning,
			StartIndex: ref.StartIndex,
			EndIndex:   ref.EndIndex,
			Message:    "table name " + ref.QualifiedName + " shadows a reserved keyword",
			Code:       "reserved-alias",
		})
	}
}

// ----------------------------------------------------------------------------
// Rule: duplicate-alias
// ----------------------------------------------------------------------------

var duplicateAliasRule = &Rule{
	Name:     "duplicate-alias",
	Doc:      "Reports aliases bound more than once in the same scope.",
	Severity: SeverityWarning,
	Run:      checkDuplicateAliases,
}

func checkDuplicateAliases(q *AnalyzedQuery) {
	type scopeAlias struct {
		depth int
		alias string
	}

	seen := make(map[scopeAlias]bool)

	for _, ref := range q.Tables {
		if ref.Alias == "" {
			continue
		}

		key := scopeAlias{depth: ref.ScopeDepth, alias: strings.ToUpper(ref.Alias)}
		if seen[key] {
			q.Diagnostics = append(q.Diagnostics, Diagnostic{
				Severity:   SeverityWarning,
				StartIndex: ref.StartIndex,
				EndIndex:   ref.EndIndex,
				Message:    "alias " + ref.Alias + " is already bound in this scope",
				Code:       "duplicate-alias",
			})
		} else {
			seen[key] = true
		}
	}
}
