// Package analysis builds the structural view of a SQL query that the
// completion engine consumes: table references with scope depths,
// cursor context resolution, and lint diagnostics. Everything here is
// re-derived from the full text per call; there is no incremental
// state to drift.
package analysis

import "strings"

// TableReference is one FROM/JOIN clause occupant.
type TableReference struct {
	// Name is the raw identifier text, unbracketed. Dotted references
	// keep their dots ("schema.table"). For subqueries it mirrors the
	// alias.
	Name string

	// QualifiedName is the display-safe name: bracket-quoted where the
	// source name needs it.
	QualifiedName string

	// Alias is the identifier bound to this reference, or empty.
	// Consumers assume case-insensitive uniqueness within a scope.
	Alias string

	// IsBracketed reports whether the source used [Name] syntax.
	IsBracketed bool

	// IsSubquery is true for "(SELECT ...) alias" references.
	IsSubquery bool

	// OutputFields holds the projected column names of a subquery
	// reference, inferred best-effort from its own SELECT list.
	// Unresolvable expressions are omitted. Empty for named objects.
	OutputFields []string

	// ScopeDepth is the subquery nesting level; 0 is the top-level
	// query.
	ScopeDepth int

	// StartIndex and EndIndex are the byte offsets of the reference's
	// text span, alias included. EndIndex is exclusive.
	StartIndex int
	EndIndex   int
}

// DisplayName returns the name completions should insert when
// qualifying a field: the alias when bound, else the qualified name.
func (r TableReference) DisplayName() string {
	if r.Alias != "" {
		return r.Alias
	}

	return r.QualifiedName
}

// Matches reports whether ident names this reference, by alias first
// and then by table name, case-insensitively.
func (r TableReference) Matches(ident string) bool {
	if strings.EqualFold(r.Alias, ident) {
		return true
	}

	return strings.EqualFold(r.Name, ident)
}

// Range is a byte-offset span within the query text. End is exclusive.
type Range struct {
	Start int
	End   int
}

// Contains reports whether a cursor offset sits within the range,
// treating the end position as inside (a cursor directly after the
// last character is still editing the span).
func (r Range) Contains(offset int) bool {
	return offset >= r.Start && offset <= r.End
}

// CursorContext is the resolved state at one cursor offset.
type CursorContext struct {
	// CurrentWord is the partial identifier ending at the cursor, used
	// as a filter prefix.
	CurrentWord string

	// WordStart is the byte offset where CurrentWord begins; equals
	// the cursor offset when no partial word is present.
	WordStart int

	// LastKeyword is the nearest preceding top-level clause keyword
	// (uppercased; "GROUP BY"/"ORDER BY" reported as two words), or ""
	// when no keyword precedes the cursor.
	LastKeyword string

	// IsAfterSelect and IsAfterFromJoin mark the field-list and
	// table-reference positions respectively.
	IsAfterSelect   bool
	IsAfterFromJoin bool

	// AliasBeforeDot is the identifier before a "." immediately
	// preceding the cursor (or the partial word), or empty. When set,
	// field-only suggestion mode applies and IsAfterFromJoin never
	// triggers table mode.
	AliasBeforeDot string

	// HasFromJoinTable reports whether the current FROM/JOIN clause
	// already has a complete table token; CursorInFromJoinTable
	// whether the cursor sits inside that token's span.
	HasFromJoinTable      bool
	CursorInFromJoinTable bool

	// ScopeDepth is the subquery nesting level the cursor sits in.
	ScopeDepth int

	// TablesInScope are the references visible at the cursor per SQL
	// scoping: the cursor's own FROM list plus outer scopes'.
	TablesInScope []TableReference

	// InString and InComment gate suggestions entirely when true.
	InString  bool
	InComment bool
}

// Gated reports whether suggestions must not fire at this position.
func (c *CursorContext) Gated() bool {
	return c.InString || c.InComment
}

// DiagnosticSeverity classifies lint findings. Only error and prereq
// block query execution; warnings never gate anything.
type DiagnosticSeverity int

// Diagnostic severity constants.
const (
	SeverityError DiagnosticSeverity = iota + 1
	SeverityPrereq
	SeverityWarning
)

// Blocking reports whether the severity prevents running the query.
func (s DiagnosticSeverity) Blocking() bool {
	return s == SeverityError || s == SeverityPrereq
}

// Diagnostic is a lint or prerequisite finding over the query text.
type Diagnostic struct {
	Severity   DiagnosticSeverity
	StartIndex int
	EndIndex   int
	Message    string
	Code       string // e.g. "unbalanced-parens", "missing-from"
}

// AnalyzedQuery bundles everything derived from one pass over the
// text.
type AnalyzedQuery struct {
	Text        string
	Tables      []TableReference
	FieldRanges []Range
	Diagnostics []Diagnostic
}

// HasBlockingDiagnostics reports whether any error or prereq finding
// is present.
func (q *AnalyzedQuery) HasBlockingDiagnostics() bool {
	for _, d := range q.Diagnostics {
		if d.Severity.Blocking() {
			return true
		}
	}

	return false
}
