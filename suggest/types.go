// Package suggest turns a resolved cursor context plus metadata into
// ranked completion items, asterisk expansions, and inline ghost-text
// proposals. Builders are pure: all metadata I/O happens in the engine
// before a builder runs.
package suggest

// CompletionKind discriminates the completion item variants.
type CompletionKind int

const (
	// KindKeyword is a static SQL keyword.
	KindKeyword CompletionKind = iota + 1
	// KindTable is a Data Extension reference.
	KindTable
	// KindField is a column of a table in scope.
	KindField
	// KindSnippet inserts templated text with placeholders.
	KindSnippet
	// KindIssue explains why a requested transform was refused.
	KindIssue
)

func (k CompletionKind) String() string {
	switch k {
	case KindKeyword:
		return "keyword"
	case KindTable:
		return "table"
	case KindField:
		return "field"
	case KindSnippet:
		return "snippet"
	case KindIssue:
		return "issue"
	default:
		return "unknown"
	}
}

// CompletionItem is a tagged variant: Kind selects which of the
// optional fields carry meaning. Only table items have a CustomerKey,
// only issue items a Message, and only snippet-marked items use
// placeholder syntax in InsertText.
type CompletionItem struct {
	Kind  CompletionKind
	Label string

	// InsertText is the text committed on acceptance. Empty means the
	// label inserts verbatim.
	InsertText string

	// SortText is the explicit rank key; lower sorts first. The "0"
	// prefix is reserved for the highest-priority contextual matches
	// (in-scope fields, tables, an expansion snippet).
	SortText string

	// Detail is secondary display text (owner table, customer key).
	Detail string

	// CustomerKey identifies the Data Extension of a table item.
	CustomerKey string

	// Message is the explanation carried by an issue item.
	Message string

	// IsSnippet marks InsertText as containing ${n} placeholders.
	IsSnippet bool

	// ReplaceStart and ReplaceEnd are the byte offsets the acceptance
	// replaces; not necessarily the bare word span (an alias-dot chain
	// or an open bracket widens it).
	ReplaceStart int
	ReplaceEnd   int
}

// Insert returns the text acceptance commits.
func (c CompletionItem) Insert() string {
	if c.InsertText != "" {
		return c.InsertText
	}

	return c.Label
}
