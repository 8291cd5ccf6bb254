package suggest

import (
	"context"
	"strings"

	"github.com/querypad-io/querypad"
	"github.com/querypad-io/querypad/analysis"
	"github.com/querypad-io/querypad/metadata"
)

// InlineSuggestion is a single best-guess completion rendered as ghost
// text after the cursor. Alternatives are the textually distinct
// lower-priority candidates, cyclable by the editor.
type InlineSuggestion struct {
	// Text is inserted verbatim at the cursor on acceptance.
	Text string

	// Priority orders competing heuristics; higher wins.
	Priority int

	Alternatives []string
}

// Inline heuristic priorities.
const (
	priorityFieldCompletion = 80
	priorityJoinCondition   = 60
	priorityAliasProposal   = 40
)

// EvaluateInline proposes ghost text for the cursor context, or nil
// when no heuristic applies. Heuristics never error: a failed metadata
// fetch just removes its candidates.
func EvaluateInline(ctx context.Context, cur *analysis.CursorContext, reg *metadata.Registry, fetcher metadata.FieldFetcher) *InlineSuggestion {
	if cur.Gated() {
		return nil
	}

	var candidates []InlineSuggestion

	candidates = append(candidates, fieldGhosts(ctx, cur, reg, fetcher)...)

	if g := joinConditionGhost(ctx, cur, reg, fetcher); g != nil {
		candidates = append(candidates, *g)
	}

	if g := aliasGhost(cur); g != nil {
		candidates = append(candidates, *g)
	}

	if len(candidates) == 0 {
		return nil
	}

	best := 0
	for i := 1; i < len(candidates); i++ {
		if candidates[i].Priority > candidates[best].Priority {
			best = i
		}
	}

	result := candidates[best]

	seen := map[string]bool{result.Text: true}

	for i, c := range candidates {
		if i == best || seen[c.Text] {
			continue
		}

		seen[c.Text] = true
		result.Alternatives = append(result.Alternatives, c.Text)
	}

	return &result
}

// fieldGhosts completes the identifier under the cursor from the
// fields of an unambiguous table: the alias-dot target, or the single
// table in scope while the user is mid-identifier.
func fieldGhosts(ctx context.Context, cur *analysis.CursorContext, reg *metadata.Registry, fetcher metadata.FieldFetcher) []InlineSuggestion {
	var target *analysis.TableReference

	switch {
	case cur.AliasBeforeDot != "":
		for i := range cur.TablesInScope {
			if cur.TablesInScope[i].Matches(cur.AliasBeforeDot) {
				target = &cur.TablesInScope[i]

				break
			}
		}

	case cur.CurrentWord != "" && len(cur.TablesInScope) == 1 && !cur.IsAfterFromJoin:
		target = &cur.TablesInScope[0]
	}

	if target == nil {
		return nil
	}

	var ghosts []InlineSuggestion

	for _, f := range tableFields(ctx, *target, reg, fetcher) {
		if len(f.Name) <= len(cur.CurrentWord) {
			continue
		}

		if !strings.HasPrefix(strings.ToLower(f.Name), strings.ToLower(cur.CurrentWord)) {
			continue
		}

		ghosts = append(ghosts, InlineSuggestion{
			Text:     f.Name[len(cur.CurrentWord):],
			Priority: priorityFieldCompletion,
		})
	}

	return ghosts
}

// joinConditionGhost proposes "a.Key = b.Key" after ON when the two
// newest tables in scope share a field name, preferring primary keys.
func joinConditionGhost(ctx context.Context, cur *analysis.CursorContext, reg *metadata.Registry, fetcher metadata.FieldFetcher) *InlineSuggestion {
	if cur.LastKeyword != "ON" || cur.CurrentWord != "" || len(cur.TablesInScope) < 2 {
		return nil
	}

	left := cur.TablesInScope[len(cur.TablesInScope)-2]
	right := cur.TablesInScope[len(cur.TablesInScope)-1]

	leftFields := tableFields(ctx, left, reg, fetcher)
	rightFields := tableFields(ctx, right, reg, fetcher)

	rightByName := make(map[string]metadata.Field, len(rightFields))
	for _, f := range rightFields {
		rightByName[strings.ToLower(f.Name)] = f
	}

	var match string

	for _, f := range leftFields {
		other, ok := rightByName[strings.ToLower(f.Name)]
		if !ok {
			continue
		}

		if f.IsPrimaryKey || other.IsPrimaryKey {
			match = f.Name

			break
		}

		if match == "" {
			match = f.Name
		}
	}

	if match == "" {
		return nil
	}

	col := querypad.QuoteIdentifier(match)

	return &InlineSuggestion{
		Text:     left.DisplayName() + "." + col + " = " + right.DisplayName() + "." + col,
		Priority: priorityJoinCondition,
	}
}

// aliasGhost proposes a short alias right after a complete, unaliased
// FROM/JOIN table.
func aliasGhost(cur *analysis.CursorContext) *InlineSuggestion {
	if !cur.IsAfterFromJoin || !cur.HasFromJoinTable || cur.CursorInFromJoinTable || cur.CurrentWord != "" {
		return nil
	}

	var target *analysis.TableReference

	for i := range cur.TablesInScope {
		ref := &cur.TablesInScope[i]
		if ref.ScopeDepth == cur.ScopeDepth && ref.Alias == "" {
			target = ref
		}
	}

	if target == nil {
		return nil
	}

	taken := make(map[string]bool)

	for _, ref := range cur.TablesInScope {
		if ref.Alias != "" {
			taken[strings.ToLower(ref.Alias)] = true
		}
	}

	alias := proposeAlias(target.Name, taken)
	if alias == "" {
		return nil
	}

	return &InlineSuggestion{Text: alias, Priority: priorityAliasProposal}
}

// proposeAlias derives an alias from a table name: initials of its
// words, falling back to the first letter, suffixing a counter until
// it avoids the taken set.
func proposeAlias(name string, taken map[string]bool) string {
	var initials []byte

	wordStart := true

	for i := 0; i < len(name); i++ {
		c := name[i]

		isUpper := c >= 'A' && c <= 'Z'
		camelBoundary := isUpper && i > 0 && name[i-1] >= 'a' && name[i-1] <= 'z'

		switch {
		case c == ' ' || c == '_' || c == '.':
			wordStart = true
		case (wordStart || camelBoundary) && isUpper:
			initials = append(initials, c+'a'-'A')
			wordStart = false
		case wordStart && c >= 'a' && c <= 'z':
			initials = append(initials, c)
			wordStart = false
		default:
			wordStart = false
		}
	}

	if len(initials) == 0 {
		return ""
	}

	base := string(initials)
	if !taken[base] && !querypad.IsReservedWord(base) {
		return base
	}

	for n := 2; n < 10; n++ {
		candidate := base + string(rune('0'+n))
		if !taken[candidate] {
			return candidate
		}
	}

	return ""
}

// tableFields resolves the field list of one reference: inferred
// output fields for subqueries, a metadata fetch for named tables.
// Failures degrade to zero fields.
func tableFields(ctx context.Context, ref analysis.TableReference, reg *metadata.Registry, fetcher metadata.FieldFetcher) []metadata.Field {
	if ref.IsSubquery {
		return outputFieldsAsMetadata(ref.OutputFields)
	}

	if fetcher == nil {
		return nil
	}

	key := ref.Name
	if reg != nil {
		if de, ok := reg.Lookup(ref.Name); ok {
			key = de.CustomerKey
		}
	}

	fields, err := fetcher.FetchFields(ctx, key)
	if err != nil {
		return nil
	}

	return fields
}
