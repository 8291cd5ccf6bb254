package suggest

import (
	"slices"
	"strings"

	"github.com/querypad-io/querypad"
	"github.com/querypad-io/querypad/metadata"
)

// BuildTableSuggestions matches prefix against Data Extension names
// and customer keys, case-insensitively. Exact-prefix matches sort
// before substring matches; shared-folder tables insert with the
// "ENT." qualification; results are capped at max.
func BuildTableSuggestions(reg *metadata.Registry, prefix string, max int) []CompletionItem {
	if max <= 0 {
		max = querypad.DefaultMaxSuggestions
	}

	needle := strings.ToLower(prefix)

	var items []CompletionItem

	for _, de := range reg.Extensions() {
		name := strings.ToLower(de.Name)
		key := strings.ToLower(de.CustomerKey)

		var rank string

		switch {
		case needle == "" || strings.HasPrefix(name, needle) || strings.HasPrefix(key, needle):
			rank = "0"
		case strings.Contains(name, needle) || strings.Contains(key, needle):
			rank = "1"
		default:
			continue
		}

		insert := querypad.QuoteIdentifier(de.Name)
		detail := de.CustomerKey

		if reg.IsShared(de.FolderID) {
			insert = "ENT." + insert
			detail += " (shared)"
		}

		items = append(items, CompletionItem{
			Kind:        KindTable,
			Label:       de.Name,
			InsertText:  insert,
			SortText:    rank + name,
			Detail:      detail,
			CustomerKey: de.CustomerKey,
		})
	}

	slices.SortStableFunc(items, func(a, b CompletionItem) int {
		return strings.Compare(a.SortText, b.SortText)
	})

	if len(items) > max {
		items = items[:max]
	}

	return items
}
