package suggest

import (
	"strings"

	"github.com/querypad-io/querypad"
)

// BuildKeywordCompletions returns the static keyword list filtered by
// prefix, with keywords contextually expected after lastKeyword ranked
// above the rest. FROM and JOIN items carry a snippet inserting a
// bracket pair ready for table-name entry.
func BuildKeywordCompletions(lastKeyword, prefix string) []CompletionItem {
	followers := make(map[string]bool)
	for _, kw := range querypad.KeywordFollowers(lastKeyword) {
		followers[kw] = true
	}

	var items []CompletionItem

	for _, kw := range querypad.SuggestableKeywords {
		if prefix != "" && !strings.HasPrefix(strings.ToUpper(kw), strings.ToUpper(prefix)) {
			continue
		}

		item := CompletionItem{
			Kind:     KindKeyword,
			Label:    kw,
			SortText: "2" + kw,
		}

		if followers[kw] {
			item.SortText = "1" + kw
		}

		if kw == "FROM" || strings.HasSuffix(kw, "JOIN") {
			item.InsertText = kw + " [${1}]"
			item.IsSnippet = true
		}

		items = append(items, item)
	}

	return items
}
