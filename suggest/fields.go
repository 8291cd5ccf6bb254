package suggest

import (
	"strings"

	"github.com/querypad-io/querypad"
	"github.com/querypad-io/querypad/metadata"
)

// FieldOptions shape one field-suggestion pass.
type FieldOptions struct {
	// AliasPrefix qualifies every insert as "alias.field" when set.
	AliasPrefix string

	// OwnerLabel names the owning table in the item detail.
	OwnerLabel string

	// Filter keeps only fields whose name starts with it
	// (case-insensitive).
	Filter string
}

// BuildFieldSuggestions maps fields to completion items, bracket-
// quoting names that need it and qualifying with the alias prefix
// when supplied.
func BuildFieldSuggestions(fields []metadata.Field, opts FieldOptions) []CompletionItem {
	var items []CompletionItem

	for _, f := range fields {
		if opts.Filter != "" && !strings.HasPrefix(strings.ToLower(f.Name), strings.ToLower(opts.Filter)) {
			continue
		}

		insert := querypad.QuoteIdentifier(f.Name)
		if opts.AliasPrefix != "" {
			insert = opts.AliasPrefix + "." + insert
		}

		detail := opts.OwnerLabel
		if f.Type != "" {
			if detail != "" {
				detail += " "
			}

			detail += f.Type
		}

		items = append(items, CompletionItem{
			Kind:       KindField,
			Label:      f.Name,
			InsertText: insert,
			SortText:   "0" + strings.ToLower(f.Name),
			Detail:     detail,
		})
	}

	return items
}

// outputFieldsAsMetadata lifts a subquery's inferred column names into
// field records so the field builders can consume them uniformly.
func outputFieldsAsMetadata(names []string) []metadata.Field {
	fields := make([]metadata.Field, len(names))
	for i, name := range names {
		fields[i] = metadata.Field{Name: name}
	}

	return fields
}
