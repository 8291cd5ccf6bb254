package suggest

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/querypad-io/querypad"
	"github.com/querypad-io/querypad/analysis"
	"github.com/querypad-io/querypad/metadata"
)

// Expansion is the outcome of an asterisk-expansion request. Exactly
// one of Columns and Issue is populated: either the full column list
// in table declaration order, or the issue item explaining the
// refusal.
type Expansion struct {
	Columns []string
	Issue   *CompletionItem
}

// ExpandAsterisk replaces a `SELECT *` with the concrete column list
// of every visible table. When two or more visible tables lack an
// alias the expansion is refused with an issue item instead of
// guessing which table unscoped columns belong to. Subquery
// references contribute their inferred output fields without a fetch;
// named tables are fetched concurrently, and a failed fetch or a nil
// fetcher contributes zero columns rather than failing the expansion.
func ExpandAsterisk(ctx context.Context, tables []analysis.TableReference, reg *metadata.Registry, fetcher metadata.FieldFetcher) Expansion {
	unaliased := 0

	for _, ref := range tables {
		if ref.Alias == "" {
			unaliased++
		}
	}

	if unaliased >= 2 {
		return Expansion{Issue: &CompletionItem{
			Kind:    KindIssue,
			Label:   "Cannot expand *",
			Message: "two or more tables have no alias; alias them so expanded columns can be qualified",
		}}
	}

	names := make([][]string, len(tables))

	g, gctx := errgroup.WithContext(ctx)

	for i, ref := range tables {
		if ref.IsSubquery {
			names[i] = ref.OutputFields

			continue
		}

		if fetcher == nil {
			continue
		}

		g.Go(func() error {
			key := ref.Name
			if de, ok := reg.Lookup(ref.Name); ok {
				key = de.CustomerKey
			}

			fields, err := fetcher.FetchFields(gctx, key)
			if err != nil {
				return nil
			}

			cols := make([]string, len(fields))
			for j, f := range fields {
				cols[j] = f.Name
			}

			names[i] = cols

			return nil
		})
	}

	// Workers never return errors; Wait only synchronizes them.
	_ = g.Wait()

	var columns []string

	for i, ref := range tables {
		qualifier := ref.Alias
		if qualifier == "" && len(tables) > 1 {
			qualifier = ref.DisplayName()
		}

		for _, name := range names[i] {
			col := querypad.QuoteIdentifier(name)
			if qualifier != "" {
				col = qualifier + "." + col
			}

			columns = append(columns, col)
		}
	}

	return Expansion{Columns: columns}
}
