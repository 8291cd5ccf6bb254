package suggest

import (
	"context"
	"slices"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/querypad-io/querypad"
	"github.com/querypad-io/querypad/analysis"
	"github.com/querypad-io/querypad/metadata"
)

// Engine orchestrates one completion pass: gate, resolve the cursor
// context, await any metadata it needs, then invoke the pure builders.
// The engine is request-unaware; discarding stale results is the
// caller's job.
type Engine struct {
	logger   *zap.Logger
	registry *metadata.Registry
	fetcher  metadata.FieldFetcher

	// MaxSuggestions caps the table-suggestion list.
	MaxSuggestions int
}

// NewEngine creates a suggestion engine over one registry snapshot.
// A nil logger disables logging; a nil fetcher degrades field
// suggestions to zero fields.
func NewEngine(logger *zap.Logger, registry *metadata.Registry, fetcher metadata.FieldFetcher) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Engine{
		logger:         logger,
		registry:       registry,
		fetcher:        fetcher,
		MaxSuggestions: querypad.DefaultMaxSuggestions,
	}
}

// Complete returns the ranked completion items for the cursor
// position. Inside a string or comment it returns nothing.
func (e *Engine) Complete(ctx context.Context, text string, offset int) []CompletionItem {
	offset = querypad.ClampOffset(text, offset)

	cur := analysis.ResolveCursorContext(text, offset)
	if cur.Gated() {
		return nil
	}

	var items []CompletionItem

	switch {
	case cur.AliasBeforeDot != "":
		items = e.aliasFieldItems(ctx, cur)

	case cur.IsAfterFromJoin && (!cur.HasFromJoinTable || cur.CursorInFromJoinTable):
		items = BuildTableSuggestions(e.registry, cur.CurrentWord, e.MaxSuggestions)

	case cur.IsAfterSelect:
		items = e.selectFieldItems(ctx, cur)
		items = append(items, BuildKeywordCompletions(cur.LastKeyword, cur.CurrentWord)...)

	default:
		items = BuildKeywordCompletions(cur.LastKeyword, cur.CurrentWord)
	}

	replaceStart := cur.WordStart
	if cur.AliasBeforeDot != "" {
		// Replace the whole alias-dot chain so acceptance can rewrite it.
		replaceStart = cur.WordStart - len(cur.AliasBeforeDot) - 1
		if replaceStart < 0 {
			replaceStart = 0
		}
	}

	for i := range items {
		items[i].ReplaceStart = replaceStart
		items[i].ReplaceEnd = offset
	}

	slices.SortStableFunc(items, func(a, b CompletionItem) int {
		return strings.Compare(a.SortText, b.SortText)
	})

	e.logger.Debug("Completion pass",
		zap.String("lastKeyword", cur.LastKeyword),
		zap.String("currentWord", cur.CurrentWord),
		zap.Int("count", len(items)))

	return items
}

// aliasFieldItems suggests only the fields of the alias-dot target.
func (e *Engine) aliasFieldItems(ctx context.Context, cur *analysis.CursorContext) []CompletionItem {
	for _, ref := range cur.TablesInScope {
		if !ref.Matches(cur.AliasBeforeDot) {
			continue
		}

		fields := tableFields(ctx, ref, e.registry, e.fetcher)

		return BuildFieldSuggestions(fields, FieldOptions{
			AliasPrefix: cur.AliasBeforeDot,
			OwnerLabel:  ref.DisplayName(),
			Filter:      cur.CurrentWord,
		})
	}

	return nil
}

// selectFieldItems suggests the fields of every table in scope,
// fetched concurrently. With a single table the inserts stay bare;
// with several they are qualified so the generated SQL is unambiguous.
func (e *Engine) selectFieldItems(ctx context.Context, cur *analysis.CursorContext) []CompletionItem {
	refs := cur.TablesInScope
	if len(refs) == 0 {
		return nil
	}

	fieldLists := make([][]metadata.Field, len(refs))

	g, gctx := errgroup.WithContext(ctx)

	for i, ref := range refs {
		g.Go(func() error {
			fieldLists[i] = tableFields(gctx, ref, e.registry, e.fetcher)

			return nil
		})
	}

	_ = g.Wait()

	var items []CompletionItem

	for i, ref := range refs {
		prefix := ref.Alias
		if prefix == "" && len(refs) > 1 {
			prefix = ref.DisplayName()
		}

		items = append(items, BuildFieldSuggestions(fieldLists[i], FieldOptions{
			AliasPrefix: prefix,
			OwnerLabel:  ref.DisplayName(),
			Filter:      cur.CurrentWord,
		})...)
	}

	return items
}

// ExpandStar expands the asterisk nearest the cursor into the visible
// tables' column list. The returned range is the `*` token span the
// caller should replace; ok is false when there is no asterisk to
// expand or the cursor is gated.
func (e *Engine) ExpandStar(ctx context.Context, text string, offset int) (Expansion, analysis.Range, bool) {
	offset = querypad.ClampOffset(text, offset)

	cur := analysis.ResolveCursorContext(text, offset)
	if cur.Gated() {
		return Expansion{}, analysis.Range{}, false
	}

	star, ok := starRange(text, offset)
	if !ok {
		return Expansion{}, analysis.Range{}, false
	}

	return ExpandAsterisk(ctx, cur.TablesInScope, e.registry, e.fetcher), star, true
}

// Inline evaluates the ghost-text heuristics at the cursor.
func (e *Engine) Inline(ctx context.Context, text string, offset int) *InlineSuggestion {
	cur := analysis.ResolveCursorContext(text, querypad.ClampOffset(text, offset))

	return EvaluateInline(ctx, cur, e.registry, e.fetcher)
}

// starRange finds the SELECT-list `*` item covering or nearest before
// the cursor.
func starRange(text string, offset int) (analysis.Range, bool) {
	var (
		found analysis.Range
		ok    bool
	)

	for _, r := range analysis.ExtractSelectFieldRanges(text) {
		if text[r.Start:r.End] != "*" {
			continue
		}

		if r.Start <= offset || !ok {
			found = r
			ok = true
		}
	}

	return found, ok
}
