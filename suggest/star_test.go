package suggest_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/querypad-io/querypad/analysis"
	"github.com/querypad-io/querypad/metadata"
	"github.com/querypad-io/querypad/suggest"
)

// fakeFields maps customer keys to field lists for tests.
func fakeFields(m map[string][]metadata.Field) metadata.FieldFetcher {
	return metadata.FetcherFunc(func(_ context.Context, key string) ([]metadata.Field, error) {
		fields, ok := m[key]
		if !ok {
			return nil, errors.New("unknown data extension")
		}

		return fields, nil
	})
}

func starRegistry() *metadata.Registry {
	return metadata.NewRegistry([]metadata.DataExtension{
		{Name: "Customers", CustomerKey: "cust-key"},
		{Name: "Orders", CustomerKey: "orders-key"},
	}, nil)
}

func starFetcher() metadata.FieldFetcher {
	return fakeFields(map[string][]metadata.Field{
		"cust-key": {
			{Name: "Id", IsPrimaryKey: true},
			{Name: "Email Address"},
		},
		"orders-key": {
			{Name: "OrderId", IsPrimaryKey: true},
			{Name: "CustomerId"},
		},
	})
}

func TestExpandAsterisk_SingleUnaliasedTable(t *testing.T) {
	t.Parallel()

	tables := analysis.ExtractTableReferences("SELECT * FROM Customers")

	exp := suggest.ExpandAsterisk(context.Background(), tables, starRegistry(), starFetcher())

	require.Nil(t, exp.Issue)
	assert.Equal(t, []string{"Id", "[Email Address]"}, exp.Columns)
}

func TestExpandAsterisk_AliasQualified(t *testing.T) {
	t.Parallel()

	tables := analysis.ExtractTableReferences(
		"SELECT * FROM Customers c JOIN Orders o ON c.Id = o.CustomerId")

	exp := suggest.ExpandAsterisk(context.Background(), tables, starRegistry(), starFetcher())

	require.Nil(t, exp.Issue)
	assert.Equal(t,
		[]string{"c.Id", "c.[Email Address]", "o.OrderId", "o.CustomerId"},
		exp.Columns)
}

func TestExpandAsterisk_AmbiguityIssue(t *testing.T) {
	t.Parallel()

	tables := analysis.ExtractTableReferences("SELECT * FROM Customers JOIN Orders ON 1=1")

	exp := suggest.ExpandAsterisk(context.Background(), tables, starRegistry(), starFetcher())

	require.NotNil(t, exp.Issue)
	assert.Equal(t, suggest.KindIssue, exp.Issue.Kind)
	assert.NotEmpty(t, exp.Issue.Message)
	assert.Nil(t, exp.Columns, "never both an issue and an expansion")
}

func TestExpandAsterisk_SubqueryUsesOutputFields(t *testing.T) {
	t.Parallel()

	tables := analysis.ExtractTableReferences(
		"SELECT * FROM (SELECT Id, Name FROM Customers) t")

	// Only the outer scope expands; keep the subquery reference alone.
	var outer []analysis.TableReference

	for _, ref := range tables {
		if ref.ScopeDepth == 0 {
			outer = append(outer, ref)
		}
	}

	// A fetcher that always fails proves no fetch happens for
	// subqueries.
	failing := fakeFields(nil)

	exp := suggest.ExpandAsterisk(context.Background(), outer, starRegistry(), failing)

	require.Nil(t, exp.Issue)
	assert.Equal(t, []string{"t.Id", "t.Name"}, exp.Columns)
}

func TestExpandAsterisk_NilFetcher(t *testing.T) {
	t.Parallel()

	tables := analysis.ExtractTableReferences("SELECT * FROM Customers")

	exp := suggest.ExpandAsterisk(context.Background(), tables, starRegistry(), nil)

	require.Nil(t, exp.Issue)
	assert.Empty(t, exp.Columns, "no fetcher means no known columns")
}

func TestExpandAsterisk_NilFetcherKeepsSubqueryFields(t *testing.T) {
	t.Parallel()

	tables := analysis.ExtractTableReferences(
		"SELECT * FROM (SELECT Id, Name FROM Customers) t")

	var outer []analysis.TableReference

	for _, ref := range tables {
		if ref.ScopeDepth == 0 {
			outer = append(outer, ref)
		}
	}

	exp := suggest.ExpandAsterisk(context.Background(), outer, starRegistry(), nil)

	require.Nil(t, exp.Issue)
	assert.Equal(t, []string{"t.Id", "t.Name"}, exp.Columns)
}

func TestExpandAsterisk_FetchFailureDegrades(t *testing.T) {
	t.Parallel()

	tables := analysis.ExtractTableReferences("SELECT * FROM Customers c JOIN Ghost g ON 1=1")

	exp := suggest.ExpandAsterisk(context.Background(), tables, starRegistry(), starFetcher())

	require.Nil(t, exp.Issue)
	assert.Equal(t, []string{"c.Id", "c.[Email Address]"}, exp.Columns,
		"unknown table contributes zero columns")
}
