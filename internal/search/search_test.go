package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/sigilforge/internal/catalog"
)

func builtinIndex(t *testing.T) *Index {
	t.Helper()
	cat, err := catalog.LoadBuiltin()
	require.NoError(t, err)
	return New(cat)
}

func names(results []Result) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, r.Sigil.Name)
	}
	return out
}

func TestEmptyQueryListsCatalogInOrder(t *testing.T) {
	idx := builtinIndex(t)
	all := idx.Query("  ", 0)
	require.Len(t, all, idx.Len())
	assert.Equal(t, "Stone Heart", all[0].Sigil.Name)
	assert.Equal(t, FieldNone, all[0].Field)

	assert.Equal(t, []string{"Stone Heart", "Ember Heart"}, names(idx.Query("", 2)))
}

func TestQueryMatchesName(t *testing.T) {
	idx := builtinIndex(t)
	results := idx.Query("hawk", 0)
	require.Len(t, results, 1)
	assert.Equal(t, "Hawk Eye", results[0].Sigil.Name)
	assert.Equal(t, FieldName, results[0].Field)
	assert.Equal(t, []int{0, 1, 2, 3}, results[0].MatchedIndexes)
}

func TestQueryMatchesTrait(t *testing.T) {
	idx := builtinIndex(t)
	results := idx.Query("vigor", 0)
	assert.ElementsMatch(t, []string{"Stone Heart", "Ember Heart"}, names(results))
	for _, r := range results {
		assert.Equal(t, FieldTrait, r.Field)
	}
}

func TestQueryRanksAndLimits(t *testing.T) {
	idx := builtinIndex(t)
	results := idx.Query("heart", 0)
	assert.Subset(t, names(results), []string{"Stone Heart", "Ember Heart"})
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
	assert.Len(t, idx.Query("heart", 1), 1)
}

func TestQueryWithoutMatches(t *testing.T) {
	idx := builtinIndex(t)
	assert.Empty(t, idx.Query("zzzz", 5))
}
