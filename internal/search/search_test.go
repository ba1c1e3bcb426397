package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/hearlearn/internal/domain"
)

func books() []domain.Book {
	return []domain.Book{
		{ID: "1", Name: "Dom Casmurro.pdf"},
		{ID: "2", Name: "Memórias Póstumas de Brás Cubas.pdf"},
		{ID: "3", Name: "O Cortiço.PDF"},
		{ID: "4", Name: "Lição de Casa.pdf"},
	}
}

func ids(results []Result) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Book.ID
	}
	return out
}

func TestFilterEmptyQueryKeepsOrder(t *testing.T) {
	idx := NewIndex(books())
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids(idx.Filter("  ")))
}

func TestFilterSubsequence(t *testing.T) {
	idx := NewIndex(books())

	results := idx.Filter("casm")
	require.NotEmpty(t, results)
	assert.Equal(t, "1", results[0].Book.ID)
	assert.Equal(t, []int{4, 5, 6, 7}, results[0].MatchedIndexes)

	assert.Equal(t, []string{"3"}, ids(idx.Filter("CORT")))
}

func TestFilterIgnoresAccentsAsFallback(t *testing.T) {
	idx := NewIndex(books())

	results := idx.Filter("licao")
	require.Len(t, results, 1)
	assert.Equal(t, "4", results[0].Book.ID)
	assert.Nil(t, results[0].MatchedIndexes)
}

func TestFilterNoMatch(t *testing.T) {
	assert.Empty(t, NewIndex(books()).Filter("xyz"))
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "Dom Casmurro", Title(domain.Book{Name: "Dom Casmurro.pdf"}))
	assert.Equal(t, "O Cortiço", Title(domain.Book{Name: "O Cortiço.PDF"}))
	assert.Equal(t, "abc", Title(domain.Book{ID: "abc"}))
	assert.Equal(t, "pdf", Title(domain.Book{Name: "pdf"}))
}
