package search

import (
	"sort"
	"strings"

	lfuzzy "github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/sahilm/fuzzy"

	"github.com/mmcdole/hearlearn/internal/domain"
)

// Result is a book that matched a filter query
type Result struct {
	Book           domain.Book
	MatchedIndexes []int // byte positions in the title, for highlighting
	Score          int
}

// Index implements sahilm/fuzzy.Source over book titles
type Index struct {
	books       []domain.Book
	lowerTitles []string // Pre-computed lowercase titles
}

// NewIndex builds an index over books, preserving their order
func NewIndex(books []domain.Book) *Index {
	idx := &Index{
		books:       books,
		lowerTitles: make([]string, len(books)),
	}
	for i, b := range books {
		idx.lowerTitles[i] = strings.ToLower(Title(b))
	}
	return idx
}

// String returns the lowercase title at index i (implements fuzzy.Source)
func (idx *Index) String(i int) string { return idx.lowerTitles[i] }

// Len returns the number of books (implements fuzzy.Source)
func (idx *Index) Len() int { return len(idx.books) }

// Filter returns the books matching query, best match first.
// Subsequence matching runs first; when it finds nothing the query is
// retried ignoring accents, so "licao" still finds "Lição".
func (idx *Index) Filter(query string) []Result {
	query = strings.TrimSpace(query)
	if query == "" {
		results := make([]Result, len(idx.books))
		for i, b := range idx.books {
			results[i] = Result{Book: b}
		}
		return results
	}

	matches := fuzzy.FindFrom(strings.ToLower(query), idx)
	if len(matches) > 0 {
		results := make([]Result, len(matches))
		for i, m := range matches {
			results[i] = Result{
				Book:           idx.books[m.Index],
				MatchedIndexes: m.MatchedIndexes,
				Score:          m.Score,
			}
		}
		return results
	}

	return idx.normalizedFilter(query)
}

func (idx *Index) normalizedFilter(query string) []Result {
	ranks := lfuzzy.RankFindNormalizedFold(query, idx.lowerTitles)
	sort.SliceStable(ranks, func(i, j int) bool {
		return ranks[i].Distance < ranks[j].Distance
	})

	results := make([]Result, len(ranks))
	for i, r := range ranks {
		results[i] = Result{
			Book:  idx.books[r.OriginalIndex],
			Score: -r.Distance,
		}
	}
	return results
}

// Title is the display title of a book: its file name without the .pdf extension
func Title(b domain.Book) string {
	name := b.Name
	if strings.EqualFold(name[max(len(name)-4, 0):], ".pdf") {
		name = name[:len(name)-4]
	}
	if name == "" {
		return b.ID
	}
	return name
}
