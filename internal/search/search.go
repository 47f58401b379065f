package search

import (
	"github.com/sahilm/fuzzy"

	"driveview/internal/model"
)

// Result represents a fuzzy match against an entry name.
type Result struct {
	Entry          *model.Entry
	MatchedIndexes []int
	Score          int
}

// entryNames implements fuzzy.Source for an entry slice.
type entryNames []*model.Entry

func (en entryNames) String(i int) string {
	return en[i].Name
}

func (en entryNames) Len() int {
	return len(en)
}

// FuzzyEntries matches entries by name for the quick-open picker.
// Returns results sorted by match score (best first). This is distinct
// from the gallery search box, which narrows by plain substring.
func FuzzyEntries(entries []model.Entry, query string) []Result {
	if query == "" {
		return nil
	}

	names := make(entryNames, len(entries))
	for i := range entries {
		names[i] = &entries[i]
	}

	matches := fuzzy.FindFrom(query, names)

	results := make([]Result, len(matches))
	for i, m := range matches {
		results[i] = Result{
			Entry:          names[m.Index],
			MatchedIndexes: m.MatchedIndexes,
			Score:          m.Score,
		}
	}

	return results
}
