package search

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	sahilm "github.com/sahilm/fuzzy"
)

// Matches reports whether every whitespace-separated token of query fuzzily
// matches name. Word order does not matter ("beach sunset" matches
// "sunset at the beach"), case and diacritics are folded.
func Matches(query, name string) bool {
	query = strings.TrimSpace(query)
	if query == "" {
		return true
	}
	for _, token := range strings.Fields(query) {
		if !fuzzy.MatchNormalizedFold(token, name) {
			return false
		}
	}
	return true
}

// Match is one ranked search result.
type Match struct {
	Index          int   // position in the source slice
	Score          int   // higher is better
	MatchedIndexes []int // rune positions for highlighting
}

// Rank scores names against query and returns matches ordered best first.
// Used for interactive pickers where a relevance ordering matters more than
// the strict AND semantics of Matches.
func Rank(query string, names []string) []Match {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	ranked := sahilm.Find(query, names)
	out := make([]Match, len(ranked))
	for i, m := range ranked {
		out[i] = Match{Index: m.Index, Score: m.Score, MatchedIndexes: m.MatchedIndexes}
	}
	return out
}
