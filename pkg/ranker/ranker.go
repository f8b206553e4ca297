// Package ranker scores skill descriptions against a task query. Scoring is
// token-overlap Jaccard similarity over case-insensitive word sets: it is
// deterministic, dependency-free, and auditable, which keeps query results
// reproducible across identical registries.
package ranker

import (
	"sort"
	"strings"
	"unicode"

	"github.com/jingkaihe/skillgate/pkg/types/skills"
)

// Tokenize lowercases the text and splits it into a word set. Words are runs
// of letters and digits; everything else separates.
func Tokenize(text string) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		set[field] = struct{}{}
	}
	return set
}

// jaccard returns |a ∩ b| / |a ∪ b|, with the empty union defined as 0 so an
// empty query never divides by zero.
func jaccard(a, b map[string]struct{}) float64 {
	intersection := 0
	for token := range a {
		if _, ok := b[token]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// Rank scores every record's description against the query text and returns
// all records as ranked candidates, highest score first. Zero-score records
// are included for completeness of iteration; the selector excludes them from
// activation. Score ties break by registration order (the order of the input
// slice), so ranking is stable across repeated calls.
//
// Rank is pure: it never fails and touches no shared state, so concurrent
// queries may rank the same snapshot in parallel.
func Rank(query string, records []*skills.Record) []skills.RankedCandidate {
	queryTokens := Tokenize(query)

	candidates := make([]skills.RankedCandidate, len(records))
	for i, record := range records {
		candidates[i] = skills.RankedCandidate{
			SkillName: record.Name,
			Score:     jaccard(queryTokens, Tokenize(record.Description)),
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	for i := range candidates {
		candidates[i].Rank = i
	}
	return candidates
}
