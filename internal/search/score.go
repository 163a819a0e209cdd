// Package search implements the relevance and related-notes scoring used to
// rank candidates returned by the coarse substring filter in the store.
package search

import (
	"math"
	"regexp"
	"strings"
)

var wordRe = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// Weights of the three scored fields. The theoretical maximum assumes every
// query token matched in the title.
const (
	titleWeight   = 3
	tagWeight     = 2
	summaryWeight = 1
)

// Tokenize lowercases text and returns the set of maximal word-character runs.
// Punctuation and whitespace act as separators.
func Tokenize(text string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, tok := range wordRe.FindAllString(strings.ToLower(text), -1) {
		out[tok] = struct{}{}
	}
	return out
}

// ScoreMatch computes the normalized weighted token-overlap between the query
// tokens and a candidate's title, tag text, and summary. The result is in
// [0, 1], rounded to two decimals; zero query tokens scores 0.
func ScoreMatch(queryTokens map[string]struct{}, title, tagText, summary string) float64 {
	if len(queryTokens) == 0 {
		return 0
	}
	weighted := titleWeight*hits(queryTokens, title) +
		tagWeight*hits(queryTokens, tagText) +
		summaryWeight*hits(queryTokens, summary)
	maxPossible := titleWeight * len(queryTokens)
	score := round2(float64(weighted) / float64(maxPossible))
	return math.Min(score, 1.0)
}

func hits(queryTokens map[string]struct{}, text string) int {
	n := 0
	for tok := range Tokenize(text) {
		if _, ok := queryTokens[tok]; ok {
			n++
		}
	}
	return n
}

// BuildTerms returns the coarse-filter substring terms for a query: the full
// query itself plus each whitespace-separated word, de-duplicated
// case-insensitively. Term order is first occurrence.
func BuildTerms(query string) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(term string) {
		key := strings.ToLower(term)
		if term == "" {
			return
		}
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		out = append(out, term)
	}
	add(query)
	for _, w := range strings.Fields(query) {
		add(w)
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
