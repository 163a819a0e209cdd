package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"simple", "React Hooks", []string{"react", "hooks"}},
		{"punctuation", "hello, world! (again)", []string{"hello", "world", "again"}},
		{"json tags", `["react","hooks"]`, []string{"react", "hooks"}},
		{"empty", "   ", nil},
		{"underscore kept", "snake_case", []string{"snake_case"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.in)
			assert.Len(t, got, len(tt.want))
			for _, w := range tt.want {
				_, ok := got[w]
				assert.True(t, ok, "missing token %q", w)
			}
		})
	}
}

func TestScoreMatchEmptyQuery(t *testing.T) {
	assert.Equal(t, 0.0, ScoreMatch(Tokenize(""), "any title", "tags", "summary"))
}

func TestScoreMatchFullTitleHit(t *testing.T) {
	// Every query token in the title and nowhere else scores exactly 1.0.
	q := Tokenize("react hooks guide")
	got := ScoreMatch(q, "React Hooks Guide", "", "")
	assert.Equal(t, 1.0, got)
}

func TestScoreMatchRange(t *testing.T) {
	queries := []string{"a", "react hooks", "one two three four"}
	for _, query := range queries {
		q := Tokenize(query)
		score := ScoreMatch(q, "react guide", "react hooks", "four one two three react")
		assert.GreaterOrEqual(t, score, 0.0, "query %q", query)
		assert.LessOrEqual(t, score, 1.0, "query %q", query)
	}
}

func TestScoreMatchCappedAtOne(t *testing.T) {
	// Hits in all three fields can exceed the title-only maximum; the score
	// is clamped rather than allowed past 1.0.
	q := Tokenize("react")
	got := ScoreMatch(q, "react", "react", "react")
	assert.Equal(t, 1.0, got)
}

func TestScoreMatchRankingExample(t *testing.T) {
	q := Tokenize("react hooks")

	first := ScoreMatch(q, "React Hooks Guide", "", "")
	second := ScoreMatch(q, "Cooking", "react", "")

	assert.Greater(t, first, second)
	assert.Equal(t, 1.0, first)
	// One tag hit out of two query tokens: 2 / 6.
	assert.Equal(t, 0.33, second)
}

func TestScoreMatchWeighting(t *testing.T) {
	q := Tokenize("golang")

	title := ScoreMatch(q, "golang", "", "")
	tag := ScoreMatch(q, "", "golang", "")
	summary := ScoreMatch(q, "", "", "golang")

	assert.Equal(t, 1.0, title)
	assert.Equal(t, 0.67, tag)
	assert.Equal(t, 0.33, summary)
}

func TestBuildTerms(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"multi word", "react hooks", []string{"react hooks", "react", "hooks"}},
		{"single word dedup", "golang", []string{"golang"}},
		{"case insensitive dedup", "Go go", []string{"Go go", "Go"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildTerms(tt.query))
		})
	}
}
