package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

const expandMaxTokens = 100

const expandSystemPrompt = "You are a search query expander. Given a search query, " +
	"return 3-5 related keywords or short phrases that someone " +
	"might use as titles or tags for notes about this topic. " +
	"Return ONLY a JSON array of strings, nothing else. " +
	`Example: ["machine learning", "ML", "neural networks", "deep learning", "AI"]`

// ExpandQuery turns one query into a de-duplicated list of related search
// terms, always including the original query first. Expansion is best-effort:
// a failed call or malformed model output falls back to just the query.
func (c *Client) ExpandQuery(ctx context.Context, query string) []string {
	raw, err := c.complete(ctx, expandSystemPrompt, query, expandMaxTokens)
	if err != nil {
		return []string{query}
	}

	var expanded []any
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &expanded); err != nil {
		return []string{query}
	}

	seen := map[string]struct{}{query: {}}
	terms := []string{query}
	for _, item := range expanded {
		term := strings.TrimSpace(fmt.Sprint(item))
		if term == "" {
			continue
		}
		if _, dup := seen[term]; dup {
			continue
		}
		seen[term] = struct{}{}
		terms = append(terms, term)
	}
	return terms
}

// stripCodeFence unwraps a Markdown ```json fence the model sometimes adds.
func stripCodeFence(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "```") {
		return raw
	}
	if _, rest, ok := strings.Cut(raw, "\n"); ok {
		raw = rest
	}
	if i := strings.LastIndex(raw, "```"); i >= 0 {
		raw = raw[:i]
	}
	return strings.TrimSpace(raw)
}
