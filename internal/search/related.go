package search

import (
	"sort"
	"strings"

	"github.com/vaultkeep/vaultkeep/internal/models"
)

// RelatedLimit caps the number of related notes returned.
const RelatedLimit = 5

// RelatedNote is one candidate ranked by tag overlap with a source note.
type RelatedNote struct {
	Note       models.Note
	Similarity float64
}

// RelatedByTags ranks candidates by tag-set overlap with sourceTags:
// |intersection of lowercased tag sets| / max(|source|, |candidate|), rounded
// to two decimals. Candidates without overlap are excluded; an untagged source
// yields no results. At most RelatedLimit notes are returned, highest first.
func RelatedByTags(sourceTags []string, candidates []models.Note) []RelatedNote {
	if len(sourceTags) == 0 {
		return nil
	}
	source := lowerSet(sourceTags)

	var out []RelatedNote
	for _, n := range candidates {
		if len(n.Tags) == 0 {
			continue
		}
		overlap := 0
		for tag := range lowerSet(n.Tags) {
			if _, ok := source[tag]; ok {
				overlap++
			}
		}
		if overlap == 0 {
			continue
		}
		maxLen := len(sourceTags)
		if len(n.Tags) > maxLen {
			maxLen = len(n.Tags)
		}
		out = append(out, RelatedNote{
			Note:       n,
			Similarity: round2(float64(overlap) / float64(maxLen)),
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Similarity > out[j].Similarity })
	if len(out) > RelatedLimit {
		out = out[:RelatedLimit]
	}
	return out
}

func lowerSet(tags []string) map[string]struct{} {
	out := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		out[strings.ToLower(t)] = struct{}{}
	}
	return out
}
