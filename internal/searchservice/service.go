// Package searchservice implements relevance search across notes and
// documents. Candidate retrieval is widened by query expansion when asked;
// scoring always runs against the original query's tokens.
package searchservice

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/vaultkeep/vaultkeep/internal/apperr"
	"github.com/vaultkeep/vaultkeep/internal/search"
	"github.com/vaultkeep/vaultkeep/internal/store"
)

const (
	noteCandidateLimit = 20
	docCandidateLimit  = 10
	summarySnippetLen  = 200
)

// NoteHit is a scored note result.
type NoteHit struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Tags       []string  `json:"tags"`
	UpdatedAt  time.Time `json:"updated_at"`
	Similarity float64   `json:"similarity"`
	Type       string    `json:"type"`
}

// DocumentHit is a scored document result with a truncated summary snippet.
type DocumentHit struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Summary    string    `json:"summary"`
	CreatedAt  time.Time `json:"created_at"`
	Similarity float64   `json:"similarity"`
	Type       string    `json:"type"`
}

// Results is the full search response.
type Results struct {
	Notes         []NoteHit     `json:"notes"`
	Documents     []DocumentHit `json:"documents"`
	Query         string        `json:"query"`
	AIBoost       bool          `json:"ai_boost"`
	Total         int           `json:"total"`
	ExpandedTerms []string      `json:"expanded_terms"`
}

// Options narrows a search. The zero value searches everything without boost.
type Options struct {
	ExcludeNotes bool
	ExcludeDocs  bool
	AIBoost      bool
}

// Expander rewrites a query into related search phrases. Implementations
// must degrade to the original query on failure rather than erroring.
type Expander interface {
	ExpandQuery(ctx context.Context, query string) []string
}

// Service runs searches against the store.
type Service struct {
	store    *store.Store
	expander Expander
}

func NewService(st *store.Store, expander Expander) *Service {
	return &Service{store: st, expander: expander}
}

// Search scores the owner's notes and documents against the query.
func (s *Service) Search(ctx context.Context, ownerID int64, query string, opts Options) (*Results, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", apperr.ErrInvalidInput)
	}

	var terms []string
	if opts.AIBoost {
		terms = s.expander.ExpandQuery(ctx, query)
	} else {
		terms = search.BuildTerms(query)
	}
	queryTokens := search.Tokenize(query)

	results := &Results{
		Notes:         []NoteHit{},
		Documents:     []DocumentHit{},
		Query:         query,
		AIBoost:       opts.AIBoost,
		ExpandedTerms: []string{},
	}

	if !opts.ExcludeNotes {
		hits, err := s.searchNotes(ctx, ownerID, terms, queryTokens)
		if err != nil {
			return nil, err
		}
		results.Notes = hits
	}
	if !opts.ExcludeDocs {
		hits, err := s.searchDocuments(ctx, ownerID, terms, queryTokens)
		if err != nil {
			return nil, err
		}
		results.Documents = hits
	}

	results.Total = len(results.Notes) + len(results.Documents)
	if opts.AIBoost {
		results.ExpandedTerms = terms
	}
	return results, nil
}

func (s *Service) searchNotes(ctx context.Context, ownerID int64, terms []string, queryTokens map[string]struct{}) ([]NoteHit, error) {
	candidates, err := s.store.SearchNoteCandidates(ctx, ownerID, terms, noteCandidateLimit)
	if err != nil {
		return nil, err
	}

	hits := []NoteHit{}
	seen := make(map[int64]struct{})
	for _, n := range candidates {
		if _, ok := seen[n.ID]; ok {
			continue
		}
		seen[n.ID] = struct{}{}

		score := search.ScoreMatch(queryTokens, n.Title, strings.Join(n.Tags, " "), "")
		if score <= 0 {
			continue
		}
		hits = append(hits, NoteHit{
			ID:         n.ID,
			Title:      n.Title,
			Tags:       n.Tags,
			UpdatedAt:  n.UpdatedAt,
			Similarity: score,
			Type:       "note",
		})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Similarity > hits[j].Similarity })
	return hits, nil
}

func (s *Service) searchDocuments(ctx context.Context, ownerID int64, terms []string, queryTokens map[string]struct{}) ([]DocumentHit, error) {
	candidates, err := s.store.SearchDocumentCandidates(ctx, ownerID, terms, docCandidateLimit)
	if err != nil {
		return nil, err
	}

	hits := []DocumentHit{}
	seen := make(map[int64]struct{})
	for _, d := range candidates {
		if _, ok := seen[d.ID]; ok {
			continue
		}
		seen[d.ID] = struct{}{}

		score := search.ScoreMatch(queryTokens, d.OriginalName, "", d.Summary)
		if score <= 0 {
			continue
		}
		hits = append(hits, DocumentHit{
			ID:         d.ID,
			Name:       d.OriginalName,
			Summary:    snippet(d.Summary),
			CreatedAt:  d.CreatedAt,
			Similarity: score,
			Type:       "document",
		})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Similarity > hits[j].Similarity })
	return hits, nil
}

// snippet truncates a summary for the result payload. The full summary stays
// available on the document itself.
func snippet(summary string) string {
	runes := []rune(summary)
	if len(runes) <= summarySnippetLen {
		return summary
	}
	return string(runes[:summarySnippetLen]) + "…"
}
