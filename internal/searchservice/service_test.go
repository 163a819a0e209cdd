package searchservice

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vaultkeep/vaultkeep/internal/apperr"
	"github.com/vaultkeep/vaultkeep/internal/models"
	"github.com/vaultkeep/vaultkeep/internal/store"
)

type stubExpander struct {
	terms []string
	calls int
}

func (e *stubExpander) ExpandQuery(_ context.Context, query string) []string {
	e.calls++
	if e.terms == nil {
		return []string{query}
	}
	return e.terms
}

func newTestService(t *testing.T) (*Service, *store.Store, *stubExpander, int64) {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "vault.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })

	u, err := st.CreateUser(context.Background(), "Alice", "alice@example.com", "hash")
	if err != nil {
		t.Fatal(err)
	}

	expander := &stubExpander{}
	return NewService(st, expander), st, expander, u.ID
}

func addNote(t *testing.T, st *store.Store, ownerID int64, title string, tags []string) *models.Note {
	t.Helper()
	n := &models.Note{UserID: ownerID, Title: title, Tags: tags}
	if err := st.InsertNote(context.Background(), n); err != nil {
		t.Fatal(err)
	}
	return n
}

func addDocument(t *testing.T, st *store.Store, ownerID int64, name, summary string) *models.Document {
	t.Helper()
	d := &models.Document{UserID: ownerID, StoredName: name, OriginalName: name, FileURL: "/uploads/" + name}
	if err := st.InsertDocument(context.Background(), d); err != nil {
		t.Fatal(err)
	}
	if summary != "" {
		if err := st.SaveEnrichment(context.Background(), d.ID, "text", summary); err != nil {
			t.Fatal(err)
		}
	}
	return d
}

func TestEmptyQueryRejected(t *testing.T) {
	svc, _, _, owner := newTestService(t)

	for _, q := range []string{"", "   "} {
		if _, err := svc.Search(context.Background(), owner, q, Options{}); !errors.Is(err, apperr.ErrInvalidInput) {
			t.Fatalf("query %q: err = %v, want ErrInvalidInput", q, err)
		}
	}
}

func TestTitleAndTagRankAboveSummary(t *testing.T) {
	svc, st, _, owner := newTestService(t)
	ctx := context.Background()

	addNote(t, st, owner, "react hooks", []string{"react", "hooks"})
	addNote(t, st, owner, "hooks overview", nil)
	addDocument(t, st, owner, "frontend.pdf", "covers react hooks in depth")

	res, err := svc.Search(ctx, owner, "react hooks", Options{})
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Notes) != 2 {
		t.Fatalf("notes = %d, want 2", len(res.Notes))
	}
	if res.Notes[0].Title != "react hooks" || res.Notes[0].Similarity != 1.0 {
		t.Fatalf("top note = %+v", res.Notes[0])
	}
	if res.Notes[1].Similarity >= res.Notes[0].Similarity {
		t.Fatalf("partial title match should score below full match: %+v", res.Notes)
	}
	if len(res.Documents) != 1 {
		t.Fatalf("documents = %d, want 1", len(res.Documents))
	}
	if res.Documents[0].Similarity >= res.Notes[0].Similarity {
		t.Fatalf("summary-only match should score below title+tag match")
	}
	if res.Total != 3 {
		t.Fatalf("total = %d, want 3", res.Total)
	}
}

func TestZeroScoresDropped(t *testing.T) {
	svc, st, _, owner := newTestService(t)

	// LIKE matches "law" inside "flaws" but token scoring does not.
	addNote(t, st, owner, "design flaws", nil)

	res, err := svc.Search(context.Background(), owner, "law", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Notes) != 0 {
		t.Fatalf("substring-only match should be dropped, got %+v", res.Notes)
	}
}

func TestBoostWidensRetrievalButScoresAgainstOriginalQuery(t *testing.T) {
	svc, st, expander, owner := newTestService(t)
	ctx := context.Background()

	// Found only through the expanded term, scored against "k8s".
	addNote(t, st, owner, "kubernetes notes k8s", []string{"kubernetes"})
	expander.terms = []string{"k8s", "kubernetes"}

	res, err := svc.Search(ctx, owner, "k8s", Options{AIBoost: true})
	if err != nil {
		t.Fatal(err)
	}
	if expander.calls != 1 {
		t.Fatalf("expander calls = %d, want 1", expander.calls)
	}
	if len(res.Notes) != 1 {
		t.Fatalf("notes = %d, want 1", len(res.Notes))
	}
	if !res.AIBoost {
		t.Fatal("ai_boost flag not set")
	}
	if len(res.ExpandedTerms) != 2 || res.ExpandedTerms[0] != "k8s" {
		t.Fatalf("expanded_terms = %v", res.ExpandedTerms)
	}
}

func TestNoBoostSkipsExpander(t *testing.T) {
	svc, st, expander, owner := newTestService(t)

	addNote(t, st, owner, "plain", nil)
	res, err := svc.Search(context.Background(), owner, "plain", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if expander.calls != 0 {
		t.Fatalf("expander should not run without boost, calls = %d", expander.calls)
	}
	if len(res.ExpandedTerms) != 0 {
		t.Fatalf("expanded_terms = %v, want empty", res.ExpandedTerms)
	}
}

func TestExcludeSections(t *testing.T) {
	svc, st, _, owner := newTestService(t)
	ctx := context.Background()

	addNote(t, st, owner, "budget", nil)
	addDocument(t, st, owner, "budget.pdf", "budget details")

	res, err := svc.Search(ctx, owner, "budget", Options{ExcludeDocs: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Notes) != 1 || len(res.Documents) != 0 {
		t.Fatalf("notes=%d docs=%d", len(res.Notes), len(res.Documents))
	}

	res, err = svc.Search(ctx, owner, "budget", Options{ExcludeNotes: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Notes) != 0 || len(res.Documents) != 1 {
		t.Fatalf("notes=%d docs=%d", len(res.Notes), len(res.Documents))
	}
}

func TestDocumentSummaryTruncated(t *testing.T) {
	svc, st, _, owner := newTestService(t)

	long := "budget " + strings.Repeat("x", 300)
	addDocument(t, st, owner, "report.pdf", long)

	res, err := svc.Search(context.Background(), owner, "budget", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Documents) != 1 {
		t.Fatalf("documents = %d, want 1", len(res.Documents))
	}
	got := res.Documents[0].Summary
	if !strings.HasSuffix(got, "…") {
		t.Fatalf("summary not truncated: %q", got)
	}
	if n := len([]rune(got)); n != summarySnippetLen+1 {
		t.Fatalf("snippet length = %d runes", n)
	}
}

func TestSearchScopedToOwner(t *testing.T) {
	svc, st, _, owner := newTestService(t)
	ctx := context.Background()

	other, err := st.CreateUser(ctx, "Bob", "bob@example.com", "hash")
	if err != nil {
		t.Fatal(err)
	}
	addNote(t, st, other.ID, "shared topic", nil)

	res, err := svc.Search(ctx, owner, "shared topic", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Total != 0 {
		t.Fatalf("search leaked across accounts: %+v", res)
	}
}
