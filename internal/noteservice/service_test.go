package noteservice

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/vaultkeep/vaultkeep/internal/apperr"
	"github.com/vaultkeep/vaultkeep/internal/crypto"
	"github.com/vaultkeep/vaultkeep/internal/store"
)

type stubSummarizer struct {
	out string
	err error
}

func (s *stubSummarizer) Summarize(context.Context, string) (string, error) {
	return s.out, s.err
}

func newTestService(t *testing.T, summarizer Summarizer) (*Service, *store.Store) {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "vault.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })

	cipher, err := crypto.NewCipher("test-secret")
	if err != nil {
		t.Fatal(err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	if summarizer == nil {
		summarizer = &stubSummarizer{out: "summary"}
	}
	return NewService(st, cipher, summarizer, logger), st
}

func testOwner(t *testing.T, st *store.Store) int64 {
	t.Helper()
	u, err := st.CreateUser(context.Background(), "Alice", "alice@example.com", "hash")
	if err != nil {
		t.Fatal(err)
	}
	return u.ID
}

func TestCreateAndGetRoundTrip(t *testing.T) {
	svc, st := newTestService(t, nil)
	owner := testOwner(t, st)
	ctx := context.Background()

	created, err := svc.Create(ctx, owner, "Groceries", "milk and eggs", []string{"home"}, false)
	if err != nil {
		t.Fatal(err)
	}
	if created.Body != "milk and eggs" {
		t.Fatalf("created body = %q", created.Body)
	}

	got, err := svc.Get(ctx, created.ID, owner)
	if err != nil {
		t.Fatal(err)
	}
	if got.Body != "milk and eggs" {
		t.Fatalf("decrypted body = %q, want original", got.Body)
	}

	// The stored row must not contain the plaintext.
	raw, err := st.NoteByID(ctx, created.ID, owner)
	if err != nil {
		t.Fatal(err)
	}
	if raw.EncryptedBody == "milk and eggs" || raw.EncryptedBody == "" {
		t.Fatalf("body stored in the clear: %q", raw.EncryptedBody)
	}
}

func TestGetUndecryptableBodyComesBackEmpty(t *testing.T) {
	svc, st := newTestService(t, nil)
	owner := testOwner(t, st)
	ctx := context.Background()

	created, err := svc.Create(ctx, owner, "Secret", "original", nil, false)
	if err != nil {
		t.Fatal(err)
	}

	garbage := "not-a-ciphertext"
	if err := st.UpdateNote(ctx, created.ID, owner, store.NoteUpdate{Body: &garbage}); err != nil {
		t.Fatal(err)
	}

	got, err := svc.Get(ctx, created.ID, owner)
	if err != nil {
		t.Fatalf("expected degraded read, got error: %v", err)
	}
	if got.Body != "" {
		t.Fatalf("body = %q, want empty", got.Body)
	}
	if got.Title != "Secret" {
		t.Fatalf("title = %q", got.Title)
	}
}

func TestListOmitsBodies(t *testing.T) {
	svc, st := newTestService(t, nil)
	owner := testOwner(t, st)
	ctx := context.Background()

	if _, err := svc.Create(ctx, owner, "One", "body one", []string{"a"}, false); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Create(ctx, owner, "Two", "body two", nil, true); err != nil {
		t.Fatal(err)
	}

	items, err := svc.List(ctx, owner)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Fatalf("len = %d, want 2", len(items))
	}
	if items[0].Title != "Two" {
		t.Fatalf("pinned note should list first, got %q", items[0].Title)
	}
}

func TestUpdateReEncryptsBody(t *testing.T) {
	svc, st := newTestService(t, nil)
	owner := testOwner(t, st)
	ctx := context.Background()

	created, err := svc.Create(ctx, owner, "Draft", "v1", nil, false)
	if err != nil {
		t.Fatal(err)
	}

	body := "v2"
	title := "Final"
	updated, err := svc.Update(ctx, created.ID, owner, NoteChanges{Title: &title, Body: &body})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Title != "Final" || updated.Body != "v2" {
		t.Fatalf("updated = %+v", updated)
	}
}

func TestUpdateMissingNote(t *testing.T) {
	svc, st := newTestService(t, nil)
	owner := testOwner(t, st)

	title := "x"
	if _, err := svc.Update(context.Background(), 999, owner, NoteChanges{Title: &title}); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestRelatedRanksByTagOverlap(t *testing.T) {
	svc, st := newTestService(t, nil)
	owner := testOwner(t, st)
	ctx := context.Background()

	src, err := svc.Create(ctx, owner, "Go testing", "", []string{"go", "testing"}, false)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Create(ctx, owner, "Go tips", "", []string{"go", "testing"}, false); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Create(ctx, owner, "Cooking", "", []string{"food"}, false); err != nil {
		t.Fatal(err)
	}

	related, err := svc.Related(ctx, src.ID, owner)
	if err != nil {
		t.Fatal(err)
	}
	if len(related) != 1 {
		t.Fatalf("len = %d, want 1", len(related))
	}
	if related[0].Note.Title != "Go tips" || related[0].Similarity != 1.0 {
		t.Fatalf("related = %+v", related[0])
	}
}

func TestRelatedUntaggedSource(t *testing.T) {
	svc, st := newTestService(t, nil)
	owner := testOwner(t, st)
	ctx := context.Background()

	src, err := svc.Create(ctx, owner, "Untagged", "", nil, false)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Create(ctx, owner, "Tagged", "", []string{"go"}, false); err != nil {
		t.Fatal(err)
	}

	related, err := svc.Related(ctx, src.ID, owner)
	if err != nil {
		t.Fatal(err)
	}
	if len(related) != 0 {
		t.Fatalf("untagged source should have no related notes, got %d", len(related))
	}
}

func TestSummarizeUsesDecryptedBody(t *testing.T) {
	summarizer := &stubSummarizer{out: "short version"}
	svc, st := newTestService(t, summarizer)
	owner := testOwner(t, st)
	ctx := context.Background()

	created, err := svc.Create(ctx, owner, "Long", "a very long body", nil, false)
	if err != nil {
		t.Fatal(err)
	}

	got, err := svc.Summarize(ctx, created.ID, owner)
	if err != nil {
		t.Fatal(err)
	}
	if got != "short version" {
		t.Fatalf("summary = %q", got)
	}
}

func TestSummarizeFailurePropagates(t *testing.T) {
	wantErr := errors.New("model offline")
	svc, st := newTestService(t, &stubSummarizer{err: wantErr})
	owner := testOwner(t, st)
	ctx := context.Background()

	created, err := svc.Create(ctx, owner, "Long", "body", nil, false)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Summarize(ctx, created.ID, owner); !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
}

func TestCrossOwnerAccessDenied(t *testing.T) {
	svc, st := newTestService(t, nil)
	owner := testOwner(t, st)
	ctx := context.Background()

	other, err := st.CreateUser(ctx, "Bob", "bob@example.com", "hash")
	if err != nil {
		t.Fatal(err)
	}

	created, err := svc.Create(ctx, owner, "Mine", "private", nil, false)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Get(ctx, created.ID, other.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("get err = %v, want ErrNotFound", err)
	}
	if err := svc.Delete(ctx, created.ID, other.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("delete err = %v, want ErrNotFound", err)
	}
}
