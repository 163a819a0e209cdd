package mcpserver

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/vaultkeep/vaultkeep/internal/crypto"
	"github.com/vaultkeep/vaultkeep/internal/docservice"
	"github.com/vaultkeep/vaultkeep/internal/enrich"
	"github.com/vaultkeep/vaultkeep/internal/extract"
	"github.com/vaultkeep/vaultkeep/internal/noteservice"
	"github.com/vaultkeep/vaultkeep/internal/searchservice"
	"github.com/vaultkeep/vaultkeep/internal/storage"
	"github.com/vaultkeep/vaultkeep/internal/store"
)

type echoSummarizer struct{}

func (echoSummarizer) Summarize(_ context.Context, text string) (string, error) {
	return text, nil
}

type passthroughExpander struct{}

func (passthroughExpander) ExpandQuery(_ context.Context, query string) []string {
	return []string{query}
}

func testServer(t *testing.T) (*Server, *noteservice.Service) {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "vault.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })

	owner, err := st.CreateUser(context.Background(), "Alice", "alice@example.com", "hash")
	if err != nil {
		t.Fatal(err)
	}

	cipher, err := crypto.NewCipher("mcp-test-secret")
	if err != nil {
		t.Fatal(err)
	}
	uploads, err := storage.NewUploads(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	pipeline := enrich.New(st, echoSummarizer{}, extract.FromFile, 1, logger)

	notes := noteservice.NewService(st, cipher, echoSummarizer{}, logger)
	docs := docservice.NewService(st, uploads, pipeline)
	search := searchservice.NewService(st, passthroughExpander{})

	return New(notes, docs, search, owner.ID), notes
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	var result *mcp.CallToolResult
	var err error

	switch name {
	case "search":
		result, err = srv.searchVault(ctx, req)
	case "read_note":
		result, err = srv.readNote(ctx, req)
	case "list_notes":
		result, err = srv.listNotes(ctx, req)
	case "list_documents":
		result, err = srv.listDocuments(ctx, req)
	case "document_summary":
		result, err = srv.documentSummary(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestReadNoteDecryptsBody(t *testing.T) {
	srv, notes := testServer(t)

	created, err := notes.Create(context.Background(), srv.ownerID, "Plan", "ship it", []string{"work"}, false)
	if err != nil {
		t.Fatal(err)
	}

	r := callTool(t, srv, "read_note", map[string]interface{}{"id": strconv.FormatInt(created.ID, 10)})
	if r.IsError {
		t.Fatalf("read_note errored: %s", resultText(r))
	}
	text := resultText(r)
	if !strings.Contains(text, `"body": "ship it"`) {
		t.Errorf("read result missing body: %q", text)
	}
}

func TestReadNoteMissing(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "read_note", map[string]interface{}{"id": "999"})
	if !r.IsError {
		t.Error("expected error for missing note")
	}
}

func TestReadNoteInvalidID(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "read_note", map[string]interface{}{"id": "abc"})
	if !r.IsError {
		t.Error("expected error for non-numeric id")
	}
}

func TestListNotes(t *testing.T) {
	srv, notes := testServer(t)

	ctx := context.Background()
	if _, err := notes.Create(ctx, srv.ownerID, "One", "", nil, false); err != nil {
		t.Fatal(err)
	}
	if _, err := notes.Create(ctx, srv.ownerID, "Two", "", nil, false); err != nil {
		t.Fatal(err)
	}

	r := callTool(t, srv, "list_notes", map[string]interface{}{})
	text := resultText(r)
	if !strings.Contains(text, "One") || !strings.Contains(text, "Two") {
		t.Errorf("list = %q", text)
	}
}

func TestSearchTool(t *testing.T) {
	srv, notes := testServer(t)

	if _, err := notes.Create(context.Background(), srv.ownerID, "react hooks", "", []string{"react"}, false); err != nil {
		t.Fatal(err)
	}

	r := callTool(t, srv, "search", map[string]interface{}{"query": "react hooks"})
	if r.IsError {
		t.Fatalf("search errored: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), "react hooks") {
		t.Errorf("search result = %q", resultText(r))
	}

	r = callTool(t, srv, "search", map[string]interface{}{"query": "  "})
	if !r.IsError {
		t.Error("expected error for blank query")
	}
}

func TestDocumentSummaryBeforeEnrichment(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "document_summary", map[string]interface{}{"id": "1"})
	if !r.IsError {
		t.Error("expected error for missing document")
	}
}
