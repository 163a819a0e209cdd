// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes vault tools for LLM integration via stdio transport.
//
// The server is bound to a single account chosen at startup; every tool call
// runs with that account's scope, the same as an authenticated API request.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/vaultkeep/vaultkeep/internal/docservice"
	"github.com/vaultkeep/vaultkeep/internal/noteservice"
	"github.com/vaultkeep/vaultkeep/internal/searchservice"
)

// Server wraps the MCP server with vault tools.
type Server struct {
	mcp     *server.MCPServer
	notes   *noteservice.Service
	docs    *docservice.Service
	search  *searchservice.Service
	ownerID int64
}

// New creates an MCP server with all vault tools registered, scoped to the
// given account.
func New(notes *noteservice.Service, docs *docservice.Service, search *searchservice.Service, ownerID int64) *Server {
	s := &Server{notes: notes, docs: docs, search: search, ownerID: ownerID}

	s.mcp = server.NewMCPServer(
		"VaultKeep",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search",
		mcp.WithDescription("Relevance search across note titles, tags, and document summaries."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchVault)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read a note including its decrypted body."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Numeric note id")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List all notes, pinned first. Bodies are not included."),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List all uploaded documents with their summaries, newest first."),
	), s.listDocuments)

	s.mcp.AddTool(mcp.NewTool("document_summary",
		mcp.WithDescription("Get the enrichment summary of one document."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Numeric document id")),
	), s.documentSummary)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func requireID(req mcp.CallToolRequest) (int64, error) {
	raw, err := req.RequireString("id")
	if err != nil {
		return 0, err
	}
	var id int64
	if _, err := fmt.Sscanf(strings.TrimSpace(raw), "%d", &id); err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id: %q", raw)
	}
	return id, nil
}

func (s *Server) searchVault(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.search.Search(ctx, s.ownerID, query, searchservice.Options{})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.notes.Get(ctx, id, s.ownerID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("note not found: %d", id)), nil
	}
	out, _ := json.MarshalIndent(note, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listNotes(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, err := s.notes.List(ctx, s.ownerID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(items, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listDocuments(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docs, err := s.docs.List(ctx, s.ownerID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(docs, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) documentSummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := s.docs.Get(ctx, id, s.ownerID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("document not found: %d", id)), nil
	}
	if doc.Summary == "" {
		return mcp.NewToolResultText("document has not been summarized yet"), nil
	}
	return mcp.NewToolResultText(doc.Summary), nil
}
