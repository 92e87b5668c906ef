// Package rpc implements the RPC Server (C5): a line-delimited JSON-RPC 2.0
// / MCP server over stdio, registering the fixed eight-tool catalogue
// against internal/tool.Dispatcher.
package rpc

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ragd/ragd/internal/tool"
)

// handlers wires MCP tool calls to the dispatcher. All fields are
// immutable after construction; the dispatcher itself carries no lock and
// delegates every call through to the retrieval engine.
type handlers struct {
	log  *slog.Logger
	disp *tool.Dispatcher
}

// Serve starts the MCP server over stdio. name/version identify the server
// during MCP's initialize handshake.
func Serve(ctx context.Context, log *slog.Logger, disp *tool.Dispatcher, name, version string) error {
	h := &handlers{log: log, disp: disp}

	s := server.NewMCPServer(
		name,
		version,
		server.WithToolCapabilities(false),
	)

	registerTools(s, h)

	log.Info("rpc server ready", "name", name, "version", version, "transport", "stdio")

	err := server.ServeStdio(s)
	if errors.Is(err, context.Canceled) {
		log.Info("rpc server stopped")
		return nil
	}
	return err
}

// registerTools exposes the fixed eight-operation catalogue as MCP tools.
func registerTools(s *server.MCPServer, h *handlers) {
	s.AddTool(
		mcp.NewTool("search",
			mcp.WithDescription("Rank documents against a query via the dense/sparse/substring cascade"),
			mcp.WithString("query", mcp.Required(), mcp.Description("Search query")),
			mcp.WithNumber("limit", mcp.Description("Maximum results (default 5)")),
			mcp.WithBoolean("use_semantic", mcp.Description("Allow the dense embedding tier to run (default true)")),
		),
		h.search,
	)

	s.AddTool(
		mcp.NewTool("search_by_tags",
			mcp.WithDescription("Return documents carrying any of the given tags"),
			mcp.WithArray("tags", mcp.Required(), mcp.Description("Tags to match (union)")),
			mcp.WithNumber("limit", mcp.Description("Maximum results (default 10)")),
		),
		h.searchByTags,
	)

	s.AddTool(
		mcp.NewTool("search_by_category",
			mcp.WithDescription("Return documents in the given category"),
			mcp.WithString("category", mcp.Required(), mcp.Description("Category to match")),
			mcp.WithNumber("limit", mcp.Description("Maximum results (default 10)")),
		),
		h.searchByCategory,
	)

	s.AddTool(
		mcp.NewTool("add",
			mcp.WithDescription("Ingest a document, deduplicating by content hash when enabled"),
			mcp.WithString("title", mcp.Required(), mcp.Description("Document title")),
			mcp.WithString("content", mcp.Required(), mcp.Description("Document content")),
			mcp.WithString("type", mcp.Description("Document type (text, webpage, documentation, code, markdown, chat)")),
			mcp.WithString("source", mcp.Description("Origin of the document")),
			mcp.WithString("category", mcp.Description("Category (default uncategorized)")),
			mcp.WithArray("tags", mcp.Description("Tags")),
		),
		h.add,
	)

	s.AddTool(
		mcp.NewTool("update",
			mcp.WithDescription("Patch a document by id or legacy id"),
			mcp.WithString("id", mcp.Required(), mcp.Description("Document id (canonical or legacy)")),
			mcp.WithString("title", mcp.Description("New title")),
			mcp.WithString("content", mcp.Description("New content")),
			mcp.WithArray("tags", mcp.Description("Replacement tag set")),
			mcp.WithString("category", mcp.Description("New category")),
		),
		h.update,
	)

	s.AddTool(
		mcp.NewTool("remove",
			mcp.WithDescription("Delete a document by id or legacy id"),
			mcp.WithString("id", mcp.Required(), mcp.Description("Document id (canonical or legacy)")),
		),
		h.remove,
	)

	s.AddTool(
		mcp.NewTool("list",
			mcp.WithDescription("List document summaries, optionally filtered"),
			mcp.WithString("category", mcp.Description("Filter by category")),
			mcp.WithArray("tags", mcp.Description("Filter by tags (any match)")),
			mcp.WithString("source", mcp.Description("Filter by source substring")),
		),
		h.list,
	)

	s.AddTool(
		mcp.NewTool("stats",
			mcp.WithDescription("Return store and index statistics"),
		),
		h.stats,
	)
}
