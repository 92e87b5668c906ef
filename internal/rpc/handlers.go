package rpc

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ragd/ragd/internal/tool"
)

// getString returns a string parameter or def if absent.
func getString(req mcp.CallToolRequest, name, def string) string {
	if v, err := req.RequireString(name); err == nil {
		return v
	}
	return def
}

// getBool returns a boolean parameter or def if absent.
func getBool(req mcp.CallToolRequest, name string, def bool) bool {
	args, ok := req.Params.Arguments.(map[string]any)
	if !ok {
		return def
	}
	if v, ok := args[name].(bool); ok {
		return v
	}
	return def
}

// getInt returns an integer parameter or def, handling JSON's float64 number type.
func getInt(req mcp.CallToolRequest, name string, def int) int {
	args, ok := req.Params.Arguments.(map[string]any)
	if !ok {
		return def
	}
	if v, ok := args[name].(float64); ok {
		return int(v)
	}
	return def
}

// getStrings returns a string-array parameter, or nil if absent or not an array.
func getStrings(req mcp.CallToolRequest, name string) []string {
	args, ok := req.Params.Arguments.(map[string]any)
	if !ok {
		return nil
	}
	raw, ok := args[name].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// getMetadata returns an object-valued parameter as a map, or nil.
func getMetadata(req mcp.CallToolRequest, name string) map[string]any {
	args, ok := req.Params.Arguments.(map[string]any)
	if !ok {
		return nil
	}
	if m, ok := args[name].(map[string]any); ok {
		return m
	}
	return nil
}

// jsonResult wraps a value as an MCP text result with pretty-printed JSON.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := marshalIndent(v)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (h *handlers) search(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query is required"), nil //nolint:nilerr
	}
	limit := getInt(req, "limit", 0)
	useSemantic := getBool(req, "use_semantic", true)

	res, err := h.disp.Search(ctx, query, limit, useSemantic)
	h.log.Info("search", "query", query, "total", res.Total, "error", errString(err))
	if err != nil {
		return toolError(err)
	}
	return jsonResult(res)
}

func (h *handlers) searchByTags(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tags := getStrings(req, "tags")
	limit := getInt(req, "limit", 0)

	res, err := h.disp.SearchByTags(tags, limit)
	h.log.Info("search_by_tags", "tags", tags, "total", res.Total, "error", errString(err))
	if err != nil {
		return toolError(err)
	}
	return jsonResult(res)
}

func (h *handlers) searchByCategory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	category, err := req.RequireString("category")
	if err != nil {
		return mcp.NewToolResultError("category is required"), nil //nolint:nilerr
	}
	limit := getInt(req, "limit", 0)

	res, err := h.disp.SearchByCategory(category, limit)
	h.log.Info("search_by_category", "category", category, "total", res.Total, "error", errString(err))
	if err != nil {
		return toolError(err)
	}
	return jsonResult(res)
}

func (h *handlers) add(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError("title is required"), nil //nolint:nilerr
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError("content is required"), nil //nolint:nilerr
	}

	res, err := h.disp.Add(ctx, tool.AddParams{
		Title:    title,
		Content:  content,
		Type:     getString(req, "type", ""),
		Source:   getString(req, "source", ""),
		Category: getString(req, "category", ""),
		Tags:     getStrings(req, "tags"),
		Metadata: getMetadata(req, "metadata"),
	})
	h.log.Info("add", "title", title, "deduplicated", res.Deduplicated, "error", errString(err))
	if err != nil {
		return toolError(err)
	}
	return jsonResult(res)
}

func (h *handlers) update(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id is required"), nil //nolint:nilerr
	}

	p := tool.UpdateParams{ID: id, Metadata: getMetadata(req, "metadata")}
	if v, err := req.RequireString("title"); err == nil {
		p.Title = &v
	}
	if v, err := req.RequireString("content"); err == nil {
		p.Content = &v
	}
	if v, err := req.RequireString("category"); err == nil {
		p.Category = &v
	}
	if tags := getStrings(req, "tags"); tags != nil {
		p.Tags = &tags
	}

	ok, err := h.disp.Update(ctx, p)
	h.log.Info("update", "id", id, "success", ok, "error", errString(err))
	if err != nil {
		return toolError(err)
	}
	return jsonResult(map[string]bool{"success": ok})
}

func (h *handlers) remove(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id is required"), nil //nolint:nilerr
	}

	ok, err := h.disp.Remove(id)
	h.log.Info("remove", "id", id, "success", ok, "error", errString(err))
	if err != nil {
		return toolError(err)
	}
	return jsonResult(map[string]bool{"success": ok})
}

func (h *handlers) list(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res := h.disp.List(tool.ListParams{
		Category: getString(req, "category", ""),
		Tags:     getStrings(req, "tags"),
		Source:   getString(req, "source", ""),
	})
	h.log.Info("list", "total", res.Total)
	return jsonResult(res)
}

func (h *handlers) stats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res := h.disp.Stats()
	h.log.Info("stats", "total_documents", res.TotalDocuments)
	return jsonResult(res)
}

// errString renders err for structured logging, empty when nil.
func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// toolError maps a dispatcher error to an MCP tool error result. NotFound
// outcomes never reach here: Dispatcher methods return (false, nil) for
// unknown ids, surfaced by the caller as {success:false}.
func toolError(err error) (*mcp.CallToolResult, error) {
	switch err.(type) {
	case tool.ErrInvalidParams:
		return mcp.NewToolResultError(err.Error()), nil
	default:
		return mcp.NewToolResultError(err.Error()), nil
	}
}
