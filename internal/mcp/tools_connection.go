package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"pagebuilder/internal/bus"
	"pagebuilder/internal/domain"
	"pagebuilder/internal/selection"
)

func (s *Server) registerConnectionTools() {
	// ── selection ──────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("select_element",
		mcp.WithDescription("Select exactly one element"),
		mcp.WithString("elementId", mcp.Description("Element ID"), mcp.Required()),
	), s.handleSelectElement)

	s.mcp.AddTool(mcp.NewTool("toggle_selection",
		mcp.WithDescription("Add an element to, or remove it from, the multi-selection. The first two selected elements are the connect candidates."),
		mcp.WithString("elementIds", mcp.Description("Comma-separated element IDs, toggled in order"), mcp.Required()),
	), s.handleToggleSelection)

	s.mcp.AddTool(mcp.NewTool("clear_selection",
		mcp.WithDescription("Clear the selection"),
	), s.handleClearSelection)

	// ── connect_selected ───────────────────────────────
	s.mcp.AddTool(mcp.NewTool("connect_selected",
		mcp.WithDescription("Connect the first two multi-selected elements"),
		mcp.WithString("type", mcp.Description("filter, data, cart or navigate"), mcp.Required()),
		mcp.WithString("direction", mcp.Description("forward (first to second, default) or backward")),
		mcp.WithString("sourceProperty", mcp.Description("Source property (optional)")),
		mcp.WithString("targetProperty", mcp.Description("Target property (optional)")),
		mcp.WithString("description", mcp.Description("Description (optional)")),
	), s.handleConnectSelected)

	// ── create_connection ──────────────────────────────
	s.mcp.AddTool(mcp.NewTool("create_connection",
		mcp.WithDescription("Connect a source element to a target element"),
		mcp.WithString("sourceId", mcp.Description("Source element ID"), mcp.Required()),
		mcp.WithString("targetId", mcp.Description("Target element ID"), mcp.Required()),
		mcp.WithString("type", mcp.Description("filter, data, cart or navigate"), mcp.Required()),
		mcp.WithString("sourceProperty", mcp.Description("Source property (optional)")),
		mcp.WithString("targetProperty", mcp.Description("Target property (optional)")),
		mcp.WithString("description", mcp.Description("Description (optional)")),
	), s.handleCreateConnection)

	// ── update_connection ──────────────────────────────
	s.mcp.AddTool(mcp.NewTool("update_connection",
		mcp.WithDescription("Change the type, properties, description or active flag of a connection"),
		mcp.WithString("connectionId", mcp.Description("Connection ID"), mcp.Required()),
		mcp.WithString("patch", mcp.Description(`JSON object {"connectionType","sourceProperty","targetProperty","description","isActive"}`), mcp.Required()),
	), s.handleUpdateConnection)

	// ── delete_connection ──────────────────────────────
	s.mcp.AddTool(mcp.NewTool("delete_connection",
		mcp.WithDescription("Delete a connection"),
		mcp.WithString("connectionId", mcp.Description("Connection ID"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeleteConnection)

	// ── list_connections ───────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_connections",
		mcp.WithDescription("List connections, optionally only those touching one element"),
		mcp.WithString("elementId", mcp.Description("Element ID (optional)")),
	), s.handleListConnections)

	// ── propagation ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("set_filter_value",
		mcp.WithDescription("Select a value on a filter element and propagate it to connected elements"),
		mcp.WithString("elementId", mcp.Description("Filter element ID"), mcp.Required()),
		mcp.WithString("value", mcp.Description("Selected value; empty clears the filter")),
	), s.handleSetFilterValue)

	s.mcp.AddTool(mcp.NewTool("emit_value",
		mcp.WithDescription("Propagate a value from an element along its active outgoing connections"),
		mcp.WithString("elementId", mcp.Description("Source element ID"), mcp.Required()),
		mcp.WithString("value", mcp.Description("Value to propagate"), mcp.Required()),
		mcp.WithString("propertyName", mcp.Description("Property name carried with the value (optional)")),
	), s.handleEmitValue)

	s.mcp.AddTool(mcp.NewTool("get_effective_value",
		mcp.WithDescription("Resolve the value a filter element currently shows and where it comes from"),
		mcp.WithString("elementId", mcp.Description("Filter element ID"), mcp.Required()),
	), s.handleGetEffectiveValue)

	// ── refresh_catalog ────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("refresh_catalog",
		mcp.WithDescription("Reload the catalog data a filter, product list or catalog tree element displays"),
		mcp.WithString("elementId", mcp.Description("Element ID"), mcp.Required()),
	), s.handleRefreshCatalog)
}

func connectionOptions(req mcp.CallToolRequest) domain.ConnectionOptions {
	return domain.ConnectionOptions{
		SourceProperty: req.GetString("sourceProperty", ""),
		TargetProperty: req.GetString("targetProperty", ""),
		Description:    req.GetString("description", ""),
	}
}

func (s *Server) handleSelectElement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.editor.SelectSingle(req.GetString("elementId", "")); err != nil {
		return nil, err
	}
	return jsonResult(s.editor.Selection())
}

func (s *Server) handleToggleSelection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids := splitIDs(req.GetString("elementIds", ""))
	if len(ids) == 0 {
		return nil, fmt.Errorf("elementIds is required")
	}
	for _, id := range ids {
		if err := s.editor.Toggle(id); err != nil {
			return nil, err
		}
	}
	return jsonResult(s.editor.Selection())
}

func (s *Server) handleClearSelection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.editor.SelectNone()
	return textResult("Selection cleared"), nil
}

func (s *Server) handleConnectSelected(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dir := selection.Direction(req.GetString("direction", string(selection.Forward)))
	typ := domain.ConnectionType(req.GetString("type", ""))
	c, err := s.editor.ConnectSelected(dir, typ, connectionOptions(req))
	if err != nil {
		return nil, err
	}
	return jsonResult(c)
}

func (s *Server) handleCreateConnection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	src, dst := req.GetString("sourceId", ""), req.GetString("targetId", "")
	if src == "" || dst == "" {
		return nil, fmt.Errorf("sourceId and targetId are required")
	}
	c, err := s.editor.CreateConnection(src, dst, domain.ConnectionType(req.GetString("type", "")), connectionOptions(req))
	if err != nil {
		return nil, err
	}
	return jsonResult(c)
}

func (s *Server) handleUpdateConnection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("connectionId", "")
	var patch domain.ConnectionPatch
	if ok, err := optionalJSON(req, "patch", &patch); err != nil {
		return nil, err
	} else if !ok {
		return nil, fmt.Errorf("patch is required")
	}
	if err := s.editor.UpdateConnection(id, patch); err != nil {
		return nil, err
	}
	c, _ := s.editor.Document().Connection(id)
	return jsonResult(c)
}

func (s *Server) handleDeleteConnection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.editor.DeleteConnection(req.GetString("connectionId", "")); err != nil {
		return nil, err
	}
	return textResult("Connection deleted"), nil
}

func (s *Server) handleListConnections(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if id := req.GetString("elementId", ""); id != "" {
		return jsonResult(s.editor.Connections(id))
	}
	return jsonResult(s.editor.Document().Connections)
}

func (s *Server) handleSetFilterValue(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	el, err := s.elementForTool(req)
	if err != nil {
		return nil, err
	}
	report, err := s.editor.SetFilterValue(el.ID, req.GetString("value", ""))
	if err != nil {
		return nil, err
	}
	return jsonResult(report)
}

func (s *Server) handleEmitValue(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	el, err := s.elementForTool(req)
	if err != nil {
		return nil, err
	}
	report, err := s.editor.Emit(el.ID, bus.Payload{
		PropertyName: req.GetString("propertyName", ""),
		Value:        req.GetString("value", ""),
	})
	if err != nil {
		return nil, err
	}
	return jsonResult(report)
}

func (s *Server) handleGetEffectiveValue(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	eff, err := s.editor.EffectiveValue(req.GetString("elementId", ""))
	if err != nil {
		return nil, err
	}
	return jsonResult(eff)
}

func (s *Server) handleRefreshCatalog(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.catalog == nil {
		return nil, fmt.Errorf("no catalog configured")
	}
	el, err := s.elementForTool(req)
	if err != nil {
		return nil, err
	}
	if err := s.catalog.Refresh(ctx, el.ID); err != nil {
		return nil, err
	}
	refreshed, _ := s.editor.Element(el.ID)
	return jsonResult(refreshed.Properties)
}
