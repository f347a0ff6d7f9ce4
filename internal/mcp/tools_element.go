package mcpserver

import (
	"context"
	"fmt"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"

	"pagebuilder/internal/domain"
	"pagebuilder/internal/geometry"
)

func (s *Server) registerElementTools() {
	// ── list_kinds ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_kinds",
		mcp.WithDescription("List the element kinds with their container and filter traits"),
	), s.handleListKinds)

	// ── add_element ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("add_element",
		mcp.WithDescription("Add an element at the root of a page. Position is auto-calculated if not provided."),
		mcp.WithString("kind", mcp.Description("Element kind, see list_kinds"), mcp.Required()),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
		mcp.WithNumber("x", mcp.Description("X position (optional, auto-layout if omitted)")),
		mcp.WithNumber("y", mcp.Description("Y position (optional, auto-layout if omitted)")),
		mcp.WithString("properties", mcp.Description("JSON object merged into the default properties (optional)")),
	), s.handleAddElement)

	// ── add_child ──────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("add_child",
		mcp.WithDescription("Add an element inside a container element"),
		mcp.WithString("containerId", mcp.Description("Container element ID"), mcp.Required()),
		mcp.WithString("kind", mcp.Description("Element kind"), mcp.Required()),
		mcp.WithNumber("x", mcp.Description("X position inside the container")),
		mcp.WithNumber("y", mcp.Description("Y position inside the container")),
	), s.handleAddChild)

	// ── get_element ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("get_element",
		mcp.WithDescription("Return one element with its properties"),
		mcp.WithString("elementId", mcp.Description("Element ID"), mcp.Required()),
	), s.handleGetElement)

	// ── update_element ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("update_element",
		mcp.WithDescription("Patch an element. Properties are merged one level deep; style replaces the style."),
		mcp.WithString("elementId", mcp.Description("Element ID"), mcp.Required()),
		mcp.WithString("properties", mcp.Description("JSON object of properties to merge")),
		mcp.WithString("style", mcp.Description("JSON style object")),
		mcp.WithBoolean("visible", mcp.Description("Show or hide the element")),
		mcp.WithBoolean("locked", mcp.Description("Lock or unlock the element")),
	), s.handleUpdateElement)

	// ── move_element ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("move_element",
		mcp.WithDescription("Move an element. The position snaps to the grid and stays inside its canvas."),
		mcp.WithString("elementId", mcp.Description("Element ID"), mcp.Required()),
		mcp.WithNumber("x", mcp.Description("New X position"), mcp.Required()),
		mcp.WithNumber("y", mcp.Description("New Y position"), mcp.Required()),
	), s.handleMoveElement)

	// ── resize_element ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("resize_element",
		mcp.WithDescription("Resize an element from its bottom-right corner, within its size constraints"),
		mcp.WithString("elementId", mcp.Description("Element ID"), mcp.Required()),
		mcp.WithNumber("width", mcp.Description("New width"), mcp.Required()),
		mcp.WithNumber("height", mcp.Description("New height"), mcp.Required()),
	), s.handleResizeElement)

	// ── delete_element (destructive) ───────────────────
	s.mcp.AddTool(mcp.NewTool("delete_element",
		mcp.WithDescription("Delete an element with its children and every connection touching them"),
		mcp.WithString("elementId", mcp.Description("Element ID"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeleteElement)
}

type kindSummary struct {
	Kind          domain.Kind `json:"kind"`
	Container     bool        `json:"container,omitempty"`
	FilterCapable bool        `json:"filterCapable,omitempty"`
	Emits         bool        `json:"emits,omitempty"`
}

func (s *Server) handleListKinds(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kinds := domain.Kinds()
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	out := make([]kindSummary, len(kinds))
	for i, k := range kinds {
		spec := domain.LookupKind(k)
		out[i] = kindSummary{Kind: k, Container: spec.Container, FilterCapable: spec.FilterCapable, Emits: spec.Emits}
	}
	return jsonResult(out)
}

func (s *Server) handleAddElement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind := domain.Kind(req.GetString("kind", ""))
	if kind == "" {
		return nil, fmt.Errorf("kind is required")
	}
	pageID, err := s.resolvePageID(req)
	if err != nil {
		return nil, err
	}
	var props domain.Properties
	if _, err := optionalJSON(req, "properties", &props); err != nil {
		return nil, err
	}

	args := req.GetArguments()
	_, hasX := args["x"]
	_, hasY := args["y"]
	var pos domain.Position
	if hasX && hasY {
		pos = domain.Position{X: req.GetFloat("x", 0), Y: req.GetFloat("y", 0)}
	} else {
		pos, err = s.autoPosition(pageID)
		if err != nil {
			return nil, err
		}
	}

	id, err := s.editor.AddElement(pageID, kind, pos)
	if err != nil {
		return nil, err
	}
	if len(props) > 0 {
		if err := s.editor.UpdateElement(id, domain.ElementPatch{Properties: props}); err != nil {
			return nil, err
		}
	}
	s.activePageID = pageID
	return jsonResult(map[string]any{"elementId": id, "position": pos})
}

// autoPosition finds a free spot for a default-sized element on a page.
func (s *Server) autoPosition(pageID string) (domain.Position, error) {
	doc := s.editor.Document()
	page, ok := doc.Page(pageID)
	if !ok {
		return domain.Position{}, fmt.Errorf("page %s: %w", pageID, domain.ErrPageNotFound)
	}
	existing := make([]*domain.Element, 0, len(page.ElementIDs))
	for _, id := range page.ElementIDs {
		if el, ok := doc.Element(id); ok {
			existing = append(existing, el)
		}
	}
	return s.layout.NextPosition(existing, domain.DefaultSize, page.Settings.Width), nil
}

func (s *Server) handleAddChild(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	containerID := req.GetString("containerId", "")
	kind := domain.Kind(req.GetString("kind", ""))
	if containerID == "" || kind == "" {
		return nil, fmt.Errorf("containerId and kind are required")
	}
	pos := domain.Position{X: req.GetFloat("x", 0), Y: req.GetFloat("y", 0)}
	id, err := s.editor.AddChild(containerID, kind, pos)
	if err != nil {
		return nil, err
	}
	return jsonResult(map[string]string{"elementId": id})
}

func (s *Server) handleGetElement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	el, err := s.elementForTool(req)
	if err != nil {
		return nil, err
	}
	return jsonResult(el)
}

func (s *Server) handleUpdateElement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	el, err := s.elementForTool(req)
	if err != nil {
		return nil, err
	}
	var patch domain.ElementPatch
	if _, err := optionalJSON(req, "properties", &patch.Properties); err != nil {
		return nil, err
	}
	var style domain.Style
	if ok, err := optionalJSON(req, "style", &style); err != nil {
		return nil, err
	} else if ok {
		patch.Style = &style
	}
	args := req.GetArguments()
	if _, ok := args["visible"]; ok {
		patch.Visible = boolPtr(req.GetBool("visible", true))
	}
	if _, ok := args["locked"]; ok {
		patch.Locked = boolPtr(req.GetBool("locked", false))
	}
	if err := s.editor.UpdateElement(el.ID, patch); err != nil {
		return nil, err
	}
	return textResult(fmt.Sprintf("Element %s updated", el.ID)), nil
}

// handleMoveElement runs a drag gesture from the element's origin so the
// move snaps, clamps and lands in history as one step.
func (s *Server) handleMoveElement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	el, err := s.elementForTool(req)
	if err != nil {
		return nil, err
	}
	target := domain.Position{X: req.GetFloat("x", el.Position.X), Y: req.GetFloat("y", el.Position.Y)}
	if err := s.gesture(func() error { return s.editor.BeginDrag(el.ID, el.Position) }, target); err != nil {
		return nil, err
	}
	moved, err := s.currentElement(el.ID)
	if err != nil {
		return nil, err
	}
	return jsonResult(moved.Position)
}

func (s *Server) handleResizeElement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	el, err := s.elementForTool(req)
	if err != nil {
		return nil, err
	}
	corner := domain.Position{X: el.Position.X + el.Size.Width, Y: el.Position.Y + el.Size.Height}
	target := domain.Position{
		X: el.Position.X + req.GetFloat("width", el.Size.Width),
		Y: el.Position.Y + req.GetFloat("height", el.Size.Height),
	}
	begin := func() error { return s.editor.BeginResize(el.ID, geometry.HandleSE, corner) }
	if err := s.gesture(begin, target); err != nil {
		return nil, err
	}
	resized, err := s.currentElement(el.ID)
	if err != nil {
		return nil, err
	}
	return jsonResult(resized.Size)
}

func (s *Server) gesture(begin func() error, pointer domain.Position) error {
	if err := begin(); err != nil {
		return err
	}
	if err := s.editor.MoveGesture(pointer); err != nil {
		_ = s.editor.CancelGesture()
		return err
	}
	return s.editor.EndGesture()
}

func (s *Server) handleDeleteElement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	el, err := s.elementForTool(req)
	if err != nil {
		return nil, err
	}
	removed, err := s.editor.DeleteElement(el.ID)
	if err != nil {
		return nil, err
	}
	return jsonResult(map[string]any{"removed": removed})
}
