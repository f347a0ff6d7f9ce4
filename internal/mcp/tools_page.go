package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"pagebuilder/internal/domain"
)

func (s *Server) registerPageTools() {
	// ── list_pages ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_pages",
		mcp.WithDescription("List the pages of the open document"),
	), s.handleListPages)

	// ── add_page ───────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("add_page",
		mcp.WithDescription("Append a page and make it active"),
		mcp.WithString("name", mcp.Description("Page name"), mcp.Required()),
	), s.handleAddPage)

	// ── rename_page ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("rename_page",
		mcp.WithDescription("Rename a page; its slug follows the name"),
		mcp.WithString("pageId", mcp.Description("Page ID"), mcp.Required()),
		mcp.WithString("name", mcp.Description("New name"), mcp.Required()),
	), s.handleRenamePage)

	// ── update_page_settings ───────────────────────────
	s.mcp.AddTool(mcp.NewTool("update_page_settings",
		mcp.WithDescription("Replace the canvas settings of a page"),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
		mcp.WithString("settings",
			mcp.Description(`JSON object {"width","height","backgroundColor","padding","margin"}`),
			mcp.Required(),
		),
	), s.handleUpdatePageSettings)

	// ── duplicate_page ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("duplicate_page",
		mcp.WithDescription("Copy a page with all its elements"),
		mcp.WithString("pageId", mcp.Description("Page ID"), mcp.Required()),
	), s.handleDuplicatePage)

	// ── delete_page (destructive) ──────────────────────
	s.mcp.AddTool(mcp.NewTool("delete_page",
		mcp.WithDescription("Delete a page with its elements and their connections. The last page cannot be deleted."),
		mcp.WithString("pageId", mcp.Description("Page ID"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeletePage)

	// ── set_active_page ────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("set_active_page",
		mcp.WithDescription("Set the active page for subsequent tool calls. Tools that accept pageId will default to this."),
		mcp.WithString("pageId", mcp.Description("ID of the page to make active"), mcp.Required()),
	), s.handleSetActivePage)

	// ── list_templates / apply_template ────────────────
	s.mcp.AddTool(mcp.NewTool("list_templates",
		mcp.WithDescription("List the built-in page templates"),
	), s.handleListTemplates)

	s.mcp.AddTool(mcp.NewTool("apply_template",
		mcp.WithDescription("Build a page from a template and make it active. With replace=true every other page is removed."),
		mcp.WithString("template", mcp.Description("Built-in template key (see list_templates)")),
		mcp.WithString("templateJson",
			mcp.Description(`Custom template as JSON {"name","elements":[{"ref","kind","position","size","properties","children"}],"connections":[{"from","to","connectionType","sourceProperty","targetProperty"}]}`),
		),
		mcp.WithBoolean("replace", mcp.Description("Replace all existing pages (default false)")),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleApplyTemplate)

	// ── get_page_state ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("get_page_state",
		mcp.WithDescription("Return a page with its nested element tree and connections"),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
	), s.handleGetPageState)
}

type pageSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	Elements int    `json:"rootElements"`
	Active   bool   `json:"active,omitempty"`
}

func (s *Server) handleListPages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc := s.editor.Document()
	out := make([]pageSummary, len(doc.Pages))
	for i, p := range doc.Pages {
		out[i] = pageSummary{ID: p.ID, Name: p.Name, Slug: p.Slug, Elements: len(p.ElementIDs), Active: p.ID == s.activePageID}
	}
	return jsonResult(out)
}

func (s *Server) handleAddPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.GetString("name", "")
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}
	id, err := s.editor.AddPage(name)
	if err != nil {
		return nil, err
	}
	s.activePageID = id
	return jsonResult(map[string]string{"pageId": id})
}

func (s *Server) handleRenamePage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, name := req.GetString("pageId", ""), req.GetString("name", "")
	if id == "" || name == "" {
		return nil, fmt.Errorf("pageId and name are required")
	}
	if err := s.editor.RenamePage(id, name); err != nil {
		return nil, err
	}
	return textResult(fmt.Sprintf("Renamed page %s to %q", id, name)), nil
}

func (s *Server) handleUpdatePageSettings(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageID, err := s.resolvePageID(req)
	if err != nil {
		return nil, err
	}
	var settings domain.PageSettings
	if ok, err := optionalJSON(req, "settings", &settings); err != nil {
		return nil, err
	} else if !ok {
		return nil, fmt.Errorf("settings is required")
	}
	if err := s.editor.UpdatePage(pageID, domain.PagePatch{Settings: &settings}); err != nil {
		return nil, err
	}
	return textResult("Page settings updated"), nil
}

func (s *Server) handleDuplicatePage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("pageId", "")
	if id == "" {
		return nil, fmt.Errorf("pageId is required")
	}
	copyID, err := s.editor.DuplicatePage(id)
	if err != nil {
		return nil, err
	}
	return jsonResult(map[string]string{"pageId": copyID})
}

func (s *Server) handleDeletePage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("pageId", "")
	if id == "" {
		return nil, fmt.Errorf("pageId is required")
	}
	if err := s.editor.DeletePage(id); err != nil {
		return nil, err
	}
	if s.activePageID == id {
		s.activePageID = ""
	}
	return textResult("Page deleted"), nil
}

func (s *Server) handleSetActivePage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("pageId", "")
	if _, ok := s.editor.Document().Page(id); !ok {
		return nil, fmt.Errorf("page %s: %w", id, domain.ErrPageNotFound)
	}
	s.activePageID = id
	return textResult(fmt.Sprintf("Active page set to %s", id)), nil
}

func (s *Server) handleGetPageState(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageID, err := s.resolvePageID(req)
	if err != nil {
		return nil, err
	}
	state, err := s.editor.PageState(pageID)
	if err != nil {
		return nil, err
	}
	return jsonResult(state)
}

type templateSummary struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Elements    int    `json:"elements"`
}

func (s *Server) handleListTemplates(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var out []templateSummary
	for _, key := range domain.TemplateKeys() {
		t, _ := domain.LookupTemplate(key)
		out = append(out, templateSummary{Key: key, Name: t.Name, Description: t.Description, Elements: len(t.Elements)})
	}
	return jsonResult(out)
}

func (s *Server) handleApplyTemplate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var t domain.Template
	custom, err := optionalJSON(req, "templateJson", &t)
	if err != nil {
		return nil, err
	}
	if !custom {
		key := req.GetString("template", "")
		var ok bool
		if t, ok = domain.LookupTemplate(key); !ok {
			return nil, fmt.Errorf("unknown template %q (have %v)", key, domain.TemplateKeys())
		}
	}
	id, err := s.editor.ApplyTemplate(t, req.GetBool("replace", false))
	if err != nil {
		return nil, err
	}
	s.activePageID = id
	return jsonResult(map[string]string{"pageId": id})
}
