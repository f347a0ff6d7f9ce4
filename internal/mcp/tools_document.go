package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerDocumentTools() {
	// ── list_documents ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List saved documents"),
	), s.handleListDocuments)

	// ── open_document ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("open_document",
		mcp.WithDescription("Load a saved document into the editor, replacing the open one"),
		mcp.WithString("documentId", mcp.Description("ID of the document"), mcp.Required()),
	), s.handleOpenDocument)

	// ── new_document ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("new_document",
		mcp.WithDescription("Start a new empty document with one page"),
		mcp.WithString("name", mcp.Description("Document name"), mcp.Required()),
	), s.handleNewDocument)

	// ── save_document ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("save_document",
		mcp.WithDescription("Persist the open document"),
	), s.handleSaveDocument)

	// ── publish_document ───────────────────────────────
	s.mcp.AddTool(mcp.NewTool("publish_document",
		mcp.WithDescription("Mark the open document as published and save it"),
	), s.handlePublishDocument)

	// ── undo / redo ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("undo",
		mcp.WithDescription("Undo the last document change"),
	), s.handleUndo)
	s.mcp.AddTool(mcp.NewTool("redo",
		mcp.WithDescription("Redo the last undone change"),
	), s.handleRedo)

	// ── get_history ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("get_history",
		mcp.WithDescription("Show the undo history labels and the current position"),
	), s.handleGetHistory)
}

func (s *Server) handleListDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.store == nil {
		return nil, fmt.Errorf("no document store configured")
	}
	docs, err := s.store.ListDocuments()
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return jsonResult(docs)
}

func (s *Server) handleOpenDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("documentId", "")
	if id == "" {
		return nil, fmt.Errorf("documentId is required")
	}
	doc, err := s.editor.Load(id)
	if err != nil {
		return nil, err
	}
	s.activePageID = ""
	return textResult(fmt.Sprintf("Opened %q (%d pages, %d elements)", doc.Name, len(doc.Pages), len(doc.Elements))), nil
}

func (s *Server) handleNewDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.GetString("name", "")
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}
	doc := s.editor.NewDocument(name)
	s.activePageID = doc.Pages[0].ID
	return jsonResult(map[string]string{"documentId": doc.ID, "pageId": doc.Pages[0].ID})
}

func (s *Server) handleSaveDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.editor.Save(); err != nil {
		return nil, err
	}
	return textResult("Saved"), nil
}

func (s *Server) handlePublishDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.editor.Publish(); err != nil {
		return nil, err
	}
	return textResult("Published"), nil
}

func (s *Server) handleUndo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !s.editor.Undo() {
		return textResult("Nothing to undo"), nil
	}
	return jsonResult(s.editor.History())
}

func (s *Server) handleRedo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !s.editor.Redo() {
		return textResult("Nothing to redo"), nil
	}
	return jsonResult(s.editor.History())
}

func (s *Server) handleGetHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.editor.History())
}
