package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

const (
	documentURI   = "pagebuilder://document"
	pageURIPrefix = "pagebuilder://page/"
	pageURISuffix = "/state"
)

func (s *Server) registerResources() {
	// ── pagebuilder://document ─────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		documentURI,
		"Open Document",
		mcp.WithResourceDescription("The open document as JSON: pages, elements and connections"),
		mcp.WithMIMEType("application/json"),
	), s.handleDocumentResource)

	// ── pagebuilder://page/{pageId}/state ──────────────
	s.mcp.AddResourceTemplate(
		mcp.NewResourceTemplate(
			pageURIPrefix+"{pageId}"+pageURISuffix,
			"Page State",
		),
		s.handlePageStateResource,
	)
}

func (s *Server) handleDocumentResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(s.editor.Document(), "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      documentURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handlePageStateResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	pageID := extractPageIDFromURI(uri)
	if pageID == "" {
		return nil, fmt.Errorf("could not extract pageId from URI: %s", uri)
	}

	state, err := s.editor.PageState(pageID)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// extractPageIDFromURI extracts the page ID from "pagebuilder://page/{id}/state".
func extractPageIDFromURI(uri string) string {
	rest, ok := strings.CutPrefix(uri, pageURIPrefix)
	if !ok {
		return ""
	}
	id, ok := strings.CutSuffix(rest, pageURISuffix)
	if !ok || strings.Contains(id, "/") {
		return ""
	}
	return id
}
