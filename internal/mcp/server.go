package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"pagebuilder/internal/domain"
	"pagebuilder/internal/service"
)

// Server is the MCP server of the page builder.
// It exposes tools, resources, and prompts so AI agents can edit the open
// document the same way a canvas host does.
type Server struct {
	mcp     *server.MCPServer
	editor  *service.EditorService
	catalog *service.CatalogService
	store   domain.DocumentStore
	layout  *LayoutEngine
	logger  *log.Logger

	// Active page context (set by set_active_page tool)
	activePageID string
}

// Deps holds the services the MCP server drives.
type Deps struct {
	Editor  *service.EditorService
	Catalog *service.CatalogService // optional
	Store   domain.DocumentStore    // optional
	Logger  *log.Logger
}

// New creates and configures a new MCP server with all tools and resources.
func New(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	s := &Server{
		editor:  deps.Editor,
		catalog: deps.Catalog,
		store:   deps.Store,
		layout:  NewLayoutEngine(),
		logger:  logger,
	}

	s.mcp = server.NewMCPServer(
		"pagebuilder-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithPromptCapabilities(true),
	)

	s.registerDocumentTools()
	s.registerPageTools()
	s.registerElementTools()
	s.registerConnectionTools()
	s.registerResources()
	s.registerPrompts()

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	s.logger.Info("starting MCP stdio server")
	return server.ServeStdio(s.mcp)
}

// ── Helpers ────────────────────────────────────────────────

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

// resolvePageID returns the pageId argument, the active page, or the first
// page of the document.
func (s *Server) resolvePageID(req mcp.CallToolRequest) (string, error) {
	if pid := req.GetString("pageId", ""); pid != "" {
		return pid, nil
	}
	doc := s.editor.Document()
	if s.activePageID != "" {
		if _, ok := doc.Page(s.activePageID); ok {
			return s.activePageID, nil
		}
	}
	if len(doc.Pages) > 0 {
		return doc.Pages[0].ID, nil
	}
	return "", fmt.Errorf("no pageId provided and the document has no pages")
}

// elementForTool retrieves an element and validates it exists.
func (s *Server) elementForTool(req mcp.CallToolRequest) (*domain.Element, error) {
	id := req.GetString("elementId", "")
	if id == "" {
		return nil, fmt.Errorf("elementId is required")
	}
	return s.currentElement(id)
}

// currentElement looks an element up in the open document. Another client
// may have deleted it since the request started.
func (s *Server) currentElement(id string) (*domain.Element, error) {
	el, ok := s.editor.Element(id)
	if !ok {
		return nil, fmt.Errorf("element %s: %w", id, domain.ErrElementNotFound)
	}
	return el, nil
}

func boolPtr(v bool) *bool { return &v }
