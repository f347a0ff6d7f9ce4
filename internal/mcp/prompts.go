package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(mcp.NewPrompt("filtered_catalog_page",
		mcp.WithPromptDescription("Build a page where a property filter drives a product grid"),
		mcp.WithArgument("propertyName",
			mcp.ArgumentDescription("Product property to filter on, e.g. color"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("categoryIds",
			mcp.ArgumentDescription("Comma-separated category IDs the filter reads values from"),
		),
	), s.handleFilteredCatalogPrompt)

	s.mcp.AddPrompt(mcp.NewPrompt("landing_page",
		mcp.WithPromptDescription("Lay out a landing page with a hero, feature cards and a call to action"),
		mcp.WithArgument("topic",
			mcp.ArgumentDescription("Product or topic of the page"),
			mcp.RequiredArgument(),
		),
	), s.handleLandingPagePrompt)
}

func (s *Server) handleFilteredCatalogPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	property := req.Params.Arguments["propertyName"]
	categories := req.Params.Arguments["categoryIds"]
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Filter products by %s", property),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Build a filtered catalog on the active page. Follow these steps:

1. add_element with kind "propertyFilter" and properties {"propertyName": "%[1]s"} and categoryIds set to the list "%[2]s" (omit when empty)
2. add_element with kind "productGrid"
3. toggle_selection with the filter ID then the grid ID, and connect_selected with type "filter" and targetProperty "filters"
4. refresh_catalog on the filter to load its options, then set_filter_value with one of them
5. refresh_catalog on the grid and check with get_element that products match the selected %[1]s

Use get_history to confirm each step is a separate undo entry.`, property, categories),
				},
			},
		},
	}, nil
}

func (s *Server) handleLandingPagePrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	topic := req.Params.Arguments["topic"]
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Landing page for %s", topic),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Lay out a landing page about "%s". Follow these steps:

1. add_page named "%s" (it becomes the active page)
2. add_element "header", then "hero" with a title and subtitle in its properties
3. add_element "card" three times, one per key feature
4. add_element "button" with a call to action text and a link
5. add_element "footer"

Let auto-layout place each element, then use move_element to tidy the vertical order.`, topic, topic),
				},
			},
		},
	}, nil
}
