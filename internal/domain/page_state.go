package domain

// ElementNode is the nested view of an element and its children, as a host
// renders it.
type ElementNode struct {
	Element  *Element      `json:"element"`
	Children []ElementNode `json:"children,omitempty"`
}

// PageState represents the complete state of a page for rendering.
// Connections lists every document connection with at least one endpoint
// on the page.
type PageState struct {
	Page        Page          `json:"page"`
	Elements    []ElementNode `json:"elements"`
	Connections []Connection  `json:"connections"`
}
