package domain

// ConnectionType selects how a propagated value affects the target.
type ConnectionType string

const (
	ConnectionFilter   ConnectionType = "filter"
	ConnectionData     ConnectionType = "data"
	ConnectionCart     ConnectionType = "cart"
	ConnectionNavigate ConnectionType = "navigate"
)

// Valid reports whether t is one of the known connection types.
func (t ConnectionType) Valid() bool {
	switch t {
	case ConnectionFilter, ConnectionData, ConnectionCart, ConnectionNavigate:
		return true
	}
	return false
}

// Connection is a directed, typed edge between two elements. Connections
// are document-scoped and independent of the element tree.
type Connection struct {
	ID              string         `json:"id"`
	SourceElementID string         `json:"sourceElementId"`
	TargetElementID string         `json:"targetElementId"`
	ConnectionType  ConnectionType `json:"connectionType"`
	SourceProperty  string         `json:"sourceProperty,omitempty"`
	TargetProperty  string         `json:"targetProperty,omitempty"`
	Description     string         `json:"description"`
	IsActive        bool           `json:"isActive"`
}

// Touches reports whether either endpoint is the given element.
func (c Connection) Touches(elementID string) bool {
	return c.SourceElementID == elementID || c.TargetElementID == elementID
}

// ConnectionOptions are the optional fields supplied when creating a connection.
type ConnectionOptions struct {
	SourceProperty string `json:"sourceProperty,omitempty"`
	TargetProperty string `json:"targetProperty,omitempty"`
	Description    string `json:"description,omitempty"`
}

// ConnectionPatch is a partial update of a connection. Endpoints are
// immutable; delete and recreate to rewire.
type ConnectionPatch struct {
	ConnectionType *ConnectionType `json:"connectionType,omitempty"`
	SourceProperty *string         `json:"sourceProperty,omitempty"`
	TargetProperty *string         `json:"targetProperty,omitempty"`
	Description    *string         `json:"description,omitempty"`
	IsActive       *bool           `json:"isActive,omitempty"`
}

// Apply returns c with the patch applied.
func (p ConnectionPatch) Apply(c Connection) Connection {
	if p.ConnectionType != nil {
		c.ConnectionType = *p.ConnectionType
	}
	if p.SourceProperty != nil {
		c.SourceProperty = *p.SourceProperty
	}
	if p.TargetProperty != nil {
		c.TargetProperty = *p.TargetProperty
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.IsActive != nil {
		c.IsActive = *p.IsActive
	}
	return c
}
