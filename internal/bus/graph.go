package bus

import (
	"fmt"

	"pagebuilder/internal/domain"
)

// ── Connection CRUD ────────────────────────────────────────

// CreateConnection appends a new active connection. Self-loops, unknown
// endpoints, unknown types and exact duplicates are rejected.
func (b *Bus) CreateConnection(doc *domain.Document, sourceID, targetID string, typ domain.ConnectionType, opts domain.ConnectionOptions) (*domain.Document, domain.Connection, error) {
	c := domain.Connection{
		ID:              b.tree.NewID(),
		SourceElementID: sourceID,
		TargetElementID: targetID,
		ConnectionType:  typ,
		SourceProperty:  opts.SourceProperty,
		TargetProperty:  opts.TargetProperty,
		Description:     opts.Description,
		IsActive:        true,
	}
	if err := validate(doc, c); err != nil {
		return doc, domain.Connection{}, fmt.Errorf("create connection: %w", err)
	}
	out := doc.Clone()
	out.Connections = append(out.Connections, c)
	out.UpdatedAt = b.tree.Now()
	b.logger.Debug("connection created", "id", c.ID, "source", sourceID, "target", targetID, "type", typ)
	return out, c, nil
}

// UpdateConnection applies a patch to one connection.
func (b *Bus) UpdateConnection(doc *domain.Document, id string, patch domain.ConnectionPatch) (*domain.Document, error) {
	old, ok := doc.Connection(id)
	if !ok {
		return doc, fmt.Errorf("update connection %s: %w", id, domain.ErrConnectionNotFound)
	}
	c := patch.Apply(*old)
	if err := validate(doc, c); err != nil {
		return doc, fmt.Errorf("update connection %s: %w", id, err)
	}
	out := doc.Clone()
	for i := range out.Connections {
		if out.Connections[i].ID == id {
			out.Connections[i] = c
		}
	}
	out.UpdatedAt = b.tree.Now()
	return out, nil
}

// DeleteConnection removes one connection.
func (b *Bus) DeleteConnection(doc *domain.Document, id string) (*domain.Document, error) {
	if _, ok := doc.Connection(id); !ok {
		return doc, fmt.Errorf("delete connection %s: %w", id, domain.ErrConnectionNotFound)
	}
	out := doc.Clone()
	out.Connections = out.Connections[:0]
	for _, c := range doc.Connections {
		if c.ID != id {
			out.Connections = append(out.Connections, c)
		}
	}
	out.UpdatedAt = b.tree.Now()
	return out, nil
}

// DropForElements removes every connection touching one of the given
// elements and returns the removed connection ids. When nothing matches
// the input document is returned as is.
func (b *Bus) DropForElements(doc *domain.Document, elementIDs []string) (*domain.Document, []string) {
	gone := make(map[string]bool, len(elementIDs))
	for _, id := range elementIDs {
		gone[id] = true
	}
	var dropped []string
	kept := make([]domain.Connection, 0, len(doc.Connections))
	for _, c := range doc.Connections {
		if gone[c.SourceElementID] || gone[c.TargetElementID] {
			dropped = append(dropped, c.ID)
			continue
		}
		kept = append(kept, c)
	}
	if len(dropped) == 0 {
		return doc, nil
	}
	out := doc.Clone()
	out.Connections = kept
	b.logger.Debug("connections dropped", "count", len(dropped))
	return out, dropped
}

// Outgoing lists the connections whose source is elementID, in document order.
func Outgoing(doc *domain.Document, elementID string) []domain.Connection {
	var out []domain.Connection
	for _, c := range doc.Connections {
		if c.SourceElementID == elementID {
			out = append(out, c)
		}
	}
	return out
}

// Connected lists the connections with elementID at either end.
func Connected(doc *domain.Document, elementID string) []domain.Connection {
	var out []domain.Connection
	for _, c := range doc.Connections {
		if c.Touches(elementID) {
			out = append(out, c)
		}
	}
	return out
}

// Dangling lists connections with an endpoint missing from the arena.
func Dangling(doc *domain.Document) []domain.Connection {
	var out []domain.Connection
	for _, c := range doc.Connections {
		_, okS := doc.Elements[c.SourceElementID]
		_, okT := doc.Elements[c.TargetElementID]
		if !okS || !okT {
			out = append(out, c)
		}
	}
	return out
}

func validate(doc *domain.Document, c domain.Connection) error {
	if !c.ConnectionType.Valid() {
		return fmt.Errorf("%q: %w", c.ConnectionType, domain.ErrInvalidConnectionType)
	}
	if c.SourceElementID == c.TargetElementID {
		return domain.ErrSelfLoop
	}
	if _, ok := doc.Elements[c.SourceElementID]; !ok {
		return fmt.Errorf("source %s: %w", c.SourceElementID, domain.ErrElementNotFound)
	}
	if _, ok := doc.Elements[c.TargetElementID]; !ok {
		return fmt.Errorf("target %s: %w", c.TargetElementID, domain.ErrElementNotFound)
	}
	for _, o := range doc.Connections {
		if o.ID != c.ID &&
			o.SourceElementID == c.SourceElementID &&
			o.TargetElementID == c.TargetElementID &&
			o.ConnectionType == c.ConnectionType &&
			o.SourceProperty == c.SourceProperty &&
			o.TargetProperty == c.TargetProperty {
			return domain.ErrDuplicateConnection
		}
	}
	return nil
}
