package tree

import (
	"fmt"

	"pagebuilder/internal/domain"
)

// ── Templates ──────────────────────────────────────────────

// ApplyTemplate builds a new page from a template with fresh element and
// connection ids. With replace set, the new page becomes the only page and
// every existing element and connection is dropped. A template size larger
// than the default maximum widens that element's constraints to fit.
func (s *Store) ApplyTemplate(doc *domain.Document, t domain.Template, replace bool) (*domain.Document, string, error) {
	name := t.Name
	if name == "" {
		name = "Template"
	}
	out, pageID, err := s.AddPage(doc, name)
	if err != nil {
		return doc, "", err
	}
	if replace {
		page := out.Pages[len(out.Pages)-1]
		out.Pages = []domain.Page{page}
		out.Elements = map[string]*domain.Element{}
		out.Connections = []domain.Connection{}
	}

	refs := map[string]string{}
	var build func(items []domain.TemplateElement, parent *domain.Element) ([]string, error)
	build = func(items []domain.TemplateElement, parent *domain.Element) ([]string, error) {
		ids := make([]string, 0, len(items))
		for _, item := range items {
			parentID := ""
			if parent != nil {
				parentID = parent.ID
			}
			el := s.newElement(item.Kind, pageID, parentID, item.Position)
			if item.Size != nil {
				el.Size = *item.Size
				el.Constraints.MaxWidth = max(el.Constraints.MaxWidth, el.Size.Width)
				el.Constraints.MaxHeight = max(el.Constraints.MaxHeight, el.Size.Height)
			}
			el.Properties = el.Properties.Merge(item.Properties)
			if item.Ref != "" {
				if _, dup := refs[item.Ref]; dup {
					return nil, fmt.Errorf("apply template %s: ref %q used twice: %w", name, item.Ref, domain.ErrMalformedTree)
				}
				refs[item.Ref] = el.ID
			}
			if len(item.Children) > 0 {
				if !el.IsContainer() {
					return nil, fmt.Errorf("apply template %s: %s: %w", name, item.Kind, domain.ErrNotContainer)
				}
				children, err := build(item.Children, el)
				if err != nil {
					return nil, err
				}
				el.Children = children
			}
			out.Elements[el.ID] = el
			ids = append(ids, el.ID)
		}
		return ids, nil
	}

	roots, err := build(t.Elements, nil)
	if err != nil {
		return doc, "", err
	}
	idx := out.PageIndex(pageID)
	out.Pages[idx].ElementIDs = roots

	for _, tc := range t.Connections {
		src, okS := refs[tc.From]
		tgt, okT := refs[tc.To]
		if !okS || !okT {
			return doc, "", fmt.Errorf("apply template %s: connection %s -> %s: %w", name, tc.From, tc.To, domain.ErrElementNotFound)
		}
		if src == tgt {
			return doc, "", fmt.Errorf("apply template %s: %w", name, domain.ErrSelfLoop)
		}
		if !tc.ConnectionType.Valid() {
			return doc, "", fmt.Errorf("apply template %s: %q: %w", name, tc.ConnectionType, domain.ErrInvalidConnectionType)
		}
		out.Connections = append(out.Connections, domain.Connection{
			ID:              s.newID(),
			SourceElementID: src,
			TargetElementID: tgt,
			ConnectionType:  tc.ConnectionType,
			SourceProperty:  tc.SourceProperty,
			TargetProperty:  tc.TargetProperty,
			Description:     tc.Description,
			IsActive:        true,
		})
	}
	return out, pageID, nil
}
