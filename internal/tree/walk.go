package tree

import (
	"fmt"

	"pagebuilder/internal/domain"
)

// WalkFunc is called for each element of a page in depth-first pre-order.
// Returning false skips the element's children.
type WalkFunc func(el *domain.Element, depth int) bool

// Walk visits every element of a page. Dangling ids are skipped.
func Walk(doc *domain.Document, pageID string, fn WalkFunc) error {
	page, ok := doc.Page(pageID)
	if !ok {
		return fmt.Errorf("walk %s: %w", pageID, domain.ErrPageNotFound)
	}
	var visit func(ids []string, depth int)
	visit = func(ids []string, depth int) {
		for _, id := range ids {
			el, ok := doc.Elements[id]
			if !ok {
				continue
			}
			if fn(el, depth) {
				visit(el.Children, depth+1)
			}
		}
	}
	visit(page.ElementIDs, 0)
	return nil
}

// PageTree builds the nested element view of a page.
func PageTree(doc *domain.Document, pageID string) ([]domain.ElementNode, error) {
	page, ok := doc.Page(pageID)
	if !ok {
		return nil, fmt.Errorf("page tree %s: %w", pageID, domain.ErrPageNotFound)
	}
	return nodes(doc, page.ElementIDs), nil
}

func nodes(doc *domain.Document, ids []string) []domain.ElementNode {
	out := make([]domain.ElementNode, 0, len(ids))
	for _, id := range ids {
		el, ok := doc.Elements[id]
		if !ok {
			continue
		}
		n := domain.ElementNode{Element: el}
		if len(el.Children) > 0 {
			n.Children = nodes(doc, el.Children)
		}
		out = append(out, n)
	}
	return out
}

// PageState returns everything a host needs to render one page: the page,
// its nested elements and every connection touching one of them.
func PageState(doc *domain.Document, pageID string) (*domain.PageState, error) {
	page, ok := doc.Page(pageID)
	if !ok {
		return nil, fmt.Errorf("page state %s: %w", pageID, domain.ErrPageNotFound)
	}
	onPage := map[string]bool{}
	_ = Walk(doc, pageID, func(el *domain.Element, _ int) bool {
		onPage[el.ID] = true
		return true
	})
	conns := []domain.Connection{}
	for _, c := range doc.Connections {
		if onPage[c.SourceElementID] || onPage[c.TargetElementID] {
			conns = append(conns, c)
		}
	}
	return &domain.PageState{
		Page:        *page,
		Elements:    nodes(doc, page.ElementIDs),
		Connections: conns,
	}, nil
}

// PageElementIDs lists the ids of every element on a page, nested ones
// included, in pre-order.
func PageElementIDs(doc *domain.Document, pageID string) []string {
	var ids []string
	_ = Walk(doc, pageID, func(el *domain.Element, _ int) bool {
		ids = append(ids, el.ID)
		return true
	})
	return ids
}
