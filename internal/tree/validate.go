package tree

import (
	"fmt"

	"pagebuilder/internal/domain"
)

// Validate checks the structure of a document built outside the store,
// such as an imported file. Every element must be reached exactly once from
// a page root list, children must belong to containers, and ParentID and
// PageID must match the list that holds the element.
func Validate(doc *domain.Document) error {
	for key, el := range doc.Elements {
		if el == nil {
			return fmt.Errorf("validate: element %s is null: %w", key, domain.ErrMalformedTree)
		}
		if el.ID != key {
			return fmt.Errorf("validate: element %s stored under %s: %w", el.ID, key, domain.ErrMalformedTree)
		}
	}

	seen := make(map[string]bool, len(doc.Elements))
	pages := make(map[string]bool, len(doc.Pages))
	var visit func(pageID, parentID string, ids []string) error
	visit = func(pageID, parentID string, ids []string) error {
		for _, id := range ids {
			el, ok := doc.Elements[id]
			if !ok {
				return fmt.Errorf("validate: page %s: %w: %s", pageID, domain.ErrElementNotFound, id)
			}
			if seen[id] {
				return fmt.Errorf("validate: element %s listed twice: %w", id, domain.ErrMalformedTree)
			}
			seen[id] = true
			if el.PageID != pageID || el.ParentID != parentID {
				return fmt.Errorf("validate: element %s has page %q parent %q, listed under page %q parent %q: %w",
					id, el.PageID, el.ParentID, pageID, parentID, domain.ErrMalformedTree)
			}
			if len(el.Children) > 0 && !el.IsContainer() {
				return fmt.Errorf("validate: %s %s has children: %w", el.Kind, id, domain.ErrNotContainer)
			}
			if err := visit(pageID, id, el.Children); err != nil {
				return err
			}
		}
		return nil
	}

	for _, page := range doc.Pages {
		if pages[page.ID] {
			return fmt.Errorf("validate: page %s listed twice: %w", page.ID, domain.ErrMalformedTree)
		}
		pages[page.ID] = true
		if err := visit(page.ID, "", page.ElementIDs); err != nil {
			return err
		}
	}
	if len(seen) != len(doc.Elements) {
		for id := range doc.Elements {
			if !seen[id] {
				return fmt.Errorf("validate: element %s is not on any page: %w", id, domain.ErrMalformedTree)
			}
		}
	}
	return nil
}
