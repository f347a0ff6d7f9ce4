package tree

import (
	"fmt"
	"strings"
	"unicode"

	"pagebuilder/internal/domain"
)

// ── Pages ──────────────────────────────────────────────────

// AddPage appends an empty page. The slug is derived from the name.
func (s *Store) AddPage(doc *domain.Document, name string) (*domain.Document, string, error) {
	if strings.TrimSpace(name) == "" {
		name = fmt.Sprintf("Page %d", len(doc.Pages)+1)
	}
	now := s.now()
	p := domain.Page{
		ID:         s.newID(),
		Name:       name,
		Slug:       Slugify(name),
		ElementIDs: []string{},
		Settings:   domain.DefaultPageSettings(),
		Theme:      doc.Settings.Theme,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	out := doc.Clone()
	out.Pages = append(out.Pages, p)
	out.UpdatedAt = now
	return out, p.ID, nil
}

// UpdatePage applies a partial update to a page.
func (s *Store) UpdatePage(doc *domain.Document, id string, patch domain.PagePatch) (*domain.Document, error) {
	idx := doc.PageIndex(id)
	if idx < 0 {
		return doc, fmt.Errorf("update page %s: %w", id, domain.ErrPageNotFound)
	}
	now := s.now()
	out := doc.Clone()
	out.Pages[idx] = patch.Apply(out.Pages[idx], now)
	out.UpdatedAt = now
	return out, nil
}

// RenamePage changes a page's display name. The slug is kept.
func (s *Store) RenamePage(doc *domain.Document, id, name string) (*domain.Document, error) {
	return s.UpdatePage(doc, id, domain.PagePatch{Name: &name})
}

// DeletePage removes a page and all of its elements, returning the removed
// element ids. The last remaining page cannot be deleted.
func (s *Store) DeletePage(doc *domain.Document, id string) (*domain.Document, []string, error) {
	idx := doc.PageIndex(id)
	if idx < 0 {
		return doc, nil, fmt.Errorf("delete page %s: %w", id, domain.ErrPageNotFound)
	}
	if len(doc.Pages) == 1 {
		return doc, nil, fmt.Errorf("delete page %s: %w", id, domain.ErrLastPage)
	}
	removed := PageElementIDs(doc, id)

	out := doc.Clone()
	out.Pages = append(out.Pages[:idx], out.Pages[idx+1:]...)
	for _, rid := range removed {
		delete(out.Elements, rid)
	}
	out.UpdatedAt = s.now()
	return out, removed, nil
}

// DuplicatePage deep-copies a page with fresh ids for the page and every
// element on it. Connections whose endpoints both live on the page are
// copied too, rewired to the new elements. The copy is appended after the
// last page.
func (s *Store) DuplicatePage(doc *domain.Document, id string) (*domain.Document, string, error) {
	src, ok := doc.Page(id)
	if !ok {
		return doc, "", fmt.Errorf("duplicate page %s: %w", id, domain.ErrPageNotFound)
	}
	now := s.now()

	remap := map[string]string{}
	for _, oldID := range PageElementIDs(doc, id) {
		remap[oldID] = s.newID()
	}

	p := *src
	p.ID = s.newID()
	p.Name = src.Name + " (copy)"
	p.Slug = src.Slug + "-copy"
	p.ElementIDs = remapIDs(src.ElementIDs, remap)
	p.CreatedAt = now
	p.UpdatedAt = now

	out := doc.Clone()
	for oldID, newID := range remap {
		el := doc.Elements[oldID].Clone()
		el.ID = newID
		el.PageID = p.ID
		if el.ParentID != "" {
			el.ParentID = remap[el.ParentID]
		}
		el.Children = remapIDs(el.Children, remap)
		el.CreatedAt = now
		el.UpdatedAt = now
		out.Elements[newID] = el
	}
	for _, c := range doc.Connections {
		srcID, okS := remap[c.SourceElementID]
		tgtID, okT := remap[c.TargetElementID]
		if !okS || !okT {
			continue
		}
		c.ID = s.newID()
		c.SourceElementID = srcID
		c.TargetElementID = tgtID
		out.Connections = append(out.Connections, c)
	}
	out.Pages = append(out.Pages, p)
	out.UpdatedAt = now
	return out, p.ID, nil
}

func remapIDs(ids []string, remap map[string]string) []string {
	if ids == nil {
		return nil
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if n, ok := remap[id]; ok {
			out = append(out, n)
		}
	}
	return out
}

// Slugify lowercases a name and joins its words with dashes.
func Slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
