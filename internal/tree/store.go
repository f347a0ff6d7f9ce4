// Package tree is the element tree store: pure, copy-on-write operations
// over a document's pages and element arena.
//
// Every operation takes a *domain.Document and returns a new one. The input
// document is never mutated, so any document previously handed out (for
// example a history snapshot) stays valid.
package tree

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"pagebuilder/internal/domain"
)

// Store creates ids and timestamps for new nodes. It holds no document
// state of its own.
type Store struct {
	newID func() string
	now   func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithIDs replaces the uuid generator, mostly for deterministic tests.
func WithIDs(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// WithClock replaces time.Now.
func WithClock(fn func() time.Time) Option {
	return func(s *Store) { s.now = fn }
}

// New creates a Store.
func New(opts ...Option) *Store {
	s := &Store{
		newID: uuid.NewString,
		now:   time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// NewID returns a fresh identifier from the store's generator.
func (s *Store) NewID() string { return s.newID() }

// Now returns the store's current time.
func (s *Store) Now() time.Time { return s.now() }

// NewDocument builds an empty document with one page.
func (s *Store) NewDocument(name string) *domain.Document {
	return domain.NewDocument(s.newID(), name, s.newID(), s.now())
}

func (s *Store) newElement(kind domain.Kind, pageID, parentID string, pos domain.Position) *domain.Element {
	now := s.now()
	spec := domain.LookupKind(kind)
	el := &domain.Element{
		ID:          s.newID(),
		Kind:        kind,
		PageID:      pageID,
		ParentID:    parentID,
		Position:    pos,
		Size:        domain.DefaultSize,
		Constraints: domain.DefaultConstraints,
		Style:       domain.DefaultStyle,
		Properties:  spec.Defaults(),
		Visible:     true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if spec.Container {
		el.Children = []string{}
	}
	return el
}

// ── Elements ───────────────────────────────────────────────

// AddElement appends a new root element of the given kind to a page.
func (s *Store) AddElement(doc *domain.Document, pageID string, kind domain.Kind, pos domain.Position) (*domain.Document, string, error) {
	idx := doc.PageIndex(pageID)
	if idx < 0 {
		return doc, "", fmt.Errorf("add element to %s: %w", pageID, domain.ErrPageNotFound)
	}
	el := s.newElement(kind, pageID, "", pos)

	out := doc.Clone()
	out.Elements[el.ID] = el
	p := &out.Pages[idx]
	p.ElementIDs = append(p.ElementIDs, el.ID)
	p.UpdatedAt = el.CreatedAt
	out.UpdatedAt = el.CreatedAt
	return out, el.ID, nil
}

// AddChild appends a new element to the children of a container.
func (s *Store) AddChild(doc *domain.Document, containerID string, kind domain.Kind, pos domain.Position) (*domain.Document, string, error) {
	parent, ok := doc.Element(containerID)
	if !ok {
		return doc, "", fmt.Errorf("add child to %s: %w", containerID, domain.ErrElementNotFound)
	}
	if !parent.IsContainer() {
		return doc, "", fmt.Errorf("add child to %s (%s): %w", containerID, parent.Kind, domain.ErrNotContainer)
	}
	el := s.newElement(kind, parent.PageID, parent.ID, pos)

	out := doc.Clone()
	p := parent.Clone()
	p.Children = append(p.Children, el.ID)
	p.UpdatedAt = el.CreatedAt
	out.Elements[p.ID] = p
	out.Elements[el.ID] = el
	out.UpdatedAt = el.CreatedAt
	return out, el.ID, nil
}

// UpdateElement applies a partial update to one element. Properties in the
// patch are merged one level deep; every other non-nil field replaces.
// When id is unknown the input document is returned with ErrElementNotFound.
func (s *Store) UpdateElement(doc *domain.Document, id string, patch domain.ElementPatch) (*domain.Document, error) {
	el, ok := doc.Element(id)
	if !ok {
		return doc, fmt.Errorf("update element %s: %w", id, domain.ErrElementNotFound)
	}
	now := s.now()
	out := doc.Clone()
	out.Elements[id] = patch.Apply(el, now)
	out.UpdatedAt = now
	return out, nil
}

// DeleteElement removes an element and its whole subtree. It returns the
// ids of every removed element, the deleted element first.
func (s *Store) DeleteElement(doc *domain.Document, id string) (*domain.Document, []string, error) {
	el, ok := doc.Element(id)
	if !ok {
		return doc, nil, fmt.Errorf("delete element %s: %w", id, domain.ErrElementNotFound)
	}
	now := s.now()
	out := doc.Clone()

	if el.ParentID != "" {
		if parent, ok := out.Elements[el.ParentID]; ok {
			p := parent.Clone()
			p.Children = without(p.Children, id)
			p.UpdatedAt = now
			out.Elements[p.ID] = p
		}
	} else if page, ok := out.Page(el.PageID); ok {
		page.ElementIDs = without(page.ElementIDs, id)
		page.UpdatedAt = now
	}

	removed := subtree(doc, id)
	for _, rid := range removed {
		delete(out.Elements, rid)
	}
	out.UpdatedAt = now
	return out, removed, nil
}

// FindElement looks up an element anywhere in the document.
func FindElement(doc *domain.Document, id string) (*domain.Element, bool) {
	return doc.Element(id)
}

// subtree lists id and all of its descendants in pre-order.
func subtree(doc *domain.Document, id string) []string {
	var out []string
	var visit func(string)
	visit = func(cur string) {
		el, ok := doc.Elements[cur]
		if !ok {
			return
		}
		out = append(out, cur)
		for _, c := range el.Children {
			visit(c)
		}
	}
	visit(id)
	return out
}

func without(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, x := range ids {
		if x != id {
			out = append(out, x)
		}
	}
	return out
}
