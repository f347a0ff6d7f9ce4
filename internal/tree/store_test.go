package tree_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"pagebuilder/internal/domain"
	"pagebuilder/internal/tree"
)

func newStore() *tree.Store {
	n := 0
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return tree.New(
		tree.WithIDs(func() string { n++; return fmt.Sprintf("id-%d", n) }),
		tree.WithClock(func() time.Time { return clock }),
	)
}

func firstPage(doc *domain.Document) string { return doc.Pages[0].ID }

func TestAddElement_DefaultsAndOrder(t *testing.T) {
	s := newStore()
	doc := s.NewDocument("Site")
	page := firstPage(doc)

	doc1, a, err := s.AddElement(doc, page, domain.KindPropertyFilter, domain.Position{X: 40, Y: 60})
	if err != nil {
		t.Fatalf("AddElement: %v", err)
	}
	doc2, b, err := s.AddElement(doc1, page, domain.KindText, domain.Position{})
	if err != nil {
		t.Fatalf("AddElement: %v", err)
	}

	if len(doc.Elements) != 0 {
		t.Errorf("input document was mutated: %d elements", len(doc.Elements))
	}
	p, _ := doc2.Page(page)
	if len(p.ElementIDs) != 2 || p.ElementIDs[0] != a || p.ElementIDs[1] != b {
		t.Errorf("root list = %v, want [%s %s]", p.ElementIDs, a, b)
	}

	el, ok := tree.FindElement(doc2, a)
	if !ok {
		t.Fatal("element not found")
	}
	if el.Size != domain.DefaultSize || el.Constraints != domain.DefaultConstraints {
		t.Errorf("geometry defaults not applied: %+v %+v", el.Size, el.Constraints)
	}
	if _, ok := el.Properties["propertyName"]; !ok {
		t.Errorf("kind defaults missing: %v", el.Properties)
	}
	if !el.Visible {
		t.Error("new element should be visible")
	}
}

func TestAddElement_UnknownPage(t *testing.T) {
	s := newStore()
	doc := s.NewDocument("Site")
	got, _, err := s.AddElement(doc, "nope", domain.KindText, domain.Position{})
	if !errors.Is(err, domain.ErrPageNotFound) {
		t.Fatalf("err = %v, want ErrPageNotFound", err)
	}
	if got != doc {
		t.Error("document should be returned unchanged")
	}
}

func TestAddChild_RequiresContainer(t *testing.T) {
	s := newStore()
	doc := s.NewDocument("Site")
	doc, text, _ := s.AddElement(doc, firstPage(doc), domain.KindText, domain.Position{})

	if _, _, err := s.AddChild(doc, text, domain.KindText, domain.Position{}); !errors.Is(err, domain.ErrNotContainer) {
		t.Errorf("err = %v, want ErrNotContainer", err)
	}
	if _, _, err := s.AddChild(doc, "missing", domain.KindText, domain.Position{}); !errors.Is(err, domain.ErrElementNotFound) {
		t.Errorf("err = %v, want ErrElementNotFound", err)
	}
}

func TestUpdateElement_MergesProperties(t *testing.T) {
	s := newStore()
	doc := s.NewDocument("Site")
	doc, id, _ := s.AddElement(doc, firstPage(doc), domain.KindText, domain.Position{})

	pos := domain.Position{X: 100, Y: 20}
	doc2, err := s.UpdateElement(doc, id, domain.ElementPatch{
		Position:   &pos,
		Properties: domain.Properties{"content": "Hello"},
	})
	if err != nil {
		t.Fatalf("UpdateElement: %v", err)
	}
	el, _ := doc2.Element(id)
	if el.Position != pos {
		t.Errorf("position = %+v, want %+v", el.Position, pos)
	}
	if el.Properties.String("content") != "Hello" {
		t.Errorf("content = %q, want Hello", el.Properties.String("content"))
	}
	if el.Properties["fontSize"] != 16 {
		t.Errorf("untouched key lost: %v", el.Properties)
	}

	old, _ := doc.Element(id)
	if old.Properties.String("content") != "Text" {
		t.Error("previous snapshot was mutated")
	}
}

func TestUpdateElement_Missing(t *testing.T) {
	s := newStore()
	doc := s.NewDocument("Site")
	got, err := s.UpdateElement(doc, "ghost", domain.ElementPatch{})
	if !errors.Is(err, domain.ErrElementNotFound) {
		t.Fatalf("err = %v, want ErrElementNotFound", err)
	}
	if got != doc {
		t.Error("document should be returned unchanged")
	}
}

// TestTreeRoundTrip adds a nested structure, updates a grandchild and
// deletes the container, leaving the page as it started.
func TestTreeRoundTrip(t *testing.T) {
	s := newStore()
	doc := s.NewDocument("Site")
	page := firstPage(doc)

	doc, keep, _ := s.AddElement(doc, page, domain.KindHeading, domain.Position{})
	start := doc

	doc, outer, _ := s.AddElement(doc, page, domain.KindContainer, domain.Position{})
	doc, inner, err := s.AddChild(doc, outer, domain.KindContainer, domain.Position{})
	if err != nil {
		t.Fatalf("AddChild: %v", err)
	}
	doc, leaf, _ := s.AddChild(doc, inner, domain.KindButton, domain.Position{})

	vis := false
	doc, err = s.UpdateElement(doc, leaf, domain.ElementPatch{Visible: &vis})
	if err != nil {
		t.Fatalf("UpdateElement nested: %v", err)
	}

	var seen []string
	var depths []int
	_ = tree.Walk(doc, page, func(el *domain.Element, depth int) bool {
		seen = append(seen, el.ID)
		depths = append(depths, depth)
		return true
	})
	want := []string{keep, outer, inner, leaf}
	if fmt.Sprint(seen) != fmt.Sprint(want) || fmt.Sprint(depths) != "[0 0 1 2]" {
		t.Errorf("walk = %v %v, want %v [0 0 1 2]", seen, depths, want)
	}

	doc, removed, err := s.DeleteElement(doc, outer)
	if err != nil {
		t.Fatalf("DeleteElement: %v", err)
	}
	if fmt.Sprint(removed) != fmt.Sprint([]string{outer, inner, leaf}) {
		t.Errorf("removed = %v", removed)
	}
	if len(doc.Elements) != len(start.Elements) {
		t.Errorf("elements = %d, want %d", len(doc.Elements), len(start.Elements))
	}
	p, _ := doc.Page(page)
	if fmt.Sprint(p.ElementIDs) != fmt.Sprint([]string{keep}) {
		t.Errorf("root list = %v, want [%s]", p.ElementIDs, keep)
	}
}

func TestDeleteElement_NestedChildLeavesParent(t *testing.T) {
	s := newStore()
	doc := s.NewDocument("Site")
	doc, box, _ := s.AddElement(doc, firstPage(doc), domain.KindContainer, domain.Position{})
	doc, a, _ := s.AddChild(doc, box, domain.KindText, domain.Position{})
	doc, b, _ := s.AddChild(doc, box, domain.KindText, domain.Position{})

	doc2, _, err := s.DeleteElement(doc, a)
	if err != nil {
		t.Fatalf("DeleteElement: %v", err)
	}
	parent, _ := doc2.Element(box)
	if fmt.Sprint(parent.Children) != fmt.Sprint([]string{b}) {
		t.Errorf("children = %v, want [%s]", parent.Children, b)
	}
	before, _ := doc.Element(box)
	if len(before.Children) != 2 {
		t.Error("previous snapshot's container was mutated")
	}
}

func TestPageTree_Nested(t *testing.T) {
	s := newStore()
	doc := s.NewDocument("Site")
	page := firstPage(doc)
	doc, box, _ := s.AddElement(doc, page, domain.KindContainer, domain.Position{})
	doc, child, _ := s.AddChild(doc, box, domain.KindText, domain.Position{})

	nodes, err := tree.PageTree(doc, page)
	if err != nil {
		t.Fatalf("PageTree: %v", err)
	}
	if len(nodes) != 1 || len(nodes[0].Children) != 1 || nodes[0].Children[0].Element.ID != child {
		t.Errorf("unexpected tree: %+v", nodes)
	}
}
