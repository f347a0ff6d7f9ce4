package tree_test

import (
	"errors"
	"testing"

	"pagebuilder/internal/domain"
	"pagebuilder/internal/tree"
)

func TestDeletePage_RefusesLast(t *testing.T) {
	s := newStore()
	doc := s.NewDocument("Site")
	if _, _, err := s.DeletePage(doc, firstPage(doc)); !errors.Is(err, domain.ErrLastPage) {
		t.Fatalf("err = %v, want ErrLastPage", err)
	}
}

func TestDeletePage_RemovesElements(t *testing.T) {
	s := newStore()
	doc := s.NewDocument("Site")
	doc, second, _ := s.AddPage(doc, "About us")
	doc, box, _ := s.AddElement(doc, second, domain.KindContainer, domain.Position{})
	doc, _, _ = s.AddChild(doc, box, domain.KindText, domain.Position{})

	doc2, removed, err := s.DeletePage(doc, second)
	if err != nil {
		t.Fatalf("DeletePage: %v", err)
	}
	if len(removed) != 2 || len(doc2.Elements) != 0 || len(doc2.Pages) != 1 {
		t.Errorf("removed=%v elements=%d pages=%d", removed, len(doc2.Elements), len(doc2.Pages))
	}
	if len(doc.Pages) != 2 {
		t.Error("input document was mutated")
	}
}

func TestAddPage_Slug(t *testing.T) {
	s := newStore()
	doc := s.NewDocument("Site")
	doc, id, _ := s.AddPage(doc, "  Doors & Windows ")
	p, _ := doc.Page(id)
	if p.Slug != "doors-windows" {
		t.Errorf("slug = %q, want doors-windows", p.Slug)
	}
}

func TestDuplicatePage_RemapsIDs(t *testing.T) {
	s := newStore()
	doc := s.NewDocument("Site")
	page := firstPage(doc)
	doc, box, _ := s.AddElement(doc, page, domain.KindContainer, domain.Position{})
	doc, child, _ := s.AddChild(doc, box, domain.KindPropertyFilter, domain.Position{})
	doc, grid, _ := s.AddElement(doc, page, domain.KindProductGrid, domain.Position{})
	doc.Connections = append(doc.Connections, domain.Connection{
		ID: "c1", SourceElementID: child, TargetElementID: grid,
		ConnectionType: domain.ConnectionFilter, IsActive: true,
	})

	doc2, copyID, err := s.DuplicatePage(doc, page)
	if err != nil {
		t.Fatalf("DuplicatePage: %v", err)
	}
	cp, _ := doc2.Page(copyID)
	if cp.Name != "Main page (copy)" || cp.Slug != "main-copy" {
		t.Errorf("name/slug = %q %q", cp.Name, cp.Slug)
	}
	if len(doc2.Elements) != 6 {
		t.Fatalf("elements = %d, want 6", len(doc2.Elements))
	}
	if len(cp.ElementIDs) != 2 || cp.ElementIDs[0] == box {
		t.Fatalf("copied root list not remapped: %v", cp.ElementIDs)
	}
	newBox, _ := doc2.Element(cp.ElementIDs[0])
	if len(newBox.Children) != 1 || newBox.Children[0] == child {
		t.Fatalf("copied children not remapped: %v", newBox.Children)
	}
	newChild, _ := doc2.Element(newBox.Children[0])
	if newChild.ParentID != newBox.ID || newChild.PageID != copyID {
		t.Errorf("child parent/page = %s/%s", newChild.ParentID, newChild.PageID)
	}
	if len(doc2.Connections) != 2 {
		t.Fatalf("connections = %d, want 2", len(doc2.Connections))
	}
	c := doc2.Connections[1]
	if c.SourceElementID != newChild.ID || c.TargetElementID != cp.ElementIDs[1] {
		t.Errorf("copied connection not rewired: %+v", c)
	}
}

func TestPageState_Connections(t *testing.T) {
	s := newStore()
	doc := s.NewDocument("Site")
	page := firstPage(doc)
	doc, other, _ := s.AddPage(doc, "Other")
	doc, a, _ := s.AddElement(doc, page, domain.KindButton, domain.Position{})
	doc, b, _ := s.AddElement(doc, other, domain.KindText, domain.Position{})
	doc, c, _ := s.AddElement(doc, other, domain.KindText, domain.Position{})
	doc.Connections = []domain.Connection{
		{ID: "x", SourceElementID: a, TargetElementID: b, ConnectionType: domain.ConnectionData},
		{ID: "y", SourceElementID: b, TargetElementID: c, ConnectionType: domain.ConnectionData},
	}

	st, err := tree.PageState(doc, page)
	if err != nil {
		t.Fatalf("PageState: %v", err)
	}
	if len(st.Elements) != 1 || len(st.Connections) != 1 || st.Connections[0].ID != "x" {
		t.Errorf("page state = %+v", st)
	}
}
