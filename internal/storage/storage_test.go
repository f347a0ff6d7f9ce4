package storage_test

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"pagebuilder/internal/bus"
	"pagebuilder/internal/domain"
	"pagebuilder/internal/history"
	"pagebuilder/internal/storage"
	"pagebuilder/internal/tree"
)

func openDB(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.New(filepath.Join(t.TempDir(), "pages.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newStore() *tree.Store {
	n := 0
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return tree.New(
		tree.WithIDs(func() string { n++; return fmt.Sprintf("id-%d", n) }),
		tree.WithClock(func() time.Time { return clock }),
	)
}

// sampleDoc builds a page with a container holding two children, a filter
// and a grid joined by a filter connection.
func sampleDoc(t *testing.T) *domain.Document {
	t.Helper()
	s := newStore()
	b := bus.New(s)
	doc := s.NewDocument("Shop")
	page := doc.Pages[0].ID

	doc, box, err := s.AddElement(doc, page, domain.KindContainer, domain.Position{X: 10, Y: 20})
	if err != nil {
		t.Fatal(err)
	}
	doc, _, _ = s.AddChild(doc, box, domain.KindText, domain.Position{})
	doc, _, _ = s.AddChild(doc, box, domain.KindButton, domain.Position{X: 5})
	doc, filter, _ := s.AddElement(doc, page, domain.KindPropertyFilter, domain.Position{})
	doc, grid, _ := s.AddElement(doc, page, domain.KindProductGrid, domain.Position{})
	doc, _, err = b.CreateConnection(doc, filter, grid, domain.ConnectionFilter, domain.ConnectionOptions{Description: "color"})
	if err != nil {
		t.Fatal(err)
	}
	doc, _, _ = s.AddPage(doc, "About")
	return doc
}

func TestDocumentStore_RoundTrip(t *testing.T) {
	store := storage.NewDocumentStore(openDB(t))
	doc := sampleDoc(t)

	if err := store.SaveDocument(doc); err != nil {
		t.Fatalf("SaveDocument: %v", err)
	}
	got, err := store.LoadDocument(doc.ID)
	if err != nil {
		t.Fatalf("LoadDocument: %v", err)
	}

	if got.Name != "Shop" || got.Status != domain.StatusDraft {
		t.Errorf("header = %q/%s", got.Name, got.Status)
	}
	if len(got.Pages) != 2 || got.Pages[1].Name != "About" {
		t.Fatalf("pages = %+v", got.Pages)
	}
	if len(got.Elements) != len(doc.Elements) {
		t.Fatalf("elements = %d, want %d", len(got.Elements), len(doc.Elements))
	}
	if fmt.Sprint(got.Pages[0].ElementIDs) != fmt.Sprint(doc.Pages[0].ElementIDs) {
		t.Errorf("root order = %v, want %v", got.Pages[0].ElementIDs, doc.Pages[0].ElementIDs)
	}
	if len(got.Pages[1].ElementIDs) != 0 || got.Pages[1].ElementIDs == nil {
		t.Errorf("empty page roots = %#v", got.Pages[1].ElementIDs)
	}

	box := doc.Pages[0].ElementIDs[0]
	if fmt.Sprint(got.Elements[box].Children) != fmt.Sprint(doc.Elements[box].Children) {
		t.Errorf("children = %v, want %v", got.Elements[box].Children, doc.Elements[box].Children)
	}
	if got.Elements[box].Position.Y != 20 {
		t.Errorf("position lost: %+v", got.Elements[box].Position)
	}
	grid := doc.Pages[0].ElementIDs[2]
	if got.Elements[grid].Properties.Map("filters") == nil {
		t.Errorf("grid properties = %v", got.Elements[grid].Properties)
	}
	if len(got.Connections) != 1 || got.Connections[0].Description != "color" || !got.Connections[0].IsActive {
		t.Errorf("connections = %+v", got.Connections)
	}
}

func TestDocumentStore_SaveReplaces(t *testing.T) {
	store := storage.NewDocumentStore(openDB(t))
	s := newStore()
	doc := sampleDoc(t)
	if err := store.SaveDocument(doc); err != nil {
		t.Fatal(err)
	}

	box := doc.Pages[0].ElementIDs[0]
	doc, removed, err := s.DeleteElement(doc, box)
	if err != nil {
		t.Fatal(err)
	}
	doc.Name = "Shop v2"
	if err := store.SaveDocument(doc); err != nil {
		t.Fatalf("second save: %v", err)
	}

	got, err := store.LoadDocument(doc.ID)
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range removed {
		if _, ok := got.Elements[id]; ok {
			t.Errorf("element %s survived resave", id)
		}
	}
	if got.Name != "Shop v2" {
		t.Errorf("name = %q", got.Name)
	}

	list, err := store.ListDocuments()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].PageCount != 2 || list[0].ElementCount != 2 {
		t.Errorf("summary = %+v", list)
	}
}

func TestDocumentStore_PublishAndDelete(t *testing.T) {
	store := storage.NewDocumentStore(openDB(t))
	doc := sampleDoc(t)
	if err := store.SaveDocument(doc); err != nil {
		t.Fatal(err)
	}

	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := store.PublishDocument(doc.ID, at); err != nil {
		t.Fatalf("PublishDocument: %v", err)
	}
	got, _ := store.LoadDocument(doc.ID)
	if got.Status != domain.StatusPublished || got.PublishedAt == nil || !got.PublishedAt.Equal(at) {
		t.Errorf("published = %s %v", got.Status, got.PublishedAt)
	}

	if err := store.DeleteDocument(doc.ID); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}
	if _, err := store.LoadDocument(doc.ID); !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Errorf("load after delete: %v", err)
	}
	if err := store.DeleteDocument(doc.ID); !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Errorf("second delete: %v", err)
	}
	if err := store.PublishDocument("missing", at); !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Errorf("publish missing: %v", err)
	}
}

func TestHistoryStore_FollowsManager(t *testing.T) {
	hs := storage.NewHistoryStore(openDB(t))
	s := newStore()
	doc := s.NewDocument("Shop")

	var journalErr error
	m := history.New(history.WithLimit(3), history.WithJournal(hs.For(doc.ID), func(err error) { journalErr = err }))
	m.Reset(doc, "open")
	page := doc.Pages[0].ID
	for _, k := range []domain.Kind{domain.KindText, domain.KindImage, domain.KindButton} {
		doc, _, _ = s.AddElement(doc, page, k, domain.Position{})
		m.Push(doc, "add "+string(k))
	}
	m.Undo()
	doc, _, _ = s.AddElement(doc, page, domain.KindHeading, domain.Position{})
	m.Push(doc, "add heading")
	m.Undo()
	if journalErr != nil {
		t.Fatalf("journal error: %v", journalErr)
	}

	entries, cursor, err := hs.Load(doc.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	var labels []string
	for _, e := range entries {
		labels = append(labels, e.Label)
	}
	if fmt.Sprint(labels) != fmt.Sprint(m.Labels()) {
		t.Errorf("persisted labels = %v, in memory %v", labels, m.Labels())
	}
	if cursor != entries[len(entries)-2].Seq {
		t.Errorf("cursor = %d, want %d", cursor, entries[len(entries)-2].Seq)
	}

	restored := history.New()
	restored.Restore(entries, cursor)
	if !restored.CanRedo() || restored.Cursor() != m.Cursor() {
		t.Errorf("restored cursor = %d, want %d", restored.Cursor(), m.Cursor())
	}
	if len(restored.Current().Elements) != len(m.Current().Elements) {
		t.Errorf("restored snapshot has %d elements, want %d",
			len(restored.Current().Elements), len(m.Current().Elements))
	}

	if err := hs.Clear(doc.ID); err != nil {
		t.Fatal(err)
	}
	if entries, _, _ := hs.Load(doc.ID); len(entries) != 0 {
		t.Errorf("entries after clear = %d", len(entries))
	}
}
