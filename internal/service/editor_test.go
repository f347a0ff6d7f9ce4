package service_test

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"pagebuilder/internal/bus"
	"pagebuilder/internal/domain"
	"pagebuilder/internal/geometry"
	"pagebuilder/internal/selection"
	"pagebuilder/internal/service"
	"pagebuilder/internal/storage"
	"pagebuilder/internal/tree"
)

func newTree() *tree.Store {
	n := 0
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return tree.New(
		tree.WithIDs(func() string { n++; return fmt.Sprintf("id-%d", n) }),
		tree.WithClock(func() time.Time { return clock }),
	)
}

func newEditor(t *testing.T) (*service.EditorService, *service.MockEmitter) {
	t.Helper()
	em := &service.MockEmitter{}
	return service.NewEditorService(service.EditorConfig{Tree: newTree()}, em, nil), em
}

func firstPage(s *service.EditorService) string { return s.Document().Pages[0].ID }

func mustAdd(t *testing.T, s *service.EditorService, kind domain.Kind) string {
	t.Helper()
	id, err := s.AddElement(firstPage(s), kind, domain.Position{})
	if err != nil {
		t.Fatalf("AddElement(%s): %v", kind, err)
	}
	return id
}

// filterAndGrid wires a color filter to a product grid through the
// selection, the way a user does it.
func filterAndGrid(t *testing.T, s *service.EditorService) (filter, grid string) {
	t.Helper()
	filter = mustAdd(t, s, domain.KindPropertyFilter)
	grid = mustAdd(t, s, domain.KindProductGrid)
	if err := s.UpdateElement(filter, domain.ElementPatch{
		Properties: domain.Properties{"propertyName": "color"},
	}); err != nil {
		t.Fatal(err)
	}
	if err := s.Toggle(filter); err != nil {
		t.Fatal(err)
	}
	if err := s.Toggle(grid); err != nil {
		t.Fatal(err)
	}
	if _, err := s.ConnectSelected(selection.Forward, domain.ConnectionFilter,
		domain.ConnectionOptions{TargetProperty: domain.PropFilters}); err != nil {
		t.Fatalf("ConnectSelected: %v", err)
	}
	return filter, grid
}

func TestEditor_FilterScenarioWithUndo(t *testing.T) {
	s, em := newEditor(t)
	filter, grid := filterAndGrid(t, s)

	rep, err := s.SetFilterValue(filter, "Red")
	if err != nil {
		t.Fatalf("SetFilterValue: %v", err)
	}
	if len(rep.Updated) != 1 || rep.Updated[0] != grid {
		t.Fatalf("updated = %v, want [%s]", rep.Updated, grid)
	}
	el, _ := s.Element(grid)
	if got := el.Properties.Map("filters")["color"]; got != "Red" {
		t.Errorf("grid filters = %v", el.Properties.Map("filters"))
	}

	h := s.History()
	n := len(h.Labels)
	if h.Labels[n-3] != "create connection" || h.Labels[n-2] != "set filter value" || h.Labels[n-1] != "propagate filter" {
		t.Errorf("labels = %v", h.Labels)
	}

	if !s.Undo() {
		t.Fatal("undo failed")
	}
	el, _ = s.Element(grid)
	if len(el.Properties.Map("filters")) != 0 {
		t.Errorf("undo left filters = %v", el.Properties.Map("filters"))
	}
	if !s.Redo() {
		t.Fatal("redo failed")
	}
	el, _ = s.Element(grid)
	if el.Properties.Map("filters")["color"] != "Red" {
		t.Error("redo did not restore the propagated filter")
	}

	if shared, ok := s.Registry().Lookup("color"); !ok || shared.Value != "Red" {
		t.Errorf("registry = %+v, %v", shared, ok)
	}
	if len(em.Named(service.EventDocumentChanged)) == 0 {
		t.Error("no document:changed events")
	}
}

func TestEditor_ConnectSelectedNeedsTwo(t *testing.T) {
	s, _ := newEditor(t)
	a := mustAdd(t, s, domain.KindButton)
	if err := s.SelectSingle(a); err != nil {
		t.Fatal(err)
	}
	_, err := s.ConnectSelected(selection.Forward, domain.ConnectionData, domain.ConnectionOptions{})
	if !errors.Is(err, domain.ErrNotEnoughSelected) {
		t.Errorf("err = %v, want ErrNotEnoughSelected", err)
	}
	if err := s.SelectSingle("missing"); !errors.Is(err, domain.ErrElementNotFound) {
		t.Errorf("select missing: %v", err)
	}
}

func TestEditor_DeleteCascadesConnections(t *testing.T) {
	s, em := newEditor(t)
	filter, grid := filterAndGrid(t, s)
	before := len(s.History().Labels)

	removed, err := s.DeleteElement(filter)
	if err != nil {
		t.Fatalf("DeleteElement: %v", err)
	}
	if len(removed) != 1 {
		t.Errorf("removed = %v", removed)
	}
	if n := len(s.Document().Connections); n != 0 {
		t.Errorf("connections after delete = %d", n)
	}
	if sel := s.Selection(); sel.Mode != selection.Multi.String() || len(sel.Members) != 1 || sel.Members[0] != grid {
		t.Errorf("selection = %+v", sel)
	}
	if len(s.History().Labels) != before+1 {
		t.Errorf("delete took %d history entries", len(s.History().Labels)-before)
	}
	if len(em.Named(service.EventSelectionChanged)) == 0 {
		t.Error("selection change not emitted")
	}

	s.Undo()
	doc := s.Document()
	if _, ok := doc.Element(filter); !ok || len(doc.Connections) != 1 {
		t.Errorf("undo restored element=%v connections=%d", ok, len(doc.Connections))
	}
}

func TestEditor_DeletePageCascades(t *testing.T) {
	s, _ := newEditor(t)
	page2, err := s.AddPage("Second")
	if err != nil {
		t.Fatal(err)
	}
	a := mustAdd(t, s, domain.KindButton)
	b, err := s.AddElement(page2, domain.KindCart, domain.Position{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateConnection(a, b, domain.ConnectionCart, domain.ConnectionOptions{}); err != nil {
		t.Fatal(err)
	}

	if err := s.DeletePage(page2); err != nil {
		t.Fatalf("DeletePage: %v", err)
	}
	if len(s.Document().Connections) != 0 {
		t.Error("cross-page connection survived page delete")
	}
	if err := s.DeletePage(firstPage(s)); !errors.Is(err, domain.ErrLastPage) {
		t.Errorf("delete last page: %v", err)
	}
}

func TestEditor_DragIsOneUndoStep(t *testing.T) {
	s, _ := newEditor(t)
	id := mustAdd(t, s, domain.KindText)
	before := len(s.History().Labels)

	if err := s.BeginDrag(id, domain.Position{X: 10, Y: 10}); err != nil {
		t.Fatalf("BeginDrag: %v", err)
	}
	for _, p := range []domain.Position{{X: 30, Y: 20}, {X: 50, Y: 50}, {X: 95, Y: 70}} {
		if err := s.MoveGesture(p); err != nil {
			t.Fatalf("MoveGesture: %v", err)
		}
	}
	if s.Undo() {
		t.Error("undo must be refused during a gesture")
	}
	if err := s.EndGesture(); err != nil {
		t.Fatalf("EndGesture: %v", err)
	}

	el, _ := s.Element(id)
	if el.Position != (domain.Position{X: 80, Y: 60}) {
		t.Errorf("position = %+v, want snapped {80 60}", el.Position)
	}
	h := s.History()
	if len(h.Labels) != before+1 || h.Labels[len(h.Labels)-1] != "move element" {
		t.Errorf("labels = %v", h.Labels)
	}

	s.Undo()
	el, _ = s.Element(id)
	if el.Position != (domain.Position{}) {
		t.Errorf("undo position = %+v", el.Position)
	}
}

func TestEditor_CommitDuringGestureKeepsHistoryInStep(t *testing.T) {
	s, _ := newEditor(t)
	a := mustAdd(t, s, domain.KindText)
	if err := s.BeginDrag(a, domain.Position{}); err != nil {
		t.Fatal(err)
	}
	if err := s.MoveGesture(domain.Position{X: 210, Y: 210}); err != nil {
		t.Fatal(err)
	}
	b := mustAdd(t, s, domain.KindButton)

	h := s.History()
	want := []string{"new document", "add element", "move element", "add element"}
	if fmt.Sprint(h.Labels) != fmt.Sprint(want) {
		t.Errorf("labels = %v, want %v", h.Labels, want)
	}
	if err := s.CancelGesture(); !errors.Is(err, domain.ErrNoGesture) {
		t.Errorf("CancelGesture after commit = %v, want ErrNoGesture", err)
	}
	if _, ok := s.Element(b); !ok {
		t.Error("element added during the gesture is missing from the open document")
	}
	el, _ := s.Element(a)
	if el.Position != (domain.Position{X: 200, Y: 200}) {
		t.Errorf("dragged position = %+v, want {200 200}", el.Position)
	}

	s.Undo()
	if _, ok := s.Element(b); ok {
		t.Error("undo did not remove the added element")
	}
	el, _ = s.Element(a)
	if el.Position != (domain.Position{X: 200, Y: 200}) {
		t.Errorf("undo position = %+v, want the drag kept", el.Position)
	}
}

func TestEditor_EmitRequiresEmittingKind(t *testing.T) {
	s, _ := newEditor(t)
	tests := []struct {
		kind domain.Kind
		want error
	}{
		{domain.KindButton, nil},
		{domain.KindPropertyFilter, nil},
		{"customWidget", nil},
		{domain.KindText, domain.ErrNotEmitter},
		{domain.KindDivider, domain.ErrNotEmitter},
	}
	for _, tt := range tests {
		id := mustAdd(t, s, tt.kind)
		_, err := s.Emit(id, bus.Payload{Value: "x"})
		if !errors.Is(err, tt.want) {
			t.Errorf("Emit from %s = %v, want %v", tt.kind, err, tt.want)
		}
	}
	if _, err := s.Emit("missing", bus.Payload{}); !errors.Is(err, domain.ErrElementNotFound) {
		t.Errorf("Emit from missing element = %v", err)
	}
}

func TestEditor_DragClampsToCanvas(t *testing.T) {
	s, _ := newEditor(t)
	id := mustAdd(t, s, domain.KindText)
	if err := s.BeginDrag(id, domain.Position{}); err != nil {
		t.Fatal(err)
	}
	if err := s.MoveGesture(domain.Position{X: 5000, Y: -300}); err != nil {
		t.Fatal(err)
	}
	s.EndGesture()
	el, _ := s.Element(id)
	if el.Position != (domain.Position{X: 1000, Y: 0}) {
		t.Errorf("position = %+v, want {1000 0}", el.Position)
	}
}

func TestEditor_ResizeAndCancel(t *testing.T) {
	s, _ := newEditor(t)
	id := mustAdd(t, s, domain.KindImage)

	if err := s.BeginResize(id, geometry.HandleSE, domain.Position{X: 200, Y: 100}); err != nil {
		t.Fatal(err)
	}
	if err := s.MoveGesture(domain.Position{X: 2000, Y: 110}); err != nil {
		t.Fatal(err)
	}
	el, _ := s.Element(id)
	if el.Size != (domain.Size{Width: 800, Height: 110}) {
		t.Errorf("size during gesture = %+v", el.Size)
	}
	if err := s.CancelGesture(); err != nil {
		t.Fatal(err)
	}
	el, _ = s.Element(id)
	if el.Size != domain.DefaultSize {
		t.Errorf("cancel left size = %+v", el.Size)
	}
	if err := s.EndGesture(); !errors.Is(err, domain.ErrNoGesture) {
		t.Errorf("EndGesture without gesture: %v", err)
	}
}

func TestEditor_LockedElementRefusesGesture(t *testing.T) {
	s, _ := newEditor(t)
	id := mustAdd(t, s, domain.KindText)
	locked := true
	if err := s.UpdateElement(id, domain.ElementPatch{Locked: &locked}); err != nil {
		t.Fatal(err)
	}
	if err := s.BeginDrag(id, domain.Position{}); !errors.Is(err, domain.ErrLocked) {
		t.Errorf("BeginDrag on locked: %v", err)
	}
}

func TestEditor_DropElementSnaps(t *testing.T) {
	s, _ := newEditor(t)
	id, err := s.DropElement(firstPage(s), domain.KindHeading, domain.Position{X: 105, Y: 48}, 50)
	if err != nil {
		t.Fatal(err)
	}
	el, _ := s.Element(id)
	if el.Position != (domain.Position{X: 220, Y: 100}) {
		t.Errorf("drop position = %+v", el.Position)
	}
}

func TestEditor_SaveLoadRestoresHistory(t *testing.T) {
	db, err := storage.New(filepath.Join(t.TempDir(), "pages.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	cfg := service.EditorConfig{
		Tree:    newTree(),
		Store:   storage.NewDocumentStore(db),
		History: storage.NewHistoryStore(db),
	}

	s := service.NewEditorService(cfg, nil, nil)
	doc := s.NewDocument("Shop")
	mustAdd(t, s, domain.KindText)
	mustAdd(t, s, domain.KindImage)
	s.Undo()
	if !s.Dirty() {
		t.Error("new document should be dirty")
	}
	if err := s.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if s.Dirty() {
		t.Error("dirty after save")
	}

	other := service.NewEditorService(cfg, nil, nil)
	loaded, err := other.Load(doc.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.Elements) != 1 {
		t.Errorf("loaded elements = %d, want 1", len(loaded.Elements))
	}
	h := other.History()
	if !h.CanRedo || len(h.Labels) != 3 {
		t.Errorf("restored history = %+v", h)
	}
	if !other.Redo() || len(other.Document().Elements) != 2 {
		t.Error("redo after load did not bring back the image")
	}
}

func TestEditor_PublishSaves(t *testing.T) {
	db, err := storage.New(filepath.Join(t.TempDir(), "pages.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	store := storage.NewDocumentStore(db)
	s := service.NewEditorService(service.EditorConfig{Tree: newTree(), Store: store}, nil, nil)

	if err := s.Publish(); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	got, err := store.LoadDocument(s.Document().ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.StatusPublished || got.PublishedAt == nil {
		t.Errorf("stored status = %s, publishedAt = %v", got.Status, got.PublishedAt)
	}
}
