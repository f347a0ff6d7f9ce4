package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"pagebuilder/internal/catalog"
	"pagebuilder/internal/domain"
	"pagebuilder/internal/service"
	"pagebuilder/internal/tree"
)

func newServer(t *testing.T) *Server {
	t.Helper()
	n := 0
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tr := tree.New(
		tree.WithIDs(func() string { n++; return fmt.Sprintf("id-%d", n) }),
		tree.WithClock(func() time.Time { return clock }),
	)
	editor := service.NewEditorService(service.EditorConfig{Tree: tr}, nil, nil)
	products := catalog.NewMemory(nil, nil, []catalog.Product{
		{ID: "1", Name: "Oak door", Properties: map[string]any{"color": "Brown"}},
		{ID: "2", Name: "Red door", Properties: map[string]any{"color": "Red"}},
	})
	return New(Deps{
		Editor:  editor,
		Catalog: service.NewCatalogService(editor, products, nil, nil),
	})
}

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

// decode returns a func that takes a handler's results directly:
// decode[T](t)(s.handleX(ctx, req)).
func decode[T any](t *testing.T) func(*mcp.CallToolResult, error) T {
	return func(res *mcp.CallToolResult, err error) T {
		t.Helper()
		if err != nil {
			t.Fatalf("tool error: %v", err)
		}
		var out T
		text := res.Content[0].(mcp.TextContent).Text
		if err := json.Unmarshal([]byte(text), &out); err != nil {
			t.Fatalf("decode %q: %v", text, err)
		}
		return out
	}
}

func addElement(t *testing.T, s *Server, args map[string]any) string {
	t.Helper()
	res, err := s.handleAddElement(context.Background(), call(args))
	return decode[struct {
		ElementID string `json:"elementId"`
	}](t)(res, err).ElementID
}

func TestTools_FilterDrivesGrid(t *testing.T) {
	s := newServer(t)
	ctx := context.Background()

	filter := addElement(t, s, map[string]any{"kind": "propertyFilter", "properties": `{"propertyName":"color"}`})
	grid := addElement(t, s, map[string]any{"kind": "productGrid"})

	f, _ := s.editor.Element(filter)
	g, _ := s.editor.Element(grid)
	a := rect{f.Position.X, f.Position.Y, f.Size.Width, f.Size.Height}
	b := rect{g.Position.X, g.Position.Y, g.Size.Width, g.Size.Height}
	if a.intersects(b) {
		t.Errorf("auto-placed elements overlap: %+v %+v", f.Position, g.Position)
	}

	if _, err := s.handleToggleSelection(ctx, call(map[string]any{"elementIds": filter + "," + grid})); err != nil {
		t.Fatal(err)
	}
	conn := decode[domain.Connection](t)(s.handleConnectSelected(ctx, call(map[string]any{
		"type": "filter", "targetProperty": "filters",
	})))
	if conn.SourceElementID != filter || conn.TargetElementID != grid {
		t.Errorf("connection = %+v", conn)
	}

	if _, err := s.handleRefreshCatalog(ctx, call(map[string]any{"elementId": filter})); err != nil {
		t.Fatalf("refresh filter: %v", err)
	}
	if _, err := s.handleSetFilterValue(ctx, call(map[string]any{"elementId": filter, "value": "Red"})); err != nil {
		t.Fatal(err)
	}
	props := decode[map[string]any](t)(s.handleRefreshCatalog(ctx, call(map[string]any{"elementId": grid})))
	products, _ := props["products"].([]any)
	if len(products) != 1 {
		t.Fatalf("products = %v", props["products"])
	}

	eff := decode[map[string]any](t)(s.handleGetEffectiveValue(ctx, call(map[string]any{"elementId": filter})))
	if eff["value"] != "Red" {
		t.Errorf("effective value = %v", eff)
	}
}

func TestTools_MoveAndResize(t *testing.T) {
	s := newServer(t)
	ctx := context.Background()
	id := addElement(t, s, map[string]any{"kind": "text", "x": 0.0, "y": 0.0})
	before := len(s.editor.History().Labels)

	pos := decode[domain.Position](t)(s.handleMoveElement(ctx, call(map[string]any{"elementId": id, "x": 105.0, "y": 48.0})))
	if pos != (domain.Position{X: 100, Y: 40}) {
		t.Errorf("moved to %+v, want snapped {100 40}", pos)
	}
	size := decode[domain.Size](t)(s.handleResizeElement(ctx, call(map[string]any{"elementId": id, "width": 5000.0, "height": 10.0})))
	if size.Width != domain.DefaultConstraints.MaxWidth || size.Height != domain.DefaultConstraints.MinHeight {
		t.Errorf("resized to %+v, want clamped to constraints", size)
	}

	h := s.editor.History()
	if len(h.Labels) != before+2 {
		t.Fatalf("labels = %v", h.Labels)
	}
	if h.Labels[len(h.Labels)-2] != "move element" || h.Labels[len(h.Labels)-1] != "resize element" {
		t.Errorf("labels = %v", h.Labels)
	}

	if _, err := s.handleUndo(ctx, call(nil)); err != nil {
		t.Fatal(err)
	}
	el, _ := s.editor.Element(id)
	if el.Size != domain.DefaultSize {
		t.Errorf("size after undo = %+v", el.Size)
	}
}

func TestTools_Pages(t *testing.T) {
	s := newServer(t)
	ctx := context.Background()
	first := s.editor.Document().Pages[0].ID

	if _, err := s.handleDeletePage(ctx, call(map[string]any{"pageId": first})); !errors.Is(err, domain.ErrLastPage) {
		t.Errorf("delete last page: %v", err)
	}
	added := decode[map[string]string](t)(s.handleAddPage(ctx, call(map[string]any{"name": "About"})))
	if s.activePageID != added["pageId"] {
		t.Errorf("active page = %s, want %s", s.activePageID, added["pageId"])
	}
	id := addElement(t, s, map[string]any{"kind": "hero"})
	if el, _ := s.editor.Element(id); el.PageID != added["pageId"] {
		t.Errorf("element landed on %s", el.PageID)
	}

	if _, err := s.handleSetActivePage(ctx, call(map[string]any{"pageId": "nope"})); !errors.Is(err, domain.ErrPageNotFound) {
		t.Errorf("set unknown page: %v", err)
	}
	pages := decode[[]pageSummary](t)(s.handleListPages(ctx, call(nil)))
	if len(pages) != 2 || !pages[1].Active || pages[1].Elements != 1 {
		t.Errorf("pages = %+v", pages)
	}
}

func TestTools_Templates(t *testing.T) {
	s := newServer(t)
	ctx := context.Background()

	list := decode[[]templateSummary](t)(s.handleListTemplates(ctx, call(nil)))
	if len(list) != 2 || list[0].Key != "catalog" || list[1].Key != "landing" {
		t.Errorf("templates = %+v", list)
	}
	if _, err := s.handleApplyTemplate(ctx, call(map[string]any{"template": "nope"})); err == nil {
		t.Error("expected unknown template error")
	}

	applied := decode[map[string]string](t)(s.handleApplyTemplate(ctx, call(map[string]any{"template": "catalog", "replace": true})))
	if s.activePageID != applied["pageId"] {
		t.Errorf("active page = %s, want %s", s.activePageID, applied["pageId"])
	}
	doc := s.editor.Document()
	if len(doc.Pages) != 1 || len(doc.Connections) != 2 {
		t.Errorf("pages = %d, connections = %d", len(doc.Pages), len(doc.Connections))
	}
	h := s.editor.History()
	if h.Labels[len(h.Labels)-1] != "apply template" {
		t.Errorf("labels = %v", h.Labels)
	}

	custom := `{"name":"Tiny","elements":[{"kind":"text","properties":{"content":"Hi"}}]}`
	applied = decode[map[string]string](t)(s.handleApplyTemplate(ctx, call(map[string]any{"templateJson": custom})))
	page, _ := s.editor.Document().Page(applied["pageId"])
	if page.Name != "Tiny" || len(page.ElementIDs) != 1 {
		t.Errorf("custom page = %+v", page)
	}
}

func TestTools_ElementErrors(t *testing.T) {
	s := newServer(t)
	ctx := context.Background()
	if _, err := s.handleGetElement(ctx, call(map[string]any{"elementId": "missing"})); !errors.Is(err, domain.ErrElementNotFound) {
		t.Errorf("get missing: %v", err)
	}
	if _, err := s.handleUpdateElement(ctx, call(map[string]any{"elementId": ""})); err == nil {
		t.Error("expected elementId error")
	}
	id := addElement(t, s, map[string]any{"kind": "text"})
	if _, err := s.handleUpdateElement(ctx, call(map[string]any{"elementId": id, "properties": "{"})); err == nil {
		t.Error("expected JSON error")
	}
	if _, err := s.handleCreateConnection(ctx, call(map[string]any{"sourceId": id, "targetId": id, "type": "data"})); !errors.Is(err, domain.ErrSelfLoop) {
		t.Errorf("self loop: %v", err)
	}

	if _, err := s.editor.DeleteElement(id); err != nil {
		t.Fatal(err)
	}
	if _, err := s.currentElement(id); !errors.Is(err, domain.ErrElementNotFound) {
		t.Errorf("deleted element lookup: %v", err)
	}
	if _, err := s.handleResizeElement(ctx, call(map[string]any{"elementId": id, "width": 300.0})); !errors.Is(err, domain.ErrElementNotFound) {
		t.Errorf("resize deleted: %v", err)
	}
}
