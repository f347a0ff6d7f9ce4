package render

import (
	"strings"
	"testing"

	"pagebuilder/internal/domain"
)

func sampleDoc() *domain.Document {
	el := func(id, page string, kind domain.Kind, children ...string) *domain.Element {
		return &domain.Element{ID: id, PageID: page, Kind: kind, Properties: domain.Properties{}, Children: children}
	}
	filter := el("f", "home", domain.KindPropertyFilter)
	filter.Properties["propertyName"] = "color"
	return &domain.Document{
		ID: "d",
		Pages: []domain.Page{
			{ID: "home", Name: "Home", ElementIDs: []string{"box", "f"}},
			{ID: "shop", Name: "Shop", ElementIDs: []string{"g"}},
		},
		Elements: map[string]*domain.Element{
			"box": el("box", "home", domain.KindContainer, "btn"),
			"btn": el("btn", "home", domain.KindButton),
			"f":   filter,
			"g":   el("g", "shop", domain.KindProductGrid),
		},
		Connections: []domain.Connection{
			{ID: "c1", SourceElementID: "f", TargetElementID: "g", ConnectionType: domain.ConnectionFilter, Description: "color", IsActive: true},
			{ID: "c2", SourceElementID: "btn", TargetElementID: "g", ConnectionType: domain.ConnectionNavigate, IsActive: false},
			{ID: "c3", SourceElementID: "f", TargetElementID: "gone", ConnectionType: domain.ConnectionData, IsActive: true},
		},
	}
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(sampleDoc(), Options{})

	for _, want := range []string{
		`"f" -> "g" [label="filter: color"`,
		`label="Home"`,
		`label="Shop"`,
		`"f" [label="propertyFilter\ncolor"]`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %s:\n%s", want, dot)
		}
	}
	if strings.Contains(dot, `"btn"`) {
		t.Error("inactive connection drawn without Inactive option")
	}
	if strings.Contains(dot, "gone") {
		t.Error("dangling connection drawn")
	}
}

func TestToDOT_Options(t *testing.T) {
	dot := ToDOT(sampleDoc(), Options{Inactive: true})
	if !strings.Contains(dot, `"btn" -> "g"`) || !strings.Contains(dot, "style=dashed") {
		t.Errorf("inactive connection not drawn dashed:\n%s", dot)
	}

	dot = ToDOT(sampleDoc(), Options{PageID: "nowhere"})
	if strings.Contains(dot, "->") {
		t.Errorf("page filter kept edges:\n%s", dot)
	}
}
