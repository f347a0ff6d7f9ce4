package domain

import "sort"

// Template is a reusable page layout. Elements are instantiated with fresh
// ids; Ref names an element so template connections can point at it.
type Template struct {
	Name        string               `json:"name"`
	Description string               `json:"description,omitempty"`
	Elements    []TemplateElement    `json:"elements"`
	Connections []TemplateConnection `json:"connections,omitempty"`
}

type TemplateElement struct {
	Ref        string            `json:"ref,omitempty"`
	Kind       Kind              `json:"kind"`
	Position   Position          `json:"position"`
	Size       *Size             `json:"size,omitempty"`
	Properties Properties        `json:"properties,omitempty"`
	Children   []TemplateElement `json:"children,omitempty"`
}

type TemplateConnection struct {
	From           string         `json:"from"`
	To             string         `json:"to"`
	ConnectionType ConnectionType `json:"connectionType"`
	SourceProperty string         `json:"sourceProperty,omitempty"`
	TargetProperty string         `json:"targetProperty,omitempty"`
	Description    string         `json:"description,omitempty"`
}

var templates = map[string]Template{
	"landing": {
		Name:        "Landing",
		Description: "Header, hero, three feature cards, call to action and footer",
		Elements: []TemplateElement{
			{Kind: KindHeader, Size: &Size{Width: 1200, Height: 80}},
			{Kind: KindHero, Position: Position{Y: 100}, Size: &Size{Width: 1200, Height: 320}},
			{Kind: KindCard, Position: Position{X: 0, Y: 440}, Size: &Size{Width: 380, Height: 200}},
			{Kind: KindCard, Position: Position{X: 400, Y: 440}, Size: &Size{Width: 380, Height: 200}},
			{Kind: KindCard, Position: Position{X: 800, Y: 440}, Size: &Size{Width: 380, Height: 200}},
			{Kind: KindButton, Position: Position{X: 500, Y: 660}},
			{Kind: KindFooter, Position: Position{Y: 780}, Size: &Size{Width: 1200, Height: 80}},
		},
	},
	"catalog": {
		Name:        "Catalog",
		Description: "Category tree and a property filter driving a product grid",
		Elements: []TemplateElement{
			{Ref: "tree", Kind: KindCatalogTree, Size: &Size{Width: 260, Height: 400}},
			{Ref: "filter", Kind: KindPropertyFilter, Position: Position{X: 280}, Size: &Size{Width: 900, Height: 80}},
			{Ref: "grid", Kind: KindProductGrid, Position: Position{X: 280, Y: 100}, Size: &Size{Width: 800, Height: 600}},
		},
		Connections: []TemplateConnection{
			{From: "filter", To: "grid", ConnectionType: ConnectionFilter, SourceProperty: "value", TargetProperty: "filters"},
			{From: "tree", To: "grid", ConnectionType: ConnectionData, TargetProperty: "categoryIds"},
		},
	},
}

// LookupTemplate returns a built-in template by key.
func LookupTemplate(key string) (Template, bool) {
	t, ok := templates[key]
	return t, ok
}

// TemplateKeys lists the built-in templates in name order.
func TemplateKeys() []string {
	keys := make([]string, 0, len(templates))
	for k := range templates {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
