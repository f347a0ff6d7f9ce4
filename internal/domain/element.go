package domain

import "time"

// Position is a canvas coordinate in pixels.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is a width/height pair in pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Constraints bound the size of an element. A zero max means unbounded.
type Constraints struct {
	MinWidth  float64 `json:"minWidth"`
	MinHeight float64 `json:"minHeight"`
	MaxWidth  float64 `json:"maxWidth,omitempty"`
	MaxHeight float64 `json:"maxHeight,omitempty"`
}

// Style is the visual box style of an element.
type Style struct {
	BackgroundColor string  `json:"backgroundColor,omitempty"`
	BorderColor     string  `json:"borderColor,omitempty"`
	BorderWidth     float64 `json:"borderWidth,omitempty"`
	BorderRadius    float64 `json:"borderRadius,omitempty"`
	Padding         Spacing `json:"padding"`
	Margin          Spacing `json:"margin"`
	Opacity         float64 `json:"opacity,omitempty"`
	ZIndex          int     `json:"zIndex,omitempty"`
}

// Element is one block instance on a page.
//
// Children is only populated for container kinds and lists child ids in
// order. ParentID is empty for root elements.
type Element struct {
	ID          string      `json:"id"`
	Kind        Kind        `json:"kind"`
	PageID      string      `json:"pageId"`
	ParentID    string      `json:"parentId,omitempty"`
	Position    Position    `json:"position"`
	Size        Size        `json:"size"`
	Constraints Constraints `json:"constraints"`
	Style       Style       `json:"style"`
	Properties  Properties  `json:"properties"`
	Children    []string    `json:"children,omitempty"`
	Visible     bool        `json:"visible"`
	Locked      bool        `json:"locked"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// Default element geometry, as placed by the palette.
var (
	DefaultSize        = Size{Width: 200, Height: 100}
	DefaultConstraints = Constraints{MinWidth: 50, MinHeight: 50, MaxWidth: 800, MaxHeight: 600}
	DefaultStyle       = Style{
		BackgroundColor: "transparent",
		BorderColor:     "transparent",
		Padding:         Spacing{Top: 8, Right: 8, Bottom: 8, Left: 8},
	}
)

// Clone returns a deep copy of the element.
func (e *Element) Clone() *Element {
	out := *e
	out.Properties = e.Properties.Clone()
	out.Children = append([]string(nil), e.Children...)
	return &out
}

// IsContainer reports whether the element may own children.
func (e *Element) IsContainer() bool {
	return LookupKind(e.Kind).Container
}

// ElementPatch is a partial update. Nil fields are left untouched;
// Properties is merged one level deep into the existing properties.
type ElementPatch struct {
	Position    *Position    `json:"position,omitempty"`
	Size        *Size        `json:"size,omitempty"`
	Constraints *Constraints `json:"constraints,omitempty"`
	Style       *Style       `json:"style,omitempty"`
	Properties  Properties   `json:"properties,omitempty"`
	Visible     *bool        `json:"visible,omitempty"`
	Locked      *bool        `json:"locked,omitempty"`
}

// Apply returns a new element with the patch merged onto e.
func (p ElementPatch) Apply(e *Element, now time.Time) *Element {
	out := e.Clone()
	if p.Position != nil {
		out.Position = *p.Position
	}
	if p.Size != nil {
		out.Size = *p.Size
	}
	if p.Constraints != nil {
		out.Constraints = *p.Constraints
	}
	if p.Style != nil {
		out.Style = *p.Style
	}
	if p.Properties != nil {
		out.Properties = out.Properties.Merge(p.Properties)
	}
	if p.Visible != nil {
		out.Visible = *p.Visible
	}
	if p.Locked != nil {
		out.Locked = *p.Locked
	}
	out.UpdatedAt = now
	return out
}
