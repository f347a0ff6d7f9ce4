package domain

import "time"

// DocumentStatus is the publication state of a document.
type DocumentStatus string

const (
	StatusDraft     DocumentStatus = "draft"
	StatusPublished DocumentStatus = "published"
	StatusArchived  DocumentStatus = "archived"
)

// Document is the whole authored project: pages, the element arena and the
// document-scoped connection list.
//
// Elements is a flat arena keyed by element id. Pages and container elements
// reference their members by id, in order. A *Document handed out by the tree
// store, the bus or the history is treated as immutable: every mutation builds
// a new Document that shares the untouched *Element values with the old one.
type Document struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	Pages       []Page              `json:"pages"`
	Elements    map[string]*Element `json:"elements"`
	Connections []Connection        `json:"connections"`
	Settings    DocumentSettings    `json:"settings"`
	Status      DocumentStatus      `json:"status"`
	PublishedAt *time.Time          `json:"publishedAt,omitempty"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

// DocumentSettings holds document-wide presentation settings.
type DocumentSettings struct {
	Theme     Theme  `json:"theme"`
	SiteName  string `json:"siteName,omitempty"`
	CustomCSS string `json:"customCss,omitempty"`
}

// Page is one canvas. ElementIDs is the ordered root list; nesting only
// happens through container elements.
type Page struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Slug       string       `json:"slug"`
	ElementIDs []string     `json:"elementIds"`
	Settings   PageSettings `json:"settings"`
	Theme      Theme        `json:"theme"`
	CreatedAt  time.Time    `json:"createdAt"`
	UpdatedAt  time.Time    `json:"updatedAt"`
}

// PageSettings is the canvas geometry and background of a page.
type PageSettings struct {
	Width           float64 `json:"width"`
	Height          float64 `json:"height"`
	BackgroundColor string  `json:"backgroundColor"`
	Padding         Spacing `json:"padding"`
	Margin          Spacing `json:"margin"`
}

// Spacing is a four-sided box measurement.
type Spacing struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// Theme is the colour and typography palette of a page or document.
type Theme struct {
	Colors     ThemeColors `json:"colors"`
	FontFamily string      `json:"fontFamily"`
	FontSize   string      `json:"fontSize"`
}

// ThemeColors is the named colour palette of a theme.
type ThemeColors struct {
	Primary    string `json:"primary"`
	Secondary  string `json:"secondary"`
	Accent     string `json:"accent"`
	Background string `json:"background"`
	Text       string `json:"text"`
}

// DefaultTheme returns the palette new pages and documents start with.
func DefaultTheme() Theme {
	return Theme{
		Colors: ThemeColors{
			Primary:    "#3b82f6",
			Secondary:  "#64748b",
			Accent:     "#f59e0b",
			Background: "#ffffff",
			Text:       "#1f2937",
		},
		FontFamily: "Inter, sans-serif",
		FontSize:   "16px",
	}
}

// DefaultPageSettings returns the canvas settings of a freshly created page.
func DefaultPageSettings() PageSettings {
	return PageSettings{
		Width:           1200,
		Height:          800,
		BackgroundColor: "#ffffff",
	}
}

// NewDocument builds an empty draft document with a single page.
func NewDocument(id, name, firstPageID string, now time.Time) *Document {
	return &Document{
		ID:   id,
		Name: name,
		Pages: []Page{{
			ID:         firstPageID,
			Name:       "Main page",
			Slug:       "main",
			ElementIDs: []string{},
			Settings:   DefaultPageSettings(),
			Theme:      DefaultTheme(),
			CreatedAt:  now,
			UpdatedAt:  now,
		}},
		Elements:    map[string]*Element{},
		Connections: []Connection{},
		Settings:    DocumentSettings{Theme: DefaultTheme()},
		Status:      StatusDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Clone returns a shallow copy that is safe to mutate structurally: the page
// list, each page's root list, the element map and the connection list are
// copied, while *Element values are shared.
func (d *Document) Clone() *Document {
	out := *d
	out.Pages = make([]Page, len(d.Pages))
	for i, p := range d.Pages {
		p.ElementIDs = append([]string(nil), p.ElementIDs...)
		out.Pages[i] = p
	}
	out.Elements = make(map[string]*Element, len(d.Elements))
	for id, el := range d.Elements {
		out.Elements[id] = el
	}
	out.Connections = append([]Connection(nil), d.Connections...)
	if d.PublishedAt != nil {
		t := *d.PublishedAt
		out.PublishedAt = &t
	}
	return &out
}

// Page returns the page with the given id.
func (d *Document) Page(id string) (*Page, bool) {
	for i := range d.Pages {
		if d.Pages[i].ID == id {
			return &d.Pages[i], true
		}
	}
	return nil, false
}

// PageIndex returns the position of the page in Pages, or -1.
func (d *Document) PageIndex(id string) int {
	for i := range d.Pages {
		if d.Pages[i].ID == id {
			return i
		}
	}
	return -1
}

// Element returns the element with the given id from the arena.
func (d *Document) Element(id string) (*Element, bool) {
	el, ok := d.Elements[id]
	return el, ok
}

// Connection returns the connection with the given id.
func (d *Document) Connection(id string) (*Connection, bool) {
	for i := range d.Connections {
		if d.Connections[i].ID == id {
			return &d.Connections[i], true
		}
	}
	return nil, false
}

// PagePatch is a partial update of a page. Nil fields are left untouched.
type PagePatch struct {
	Name     *string       `json:"name,omitempty"`
	Slug     *string       `json:"slug,omitempty"`
	Settings *PageSettings `json:"settings,omitempty"`
	Theme    *Theme        `json:"theme,omitempty"`
}

// Apply returns p with the patch applied.
func (pp PagePatch) Apply(p Page, now time.Time) Page {
	if pp.Name != nil {
		p.Name = *pp.Name
	}
	if pp.Slug != nil {
		p.Slug = *pp.Slug
	}
	if pp.Settings != nil {
		p.Settings = *pp.Settings
	}
	if pp.Theme != nil {
		p.Theme = *pp.Theme
	}
	p.UpdatedAt = now
	return p
}
