package service

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"pagebuilder/internal/bus"
	"pagebuilder/internal/domain"
	"pagebuilder/internal/geometry"
	"pagebuilder/internal/history"
	"pagebuilder/internal/selection"
	"pagebuilder/internal/tree"
)

// ─────────────────────────────────────────────────────────────
// Editor Service: the single entry point a host drives
// ─────────────────────────────────────────────────────────────

// Events emitted by the editor.
const (
	EventDocumentChanged  = "document:changed"
	EventSelectionChanged = "selection:changed"
	EventCatalogError     = "catalog:error"
	EventDocumentImported = "document:imported"
)

// HistoryStore persists undo history per document. storage.HistoryStore
// implements it.
type HistoryStore interface {
	For(documentID string) history.Journal
	Load(documentID string) ([]history.Entry, int, error)
}

// DocumentChange is the payload of EventDocumentChanged.
type DocumentChange struct {
	DocumentID string `json:"documentId"`
	Label      string `json:"label"`
	CanUndo    bool   `json:"canUndo"`
	CanRedo    bool   `json:"canRedo"`
}

// EditorConfig wires the collaborators of an EditorService. Zero values
// fall back to defaults; Store and History may be nil for an in-memory
// editor.
type EditorConfig struct {
	Tree         *tree.Store
	Registry     *bus.Registry
	Effects      bus.Effects
	Store        domain.DocumentStore
	History      HistoryStore
	GridSize     float64
	HistoryLimit int
	MaxHops      int
}

// EditorService owns the open document, its history and the selection.
// All methods are serialized by one mutex, so background collaborators
// (autosave, import watcher, catalog fetches, MCP requests) observe the
// same ordering a single UI event loop would give.
//
// The emitter is called with the lock held and must not call back into
// the service.
type EditorService struct {
	mu sync.Mutex

	tree     *tree.Store
	bus      *bus.Bus
	store    domain.DocumentStore
	journals HistoryStore
	emitter  EventEmitter
	logger   *log.Logger
	grid     float64
	limit    int

	doc       *domain.Document
	saved     *domain.Document
	history   *history.Manager
	selection selection.Model
	gesture   *gesture
}

// NewEditorService creates an EditorService with an empty untitled document.
func NewEditorService(cfg EditorConfig, emitter EventEmitter, logger *log.Logger) *EditorService {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if cfg.Tree == nil {
		cfg.Tree = tree.New()
	}
	if cfg.GridSize == 0 {
		cfg.GridSize = geometry.DefaultGridSize
	}
	if cfg.HistoryLimit == 0 {
		cfg.HistoryLimit = history.DefaultLimit
	}
	opts := []bus.Option{bus.WithLogger(logger), bus.WithMaxHops(cfg.MaxHops)}
	if cfg.Registry != nil {
		opts = append(opts, bus.WithRegistry(cfg.Registry))
	}
	if cfg.Effects != nil {
		opts = append(opts, bus.WithEffects(cfg.Effects))
	}
	if emitter == nil {
		emitter = &MockEmitter{}
	}

	s := &EditorService{
		tree:     cfg.Tree,
		bus:      bus.New(cfg.Tree, opts...),
		store:    cfg.Store,
		journals: cfg.History,
		emitter:  emitter,
		logger:   logger,
		grid:     cfg.GridSize,
		limit:    cfg.HistoryLimit,
	}
	s.open(cfg.Tree.NewDocument("Untitled"), "new document", false)
	return s
}

// ── Document lifecycle ─────────────────────────────────────

// NewDocument replaces the open document with a fresh one.
func (s *EditorService) NewDocument(name string) *domain.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open(s.tree.NewDocument(name), "new document", true)
	return s.doc
}

// Open makes doc the open document, starting a new history.
func (s *EditorService) Open(doc *domain.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open(doc, "open", true)
}

// Load opens a stored document. Its persisted history is restored when a
// history store is configured; the entry under the cursor becomes the open
// document.
func (s *EditorService) Load(id string) (*domain.Document, error) {
	if s.store == nil {
		return nil, fmt.Errorf("load document: no document store configured")
	}
	doc, err := s.store.LoadDocument(id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.journals != nil {
		entries, cursor, err := s.journals.Load(id)
		if err != nil {
			s.logger.Warn("history not restored", "document", id, "err", err)
		} else if len(entries) > 0 {
			s.history = s.newHistory(id)
			s.history.Restore(entries, cursor)
			s.doc = s.history.Current()
			s.saved = s.doc
			s.selection.SelectNone()
			s.gesture = nil
			s.bus.Registry().Reset()
			s.notify("open")
			return s.doc, nil
		}
	}
	s.open(doc, "open", true)
	s.saved = doc
	return doc, nil
}

func (s *EditorService) newHistory(docID string) *history.Manager {
	opts := []history.Option{history.WithLimit(s.limit), history.WithClock(s.tree.Now)}
	if s.journals != nil {
		opts = append(opts, history.WithJournal(s.journals.For(docID), func(err error) {
			s.logger.Warn("history journal", "document", docID, "err", err)
		}))
	}
	return history.New(opts...)
}

func (s *EditorService) open(doc *domain.Document, label string, notify bool) {
	s.doc = doc
	s.saved = nil
	s.history = s.newHistory(doc.ID)
	s.history.Reset(doc, label)
	s.selection.SelectNone()
	s.gesture = nil
	s.bus.Registry().Reset()
	if notify {
		s.notify(label)
	}
}

// Save writes the open document to the document store.
func (s *EditorService) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save()
}

func (s *EditorService) save() error {
	if s.store == nil {
		return fmt.Errorf("save document: no document store configured")
	}
	doc := s.doc
	if err := s.store.SaveDocument(doc); err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	s.saved = doc
	s.logger.Debug("saved", "document", doc.ID, "elements", len(doc.Elements))
	return nil
}

// Dirty reports whether the open document changed since the last save.
func (s *EditorService) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc != s.saved
}

// Publish marks the open document published and saves it.
func (s *EditorService) Publish() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.doc.Clone()
	now := s.tree.Now()
	next.Status = domain.StatusPublished
	next.PublishedAt = &now
	next.UpdatedAt = now
	s.commit(next, "publish")
	return s.save()
}

// Document returns the open document. The value is an immutable snapshot.
func (s *EditorService) Document() *domain.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc
}

// Element returns an element of the open document.
func (s *EditorService) Element(id string) (*domain.Element, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Element(id)
}

// PageState returns the renderable state of one page.
func (s *EditorService) PageState(pageID string) (*domain.PageState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return tree.PageState(s.doc, pageID)
}

// commit makes next the open document and records it as one undo step.
// A gesture in progress is recorded first, so next always lands on top of
// the snapshot it was derived from.
func (s *EditorService) commit(next *domain.Document, label string) {
	if next == s.doc {
		return
	}
	if s.gesture != nil {
		s.endGesture()
	}
	s.doc = next
	s.history.Push(next, label)
	s.notify(label)
}

func (s *EditorService) notify(label string) {
	s.emitter.Emit(context.Background(), EventDocumentChanged, DocumentChange{
		DocumentID: s.doc.ID,
		Label:      label,
		CanUndo:    s.history.CanUndo(),
		CanRedo:    s.history.CanRedo(),
	})
}

func (s *EditorService) notifySelection() {
	s.emitter.Emit(context.Background(), EventSelectionChanged, s.selection.State())
}

// ── Elements ───────────────────────────────────────────────

// AddElement places a new element at the root of a page.
func (s *EditorService) AddElement(pageID string, kind domain.Kind, pos domain.Position) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, id, err := s.tree.AddElement(s.doc, pageID, kind, pos)
	if err != nil {
		return "", fmt.Errorf("add element: %w", err)
	}
	s.commit(next, "add element")
	return id, nil
}

// DropElement places a palette drop: the pointer is mapped through the
// canvas zoom (percent) and snapped to the grid.
func (s *EditorService) DropElement(pageID string, kind domain.Kind, pointer domain.Position, zoom float64) (string, error) {
	return s.AddElement(pageID, kind, geometry.DropPosition(pointer, zoom, s.grid))
}

// AddChild creates a new element inside a container.
func (s *EditorService) AddChild(containerID string, kind domain.Kind, pos domain.Position) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, id, err := s.tree.AddChild(s.doc, containerID, kind, pos)
	if err != nil {
		return "", fmt.Errorf("add child: %w", err)
	}
	s.commit(next, "add element")
	return id, nil
}

// UpdateElement applies a patch to one element.
func (s *EditorService) UpdateElement(id string, patch domain.ElementPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := s.tree.UpdateElement(s.doc, id, patch)
	if err != nil {
		return fmt.Errorf("update element: %w", err)
	}
	s.commit(next, "update element")
	return nil
}

// DeleteElement removes an element with its subtree and every connection
// touching a removed element, as one undo step.
func (s *EditorService) DeleteElement(id string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, removed, err := s.tree.DeleteElement(s.doc, id)
	if err != nil {
		return nil, fmt.Errorf("delete element: %w", err)
	}
	s.dropRemoved(&next, removed)
	s.commit(next, "delete element")
	return removed, nil
}

func (s *EditorService) dropRemoved(doc **domain.Document, removed []string) {
	next, dropped := s.bus.DropForElements(*doc, removed)
	*doc = next
	if len(dropped) > 0 {
		s.logger.Debug("dropped connections", "count", len(dropped))
	}
	for _, id := range removed {
		s.bus.Registry().ClearPending(id)
	}
	before := s.selection.State()
	s.selection.Forget(removed...)
	if before.Mode != s.selection.Mode().String() || len(before.Members) != len(s.selection.Members()) {
		s.notifySelection()
	}
}

// ── Pages ──────────────────────────────────────────────────

// AddPage appends a page and returns its id.
func (s *EditorService) AddPage(name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, id, err := s.tree.AddPage(s.doc, name)
	if err != nil {
		return "", fmt.Errorf("add page: %w", err)
	}
	s.commit(next, "add page")
	return id, nil
}

// UpdatePage applies a patch to a page.
func (s *EditorService) UpdatePage(id string, patch domain.PagePatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := s.tree.UpdatePage(s.doc, id, patch)
	if err != nil {
		return fmt.Errorf("update page: %w", err)
	}
	s.commit(next, "update page")
	return nil
}

// RenamePage renames a page and refreshes its slug.
func (s *EditorService) RenamePage(id, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := s.tree.RenamePage(s.doc, id, name)
	if err != nil {
		return fmt.Errorf("rename page: %w", err)
	}
	s.commit(next, "rename page")
	return nil
}

// DeletePage removes a page, its elements and their connections.
func (s *EditorService) DeletePage(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, removed, err := s.tree.DeletePage(s.doc, id)
	if err != nil {
		return fmt.Errorf("delete page: %w", err)
	}
	s.dropRemoved(&next, removed)
	s.commit(next, "delete page")
	return nil
}

// DuplicatePage copies a page with fresh ids and returns the copy's id.
func (s *EditorService) DuplicatePage(id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, copyID, err := s.tree.DuplicatePage(s.doc, id)
	if err != nil {
		return "", fmt.Errorf("duplicate page: %w", err)
	}
	s.commit(next, "duplicate page")
	return copyID, nil
}

// ApplyTemplate builds a page from a template and returns its id. With
// replace set the template page replaces every existing page.
func (s *EditorService) ApplyTemplate(t domain.Template, replace bool) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.doc
	next, pageID, err := s.tree.ApplyTemplate(prev, t, replace)
	if err != nil {
		return "", fmt.Errorf("apply template: %w", err)
	}
	if replace {
		removed := make([]string, 0, len(prev.Elements))
		for id := range prev.Elements {
			removed = append(removed, id)
		}
		s.dropRemoved(&next, removed)
	}
	s.commit(next, "apply template")
	return pageID, nil
}

// ── Selection ──────────────────────────────────────────────

// SelectSingle selects one element.
func (s *EditorService) SelectSingle(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.doc.Element(id); !ok {
		return fmt.Errorf("select %s: %w", id, domain.ErrElementNotFound)
	}
	s.selection.SelectSingle(id)
	s.notifySelection()
	return nil
}

// SelectNone clears the selection.
func (s *EditorService) SelectNone() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection.SelectNone()
	s.notifySelection()
}

// Toggle adds or removes an element from the multi-selection.
func (s *EditorService) Toggle(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.doc.Element(id); !ok && !s.selection.Contains(id) {
		return fmt.Errorf("toggle %s: %w", id, domain.ErrElementNotFound)
	}
	s.selection.Toggle(id)
	s.notifySelection()
	return nil
}

// Selection returns the current selection state.
func (s *EditorService) Selection() selection.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection.State()
}

// ConnectSelected creates a connection between the first two
// multi-selected members.
func (s *EditorService) ConnectSelected(dir selection.Direction, typ domain.ConnectionType, opts domain.ConnectionOptions) (domain.Connection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	src, tgt, err := s.selection.Candidate(dir)
	if err != nil {
		return domain.Connection{}, fmt.Errorf("connect selection: %w", err)
	}
	return s.createConnection(src, tgt, typ, opts)
}

// ── Connections ────────────────────────────────────────────

// CreateConnection adds a connection between two elements.
func (s *EditorService) CreateConnection(sourceID, targetID string, typ domain.ConnectionType, opts domain.ConnectionOptions) (domain.Connection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createConnection(sourceID, targetID, typ, opts)
}

func (s *EditorService) createConnection(sourceID, targetID string, typ domain.ConnectionType, opts domain.ConnectionOptions) (domain.Connection, error) {
	next, c, err := s.bus.CreateConnection(s.doc, sourceID, targetID, typ, opts)
	if err != nil {
		return domain.Connection{}, fmt.Errorf("create connection: %w", err)
	}
	s.commit(next, "create connection")
	return c, nil
}

// UpdateConnection applies a patch to a connection.
func (s *EditorService) UpdateConnection(id string, patch domain.ConnectionPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := s.bus.UpdateConnection(s.doc, id, patch)
	if err != nil {
		return fmt.Errorf("update connection: %w", err)
	}
	s.commit(next, "update connection")
	return nil
}

// DeleteConnection removes a connection.
func (s *EditorService) DeleteConnection(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := s.bus.DeleteConnection(s.doc, id)
	if err != nil {
		return fmt.Errorf("delete connection: %w", err)
	}
	s.commit(next, "delete connection")
	return nil
}

// Connections lists the connections touching an element.
func (s *EditorService) Connections(elementID string) []domain.Connection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return bus.Connected(s.doc, elementID)
}

// ── Propagation ────────────────────────────────────────────

// Emit propagates a value from sourceID. Each mutated target is its own
// undo step. Registered kinds that do not emit are refused; kinds the
// engine does not know are let through.
func (s *EditorService) Emit(sourceID string, p bus.Payload) (bus.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	el, ok := s.doc.Element(sourceID)
	if !ok {
		return bus.Report{}, fmt.Errorf("emit %s: %w", sourceID, domain.ErrElementNotFound)
	}
	if el.Kind.Known() && !domain.LookupKind(el.Kind).Emits {
		return bus.Report{}, fmt.Errorf("emit from %s %s: %w", el.Kind, sourceID, domain.ErrNotEmitter)
	}
	return s.emit(sourceID, p), nil
}

func (s *EditorService) emit(sourceID string, p bus.Payload) bus.Report {
	_, rep := s.bus.Emit(s.doc, sourceID, p, s.commit)
	s.logger.Debug("emit", "source", sourceID, "updated", len(rep.Updated), "hops", rep.Hops)
	if rep.Truncated {
		s.logger.Warn("propagation truncated", "source", sourceID, "hops", rep.Hops)
	}
	return rep
}

// SetFilterValue records a new selected value on a filter element and
// emits it.
func (s *EditorService) SetFilterValue(id string, value any) (bus.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := s.tree.UpdateElement(s.doc, id, domain.ElementPatch{
		Properties: domain.Properties{domain.PropSelectedValue: value},
	})
	if err != nil {
		return bus.Report{}, fmt.Errorf("set filter value: %w", err)
	}
	s.commit(next, "set filter value")
	return s.emit(id, bus.Payload{Value: value}), nil
}

// SetPending records a local, not yet emitted value for an element.
func (s *EditorService) SetPending(id string, value any) {
	s.bus.Registry().SetPending(id, value)
}

// EffectiveValue resolves the value an element currently shows.
func (s *EditorService) EffectiveValue(id string) (bus.Effective, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return bus.EffectiveValue(s.doc, s.bus.Registry(), id)
}

// Registry exposes the by-name channel.
func (s *EditorService) Registry() *bus.Registry { return s.bus.Registry() }

// ApplyFetched merges catalog data into an element's properties.
func (s *EditorService) ApplyFetched(id string, props domain.Properties) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := s.tree.UpdateElement(s.doc, id, domain.ElementPatch{Properties: props})
	if err != nil {
		return fmt.Errorf("apply fetched data: %w", err)
	}
	s.commit(next, "load catalog data")
	return nil
}

// ── History ────────────────────────────────────────────────

// Undo steps back one snapshot. It reports false when nothing changed.
func (s *EditorService) Undo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gesture != nil {
		return false
	}
	doc, ok := s.history.Undo()
	if !ok {
		return false
	}
	s.doc = doc
	s.notify("undo")
	return true
}

// Redo steps forward one snapshot.
func (s *EditorService) Redo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gesture != nil {
		return false
	}
	doc, ok := s.history.Redo()
	if !ok {
		return false
	}
	s.doc = doc
	s.notify("redo")
	return true
}

// HistoryState describes the undo stack.
type HistoryState struct {
	Labels  []string `json:"labels"`
	Cursor  int      `json:"cursor"`
	CanUndo bool     `json:"canUndo"`
	CanRedo bool     `json:"canRedo"`
}

// History returns the undo stack state.
func (s *EditorService) History() HistoryState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return HistoryState{
		Labels:  s.history.Labels(),
		Cursor:  s.history.Cursor(),
		CanUndo: s.history.CanUndo(),
		CanRedo: s.history.CanRedo(),
	}
}
