package service

import (
	"fmt"

	"pagebuilder/internal/domain"
	"pagebuilder/internal/geometry"
)

// ── Drag and resize gestures ───────────────────────────────
//
// A gesture rewrites the open document on every pointer move without
// touching the history; EndGesture records the whole gesture as one undo
// step and CancelGesture restores the starting document.

type gestureKind int

const (
	gestureDrag gestureKind = iota
	gestureResize
)

type gesture struct {
	kind      gestureKind
	elementID string
	start     *domain.Document
	drag      geometry.Drag
	handle    geometry.Handle
	origin    domain.Position
	startSize domain.Size
}

func (s *EditorService) beginGesture(id string) (*domain.Element, error) {
	el, ok := s.doc.Element(id)
	if !ok {
		return nil, fmt.Errorf("begin gesture: %w", domain.ErrElementNotFound)
	}
	if el.Locked {
		return nil, fmt.Errorf("begin gesture on %s: %w", id, domain.ErrLocked)
	}
	if s.gesture != nil {
		// A new gesture implicitly finishes an abandoned one.
		s.endGesture()
	}
	return el, nil
}

// BeginDrag starts moving an element. pointer is in canvas coordinates.
func (s *EditorService) BeginDrag(id string, pointer domain.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	el, err := s.beginGesture(id)
	if err != nil {
		return err
	}
	s.gesture = &gesture{
		kind:      gestureDrag,
		elementID: id,
		start:     s.doc,
		drag:      geometry.StartDrag(pointer, el.Position),
	}
	return nil
}

// BeginResize starts resizing an element through one of its handles.
func (s *EditorService) BeginResize(id string, handle geometry.Handle, pointer domain.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	el, err := s.beginGesture(id)
	if err != nil {
		return err
	}
	s.gesture = &gesture{
		kind:      gestureResize,
		elementID: id,
		start:     s.doc,
		handle:    handle,
		origin:    pointer,
		startSize: el.Size,
	}
	return nil
}

// MoveGesture applies a pointer move to the gesture in progress.
func (s *EditorService) MoveGesture(pointer domain.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.gesture
	if g == nil {
		return domain.ErrNoGesture
	}
	el, ok := s.doc.Element(g.elementID)
	if !ok {
		s.gesture = nil
		return fmt.Errorf("move gesture: %w", domain.ErrElementNotFound)
	}

	var patch domain.ElementPatch
	switch g.kind {
	case gestureDrag:
		pos := g.drag.Move(pointer, el.Size, s.canvasOf(el), s.grid)
		if pos == el.Position {
			return nil
		}
		patch.Position = &pos
	case gestureResize:
		size := geometry.Resize(g.handle, g.startSize, pointer.X-g.origin.X, pointer.Y-g.origin.Y, el.Constraints)
		if size == el.Size {
			return nil
		}
		patch.Size = &size
	}

	next, err := s.tree.UpdateElement(s.doc, g.elementID, patch)
	if err != nil {
		return fmt.Errorf("move gesture: %w", err)
	}
	s.doc = next
	return nil
}

// canvasOf is the area an element may move in: its container, or the page.
func (s *EditorService) canvasOf(el *domain.Element) domain.Size {
	if el.ParentID != "" {
		if parent, ok := s.doc.Element(el.ParentID); ok {
			return parent.Size
		}
	}
	if page, ok := s.doc.Page(el.PageID); ok {
		return domain.Size{Width: page.Settings.Width, Height: page.Settings.Height}
	}
	return domain.Size{}
}

// EndGesture commits the gesture as a single undo step. A gesture that did
// not change anything leaves the history untouched.
func (s *EditorService) EndGesture() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gesture == nil {
		return domain.ErrNoGesture
	}
	s.endGesture()
	return nil
}

func (s *EditorService) endGesture() {
	g := s.gesture
	s.gesture = nil
	if s.doc == g.start {
		return
	}
	label := "move element"
	if g.kind == gestureResize {
		label = "resize element"
	}
	s.history.Push(s.doc, label)
	s.notify(label)
}

// CancelGesture abandons the gesture and restores the starting document.
// If the history moved since the gesture began, the current history
// snapshot is restored instead.
func (s *EditorService) CancelGesture() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.gesture
	if g == nil {
		return domain.ErrNoGesture
	}
	s.gesture = nil
	if cur := s.history.Current(); cur != nil && cur != g.start {
		s.doc = cur
		return nil
	}
	s.doc = g.start
	return nil
}
