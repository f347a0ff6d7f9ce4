// Package history implements linear undo/redo over immutable document
// snapshots.
//
// Snapshots are *domain.Document values produced by the copy-on-write tree
// store and bus, so consecutive entries share every element that did not
// change between them.
package history

import (
	"time"

	"pagebuilder/internal/domain"
)

// DefaultLimit caps the number of snapshots kept per document.
const DefaultLimit = 100

// Entry is one snapshot in the history.
type Entry struct {
	Seq   int
	Label string
	Doc   *domain.Document
	At    time.Time
}

// Journal receives every change to the history so it can be persisted.
// Seq values are strictly increasing along the live branch; Append with a
// given seq discards every persisted entry with seq >= it.
type Journal interface {
	Append(e Entry) error
	Move(seq int) error
	Prune(keepFrom int) error
}

// Manager is the undo/redo stack. It is not safe for concurrent use.
type Manager struct {
	entries []Entry
	cursor  int
	limit   int
	journal Journal
	onErr   func(error)
	now     func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithLimit sets the maximum number of snapshots. Zero means unbounded.
func WithLimit(n int) Option {
	return func(m *Manager) {
		if n >= 0 {
			m.limit = n
		}
	}
}

// WithJournal mirrors every change into j. Journal errors never block the
// in-memory history; they are passed to onErr when it is set.
func WithJournal(j Journal, onErr func(error)) Option {
	return func(m *Manager) {
		m.journal = j
		m.onErr = onErr
	}
}

// WithClock replaces time.Now for entry timestamps.
func WithClock(fn func() time.Time) Option {
	return func(m *Manager) { m.now = fn }
}

// New creates an empty Manager.
func New(opts ...Option) *Manager {
	m := &Manager{limit: DefaultLimit, cursor: -1, now: time.Now}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Reset discards all history and starts over from doc.
func (m *Manager) Reset(doc *domain.Document, label string) {
	m.entries = m.entries[:0]
	m.cursor = -1
	m.append(doc, label, 1)
}

// Push records doc as the newest snapshot. Any redo-able future is
// discarded first.
func (m *Manager) Push(doc *domain.Document, label string) {
	seq := 1
	if m.cursor >= 0 {
		seq = m.entries[m.cursor].Seq + 1
	}
	m.entries = m.entries[:m.cursor+1]
	m.append(doc, label, seq)
}

func (m *Manager) append(doc *domain.Document, label string, seq int) {
	e := Entry{Seq: seq, Label: label, Doc: doc, At: m.now()}
	m.entries = append(m.entries, e)
	m.cursor = len(m.entries) - 1
	if m.journal != nil {
		m.report(m.journal.Append(e))
	}
	m.prune()
}

func (m *Manager) prune() {
	if m.limit <= 0 || len(m.entries) <= m.limit {
		return
	}
	drop := len(m.entries) - m.limit
	m.entries = append([]Entry(nil), m.entries[drop:]...)
	m.cursor -= drop
	if m.journal != nil {
		m.report(m.journal.Prune(m.entries[0].Seq))
	}
}

// Undo steps back one snapshot and returns it. It returns false at the
// oldest snapshot.
func (m *Manager) Undo() (*domain.Document, bool) {
	if !m.CanUndo() {
		return nil, false
	}
	m.cursor--
	m.moved()
	return m.entries[m.cursor].Doc, true
}

// Redo steps forward one snapshot and returns it. It returns false at the
// newest snapshot.
func (m *Manager) Redo() (*domain.Document, bool) {
	if !m.CanRedo() {
		return nil, false
	}
	m.cursor++
	m.moved()
	return m.entries[m.cursor].Doc, true
}

func (m *Manager) moved() {
	if m.journal != nil {
		m.report(m.journal.Move(m.entries[m.cursor].Seq))
	}
}

func (m *Manager) report(err error) {
	if err != nil && m.onErr != nil {
		m.onErr(err)
	}
}

// CanUndo reports whether an older snapshot exists.
func (m *Manager) CanUndo() bool { return m.cursor > 0 }

// CanRedo reports whether a newer snapshot exists.
func (m *Manager) CanRedo() bool { return m.cursor >= 0 && m.cursor < len(m.entries)-1 }

// Current returns the active snapshot, or nil for an empty history.
func (m *Manager) Current() *domain.Document {
	if m.cursor < 0 {
		return nil
	}
	return m.entries[m.cursor].Doc
}

// Len is the number of snapshots held.
func (m *Manager) Len() int { return len(m.entries) }

// Cursor is the index of the active snapshot.
func (m *Manager) Cursor() int { return m.cursor }

// Labels lists entry labels oldest first.
func (m *Manager) Labels() []string {
	out := make([]string, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.Label
	}
	return out
}

// Restore rebuilds the history from persisted entries without touching the
// journal. cursorSeq selects the active entry; when it is not found the
// newest entry becomes active.
func (m *Manager) Restore(entries []Entry, cursorSeq int) {
	m.entries = append([]Entry(nil), entries...)
	m.cursor = len(m.entries) - 1
	for i, e := range m.entries {
		if e.Seq == cursorSeq {
			m.cursor = i
			break
		}
	}
}
