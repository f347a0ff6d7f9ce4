// Package selection tracks which elements the user has selected on the
// canvas: nothing, a single element, or an ordered multi-selection.
package selection

import "pagebuilder/internal/domain"

// Mode is the current selection state.
type Mode int

const (
	None Mode = iota
	Single
	Multi
)

func (m Mode) String() string {
	switch m {
	case Single:
		return "single"
	case Multi:
		return "multi"
	}
	return "none"
}

// Direction picks which of the first two multi-selected members becomes
// the connection source.
type Direction string

const (
	Forward  Direction = "forward"
	Backward Direction = "backward"
)

// Model is the selection state machine. The zero value is an empty
// selection. Single and multi selections are mutually exclusive.
type Model struct {
	single string
	multi  []string
}

// SelectSingle selects exactly one element and clears any multi-selection.
func (m *Model) SelectSingle(id string) {
	m.single = id
	m.multi = nil
}

// SelectNone clears the selection.
func (m *Model) SelectNone() {
	m.single = ""
	m.multi = nil
}

// Toggle adds id to the end of the multi-selection, or removes it if it is
// already a member. The single selection is cleared.
func (m *Model) Toggle(id string) {
	m.single = ""
	for i, x := range m.multi {
		if x == id {
			m.multi = append(m.multi[:i:i], m.multi[i+1:]...)
			return
		}
	}
	m.multi = append(m.multi, id)
}

// Mode reports the current state. A multi-selection that was toggled down
// to zero members counts as None.
func (m *Model) Mode() Mode {
	switch {
	case m.single != "":
		return Single
	case len(m.multi) > 0:
		return Multi
	}
	return None
}

// Selected returns the single-selected id.
func (m *Model) Selected() (string, bool) {
	return m.single, m.single != ""
}

// Members returns the multi-selection in insertion order.
func (m *Model) Members() []string {
	return append([]string(nil), m.multi...)
}

// Contains reports whether id is selected in either mode.
func (m *Model) Contains(id string) bool {
	if m.single == id && id != "" {
		return true
	}
	for _, x := range m.multi {
		if x == id {
			return true
		}
	}
	return false
}

// CanConnect reports whether the multi-selection has enough members to
// offer connection creation.
func (m *Model) CanConnect() bool {
	return len(m.multi) >= 2
}

// Candidate returns the (source, target) pair for a new connection: members
// #0 and #1 for Forward, #1 and #0 for Backward.
func (m *Model) Candidate(dir Direction) (source, target string, err error) {
	if len(m.multi) < 2 {
		return "", "", domain.ErrNotEnoughSelected
	}
	if dir == Backward {
		return m.multi[1], m.multi[0], nil
	}
	return m.multi[0], m.multi[1], nil
}

// Forget drops ids from the selection, typically after they were deleted.
func (m *Model) Forget(ids ...string) {
	gone := make(map[string]bool, len(ids))
	for _, id := range ids {
		gone[id] = true
	}
	if gone[m.single] {
		m.single = ""
	}
	kept := m.multi[:0:0]
	for _, x := range m.multi {
		if !gone[x] {
			kept = append(kept, x)
		}
	}
	m.multi = kept
}

// State is a serializable view of the selection for hosts.
type State struct {
	Mode    string   `json:"mode"`
	Single  string   `json:"single,omitempty"`
	Members []string `json:"members,omitempty"`
}

// State returns the host-facing view of the selection.
func (m *Model) State() State {
	return State{Mode: m.Mode().String(), Single: m.single, Members: m.Members()}
}
