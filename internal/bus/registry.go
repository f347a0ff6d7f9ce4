package bus

import (
	"sync"
	"time"
)

// SharedValue is the last value published under a property name.
type SharedValue struct {
	Value  any       `json:"value"`
	Source string    `json:"source"`
	At     time.Time `json:"at"`
}

// Listener is notified when a property name receives a new value.
type Listener func(name string, v SharedValue)

// Registry is the by-name channel: a property-name keyed store that filter
// elements publish to and read from, plus the per-element pending values of
// in-progress interactions. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	values    map[string]SharedValue
	pending   map[string]any
	listeners map[string]map[int]Listener
	nextID    int
	now       func() time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		values:    map[string]SharedValue{},
		pending:   map[string]any{},
		listeners: map[string]map[int]Listener{},
		now:       time.Now,
	}
}

// Publish stores value under name and notifies the name's listeners.
func (r *Registry) Publish(name string, value any, sourceID string) {
	v := SharedValue{Value: value, Source: sourceID, At: r.now()}
	r.mu.Lock()
	r.values[name] = v
	ls := make([]Listener, 0, len(r.listeners[name]))
	for _, l := range r.listeners[name] {
		ls = append(ls, l)
	}
	r.mu.Unlock()

	for _, l := range ls {
		l(name, v)
	}
}

// Lookup returns the shared value for name.
func (r *Registry) Lookup(name string) (SharedValue, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.values[name]
	return v, ok
}

// Subscribe registers l for name. The returned func unsubscribes.
func (r *Registry) Subscribe(name string, l Listener) func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextID
	r.nextID++
	if r.listeners[name] == nil {
		r.listeners[name] = map[int]Listener{}
	}
	r.listeners[name][id] = l
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.listeners[name], id)
	}
}

// SetPending records a value the user is still editing on elementID.
func (r *Registry) SetPending(elementID string, value any) {
	r.mu.Lock()
	r.pending[elementID] = value
	r.mu.Unlock()
}

// ClearPending drops the pending value of elementID.
func (r *Registry) ClearPending(elementID string) {
	r.mu.Lock()
	delete(r.pending, elementID)
	r.mu.Unlock()
}

// Pending returns the in-progress value of elementID.
func (r *Registry) Pending(elementID string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.pending[elementID]
	return v, ok
}

// Clear forgets the shared value under name.
func (r *Registry) Clear(name string) {
	r.mu.Lock()
	delete(r.values, name)
	r.mu.Unlock()
}

// Reset drops all values and pending edits. Listeners are kept.
func (r *Registry) Reset() {
	r.mu.Lock()
	r.values = map[string]SharedValue{}
	r.pending = map[string]any{}
	r.mu.Unlock()
}

// Snapshot copies every shared value.
func (r *Registry) Snapshot() map[string]SharedValue {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]SharedValue, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}
