// Package bus is the connection graph and propagation engine: explicit
// element-to-element connections plus the implicit by-name channel that
// keeps filters sharing a property name in sync.
package bus

import (
	"io"

	"github.com/charmbracelet/log"

	"pagebuilder/internal/domain"
	"pagebuilder/internal/tree"
)

// DefaultMaxHops bounds the number of target updates a single Emit makes.
// Side-effect and skipped connections do not count.
const DefaultMaxHops = 64

// Payload is the value a source element announces.
type Payload struct {
	PropertyName string   `json:"propertyName,omitempty"`
	Value        any      `json:"value"`
	CategoryIDs  []string `json:"categoryIds,omitempty"`
}

// Effects performs the side effects of cart and navigate connections.
type Effects interface {
	AddToCart(c domain.Connection, p Payload)
	Navigate(c domain.Connection, p Payload)
}

// NopEffects ignores every side effect.
type NopEffects struct{}

func (NopEffects) AddToCart(domain.Connection, Payload) {}
func (NopEffects) Navigate(domain.Connection, Payload)  {}

// CommitFunc receives every intermediate document produced by a
// propagation hop, so each hop becomes its own undo step.
type CommitFunc func(doc *domain.Document, label string)

// Report describes what one Emit did.
type Report struct {
	Updated   []string `json:"updated"`
	Skipped   []string `json:"skipped,omitempty"`
	Refused   []string `json:"refused,omitempty"`
	Effects   []string `json:"effects,omitempty"`
	Hops      int      `json:"hops"`
	Truncated bool     `json:"truncated,omitempty"`
}

// Bus owns the propagation policy. It holds no document state.
type Bus struct {
	tree     *tree.Store
	registry *Registry
	effects  Effects
	maxHops  int
	logger   *log.Logger
}

// Option configures a Bus.
type Option func(*Bus)

// WithRegistry shares a by-name registry with the bus.
func WithRegistry(r *Registry) Option { return func(b *Bus) { b.registry = r } }

// WithEffects sets the cart/navigate collaborator.
func WithEffects(e Effects) Option { return func(b *Bus) { b.effects = e } }

// WithMaxHops overrides DefaultMaxHops.
func WithMaxHops(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.maxHops = n
		}
	}
}

// WithLogger sets the logger used for propagation tracing.
func WithLogger(l *log.Logger) Option { return func(b *Bus) { b.logger = l } }

// New creates a Bus that writes through store.
func New(store *tree.Store, opts ...Option) *Bus {
	b := &Bus{
		tree:    store,
		effects: NopEffects{},
		maxHops: DefaultMaxHops,
		logger:  log.New(io.Discard),
	}
	for _, o := range opts {
		o(b)
	}
	if b.registry == nil {
		b.registry = NewRegistry()
	}
	return b
}

// Registry returns the by-name registry the bus publishes to.
func (b *Bus) Registry() *Registry { return b.registry }

// Emit propagates a value announced by sourceID along its active outgoing
// connections, in document order and depth-first.
//
// A filter-capable target receives a filter descriptor; any other target of
// a filter connection whose targetProperty is "filters" gets a keyed merge
// under filters[sourceProperty]. A data connection writes the value to
// properties[targetProperty]. Every mutation is passed to commit. Updated
// filter-capable targets re-emit downstream. Each element is entered at most
// once per call and at most maxHops targets are updated.
//
// A filter-capable source with a property name also publishes the value to
// the by-name registry.
func (b *Bus) Emit(doc *domain.Document, sourceID string, p Payload, commit CommitFunc) (*domain.Document, Report) {
	var rep Report
	if commit == nil {
		commit = func(*domain.Document, string) {}
	}

	if src, ok := doc.Element(sourceID); ok && domain.LookupKind(src.Kind).FilterCapable {
		fp := domain.FilterPropsOf(src.Properties)
		if p.PropertyName == "" {
			p.PropertyName = fp.PropertyName
		}
		if p.CategoryIDs == nil {
			p.CategoryIDs = fp.CategoryIDs
		}
		b.registry.ClearPending(sourceID)
		if p.PropertyName != "" {
			b.registry.Publish(p.PropertyName, p.Value, sourceID)
		}
	}

	visited := map[string]bool{sourceID: true}
	doc = b.propagate(doc, sourceID, p, visited, commit, &rep)
	return doc, rep
}

func (b *Bus) propagate(doc *domain.Document, sourceID string, p Payload, visited map[string]bool, commit CommitFunc, rep *Report) *domain.Document {
	for _, c := range Outgoing(doc, sourceID) {
		if !c.IsActive {
			continue
		}
		target, ok := doc.Element(c.TargetElementID)
		if !ok {
			b.logger.Debug("skip dangling connection", "connection", c.ID, "target", c.TargetElementID)
			rep.Skipped = append(rep.Skipped, c.TargetElementID)
			continue
		}

		switch c.ConnectionType {
		case domain.ConnectionCart:
			b.effects.AddToCart(c, p)
			rep.Effects = append(rep.Effects, c.ID)
			continue
		case domain.ConnectionNavigate:
			b.effects.Navigate(c, p)
			rep.Effects = append(rep.Effects, c.ID)
			continue
		}

		if visited[target.ID] {
			b.logger.Debug("refuse re-entry", "connection", c.ID, "target", target.ID)
			rep.Refused = append(rep.Refused, target.ID)
			continue
		}

		props, label := dispatch(c, target, p)
		if props == nil {
			continue
		}
		if rep.Hops >= b.maxHops {
			if !rep.Truncated {
				b.logger.Warn("propagation truncated", "source", sourceID, "maxHops", b.maxHops)
			}
			rep.Truncated = true
			return doc
		}
		rep.Hops++
		visited[target.ID] = true

		next, err := b.tree.UpdateElement(doc, target.ID, domain.ElementPatch{Properties: props})
		if err != nil {
			rep.Skipped = append(rep.Skipped, target.ID)
			continue
		}
		doc = next
		rep.Updated = append(rep.Updated, target.ID)
		b.logger.Debug("propagate", "type", c.ConnectionType, "source", sourceID, "target", target.ID)
		commit(doc, label)

		if c.ConnectionType == domain.ConnectionFilter && domain.LookupKind(target.Kind).FilterCapable {
			fp := domain.FilterPropsOf(target.Properties)
			doc = b.propagate(doc, target.ID, Payload{
				PropertyName: fp.PropertyName,
				Value:        p.Value,
				CategoryIDs:  p.CategoryIDs,
			}, visited, commit, rep)
		}
	}
	return doc
}

// dispatch computes the property patch one connection applies to its
// target. A nil patch means the connection does not affect the target.
func dispatch(c domain.Connection, target *domain.Element, p Payload) (domain.Properties, string) {
	switch c.ConnectionType {
	case domain.ConnectionFilter:
		if domain.LookupKind(target.Kind).FilterCapable {
			desc := domain.FilterDescriptor{
				PropertyName:  p.PropertyName,
				PropertyValue: p.Value,
				CategoryIDs:   p.CategoryIDs,
			}
			return domain.Properties{domain.PropFilters: desc.ToMap()}, "propagate filter"
		}
		if c.TargetProperty == domain.PropFilters {
			filters := map[string]any{}
			for k, v := range target.Properties.Map(domain.PropFilters) {
				filters[k] = v
			}
			filters[filterKey(c, p)] = p.Value
			return domain.Properties{domain.PropFilters: filters}, "propagate filter"
		}
	case domain.ConnectionData:
		if c.TargetProperty != "" {
			return domain.Properties{c.TargetProperty: p.Value}, "propagate data"
		}
	}
	return nil, ""
}

// filterKey is the key a keyed filter merge writes under: the connection's
// source property, else the payload's property name.
func filterKey(c domain.Connection, p Payload) string {
	switch {
	case c.SourceProperty != "":
		return c.SourceProperty
	case p.PropertyName != "":
		return p.PropertyName
	}
	return "value"
}
