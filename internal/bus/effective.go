package bus

import (
	"fmt"

	"pagebuilder/internal/domain"
)

// ValueSource names the channel an effective value came from.
type ValueSource string

const (
	SourceNone       ValueSource = "none"
	SourceLocal      ValueSource = "local"
	SourceConnection ValueSource = "connection"
	SourceShared     ValueSource = "shared"
	SourceStored     ValueSource = "stored"
)

// Effective is the resolved value of a filter element.
type Effective struct {
	Value  any         `json:"value"`
	Source ValueSource `json:"source"`
}

// EffectiveValue resolves what a filter element currently shows: its
// pending local edit, then a value received through a connection, then the
// by-name shared value, then its own stored selection.
func EffectiveValue(doc *domain.Document, r *Registry, elementID string) (Effective, error) {
	el, ok := doc.Element(elementID)
	if !ok {
		return Effective{Source: SourceNone}, fmt.Errorf("effective value %s: %w", elementID, domain.ErrElementNotFound)
	}
	if v, ok := r.Pending(elementID); ok {
		return Effective{Value: v, Source: SourceLocal}, nil
	}
	fp := domain.FilterPropsOf(el.Properties)
	if v, ok := fp.ConnectedValue(); ok {
		return Effective{Value: v, Source: SourceConnection}, nil
	}
	if fp.PropertyName != "" {
		if sv, ok := r.Lookup(fp.PropertyName); ok {
			return Effective{Value: sv.Value, Source: SourceShared}, nil
		}
	}
	if fp.SelectedValue != "" {
		return Effective{Value: fp.SelectedValue, Source: SourceStored}, nil
	}
	return Effective{Source: SourceNone}, nil
}
