package domain

// Properties is the kind-specific configuration bag of an element.
type Properties map[string]any

// Clone deep-copies nested maps and slices so the copy shares nothing
// mutable with the original.
func (p Properties) Clone() Properties {
	if p == nil {
		return Properties{}
	}
	out := make(Properties, len(p))
	for k, v := range p {
		out[k] = cloneValue(v)
	}
	return out
}

// Merge returns a copy of p with every key of patch written over it.
// The merge is one level deep: a patch value replaces the whole value under
// its key, and keys absent from the patch survive.
func (p Properties) Merge(patch Properties) Properties {
	out := p.Clone()
	for k, v := range patch {
		out[k] = cloneValue(v)
	}
	return out
}

// String returns the string value under key, or "".
func (p Properties) String(key string) string {
	s, _ := p[key].(string)
	return s
}

// Map returns the nested object under key, or nil.
func (p Properties) Map(key string) map[string]any {
	switch m := p[key].(type) {
	case map[string]any:
		return m
	case Properties:
		return m
	}
	return nil
}

// Strings returns the string list under key. Both []string and the
// []any produced by JSON decoding are accepted.
func (p Properties) Strings(key string) []string {
	return toStrings(p[key])
}

func toStrings(v any) []string {
	switch vs := v.(type) {
	case []string:
		return append([]string(nil), vs...)
	case []any:
		out := make([]string, 0, len(vs))
		for _, x := range vs {
			if s, ok := x.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, vv := range x {
			out[k] = cloneValue(vv)
		}
		return out
	case Properties:
		return map[string]any(x.Clone())
	case []any:
		out := make([]any, len(x))
		for i, vv := range x {
			out[i] = cloneValue(vv)
		}
		return out
	case []string:
		return append([]string(nil), x...)
	case []map[string]any:
		out := make([]any, len(x))
		for i, vv := range x {
			out[i] = cloneValue(vv)
		}
		return out
	}
	return v
}

// ─────────────────────────────────────────────────────────────
// Typed views
// ─────────────────────────────────────────────────────────────

// Property keys shared by the filter-capable kinds.
const (
	PropPropertyName    = "propertyName"
	PropSelectedValue   = "selectedValue"
	PropCategoryIDs     = "categoryIds"
	PropFilters         = "filters"
	PropDisplaySettings = "displaySettings"
	PropOptions         = "options"
	PropProducts        = "products"
	PropCategories      = "categories"
)

// FilterDescriptor is what a filter connection writes into a filter-capable
// target under properties.filters.
type FilterDescriptor struct {
	PropertyName  string   `json:"propertyName"`
	PropertyValue any      `json:"propertyValue"`
	CategoryIDs   []string `json:"categoryIds"`
}

// ToMap converts the descriptor to its properties representation.
func (f FilterDescriptor) ToMap() map[string]any {
	return map[string]any{
		"propertyName":  f.PropertyName,
		"propertyValue": f.PropertyValue,
		"categoryIds":   append([]string{}, f.CategoryIDs...),
	}
}

// FilterProps is the typed view of a filter-capable element's properties.
type FilterProps struct {
	PropertyName  string
	SelectedValue string
	CategoryIDs   []string
	Filters       map[string]any
}

// FilterPropsOf decodes the filter view of an element's properties.
func FilterPropsOf(p Properties) FilterProps {
	return FilterProps{
		PropertyName:  p.String(PropPropertyName),
		SelectedValue: p.String(PropSelectedValue),
		CategoryIDs:   p.Strings(PropCategoryIDs),
		Filters:       p.Map(PropFilters),
	}
}

// ConnectedValue returns the value received through an explicit filter
// connection, if any.
func (f FilterProps) ConnectedValue() (any, bool) {
	if f.Filters == nil {
		return nil, false
	}
	v, ok := f.Filters["propertyValue"]
	if !ok || v == nil || v == "" {
		return nil, false
	}
	return v, true
}
