package catalog

import (
	"fmt"
	"sort"
)

// matches reports whether p satisfies the category and property filters.
func (q ProductQuery) matches(p Product) bool {
	if len(q.CategoryIDs) > 0 && !contains(q.CategoryIDs, p.CategoryID) {
		return false
	}
	for name, want := range q.Filters {
		if isEmpty(want) {
			continue
		}
		got, ok := p.Properties[name]
		if !ok || stringify(got) != stringify(want) {
			return false
		}
	}
	return true
}

// apply filters and pages a product list, keeping its order.
func (q ProductQuery) apply(all []Product) []Product {
	out := make([]Product, 0, len(all))
	for _, p := range all {
		if q.matches(p) {
			out = append(out, p)
		}
	}
	if q.Offset > 0 {
		if q.Offset >= len(out) {
			return []Product{}
		}
		out = out[q.Offset:]
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

// uniqueValues collects the sorted distinct values of one property over
// the products of the given categories.
func uniqueValues(products []Product, categoryIDs []string, propertyName string) []string {
	seen := map[string]bool{}
	for _, p := range products {
		if len(categoryIDs) > 0 && !contains(categoryIDs, p.CategoryID) {
			continue
		}
		v, ok := p.Properties[propertyName]
		if !ok || isEmpty(v) {
			continue
		}
		seen[stringify(v)] = true
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func contains(ids []string, id string) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

func isEmpty(v any) bool {
	return v == nil || v == ""
}

func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		if x == float64(int64(x)) {
			return fmt.Sprintf("%d", int64(x))
		}
	}
	return fmt.Sprint(v)
}
