package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"pagebuilder/internal/catalog"
	"pagebuilder/internal/domain"
)

// ─────────────────────────────────────────────────────────────
// Catalog Service: loads catalog data into catalog-aware blocks
// ─────────────────────────────────────────────────────────────

// ErrNotCatalogBlock is returned by Refresh for kinds that show no catalog
// data.
var ErrNotCatalogBlock = errors.New("element does not display catalog data")

// CatalogError is the payload of EventCatalogError.
type CatalogError struct {
	ElementID string `json:"elementId"`
	Error     string `json:"error"`
}

// CatalogService fetches catalog data for one element at a time and merges
// it through the editor. Each request takes a per-element generation; a
// response is merged only if no newer request for the same element was
// started meanwhile.
type CatalogService struct {
	editor  *EditorService
	source  catalog.Source
	emitter EventEmitter
	logger  *log.Logger

	mu          sync.Mutex
	generations map[string]uint64
	running     runningJobsGuard
}

// NewCatalogService creates a CatalogService reading from source.
func NewCatalogService(editor *EditorService, source catalog.Source, emitter EventEmitter, logger *log.Logger) *CatalogService {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if emitter == nil {
		emitter = &MockEmitter{}
	}
	return &CatalogService{
		editor:      editor,
		source:      source,
		emitter:     emitter,
		logger:      logger,
		generations: map[string]uint64{},
	}
}

func (s *CatalogService) nextGeneration(elementID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generations[elementID]++
	return s.generations[elementID]
}

func (s *CatalogService) isCurrent(elementID string, gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generations[elementID] == gen
}

// Refresh fetches the data an element displays and merges it. A response
// overtaken by a newer request is dropped silently. Fetch failures emit
// EventCatalogError and leave the document untouched.
func (s *CatalogService) Refresh(ctx context.Context, elementID string) error {
	return s.refresh(ctx, elementID, s.nextGeneration(elementID))
}

// RefreshAsync runs Refresh on its own goroutine. WaitRunning waits for it.
func (s *CatalogService) RefreshAsync(ctx context.Context, elementID string) {
	gen := s.nextGeneration(elementID)
	job := fmt.Sprintf("%s#%d", elementID, gen)
	if !s.running.TryLock(job) {
		return
	}
	go func() {
		defer s.running.Unlock(job)
		if err := s.refresh(ctx, elementID, gen); err != nil && !errors.Is(err, ErrNotCatalogBlock) {
			s.logger.Warn("catalog refresh failed", "element", elementID, "err", err)
		}
	}()
}

// WaitRunning blocks until all asynchronous refreshes finish or ctx is
// cancelled.
func (s *CatalogService) WaitRunning(ctx context.Context) {
	s.running.WaitAll(ctx)
}

func (s *CatalogService) refresh(ctx context.Context, elementID string, gen uint64) error {
	el, ok := s.editor.Element(elementID)
	if !ok {
		return fmt.Errorf("refresh %s: %w", elementID, domain.ErrElementNotFound)
	}

	props, err := s.fetch(ctx, el)
	if errors.Is(err, ErrNotCatalogBlock) {
		return err
	}
	if !s.isCurrent(elementID, gen) {
		s.logger.Debug("discarding stale catalog response", "element", elementID, "generation", gen)
		return nil
	}
	if err != nil {
		s.emitter.Emit(ctx, EventCatalogError, CatalogError{ElementID: elementID, Error: err.Error()})
		return fmt.Errorf("refresh %s: %w", elementID, err)
	}
	return s.editor.ApplyFetched(elementID, props)
}

func (s *CatalogService) fetch(ctx context.Context, el *domain.Element) (domain.Properties, error) {
	switch el.Kind {
	case domain.KindPropertyFilter, domain.KindProductFilter:
		fp := domain.FilterPropsOf(el.Properties)
		if fp.PropertyName == "" {
			return domain.Properties{domain.PropOptions: []string{}}, nil
		}
		values, err := s.source.PropertyValues(ctx, fp.CategoryIDs, fp.PropertyName)
		if err != nil {
			return nil, fmt.Errorf("load values of %q: %w", fp.PropertyName, err)
		}
		return domain.Properties{domain.PropOptions: values}, nil

	case domain.KindProductGrid, domain.KindFilteredProducts, domain.KindProductCarousel:
		products, err := s.source.Products(ctx, productQuery(el.Properties))
		if err != nil {
			return nil, fmt.Errorf("load products: %w", err)
		}
		return domain.Properties{domain.PropProducts: productMaps(products)}, nil

	case domain.KindCatalogTree:
		cats, err := s.source.Categories(ctx)
		if err != nil {
			return nil, fmt.Errorf("load categories: %w", err)
		}
		out := make([]any, len(cats))
		for i, c := range cats {
			out[i] = map[string]any{"id": c.ID, "name": c.Name, "parentId": c.ParentID}
		}
		return domain.Properties{domain.PropCategories: out}, nil
	}
	return nil, fmt.Errorf("refresh %s (%s): %w", el.ID, el.Kind, ErrNotCatalogBlock)
}

// productQuery builds the query of a product list block. The filters
// property holds either a descriptor written by a filter connection or a
// map keyed by property name.
func productQuery(p domain.Properties) catalog.ProductQuery {
	q := catalog.ProductQuery{
		CategoryIDs: p.Strings(domain.PropCategoryIDs),
		Filters:     map[string]any{},
		Limit:       intOf(p["limit"]),
	}
	filters := p.Map(domain.PropFilters)
	if name, ok := filters["propertyName"].(string); ok {
		if name != "" {
			q.Filters[name] = filters["propertyValue"]
		}
		if len(q.CategoryIDs) == 0 {
			q.CategoryIDs = domain.Properties(filters).Strings(domain.PropCategoryIDs)
		}
		return q
	}
	for k, v := range filters {
		q.Filters[k] = v
	}
	return q
}

func productMaps(products []catalog.Product) []any {
	out := make([]any, len(products))
	for i, p := range products {
		out[i] = map[string]any{
			"id":         p.ID,
			"name":       p.Name,
			"sku":        p.SKU,
			"categoryId": p.CategoryID,
			"basePrice":  p.BasePrice,
			"properties": p.Properties,
		}
	}
	return out
}

func intOf(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}
