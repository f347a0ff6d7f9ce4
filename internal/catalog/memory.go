package catalog

import (
	"context"
	"sync"
)

// Memory is an in-process catalog, used by tests and by the CLI when no
// catalog database is configured.
type Memory struct {
	mu         sync.RWMutex
	categories []Category
	properties []Property
	products   []Product
}

// NewMemory creates a Memory catalog with the given contents.
func NewMemory(categories []Category, properties []Property, products []Product) *Memory {
	return &Memory{categories: categories, properties: properties, products: products}
}

// AddProduct appends a product.
func (m *Memory) AddProduct(p Product) {
	m.mu.Lock()
	m.products = append(m.products, p)
	m.mu.Unlock()
}

func (m *Memory) Categories(ctx context.Context) ([]Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Category(nil), m.categories...), nil
}

func (m *Memory) Properties(ctx context.Context) ([]Property, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Property(nil), m.properties...), nil
}

func (m *Memory) PropertyValues(ctx context.Context, categoryIDs []string, propertyName string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return uniqueValues(m.products, categoryIDs, propertyName), nil
}

func (m *Memory) Products(ctx context.Context, q ProductQuery) ([]Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return q.apply(m.products), nil
}

func (m *Memory) Close() error { return nil }

var _ Source = (*Memory)(nil)
