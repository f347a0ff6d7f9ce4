package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// sqlSource reads the catalog tables shared by the MySQL, Postgres and
// SQLite backends:
//
//	catalog_categories(id, name, parent_id, sort_order)
//	product_properties(id, name, type)
//	products(id, name, sku, catalog_category_id, base_price, properties_data)
//
// properties_data is a JSON object; filtering on it happens in Go so the
// same queries work on every driver.
type sqlSource struct {
	driverName string
	db         *sql.DB
}

func newSQLSource(driverName, dsn string) (*sqlSource, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driverName, err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(10 * time.Minute)
	return &sqlSource{driverName: driverName, db: db}, nil
}

// rebind rewrites ? placeholders to $n for Postgres.
func (s *sqlSource) rebind(query string) string {
	if s.driverName != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *sqlSource) Categories(ctx context.Context) ([]Category, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, COALESCE(parent_id, ''), sort_order
		 FROM catalog_categories ORDER BY sort_order, name`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var out []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.ParentID, &c.SortOrder); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *sqlSource) Properties(ctx context.Context) ([]Property, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `SELECT id, name, type FROM product_properties ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query properties: %w", err)
	}
	defer rows.Close()

	var out []Property
	for rows.Next() {
		var p Property
		if err := rows.Scan(&p.ID, &p.Name, &p.Type); err != nil {
			return nil, fmt.Errorf("scan property: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *sqlSource) PropertyValues(ctx context.Context, categoryIDs []string, propertyName string) ([]string, error) {
	products, err := s.loadProducts(ctx, categoryIDs)
	if err != nil {
		return nil, err
	}
	return uniqueValues(products, nil, propertyName), nil
}

func (s *sqlSource) Products(ctx context.Context, q ProductQuery) ([]Product, error) {
	products, err := s.loadProducts(ctx, q.CategoryIDs)
	if err != nil {
		return nil, err
	}
	q.CategoryIDs = nil
	return q.apply(products), nil
}

func (s *sqlSource) loadProducts(ctx context.Context, categoryIDs []string) ([]Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	query := `SELECT id, name, COALESCE(sku, ''), catalog_category_id, COALESCE(base_price, 0), COALESCE(properties_data, '{}')
		FROM products`
	args := make([]any, 0, len(categoryIDs))
	if len(categoryIDs) > 0 {
		marks := make([]string, len(categoryIDs))
		for i, id := range categoryIDs {
			marks[i] = "?"
			args = append(args, id)
		}
		query += " WHERE catalog_category_id IN (" + strings.Join(marks, ", ") + ")"
	}
	query += " ORDER BY name"

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		var raw string
		if err := rows.Scan(&p.ID, &p.Name, &p.SKU, &p.CategoryID, &p.BasePrice, &raw); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		if err := json.Unmarshal([]byte(raw), &p.Properties); err != nil {
			p.Properties = map[string]any{}
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *sqlSource) Close() error {
	return s.db.Close()
}
