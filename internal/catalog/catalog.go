// Package catalog reads the product catalog that catalog-aware blocks
// display: the category tree, product properties, the distinct values of a
// property and filtered product lists.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverMongoDB  = "mongodb"
)

// ErrUnsupportedDriver is returned by Open for an unknown driver name.
var ErrUnsupportedDriver = errors.New("unsupported catalog driver")

// Category is one node of the catalog tree.
type Category struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ParentID  string `json:"parentId,omitempty"`
	SortOrder int    `json:"sortOrder"`
}

// Property is a product attribute that filters can be built on.
type Property struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// Product is one catalog item. Properties holds the free-form attribute
// values keyed by property name.
type Product struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	SKU        string         `json:"sku"`
	CategoryID string         `json:"categoryId"`
	BasePrice  float64        `json:"basePrice"`
	Properties map[string]any `json:"properties"`
}

// ProductQuery selects products. Empty CategoryIDs means every category.
// Filters maps a property name to the required value; empty values are
// ignored.
type ProductQuery struct {
	CategoryIDs []string       `json:"categoryIds,omitempty"`
	Filters     map[string]any `json:"filters,omitempty"`
	Limit       int            `json:"limit,omitempty"`
	Offset      int            `json:"offset,omitempty"`
}

// Source is a catalog backend.
type Source interface {
	Categories(ctx context.Context) ([]Category, error)
	Properties(ctx context.Context) ([]Property, error)
	PropertyValues(ctx context.Context, categoryIDs []string, propertyName string) ([]string, error)
	Products(ctx context.Context, q ProductQuery) ([]Product, error)
	Close() error
}

// Config describes how to reach a catalog database.
type Config struct {
	Driver   string `toml:"driver"`
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Database string `toml:"database"`
	Username string `toml:"username"`
	SSLMode  string `toml:"ssl_mode"`
}

// Open connects to the catalog described by cfg. The password is passed
// separately so it never has to live in the config file.
func Open(ctx context.Context, cfg Config, password string) (Source, error) {
	switch strings.ToLower(cfg.Driver) {
	case DriverSQLite, "":
		return newSQLSource(DriverSQLite, buildSQLiteDSN(cfg))
	case DriverMySQL:
		return newSQLSource(DriverMySQL, buildMySQLDSN(cfg, password))
	case DriverPostgres:
		return newSQLSource(DriverPostgres, buildPostgresDSN(cfg, password))
	case DriverMongoDB:
		return newMongoSource(ctx, cfg, password)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDriver, cfg.Driver)
	}
}
