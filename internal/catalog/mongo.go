package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// mongoSource reads the catalog from the collections categories,
// properties and products.
type mongoSource struct {
	client *mongo.Client
	db     *mongo.Database
}

type mongoCategory struct {
	ID        string `bson:"_id"`
	Name      string `bson:"name"`
	ParentID  string `bson:"parent_id,omitempty"`
	SortOrder int    `bson:"sort_order"`
}

type mongoProperty struct {
	ID   string `bson:"_id"`
	Name string `bson:"name"`
	Type string `bson:"type"`
}

type mongoProduct struct {
	ID         string         `bson:"_id"`
	Name       string         `bson:"name"`
	SKU        string         `bson:"sku"`
	CategoryID string         `bson:"catalog_category_id"`
	BasePrice  float64        `bson:"base_price"`
	Properties map[string]any `bson:"properties_data"`
}

// buildMongoURI accepts either a full connection string in Host or a bare
// host name.
func buildMongoURI(cfg Config, password string) string {
	if strings.HasPrefix(cfg.Host, "mongodb+srv://") || strings.HasPrefix(cfg.Host, "mongodb://") {
		uri := cfg.Host
		if password != "" {
			uri = strings.ReplaceAll(uri, "<password>", password)
			uri = strings.ReplaceAll(uri, "<db_password>", password)
		}
		return uri
	}
	port := cfg.Port
	if port == 0 {
		port = 27017
	}
	if cfg.Username != "" {
		return fmt.Sprintf("mongodb://%s:%s@%s:%d", cfg.Username, password, cfg.Host, port)
	}
	return fmt.Sprintf("mongodb://%s:%d", cfg.Host, port)
}

func newMongoSource(ctx context.Context, cfg Config, password string) (*mongoSource, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(buildMongoURI(cfg, password)))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	dbName := cfg.Database
	if dbName == "" {
		dbName = "catalog"
	}
	return &mongoSource{client: client, db: client.Database(dbName)}, nil
}

func (m *mongoSource) Categories(ctx context.Context) ([]Category, error) {
	cur, err := m.db.Collection("categories").Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("find categories: %w", err)
	}
	var docs []mongoCategory
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode categories: %w", err)
	}
	out := make([]Category, len(docs))
	for i, d := range docs {
		out[i] = Category{ID: d.ID, Name: d.Name, ParentID: d.ParentID, SortOrder: d.SortOrder}
	}
	return out, nil
}

func (m *mongoSource) Properties(ctx context.Context) ([]Property, error) {
	cur, err := m.db.Collection("properties").Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("find properties: %w", err)
	}
	var docs []mongoProperty
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode properties: %w", err)
	}
	out := make([]Property, len(docs))
	for i, d := range docs {
		out[i] = Property{ID: d.ID, Name: d.Name, Type: d.Type}
	}
	return out, nil
}

func (m *mongoSource) PropertyValues(ctx context.Context, categoryIDs []string, propertyName string) ([]string, error) {
	products, err := m.loadProducts(ctx, categoryIDs)
	if err != nil {
		return nil, err
	}
	return uniqueValues(products, nil, propertyName), nil
}

func (m *mongoSource) Products(ctx context.Context, q ProductQuery) ([]Product, error) {
	products, err := m.loadProducts(ctx, q.CategoryIDs)
	if err != nil {
		return nil, err
	}
	q.CategoryIDs = nil
	return q.apply(products), nil
}

func (m *mongoSource) loadProducts(ctx context.Context, categoryIDs []string) ([]Product, error) {
	filter := bson.M{}
	if len(categoryIDs) > 0 {
		filter["catalog_category_id"] = bson.M{"$in": categoryIDs}
	}
	cur, err := m.db.Collection("products").Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	var docs []mongoProduct
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	out := make([]Product, len(docs))
	for i, d := range docs {
		out[i] = Product{
			ID:         d.ID,
			Name:       d.Name,
			SKU:        d.SKU,
			CategoryID: d.CategoryID,
			BasePrice:  d.BasePrice,
			Properties: d.Properties,
		}
	}
	return out, nil
}

func (m *mongoSource) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}
