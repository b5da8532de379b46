package repository

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/weiwei-tsao/friendsfeed/pkg/model"
)

// Similar products are priced within this fraction of the target price.
const similarPriceBand = 0.2

// ProductRepository reads and writes the `products` catalog.
type ProductRepository struct {
	client *firestore.Client
}

func NewProductRepository(client *firestore.Client) *ProductRepository {
	return &ProductRepository{client: client}
}

// FindByID returns the product, or nil when it does not exist.
func (r *ProductRepository) FindByID(ctx context.Context, id string) (*model.Product, error) {
	snap, err := r.client.Collection(productsCollection).Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}
	var p model.Product
	if err := snap.DataTo(&p); err != nil {
		return nil, decodeErr(snap, err)
	}
	setProductID(&p, snap.Ref.ID)
	return &p, nil
}

// FindSimilar returns up to limit products other than target that share its
// category or brand, or whose price lies within ±20% of target's price.
func (r *ProductRepository) FindSimilar(ctx context.Context, target model.Product, limit int) ([]model.Product, error) {
	if limit <= 0 {
		return []model.Product{}, nil
	}
	low := target.Price * (1 - similarPriceBand)
	high := target.Price * (1 + similarPriceBand)

	filter := firestore.OrFilter{Filters: []firestore.EntityFilter{
		firestore.PropertyFilter{Path: "category", Operator: "==", Value: target.Category},
		firestore.PropertyFilter{Path: "brand", Operator: "==", Value: target.Brand},
		firestore.AndFilter{Filters: []firestore.EntityFilter{
			firestore.PropertyFilter{Path: "price", Operator: ">=", Value: low},
			firestore.PropertyFilter{Path: "price", Operator: "<=", Value: high},
		}},
	}}
	// one extra so dropping the target still leaves limit results
	docs, err := r.client.Collection(productsCollection).WhereEntity(filter).Limit(limit + 1).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("query similar products: %w", err)
	}
	products, err := decodeAll(docs, setProductID)
	if err != nil {
		return nil, err
	}
	out := make([]model.Product, 0, limit)
	for _, p := range products {
		if p.ID == target.ID {
			continue
		}
		out = append(out, p)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// BatchUpsert writes catalog entries, merging into existing documents so fields
// the caller left empty are preserved.
func (r *ProductRepository) BatchUpsert(ctx context.Context, products []model.Product) error {
	for start := 0; start < len(products); start += batchSize {
		end := start + batchSize
		if end > len(products) {
			end = len(products)
		}
		batch := r.client.Batch()
		for _, p := range products[start:end] {
			batch.Set(r.client.Collection(productsCollection).Doc(p.ID), productFields(p), firestore.MergeAll)
		}
		if _, err := batch.Commit(ctx); err != nil {
			return fmt.Errorf("commit batch [%d:%d]: %w", start, end, err)
		}
	}
	return nil
}

func productFields(p model.Product) map[string]interface{} {
	fields := map[string]interface{}{"id": p.ID}
	if p.Name != "" {
		fields["name"] = p.Name
	}
	if p.Brand != "" {
		fields["brand"] = p.Brand
	}
	if p.Category != "" {
		fields["category"] = p.Category
	}
	if p.Price > 0 {
		fields["price"] = p.Price
	}
	if p.AverageRating > 0 {
		fields["averageRating"] = p.AverageRating
	}
	if !p.CreatedAt.IsZero() {
		fields["createdAt"] = p.CreatedAt
	}
	return fields
}

func setProductID(p *model.Product, id string) {
	if p.ID == "" {
		p.ID = id
	}
}
