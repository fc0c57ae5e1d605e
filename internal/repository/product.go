package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/cozycove/cozycove/internal/model"
)

// ProductRepository provides database access for product snapshots.
type ProductRepository struct {
	repo *Repository
}

// NewProductRepository creates a new ProductRepository.
func NewProductRepository(repo *Repository) *ProductRepository {
	return &ProductRepository{repo: repo}
}

const productColumns = `
	id, title, image, url, price, old_price, discount_percent, rating,
	orders, category, tags, free_shipping, first_seen_at, updated_at
`

// UpsertProducts writes a batch of normalized product snapshots. The upsert
// deliberately never touches first_seen_at on conflict: provenance is
// decided by catalog.Merge, and this clause is the database-level backstop
// in case a caller skips the merge.
func (r *ProductRepository) UpsertProducts(ctx context.Context, products []model.Product) error {
	if len(products) == 0 {
		return nil
	}

	batch := &pgx.Batch{}

	query := `
		INSERT INTO products (
			id, title, image, url, price, old_price, discount_percent, rating,
			orders, category, tags, free_shipping, first_seen_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			image = EXCLUDED.image,
			url = EXCLUDED.url,
			price = EXCLUDED.price,
			old_price = EXCLUDED.old_price,
			discount_percent = EXCLUDED.discount_percent,
			rating = EXCLUDED.rating,
			orders = EXCLUDED.orders,
			category = EXCLUDED.category,
			tags = EXCLUDED.tags,
			free_shipping = EXCLUDED.free_shipping,
			updated_at = EXCLUDED.updated_at
	`

	for i := range products {
		p := &products[i]
		batch.Queue(query,
			p.ID,
			p.Title,
			p.Image,
			p.URL,
			p.Price,
			p.OldPrice,
			p.DiscountPercent,
			p.Rating,
			p.Orders,
			p.Category,
			p.Tags,
			p.FreeShipping,
			p.FirstSeenAt,
			p.UpdatedAt,
		)
	}

	results := r.repo.pool.SendBatch(ctx, batch)
	defer results.Close()

	for i := range products {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("batch upsert product %d: %w", i, err)
		}
	}

	return nil
}

// GetProductsByIDs loads previously stored snapshots for the given ids.
// Missing ids are simply absent from the map (first sighting).
func (r *ProductRepository) GetProductsByIDs(ctx context.Context, ids []string) (map[string]*model.Product, error) {
	if len(ids) == 0 {
		return map[string]*model.Product{}, nil
	}

	query := `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1)`

	rows, err := r.repo.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("query products by ids: %w", err)
	}
	defer rows.Close()

	products := make(map[string]*model.Product, len(ids))
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products[p.ID] = p
	}

	return products, rows.Err()
}

// ListProducts returns every stored product snapshot, most recently updated
// first. The serving set is bounded by what ingest keeps fresh, so a full
// scan is acceptable here.
func (r *ProductRepository) ListProducts(ctx context.Context) ([]model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY updated_at DESC`

	rows, err := r.repo.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *p)
	}

	return products, rows.Err()
}

// scanProduct scans a row into a Product.
func scanProduct(rows pgx.Rows) (*model.Product, error) {
	var p model.Product

	err := rows.Scan(
		&p.ID,
		&p.Title,
		&p.Image,
		&p.URL,
		&p.Price,
		&p.OldPrice,
		&p.DiscountPercent,
		&p.Rating,
		&p.Orders,
		&p.Category,
		&p.Tags,
		&p.FreeShipping,
		&p.FirstSeenAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if p.Tags == nil {
		p.Tags = []string{}
	}

	return &p, nil
}
