package database

import (
	"context"
	"fmt"
	"time"

	"github.com/motorefacciones/import-service/internal/types"
)

// FindProductBySku loads a product by its derived SKU
func (r *Repository) FindProductBySku(ctx context.Context, sku string) (*types.Product, error) {
	var p types.Product
	err := r.pool.QueryRow(ctx, `
		SELECT id, sku, slug, name, description, brand, motorcycle_brand, motorcycle_model,
		       price, compare_at_price, status, import_row_hash, created_at, updated_at
		FROM products
		WHERE sku = $1
	`, sku).Scan(
		&p.ID, &p.Sku, &p.Slug, &p.Name, &p.Description, &p.Brand, &p.MotorcycleBrand,
		&p.MotorcycleModel, &p.Price, &p.CompareAtPrice, &p.Status, &p.ImportRowHash,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err, "product", sku)
	}
	return &p, nil
}

// InsertProduct inserts a new product
func (r *Repository) InsertProduct(ctx context.Context, p *types.Product) error {
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := r.pool.Exec(ctx, `
		INSERT INTO products (
			id, sku, slug, name, description, brand, motorcycle_brand, motorcycle_model,
			price, compare_at_price, status, import_row_hash, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)
	`, p.ID, p.Sku, p.Slug, p.Name, p.Description, p.Brand, p.MotorcycleBrand,
		p.MotorcycleModel, p.Price, p.CompareAtPrice, p.Status, p.ImportRowHash, now)
	if err != nil {
		return fmt.Errorf("failed to insert product %s: %w", p.Sku, err)
	}
	return nil
}

// UpdateProduct overwrites the mutable fields of the product with p.ID
func (r *Repository) UpdateProduct(ctx context.Context, p *types.Product) error {
	p.UpdatedAt = time.Now()

	tag, err := r.pool.Exec(ctx, `
		UPDATE products SET
			slug = $2, name = $3, description = $4, brand = $5,
			motorcycle_brand = $6, motorcycle_model = $7, price = $8,
			compare_at_price = $9, status = $10, import_row_hash = $11, updated_at = $12
		WHERE id = $1
	`, p.ID, p.Slug, p.Name, p.Description, p.Brand, p.MotorcycleBrand, p.MotorcycleModel,
		p.Price, p.CompareAtPrice, p.Status, p.ImportRowHash, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update product %s: %w", p.Sku, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("product %s: %w", p.ID, types.ErrNotFound)
	}
	return nil
}

// UpsertVariant inserts or updates the variant keyed by its variant SKU
func (r *Repository) UpsertVariant(ctx context.Context, v *types.ProductVariant) error {
	attrs := v.Attrs
	if attrs == nil {
		attrs = map[string]any{}
	}

	err := r.pool.QueryRow(ctx, `
		INSERT INTO product_variant (id, product_id, variant_sku, price, stock, attrs)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (variant_sku) DO UPDATE SET
			product_id = EXCLUDED.product_id,
			price = EXCLUDED.price,
			stock = EXCLUDED.stock,
			attrs = EXCLUDED.attrs,
			updated_at = NOW()
		RETURNING id
	`, v.ID, v.ProductID, v.VariantSku, v.Price, v.Stock, attrs).Scan(&v.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert variant %s: %w", v.VariantSku, err)
	}
	return nil
}

// FindVariantBySku loads a variant by its variant SKU
func (r *Repository) FindVariantBySku(ctx context.Context, variantSku string) (*types.ProductVariant, error) {
	var v types.ProductVariant
	err := r.pool.QueryRow(ctx, `
		SELECT id, product_id, variant_sku, price, stock, attrs
		FROM product_variant
		WHERE variant_sku = $1
	`, variantSku).Scan(&v.ID, &v.ProductID, &v.VariantSku, &v.Price, &v.Stock, &v.Attrs)
	if err != nil {
		return nil, notFound(err, "variant", variantSku)
	}
	return &v, nil
}

// MediaExists reports whether a media row with the URL hash exists
func (r *Repository) MediaExists(ctx context.Context, sha256 string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM media WHERE sha256 = $1)`, sha256,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check media %s: %w", sha256, err)
	}
	return exists, nil
}

// MaxMediaSort returns the highest media sort for a product, 0 when it has none
func (r *Repository) MaxMediaSort(ctx context.Context, productID string) (int, error) {
	var maxSort int
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(sort), 0) FROM media WHERE product_id = $1`, productID,
	).Scan(&maxSort)
	if err != nil {
		return 0, fmt.Errorf("failed to read media sort for product %s: %w", productID, err)
	}
	return maxSort, nil
}

// InsertMedia inserts a media row. It returns false when a row with the
// same URL hash already exists.
func (r *Repository) InsertMedia(ctx context.Context, m *types.Media) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO media (id, product_id, url, sha256, is_primary, sort, source)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (sha256) DO NOTHING
	`, m.ID, m.ProductID, m.URL, m.Sha256, m.IsPrimary, m.Sort, m.Source)
	if err != nil {
		return false, fmt.Errorf("failed to insert media for product %s: %w", m.ProductID, err)
	}
	return tag.RowsAffected() == 1, nil
}

// ListMedia returns a product's media ordered by sort
func (r *Repository) ListMedia(ctx context.Context, productID string) ([]types.Media, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, product_id, url, sha256, is_primary, sort, source
		FROM media
		WHERE product_id = $1
		ORDER BY sort
	`, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list media for product %s: %w", productID, err)
	}
	defer rows.Close()

	media := []types.Media{}
	for rows.Next() {
		var m types.Media
		if err := rows.Scan(&m.ID, &m.ProductID, &m.URL, &m.Sha256, &m.IsPrimary, &m.Sort, &m.Source); err != nil {
			return nil, fmt.Errorf("failed to scan media: %w", err)
		}
		media = append(media, m)
	}
	return media, rows.Err()
}
