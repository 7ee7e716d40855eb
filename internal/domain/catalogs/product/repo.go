package product

import (
	"context"

	"stockward/internal/core/id"
	"stockward/internal/domain"
)

// Repository defines the interface for Product persistence.
type Repository interface {
	domain.CatalogRepository[*Product]

	// GetBySKU retrieves product by SKU.
	GetBySKU(ctx context.Context, sku string) (*Product, error)

	// ResolveSKUs maps SKUs to product IDs in one query. SKUs that do not
	// match an existing (not deletion-marked) product are absent from the
	// result; the caller decides whether that is an error.
	ResolveSKUs(ctx context.Context, skus []string) (map[string]id.ID, error)
}
