package warehouse

import (
	"context"

	"stockward/internal/domain"
)

// Repository is the persistence contract for warehouses.
type Repository interface {
	domain.CatalogRepository[*Warehouse]

	// ClearDefault drops the default flag everywhere; at most one
	// warehouse is the default at a time.
	ClearDefault(ctx context.Context) error
}
