// Package warehouse provides the Warehouse catalog.
// Warehouses are the scoping dimension for stock balances; the posting
// engine references them by id and never mutates them.
package warehouse

import (
	"context"

	"stockward/internal/core/entity"
)

// Warehouse is one stock-keeping location.
type Warehouse struct {
	entity.Catalog

	Address *string `db:"address" json:"address,omitempty"`

	// IsActive gates posting; inactive warehouses keep their balances
	// but accept no new movements
	IsActive bool `db:"is_active" json:"isActive"`

	// IsDefault marks the warehouse preselected in the UI; the service
	// keeps it unique
	IsDefault bool `db:"is_default" json:"isDefault"`

	Description *string `db:"description" json:"description,omitempty"`
}

// NewWarehouse builds an active warehouse.
func NewWarehouse(code, name string) *Warehouse {
	return &Warehouse{
		Catalog:  entity.NewCatalog(code, name),
		IsActive: true,
	}
}

func (w *Warehouse) Validate(ctx context.Context) error {
	return w.Catalog.Validate(ctx)
}

// CanAcceptStock reports whether postings may reference the warehouse.
func (w *Warehouse) CanAcceptStock() bool {
	return w.IsActive && !w.DeletionMark
}
