package entity

import (
	"context"

	"stockward/internal/core/apperror"
)

// Catalog is the common shape of reference data rows such as products
// and warehouses: a unique code plus a display name on top of the soft
// delete and versioning of BaseCatalog.
type Catalog struct {
	BaseCatalog

	// Code is unique per catalog among rows not marked deleted
	Code string `db:"code" json:"code"`

	Name string `db:"name" json:"name"`
}

// NewCatalog builds a catalog row with a fresh id.
func NewCatalog(code, name string) Catalog {
	return Catalog{
		BaseCatalog: NewBaseCatalog(),
		Code:        code,
		Name:        name,
	}
}

// Validate requires a name. Code may be blank on create; the service
// fills it from the numbering series before saving.
func (c *Catalog) Validate(ctx context.Context) error {
	if c.Name == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}

	return nil
}
