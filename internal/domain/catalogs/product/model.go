// Package product provides the Product catalog.
// Products are identified by a unique SKU; the posting engine references
// them by SKU only and never mutates them.
package product

import (
	"context"
	"strings"

	"stockward/internal/core/apperror"
	"stockward/internal/core/entity"
	"stockward/internal/core/types"
)

// Product represents a stock-keeping item.
type Product struct {
	entity.Catalog

	// SKU is the unique stock-keeping unit code
	SKU string `db:"sku" json:"sku"`

	// Unit is the display unit of measure (pcs, kg, box)
	Unit string `db:"unit" json:"unit"`

	// Price is the reference unit price (display only, no costing)
	Price types.Money `db:"price" json:"price"`

	// MinStock is the low-stock alert threshold; zero disables the alert
	MinStock types.Quantity `db:"min_stock" json:"minStock"`

	// Description is a detailed description
	Description *string `db:"description" json:"description,omitempty"`
}

// NewProduct creates a new Product with required fields.
func NewProduct(sku, name string) *Product {
	return &Product{
		Catalog: entity.NewCatalog(sku, name),
		SKU:     sku,
		Unit:    "pcs",
		Price:   types.ZeroMoney(),
	}
}

// Validate implements entity.Validatable interface.
func (p *Product) Validate(ctx context.Context) error {
	// Base catalog validation
	if err := p.Catalog.Validate(ctx); err != nil {
		return err
	}

	if strings.TrimSpace(p.SKU) == "" {
		return apperror.NewValidation("sku is required").
			WithDetail("field", "sku")
	}
	if strings.ContainsAny(p.SKU, " \t\n") {
		return apperror.NewValidation("sku must not contain whitespace").
			WithDetail("field", "sku").
			WithDetail("value", p.SKU)
	}

	if p.Price.IsNegative() {
		return apperror.NewValidation("price cannot be negative").
			WithDetail("field", "price")
	}

	if p.MinStock.IsNegative() {
		return apperror.NewValidation("minStock cannot be negative").
			WithDetail("field", "minStock")
	}

	return nil
}

// HasLowStockAlert returns true if the product carries a low-stock threshold.
func (p *Product) HasLowStockAlert() bool {
	return p.MinStock.IsPositive()
}
