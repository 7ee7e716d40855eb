package dto

import (
	"stockward/internal/core/types"
	"stockward/internal/domain/catalogs/product"
)

// --- Request DTOs ---

// CreateProductRequest is the request body for creating a product.
type CreateProductRequest struct {
	SKU         string       `json:"sku" binding:"required"`
	Name        string       `json:"name" binding:"required"`
	Unit        string       `json:"unit"`
	Price       *types.Money `json:"price"`
	MinStock    int64        `json:"minStock"`
	Description *string      `json:"description"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateProductRequest) ToEntity() *product.Product {
	p := product.NewProduct(r.SKU, r.Name)
	if r.Unit != "" {
		p.Unit = r.Unit
	}
	if r.Price != nil {
		p.Price = *r.Price
	}
	p.MinStock = types.Quantity(r.MinStock)
	p.Description = r.Description
	return p
}

// UpdateProductRequest is the request body for updating a product.
// SKU is immutable once the product exists: ledger entries reference it.
type UpdateProductRequest struct {
	Name        string       `json:"name" binding:"required"`
	Unit        string       `json:"unit"`
	Price       *types.Money `json:"price"`
	MinStock    int64        `json:"minStock"`
	Description *string      `json:"description,omitempty"`
	Version     int          `json:"version" binding:"required"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateProductRequest) ApplyTo(p *product.Product) {
	p.Name = r.Name
	if r.Unit != "" {
		p.Unit = r.Unit
	}
	if r.Price != nil {
		p.Price = *r.Price
	}
	p.MinStock = types.Quantity(r.MinStock)
	p.Description = r.Description
	p.Version = r.Version
}

// --- Response DTOs ---

// ProductResponse is the response body for a product.
type ProductResponse struct {
	ID           string      `json:"id"`
	Code         string      `json:"code"`
	SKU          string      `json:"sku"`
	Name         string      `json:"name"`
	Unit         string      `json:"unit"`
	Price        types.Money `json:"price"`
	MinStock     int64       `json:"minStock"`
	Description  *string     `json:"description,omitempty"`
	DeletionMark bool        `json:"deletionMark"`
	Version      int         `json:"version"`
}

// FromProduct creates response DTO from domain entity.
func FromProduct(p *product.Product) *ProductResponse {
	return &ProductResponse{
		ID:           p.ID.String(),
		Code:         p.Code,
		SKU:          p.SKU,
		Name:         p.Name,
		Unit:         p.Unit,
		Price:        p.Price,
		MinStock:     p.MinStock.Int64(),
		Description:  p.Description,
		DeletionMark: p.DeletionMark,
		Version:      p.Version,
	}
}
