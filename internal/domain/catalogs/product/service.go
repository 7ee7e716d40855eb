package product

import (
	"context"
	"fmt"
	"time"

	"stockward/internal/core/apperror"
	"stockward/internal/core/id"
	"stockward/internal/core/numerator"
	"stockward/internal/core/tx"
	"stockward/internal/domain"
)

// Service provides business logic for Product catalog.
// Uses composition with domain.CatalogService for common CRUD operations.
type Service struct {
	*domain.CatalogService[*Product]
	repo      Repository
	numerator numerator.Generator
}

// NewService creates a new Product service.
func NewService(repo Repository, txManager tx.Manager, gen numerator.Generator) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Product]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "product",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
		numerator:      gen,
	}

	base.Hooks().On(domain.BeforeCreate, svc.prepareForCreate)

	return svc
}

// prepareForCreate handles code generation and SKU uniqueness.
func (s *Service) prepareForCreate(ctx context.Context, p *Product) error {
	// Generate code if not provided
	if p.Code == "" {
		code, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("PRD"), nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		p.Code = code
	}

	existing, err := s.repo.GetBySKU(ctx, p.SKU)
	if err != nil && !apperror.IsNotFound(err) {
		return err
	}
	if existing != nil && existing.ID != p.ID {
		return apperror.NewDuplicate("product", "sku", p.SKU)
	}

	return nil
}

// --- Entity-specific methods ---

// GetBySKU retrieves a product by its SKU.
func (s *Service) GetBySKU(ctx context.Context, sku string) (*Product, error) {
	p, err := s.repo.GetBySKU(ctx, sku)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("product", sku)
		}
		return nil, err
	}
	return p, nil
}

// ResolveSKUs maps SKUs to product IDs. Missing SKUs are simply absent
// from the result.
func (s *Service) ResolveSKUs(ctx context.Context, skus []string) (map[string]id.ID, error) {
	return s.repo.ResolveSKUs(ctx, skus)
}
