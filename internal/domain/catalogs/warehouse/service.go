package warehouse

import (
	"context"
	"fmt"
	"time"

	"stockward/internal/core/numerator"
	"stockward/internal/core/tx"
	"stockward/internal/domain"
)

// Service is the warehouse catalog: generic CRUD from CatalogService
// plus warehouse-specific hooks for code generation and the single
// default flag.
type Service struct {
	*domain.CatalogService[*Warehouse]
	repo      Repository
	numerator numerator.Generator
}

func NewService(repo Repository, txManager tx.Manager, gen numerator.Generator) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Warehouse]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "warehouse",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
		numerator:      gen,
	}

	base.Hooks().On(domain.BeforeCreate, svc.prepareForCreate)
	base.Hooks().On(domain.BeforeUpdate, svc.prepareForUpdate)

	return svc
}

// prepareForCreate assigns a WH-series code when none was supplied and
// keeps the default flag unique.
func (s *Service) prepareForCreate(ctx context.Context, wh *Warehouse) error {
	if wh.Code == "" {
		code, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("WH"), nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		wh.Code = code
	}

	return s.ensureSingleDefault(ctx, wh)
}

func (s *Service) prepareForUpdate(ctx context.Context, wh *Warehouse) error {
	return s.ensureSingleDefault(ctx, wh)
}

// ensureSingleDefault clears the flag elsewhere before this warehouse
// becomes the default.
func (s *Service) ensureSingleDefault(ctx context.Context, wh *Warehouse) error {
	if !wh.IsDefault {
		return nil
	}
	return s.repo.ClearDefault(ctx)
}
