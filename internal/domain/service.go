package domain

import (
	"context"
	"fmt"

	"stockward/internal/core/apperror"
	"stockward/internal/core/entity"
	"stockward/internal/core/id"
	"stockward/internal/core/tx"
)

// CatalogService implements the generic lifecycle for catalog entities:
// validate, run before-hooks, mutate in a transaction, run after-hooks.
// Concrete catalogs wrap it and register their hooks.
type CatalogService[T entity.Validatable] struct {
	repo      CatalogRepository[T]
	txManager tx.Manager
	hooks     *HookRegistry[T]

	// entityName appears in error messages and NotFound keys
	entityName string
}

// CatalogServiceConfig names the catalog for error messages and log
// lines and carries its numbering series.
type CatalogServiceConfig[T entity.Validatable] struct {
	Repo       CatalogRepository[T]
	TxManager  tx.Manager
	EntityName string
}

func NewCatalogService[T entity.Validatable](cfg CatalogServiceConfig[T]) *CatalogService[T] {
	return &CatalogService[T]{
		repo:       cfg.Repo,
		txManager:  cfg.TxManager,
		hooks:      NewHookRegistry[T](),
		entityName: cfg.EntityName,
	}
}

// Hooks exposes the registry so callers can attach lifecycle hooks.
func (s *CatalogService[T]) Hooks() *HookRegistry[T] {
	return s.hooks
}

// Create validates and inserts a new entity.
func (s *CatalogService[T]) Create(ctx context.Context, e T) error {
	return s.mutate(ctx, e, BeforeCreate, AfterCreate, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, e); err != nil {
			return fmt.Errorf("create %s: %w", s.entityName, err)
		}
		return nil
	})
}

// Update validates and writes the entity back.
func (s *CatalogService[T]) Update(ctx context.Context, e T) error {
	return s.mutate(ctx, e, BeforeUpdate, AfterUpdate, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, e); err != nil {
			return fmt.Errorf("update %s: %w", s.entityName, err)
		}
		return nil
	})
}

// mutate is the shared write path: validation, before-hook, the
// operation inside a transaction, then the after-hook. After-hooks run
// outside the transaction and their errors are dropped.
func (s *CatalogService[T]) mutate(ctx context.Context, e T, before, after HookEvent, op func(ctx context.Context) error) error {
	if err := e.Validate(ctx); err != nil {
		return s.normalizeValidationErr(err)
	}
	if err := s.hooks.Run(ctx, before, e); err != nil {
		return err
	}
	if err := s.txManager.RunInTransaction(ctx, op); err != nil {
		return err
	}
	_ = s.hooks.Run(ctx, after, e)
	return nil
}

// GetByID retrieves an entity by id.
func (s *CatalogService[T]) GetByID(ctx context.Context, entityID id.ID) (T, error) {
	e, err := s.repo.GetByID(ctx, entityID)
	if err != nil {
		return e, s.normalizeGetErr(err, entityID.String())
	}
	return e, nil
}

// GetByCode retrieves an entity by code.
func (s *CatalogService[T]) GetByCode(ctx context.Context, code string) (T, error) {
	e, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return e, s.normalizeGetErr(err, code)
	}
	return e, nil
}

// Delete soft-deletes the entity. The load happens first so delete
// hooks see the entity as it was.
func (s *CatalogService[T]) Delete(ctx context.Context, entityID id.ID) error {
	e, err := s.repo.GetByID(ctx, entityID)
	if err != nil {
		return s.normalizeGetErr(err, entityID.String())
	}

	if err := s.hooks.Run(ctx, BeforeDelete, e); err != nil {
		return err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.SetDeletionMark(ctx, entityID, true); err != nil {
			return fmt.Errorf("delete %s: %w", s.entityName, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	_ = s.hooks.Run(ctx, AfterDelete, e)
	return nil
}

func (s *CatalogService[T]) SetDeletionMark(ctx context.Context, entityID id.ID, marked bool) error {
	return s.repo.SetDeletionMark(ctx, entityID, marked)
}

// List returns one page of entities.
func (s *CatalogService[T]) List(ctx context.Context, filter ListFilter) (ListResult[T], error) {
	return s.repo.List(ctx, filter)
}

// Exists checks whether the entity exists.
func (s *CatalogService[T]) Exists(ctx context.Context, entityID id.ID) (bool, error) {
	return s.repo.Exists(ctx, entityID)
}

func (s *CatalogService[T]) normalizeValidationErr(err error) error {
	if err == nil || apperror.IsAppError(err) {
		return err
	}
	return apperror.NewValidation(err.Error())
}

// normalizeGetErr keeps structured errors but rewrites NotFound under
// the service's entity name, so callers see "product", not a table.
func (s *CatalogService[T]) normalizeGetErr(err error, idOrCode any) error {
	switch {
	case err == nil:
		return nil
	case apperror.IsNotFound(err):
		return apperror.NewNotFound(s.entityName, idOrCode)
	case apperror.IsAppError(err):
		return err
	}
	return apperror.NewInternal(err).
		WithDetail("entity", s.entityName).
		WithDetail("id", idOrCode)
}
