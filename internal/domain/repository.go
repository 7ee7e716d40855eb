// Package domain holds the contracts shared by every catalog: the
// repository interface, list filtering, the generic CatalogService and
// its lifecycle hooks.
package domain

import (
	"context"

	"stockward/internal/core/entity"
	"stockward/internal/core/id"
	"stockward/internal/domain/filter"
)

// ListFilter is the common query shape for catalog listings.
type ListFilter struct {
	// Search matches against the entity's searchable fields
	Search string

	// IDs restricts the result to specific ids
	IDs []id.ID

	// IncludeDeleted also returns soft-deleted rows
	IncludeDeleted bool

	// AdvancedFilters is an optional list of ad-hoc field filters
	AdvancedFilters []filter.Item

	// OrderBy specifies sorting, "field" or "-field" for descending
	OrderBy string

	Limit  int
	Offset int
}

// DefaultListFilter pages 50 at a time ordered by name.
func DefaultListFilter() ListFilter {
	return ListFilter{
		Limit:   50,
		OrderBy: "name",
	}
}

// ListResult contains one page of items plus the unpaginated total.
type ListResult[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// CatalogRepository is what a catalog needs from its storage.
type CatalogRepository[T entity.Validatable] interface {
	Create(ctx context.Context, entity T) error

	GetByID(ctx context.Context, id id.ID) (T, error)

	// GetByCode retrieves an entity by its code (unique per catalog).
	GetByCode(ctx context.Context, code string) (T, error)

	// Update modifies an existing entity under optimistic locking.
	Update(ctx context.Context, entity T) error

	// Delete removes the row physically. The service layer soft-deletes
	// via SetDeletionMark; physical removal is for admin cleanup only.
	Delete(ctx context.Context, id id.ID) error

	SetDeletionMark(ctx context.Context, id id.ID, marked bool) error

	List(ctx context.Context, filter ListFilter) (ListResult[T], error)

	Exists(ctx context.Context, id id.ID) (bool, error)

	ExistsByCode(ctx context.Context, code string) (bool, error)
}

// HookEvent names a lifecycle point around catalog mutations.
type HookEvent string

const (
	BeforeCreate HookEvent = "before_create"
	AfterCreate  HookEvent = "after_create"
	BeforeUpdate HookEvent = "before_update"
	AfterUpdate  HookEvent = "after_update"
	BeforeDelete HookEvent = "before_delete"
	AfterDelete  HookEvent = "after_delete"
)

// Hook runs at a lifecycle point. A before-hook error aborts the
// operation; after-hook errors are dropped by the service.
type Hook[T any] func(ctx context.Context, entity T) error

// HookRegistry collects the hooks registered for one entity type.
// Not safe for concurrent registration; wire hooks at startup.
type HookRegistry[T any] struct {
	hooks map[HookEvent][]Hook[T]
}

func NewHookRegistry[T any]() *HookRegistry[T] {
	return &HookRegistry[T]{hooks: make(map[HookEvent][]Hook[T])}
}

// On registers a hook for the event. Hooks run in registration order.
func (r *HookRegistry[T]) On(event HookEvent, hook Hook[T]) {
	r.hooks[event] = append(r.hooks[event], hook)
}

// Run executes the event's hooks, stopping at the first error.
func (r *HookRegistry[T]) Run(ctx context.Context, event HookEvent, entity T) error {
	for _, hook := range r.hooks[event] {
		if err := hook(ctx, entity); err != nil {
			return err
		}
	}
	return nil
}
