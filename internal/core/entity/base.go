package entity

import (
	"context"
	"time"

	"stockward/internal/core/id"
)

// Validatable is implemented by entities that support self-validation.
// Validation checks internal invariants only, never the database.
type Validatable interface {
	// Validate returns nil when the entity is consistent, an AppError
	// with details otherwise.
	Validate(ctx context.Context) error
}

// BaseEntity carries the fields every stored entity has: a UUIDv7
// primary key, the soft-delete mark and the optimistic lock version.
type BaseEntity struct {
	ID id.ID `db:"id" json:"id"`

	DeletionMark bool `db:"deletion_mark" json:"deletionMark"`

	// Version is incremented on every update
	Version int `db:"version" json:"version"`
}

func NewBaseEntity() BaseEntity {
	return BaseEntity{
		ID:      id.New(),
		Version: 1,
	}
}

// GetID returns the entity ID.
func (b *BaseEntity) GetID() id.ID {
	return b.ID
}

// Touch increments the optimistic lock version.
func (b *BaseEntity) Touch() {
	b.Version++
}

// BaseDocument extends BaseEntity with creation and modification audit
// fields. Documents record who touched them; catalogs do not.
type BaseDocument struct {
	BaseEntity

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
	CreatedBy string    `db:"created_by" json:"createdBy,omitempty"`
	UpdatedBy string    `db:"updated_by" json:"updatedBy,omitempty"`
}

func NewBaseDocument() BaseDocument {
	now := time.Now().UTC()
	return BaseDocument{
		BaseEntity: NewBaseEntity(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Touch bumps UpdatedAt along with the version.
func (b *BaseDocument) Touch() {
	b.UpdatedAt = time.Now().UTC()
	b.BaseEntity.Touch()
}

// BaseCatalog is BaseEntity under a catalog-specific name, so catalog
// types read as what they are.
type BaseCatalog struct {
	BaseEntity
}

func NewBaseCatalog() BaseCatalog {
	return BaseCatalog{BaseEntity: NewBaseEntity()}
}
