package stockdoc

import (
	"context"
	"time"

	"stockward/internal/core/id"
	"stockward/internal/domain"
	"stockward/internal/domain/posting"
)

// Repository defines operations for stock documents.
type Repository interface {
	Create(ctx context.Context, doc *Document) error
	GetByID(ctx context.Context, docID id.ID) (*Document, error)
	GetByNumber(ctx context.Context, number string) (*Document, error)
	Update(ctx context.Context, doc *Document) error
	Delete(ctx context.Context, docID id.ID) error

	GetLines(ctx context.Context, docID id.ID) ([]Line, error)
	SaveLines(ctx context.Context, docID id.ID, lines []Line) error

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Document], error)

	// GetForPosting loads the document with its lines under an exclusive
	// row lock. Must be called inside the posting transaction so the
	// draft the engine validates cannot change underneath it.
	GetForPosting(ctx context.Context, docID id.ID) (*Document, error)

	// MarkPosted flips the document from draft to posted. The update is
	// conditional on status = draft and fails with AlreadyPosted
	// otherwise, which makes the transition one-time even under
	// concurrent posting requests.
	MarkPosted(ctx context.Context, docID id.ID, postedAt time.Time) error
}

// ListFilter for filtering stock documents.
type ListFilter struct {
	domain.ListFilter

	Type        *posting.DocType
	Status      *string
	WarehouseID *id.ID
	DateFrom    *time.Time
	DateTo      *time.Time
}
