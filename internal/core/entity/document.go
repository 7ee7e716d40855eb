package entity

import (
	"context"
	"time"

	"stockward/internal/core/apperror"
)

// DocumentStatus is the lifecycle state of a document.
// draft -> posted, and posted is terminal: there is no unpost or void.
// Correcting a posted document requires a compensating document.
type DocumentStatus string

const (
	StatusDraft  DocumentStatus = "draft"
	StatusPosted DocumentStatus = "posted"
)

// Document is the base type for business transactions that move stock.
type Document struct {
	BaseDocument

	// Number is the document number (auto-generated, unique within type+period)
	Number string `db:"number" json:"number"`

	// Date is the business date of the document
	Date time.Time `db:"date" json:"date"`

	// Status is draft until the document is posted, then posted forever
	Status DocumentStatus `db:"status" json:"status"`

	// PostedAt is set exactly once, when the document is posted
	PostedAt *time.Time `db:"posted_at" json:"postedAt,omitempty"`

	// Comment is an optional user comment
	Comment string `db:"comment" json:"comment,omitempty"`
}

// NewDocument creates a new draft Document with generated ID.
func NewDocument() Document {
	return Document{
		BaseDocument: NewBaseDocument(),
		Date:         time.Now().UTC(),
		Status:       StatusDraft,
	}
}

// Validate implements Validatable interface.
func (d *Document) Validate(ctx context.Context) error {
	if d.Date.IsZero() {
		return apperror.NewValidation("date is required").
			WithDetail("field", "date")
	}
	return nil
}

// IsPosted returns true if the document has been posted.
func (d *Document) IsPosted() bool {
	return d.Status == StatusPosted
}

// CanModify checks if document can be modified.
// Posted documents are immutable.
func (d *Document) CanModify() error {
	if d.IsPosted() {
		return apperror.NewAlreadyPosted(d.ID.String())
	}
	return nil
}

// MarkPosted flips the document to posted at the given timestamp.
// The repository enforces the one-time transition; this only mirrors it
// on the in-memory copy.
func (d *Document) MarkPosted(at time.Time) {
	d.Status = StatusPosted
	d.PostedAt = &at
	d.Touch()
}
