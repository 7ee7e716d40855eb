// Package stockdoc provides the stock document: one model covering the
// four document types that move inventory (receipt, shipment,
// adjustment, count). The type field decides how lines translate into
// ledger deltas at posting time.
package stockdoc

import (
	"context"
	"strings"

	"stockward/internal/core/apperror"
	"stockward/internal/core/entity"
	"stockward/internal/core/id"
	"stockward/internal/core/types"
	"stockward/internal/domain/posting"
)

// Document represents a stock document of any type.
type Document struct {
	entity.Document

	// Type is fixed at creation; a draft never changes type.
	Type posting.DocType `db:"doc_type" json:"type"`

	// Warehouse the document applies to. Every line of the document
	// moves stock at this warehouse.
	WarehouseID id.ID `db:"warehouse_id" json:"warehouseId"`

	// Table part: quantity lines keyed by SKU
	Lines []Line `db:"-" json:"lines"`
}

// Line represents one quantity line in a stock document.
type Line struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	SKU      string         `db:"sku" json:"sku"`
	Quantity types.Quantity `db:"quantity" json:"quantity"`
	Note     string         `db:"note" json:"note,omitempty"`
}

// NewDocument creates a new draft stock document.
func NewDocument(docType posting.DocType, warehouseID id.ID) *Document {
	return &Document{
		Document:    entity.NewDocument(),
		Type:        docType,
		WarehouseID: warehouseID,
		Lines:       make([]Line, 0),
	}
}

// AddLine appends a quantity line.
func (d *Document) AddLine(sku string, quantity types.Quantity, note string) {
	d.Lines = append(d.Lines, Line{
		LineID:   id.New(),
		LineNo:   len(d.Lines) + 1,
		SKU:      sku,
		Quantity: quantity,
		Note:     note,
	})
}

// Validate implements entity.Validatable.
//
// Drafts with zero lines are valid: a draft is allowed to be assembled
// incrementally, and emptiness is rejected at posting time instead.
func (d *Document) Validate(ctx context.Context) error {
	if err := d.Document.Validate(ctx); err != nil {
		return err
	}

	if !d.Type.Valid() {
		return apperror.NewValidation("unknown document type").
			WithDetail("field", "type").
			WithDetail("type", string(d.Type))
	}

	if id.IsNil(d.WarehouseID) {
		return apperror.NewValidation("warehouse is required").
			WithDetail("field", "warehouseId")
	}

	for i, line := range d.Lines {
		if strings.TrimSpace(line.SKU) == "" {
			return apperror.NewValidation("sku is required").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if err := validateLineQuantity(d.Type, line.Quantity); err != nil {
			return err.WithDetail("lineNo", i + 1).WithDetail("sku", line.SKU)
		}
	}

	return nil
}

// validateLineQuantity enforces the per-type quantity sign rules.
// Adjustments carry signed quantities; everything else is non-negative,
// and only counts may record a zero (counting a shelf down to nothing).
func validateLineQuantity(docType posting.DocType, q types.Quantity) *apperror.AppError {
	switch docType {
	case posting.DocTypeAdjustment:
		if q.IsZero() {
			return apperror.NewValidation("adjustment quantity cannot be zero").
				WithDetail("field", "lines")
		}
	case posting.DocTypeCount:
		if q.IsNegative() {
			return apperror.NewValidation("counted quantity cannot be negative").
				WithDetail("field", "lines")
		}
	default:
		if !q.IsPositive() {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("field", "lines")
		}
	}
	return nil
}

// --- posting.Postable implementation ---
// IsPosted is inherited from entity.Document.

func (d *Document) GetID() id.ID { return d.ID }

func (d *Document) GetDocumentType() posting.DocType { return d.Type }

func (d *Document) GetWarehouseID() id.ID { return d.WarehouseID }

// CanPost validates the document for posting. Line emptiness and stock
// sufficiency are checked by the posting engine.
func (d *Document) CanPost(ctx context.Context) error {
	return d.Validate(ctx)
}

// PostingLines converts table-part lines into posting requests.
func (d *Document) PostingLines() []posting.Line {
	lines := make([]posting.Line, 0, len(d.Lines))
	for _, l := range d.Lines {
		lines = append(lines, posting.Line{
			SKU:      l.SKU,
			Quantity: l.Quantity,
			Note:     l.Note,
		})
	}
	return lines
}

var _ posting.Postable = (*Document)(nil)
