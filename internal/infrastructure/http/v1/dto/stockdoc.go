package dto

import (
	"time"

	"stockward/internal/core/id"
	"stockward/internal/core/types"
	"stockward/internal/domain/documents/stockdoc"
	"stockward/internal/domain/posting"
)

// --- Request DTOs ---

// CreateStockDocumentRequest represents a request to create a stock document.
// Quantities are signed: adjustments may carry negative lines, counts carry
// the absolute counted value.
type CreateStockDocumentRequest struct {
	Number          string                     `json:"number,omitempty"`
	Type            string                     `json:"type" binding:"required,oneof=receipt shipment adjustment count"`
	Date            *time.Time                 `json:"date,omitempty"`
	WarehouseID     string                     `json:"warehouseId" binding:"required"`
	Comment         string                     `json:"comment,omitempty"`
	Lines           []StockDocumentLineRequest `json:"lines"`
	PostImmediately bool                       `json:"postImmediately,omitempty"`
}

// StockDocumentLineRequest represents a line in create/update request.
type StockDocumentLineRequest struct {
	SKU      string `json:"sku" binding:"required"`
	Quantity int64  `json:"quantity"`
	Note     string `json:"note,omitempty"`
}

// ToEntity converts request to domain entity.
func (r *CreateStockDocumentRequest) ToEntity() *stockdoc.Document {
	warehouseID, _ := id.Parse(r.WarehouseID)

	doc := stockdoc.NewDocument(posting.DocType(r.Type), warehouseID)
	doc.Number = r.Number
	if r.Date != nil {
		doc.Date = *r.Date
	}
	doc.Comment = r.Comment

	for _, line := range r.Lines {
		doc.AddLine(line.SKU, types.Quantity(line.Quantity), line.Note)
	}

	return doc
}

// UpdateStockDocumentRequest represents a request to update a draft.
// The document type is fixed at creation and cannot be changed.
type UpdateStockDocumentRequest struct {
	Number      *string                    `json:"number,omitempty"`
	Date        *time.Time                 `json:"date,omitempty"`
	WarehouseID *string                    `json:"warehouseId,omitempty"`
	Comment     *string                    `json:"comment,omitempty"`
	Lines       []StockDocumentLineRequest `json:"lines,omitempty"`
	Version     int                        `json:"version" binding:"required"`
}

// ApplyTo applies updates to an existing entity.
func (r *UpdateStockDocumentRequest) ApplyTo(doc *stockdoc.Document) {
	if r.Number != nil {
		doc.Number = *r.Number
	}
	if r.Date != nil {
		doc.Date = *r.Date
	}
	if r.WarehouseID != nil {
		warehouseID, _ := id.Parse(*r.WarehouseID)
		doc.WarehouseID = warehouseID
	}
	if r.Comment != nil {
		doc.Comment = *r.Comment
	}

	if r.Lines != nil {
		doc.Lines = make([]stockdoc.Line, 0, len(r.Lines))
		for _, line := range r.Lines {
			doc.AddLine(line.SKU, types.Quantity(line.Quantity), line.Note)
		}
	}

	doc.Version = r.Version
}

// --- Response DTOs ---

// StockDocumentResponse represents a stock document in API responses.
type StockDocumentResponse struct {
	ID           string                      `json:"id"`
	Number       string                      `json:"number"`
	Type         string                      `json:"type"`
	Date         time.Time                   `json:"date"`
	Status       string                      `json:"status"`
	PostedAt     *time.Time                  `json:"postedAt,omitempty"`
	WarehouseID  string                      `json:"warehouseId"`
	Comment      string                      `json:"comment,omitempty"`
	Lines        []StockDocumentLineResponse `json:"lines,omitempty"`
	DeletionMark bool                        `json:"deletionMark,omitempty"`
	Version      int                         `json:"version"`
	CreatedAt    time.Time                   `json:"createdAt"`
	UpdatedAt    time.Time                   `json:"updatedAt"`
}

// StockDocumentLineResponse represents a line in API responses.
type StockDocumentLineResponse struct {
	LineID   string `json:"lineId"`
	LineNo   int    `json:"lineNo"`
	SKU      string `json:"sku"`
	Quantity int64  `json:"quantity"`
	Note     string `json:"note,omitempty"`
}

// FromStockDocument converts domain entity to response DTO.
func FromStockDocument(doc *stockdoc.Document) *StockDocumentResponse {
	resp := &StockDocumentResponse{
		ID:           doc.ID.String(),
		Number:       doc.Number,
		Type:         string(doc.Type),
		Date:         doc.Date,
		Status:       string(doc.Status),
		PostedAt:     doc.PostedAt,
		WarehouseID:  doc.WarehouseID.String(),
		Comment:      doc.Comment,
		DeletionMark: doc.DeletionMark,
		Version:      doc.Version,
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
	}

	resp.Lines = make([]StockDocumentLineResponse, len(doc.Lines))
	for i, line := range doc.Lines {
		resp.Lines[i] = StockDocumentLineResponse{
			LineID:   line.LineID.String(),
			LineNo:   line.LineNo,
			SKU:      line.SKU,
			Quantity: line.Quantity.Int64(),
			Note:     line.Note,
		}
	}

	return resp
}

// StockDocumentListResponse represents a list of stock documents.
type StockDocumentListResponse struct {
	Items      []*StockDocumentResponse `json:"items"`
	TotalCount int64                    `json:"totalCount"`
	Limit      int                      `json:"limit"`
	Offset     int                      `json:"offset"`
}
