// Package entity provides core domain entities.
package entity

import (
	"time"

	"stockward/internal/core/id"
	"stockward/internal/core/types"
)

// LedgerEntry is one row of the append-only stock ledger. Entries are
// immutable: never updated, never deleted. SKU and warehouse id are
// denormalized so history stays readable even if the catalog row is
// later removed.
type LedgerEntry struct {
	// ID is unique identifier for this entry (UUIDv7)
	ID id.ID `db:"id" json:"id"`

	// SKU identifies the product the quantity change applies to
	SKU string `db:"sku" json:"sku"`

	// WarehouseID scopes the change to one warehouse
	WarehouseID id.ID `db:"warehouse_id" json:"warehouseId"`

	// DocID is the document whose posting created this entry
	DocID id.ID `db:"doc_id" json:"docId"`

	// DocType is the document type (receipt, shipment, adjustment, count)
	DocType string `db:"doc_type" json:"docType"`

	// Delta is the signed quantity change applied to the balance
	Delta types.Quantity `db:"delta" json:"delta"`

	// CreatedAt is shared by all entries of one posting operation
	CreatedAt time.Time `db:"created_at" json:"createdAt"`

	// Description is a free-text note carried from the document line
	Description string `db:"description" json:"description,omitempty"`
}

// NewLedgerEntry creates an entry for one document line delta.
func NewLedgerEntry(sku string, warehouseID, docID id.ID, docType string, delta types.Quantity, createdAt time.Time, description string) LedgerEntry {
	return LedgerEntry{
		ID:          id.New(),
		SKU:         sku,
		WarehouseID: warehouseID,
		DocID:       docID,
		DocType:     docType,
		Delta:       delta,
		CreatedAt:   createdAt,
		Description: description,
	}
}

// Balance is the current on-hand quantity for one (sku, warehouse) pair.
// Exactly one row per pair, created lazily at first movement, mutated
// only by the posting engine. Invariant: OnHand equals the sum of all
// ledger deltas ever recorded for the pair.
type Balance struct {
	// Dimensions
	SKU         string `db:"sku" json:"sku"`
	WarehouseID id.ID  `db:"warehouse_id" json:"warehouseId"`

	// Resources
	OnHand types.Quantity `db:"on_hand" json:"onHand"`

	// Reserved is a stub kept for API compatibility; always zero, no
	// reservation engine exists.
	Reserved types.Quantity `db:"reserved" json:"reserved"`

	// UpdatedAt is the timestamp of the posting that last touched the pair
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Available returns on-hand minus reserved quantity.
func (b *Balance) Available() types.Quantity {
	return b.OnHand.Sub(b.Reserved)
}
