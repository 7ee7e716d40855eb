// Package posting implements the document posting engine: it validates a
// draft document, computes per-line quantity deltas against a locked
// balance snapshot, appends ledger entries, updates balances and flips
// the document to posted - all inside one transaction.
package posting

// DocType identifies how a document's line quantities translate into
// ledger deltas.
type DocType string

const (
	// DocTypeReceipt adds the line quantity to the balance.
	DocTypeReceipt DocType = "receipt"

	// DocTypeShipment subtracts the line quantity; fails when on-hand
	// stock is insufficient.
	DocTypeShipment DocType = "shipment"

	// DocTypeAdjustment applies the signed line quantity as-is
	// (negative = write-off, positive = found stock).
	DocTypeAdjustment DocType = "adjustment"

	// DocTypeCount reconciles the balance to the counted quantity; the
	// line quantity is an absolute target, not a movement.
	DocTypeCount DocType = "count"
)

// Valid reports whether t is a known document type.
func (t DocType) Valid() bool {
	switch t {
	case DocTypeReceipt, DocTypeShipment, DocTypeAdjustment, DocTypeCount:
		return true
	}
	return false
}

func (t DocType) String() string { return string(t) }

// AllDocTypes lists every document type, in display order.
func AllDocTypes() []DocType {
	return []DocType{DocTypeReceipt, DocTypeShipment, DocTypeAdjustment, DocTypeCount}
}
