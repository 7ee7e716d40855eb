package posting

import (
	"stockward/internal/core/apperror"
	"stockward/internal/core/id"
	"stockward/internal/core/types"
)

// ComputeDelta translates one document line into a signed balance delta.
//
// q is the line quantity, current is the on-hand balance for the line's
// (sku, warehouse) at posting time. The returned delta satisfies
// newBalance = current + delta for every document type, so the ledger
// append and balance write are identical in shape; only the formula and
// the optional sufficiency guard differ:
//
//	receipt:    delta = +q
//	shipment:   delta = -q, fails when current < q
//	adjustment: delta = q (signed)
//	count:      delta = q - current (balance becomes exactly q)
//
// current must come from a snapshot locked for the whole posting
// operation; computing against a stale balance corrupts the
// balance-equals-sum-of-deltas invariant.
func ComputeDelta(docType DocType, sku string, warehouseID id.ID, q, current types.Quantity) (delta, newBalance types.Quantity, err error) {
	switch docType {
	case DocTypeReceipt:
		if q.IsNegative() {
			return 0, 0, apperror.NewValidation("receipt quantity cannot be negative").
				WithDetail("sku", sku).
				WithDetail("quantity", q.Int64())
		}
		delta = q

	case DocTypeShipment:
		if q.IsNegative() {
			return 0, 0, apperror.NewValidation("shipment quantity cannot be negative").
				WithDetail("sku", sku).
				WithDetail("quantity", q.Int64())
		}
		if current < q {
			return 0, 0, apperror.NewInsufficientStock(sku, warehouseID.String(), q.Int64(), current.Int64())
		}
		delta = q.Neg()

	case DocTypeAdjustment:
		delta = q

	case DocTypeCount:
		if q.IsNegative() {
			return 0, 0, apperror.NewValidation("counted quantity cannot be negative").
				WithDetail("sku", sku).
				WithDetail("quantity", q.Int64())
		}
		delta = q.Sub(current)

	default:
		return 0, 0, apperror.NewValidation("unknown document type").
			WithDetail("docType", string(docType))
	}

	return delta, current.Add(delta), nil
}
