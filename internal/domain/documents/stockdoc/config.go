package stockdoc

import (
	"stockward/internal/core/numerator"
	"stockward/internal/domain/posting"
)

const (
	// NumeratorStrategy defines the numbering strategy for stock
	// documents. They are primary accounting documents, so numbers are
	// strictly sequential without gaps.
	NumeratorStrategy = numerator.StrategyStrict
)

// numberPrefixes maps each document type to its number prefix,
// e.g. RCT-2026-00042.
var numberPrefixes = map[posting.DocType]string{
	posting.DocTypeReceipt:    "RCT",
	posting.DocTypeShipment:   "SHP",
	posting.DocTypeAdjustment: "ADJ",
	posting.DocTypeCount:      "CNT",
}

// NumberPrefix returns the document-number prefix for a type.
func NumberPrefix(docType posting.DocType) string {
	if p, ok := numberPrefixes[docType]; ok {
		return p
	}
	return "DOC"
}
