package dto

import (
	"time"

	"stockward/internal/core/entity"
	"stockward/internal/core/id"
	"stockward/internal/domain/registers/ledger"
)

// --- Response DTOs for the ledger register ---

// BalanceResponse represents one (sku, warehouse) balance.
type BalanceResponse struct {
	SKU         string    `json:"sku"`
	WarehouseID string    `json:"warehouseId"`
	OnHand      int64     `json:"onHand"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// FromBalance converts entity to response DTO.
func FromBalance(b entity.Balance) BalanceResponse {
	return BalanceResponse{
		SKU:         b.SKU,
		WarehouseID: b.WarehouseID.String(),
		OnHand:      b.OnHand.Int64(),
		UpdatedAt:   b.UpdatedAt,
	}
}

// LedgerEntryResponse represents one ledger entry.
type LedgerEntryResponse struct {
	ID          string    `json:"id"`
	SKU         string    `json:"sku"`
	WarehouseID string    `json:"warehouseId"`
	DocID       string    `json:"docId"`
	DocType     string    `json:"docType"`
	Delta       int64     `json:"delta"`
	CreatedAt   time.Time `json:"createdAt"`
	Description string    `json:"description,omitempty"`
}

// FromLedgerEntry converts entity to response DTO.
func FromLedgerEntry(e entity.LedgerEntry) LedgerEntryResponse {
	return LedgerEntryResponse{
		ID:          e.ID.String(),
		SKU:         e.SKU,
		WarehouseID: e.WarehouseID.String(),
		DocID:       e.DocID.String(),
		DocType:     e.DocType,
		Delta:       e.Delta.Int64(),
		CreatedAt:   e.CreatedAt,
		Description: e.Description,
	}
}

// TurnoverResponse represents a turnover report for a period.
type TurnoverResponse struct {
	SKU            string `json:"sku,omitempty"`
	WarehouseID    string `json:"warehouseId,omitempty"`
	OpeningBalance int64  `json:"openingBalance"`
	Receipt        int64  `json:"receipt"`
	Issue          int64  `json:"issue"`
	ClosingBalance int64  `json:"closingBalance"`
}

// FromTurnover converts domain turnover to response DTO.
func FromTurnover(t ledger.Turnover) TurnoverResponse {
	resp := TurnoverResponse{
		SKU:            t.SKU,
		OpeningBalance: t.OpeningBalance.Int64(),
		Receipt:        t.Receipt.Int64(),
		Issue:          t.Issue.Int64(),
		ClosingBalance: t.ClosingBalance.Int64(),
	}
	if !id.IsNil(t.WarehouseID) {
		resp.WarehouseID = t.WarehouseID.String()
	}
	return resp
}

// BalanceListResponse represents a page of balances.
type BalanceListResponse struct {
	Items      []BalanceResponse `json:"items"`
	TotalCount int64             `json:"totalCount"`
}

// LedgerEntryListResponse represents a page of ledger entries.
type LedgerEntryListResponse struct {
	Items      []LedgerEntryResponse `json:"items"`
	TotalCount int64                 `json:"totalCount"`
}

// BalanceCheckResponse reports the consistency check for one pair.
type BalanceCheckResponse struct {
	SKU         string `json:"sku"`
	WarehouseID string `json:"warehouseId"`
	OnHand      int64  `json:"onHand"`
	DeltaSum    int64  `json:"deltaSum"`
	Consistent  bool   `json:"consistent"`
}
