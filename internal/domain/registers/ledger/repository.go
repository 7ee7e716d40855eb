// Package ledger provides the stock ledger register: the append-only
// history of quantity changes and the materialized per-(sku, warehouse)
// balances derived from it.
package ledger

import (
	"context"
	"time"

	"stockward/internal/core/entity"
	"stockward/internal/core/id"
	"stockward/internal/core/types"
)

// Repository defines operations for the ledger register.
type Repository interface {
	// Ledger operations

	// AppendEntries batch inserts ledger entries (used during posting).
	// Insert-only: entries are never updated or deleted.
	AppendEntries(ctx context.Context, entries []entity.LedgerEntry) error

	// GetEntriesByDocument retrieves all entries created by one posting.
	GetEntriesByDocument(ctx context.Context, docID id.ID) ([]entity.LedgerEntry, error)

	// GetHistory returns the entry history for a (sku, warehouse) pair,
	// newest first.
	GetHistory(ctx context.Context, sku string, warehouseID id.ID, filter HistoryFilter) ([]entity.LedgerEntry, error)

	// ListEntries retrieves entries across pairs with filtering and a
	// total count for pagination.
	ListEntries(ctx context.Context, filter EntryFilter) ([]entity.LedgerEntry, int64, error)

	// SumDeltas returns the sum of all deltas for a pair. Always equals
	// the pair's current balance; exposed for consistency checks.
	SumDeltas(ctx context.Context, sku string, warehouseID id.ID) (types.Quantity, error)

	// Balance operations

	// GetBalance returns current balance for a pair. A pair that never
	// moved yields a zero balance, not an error.
	GetBalance(ctx context.Context, sku string, warehouseID id.ID) (entity.Balance, error)

	// GetBalanceForUpdate returns the balance with an exclusive row
	// lock, creating the zero row first when absent. Must be called
	// inside a transaction.
	GetBalanceForUpdate(ctx context.Context, sku string, warehouseID id.ID) (entity.Balance, error)

	// UpsertBalance writes the new on-hand value for a pair.
	UpsertBalance(ctx context.Context, sku string, warehouseID id.ID, onHand types.Quantity, ts time.Time) error

	// ListBalances returns balances with filtering and a total count.
	ListBalances(ctx context.Context, filter BalanceFilter) ([]entity.Balance, int64, error)

	// Reporting

	// GetTurnover calculates receipt and issue totals for a period.
	GetTurnover(ctx context.Context, filter TurnoverFilter) (Turnover, error)
}

// BalanceFilter for filtering balance queries.
type BalanceFilter struct {
	WarehouseID *id.ID
	SKUs        []string
	ExcludeZero bool
	Limit       int
	Offset      int
}

// HistoryFilter for filtering pair history.
type HistoryFilter struct {
	FromDate *time.Time
	ToDate   *time.Time
	Limit    int
	Offset   int
}

// EntryFilter for filtering ledger entries across pairs.
type EntryFilter struct {
	SKU         string
	WarehouseID *id.ID
	DocID       *id.ID
	DocType     string
	FromDate    *time.Time
	ToDate      *time.Time
	Limit       int
	Offset      int
}

// TurnoverFilter for turnover reports.
type TurnoverFilter struct {
	WarehouseID *id.ID
	SKU         string
	FromDate    time.Time
	ToDate      time.Time
}

// Turnover aggregates signed deltas for a period: positive deltas are
// receipts, negative deltas are issues.
type Turnover struct {
	SKU            string         `json:"sku,omitempty"`
	WarehouseID    id.ID          `json:"warehouseId,omitempty"`
	OpeningBalance types.Quantity `json:"openingBalance"`
	Receipt        types.Quantity `json:"receipt"`
	Issue          types.Quantity `json:"issue"`
	ClosingBalance types.Quantity `json:"closingBalance"`
}
