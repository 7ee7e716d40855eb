// Package ledger provides the stock ledger register service.
package ledger

import (
	"context"
	"fmt"

	"stockward/internal/core/entity"
	"stockward/internal/core/id"
	"stockward/internal/core/types"
	"stockward/pkg/logger"
)

// Service provides read operations over the ledger register. Writes go
// through the posting engine only; this service never mutates balances.
type Service struct {
	repo Repository
}

// NewService creates a new ledger register service.
func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
	}
}

// GetBalance returns the current balance for a pair (zero when the pair
// never moved).
func (s *Service) GetBalance(ctx context.Context, sku string, warehouseID id.ID) (entity.Balance, error) {
	return s.repo.GetBalance(ctx, sku, warehouseID)
}

// ListBalances returns balances with filtering.
func (s *Service) ListBalances(ctx context.Context, filter BalanceFilter) ([]entity.Balance, int64, error) {
	return s.repo.ListBalances(ctx, filter)
}

// GetHistory returns the entry history for a pair, newest first.
func (s *Service) GetHistory(ctx context.Context, sku string, warehouseID id.ID, filter HistoryFilter) ([]entity.LedgerEntry, error) {
	return s.repo.GetHistory(ctx, sku, warehouseID, filter)
}

// ListEntries returns ledger entries across pairs.
func (s *Service) ListEntries(ctx context.Context, filter EntryFilter) ([]entity.LedgerEntry, int64, error) {
	return s.repo.ListEntries(ctx, filter)
}

// GetDocumentEntries returns all entries written by one document.
func (s *Service) GetDocumentEntries(ctx context.Context, docID id.ID) ([]entity.LedgerEntry, error) {
	return s.repo.GetEntriesByDocument(ctx, docID)
}

// GetTurnover generates a turnover report for the period.
func (s *Service) GetTurnover(ctx context.Context, filter TurnoverFilter) (Turnover, error) {
	return s.repo.GetTurnover(ctx, filter)
}

// VerifyBalance checks the core consistency invariant for one pair: the
// materialized balance must equal the sum of all ledger deltas. Returns
// the two values and whether they match. Intended for admin tooling and
// smoke checks, not the hot path.
func (s *Service) VerifyBalance(ctx context.Context, sku string, warehouseID id.ID) (onHand, deltaSum types.Quantity, ok bool, err error) {
	bal, err := s.repo.GetBalance(ctx, sku, warehouseID)
	if err != nil {
		return 0, 0, false, fmt.Errorf("get balance: %w", err)
	}

	deltaSum, err = s.repo.SumDeltas(ctx, sku, warehouseID)
	if err != nil {
		return 0, 0, false, fmt.Errorf("sum deltas: %w", err)
	}

	if bal.OnHand != deltaSum {
		logger.Error(ctx, "ledger invariant violated",
			"sku", sku,
			"warehouse_id", warehouseID,
			"on_hand", bal.OnHand,
			"delta_sum", deltaSum,
		)
		return bal.OnHand, deltaSum, false, nil
	}

	return bal.OnHand, deltaSum, true, nil
}
