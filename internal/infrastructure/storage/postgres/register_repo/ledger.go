// Package register_repo provides PostgreSQL implementations for register repositories.
package register_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"stockward/internal/core/entity"
	"stockward/internal/core/id"
	"stockward/internal/core/types"
	"stockward/internal/domain/registers/ledger"
	"stockward/internal/infrastructure/storage/postgres"
)

const (
	ledgerEntriesTable = "reg_ledger_entries"
	balancesTable      = "reg_balances"
)

var ledgerEntryColumns = []string{
	"id", "sku", "warehouse_id", "doc_id", "doc_type",
	"delta", "created_at", "description",
}

// LedgerRepo implements ledger.Repository.
type LedgerRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewLedgerRepo creates a new ledger register repository.
func NewLedgerRepo(txManager *postgres.TxManager) *LedgerRepo {
	return &LedgerRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *LedgerRepo) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

// AppendEntries batch inserts ledger entries. Uses COPY when inside a
// transaction (posting always is), plain multi-row INSERT otherwise.
func (r *LedgerRepo) AppendEntries(ctx context.Context, entries []entity.LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}

	if tx := r.txManager.GetTx(ctx); tx != nil {
		inserter := postgres.NewBatchInserter(r.txManager)
		rows := make([][]any, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, []any{
				e.ID, e.SKU, e.WarehouseID, e.DocID, e.DocType,
				e.Delta, e.CreatedAt, e.Description,
			})
		}
		if _, err := inserter.CopyFromSlice(ctx, ledgerEntriesTable, ledgerEntryColumns, rows); err != nil {
			return fmt.Errorf("copy entries: %w", err)
		}
		return nil
	}

	q := r.builder.Insert(ledgerEntriesTable).Columns(ledgerEntryColumns...)
	for _, e := range entries {
		q = q.Values(
			e.ID, e.SKU, e.WarehouseID, e.DocID, e.DocType,
			e.Delta, e.CreatedAt, e.Description,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert entries: %w", err)
	}

	return nil
}

// GetEntriesByDocument retrieves all entries created by one posting.
func (r *LedgerRepo) GetEntriesByDocument(ctx context.Context, docID id.ID) ([]entity.LedgerEntry, error) {
	q := r.builder.Select(ledgerEntryColumns...).
		From(ledgerEntriesTable).
		Where(squirrel.Eq{"doc_id": docID}).
		OrderBy("sku")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var entries []entity.LedgerEntry
	if err := pgxscan.Select(ctx, r.querier(ctx), &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("select entries: %w", err)
	}

	return entries, nil
}

// GetHistory returns the entry history for a pair, newest first.
func (r *LedgerRepo) GetHistory(ctx context.Context, sku string, warehouseID id.ID, filter ledger.HistoryFilter) ([]entity.LedgerEntry, error) {
	q := r.builder.Select(ledgerEntryColumns...).
		From(ledgerEntriesTable).
		Where(squirrel.Eq{"sku": sku}).
		Where(squirrel.Eq{"warehouse_id": warehouseID})

	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"created_at": *filter.ToDate})
	}

	q = q.OrderBy("created_at DESC", "id DESC")

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var entries []entity.LedgerEntry
	if err := pgxscan.Select(ctx, r.querier(ctx), &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("select history: %w", err)
	}

	return entries, nil
}

// ListEntries retrieves entries across pairs with filtering.
func (r *LedgerRepo) ListEntries(ctx context.Context, filter ledger.EntryFilter) ([]entity.LedgerEntry, int64, error) {
	q := r.builder.Select(ledgerEntryColumns...).
		From(ledgerEntriesTable)

	if filter.SKU != "" {
		q = q.Where(squirrel.Eq{"sku": filter.SKU})
	}
	if filter.WarehouseID != nil {
		q = q.Where(squirrel.Eq{"warehouse_id": *filter.WarehouseID})
	}
	if filter.DocID != nil {
		q = q.Where(squirrel.Eq{"doc_id": *filter.DocID})
	}
	if filter.DocType != "" {
		q = q.Where(squirrel.Eq{"doc_type": filter.DocType})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"created_at": *filter.ToDate})
	}

	countQ := r.builder.Select("COUNT(*)").FromSelect(q, "sub")
	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count: %w", err)
	}

	querier := r.querier(ctx)
	var total int64
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count: %w", err)
	}

	q = q.OrderBy("created_at DESC", "id DESC")

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build query: %w", err)
	}

	var entries []entity.LedgerEntry
	if err := pgxscan.Select(ctx, querier, &entries, sql, args...); err != nil {
		return nil, 0, fmt.Errorf("select entries: %w", err)
	}

	return entries, total, nil
}

// SumDeltas returns the sum of all deltas for a pair.
func (r *LedgerRepo) SumDeltas(ctx context.Context, sku string, warehouseID id.ID) (types.Quantity, error) {
	sql := `
		SELECT COALESCE(SUM(delta), 0)
		FROM reg_ledger_entries
		WHERE sku = $1 AND warehouse_id = $2
	`

	var sum int64
	err := r.querier(ctx).QueryRow(ctx, sql, sku, warehouseID).Scan(&sum)
	if err != nil && err != pgx.ErrNoRows {
		return 0, fmt.Errorf("sum deltas: %w", err)
	}

	return types.Quantity(sum), nil
}

// GetBalance returns current balance for a pair. A pair that never
// moved yields a zero balance.
func (r *LedgerRepo) GetBalance(ctx context.Context, sku string, warehouseID id.ID) (entity.Balance, error) {
	var balance entity.Balance

	q := r.builder.Select("sku", "warehouse_id", "on_hand", "reserved", "updated_at").
		From(balancesTable).
		Where(squirrel.Eq{"sku": sku}).
		Where(squirrel.Eq{"warehouse_id": warehouseID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return balance, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Get(ctx, r.querier(ctx), &balance, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return entity.Balance{SKU: sku, WarehouseID: warehouseID}, nil
		}
		return balance, fmt.Errorf("get balance: %w", err)
	}

	return balance, nil
}

// GetBalanceForUpdate returns the balance with an exclusive row lock.
// The zero row is created first when absent, so there is always a row
// to lock; INSERT ON CONFLICT DO NOTHING keeps the ensure step safe
// under concurrent postings. Must be called inside a transaction.
func (r *LedgerRepo) GetBalanceForUpdate(ctx context.Context, sku string, warehouseID id.ID) (entity.Balance, error) {
	var balance entity.Balance

	querier := r.querier(ctx)

	ensureSQL := `
		INSERT INTO reg_balances (sku, warehouse_id, on_hand, reserved, updated_at)
		VALUES ($1, $2, 0, 0, NOW())
		ON CONFLICT (sku, warehouse_id) DO NOTHING
	`
	if _, err := querier.Exec(ctx, ensureSQL, sku, warehouseID); err != nil {
		return balance, fmt.Errorf("ensure balance row: %w", err)
	}

	lockSQL := `
		SELECT sku, warehouse_id, on_hand, reserved, updated_at
		FROM reg_balances
		WHERE sku = $1 AND warehouse_id = $2
		FOR UPDATE
	`
	if err := pgxscan.Get(ctx, querier, &balance, lockSQL, sku, warehouseID); err != nil {
		return balance, fmt.Errorf("lock balance: %w", err)
	}

	return balance, nil
}

// UpsertBalance writes the new on-hand value for a pair.
func (r *LedgerRepo) UpsertBalance(ctx context.Context, sku string, warehouseID id.ID, onHand types.Quantity, ts time.Time) error {
	sql := `
		INSERT INTO reg_balances (sku, warehouse_id, on_hand, reserved, updated_at)
		VALUES ($1, $2, $3, 0, $4)
		ON CONFLICT (sku, warehouse_id)
		DO UPDATE SET on_hand = $3, updated_at = $4
	`

	if _, err := r.querier(ctx).Exec(ctx, sql, sku, warehouseID, onHand, ts); err != nil {
		return fmt.Errorf("upsert balance: %w", err)
	}

	return nil
}

// ListBalances returns balances with filtering.
func (r *LedgerRepo) ListBalances(ctx context.Context, filter ledger.BalanceFilter) ([]entity.Balance, int64, error) {
	q := r.builder.Select("sku", "warehouse_id", "on_hand", "reserved", "updated_at").
		From(balancesTable)

	if filter.WarehouseID != nil {
		q = q.Where(squirrel.Eq{"warehouse_id": *filter.WarehouseID})
	}
	if len(filter.SKUs) > 0 {
		q = q.Where(squirrel.Eq{"sku": filter.SKUs})
	}
	if filter.ExcludeZero {
		q = q.Where(squirrel.NotEq{"on_hand": int64(0)})
	}

	countQ := r.builder.Select("COUNT(*)").FromSelect(q, "sub")
	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count: %w", err)
	}

	querier := r.querier(ctx)
	var total int64
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count: %w", err)
	}

	q = q.OrderBy("warehouse_id", "sku")

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build query: %w", err)
	}

	var balances []entity.Balance
	if err := pgxscan.Select(ctx, querier, &balances, sql, args...); err != nil {
		return nil, 0, fmt.Errorf("select balances: %w", err)
	}

	return balances, total, nil
}

// GetTurnover calculates receipt and issue totals for a period.
// Positive deltas count as receipts, negative deltas as issues.
func (r *LedgerRepo) GetTurnover(ctx context.Context, filter ledger.TurnoverFilter) (ledger.Turnover, error) {
	var result ledger.Turnover

	args := []any{filter.FromDate, filter.ToDate}
	conditions := "created_at >= $1 AND created_at < $2"
	argIndex := 3

	if filter.WarehouseID != nil {
		conditions += fmt.Sprintf(" AND warehouse_id = $%d", argIndex)
		args = append(args, *filter.WarehouseID)
		result.WarehouseID = *filter.WarehouseID
		argIndex++
	}

	if filter.SKU != "" {
		conditions += fmt.Sprintf(" AND sku = $%d", argIndex)
		args = append(args, filter.SKU)
		result.SKU = filter.SKU
	}

	sql := fmt.Sprintf(`
		SELECT
			COALESCE(SUM(CASE WHEN delta > 0 THEN delta ELSE 0 END), 0) as receipt,
			COALESCE(SUM(CASE WHEN delta < 0 THEN -delta ELSE 0 END), 0) as issue
		FROM reg_ledger_entries
		WHERE %s
	`, conditions)

	querier := r.querier(ctx)
	var receipt, issue int64
	err := querier.QueryRow(ctx, sql, args...).Scan(&receipt, &issue)
	if err != nil && err != pgx.ErrNoRows {
		return result, fmt.Errorf("calculate turnover: %w", err)
	}
	result.Receipt = types.Quantity(receipt)
	result.Issue = types.Quantity(issue)

	openingArgs := []any{filter.FromDate}
	openingConditions := "created_at < $1"
	argIndex = 2

	if filter.WarehouseID != nil {
		openingConditions += fmt.Sprintf(" AND warehouse_id = $%d", argIndex)
		openingArgs = append(openingArgs, *filter.WarehouseID)
		argIndex++
	}

	if filter.SKU != "" {
		openingConditions += fmt.Sprintf(" AND sku = $%d", argIndex)
		openingArgs = append(openingArgs, filter.SKU)
	}

	openingSQL := fmt.Sprintf(`
		SELECT COALESCE(SUM(delta), 0)
		FROM reg_ledger_entries
		WHERE %s
	`, openingConditions)

	var opening int64
	err = querier.QueryRow(ctx, openingSQL, openingArgs...).Scan(&opening)
	if err != nil && err != pgx.ErrNoRows {
		return result, fmt.Errorf("calculate opening balance: %w", err)
	}
	result.OpeningBalance = types.Quantity(opening)

	result.ClosingBalance = result.OpeningBalance.Add(result.Receipt).Sub(result.Issue)

	return result, nil
}

// Ensure interface compliance.
var _ ledger.Repository = (*LedgerRepo)(nil)
