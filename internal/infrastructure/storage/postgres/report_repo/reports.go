// Package report_repo provides PostgreSQL implementations for report repositories.
package report_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockward/internal/domain/reports"
	"stockward/internal/infrastructure/storage/postgres"
)

// ReportRepo implements reports.Repository.
type ReportRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewReportRepo creates a new report repository.
func NewReportRepo(txManager *postgres.TxManager) *ReportRepo {
	return &ReportRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *ReportRepo) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

// GetDashboardSummary collects the landing-page counters in one query.
func (r *ReportRepo) GetDashboardSummary(ctx context.Context) (*reports.DashboardSummary, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM cat_products WHERE deletion_mark = false) as product_count,
			(SELECT COUNT(*) FROM cat_warehouses WHERE deletion_mark = false) as warehouse_count,
			(SELECT COUNT(*) FROM doc_stock_documents WHERE deletion_mark = false AND status = 'draft') as draft_documents,
			(SELECT COUNT(*) FROM doc_stock_documents WHERE deletion_mark = false AND status = 'posted') as posted_documents,
			(SELECT COUNT(*) FROM doc_stock_documents WHERE status = 'posted' AND posted_at >= date_trunc('day', NOW() AT TIME ZONE 'UTC')) as posted_today,
			(SELECT COUNT(DISTINCT sku) FROM reg_balances WHERE on_hand > 0) as skus_in_stock
	`

	var summary reports.DashboardSummary
	err := r.querier(ctx).QueryRow(ctx, query).Scan(
		&summary.ProductCount,
		&summary.WarehouseCount,
		&summary.DraftDocuments,
		&summary.PostedDocuments,
		&summary.PostedToday,
		&summary.SKUsInStock,
	)
	if err != nil {
		return nil, fmt.Errorf("dashboard summary: %w", err)
	}

	return &summary, nil
}

// GetLowStock lists balances at or below the product's min-stock
// threshold. Products with a zero threshold never alert.
func (r *ReportRepo) GetLowStock(ctx context.Context, filter reports.LowStockFilter) (*reports.LowStockReport, error) {
	query := `
		SELECT
			b.sku,
			p.name as product_name,
			b.warehouse_id,
			w.name as warehouse_name,
			b.on_hand,
			p.min_stock
		FROM reg_balances b
		JOIN cat_products p ON p.sku = b.sku AND p.deletion_mark = false
		JOIN cat_warehouses w ON w.id = b.warehouse_id AND w.deletion_mark = false
		WHERE p.min_stock > 0 AND b.on_hand <= p.min_stock
	`
	args := []any{}
	argIndex := 1

	if filter.WarehouseID != nil {
		query += fmt.Sprintf(" AND b.warehouse_id = $%d", argIndex)
		args = append(args, *filter.WarehouseID)
		argIndex++
	}

	query += " ORDER BY w.name, b.sku"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	var items []reports.LowStockItem
	if err := pgxscan.Select(ctx, r.querier(ctx), &items, query, args...); err != nil {
		return nil, fmt.Errorf("low stock report: %w", err)
	}

	return &reports.LowStockReport{
		Items:      items,
		TotalItems: len(items),
	}, nil
}

// GetRecentActivity returns the latest ledger entries joined with
// catalog and document context.
func (r *ReportRepo) GetRecentActivity(ctx context.Context, limit int) ([]reports.ActivityItem, error) {
	query := `
		SELECT
			e.id as entry_id,
			e.sku,
			COALESCE(p.name, '') as product_name,
			e.warehouse_id,
			COALESCE(w.name, '') as warehouse_name,
			e.doc_id,
			e.doc_type,
			COALESCE(d.number, '') as doc_number,
			e.delta,
			e.created_at
		FROM reg_ledger_entries e
		LEFT JOIN cat_products p ON p.sku = e.sku
		LEFT JOIN cat_warehouses w ON w.id = e.warehouse_id
		LEFT JOIN doc_stock_documents d ON d.id = e.doc_id
		ORDER BY e.created_at DESC, e.id DESC
		LIMIT $1
	`

	var items []reports.ActivityItem
	if err := pgxscan.Select(ctx, r.querier(ctx), &items, query, limit); err != nil {
		return nil, fmt.Errorf("recent activity: %w", err)
	}

	return items, nil
}

// Ensure interface compliance
var _ reports.Repository = (*ReportRepo)(nil)
