package document_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockward/internal/core/apperror"
	"stockward/internal/core/entity"
	"stockward/internal/core/id"
	"stockward/internal/domain"
	"stockward/internal/domain/documents/stockdoc"
	"stockward/internal/infrastructure/storage/postgres"
)

const (
	stockDocumentsTable    = "doc_stock_documents"
	stockDocumentLinesTable = "doc_stock_document_lines"
)

// StockDocumentRepo implements stockdoc.Repository.
type StockDocumentRepo struct {
	*BaseDocumentRepo[*stockdoc.Document]
	batch *postgres.BatchInserter
}

// NewStockDocumentRepo creates a new stock document repository.
func NewStockDocumentRepo(txManager *postgres.TxManager) *StockDocumentRepo {
	return &StockDocumentRepo{
		BaseDocumentRepo: NewBaseDocumentRepo[*stockdoc.Document](
			txManager,
			stockDocumentsTable,
			postgres.ExtractDBColumns[stockdoc.Document](),
			func() *stockdoc.Document { return &stockdoc.Document{} },
		),
		batch: postgres.NewBatchInserter(txManager),
	}
}

var documentLineColumns = []string{"line_id", "document_id", "line_no", "sku", "quantity", "note"}

func (r *StockDocumentRepo) GetLines(ctx context.Context, docID id.ID) ([]stockdoc.Line, error) {
	q := r.Builder().
		Select("line_id", "line_no", "sku", "quantity", "note").
		From(stockDocumentLinesTable).
		Where(squirrel.Eq{"document_id": docID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []stockdoc.Line
	if err := pgxscan.Select(ctx, r.querier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}

	return lines, nil
}

// SaveLines replaces the document's line set. Lines go in via COPY,
// so SaveLines must run inside the caller's transaction.
func (r *StockDocumentRepo) SaveLines(ctx context.Context, docID id.ID, lines []stockdoc.Line) error {
	deleteSQL := "DELETE FROM " + stockDocumentLinesTable + " WHERE document_id = $1"
	if _, err := r.querier(ctx).Exec(ctx, deleteSQL, docID); err != nil {
		return fmt.Errorf("delete existing lines: %w", err)
	}

	if len(lines) == 0 {
		return nil
	}

	rows := make([][]any, len(lines))
	for i, line := range lines {
		rows[i] = []any{line.LineID, docID, line.LineNo, line.SKU, line.Quantity, line.Note}
	}

	if _, err := r.batch.CopyFromSlice(ctx, stockDocumentLinesTable, documentLineColumns, rows); err != nil {
		return fmt.Errorf("insert lines: %w", err)
	}

	return nil
}

func (r *StockDocumentRepo) List(ctx context.Context, filter stockdoc.ListFilter) (domain.ListResult[*stockdoc.Document], error) {
	q := r.baseSelect()

	if !filter.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}
	if filter.Type != nil {
		q = q.Where(squirrel.Eq{"doc_type": *filter.Type})
	}
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}
	if filter.WarehouseID != nil {
		q = q.Where(squirrel.Eq{"warehouse_id": *filter.WarehouseID})
	}
	if filter.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"date": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		q = q.Where(squirrel.LtOrEq{"date": *filter.DateTo})
	}
	if filter.Search != "" {
		q = q.Where(squirrel.ILike{"number": "%" + filter.Search + "%"})
	}

	return r.runList(ctx, q, filter.Limit, filter.Offset, filter.OrderBy)
}

// GetForPosting loads the document with its lines under a row lock.
// Must run inside the posting transaction.
func (r *StockDocumentRepo) GetForPosting(ctx context.Context, docID id.ID) (*stockdoc.Document, error) {
	doc, err := r.GetForUpdate(ctx, docID)
	if err != nil {
		return nil, err
	}

	lines, err := r.GetLines(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	doc.Lines = lines

	return doc, nil
}

// MarkPosted flips the document from draft to posted. The WHERE clause
// on status makes the transition one-time: a concurrent posting that
// lost the race gets AlreadyPosted, never a second set of entries.
func (r *StockDocumentRepo) MarkPosted(ctx context.Context, docID id.ID, postedAt time.Time) error {
	q := r.Builder().
		Update(stockDocumentsTable).
		Set("status", entity.StatusPosted).
		Set("posted_at", postedAt).
		Set("updated_at", squirrel.Expr("NOW()")).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": docID}).
		Where(squirrel.Eq{"status": entity.StatusDraft})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build mark posted: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("mark posted: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewAlreadyPosted(docID.String())
	}

	return nil
}

var _ stockdoc.Repository = (*StockDocumentRepo)(nil)
