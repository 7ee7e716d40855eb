package posting

import (
	"context"
	"sort"
	"time"

	"stockward/internal/core/apperror"
	"stockward/internal/core/entity"
	"stockward/internal/core/id"
	"stockward/internal/core/tx"
	"stockward/internal/core/types"
	"stockward/pkg/logger"
)

// Line is one quantity change request derived from a document line.
type Line struct {
	SKU      string
	Quantity types.Quantity
	Note     string
}

// Postable is the contract a document implements to be posted.
// The document is loaded (and row-locked) inside the posting
// transaction, see LoadFunc.
type Postable interface {
	GetID() id.ID
	GetDocumentType() DocType
	GetWarehouseID() id.ID
	IsPosted() bool

	// CanPost validates document-level invariants (header fields, line
	// structure). Emptiness and stock checks belong to the engine.
	CanPost(ctx context.Context) error

	// PostingLines returns the lines to post, in document order.
	PostingLines() []Line
}

// LoadFunc loads the document with a row lock inside the posting
// transaction, so the draft state the engine sees cannot change
// underneath it.
type LoadFunc func(ctx context.Context) (Postable, error)

// MarkFunc performs the one-time draft->posted transition. It must fail
// with AlreadyPosted when the document is not in draft, which is the
// double-posting guard of last resort under concurrent requests.
type MarkFunc func(ctx context.Context, postedAt time.Time) error

// LedgerStore is the balance/ledger boundary the engine writes through.
// All three methods are called inside the posting transaction.
type LedgerStore interface {
	// GetBalanceForUpdate returns the current balance with an exclusive
	// row lock, creating the zero row first if the pair never moved.
	// The lock is what makes read-compute-write atomic per (sku,
	// warehouse) across concurrent postings.
	GetBalanceForUpdate(ctx context.Context, sku string, warehouseID id.ID) (entity.Balance, error)

	// AppendEntries inserts ledger entries. Insert-only; entries are
	// never updated or deleted.
	AppendEntries(ctx context.Context, entries []entity.LedgerEntry) error

	// UpsertBalance writes the new on-hand value for a pair.
	UpsertBalance(ctx context.Context, sku string, warehouseID id.ID, onHand types.Quantity, ts time.Time) error
}

// ProductResolver resolves SKUs against the product catalog. Missing
// SKUs are absent from the result map.
type ProductResolver interface {
	ResolveSKUs(ctx context.Context, skus []string) (map[string]id.ID, error)
}

// Engine posts documents. One instance is shared by all document
// services.
type Engine struct {
	ledger    LedgerStore
	products  ProductResolver
	txManager tx.Manager

	// maxRetries bounds automatic retries of transient storage
	// conflicts (serialization failures, deadlocks). Business errors
	// are never retried.
	maxRetries int
	retryDelay time.Duration
}

// Option configures the engine.
type Option func(*Engine)

// WithMaxRetries overrides how many times a posting is retried after
// a transient conflict.
func WithMaxRetries(n int) Option {
	return func(e *Engine) { e.maxRetries = n }
}

// WithRetryDelay overrides the pause between retry attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(e *Engine) { e.retryDelay = d }
}

// NewEngine creates a posting engine.
func NewEngine(ledger LedgerStore, products ProductResolver, txManager tx.Manager, opts ...Option) *Engine {
	e := &Engine{
		ledger:     ledger,
		products:   products,
		txManager:  txManager,
		maxRetries: 3,
		retryDelay: 25 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Post runs the full posting operation for one document:
//
//  1. load the document (row-locked) and reject posted/empty ones
//  2. resolve every line SKU against the product catalog
//  3. lock the balance row of every touched SKU in sorted order
//  4. compute all deltas against the locked snapshot
//  5. append ledger entries, upsert balances, flip the status
//
// Everything happens in one transaction: on any error nothing is
// written and the document stays draft. Transient storage conflicts are
// retried a bounded number of times; the whole attempt reruns, so
// validation always sees fresh balances.
func (e *Engine) Post(ctx context.Context, load LoadFunc, markPosted MarkFunc) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = e.postOnce(ctx, load, markPosted)
		if err == nil {
			return nil
		}
		if !isTransient(err) || attempt >= e.maxRetries {
			return err
		}

		logger.Warn(ctx, "posting hit transient conflict, retrying",
			"attempt", attempt+1,
			"max_retries", e.maxRetries,
			"error", err,
		)
		select {
		case <-ctx.Done():
			return apperror.NewStorageFailure("post", ctx.Err())
		case <-time.After(e.retryDelay):
		}
	}
}

func (e *Engine) postOnce(ctx context.Context, load LoadFunc, markPosted MarkFunc) error {
	return e.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		doc, err := load(ctx)
		if err != nil {
			return err
		}

		if doc.IsPosted() {
			return apperror.NewAlreadyPosted(doc.GetID().String())
		}
		if err := doc.CanPost(ctx); err != nil {
			return err
		}

		lines := doc.PostingLines()
		if len(lines) == 0 {
			return apperror.NewEmptyDocument(doc.GetID().String())
		}

		skus := distinctSKUs(lines)

		// Product resolution happens per attempt, never cached: products
		// can change between draft creation and posting.
		resolved, err := e.products.ResolveSKUs(ctx, skus)
		if err != nil {
			return apperror.NewStorageFailure("resolve products", err)
		}
		if missing := missingSKUs(skus, resolved); len(missing) > 0 {
			return apperror.NewUnknownProduct(missing)
		}

		warehouseID := doc.GetWarehouseID()
		now := time.Now().UTC()

		// Lock balances in sorted SKU order so concurrent postings that
		// share SKUs cannot deadlock.
		running := make(map[string]types.Quantity, len(skus))
		for _, sku := range skus {
			bal, err := e.ledger.GetBalanceForUpdate(ctx, sku, warehouseID)
			if err != nil {
				return apperror.NewStorageFailure("lock balance", err)
			}
			running[sku] = bal.OnHand
		}

		// Compute and validate every delta before writing anything, so a
		// failing line aborts the whole document with zero effects.
		// running compounds deltas of earlier lines, which matters when
		// one SKU appears on several lines.
		docType := doc.GetDocumentType()
		entries := make([]entity.LedgerEntry, 0, len(lines))
		for _, ln := range lines {
			delta, newBalance, err := ComputeDelta(docType, ln.SKU, warehouseID, ln.Quantity, running[ln.SKU])
			if err != nil {
				return err
			}
			running[ln.SKU] = newBalance
			entries = append(entries, entity.NewLedgerEntry(ln.SKU, warehouseID, doc.GetID(), docType.String(), delta, now, ln.Note))
		}

		// Commit phase. All entries of one posting share one timestamp
		// so the operation reads as a unit in history.
		if err := e.ledger.AppendEntries(ctx, entries); err != nil {
			return apperror.NewStorageFailure("append ledger", err)
		}
		for _, sku := range skus {
			if err := e.ledger.UpsertBalance(ctx, sku, warehouseID, running[sku], now); err != nil {
				return apperror.NewStorageFailure("upsert balance", err)
			}
		}
		if err := markPosted(ctx, now); err != nil {
			return err
		}

		logger.Info(ctx, "document posted",
			"document_id", doc.GetID(),
			"doc_type", docType,
			"warehouse_id", warehouseID,
			"lines", len(lines),
		)
		return nil
	})
}

// distinctSKUs returns the unique line SKUs, sorted.
func distinctSKUs(lines []Line) []string {
	seen := make(map[string]struct{}, len(lines))
	skus := make([]string, 0, len(lines))
	for _, ln := range lines {
		if _, ok := seen[ln.SKU]; ok {
			continue
		}
		seen[ln.SKU] = struct{}{}
		skus = append(skus, ln.SKU)
	}
	sort.Strings(skus)
	return skus
}

func missingSKUs(skus []string, resolved map[string]id.ID) []string {
	var missing []string
	for _, sku := range skus {
		if _, ok := resolved[sku]; !ok {
			missing = append(missing, sku)
		}
	}
	return missing
}
