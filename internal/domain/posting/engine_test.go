package posting

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockward/internal/core/apperror"
	"stockward/internal/core/entity"
	"stockward/internal/core/id"
	"stockward/internal/core/types"
)

// --- fakes ---

// passthroughTx runs the function directly; the engine's transactional
// behavior is exercised against a real database elsewhere.
type passthroughTx struct{}

func (passthroughTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type memLedger struct {
	balances map[string]types.Quantity
	entries  []entity.LedgerEntry

	// appendErrs is consumed one error per AppendEntries call; nil
	// entries mean success.
	appendErrs []error
}

func newMemLedger() *memLedger {
	return &memLedger{balances: make(map[string]types.Quantity)}
}

func (l *memLedger) GetBalanceForUpdate(ctx context.Context, sku string, warehouseID id.ID) (entity.Balance, error) {
	return entity.Balance{
		SKU:         sku,
		WarehouseID: warehouseID,
		OnHand:      l.balances[sku],
	}, nil
}

func (l *memLedger) AppendEntries(ctx context.Context, entries []entity.LedgerEntry) error {
	if len(l.appendErrs) > 0 {
		err := l.appendErrs[0]
		l.appendErrs = l.appendErrs[1:]
		if err != nil {
			return err
		}
	}
	l.entries = append(l.entries, entries...)
	return nil
}

func (l *memLedger) UpsertBalance(ctx context.Context, sku string, warehouseID id.ID, onHand types.Quantity, ts time.Time) error {
	l.balances[sku] = onHand
	return nil
}

// deltaSum recomputes the balance for a SKU from the ledger.
func (l *memLedger) deltaSum(sku string) types.Quantity {
	var sum types.Quantity
	for _, e := range l.entries {
		if e.SKU == sku {
			sum = sum.Add(e.Delta)
		}
	}
	return sum
}

type memResolver struct {
	skus []string
}

func (r memResolver) ResolveSKUs(ctx context.Context, skus []string) (map[string]id.ID, error) {
	known := make(map[string]struct{}, len(r.skus))
	for _, s := range r.skus {
		known[s] = struct{}{}
	}
	resolved := make(map[string]id.ID)
	for _, s := range skus {
		if _, ok := known[s]; ok {
			resolved[s] = id.New()
		}
	}
	return resolved, nil
}

type testDoc struct {
	id          id.ID
	docType     DocType
	warehouseID id.ID
	posted      bool
	lines       []Line
}

func (d *testDoc) GetID() id.ID                      { return d.id }
func (d *testDoc) GetDocumentType() DocType          { return d.docType }
func (d *testDoc) GetWarehouseID() id.ID             { return d.warehouseID }
func (d *testDoc) IsPosted() bool                    { return d.posted }
func (d *testDoc) CanPost(ctx context.Context) error { return nil }
func (d *testDoc) PostingLines() []Line              { return d.lines }

func newTestDoc(docType DocType, lines ...Line) *testDoc {
	return &testDoc{
		id:          id.New(),
		docType:     docType,
		warehouseID: id.New(),
		lines:       lines,
	}
}

type harness struct {
	ledger   *memLedger
	resolver memResolver
	engine   *Engine
}

func newHarness(t *testing.T, knownSKUs ...string) *harness {
	t.Helper()
	ledger := newMemLedger()
	resolver := memResolver{skus: knownSKUs}
	return &harness{
		ledger:   ledger,
		resolver: resolver,
		engine:   NewEngine(ledger, resolver, passthroughTx{}, WithRetryDelay(time.Millisecond)),
	}
}

func (h *harness) post(doc *testDoc) error {
	load := func(ctx context.Context) (Postable, error) { return doc, nil }
	mark := func(ctx context.Context, postedAt time.Time) error {
		if doc.posted {
			return apperror.NewAlreadyPosted(doc.id.String())
		}
		doc.posted = true
		return nil
	}
	return h.engine.Post(context.Background(), load, mark)
}

// --- tests ---

func TestEngine_Post_ReceiptAccumulates(t *testing.T) {
	h := newHarness(t, "PAP-A4")
	wh := id.New()

	first := newTestDoc(DocTypeReceipt, Line{SKU: "PAP-A4", Quantity: 5})
	first.warehouseID = wh
	require.NoError(t, h.post(first))
	assert.True(t, first.posted)
	assert.Equal(t, types.Quantity(5), h.ledger.balances["PAP-A4"])

	second := newTestDoc(DocTypeReceipt, Line{SKU: "PAP-A4", Quantity: 10})
	second.warehouseID = wh
	require.NoError(t, h.post(second))
	assert.Equal(t, types.Quantity(15), h.ledger.balances["PAP-A4"])

	// Balance equals the sum of all recorded deltas.
	assert.Equal(t, h.ledger.balances["PAP-A4"], h.ledger.deltaSum("PAP-A4"))
	require.Len(t, h.ledger.entries, 2)
	assert.Equal(t, types.Quantity(5), h.ledger.entries[0].Delta)
	assert.Equal(t, types.Quantity(10), h.ledger.entries[1].Delta)
}

func TestEngine_Post_ShipmentSubtracts(t *testing.T) {
	h := newHarness(t, "PEN-BLU")
	h.ledger.balances["PEN-BLU"] = 5

	doc := newTestDoc(DocTypeShipment, Line{SKU: "PEN-BLU", Quantity: 3})
	require.NoError(t, h.post(doc))

	assert.Equal(t, types.Quantity(2), h.ledger.balances["PEN-BLU"])
	require.Len(t, h.ledger.entries, 1)
	assert.Equal(t, types.Quantity(-3), h.ledger.entries[0].Delta)
}

func TestEngine_Post_InsufficientStockLeavesDraft(t *testing.T) {
	h := newHarness(t, "PEN-BLU")
	h.ledger.balances["PEN-BLU"] = 5

	doc := newTestDoc(DocTypeShipment, Line{SKU: "PEN-BLU", Quantity: 6})
	err := h.post(doc)

	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientStock))
	assert.False(t, doc.posted)
	assert.Empty(t, h.ledger.entries)
	assert.Equal(t, types.Quantity(5), h.ledger.balances["PEN-BLU"])
}

func TestEngine_Post_AdjustmentSigned(t *testing.T) {
	h := newHarness(t, "STP-001")

	up := newTestDoc(DocTypeAdjustment, Line{SKU: "STP-001", Quantity: 20})
	require.NoError(t, h.post(up))
	assert.Equal(t, types.Quantity(20), h.ledger.balances["STP-001"])

	down := newTestDoc(DocTypeAdjustment, Line{SKU: "STP-001", Quantity: -7})
	require.NoError(t, h.post(down))
	assert.Equal(t, types.Quantity(13), h.ledger.balances["STP-001"])
	assert.Equal(t, h.ledger.balances["STP-001"], h.ledger.deltaSum("STP-001"))
}

func TestEngine_Post_CountReconciles(t *testing.T) {
	h := newHarness(t, "CLP-028")
	h.ledger.balances["CLP-028"] = 50

	doc := newTestDoc(DocTypeCount, Line{SKU: "CLP-028", Quantity: 42})
	require.NoError(t, h.post(doc))

	assert.Equal(t, types.Quantity(42), h.ledger.balances["CLP-028"])
	require.Len(t, h.ledger.entries, 1)
	assert.Equal(t, types.Quantity(-8), h.ledger.entries[0].Delta)
}

func TestEngine_Post_CountToZero(t *testing.T) {
	h := newHarness(t, "CLP-028")
	h.ledger.balances["CLP-028"] = 7

	doc := newTestDoc(DocTypeCount, Line{SKU: "CLP-028", Quantity: 0})
	require.NoError(t, h.post(doc))

	assert.Equal(t, types.Quantity(0), h.ledger.balances["CLP-028"])
	assert.Equal(t, types.Quantity(-7), h.ledger.entries[0].Delta)
}

func TestEngine_Post_AlreadyPosted(t *testing.T) {
	h := newHarness(t, "PAP-A4")

	doc := newTestDoc(DocTypeReceipt, Line{SKU: "PAP-A4", Quantity: 5})
	doc.posted = true

	err := h.post(doc)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeDocumentPosted))
	assert.Empty(t, h.ledger.entries)
}

func TestEngine_Post_SecondPostFails(t *testing.T) {
	h := newHarness(t, "PAP-A4")

	doc := newTestDoc(DocTypeReceipt, Line{SKU: "PAP-A4", Quantity: 5})
	require.NoError(t, h.post(doc))

	err := h.post(doc)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeDocumentPosted))

	// First posting's effects remain untouched.
	assert.Equal(t, types.Quantity(5), h.ledger.balances["PAP-A4"])
	assert.Len(t, h.ledger.entries, 1)
}

func TestEngine_Post_EmptyDocument(t *testing.T) {
	h := newHarness(t, "PAP-A4")

	doc := newTestDoc(DocTypeReceipt)
	err := h.post(doc)

	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeDocumentEmpty))
	assert.False(t, doc.posted)
}

func TestEngine_Post_UnknownSKU(t *testing.T) {
	h := newHarness(t, "PAP-A4")

	doc := newTestDoc(DocTypeReceipt,
		Line{SKU: "PAP-A4", Quantity: 5},
		Line{SKU: "GHOST-1", Quantity: 1},
	)
	err := h.post(doc)

	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeUnknownProduct))
	assert.Empty(t, h.ledger.entries)
	assert.False(t, doc.posted)
}

func TestEngine_Post_RepeatedSKUCompounds(t *testing.T) {
	h := newHarness(t, "PAP-A4")

	doc := newTestDoc(DocTypeReceipt,
		Line{SKU: "PAP-A4", Quantity: 5},
		Line{SKU: "PAP-A4", Quantity: 10},
	)
	require.NoError(t, h.post(doc))

	assert.Equal(t, types.Quantity(15), h.ledger.balances["PAP-A4"])
	require.Len(t, h.ledger.entries, 2)
}

func TestEngine_Post_RepeatedSKUShipmentChecksRunningBalance(t *testing.T) {
	h := newHarness(t, "PEN-BLU")
	h.ledger.balances["PEN-BLU"] = 10

	// 6 + 6 > 10: the second line must see the balance after the first,
	// not the original snapshot.
	doc := newTestDoc(DocTypeShipment,
		Line{SKU: "PEN-BLU", Quantity: 6},
		Line{SKU: "PEN-BLU", Quantity: 6},
	)
	err := h.post(doc)

	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientStock))
	assert.Empty(t, h.ledger.entries)
	assert.Equal(t, types.Quantity(10), h.ledger.balances["PEN-BLU"])
}

func TestEngine_Post_CompetingShipments(t *testing.T) {
	h := newHarness(t, "PEN-BLU")
	h.ledger.balances["PEN-BLU"] = 10

	// Two shipments of 6 against 10 on hand. The balance lock serializes
	// them; whichever posts second sees 4 and fails.
	first := newTestDoc(DocTypeShipment, Line{SKU: "PEN-BLU", Quantity: 6})
	second := newTestDoc(DocTypeShipment, Line{SKU: "PEN-BLU", Quantity: 6})

	require.NoError(t, h.post(first))

	err := h.post(second)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientStock))
	assert.False(t, second.posted)

	assert.Equal(t, types.Quantity(4), h.ledger.balances["PEN-BLU"])
	assert.Len(t, h.ledger.entries, 1)
}

func TestEngine_Post_MultiLineAtomic(t *testing.T) {
	h := newHarness(t, "PAP-A4", "PEN-BLU")
	h.ledger.balances["PAP-A4"] = 100
	h.ledger.balances["PEN-BLU"] = 1

	doc := newTestDoc(DocTypeShipment,
		Line{SKU: "PAP-A4", Quantity: 10},
		Line{SKU: "PEN-BLU", Quantity: 5}, // fails
	)
	err := h.post(doc)

	require.Error(t, err)
	assert.Empty(t, h.ledger.entries)
	assert.Equal(t, types.Quantity(100), h.ledger.balances["PAP-A4"])
	assert.Equal(t, types.Quantity(1), h.ledger.balances["PEN-BLU"])
	assert.False(t, doc.posted)
}

func TestEngine_Post_SharedTimestamp(t *testing.T) {
	h := newHarness(t, "PAP-A4", "PEN-BLU")

	doc := newTestDoc(DocTypeReceipt,
		Line{SKU: "PAP-A4", Quantity: 1},
		Line{SKU: "PEN-BLU", Quantity: 2},
	)
	require.NoError(t, h.post(doc))

	require.Len(t, h.ledger.entries, 2)
	assert.Equal(t, h.ledger.entries[0].CreatedAt, h.ledger.entries[1].CreatedAt)
	assert.Equal(t, doc.id, h.ledger.entries[0].DocID)
	assert.Equal(t, "receipt", h.ledger.entries[0].DocType)
}

func TestEngine_Post_RetriesTransientConflict(t *testing.T) {
	h := newHarness(t, "PAP-A4")
	h.ledger.appendErrs = []error{
		&pgconn.PgError{Code: "40001"}, // serialization failure, retried
		nil,
	}

	doc := newTestDoc(DocTypeReceipt, Line{SKU: "PAP-A4", Quantity: 5})
	require.NoError(t, h.post(doc))

	assert.True(t, doc.posted)
	assert.Equal(t, types.Quantity(5), h.ledger.balances["PAP-A4"])
}

func TestEngine_Post_DoesNotRetryBusinessErrors(t *testing.T) {
	h := newHarness(t, "PEN-BLU")

	attempts := 0
	load := func(ctx context.Context) (Postable, error) {
		attempts++
		return newTestDoc(DocTypeShipment, Line{SKU: "PEN-BLU", Quantity: 1}), nil
	}
	mark := func(ctx context.Context, postedAt time.Time) error { return nil }

	err := h.engine.Post(context.Background(), load, mark)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientStock))
	assert.Equal(t, 1, attempts)
}

func TestEngine_Post_RetryBudgetExhausted(t *testing.T) {
	ledger := newMemLedger()
	conflict := &pgconn.PgError{Code: "40P01"}
	ledger.appendErrs = []error{conflict, conflict, conflict}

	engine := NewEngine(ledger, memResolver{skus: []string{"PAP-A4"}}, passthroughTx{},
		WithMaxRetries(2), WithRetryDelay(time.Millisecond))

	doc := newTestDoc(DocTypeReceipt, Line{SKU: "PAP-A4", Quantity: 5})
	load := func(ctx context.Context) (Postable, error) { return doc, nil }
	mark := func(ctx context.Context, postedAt time.Time) error {
		doc.posted = true
		return nil
	}

	err := engine.Post(context.Background(), load, mark)
	require.Error(t, err)

	var pgErr *pgconn.PgError
	assert.True(t, errors.As(err, &pgErr))
	assert.False(t, doc.posted)
}
