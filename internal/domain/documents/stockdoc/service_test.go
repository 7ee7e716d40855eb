package stockdoc

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockward/internal/core/apperror"
	"stockward/internal/core/entity"
	"stockward/internal/core/id"
	"stockward/internal/core/numerator"
	"stockward/internal/core/types"
	"stockward/internal/domain"
	"stockward/internal/domain/posting"
)

type noopTx struct{}

func (noopTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeDocRepo struct {
	docs  map[id.ID]*Document
	lines map[id.ID][]Line
}

func newFakeDocRepo() *fakeDocRepo {
	return &fakeDocRepo{
		docs:  make(map[id.ID]*Document),
		lines: make(map[id.ID][]Line),
	}
}

func (r *fakeDocRepo) Create(ctx context.Context, doc *Document) error {
	cp := *doc
	cp.Lines = nil
	r.docs[doc.ID] = &cp
	return nil
}

func (r *fakeDocRepo) GetByID(ctx context.Context, docID id.ID) (*Document, error) {
	doc, ok := r.docs[docID]
	if !ok {
		return nil, apperror.NewNotFound("stock_document", docID.String())
	}
	cp := *doc
	return &cp, nil
}

func (r *fakeDocRepo) GetByNumber(ctx context.Context, number string) (*Document, error) {
	for _, doc := range r.docs {
		if doc.Number == number {
			cp := *doc
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("stock_document", number)
}

func (r *fakeDocRepo) Update(ctx context.Context, doc *Document) error {
	if _, ok := r.docs[doc.ID]; !ok {
		return apperror.NewNotFound("stock_document", doc.ID.String())
	}
	cp := *doc
	cp.Lines = nil
	r.docs[doc.ID] = &cp
	return nil
}

func (r *fakeDocRepo) Delete(ctx context.Context, docID id.ID) error {
	doc, ok := r.docs[docID]
	if !ok {
		return apperror.NewNotFound("stock_document", docID.String())
	}
	doc.DeletionMark = true
	return nil
}

func (r *fakeDocRepo) GetLines(ctx context.Context, docID id.ID) ([]Line, error) {
	return r.lines[docID], nil
}

func (r *fakeDocRepo) SaveLines(ctx context.Context, docID id.ID, lines []Line) error {
	r.lines[docID] = append([]Line(nil), lines...)
	return nil
}

func (r *fakeDocRepo) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Document], error) {
	items := make([]*Document, 0, len(r.docs))
	for _, doc := range r.docs {
		cp := *doc
		items = append(items, &cp)
	}
	return domain.ListResult[*Document]{Items: items, TotalCount: int64(len(items))}, nil
}

func (r *fakeDocRepo) GetForPosting(ctx context.Context, docID id.ID) (*Document, error) {
	doc, err := r.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	doc.Lines = r.lines[docID]
	return doc, nil
}

func (r *fakeDocRepo) MarkPosted(ctx context.Context, docID id.ID, postedAt time.Time) error {
	doc, ok := r.docs[docID]
	if !ok {
		return apperror.NewNotFound("stock_document", docID.String())
	}
	if doc.IsPosted() {
		return apperror.NewAlreadyPosted(docID.String())
	}
	doc.MarkPosted(postedAt)
	return nil
}

type stubLedger struct {
	balances map[string]types.Quantity
	entries  []entity.LedgerEntry
}

func (l *stubLedger) GetBalanceForUpdate(ctx context.Context, sku string, warehouseID id.ID) (entity.Balance, error) {
	return entity.Balance{SKU: sku, WarehouseID: warehouseID, OnHand: l.balances[sku]}, nil
}

func (l *stubLedger) AppendEntries(ctx context.Context, entries []entity.LedgerEntry) error {
	l.entries = append(l.entries, entries...)
	return nil
}

func (l *stubLedger) UpsertBalance(ctx context.Context, sku string, warehouseID id.ID, onHand types.Quantity, ts time.Time) error {
	l.balances[sku] = onHand
	return nil
}

type stubResolver struct {
	skus map[string]id.ID
}

func (r *stubResolver) ResolveSKUs(ctx context.Context, skus []string) (map[string]id.ID, error) {
	out := make(map[string]id.ID, len(skus))
	for _, sku := range skus {
		if pid, ok := r.skus[sku]; ok {
			out[sku] = pid
		}
	}
	return out, nil
}

type serviceFixture struct {
	repo    *fakeDocRepo
	ledger  *stubLedger
	gen     *numerator.MockGenerator
	service *Service
}

func newServiceFixture(knownSKUs ...string) *serviceFixture {
	repo := newFakeDocRepo()
	ledger := &stubLedger{balances: make(map[string]types.Quantity)}
	resolver := &stubResolver{skus: make(map[string]id.ID)}
	for _, sku := range knownSKUs {
		resolver.skus[sku] = id.New()
	}

	gen := &numerator.MockGenerator{}
	engine := posting.NewEngine(ledger, resolver, noopTx{}, posting.WithRetryDelay(time.Millisecond))

	return &serviceFixture{
		repo:    repo,
		ledger:  ledger,
		gen:     gen,
		service: NewService(repo, engine, gen, noopTx{}),
	}
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("assigns generated number", func(t *testing.T) {
		f := newServiceFixture("PAP-A4")
		f.gen.GetNextNumberFunc = func(ctx context.Context, cfg numerator.Config, opts *numerator.Options, period time.Time) (string, error) {
			assert.Equal(t, "RCT", cfg.Prefix)
			return "RCT-2026-00007", nil
		}

		doc := NewDocument(posting.DocTypeReceipt, id.New())
		doc.AddLine("PAP-A4", 5, "")

		require.NoError(t, f.service.Create(ctx, doc))
		assert.Equal(t, "RCT-2026-00007", doc.Number)

		stored, err := f.service.GetByID(ctx, doc.ID)
		require.NoError(t, err)
		assert.Equal(t, "RCT-2026-00007", stored.Number)
		require.Len(t, stored.Lines, 1)
		assert.Equal(t, "PAP-A4", stored.Lines[0].SKU)
	})

	t.Run("keeps explicit number", func(t *testing.T) {
		f := newServiceFixture()
		called := false
		f.gen.GetNextNumberFunc = func(ctx context.Context, cfg numerator.Config, opts *numerator.Options, period time.Time) (string, error) {
			called = true
			return "", nil
		}

		doc := NewDocument(posting.DocTypeReceipt, id.New())
		doc.Number = "RCT-MANUAL-1"

		require.NoError(t, f.service.Create(ctx, doc))
		assert.Equal(t, "RCT-MANUAL-1", doc.Number)
		assert.False(t, called)
	})

	t.Run("invalid document is not stored", func(t *testing.T) {
		f := newServiceFixture()
		doc := NewDocument(posting.DocTypeReceipt, id.Nil())

		err := f.service.Create(ctx, doc)
		require.Error(t, err)
		assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
		assert.Empty(t, f.repo.docs)
	})
}

func TestService_Update_PostedIsImmutable(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture()

	doc := NewDocument(posting.DocTypeAdjustment, id.New())
	doc.Number = "ADJ-1"
	doc.AddLine("PAP-A4", 3, "")
	require.NoError(t, f.service.Create(ctx, doc))

	doc.MarkPosted(time.Now().UTC())
	err := f.service.Update(ctx, doc)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeDocumentPosted))
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("draft is deletable", func(t *testing.T) {
		f := newServiceFixture()
		doc := NewDocument(posting.DocTypeReceipt, id.New())
		doc.Number = "RCT-1"
		require.NoError(t, f.service.Create(ctx, doc))

		require.NoError(t, f.service.Delete(ctx, doc.ID))
		assert.True(t, f.repo.docs[doc.ID].DeletionMark)
	})

	t.Run("posted is not", func(t *testing.T) {
		f := newServiceFixture("PAP-A4")
		doc := NewDocument(posting.DocTypeReceipt, id.New())
		doc.Number = "RCT-2"
		doc.AddLine("PAP-A4", 5, "")
		require.NoError(t, f.service.Create(ctx, doc))
		require.NoError(t, f.service.Post(ctx, doc.ID))

		err := f.service.Delete(ctx, doc.ID)
		require.Error(t, err)
		assert.True(t, apperror.IsCode(err, apperror.CodeDocumentPosted))
	})
}

func TestService_Post(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture("PAP-A4", "PEN-BLU")

	doc := NewDocument(posting.DocTypeReceipt, id.New())
	doc.Number = "RCT-3"
	doc.AddLine("PAP-A4", 10, "")
	doc.AddLine("PEN-BLU", 4, "")
	require.NoError(t, f.service.Create(ctx, doc))

	require.NoError(t, f.service.Post(ctx, doc.ID))

	stored, err := f.service.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsPosted())

	assert.Equal(t, types.Quantity(10), f.ledger.balances["PAP-A4"])
	assert.Equal(t, types.Quantity(4), f.ledger.balances["PEN-BLU"])
	require.Len(t, f.ledger.entries, 2)
	assert.Equal(t, doc.ID, f.ledger.entries[0].DocID)

	// Posting is one-time.
	err = f.service.Post(ctx, doc.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeDocumentPosted))
	assert.Len(t, f.ledger.entries, 2)
}

func TestService_PostAndSave(t *testing.T) {
	ctx := context.Background()

	t.Run("creates then posts", func(t *testing.T) {
		f := newServiceFixture("PAP-A4")
		f.gen.GetNextNumberFunc = func(ctx context.Context, cfg numerator.Config, opts *numerator.Options, period time.Time) (string, error) {
			return "SHP-2026-00001", nil
		}
		f.ledger.balances["PAP-A4"] = 20

		doc := NewDocument(posting.DocTypeShipment, id.New())
		doc.AddLine("PAP-A4", 8, "")

		require.NoError(t, f.service.PostAndSave(ctx, doc))
		assert.Equal(t, types.Quantity(12), f.ledger.balances["PAP-A4"])
		assert.True(t, f.repo.docs[doc.ID].IsPosted())
	})

	t.Run("failed posting leaves the draft saved", func(t *testing.T) {
		f := newServiceFixture("PAP-A4")
		f.gen.GetNextNumberFunc = func(ctx context.Context, cfg numerator.Config, opts *numerator.Options, period time.Time) (string, error) {
			return "SHP-2026-00002", nil
		}
		// Only 3 on hand, shipment asks for 8.
		f.ledger.balances["PAP-A4"] = 3

		doc := NewDocument(posting.DocTypeShipment, id.New())
		doc.AddLine("PAP-A4", 8, "")

		err := f.service.PostAndSave(ctx, doc)
		require.Error(t, err)
		assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientStock))

		stored, getErr := f.service.GetByID(ctx, doc.ID)
		require.NoError(t, getErr)
		assert.False(t, stored.IsPosted())
		assert.Equal(t, types.Quantity(3), f.ledger.balances["PAP-A4"])
	})
}

func TestService_GetByNumber(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture()

	doc := NewDocument(posting.DocTypeCount, id.New())
	doc.Number = "CNT-9"
	doc.AddLine("PAP-A4", 0, "shelf empty")
	require.NoError(t, f.service.Create(ctx, doc))

	found, err := f.service.GetByNumber(ctx, "CNT-9")
	require.NoError(t, err)
	assert.Equal(t, doc.ID, found.ID)
	require.Len(t, found.Lines, 1)

	_, err = f.service.GetByNumber(ctx, "CNT-404")
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeNotFound))
}
