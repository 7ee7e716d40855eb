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
	"stockward/internal/core/types"
	"stockward/internal/domain/posting"
)

func TestDocument_Validate(t *testing.T) {
	ctx := context.Background()
	wh := id.New()

	t.Run("valid receipt", func(t *testing.T) {
		doc := NewDocument(posting.DocTypeReceipt, wh)
		doc.AddLine("PAP-A4", 5, "")
		assert.NoError(t, doc.Validate(ctx))
	})

	t.Run("empty draft is valid", func(t *testing.T) {
		doc := NewDocument(posting.DocTypeReceipt, wh)
		assert.NoError(t, doc.Validate(ctx))
	})

	t.Run("unknown type", func(t *testing.T) {
		doc := NewDocument(posting.DocType("transfer"), wh)
		err := doc.Validate(ctx)
		require.Error(t, err)
		assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
	})

	t.Run("missing warehouse", func(t *testing.T) {
		doc := NewDocument(posting.DocTypeReceipt, id.Nil())
		err := doc.Validate(ctx)
		require.Error(t, err)
		assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
	})

	t.Run("blank sku", func(t *testing.T) {
		doc := NewDocument(posting.DocTypeReceipt, wh)
		doc.AddLine("  ", 5, "")
		err := doc.Validate(ctx)
		require.Error(t, err)
		assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
	})
}

func TestDocument_Validate_QuantitySigns(t *testing.T) {
	ctx := context.Background()
	wh := id.New()

	tests := []struct {
		name     string
		docType  posting.DocType
		quantity int64
		wantErr  bool
	}{
		{"receipt positive", posting.DocTypeReceipt, 5, false},
		{"receipt zero", posting.DocTypeReceipt, 0, true},
		{"receipt negative", posting.DocTypeReceipt, -5, true},
		{"shipment positive", posting.DocTypeShipment, 3, false},
		{"shipment zero", posting.DocTypeShipment, 0, true},
		{"adjustment positive", posting.DocTypeAdjustment, 7, false},
		{"adjustment negative", posting.DocTypeAdjustment, -7, false},
		{"adjustment zero", posting.DocTypeAdjustment, 0, true},
		{"count positive", posting.DocTypeCount, 42, false},
		{"count zero", posting.DocTypeCount, 0, false},
		{"count negative", posting.DocTypeCount, -1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := NewDocument(tt.docType, wh)
			doc.AddLine("SKU-1", types.Quantity(tt.quantity), "")

			err := doc.Validate(ctx)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDocument_AddLine(t *testing.T) {
	doc := NewDocument(posting.DocTypeReceipt, id.New())
	doc.AddLine("A", 1, "")
	doc.AddLine("B", 2, "note")

	require.Len(t, doc.Lines, 2)
	assert.Equal(t, 1, doc.Lines[0].LineNo)
	assert.Equal(t, 2, doc.Lines[1].LineNo)
	assert.False(t, id.IsNil(doc.Lines[0].LineID))
	assert.Equal(t, "note", doc.Lines[1].Note)
}

func TestDocument_PostingLines(t *testing.T) {
	doc := NewDocument(posting.DocTypeShipment, id.New())
	doc.AddLine("A", 4, "pick from bay 3")

	lines := doc.PostingLines()
	require.Len(t, lines, 1)
	assert.Equal(t, "A", lines[0].SKU)
	assert.Equal(t, types.Quantity(4), lines[0].Quantity)
	assert.Equal(t, "pick from bay 3", lines[0].Note)
}

func TestDocument_Lifecycle(t *testing.T) {
	doc := NewDocument(posting.DocTypeReceipt, id.New())

	assert.Equal(t, entity.StatusDraft, doc.Status)
	assert.False(t, doc.IsPosted())
	assert.NoError(t, doc.CanModify())

	postedAt := time.Now().UTC()
	doc.MarkPosted(postedAt)

	assert.True(t, doc.IsPosted())
	require.NotNil(t, doc.PostedAt)
	assert.Equal(t, postedAt, *doc.PostedAt)

	err := doc.CanModify()
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeDocumentPosted))
}

func TestNumberPrefix(t *testing.T) {
	assert.Equal(t, "RCT", NumberPrefix(posting.DocTypeReceipt))
	assert.Equal(t, "SHP", NumberPrefix(posting.DocTypeShipment))
	assert.Equal(t, "ADJ", NumberPrefix(posting.DocTypeAdjustment))
	assert.Equal(t, "CNT", NumberPrefix(posting.DocTypeCount))
}
