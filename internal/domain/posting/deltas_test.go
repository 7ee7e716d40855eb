package posting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockward/internal/core/apperror"
	"stockward/internal/core/id"
	"stockward/internal/core/types"
)

func TestComputeDelta(t *testing.T) {
	wh := id.New()

	tests := []struct {
		name        string
		docType     DocType
		quantity    int64
		current     int64
		wantDelta   int64
		wantBalance int64
		wantErrCode string
	}{
		{name: "receipt adds", docType: DocTypeReceipt, quantity: 5, current: 10, wantDelta: 5, wantBalance: 15},
		{name: "receipt onto empty", docType: DocTypeReceipt, quantity: 5, current: 0, wantDelta: 5, wantBalance: 5},
		{name: "receipt negative rejected", docType: DocTypeReceipt, quantity: -1, current: 0, wantErrCode: apperror.CodeValidation},

		{name: "shipment subtracts", docType: DocTypeShipment, quantity: 3, current: 5, wantDelta: -3, wantBalance: 2},
		{name: "shipment to exactly zero", docType: DocTypeShipment, quantity: 5, current: 5, wantDelta: -5, wantBalance: 0},
		{name: "shipment exceeding stock", docType: DocTypeShipment, quantity: 6, current: 5, wantErrCode: apperror.CodeInsufficientStock},
		{name: "shipment from empty", docType: DocTypeShipment, quantity: 1, current: 0, wantErrCode: apperror.CodeInsufficientStock},
		{name: "shipment negative rejected", docType: DocTypeShipment, quantity: -1, current: 5, wantErrCode: apperror.CodeValidation},

		{name: "adjustment positive", docType: DocTypeAdjustment, quantity: 7, current: 10, wantDelta: 7, wantBalance: 17},
		{name: "adjustment negative", docType: DocTypeAdjustment, quantity: -7, current: 10, wantDelta: -7, wantBalance: 3},
		{name: "adjustment below zero allowed", docType: DocTypeAdjustment, quantity: -15, current: 10, wantDelta: -15, wantBalance: -5},

		{name: "count down", docType: DocTypeCount, quantity: 42, current: 50, wantDelta: -8, wantBalance: 42},
		{name: "count up", docType: DocTypeCount, quantity: 50, current: 42, wantDelta: 8, wantBalance: 50},
		{name: "count no change", docType: DocTypeCount, quantity: 42, current: 42, wantDelta: 0, wantBalance: 42},
		{name: "count to zero", docType: DocTypeCount, quantity: 0, current: 9, wantDelta: -9, wantBalance: 0},
		{name: "count negative rejected", docType: DocTypeCount, quantity: -1, current: 5, wantErrCode: apperror.CodeValidation},

		{name: "unknown type", docType: DocType("transfer"), quantity: 1, current: 0, wantErrCode: apperror.CodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			delta, newBalance, err := ComputeDelta(tt.docType, "SKU-1", wh, types.Quantity(tt.quantity), types.Quantity(tt.current))

			if tt.wantErrCode != "" {
				require.Error(t, err)
				assert.True(t, apperror.IsCode(err, tt.wantErrCode), "got %v", err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, types.Quantity(tt.wantDelta), delta)
			assert.Equal(t, types.Quantity(tt.wantBalance), newBalance)

			// newBalance = current + delta holds for every type.
			assert.Equal(t, newBalance, types.Quantity(tt.current).Add(delta))
		})
	}
}

func TestDocType_Valid(t *testing.T) {
	for _, dt := range AllDocTypes() {
		assert.True(t, dt.Valid(), dt)
	}
	assert.False(t, DocType("").Valid())
	assert.False(t, DocType("transfer").Valid())
}
