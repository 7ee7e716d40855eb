package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuantity_Arithmetic(t *testing.T) {
	assert.Equal(t, Quantity(15), Quantity(5).Add(10))
	assert.Equal(t, Quantity(2), Quantity(5).Sub(3))
	assert.Equal(t, Quantity(-5), Quantity(5).Neg())
	assert.Equal(t, Quantity(5), Quantity(-5).Abs())
	assert.Equal(t, Quantity(5), Quantity(5).Abs())
	assert.Equal(t, int64(-3), Quantity(-3).Int64())
}

func TestQuantity_Predicates(t *testing.T) {
	assert.True(t, Quantity(0).IsZero())
	assert.True(t, Quantity(1).IsPositive())
	assert.True(t, Quantity(-1).IsNegative())

	assert.False(t, Quantity(1).IsZero())
	assert.False(t, Quantity(0).IsPositive())
	assert.False(t, Quantity(0).IsNegative())
}

func TestQuantity_JSON(t *testing.T) {
	data, err := json.Marshal(Quantity(-8))
	require.NoError(t, err)
	assert.Equal(t, "-8", string(data))

	var q Quantity
	require.NoError(t, json.Unmarshal([]byte("42"), &q))
	assert.Equal(t, Quantity(42), q)

	// Quoted integers are accepted too (lenient clients).
	require.NoError(t, json.Unmarshal([]byte(`"-7"`), &q))
	assert.Equal(t, Quantity(-7), q)

	require.NoError(t, json.Unmarshal([]byte("null"), &q))
	assert.Equal(t, Quantity(0), q)

	assert.Error(t, json.Unmarshal([]byte(`"4.5"`), &q))
}

func TestMoney_FromString(t *testing.T) {
	m, err := NewMoneyFromString("12.50")
	require.NoError(t, err)
	assert.Equal(t, "12.5", m.String())

	_, err = NewMoneyFromString("not-a-number")
	assert.Error(t, err)

	assert.True(t, ZeroMoney().IsZero())
	assert.Equal(t, "3.40", MustMoney("3.40").StringFixed(2))
}
