package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiff(t *testing.T) {
	t.Run("changed fields", func(t *testing.T) {
		old := map[string]any{"name": "Paper A4", "price": "2.50"}
		now := map[string]any{"name": "Paper A4", "price": "2.75"}

		changes := Diff(old, now)
		assert.Len(t, changes, 1)
		assert.Equal(t, map[string]any{"old": "2.50", "new": "2.75"}, changes["price"])
	})

	t.Run("added and removed fields", func(t *testing.T) {
		old := map[string]any{"address": "Main st 1"}
		now := map[string]any{"code": "WH-01"}

		changes := Diff(old, now)
		assert.Equal(t, map[string]any{"old": nil, "new": "WH-01"}, changes["code"])
		assert.Equal(t, map[string]any{"old": "Main st 1", "new": nil}, changes["address"])
	})

	t.Run("nested values compared deeply", func(t *testing.T) {
		old := map[string]any{"lines": []map[string]any{{"sku": "PAP-A4", "quantity": 5}}}
		now := map[string]any{"lines": []map[string]any{{"sku": "PAP-A4", "quantity": 5}}}

		assert.Empty(t, Diff(old, now))
	})

	t.Run("no changes", func(t *testing.T) {
		state := map[string]any{"name": "x"}
		assert.Empty(t, Diff(state, state))
	})
}
