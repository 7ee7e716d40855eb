// Package tx defines the transaction contract domain services depend
// on. The Postgres implementation lives in infrastructure/storage.
package tx

import (
	"context"
)

// Manager runs a function inside a database transaction: commit when fn
// returns nil, rollback otherwise. A nested call joins the transaction
// already in the context.
type Manager interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyManager adds read-only transactions for query paths; writes
// inside fn fail.
type ReadOnlyManager interface {
	Manager

	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}
