// Package numerator defines the document numbering contract. The
// PostgreSQL implementation lives under infrastructure/numerator; the
// domain only sees this interface.
package numerator

import (
	"context"
	"time"
)

// Generator hands out formatted document numbers, e.g. RCT-2026-00001.
// period decides which series the number comes from when the series
// resets yearly or monthly.
type Generator interface {
	GetNextNumber(ctx context.Context, cfg Config, opts *Options, period time.Time) (string, error)

	// SetNextNumber forces the counter, used when taking over numbering
	// from a previous system.
	SetNextNumber(ctx context.Context, cfg Config, period time.Time, value int64) error
}
