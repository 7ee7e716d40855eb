// Package numerator allocates document numbers from the sys_sequences
// table. Each numbering series is one row keyed by prefix and reset
// period; a single UPSERT advances the counter atomically, so numbers
// stay collision-free across concurrent posters and server instances.
package numerator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	corenumerator "stockward/internal/core/numerator"
)

// Querier is the slice of pgx the service needs. Both a pool and a
// transaction satisfy it.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	// advanceSQL bumps a series by $2 and returns the new high-water
	// mark. Passing 1 allocates one number; a larger step reserves a
	// whole range for the cached strategy.
	advanceSQL = `
		INSERT INTO sys_sequences (key, current_val)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET current_val = sys_sequences.current_val + $2
		RETURNING current_val`

	// resetSQL overwrites the counter, used when migrating numbering
	// from another system.
	resetSQL = `
		INSERT INTO sys_sequences (key, current_val)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET current_val = $2
		RETURNING current_val`
)

// numberRange is a block of numbers reserved in the database but not
// yet handed out. current < max means numbers remain.
type numberRange struct {
	current int64
	max     int64
}

// Service implements corenumerator.Generator on PostgreSQL.
type Service struct {
	querier Querier

	cacheMu sync.Mutex
	ranges  map[string]*numberRange
}

var _ corenumerator.Generator = (*Service)(nil)

func New(querier Querier) *Service {
	return &Service{
		querier: querier,
		ranges:  make(map[string]*numberRange),
	}
}

// GetNextNumber allocates and formats the next number in the series
// described by cfg, e.g. RCT-2026-00001. A nil opts means the strict
// strategy: one database roundtrip per number, no gaps on restart.
func (s *Service) GetNextNumber(ctx context.Context, cfg corenumerator.Config, opts *corenumerator.Options, period time.Time) (string, error) {
	if s == nil {
		return "", fmt.Errorf("numerator service is not initialized")
	}
	if opts == nil {
		opts = corenumerator.DefaultOptions()
	}

	key := s.buildKey(cfg, period)

	var (
		num int64
		err error
	)
	if opts.Strategy == corenumerator.StrategyCached {
		num, err = s.nextFromRange(ctx, key, opts.RangeSize)
	} else {
		num, err = s.nextStrict(ctx, key)
	}
	if err != nil {
		return "", err
	}

	return s.formatNumber(cfg, period, num), nil
}

func (s *Service) nextStrict(ctx context.Context, key string) (int64, error) {
	var num int64
	if err := s.querier.QueryRow(ctx, advanceSQL, key, int64(1)).Scan(&num); err != nil {
		return 0, fmt.Errorf("strict next: %w", err)
	}
	return num, nil
}

// nextFromRange serves numbers from an in-memory block, reserving a new
// block of size numbers when the current one runs out. Unused numbers
// in a block are lost on restart; the trade is one roundtrip per block
// instead of per number.
func (s *Service) nextFromRange(ctx context.Context, key string, size int64) (int64, error) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	rng, ok := s.ranges[key]
	if !ok {
		rng = &numberRange{}
		s.ranges[key] = rng
	}

	if rng.current >= rng.max {
		if size <= 0 {
			size = 50
		}

		var high int64
		if err := s.querier.QueryRow(ctx, advanceSQL, key, size).Scan(&high); err != nil {
			return 0, fmt.Errorf("reserve range: %w", err)
		}

		// high is the last number of the reserved block.
		rng.current = high - size
		rng.max = high
	}

	rng.current++
	return rng.current, nil
}

// SetNextNumber forces the counter for a series, dropping any reserved
// block so the change takes effect immediately.
func (s *Service) SetNextNumber(ctx context.Context, cfg corenumerator.Config, period time.Time, value int64) error {
	key := s.buildKey(cfg, period)

	var current int64
	err := s.querier.QueryRow(ctx, resetSQL, key, value).Scan(&current)

	s.cacheMu.Lock()
	delete(s.ranges, key)
	s.cacheMu.Unlock()

	return err
}

// buildKey derives the sys_sequences key. Yearly and monthly resets
// fold the period into the key so a new period starts a fresh counter.
func (s *Service) buildKey(cfg corenumerator.Config, period time.Time) string {
	switch cfg.ResetPeriod {
	case "month":
		return cfg.Prefix + "_" + period.Format("2006_01")
	case "year":
		return cfg.Prefix + "_" + period.Format("2006")
	default:
		return cfg.Prefix
	}
}

func (s *Service) formatNumber(cfg corenumerator.Config, period time.Time, num int64) string {
	width := cfg.PadWidth
	if width == 0 {
		width = 5
	}

	if cfg.IncludeYear {
		return fmt.Sprintf("%s-%s-%0*d", cfg.Prefix, period.Format("2006"), width, num)
	}
	return fmt.Sprintf("%s-%0*d", cfg.Prefix, width, num)
}

// ParseNumber pulls the trailing counter out of a formatted number,
// returning -1 when the string does not match any known layout.
func ParseNumber(formatted string) int64 {
	var num int64
	for _, pattern := range []string{"%*[^-]-%*d-%d", "%*[^-]-%d"} {
		if _, err := fmt.Sscanf(formatted, pattern, &num); err == nil {
			return num
		}
	}
	return -1
}
