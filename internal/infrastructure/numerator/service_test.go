package numerator

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	corenumerator "stockward/internal/core/numerator"
)

type mockRow struct {
	val int64
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = m.val
		}
	}
	return nil
}

// mockQuerier simulates the sys_sequences UPSERT: every call advances the
// sequence by the increment passed in args (1 for strict calls).
type mockQuerier struct {
	mu           sync.Mutex
	currentValue int64
	calls        int
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	var increment int64 = 1
	if len(args) == 2 {
		if val, ok := args[1].(int64); ok {
			increment = val
		}
	}

	m.currentValue += increment
	return &mockRow{val: m.currentValue}
}

func TestGetNextNumber_Strict(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := corenumerator.DefaultConfig("RCT")
	period := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

	num, err := svc.GetNextNumber(ctx, cfg, nil, period)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "RCT-2026-00001" {
		t.Errorf("expected RCT-2026-00001, got %s", num)
	}

	num, err = svc.GetNextNumber(ctx, cfg, nil, period)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "RCT-2026-00002" {
		t.Errorf("expected RCT-2026-00002, got %s", num)
	}

	// Strict hits the database on every call.
	if q.calls != 2 {
		t.Errorf("expected 2 DB calls, got %d", q.calls)
	}
}

func TestGetNextNumber_Cached(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := corenumerator.DefaultConfig("SHP")
	period := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

	opts := &corenumerator.Options{
		Strategy:  corenumerator.StrategyCached,
		RangeSize: 10,
	}

	// First call reserves the range 1..10 in one DB roundtrip.
	for i := 1; i <= 10; i++ {
		num, err := svc.GetNextNumber(ctx, cfg, opts, period)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := fmt.Sprintf("SHP-2026-%05d", i)
		if num != want {
			t.Errorf("expected %s, got %s", want, num)
		}
	}

	if q.calls != 1 {
		t.Errorf("expected 1 DB call for the whole range, got %d", q.calls)
	}

	// The 11th number triggers the next range reservation.
	num, err := svc.GetNextNumber(ctx, cfg, opts, period)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "SHP-2026-00011" {
		t.Errorf("expected SHP-2026-00011, got %s", num)
	}
	if q.calls != 2 {
		t.Errorf("expected 2 DB calls, got %d", q.calls)
	}
}

func TestGetNextNumber_ResetPeriodKeys(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)

	cfg := corenumerator.DefaultConfig("ADJ")

	yearly := svc.buildKey(cfg, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC))
	if yearly != "ADJ_2026" {
		t.Errorf("expected ADJ_2026, got %s", yearly)
	}

	cfg.ResetPeriod = "month"
	monthly := svc.buildKey(cfg, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC))
	if monthly != "ADJ_2026_08" {
		t.Errorf("expected ADJ_2026_08, got %s", monthly)
	}

	cfg.ResetPeriod = "never"
	flat := svc.buildKey(cfg, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC))
	if flat != "ADJ" {
		t.Errorf("expected ADJ, got %s", flat)
	}
}

func TestFormatNumber_WithoutYear(t *testing.T) {
	svc := New(&mockQuerier{})

	cfg := corenumerator.Config{Prefix: "CNT", IncludeYear: false, PadWidth: 3}
	got := svc.formatNumber(cfg, time.Now(), 7)
	if got != "CNT-007" {
		t.Errorf("expected CNT-007, got %s", got)
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		formatted string
		want      int64
	}{
		{"RCT-2026-00042", 42},
		{"CNT-007", 7},
		{"garbage", -1},
	}

	for _, tt := range tests {
		if got := ParseNumber(tt.formatted); got != tt.want {
			t.Errorf("ParseNumber(%q) = %d, want %d", tt.formatted, got, tt.want)
		}
	}
}
