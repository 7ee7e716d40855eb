// Package numerator provides domain contracts for document auto-numbering.
package numerator

// Strategy selects how numbers are allocated.
type Strategy int

const (
	// StrategyStrict takes a database roundtrip per number. Sequential
	// with no gaps while the sequence row is intact; the right choice
	// for documents clerks reconcile by number.
	StrategyStrict Strategy = iota

	// StrategyCached allocates ranges of numbers in memory. Much
	// faster, but a restart drops the unused remainder of the range.
	StrategyCached
)

// Options tunes number generation.
type Options struct {
	Strategy Strategy

	// RangeSize is how many numbers a cached allocation claims at once.
	// Default 50.
	RangeSize int64
}

// DefaultOptions returns strict allocation.
func DefaultOptions() *Options {
	return &Options{
		Strategy: StrategyStrict,
	}
}

// Config describes one number series.
type Config struct {
	// Prefix starts every number, e.g. "RCT", "SHP"
	Prefix string

	// IncludeYear puts the period year into the number
	IncludeYear bool

	// PadWidth is the minimum digit count (default 5)
	PadWidth int

	// ResetPeriod is "year", "month" or "never"
	ResetPeriod string
}

// DefaultConfig returns a yearly-reset series: PREFIX-YEAR-NNNNN.
func DefaultConfig(prefix string) Config {
	return Config{
		Prefix:      prefix,
		IncludeYear: true,
		PadWidth:    5,
		ResetPeriod: "year",
	}
}
