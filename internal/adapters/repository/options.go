package repository

import (
	"math/rand/v2"
	"time"
)

// Option applies a configuration option to the TreapStore.
type Option func(*TreapStore)

// WithMetricsUpdateInterval sets the interval for background metrics updates.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(s *TreapStore) {
		if interval > 0 {
			s.metricsUpdateInterval = interval
		}
	}
}

// WithSeed makes sampling and node priorities deterministic.
func WithSeed(seed uint64) Option {
	return func(s *TreapStore) {
		s.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) //nolint:gosec // not security sensitive
	}
}

// WithTables pre-creates empty tables so they report in metrics before the
// first write.
func WithTables(names ...string) Option {
	return func(s *TreapStore) {
		for _, n := range names {
			if n != "" {
				s.tables[n] = newTable()
			}
		}
	}
}
