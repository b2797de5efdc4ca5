package dynamo

import (
	"math/rand/v2"
	"time"

	"github.com/okian/holotrumps/pkg/logger"
)

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithConsistentRead makes Get and Scan strongly consistent.
func WithConsistentRead(on bool) Option {
	return func(s *Store) {
		s.consistentRead = on
	}
}

// WithSeed makes sampling deterministic.
func WithSeed(seed uint64) Option {
	return func(s *Store) {
		s.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) //nolint:gosec // not security sensitive
	}
}

// WithTableWait bounds how long EnsureTables waits for a new table.
func WithTableWait(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.tableWait = d
		}
	}
}

// WithLogger sets a custom logger for the store.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}
