// Package repository defines the entity store interface, its errors and an
// in-memory implementation.
package repository

import (
	"context"
	"fmt"
	"math/rand/v2"
)

// Item is a stored record: attribute name to scalar value.
type Item = map[string]any

// Key identifies an item in a table. Tables are keyed by "id".
type Key = map[string]any

// KeyAttribute is the partition key name shared by every table.
const KeyAttribute = "id"

// ScanInput bounds a page of a table scan.
type ScanInput struct {
	// Limit caps the items returned. Zero or less means no cap.
	Limit int
	// StartKey resumes after this key (exclusive). Nil starts from the beginning.
	StartKey Key
}

// ScanPage is one page of a scan.
type ScanPage struct {
	Items []Item
	// LastKey is set when more items may follow.
	LastKey Key
	// Count is the number of items in this page.
	Count int
}

// Store is a key-value table abstraction over one or more named tables.
type Store interface {
	// Get returns the item for key. Returns ErrNotFound when missing.
	Get(ctx context.Context, table string, key Key) (Item, error)

	// Put writes item, replacing any item with the same key.
	Put(ctx context.Context, table string, item Item) error

	// Update assigns set and removes the remove attributes on an existing
	// item and returns the full updated item. Returns ErrNotFound when missing.
	Update(ctx context.Context, table string, key Key, set map[string]any, remove []string) (Item, error)

	// Delete removes the item for key. Deleting a missing key is not an error.
	Delete(ctx context.Context, table string, key Key) error

	// Scan returns one page of the table.
	Scan(ctx context.Context, table string, in ScanInput) (ScanPage, error)

	// RandomDistinct returns n items with distinct keys chosen uniformly at
	// random. Returns ErrInsufficientItems when the table holds fewer than n.
	RandomDistinct(ctx context.Context, table string, n int) ([]Item, error)

	// Close releases resources held by the store.
	Close() error
}

// KeyID extracts the id from key.
func KeyID(key Key) (string, error) {
	id, ok := key[KeyAttribute].(string)
	if !ok || id == "" {
		return "", fmt.Errorf("%w: %v", ErrInvalidKey, key)
	}
	return id, nil
}

// SampleIndexes picks n distinct indexes from [0, size) in random order. It
// runs a partial Fisher-Yates shuffle over a sparse swap map, so it costs
// O(n) regardless of size. The caller must ensure n <= size.
func SampleIndexes(rng *rand.Rand, size, n int) []int {
	if n <= 0 || size <= 0 {
		return nil
	}
	swapped := make(map[int]int, n)
	at := func(i int) int {
		if v, ok := swapped[i]; ok {
			return v
		}
		return i
	}
	out := make([]int, 0, n)
	for i := 0; i < n; i++ {
		j := i + rng.IntN(size-i)
		vi, vj := at(i), at(j)
		swapped[j] = vi
		swapped[i] = vj
		out = append(out, vj)
	}
	return out
}
