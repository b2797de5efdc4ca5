package repository

import (
	"context"
	"fmt"
	"maps"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/okian/holotrumps/pkg/metrics"
)

// Treap-based, in-memory Store implementation.
//
// Each table is a treap ordered by id ASC with random priorities. Nodes are
// size-augmented so that the k-th id can be selected in O(log n), which
// gives uniform random sampling without materializing the table. In-order
// traversal yields the scan order; the scan key is the last id returned.

const backendMemory = "memory"

// treap node
type node struct {
	id    string
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

func rotateRight(y *node) *node {
	x := y.left
	t2 := x.right
	x.right = y
	y.left = t2
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	t2 := y.left
	y.left = x
	x.right = t2
	fix(x)
	fix(y)
	return y
}

func insert(n *node, id string, prio uint64) *node {
	if n == nil {
		return &node{id: id, prio: prio, size: 1}
	}
	if id < n.id {
		n.left = insert(n.left, id, prio)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, prio)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id string) *node {
	if n == nil {
		return nil
	}
	switch {
	case id == n.id:
		// Merge children by rotating highest priority up until leaf.
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id)
		}
	case id < n.id:
		n.left = deleteNode(n.left, id)
	default:
		n.right = deleteNode(n.right, id)
	}
	fix(n)
	return n
}

// kth returns the id at 0-based in-order position k.
func kth(n *node, k int) string {
	for n != nil {
		ls := nsize(n.left)
		switch {
		case k < ls:
			n = n.left
		case k == ls:
			return n.id
		default:
			k -= ls + 1
			n = n.right
		}
	}
	return ""
}

// countAtMost returns how many ids are <= id.
func countAtMost(n *node, id string) int {
	c := 0
	for n != nil {
		if n.id <= id {
			c += nsize(n.left) + 1
			n = n.right
		} else {
			n = n.left
		}
	}
	return c
}

// collectAfter appends up to limit items with id > after, in id order.
func collectAfter(n *node, after string, limit int, items map[string]Item, out *[]Item) {
	if n == nil || len(*out) >= limit {
		return
	}
	if n.id > after {
		collectAfter(n.left, after, limit, items, out)
		if len(*out) < limit {
			*out = append(*out, maps.Clone(items[n.id]))
		}
	}
	collectAfter(n.right, after, limit, items, out)
}

type table struct {
	root  *node
	items map[string]Item
}

func newTable() *table {
	return &table{items: make(map[string]Item)}
}

// TreapStore keeps every table in memory behind a single RWMutex.
type TreapStore struct {
	mu     sync.RWMutex
	tables map[string]*table
	closed bool

	rngMu sync.Mutex
	rng   *rand.Rand

	metricsUpdateInterval time.Duration

	// Background metrics management
	wg       sync.WaitGroup
	stopChan chan struct{}
}

// NewTreapStore constructs a treap store with configuration options.
func NewTreapStore(ctx context.Context, opts ...Option) *TreapStore {
	s := &TreapStore{
		tables:                make(map[string]*table),
		rng:                   rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())), //nolint:gosec // not security sensitive
		metricsUpdateInterval: 5 * time.Second,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.stopChan = make(chan struct{})
	s.startMetricsUpdater(ctx)

	return s
}

// Close stops the background metrics goroutine. Further operations fail
// with ErrClosed.
func (s *TreapStore) Close() error {
	select {
	case <-s.stopChan:
		// Channel already closed
	default:
		close(s.stopChan)
	}
	s.wg.Wait()

	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// observe records latency and failures for op.
func observe(op string, start time.Time, err *error) {
	metrics.RecordStoreOperation(backendMemory, op, float64(time.Since(start).Milliseconds()))
	if *err != nil {
		metrics.RecordStoreError(backendMemory, op)
	}
}

func (s *TreapStore) check(ctx context.Context, op, tbl string) error {
	if err := ctx.Err(); err != nil {
		return NewStoreError(op, tbl, err)
	}
	if s.closed {
		return NewStoreError(op, tbl, ErrClosed)
	}
	return nil
}

// Get implements Store.Get.
func (s *TreapStore) Get(ctx context.Context, tbl string, key Key) (_ Item, err error) {
	defer observe("get", time.Now(), &err)

	id, err := KeyID(key)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx, "get", tbl); err != nil {
		return nil, err
	}
	t, ok := s.tables[tbl]
	if !ok {
		return nil, fmt.Errorf("get %s/%s: %w", tbl, id, ErrNotFound)
	}
	item, ok := t.items[id]
	if !ok {
		return nil, fmt.Errorf("get %s/%s: %w", tbl, id, ErrNotFound)
	}
	return maps.Clone(item), nil
}

// Put implements Store.Put with O(log n) expected time.
func (s *TreapStore) Put(ctx context.Context, tbl string, item Item) (err error) {
	defer observe("put", time.Now(), &err)

	id, err := KeyID(item)
	if err != nil {
		return err
	}

	s.rngMu.Lock()
	prio := s.rng.Uint64()
	s.rngMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx, "put", tbl); err != nil {
		return err
	}
	t, ok := s.tables[tbl]
	if !ok {
		t = newTable()
		s.tables[tbl] = t
	}
	if _, exists := t.items[id]; !exists {
		t.root = insert(t.root, id, prio)
	}
	t.items[id] = maps.Clone(item)
	return nil
}

// Update implements Store.Update. The key attribute cannot be changed.
func (s *TreapStore) Update(ctx context.Context, tbl string, key Key, set map[string]any, remove []string) (_ Item, err error) {
	defer observe("update", time.Now(), &err)

	id, err := KeyID(key)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx, "update", tbl); err != nil {
		return nil, err
	}
	t, ok := s.tables[tbl]
	if !ok {
		return nil, fmt.Errorf("update %s/%s: %w", tbl, id, ErrNotFound)
	}
	cur, ok := t.items[id]
	if !ok {
		return nil, fmt.Errorf("update %s/%s: %w", tbl, id, ErrNotFound)
	}

	next := maps.Clone(cur)
	for k, v := range set {
		if k == KeyAttribute {
			continue
		}
		next[k] = v
	}
	for _, k := range remove {
		if k == KeyAttribute {
			continue
		}
		delete(next, k)
	}
	t.items[id] = next
	return maps.Clone(next), nil
}

// Delete implements Store.Delete.
func (s *TreapStore) Delete(ctx context.Context, tbl string, key Key) (err error) {
	defer observe("delete", time.Now(), &err)

	id, err := KeyID(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx, "delete", tbl); err != nil {
		return err
	}
	t, ok := s.tables[tbl]
	if !ok {
		return nil
	}
	if _, exists := t.items[id]; !exists {
		return nil
	}
	t.root = deleteNode(t.root, id)
	delete(t.items, id)
	return nil
}

// Scan implements Store.Scan in id order. LastKey is only set when items
// remain after the page.
func (s *TreapStore) Scan(ctx context.Context, tbl string, in ScanInput) (_ ScanPage, err error) {
	defer observe("scan", time.Now(), &err)

	after := ""
	if in.StartKey != nil {
		after, err = KeyID(in.StartKey)
		if err != nil {
			return ScanPage{}, err
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx, "scan", tbl); err != nil {
		return ScanPage{}, err
	}
	t, ok := s.tables[tbl]
	if !ok {
		return ScanPage{Items: []Item{}}, nil
	}

	limit := in.Limit
	if limit <= 0 {
		limit = len(t.items)
	}
	out := make([]Item, 0, min(limit, len(t.items)))
	collectAfter(t.root, after, limit, t.items, &out)

	page := ScanPage{Items: out, Count: len(out)}
	if len(out) > 0 {
		last := out[len(out)-1][KeyAttribute].(string)
		if countAtMost(t.root, last) < nsize(t.root) {
			page.LastKey = Key{KeyAttribute: last}
		}
	}
	return page, nil
}

// RandomDistinct implements Store.RandomDistinct with O(n log size) time.
func (s *TreapStore) RandomDistinct(ctx context.Context, tbl string, n int) (_ []Item, err error) {
	defer observe("random", time.Now(), &err)

	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx, "random", tbl); err != nil {
		return nil, err
	}
	size := 0
	t, ok := s.tables[tbl]
	if ok {
		size = nsize(t.root)
	}
	if size < n {
		return nil, fmt.Errorf("%s holds %d items, need %d: %w", tbl, size, n, ErrInsufficientItems)
	}
	if n <= 0 {
		return []Item{}, nil
	}

	s.rngMu.Lock()
	ranks := SampleIndexes(s.rng, size, n)
	s.rngMu.Unlock()

	out := make([]Item, 0, n)
	for _, r := range ranks {
		out = append(out, maps.Clone(t.items[kth(t.root, r)]))
	}
	return out, nil
}

// Count returns the number of items in tbl.
func (s *TreapStore) Count(tbl string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if t, ok := s.tables[tbl]; ok {
		return len(t.items)
	}
	return 0
}

// startMetricsUpdater starts a background goroutine that updates table gauges.
func (s *TreapStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.updateMetrics()
			}
		}
	}()
}

// updateMetrics publishes the per-table record counts.
func (s *TreapStore) updateMetrics() {
	s.mu.RLock()
	counts := make(map[string]int, len(s.tables))
	for name, t := range s.tables {
		counts[name] = len(t.items)
	}
	s.mu.RUnlock()

	for name, c := range counts {
		metrics.UpdateStoreRecords(backendMemory, name, c)
	}
}
