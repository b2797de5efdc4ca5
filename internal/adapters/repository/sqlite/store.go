// Package sqlite implements repository.Store on a single SQLite file. Every
// logical table shares one items table keyed by (tbl, id) with a JSON body.
package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"math/rand/v2"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/okian/holotrumps/internal/adapters/repository"
	"github.com/okian/holotrumps/internal/adapters/repository/sqlite/migrations"
	"github.com/okian/holotrumps/pkg/metrics"
)

const backend = "sqlite"

// Store provides SQLite-backed entity persistence.
type Store struct {
	sqlDB *sql.DB

	rngMu sync.Mutex
	rng   *rand.Rand
}

var _ repository.Store = (*Store)(nil)

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithSeed makes sampling deterministic.
func WithSeed(seed uint64) Option {
	return func(s *Store) {
		s.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) //nolint:gosec // not security sensitive
	}
}

// Open opens the SQLite file at path and applies migrations.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) +
		"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_txlock=immediate"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	s := &Store{
		sqlDB: sqlDB,
		rng:   rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())), //nolint:gosec // not security sensitive
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close releases the SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func observe(op string, start time.Time, err *error) {
	metrics.RecordStoreOperation(backend, op, float64(time.Since(start).Milliseconds()))
	if *err != nil {
		metrics.RecordStoreError(backend, op)
	}
}

func encode(item repository.Item) (string, error) {
	data, err := json.Marshal(item)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// decode keeps numbers as json.Number so integers survive unchanged.
func decode(body string) (repository.Item, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(body)))
	dec.UseNumber()
	item := repository.Item{}
	if err := dec.Decode(&item); err != nil {
		return nil, err
	}
	return item, nil
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getBody(ctx context.Context, q querier, table, id string) (string, error) {
	var body string
	err := q.QueryRowContext(ctx, "SELECT body FROM items WHERE tbl = ? AND id = ?", table, id).Scan(&body)
	return body, err
}

// Get implements repository.Store.
func (s *Store) Get(ctx context.Context, table string, key repository.Key) (_ repository.Item, err error) {
	defer observe("get", time.Now(), &err)

	id, err := repository.KeyID(key)
	if err != nil {
		return nil, err
	}
	body, err := getBody(ctx, s.sqlDB, table, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get %s/%s: %w", table, id, repository.ErrNotFound)
	}
	if err != nil {
		return nil, repository.NewStoreError("get", table, err)
	}
	item, err := decode(body)
	if err != nil {
		return nil, repository.NewStoreError("get", table, err)
	}
	return item, nil
}

// Put implements repository.Store.
func (s *Store) Put(ctx context.Context, table string, item repository.Item) (err error) {
	defer observe("put", time.Now(), &err)

	id, err := repository.KeyID(item)
	if err != nil {
		return err
	}
	body, err := encode(item)
	if err != nil {
		return repository.NewStoreError("put", table, err)
	}
	_, err = s.sqlDB.ExecContext(ctx, `
INSERT INTO items (tbl, id, body, updated_at) VALUES (?, ?, ?, ?)
ON CONFLICT (tbl, id) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at
`, table, id, body, time.Now().UTC().UnixMilli())
	if err != nil {
		return repository.NewStoreError("put", table, err)
	}
	return nil
}

// Update implements repository.Store. The read and write share one
// transaction so concurrent updates do not lose attributes.
func (s *Store) Update(ctx context.Context, table string, key repository.Key, set map[string]any, remove []string) (_ repository.Item, err error) {
	defer observe("update", time.Now(), &err)

	id, err := repository.KeyID(key)
	if err != nil {
		return nil, err
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, repository.NewStoreError("update", table, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	body, err := getBody(ctx, tx, table, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("update %s/%s: %w", table, id, repository.ErrNotFound)
	}
	if err != nil {
		return nil, repository.NewStoreError("update", table, err)
	}
	item, err := decode(body)
	if err != nil {
		return nil, repository.NewStoreError("update", table, err)
	}

	next := maps.Clone(item)
	for k, v := range set {
		if k != repository.KeyAttribute {
			next[k] = v
		}
	}
	for _, k := range remove {
		if k != repository.KeyAttribute {
			delete(next, k)
		}
	}

	encoded, err := encode(next)
	if err != nil {
		return nil, repository.NewStoreError("update", table, err)
	}
	if _, err = tx.ExecContext(ctx,
		"UPDATE items SET body = ?, updated_at = ? WHERE tbl = ? AND id = ?",
		encoded, time.Now().UTC().UnixMilli(), table, id,
	); err != nil {
		return nil, repository.NewStoreError("update", table, err)
	}
	if err = tx.Commit(); err != nil {
		return nil, repository.NewStoreError("update", table, err)
	}
	// Re-decode so numbers come back as json.Number like every other read.
	return decode(encoded)
}

// Delete implements repository.Store.
func (s *Store) Delete(ctx context.Context, table string, key repository.Key) (err error) {
	defer observe("delete", time.Now(), &err)

	id, err := repository.KeyID(key)
	if err != nil {
		return err
	}
	if _, err := s.sqlDB.ExecContext(ctx, "DELETE FROM items WHERE tbl = ? AND id = ?", table, id); err != nil {
		return repository.NewStoreError("delete", table, err)
	}
	return nil
}

// Scan implements repository.Store in id order. One extra row is read to
// decide whether LastKey is set.
func (s *Store) Scan(ctx context.Context, table string, in repository.ScanInput) (_ repository.ScanPage, err error) {
	defer observe("scan", time.Now(), &err)

	after := ""
	if in.StartKey != nil {
		after, err = repository.KeyID(in.StartKey)
		if err != nil {
			return repository.ScanPage{}, err
		}
	}
	limit := -1
	if in.Limit > 0 {
		limit = in.Limit + 1
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		"SELECT id, body FROM items WHERE tbl = ? AND id > ? ORDER BY id LIMIT ?",
		table, after, limit,
	)
	if err != nil {
		return repository.ScanPage{}, repository.NewStoreError("scan", table, err)
	}
	defer rows.Close()

	page := repository.ScanPage{Items: []repository.Item{}}
	more := false
	for rows.Next() {
		if in.Limit > 0 && len(page.Items) == in.Limit {
			more = true
			break
		}
		var id, body string
		if err := rows.Scan(&id, &body); err != nil {
			return repository.ScanPage{}, repository.NewStoreError("scan", table, err)
		}
		item, err := decode(body)
		if err != nil {
			return repository.ScanPage{}, repository.NewStoreError("scan", table, err)
		}
		page.Items = append(page.Items, item)
	}
	if err := rows.Err(); err != nil {
		return repository.ScanPage{}, repository.NewStoreError("scan", table, err)
	}

	page.Count = len(page.Items)
	if more {
		last, _ := repository.KeyID(page.Items[len(page.Items)-1])
		page.LastKey = repository.Key{repository.KeyAttribute: last}
	}
	return page, nil
}

// RandomDistinct implements repository.Store. It counts the table and reads
// each sampled rank by offset inside one transaction.
func (s *Store) RandomDistinct(ctx context.Context, table string, n int) (_ []repository.Item, err error) {
	defer observe("random", time.Now(), &err)

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, repository.NewStoreError("random", table, err)
	}
	defer func() { _ = tx.Rollback() }()

	var size int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM items WHERE tbl = ?", table).Scan(&size); err != nil {
		return nil, repository.NewStoreError("random", table, err)
	}
	if size < n {
		return nil, fmt.Errorf("%s holds %d items, need %d: %w", table, size, n, repository.ErrInsufficientItems)
	}
	if n <= 0 {
		return []repository.Item{}, nil
	}

	s.rngMu.Lock()
	ranks := repository.SampleIndexes(s.rng, size, n)
	s.rngMu.Unlock()

	out := make([]repository.Item, 0, n)
	for _, r := range ranks {
		var body string
		if err := tx.QueryRowContext(ctx,
			"SELECT body FROM items WHERE tbl = ? ORDER BY id LIMIT 1 OFFSET ?", table, r,
		).Scan(&body); err != nil {
			return nil, repository.NewStoreError("random", table, err)
		}
		item, err := decode(body)
		if err != nil {
			return nil, repository.NewStoreError("random", table, err)
		}
		out = append(out, item)
	}
	return out, nil
}

// Count returns the number of items in table.
func (s *Store) Count(ctx context.Context, table string) (int, error) {
	var n int
	if err := s.sqlDB.QueryRowContext(ctx, "SELECT COUNT(*) FROM items WHERE tbl = ?", table).Scan(&n); err != nil {
		return 0, repository.NewStoreError("count", table, err)
	}
	return n, nil
}
