package repository

import (
	"errors"
	"fmt"
)

// Sentinel kinds for store errors.
var (
	ErrNotFound          = errors.New("item not found")
	ErrInsufficientItems = errors.New("insufficient items")
	ErrInvalidKey        = errors.New("invalid key")
	ErrClosed            = errors.New("store closed")
)

// StoreError reports a backend failure for an operation on a table.
type StoreError struct {
	Op    string
	Table string
	Err   error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s %s: %v", e.Op, e.Table, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// NewStoreError wraps err as a StoreError unless it is nil or already one.
func NewStoreError(op, table string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Table: table, Err: err}
}
