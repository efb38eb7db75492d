package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates a product could not be located in any store.
	ErrNotFound = errors.New("product not found")
)

// ValidationError signals caller-supplied product data that is rejected
// before any store is touched.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid product data: %s %s", e.Field, e.Reason)
}

// StoreError wraps a failure from one of the backing stores so callers can
// tell which side broke without parsing messages.
type StoreError struct {
	Store Source
	Op    string
	Err   error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s store: %s: %v", e.Store, e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// BothStoresError aggregates a primary and secondary failure for operations
// where every available store was exhausted.
type BothStoresError struct {
	Primary   error
	Secondary error
}

func (e *BothStoresError) Error() string {
	return fmt.Sprintf("both stores failed: primary: %v; secondary: %v", e.Primary, e.Secondary)
}
