package store_test

import (
	"context"
	"errors"
	"sync"

	"catalog-service/internal/model"
	"catalog-service/internal/store"
)

// fakePrimary is an in-memory stand-in for the database store.
type fakePrimary struct {
	mu        sync.Mutex
	items     map[uint]model.Product
	nextID    uint
	err       error          // when set, every operation fails with it
	upsertErr map[uint]error // per-id upsert failures
	upserts   int
	creates   int
}

func newFakePrimary(products ...model.Product) *fakePrimary {
	f := &fakePrimary{items: map[uint]model.Product{}}
	for _, p := range products {
		f.items[p.ID] = p
		if p.ID > f.nextID {
			f.nextID = p.ID
		}
	}
	return f
}

func (f *fakePrimary) List(ctx context.Context) ([]model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]model.Product, 0, len(f.items))
	for _, p := range f.items {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakePrimary) Get(ctx context.Context, id uint) (*model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.items[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (f *fakePrimary) Create(ctx context.Context, product *model.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if f.err != nil {
		return f.err
	}
	f.nextID++
	product.ID = f.nextID
	f.items[product.ID] = *product
	return nil
}

func (f *fakePrimary) Update(ctx context.Context, id uint, patch model.Patch) (*model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.items[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	patch.Apply(&p)
	f.items[id] = p
	return &p, nil
}

func (f *fakePrimary) Delete(ctx context.Context, id uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	_, ok := f.items[id]
	delete(f.items, id)
	return ok, nil
}

func (f *fakePrimary) Count(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	return int64(len(f.items)), nil
}

func (f *fakePrimary) Upsert(ctx context.Context, product model.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if uErr, ok := f.upsertErr[product.ID]; ok {
		return uErr
	}
	f.upserts++
	f.items[product.ID] = product
	if product.ID > f.nextID {
		f.nextID = product.ID
	}
	return nil
}

func (f *fakePrimary) Truncate(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.items = map[uint]model.Product{}
	return nil
}

func (f *fakePrimary) Transaction(ctx context.Context, fn func(tx store.PrimaryStore) error) error {
	if f.err != nil {
		return f.err
	}
	return fn(f)
}

func (f *fakePrimary) snapshot() map[uint]model.Product {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[uint]model.Product, len(f.items))
	for id, p := range f.items {
		out[id] = p
	}
	return out
}

// txFakePrimary layers postgres transaction semantics over fakePrimary: a
// failed statement aborts the transaction and every later statement in it
// fails, a nested transaction acts as a savepoint whose rollback clears the
// abort, and committing an aborted transaction rolls back instead.
type txFakePrimary struct {
	fakePrimary
	depth   int
	aborted bool
}

var (
	errTxAborted       = errors.New("current transaction is aborted, commands ignored until end of transaction block (SQLSTATE 25P02)")
	errCommitRollback = errors.New("commit unexpectedly resulted in rollback")
)

func (f *txFakePrimary) stmt(err error) error {
	if f.depth == 0 {
		return err
	}
	if f.aborted {
		return errTxAborted
	}
	if err != nil {
		f.aborted = true
	}
	return err
}

func (f *txFakePrimary) Upsert(ctx context.Context, product model.Product) error {
	return f.stmt(f.fakePrimary.Upsert(ctx, product))
}

func (f *txFakePrimary) Truncate(ctx context.Context) error {
	return f.stmt(f.fakePrimary.Truncate(ctx))
}

func (f *txFakePrimary) Transaction(ctx context.Context, fn func(tx store.PrimaryStore) error) error {
	if f.depth > 0 {
		// Savepoint. Issuing it in an aborted transaction fails like any
		// other statement; rolling back to it un-aborts the transaction.
		if f.aborted {
			return errTxAborted
		}
		saved := f.snapshot()
		if err := fn(f); err != nil {
			f.restore(saved)
			f.aborted = false
			return err
		}
		return nil
	}

	f.depth++
	saved := f.snapshot()
	err := fn(f)
	f.depth--
	if err == nil && f.aborted {
		err = errCommitRollback
	}
	if err != nil {
		f.restore(saved)
	}
	f.aborted = false
	return err
}

func (f *txFakePrimary) restore(items map[uint]model.Product) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = items
}

// fakeSecondary is an in-memory stand-in for the remote product API. It
// counts mirror traffic so tests can assert on best-effort writes.
type fakeSecondary struct {
	mu          sync.Mutex
	items       map[uint]model.Product
	nextID      uint
	err         error
	createCalls int
	updateCalls int
	deleteCalls int
}

func newFakeSecondary(products ...model.Product) *fakeSecondary {
	f := &fakeSecondary{items: map[uint]model.Product{}, nextID: 100}
	for _, p := range products {
		f.items[p.ID] = p
	}
	return f
}

func (f *fakeSecondary) List(ctx context.Context) ([]model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]model.Product, 0, len(f.items))
	for _, p := range f.items {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeSecondary) Get(ctx context.Context, id uint) (*model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.items[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (f *fakeSecondary) Create(ctx context.Context, product model.Product) (*model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.err != nil {
		return nil, f.err
	}
	f.nextID++
	product.ID = f.nextID
	f.items[product.ID] = product
	return &product, nil
}

func (f *fakeSecondary) Update(ctx context.Context, id uint, patch model.Patch) (*model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls++
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.items[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	patch.Apply(&p)
	f.items[id] = p
	return &p, nil
}

func (f *fakeSecondary) Delete(ctx context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls++
	if f.err != nil {
		return f.err
	}
	if _, ok := f.items[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.items, id)
	return nil
}
