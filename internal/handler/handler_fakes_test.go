package handler_test

import (
	"context"
	"errors"
	"sync"

	"catalog-service/internal/model"
	"catalog-service/internal/store"

	"go.uber.org/zap"
)

var errDown = errors.New("store unreachable")

// memPrimary is a tiny in-memory primary store for handler tests.
type memPrimary struct {
	mu     sync.Mutex
	items  map[uint]model.Product
	nextID uint
	down   bool
}

func newMemPrimary(products ...model.Product) *memPrimary {
	m := &memPrimary{items: map[uint]model.Product{}}
	for _, p := range products {
		m.items[p.ID] = p
		if p.ID > m.nextID {
			m.nextID = p.ID
		}
	}
	return m
}

func (m *memPrimary) List(ctx context.Context) ([]model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return nil, errDown
	}
	out := make([]model.Product, 0, len(m.items))
	for _, p := range m.items {
		out = append(out, p)
	}
	return out, nil
}

func (m *memPrimary) Get(ctx context.Context, id uint) (*model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return nil, errDown
	}
	p, ok := m.items[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (m *memPrimary) Create(ctx context.Context, product *model.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return errDown
	}
	m.nextID++
	product.ID = m.nextID
	m.items[product.ID] = *product
	return nil
}

func (m *memPrimary) Update(ctx context.Context, id uint, patch model.Patch) (*model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return nil, errDown
	}
	p, ok := m.items[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	patch.Apply(&p)
	m.items[id] = p
	return &p, nil
}

func (m *memPrimary) Delete(ctx context.Context, id uint) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return false, errDown
	}
	_, ok := m.items[id]
	delete(m.items, id)
	return ok, nil
}

func (m *memPrimary) Count(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return 0, errDown
	}
	return int64(len(m.items)), nil
}

func (m *memPrimary) Upsert(ctx context.Context, product model.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return errDown
	}
	m.items[product.ID] = product
	return nil
}

func (m *memPrimary) Truncate(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = map[uint]model.Product{}
	return nil
}

func (m *memPrimary) Transaction(ctx context.Context, fn func(tx store.PrimaryStore) error) error {
	if m.down {
		return errDown
	}
	return fn(m)
}

// memSecondary mirrors the remote API for handler tests.
type memSecondary struct {
	mu     sync.Mutex
	items  map[uint]model.Product
	nextID uint
	down   bool
}

func newMemSecondary(products ...model.Product) *memSecondary {
	m := &memSecondary{items: map[uint]model.Product{}, nextID: 100}
	for _, p := range products {
		m.items[p.ID] = p
	}
	return m
}

func (m *memSecondary) List(ctx context.Context) ([]model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return nil, errDown
	}
	out := make([]model.Product, 0, len(m.items))
	for _, p := range m.items {
		out = append(out, p)
	}
	return out, nil
}

func (m *memSecondary) Get(ctx context.Context, id uint) (*model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return nil, errDown
	}
	p, ok := m.items[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (m *memSecondary) Create(ctx context.Context, product model.Product) (*model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return nil, errDown
	}
	m.nextID++
	product.ID = m.nextID
	m.items[product.ID] = product
	return &product, nil
}

func (m *memSecondary) Update(ctx context.Context, id uint, patch model.Patch) (*model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return nil, errDown
	}
	p, ok := m.items[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	patch.Apply(&p)
	m.items[id] = p
	return &p, nil
}

func (m *memSecondary) Delete(ctx context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return errDown
	}
	if _, ok := m.items[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func newTestHybrid(primary store.PrimaryStore, secondary store.SecondaryStore) *store.HybridStore {
	return store.NewHybridStore(primary, secondary, zap.NewNop(), store.HybridOptions{})
}
