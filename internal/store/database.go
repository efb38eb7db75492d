package store

import (
	"context"
	"errors"
	"time"

	"catalog-service/internal/model"

	"gorm.io/gorm"
)

// DatabaseStore is the authoritative product store backed by the relational
// database. The *gorm.DB handle is injected so tests and alternate
// environments can supply their own connection.
type DatabaseStore struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewDatabaseStore wraps an open gorm handle. A non-positive timeout disables
// per-query deadlines.
func NewDatabaseStore(db *gorm.DB, timeout time.Duration) *DatabaseStore {
	return &DatabaseStore{db: db, timeout: timeout}
}

// Migrate creates or updates the products table.
func (s *DatabaseStore) Migrate() error {
	return s.db.AutoMigrate(&model.Product{})
}

func (s *DatabaseStore) queryCtx(parent context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return parent, func() {}
	}
	return context.WithTimeout(parent, s.timeout)
}

func dbErr(op string, err error) error {
	return &StoreError{Store: SourceDatabase, Op: op, Err: err}
}

// List returns every product in the database.
func (s *DatabaseStore) List(ctx context.Context) ([]model.Product, error) {
	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	var products []model.Product
	if result := s.db.WithContext(ctx).Find(&products); result.Error != nil {
		return nil, dbErr("list", result.Error)
	}
	return products, nil
}

// Get fetches a product by id. Returns ErrNotFound when the row is absent.
func (s *DatabaseStore) Get(ctx context.Context, id uint) (*model.Product, error) {
	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	var product model.Product
	result := s.db.WithContext(ctx).First(&product, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, dbErr("get", result.Error)
	}
	return &product, nil
}

// Create inserts a product and lets the database assign its id.
func (s *DatabaseStore) Create(ctx context.Context, product *model.Product) error {
	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	if result := s.db.WithContext(ctx).Create(product); result.Error != nil {
		return dbErr("create", result.Error)
	}
	return nil
}

// Update applies a partial patch: fetch the current row, merge only the
// supplied fields, persist, and re-read the merged row.
func (s *DatabaseStore) Update(ctx context.Context, id uint, patch model.Patch) (*model.Product, error) {
	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	var product model.Product
	result := s.db.WithContext(ctx).First(&product, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, dbErr("update", result.Error)
	}

	patch.Apply(&product)
	if result := s.db.WithContext(ctx).Save(&product); result.Error != nil {
		return nil, dbErr("update", result.Error)
	}

	var updated model.Product
	if result := s.db.WithContext(ctx).First(&updated, id); result.Error != nil {
		return nil, dbErr("update", result.Error)
	}
	return &updated, nil
}

// Delete removes a product. The boolean reports whether a row was actually
// removed; absence of an error alone is not confirmation.
func (s *DatabaseStore) Delete(ctx context.Context, id uint) (bool, error) {
	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	result := s.db.WithContext(ctx).Delete(&model.Product{}, id)
	if result.Error != nil {
		return false, dbErr("delete", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// Count returns the number of products in the database.
func (s *DatabaseStore) Count(ctx context.Context) (int64, error) {
	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	var count int64
	if result := s.db.WithContext(ctx).Model(&model.Product{}).Count(&count); result.Error != nil {
		return 0, dbErr("count", result.Error)
	}
	return count, nil
}

// Upsert inserts the product under its existing id, or overwrites every
// field when a row with that id is already present.
func (s *DatabaseStore) Upsert(ctx context.Context, product model.Product) error {
	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	var count int64
	result := s.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", product.ID).Count(&count)
	if result.Error != nil {
		return dbErr("upsert", result.Error)
	}

	if count == 0 {
		if result := s.db.WithContext(ctx).Create(&product); result.Error != nil {
			return dbErr("upsert", result.Error)
		}
		return nil
	}

	updates := map[string]interface{}{
		"title":        product.Title,
		"price":        product.Price,
		"description":  product.Description,
		"category":     product.Category,
		"image":        product.Image,
		"rating_rate":  product.Rating.Rate,
		"rating_count": product.Rating.Count,
	}
	if result := s.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", product.ID).Updates(updates); result.Error != nil {
		return dbErr("upsert", result.Error)
	}
	return nil
}

// Truncate removes every product.
func (s *DatabaseStore) Truncate(ctx context.Context) error {
	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	if result := s.db.WithContext(ctx).Where("1 = 1").Delete(&model.Product{}); result.Error != nil {
		return dbErr("truncate", result.Error)
	}
	return nil
}

// Transaction runs fn against a transaction-scoped store. A returned error
// rolls every write back. Called on a store that is already
// transaction-scoped, gorm runs fn under a savepoint, so the rollback is
// limited to fn's own writes.
func (s *DatabaseStore) Transaction(ctx context.Context, fn func(tx PrimaryStore) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&DatabaseStore{db: tx, timeout: s.timeout})
	})
	if err != nil {
		return dbErr("transaction", err)
	}
	return nil
}
