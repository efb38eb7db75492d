package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"catalog-service/internal/model"
	"catalog-service/prometheus"

	"go.uber.org/zap"
)

// Source identifies which backing store served an operation.
type Source string

const (
	SourceDatabase Source = "database"
	SourceAPI      Source = "api"
)

// PrimaryStore is the authoritative store contract. DatabaseStore implements
// it; tests substitute in-memory fakes.
type PrimaryStore interface {
	List(ctx context.Context) ([]model.Product, error)
	Get(ctx context.Context, id uint) (*model.Product, error)
	Create(ctx context.Context, product *model.Product) error
	Update(ctx context.Context, id uint, patch model.Patch) (*model.Product, error)
	Delete(ctx context.Context, id uint) (bool, error)
	Count(ctx context.Context) (int64, error)
	Upsert(ctx context.Context, product model.Product) error
	Truncate(ctx context.Context) error
	Transaction(ctx context.Context, fn func(tx PrimaryStore) error) error
}

// SecondaryStore is the fallback/mirror store contract, implemented by the
// remote product API client.
type SecondaryStore interface {
	List(ctx context.Context) ([]model.Product, error)
	Get(ctx context.Context, id uint) (*model.Product, error)
	Create(ctx context.Context, product model.Product) (*model.Product, error)
	Update(ctx context.Context, id uint, patch model.Patch) (*model.Product, error)
	Delete(ctx context.Context, id uint) error
}

// HybridOptions tunes the facade's fallback policy.
type HybridOptions struct {
	// MirrorFailuresFatal promotes best-effort mirror failures to operation
	// failures. Off by default: mirror failures are logged and swallowed.
	MirrorFailuresFatal bool
	// FillTimeout bounds the asynchronous fill-on-miss insert into the
	// primary store.
	FillTimeout time.Duration
}

// HybridStore coordinates reads and writes between the database (primary,
// authoritative) and the remote product API (secondary). The database acts
// as a read-through cache over the API with lazy fill-on-miss; writes land
// in the database first and are mirrored to the API best-effort.
type HybridStore struct {
	primary     PrimaryStore
	secondary   SecondaryStore
	logger      *zap.Logger
	mirrorFatal bool
	fillTimeout time.Duration
	fills       sync.WaitGroup
}

// NewHybridStore builds the facade over the two stores.
func NewHybridStore(primary PrimaryStore, secondary SecondaryStore, logger *zap.Logger, opts HybridOptions) *HybridStore {
	fillTimeout := opts.FillTimeout
	if fillTimeout <= 0 {
		fillTimeout = 10 * time.Second
	}
	return &HybridStore{
		primary:     primary,
		secondary:   secondary,
		logger:      logger,
		mirrorFatal: opts.MirrorFailuresFatal,
		fillTimeout: fillTimeout,
	}
}

// Wait blocks until all in-flight fill-on-miss inserts have finished. Called
// on shutdown so pending cache fills are not cut off mid-write.
func (h *HybridStore) Wait() {
	h.fills.Wait()
}

// List returns every product, preferring the database. An empty database is
// not an error; it falls through to the API without any write-back.
func (h *HybridStore) List(ctx context.Context) ([]model.Product, Source, error) {
	defer prometheus.TrackStoreOperation("hybrid", "list")(time.Now())
	prometheus.RecordProductOperation("list")

	products, primErr := h.primary.List(ctx)
	if primErr == nil && len(products) > 0 {
		prometheus.RecordStoreServed("list", string(SourceDatabase))
		return products, SourceDatabase, nil
	}
	if primErr != nil {
		h.logger.Warn("Database list failed, falling back to API", zap.Error(primErr))
	}

	apiProducts, secErr := h.secondary.List(ctx)
	if secErr != nil {
		if primErr != nil {
			return nil, "", &BothStoresError{Primary: primErr, Secondary: secErr}
		}
		return nil, "", secErr
	}

	prometheus.RecordStoreServed("list", string(SourceAPI))
	return apiProducts, SourceAPI, nil
}

// Get fetches a product by id, preferring the database. A product found only
// in the API is returned immediately and inserted into the database
// asynchronously as a best-effort cache fill.
func (h *HybridStore) Get(ctx context.Context, id uint) (*model.Product, Source, error) {
	defer prometheus.TrackStoreOperation("hybrid", "get")(time.Now())
	prometheus.RecordProductOperation("get")

	product, primErr := h.primary.Get(ctx, id)
	if primErr == nil {
		prometheus.RecordStoreServed("get", string(SourceDatabase))
		return product, SourceDatabase, nil
	}
	if !errors.Is(primErr, ErrNotFound) {
		h.logger.Warn("Database get failed, falling back to API",
			zap.Uint("product_id", id), zap.Error(primErr))
	}

	apiProduct, secErr := h.secondary.Get(ctx, id)
	if secErr != nil {
		if errors.Is(secErr, ErrNotFound) {
			return nil, "", ErrNotFound
		}
		if !errors.Is(primErr, ErrNotFound) {
			return nil, "", &BothStoresError{Primary: primErr, Secondary: secErr}
		}
		return nil, "", secErr
	}

	h.fillPrimary(*apiProduct)
	prometheus.RecordStoreServed("get", string(SourceAPI))
	return apiProduct, SourceAPI, nil
}

// fillPrimary caches a product fetched from the API into the database under
// its API id. Runs detached from the request; failure is logged, never
// surfaced.
func (h *HybridStore) fillPrimary(product model.Product) {
	h.fills.Add(1)
	go func() {
		defer h.fills.Done()

		ctx, cancel := context.WithTimeout(context.Background(), h.fillTimeout)
		defer cancel()

		if err := h.primary.Upsert(ctx, product); err != nil {
			prometheus.RecordCacheFill("error")
			h.logger.Warn("Failed to cache API product in database",
				zap.Uint("product_id", product.ID), zap.Error(err))
			return
		}
		prometheus.RecordCacheFill("ok")
	}()
}

// validateCreate rejects incomplete creation payloads before any store is
// touched.
func validateCreate(patch model.Patch) error {
	if patch.Title == nil || *patch.Title == "" {
		return &ValidationError{Field: "title", Reason: "is required"}
	}
	if patch.Image == nil || *patch.Image == "" {
		return &ValidationError{Field: "image", Reason: "is required"}
	}
	return validatePatch(patch)
}

// validatePatch rejects field values that must never be persisted, on updates
// as well as creates.
func validatePatch(patch model.Patch) error {
	if patch.Price != nil && !patch.Price.Valid() {
		return &ValidationError{Field: "price", Reason: "must be a non-negative number"}
	}
	return nil
}

// Create inserts a product. The database-assigned id is authoritative when
// the database insert succeeds; the creation is then mirrored to the API
// best-effort. If the database insert fails, creation falls back to the API
// alone and the returned id is API-assigned.
func (h *HybridStore) Create(ctx context.Context, patch model.Patch) (*model.Product, Source, error) {
	defer prometheus.TrackStoreOperation("hybrid", "create")(time.Now())
	prometheus.RecordProductOperation("create")

	if err := validateCreate(patch); err != nil {
		return nil, "", err
	}

	product := model.FromPatch(patch)
	if primErr := h.primary.Create(ctx, &product); primErr != nil {
		h.logger.Warn("Database create failed, falling back to API", zap.Error(primErr))

		created, secErr := h.secondary.Create(ctx, product)
		if secErr != nil {
			return nil, "", &BothStoresError{Primary: primErr, Secondary: secErr}
		}
		prometheus.RecordStoreServed("create", string(SourceAPI))
		return created, SourceAPI, nil
	}

	if err := h.mirror(ctx, "create", func(ctx context.Context) error {
		_, mErr := h.secondary.Create(ctx, product)
		return mErr
	}); err != nil {
		return nil, "", err
	}

	prometheus.RecordStoreServed("create", string(SourceDatabase))
	return &product, SourceDatabase, nil
}

// Update applies a partial patch, preferring the database. A database miss
// or failure falls back to the API; a successful database update is mirrored
// to the API best-effort.
func (h *HybridStore) Update(ctx context.Context, id uint, patch model.Patch) (*model.Product, Source, error) {
	defer prometheus.TrackStoreOperation("hybrid", "update")(time.Now())
	prometheus.RecordProductOperation("update")

	if err := validatePatch(patch); err != nil {
		return nil, "", err
	}

	updated, primErr := h.primary.Update(ctx, id, patch)
	if primErr == nil {
		if err := h.mirror(ctx, "update", func(ctx context.Context) error {
			_, mErr := h.secondary.Update(ctx, id, patch)
			if mErr != nil && !errors.Is(mErr, ErrNotFound) {
				return mErr
			}
			return nil
		}); err != nil {
			return nil, "", err
		}
		prometheus.RecordStoreServed("update", string(SourceDatabase))
		return updated, SourceDatabase, nil
	}
	if !errors.Is(primErr, ErrNotFound) {
		h.logger.Warn("Database update failed, falling back to API",
			zap.Uint("product_id", id), zap.Error(primErr))
	}

	apiUpdated, secErr := h.secondary.Update(ctx, id, patch)
	if secErr != nil {
		if errors.Is(secErr, ErrNotFound) {
			return nil, "", ErrNotFound
		}
		if !errors.Is(primErr, ErrNotFound) {
			return nil, "", &BothStoresError{Primary: primErr, Secondary: secErr}
		}
		return nil, "", secErr
	}

	prometheus.RecordStoreServed("update", string(SourceAPI))
	return apiUpdated, SourceAPI, nil
}

// Delete removes a product. Database deletion counts only when a row was
// actually removed; a confirmed deletion is mirrored to the API best-effort,
// anything else falls back to the API.
func (h *HybridStore) Delete(ctx context.Context, id uint) (Source, error) {
	defer prometheus.TrackStoreOperation("hybrid", "delete")(time.Now())
	prometheus.RecordProductOperation("delete")

	deleted, primErr := h.primary.Delete(ctx, id)
	if primErr == nil && deleted {
		if err := h.mirror(ctx, "delete", func(ctx context.Context) error {
			if mErr := h.secondary.Delete(ctx, id); mErr != nil && !errors.Is(mErr, ErrNotFound) {
				return mErr
			}
			return nil
		}); err != nil {
			return "", err
		}
		prometheus.RecordStoreServed("delete", string(SourceDatabase))
		return SourceDatabase, nil
	}
	if primErr != nil {
		h.logger.Warn("Database delete failed, falling back to API",
			zap.Uint("product_id", id), zap.Error(primErr))
	}

	secErr := h.secondary.Delete(ctx, id)
	if secErr != nil {
		if errors.Is(secErr, ErrNotFound) {
			return "", ErrNotFound
		}
		if primErr != nil {
			return "", &BothStoresError{Primary: primErr, Secondary: secErr}
		}
		return "", secErr
	}

	prometheus.RecordStoreServed("delete", string(SourceAPI))
	return SourceAPI, nil
}

// mirror runs a best-effort write against the secondary store. Failures are
// counted and logged; they only propagate when the facade was built with
// MirrorFailuresFatal.
func (h *HybridStore) mirror(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	if err := fn(ctx); err != nil {
		prometheus.RecordMirrorFailure(op)
		if h.mirrorFatal {
			return err
		}
		h.logger.Warn("Best-effort mirror to API failed",
			zap.String("operation", op), zap.Error(err))
	}
	return nil
}

// Sync performs bulk reconciliation: fetch the full product set from the API
// and upsert each item into the database inside one transaction. Each item
// runs in its own nested transaction (a savepoint on postgres), so a failed
// item rolls back alone and the batch commits with the successes; the
// alternative, continuing after a failed statement in the shared transaction,
// aborts the whole transaction on postgres. A fatal transaction error retains
// none of the writes.
func (h *HybridStore) Sync(ctx context.Context) (synced, failed int, err error) {
	defer prometheus.TrackStoreOperation("hybrid", "sync")(time.Now())
	prometheus.RecordProductOperation("sync")

	products, err := h.secondary.List(ctx)
	if err != nil {
		return 0, 0, err
	}

	err = h.primary.Transaction(ctx, func(tx PrimaryStore) error {
		for _, product := range products {
			upErr := tx.Transaction(ctx, func(item PrimaryStore) error {
				return item.Upsert(ctx, product)
			})
			if upErr != nil {
				failed++
				prometheus.RecordSyncItem("failed")
				h.logger.Warn("Failed to sync product",
					zap.Uint("product_id", product.ID), zap.Error(upErr))
				continue
			}
			synced++
			prometheus.RecordSyncItem("synced")
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}

	h.logger.Info("Product sync completed",
		zap.Int("synced", synced), zap.Int("failed", failed))
	return synced, failed, nil
}

// SeedResult reports the outcome of a database seed run.
type SeedResult struct {
	Seeded   int
	Skipped  bool
	Reseeded bool
}

// Seed populates an empty database from the API. When force is set, existing
// rows are removed first and the database is reseeded; otherwise a non-empty
// database is left untouched.
func (h *HybridStore) Seed(ctx context.Context, force bool) (*SeedResult, error) {
	prometheus.RecordProductOperation("seed")

	count, err := h.primary.Count(ctx)
	if err != nil {
		return nil, err
	}

	if count > 0 && !force {
		return &SeedResult{Seeded: int(count), Skipped: true}, nil
	}

	products, err := h.secondary.List(ctx)
	if err != nil {
		return nil, err
	}

	result := &SeedResult{Reseeded: force && count > 0}
	err = h.primary.Transaction(ctx, func(tx PrimaryStore) error {
		if result.Reseeded {
			if trErr := tx.Truncate(ctx); trErr != nil {
				return trErr
			}
		}
		for _, product := range products {
			upErr := tx.Transaction(ctx, func(item PrimaryStore) error {
				return item.Upsert(ctx, product)
			})
			if upErr != nil {
				h.logger.Warn("Failed to seed product",
					zap.Uint("product_id", product.ID), zap.Error(upErr))
				continue
			}
			result.Seeded++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DataSource reports which store is currently serving reads, judged by
// whether the database holds any rows. A database failure reports the API as
// the source rather than an error.
func (h *HybridStore) DataSource(ctx context.Context) (Source, int64, error) {
	count, err := h.primary.Count(ctx)
	if err != nil {
		h.logger.Warn("Database unavailable for data source check", zap.Error(err))
		return SourceAPI, 0, err
	}
	if count > 0 {
		return SourceDatabase, count, nil
	}
	return SourceAPI, 0, nil
}
