package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"catalog-service/internal/store"
	"catalog-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// SyncHandler exposes the bulk reconciliation and bootstrap endpoints.
type SyncHandler struct {
	store *store.HybridStore
}

// NewSyncHandler builds the handler around the injected facade.
func NewSyncHandler(s *store.HybridStore) *SyncHandler {
	return &SyncHandler{store: s}
}

// Sync pulls the full product set from the remote API and reconciles it into
// the database.
func (h *SyncHandler) Sync(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Starting product sync")

	synced, failed, err := h.store.Sync(c.Request().Context())
	if err != nil {
		log.Error("Product sync failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"success": false,
			"message": "Failed to sync products",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":             true,
		"message":             fmt.Sprintf("Synced %d products successfully, %d failed.", synced, failed),
		"totalProductsSynced": synced,
		"totalProductsFailed": failed,
	})
}

// Seed populates an empty database from the remote API. ?force=true wipes
// and reseeds a populated database.
func (h *SyncHandler) Seed(c echo.Context) error {
	log := logger.FromContext(c)
	force, _ := strconv.ParseBool(c.QueryParam("force"))
	log.Info("Seeding database", zap.Bool("force", force))

	result, err := h.store.Seed(c.Request().Context(), force)
	if err != nil {
		log.Error("Database seed failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"success": false,
			"message": "Failed to seed database",
		})
	}

	if result.Skipped {
		return c.JSON(http.StatusOK, echo.Map{
			"success": true,
			"message": fmt.Sprintf("Database already contains %d products. No seeding needed.", result.Seeded),
			"count":   result.Seeded,
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":  true,
		"message":  fmt.Sprintf("Seeded database with %d products.", result.Seeded),
		"count":    result.Seeded,
		"reseeded": result.Reseeded,
	})
}

// DataSource reports which store currently serves reads. A database failure
// is reported as the API being the source, never as an error.
func (h *SyncHandler) DataSource(c echo.Context) error {
	log := logger.FromContext(c)

	source, count, err := h.store.DataSource(c.Request().Context())
	if err != nil {
		log.Warn("Data source check degraded", zap.Error(err))
		return c.JSON(http.StatusOK, echo.Map{
			"source": source,
			"error":  "Database connection failed",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"source": source,
		"count":  count,
	})
}
