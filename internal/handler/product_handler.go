package handler

import (
	"errors"
	"net/http"
	"strconv"

	"catalog-service/internal/model"
	"catalog-service/internal/store"
	"catalog-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ProductHandler exposes the product CRUD endpoints over the hybrid store.
type ProductHandler struct {
	store *store.HybridStore
}

// NewProductHandler builds the handler around the injected facade.
func NewProductHandler(s *store.HybridStore) *ProductHandler {
	return &ProductHandler{store: s}
}

func parseID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

// List handles retrieving all products
func (h *ProductHandler) List(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Listing products")

	products, source, err := h.store.List(c.Request().Context())
	if err != nil {
		log.Error("Failed to list products", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error":   "Failed to fetch products",
			"success": false,
		})
	}

	log.Info("Products retrieved successfully",
		zap.Int("count", len(products)),
		zap.String("source", string(source)))
	return c.JSON(http.StatusOK, echo.Map{
		"products": products,
		"source":   source,
	})
}

// Get handles retrieving a single product by ID
func (h *ProductHandler) Get(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := parseID(c)
	if err != nil {
		log.Warn("Invalid product id", zap.String("id", c.Param("id")))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":   "Invalid product id",
			"success": false,
		})
	}
	log.Info("Getting product by ID", zap.Uint("product_id", id))

	product, source, err := h.store.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("Product not found", zap.Uint("product_id", id))
			return c.JSON(http.StatusNotFound, echo.Map{
				"error":   "Product not found",
				"success": false,
			})
		}
		log.Error("Failed to get product", zap.Uint("product_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error":   "Failed to fetch product",
			"success": false,
		})
	}

	log.Info("Product retrieved successfully",
		zap.Uint("product_id", id),
		zap.String("title", product.Title),
		zap.String("source", string(source)))
	return c.JSON(http.StatusOK, echo.Map{
		"product": product,
		"source":  source,
	})
}

// Create handles creating a new product
func (h *ProductHandler) Create(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Creating new product")

	var patch model.Patch
	if err := c.Bind(&patch); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":   "Invalid request data",
			"success": false,
		})
	}

	product, source, err := h.store.Create(c.Request().Context(), patch)
	if err != nil {
		var vErr *store.ValidationError
		if errors.As(err, &vErr) {
			log.Warn("Product creation rejected", zap.String("field", vErr.Field))
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error":   vErr.Error(),
				"success": false,
			})
		}
		log.Error("Failed to create product", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error":   "Failed to create product",
			"success": false,
		})
	}

	log.Info("Product created successfully",
		zap.Uint("product_id", product.ID),
		zap.String("title", product.Title),
		zap.String("price", product.Price.Display()),
		zap.String("source", string(source)))
	return c.JSON(http.StatusCreated, echo.Map{
		"product": product,
		"source":  source,
		"success": true,
	})
}

// Update handles partially updating an existing product
func (h *ProductHandler) Update(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := parseID(c)
	if err != nil {
		log.Warn("Invalid product id", zap.String("id", c.Param("id")))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":   "Invalid product id",
			"success": false,
		})
	}
	log.Info("Updating product", zap.Uint("product_id", id))

	var patch model.Patch
	if err := c.Bind(&patch); err != nil {
		log.Error("Invalid request data", zap.Uint("product_id", id), zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":   "Invalid request data",
			"success": false,
		})
	}

	product, source, err := h.store.Update(c.Request().Context(), id, patch)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("Product not found for update", zap.Uint("product_id", id))
			return c.JSON(http.StatusNotFound, echo.Map{
				"error":   "Product not found",
				"success": false,
			})
		}
		var vErr *store.ValidationError
		if errors.As(err, &vErr) {
			log.Warn("Product update rejected",
				zap.Uint("product_id", id), zap.String("field", vErr.Field))
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error":   vErr.Error(),
				"success": false,
			})
		}
		log.Error("Failed to update product", zap.Uint("product_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error":   "Failed to update product",
			"success": false,
		})
	}

	log.Info("Product updated successfully",
		zap.Uint("product_id", id),
		zap.String("source", string(source)))
	return c.JSON(http.StatusOK, echo.Map{
		"product": product,
		"source":  source,
		"success": true,
	})
}

// Delete handles deleting a product
func (h *ProductHandler) Delete(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := parseID(c)
	if err != nil {
		log.Warn("Invalid product id", zap.String("id", c.Param("id")))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":   "Invalid product id",
			"success": false,
		})
	}
	log.Info("Deleting product", zap.Uint("product_id", id))

	source, err := h.store.Delete(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("Product not found for deletion", zap.Uint("product_id", id))
			return c.JSON(http.StatusNotFound, echo.Map{
				"error":   "Product not found",
				"success": false,
			})
		}
		log.Error("Failed to delete product", zap.Uint("product_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error":   "Failed to delete product",
			"success": false,
		})
	}

	log.Info("Product deleted successfully",
		zap.Uint("product_id", id),
		zap.String("source", string(source)))
	return c.JSON(http.StatusOK, echo.Map{
		"id":      id,
		"source":  source,
		"success": true,
	})
}
