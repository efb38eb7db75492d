package handler

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"catalog-service/pkg/logger"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

var whitespace = regexp.MustCompile(`\s+`)

// UploadHandler stores product images and hands back the relative URL that
// gets saved as Product.Image. The binary itself never reaches the stores.
type UploadHandler struct {
	dir string
}

// NewUploadHandler builds an upload handler writing into dir.
func NewUploadHandler(dir string) *UploadHandler {
	return &UploadHandler{dir: dir}
}

// Upload accepts a single multipart "file" part and saves it under a
// uuid-prefixed name.
func (h *UploadHandler) Upload(c echo.Context) error {
	log := logger.FromContext(c)

	file, err := c.FormFile("file")
	if err != nil {
		log.Warn("Upload request without file part", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":   "No file uploaded",
			"success": false,
		})
	}

	src, err := file.Open()
	if err != nil {
		log.Error("Failed to open uploaded file", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error":   "Failed to upload file",
			"success": false,
		})
	}
	defer src.Close()

	name := uuid.New().String() + "-" + slugify(file.Filename)

	if err := os.MkdirAll(h.dir, 0o755); err != nil {
		log.Error("Failed to create upload directory", zap.String("dir", h.dir), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error":   "Failed to save file",
			"success": false,
		})
	}

	dst, err := os.Create(filepath.Join(h.dir, name))
	if err != nil {
		log.Error("Failed to create file", zap.String("name", name), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error":   "Failed to save file",
			"success": false,
		})
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		log.Error("Failed to write file", zap.String("name", name), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error":   "Failed to save file",
			"success": false,
		})
	}

	log.Info("File uploaded", zap.String("name", name), zap.Int64("size", file.Size))
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"url":     "/uploads/" + name,
	})
}

// slugify lowercases a filename and collapses whitespace to dashes, keeping
// only the base name so path components in the client filename are ignored.
func slugify(filename string) string {
	base := filepath.Base(filename)
	return whitespace.ReplaceAllString(strings.ToLower(base), "-")
}
