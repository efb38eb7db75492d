package handler_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"catalog-service/internal/handler"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uploadRequest(t *testing.T, field, filename string, content []byte) (*http.Request, string) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	return req, writer.FormDataContentType()
}

func TestUploadSavesFileAndReturnsRelativeURL(t *testing.T) {
	dir := t.TempDir()
	h := handler.NewUploadHandler(dir)
	e := echo.New()
	e.POST("/api/upload", h.Upload)

	req, contentType := uploadRequest(t, "file", "My Product Photo.PNG", []byte("fake image bytes"))
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, true, payload["success"])

	url := payload["url"].(string)
	assert.True(t, strings.HasPrefix(url, "/uploads/"))
	// The stored name is lowercased with whitespace collapsed to dashes.
	assert.True(t, strings.HasSuffix(url, "-my-product-photo.png"))

	saved, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(url, "/uploads/")))
	require.NoError(t, err)
	assert.Equal(t, []byte("fake image bytes"), saved)
}

func TestUploadWithoutFilePart(t *testing.T) {
	h := handler.NewUploadHandler(t.TempDir())
	e := echo.New()
	e.POST("/api/upload", h.Upload)

	req, contentType := uploadRequest(t, "attachment", "x.png", []byte("x"))
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "No file uploaded", payload["error"])
}

func TestUploadUniqueNamesForSameFilename(t *testing.T) {
	dir := t.TempDir()
	h := handler.NewUploadHandler(dir)
	e := echo.New()
	e.POST("/api/upload", h.Upload)

	urls := map[string]bool{}
	for i := 0; i < 2; i++ {
		req, contentType := uploadRequest(t, "file", "photo.png", []byte("img"))
		req.Header.Set(echo.HeaderContentType, contentType)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var payload map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
		urls[payload["url"].(string)] = true
	}

	assert.Len(t, urls, 2)
}
