package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"catalog-service/internal/model"

	"go.uber.org/zap"
)

// APIStore is the secondary product store: a remote REST API exposing the
// conventional /products resource. It is stateless; every call is an
// independent request/response with an explicit timeout.
type APIStore struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// NewAPIStore creates a client for the remote product API.
func NewAPIStore(baseURL string, timeout time.Duration, logger *zap.Logger) *APIStore {
	return &APIStore{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: timeout},
		Logger:     logger,
	}
}

func apiErr(op string, err error) error {
	return &StoreError{Store: SourceAPI, Op: op, Err: err}
}

func (s *APIStore) do(ctx context.Context, method, url string, body interface{}) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return s.HTTPClient.Do(req)
}

func decodeProduct(resp *http.Response) (*model.Product, error) {
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var product model.Product
	if err := json.Unmarshal(data, &product); err != nil {
		return nil, fmt.Errorf("decoding product response: %w", err)
	}
	return &product, nil
}

// List fetches every product from the remote API.
func (s *APIStore) List(ctx context.Context) ([]model.Product, error) {
	resp, err := s.do(ctx, http.MethodGet, s.BaseURL, nil)
	if err != nil {
		return nil, apiErr("list", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiErr("list", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var products []model.Product
	if err := json.NewDecoder(resp.Body).Decode(&products); err != nil {
		return nil, apiErr("list", err)
	}

	s.Logger.Debug("Fetched products from remote API", zap.Int("count", len(products)))
	return products, nil
}

// Get fetches a single product. A 404 maps to ErrNotFound.
func (s *APIStore) Get(ctx context.Context, id uint) (*model.Product, error) {
	resp, err := s.do(ctx, http.MethodGet, fmt.Sprintf("%s/%d", s.BaseURL, id), nil)
	if err != nil {
		return nil, apiErr("get", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, apiErr("get", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	product, err := decodeProduct(resp)
	if err != nil {
		return nil, apiErr("get", err)
	}
	return product, nil
}

// Create posts a new product to the remote API. The API assigns its own id.
func (s *APIStore) Create(ctx context.Context, product model.Product) (*model.Product, error) {
	resp, err := s.do(ctx, http.MethodPost, s.BaseURL, product)
	if err != nil {
		return nil, apiErr("create", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, apiErr("create", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	created, err := decodeProduct(resp)
	if err != nil {
		return nil, apiErr("create", err)
	}
	return created, nil
}

// Update sends a partial update. A 404 maps to ErrNotFound.
func (s *APIStore) Update(ctx context.Context, id uint, patch model.Patch) (*model.Product, error) {
	resp, err := s.do(ctx, http.MethodPut, fmt.Sprintf("%s/%d", s.BaseURL, id), patch)
	if err != nil {
		return nil, apiErr("update", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return nil, ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, apiErr("update", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	updated, err := decodeProduct(resp)
	if err != nil {
		return nil, apiErr("update", err)
	}
	return updated, nil
}

// Delete removes a product from the remote API. A 404 maps to ErrNotFound.
func (s *APIStore) Delete(ctx context.Context, id uint) error {
	resp, err := s.do(ctx, http.MethodDelete, fmt.Sprintf("%s/%d", s.BaseURL, id), nil)
	if err != nil {
		return apiErr("delete", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apiErr("delete", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
	return nil
}
