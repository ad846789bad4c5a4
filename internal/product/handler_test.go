package product_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-api/internal/observability"
	"catalog-api/internal/product"
)

type memoryStore struct {
	mu       sync.Mutex
	nextID   int64
	products map[int64]product.Product
}

func newMemoryStore() *memoryStore {
	return &memoryStore{products: make(map[int64]product.Product)}
}

func (s *memoryStore) List(_ context.Context, filter product.Filter) ([]product.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]product.Product, 0, len(s.products))
	for id := int64(1); id <= s.nextID; id++ {
		p, ok := s.products[id]
		if !ok {
			continue
		}
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if filter.MinPrice != nil && p.Price < *filter.MinPrice {
			continue
		}
		if filter.MaxPrice != nil && p.Price > *filter.MaxPrice {
			continue
		}
		result = append(result, p)
	}
	return result, nil
}

func (s *memoryStore) Get(_ context.Context, id int64) (product.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return product.Product{}, sql.ErrNoRows
	}
	return p, nil
}

func (s *memoryStore) Categories(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]bool)
	categories := make([]string, 0)
	for _, p := range s.products {
		if p.Category != "" && !seen[p.Category] {
			seen[p.Category] = true
			categories = append(categories, p.Category)
		}
	}
	return categories, nil
}

func (s *memoryStore) Create(_ context.Context, input product.ProductInput) (product.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	p := product.Product{
		ID:            s.nextID,
		Name:          input.Name,
		Description:   input.Description,
		Price:         input.Price,
		StockQuantity: input.StockQuantity,
		Category:      input.Category,
		CreatedAt:     time.Now().UTC(),
		IsAvailable:   input.IsAvailable == nil || *input.IsAvailable,
		ImageURL:      input.ImageURL,
	}
	s.products[p.ID] = p
	return p, nil
}

func (s *memoryStore) Update(_ context.Context, id int64, input product.ProductInput) (product.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return product.Product{}, sql.ErrNoRows
	}
	now := time.Now().UTC()
	p.Name = input.Name
	p.Description = input.Description
	p.Price = input.Price
	p.StockQuantity = input.StockQuantity
	p.Category = input.Category
	p.IsAvailable = input.IsAvailable == nil || *input.IsAvailable
	p.ImageURL = input.ImageURL
	p.UpdatedAt = &now
	s.products[id] = p
	return p, nil
}

func (s *memoryStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.products, id)
	return nil
}

func newTestHandler(store product.Store) *product.Handler {
	return product.NewHandler(store, observability.NewLoggerTo(io.Discard))
}

func seedProduct(t *testing.T, store *memoryStore, name, category string, price float64) product.Product {
	t.Helper()
	p, err := store.Create(context.Background(), product.ProductInput{
		Name:     name,
		Category: category,
		Price:    price,
	})
	require.NoError(t, err)
	return p
}

// serve routes the request through a mux with the same patterns the app
// registers, so PathValue works.
func serve(handler *product.Handler, req *http.Request) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/Products", handler.ListProducts)
	mux.HandleFunc("GET /api/Products/categories", handler.GetCategories)
	mux.HandleFunc("GET /api/Products/{id}", handler.GetProduct)
	mux.HandleFunc("POST /api/Products", handler.CreateProduct)
	mux.HandleFunc("PUT /api/Products/{id}", handler.UpdateProduct)
	mux.HandleFunc("DELETE /api/Products/{id}", handler.DeleteProduct)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	encoded, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, target, bytes.NewReader(encoded))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestListProducts(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	seedProduct(t, store, "Laptop", "Electronics", 999.99)
	seedProduct(t, store, "Mouse", "Accessories", 29.99)
	seedProduct(t, store, "Keyboard", "Accessories", 89.99)
	handler := newTestHandler(store)

	t.Run("all", func(t *testing.T) {
		rec := serve(handler, httptest.NewRequest(http.MethodGet, "/api/Products", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var products []product.Product
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &products))
		assert.Len(t, products, 3)
	})

	t.Run("filter by category", func(t *testing.T) {
		rec := serve(handler, httptest.NewRequest(http.MethodGet, "/api/Products?category=Accessories", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var products []product.Product
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &products))
		assert.Len(t, products, 2)
	})

	t.Run("filter by price range", func(t *testing.T) {
		rec := serve(handler, httptest.NewRequest(http.MethodGet, "/api/Products?minPrice=50&maxPrice=100", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var products []product.Product
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &products))
		require.Len(t, products, 1)
		assert.Equal(t, "Keyboard", products[0].Name)
	})

	t.Run("invalid price filter", func(t *testing.T) {
		rec := serve(handler, httptest.NewRequest(http.MethodGet, "/api/Products?minPrice=cheap", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGetProduct(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	seeded := seedProduct(t, store, "Laptop", "Electronics", 999.99)
	handler := newTestHandler(store)

	t.Run("found", func(t *testing.T) {
		rec := serve(handler, httptest.NewRequest(http.MethodGet, "/api/Products/1", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var p product.Product
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
		assert.Equal(t, seeded.ID, p.ID)
		assert.Equal(t, "Laptop", p.Name)
	})

	t.Run("not found", func(t *testing.T) {
		rec := serve(handler, httptest.NewRequest(http.MethodGet, "/api/Products/99", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		rec := serve(handler, httptest.NewRequest(http.MethodGet, "/api/Products/abc", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGetCategories(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	seedProduct(t, store, "Laptop", "Electronics", 999.99)
	seedProduct(t, store, "Mouse", "Accessories", 29.99)
	handler := newTestHandler(store)

	rec := serve(handler, httptest.NewRequest(http.MethodGet, "/api/Products/categories", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var categories []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &categories))
	assert.ElementsMatch(t, []string{"Electronics", "Accessories"}, categories)
}

func TestCreateProduct(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		store := newMemoryStore()
		handler := newTestHandler(store)

		body := map[string]any{"Name": "Monitor", "Price": 199.99, "StockQuantity": 5, "Category": "Electronics"}
		rec := serve(handler, jsonRequest(t, http.MethodPost, "/api/Products", body))
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "/api/Products/1", rec.Header().Get("Location"))

		var p product.Product
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
		assert.Equal(t, int64(1), p.ID)
		assert.True(t, p.IsAvailable)
	})

	t.Run("missing name", func(t *testing.T) {
		handler := newTestHandler(newMemoryStore())

		body := map[string]any{"Price": 199.99}
		rec := serve(handler, jsonRequest(t, http.MethodPost, "/api/Products", body))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("non-positive price", func(t *testing.T) {
		handler := newTestHandler(newMemoryStore())

		body := map[string]any{"Name": "Freebie", "Price": 0}
		rec := serve(handler, jsonRequest(t, http.MethodPost, "/api/Products", body))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("negative stock", func(t *testing.T) {
		handler := newTestHandler(newMemoryStore())

		body := map[string]any{"Name": "Monitor", "Price": 10, "StockQuantity": -1}
		rec := serve(handler, jsonRequest(t, http.MethodPost, "/api/Products", body))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad image url", func(t *testing.T) {
		handler := newTestHandler(newMemoryStore())

		body := map[string]any{"Name": "Monitor", "Price": 10, "ImageUrl": "ftp://example.com/x"}
		rec := serve(handler, jsonRequest(t, http.MethodPost, "/api/Products", body))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestUpdateProduct(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		store := newMemoryStore()
		seedProduct(t, store, "Laptop", "Electronics", 999.99)
		handler := newTestHandler(store)

		body := map[string]any{"Id": 1, "Name": "Laptop Pro", "Price": 1299.99}
		rec := serve(handler, jsonRequest(t, http.MethodPut, "/api/Products/1", body))
		require.Equal(t, http.StatusOK, rec.Code)

		var p product.Product
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
		assert.Equal(t, "Laptop Pro", p.Name)
		assert.NotNil(t, p.UpdatedAt)
	})

	t.Run("id mismatch", func(t *testing.T) {
		store := newMemoryStore()
		seedProduct(t, store, "Laptop", "Electronics", 999.99)
		handler := newTestHandler(store)

		body := map[string]any{"Id": 2, "Name": "Laptop Pro", "Price": 1299.99}
		rec := serve(handler, jsonRequest(t, http.MethodPut, "/api/Products/1", body))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("not found", func(t *testing.T) {
		handler := newTestHandler(newMemoryStore())

		body := map[string]any{"Name": "Laptop Pro", "Price": 1299.99}
		rec := serve(handler, jsonRequest(t, http.MethodPut, "/api/Products/7", body))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestDeleteProduct(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		store := newMemoryStore()
		seedProduct(t, store, "Laptop", "Electronics", 999.99)
		handler := newTestHandler(store)

		rec := serve(handler, httptest.NewRequest(http.MethodDelete, "/api/Products/1", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = serve(handler, httptest.NewRequest(http.MethodGet, "/api/Products/1", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("not found", func(t *testing.T) {
		handler := newTestHandler(newMemoryStore())

		rec := serve(handler, httptest.NewRequest(http.MethodDelete, "/api/Products/9", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
