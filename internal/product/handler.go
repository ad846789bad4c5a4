package product

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/getsentry/sentry-go"

	"catalog-api/internal/auth"
	"catalog-api/internal/observability"
)

const maxJSONBodyBytes = 1 << 20

type Handler struct {
	store  Store
	logger *observability.Logger
}

func NewHandler(store Store, logger *observability.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseFilter(w, r)
	if !ok {
		return
	}

	products, err := h.store.List(r.Context(), filter)
	if err != nil {
		sentry.CaptureException(err)
		h.logger.Error("list_products_failed", map[string]any{"error": err.Error()})
		writeError(w, http.StatusInternalServerError, "Error retrieving products")
		return
	}

	writeJSON(w, http.StatusOK, products)
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	p, err := h.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("Product with ID %d not found", id))
			return
		}
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "Error retrieving product")
		return
	}

	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) GetCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.store.Categories(r.Context())
	if err != nil {
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "Error retrieving categories")
		return
	}

	writeJSON(w, http.StatusOK, categories)
}

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	input, ok := parseInput(w, r)
	if !ok {
		return
	}

	p, err := h.store.Create(r.Context(), input)
	if err != nil {
		sentry.CaptureException(err)
		h.logger.Error("create_product_failed", map[string]any{"error": err.Error()})
		writeError(w, http.StatusInternalServerError, "Error creating product")
		return
	}

	fields := map[string]any{"id": p.ID, "name": p.Name}
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		fields["created_by"] = claims.Username
	}
	h.logger.Info("product_created", fields)

	w.Header().Set("Location", fmt.Sprintf("/api/Products/%d", p.ID))
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	input, ok := parseInput(w, r)
	if !ok {
		return
	}
	if input.ID != 0 && input.ID != id {
		writeError(w, http.StatusBadRequest, "ID mismatch")
		return
	}

	p, err := h.store.Update(r.Context(), id, input)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("Product with ID %d not found", id))
			return
		}
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "Error updating product")
		return
	}

	h.logger.Info("product_updated", map[string]any{"id": id})

	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("Product with ID %d not found", id))
			return
		}
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "Error deleting product")
		return
	}

	h.logger.Info("product_deleted", map[string]any{"id": id})

	w.WriteHeader(http.StatusNoContent)
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return 0, false
	}
	return id, true
}

func parseFilter(w http.ResponseWriter, r *http.Request) (Filter, bool) {
	query := r.URL.Query()
	filter := Filter{Category: strings.TrimSpace(query.Get("category"))}

	minPrice, ok := parsePrice(w, query, "minPrice")
	if !ok {
		return Filter{}, false
	}
	filter.MinPrice = minPrice

	maxPrice, ok := parsePrice(w, query, "maxPrice")
	if !ok {
		return Filter{}, false
	}
	filter.MaxPrice = maxPrice

	return filter, true
}

func parsePrice(w http.ResponseWriter, query url.Values, name string) (*float64, bool) {
	raw := strings.TrimSpace(query.Get(name))
	if raw == "" {
		return nil, true
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || value < 0 {
		writeError(w, http.StatusBadRequest, name+" must be a non-negative number")
		return nil, false
	}

	return &value, true
}

func parseInput(w http.ResponseWriter, r *http.Request) (ProductInput, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	var input ProductInput
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return ProductInput{}, false
	}

	input.Name = strings.TrimSpace(input.Name)
	input.Description = strings.TrimSpace(input.Description)
	input.Category = strings.TrimSpace(input.Category)
	input.ImageURL = strings.TrimSpace(input.ImageURL)

	if input.Name == "" || len(input.Name) > 100 {
		writeError(w, http.StatusBadRequest, "Name is required and must be at most 100 characters")
		return ProductInput{}, false
	}
	if len(input.Description) > 500 {
		writeError(w, http.StatusBadRequest, "Description must be at most 500 characters")
		return ProductInput{}, false
	}
	if input.Price <= 0 {
		writeError(w, http.StatusBadRequest, "Price must be greater than 0")
		return ProductInput{}, false
	}
	if input.StockQuantity < 0 {
		writeError(w, http.StatusBadRequest, "Stock quantity cannot be negative")
		return ProductInput{}, false
	}
	if len(input.Category) > 50 {
		writeError(w, http.StatusBadRequest, "Category must be at most 50 characters")
		return ProductInput{}, false
	}
	if input.ImageURL != "" {
		parsed, err := url.ParseRequestURI(input.ImageURL)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			writeError(w, http.StatusBadRequest, "ImageUrl must be a valid http or https link")
			return ProductInput{}, false
		}
		if len(input.ImageURL) > 500 {
			writeError(w, http.StatusBadRequest, "ImageUrl must be at most 500 characters")
			return ProductInput{}, false
		}
	}

	return input, true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
