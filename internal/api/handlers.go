package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/joonhak/tripmarket/internal/domain"
	"github.com/joonhak/tripmarket/internal/service"
)

// Handler handles the browsing and catalog-admin HTTP routes.
type Handler struct {
	curations *service.CurationService
	products  *service.ProductService
	db        Pinger
	cache     Pinger
}

// RegisterRoutes registers all routes on the given mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/curations", h.ListCurations)
	mux.HandleFunc("POST /v1/curations", h.CreateCuration)
	mux.HandleFunc("PUT /v1/curations/{id}", h.UpdateCuration)
	mux.HandleFunc("GET /v1/curations/{id}/products", h.CurationProducts)

	mux.HandleFunc("GET /v1/products", h.ListProducts)
	mux.HandleFunc("POST /v1/products", h.CreateProduct)
	mux.HandleFunc("GET /v1/products/{category}/{id}", h.GetProduct)
	mux.HandleFunc("PUT /v1/products/{category}/{id}", h.UpdateProduct)
	mux.HandleFunc("DELETE /v1/products/{category}/{id}", h.DeleteProduct)
	mux.HandleFunc("GET /v1/products/{id}/stock", h.GetStock)
	mux.HandleFunc("POST /v1/products/{id}/stock/decrement", h.DecrementStock)

	mux.HandleFunc("GET /healthz", h.Health)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps domain errors onto status codes. Cache failures never
// reach this point; they are absorbed below the service layer.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrInsufficientStock):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrStrategyMissing), errors.Is(err, domain.ErrInvalid):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
}

// pageParams reads the cursor/size query parameters.
func pageParams(r *http.Request) (*int64, int, error) {
	var cursorID *int64
	if v := r.URL.Query().Get("cursor"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, 0, errors.New("invalid cursor")
		}
		cursorID = &id
	}
	var size int
	if v := r.URL.Query().Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, 0, errors.New("invalid size")
		}
		size = n
	}
	return cursorID, size, nil
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

// ListCurations handles GET /v1/curations.
func (h *Handler) ListCurations(w http.ResponseWriter, r *http.Request) {
	curations, err := h.curations.FindCurations(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, curations)
}

type curationRequest struct {
	Title      string  `json:"title"`
	Exposed    bool    `json:"exposed"`
	SortOrder  int     `json:"sort_order"`
	ProductIDs []int64 `json:"product_ids"`
}

// CreateCuration handles POST /v1/curations.
func (h *Handler) CreateCuration(w http.ResponseWriter, r *http.Request) {
	var req curationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	id, err := h.curations.CreateCuration(r.Context(), domain.CreateCurationCommand{
		Title:      req.Title,
		Exposed:    req.Exposed,
		SortOrder:  req.SortOrder,
		ProductIDs: req.ProductIDs,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

// UpdateCuration handles PUT /v1/curations/{id}.
func (h *Handler) UpdateCuration(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid curation id"})
		return
	}
	var req curationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	err = h.curations.UpdateCuration(r.Context(), id, domain.UpdateCurationCommand{
		Title:      req.Title,
		Exposed:    req.Exposed,
		SortOrder:  req.SortOrder,
		ProductIDs: req.ProductIDs,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CurationProducts handles GET /v1/curations/{id}/products.
func (h *Handler) CurationProducts(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid curation id"})
		return
	}
	cursorID, size, err := pageParams(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	result, err := h.curations.FindCurationProducts(r.Context(), id, cursorID, size)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ListProducts handles GET /v1/products.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	cursorID, size, err := pageParams(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	page, err := h.products.FindProducts(r.Context(), cursorID, size, r.URL.Query().Get("name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

type productRequest struct {
	Category    domain.Category `json:"category"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       int64           `json:"price"`
	Stock       int64           `json:"stock"`
}

// CreateProduct handles POST /v1/products.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	id, err := h.products.CreateProduct(r.Context(), domain.CreateProductCommand{
		Category:    req.Category,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

// GetProduct handles GET /v1/products/{category}/{id}.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid product id"})
		return
	}
	detail, err := h.products.FindProduct(r.Context(), domain.Category(r.PathValue("category")), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// UpdateProduct handles PUT /v1/products/{category}/{id}.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid product id"})
		return
	}
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	err = h.products.UpdateProduct(r.Context(), domain.Category(r.PathValue("category")), id, domain.UpdateProductCommand{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteProduct handles DELETE /v1/products/{category}/{id}.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid product id"})
		return
	}
	if err := h.products.DeleteProduct(r.Context(), domain.Category(r.PathValue("category")), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetStock handles GET /v1/products/{id}/stock.
func (h *Handler) GetStock(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid product id"})
		return
	}
	stock, err := h.products.GetProductStock(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"product_id": id, "stock": stock})
}

// DecrementStock handles POST /v1/products/{id}/stock/decrement.
func (h *Handler) DecrementStock(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid product id"})
		return
	}
	var req struct {
		Quantity int64 `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if err := h.products.DecrementStock(r.Context(), id, req.Quantity); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Health handles GET /healthz. Cache connectivity is reported but never
// fails the probe; the service degrades to source-of-truth reads without
// Redis.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	result := map[string]string{"status": "ok"}
	if h.db != nil {
		if err := h.db.Ping(ctx); err != nil {
			status = http.StatusServiceUnavailable
			result["status"] = "degraded"
			result["database"] = err.Error()
		} else {
			result["database"] = "ok"
		}
	}
	if h.cache != nil {
		if err := h.cache.Ping(ctx); err != nil {
			result["cache"] = err.Error()
		} else {
			result["cache"] = "ok"
		}
	}
	writeJSON(w, status, result)
}
