package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/Leonardo-Silva-Nascimento/Catalog-api/internal/domain"
	"github.com/Leonardo-Silva-Nascimento/Catalog-api/internal/service"
	"github.com/Leonardo-Silva-Nascimento/Catalog-api/pkg/httputil"
)

// SearchHandler handles HTTP requests for product search.
type SearchHandler struct {
	service *service.CatalogService
	logger  *slog.Logger
}

// NewSearchHandler creates a new search HTTP handler.
func NewSearchHandler(svc *service.CatalogService, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{
		service: svc,
		logger:  logger,
	}
}

// Search handles GET /api/v1/search/products
// @Summary Search products
// @Description Full-text search over the product index with filters and sorting.
// @Description Returns an empty result set when the search backend is unavailable.
// @Tags search
// @Produce json
// @Param q query string false "Search term"
// @Param category query string false "Filter by category"
// @Param status query string false "Filter by status" Enums(active,inactive)
// @Param min_price query number false "Minimum price"
// @Param max_price query number false "Maximum price"
// @Param sort query string false "Sort field" Enums(created_at,updated_at,price,name)
// @Param order query string false "Sort order" Enums(asc,desc)
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page (max 100)" default(15)
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /api/v1/search/products [get]
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := domain.SearchQuery{
		Term: strings.TrimSpace(r.URL.Query().Get("q")),
	}

	if v := r.URL.Query().Get("category"); v != "" {
		query.Category = v
	}
	if v := r.URL.Query().Get("status"); v != "" {
		if !domain.IsValidStatus(v) {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "status must be one of: active, inactive"},
			})
			return
		}
		query.Status = v
	}
	minPrice, maxPrice, ok := parsePriceRange(w, r)
	if !ok {
		return
	}
	query.MinPrice = minPrice
	query.MaxPrice = maxPrice

	query.SortBy = r.URL.Query().Get("sort")
	query.Order = r.URL.Query().Get("order")

	if v := r.URL.Query().Get("page"); v != "" {
		if page, err := strconv.Atoi(v); err == nil && page > 0 {
			query.Page = page
		}
	}
	if v := r.URL.Query().Get("per_page"); v != "" {
		if perPage, err := strconv.Atoi(v); err == nil && perPage > 0 && perPage <= domain.MaxSearchPerPage {
			query.PerPage = perPage
		}
	}

	result, err := h.service.Search(r.Context(), query)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}

// parsePriceRange extracts and validates the min_price/max_price query
// parameters shared by the listing and search endpoints. On invalid input it
// writes a 400 response and returns ok=false.
func parsePriceRange(w http.ResponseWriter, r *http.Request) (minPrice, maxPrice *float64, ok bool) {
	if v := r.URL.Query().Get("min_price"); v != "" {
		price, err := strconv.ParseFloat(v, 64)
		if err != nil || price < 0 {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "min_price must be a non-negative number"},
			})
			return nil, nil, false
		}
		minPrice = &price
	}
	if v := r.URL.Query().Get("max_price"); v != "" {
		price, err := strconv.ParseFloat(v, 64)
		if err != nil || price < 0 {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "max_price must be a non-negative number"},
			})
			return nil, nil, false
		}
		maxPrice = &price
	}
	if minPrice != nil && maxPrice != nil && *minPrice > *maxPrice {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "min_price must not exceed max_price"},
		})
		return nil, nil, false
	}
	return minPrice, maxPrice, true
}
