package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/khalifgfrz/coffee-shop-storefront/internal/domain"
	"github.com/khalifgfrz/coffee-shop-storefront/internal/service"
	"github.com/khalifgfrz/coffee-shop-storefront/pkg/httputil"
	"github.com/khalifgfrz/coffee-shop-storefront/pkg/pagination"
	"github.com/khalifgfrz/coffee-shop-storefront/pkg/validator"
)

// CatalogHandler handles HTTP requests for product endpoints.
type CatalogHandler struct {
	service *service.CatalogService
	logger  *slog.Logger
}

// NewCatalogHandler creates a new catalog HTTP handler.
func NewCatalogHandler(svc *service.CatalogService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: svc,
		logger:  logger,
	}
}

// ListProducts handles GET /api/v1/products
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	f, err := parseListingFilter(r)
	if err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}
	if err := validator.Validate(f); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	listing, err := h.service.ListProducts(r.Context(), sessionIDFromContext(r.Context()), f)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	if listing.Stale {
		w.Header().Set("Cache-Control", "no-store")
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: listing,
		Meta: pagination.NewMeta(listing.Page, listing.TotalPage),
	})
}

// GetProduct handles GET /api/v1/products/{uuid}
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetProduct(r.Context(), chi.URLParam(r, "uuid"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: p})
}

// parseListingFilter reads the listing query. Absent price bounds keep their
// defaults.
func parseListingFilter(r *http.Request) (domain.ListingFilter, error) {
	q := r.URL.Query()
	f := domain.DefaultListingFilter()
	f.ProductName = q.Get("product_name")
	f.Category = q.Get("category")
	f.SortBy = q.Get("sortBy")
	f.Page = pagination.FromRequest(r).Page

	var err error
	if f.MinPrice, err = priceParam(q.Get("min_price"), f.MinPrice); err != nil {
		return f, fmt.Errorf("min_price: %w", err)
	}
	if f.MaxPrice, err = priceParam(q.Get("max_price"), f.MaxPrice); err != nil {
		return f, fmt.Errorf("max_price: %w", err)
	}
	return f, nil
}

func priceParam(raw string, def int64) (int64, error) {
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("must be a whole number")
	}
	return v, nil
}
