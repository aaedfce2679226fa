package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/khalifgfrz/coffee-shop-storefront/internal/domain"
	"github.com/khalifgfrz/coffee-shop-storefront/internal/service"
	"github.com/khalifgfrz/coffee-shop-storefront/pkg/httputil"
	"github.com/khalifgfrz/coffee-shop-storefront/pkg/validator"
)

// CheckoutHandler handles HTTP requests for checkout endpoints.
type CheckoutHandler struct {
	service *service.CheckoutService
	logger  *slog.Logger
}

// NewCheckoutHandler creates a new checkout HTTP handler.
func NewCheckoutHandler(svc *service.CheckoutService, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		service: svc,
		logger:  logger,
	}
}

// countResponse is the body of GET /api/v1/checkout/count.
type countResponse struct {
	Count int `json:"count"`
}

// GetCheckout handles GET /api/v1/checkout
func (h *CheckoutHandler) GetCheckout(w http.ResponseWriter, r *http.Request) {
	sum, err := h.service.Summary(r.Context(), sessionIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: sum})
}

// GetCount handles GET /api/v1/checkout/count
func (h *CheckoutHandler) GetCount(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.Count(r.Context(), sessionIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: countResponse{Count: n}})
}

// AddItem handles POST /api/v1/checkout/items
func (h *CheckoutHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req service.AddItemInput
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	item, err := h.service.AddItem(r.Context(), sessionIDFromContext(r.Context()), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: item})
}

// AddProduct handles POST /api/v1/products/{uuid}/checkout
func (h *CheckoutHandler) AddProduct(w http.ResponseWriter, r *http.Request) {
	var req service.AddProductInput
	if r.ContentLength != 0 {
		if err := validator.DecodeAndValidate(r, &req); err != nil {
			httputil.WriteValidationError(w, r, err)
			return
		}
	}

	item, err := h.service.AddProduct(r.Context(), sessionIDFromContext(r.Context()), chi.URLParam(r, "uuid"), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: item})
}

// UpdateItem handles PATCH /api/v1/checkout/items/{uuid}
func (h *CheckoutHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req domain.OptionPatch
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	item, err := h.service.UpdateOptions(r.Context(), sessionIDFromContext(r.Context()), chi.URLParam(r, "uuid"), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: item})
}

// RemoveItem handles DELETE /api/v1/checkout/items/{uuid}
func (h *CheckoutHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	if err := h.service.RemoveItem(r.Context(), sessionIDFromContext(r.Context()), chi.URLParam(r, "uuid")); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Clear handles DELETE /api/v1/checkout
func (h *CheckoutHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Clear(r.Context(), sessionIDFromContext(r.Context())); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
