package http

import (
	"log/slog"
	"net/http"

	"github.com/khalifgfrz/coffee-shop-storefront/internal/domain"
	"github.com/khalifgfrz/coffee-shop-storefront/internal/service"
	"github.com/khalifgfrz/coffee-shop-storefront/pkg/httputil"
	"github.com/khalifgfrz/coffee-shop-storefront/pkg/validator"
)

// AccountHandler handles login, logout and profile endpoints.
type AccountHandler struct {
	service *service.AccountService
	session SessionConfig
	logger  *slog.Logger
}

// NewAccountHandler creates a new account HTTP handler.
func NewAccountHandler(svc *service.AccountService, session SessionConfig, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{
		service: svc,
		session: session,
		logger:  logger,
	}
}

// Login handles POST /api/v1/auth/login. A rejected login answers with the
// backend's status and its reason as the error message.
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.Credentials
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	res, err := h.service.Login(r.Context(), sessionIDFromContext(r.Context()), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: res})
}

// Logout handles POST /api/v1/auth/logout
func (h *AccountHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Logout(r.Context(), sessionIDFromContext(r.Context())); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	clearSessionCookie(w, h.session)
	w.Header().Del(SessionHeader)
	w.WriteHeader(http.StatusNoContent)
}

// UpdateProfile handles PATCH /api/v1/profile
func (h *AccountHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req domain.ProfileUpdate
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	profile, err := h.service.UpdateProfile(r.Context(), sessionIDFromContext(r.Context()), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: profile})
}
