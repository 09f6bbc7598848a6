// internal/api/handler/admin.go
package handler

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"novapay-wallet/internal/service"
	"novapay-wallet/internal/util"
)

// AdminHandler exposes subscription management to operators.
type AdminHandler struct {
	responder
	service service.AdminService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(svc service.AdminService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{responder: newResponder(logger), service: svc}
}

// AdminLoginRequest represents the request body for admin login.
type AdminLoginRequest struct {
	Password string `json:"password" validate:"required"`
}

// SubscriptionRequest represents the request body for approving a subscription.
type SubscriptionRequest struct {
	Plan string `json:"plan"` // plan id or name; empty selects the default plan
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RequireAdmin rejects requests without a valid "Bearer <token>" header.
func (h *AdminHandler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			h.respondWithJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "Authorization header required"})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			h.respondWithJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "Invalid authorization header format"})
			return
		}

		if err := h.service.VerifyToken(strings.TrimSpace(parts[1])); err != nil {
			h.respondWithError(w, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Login exchanges the admin password for a token.
// POST /admin/login
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req AdminLoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	token, expiresAt, err := h.service.Authenticate(r.Context(), req.Password)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, tokenResponse{Token: token, ExpiresAt: expiresAt})
}

// ListAccounts returns every account on this device.
// GET /admin/accounts
func (h *AdminHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListAccounts(r.Context())
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"data":        users,
		"total_count": len(users),
	})
}

// ApproveSubscription grants a plan to an account.
// POST /admin/accounts/{email}/subscription
func (h *AdminHandler) ApproveSubscription(w http.ResponseWriter, r *http.Request) {
	email, ok := h.emailParam(w, r)
	if !ok {
		return
	}
	var req SubscriptionRequest
	if r.ContentLength != 0 && !h.decode(w, r, &req) {
		return
	}

	user, err := h.service.ApproveSubscription(r.Context(), email, req.Plan)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, user)
}

// RevokeSubscription removes an account's plan.
// DELETE /admin/accounts/{email}/subscription
func (h *AdminHandler) RevokeSubscription(w http.ResponseWriter, r *http.Request) {
	email, ok := h.emailParam(w, r)
	if !ok {
		return
	}

	user, err := h.service.RevokeSubscription(r.Context(), email)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, user)
}

func (h *AdminHandler) emailParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	email, err := url.PathUnescape(chi.URLParam(r, "email"))
	if err != nil || strings.TrimSpace(email) == "" {
		h.respondWithError(w, util.ErrInvalidInput)
		return "", false
	}
	return email, true
}
