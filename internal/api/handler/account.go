// internal/api/handler/account.go
package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"novapay-wallet/internal/api/types"
	"novapay-wallet/internal/domain"
	"novapay-wallet/internal/service"
)

// AccountHandler handles sign-in state and the active account's record.
type AccountHandler struct {
	responder
	service service.WalletService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(svc service.WalletService, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{responder: newResponder(logger), service: svc}
}

// RegisterRequest represents the request body for registration.
type RegisterRequest struct {
	Name  string `json:"name" validate:"max=100"`
	Email string `json:"email" validate:"required,email"`
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"max=100"` // used only when the account is created on login
}

// ProfileRequest represents the request body for a profile update.
// Omitted fields are left unchanged.
type ProfileRequest struct {
	Name         *string `json:"name" validate:"omitempty,max=100"`
	ProfileImage *string `json:"profileImage"`
}

// Session reports which screen the client should open.
// GET /session
func (h *AccountHandler) Session(w http.ResponseWriter, r *http.Request) {
	state, err := h.service.InitialScreen(r.Context())
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, state)
}

// Register handles the registration request.
// POST /register
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.service.Register(r.Context(), req.Name, req.Email)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusCreated, res)
}

// Login handles the login request.
// POST /login
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.service.Login(r.Context(), req.Email, req.Name)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, res)
}

// Logout ends the active session.
// POST /logout
func (h *AccountHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Logout(r.Context()); err != nil {
		h.respondWithError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the active account.
// GET /me
func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.CurrentUser(r.Context())
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, user)
}

// UpdateProfile changes the display name or avatar.
// PATCH /me/profile
func (h *AccountHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req ProfileRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), service.ProfileUpdate{Name: req.Name, ProfileImage: req.ProfileImage})
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, user)
}

// Transactions handles the transaction history request.
// GET /me/transactions?limit=&offset=
func (h *AccountHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	// Parse query parameters for pagination
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 10 // Default limit
	}
	if limit > 100 {
		limit = 100
	}
	offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil || offset < 0 {
		offset = 0 // Default offset
	}

	transactions, total, err := h.service.TransactionHistory(r.Context(), limit, offset)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, types.PaginatedResponse[domain.Transaction]{
		Data:       transactions,
		Limit:      limit,
		Offset:     offset,
		TotalCount: int64(total),
	})
}
