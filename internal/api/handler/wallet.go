// internal/api/handler/wallet.go
package handler

import (
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"novapay-wallet/internal/domain"
	"novapay-wallet/internal/service"
)

// WalletHandler handles balance-moving requests: rewards, transfers and purchases.
type WalletHandler struct {
	responder
	service service.WalletService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(svc service.WalletService, logger *slog.Logger) *WalletHandler {
	return &WalletHandler{responder: newResponder(logger), service: svc}
}

// TransferRequest represents the request body for transfer.
type TransferRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	BankName      string          `json:"bank_name" validate:"required,max=100"`
	AccountNumber string          `json:"account_number" validate:"required,numeric,len=10"`
	AccountName   string          `json:"account_name" validate:"required,max=100"`
}

// PurchaseRequest represents the request body for a generic service purchase.
type PurchaseRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description" validate:"required,max=200"`
}

// AirtimeRequest represents the request body for an airtime top-up.
type AirtimeRequest struct {
	Network string          `json:"network" validate:"required"`
	Phone   string          `json:"phone" validate:"required,numeric"`
	Amount  decimal.Decimal `json:"amount"`
}

// DataRequest represents the request body for a data bundle.
type DataRequest struct {
	Network string `json:"network" validate:"required"`
	Phone   string `json:"phone" validate:"required,numeric"`
	PlanID  string `json:"plan_id" validate:"required"`
}

type rewardResponse struct {
	*service.RewardState
	RemainingMs int64 `json:"remaining_ms"`
}

type inviteResponse struct {
	*service.InviteState
	RemainingMs int64 `json:"remaining_ms"`
}

// Rewards returns the reward ladder countdown.
// GET /rewards
func (h *WalletHandler) Rewards(w http.ResponseWriter, r *http.Request) {
	state, err := h.service.RewardState(r.Context())
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, rewardResponse{RewardState: state, RemainingMs: state.Remaining.Milliseconds()})
}

// ClaimReward claims the daily reward. A claim during cooldown succeeds with claimed=false.
// POST /rewards/claim
func (h *WalletHandler) ClaimReward(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.ClaimDailyReward(r.Context())
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, res)
}

// Invite returns the invite task cooldown.
// GET /invite
func (h *WalletHandler) Invite(w http.ResponseWriter, r *http.Request) {
	state, err := h.service.InviteCooldown(r.Context())
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, inviteResponse{InviteState: state, RemainingMs: state.Remaining.Milliseconds()})
}

// InviteReward pays out a completed invite batch.
// POST /invite/reward
func (h *WalletHandler) InviteReward(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.GrantInviteReward(r.Context())
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, res)
}

// Transfer handles the transfer money request.
// POST /transfers
func (h *WalletHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req TransferRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.service.Transfer(r.Context(), req.Amount, req.BankName+" - "+req.AccountName)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, res)
}

// PurchaseService handles a generic bill payment.
// POST /services/purchase
func (h *WalletHandler) PurchaseService(w http.ResponseWriter, r *http.Request) {
	var req PurchaseRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.service.PurchaseService(r.Context(), req.Amount, req.Description)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, res)
}

// BuyAirtime handles an airtime top-up.
// POST /services/airtime
func (h *WalletHandler) BuyAirtime(w http.ResponseWriter, r *http.Request) {
	var req AirtimeRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.service.BuyAirtime(r.Context(), req.Network, req.Phone, req.Amount)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, res)
}

// BuyData handles a data bundle purchase.
// POST /services/data
func (h *WalletHandler) BuyData(w http.ResponseWriter, r *http.Request) {
	var req DataRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.service.BuyData(r.Context(), req.Network, req.Phone, req.PlanID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, res)
}

// Catalog lists networks, data plans and subscription plans.
// GET /catalog
func (h *WalletHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"networks":           domain.Networks,
		"data_plans":         domain.DataPlans,
		"subscription_plans": domain.SubscriptionPlans,
	})
}
