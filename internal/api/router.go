// internal/api/router.go
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"novapay-wallet/internal/api/handler"
)

// Handlers groups the route handlers. Admin is nil when the admin surface is disabled.
type Handlers struct {
	Account *handler.AccountHandler
	Wallet  *handler.WalletHandler
	Sync    *handler.SyncHandler
	Admin   *handler.AdminHandler
}

// NewRouter sets up and returns a new HTTP router.
func NewRouter(h Handlers, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middlewares
	r.Use(middleware.RequestID)                       // Add a request ID to the context
	r.Use(middleware.RealIP)                          // Use the real IP address
	r.Use(middleware.Logger)                          // Log HTTP requests
	r.Use(middleware.Recoverer)                       // Recover from panics and return 500
	r.Use(middleware.Timeout(handler.DefaultTimeout)) // Set a default timeout for requests

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Session and account
	r.Get("/session", h.Account.Session)
	r.Post("/register", h.Account.Register)
	r.Post("/login", h.Account.Login)
	r.Post("/logout", h.Account.Logout)
	r.Route("/me", func(r chi.Router) {
		r.Get("/", h.Account.Me)
		r.Patch("/profile", h.Account.UpdateProfile)
		r.Get("/transactions", h.Account.Transactions)
	})

	// Rewards and invites
	r.Get("/rewards", h.Wallet.Rewards)
	r.Post("/rewards/claim", h.Wallet.ClaimReward)
	r.Get("/invite", h.Wallet.Invite)
	r.Post("/invite/reward", h.Wallet.InviteReward)

	// Spending
	r.Post("/transfers", h.Wallet.Transfer)
	r.Route("/services", func(r chi.Router) {
		r.Post("/purchase", h.Wallet.PurchaseService)
		r.Post("/airtime", h.Wallet.BuyAirtime)
		r.Post("/data", h.Wallet.BuyData)
	})
	r.Get("/catalog", h.Wallet.Catalog)

	// Device sync
	r.Route("/sync", func(r chi.Router) {
		r.Get("/export", h.Sync.Export)
		r.Get("/export/qr", h.Sync.ExportQR)
		r.Post("/import", h.Sync.Import)
	})

	if h.Admin != nil {
		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", h.Admin.Login)
			r.Group(func(r chi.Router) {
				r.Use(h.Admin.RequireAdmin)
				r.Get("/accounts", h.Admin.ListAccounts)
				r.Post("/accounts/{email}/subscription", h.Admin.ApproveSubscription)
				r.Delete("/accounts/{email}/subscription", h.Admin.RevokeSubscription)
			})
		})
	} else {
		logger.Info("Admin routes disabled: ADMIN_PASSWORD_HASH or ADMIN_JWT_SECRET is not set")
	}

	return r
}
