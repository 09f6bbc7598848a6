// internal/service/wallet_service.go
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"novapay-wallet/internal/domain"
	"novapay-wallet/internal/repository"
	"novapay-wallet/internal/synccode"
	"novapay-wallet/internal/util"
	"novapay-wallet/pkg/rabbitmq"
)

// Screen is the view the client should open on launch.
type Screen string

const (
	ScreenMain     Screen = "main"
	ScreenLogin    Screen = "login"
	ScreenRegister Screen = "register"
)

// SessionState is the result of InitialScreen. User is set only for ScreenMain.
type SessionState struct {
	Screen Screen       `json:"screen"`
	User   *domain.User `json:"user,omitempty"`
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	User        *domain.User `json:"user"`
	ShowWelcome bool         `json:"show_welcome"` // one-time welcome interstitial after registration
}

// TxResult carries the updated record and the ledger entry a mutation created.
type TxResult struct {
	User        *domain.User       `json:"user"`
	Transaction domain.Transaction `json:"transaction"`
}

// ClaimResult is returned by ClaimDailyReward. Claimed is false when the
// cooldown was still running, in which case nothing changed.
type ClaimResult struct {
	User        *domain.User        `json:"user"`
	Claimed     bool                `json:"claimed"`
	Transaction *domain.Transaction `json:"transaction,omitempty"`
}

// RewardState describes the reward ladder countdown.
type RewardState struct {
	CurrentDay  int           `json:"current_day"`
	Claimable   bool          `json:"claimable"`
	NextClaimAt *time.Time    `json:"next_claim_at,omitempty"`
	Remaining   time.Duration `json:"-"`
}

// InviteState describes the invite task cooldown.
type InviteState struct {
	Locked      bool          `json:"locked"`
	CooldownEnd *time.Time    `json:"cooldown_end,omitempty"`
	Remaining   time.Duration `json:"-"`
}

// ProfileUpdate lists the editable display fields. Nil means unchanged.
type ProfileUpdate struct {
	Name         *string
	ProfileImage *string // data URI; empty string restores the default avatar
}

// SyncExport is a sync code with its validity window.
type SyncExport struct {
	Code        string    `json:"code"`
	GeneratedAt time.Time `json:"generated_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// WalletService defines the interface for wallet-related business logic.
// Every operation except Register, Login, InitialScreen and ImportSyncCode
// acts on the account of the active session.
type WalletService interface {
	Register(ctx context.Context, name, email string) (*AuthResult, error)
	Login(ctx context.Context, email, nameFallback string) (*AuthResult, error)
	Logout(ctx context.Context) error
	InitialScreen(ctx context.Context) (*SessionState, error)
	CurrentUser(ctx context.Context) (*domain.User, error)
	UpdateProfile(ctx context.Context, update ProfileUpdate) (*domain.User, error)
	TransactionHistory(ctx context.Context, limit, offset int) ([]domain.Transaction, int, error)

	ClaimDailyReward(ctx context.Context) (*ClaimResult, error)
	RewardState(ctx context.Context) (*RewardState, error)
	GrantInviteReward(ctx context.Context) (*TxResult, error)
	InviteCooldown(ctx context.Context) (*InviteState, error)

	Transfer(ctx context.Context, amount decimal.Decimal, recipient string) (*TxResult, error)
	PurchaseService(ctx context.Context, amount decimal.Decimal, description string) (*TxResult, error)
	BuyAirtime(ctx context.Context, networkID, phone string, amount decimal.Decimal) (*TxResult, error)
	BuyData(ctx context.Context, networkID, phone, planID string) (*TxResult, error)

	ExportSyncCode(ctx context.Context, at time.Time) (*SyncExport, error)
	ImportSyncCode(ctx context.Context, code string) (*domain.User, error)
}

// WalletOptions tunes a WalletService. The zero value is the default policy.
type WalletOptions struct {
	// LegacyAccountPolicy makes Register overwrite an existing account and
	// Login create an unknown one.
	LegacyAccountPolicy bool
	// Clock defaults to time.Now.
	Clock func() time.Time
	// Lock serializes mutations; share it with AdminService. Defaults to a private mutex.
	Lock sync.Locker
}

// walletService implements the WalletService interface.
type walletService struct {
	accounts  repository.AccountRepository
	sessions  repository.SessionRepository
	invites   repository.InviteRepository
	publisher rabbitmq.Publisher
	logger    *slog.Logger
	legacy    bool
	now       func() time.Time
	mu        sync.Locker
}

// NewWalletService creates a new instance of WalletService.
func NewWalletService(
	accounts repository.AccountRepository,
	sessions repository.SessionRepository,
	invites repository.InviteRepository,
	publisher rabbitmq.Publisher,
	logger *slog.Logger,
	opts WalletOptions,
) WalletService {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Lock == nil {
		opts.Lock = &sync.Mutex{}
	}
	return &walletService{
		accounts:  accounts,
		sessions:  sessions,
		invites:   invites,
		publisher: publisher,
		logger:    logger,
		legacy:    opts.LegacyAccountPolicy,
		now:       opts.Clock,
		mu:        opts.Lock,
	}
}

// Register creates an account holding the welcome bonus and signs it in.
func (s *walletService) Register(ctx context.Context, name, email string) (*AuthResult, error) {
	key := domain.NormalizeEmail(email)
	if key == "" {
		return nil, fmt.Errorf("register: email is required: %w", util.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.accounts.Load(ctx, key)
	switch {
	case err == nil && !s.legacy:
		return nil, fmt.Errorf("register: account %s already exists: %w", key, util.ErrDuplicateEntry)
	case err == nil:
		s.logger.Warn("Overwriting existing account on registration", "email", key)
	case !util.IsError(err, util.ErrNotFound):
		return nil, fmt.Errorf("register: %w", err)
	}

	user, err := s.create(ctx, name, key)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	s.logger.Info("Account registered", "email", key)
	return &AuthResult{User: user, ShowWelcome: true}, nil
}

// Login signs in an existing account. Under the legacy policy an unknown email
// is registered on the fly with nameFallback as its display name.
func (s *walletService) Login(ctx context.Context, email, nameFallback string) (*AuthResult, error) {
	key := domain.NormalizeEmail(email)
	if key == "" {
		return nil, fmt.Errorf("login: email is required: %w", util.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.accounts.Load(ctx, key)
	if err != nil {
		if !util.IsError(err, util.ErrNotFound) || !s.legacy {
			return nil, fmt.Errorf("login: %w", err)
		}
		user, err = s.create(ctx, nameFallback, key)
		if err != nil {
			return nil, fmt.Errorf("login: %w", err)
		}
		s.logger.Info("Account auto-registered on login", "email", key)
		return &AuthResult{User: user}, nil
	}

	if err := s.sessions.Start(ctx, key); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return &AuthResult{User: user.Clone()}, nil
}

func (s *walletService) create(ctx context.Context, name, key string) (*domain.User, error) {
	user := domain.NewUser(name, key, s.now())
	// The session goes first so a failed write leaves no account behind.
	if err := s.sessions.Start(ctx, key); err != nil {
		return nil, err
	}
	if err := s.accounts.Save(ctx, user); err != nil {
		if endErr := s.sessions.End(ctx); endErr != nil {
			s.logger.Warn("Failed to clear session after save failure", "email", key, "error", endErr)
		}
		return nil, fmt.Errorf("failed to save account: %w", err)
	}
	s.publish(ctx, user, user.Transactions[0])
	return user.Clone(), nil
}

func (s *walletService) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.sessions.End(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// InitialScreen decides which view to open: main when the active session maps
// to an account, login when any account exists, register otherwise.
func (s *walletService) InitialScreen(ctx context.Context) (*SessionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email, ok, err := s.sessions.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("initial screen: %w", err)
	}
	if ok {
		user, err := s.accounts.Load(ctx, email)
		if err == nil {
			return &SessionState{Screen: ScreenMain, User: user.Clone()}, nil
		}
		if !util.IsError(err, util.ErrNotFound) {
			return nil, fmt.Errorf("initial screen: %w", err)
		}
		s.logger.Warn("Active session points to a missing account", "email", email)
	}

	count, err := s.accounts.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("initial screen: %w", err)
	}
	if count > 0 {
		return &SessionState{Screen: ScreenLogin}, nil
	}
	return &SessionState{Screen: ScreenRegister}, nil
}

func (s *walletService) CurrentUser(ctx context.Context) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.activeUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("current user: %w", err)
	}
	return user.Clone(), nil
}

// UpdateProfile changes display fields only.
func (s *walletService) UpdateProfile(ctx context.Context, update ProfileUpdate) (*domain.User, error) {
	if update.Name != nil && strings.TrimSpace(*update.Name) == "" {
		return nil, fmt.Errorf("update profile: name cannot be blank: %w", util.ErrInvalidInput)
	}
	if update.ProfileImage != nil && *update.ProfileImage != "" && !strings.HasPrefix(*update.ProfileImage, "data:image/") {
		return nil, fmt.Errorf("update profile: profile image must be an image data URI: %w", util.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.activeUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	if update.Name != nil {
		user.Name = strings.TrimSpace(*update.Name)
	}
	if update.ProfileImage != nil {
		user.ProfileImage = *update.ProfileImage
	}
	if err := s.accounts.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("update profile: failed to save account: %w", err)
	}
	return user.Clone(), nil
}

// TransactionHistory returns a page of the active account's ledger, newest
// first, along with the total number of entries.
func (s *walletService) TransactionHistory(ctx context.Context, limit, offset int) ([]domain.Transaction, int, error) {
	if limit <= 0 || offset < 0 {
		return nil, 0, fmt.Errorf("transaction history: %w", util.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.activeUser(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("transaction history: %w", err)
	}
	total := len(user.Transactions)
	if offset >= total {
		return []domain.Transaction{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	page := make([]domain.Transaction, end-offset)
	copy(page, user.Transactions[offset:end])
	return page, total, nil
}

// ClaimDailyReward pays the daily reward when the cooldown has elapsed and
// is a no-op otherwise.
func (s *walletService) ClaimDailyReward(ctx context.Context) (*ClaimResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.activeUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("claim reward: %w", err)
	}

	now := s.now()
	status := *user.RewardStatus
	if !status.Claimable(now) {
		return &ClaimResult{User: user.Clone(), Claimed: false}, nil
	}

	tx := domain.NewTransaction(domain.TxContextReward, domain.TransactionTypeCredit, domain.DailyRewardAmount, status.Description(), now)
	next := status.Advance(now)
	user.RewardStatus = &next

	result, err := s.commit(ctx, user, tx)
	if err != nil {
		return nil, fmt.Errorf("claim reward: %w", err)
	}
	return &ClaimResult{User: result.User, Claimed: true, Transaction: &result.Transaction}, nil
}

func (s *walletService) RewardState(ctx context.Context) (*RewardState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.activeUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("reward state: %w", err)
	}

	now := s.now()
	status := *user.RewardStatus
	state := &RewardState{
		CurrentDay: status.CurrentDay,
		Claimable:  status.Claimable(now),
		Remaining:  status.Remaining(now),
	}
	if !state.Claimable {
		next := status.NextClaimAt()
		state.NextClaimAt = &next
	}
	return state, nil
}

// GrantInviteReward credits the invite reward and locks the invite tasks for
// domain.InviteCooldown. Task completion is tracked by the client.
func (s *walletService) GrantInviteReward(ctx context.Context) (*TxResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.activeUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("invite reward: %w", err)
	}

	now := s.now()
	// Lock first: a failed marker write must not leave a paid reward behind.
	if err := s.invites.SetCooldownEnd(ctx, now.Add(domain.InviteCooldown)); err != nil {
		return nil, fmt.Errorf("invite reward: %w", err)
	}
	tx := domain.NewTransaction(domain.TxContextInvite, domain.TransactionTypeCredit, domain.InviteRewardAmount, domain.InviteRewardDescription, now)
	result, err := s.commit(ctx, user, tx)
	if err != nil {
		if clearErr := s.invites.ClearCooldown(ctx); clearErr != nil {
			s.logger.Warn("Failed to clear invite cooldown after save failure", "error", clearErr)
		}
		return nil, fmt.Errorf("invite reward: %w", err)
	}
	return result, nil
}

// InviteCooldown reports the invite lock. An elapsed marker is removed.
func (s *walletService) InviteCooldown(ctx context.Context) (*InviteState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	end, ok, err := s.invites.CooldownEnd(ctx)
	if err != nil {
		return nil, fmt.Errorf("invite cooldown: %w", err)
	}
	if !ok {
		return &InviteState{}, nil
	}

	now := s.now()
	if !now.Before(end) {
		if err := s.invites.ClearCooldown(ctx); err != nil {
			return nil, fmt.Errorf("invite cooldown: %w", err)
		}
		return &InviteState{}, nil
	}
	return &InviteState{Locked: true, CooldownEnd: &end, Remaining: end.Sub(now)}, nil
}

// Transfer debits amount for a transfer to recipient, e.g. "GTBank - John Doe".
func (s *walletService) Transfer(ctx context.Context, amount decimal.Decimal, recipient string) (*TxResult, error) {
	recipient = strings.TrimSpace(recipient)
	if recipient == "" {
		return nil, fmt.Errorf("transfer: recipient is required: %w", util.ErrInvalidInput)
	}
	return s.debit(ctx, "transfer", domain.TxContextTransfer, amount, "Transfer to "+recipient)
}

func (s *walletService) PurchaseService(ctx context.Context, amount decimal.Decimal, description string) (*TxResult, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, fmt.Errorf("purchase service: description is required: %w", util.ErrInvalidInput)
	}
	return s.debit(ctx, "purchase service", domain.TxContextService, amount, description)
}

func (s *walletService) BuyAirtime(ctx context.Context, networkID, phone string, amount decimal.Decimal) (*TxResult, error) {
	network, ok := domain.FindNetwork(networkID)
	if !ok {
		return nil, fmt.Errorf("buy airtime: unknown network %q: %w", networkID, util.ErrInvalidInput)
	}
	phone = strings.TrimSpace(phone)
	if !domain.IsPhoneNumber(phone) {
		return nil, fmt.Errorf("buy airtime: invalid phone number: %w", util.ErrInvalidInput)
	}
	if amount.LessThan(decimal.NewFromInt(domain.MinAirtimeAmount)) {
		return nil, fmt.Errorf("buy airtime: minimum amount is %d: %w", domain.MinAirtimeAmount, util.ErrInvalidInput)
	}
	description := fmt.Sprintf("%s Airtime - %s", network.Name, phone)
	return s.debit(ctx, "buy airtime", domain.TxContextService, amount, description)
}

func (s *walletService) BuyData(ctx context.Context, networkID, phone, planID string) (*TxResult, error) {
	network, ok := domain.FindNetwork(networkID)
	if !ok {
		return nil, fmt.Errorf("buy data: unknown network %q: %w", networkID, util.ErrInvalidInput)
	}
	plan, ok := domain.FindDataPlan(planID)
	if !ok {
		return nil, fmt.Errorf("buy data: unknown plan %q: %w", planID, util.ErrInvalidInput)
	}
	phone = strings.TrimSpace(phone)
	if !domain.IsPhoneNumber(phone) {
		return nil, fmt.Errorf("buy data: invalid phone number: %w", util.ErrInvalidInput)
	}
	description := fmt.Sprintf("%s Data %s - %s", network.Name, plan.Name, phone)
	return s.debit(ctx, "buy data", domain.TxContextService, plan.Price, description)
}

// ExportSyncCode encodes the active account as of at.
func (s *walletService) ExportSyncCode(ctx context.Context, at time.Time) (*SyncExport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.activeUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("export sync code: %w", err)
	}
	code, err := synccode.Encode(user, at)
	if err != nil {
		return nil, fmt.Errorf("export sync code: %w", err)
	}
	return &SyncExport{
		Code:        code,
		GeneratedAt: at.UTC(),
		ExpiresAt:   synccode.ExpiresAt(at),
	}, nil
}

// ImportSyncCode restores the account carried by code, replacing any local
// copy, and signs it in.
func (s *walletService) ImportSyncCode(ctx context.Context, code string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	payload, err := synccode.Decode(code, now)
	if err != nil {
		return nil, fmt.Errorf("import sync code: %w", err)
	}

	// The record keeps its email as typed; only the storage key is normalized.
	// A code without a ledger restores an empty one.
	user := payload.User
	user.Email = strings.TrimSpace(user.Email)
	if user.Transactions == nil {
		user.Transactions = []domain.Transaction{}
	}
	user.Migrate(now)
	key := user.Key()
	if err := s.sessions.Start(ctx, key); err != nil {
		return nil, fmt.Errorf("import sync code: %w", err)
	}
	if err := s.accounts.Save(ctx, user); err != nil {
		if endErr := s.sessions.End(ctx); endErr != nil {
			s.logger.Warn("Failed to clear session after save failure", "email", key, "error", endErr)
		}
		return nil, fmt.Errorf("import sync code: failed to save account: %w", err)
	}
	s.logger.Info("Account restored from sync code", "email", key)
	return user.Clone(), nil
}

// activeUser loads the account of the active session. Callers hold s.mu.
func (s *walletService) activeUser(ctx context.Context) (*domain.User, error) {
	email, ok, err := s.sessions.Current(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, util.ErrNoActiveSession
	}
	user, err := s.accounts.Load(ctx, email)
	if err != nil {
		if util.IsError(err, util.ErrNotFound) {
			return nil, fmt.Errorf("account %s is gone: %w", email, util.ErrNoActiveSession)
		}
		return nil, err
	}
	return user, nil
}

// debit runs the checks shared by every spending flow, then applies the debit.
func (s *walletService) debit(ctx context.Context, op, txContext string, amount decimal.Decimal, description string) (*TxResult, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%s: amount must be positive: %w", op, util.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.activeUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !user.IsSubscribed {
		return nil, fmt.Errorf("%s: %w", op, util.ErrFeatureLocked)
	}
	if !user.CanAfford(amount) {
		return nil, fmt.Errorf("%s: balance %s is below %s: %w", op, user.DisplayBalance(), amount.StringFixed(2), util.ErrInsufficientFunds)
	}

	tx := domain.NewTransaction(txContext, domain.TransactionTypeDebit, amount, description, s.now())
	result, err := s.commit(ctx, user, tx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// commit applies tx to user and persists the record in a single write.
func (s *walletService) commit(ctx context.Context, user *domain.User, tx domain.Transaction) (*TxResult, error) {
	user.Apply(tx)
	if err := s.accounts.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to save account: %w", err)
	}
	s.publish(ctx, user, tx)
	return &TxResult{User: user.Clone(), Transaction: tx}, nil
}

// publish emits a ledger event. Failures are logged and otherwise ignored.
func (s *walletService) publish(ctx context.Context, user *domain.User, tx domain.Transaction) {
	if s.publisher == nil {
		return
	}
	event := rabbitmq.LedgerEvent{
		Email:         user.Key(),
		TransactionID: tx.ID,
		Type:          string(tx.Type),
		Amount:        tx.Amount,
		Description:   tx.Description,
		Balance:       user.Balance,
		Timestamp:     tx.Date,
	}
	if err := s.publisher.PublishLedgerEvent(ctx, event); err != nil {
		s.logger.Warn("Failed to publish ledger event", "transaction_id", tx.ID, "error", err)
	}
}
