// internal/service/admin_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"novapay-wallet/internal/config"
	"novapay-wallet/internal/domain"
	"novapay-wallet/internal/repository"
	"novapay-wallet/internal/util"
)

const (
	adminSubject = "admin"
	tokenIssuer  = "novapay-wallet"
)

// ErrAdminDisabled is returned by every AdminService operation when no admin
// credentials are configured.
var ErrAdminDisabled = errors.New("admin surface is disabled")

// AdminService defines the operator operations: subscription approval and account listing.
type AdminService interface {
	Enabled() bool
	Authenticate(ctx context.Context, password string) (token string, expiresAt time.Time, err error)
	VerifyToken(token string) error
	ListAccounts(ctx context.Context) ([]*domain.User, error)
	ApproveSubscription(ctx context.Context, email, plan string) (*domain.User, error)
	RevokeSubscription(ctx context.Context, email string) (*domain.User, error)
}

type adminService struct {
	accounts repository.AccountRepository
	cfg      config.AdminConfig
	logger   *slog.Logger
	now      func() time.Time
	mu       sync.Locker
}

// NewAdminService creates an AdminService. Pass the same lock given to the
// WalletService so admin writes cannot interleave with wallet mutations.
func NewAdminService(accounts repository.AccountRepository, cfg config.AdminConfig, logger *slog.Logger, lock sync.Locker, clock func() time.Time) AdminService {
	if clock == nil {
		clock = time.Now
	}
	if lock == nil {
		lock = &sync.Mutex{}
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = time.Hour
	}
	return &adminService{accounts: accounts, cfg: cfg, logger: logger, now: clock, mu: lock}
}

func (s *adminService) Enabled() bool {
	return s.cfg.PasswordHash != "" && s.cfg.JWTSecret != ""
}

// Authenticate checks password against the configured bcrypt hash and issues
// an HS256 token valid for the configured TTL.
func (s *adminService) Authenticate(ctx context.Context, password string) (string, time.Time, error) {
	if !s.Enabled() {
		return "", time.Time{}, ErrAdminDisabled
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.cfg.PasswordHash), []byte(password)); err != nil {
		s.logger.Warn("Rejected admin login")
		return "", time.Time{}, fmt.Errorf("admin login: %w", util.ErrUnauthorized)
	}

	now := s.now()
	expiresAt := now.Add(s.cfg.TokenTTL).Truncate(time.Second)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   adminSubject,
		Issuer:    tokenIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	})
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("admin login: failed to sign token: %w", err)
	}
	return signed, expiresAt.UTC(), nil
}

// VerifyToken accepts only unexpired HS256 tokens issued by Authenticate.
func (s *adminService) VerifyToken(tokenString string) error {
	if !s.Enabled() {
		return ErrAdminDisabled
	}
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWTSecret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithSubject(adminSubject),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return fmt.Errorf("verify token: %v: %w", err, util.ErrUnauthorized)
	}
	return nil
}

func (s *adminService) ListAccounts(ctx context.Context) ([]*domain.User, error) {
	if !s.Enabled() {
		return nil, ErrAdminDisabled
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.accounts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return users, nil
}

// ApproveSubscription marks the account subscribed to plan, which must name a
// catalog plan by id or name. An empty plan selects domain.DefaultSubscriptionPlan.
func (s *adminService) ApproveSubscription(ctx context.Context, email, plan string) (*domain.User, error) {
	if !s.Enabled() {
		return nil, ErrAdminDisabled
	}
	if strings.TrimSpace(plan) == "" {
		plan = domain.DefaultSubscriptionPlan
	}
	found, ok := domain.FindSubscriptionPlan(plan)
	if !ok {
		return nil, fmt.Errorf("approve subscription: unknown plan %q: %w", plan, util.ErrInvalidInput)
	}

	return s.update(ctx, "approve subscription", email, func(user *domain.User) {
		user.IsSubscribed = true
		user.SubscriptionPlan = found.Name
	})
}

func (s *adminService) RevokeSubscription(ctx context.Context, email string) (*domain.User, error) {
	if !s.Enabled() {
		return nil, ErrAdminDisabled
	}
	return s.update(ctx, "revoke subscription", email, func(user *domain.User) {
		user.IsSubscribed = false
		user.SubscriptionPlan = ""
	})
}

func (s *adminService) update(ctx context.Context, op, email string, mutate func(*domain.User)) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.accounts.Load(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	mutate(user)
	if err := s.accounts.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("%s: failed to save account: %w", op, err)
	}
	s.logger.Info("Subscription updated", "email", user.Key(), "subscribed", user.IsSubscribed, "plan", user.SubscriptionPlan)
	return user.Clone(), nil
}
