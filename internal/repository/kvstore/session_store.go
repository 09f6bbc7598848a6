// internal/repository/kvstore/session_store.go
package kvstore

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"novapay-wallet/internal/domain"
	"novapay-wallet/internal/repository"
	"novapay-wallet/internal/util"
)

// SessionStore keeps the active account under repository.KeyActiveSession.
type SessionStore struct {
	kv repository.KVStore
}

func NewSessionStore(kv repository.KVStore) *SessionStore {
	return &SessionStore{kv: kv}
}

var _ repository.SessionRepository = (*SessionStore)(nil)

func (s *SessionStore) Start(ctx context.Context, email string) error {
	key := domain.NormalizeEmail(email)
	if key == "" {
		return fmt.Errorf("start session: %w", util.ErrInvalidInput)
	}
	if err := s.kv.Set(ctx, repository.KeyActiveSession, key); err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	return nil
}

func (s *SessionStore) End(ctx context.Context) error {
	if err := s.kv.Delete(ctx, repository.KeyActiveSession); err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	return nil
}

func (s *SessionStore) Current(ctx context.Context) (string, bool, error) {
	raw, found, err := s.kv.Get(ctx, repository.KeyActiveSession)
	if err != nil {
		return "", false, fmt.Errorf("current session: %w", err)
	}
	email := domain.NormalizeEmail(raw)
	if !found || email == "" {
		return "", false, nil
	}
	return email, true, nil
}

// InviteStore keeps the invite cooldown end as unix milliseconds.
type InviteStore struct {
	kv     repository.KVStore
	logger *slog.Logger
}

func NewInviteStore(kv repository.KVStore, logger *slog.Logger) *InviteStore {
	return &InviteStore{kv: kv, logger: logger}
}

var _ repository.InviteRepository = (*InviteStore)(nil)

// CooldownEnd returns the stored unlock instant. An unparsable marker counts as absent.
func (s *InviteStore) CooldownEnd(ctx context.Context) (time.Time, bool, error) {
	raw, found, err := s.kv.Get(ctx, repository.KeyInviteCooldownEnd)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("invite cooldown: %w", err)
	}
	if !found {
		return time.Time{}, false, nil
	}
	millis, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		s.logger.Warn("Ignoring unreadable invite cooldown marker", "value", raw)
		return time.Time{}, false, nil
	}
	return time.UnixMilli(millis).UTC(), true, nil
}

func (s *InviteStore) SetCooldownEnd(ctx context.Context, end time.Time) error {
	if err := s.kv.Set(ctx, repository.KeyInviteCooldownEnd, strconv.FormatInt(end.UnixMilli(), 10)); err != nil {
		return fmt.Errorf("set invite cooldown: %w", err)
	}
	return nil
}

func (s *InviteStore) ClearCooldown(ctx context.Context) error {
	if err := s.kv.Delete(ctx, repository.KeyInviteCooldownEnd); err != nil {
		return fmt.Errorf("clear invite cooldown: %w", err)
	}
	return nil
}
