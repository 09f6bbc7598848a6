// internal/repository/kvstore/account_store.go
package kvstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"novapay-wallet/internal/domain"
	"novapay-wallet/internal/repository"
	"novapay-wallet/internal/util"
)

// AccountStore implements repository.AccountRepository as one JSON object,
// normalized email -> record, stored under repository.KeyAccounts.
type AccountStore struct {
	kv     repository.KVStore
	logger *slog.Logger
	strict bool
	now    func() time.Time
}

// NewAccountStore creates an AccountStore on kv.
// With strict set, an unreadable accounts blob is reported as util.ErrCorruptState
// instead of being treated as an empty mapping.
func NewAccountStore(kv repository.KVStore, logger *slog.Logger, strict bool) *AccountStore {
	return &AccountStore{
		kv:     kv,
		logger: logger,
		strict: strict,
		now:    time.Now,
	}
}

var _ repository.AccountRepository = (*AccountStore)(nil)

// Load retrieves the account for email. A record missing fields added by later
// versions is migrated and written back before it is returned.
func (s *AccountStore) Load(ctx context.Context, email string) (*domain.User, error) {
	key := domain.NormalizeEmail(email)
	if key == "" {
		return nil, fmt.Errorf("load account: %w", util.ErrInvalidInput)
	}

	accounts, err := s.read(ctx)
	if err != nil {
		return nil, fmt.Errorf("load account %s: %w", key, err)
	}
	user, ok := accounts[key]
	if !ok {
		return nil, fmt.Errorf("load account %s: %w", key, util.ErrNotFound)
	}

	if user.Migrate(s.now()) {
		s.logger.Info("Migrated legacy account record", "email", key)
		if err := s.Save(ctx, user); err != nil {
			return nil, fmt.Errorf("load account %s: persist migration: %w", key, err)
		}
	}
	return user, nil
}

// Save upserts the full record under its normalized email. Last write wins.
func (s *AccountStore) Save(ctx context.Context, user *domain.User) error {
	if user == nil {
		return fmt.Errorf("save account: %w", util.ErrInvalidInput)
	}
	key := user.Key()
	if key == "" {
		return fmt.Errorf("save account: empty email: %w", util.ErrInvalidInput)
	}
	user.Migrate(s.now())

	err := s.kv.Update(ctx, repository.KeyAccounts, func(current string, found bool) (string, error) {
		accounts, err := s.decode(current, found)
		if err != nil {
			return "", err
		}
		accounts[key] = user
		return encode(accounts)
	})
	if err != nil {
		return fmt.Errorf("save account %s: %w", key, err)
	}
	return nil
}

// List returns every account sorted by normalized email, migrating as Load does.
func (s *AccountStore) List(ctx context.Context) ([]*domain.User, error) {
	accounts, err := s.read(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	keys := make([]string, 0, len(accounts))
	for key := range accounts {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	now := s.now()
	users := make([]*domain.User, 0, len(keys))
	var migrated []*domain.User
	for _, key := range keys {
		user := accounts[key]
		if user.Migrate(now) {
			migrated = append(migrated, user)
		}
		users = append(users, user)
	}

	for _, user := range migrated {
		if err := s.Save(ctx, user); err != nil {
			return nil, fmt.Errorf("list accounts: persist migration: %w", err)
		}
	}
	return users, nil
}

// Count returns the number of stored accounts.
func (s *AccountStore) Count(ctx context.Context) (int, error) {
	accounts, err := s.read(ctx)
	if err != nil {
		return 0, fmt.Errorf("count accounts: %w", err)
	}
	return len(accounts), nil
}

func (s *AccountStore) read(ctx context.Context) (map[string]*domain.User, error) {
	raw, found, err := s.kv.Get(ctx, repository.KeyAccounts)
	if err != nil {
		return nil, err
	}
	return s.decode(raw, found)
}

// decode parses the accounts blob. Entries that are null are dropped and an
// entry without an email takes it from its key.
func (s *AccountStore) decode(raw string, found bool) (map[string]*domain.User, error) {
	accounts := make(map[string]*domain.User)
	if !found || strings.TrimSpace(raw) == "" {
		return accounts, nil
	}

	var stored map[string]*domain.User
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		if s.strict {
			return nil, fmt.Errorf("%w: accounts: %v", util.ErrCorruptState, err)
		}
		s.logger.Warn("CorruptState: accounts blob is unreadable, treating as empty", "error", err)
		return accounts, nil
	}

	for key, user := range stored {
		if user == nil {
			continue
		}
		if strings.TrimSpace(user.Email) == "" {
			user.Email = key
		}
		accounts[domain.NormalizeEmail(key)] = user
	}
	return accounts, nil
}

func encode(accounts map[string]*domain.User) (string, error) {
	data, err := json.Marshal(accounts)
	if err != nil {
		return "", fmt.Errorf("failed to encode accounts: %w", err)
	}
	return string(data), nil
}
