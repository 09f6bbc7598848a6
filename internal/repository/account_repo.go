// internal/repository/account_repo.go
package repository

import (
	"context"

	"novapay-wallet/internal/domain"
)

// AccountRepository defines the interface for account record operations.
// Emails are normalized by the implementation; callers may pass them as typed.
type AccountRepository interface {
	// Load retrieves an account, migrating and persisting records written by older versions.
	// It returns util.ErrNotFound when no account exists for the email.
	Load(ctx context.Context, email string) (*domain.User, error)
	// Save upserts the full record. Last write wins.
	Save(ctx context.Context, user *domain.User) error
	// List returns every account ordered by normalized email.
	List(ctx context.Context) ([]*domain.User, error)
	// Count returns the number of accounts stored on this device.
	Count(ctx context.Context) (int, error)
}
