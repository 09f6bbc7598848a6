// internal/repository/session_repo.go
package repository

import (
	"context"
	"time"
)

// SessionRepository tracks which account, if any, is signed in.
type SessionRepository interface {
	// Start records email as the active session. Calling it again is harmless.
	Start(ctx context.Context, email string) error
	// End clears the active session.
	End(ctx context.Context) error
	// Current returns the normalized email of the active session.
	Current(ctx context.Context) (email string, ok bool, err error)
}

// InviteRepository persists the referral-task cooldown marker.
type InviteRepository interface {
	// CooldownEnd returns when the next batch of invite tasks unlocks.
	CooldownEnd(ctx context.Context) (end time.Time, ok bool, err error)
	// SetCooldownEnd stores the unlock instant.
	SetCooldownEnd(ctx context.Context, end time.Time) error
	// ClearCooldown removes the marker.
	ClearCooldown(ctx context.Context) error
}
