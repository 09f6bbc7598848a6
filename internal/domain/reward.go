// internal/domain/reward.go
package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// RewardCooldown is the minimum gap between two daily claims.
	RewardCooldown = 24 * time.Hour
	// MaxRewardDay caps the displayed day counter. Payouts continue past it.
	MaxRewardDay = 100
)

// DailyRewardAmount is credited on every successful claim.
var DailyRewardAmount = decimal.NewFromInt(100000)

// RewardStatus tracks a user's position on the daily-reward ladder.
type RewardStatus struct {
	CurrentDay           int   `json:"currentDay"`
	LastClaimedTimestamp int64 `json:"lastClaimedTimestamp"` // Unix millis, 0 = never claimed
}

// NewRewardStatus returns the status of a user who has never claimed.
func NewRewardStatus() *RewardStatus {
	return &RewardStatus{CurrentDay: 1, LastClaimedTimestamp: 0}
}

// Claimable reports whether a claim made at now would pay out.
func (r RewardStatus) Claimable(now time.Time) bool {
	return now.UnixMilli()-r.LastClaimedTimestamp >= RewardCooldown.Milliseconds()
}

// NextClaimAt is the earliest instant a claim pays out.
func (r RewardStatus) NextClaimAt() time.Time {
	return time.UnixMilli(r.LastClaimedTimestamp + RewardCooldown.Milliseconds()).UTC()
}

// Remaining is the cooldown left at now, zero once claimable.
func (r RewardStatus) Remaining(now time.Time) time.Duration {
	if r.Claimable(now) {
		return 0
	}
	return r.NextClaimAt().Sub(now)
}

// Description labels the ledger entry for a claim made from the current day.
func (r RewardStatus) Description() string {
	return fmt.Sprintf("Daily Reward - Day %d", r.CurrentDay)
}

// Advance returns the status after a successful claim at now.
func (r RewardStatus) Advance(now time.Time) RewardStatus {
	next := r.CurrentDay + 1
	if next > MaxRewardDay {
		next = MaxRewardDay
	}
	if next < 1 {
		next = 1
	}
	return RewardStatus{CurrentDay: next, LastClaimedTimestamp: now.UnixMilli()}
}

// Invite & Earn task reward.
const (
	InviteRewardDescription = "Invite & Earn Reward"
	// InviteCooldown is how long the next batch of invite tasks stays locked after a payout.
	InviteCooldown = time.Minute
)

// InviteRewardAmount is the flat credit for a completed invite batch.
var InviteRewardAmount = decimal.NewFromInt(50000)
