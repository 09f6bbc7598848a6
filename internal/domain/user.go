// internal/domain/user.go
package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// WelcomeBonusDescription labels the registration credit.
	WelcomeBonusDescription = "Welcome Bonus"
	// MigratedBonusID is the fixed ID given to a welcome bonus synthesized for a legacy record.
	MigratedBonusID = "trx-init"
	// DefaultUserName is used when an account is created without a display name.
	DefaultUserName = "User"
)

// Balances and amounts are stored and synced as JSON numbers, the shape the
// web client reads and writes.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// WelcomeBonus is the opening balance of every new account.
var WelcomeBonus = decimal.NewFromInt(10000)

// User is the persisted account record, keyed by normalized email.
type User struct {
	Name             string          `json:"name"`
	Email            string          `json:"email"`
	Balance          decimal.Decimal `json:"balance"`
	ProfileImage     string          `json:"profileImage,omitempty"` // data URI, empty = default avatar
	IsSubscribed     bool            `json:"isSubscribed"`
	SubscriptionPlan string          `json:"subscriptionPlan,omitempty"`
	Transactions     []Transaction   `json:"transactions"` // Newest first
	RewardStatus     *RewardStatus   `json:"rewardStatus"`
}

// NormalizeEmail returns the identity key for an email address.
// Every store entry point goes through it.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Key returns the normalized storage key of the user.
func (u *User) Key() string {
	return NormalizeEmail(u.Email)
}

// NewUser creates a freshly registered account holding the welcome bonus.
func NewUser(name, email string, now time.Time) *User {
	if strings.TrimSpace(name) == "" {
		name = DefaultUserName
	}
	return &User{
		Name:         name,
		Email:        strings.TrimSpace(email),
		Balance:      WelcomeBonus,
		IsSubscribed: false,
		Transactions: []Transaction{
			NewTransaction(TxContextInit, TransactionTypeCredit, WelcomeBonus, WelcomeBonusDescription, now),
		},
		RewardStatus: NewRewardStatus(),
	}
}

// Migrate fills in fields missing from records written by older versions.
// It reports whether anything changed, in which case the caller must persist.
func (u *User) Migrate(now time.Time) bool {
	changed := false
	if u.Transactions == nil {
		bonus := NewTransaction(TxContextInit, TransactionTypeCredit, WelcomeBonus, WelcomeBonusDescription, now)
		bonus.ID = MigratedBonusID
		u.Transactions = []Transaction{bonus}
		changed = true
	}
	if u.RewardStatus == nil {
		u.RewardStatus = NewRewardStatus()
		changed = true
	}
	if u.RewardStatus.CurrentDay < 1 {
		u.RewardStatus.CurrentDay = 1
		changed = true
	}
	if u.RewardStatus.CurrentDay > MaxRewardDay {
		u.RewardStatus.CurrentDay = MaxRewardDay
		changed = true
	}
	return changed
}

// Apply records a ledger entry and moves the balance by its signed amount.
// It does not check solvency; debit flows do that before calling it.
func (u *User) Apply(tx Transaction) {
	u.Balance = u.Balance.Add(tx.SignedAmount())
	u.Transactions = append([]Transaction{tx}, u.Transactions...)
}

// CanAfford reports whether a debit of amount keeps the balance non-negative.
func (u *User) CanAfford(amount decimal.Decimal) bool {
	return amount.LessThanOrEqual(u.Balance)
}

// DisplayBalance formats the balance with two decimal places.
func (u *User) DisplayBalance() string {
	return u.Balance.StringFixed(2)
}

// Clone returns a deep copy, so a snapshot handed to a caller cannot alias the stored record.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.Transactions != nil {
		c.Transactions = make([]Transaction, len(u.Transactions))
		copy(c.Transactions, u.Transactions)
	}
	if u.RewardStatus != nil {
		rs := *u.RewardStatus
		c.RewardStatus = &rs
	}
	return &c
}
