// internal/domain/user_test.go
package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 12, 24, 9, 30, 0, 123_000_000, time.UTC)

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "ada@x.com", NormalizeEmail("  Ada@X.com "))
	assert.Equal(t, "", NormalizeEmail("   "))

	u := &User{Email: "ADA@x.COM"}
	assert.Equal(t, "ada@x.com", u.Key())
}

func TestNewUser(t *testing.T) {
	u := NewUser("Ada", "Ada@x.com", fixedNow)

	assert.Equal(t, "Ada", u.Name)
	assert.Equal(t, "Ada@x.com", u.Email, "display email keeps its case")
	assert.Equal(t, "10000.00", u.DisplayBalance())
	assert.False(t, u.IsSubscribed)
	require.Len(t, u.Transactions, 1)

	bonus := u.Transactions[0]
	assert.Equal(t, "trx-init-1766568600123", bonus.ID)
	assert.Equal(t, TransactionTypeCredit, bonus.Type)
	assert.True(t, bonus.Amount.Equal(WelcomeBonus))
	assert.Equal(t, WelcomeBonusDescription, bonus.Description)
	assert.Equal(t, TransactionStatusSuccess, bonus.Status)
	assert.Equal(t, RewardStatus{CurrentDay: 1, LastClaimedTimestamp: 0}, *u.RewardStatus)

	t.Run("BlankNameFallsBack", func(t *testing.T) {
		assert.Equal(t, DefaultUserName, NewUser(" ", "b@x.com", fixedNow).Name)
	})
}

func TestMigrate(t *testing.T) {
	t.Run("LegacyRecordGetsDefaults", func(t *testing.T) {
		var u User
		require.NoError(t, json.Unmarshal([]byte(`{"name":"Old","email":"old@x.com","balance":2500}`), &u))

		assert.True(t, u.Migrate(fixedNow))
		require.Len(t, u.Transactions, 1)
		assert.Equal(t, MigratedBonusID, u.Transactions[0].ID)
		assert.Equal(t, WelcomeBonusDescription, u.Transactions[0].Description)
		assert.True(t, u.Transactions[0].Amount.Equal(decimal.NewFromInt(10000)))
		assert.Equal(t, RewardStatus{CurrentDay: 1}, *u.RewardStatus)
		assert.True(t, u.Balance.Equal(decimal.NewFromInt(2500)), "migration never touches the balance")

		assert.False(t, u.Migrate(fixedNow.Add(time.Hour)), "second pass is a no-op")
	})

	t.Run("EmptyLedgerIsKept", func(t *testing.T) {
		var u User
		require.NoError(t, json.Unmarshal([]byte(`{"email":"e@x.com","balance":1,"transactions":[],"rewardStatus":{"currentDay":4,"lastClaimedTimestamp":9}}`), &u))

		assert.False(t, u.Migrate(fixedNow))
		assert.Empty(t, u.Transactions)
		assert.Equal(t, 4, u.RewardStatus.CurrentDay)
	})

	t.Run("OutOfRangeDayIsClamped", func(t *testing.T) {
		u := NewUser("A", "a@x.com", fixedNow)
		u.RewardStatus.CurrentDay = 250
		assert.True(t, u.Migrate(fixedNow))
		assert.Equal(t, MaxRewardDay, u.RewardStatus.CurrentDay)
	})
}

func TestApplyPrependsAndMovesBalance(t *testing.T) {
	u := NewUser("Ada", "ada@x.com", fixedNow)

	credit := NewTransaction(TxContextInvite, TransactionTypeCredit, decimal.NewFromInt(50000), "Invite & Earn Reward", fixedNow.Add(time.Second))
	u.Apply(credit)
	debit := NewTransaction(TxContextTransfer, TransactionTypeDebit, decimal.NewFromInt(7500), "Transfer to GTBank - John", fixedNow.Add(2*time.Second))
	u.Apply(debit)

	assert.Equal(t, "52500.00", u.DisplayBalance())
	require.Len(t, u.Transactions, 3)
	assert.Equal(t, debit.ID, u.Transactions[0].ID)
	assert.Equal(t, credit.ID, u.Transactions[1].ID)
	assert.Equal(t, WelcomeBonusDescription, u.Transactions[2].Description)
}

func TestCanAfford(t *testing.T) {
	u := NewUser("Ada", "ada@x.com", fixedNow)
	assert.True(t, u.CanAfford(decimal.NewFromInt(10000)))
	assert.False(t, u.CanAfford(decimal.NewFromInt(12000)))
}

func TestCloneIsDeep(t *testing.T) {
	u := NewUser("Ada", "ada@x.com", fixedNow)
	c := u.Clone()

	c.Transactions[0].Description = "changed"
	c.RewardStatus.CurrentDay = 9
	c.Name = "Other"

	assert.Equal(t, WelcomeBonusDescription, u.Transactions[0].Description)
	assert.Equal(t, 1, u.RewardStatus.CurrentDay)
	assert.Equal(t, "Ada", u.Name)
	assert.Nil(t, (*User)(nil).Clone())
}

func TestUserJSONShape(t *testing.T) {
	u := NewUser("Ada", "ada@x.com", fixedNow)
	raw, err := json.Marshal(u)
	require.NoError(t, err)

	var shape map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &shape))
	for _, key := range []string{"name", "email", "balance", "isSubscribed", "transactions", "rewardStatus"} {
		assert.Contains(t, shape, key)
	}
	assert.NotContains(t, shape, "profileImage", "empty avatar is omitted")
	assert.NotContains(t, shape, "subscriptionPlan")
}
