// internal/repository/kvstore/account_store_test.go
package kvstore

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"novapay-wallet/internal/domain"
	"novapay-wallet/internal/repository"
	"novapay-wallet/internal/repository/memory"
	"novapay-wallet/internal/util"
)

var fixedNow = time.Date(2025, 12, 24, 9, 30, 0, 123_000_000, time.UTC)

func newAccountStore(t *testing.T, strict bool) (*AccountStore, *memory.KVStore) {
	t.Helper()
	kv := memory.NewKVStore()
	store := NewAccountStore(kv, util.DiscardLogger(), strict)
	store.now = func() time.Time { return fixedNow }
	return store, kv
}

func TestAccountStoreSaveAndLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("NormalizesEmail", func(t *testing.T) {
		store, _ := newAccountStore(t, false)
		require.NoError(t, store.Save(ctx, domain.NewUser("Ada", " Ada@X.com ", fixedNow)))

		user, err := store.Load(ctx, "ADA@x.com")
		require.NoError(t, err)
		assert.Equal(t, "Ada", user.Name)
		assert.True(t, user.Balance.Equal(decimal.NewFromInt(10000)))
		require.Len(t, user.Transactions, 1)
		assert.Equal(t, "trx-init-1766568600123", user.Transactions[0].ID)
	})

	t.Run("LastWriteWins", func(t *testing.T) {
		store, _ := newAccountStore(t, false)
		user := domain.NewUser("Ada", "ada@x.com", fixedNow)
		require.NoError(t, store.Save(ctx, user))

		user.Balance = decimal.NewFromInt(42)
		require.NoError(t, store.Save(ctx, user))

		loaded, err := store.Load(ctx, "ada@x.com")
		require.NoError(t, err)
		assert.True(t, loaded.Balance.Equal(decimal.NewFromInt(42)))
		count, err := store.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("NotFound", func(t *testing.T) {
		store, _ := newAccountStore(t, false)
		_, err := store.Load(ctx, "ghost@x.com")
		assert.True(t, util.IsError(err, util.ErrNotFound))
	})

	t.Run("BlankEmail", func(t *testing.T) {
		store, _ := newAccountStore(t, false)
		_, err := store.Load(ctx, "  ")
		assert.True(t, util.IsError(err, util.ErrInvalidInput))
		assert.True(t, util.IsError(store.Save(ctx, &domain.User{}), util.ErrInvalidInput))
		assert.True(t, util.IsError(store.Save(ctx, nil), util.ErrInvalidInput))
	})
}

func TestAccountStoreMigration(t *testing.T) {
	ctx := context.Background()
	store, kv := newAccountStore(t, false)
	legacy := `{"old@x.com":{"name":"Old","email":"old@x.com","balance":5000,"isSubscribed":false}}`
	require.NoError(t, kv.Set(ctx, repository.KeyAccounts, legacy))

	user, err := store.Load(ctx, "old@x.com")
	require.NoError(t, err)
	require.Len(t, user.Transactions, 1)
	assert.Equal(t, domain.MigratedBonusID, user.Transactions[0].ID)
	assert.True(t, user.Transactions[0].Amount.Equal(decimal.NewFromInt(10000)))
	assert.Equal(t, domain.WelcomeBonusDescription, user.Transactions[0].Description)
	assert.Equal(t, domain.RewardStatus{CurrentDay: 1, LastClaimedTimestamp: 0}, *user.RewardStatus)
	assert.True(t, user.Balance.Equal(decimal.NewFromInt(5000)), "migration does not touch the balance")

	raw, _, err := kv.Get(ctx, repository.KeyAccounts)
	require.NoError(t, err)
	assert.Contains(t, raw, `"id":"trx-init"`)
	assert.Contains(t, raw, `"rewardStatus":{"currentDay":1,"lastClaimedTimestamp":0}`)
	assert.Contains(t, raw, `"balance":5000`)
	assert.Contains(t, raw, `"amount":10000`)
}

func TestAccountStoreDecode(t *testing.T) {
	ctx := context.Background()

	t.Run("NullEntriesSkippedAndEmailFilled", func(t *testing.T) {
		store, kv := newAccountStore(t, false)
		require.NoError(t, kv.Set(ctx, repository.KeyAccounts,
			`{"gone@x.com":null,"b@x.com":{"name":"B","balance":1,"transactions":[],"rewardStatus":{"currentDay":3,"lastClaimedTimestamp":0}}}`))

		users, err := store.List(ctx)
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, "b@x.com", users[0].Email)
		assert.Equal(t, 3, users[0].RewardStatus.CurrentDay)
	})

	t.Run("CorruptFailsOpen", func(t *testing.T) {
		store, kv := newAccountStore(t, false)
		require.NoError(t, kv.Set(ctx, repository.KeyAccounts, "{not json"))

		count, err := store.Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, count)

		require.NoError(t, store.Save(ctx, domain.NewUser("Ada", "ada@x.com", fixedNow)))
		count, err = store.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("CorruptStrict", func(t *testing.T) {
		store, kv := newAccountStore(t, true)
		require.NoError(t, kv.Set(ctx, repository.KeyAccounts, "{not json"))

		_, err := store.Load(ctx, "ada@x.com")
		assert.True(t, util.IsError(err, util.ErrCorruptState))

		err = store.Save(ctx, domain.NewUser("Ada", "ada@x.com", fixedNow))
		assert.True(t, util.IsError(err, util.ErrCorruptState))

		raw, _, err := kv.Get(ctx, repository.KeyAccounts)
		require.NoError(t, err)
		assert.Equal(t, "{not json", raw, "strict mode must not overwrite the blob")
	})
}

func TestAccountStoreList(t *testing.T) {
	ctx := context.Background()
	store, _ := newAccountStore(t, false)
	for _, email := range []string{"carol@x.com", "ada@x.com", "bob@x.com"} {
		require.NoError(t, store.Save(ctx, domain.NewUser("", email, fixedNow)))
	}

	users, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, "ada@x.com", users[0].Email)
	assert.Equal(t, "bob@x.com", users[1].Email)
	assert.Equal(t, "carol@x.com", users[2].Email)
	assert.Equal(t, domain.DefaultUserName, users[0].Name)
}
