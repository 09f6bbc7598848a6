// internal/synccode/codec_test.go
package synccode

import (
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"novapay-wallet/internal/domain"
)

var issuedAt = time.Date(2025, 12, 24, 12, 0, 0, 0, time.UTC)

func sampleUser() *domain.User {
	u := domain.NewUser("Ada", "Ada@x.com", issuedAt.Add(-48*time.Hour))
	u.IsSubscribed = true
	u.SubscriptionPlan = "Monthly Plan"
	u.ProfileImage = "data:image/png;base64,iVBORw0KGgo="
	u.Apply(domain.NewTransaction(domain.TxContextTransfer, domain.TransactionTypeDebit, decimal.RequireFromString("2500.50"), "Transfer to GTBank - John", issuedAt.Add(-time.Hour)))
	u.RewardStatus.CurrentDay = 12
	u.RewardStatus.LastClaimedTimestamp = issuedAt.Add(-30 * time.Hour).UnixMilli()
	return u
}

func encodeRaw(t *testing.T, v interface{}) string {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(raw)
}

func TestRoundTrip(t *testing.T) {
	user := sampleUser()
	token, err := Encode(user, issuedAt)
	require.NoError(t, err)

	for _, elapsed := range []time.Duration{0, time.Minute, ValidityWindow} {
		payload, err := Decode(token, issuedAt.Add(elapsed))
		require.NoError(t, err, "elapsed %s", elapsed)

		assert.Equal(t, issuedAt, payload.Timestamp)
		want, _ := json.Marshal(user)
		got, _ := json.Marshal(payload.User)
		assert.JSONEq(t, string(want), string(got))
		assert.True(t, user.Balance.Equal(payload.User.Balance))
	}
}

func TestEncodeIsDeterministic(t *testing.T) {
	a, err := Encode(sampleUser(), issuedAt)
	require.NoError(t, err)
	b, err := Encode(sampleUser(), issuedAt)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := Encode(sampleUser(), issuedAt.Add(time.Millisecond))
	require.NoError(t, err)
	assert.NotEqual(t, a, c)

	_, err = Encode(nil, issuedAt)
	assert.ErrorIs(t, err, ErrInvalidRecord)
}

func TestDecodeExpired(t *testing.T) {
	token, err := Encode(sampleUser(), issuedAt)
	require.NoError(t, err)

	_, err = Decode(token, issuedAt.Add(ValidityWindow+time.Millisecond))
	assert.ErrorIs(t, err, ErrExpired)
}

func TestDecodeToleratesWhitespace(t *testing.T) {
	token, err := Encode(sampleUser(), issuedAt)
	require.NoError(t, err)

	spaced := "  " + token[:10] + "\n" + token[10:] + "\t"
	_, err = Decode(spaced, issuedAt)
	assert.NoError(t, err)
}

func TestDecodeFailures(t *testing.T) {
	ts := issuedAt.UnixMilli()

	cases := []struct {
		name  string
		token string
		want  error
	}{
		{"Empty", "   ", ErrInvalidFormat},
		{"NotBase64", "%%%not-base64%%%", ErrInvalidFormat},
		{"NotJSON", base64.StdEncoding.EncodeToString([]byte("hello")), ErrInvalidFormat},
		{"JSONArray", encodeRaw(t, []int{1, 2}), ErrInvalidFormat},
		{"MissingBoth", encodeRaw(t, map[string]interface{}{"x": 1}), ErrInvalidFormat},
		{"MissingT", encodeRaw(t, map[string]interface{}{"d": map[string]interface{}{"email": "a@x.com", "balance": 1}}), ErrInvalidFormat},
		{"ZeroT", encodeRaw(t, map[string]interface{}{"t": 0, "d": map[string]interface{}{"email": "a@x.com", "balance": 1}}), ErrInvalidFormat},
		{"NullD", encodeRaw(t, map[string]interface{}{"t": ts, "d": nil}), ErrInvalidFormat},
		{"Legacy", encodeRaw(t, map[string]interface{}{"email": "a@x.com", "balance": 1, "name": "A"}), ErrUnsupportedLegacyFormat},
		{"NoEmail", encodeRaw(t, map[string]interface{}{"t": ts, "d": map[string]interface{}{"name": "A", "balance": 1}}), ErrInvalidRecord},
		{"BlankEmail", encodeRaw(t, map[string]interface{}{"t": ts, "d": map[string]interface{}{"email": " ", "balance": 1}}), ErrInvalidRecord},
		{"NoBalance", encodeRaw(t, map[string]interface{}{"t": ts, "d": map[string]interface{}{"email": "a@x.com"}}), ErrInvalidRecord},
		{"NullBalance", encodeRaw(t, map[string]interface{}{"t": ts, "d": map[string]interface{}{"email": "a@x.com", "balance": nil}}), ErrInvalidRecord},
		{"BadBalance", encodeRaw(t, map[string]interface{}{"t": ts, "d": map[string]interface{}{"email": "a@x.com", "balance": "lots"}}), ErrInvalidRecord},
		{"RecordNotObject", encodeRaw(t, map[string]interface{}{"t": ts, "d": "a@x.com"}), ErrInvalidRecord},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			payload, err := Decode(tc.token, issuedAt)
			assert.ErrorIs(t, err, tc.want)
			assert.Nil(t, payload)
		})
	}
}

func TestDecodeExpiryCheckedBeforeRecord(t *testing.T) {
	stale := encodeRaw(t, map[string]interface{}{"t": issuedAt.UnixMilli(), "d": map[string]interface{}{"name": "no email"}})
	_, err := Decode(stale, issuedAt.Add(time.Hour))
	assert.ErrorIs(t, err, ErrExpired)
}

func TestDecodeAcceptsNumericBalanceFromBrowserExport(t *testing.T) {
	token := encodeRaw(t, map[string]interface{}{
		"t": issuedAt.UnixMilli(),
		"d": map[string]interface{}{"name": "Web", "email": "web@x.com", "balance": 110000.5},
	})

	payload, err := Decode(token, issuedAt.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, "110000.50", payload.User.DisplayBalance())
	assert.Nil(t, payload.User.Transactions, "migration is left to the importing flow")
}

func TestEncodeWritesNumericAmounts(t *testing.T) {
	token, err := Encode(sampleUser(), issuedAt)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(token)
	require.NoError(t, err)
	var wrapper struct {
		D struct {
			Balance      interface{} `json:"balance"`
			Transactions []struct {
				Amount interface{} `json:"amount"`
			} `json:"transactions"`
		} `json:"d"`
	}
	require.NoError(t, json.Unmarshal(raw, &wrapper))

	assert.IsType(t, float64(0), wrapper.D.Balance)
	assert.Equal(t, 7499.5, wrapper.D.Balance)
	require.Len(t, wrapper.D.Transactions, 2)
	for _, tx := range wrapper.D.Transactions {
		assert.IsType(t, float64(0), tx.Amount)
	}
	assert.Equal(t, 2500.5, wrapper.D.Transactions[0].Amount)
}

func TestWindowHelpers(t *testing.T) {
	now := time.Date(2025, 12, 24, 12, 7, 31, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 12, 24, 12, 5, 0, 0, time.UTC), WindowStart(now))
	assert.Equal(t, issuedAt.Add(5*time.Minute), ExpiresAt(issuedAt))
}
