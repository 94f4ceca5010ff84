package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestLedger() *QuotaLedger {
	return &QuotaLedger{
		UserID:          "test-user",
		UploadLimit:     "1000",
		UploadUsed:      "0",
		OnlineEditLimit: "500",
		OnlineEditUsed:  "0",
	}
}

func TestIncreaseUploadUsed(t *testing.T) {
	ledger := newTestLedger()

	require.True(t, ledger.IncreaseUploadUsed(400))
	require.Equal(t, "400", ledger.UploadUsed)

	require.True(t, ledger.IncreaseUploadUsed(600))
	require.Equal(t, "1000", ledger.UploadUsed, "filling the pool exactly to the limit should succeed")

	require.False(t, ledger.IncreaseUploadUsed(1))
	require.Equal(t, "1000", ledger.UploadUsed, "a rejected increase must not change the pool")
}

func TestDecreaseUploadUsedFloorsAtZero(t *testing.T) {
	ledger := newTestLedger()
	ledger.UploadUsed = "300"

	ledger.DecreaseUploadUsed(200)
	require.Equal(t, "100", ledger.UploadUsed)

	ledger.DecreaseUploadUsed(500)
	require.Equal(t, "0", ledger.UploadUsed, "usage must never go negative")
}

func TestReplaceOnlineEditUsed(t *testing.T) {
	ledger := newTestLedger()
	require.True(t, ledger.IncreaseOnlineEditUsed(300))

	// Podmiana 100 -> 250: used = 300 - 100 + 250 = 450.
	require.True(t, ledger.ReplaceOnlineEditUsed(100, 250))
	require.Equal(t, "450", ledger.OnlineEditUsed)

	// 450 - 50 + 200 = 600 > 500: odmowa bez mutacji.
	require.False(t, ledger.ReplaceOnlineEditUsed(50, 200))
	require.Equal(t, "450", ledger.OnlineEditUsed)

	// Zmniejszenie zawsze przechodzi.
	require.True(t, ledger.ReplaceOnlineEditUsed(450, 0))
	require.Equal(t, "0", ledger.OnlineEditUsed)
}

func TestPoolsAreIndependent(t *testing.T) {
	ledger := newTestLedger()

	require.True(t, ledger.IncreaseUploadUsed(1000))
	require.True(t, ledger.IncreaseOnlineEditUsed(500), "a full upload pool must not block the online-edit pool")

	ledger.DecreaseUploadUsed(1000)
	require.Equal(t, "0", ledger.UploadUsed)
	require.Equal(t, "500", ledger.OnlineEditUsed)
}

func TestQuotaRoundTrip(t *testing.T) {
	ledger := newTestLedger()

	sizes := []int64{17, 255, 1, 100}
	var total int64
	for _, size := range sizes {
		require.True(t, ledger.IncreaseUploadUsed(size))
		total += size
	}

	for _, size := range sizes {
		ledger.DecreaseUploadUsed(size)
	}
	require.Equal(t, "0", ledger.UploadUsed, "adding then removing the same sizes must return to the starting point")
}

func TestQuotaBeyondInt64(t *testing.T) {
	ledger := newTestLedger()
	// Limit większy niż zakres int64; arytmetyka nie może się przekręcić.
	ledger.UploadLimit = "92233720368547758080000"
	ledger.UploadUsed = "92233720368547758070000"

	require.True(t, ledger.IncreaseUploadUsed(10000))
	require.Equal(t, "92233720368547758080000", ledger.UploadUsed)

	require.False(t, ledger.IncreaseUploadUsed(1))
	require.Equal(t, "92233720368547758080000", ledger.UploadUsed)
}

func TestParseAmountMalformed(t *testing.T) {
	ledger := newTestLedger()
	ledger.UploadUsed = "nie-liczba"

	// Uszkodzona wartość traktowana jak zero zamiast paniki.
	require.True(t, ledger.IncreaseUploadUsed(10))
	require.Equal(t, "10", ledger.UploadUsed)
}
