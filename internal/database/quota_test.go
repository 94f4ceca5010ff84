package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQuotaLifecycle(t *testing.T) {
	user := createTestUser(t)

	ledger, err := testStore.GetQuota(context.Background(), user.UserID)
	require.NoError(t, err)
	require.NotNil(t, ledger)
	require.Equal(t, "1073741824", ledger.UploadLimit)
	require.Equal(t, "0", ledger.UploadUsed)
	require.Equal(t, "134217728", ledger.OnlineEditLimit)
	require.Equal(t, "0", ledger.OnlineEditUsed)

	require.True(t, ledger.IncreaseUploadUsed(4096))
	require.NoError(t, testStore.UpdateQuotaUsage(context.Background(), ledger))

	reloaded, err := testStore.GetQuota(context.Background(), user.UserID)
	require.NoError(t, err)
	require.Equal(t, "4096", reloaded.UploadUsed)
	require.Equal(t, "0", reloaded.OnlineEditUsed)
}

func TestQuotaMissingUser(t *testing.T) {
	ledger, err := testStore.GetQuota(context.Background(), "00000000-0000-0000-0000-0000000000aa")
	require.NoError(t, err)
	require.Nil(t, ledger)
}

func TestUpdateQuotaLimits(t *testing.T) {
	user := createTestUser(t)

	// Limit ponad zakresem int64 musi przejść bez strat.
	bigLimit := "92233720368547758080000"
	require.NoError(t, testStore.UpdateQuotaLimits(context.Background(), user.UserID, &bigLimit, nil))

	ledger, err := testStore.GetQuota(context.Background(), user.UserID)
	require.NoError(t, err)
	require.Equal(t, bigLimit, ledger.UploadLimit)
	require.Equal(t, "134217728", ledger.OnlineEditLimit, "nil leaves the other limit untouched")
}

func TestExecTxRollback(t *testing.T) {
	user := createTestUser(t)

	txErr := testStore.ExecTx(context.Background(), func(q *Queries) error {
		ledger, err := q.GetQuotaForUpdate(context.Background(), user.UserID)
		if err != nil {
			return err
		}
		ledger.IncreaseUploadUsed(999)
		if err := q.UpdateQuotaUsage(context.Background(), ledger); err != nil {
			return err
		}
		return context.Canceled
	})
	require.ErrorIs(t, txErr, context.Canceled)

	ledger, err := testStore.GetQuota(context.Background(), user.UserID)
	require.NoError(t, err)
	require.Equal(t, "0", ledger.UploadUsed, "a failed transaction must not leak quota changes")
}
