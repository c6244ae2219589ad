package service

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradeboard/pointhub/internal/model"
	"tradeboard/pointhub/internal/testutil"
)

func TestLedger_ApplyCreditThenDebit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db, "LEDG01", 0)

	entry, err := f.ledger.Apply(ctx, user.ID, Change{Amount: 50, Kind: model.ChangeKindRecharge, Description: "top up"})
	require.NoError(t, err)
	assert.Equal(t, int64(50), entry.BalanceAfter)

	entry, err = f.ledger.Apply(ctx, user.ID, Change{Amount: -20, Kind: model.ChangeKindSpendView})
	require.NoError(t, err)
	assert.Equal(t, int64(30), entry.BalanceAfter)
	assert.Equal(t, int64(-20), entry.ChangeAmount)

	assert.Equal(t, int64(30), testutil.ReloadUser(t, f.db, user.ID).Points)
}

func TestLedger_InsufficientFundsLeavesNoTrace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db, "LEDG02", 5)

	_, err := f.ledger.Apply(ctx, user.ID, Change{Amount: -6, Kind: model.ChangeKindSpendView})
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	assert.Equal(t, int64(5), testutil.ReloadUser(t, f.db, user.ID).Points)
	assert.Len(t, testutil.LedgerEntries(t, f.db, user.ID), 1)

	// Spending the exact balance is allowed.
	entry, err := f.ledger.Apply(ctx, user.ID, Change{Amount: -5, Kind: model.ChangeKindSpendView})
	require.NoError(t, err)
	assert.Equal(t, int64(0), entry.BalanceAfter)
}

func TestLedger_RejectsBadInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db, "LEDG03", 10)

	tests := []struct {
		name   string
		userID uuid.UUID
		change Change
		want   error
	}{
		{"zero amount", user.ID, Change{Amount: 0, Kind: model.ChangeKindRecharge}, ErrValidation},
		{"unknown kind", user.ID, Change{Amount: 1, Kind: "gift"}, ErrValidation},
		{"unknown user", uuid.New(), Change{Amount: 1, Kind: model.ChangeKindRecharge}, ErrUserNotFound},
		{"unknown user debit", uuid.New(), Change{Amount: -1, Kind: model.ChangeKindSpendView}, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ledger.Apply(ctx, tt.userID, tt.change)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Len(t, testutil.LedgerEntries(t, f.db, user.ID), 1)
}

func TestLedger_ConservationAndBalanceAfterChain(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db, "LEDG04", 0)

	changes := []Change{
		{Amount: 100, Kind: model.ChangeKindRecharge},
		{Amount: -1, Kind: model.ChangeKindSpendView},
		{Amount: -10, Kind: model.ChangeKindSpendPublish},
		{Amount: 7, Kind: model.ChangeKindRefund},
		{Amount: 30, Kind: model.ChangeKindReferralReward},
	}
	var running int64
	for _, c := range changes {
		entry, err := f.ledger.Apply(ctx, user.ID, c)
		require.NoError(t, err)
		running += c.Amount
		assert.Equal(t, running, entry.BalanceAfter)
	}

	report, err := f.ledger.Audit(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, report.Consistent)
	assert.Equal(t, int64(126), report.Points)
	assert.Equal(t, int64(126), report.LedgerSum)
	assert.Equal(t, int64(5), report.EntryCount)
}

func TestLedger_AuditDetectsDrift(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db, "LEDG05", 40)

	require.NoError(t, f.db.Model(&model.User{}).Where("id = ?", user.ID).Update("points", 41).Error)

	report, err := f.ledger.Audit(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, report.Consistent)
	assert.Equal(t, int64(41), report.Points)
	assert.Equal(t, int64(40), report.LedgerSum)
}

func TestLedger_ConcurrentAppliesDoNotLoseUpdates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db, "LEDG06", 10)

	const workers = 20
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			amount := int64(1)
			kind := model.ChangeKindRefund
			if i%2 == 0 {
				amount, kind = -1, model.ChangeKindSpendView
			}
			_, err := f.ledger.Apply(ctx, user.ID, Change{Amount: amount, Kind: kind})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	report, err := f.ledger.Audit(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), report.Points)
	assert.True(t, report.Consistent)
	assert.Equal(t, int64(workers+1), report.EntryCount)
}

func TestLedger_History(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db, "LEDG07", 0)

	for i := 0; i < 25; i++ {
		_, err := f.ledger.Apply(ctx, user.ID, Change{Amount: 1, Kind: model.ChangeKindRecharge})
		require.NoError(t, err)
	}

	entries, err := f.ledger.History(ctx, user.ID, 0, 0)
	require.NoError(t, err)
	assert.Len(t, entries, defaultHistoryLimit)
	for i := 1; i < len(entries); i++ {
		assert.False(t, entries[i].CreatedAt.After(entries[i-1].CreatedAt), "history must be newest first")
	}

	entries, err = f.ledger.History(ctx, user.ID, 500, 20)
	require.NoError(t, err)
	assert.Len(t, entries, 5)

	_, err = f.ledger.History(ctx, uuid.New(), 10, 0)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
