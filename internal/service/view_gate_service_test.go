package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradeboard/pointhub/internal/model"
	"tradeboard/pointhub/internal/repository"
	"tradeboard/pointhub/internal/testutil"
)

// quotaRaceStore makes every view-count increment lose the race, as if a
// concurrent reveal took the last unit between the check and the increment.
type quotaRaceStore struct {
	repository.Store
}

func (s quotaRaceStore) Listings() repository.ListingRepository {
	return quotaLostListings{s.Store.Listings()}
}

func (s quotaRaceStore) WithTx(ctx context.Context, fn func(tx repository.Store) error) error {
	return s.Store.WithTx(ctx, func(tx repository.Store) error {
		return fn(quotaRaceStore{tx})
	})
}

type quotaLostListings struct {
	repository.ListingRepository
}

func (quotaLostListings) IncrementViewCount(context.Context, uuid.UUID) error {
	return repository.ErrConditionNotMet
}

func newViewGate(f *fixture) ViewGateService {
	return NewViewGateService(f.store, f.ledger, ViewGateOptions{ViewCost: 1})
}

func TestReveal_PaidThenFree(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	viewer := testutil.CreateUser(t, f.db, "VIEWRA", 100)
	owner := testutil.CreateUser(t, f.db, "OWNERB", 0)
	listing := testutil.CreateListing(t, f.db, owner.ID, testutil.WithViews(5, 0))
	gate := newViewGate(f)

	res, err := gate.Reveal(ctx, viewer.ID, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, owner.Contact, res.Contact)
	assert.False(t, res.AlreadyViewed)
	assert.Equal(t, int64(99), testutil.ReloadUser(t, f.db, viewer.ID).Points)
	assert.Equal(t, 1, testutil.ReloadListing(t, f.db, listing.ID).ViewCount)
	assert.Equal(t, int64(1), testutil.Count(t, f.db, &model.ViewRecord{}, "viewer_id = ? AND listing_id = ?", viewer.ID, listing.ID))

	entries := testutil.LedgerEntries(t, f.db, viewer.ID)
	require.Len(t, entries, 2)
	assert.Equal(t, model.ChangeKindSpendView, entries[1].ChangeKind)
	assert.Equal(t, int64(99), entries[1].BalanceAfter)
	require.NotNil(t, entries[1].RelatedID)
	assert.Equal(t, listing.ID, *entries[1].RelatedID)

	res, err = gate.Reveal(ctx, viewer.ID, listing.ID)
	require.NoError(t, err)
	assert.True(t, res.AlreadyViewed)
	assert.Equal(t, owner.Contact, res.Contact)
	assert.Equal(t, int64(99), testutil.ReloadUser(t, f.db, viewer.ID).Points)
	assert.Equal(t, 1, testutil.ReloadListing(t, f.db, listing.ID).ViewCount)
	assert.Len(t, testutil.LedgerEntries(t, f.db, viewer.ID), 2)
}

func TestReveal_ExhaustedDeniesEarlierViewer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	viewer := testutil.CreateUser(t, f.db, "VIEWRA", 10)
	owner := testutil.CreateUser(t, f.db, "OWNERB", 0)
	listing := testutil.CreateListing(t, f.db, owner.ID, testutil.WithViews(3, 3))

	viewedAt := time.Now().Add(-time.Hour).Truncate(time.Second)
	record := &model.ViewRecord{ViewerID: viewer.ID, ListingID: listing.ID, ViewedAt: viewedAt}
	require.NoError(t, f.db.Create(record).Error)

	_, err := newViewGate(f).Reveal(ctx, viewer.ID, listing.ID)
	assert.ErrorIs(t, err, ErrQuotaExhausted)

	assert.Equal(t, int64(10), testutil.ReloadUser(t, f.db, viewer.ID).Points)
	var after model.ViewRecord
	require.NoError(t, f.db.First(&after, "id = ?", record.ID).Error)
	assert.True(t, after.ViewedAt.Equal(viewedAt))
}

func TestReveal_Failures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rich := testutil.CreateUser(t, f.db, "RICH01", 10)
	broke := testutil.CreateUser(t, f.db, "BROKE1", 0)
	seller := testutil.CreateUser(t, f.db, "SELLER", 0)
	active := testutil.CreateListing(t, f.db, seller.ID)
	withdrawn := testutil.CreateListing(t, f.db, seller.ID, testutil.Withdrawn())
	gate := newViewGate(f)

	tests := []struct {
		name    string
		viewer  uuid.UUID
		listing uuid.UUID
		want    error
	}{
		{"missing listing", rich.ID, uuid.New(), ErrListingNotFound},
		{"withdrawn listing", rich.ID, withdrawn.ID, ErrListingWithdrawn},
		{"no points", broke.ID, active.ID, ErrInsufficientFunds},
		{"unknown viewer", uuid.New(), active.ID, ErrUserNotFound},
		{"nil ids", uuid.Nil, active.ID, ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := gate.Reveal(ctx, tt.viewer, tt.listing)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	assert.Equal(t, 0, testutil.ReloadListing(t, f.db, active.ID).ViewCount)
	assert.Equal(t, int64(0), testutil.Count(t, f.db, &model.ViewRecord{}, ""))
	assert.Equal(t, int64(10), testutil.ReloadUser(t, f.db, rich.ID).Points)
}

func TestReveal_LateQuotaFailureRollsBackDebit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	viewer := testutil.CreateUser(t, f.db, "VIEWRA", 10)
	owner := testutil.CreateUser(t, f.db, "OWNERB", 0)
	listing := testutil.CreateListing(t, f.db, owner.ID, testutil.WithViews(5, 4))

	gate := NewViewGateService(quotaRaceStore{f.store}, f.ledger, ViewGateOptions{ViewCost: 1})
	_, err := gate.Reveal(ctx, viewer.ID, listing.ID)
	assert.ErrorIs(t, err, ErrQuotaExhausted)

	assert.Equal(t, int64(10), testutil.ReloadUser(t, f.db, viewer.ID).Points)
	assert.Len(t, testutil.LedgerEntries(t, f.db, viewer.ID), 1)
	assert.Equal(t, int64(0), testutil.Count(t, f.db, &model.ViewRecord{}, ""))
}

func TestReveal_LateQuotaFailureCanKeepDebit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	viewer := testutil.CreateUser(t, f.db, "VIEWRA", 10)
	owner := testutil.CreateUser(t, f.db, "OWNERB", 0)
	listing := testutil.CreateListing(t, f.db, owner.ID, testutil.WithViews(5, 4))

	gate := NewViewGateService(quotaRaceStore{f.store}, f.ledger, ViewGateOptions{
		ViewCost:                    1,
		KeepDebitOnLateQuotaFailure: true,
	})
	_, err := gate.Reveal(ctx, viewer.ID, listing.ID)
	assert.ErrorIs(t, err, ErrQuotaExhausted)

	assert.Equal(t, int64(9), testutil.ReloadUser(t, f.db, viewer.ID).Points)
	assert.Len(t, testutil.LedgerEntries(t, f.db, viewer.ID), 2)
	assert.Equal(t, int64(0), testutil.Count(t, f.db, &model.ViewRecord{}, ""))
	assert.Equal(t, 4, testutil.ReloadListing(t, f.db, listing.ID).ViewCount)
}

func TestReveal_ConcurrentViewersNeverExceedQuota(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, f.db, "OWNERB", 0)
	listing := testutil.CreateListing(t, f.db, owner.ID, testutil.WithViews(3, 0))
	gate := newViewGate(f)

	const viewers = 10
	ids := make([]uuid.UUID, viewers)
	for i := range ids {
		ids[i] = testutil.CreateUser(t, f.db, fmt.Sprintf("VIEW%02d", i), 5).ID
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		exhausted int
	)
	for _, id := range ids {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			_, err := gate.Reveal(ctx, id, listing.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case assert.ErrorIs(t, err, ErrQuotaExhausted):
				exhausted++
			}
		}(id)
	}
	wg.Wait()

	assert.Equal(t, 3, succeeded)
	assert.Equal(t, viewers-3, exhausted)
	assert.Equal(t, 3, testutil.ReloadListing(t, f.db, listing.ID).ViewCount)
	assert.Equal(t, int64(3), testutil.Count(t, f.db, &model.LedgerEntry{}, "change_kind = ?", model.ChangeKindSpendView))
}

func TestDetail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, f.db, "OWNERB", 0)
	listing := testutil.CreateListing(t, f.db, owner.ID, testutil.WithViews(10, 4))
	gate := newViewGate(f)

	detail, err := gate.Detail(ctx, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, detail.ViewCount)
	assert.Equal(t, 10, detail.ViewLimit)
	assert.Equal(t, 6, detail.Remaining)
	assert.Equal(t, model.ListingStatusActive, detail.Status)

	_, err = gate.Detail(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}
