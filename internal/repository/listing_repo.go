package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"tradeboard/pointhub/internal/model"
)

type ListingRepository interface {
	Create(ctx context.Context, listing *model.Listing) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Listing, error)
	// GetByIDForUpdate reads the listing and locks its row until the
	// surrounding transaction ends (no-op on sqlite, which serializes writers).
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Listing, error)
	// IncrementViewCount adds one view only while the listing is active and
	// under its limit; otherwise ErrConditionNotMet.
	IncrementViewCount(ctx context.Context, id uuid.UUID) error
	// MarkWithdrawn flips an active listing to withdrawn; ErrConditionNotMet
	// when it was not active anymore.
	MarkWithdrawn(ctx context.Context, id uuid.UUID, at time.Time) error
	// ListActiveExpiredBefore pages active listings with expire_at < now in
	// (expire_at, id) order, starting after the cursor when one is given.
	ListActiveExpiredBefore(ctx context.Context, now time.Time, after *SweepCursor, limit int) ([]model.Listing, error)
	// ListActiveCreatedBefore pages active listings with created_at < cutoff in
	// (created_at, id) order, starting after the cursor when one is given.
	ListActiveCreatedBefore(ctx context.Context, cutoff time.Time, after *SweepCursor, limit int) ([]model.Listing, error)
}

// SweepCursor is the sort key of the last listing a sweep has seen.
type SweepCursor struct {
	At time.Time
	ID uuid.UUID
}
