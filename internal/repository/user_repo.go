package repository

import (
	"context"

	"github.com/google/uuid"

	"tradeboard/pointhub/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByInviteCode(ctx context.Context, code string) (*model.User, error)
	// AddPoints applies delta to the user's balance in one conditional
	// statement and returns the resulting balance. A debit that would make the
	// balance negative fails with ErrConditionNotMet.
	AddPoints(ctx context.Context, id uuid.UUID, delta int64) (int64, error)
	IncrementTotalInvites(ctx context.Context, id uuid.UUID) error
	IncrementTotalListings(ctx context.Context, id uuid.UUID) error
	// SetInvitedByIfEmpty records the inviter code once. Setting the same code
	// again is a no-op; a different code gives ErrConditionNotMet.
	SetInvitedByIfEmpty(ctx context.Context, id uuid.UUID, code string) error
}
