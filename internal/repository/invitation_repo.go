package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"tradeboard/pointhub/internal/model"
)

type InvitationRepository interface {
	// Create fails with ErrDuplicate when the (inviter code, invitee) pair
	// already exists.
	Create(ctx context.Context, invitation *model.Invitation) error
	MarkRewarded(ctx context.Context, id uuid.UUID, at time.Time) error
	ListByInviterCode(ctx context.Context, code string) ([]model.Invitation, error)
}
