package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"tradeboard/pointhub/internal/model"
)

type RechargeRepository interface {
	Create(ctx context.Context, req *model.RechargeRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.RechargeRequest, error)
	// Resolve moves a pending request to status; ErrConditionNotMet when it was
	// already resolved.
	Resolve(ctx context.Context, id uuid.UUID, status model.RechargeStatus, reviewer uuid.UUID, note string, at time.Time) error
	ListByStatus(ctx context.Context, status model.RechargeStatus, limit int) ([]model.RechargeRequest, error)
}
