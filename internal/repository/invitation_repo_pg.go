package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"tradeboard/pointhub/internal/model"
)

type pgInvitationRepository struct {
	db *gorm.DB
}

func NewPGInvitationRepository(db *gorm.DB) InvitationRepository {
	return &pgInvitationRepository{db: db}
}

func (r *pgInvitationRepository) Create(ctx context.Context, invitation *model.Invitation) error {
	return translateCreate(r.db.WithContext(ctx).Create(invitation).Error)
}

func (r *pgInvitationRepository) MarkRewarded(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.Invitation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"reward_sent":  true,
			"completed_at": at,
		}).Error
}

func (r *pgInvitationRepository) ListByInviterCode(ctx context.Context, code string) ([]model.Invitation, error) {
	var invitations []model.Invitation
	if err := r.db.WithContext(ctx).Where("inviter_code = ?", code).Order("created_at DESC").Find(&invitations).Error; err != nil {
		return nil, err
	}
	return invitations, nil
}
