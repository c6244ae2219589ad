package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"tradeboard/pointhub/internal/model"
)

type pgRechargeRepository struct {
	db *gorm.DB
}

func NewPGRechargeRepository(db *gorm.DB) RechargeRepository {
	return &pgRechargeRepository{db: db}
}

func (r *pgRechargeRepository) Create(ctx context.Context, req *model.RechargeRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *pgRechargeRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.RechargeRequest, error) {
	var req model.RechargeRequest
	if err := r.db.WithContext(ctx).First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *pgRechargeRepository) Resolve(ctx context.Context, id uuid.UUID, status model.RechargeStatus, reviewer uuid.UUID, note string, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&model.RechargeRequest{}).
		Where("id = ? AND status = ?", id, model.RechargeStatusPending).
		Updates(map[string]interface{}{
			"status":       status,
			"reviewed_by":  reviewer,
			"admin_note":   note,
			"processed_at": at,
			"updated_at":   at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConditionNotMet
	}
	return nil
}

func (r *pgRechargeRepository) ListByStatus(ctx context.Context, status model.RechargeStatus, limit int) ([]model.RechargeRequest, error) {
	var reqs []model.RechargeRequest
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC").
		Limit(limit).
		Find(&reqs).Error
	return reqs, err
}
