package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"tradeboard/pointhub/internal/model"
)

type pgUserRepository struct {
	db *gorm.DB
}

func NewPGUserRepository(db *gorm.DB) UserRepository {
	return &pgUserRepository{db: db}
}

func (r *pgUserRepository) Create(ctx context.Context, user *model.User) error {
	return translateCreate(r.db.WithContext(ctx).Create(user).Error)
}

func (r *pgUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *pgUserRepository) GetByInviteCode(ctx context.Context, code string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("invite_code = ?", code).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *pgUserRepository) AddPoints(ctx context.Context, id uuid.UUID, delta int64) (int64, error) {
	q := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id)
	if delta < 0 {
		q = q.Where("points + ? >= 0", delta)
	}
	res := q.Updates(map[string]interface{}{
		"points":     gorm.Expr("points + ?", delta),
		"updated_at": time.Now(),
	})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return 0, err
		}
		return 0, ErrConditionNotMet
	}

	var balance int64
	err := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Select("points").
		Scan(&balance).Error
	return balance, err
}

func (r *pgUserRepository) IncrementTotalInvites(ctx context.Context, id uuid.UUID) error {
	return r.increment(ctx, id, "total_invites")
}

func (r *pgUserRepository) IncrementTotalListings(ctx context.Context, id uuid.UUID) error {
	return r.increment(ctx, id, "total_listings")
}

func (r *pgUserRepository) increment(ctx context.Context, id uuid.UUID, column string) error {
	res := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		UpdateColumn(column, gorm.Expr(column+" + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *pgUserRepository) SetInvitedByIfEmpty(ctx context.Context, id uuid.UUID, code string) error {
	res := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ? AND (invited_by IS NULL OR invited_by = ?)", id, code).
		UpdateColumn("invited_by", code)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConditionNotMet
	}
	return nil
}
