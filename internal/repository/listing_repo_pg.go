package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tradeboard/pointhub/internal/model"
)

type pgListingRepository struct {
	db *gorm.DB
}

func NewPGListingRepository(db *gorm.DB) ListingRepository {
	return &pgListingRepository{db: db}
}

func (r *pgListingRepository) Create(ctx context.Context, listing *model.Listing) error {
	return translateCreate(r.db.WithContext(ctx).Create(listing).Error)
}

func (r *pgListingRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Listing, error) {
	var listing model.Listing
	if err := r.db.WithContext(ctx).First(&listing, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &listing, nil
}

func (r *pgListingRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Listing, error) {
	var listing model.Listing
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&listing, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

func (r *pgListingRepository) IncrementViewCount(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&model.Listing{}).
		Where("id = ? AND status = ? AND view_count < view_limit", id, model.ListingStatusActive).
		Updates(map[string]interface{}{
			"view_count": gorm.Expr("view_count + 1"),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConditionNotMet
	}
	return nil
}

func (r *pgListingRepository) MarkWithdrawn(ctx context.Context, id uuid.UUID, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&model.Listing{}).
		Where("id = ? AND status = ?", id, model.ListingStatusActive).
		Updates(map[string]interface{}{
			"status":       model.ListingStatusWithdrawn,
			"withdrawn_at": at,
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

func (r *pgListingRepository) ListActiveExpiredBefore(ctx context.Context, now time.Time, after *SweepCursor, limit int) ([]model.Listing, error) {
	return r.listActive(ctx, "expire_at", now, after, limit)
}

func (r *pgListingRepository) ListActiveCreatedBefore(ctx context.Context, cutoff time.Time, after *SweepCursor, limit int) ([]model.Listing, error) {
	return r.listActive(ctx, "created_at", cutoff, after, limit)
}

// listActive is a keyset page over active listings whose column is before
// bound. column is one of the fixed names above, never user input.
func (r *pgListingRepository) listActive(ctx context.Context, column string, bound time.Time, after *SweepCursor, limit int) ([]model.Listing, error) {
	q := r.db.WithContext(ctx).
		Where("status = ? AND "+column+" < ?", model.ListingStatusActive, bound)
	if after != nil {
		q = q.Where("("+column+" > ? OR ("+column+" = ? AND id > ?))", after.At, after.At, after.ID)
	}

	var listings []model.Listing
	err := q.Order(column + " ASC").
		Order("id ASC").
		Limit(limit).
		Find(&listings).Error
	return listings, err
}
