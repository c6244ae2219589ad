package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"tradeboard/pointhub/internal/model"
)

type pgViewRecordRepository struct {
	db *gorm.DB
}

func NewPGViewRecordRepository(db *gorm.DB) ViewRecordRepository {
	return &pgViewRecordRepository{db: db}
}

func (r *pgViewRecordRepository) Create(ctx context.Context, record *model.ViewRecord) error {
	return translateCreate(r.db.WithContext(ctx).Create(record).Error)
}

func (r *pgViewRecordRepository) Get(ctx context.Context, viewerID, listingID uuid.UUID) (*model.ViewRecord, error) {
	var record model.ViewRecord
	err := r.db.WithContext(ctx).
		Where("viewer_id = ? AND listing_id = ?", viewerID, listingID).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *pgViewRecordRepository) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.ViewRecord{}).
		Where("id = ?", id).
		UpdateColumn("viewed_at", at).
		Error
}
