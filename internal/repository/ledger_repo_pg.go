package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"tradeboard/pointhub/internal/model"
)

type pgLedgerRepository struct {
	db *gorm.DB
}

func NewPGLedgerRepository(db *gorm.DB) LedgerRepository {
	return &pgLedgerRepository{db: db}
}

func (r *pgLedgerRepository) Append(ctx context.Context, entry *model.LedgerEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *pgLedgerRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.LedgerEntry, error) {
	var entries []model.LedgerEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error
	return entries, err
}

func (r *pgLedgerRepository) TotalsByUser(ctx context.Context, userID uuid.UUID) (LedgerTotals, error) {
	return r.totals(r.db.WithContext(ctx).Where("user_id = ?", userID))
}

func (r *pgLedgerRepository) TotalsByUserAndKind(ctx context.Context, userID uuid.UUID, kind model.ChangeKind) (LedgerTotals, error) {
	return r.totals(r.db.WithContext(ctx).Where("user_id = ? AND change_kind = ?", userID, kind))
}

func (r *pgLedgerRepository) totals(q *gorm.DB) (LedgerTotals, error) {
	var totals LedgerTotals
	err := q.Model(&model.LedgerEntry{}).
		Select("CAST(COALESCE(SUM(change_amount), 0) AS BIGINT) AS sum, COUNT(*) AS count").
		Scan(&totals).Error
	return totals, err
}
