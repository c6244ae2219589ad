package repository

import (
	"context"

	"github.com/google/uuid"

	"tradeboard/pointhub/internal/model"
)

type LedgerTotals struct {
	Sum   int64
	Count int64
}

// LedgerRepository is append-only: there is no update or delete.
type LedgerRepository interface {
	Append(ctx context.Context, entry *model.LedgerEntry) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.LedgerEntry, error)
	TotalsByUser(ctx context.Context, userID uuid.UUID) (LedgerTotals, error)
	TotalsByUserAndKind(ctx context.Context, userID uuid.UUID, kind model.ChangeKind) (LedgerTotals, error)
}
