package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"tradeboard/pointhub/internal/model"
	"tradeboard/pointhub/internal/repository"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// Change describes one points movement.
type Change struct {
	Amount      int64
	Kind        model.ChangeKind
	RelatedID   *uuid.UUID
	Description string
}

type AuditReport struct {
	UserID     uuid.UUID `json:"user_id"`
	Points     int64     `json:"points"`
	LedgerSum  int64     `json:"ledger_sum"`
	EntryCount int64     `json:"entry_count"`
	Consistent bool      `json:"consistent"`
}

type LedgerService interface {
	// Apply changes the user's balance and appends the matching entry in its
	// own transaction.
	Apply(ctx context.Context, userID uuid.UUID, change Change) (*model.LedgerEntry, error)
	// ApplyTx does the same inside the caller's transaction.
	ApplyTx(ctx context.Context, tx repository.Store, userID uuid.UUID, change Change) (*model.LedgerEntry, error)
	History(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.LedgerEntry, error)
	Audit(ctx context.Context, userID uuid.UUID) (*AuditReport, error)
}

type ledgerService struct {
	store repository.Store
}

func NewLedgerService(store repository.Store) LedgerService {
	return &ledgerService{store: store}
}

func (s *ledgerService) Apply(ctx context.Context, userID uuid.UUID, change Change) (*model.LedgerEntry, error) {
	var entry *model.LedgerEntry
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		var err error
		entry, err = s.ApplyTx(ctx, tx, userID, change)
		return err
	})
	if err != nil {
		return nil, storageError("apply ledger change", err)
	}
	return entry, nil
}

func (s *ledgerService) ApplyTx(ctx context.Context, tx repository.Store, userID uuid.UUID, change Change) (*model.LedgerEntry, error) {
	// 1. Validate change
	if change.Amount == 0 {
		return nil, validationError("change amount must not be zero")
	}
	if !change.Kind.Valid() {
		return nil, validationError("unknown change kind %q", change.Kind)
	}

	// 2. Conditional balance update; the new balance is read in the same tx
	balance, err := tx.Users().AddPoints(ctx, userID, change.Amount)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, ErrUserNotFound
		case errors.Is(err, repository.ErrConditionNotMet):
			return nil, ErrInsufficientFunds
		default:
			return nil, storageError("update balance", err)
		}
	}

	// 3. Append audit entry
	entry := &model.LedgerEntry{
		UserID:       userID,
		ChangeAmount: change.Amount,
		ChangeKind:   change.Kind,
		BalanceAfter: balance,
		RelatedID:    change.RelatedID,
		Description:  change.Description,
	}
	if err := tx.Ledger().Append(ctx, entry); err != nil {
		return nil, storageError("append ledger entry", err)
	}
	return entry, nil
}

func (s *ledgerService) History(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.LedgerEntry, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}

	if _, err := s.store.Users().GetByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, storageError("find user", err)
	}

	entries, err := s.store.Ledger().ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, storageError("list ledger entries", err)
	}
	return entries, nil
}

func (s *ledgerService) Audit(ctx context.Context, userID uuid.UUID) (*AuditReport, error) {
	var report *AuditReport
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		user, err := tx.Users().GetByID(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		totals, err := tx.Ledger().TotalsByUser(ctx, userID)
		if err != nil {
			return err
		}
		report = &AuditReport{
			UserID:     userID,
			Points:     user.Points,
			LedgerSum:  totals.Sum,
			EntryCount: totals.Count,
			Consistent: user.Points == totals.Sum,
		}
		return nil
	})
	if err != nil {
		return nil, storageError("audit ledger", err)
	}
	return report, nil
}

var _ LedgerService = (*ledgerService)(nil)
