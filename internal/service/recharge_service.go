package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"tradeboard/pointhub/internal/model"
	"tradeboard/pointhub/internal/repository"
)

const maxAdminNoteLength = 512

var (
	minRechargeAmount = decimal.NewFromInt(1)
	maxRechargeAmount = decimal.NewFromInt(100000)
)

type rechargePackage struct {
	points int64
	name   string
}

// Preset packages keyed by price in yuan; larger packages carry a bonus.
var rechargePackages = map[int64]rechargePackage{
	50:  {points: 55, name: "Package A"},
	100: {points: 115, name: "Package B"},
	300: {points: 370, name: "Package C"},
	500: {points: 650, name: "Package D"},
}

type SubmitRechargeInput struct {
	UserID   uuid.UUID
	Amount   decimal.Decimal
	IsCustom bool
	// Points overrides the computed points when set.
	Points *int64
}

type ReviewResult struct {
	Request          *model.RechargeRequest `json:"request"`
	AlreadyProcessed bool                   `json:"already_processed"`
}

type RechargeService interface {
	Submit(ctx context.Context, in SubmitRechargeInput) (*model.RechargeRequest, error)
	// Review approves or rejects a pending request. Approval credits the
	// points in the same transaction. Reviewing a resolved request reports
	// AlreadyProcessed without error.
	Review(ctx context.Context, reviewerID, requestID uuid.UUID, approved bool, note string) (*ReviewResult, error)
	ListPending(ctx context.Context, limit int) ([]model.RechargeRequest, error)
}

type rechargeService struct {
	store  repository.Store
	ledger LedgerService
}

func NewRechargeService(store repository.Store, ledger LedgerService) RechargeService {
	return &rechargeService{
		store:  store,
		ledger: ledger,
	}
}

func (s *rechargeService) Submit(ctx context.Context, in SubmitRechargeInput) (*model.RechargeRequest, error) {
	// 1. Validate amount
	if in.UserID == uuid.Nil {
		return nil, validationError("user_id is required")
	}
	if in.Amount.LessThan(minRechargeAmount) || in.Amount.GreaterThan(maxRechargeAmount) {
		return nil, validationError("amount must be between %s and %s", minRechargeAmount, maxRechargeAmount)
	}

	// 2. Resolve points and package
	var (
		points      int64
		packageName string
	)
	if in.IsCustom {
		points = in.Amount.Floor().IntPart()
		packageName = fmt.Sprintf("Custom recharge %s yuan", in.Amount.String())
	} else {
		pkg, ok := rechargePackages[in.Amount.IntPart()]
		if !ok || !in.Amount.Equal(in.Amount.Floor()) {
			return nil, validationError("no recharge package for amount %s", in.Amount.String())
		}
		points = pkg.points
		packageName = pkg.name
	}
	if in.Points != nil {
		if *in.Points <= 0 {
			return nil, validationError("points must be positive")
		}
		points = *in.Points
	}

	// 3. User must exist
	if _, err := s.store.Users().GetByID(ctx, in.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, storageError("find user", err)
	}

	// 4. Persist as pending
	req := &model.RechargeRequest{
		UserID:      in.UserID,
		Amount:      in.Amount,
		Points:      points,
		PackageName: packageName,
		IsCustom:    in.IsCustom,
		Status:      model.RechargeStatusPending,
	}
	if err := s.store.Recharges().Create(ctx, req); err != nil {
		return nil, storageError("create recharge request", err)
	}
	return req, nil
}

func (s *rechargeService) Review(ctx context.Context, reviewerID, requestID uuid.UUID, approved bool, note string) (*ReviewResult, error) {
	if requestID == uuid.Nil {
		return nil, validationError("request_id is required")
	}
	if utf8.RuneCountInString(note) > maxAdminNoteLength {
		return nil, validationError("admin_note must be at most %d characters", maxAdminNoteLength)
	}

	status := model.RechargeStatusRejected
	if approved {
		status = model.RechargeStatusApproved
	}

	var req *model.RechargeRequest
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		var err error
		req, err = tx.Recharges().GetByID(ctx, requestID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRechargeNotFound
			}
			return storageError("load recharge request", err)
		}

		// Conditional on pending; a second review matches no row
		if err := tx.Recharges().Resolve(ctx, requestID, status, reviewerID, note, time.Now()); err != nil {
			if errors.Is(err, repository.ErrConditionNotMet) {
				return ErrAlreadyProcessed
			}
			return storageError("resolve recharge request", err)
		}

		if approved {
			if _, err := s.ledger.ApplyTx(ctx, tx, req.UserID, Change{
				Amount:      req.Points,
				Kind:        model.ChangeKindRecharge,
				RelatedID:   &req.ID,
				Description: "recharge approved: " + req.PackageName,
			}); err != nil {
				return err
			}
		}

		req, err = tx.Recharges().GetByID(ctx, requestID)
		if err != nil {
			return storageError("reload recharge request", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyProcessed) {
			current, getErr := s.store.Recharges().GetByID(ctx, requestID)
			if getErr != nil {
				return nil, storageError("load recharge request", getErr)
			}
			return &ReviewResult{Request: current, AlreadyProcessed: true}, nil
		}
		return nil, storageError("review recharge request", err)
	}
	return &ReviewResult{Request: req}, nil
}

func (s *rechargeService) ListPending(ctx context.Context, limit int) ([]model.RechargeRequest, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	reqs, err := s.store.Recharges().ListByStatus(ctx, model.RechargeStatusPending, limit)
	if err != nil {
		return nil, storageError("list pending recharges", err)
	}
	return reqs, nil
}

var _ RechargeService = (*rechargeService)(nil)
