package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"tradeboard/pointhub/internal/model"
	"tradeboard/pointhub/internal/repository"
)

var errInvitedElsewhere = validationError("invitee already joined with another invite code")

type ReferralRewards struct {
	Inviter int64
	Invitee int64
}

type ReferralResult struct {
	InviterReward    int64 `json:"inviter_reward"`
	InviteeReward    int64 `json:"invitee_reward"`
	AlreadyProcessed bool  `json:"already_processed"`
}

type InvitationInfo struct {
	InviteCode        string `json:"invite_code"`
	TotalInvites      int    `json:"total_invites"`
	SuccessfulInvites int    `json:"successful_invites"`
	PendingInvites    int    `json:"pending_invites"`
	TotalPointsEarned int64  `json:"total_points_earned"`
}

type ReferralService interface {
	// ProcessReferral pays the reward pair for (inviterCode, inviteeID) at
	// most once. A repeat call reports AlreadyProcessed without error.
	ProcessReferral(ctx context.Context, inviterCode string, inviteeID uuid.UUID) (*ReferralResult, error)
	Info(ctx context.Context, userID uuid.UUID) (*InvitationInfo, error)
}

type referralService struct {
	store   repository.Store
	ledger  LedgerService
	rewards ReferralRewards
}

func NewReferralService(store repository.Store, ledger LedgerService, rewards ReferralRewards) ReferralService {
	return &referralService{
		store:   store,
		ledger:  ledger,
		rewards: rewards,
	}
}

func NormalizeInviteCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (s *referralService) ProcessReferral(ctx context.Context, inviterCode string, inviteeID uuid.UUID) (*ReferralResult, error) {
	code := NormalizeInviteCode(inviterCode)
	if code == "" || inviteeID == uuid.Nil {
		return nil, validationError("inviter_code and invitee_id are required")
	}

	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		// 1. Resolve both parties
		inviter, err := tx.Users().GetByInviteCode(ctx, code)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInviterNotFound
			}
			return storageError("find inviter", err)
		}
		invitee, err := tx.Users().GetByID(ctx, inviteeID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return storageError("find invitee", err)
		}
		if inviter.ID == inviteeID {
			return validationError("users cannot refer themselves")
		}
		// One inviter per invitee
		if invitee.InvitedBy != nil && *invitee.InvitedBy != "" && *invitee.InvitedBy != code {
			return errInvitedElsewhere
		}

		// 2. The unique pair is the idempotency guard
		invitation := &model.Invitation{
			InviterCode: code,
			InviteeID:   inviteeID,
		}
		if err := tx.Invitations().Create(ctx, invitation); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrAlreadyProcessed
			}
			return storageError("create invitation", err)
		}

		// 3. Reward pair
		if err := s.credit(ctx, tx, inviter.ID, s.rewards.Inviter, &invitation.ID, "referral reward: invited a new user"); err != nil {
			return err
		}
		if err := s.credit(ctx, tx, inviteeID, s.rewards.Invitee, &invitation.ID, "referral reward: joined with invite code "+code); err != nil {
			return err
		}

		// 4. Bookkeeping
		if err := tx.Users().IncrementTotalInvites(ctx, inviter.ID); err != nil {
			return storageError("increment total invites", err)
		}
		if err := tx.Users().SetInvitedByIfEmpty(ctx, inviteeID, code); err != nil {
			if errors.Is(err, repository.ErrConditionNotMet) {
				return errInvitedElsewhere
			}
			return storageError("set invited_by", err)
		}
		if err := tx.Invitations().MarkRewarded(ctx, invitation.ID, time.Now()); err != nil {
			return storageError("mark invitation rewarded", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyProcessed) {
			return &ReferralResult{AlreadyProcessed: true}, nil
		}
		return nil, storageError("process referral", err)
	}

	return &ReferralResult{
		InviterReward: s.rewards.Inviter,
		InviteeReward: s.rewards.Invitee,
	}, nil
}

func (s *referralService) credit(ctx context.Context, tx repository.Store, userID uuid.UUID, amount int64, invitationID *uuid.UUID, description string) error {
	if amount <= 0 {
		return nil
	}
	_, err := s.ledger.ApplyTx(ctx, tx, userID, Change{
		Amount:      amount,
		Kind:        model.ChangeKindReferralReward,
		RelatedID:   invitationID,
		Description: description,
	})
	return err
}

func (s *referralService) Info(ctx context.Context, userID uuid.UUID) (*InvitationInfo, error) {
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, storageError("find user", err)
	}

	invitations, err := s.store.Invitations().ListByInviterCode(ctx, user.InviteCode)
	if err != nil {
		return nil, storageError("list invitations", err)
	}
	totals, err := s.store.Ledger().TotalsByUserAndKind(ctx, userID, model.ChangeKindReferralReward)
	if err != nil {
		return nil, storageError("sum referral rewards", err)
	}

	info := &InvitationInfo{
		InviteCode:        user.InviteCode,
		TotalInvites:      user.TotalInvites,
		TotalPointsEarned: totals.Sum,
	}
	for _, inv := range invitations {
		if inv.RewardSent {
			info.SuccessfulInvites++
		} else {
			info.PendingInvites++
		}
	}
	return info, nil
}

var _ ReferralService = (*referralService)(nil)
