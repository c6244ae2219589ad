package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"tradeboard/pointhub/internal/model"
	"tradeboard/pointhub/internal/repository"
	"tradeboard/pointhub/pkg/crypto"
)

const (
	maxInviteCodeAttempts = 5
	maxContactLength      = 128
)

type RegisterResult struct {
	User *model.User `json:"user"`
	// Referral is set when an invite code was given and the reward went through
	// (or had already been issued).
	Referral *ReferralResult `json:"referral,omitempty"`
	// ReferralError explains why a given invite code was not honoured.
	// Registration itself still succeeded.
	ReferralError string `json:"referral_error,omitempty"`
}

type AccountService interface {
	Register(ctx context.Context, contact, inviteCode string) (*RegisterResult, error)
	Get(ctx context.Context, userID uuid.UUID) (*model.User, error)
}

type accountService struct {
	store       repository.Store
	ledger      LedgerService
	referrals   ReferralService
	signupBonus int64
	logger      *zap.Logger
}

func NewAccountService(store repository.Store, ledger LedgerService, referrals ReferralService, signupBonus int64, logger *zap.Logger) AccountService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &accountService{
		store:       store,
		ledger:      ledger,
		referrals:   referrals,
		signupBonus: signupBonus,
		logger:      logger,
	}
}

func (s *accountService) Register(ctx context.Context, contact, inviteCode string) (*RegisterResult, error) {
	// 1. Validate contact
	contact = strings.TrimSpace(contact)
	if contact == "" {
		return nil, validationError("contact is required")
	}
	if utf8.RuneCountInString(contact) > maxContactLength {
		return nil, validationError("contact must be at most %d characters", maxContactLength)
	}

	// 2. Create user with a fresh invite code, retrying on collision
	var user *model.User
	for attempt := 1; ; attempt++ {
		code, err := crypto.GenerateInviteCode()
		if err != nil {
			return nil, err
		}

		user, err = s.createUser(ctx, contact, code)
		if err == nil {
			break
		}
		if !errors.Is(err, repository.ErrDuplicate) || attempt >= maxInviteCodeAttempts {
			return nil, storageError("register user", err)
		}
	}

	result := &RegisterResult{User: user}

	// 3. Referral, when an invite code was supplied
	if strings.TrimSpace(inviteCode) == "" {
		return result, nil
	}
	referral, err := s.referrals.ProcessReferral(ctx, inviteCode, user.ID)
	if err != nil {
		s.logger.Warn("referral not applied at registration",
			zap.String("user_id", user.ID.String()),
			zap.String("invite_code", NormalizeInviteCode(inviteCode)),
			zap.Error(err),
		)
		result.ReferralError = err.Error()
		return result, nil
	}
	result.Referral = referral

	// Reload so the response carries the rewarded balance
	if fresh, err := s.store.Users().GetByID(ctx, user.ID); err == nil {
		result.User = fresh
	}
	return result, nil
}

func (s *accountService) createUser(ctx context.Context, contact, code string) (*model.User, error) {
	user := &model.User{
		Contact:    contact,
		InviteCode: code,
	}
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		if err := tx.Users().Create(ctx, user); err != nil {
			return err
		}
		if s.signupBonus <= 0 {
			return nil
		}
		entry, err := s.ledger.ApplyTx(ctx, tx, user.ID, Change{
			Amount:      s.signupBonus,
			Kind:        model.ChangeKindRecharge,
			Description: "registration bonus",
		})
		if err != nil {
			return err
		}
		user.Points = entry.BalanceAfter
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *accountService) Get(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, storageError("find user", err)
	}
	return user, nil
}

var _ AccountService = (*accountService)(nil)
