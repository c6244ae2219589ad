package service

import (
	"errors"
	"fmt"

	"tradeboard/pointhub/internal/config"
)

var (
	ErrValidation = errors.New("validation error")

	ErrNotFound         = errors.New("not found")
	ErrUserNotFound     = fmt.Errorf("user %w", ErrNotFound)
	ErrListingNotFound  = fmt.Errorf("listing %w", ErrNotFound)
	ErrInviterNotFound  = fmt.Errorf("inviter %w", ErrNotFound)
	ErrRechargeNotFound = fmt.Errorf("recharge request %w", ErrNotFound)

	ErrInsufficientFunds = errors.New("insufficient points")
	ErrQuotaExhausted    = errors.New("view quota exhausted")
	ErrListingWithdrawn  = errors.New("listing withdrawn")

	// ErrAlreadyProcessed is benign: the side effect already happened once.
	ErrAlreadyProcessed = errors.New("already processed")

	ErrConfig             = config.ErrConfig
	ErrStorageUnavailable = errors.New("storage unavailable")
)

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// storageError tags err as a storage failure unless it already carries a
// domain classification.
func storageError(op string, err error) error {
	if err == nil || isClassified(err) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStorageUnavailable, err)
}

func isClassified(err error) bool {
	for _, target := range []error{
		ErrValidation,
		ErrNotFound,
		ErrInsufficientFunds,
		ErrQuotaExhausted,
		ErrListingWithdrawn,
		ErrAlreadyProcessed,
		ErrConfig,
		ErrStorageUnavailable,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
