package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

var (
	// ErrConditionNotMet is returned when a conditional update matched no row
	// even though the row exists (e.g. balance too low, quota used up).
	ErrConditionNotMet = errors.New("update precondition not met")
	// ErrDuplicate is returned when an insert hits a unique index.
	ErrDuplicate = errors.New("duplicate key")
)

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "SQLSTATE 23505")
}

func translateCreate(err error) error {
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}
