package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ChangeKind string

const (
	ChangeKindRecharge       ChangeKind = "recharge"
	ChangeKindSpendPublish   ChangeKind = "spend_publish"
	ChangeKindSpendView      ChangeKind = "spend_view"
	ChangeKindRefund         ChangeKind = "refund"
	ChangeKindReferralReward ChangeKind = "referral_reward"
)

func (k ChangeKind) Valid() bool {
	switch k {
	case ChangeKindRecharge, ChangeKindSpendPublish, ChangeKindSpendView, ChangeKindRefund, ChangeKindReferralReward:
		return true
	}
	return false
}

// LedgerEntry is one immutable points change. Rows are only ever inserted.
type LedgerEntry struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID  `gorm:"type:uuid;not null;index:idx_ledger_user_created,priority:1" json:"user_id"`
	ChangeAmount int64      `gorm:"not null" json:"change_amount"`
	ChangeKind   ChangeKind `gorm:"type:varchar(32);not null;index" json:"change_kind"`
	BalanceAfter int64      `gorm:"not null" json:"balance_after"`
	RelatedID    *uuid.UUID `gorm:"type:uuid;index" json:"related_id,omitempty"`
	Description  string     `gorm:"type:varchar(512)" json:"description"`
	CreatedAt    time.Time  `gorm:"index:idx_ledger_user_created,priority:2" json:"created_at"`
}

func (LedgerEntry) TableName() string { return "ledger_entries" }

func (e *LedgerEntry) BeforeCreate(*gorm.DB) error {
	ensureID(&e.ID)
	return nil
}
