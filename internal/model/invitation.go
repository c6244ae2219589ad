package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Invitation records that the holder of InviterCode brought in InviteeID.
// The (inviter_code, invitee_id) pair is unique; that index is what makes a
// referral reward issue at most once.
type Invitation struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	InviterCode string     `gorm:"type:varchar(16);not null;uniqueIndex:idx_invitations_pair,priority:1" json:"inviter_code"`
	InviteeID   uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_invitations_pair,priority:2" json:"invitee_id"`
	RewardSent  bool       `gorm:"not null;default:false" json:"reward_sent"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func (Invitation) TableName() string { return "invitations" }

func (i *Invitation) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}
