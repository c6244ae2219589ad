package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Contact       string    `gorm:"type:varchar(128);not null" json:"-"`
	Points        int64     `gorm:"not null;default:0" json:"points"`
	InviteCode    string    `gorm:"type:varchar(16);uniqueIndex;not null" json:"invite_code"`
	InvitedBy     *string   `gorm:"type:varchar(16);index" json:"invited_by,omitempty"`
	TotalInvites  int       `gorm:"not null;default:0" json:"total_invites"`
	TotalListings int       `gorm:"not null;default:0" json:"total_listings"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (User) TableName() string { return "users" }

func (u *User) BeforeCreate(*gorm.DB) error {
	ensureID(&u.ID)
	return nil
}

// ensureID assigns a random UUID when the primary key was left empty, so rows
// get identifiers on databases without gen_random_uuid().
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
