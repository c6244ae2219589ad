package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ListingStatus string

const (
	ListingStatusActive    ListingStatus = "active"
	ListingStatusWithdrawn ListingStatus = "withdrawn"
)

// Listing is a published piece of content whose owner's contact can be revealed
// at most ViewLimit times.
type Listing struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"owner_id"`
	Title       string          `gorm:"type:varchar(256);not null" json:"title"`
	Keywords    string          `gorm:"type:varchar(512)" json:"keywords"`
	Price       decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"price"`
	ExtraInfo   string          `gorm:"type:text" json:"extra_info,omitempty"`
	ViewLimit   int             `gorm:"not null" json:"view_limit"`
	ViewCount   int             `gorm:"not null;default:0" json:"view_count"`
	Status      ListingStatus   `gorm:"type:varchar(16);not null;default:active;index:idx_listings_status_expire,priority:1;index:idx_listings_status_created,priority:1" json:"status"`
	ExpireAt    time.Time       `gorm:"not null;index:idx_listings_status_expire,priority:2" json:"expire_at"`
	WithdrawnAt *time.Time      `json:"withdrawn_at,omitempty"`
	CreatedAt   time.Time       `gorm:"index:idx_listings_status_created,priority:2" json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (Listing) TableName() string { return "listings" }

func (l *Listing) BeforeCreate(*gorm.DB) error {
	ensureID(&l.ID)
	return nil
}

// Remaining is the unused view quota.
func (l *Listing) Remaining() int {
	if l.ViewCount >= l.ViewLimit {
		return 0
	}
	return l.ViewLimit - l.ViewCount
}

func (l *Listing) IsActive() bool {
	return l.Status == ListingStatusActive
}
