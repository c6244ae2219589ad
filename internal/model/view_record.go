package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ViewRecord marks that a viewer has paid for a listing's contact once.
type ViewRecord struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ViewerID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_view_records_viewer_listing,priority:1" json:"viewer_id"`
	ListingID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_view_records_viewer_listing,priority:2;index" json:"listing_id"`
	ViewedAt  time.Time `gorm:"not null" json:"viewed_at"`
	CreatedAt time.Time `json:"created_at"`
}

func (ViewRecord) TableName() string { return "view_records" }

func (v *ViewRecord) BeforeCreate(*gorm.DB) error {
	ensureID(&v.ID)
	return nil
}
