package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type RechargeStatus string

const (
	RechargeStatusPending  RechargeStatus = "pending"
	RechargeStatusApproved RechargeStatus = "approved"
	RechargeStatusRejected RechargeStatus = "rejected"
)

type RechargeRequest struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Points      int64           `gorm:"not null" json:"points"`
	PackageName string          `gorm:"type:varchar(64);not null" json:"package_name"`
	IsCustom    bool            `gorm:"not null;default:false" json:"is_custom"`
	Status      RechargeStatus  `gorm:"type:varchar(16);not null;default:pending;index" json:"status"`
	ReviewedBy  *uuid.UUID      `gorm:"type:uuid" json:"reviewed_by,omitempty"`
	AdminNote   string          `gorm:"type:varchar(512)" json:"admin_note,omitempty"`
	ProcessedAt *time.Time      `json:"processed_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (RechargeRequest) TableName() string { return "recharge_requests" }

func (r *RechargeRequest) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}
