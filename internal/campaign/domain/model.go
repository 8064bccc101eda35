package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPendingPayment Status = "PENDING_PAYMENT"
)

// Campaign is a booking whose budget is locked to the price computed at creation.
type Campaign struct {
	ID               snowflake.ID    `gorm:"primaryKey"`
	UserID           string          `gorm:"type:varchar(64);index"`
	Name             string          `gorm:"type:varchar(255);not null"`
	Status           Status          `gorm:"type:varchar(32);not null"`
	Budget           decimal.Decimal `gorm:"type:numeric(20,8);not null"`
	StartDate        time.Time       `gorm:"not null"`
	EndDate          *time.Time
	PricingVersionID snowflake.ID `gorm:"not null;index"`
	PlaybackPriority int          `gorm:"not null;default:1"`
	CreatedAt        time.Time    `gorm:"not null"`
	UpdatedAt        time.Time    `gorm:"not null"`
}

func (Campaign) TableName() string { return "campaigns" }
