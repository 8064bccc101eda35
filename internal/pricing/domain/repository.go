package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository persists pricing configs, versions and campaign snapshots.
// Finders return nil, nil when nothing matches.
type Repository interface {
	FindConfig(ctx context.Context, db *gorm.DB) (*PricingConfig, error)
	InsertConfig(ctx context.Context, db *gorm.DB, cfg *PricingConfig) error
	SetActiveVersion(ctx context.Context, db *gorm.DB, configID, versionID snowflake.ID, now time.Time) error

	MaxVersionNumber(ctx context.Context, db *gorm.DB, configID snowflake.ID) (int, error)
	InsertVersion(ctx context.Context, db *gorm.DB, version *PricingVersion) error
	FindVersionByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*PricingVersion, error)
	FindVersionForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*PricingVersion, error)
	FindVersionByNumber(ctx context.Context, db *gorm.DB, configID snowflake.ID, number int) (*PricingVersion, error)
	FindLatestPublished(ctx context.Context, db *gorm.DB, configID snowflake.ID) (*PricingVersion, error)
	ListVersions(ctx context.Context, db *gorm.DB, configID snowflake.ID, filter ListVersionsFilter) ([]PricingVersion, error)
	ReplaceRules(ctx context.Context, db *gorm.DB, version *PricingVersion) error
	MarkPublished(ctx context.Context, db *gorm.DB, versionID snowflake.ID, publishedAt time.Time) error

	InsertSnapshot(ctx context.Context, db *gorm.DB, snapshot *CampaignPricingSnapshot) error
	FindSnapshotByCampaign(ctx context.Context, db *gorm.DB, campaignID snowflake.ID) (*CampaignPricingSnapshot, error)
}

type ListVersionsFilter struct {
	Status VersionStatus
	// BeforeNumber pages backwards from this version number when positive.
	BeforeNumber int
	Limit        int
}
