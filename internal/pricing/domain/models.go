package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type VersionStatus string

const (
	VersionDraft     VersionStatus = "DRAFT"
	VersionPublished VersionStatus = "PUBLISHED"
)

type FactorType string

const (
	FactorMultiplier FactorType = "MULTIPLIER"
	FactorAdditive   FactorType = "ADDITIVE"
)

// ResolutionKind selects how a factor turns campaign input into a value.
type ResolutionKind string

const (
	ResolutionStatic ResolutionKind = "STATIC"
	ResolutionLookup ResolutionKind = "LOOKUP"
	ResolutionSlab   ResolutionKind = "SLAB"
)

// DefaultConfigName names the config when nothing else names it.
const DefaultConfigName = "Default Config"

// ConfigCode is shared by every writer that creates the config, so concurrent
// first creates collide on the unique code.
var ConfigCode = slug.Make(DefaultConfigName)

// PricingConfig is the named container holding the active version pointer.
type PricingConfig struct {
	ID              snowflake.ID  `json:"id" gorm:"primaryKey"`
	Code            string        `json:"code" gorm:"type:text;not null;uniqueIndex"`
	Name            string        `json:"name" gorm:"type:text;not null"`
	Description     string        `json:"description,omitempty" gorm:"type:text"`
	ActiveVersionID *snowflake.ID `json:"active_version_id,omitempty" gorm:"column:active_version_id"`
	CreatedAt       time.Time     `json:"created_at" gorm:"not null"`
	UpdatedAt       time.Time     `json:"updated_at" gorm:"not null"`
}

func (PricingConfig) TableName() string { return "pricing_configs" }

// PricingVersion is a set of pricing rules. Rules of a PUBLISHED version never change.
type PricingVersion struct {
	ID            snowflake.ID    `json:"id" gorm:"primaryKey"`
	ConfigID      snowflake.ID    `json:"config_id" gorm:"column:config_id;not null;uniqueIndex:ux_pricing_versions_config_number,priority:1"`
	VersionNumber int             `json:"version_number" gorm:"column:version_number;not null;uniqueIndex:ux_pricing_versions_config_number,priority:2"`
	BasePrice     decimal.Decimal `json:"base_price" gorm:"type:numeric(20,8);not null"`
	TokenUsdPrice decimal.Decimal `json:"token_usd_price" gorm:"type:numeric(20,8);not null"`
	Status        VersionStatus   `json:"status" gorm:"type:text;not null"`
	PublishedAt   *time.Time      `json:"published_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at" gorm:"not null"`
	UpdatedAt     time.Time       `json:"updated_at" gorm:"not null"`

	Factors   []Factor   `json:"factors" gorm:"foreignKey:VersionID"`
	TimeSlots []TimeSlot `json:"time_slots" gorm:"foreignKey:VersionID"`
}

func (PricingVersion) TableName() string { return "pricing_versions" }

func (v *PricingVersion) IsPublished() bool {
	return v != nil && v.Status == VersionPublished
}

// Factor rows keep their declaration order in Position so equal priorities sort stably.
type Factor struct {
	ID         snowflake.ID                    `json:"id" gorm:"primaryKey"`
	VersionID  snowflake.ID                    `json:"version_id" gorm:"column:version_id;not null;index"`
	Position   int                             `json:"position" gorm:"not null"`
	Name       string                          `json:"name" gorm:"type:text;not null"`
	Key        string                          `json:"key" gorm:"type:text;not null"`
	Type       FactorType                      `json:"type" gorm:"type:text;not null"`
	Enabled    bool                            `json:"enabled" gorm:"not null"`
	Priority   int                             `json:"priority" gorm:"not null"`
	Value      decimal.Decimal                 `json:"value" gorm:"type:numeric(20,8);not null"`
	Resolution ResolutionKind                  `json:"resolution" gorm:"type:text;not null"`
	Lookup     datatypes.JSONType[LookupTable] `json:"lookup" gorm:"column:lookup"`
	Slabs      datatypes.JSONType[[]Slab]      `json:"slabs" gorm:"column:slabs"`
	CreatedAt  time.Time                       `json:"created_at" gorm:"not null"`
}

func (Factor) TableName() string { return "pricing_factors" }

type TimeSlot struct {
	ID         snowflake.ID    `json:"id" gorm:"primaryKey"`
	VersionID  snowflake.ID    `json:"version_id" gorm:"column:version_id;not null;index"`
	Position   int             `json:"position" gorm:"not null"`
	Name       string          `json:"name" gorm:"type:text;not null"`
	StartTime  string          `json:"start_time" gorm:"type:text;not null"`
	EndTime    string          `json:"end_time" gorm:"type:text;not null"`
	Multiplier decimal.Decimal `json:"multiplier" gorm:"type:numeric(20,8);not null"`
	Priority   int             `json:"priority" gorm:"not null"`
	CreatedAt  time.Time       `json:"created_at" gorm:"not null"`
}

func (TimeSlot) TableName() string { return "pricing_time_slots" }

// CampaignPricingSnapshot is the price locked for a campaign at creation time.
type CampaignPricingSnapshot struct {
	ID               snowflake.ID    `json:"id" gorm:"primaryKey"`
	CampaignID       snowflake.ID    `json:"campaign_id" gorm:"column:campaign_id;not null;uniqueIndex"`
	PricingVersionID snowflake.ID    `json:"pricing_version_id" gorm:"column:pricing_version_id;not null;index"`
	BasePrice        decimal.Decimal `json:"base_price" gorm:"type:numeric(20,8);not null"`
	FinalPrice       decimal.Decimal `json:"final_price" gorm:"type:numeric(20,8);not null"`
	Breakdown        datatypes.JSON  `json:"breakdown" gorm:"type:json;not null"`
	CreatedAt        time.Time       `json:"created_at" gorm:"not null"`
}

func (CampaignPricingSnapshot) TableName() string { return "campaign_pricing_snapshots" }
