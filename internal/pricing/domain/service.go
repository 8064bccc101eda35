package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/adpricing/pkg/db/pagination"
	"gorm.io/gorm"
)

//go:generate mockgen -destination=mock/resolver.go -package=mock github.com/smallbiznis/adpricing/internal/pricing/domain Resolver

// Resolver turns persisted versions into engine input.
type Resolver interface {
	// GetCurrentConfig returns the version the config's active pointer names,
	// or ErrConfigNotFound when there is none.
	GetCurrentConfig(ctx context.Context) (*ResolvedVersion, error)
	GetVersionConfig(ctx context.Context, versionID string) (*ResolvedVersion, error)
}

// SnapshotManager writes the price locked for a campaign. SaveSnapshot runs
// on the caller's transaction.
type SnapshotManager interface {
	SaveSnapshot(ctx context.Context, tx *gorm.DB, campaignID snowflake.ID, result Result) (*CampaignPricingSnapshot, error)
	GetSnapshot(ctx context.Context, campaignID string) (*SnapshotResponse, error)
}

type VersionService interface {
	CreateVersion(ctx context.Context, req VersionRequest) (*VersionResponse, error)
	UpdateDraft(ctx context.Context, versionID string, req VersionRequest) (*VersionResponse, error)
	Publish(ctx context.Context, versionID string) (*VersionResponse, error)
	PublishNow(ctx context.Context, req VersionRequest) (*VersionResponse, error)
	GetVersion(ctx context.Context, versionID string) (*VersionResponse, error)
	ListVersions(ctx context.Context, req ListVersionsRequest) (*ListVersionsResponse, error)
}

type QuoteService interface {
	Quote(ctx context.Context, input CampaignInput) (*Quote, error)
	Simulate(ctx context.Context, req SimulateRequest) (*Quote, error)
	CurrentConfig(ctx context.Context) (*ResolvedVersion, error)
}

// VersionRequest authors a version. Omitted prices fall back to the configured defaults.
type VersionRequest struct {
	Name          string            `json:"name"`
	Description   string            `json:"description"`
	BasePrice     *decimal.Decimal  `json:"basePrice"`
	TokenUsdPrice *decimal.Decimal  `json:"tokenUsdPrice"`
	Factors       []FactorRequest   `json:"factors"`
	TimeSlots     []TimeSlotRequest `json:"timeSlots"`
}

// FactorRequest authors a factor. Without an explicit resolution a non-empty
// config map means LOOKUP and non-empty slabs mean SLAB.
type FactorRequest struct {
	Name       string           `json:"name"`
	Key        string           `json:"key"`
	Type       FactorType       `json:"type"`
	Enabled    bool             `json:"enabled"`
	Priority   *int             `json:"priority"`
	Value      *decimal.Decimal `json:"value"`
	Resolution ResolutionKind   `json:"resolution"`
	Config     LookupTable      `json:"config"`
	Slabs      []Slab           `json:"slabs"`
}

type TimeSlotRequest struct {
	Name       string           `json:"name"`
	StartTime  string           `json:"startTime"`
	EndTime    string           `json:"endTime"`
	Multiplier *decimal.Decimal `json:"multiplier"`
	Priority   *int             `json:"priority"`
}

type VersionResponse struct {
	ID            string          `json:"id"`
	ConfigID      string          `json:"configId"`
	VersionNumber int             `json:"versionNumber"`
	Status        VersionStatus   `json:"status"`
	Active        bool            `json:"active"`
	BasePrice     decimal.Decimal `json:"basePrice"`
	TokenUsdPrice decimal.Decimal `json:"tokenUsdPrice"`
	PublishedAt   *string         `json:"publishedAt,omitempty"`
	CreatedAt     string          `json:"createdAt"`
	Factors       []FactorRule    `json:"factors"`
	TimeSlots     []TimeSlotRule  `json:"timeSlots"`
}

type ListVersionsRequest struct {
	pagination.Pagination
	Status VersionStatus `form:"status"`
}

type ListVersionsResponse struct {
	Items    []VersionResponse    `json:"items"`
	PageInfo *pagination.PageInfo `json:"pageInfo"`
}

// SimulateRequest prices an input against a chosen version: by id, else by
// number, else the latest published one.
type SimulateRequest struct {
	VersionID     string        `json:"versionId"`
	VersionNumber *int          `json:"versionNumber"`
	Input         CampaignInput `json:"input"`
}

// Quote is an engine result plus display-only figures.
type Quote struct {
	Result
	VersionNumber int             `json:"versionNumber"`
	EstimatedUsd  decimal.Decimal `json:"estimatedUsd"`
}

type SnapshotResponse struct {
	ID               string          `json:"id"`
	CampaignID       string          `json:"campaignId"`
	PricingVersionID string          `json:"pricingVersionId"`
	BasePrice        decimal.Decimal `json:"basePrice"`
	FinalPrice       decimal.Decimal `json:"finalPrice"`
	Breakdown        []BreakdownStep `json:"breakdown"`
	CreatedAt        string          `json:"createdAt"`
}
