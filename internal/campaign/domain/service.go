package domain

import (
	"context"

	"github.com/shopspring/decimal"
	pricingdomain "github.com/smallbiznis/adpricing/internal/pricing/domain"
	"github.com/smallbiznis/adpricing/pkg/db/pagination"
)

type Service interface {
	// Create prices the input against the active version and stores the
	// campaign together with its pricing snapshot.
	Create(ctx context.Context, req CreateCampaignRequest) (*CampaignResponse, error)
	Get(ctx context.Context, campaignID string) (*CampaignResponse, error)
	GetPricing(ctx context.Context, campaignID string) (*pricingdomain.SnapshotResponse, error)
	// List pages through campaigns newest first.
	List(ctx context.Context, req ListCampaignsRequest) (*ListCampaignsResponse, error)
}

type ListCampaignsRequest struct {
	pagination.Pagination
	UserID string `form:"userId"`
	Status Status `form:"status"`
}

type ListCampaignsResponse struct {
	Items    []CampaignResponse   `json:"items"`
	Total    int64                `json:"total"`
	PageInfo *pagination.PageInfo `json:"page_info"`
}

type CreateCampaignRequest struct {
	UserID       string                      `json:"userId"`
	Name         string                      `json:"name"`
	StartDate    string                      `json:"startDate"`
	EndDate      string                      `json:"endDate"`
	PricingInput pricingdomain.CampaignInput `json:"pricingInput"`
}

type CampaignResponse struct {
	ID               string                          `json:"id"`
	UserID           string                          `json:"userId,omitempty"`
	Name             string                          `json:"name"`
	Status           Status                          `json:"status"`
	Budget           decimal.Decimal                 `json:"budget"`
	StartDate        string                          `json:"startDate"`
	EndDate          *string                         `json:"endDate,omitempty"`
	PricingVersionID string                          `json:"pricingVersionId"`
	PlaybackPriority int                             `json:"playbackPriority"`
	CreatedAt        string                          `json:"createdAt"`
	Pricing          *pricingdomain.SnapshotResponse `json:"pricing,omitempty"`
}
