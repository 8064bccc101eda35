package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/adpricing/internal/campaign/domain"
	"github.com/smallbiznis/adpricing/internal/clock"
	pricingdomain "github.com/smallbiznis/adpricing/internal/pricing/domain"
	"github.com/smallbiznis/adpricing/internal/pricing/snapshot"
	"github.com/smallbiznis/adpricing/pkg/db/option"
	"github.com/smallbiznis/adpricing/pkg/db/pagination"
	applog "github.com/smallbiznis/adpricing/pkg/log"
	"github.com/smallbiznis/adpricing/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	dateLayout      = "2006-01-02"
	defaultPageSize = 20
	maxPageSize     = 100
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Quotes    pricingdomain.QuoteService
	Snapshots pricingdomain.SnapshotManager
	Clock     clock.Clock
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	quotes       pricingdomain.QuoteService
	snapshots    pricingdomain.SnapshotManager
	clock        clock.Clock
	campaignrepo repository.Repository[domain.Campaign]
}

func New(p Params) domain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("campaign.service"),
		genID:        p.GenID,
		quotes:       p.Quotes,
		snapshots:    p.Snapshots,
		clock:        p.Clock,
		campaignrepo: repository.ProvideStore[domain.Campaign](p.DB),
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateCampaignRequest) (*domain.CampaignResponse, error) {
	start, end, msgs := parseSchedule(req)
	if strings.TrimSpace(req.Name) == "" {
		msgs = append([]string{"Campaign name is required"}, msgs...)
	}
	if len(msgs) > 0 {
		return nil, pricingdomain.NewValidationError(msgs)
	}

	// priced outside the transaction
	quote, err := s.quotes.Quote(ctx, req.PricingInput)
	if err != nil {
		return nil, err
	}
	versionID, err := snowflake.ParseString(quote.PricingVersionID)
	if err != nil {
		return nil, pricingdomain.ErrInvalidID
	}

	now := s.clock.Now()
	campaign := &domain.Campaign{
		ID:               s.genID.Generate(),
		UserID:           strings.TrimSpace(req.UserID),
		Name:             strings.TrimSpace(req.Name),
		Status:           domain.StatusPendingPayment,
		Budget:           quote.FinalPrice,
		StartDate:        start,
		EndDate:          end,
		PricingVersionID: versionID,
		PlaybackPriority: domain.PlaybackPriority(req.PricingInput.SlotPriority),
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	var locked *pricingdomain.CampaignPricingSnapshot
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.campaignrepo.WithTrx(tx).Create(ctx, campaign); err != nil {
			return err
		}
		locked, err = s.snapshots.SaveSnapshot(ctx, tx, campaign.ID, quote.Result)
		return err
	})
	if err != nil {
		applog.With(ctx, s.log).Error("failed to create campaign", zap.Error(err))
		return nil, err
	}

	applog.With(ctx, s.log).Info("campaign created",
		zap.String("campaign_id", campaign.ID.String()),
		zap.String("pricing_version_id", quote.PricingVersionID),
		zap.String("budget", campaign.Budget.String()),
	)

	resp := toResponse(campaign)
	pricing, err := snapshot.ToResponse(locked)
	if err != nil {
		return nil, err
	}
	resp.Pricing = pricing
	return resp, nil
}

func (s *Service) Get(ctx context.Context, campaignID string) (*domain.CampaignResponse, error) {
	campaign, err := s.find(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	resp := toResponse(campaign)
	pricing, err := s.snapshots.GetSnapshot(ctx, campaign.ID.String())
	if err != nil {
		return nil, err
	}
	resp.Pricing = pricing
	return resp, nil
}

// GetPricing returns the price locked for the campaign at creation.
func (s *Service) GetPricing(ctx context.Context, campaignID string) (*pricingdomain.SnapshotResponse, error) {
	campaign, err := s.find(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	return s.snapshots.GetSnapshot(ctx, campaign.ID.String())
}

func (s *Service) List(ctx context.Context, req domain.ListCampaignsRequest) (*domain.ListCampaignsResponse, error) {
	pageSize := pagination.ClampPageSize(req.PageSize, defaultPageSize, maxPageSize)
	filter := &domain.Campaign{
		UserID: strings.TrimSpace(req.UserID),
		Status: domain.Status(strings.ToUpper(strings.TrimSpace(string(req.Status)))),
	}

	total, err := s.campaignrepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	opts := []option.QueryOption{
		option.ApplyOrder("created_at", option.DESC),
		option.ApplyOrder("id", option.DESC),
		option.ApplyLimit(pageSize + 1),
	}
	if token := strings.TrimSpace(req.PageToken); token != "" {
		cursor, err := pagination.DecodeCursor(token)
		if err != nil {
			return nil, pagination.ErrInvalidPageToken
		}
		id, err := snowflake.ParseString(cursor.ID)
		if err != nil {
			return nil, pagination.ErrInvalidPageToken
		}
		createdAt, err := time.Parse(time.RFC3339Nano, cursor.CreatedAt)
		if err != nil {
			return nil, pagination.ErrInvalidPageToken
		}
		opts = append(opts, option.ApplyBefore("created_at", createdAt, id))
	}

	campaigns, err := s.campaignrepo.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}

	pageInfo := pagination.BuildCursorPageInfo(campaigns, int32(pageSize), func(c *domain.Campaign) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        c.ID.String(),
			CreatedAt: c.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if len(campaigns) > pageSize {
		campaigns = campaigns[:pageSize]
	}

	resp := &domain.ListCampaignsResponse{
		Items:    make([]domain.CampaignResponse, 0, len(campaigns)),
		Total:    total,
		PageInfo: pageInfo,
	}
	for _, c := range campaigns {
		resp.Items = append(resp.Items, *toResponse(c))
	}
	return resp, nil
}

func (s *Service) find(ctx context.Context, campaignID string) (*domain.Campaign, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(campaignID))
	if err != nil {
		return nil, pricingdomain.ErrInvalidID
	}
	campaign, err := s.campaignrepo.FindOne(ctx, &domain.Campaign{ID: id})
	if err != nil {
		return nil, err
	}
	if campaign == nil {
		return nil, domain.ErrCampaignNotFound
	}
	return campaign, nil
}

func parseSchedule(req domain.CreateCampaignRequest) (time.Time, *time.Time, []string) {
	var msgs []string
	start, err := parseDate(req.StartDate)
	if err != nil {
		msgs = append(msgs, "Start date must be YYYY-MM-DD or RFC 3339")
	}

	var end *time.Time
	if raw := strings.TrimSpace(req.EndDate); raw != "" {
		parsed, err := parseDate(raw)
		switch {
		case err != nil:
			msgs = append(msgs, "End date must be YYYY-MM-DD or RFC 3339")
		case len(msgs) == 0 && parsed.Before(start):
			msgs = append(msgs, "End date cannot be before start date")
		default:
			end = &parsed
		}
	}
	return start, end, msgs
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func toResponse(c *domain.Campaign) *domain.CampaignResponse {
	resp := &domain.CampaignResponse{
		ID:               c.ID.String(),
		UserID:           c.UserID,
		Name:             c.Name,
		Status:           c.Status,
		Budget:           c.Budget,
		StartDate:        c.StartDate.UTC().Format(time.RFC3339),
		PricingVersionID: c.PricingVersionID.String(),
		PlaybackPriority: c.PlaybackPriority,
		CreatedAt:        c.CreatedAt.UTC().Format(time.RFC3339),
	}
	if c.EndDate != nil {
		end := c.EndDate.UTC().Format(time.RFC3339)
		resp.EndDate = &end
	}
	return resp
}
