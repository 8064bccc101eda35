package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/golang/mock/gomock"
	"github.com/smallbiznis/adpricing/internal/campaign/domain"
	"github.com/smallbiznis/adpricing/internal/clock"
	"github.com/smallbiznis/adpricing/internal/config"
	pricingdomain "github.com/smallbiznis/adpricing/internal/pricing/domain"
	"github.com/smallbiznis/adpricing/internal/pricing/domain/mock"
	"github.com/smallbiznis/adpricing/internal/pricing/pricingtest"
	"github.com/smallbiznis/adpricing/internal/pricing/quote"
	"github.com/smallbiznis/adpricing/internal/pricing/repository"
	"github.com/smallbiznis/adpricing/internal/pricing/resolver"
	"github.com/smallbiznis/adpricing/internal/pricing/snapshot"
	"github.com/smallbiznis/adpricing/internal/pricing/version"
	"github.com/smallbiznis/adpricing/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var testNow = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

func publishedVersion(id snowflake.ID) *pricingdomain.ResolvedVersion {
	return &pricingdomain.ResolvedVersion{
		ID:            id.String(),
		VersionNumber: 1,
		Status:        pricingdomain.VersionPublished,
		BasePrice:     pricingtest.Dec("10"),
		TokenUsdPrice: pricingtest.Dec("0.04"),
		Factors: []pricingdomain.FactorRule{{
			Name: "Slot Priority", Key: pricingdomain.FieldSlotPriority, Type: pricingdomain.FactorMultiplier,
			Enabled: true, Priority: 5, Value: pricingtest.Dec("1"),
			Resolution: pricingdomain.Resolution{
				Kind:   pricingdomain.ResolutionLookup,
				Lookup: pricingdomain.LookupTable{"PREMIUM": pricingtest.Dec("2")},
			},
		}},
	}
}

type fixture struct {
	db    *gorm.DB
	node  *snowflake.Node
	clock *clock.FakeClock
	repo  pricingdomain.Repository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{
		db:    pricingtest.OpenDB(t, &domain.Campaign{}),
		node:  pricingtest.Node(t),
		clock: clock.NewFakeClock(testNow),
		repo:  repository.Provide(),
	}
}

func (f *fixture) service(res pricingdomain.Resolver, snapshots pricingdomain.SnapshotManager) domain.Service {
	quotes := quote.New(quote.Params{
		DB: f.db, Log: zap.NewNop(), Repo: f.repo, Resolver: res,
		Settings: config.NewStaticPricingSettings(config.DefaultPricingSettings()), Clock: f.clock,
	})
	if snapshots == nil {
		snapshots = f.snapshots()
	}
	return New(Params{DB: f.db, Log: zap.NewNop(), GenID: f.node, Quotes: quotes, Snapshots: snapshots, Clock: f.clock})
}

func (f *fixture) snapshots() pricingdomain.SnapshotManager {
	return snapshot.New(snapshot.Params{DB: f.db, Log: zap.NewNop(), GenID: f.node, Repo: f.repo, Clock: f.clock})
}

func request() domain.CreateCampaignRequest {
	return domain.CreateCampaignRequest{
		UserID:    "user-1",
		Name:      "Spring Launch",
		StartDate: "2026-06-01",
		EndDate:   "2026-06-10",
		PricingInput: pricingdomain.CampaignInput{
			ScreenCount: 2, TotalDays: 10, ImpressionsPerDay: 100, SlotPriority: pricingdomain.SlotPriorityPremium,
		},
	}
}

func TestCreateLocksPriceWithSnapshot(t *testing.T) {
	f := newFixture(t)
	ctrl := gomock.NewController(t)
	res := mock.NewMockResolver(ctrl)
	versionID := f.node.Generate()
	res.EXPECT().GetCurrentConfig(gomock.Any()).Return(publishedVersion(versionID), nil)

	svc := f.service(res, nil)
	got, err := svc.Create(context.Background(), request())
	require.NoError(t, err)

	// 10 * 2 * (2 * 10 * 100 / 100)
	assert.Equal(t, "400", got.Budget.String())
	assert.Equal(t, domain.StatusPendingPayment, got.Status)
	assert.Equal(t, versionID.String(), got.PricingVersionID)
	assert.Equal(t, 3, got.PlaybackPriority)
	assert.Equal(t, "2026-06-01T00:00:00Z", got.StartDate)
	require.NotNil(t, got.EndDate)
	require.NotNil(t, got.Pricing)
	assert.Equal(t, got.ID, got.Pricing.CampaignID)
	assert.True(t, got.Budget.Equal(got.Pricing.FinalPrice))
	assert.Len(t, got.Pricing.Breakdown, 3)

	fetched, err := svc.Get(context.Background(), got.ID)
	require.NoError(t, err)
	assert.Equal(t, got.Pricing.Breakdown, fetched.Pricing.Breakdown)
}

func TestCreateRejectsInvalidRequest(t *testing.T) {
	f := newFixture(t)
	ctrl := gomock.NewController(t)
	svc := f.service(mock.NewMockResolver(ctrl), nil)

	req := request()
	req.Name = " "
	req.StartDate = "June 1st"
	_, err := svc.Create(context.Background(), req)
	verr, ok := pricingdomain.AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, []string{"Campaign name is required", "Start date must be YYYY-MM-DD or RFC 3339"}, verr.Messages)

	req = request()
	req.EndDate = "2026-05-01"
	_, err = svc.Create(context.Background(), req)
	verr, ok = pricingdomain.AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, []string{"End date cannot be before start date"}, verr.Messages)

	req = request()
	req.PricingInput.TotalDays = 0
	_, err = svc.Create(context.Background(), req)
	verr, ok = pricingdomain.AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, []string{"Duration must be at least 1 day"}, verr.Messages)
}

func TestCreateWithoutActivePricing(t *testing.T) {
	f := newFixture(t)
	ctrl := gomock.NewController(t)
	res := mock.NewMockResolver(ctrl)
	res.EXPECT().GetCurrentConfig(gomock.Any()).Return(nil, pricingdomain.ErrConfigNotFound)

	_, err := f.service(res, nil).Create(context.Background(), request())
	assert.ErrorIs(t, err, pricingdomain.ErrConfigNotFound)

	var count int64
	require.NoError(t, f.db.Model(&domain.Campaign{}).Count(&count).Error)
	assert.Zero(t, count)
}

type failingSnapshots struct {
	pricingdomain.SnapshotManager
}

func (failingSnapshots) SaveSnapshot(context.Context, *gorm.DB, snowflake.ID, pricingdomain.Result) (*pricingdomain.CampaignPricingSnapshot, error) {
	return nil, errors.New("disk full")
}

func TestCreateRollsBackCampaignWhenSnapshotFails(t *testing.T) {
	f := newFixture(t)
	ctrl := gomock.NewController(t)
	res := mock.NewMockResolver(ctrl)
	res.EXPECT().GetCurrentConfig(gomock.Any()).Return(publishedVersion(f.node.Generate()), nil)

	_, err := f.service(res, failingSnapshots{}).Create(context.Background(), request())
	require.Error(t, err)

	var count int64
	require.NoError(t, f.db.Model(&domain.Campaign{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSnapshotSurvivesLaterPublish(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	settings := config.NewStaticPricingSettings(config.DefaultPricingSettings())
	res := resolver.New(resolver.Params{DB: f.db, Log: zap.NewNop(), Repo: f.repo, Settings: settings})
	versions := version.New(version.Params{
		DB: f.db, Log: zap.NewNop(), GenID: f.node, Repo: f.repo,
		Settings: settings, Clock: f.clock,
	})

	v1, err := versions.PublishNow(ctx, pricingtest.VersionRequest())
	require.NoError(t, err)

	svc := f.service(res, nil)
	created, err := svc.Create(ctx, request())
	require.NoError(t, err)
	assert.Equal(t, v1.ID, created.PricingVersionID)
	before := created.Pricing

	next := pricingtest.VersionRequest()
	next.BasePrice = pricingtest.DecPtr("99")
	_, err = versions.PublishNow(ctx, next)
	require.NoError(t, err)

	after, err := svc.GetPricing(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, before.PricingVersionID, after.PricingVersionID)
	assert.True(t, before.FinalPrice.Equal(after.FinalPrice))
	assert.Equal(t, before.Breakdown, after.Breakdown)

	// new campaigns pick up the new version
	fresh, err := svc.Create(ctx, request())
	require.NoError(t, err)
	assert.NotEqual(t, created.PricingVersionID, fresh.PricingVersionID)
}

func TestGetUnknownCampaign(t *testing.T) {
	f := newFixture(t)
	svc := f.service(mock.NewMockResolver(gomock.NewController(t)), nil)

	_, err := svc.Get(context.Background(), "12345")
	assert.ErrorIs(t, err, domain.ErrCampaignNotFound)

	_, err = svc.GetPricing(context.Background(), "abc")
	assert.ErrorIs(t, err, pricingdomain.ErrInvalidID)
}

func TestListPagesCampaignsNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctrl := gomock.NewController(t)
	res := mock.NewMockResolver(ctrl)
	res.EXPECT().GetCurrentConfig(gomock.Any()).Return(publishedVersion(f.node.Generate()), nil).Times(4)
	svc := f.service(res, nil)
	ctx := context.Background()

	var ids []string
	for i, user := range []string{"user-1", "user-1", "user-1", "user-2"} {
		req := request()
		req.UserID = user
		req.Name = "Campaign " + string(rune('A'+i))
		created, err := svc.Create(ctx, req)
		require.NoError(t, err)
		ids = append(ids, created.ID)
		f.clock.Advance(time.Minute)
	}

	page := domain.ListCampaignsRequest{UserID: "user-1"}
	page.PageSize = 2
	first, err := svc.List(ctx, page)
	require.NoError(t, err)
	assert.EqualValues(t, 3, first.Total)
	require.Len(t, first.Items, 2)
	assert.Equal(t, ids[2], first.Items[0].ID)
	assert.Equal(t, ids[1], first.Items[1].ID)
	require.True(t, first.PageInfo.HasMore)

	page.PageToken = first.PageInfo.NextPageToken
	second, err := svc.List(ctx, page)
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	assert.Equal(t, ids[0], second.Items[0].ID)
	assert.False(t, second.PageInfo.HasMore)

	page.PageToken = "%%"
	_, err = svc.List(ctx, page)
	assert.ErrorIs(t, err, pagination.ErrInvalidPageToken)
}
