package quote

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/smallbiznis/adpricing/internal/clock"
	"github.com/smallbiznis/adpricing/internal/config"
	"github.com/smallbiznis/adpricing/internal/observability/metrics"
	"github.com/smallbiznis/adpricing/internal/pricing/domain"
	"github.com/smallbiznis/adpricing/internal/pricing/domain/mock"
	"github.com/smallbiznis/adpricing/internal/pricing/pricingtest"
	"github.com/smallbiznis/adpricing/internal/pricing/repository"
	"github.com/smallbiznis/adpricing/internal/pricing/resolver"
	"github.com/smallbiznis/adpricing/internal/pricing/version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func activeVersion() *domain.ResolvedVersion {
	return &domain.ResolvedVersion{
		ID:            "42",
		ConfigID:      "1",
		VersionNumber: 3,
		Status:        domain.VersionPublished,
		BasePrice:     pricingtest.Dec("10"),
		TokenUsdPrice: pricingtest.Dec("0.04"),
		Factors: []domain.FactorRule{{
			ID: "7", Name: "Slot Priority", Key: domain.FieldSlotPriority, Type: domain.FactorMultiplier,
			Enabled: true, Priority: 5, Value: pricingtest.Dec("1"),
			Resolution: domain.Resolution{Kind: domain.ResolutionLookup, Lookup: domain.LookupTable{"HIGH": pricingtest.Dec("2")}},
		}},
		TimeSlots: []domain.TimeSlotRule{
			{ID: "morning", Name: "Morning Peak", StartTime: "08:00", EndTime: "11:00", Multiplier: pricingtest.Dec("1.5"), Priority: 1},
		},
	}
}

func newMockedService(t *testing.T, res domain.Resolver, settings config.PricingSettings) domain.QuoteService {
	t.Helper()
	m, err := metrics.NewPricingMetrics(prometheus.NewRegistry(), metrics.Config{})
	require.NoError(t, err)
	return New(Params{
		Log:      zap.NewNop(),
		Resolver: res,
		Settings: config.NewStaticPricingSettings(settings),
		Clock:    clock.New(),
		Metrics:  m,
	})
}

func TestQuoteUsesActiveVersion(t *testing.T) {
	ctrl := gomock.NewController(t)
	res := mock.NewMockResolver(ctrl)
	res.EXPECT().GetCurrentConfig(gomock.Any()).Return(activeVersion(), nil)

	svc := newMockedService(t, res, config.DefaultPricingSettings())
	q, err := svc.Quote(context.Background(), domain.CampaignInput{
		ScreenCount: 1, TotalDays: 1, ImpressionsPerDay: 100,
		SlotPriority: domain.SlotPriorityHigh, TimeSlots: []string{"morning", "missing"},
	})
	require.NoError(t, err)

	assert.Equal(t, "30", q.FinalPrice.String())
	assert.Equal(t, "42", q.PricingVersionID)
	assert.Equal(t, 3, q.VersionNumber)
	assert.Equal(t, "1.2", q.EstimatedUsd.String())
}

func TestQuoteRejectsInvalidInputBeforeResolving(t *testing.T) {
	ctrl := gomock.NewController(t)
	res := mock.NewMockResolver(ctrl)

	svc := newMockedService(t, res, config.DefaultPricingSettings())
	_, err := svc.Quote(context.Background(), domain.CampaignInput{ScreenCount: 0, TotalDays: 1, ImpressionsPerDay: 1})

	verr, ok := domain.AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, []string{"Screen count must be at least 1"}, verr.Messages)
}

func TestQuoteWithoutActiveVersion(t *testing.T) {
	ctrl := gomock.NewController(t)
	res := mock.NewMockResolver(ctrl)
	res.EXPECT().GetCurrentConfig(gomock.Any()).Return(nil, domain.ErrConfigNotFound)

	svc := newMockedService(t, res, config.DefaultPricingSettings())
	_, err := svc.Quote(context.Background(), domain.CampaignInput{ScreenCount: 1, TotalDays: 1, ImpressionsPerDay: 1})
	assert.ErrorIs(t, err, domain.ErrConfigNotFound)
}

func TestQuoteStrictTimeSlots(t *testing.T) {
	ctrl := gomock.NewController(t)
	res := mock.NewMockResolver(ctrl)
	res.EXPECT().GetCurrentConfig(gomock.Any()).Return(activeVersion(), nil).Times(2)

	settings := config.DefaultPricingSettings()
	settings.StrictTimeSlots = true
	svc := newMockedService(t, res, settings)
	ctx := context.Background()

	_, err := svc.Quote(ctx, domain.CampaignInput{ScreenCount: 1, TotalDays: 1, ImpressionsPerDay: 100, TimeSlots: []string{"missing"}})
	assert.ErrorIs(t, err, domain.ErrUnknownTimeSlot)
	verr, ok := domain.AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, []string{`Time slot "missing" is not part of pricing version 3.`}, verr.Messages)

	q, err := svc.Quote(ctx, domain.CampaignInput{ScreenCount: 1, TotalDays: 1, ImpressionsPerDay: 100, TimeSlots: []string{"morning"}})
	require.NoError(t, err)
	assert.Equal(t, "15", q.FinalPrice.String())
}

func TestSimulateByVersionID(t *testing.T) {
	ctrl := gomock.NewController(t)
	res := mock.NewMockResolver(ctrl)
	draft := activeVersion()
	draft.Status = domain.VersionDraft
	res.EXPECT().GetVersionConfig(gomock.Any(), "42").Return(draft, nil)

	svc := newMockedService(t, res, config.DefaultPricingSettings())
	q, err := svc.Simulate(context.Background(), domain.SimulateRequest{
		VersionID: "42",
		Input:     domain.CampaignInput{ScreenCount: 2, TotalDays: 1, ImpressionsPerDay: 100},
	})
	require.NoError(t, err)
	assert.Equal(t, "20", q.FinalPrice.String())
}

func TestSimulateSelectsByNumberOrLatestPublished(t *testing.T) {
	db := pricingtest.OpenDB(t)
	repo := repository.Provide()
	settings := config.NewStaticPricingSettings(config.DefaultPricingSettings())
	res := resolver.New(resolver.Params{DB: db, Log: zap.NewNop(), Repo: repo, Settings: settings})
	fc := clock.NewFakeClock(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	versions := version.New(version.Params{
		DB: db, Log: zap.NewNop(), GenID: pricingtest.Node(t), Repo: repo,
		Settings: settings, Clock: fc,
	})
	svc := New(Params{DB: db, Log: zap.NewNop(), Repo: repo, Resolver: res, Settings: settings, Clock: fc})
	ctx := context.Background()
	input := domain.CampaignInput{ScreenCount: 1, TotalDays: 1, ImpressionsPerDay: 100}

	_, err := svc.Simulate(ctx, domain.SimulateRequest{Input: input})
	assert.ErrorIs(t, err, domain.ErrConfigNotFound)

	_, err = versions.PublishNow(ctx, pricingtest.VersionRequest())
	require.NoError(t, err)
	draftReq := pricingtest.VersionRequest()
	draftReq.BasePrice = pricingtest.DecPtr("50")
	_, err = versions.CreateVersion(ctx, draftReq)
	require.NoError(t, err)

	latest, err := svc.Simulate(ctx, domain.SimulateRequest{Input: input})
	require.NoError(t, err)
	assert.Equal(t, 1, latest.VersionNumber)
	assert.Equal(t, "10", latest.FinalPrice.String())

	two := 2
	byNumber, err := svc.Simulate(ctx, domain.SimulateRequest{VersionNumber: &two, Input: input})
	require.NoError(t, err)
	assert.Equal(t, 2, byNumber.VersionNumber)
	assert.Equal(t, "50", byNumber.FinalPrice.String())

	missing := 9
	_, err = svc.Simulate(ctx, domain.SimulateRequest{VersionNumber: &missing, Input: input})
	assert.ErrorIs(t, err, domain.ErrVersionNotFound)

	// simulation leaves the active version alone
	current, err := svc.CurrentConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, current.VersionNumber)
}

func TestOutcome(t *testing.T) {
	verr := domain.NewValidationError([]string{"bad"})
	verr.Cause = domain.ErrUnknownTimeSlot

	tests := []struct {
		err  error
		want string
	}{
		{nil, metrics.QuoteOutcomeOK},
		{domain.ErrConfigNotFound, metrics.QuoteOutcomeNotConfigured},
		{domain.ErrVersionNotFound, metrics.QuoteOutcomeNotConfigured},
		{verr, metrics.QuoteOutcomeValidation},
		{domain.ErrInvalidID, metrics.QuoteOutcomeValidation},
		{context.DeadlineExceeded, metrics.QuoteOutcomeError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, outcome(tt.err), "%v", tt.err)
	}
}
