package seed

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/adpricing/internal/pricing/domain"
	"github.com/smallbiznis/adpricing/internal/pricing/engine"
	"github.com/smallbiznis/adpricing/internal/pricing/pricingtest"
	"github.com/smallbiznis/adpricing/internal/pricing/repository"
	"github.com/smallbiznis/adpricing/internal/pricing/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestEnsureDefaultPricingIsIdempotent(t *testing.T) {
	db := pricingtest.OpenDB(t)
	node := pricingtest.Node(t)
	ctx := context.Background()

	require.NoError(t, EnsureDefaultPricing(ctx, db, node, zap.NewNop()))
	require.NoError(t, EnsureDefaultPricing(ctx, db, node, zap.NewNop()))

	var versions int64
	require.NoError(t, db.Model(&domain.PricingVersion{}).Count(&versions).Error)
	assert.Equal(t, int64(1), versions)

	repo := repository.Provide()
	cfg, err := repo.FindConfig(ctx, db)
	require.NoError(t, err)
	require.NotNil(t, cfg.ActiveVersionID)
	assert.Equal(t, "default-config", cfg.Code)

	active, err := repo.FindVersionByID(ctx, db, *cfg.ActiveVersionID)
	require.NoError(t, err)
	assert.Equal(t, domain.VersionPublished, active.Status)
	assert.NotNil(t, active.PublishedAt)
	assert.Len(t, active.Factors, 4)
	assert.Len(t, active.TimeSlots, 3)
}

func TestSeededVersionIsValidAndPrices(t *testing.T) {
	version := defaultVersion(pricingtest.Node(t), 1, 1, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)).Resolve()
	assert.Empty(t, validator.ValidateConfig(version))

	morning := version.TimeSlots[0].ID
	result := engine.Calculate(version, domain.CampaignInput{
		ScreenCount: 1, TotalDays: 1, ImpressionsPerDay: 100,
		SlotPriority: domain.SlotPriorityPremium, AdFormat: domain.AdFormatMP4,
		TimeSlots: []string{morning},
	})
	// 100 * 1.5 * 2 * 1.2
	assert.Equal(t, "360", result.FinalPrice.String())

	plain := engine.Calculate(version, domain.CampaignInput{ScreenCount: 1, TotalDays: 1, ImpressionsPerDay: 100})
	assert.Equal(t, "100", plain.FinalPrice.String())
}
