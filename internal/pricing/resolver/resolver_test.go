package resolver

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/smallbiznis/adpricing/internal/cache"
	"github.com/smallbiznis/adpricing/internal/config"
	"github.com/smallbiznis/adpricing/internal/observability/metrics"
	"github.com/smallbiznis/adpricing/internal/pricing/domain"
	"github.com/smallbiznis/adpricing/internal/pricing/pricingtest"
	"github.com/smallbiznis/adpricing/internal/pricing/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db       *gorm.DB
	node     *snowflake.Node
	repo     domain.Repository
	resolver domain.Resolver
	cfg      *domain.PricingConfig
}

func newFixture(t *testing.T, ttl time.Duration) *fixture {
	t.Helper()
	db := pricingtest.OpenDB(t)
	settings := config.DefaultPricingSettings()
	settings.ResolverCacheTTL = ttl

	m, err := metrics.NewPricingMetrics(prometheus.NewRegistry(), metrics.Config{})
	require.NoError(t, err)

	repo := repository.Provide()
	return &fixture{
		db:   db,
		node: pricingtest.Node(t),
		repo: repo,
		resolver: New(Params{
			DB:       db,
			Log:      zap.NewNop(),
			Repo:     repo,
			Settings: config.NewStaticPricingSettings(settings),
			Metrics:  m,
		}),
	}
}

func (f *fixture) insertConfig(t *testing.T) {
	t.Helper()
	now := time.Now().UTC()
	f.cfg = &domain.PricingConfig{ID: f.node.Generate(), Code: "default-config", Name: "Default Config", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, f.repo.InsertConfig(context.Background(), f.db, f.cfg))
}

func (f *fixture) insertVersion(t *testing.T, number int, base string, status domain.VersionStatus) *domain.PricingVersion {
	t.Helper()
	now := time.Now().UTC()
	v := &domain.PricingVersion{
		ID:            f.node.Generate(),
		ConfigID:      f.cfg.ID,
		VersionNumber: number,
		BasePrice:     pricingtest.Dec(base),
		TokenUsdPrice: pricingtest.Dec("0.04"),
		Status:        status,
		CreatedAt:     now,
		UpdatedAt:     now,
		Factors: []domain.Factor{{
			ID: f.node.Generate(), Name: "Flat", Key: "flat", Type: domain.FactorMultiplier,
			Enabled: true, Priority: 1, Value: pricingtest.Dec("1"), Resolution: domain.ResolutionStatic, CreatedAt: now,
		}},
	}
	require.NoError(t, f.repo.InsertVersion(context.Background(), f.db, v))
	return v
}

func (f *fixture) activate(t *testing.T, v *domain.PricingVersion) {
	t.Helper()
	require.NoError(t, f.repo.SetActiveVersion(context.Background(), f.db, f.cfg.ID, v.ID, time.Now().UTC()))
}

func TestGetCurrentConfigEmptyStore(t *testing.T) {
	f := newFixture(t, time.Minute)
	got, err := f.resolver.GetCurrentConfig(context.Background())
	assert.ErrorIs(t, err, domain.ErrConfigNotFound)
	assert.Nil(t, got)
}

func TestGetCurrentConfigWithoutActivePointer(t *testing.T) {
	f := newFixture(t, time.Minute)
	f.insertConfig(t)
	f.insertVersion(t, 1, "10", domain.VersionDraft)

	_, err := f.resolver.GetCurrentConfig(context.Background())
	assert.ErrorIs(t, err, domain.ErrConfigNotFound)
}

func TestGetCurrentConfigResolvesActiveVersion(t *testing.T) {
	f := newFixture(t, time.Minute)
	f.insertConfig(t)
	v := f.insertVersion(t, 1, "10", domain.VersionPublished)
	f.activate(t, v)

	got, err := f.resolver.GetCurrentConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, v.ID.String(), got.ID)
	assert.Equal(t, 1, got.VersionNumber)
	assert.True(t, got.BasePrice.Equal(pricingtest.Dec("10")))
	require.Len(t, got.Factors, 1)
	assert.Equal(t, domain.ResolutionStatic, got.Factors[0].Resolution.Kind)
}

func TestGetCurrentConfigFollowsActivePointer(t *testing.T) {
	f := newFixture(t, time.Minute)
	f.insertConfig(t)
	ctx := context.Background()

	v1 := f.insertVersion(t, 1, "10", domain.VersionPublished)
	f.activate(t, v1)
	first, err := f.resolver.GetCurrentConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, v1.ID.String(), first.ID)

	v2 := f.insertVersion(t, 2, "20", domain.VersionPublished)
	f.activate(t, v2)
	got, err := f.resolver.GetCurrentConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, v2.ID.String(), got.ID)

	f.activate(t, v1)
	got, err = f.resolver.GetCurrentConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, v1.ID.String(), got.ID, "rollback to a cached version")
}

// hookRepo runs onFind once, in the middle of the first FindVersionByID call.
type hookRepo struct {
	domain.Repository
	onFind func()
}

func (r *hookRepo) FindVersionByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.PricingVersion, error) {
	v, err := r.Repository.FindVersionByID(ctx, db, id)
	if r.onFind != nil {
		fn := r.onFind
		r.onFind = nil
		fn()
	}
	return v, err
}

func TestSharedStoreNeverServesReplacedActiveVersion(t *testing.T) {
	f := newFixture(t, time.Minute)
	f.insertConfig(t)
	ctx := context.Background()

	v1 := f.insertVersion(t, 1, "10", domain.VersionPublished)
	f.activate(t, v1)
	v2 := f.insertVersion(t, 2, "20", domain.VersionPublished)

	shared := cache.NewMemoryStore[domain.ResolvedVersion]()
	settings := config.DefaultPricingSettings()
	settings.ResolverCacheTTL = time.Minute
	newInstance := func(repo domain.Repository) domain.Resolver {
		return New(Params{
			DB: f.db, Log: zap.NewNop(), Repo: repo,
			Settings: config.NewStaticPricingSettings(settings),
			Store:    shared,
		})
	}

	// a publish lands on another instance while this one is still loading v1
	slow := newInstance(&hookRepo{Repository: f.repo, onFind: func() { f.activate(t, v2) }})
	other := newInstance(f.repo)

	loaded, err := slow.GetCurrentConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, v1.ID.String(), loaded.ID)

	for _, r := range []domain.Resolver{slow, other} {
		got, err := r.GetCurrentConfig(ctx)
		require.NoError(t, err)
		assert.Equal(t, v2.ID.String(), got.ID)
	}
}

func TestZeroTTLDisablesCache(t *testing.T) {
	f := newFixture(t, 0)
	f.insertConfig(t)
	ctx := context.Background()

	f.activate(t, f.insertVersion(t, 1, "10", domain.VersionPublished))
	_, err := f.resolver.GetCurrentConfig(ctx)
	require.NoError(t, err)

	v2 := f.insertVersion(t, 2, "20", domain.VersionPublished)
	f.activate(t, v2)
	got, err := f.resolver.GetCurrentConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, v2.ID.String(), got.ID)
}

func TestGetVersionConfig(t *testing.T) {
	f := newFixture(t, time.Minute)
	f.insertConfig(t)
	ctx := context.Background()

	draft := f.insertVersion(t, 1, "10", domain.VersionDraft)
	got, err := f.resolver.GetVersionConfig(ctx, draft.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.VersionDraft, got.Status)

	_, err = f.resolver.GetVersionConfig(ctx, "not-an-id")
	assert.ErrorIs(t, err, domain.ErrInvalidID)

	_, err = f.resolver.GetVersionConfig(ctx, f.node.Generate().String())
	assert.ErrorIs(t, err, domain.ErrVersionNotFound)
}
