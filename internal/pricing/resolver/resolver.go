package resolver

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/adpricing/internal/cache"
	"github.com/smallbiznis/adpricing/internal/config"
	"github.com/smallbiznis/adpricing/internal/observability/metrics"
	"github.com/smallbiznis/adpricing/internal/pricing/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	versionKeyPrefix = "version:"
	redisKeyPrefix   = "adpricing:resolver:"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Repo     domain.Repository
	Settings *config.PricingSettingsHolder
	Redis    *redis.Client                       `optional:"true"`
	Store    cache.Store[domain.ResolvedVersion] `optional:"true"`
	Metrics  *metrics.PricingMetrics             `optional:"true"`
}

// Resolver reads versions through a read-through cache keyed by version id.
// Only published versions are cached. The active pointer is read from the
// config row on every call, so a publish on any instance is seen at once.
type Resolver struct {
	db       *gorm.DB
	log      *zap.Logger
	repo     domain.Repository
	settings *config.PricingSettingsHolder
	cache    cache.Store[domain.ResolvedVersion]
	metrics  *metrics.PricingMetrics
	tracer   trace.Tracer
}

func New(p Params) domain.Resolver {
	store := p.Store
	if store == nil && p.Redis != nil {
		store = cache.NewRedisStore[domain.ResolvedVersion](p.Redis, redisKeyPrefix)
	}
	if store == nil {
		store = cache.NewMemoryStore[domain.ResolvedVersion]()
	}
	return &Resolver{
		db:       p.DB,
		log:      p.Log.Named("pricing.resolver"),
		repo:     p.Repo,
		settings: p.Settings,
		cache:    store,
		metrics:  p.Metrics,
		tracer:   otel.Tracer("adpricing/pricing"),
	}
}

func (r *Resolver) GetCurrentConfig(ctx context.Context) (*domain.ResolvedVersion, error) {
	ctx, span := r.tracer.Start(ctx, "pricing.resolver.current")
	defer span.End()

	cfg, err := r.repo.FindConfig(ctx, r.db)
	if err != nil {
		return nil, err
	}
	if cfg == nil || cfg.ActiveVersionID == nil {
		return nil, domain.ErrConfigNotFound
	}

	resolved, hit, err := r.resolve(ctx, *cfg.ActiveVersionID)
	if err != nil {
		return nil, err
	}
	if resolved == nil {
		r.log.Warn("active version pointer is dangling",
			zap.String("config_id", cfg.ID.String()),
			zap.String("version_id", cfg.ActiveVersionID.String()),
		)
		return nil, domain.ErrConfigNotFound
	}
	span.SetAttributes(attribute.Bool("cache.hit", hit), attribute.String("pricing.version_id", resolved.ID))
	return resolved, nil
}

func (r *Resolver) GetVersionConfig(ctx context.Context, versionID string) (*domain.ResolvedVersion, error) {
	ctx, span := r.tracer.Start(ctx, "pricing.resolver.version")
	defer span.End()

	id, err := snowflake.ParseString(versionID)
	if err != nil {
		return nil, domain.ErrInvalidID
	}
	span.SetAttributes(attribute.String("pricing.version_id", id.String()))

	resolved, hit, err := r.resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	if resolved == nil {
		return nil, domain.ErrVersionNotFound
	}
	span.SetAttributes(attribute.Bool("cache.hit", hit))
	return resolved, nil
}

// resolve returns nil when the version does not exist. Published versions are
// immutable, so a cached entry never goes stale.
func (r *Resolver) resolve(ctx context.Context, id snowflake.ID) (*domain.ResolvedVersion, bool, error) {
	key := versionKeyPrefix + id.String()
	if cached, ok := r.lookup(ctx, key); ok {
		return cached, true, nil
	}

	version, err := r.repo.FindVersionByID(ctx, r.db, id)
	if err != nil {
		return nil, false, err
	}
	if version == nil {
		return nil, false, nil
	}

	resolved := version.Resolve()
	if version.IsPublished() {
		r.store(ctx, key, resolved)
	}
	return &resolved, false, nil
}

func (r *Resolver) lookup(ctx context.Context, key string) (*domain.ResolvedVersion, bool) {
	if r.settings.Get().ResolverCacheTTL <= 0 {
		return nil, false
	}
	value, ok, err := r.cache.Get(ctx, key)
	if err != nil {
		r.log.Warn("pricing cache read failed", zap.String("key", key), zap.Error(err))
		ok = false
	}
	r.metrics.RecordCacheLookup(ok)
	if !ok {
		return nil, false
	}
	return &value, true
}

func (r *Resolver) store(ctx context.Context, key string, value domain.ResolvedVersion) {
	ttl := r.settings.Get().ResolverCacheTTL
	if ttl <= 0 {
		return
	}
	if err := r.cache.Set(ctx, key, value, ttl); err != nil && !errors.Is(err, context.Canceled) {
		r.log.Warn("pricing cache write failed", zap.String("key", key), zap.Error(err))
	}
}
