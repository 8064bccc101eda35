package quote

import (
	"context"
	"errors"
	"strings"

	"github.com/smallbiznis/adpricing/internal/clock"
	"github.com/smallbiznis/adpricing/internal/config"
	"github.com/smallbiznis/adpricing/internal/observability/metrics"
	"github.com/smallbiznis/adpricing/internal/pricing/domain"
	"github.com/smallbiznis/adpricing/internal/pricing/engine"
	"github.com/smallbiznis/adpricing/internal/pricing/validator"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	flowQuote    = "quote"
	flowSimulate = "simulate"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Repo     domain.Repository
	Resolver domain.Resolver
	Settings *config.PricingSettingsHolder
	Clock    clock.Clock
	Metrics  *metrics.PricingMetrics `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	repo     domain.Repository
	resolver domain.Resolver
	settings *config.PricingSettingsHolder
	clock    clock.Clock
	metrics  *metrics.PricingMetrics
	tracer   trace.Tracer
}

func New(p Params) domain.QuoteService {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("pricing.quote"),
		repo:     p.Repo,
		resolver: p.Resolver,
		settings: p.Settings,
		clock:    p.Clock,
		metrics:  p.Metrics,
		tracer:   otel.Tracer("adpricing/pricing"),
	}
}

// Quote prices an input against the active version.
func (s *Service) Quote(ctx context.Context, input domain.CampaignInput) (*domain.Quote, error) {
	ctx, span := s.tracer.Start(ctx, "pricing.quote")
	defer span.End()

	started := s.clock.Now()
	q, err := s.quote(ctx, input, func(ctx context.Context) (*domain.ResolvedVersion, error) {
		return s.resolver.GetCurrentConfig(ctx)
	})
	s.metrics.RecordQuote(ctx, flowQuote, outcome(err), s.clock.Now().Sub(started))
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.String("pricing.version_id", q.PricingVersionID))
	return q, nil
}

// Simulate prices an input against any version, published or not. It never
// touches the active pointer.
func (s *Service) Simulate(ctx context.Context, req domain.SimulateRequest) (*domain.Quote, error) {
	ctx, span := s.tracer.Start(ctx, "pricing.simulate")
	defer span.End()

	started := s.clock.Now()
	q, err := s.quote(ctx, req.Input, func(ctx context.Context) (*domain.ResolvedVersion, error) {
		return s.selectVersion(ctx, req)
	})
	s.metrics.RecordQuote(ctx, flowSimulate, outcome(err), s.clock.Now().Sub(started))
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return q, nil
}

func (s *Service) CurrentConfig(ctx context.Context) (*domain.ResolvedVersion, error) {
	return s.resolver.GetCurrentConfig(ctx)
}

func (s *Service) quote(ctx context.Context, input domain.CampaignInput, resolve func(context.Context) (*domain.ResolvedVersion, error)) (*domain.Quote, error) {
	if msgs := validator.ValidateCampaignInput(input); len(msgs) > 0 {
		return nil, domain.NewValidationError(msgs)
	}

	version, err := resolve(ctx)
	if err != nil {
		return nil, err
	}

	if s.settings.Get().StrictTimeSlots {
		if msgs := validator.ValidateTimeSlotSelection(*version, input.TimeSlots); len(msgs) > 0 {
			verr := domain.NewValidationError(msgs)
			verr.Cause = domain.ErrUnknownTimeSlot
			return nil, verr
		}
	} else if unknown := engine.UnknownTimeSlots(*version, input.TimeSlots); len(unknown) > 0 {
		s.log.Debug("ignoring unknown time slots",
			zap.Strings("time_slots", unknown),
			zap.String("pricing_version_id", version.ID),
		)
	}

	result := engine.Calculate(*version, input)
	return &domain.Quote{
		Result:        result,
		VersionNumber: version.VersionNumber,
		EstimatedUsd:  version.EstimateUsd(result.FinalPrice),
	}, nil
}

func (s *Service) selectVersion(ctx context.Context, req domain.SimulateRequest) (*domain.ResolvedVersion, error) {
	if id := strings.TrimSpace(req.VersionID); id != "" {
		return s.resolver.GetVersionConfig(ctx, id)
	}

	cfg, err := s.repo.FindConfig(ctx, s.db)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, domain.ErrConfigNotFound
	}

	var version *domain.PricingVersion
	if req.VersionNumber != nil {
		version, err = s.repo.FindVersionByNumber(ctx, s.db, cfg.ID, *req.VersionNumber)
	} else {
		version, err = s.repo.FindLatestPublished(ctx, s.db, cfg.ID)
	}
	if err != nil {
		return nil, err
	}
	if version == nil {
		return nil, domain.ErrVersionNotFound
	}
	resolved := version.Resolve()
	return &resolved, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.QuoteOutcomeOK
	case errors.Is(err, domain.ErrConfigNotFound), errors.Is(err, domain.ErrVersionNotFound):
		return metrics.QuoteOutcomeNotConfigured
	}
	if _, ok := domain.AsValidationError(err); ok || errors.Is(err, domain.ErrInvalidID) {
		return metrics.QuoteOutcomeValidation
	}
	return metrics.QuoteOutcomeError
}
