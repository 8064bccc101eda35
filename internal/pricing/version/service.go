package version

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	auditdomain "github.com/smallbiznis/adpricing/internal/audit/domain"
	"github.com/smallbiznis/adpricing/internal/clock"
	"github.com/smallbiznis/adpricing/internal/config"
	"github.com/smallbiznis/adpricing/internal/observability/metrics"
	"github.com/smallbiznis/adpricing/internal/pricing/domain"
	"github.com/smallbiznis/adpricing/internal/pricing/validator"
	"github.com/smallbiznis/adpricing/internal/ratelimit"
	"github.com/smallbiznis/adpricing/pkg/db"
	"github.com/smallbiznis/adpricing/pkg/db/pagination"
	applog "github.com/smallbiznis/adpricing/pkg/log"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	maxNumberAttempts = 5
	publishLockKey    = "pricing-config"
	defaultPageSize   = 10
	maxPageSize       = 250
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Repo     domain.Repository
	Settings *config.PricingSettingsHolder
	Clock    clock.Clock
	Guard    *ratelimit.PricingGuard `optional:"true"`
	Metrics  *metrics.PricingMetrics `optional:"true"`
	Audit    auditdomain.Service     `optional:"true"`
}

// Service drives the DRAFT -> PUBLISHED lifecycle and the active version pointer.
type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	repo     domain.Repository
	settings *config.PricingSettingsHolder
	clock    clock.Clock
	guard    *ratelimit.PricingGuard
	metrics  *metrics.PricingMetrics
	audit    auditdomain.Service
}

func New(p Params) domain.VersionService {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("pricing.version"),
		genID:    p.GenID,
		repo:     p.Repo,
		settings: p.Settings,
		clock:    p.Clock,
		guard:    p.Guard,
		metrics:  p.Metrics,
		audit:    p.Audit,
	}
}

func (s *Service) CreateVersion(ctx context.Context, req domain.VersionRequest) (*domain.VersionResponse, error) {
	return s.create(ctx, req, false)
}

// PublishNow creates a version and makes it active in the same transaction.
func (s *Service) PublishNow(ctx context.Context, req domain.VersionRequest) (*domain.VersionResponse, error) {
	release, err := s.guard.LockPublish(ctx, publishLockKey)
	if err != nil {
		return nil, err
	}
	defer release()
	return s.create(ctx, req, true)
}

func (s *Service) create(ctx context.Context, req domain.VersionRequest, publish bool) (*domain.VersionResponse, error) {
	now := s.clock.Now()
	version := s.buildVersion(req, now)
	if msgs := validator.ValidateConfig(version.Resolve()); len(msgs) > 0 {
		return nil, domain.NewIntegrityError(msgs...)
	}

	var cfg *domain.PricingConfig
	var err error
	for attempt := 1; attempt <= maxNumberAttempts; attempt++ {
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			ensured, err := s.ensureConfig(ctx, tx, req, now)
			if err != nil {
				return err
			}
			cfg = ensured

			latest, err := s.repo.MaxVersionNumber(ctx, tx, cfg.ID)
			if err != nil {
				return err
			}
			version.ConfigID = cfg.ID
			version.VersionNumber = latest + 1

			if err := s.repo.InsertVersion(ctx, tx, version); err != nil {
				return err
			}
			if !publish {
				return nil
			}
			if err := s.repo.MarkPublished(ctx, tx, version.ID, now); err != nil {
				return err
			}
			return s.repo.SetActiveVersion(ctx, tx, cfg.ID, version.ID, now)
		})
		if err == nil || !db.IsDuplicateKeyErr(err) {
			break
		}
		s.log.Debug("version number collision, retrying", zap.Int("attempt", attempt))
	}
	if err != nil {
		return nil, err
	}

	s.record(ctx, auditdomain.ActionVersionCreated, version)
	if publish {
		version.Status = domain.VersionPublished
		version.PublishedAt = &now
		s.afterPublish(ctx, cfg.ID, version)
	}

	applog.With(ctx, s.log).Info("pricing version created",
		zap.String("version_id", version.ID.String()),
		zap.Int("version_number", version.VersionNumber),
		zap.Bool("published", publish),
	)

	active := cfg.ActiveVersionID
	if publish {
		active = &version.ID
	}
	return toResponse(version, active), nil
}

// Publish marks a version PUBLISHED and points the config at it. Publishing an
// already published version only moves the pointer; publishedAt keeps its
// first value.
func (s *Service) Publish(ctx context.Context, versionID string) (*domain.VersionResponse, error) {
	id, err := snowflake.ParseString(versionID)
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	release, err := s.guard.LockPublish(ctx, publishLockKey)
	if err != nil {
		return nil, err
	}
	defer release()

	now := s.clock.Now()
	var published *domain.PricingVersion
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		version, err := s.repo.FindVersionForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if version == nil {
			return domain.ErrVersionNotFound
		}
		if err := s.repo.MarkPublished(ctx, tx, id, now); err != nil {
			return err
		}
		if err := s.repo.SetActiveVersion(ctx, tx, version.ConfigID, id, now); err != nil {
			return err
		}
		published, err = s.repo.FindVersionByID(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.afterPublish(ctx, published.ConfigID, published)
	return toResponse(published, &published.ID), nil
}

func (s *Service) afterPublish(ctx context.Context, configID snowflake.ID, version *domain.PricingVersion) {
	s.metrics.RecordPublish()
	s.record(ctx, auditdomain.ActionVersionPublished, version)
	applog.With(ctx, s.log).Info("pricing version published",
		zap.String("config_id", configID.String()),
		zap.String("version_id", version.ID.String()),
		zap.Int("version_number", version.VersionNumber),
	)
}

// UpdateDraft replaces the prices and rules of a DRAFT version.
func (s *Service) UpdateDraft(ctx context.Context, versionID string, req domain.VersionRequest) (*domain.VersionResponse, error) {
	id, err := snowflake.ParseString(versionID)
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	now := s.clock.Now()
	replacement := s.buildVersion(req, now)
	if msgs := validator.ValidateConfig(replacement.Resolve()); len(msgs) > 0 {
		return nil, domain.NewIntegrityError(msgs...)
	}

	var updated *domain.PricingVersion
	var cfg *domain.PricingConfig
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.repo.FindVersionForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return domain.ErrVersionNotFound
		}
		if current.IsPublished() {
			return domain.ErrPublishedImmutable()
		}

		replacement.ID = current.ID
		replacement.ConfigID = current.ConfigID
		replacement.VersionNumber = current.VersionNumber
		replacement.CreatedAt = current.CreatedAt
		for i := range replacement.Factors {
			replacement.Factors[i].VersionID = current.ID
		}
		for i := range replacement.TimeSlots {
			replacement.TimeSlots[i].VersionID = current.ID
		}
		if err := s.repo.ReplaceRules(ctx, tx, replacement); err != nil {
			return err
		}

		if updated, err = s.repo.FindVersionByID(ctx, tx, id); err != nil {
			return err
		}
		cfg, err = s.repo.FindConfig(ctx, tx)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, auditdomain.ActionVersionDraftUpdated, updated)
	return toResponse(updated, activeID(cfg)), nil
}

// record writes an audit entry after the change committed. Failures are
// logged by the audit service and never undo the change.
func (s *Service) record(ctx context.Context, action string, version *domain.PricingVersion) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, auditdomain.Entry{
		Action:     action,
		TargetType: auditdomain.TargetPricingVersion,
		TargetID:   version.ID.String(),
		Metadata: map[string]any{
			"config_id":      version.ConfigID.String(),
			"version_number": version.VersionNumber,
			"base_price":     version.BasePrice.String(),
			"factors":        len(version.Factors),
			"time_slots":     len(version.TimeSlots),
		},
	})
}

func (s *Service) GetVersion(ctx context.Context, versionID string) (*domain.VersionResponse, error) {
	id, err := snowflake.ParseString(versionID)
	if err != nil {
		return nil, domain.ErrInvalidID
	}
	version, err := s.repo.FindVersionByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if version == nil {
		return nil, domain.ErrVersionNotFound
	}
	cfg, err := s.repo.FindConfig(ctx, s.db)
	if err != nil {
		return nil, err
	}
	return toResponse(version, activeID(cfg)), nil
}

// ListVersions pages through versions newest first.
func (s *Service) ListVersions(ctx context.Context, req domain.ListVersionsRequest) (*domain.ListVersionsResponse, error) {
	resp := &domain.ListVersionsResponse{Items: []domain.VersionResponse{}, PageInfo: &pagination.PageInfo{}}

	cfg, err := s.repo.FindConfig(ctx, s.db)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return resp, nil
	}

	pageSize := pagination.ClampPageSize(req.PageSize, defaultPageSize, maxPageSize)

	filter := domain.ListVersionsFilter{
		Status: domain.VersionStatus(strings.ToUpper(strings.TrimSpace(string(req.Status)))),
		Limit:  pageSize + 1,
	}
	if token := strings.TrimSpace(req.PageToken); token != "" {
		cursor, err := pagination.DecodeCursor(token)
		if err != nil {
			return nil, pagination.ErrInvalidPageToken
		}
		before, err := strconv.Atoi(cursor.ID)
		if err != nil {
			return nil, pagination.ErrInvalidPageToken
		}
		filter.BeforeNumber = before
	}

	versions, err := s.repo.ListVersions(ctx, s.db, cfg.ID, filter)
	if err != nil {
		return nil, err
	}

	items := make([]*domain.PricingVersion, 0, len(versions))
	for i := range versions {
		items = append(items, &versions[i])
	}
	resp.PageInfo = pagination.BuildCursorPageInfo(items, int32(pageSize), func(v *domain.PricingVersion) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        strconv.Itoa(v.VersionNumber),
			CreatedAt: v.CreatedAt.UTC().Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if len(items) > pageSize {
		items = items[:pageSize]
	}

	for _, v := range items {
		resp.Items = append(resp.Items, *toResponse(v, cfg.ActiveVersionID))
	}
	return resp, nil
}

func (s *Service) ensureConfig(ctx context.Context, tx *gorm.DB, req domain.VersionRequest, now time.Time) (*domain.PricingConfig, error) {
	cfg, err := s.repo.FindConfig(ctx, tx)
	if err != nil || cfg != nil {
		return cfg, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = s.settings.Get().DefaultConfigName
	}
	cfg = &domain.PricingConfig{
		ID:          s.genID.Generate(),
		Code:        domain.ConfigCode,
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.InsertConfig(ctx, tx, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildVersion applies authoring defaults. ConfigID and VersionNumber are
// assigned inside the creating transaction.
func (s *Service) buildVersion(req domain.VersionRequest, now time.Time) *domain.PricingVersion {
	settings := s.settings.Get()
	version := &domain.PricingVersion{
		ID:            s.genID.Generate(),
		BasePrice:     decimalOr(req.BasePrice, settings.BasePrice()),
		TokenUsdPrice: decimalOr(req.TokenUsdPrice, settings.TokenUsdPrice()),
		Status:        domain.VersionDraft,
		CreatedAt:     now,
		UpdatedAt:     now,
		Factors:       make([]domain.Factor, 0, len(req.Factors)),
		TimeSlots:     make([]domain.TimeSlot, 0, len(req.TimeSlots)),
	}

	for i, f := range req.Factors {
		factor := domain.Factor{
			ID:         s.genID.Generate(),
			VersionID:  version.ID,
			Position:   i,
			Name:       strings.TrimSpace(f.Name),
			Key:        strings.TrimSpace(f.Key),
			Type:       domain.FactorType(strings.ToUpper(strings.TrimSpace(string(f.Type)))),
			Enabled:    f.Enabled,
			Priority:   intOr(f.Priority, 1),
			Value:      decimalOr(f.Value, decimal.NewFromInt(1)),
			Resolution: resolutionKind(f),
			CreatedAt:  now,
		}
		switch factor.Resolution {
		case domain.ResolutionLookup:
			factor.Lookup = datatypes.NewJSONType(f.Config)
		case domain.ResolutionSlab:
			factor.Slabs = datatypes.NewJSONType(f.Slabs)
		}
		version.Factors = append(version.Factors, factor)
	}

	for i, ts := range req.TimeSlots {
		version.TimeSlots = append(version.TimeSlots, domain.TimeSlot{
			ID:         s.genID.Generate(),
			VersionID:  version.ID,
			Position:   i,
			Name:       strings.TrimSpace(ts.Name),
			StartTime:  strings.TrimSpace(ts.StartTime),
			EndTime:    strings.TrimSpace(ts.EndTime),
			Multiplier: decimalOr(ts.Multiplier, decimal.NewFromInt(1)),
			Priority:   intOr(ts.Priority, 1),
			CreatedAt:  now,
		})
	}
	return version
}

func resolutionKind(f domain.FactorRequest) domain.ResolutionKind {
	kind := domain.ResolutionKind(strings.ToUpper(strings.TrimSpace(string(f.Resolution))))
	if kind != "" {
		return kind
	}
	switch {
	case len(f.Config) > 0:
		return domain.ResolutionLookup
	case len(f.Slabs) > 0:
		return domain.ResolutionSlab
	default:
		return domain.ResolutionStatic
	}
}

func toResponse(v *domain.PricingVersion, active *snowflake.ID) *domain.VersionResponse {
	resolved := v.Resolve()
	resp := &domain.VersionResponse{
		ID:            resolved.ID,
		ConfigID:      resolved.ConfigID,
		VersionNumber: v.VersionNumber,
		Status:        v.Status,
		Active:        active != nil && *active == v.ID,
		BasePrice:     v.BasePrice,
		TokenUsdPrice: v.TokenUsdPrice,
		CreatedAt:     v.CreatedAt.UTC().Format(time.RFC3339),
		Factors:       resolved.Factors,
		TimeSlots:     resolved.TimeSlots,
	}
	if v.PublishedAt != nil {
		publishedAt := v.PublishedAt.UTC().Format(time.RFC3339)
		resp.PublishedAt = &publishedAt
	}
	return resp
}

func activeID(cfg *domain.PricingConfig) *snowflake.ID {
	if cfg == nil {
		return nil
	}
	return cfg.ActiveVersionID
}

func decimalOr(v *decimal.Decimal, def decimal.Decimal) decimal.Decimal {
	if v == nil {
		return def
	}
	return *v
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}
