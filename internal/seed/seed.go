package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/adpricing/internal/pricing/domain"
	"github.com/smallbiznis/adpricing/internal/pricing/repository"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	defaultConfigDescription = "Standard pricing rules for all regional screens"
)

type factorSeed struct {
	name     string
	key      string
	value    string
	priority int
	lookup   domain.LookupTable
}

var defaultFactors = []factorSeed{
	{name: "Screen Count", key: domain.FieldScreenCount, value: "1", priority: 1},
	{name: "Ad Format: Video", key: domain.FieldAdFormat, value: "1", priority: 2, lookup: domain.LookupTable{
		string(domain.AdFormatMP4):  decimal.RequireFromString("1.5"),
		string(domain.AdFormatWEBM): decimal.RequireFromString("1.5"),
	}},
	{name: "Slot Priority: High", key: domain.FieldSlotPriority, value: "1", priority: 3, lookup: domain.LookupTable{
		string(domain.SlotPriorityHigh): decimal.RequireFromString("1.25"),
	}},
	{name: "Slot Priority: Premium", key: domain.FieldSlotPriority, value: "1", priority: 4, lookup: domain.LookupTable{
		string(domain.SlotPriorityPremium): decimal.RequireFromString("2"),
	}},
}

type timeSlotSeed struct {
	name, start, end, multiplier string
	priority                     int
}

var defaultTimeSlots = []timeSlotSeed{
	{name: "Morning Peak", start: "08:00", end: "11:00", multiplier: "1.2", priority: 1},
	{name: "Evening Peak", start: "17:00", end: "21:00", multiplier: "1.5", priority: 2},
	{name: "Late Night", start: "00:00", end: "04:00", multiplier: "0.8", priority: 3},
}

// EnsureDefaultPricing creates the pricing config and publishes a first
// version when nothing is active yet. It is a no-op otherwise.
func EnsureDefaultPricing(ctx context.Context, db *gorm.DB, node *snowflake.Node, log *zap.Logger) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}
	if log == nil {
		log = zap.NewNop()
	}

	repo := repository.Provide()
	now := time.Now().UTC()

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cfg, err := repo.FindConfig(ctx, tx)
		if err != nil {
			return err
		}
		if cfg != nil && cfg.ActiveVersionID != nil {
			log.Debug("pricing already seeded", zap.String("config_id", cfg.ID.String()))
			return nil
		}

		if cfg == nil {
			cfg = &domain.PricingConfig{
				ID:          node.Generate(),
				Code:        domain.ConfigCode,
				Name:        domain.DefaultConfigName,
				Description: defaultConfigDescription,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := repo.InsertConfig(ctx, tx, cfg); err != nil {
				return err
			}
		}

		latest, err := repo.MaxVersionNumber(ctx, tx, cfg.ID)
		if err != nil {
			return err
		}

		version := defaultVersion(node, cfg.ID, latest+1, now)
		if err := repo.InsertVersion(ctx, tx, version); err != nil {
			return err
		}
		if err := repo.SetActiveVersion(ctx, tx, cfg.ID, version.ID, now); err != nil {
			return err
		}

		log.Info("seeded default pricing",
			zap.String("config_id", cfg.ID.String()),
			zap.String("version_id", version.ID.String()),
			zap.Int("version_number", version.VersionNumber),
		)
		return nil
	})
}

func defaultVersion(node *snowflake.Node, configID snowflake.ID, number int, now time.Time) *domain.PricingVersion {
	version := &domain.PricingVersion{
		ID:            node.Generate(),
		ConfigID:      configID,
		VersionNumber: number,
		BasePrice:     decimal.NewFromInt(100),
		TokenUsdPrice: decimal.RequireFromString("0.04"),
		Status:        domain.VersionPublished,
		PublishedAt:   &now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	for i, f := range defaultFactors {
		factor := domain.Factor{
			ID:         node.Generate(),
			VersionID:  version.ID,
			Position:   i,
			Name:       f.name,
			Key:        f.key,
			Type:       domain.FactorMultiplier,
			Enabled:    true,
			Priority:   f.priority,
			Value:      decimal.RequireFromString(f.value),
			Resolution: domain.ResolutionStatic,
			CreatedAt:  now,
		}
		if len(f.lookup) > 0 {
			factor.Resolution = domain.ResolutionLookup
			factor.Lookup = datatypes.NewJSONType(f.lookup)
		}
		version.Factors = append(version.Factors, factor)
	}

	for i, ts := range defaultTimeSlots {
		version.TimeSlots = append(version.TimeSlots, domain.TimeSlot{
			ID:         node.Generate(),
			VersionID:  version.ID,
			Position:   i,
			Name:       ts.name,
			StartTime:  ts.start,
			EndTime:    ts.end,
			Multiplier: decimal.RequireFromString(ts.multiplier),
			Priority:   ts.priority,
			CreatedAt:  now,
		})
	}
	return version
}
