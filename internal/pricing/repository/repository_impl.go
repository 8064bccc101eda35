package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/adpricing/internal/pricing/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindConfig(ctx context.Context, db *gorm.DB) (*domain.PricingConfig, error) {
	var cfg domain.PricingConfig
	err := db.WithContext(ctx).Order("id ASC").Take(&cfg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cfg, nil
}

func (r *repo) InsertConfig(ctx context.Context, db *gorm.DB, cfg *domain.PricingConfig) error {
	return db.WithContext(ctx).Create(cfg).Error
}

func (r *repo) SetActiveVersion(ctx context.Context, db *gorm.DB, configID, versionID snowflake.ID, now time.Time) error {
	res := db.WithContext(ctx).
		Model(&domain.PricingConfig{}).
		Where("id = ?", configID).
		Updates(map[string]any{
			"active_version_id": versionID,
			"updated_at":        now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrConfigNotFound
	}
	return nil
}

func (r *repo) MaxVersionNumber(ctx context.Context, db *gorm.DB, configID snowflake.ID) (int, error) {
	var max sql.NullInt64
	err := db.WithContext(ctx).
		Model(&domain.PricingVersion{}).
		Where("config_id = ?", configID).
		Select("MAX(version_number)").
		Row().
		Scan(&max)
	if err != nil {
		return 0, err
	}
	return int(max.Int64), nil
}

// InsertVersion writes the version with its factors and time slots.
func (r *repo) InsertVersion(ctx context.Context, db *gorm.DB, version *domain.PricingVersion) error {
	return db.WithContext(ctx).Create(version).Error
}

func (r *repo) FindVersionByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.PricingVersion, error) {
	return r.findVersion(ctx, db, "id = ?", id)
}

// FindVersionForUpdate loads a version holding its row lock until the transaction ends.
func (r *repo) FindVersionForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.PricingVersion, error) {
	return r.findVersion(ctx, lockRow(db), "id = ?", id)
}

func (r *repo) FindVersionByNumber(ctx context.Context, db *gorm.DB, configID snowflake.ID, number int) (*domain.PricingVersion, error) {
	return r.findVersion(ctx, db, "config_id = ? AND version_number = ?", configID, number)
}

func (r *repo) FindLatestPublished(ctx context.Context, db *gorm.DB, configID snowflake.ID) (*domain.PricingVersion, error) {
	var version domain.PricingVersion
	err := withRules(db.WithContext(ctx)).
		Where("config_id = ? AND status = ?", configID, domain.VersionPublished).
		Order("version_number DESC").
		Take(&version).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &version, nil
}

func (r *repo) ListVersions(ctx context.Context, db *gorm.DB, configID snowflake.ID, filter domain.ListVersionsFilter) ([]domain.PricingVersion, error) {
	stmt := withRules(db.WithContext(ctx)).Where("config_id = ?", configID)
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if filter.BeforeNumber > 0 {
		stmt = stmt.Where("version_number < ?", filter.BeforeNumber)
	}
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit)
	}

	var versions []domain.PricingVersion
	if err := stmt.Order("version_number DESC").Find(&versions).Error; err != nil {
		return nil, err
	}
	return versions, nil
}

// ReplaceRules swaps the prices and rules of a draft version. Callers must
// hold the version row via a transaction.
func (r *repo) ReplaceRules(ctx context.Context, db *gorm.DB, version *domain.PricingVersion) error {
	tx := db.WithContext(ctx)
	res := tx.Model(&domain.PricingVersion{}).
		Where("id = ? AND status = ?", version.ID, domain.VersionDraft).
		Updates(map[string]any{
			"base_price":      version.BasePrice,
			"token_usd_price": version.TokenUsdPrice,
			"updated_at":      version.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrPublishedImmutable()
	}

	if err := tx.Where("version_id = ?", version.ID).Delete(&domain.Factor{}).Error; err != nil {
		return err
	}
	if err := tx.Where("version_id = ?", version.ID).Delete(&domain.TimeSlot{}).Error; err != nil {
		return err
	}
	if len(version.Factors) > 0 {
		if err := tx.Create(&version.Factors).Error; err != nil {
			return err
		}
	}
	if len(version.TimeSlots) > 0 {
		if err := tx.Create(&version.TimeSlots).Error; err != nil {
			return err
		}
	}
	return nil
}

// MarkPublished sets the status; publishedAt is stamped only on the first publish.
func (r *repo) MarkPublished(ctx context.Context, db *gorm.DB, versionID snowflake.ID, publishedAt time.Time) error {
	res := db.WithContext(ctx).
		Model(&domain.PricingVersion{}).
		Where("id = ?", versionID).
		Updates(map[string]any{
			"status":       domain.VersionPublished,
			"published_at": gorm.Expr("COALESCE(published_at, ?)", publishedAt),
			"updated_at":   publishedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrVersionNotFound
	}
	return nil
}

func (r *repo) InsertSnapshot(ctx context.Context, db *gorm.DB, snapshot *domain.CampaignPricingSnapshot) error {
	return db.WithContext(ctx).Create(snapshot).Error
}

func (r *repo) FindSnapshotByCampaign(ctx context.Context, db *gorm.DB, campaignID snowflake.ID) (*domain.CampaignPricingSnapshot, error) {
	var snapshot domain.CampaignPricingSnapshot
	err := db.WithContext(ctx).Where("campaign_id = ?", campaignID).Take(&snapshot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &snapshot, nil
}

func (r *repo) findVersion(ctx context.Context, db *gorm.DB, query string, args ...any) (*domain.PricingVersion, error) {
	var version domain.PricingVersion
	err := withRules(db.WithContext(ctx)).Where(query, args...).Take(&version).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &version, nil
}

func withRules(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Factors", func(tx *gorm.DB) *gorm.DB { return tx.Order("position ASC") }).
		Preload("TimeSlots", func(tx *gorm.DB) *gorm.DB { return tx.Order("position ASC") })
}

func lockRow(db *gorm.DB) *gorm.DB {
	if db.Dialector.Name() == "sqlite" {
		return db
	}
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}
