package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/adpricing/internal/clock"
	"github.com/smallbiznis/adpricing/internal/observability/metrics"
	"github.com/smallbiznis/adpricing/internal/pricing/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Repo    domain.Repository
	Clock   clock.Clock
	Metrics *metrics.PricingMetrics `optional:"true"`
}

type Manager struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	repo    domain.Repository
	clock   clock.Clock
	metrics *metrics.PricingMetrics
}

func New(p Params) domain.SnapshotManager {
	return &Manager{
		db:      p.DB,
		log:     p.Log.Named("pricing.snapshot"),
		genID:   p.GenID,
		repo:    p.Repo,
		clock:   p.Clock,
		metrics: p.Metrics,
	}
}

// SaveSnapshot writes the snapshot on tx; the caller owns commit and rollback
// so the campaign row and its snapshot land together.
func (m *Manager) SaveSnapshot(ctx context.Context, tx *gorm.DB, campaignID snowflake.ID, result domain.Result) (*domain.CampaignPricingSnapshot, error) {
	versionID, err := snowflake.ParseString(result.PricingVersionID)
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	breakdown, err := json.Marshal(result.Breakdown)
	if err != nil {
		return nil, fmt.Errorf("encode breakdown: %w", err)
	}

	snapshot := &domain.CampaignPricingSnapshot{
		ID:               m.genID.Generate(),
		CampaignID:       campaignID,
		PricingVersionID: versionID,
		BasePrice:        result.BasePrice,
		FinalPrice:       result.FinalPrice,
		Breakdown:        datatypes.JSON(breakdown),
		CreatedAt:        m.clock.Now(),
	}

	err = m.repo.InsertSnapshot(ctx, tx, snapshot)
	m.metrics.RecordSnapshot(ctx, err)
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

func (m *Manager) GetSnapshot(ctx context.Context, campaignID string) (*domain.SnapshotResponse, error) {
	id, err := snowflake.ParseString(campaignID)
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	snapshot, err := m.repo.FindSnapshotByCampaign(ctx, m.db, id)
	if err != nil {
		return nil, err
	}
	if snapshot == nil {
		return nil, domain.ErrSnapshotNotFound
	}
	return ToResponse(snapshot)
}

func ToResponse(snapshot *domain.CampaignPricingSnapshot) (*domain.SnapshotResponse, error) {
	var breakdown []domain.BreakdownStep
	if err := json.Unmarshal(snapshot.Breakdown, &breakdown); err != nil {
		return nil, fmt.Errorf("decode breakdown: %w", err)
	}
	return &domain.SnapshotResponse{
		ID:               snapshot.ID.String(),
		CampaignID:       snapshot.CampaignID.String(),
		PricingVersionID: snapshot.PricingVersionID.String(),
		BasePrice:        snapshot.BasePrice,
		FinalPrice:       snapshot.FinalPrice,
		Breakdown:        breakdown,
		CreatedAt:        snapshot.CreatedAt.UTC().Format(time.RFC3339),
	}, nil
}
