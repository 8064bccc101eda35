package service

import (
	"context"
	"testing"
	"time"

	auditdomain "github.com/smallbiznis/adpricing/internal/audit/domain"
	"github.com/smallbiznis/adpricing/internal/audit/repository"
	"github.com/smallbiznis/adpricing/internal/clock"
	"github.com/smallbiznis/adpricing/internal/pricing/pricingtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) (auditdomain.Service, *clock.FakeClock) {
	t.Helper()
	db := pricingtest.OpenDB(t, &auditdomain.AuditLog{})
	fc := clock.NewFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	return NewService(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: pricingtest.Node(t),
		Repo:  repository.Provide(),
		Clock: fc,
	}), fc
}

func TestRecordTakesActorAndRequestFromContext(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := auditdomain.WithActor(context.Background(), string(auditdomain.ActorTypeAdmin), "ops@example.com")
	ctx = auditdomain.WithRequestInfo(ctx, auditdomain.RequestInfo{
		RequestID: "req-1",
		IPAddress: "10.0.0.1",
		UserAgent: "curl/8",
	})

	require.NoError(t, svc.Record(ctx, auditdomain.Entry{
		Action:     auditdomain.ActionVersionPublished,
		TargetType: auditdomain.TargetPricingVersion,
		TargetID:   "42",
		Metadata:   map[string]any{"version_number": 3, "": "dropped"},
	}))

	resp, err := svc.List(context.Background(), auditdomain.ListAuditLogRequest{})
	require.NoError(t, err)
	require.Len(t, resp.AuditLogs, 1)

	got := resp.AuditLogs[0]
	assert.Equal(t, "admin", got.ActorType)
	require.NotNil(t, got.ActorID)
	assert.Equal(t, "ops@example.com", *got.ActorID)
	require.NotNil(t, got.TargetID)
	assert.Equal(t, "42", *got.TargetID)
	require.NotNil(t, got.IPAddress)
	assert.Equal(t, "10.0.0.1", *got.IPAddress)
	assert.Equal(t, "req-1", got.Metadata["request_id"])
	assert.NotContains(t, got.Metadata, "")
}

func TestRecordDefaultsToSystemActor(t *testing.T) {
	svc, _ := newTestService(t)

	require.NoError(t, svc.Record(context.Background(), auditdomain.Entry{Action: auditdomain.ActionVersionCreated}))

	resp, err := svc.List(context.Background(), auditdomain.ListAuditLogRequest{})
	require.NoError(t, err)
	require.Len(t, resp.AuditLogs, 1)
	assert.Equal(t, "system", resp.AuditLogs[0].ActorType)
	assert.Nil(t, resp.AuditLogs[0].ActorID)
	assert.Equal(t, "unknown", resp.AuditLogs[0].TargetType)
}

func TestRecordRequiresAction(t *testing.T) {
	svc, _ := newTestService(t)
	err := svc.Record(context.Background(), auditdomain.Entry{Action: "  "})
	assert.ErrorIs(t, err, auditdomain.ErrInvalidAction)
}

func TestListPagesNewestFirst(t *testing.T) {
	svc, fc := newTestService(t)
	ctx := context.Background()

	for _, action := range []string{
		auditdomain.ActionVersionCreated,
		auditdomain.ActionVersionDraftUpdated,
		auditdomain.ActionVersionPublished,
	} {
		require.NoError(t, svc.Record(ctx, auditdomain.Entry{Action: action, TargetType: auditdomain.TargetPricingVersion}))
		fc.Advance(time.Minute)
	}

	req := auditdomain.ListAuditLogRequest{}
	req.PageSize = 2
	first, err := svc.List(ctx, req)
	require.NoError(t, err)
	require.Len(t, first.AuditLogs, 2)
	assert.True(t, first.HasMore)
	assert.Equal(t, auditdomain.ActionVersionPublished, first.AuditLogs[0].Action)
	assert.Equal(t, auditdomain.ActionVersionDraftUpdated, first.AuditLogs[1].Action)

	req.PageToken = first.NextPageToken
	second, err := svc.List(ctx, req)
	require.NoError(t, err)
	require.Len(t, second.AuditLogs, 1)
	assert.False(t, second.HasMore)
	assert.Equal(t, auditdomain.ActionVersionCreated, second.AuditLogs[0].Action)
}

func TestListFiltersByAction(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.Record(ctx, auditdomain.Entry{Action: auditdomain.ActionVersionCreated}))
	require.NoError(t, svc.Record(ctx, auditdomain.Entry{Action: auditdomain.ActionVersionPublished}))

	resp, err := svc.List(ctx, auditdomain.ListAuditLogRequest{Action: auditdomain.ActionVersionPublished})
	require.NoError(t, err)
	require.Len(t, resp.AuditLogs, 1)
	assert.Equal(t, auditdomain.ActionVersionPublished, resp.AuditLogs[0].Action)
}

func TestListRejectsBadInput(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	end := start.Add(-time.Hour)
	_, err := svc.List(ctx, auditdomain.ListAuditLogRequest{StartAt: &start, EndAt: &end})
	assert.ErrorIs(t, err, auditdomain.ErrInvalidTimeRange)

	req := auditdomain.ListAuditLogRequest{}
	req.PageToken = "not-base64!"
	_, err = svc.List(ctx, req)
	assert.ErrorIs(t, err, auditdomain.ErrInvalidPageToken)
}
