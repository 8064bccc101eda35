package ctxlogger

import (
	"context"
	"testing"

	"github.com/smallbiznis/adpricing/pkg/telemetry/correlation"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithContextAddsCorrelationAndService(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	SetServiceName("adpricing-test")

	ctx := correlation.ContextWithCorrelationID(context.Background(), "cid-42")
	WithContext(ctx, zap.New(core)).Info("hello")

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, "cid-42", fields["correlation_id"])
		assert.Equal(t, "adpricing-test", fields["service"])
		assert.Equal(t, "", fields["trace_id"])
	}
}
