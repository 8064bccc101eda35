package tracing

import (
	"context"
	"testing"

	"github.com/smallbiznis/adpricing/pkg/telemetry/correlation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
)

func TestDisabledProviderSamplesNothing(t *testing.T) {
	tp, err := NewProvider(fxtest.NewLifecycle(t), Config{}, zap.NewNop())
	require.NoError(t, err)

	_, span := tp.Tracer("test").Start(context.Background(), "noop")
	defer span.End()
	assert.False(t, span.SpanContext().IsSampled())
}

func TestUnknownProtocolRejected(t *testing.T) {
	_, err := NewProvider(fxtest.NewLifecycle(t), Config{Enabled: true, ExporterProtocol: "udp"}, zap.NewNop())
	assert.Error(t, err)
}

func TestCorrelationSpanProcessor(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(correlationSpanProcessor{}),
		sdktrace.WithSpanProcessor(recorder),
	)

	ctx := correlation.ContextWithCorrelationID(context.Background(), "req-7")
	_, span := tp.Tracer("test").Start(ctx, "quote")
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Contains(t, spans[0].Attributes(), attribute.String("correlation_id", "req-7"))
}
