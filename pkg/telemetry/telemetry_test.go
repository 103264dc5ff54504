package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stateforward/go-statechart/pkg/telemetry"
)

func TestTracer(t *testing.T) {
	tracer := telemetry.Tracer("test", false)
	ctx, span := telemetry.Start(context.Background(), tracer, "step")
	assert.NotNil(t, ctx)
	assert.False(t, span.IsRecording())
	assert.False(t, span.SpanContext().IsValid())
	telemetry.End(span, errors.New("failed"))
}

func TestGlobalTracer(t *testing.T) {
	tracer := telemetry.Tracer("test", true)
	_, span := tracer.Start(context.Background(), "step")
	defer span.End()
	assert.False(t, span.IsRecording(), "no global provider is registered")
}
