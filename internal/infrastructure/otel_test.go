package infrastructure

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nationcli/internal/config"
)

func TestInitTracingDisabled(t *testing.T) {
	shutdown, err := InitTracing(config.TracingConfig{Enabled: false}, nil)
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))

	shutdown, err = InitTracing(config.TracingConfig{Enabled: true, Exporter: "none"}, nil)
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInitTracingUnsupportedExporter(t *testing.T) {
	_, err := InitTracing(config.TracingConfig{Enabled: true, Exporter: "jaeger"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported trace exporter")
}

func TestStartSpanWithNoopProvider(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "agency")
	defer span.End()

	assert.NotNil(t, ctx)
	assert.NotPanics(t, func() {
		RecordError(ctx, errors.New("boom"))
		RecordError(ctx, nil)
	})
}
