package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSetupWithoutEndpoint(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.DebugLevel)
	shutdown, err := Setup(context.Background(), Config{}, zap.New(core))
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
	assert.Equal(t, 1, logs.FilterMessage("OTLP endpoint not set; tracing disabled").Len())
}

// Not parallel: installs the global tracer provider.
func TestSetupWithEndpoint(t *testing.T) {
	// The gRPC exporter connects lazily, so setup succeeds without a collector.
	shutdown, err := Setup(context.Background(), Config{Endpoint: "127.0.0.1:4317", SampleRatio: 5}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = shutdown(ctx)
}
