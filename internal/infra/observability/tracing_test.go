package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/skillscope/internal/logger"
)

func TestInitTracing(t *testing.T) {
	ctx := context.Background()

	shutdown, err := InitTracing(ctx, logger.Nop(), TracingConfig{Exporter: "none"})
	require.NoError(t, err)
	assert.NoError(t, shutdown(ctx))

	shutdown, err = InitTracing(ctx, logger.Nop(), TracingConfig{Exporter: "stdout", ServiceName: "test"})
	require.NoError(t, err)
	assert.NoError(t, shutdown(ctx))

	_, err = InitTracing(ctx, logger.Nop(), TracingConfig{Exporter: "zipkin"})
	assert.Error(t, err)
}
