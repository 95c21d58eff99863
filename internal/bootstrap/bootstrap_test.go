package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/skillscope/internal/config"
	"github.com/bryanwahyu/skillscope/internal/logger"
)

func TestBuildInMemory(t *testing.T) {
	cfg := config.Default()
	cfg.AI.APIKey = "test"
	require.NoError(t, cfg.Validate())

	app, err := Build(context.Background(), cfg, logger.Nop())
	require.NoError(t, err)
	defer app.Close(context.Background())

	rec := httptest.NewRecorder()
	app.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"model"`)
	assert.Contains(t, rec.Body.String(), `"store"`)

	rec = httptest.NewRecorder()
	app.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/session", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), cfg.Auth.DefaultUser)
}

func TestBuildRejectsUnknownTracer(t *testing.T) {
	cfg := config.Default()
	cfg.AI.APIKey = "test"
	cfg.Tracing.Exporter = "zipkin"

	_, err := Build(context.Background(), cfg, logger.Nop())
	assert.Error(t, err)
}
