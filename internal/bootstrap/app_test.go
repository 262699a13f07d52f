package bootstrap

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"authgate/internal/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewCore_RejectsInvalidConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Auth.JWTExpiresIn = "72h"
	cfg.Database.Driver = config.DriverMySQL

	_, err := NewCore(context.Background(), cfg, discardLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
	assert.Contains(t, err.Error(), "jwt_secret")
}

func TestOpenDatabase_UnknownDriver(t *testing.T) {
	cfg := &config.Config{}
	cfg.Database.Driver = "sqlite"

	_, err := openDatabase(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unsupported database driver "sqlite"`)
}

func TestRouterDeps_OmitsMissingOptionalParts(t *testing.T) {
	a := &App{Config: &config.Config{}, Logger: discardLogger()}
	a.Config.App.Env = "prod"
	a.Config.HTTP.TrustedProxies = []string{"10.0.0.0/8"}

	deps := a.RouterDeps()
	assert.Nil(t, deps.Limiter)
	assert.Nil(t, deps.Events)
	assert.Nil(t, deps.Metrics)
	assert.Equal(t, "release", deps.GinMode)
	assert.Equal(t, []string{"10.0.0.0/8"}, deps.TrustedProxies)
	require.NotNil(t, deps.Health)
}
