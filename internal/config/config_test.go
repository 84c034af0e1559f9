package config

import (
	"testing"
	"time"

	"gopress/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("TALLY_EPSILON", "")
	t.Setenv("DATABASE_URL", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 1e-5, cfg.Tally.Epsilon)
	assert.Equal(t, "", cfg.Database.URL)
	assert.True(t, cfg.Simulation.Limitation)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("TALLY_EPSILON", "0.01")
	t.Setenv("SIM_SAMPLES", "250")
	t.Setenv("SIM_SEED", "7")
	t.Setenv("SIM_ENFORCE_LIMITATION", "false")
	t.Setenv("SHUTDOWN_TIMEOUT", "3s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 0.01, cfg.Tally.Epsilon)
	assert.Equal(t, 250, cfg.Simulation.Samples)
	assert.Equal(t, uint64(7), cfg.Simulation.Seed)
	assert.False(t, cfg.Simulation.Limitation)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
}

func TestLoad_RejectsNegativeEpsilon(t *testing.T) {
	t.Setenv("TALLY_EPSILON", "-0.5")

	_, err := Load()
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}

func TestRequireModelSource(t *testing.T) {
	cfg := &Config{}
	assert.Error(t, cfg.RequireModelSource())

	cfg.Paths.ModelFile = "model.txt"
	assert.NoError(t, cfg.RequireModelSource())
}
