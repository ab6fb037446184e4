package config

import (
	"testing"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArgs_Defaults(t *testing.T) {
	cfg, err := parseArgs([]string{"--auth-token", "secret"}, flags.None)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, []string{"Plan"}, cfg.Server.AllowedApps)
	assert.Equal(t, "nadir.db", cfg.Storage.Path)
	assert.Equal(t, 30*time.Minute, cfg.Analytics.ActiveThreshold)
	assert.Equal(t, 720*time.Hour, cfg.Analytics.RetentionDelay)
	assert.Equal(t, "UTC", cfg.Analytics.Timezone)
	assert.Zero(t, cfg.Storage.PruneSamples)
	require.NoError(t, cfg.Validate())
}

func TestParseArgs_MaintenanceFlags(t *testing.T) {
	cfg, err := parseArgs([]string{"--db-prune-samples=48h", "--db-check-servers"}, flags.None)
	require.NoError(t, err)

	assert.Equal(t, 48*time.Hour, cfg.Storage.PruneSamples)
	assert.True(t, cfg.Storage.CheckServers)
	// maintenance runs do not need the API token
	assert.NoError(t, cfg.Validate())

	cfg, err = parseArgs([]string{"--db-delete-server", "0b0f3c1e-0000-4000-8000-000000000001"}, flags.None)
	require.NoError(t, err)
	assert.Equal(t, "0b0f3c1e-0000-4000-8000-000000000001", cfg.Storage.DeleteServer)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	cfg, err := parseArgs([]string{"--auth-token", "secret"}, flags.None)
	require.NoError(t, err)

	cfg.Server.AuthToken = ""
	assert.Error(t, cfg.Validate())

	cfg.Server.AuthToken = "secret"
	cfg.Analytics.Timezone = "Mars/Olympus_Mons"
	assert.Error(t, cfg.Validate())

	cfg.Analytics.Timezone = "Europe/Helsinki"
	loc, err := cfg.Analytics.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Helsinki", loc.String())

	cfg.Server.Workers = 0
	assert.Error(t, cfg.Validate())
}
