package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaintenanceModeDefaultsOff(t *testing.T) {
	s, err := NewLocalSettingsService("")
	require.NoError(t, err)

	on, err := s.IsMaintenanceMode(context.Background())
	require.NoError(t, err)
	assert.False(t, on)
}

func TestMaintenanceModeToggle(t *testing.T) {
	assert := assert.New(t)
	s, err := NewLocalSettingsService("")
	require.NoError(t, err)
	ctx := context.Background()

	settings, err := s.SetMaintenanceMode(ctx, true)
	require.NoError(t, err)
	assert.True(settings.IsMaintenanceMode)

	on, err := s.IsMaintenanceMode(ctx)
	require.NoError(t, err)
	assert.True(on)

	settings, err = s.SetMaintenanceMode(ctx, false)
	require.NoError(t, err)
	assert.False(settings.IsMaintenanceMode)
}

func TestMaintenanceModeSurvivesReload(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := NewLocalSettingsService(dir)
	require.NoError(t, err)
	_, err = s.SetMaintenanceMode(ctx, true)
	require.NoError(t, err)

	reloaded, err := NewLocalSettingsService(dir)
	require.NoError(t, err)
	on, err := reloaded.IsMaintenanceMode(ctx)
	require.NoError(t, err)
	assert.True(t, on)
}
