package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, ProfileDefault, cfg.Profile)
	assert.Equal(t, 1024, cfg.Cache.Capacity)
	assert.Equal(t, 64, cfg.Loader.MaxConcurrent)
	assert.Equal(t, 2, cfg.Loader.MaxRetries)
	assert.Equal(t, uint32(2), cfg.Pyramid.KeepBuffer)
	assert.Equal(t, 30*time.Second, cfg.Pyramid.RetentionWindow)
}

func TestProfilesScaleResources(t *testing.T) {
	low := &Config{Profile: ProfileLow}
	low.applyProfile()
	assert.Equal(t, 256, low.Cache.Capacity)
	assert.Equal(t, 16, low.Loader.MaxConcurrent)

	high := &Config{Profile: ProfileHigh}
	high.applyProfile()
	assert.Equal(t, 4096, high.Cache.Capacity)
	assert.Equal(t, 128, high.Loader.MaxConcurrent)
}

func TestExplicitValuesBeatProfile(t *testing.T) {
	cfg := &Config{Profile: ProfileLow}
	cfg.Cache.Capacity = 2000
	cfg.applyProfile()
	assert.Equal(t, 2000, cfg.Cache.Capacity)
	assert.Equal(t, 16, cfg.Loader.MaxConcurrent)
}

func TestNewReadsEnvironment(t *testing.T) {
	t.Setenv("TILEMAP_PROFILE", "high")
	t.Setenv("TILEMAP_LOADER_MAX_RETRIES", "5")
	t.Setenv("TILEMAP_PYRAMID_MAX_ZOOM", "16")
	t.Setenv("TILEMAP_LOG_LEVEL", "debug")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, ProfileHigh, cfg.Profile)
	assert.Equal(t, 5, cfg.Loader.MaxRetries)
	assert.Equal(t, uint8(16), cfg.Pyramid.MaxZoom)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, 4096, cfg.Cache.Capacity)
}
