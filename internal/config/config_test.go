package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefault_MatchesSpecDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 60*time.Second, cfg.StaleTimeout)
	assert.Equal(t, 60*time.Second, cfg.ICAOCacheTTL)
	assert.Equal(t, 0.05, cfg.NoiseFloorAlpha)
	assert.Equal(t, 2.0, cfg.PreambleRatio)
	assert.Equal(t, 0.15, cfg.BitDeltaThreshold)
	assert.Equal(t, 0.20, cfg.MaxUncertainRatio)
	assert.Equal(t, -5000, cfg.RapidDescentFPM)
	assert.Equal(t, 500, cfg.LowAltitudeFt)
	assert.Equal(t, 5.0, cfg.ProximityNM)
	assert.Equal(t, 1000.0, cfg.ProximityFt)
	assert.Equal(t, 300*time.Second, cfg.CirclingWindow)
	assert.Equal(t, 360.0, cfg.CirclingThresholdDeg)
	assert.Equal(t, 120, cfg.RingSize)
	assert.False(t, cfg.HasReference)
}
