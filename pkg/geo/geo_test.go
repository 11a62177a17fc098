package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistanceMetersZero(t *testing.T) {
	assert.Zero(t, DistanceMeters(39.7392, -104.9903, 39.7392, -104.9903))
}

func TestDistanceMetersKnownPair(t *testing.T) {
	// Denver Union Station to the Colorado State Capitol, roughly 1.9 km.
	d := DistanceMeters(39.7527, -105.0003, 39.7393, -104.9848)
	require.Greater(t, d, 1800.0)
	require.Less(t, d, 2100.0)
}

func TestDistanceMetersSymmetry(t *testing.T) {
	a := DistanceMeters(39.7527, -105.0003, 40.0150, -105.2705)
	b := DistanceMeters(40.0150, -105.2705, 39.7527, -105.0003)
	assert.InDelta(t, a, b, 1e-9)
}

func TestWithinRadiusBoundary(t *testing.T) {
	// ~0.0009 degrees of latitude is about 100 m.
	centerLat, centerLng := 39.7392, -104.9903
	assert.True(t, WithinRadius(centerLat, centerLng, centerLat+0.00085, centerLng, 100),
		"point ~94m away should be inside a 100m fence")
	assert.False(t, WithinRadius(centerLat, centerLng, centerLat+0.0012, centerLng, 100),
		"point ~133m away should be outside a 100m fence")
}
