// Package geo provides great-circle distance math for geofence checks.
package geo

import "math"

const earthRadiusMeters = 6371000.0

// DistanceMeters returns the Haversine distance between two coordinates.
func DistanceMeters(lat1, lng1, lat2, lng2 float64) float64 {
	phi1 := toRadians(lat1)
	phi2 := toRadians(lat2)
	dPhi := toRadians(lat2 - lat1)
	dLambda := toRadians(lng2 - lng1)

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMeters * c
}

// WithinRadius reports whether the point is at most radiusMeters from the
// center.
func WithinRadius(centerLat, centerLng, lat, lng, radiusMeters float64) bool {
	return DistanceMeters(centerLat, centerLng, lat, lng) <= radiusMeters
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
