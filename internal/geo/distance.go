// Package geo computes great-circle distances between coordinates.
package geo

import (
	"math"

	"lumera/internal/types"
)

// EarthRadiusMeters is the mean Earth radius used by DistanceMeters.
const EarthRadiusMeters = 6371e3

// DistanceMeters returns the Haversine distance between a and b.
func DistanceMeters(a, b types.Coordinates) float64 {
	phi1 := a.Latitude * math.Pi / 180
	phi2 := b.Latitude * math.Pi / 180
	dPhi := (b.Latitude - a.Latitude) * math.Pi / 180
	dLambda := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusMeters * c
}

// Within reports whether b lies strictly closer than radiusMeters to a.
func Within(a, b types.Coordinates, radiusMeters float64) bool {
	return DistanceMeters(a, b) < radiusMeters
}
