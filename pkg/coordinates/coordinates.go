// Package coordinates provides the small amount of spherical geometry the map
// views need: great-circle distance, initial bearing and angle normalization.
package coordinates

import (
	"math"
)

// Constants for coordinate calculations
const (
	// DegreesToRadians converts degrees to radians
	DegreesToRadians = math.Pi / 180.0

	// RadiansToDegrees converts radians to degrees
	RadiansToDegrees = 180.0 / math.Pi

	// EarthRadiusKm is the Earth's radius in kilometers (WGS84 mean radius)
	EarthRadiusKm = 6371.0

	// KmPerNauticalMile is the length of one nautical mile in kilometers
	KmPerNauticalMile = 1.852

	// MetersPerSecondToKnots converts m/s to knots
	MetersPerSecondToKnots = 1.943844

	// MetersToFeet converts meters to feet
	MetersToFeet = 3.28084
)

// Geographic represents a position on Earth's surface.
// Uses the WGS84 coordinate system (same as GPS).
type Geographic struct {
	// Latitude in decimal degrees (-90 to +90)
	// Positive = North, Negative = South
	Latitude float64

	// Longitude in decimal degrees (-180 to +180)
	// Positive = East, Negative = West
	Longitude float64
}

// NormalizeAzimuth ensures azimuth is in the range [0, 360).
func NormalizeAzimuth(azimuth float64) float64 {
	az := math.Mod(azimuth, 360.0)
	if az < 0 {
		az += 360.0
	}
	return az
}

// NormalizeLongitude wraps a longitude into the range [-180, 180).
func NormalizeLongitude(lon float64) float64 {
	return NormalizeAzimuth(lon+180.0) - 180.0
}

// ClampLatitude limits a latitude to [-90, 90].
func ClampLatitude(lat float64) float64 {
	return math.Max(-90, math.Min(90, lat))
}

// Bearing calculates the initial bearing (forward azimuth) from one point to another.
// Uses spherical trigonometry to calculate the bearing along a great circle.
// Returns bearing in degrees (0-360), where 0/360 = North, 90 = East, 180 = South, 270 = West.
func Bearing(from, to Geographic) float64 {
	lat1 := from.Latitude * DegreesToRadians
	lon1 := from.Longitude * DegreesToRadians
	lat2 := to.Latitude * DegreesToRadians
	lon2 := to.Longitude * DegreesToRadians

	dLon := lon2 - lon1
	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)
	bearing := math.Atan2(y, x) * RadiansToDegrees

	// Normalize to 0-360
	if bearing < 0 {
		bearing += 360
	}

	return bearing
}

// DistanceNauticalMiles calculates the great-circle distance between two points.
// Uses the Haversine formula for accuracy over short and long distances.
// Returns distance in nautical miles.
func DistanceNauticalMiles(from, to Geographic) float64 {
	lat1Rad := from.Latitude * DegreesToRadians
	lon1Rad := from.Longitude * DegreesToRadians
	lat2Rad := to.Latitude * DegreesToRadians
	lon2Rad := to.Longitude * DegreesToRadians

	dLat := lat2Rad - lat1Rad
	dLon := lon2Rad - lon1Rad

	// Haversine formula
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c / KmPerNauticalMile
}
