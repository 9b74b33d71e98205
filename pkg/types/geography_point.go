package types

import (
	"fmt"
	"math"
)

// EarthRadiusKm is the mean Earth radius used for great-circle distances.
const EarthRadiusKm = 6371.0

// GeographyPoint is a WGS84 coordinate in decimal degrees.
type GeographyPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Validate rejects coordinates outside the WGS84 ranges.
func (g GeographyPoint) Validate() error {
	if math.IsNaN(g.Lat) || g.Lat < -90 || g.Lat > 90 {
		return fmt.Errorf("geography: latitude %v out of range", g.Lat)
	}
	if math.IsNaN(g.Lng) || g.Lng < -180 || g.Lng > 180 {
		return fmt.Errorf("geography: longitude %v out of range", g.Lng)
	}
	return nil
}

// DistanceKm returns the haversine distance between g and other.
func (g GeographyPoint) DistanceKm(other GeographyPoint) float64 {
	lat1 := radians(g.Lat)
	lat2 := radians(other.Lat)
	dLat := radians(other.Lat - g.Lat)
	dLng := radians(other.Lng - g.Lng)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * EarthRadiusKm * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func (g GeographyPoint) String() string {
	return fmt.Sprintf("(%f, %f)", g.Lat, g.Lng)
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
